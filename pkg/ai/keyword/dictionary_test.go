package keyword

import (
	"log"
	"os"
	"path/filepath"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "trims whitespace", input: "  学生总数  ", want: "学生总数"},
		{name: "casefolds ascii", input: "Show Students", want: "show students"},
		{name: "collapses inner whitespace", input: "学生   总数\t统计", want: "学生 总数 统计"},
		{name: "empty", input: "   ", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.input); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestFindDirectMatch(t *testing.T) {
	d := DefaultDictionary()

	tests := []struct {
		name       string
		query      string
		wantAction string
		wantFound  bool
	}{
		{name: "exact phrase", query: "学生总数", wantAction: "count_students", wantFound: true},
		{name: "phrase contained in longer query", query: "查看今日运营数据", wantAction: "get_daily_summary", wantFound: true},
		{name: "longest phrase wins", query: "帮我看看本月招生数据", wantAction: "get_monthly_enrollment_data", wantFound: true},
		{name: "no match", query: "这个月和上个月的转化率对比趋势是什么", wantFound: false},
		{name: "empty query", query: "", wantFound: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, found := d.FindDirectMatch(Normalize(tt.query))
			if found != tt.wantFound {
				t.Fatalf("FindDirectMatch(%q) found = %v, want %v", tt.query, found, tt.wantFound)
			}
			if found && m.Action != tt.wantAction {
				t.Errorf("FindDirectMatch(%q) action = %q, want %q", tt.query, m.Action, tt.wantAction)
			}
		})
	}
}

func TestMatchGroups(t *testing.T) {
	d := DefaultDictionary()

	m := d.MatchGroups(Normalize("查询本月的学生考勤情况"))
	if m.ActionHits == 0 {
		t.Error("expected at least one action hit for 查询")
	}
	if m.EntityHits < 2 {
		t.Errorf("expected entity hits for 学生 and 考勤, got %d", m.EntityHits)
	}
	if m.ModifierHits == 0 {
		t.Error("expected modifier hit for 本月")
	}
	if len(m.Matched) == 0 {
		t.Error("expected matched keyword labels")
	}
}

func TestProviderMergesExternalDictionary(t *testing.T) {
	dir := t.TempDir()
	content := `{
		"name": "test-extension",
		"directMatches": {
			"园区概况": {"response": "正在查询园区概况...", "action": "get_campus_overview", "tokens": 15},
			"//comment": {"response": "ignored", "action": "ignored"}
		},
		"entities": {"campus": ["园区"]}
	}`
	if err := os.WriteFile(filepath.Join(dir, "10-extra.json"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	p := NewProvider(dir, log.New(os.Stderr, "", 0))
	d, ok := p.Current()
	if !ok {
		t.Fatal("provider should be healthy")
	}

	m, found := d.FindDirectMatch("园区概况")
	if !found || m.Action != "get_campus_overview" {
		t.Errorf("external direct match not merged, found=%v action=%q", found, m.Action)
	}
	if _, found := d.FindDirectMatch("//comment"); found {
		t.Error("comment entries must be skipped")
	}
	// Defaults must survive the merge.
	if _, found := d.FindDirectMatch("学生总数"); !found {
		t.Error("default direct match lost after merge")
	}
}

func TestProviderFailsClosedOnBadDirectory(t *testing.T) {
	p := NewProvider("/nonexistent/dictionary/dir", log.New(os.Stderr, "", 0))
	if p.Healthy() {
		t.Error("provider must be unhealthy when the configured directory cannot be read")
	}
	if _, ok := p.Current(); ok {
		t.Error("Current must report no dictionary when load failed")
	}
}

func TestProviderReloadRecovers(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "01-bad.json")
	if err := os.WriteFile(bad, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	p := NewProvider(dir, log.New(os.Stderr, "", 0))
	if p.Healthy() {
		t.Fatal("expected unhealthy provider for corrupt dictionary file")
	}

	if err := os.WriteFile(bad, []byte(`{"directMatches":{}}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := p.Reload(); err != nil {
		t.Fatalf("Reload after fix: %v", err)
	}
	if !p.Healthy() {
		t.Error("provider should recover after a successful reload")
	}
}
