// FILE: pkg/ai/contextasm/assembler.go
// PURPOSE: Build the complex-tier prompt context from domain sections and conversation memory

package contextasm

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"ai-kindergarten-be/pkg/ai/keyword"

	"github.com/patrickmn/go-cache"
)

// Turn is one remembered exchange in a conversation.
type Turn struct {
	Query    string
	Response string
	At       time.Time
}

// Assembled is the context handed to the complex tier.
type Assembled struct {
	Prompt    string
	Tokens    int
	Sections  []string
	FromCache bool
}

// Stats is a counter snapshot for the stats endpoint.
type Stats struct {
	Assembles     int64   `json:"assembles"`
	CacheHits     int64   `json:"cache_hits"`
	AverageTokens float64 `json:"average_tokens"`
}

// basePrompt is always included; entity sections are added when the query
// touches that entity group.
const basePrompt = "你是幼儿园运营平台的智能助手,用简洁准确的中文回答园长和教师的问题。"

var sectionPrompts = map[string]string{
	"student":    "学生档案包含在园状态、班级、年龄和监护人信息。",
	"teacher":    "教师档案包含在职状态、带班安排和考勤记录。",
	"class":      "班级分为小班、中班、大班,各有容量上限。",
	"activity":   "活动包含报名、进行中和已完成三种状态。",
	"parent":     "家长账号与学生档案绑定,可接收园所通知。",
	"attendance": "考勤按日记录到校与离校时间,支持按班级汇总。",
	"fee":        "费用模块覆盖学费账单、缴费记录和欠费统计。",
	"schedule":   "课表按班级和星期组织,含课程与负责教师。",
	"health":     "健康档案记录体检、疫苗和身高体重变化。",
	"enrollment": "招生流程为咨询、登记、审核、录取四个阶段。",
}

// Assembler builds prompt context for the complex tier. Assembled contexts
// are cached by conversation and query shape for a short TTL; conversation
// memory keeps the last few turns per conversation.
type Assembler struct {
	dict     *keyword.Provider
	contexts *cache.Cache
	memory   *cache.Cache
	memMu    sync.Mutex
	maxTurns int
	logger   *log.Logger

	assembles   atomic.Int64
	cacheHits   atomic.Int64
	totalTokens atomic.Int64
}

func New(dict *keyword.Provider, contextTTL, memoryTTL time.Duration, maxTurns int, logger *log.Logger) *Assembler {
	if maxTurns <= 0 {
		maxTurns = 5
	}
	return &Assembler{
		dict:     dict,
		contexts: cache.New(contextTTL, contextTTL),
		memory:   cache.New(memoryTTL, 10*time.Minute),
		maxTurns: maxTurns,
		logger:   logger,
	}
}

// Assemble builds the context for a normalized query. Two queries with the
// same entity shape in the same conversation share a cached context until
// the TTL expires.
func (a *Assembler) Assemble(ctx context.Context, conversationID, normalizedQuery string) (Assembled, error) {
	if err := ctx.Err(); err != nil {
		return Assembled{}, err
	}

	sections := a.matchedSections(normalizedQuery)
	key := conversationID + "|" + strings.Join(sections, ",")

	if raw, found := a.contexts.Get(key); found {
		a.cacheHits.Add(1)
		cached := raw.(Assembled)
		cached.FromCache = true
		return cached, nil
	}

	var b strings.Builder
	b.WriteString(basePrompt)
	for _, name := range sections {
		b.WriteString("\n")
		b.WriteString(sectionPrompts[name])
	}
	for _, turn := range a.recentTurns(conversationID) {
		fmt.Fprintf(&b, "\n此前对话 问:%s 答:%s", turn.Query, turn.Response)
	}

	assembled := Assembled{
		Prompt:   b.String(),
		Sections: sections,
	}
	assembled.Tokens = len([]rune(assembled.Prompt))

	a.contexts.Set(key, assembled, cache.DefaultExpiration)
	a.assembles.Add(1)
	a.totalTokens.Add(int64(assembled.Tokens))
	return assembled, nil
}

// Remember appends a completed exchange to the conversation memory,
// keeping only the most recent turns. Writers are serialized so two
// concurrent requests on the same conversation cannot drop a turn; the
// stored slice is never mutated, readers keep seeing a consistent copy.
func (a *Assembler) Remember(conversationID, query, response string) {
	if conversationID == "" {
		return
	}
	a.memMu.Lock()
	defer a.memMu.Unlock()

	var turns []Turn
	if raw, found := a.memory.Get(conversationID); found {
		turns = raw.([]Turn)
	}
	next := make([]Turn, 0, len(turns)+1)
	next = append(next, turns...)
	next = append(next, Turn{Query: query, Response: response, At: time.Now()})
	if len(next) > a.maxTurns {
		next = next[len(next)-a.maxTurns:]
	}
	a.memory.Set(conversationID, next, cache.DefaultExpiration)
}

func (a *Assembler) recentTurns(conversationID string) []Turn {
	if conversationID == "" {
		return nil
	}
	if raw, found := a.memory.Get(conversationID); found {
		return raw.([]Turn)
	}
	return nil
}

// matchedSections returns the entity groups touched by the query, sorted
// so the cache key is deterministic.
func (a *Assembler) matchedSections(normalizedQuery string) []string {
	dict, ok := a.dict.Current()
	if !ok {
		return nil
	}

	var sections []string
	for _, label := range dict.MatchGroups(normalizedQuery).Matched {
		name, found := strings.CutPrefix(label, "entity:")
		if !found {
			continue
		}
		if _, known := sectionPrompts[name]; known {
			sections = append(sections, name)
		}
	}
	sort.Strings(sections)
	return sections
}

// Purge drops cached contexts and conversation memory and resets counters.
func (a *Assembler) Purge() {
	a.contexts.Flush()
	a.memory.Flush()
	a.assembles.Store(0)
	a.cacheHits.Store(0)
	a.totalTokens.Store(0)
}

// Stats reports assembly counters.
func (a *Assembler) Stats() Stats {
	stats := Stats{
		Assembles: a.assembles.Load(),
		CacheHits: a.cacheHits.Load(),
	}
	if stats.Assembles > 0 {
		stats.AverageTokens = float64(a.totalTokens.Load()) / float64(stats.Assembles)
	}
	return stats
}
