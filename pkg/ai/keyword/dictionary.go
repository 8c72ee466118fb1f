// FILE: pkg/ai/keyword/dictionary.go
// PURPOSE: Keyword dictionary used for direct-match routing and complexity scoring

package keyword

import (
	"sort"
	"strings"
)

// DirectMatch is a precomputed answer rule for a high-frequency simple query.
type DirectMatch struct {
	Phrase   string `json:"phrase"`
	Response string `json:"response"`
	Action   string `json:"action"`
	Tokens   int    `json:"tokens"`
}

// Dictionary holds the four keyword sets consulted during routing.
// A Dictionary is immutable after construction; reloads build a new one
// and swap the reference atomically (see Provider).
type Dictionary struct {
	Actions       map[string][]string
	Entities      map[string][]string
	Modifiers     map[string][]string
	DirectMatches map[string]DirectMatch // keyed by normalized phrase

	// sorted longest-first for deterministic fuzzy matching
	phraseOrder []string
}

// GroupMatch is the result of scanning a query against the action, entity
// and modifier sets.
type GroupMatch struct {
	ActionHits   int
	EntityHits   int
	ModifierHits int
	Matched      []string // "action:create", "entity:student", ...
}

// Normalize canonicalizes query text: casefold, trim, collapse whitespace.
func Normalize(text string) string {
	lowered := strings.ToLower(strings.TrimSpace(text))
	return strings.Join(strings.Fields(lowered), " ")
}

// finalize must be called once after the maps are populated.
func (d *Dictionary) finalize() {
	d.phraseOrder = make([]string, 0, len(d.DirectMatches))
	for phrase := range d.DirectMatches {
		d.phraseOrder = append(d.phraseOrder, phrase)
	}
	// Longest phrase first so "今天有多少学生" wins over "多少学生".
	// Equal lengths fall back to lexicographic order for determinism.
	sort.Slice(d.phraseOrder, func(i, j int) bool {
		li, lj := len([]rune(d.phraseOrder[i])), len([]rune(d.phraseOrder[j]))
		if li != lj {
			return li > lj
		}
		return d.phraseOrder[i] < d.phraseOrder[j]
	})
}

// FindDirectMatch returns the direct-match rule for a normalized query.
// Exact phrase equality is checked first; otherwise the longest dictionary
// phrase contained in the query wins.
func (d *Dictionary) FindDirectMatch(normalizedQuery string) (DirectMatch, bool) {
	if normalizedQuery == "" {
		return DirectMatch{}, false
	}
	if m, ok := d.DirectMatches[normalizedQuery]; ok {
		return m, true
	}
	for _, phrase := range d.phraseOrder {
		if strings.Contains(normalizedQuery, phrase) {
			return d.DirectMatches[phrase], true
		}
	}
	return DirectMatch{}, false
}

// MatchGroups counts action/entity/modifier terms occurring in the query.
// Each group contributes at most one hit per term type occurrence.
func (d *Dictionary) MatchGroups(normalizedQuery string) GroupMatch {
	var result GroupMatch
	seen := make(map[string]bool)

	scan := func(groups map[string][]string, prefix string, counter *int) {
		for groupName, terms := range groups {
			for _, term := range terms {
				if strings.Contains(normalizedQuery, term) {
					key := prefix + ":" + groupName
					if !seen[key] {
						seen[key] = true
						result.Matched = append(result.Matched, key)
					}
					*counter++
					break
				}
			}
		}
	}

	scan(d.Actions, "action", &result.ActionHits)
	scan(d.Entities, "entity", &result.EntityHits)
	scan(d.Modifiers, "modifier", &result.ModifierHits)

	sort.Strings(result.Matched)
	return result
}

// Counts reports dictionary sizes for the admin inspection endpoint.
func (d *Dictionary) Counts() (actions, entities, modifiers, directMatches int) {
	for _, terms := range d.Actions {
		actions += len(terms)
	}
	for _, terms := range d.Entities {
		entities += len(terms)
	}
	for _, terms := range d.Modifiers {
		modifiers += len(terms)
	}
	return actions, entities, modifiers, len(d.DirectMatches)
}

// DefaultDictionary builds the built-in kindergarten operations dictionary.
// External JSON dictionaries are merged over these defaults by the Provider.
func DefaultDictionary() *Dictionary {
	d := &Dictionary{
		Actions: map[string][]string{
			"create":   {"添加", "新增", "创建", "新建", "录入", "注册"},
			"read":     {"查询", "查看", "显示", "列表", "查找", "搜索", "获取"},
			"update":   {"修改", "更新", "编辑", "变更", "调整"},
			"delete":   {"删除", "移除", "清除", "取消"},
			"count":    {"统计", "总数", "数量", "多少", "计算", "汇总"},
			"analyze":  {"分析", "评估", "报告", "趋势", "预测"},
			"navigate": {"跳转", "打开", "进入", "访问", "导航"},
		},
		Entities: map[string][]string{
			"student":    {"学生", "小朋友", "孩子", "幼儿", "儿童"},
			"teacher":    {"教师", "老师", "班主任", "教职工", "员工"},
			"class":      {"班级", "年级", "小班", "中班", "大班"},
			"activity":   {"活动", "课程", "游戏", "项目", "课堂"},
			"parent":     {"家长", "父母", "监护人"},
			"attendance": {"考勤", "出勤", "签到", "到校"},
			"fee":        {"费用", "学费", "收费", "缴费", "账单"},
			"schedule":   {"课表", "时间表", "安排", "计划"},
			"health":     {"健康", "体检", "疫苗", "身高", "体重"},
			"enrollment": {"招生", "报名", "入学"},
		},
		Modifiers: map[string][]string{
			"time":   {"今天", "今日", "昨天", "明天", "本周", "本月", "今年", "本学期"},
			"status": {"已完成", "进行中", "未开始", "已取消"},
			"age":    {"3岁", "4岁", "5岁", "6岁"},
			"gender": {"男", "女", "男孩", "女孩"},
		},
		DirectMatches: map[string]DirectMatch{},
	}

	defaults := []DirectMatch{
		{Phrase: "学生总数", Response: "正在查询学生总数...", Action: "count_students", Tokens: 10},
		{Phrase: "多少学生", Response: "正在查询学生总数...", Action: "count_students", Tokens: 10},
		{Phrase: "学生数量", Response: "正在查询学生总数...", Action: "count_students", Tokens: 10},
		{Phrase: "在校学生", Response: "正在查询在校学生数...", Action: "count_students", Tokens: 10},
		{Phrase: "在园幼儿", Response: "正在查询在园幼儿数量...", Action: "get_active_student_count", Tokens: 15},
		{Phrase: "在园学生", Response: "正在查询在园学生数量...", Action: "get_active_student_count", Tokens: 15},
		{Phrase: "男生人数", Response: "正在统计男生人数...", Action: "get_male_student_count", Tokens: 15},
		{Phrase: "女生人数", Response: "正在统计女生人数...", Action: "get_female_student_count", Tokens: 15},
		{Phrase: "新生人数", Response: "正在统计新生人数...", Action: "get_new_student_count", Tokens: 15},
		{Phrase: "教师总数", Response: "正在查询教师总数...", Action: "count_teachers", Tokens: 10},
		{Phrase: "在职教师", Response: "正在查询在职教师数量...", Action: "get_active_teacher_count", Tokens: 15},
		{Phrase: "教师出勤率", Response: "正在分析教师出勤率...", Action: "get_teacher_attendance_rate", Tokens: 20},
		{Phrase: "教师工作量", Response: "正在分析教师工作量...", Action: "get_teacher_workload_stats", Tokens: 25},
		{Phrase: "家长总数", Response: "正在查询家长总数...", Action: "count_parents", Tokens: 10},
		{Phrase: "班级总数", Response: "正在查询班级总数...", Action: "count_classes", Tokens: 10},
		{Phrase: "班级容量", Response: "正在查询班级容量信息...", Action: "get_class_capacity", Tokens: 20},
		{Phrase: "空余学位", Response: "正在统计空余学位数量...", Action: "get_available_seats", Tokens: 20},
		{Phrase: "班级人数分布", Response: "正在分析班级人数分布...", Action: "get_class_size_distribution", Tokens: 25},
		{Phrase: "今日活动", Response: "正在查询今日活动安排...", Action: "get_today_activities", Tokens: 15},
		{Phrase: "活动列表", Response: "正在查询活动列表...", Action: "get_activity_list", Tokens: 15},
		{Phrase: "进行中活动", Response: "正在查询进行中的活动...", Action: "get_ongoing_activities", Tokens: 20},
		{Phrase: "活动参与率", Response: "正在统计活动参与率...", Action: "get_activity_participation_stats", Tokens: 25},
		{Phrase: "活动完成率", Response: "正在分析活动完成率...", Action: "get_activity_completion_rate", Tokens: 25},
		{Phrase: "活动报名人数", Response: "正在统计活动报名人数...", Action: "get_activity_registration_count", Tokens: 20},
		{Phrase: "考勤统计", Response: "正在查询考勤统计数据...", Action: "get_attendance_stats", Tokens: 20},
		{Phrase: "费用统计", Response: "正在查询费用统计数据...", Action: "get_fee_stats", Tokens: 20},
		{Phrase: "收费总额", Response: "正在统计收费总额...", Action: "get_total_revenue", Tokens: 20},
		{Phrase: "本月收入", Response: "正在查询本月收入情况...", Action: "get_monthly_revenue", Tokens: 20},
		{Phrase: "缴费率", Response: "正在分析缴费率...", Action: "get_payment_rate", Tokens: 20},
		{Phrase: "招生统计", Response: "正在查询招生统计数据...", Action: "get_enrollment_stats", Tokens: 20},
		{Phrase: "本月招生数据", Response: "正在查询本月招生数据...", Action: "get_monthly_enrollment_data", Tokens: 25},
		{Phrase: "今日招生人数", Response: "正在查询今日招生人数...", Action: "get_daily_enrollment_data", Tokens: 20},
		{Phrase: "招生转化率", Response: "正在分析招生转化率...", Action: "get_enrollment_conversion_rate", Tokens: 25},
		{Phrase: "待审核招生", Response: "正在查询待审核招生申请...", Action: "get_pending_enrollment_data", Tokens: 20},
		{Phrase: "今日数据", Response: "正在汇总今日数据...", Action: "get_daily_summary", Tokens: 20},
		{Phrase: "今日运营数据", Response: "正在汇总今日运营数据...", Action: "get_daily_summary", Tokens: 20},
		{Phrase: "本周统计", Response: "正在生成本周统计报告...", Action: "get_weekly_summary", Tokens: 25},
		{Phrase: "本月报告", Response: "正在生成本月数据报告...", Action: "get_monthly_summary", Tokens: 30},
		{Phrase: "年度总结", Response: "正在生成年度总结报告...", Action: "get_yearly_summary", Tokens: 35},
		{Phrase: "数据概览", Response: "正在生成数据概览...", Action: "get_data_overview", Tokens: 30},
		{Phrase: "运营指标", Response: "正在分析运营指标...", Action: "get_operation_metrics", Tokens: 30},
		{Phrase: "关键数据", Response: "正在汇总关键数据...", Action: "get_key_metrics", Tokens: 25},
		{Phrase: "系统状态", Response: "正在查询系统状态...", Action: "get_system_status", Tokens: 15},
		{Phrase: "未读消息", Response: "正在查询未读消息...", Action: "get_unread_messages", Tokens: 15},
		{Phrase: "最新公告", Response: "正在查询最新公告...", Action: "get_latest_announcements", Tokens: 15},
		{Phrase: "今日课程安排", Response: "正在查询今日课程安排...", Action: "get_today_schedule", Tokens: 15},
		{Phrase: "待审核事项", Response: "正在查询待审核事项...", Action: "get_pending_approvals", Tokens: 15},
	}
	for _, m := range defaults {
		d.DirectMatches[Normalize(m.Phrase)] = m
	}

	d.finalize()
	return d
}
