package planner

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func hasNote(notes []string, substr string) bool {
	for _, n := range notes {
		if strings.Contains(n, substr) {
			return true
		}
	}
	return false
}

func rankOne(t *testing.T, s CourseSection, prefs Preferences) RankedSection {
	t.Helper()
	ranked, err := RankSections([]CourseSection{s}, prefs)
	if err != nil {
		t.Fatalf("RankSections 不应出错: %v", err)
	}
	if len(ranked) != 1 {
		t.Fatalf("期望 1 个结果，实际 %d", len(ranked))
	}
	return ranked[0]
}

// ════════════════════════════════════════════════════════════
// 单条规则
// ════════════════════════════════════════════════════════════

func TestRankSections_Online(t *testing.T) {
	r := rankOne(t, section(1, "W01"), Preferences{PreferredDays: []int{Monday}, EarliestClassTime: "08:00"})
	if r.Score != 50 {
		t.Errorf("线上课程期望 50 分，实际 %d", r.Score)
	}
	if !hasNote(r.Details.Pros, "Online/Async course") {
		t.Errorf("期望 Online/Async pro，实际 %v", r.Details.Pros)
	}
	if len(r.Details.Cons) != 0 {
		t.Errorf("线上课程不应有 con: %v", r.Details.Cons)
	}
}

func TestRankSections_PreferredDays(t *testing.T) {
	mwf := section(1, "001", meeting("MWF", "09:00", "10:00", ""))

	r := rankOne(t, mwf, Preferences{PreferredDays: []int{Monday, Wednesday, Friday}})
	if !r.Details.DayMatch || !hasNote(r.Details.Pros, "preferred days") {
		t.Errorf("子集应加分: %+v", r.Details)
	}
	if r.Details.Breakdown.DayBonus <= 0 {
		t.Error("DayBonus 应为正")
	}

	r = rankOne(t, mwf, Preferences{PreferredDays: []int{Monday, Wednesday}})
	if r.Details.DayMatch || hasNote(r.Details.Pros, "preferred days") {
		t.Errorf("非子集不应加分: %+v", r.Details)
	}
	if !hasNote(r.Details.Cons, "not all preferred days") {
		t.Errorf("非子集应有 con: %v", r.Details.Cons)
	}
}

func TestRankSections_AvoidDays(t *testing.T) {
	mwf := section(1, "001", meeting("MWF", "09:00", "10:00", ""))
	r := rankOne(t, mwf, Preferences{AvoidDays: []int{Friday}})
	if !hasNote(r.Details.Cons, "avoided day (Fri)") {
		t.Errorf("期望避开日 con，实际 %v", r.Details.Cons)
	}
	if r.Details.Breakdown.AvoidDayPenalty >= 0 {
		t.Error("AvoidDayPenalty 应为负")
	}
}

func TestRankSections_TimeWindow(t *testing.T) {
	prefs := Preferences{EarliestClassTime: "08:00", LatestClassTime: "17:00"}

	inside := rankOne(t, section(1, "001", meeting("TTh", "09:30", "10:45", "")), prefs)
	if !inside.Details.TimeMatch || !hasNote(inside.Details.Pros, "within your preferred hours") {
		t.Errorf("窗口内应加分: %+v", inside.Details)
	}

	outside := rankOne(t, section(2, "002", meeting("TTh", "16:30", "18:00", "")), prefs)
	if outside.Details.TimeMatch || !hasNote(outside.Details.Cons, "outside your preferred hours") {
		t.Errorf("窗口外不应加分: %+v", outside.Details)
	}
	if inside.Score <= outside.Score {
		t.Errorf("窗口内得分应更高: %d vs %d", inside.Score, outside.Score)
	}
}

func TestRankSections_SeatsAndWaitlist(t *testing.T) {
	open := section(1, "001", meeting("M", "09:00", "10:00", ""))

	waitlisted := section(2, "002", meeting("M", "09:00", "10:00", ""))
	waitlisted.SeatsAvailable = 0
	waitlisted.WaitlistCount = 5

	full := section(3, "003", meeting("M", "09:00", "10:00", ""))
	full.SeatsAvailable = 0

	r := rankOne(t, open, Preferences{})
	if r.Details.WaitlistStatus != StatusOpen || !hasNote(r.Details.Pros, "Seats available") {
		t.Errorf("有余座应加分: %+v", r.Details)
	}

	w := rankOne(t, waitlisted, Preferences{AllowWaitlist: true})
	if w.Details.WaitlistStatus != StatusWaitlisted {
		t.Errorf("期望 waitlisted，实际 %s", w.Details.WaitlistStatus)
	}
	if !strings.HasPrefix(w.Details.Cons[0], "Waitlisted") {
		t.Errorf("期望 con 以 Waitlisted 开头，实际 %v", w.Details.Cons)
	}

	strict := rankOne(t, waitlisted, Preferences{AllowWaitlist: false})
	if strict.Score >= w.Score {
		t.Errorf("不允许候补时惩罚应更大: %d vs %d", strict.Score, w.Score)
	}

	f := rankOne(t, full, Preferences{})
	if f.Details.WaitlistStatus != StatusFull || !hasNote(f.Details.Cons, "Section full") {
		t.Errorf("已满应有 con: %+v", f.Details)
	}
	if f.Score >= r.Score {
		t.Errorf("已满得分应低于有余座: %d vs %d", f.Score, r.Score)
	}
}

func TestRankSections_MaxWaitlistPosition(t *testing.T) {
	s := section(2, "002", meeting("M", "09:00", "10:00", ""))
	s.SeatsAvailable = 0
	s.WaitlistCount = 8

	r := rankOne(t, s, Preferences{AllowWaitlist: true, MaxWaitlistPosition: intPtr(5)})
	if !hasNote(r.Details.Cons, "limit of 5") {
		t.Errorf("超出候补上限应有 con: %v", r.Details.Cons)
	}
	r = rankOne(t, s, Preferences{AllowWaitlist: true, MaxWaitlistPosition: intPtr(20)})
	if hasNote(r.Details.Cons, "limit of") {
		t.Errorf("未超出候补上限不应有 con: %v", r.Details.Cons)
	}
}

func TestRankSections_Breakdown(t *testing.T) {
	prefs := Preferences{PreferredDays: []int{1, 3, 5}, EarliestClassTime: "08:00", LatestClassTime: "17:00"}
	r := rankOne(t, section(1, "001", meeting("MWF", "09:00", "10:00", "")), prefs)

	b := r.Details.Breakdown
	sum := b.Base + b.DayBonus + b.TimeBonus + b.SeatBonus + b.WaitlistPenalty + b.FullPenalty + b.AvoidDayPenalty
	if sum != r.Score {
		t.Errorf("明细之和 %d 与得分 %d 不一致", sum, r.Score)
	}
	if r.Score < 0 || r.Score > 100 {
		t.Errorf("得分越界: %d", r.Score)
	}
}

// ════════════════════════════════════════════════════════════
// 排序性质
// ════════════════════════════════════════════════════════════

func sampleSections() []CourseSection {
	a := section(1, "001", meeting("MWF", "09:00", "10:00", ""))
	b := section(2, "002", meeting("TTh", "18:00", "19:15", ""))
	b.SeatsAvailable = 0
	b.WaitlistCount = 3
	c := section(3, "003", meeting("MW", "13:00", "14:15", ""))
	d := section(4, "004")
	e := section(5, "005", meeting("F", "08:00", "11:00", ""))
	e.SeatsAvailable = 0
	return []CourseSection{b, d, a, e, c}
}

func TestRankSections_SortedNonIncreasing(t *testing.T) {
	prefs := Preferences{PreferredDays: []int{1, 3}, EarliestClassTime: "08:30", LatestClassTime: "17:00"}
	ranked, err := RankSections(sampleSections(), prefs)
	if err != nil {
		t.Fatalf("不应出错: %v", err)
	}
	for i := 1; i < len(ranked); i++ {
		if ranked[i-1].Score < ranked[i].Score {
			t.Errorf("位置 %d 得分 %d 低于位置 %d 得分 %d", i-1, ranked[i-1].Score, i, ranked[i].Score)
		}
	}
}

func TestRankSections_StableForTies(t *testing.T) {
	a := section(10, "010", meeting("M", "09:00", "10:00", ""))
	b := section(11, "011", meeting("W", "09:00", "10:00", ""))
	c := section(12, "012", meeting("F", "09:00", "10:00", ""))

	ranked, _ := RankSections([]CourseSection{c, a, b}, Preferences{})
	got := []int64{ranked[0].Section.OfferingID, ranked[1].Section.OfferingID, ranked[2].Section.OfferingID}
	if !reflect.DeepEqual(got, []int64{12, 10, 11}) {
		t.Errorf("同分应保持输入顺序，实际 %v", got)
	}
}

func TestRankSections_Idempotent(t *testing.T) {
	prefs := Preferences{PreferredDays: []int{2, 4}, AllowWaitlist: true}
	first, err := RankSections(sampleSections(), prefs)
	if err != nil {
		t.Fatalf("不应出错: %v", err)
	}
	second, _ := RankSections(sampleSections(), prefs)
	if !reflect.DeepEqual(first, second) {
		t.Error("两次排序结果应一致")
	}
}

func TestRankSections_InvalidPreferences(t *testing.T) {
	_, err := RankSections(sampleSections(), Preferences{PreferredDays: []int{9}})
	var re *RankingError
	if !errors.As(err, &re) {
		t.Fatalf("期望 RankingError，实际: %v", err)
	}
	if !errors.Is(err, ErrInvalidPreference) {
		t.Errorf("应包装 ErrInvalidPreference: %v", err)
	}
}
