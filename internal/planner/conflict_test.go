package planner

import (
	"errors"
	"strings"
	"testing"
)

// ── 测试辅助 ──

func meeting(days, start, end, location string) ParsedMeeting {
	return ParsedMeeting{
		Days:       days,
		DaysOfWeek: ParseDaysString(days),
		StartTime:  start,
		EndTime:    end,
		Location:   location,
	}
}

func section(id int64, label string, meetings ...ParsedMeeting) CourseSection {
	return CourseSection{
		OfferingID:     id,
		CourseCode:     "CS 450",
		SectionLabel:   label,
		Title:          "Operating Systems",
		SeatsAvailable: 10,
		SeatsCapacity:  30,
		Meetings:       meetings,
	}
}

func event(title string, day int, start, end, location string) CalendarEvent {
	return CalendarEvent{
		ID:        title,
		Title:     title,
		DayOfWeek: day,
		StartTime: start,
		EndTime:   end,
		Location:  location,
		Category:  CategoryWork,
	}
}

func countType(check ConflictCheck, typ ConflictType) int {
	n := 0
	for _, c := range check.Conflicts {
		if c.Type == typ {
			n++
		}
	}
	return n
}

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }

// ════════════════════════════════════════════════════════════
// CheckSectionConflicts 测试
// ════════════════════════════════════════════════════════════

func TestCheckSectionConflicts_OnlineNeverConflicts(t *testing.T) {
	online := section(1, "W01")
	events := []CalendarEvent{
		event("Job", Monday, "00:00", "23:59", "Office"),
		event("Job", Tuesday, "00:00", "23:59", "Office"),
	}
	prefs := Preferences{MaxDailyHours: floatPtr(1), LunchBreakRequired: true, LunchStartTime: "12:00", LunchEndTime: "13:00"}

	check, err := CheckSectionConflicts(online, events, prefs)
	if err != nil {
		t.Fatalf("不应出错: %v", err)
	}
	if check.HasConflict || len(check.Conflicts) != 0 {
		t.Errorf("线上课程不应有冲突，实际 %+v", check.Conflicts)
	}
}

func TestCheckSectionConflicts_TimeOverlap(t *testing.T) {
	sec := section(1, "001", meeting("MWF", "09:00", "10:00", "Hall A"))
	events := []CalendarEvent{event("Shift", Wednesday, "09:30", "11:00", "Cafe")}

	check, err := CheckSectionConflicts(sec, events, Preferences{})
	if err != nil {
		t.Fatalf("不应出错: %v", err)
	}
	if !check.HasConflict {
		t.Fatal("期望存在冲突")
	}
	if countType(check, ConflictTimeOverlap) != 1 {
		t.Fatalf("期望 1 条 time_overlap，实际 %+v", check.Conflicts)
	}
	c := check.Conflicts[0]
	if c.Day != Wednesday || c.Event == nil || c.Event.Title != "Shift" {
		t.Errorf("冲突详情错误: %+v", c)
	}
	// 重叠时不再重复报告 back_to_back
	if countType(check, ConflictBackToBack) != 0 {
		t.Error("重叠事件不应再报告 back_to_back")
	}
}

func TestCheckSectionConflicts_OtherDayIgnored(t *testing.T) {
	sec := section(1, "001", meeting("MWF", "09:00", "10:00", "Hall A"))
	events := []CalendarEvent{event("Shift", Tuesday, "09:00", "10:00", "Cafe")}

	check, err := CheckSectionConflicts(sec, events, Preferences{})
	if err != nil {
		t.Fatalf("不应出错: %v", err)
	}
	if check.HasConflict {
		t.Errorf("不同星期不应冲突: %+v", check.Conflicts)
	}
}

func TestCheckSectionConflicts_BackToBack(t *testing.T) {
	tests := []struct {
		name       string
		evStart    string
		evEnd      string
		evLocation string
		transition *int
		want       int
	}{
		{"间隔5分钟且不同楼", "10:05", "11:00", "Hall B", nil, 1},
		{"首尾相接且不同楼", "10:00", "11:00", "Hall B", nil, 1},
		{"事件在前，间隔10分钟", "07:50", "08:50", "Hall B", nil, 1},
		{"同一地点", "10:05", "11:00", "Hall A", nil, 0},
		{"地点未知", "10:05", "11:00", "", nil, 0},
		{"间隔足够", "10:30", "11:00", "Hall B", nil, 0},
		{"间隔等于阈值", "10:15", "11:00", "Hall B", nil, 0},
		{"自定义阈值0", "10:05", "11:00", "Hall B", intPtr(0), 0},
		{"自定义阈值60", "10:30", "11:00", "Hall B", intPtr(60), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sec := section(1, "001", meeting("M", "09:00", "10:00", "Hall A"))
			events := []CalendarEvent{event("Club", Monday, tt.evStart, tt.evEnd, tt.evLocation)}
			prefs := Preferences{MinTransitionMinutes: tt.transition}

			check, err := CheckSectionConflicts(sec, events, prefs)
			if err != nil {
				t.Fatalf("不应出错: %v", err)
			}
			if got := countType(check, ConflictBackToBack); got != tt.want {
				t.Errorf("期望 %d 条 back_to_back，实际 %d (%+v)", tt.want, got, check.Conflicts)
			}
		})
	}
}

func TestCheckSectionConflicts_BackToBackMessage(t *testing.T) {
	sec := section(1, "001", meeting("M", "09:00", "10:00", "Hall A"))
	events := []CalendarEvent{event("Club", Monday, "10:05", "11:00", "Hall B")}

	check, _ := CheckSectionConflicts(sec, events, Preferences{})
	if len(check.Conflicts) != 1 || !strings.Contains(check.Conflicts[0].Message, "5 min gap") {
		t.Errorf("消息应包含间隔分钟数: %+v", check.Conflicts)
	}
}

func TestCheckSectionConflicts_ExceedsDailyHours(t *testing.T) {
	sec := section(1, "001", meeting("MW", "13:00", "14:30", "Hall A"))
	events := []CalendarEvent{
		event("Work", Monday, "08:00", "10:00", "Office"),
		event("Gym", Monday, "17:00", "17:30", "Gym"),
	}

	// 周一：2h + 0.5h + 1.5h = 4h
	check, err := CheckSectionConflicts(sec, events, Preferences{MaxDailyHours: floatPtr(3.5)})
	if err != nil {
		t.Fatalf("不应出错: %v", err)
	}
	if countType(check, ConflictExceedsDailyHours) != 1 {
		t.Fatalf("期望 1 条 exceeds_daily_hours，实际 %+v", check.Conflicts)
	}
	if check.Conflicts[0].Day != Monday {
		t.Errorf("期望周一超时，实际 %d", check.Conflicts[0].Day)
	}

	// 恰好等于上限不算超出
	check, _ = CheckSectionConflicts(sec, events, Preferences{MaxDailyHours: floatPtr(4)})
	if check.HasConflict {
		t.Errorf("等于上限不应冲突: %+v", check.Conflicts)
	}

	// 0 视为不限制
	check, _ = CheckSectionConflicts(sec, events, Preferences{MaxDailyHours: floatPtr(0)})
	if check.HasConflict {
		t.Errorf("max_daily_hours=0 不应限制: %+v", check.Conflicts)
	}
}

func TestCheckSectionConflicts_BlocksLunch(t *testing.T) {
	sec := section(1, "001", meeting("MWF", "11:30", "12:30", "Hall A"))
	prefs := Preferences{LunchBreakRequired: true, LunchStartTime: "12:00", LunchEndTime: "13:00"}

	check, err := CheckSectionConflicts(sec, nil, prefs)
	if err != nil {
		t.Fatalf("不应出错: %v", err)
	}
	if got := countType(check, ConflictBlocksLunch); got != 3 {
		t.Errorf("期望每个上课日各 1 条 blocks_lunch，实际 %d", got)
	}

	prefs.LunchBreakRequired = false
	check, _ = CheckSectionConflicts(sec, nil, prefs)
	if check.HasConflict {
		t.Error("未开启午休时不应冲突")
	}
}

func TestCheckSectionConflicts_CollectsAll(t *testing.T) {
	sec := section(1, "001", meeting("MW", "11:30", "12:30", "Hall A"))
	events := []CalendarEvent{event("Shift", Monday, "11:00", "12:00", "Cafe")}
	prefs := Preferences{LunchBreakRequired: true, LunchStartTime: "12:00", LunchEndTime: "13:00"}

	check, _ := CheckSectionConflicts(sec, events, prefs)
	if countType(check, ConflictTimeOverlap) != 1 || countType(check, ConflictBlocksLunch) != 2 {
		t.Errorf("应收集全部冲突，实际 %+v", check.Conflicts)
	}
}

func TestCheckSectionConflicts_InvalidPreferences(t *testing.T) {
	sec := section(7, "001", meeting("M", "09:00", "10:00", ""))
	prefs := Preferences{EarliestClassTime: "18:00", LatestClassTime: "08:00"}

	_, err := CheckSectionConflicts(sec, nil, prefs)
	var cde *ConflictDetectionError
	if !errors.As(err, &cde) {
		t.Fatalf("期望 ConflictDetectionError，实际: %v", err)
	}
	if !errors.Is(err, ErrInvalidPreference) {
		t.Errorf("应包装 ErrInvalidPreference: %v", err)
	}
	if cde.OfferingID != 7 {
		t.Errorf("期望 OfferingID=7，实际 %d", cde.OfferingID)
	}
}

func TestCheckSectionConflicts_MalformedMeeting(t *testing.T) {
	sec := section(1, "001", meeting("M", "10:00", "09:00", ""))

	_, err := CheckSectionConflicts(sec, nil, Preferences{})
	var cde *ConflictDetectionError
	if !errors.As(err, &cde) {
		t.Errorf("期望 ConflictDetectionError，实际: %v", err)
	}
}
