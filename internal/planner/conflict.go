package planner

import (
	"fmt"
	"strconv"
)

// ════════════════════════════════════════════════════════════
// 班级冲突检测
// ════════════════════════════════════════════════════════════
//
// 对每个上课日依次检查：
//   1. 与同日日历事件时间重叠            → time_overlap
//   2. 与同日事件间隔不足且地点不同      → back_to_back
//   3. 当日事件总时长 + 本班时长超上限   → exceeds_daily_hours
//   4. 占用午休窗口                      → blocks_lunch
// 所有冲突全部收集，不在第一个冲突处短路。

// CheckSectionConflicts 检测班级与现有日历、偏好之间的冲突
func CheckSectionConflicts(section CourseSection, events []CalendarEvent, prefs Preferences) (ConflictCheck, error) {
	if err := prefs.Validate(); err != nil {
		return ConflictCheck{}, &ConflictDetectionError{OfferingID: section.OfferingID, Err: err}
	}

	// 线上/异步课程不会产生时间冲突
	if len(section.Meetings) == 0 {
		return ConflictCheck{HasConflict: false, Conflicts: []ConflictDetail{}}, nil
	}

	meetingMinutes := make([]int, len(section.Meetings))
	for i, m := range section.Meetings {
		d, err := CalculateDuration(m.StartTime, m.EndTime)
		if err != nil {
			return ConflictCheck{}, &ConflictDetectionError{OfferingID: section.OfferingID, Err: fmt.Errorf("meeting %d: %w", i, err)}
		}
		meetingMinutes[i] = d
	}

	byDay := make(map[int][]CalendarEvent)
	eventMinutesByDay := make(map[int]int)
	for _, ev := range events {
		d, err := CalculateDuration(ev.StartTime, ev.EndTime)
		if err != nil {
			return ConflictCheck{}, &ConflictDetectionError{OfferingID: section.OfferingID, Err: fmt.Errorf("event %q: %w", ev.Title, err)}
		}
		byDay[ev.DayOfWeek] = append(byDay[ev.DayOfWeek], ev)
		eventMinutesByDay[ev.DayOfWeek] += d
	}

	conflicts := make([]ConflictDetail, 0)
	transition := prefs.TransitionMinutes()
	lunchStart, lunchEnd, lunchOn := prefs.lunchWindow()

	// 同一班级同一天可能有多次上课（如讲授 + 实验），按天累计时长
	sectionMinutesByDay := make(map[int]int)
	var dayOrder []int

	for i, m := range section.Meetings {
		start, end := mustMinutes(m.StartTime), mustMinutes(m.EndTime)

		for _, day := range m.DaysOfWeek {
			if _, seen := sectionMinutesByDay[day]; !seen {
				dayOrder = append(dayOrder, day)
			}
			sectionMinutesByDay[day] += meetingMinutes[i]

			for j := range byDay[day] {
				ev := byDay[day][j]
				evStart, evEnd := mustMinutes(ev.StartTime), mustMinutes(ev.EndTime)

				if start < evEnd && evStart < end {
					conflicts = append(conflicts, ConflictDetail{
						Type:    ConflictTimeOverlap,
						Message: fmt.Sprintf("Overlaps with %s (%s %s-%s)", ev.Title, DayName(day), ev.StartTime, ev.EndTime),
						Event:   &ev,
						Day:     day,
					})
					continue
				}

				gap := gapMinutes(start, end, evStart, evEnd)
				if gap < transition && differentLocations(m.Location, ev.Location) {
					conflicts = append(conflicts, ConflictDetail{
						Type:    ConflictBackToBack,
						Message: fmt.Sprintf("Back-to-back with %s in different building (%d min gap, need %d)", ev.Title, gap, transition),
						Event:   &ev,
						Day:     day,
					})
				}
			}

			if lunchOn {
				blocks, _ := TimeRangesOverlap(m.StartTime, m.EndTime, lunchStart, lunchEnd)
				if blocks {
					conflicts = append(conflicts, ConflictDetail{
						Type:    ConflictBlocksLunch,
						Message: fmt.Sprintf("Blocks lunch time (%s-%s) on %s", lunchStart, lunchEnd, DayName(day)),
						Day:     day,
					})
				}
			}
		}
	}

	// max_daily_hours 为空或 0 视为不限制
	if prefs.MaxDailyHours != nil && *prefs.MaxDailyHours > 0 {
		limit := *prefs.MaxDailyHours
		for _, day := range dayOrder {
			total := float64(eventMinutesByDay[day]+sectionMinutesByDay[day]) / 60
			if total > limit {
				conflicts = append(conflicts, ConflictDetail{
					Type: ConflictExceedsDailyHours,
					Message: fmt.Sprintf("Exceeds daily hour limit of %s hours on %s (would be %.1f hours)",
						strconv.FormatFloat(limit, 'f', -1, 64), DayName(day), total),
					Day: day,
				})
			}
		}
	}

	return ConflictCheck{HasConflict: len(conflicts) > 0, Conflicts: conflicts}, nil
}

// gapMinutes 两个不重叠区间之间的间隔（分钟）
func gapMinutes(startA, endA, startB, endB int) int {
	if endA <= startB {
		return startB - endA
	}
	return startA - endB
}

// differentLocations 两个地点都已知且不同
func differentLocations(a, b string) bool {
	return a != "" && b != "" && a != b
}
