package planner

import (
	"fmt"
	"sort"
	"strings"
)

// ── 评分规则（加法制，基准 50，结果截断到 [0,100]）──
const (
	baseScore           = 50
	preferredDaysBonus  = 10
	avoidDaysPenalty    = -10
	timeWindowBonus     = 20
	openSeatsBonus      = 10
	waitlistPenalty     = -10
	waitlistHardPenalty = -25 // allow_waitlist = false
	fullPenalty         = -30
)

// RankSections 按偏好为班级打分并降序排列；同分保持输入顺序（稳定排序）
func RankSections(sections []CourseSection, prefs Preferences) ([]RankedSection, error) {
	if err := prefs.Validate(); err != nil {
		return nil, &RankingError{Err: err}
	}

	ranked := make([]RankedSection, 0, len(sections))
	for _, s := range sections {
		r, err := scoreSection(s, prefs)
		if err != nil {
			return nil, &RankingError{OfferingID: s.OfferingID, Err: err}
		}
		ranked = append(ranked, r)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return ranked, nil
}

// seatStatus 座位状态：有余座 / 候补 / 已满且无候补
func seatStatus(s CourseSection) WaitlistStatus {
	switch {
	case s.SeatsAvailable > 0:
		return StatusOpen
	case s.WaitlistCount > 0:
		return StatusWaitlisted
	default:
		return StatusFull
	}
}

func scoreSection(s CourseSection, prefs Preferences) (RankedSection, error) {
	details := MatchDetails{
		WaitlistStatus: seatStatus(s),
		Pros:           []string{},
		Cons:           []string{},
		Breakdown:      ScoreBreakdown{Base: baseScore},
	}

	if len(s.Meetings) == 0 {
		details.Pros = append(details.Pros, "Online/Async course")
		return RankedSection{Section: s, Score: baseScore, Details: details}, nil
	}

	for i, m := range s.Meetings {
		if _, err := CalculateDuration(m.StartTime, m.EndTime); err != nil {
			return RankedSection{}, fmt.Errorf("meeting %d: %w", i, err)
		}
	}

	days := sectionDays(s)
	dayCodes := meetingDayCodes(s)
	b := &details.Breakdown

	// 1. 上课日是否全部落在偏好日内
	if len(prefs.PreferredDays) > 0 {
		if daysSubset(days, prefs.PreferredDays) {
			b.DayBonus = preferredDaysBonus
			details.DayMatch = true
			details.Pros = append(details.Pros, fmt.Sprintf("Meets on %s (preferred days)", dayCodes))
		} else {
			details.Cons = append(details.Cons, fmt.Sprintf("Meets on %s (not all preferred days)", dayCodes))
		}
	}

	// 1.1 避开日
	if len(prefs.AvoidDays) > 0 {
		var hit []string
		for _, d := range days {
			if containsDay(prefs.AvoidDays, d) {
				hit = append(hit, DayName(d))
			}
		}
		if len(hit) > 0 {
			b.AvoidDayPenalty = avoidDaysPenalty
			details.Cons = append(details.Cons, fmt.Sprintf("Meets on avoided day (%s)", strings.Join(hit, ", ")))
		}
	}

	// 2. 所有上课时间落在 [earliest, latest] 内
	if prefs.EarliestClassTime != "" || prefs.LatestClassTime != "" {
		tod, _ := GetTimeOfDay(s.Meetings[0].StartTime)
		window := describeWindow(prefs)
		if withinWindow(s.Meetings, prefs) {
			b.TimeBonus = timeWindowBonus
			details.TimeMatch = true
			details.Pros = append(details.Pros, fmt.Sprintf("%s class within your preferred hours (%s)", capitalize(string(tod)), window))
		} else {
			details.Cons = append(details.Cons, fmt.Sprintf("%s class outside your preferred hours (%s)", capitalize(string(tod)), window))
		}
	}

	// 3. 座位 / 候补
	switch details.WaitlistStatus {
	case StatusOpen:
		b.SeatBonus = openSeatsBonus
		details.Pros = append(details.Pros, fmt.Sprintf("Seats available (%d open)", s.SeatsAvailable))
	case StatusWaitlisted:
		if prefs.AllowWaitlist {
			b.WaitlistPenalty = waitlistPenalty
		} else {
			b.WaitlistPenalty = waitlistHardPenalty
		}
		details.Cons = append(details.Cons, fmt.Sprintf("Waitlisted (%d on waitlist)", s.WaitlistCount))
		if prefs.MaxWaitlistPosition != nil && s.WaitlistCount >= *prefs.MaxWaitlistPosition {
			details.Cons = append(details.Cons, fmt.Sprintf("Waitlist longer than your limit of %d", *prefs.MaxWaitlistPosition))
		}
	case StatusFull:
		b.FullPenalty = fullPenalty
		details.Cons = append(details.Cons, "Section full (no waitlist)")
	}

	score := b.Base + b.DayBonus + b.AvoidDayPenalty + b.TimeBonus + b.SeatBonus + b.WaitlistPenalty + b.FullPenalty
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return RankedSection{Section: s, Score: score, Details: details}, nil
}

// sectionDays 班级所有上课日（去重、有序）
func sectionDays(s CourseSection) []int {
	seen := make(map[int]bool)
	var days []int
	for _, m := range s.Meetings {
		for _, d := range m.DaysOfWeek {
			if !seen[d] {
				seen[d] = true
				days = append(days, d)
			}
		}
	}
	sort.Ints(days)
	return days
}

func meetingDayCodes(s CourseSection) string {
	codes := make([]string, 0, len(s.Meetings))
	for _, m := range s.Meetings {
		if m.Days != "" {
			codes = append(codes, m.Days)
		}
	}
	if len(codes) == 0 {
		names := make([]string, 0)
		for _, d := range sectionDays(s) {
			names = append(names, DayName(d))
		}
		return strings.Join(names, "/")
	}
	return strings.Join(codes, " + ")
}

func daysSubset(days, allowed []int) bool {
	for _, d := range days {
		if !containsDay(allowed, d) {
			return false
		}
	}
	return true
}

// withinWindow 已通过 Validate，时间均可解析
func withinWindow(meetings []ParsedMeeting, prefs Preferences) bool {
	earliest, latest := -1, -1
	if prefs.EarliestClassTime != "" {
		earliest = mustMinutes(prefs.EarliestClassTime)
	}
	if prefs.LatestClassTime != "" {
		latest = mustMinutes(prefs.LatestClassTime)
	}
	for _, m := range meetings {
		start, end := mustMinutes(m.StartTime), mustMinutes(m.EndTime)
		if earliest >= 0 && start < earliest {
			return false
		}
		if latest >= 0 && end > latest {
			return false
		}
	}
	return true
}

func describeWindow(prefs Preferences) string {
	switch {
	case prefs.EarliestClassTime != "" && prefs.LatestClassTime != "":
		return prefs.EarliestClassTime + "-" + prefs.LatestClassTime
	case prefs.EarliestClassTime != "":
		return "after " + prefs.EarliestClassTime
	default:
		return "before " + prefs.LatestClassTime
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
