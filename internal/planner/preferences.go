package planner

import "fmt"

// Validate 校验偏好；非法偏好属于调用方错误，冲突检测与排序在入口处直接拒绝
func (p Preferences) Validate() error {
	var earliest, latest = -1, -1
	if p.EarliestClassTime != "" {
		m, err := toMinutes(p.EarliestClassTime)
		if err != nil {
			return fmt.Errorf("%w: earliest_class_time: %v", ErrInvalidPreference, err)
		}
		earliest = m
	}
	if p.LatestClassTime != "" {
		m, err := toMinutes(p.LatestClassTime)
		if err != nil {
			return fmt.Errorf("%w: latest_class_time: %v", ErrInvalidPreference, err)
		}
		latest = m
	}
	if earliest >= 0 && latest >= 0 && earliest >= latest {
		return fmt.Errorf("%w: earliest_class_time 必须早于 latest_class_time", ErrInvalidPreference)
	}

	for _, d := range p.PreferredDays {
		if d < Monday || d > Sunday {
			return fmt.Errorf("%w: preferred_days 含非法星期 %d", ErrInvalidPreference, d)
		}
	}
	for _, d := range p.AvoidDays {
		if d < Monday || d > Sunday {
			return fmt.Errorf("%w: avoid_days 含非法星期 %d", ErrInvalidPreference, d)
		}
	}

	if p.MaxDailyHours != nil && *p.MaxDailyHours < 0 {
		return fmt.Errorf("%w: max_daily_hours 不能为负数", ErrInvalidPreference)
	}
	if p.MinTransitionMinutes != nil && *p.MinTransitionMinutes < 0 {
		return fmt.Errorf("%w: min_transition_minutes 不能为负数", ErrInvalidPreference)
	}
	if p.MaxWaitlistPosition != nil && *p.MaxWaitlistPosition < 0 {
		return fmt.Errorf("%w: max_waitlist_position 不能为负数", ErrInvalidPreference)
	}

	// 午休窗口仅在开启时校验
	if p.LunchBreakRequired && p.LunchStartTime != "" && p.LunchEndTime != "" {
		if _, err := CalculateDuration(p.LunchStartTime, p.LunchEndTime); err != nil {
			return fmt.Errorf("%w: lunch window: %v", ErrInvalidPreference, err)
		}
	}
	return nil
}

// lunchWindow 返回生效的午休窗口
func (p Preferences) lunchWindow() (start, end string, ok bool) {
	if !p.LunchBreakRequired || p.LunchStartTime == "" || p.LunchEndTime == "" {
		return "", "", false
	}
	return p.LunchStartTime, p.LunchEndTime, true
}

func containsDay(days []int, d int) bool {
	for _, x := range days {
		if x == d {
			return true
		}
	}
	return false
}
