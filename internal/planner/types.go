package planner

// ── 星期编号 ──
//
// 全模块统一采用 ISO 8601 编号：1=Monday … 7=Sunday。
// 日历事件、解析后的上课时间、偏好中的 preferred_days 均使用该编号。

const (
	Monday    = 1
	Tuesday   = 2
	Wednesday = 3
	Thursday  = 4
	Friday    = 5
	Saturday  = 6
	Sunday    = 7
)

// DefaultMinTransitionMinutes 不同教学楼之间换课的默认最短间隔（分钟）
const DefaultMinTransitionMinutes = 15

// ── 会话输入 ──

// SessionInput 一次选课会话的输入，在 Orchestrator 生命周期内不可变
type SessionInput struct {
	ScheduleID    string          `json:"schedule_id"`
	StudentID     int64           `json:"student_id"`
	UniversityID  int             `json:"university_id"`
	TermName      string          `json:"term_name"`
	CourseCodes   []string        `json:"course_codes"` // 按顺序逐门处理
	Preferences   Preferences     `json:"preferences"`
	InitialEvents []CalendarEvent `json:"initial_events"` // 个人事务（工作、社团等）
}

// Preferences 排课偏好
type Preferences struct {
	EarliestClassTime    string   `json:"earliest_class_time,omitempty"` // "HH:MM"
	LatestClassTime      string   `json:"latest_class_time,omitempty"`
	PreferredDays        []int    `json:"preferred_days,omitempty"`
	AvoidDays            []int    `json:"avoid_days,omitempty"`
	AllowWaitlist        bool     `json:"allow_waitlist"`
	MaxWaitlistPosition  *int     `json:"max_waitlist_position,omitempty"`
	MaxDailyHours        *float64 `json:"max_daily_hours,omitempty"`
	LunchBreakRequired   bool     `json:"lunch_break_required"`
	LunchStartTime       string   `json:"lunch_start_time,omitempty"`
	LunchEndTime         string   `json:"lunch_end_time,omitempty"`
	MinTransitionMinutes *int     `json:"min_transition_minutes,omitempty"` // nil → DefaultMinTransitionMinutes
}

// TransitionMinutes 返回生效的最短换课间隔
func (p Preferences) TransitionMinutes() int {
	if p.MinTransitionMinutes == nil {
		return DefaultMinTransitionMinutes
	}
	return *p.MinTransitionMinutes
}

// ── 课程班级 ──

// CourseSection 一门课程在某学期的一个开课班级
type CourseSection struct {
	OfferingID     int64           `json:"offering_id"` // 学期内唯一
	CourseCode     string          `json:"course_code"`
	SectionLabel   string          `json:"section_label"`
	Title          string          `json:"title"`
	Credits        *float64        `json:"credits,omitempty"`
	Instructor     string          `json:"instructor,omitempty"`
	MeetingsRaw    string          `json:"meetings_raw,omitempty"`
	SeatsAvailable int             `json:"seats_available"`
	SeatsCapacity  int             `json:"seats_capacity"`
	WaitlistCount  int             `json:"waitlist_count"`
	TermName       string          `json:"term_name"`
	LocationRaw    string          `json:"location_raw,omitempty"`
	Meetings       []ParsedMeeting `json:"parsed_meetings"` // 为空表示线上/异步课程
}

// IsWaitlisted 无余座且有候补队列
func (s CourseSection) IsWaitlisted() bool {
	return s.SeatsAvailable <= 0 && s.WaitlistCount > 0
}

// ParsedMeeting 解析后的上课时间
type ParsedMeeting struct {
	Days       string `json:"days"`         // 原始星期代码，如 "MWF"
	DaysOfWeek []int  `json:"days_of_week"` // [1,3,5]
	StartTime  string `json:"start_time"`   // "09:00"
	EndTime    string `json:"end_time"`
	Location   string `json:"location,omitempty"`
}

// ── 日历事件 ──

// EventCategory 日历事件分类
type EventCategory string

const (
	CategoryWork   EventCategory = "Work"
	CategoryClub   EventCategory = "Club"
	CategorySports EventCategory = "Sports"
	CategoryStudy  EventCategory = "Study"
	CategoryFamily EventCategory = "Family"
	CategoryOther  EventCategory = "Other"
	CategoryCourse EventCategory = "Course" // 仅由 Orchestrator 在确认选课后添加
)

// CalendarEvent 周循环日历事件
type CalendarEvent struct {
	ID           string        `json:"id"`
	Title        string        `json:"title"`
	DayOfWeek    int           `json:"day_of_week"`
	StartTime    string        `json:"start_time"`
	EndTime      string        `json:"end_time"`
	Location     string        `json:"location,omitempty"`
	Category     EventCategory `json:"category"`
	CourseCode   string        `json:"course_code,omitempty"`
	SectionLabel string        `json:"section_label,omitempty"`
	Instructor   string        `json:"instructor,omitempty"`
	OfferingID   int64         `json:"offering_id,omitempty"`
}

// ── 冲突检测 ──

// ConflictType 冲突类型
type ConflictType string

const (
	ConflictTimeOverlap       ConflictType = "time_overlap"
	ConflictBackToBack        ConflictType = "back_to_back"
	ConflictExceedsDailyHours ConflictType = "exceeds_daily_hours"
	ConflictBlocksLunch       ConflictType = "blocks_lunch"
)

// ConflictDetail 单条冲突
type ConflictDetail struct {
	Type    ConflictType   `json:"conflict_type"`
	Message string         `json:"message"`
	Event   *CalendarEvent `json:"conflicting_event,omitempty"` // 每日上限/午休类冲突无对应事件
	Day     int            `json:"day_of_week"`
}

// ConflictCheck 冲突检测结果
type ConflictCheck struct {
	HasConflict bool             `json:"has_conflict"`
	Conflicts   []ConflictDetail `json:"conflicts"`
}

// ── 排序 ──

// WaitlistStatus 座位状态
type WaitlistStatus string

const (
	StatusOpen       WaitlistStatus = "open"
	StatusWaitlisted WaitlistStatus = "waitlisted"
	StatusFull       WaitlistStatus = "full"
)

// ScoreBreakdown 评分明细
type ScoreBreakdown struct {
	Base            int `json:"base"`
	DayBonus        int `json:"day_bonus"`
	TimeBonus       int `json:"time_bonus"`
	SeatBonus       int `json:"seat_bonus"`
	WaitlistPenalty int `json:"waitlist_penalty"`
	FullPenalty     int `json:"full_penalty"`
	AvoidDayPenalty int `json:"avoid_day_penalty"`
}

// MatchDetails 班级与偏好的匹配明细
type MatchDetails struct {
	DayMatch       bool           `json:"day_match"`
	TimeMatch      bool           `json:"time_match"`
	WaitlistStatus WaitlistStatus `json:"waitlist_status"`
	Pros           []string       `json:"pros"`
	Cons           []string       `json:"cons"`
	Breakdown      ScoreBreakdown `json:"score_breakdown"`
}

// RankedSection 排序后的班级
type RankedSection struct {
	Section CourseSection `json:"section"`
	Score   int           `json:"score"`
	Details MatchDetails  `json:"match_details"`
}

// ── 选课持久化 ──

// SelectionStatus 选课记录状态
type SelectionStatus string

const (
	SelectionPlanned    SelectionStatus = "planned"
	SelectionWaitlisted SelectionStatus = "waitlisted"
	SelectionSkipped    SelectionStatus = "skipped"
)

// SelectionInput 写入一门课程的主选 + 两个备选
type SelectionInput struct {
	StudentID         int64 // 课表归属，查询与撤销都按学生隔离
	ScheduleID        string
	CourseCode        string
	PrimaryOfferingID int64
	Backup1OfferingID *int64
	Backup2OfferingID *int64
	IsWaitlisted      bool
}

// Status 主选为候补时记为 waitlisted，否则为 planned
func (in SelectionInput) Status() SelectionStatus {
	if in.IsWaitlisted {
		return SelectionWaitlisted
	}
	return SelectionPlanned
}

// SelectionResult 持久化结果
type SelectionResult struct {
	Success     bool   `json:"success"`
	SelectionID string `json:"selection_id,omitempty"`
	Error       string `json:"error,omitempty"`
}
