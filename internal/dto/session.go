package dto

import "course-scheduler/internal/planner"

// ── 选课会话模块 DTO ──

// CalendarEventRequest 个人日历事件
type CalendarEventRequest struct {
	Title     string `json:"title"       binding:"required,max=200"`
	DayOfWeek int    `json:"day_of_week" binding:"required,min=1,max=7"`
	StartTime string `json:"start_time"  binding:"required"`
	EndTime   string `json:"end_time"    binding:"required"`
	Location  string `json:"location"    binding:"omitempty,max=200"`
	Category  string `json:"category"    binding:"omitempty,oneof=Work Club Sports Study Family Other"`
}

// CreateSessionRequest 创建选课会话请求
type CreateSessionRequest struct {
	ScheduleID    string                 `json:"schedule_id"    binding:"required,max=64"`
	TermName      string                 `json:"term_name"      binding:"required,max=100"`
	CourseCodes   []string               `json:"course_codes"   binding:"required,min=1,max=20,dive,required,max=50"`
	Preferences   planner.Preferences    `json:"preferences"`
	InitialEvents []CalendarEventRequest `json:"initial_events" binding:"omitempty,max=200,dive"`
}

// ImportSessionForm 以 .ics 个人日历创建会话（multipart 表单）
// 上传文件字段为 calendar；也可改为提供 ics_url
type ImportSessionForm struct {
	ScheduleID  string `form:"schedule_id"  binding:"required,max=64"`
	TermName    string `form:"term_name"    binding:"required,max=100"`
	CourseCodes string `form:"course_codes" binding:"required"` // 逗号分隔
	Preferences string `form:"preferences"`                     // JSON
	ICSURL      string `form:"ics_url"      binding:"omitempty,url"`
}

// SessionInputRequest 用户输入：自由文本，或结构化的班级选择/动作
type SessionInputRequest struct {
	Text      string `json:"text"       binding:"omitempty,max=500"`
	SectionID int64  `json:"section_id" binding:"omitempty,min=1"`
	Action    string `json:"action"     binding:"omitempty,max=50"`
}

// SessionResponse 会话响应：最新消息 + 状态快照
type SessionResponse struct {
	SessionID string           `json:"session_id"`
	Message   *planner.Message `json:"message,omitempty"`
	State     planner.State    `json:"state"`
	Progress  string           `json:"progress"`
}

// CalendarResponse 会话当前日历
type CalendarResponse struct {
	SessionID string                  `json:"session_id"`
	Events    []planner.CalendarEvent `json:"events"`
}
