package dto

// ── 选课记录模块 DTO ──

// OfferingBrief 班级摘要
type OfferingBrief struct {
	OfferingID   int64  `json:"offering_id"`
	SectionLabel string `json:"section_label"`
	Title        string `json:"title"`
	Instructor   string `json:"instructor,omitempty"`
}

// SelectionResponse 选课记录响应
type SelectionResponse struct {
	SelectionID string         `json:"selection_id"`
	ScheduleID  string         `json:"schedule_id"`
	CourseCode  string         `json:"course_code"`
	Status      string         `json:"status"`
	Primary     *OfferingBrief `json:"primary"`
	Backup1     *OfferingBrief `json:"backup_1,omitempty"`
	Backup2     *OfferingBrief `json:"backup_2,omitempty"`
	Notes       string         `json:"notes,omitempty"`
	Version     int            `json:"version"`
	CreatedAt   string         `json:"created_at"`
	UpdatedAt   string         `json:"updated_at"`
}
