package dto

import "course-scheduler/internal/planner"

// ── 开课目录模块 DTO ──

// OfferingQuery 多门课程班级预览查询参数
type OfferingQuery struct {
	Term  string `form:"term"  binding:"required,max=100"`
	Codes string `form:"codes" binding:"required"` // 逗号分隔
}

// CourseOfferingsResponse 单门课程的班级列表
type CourseOfferingsResponse struct {
	CourseCode string                  `json:"course_code"`
	Sections   []planner.CourseSection `json:"sections"`
}
