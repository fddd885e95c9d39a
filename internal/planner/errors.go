package planner

import (
	"errors"
	"fmt"
)

// ── 选课流程错误分类 ──
//
//   - NoValidSectionsError     所有班级均被冲突过滤，可恢复（由用户选择跳过/退出）
//   - ConflictDetectionError   传入冲突检测的数据非法，属调用方错误，立即失败
//   - RankingError             传入排序的数据非法，同上
//   - CollaboratorError        拉取班级 / 保存选课失败，可恢复，保留原始错误

var (
	ErrNoCurrentCourse   = errors.New("当前没有正在处理的课程")
	ErrInvalidPhase      = errors.New("当前阶段不支持该操作")
	ErrInvalidPreference = errors.New("排课偏好不合法")
)

// NoValidSectionsError 课程的所有班级均与现有日历冲突
type NoValidSectionsError struct {
	CourseCode string
	Checked    int
}

func (e *NoValidSectionsError) Error() string {
	return fmt.Sprintf("no valid sections available for %s (%d checked)", e.CourseCode, e.Checked)
}

// ConflictDetectionError 冲突检测输入非法
type ConflictDetectionError struct {
	OfferingID int64
	Err        error
}

func (e *ConflictDetectionError) Error() string {
	return fmt.Sprintf("冲突检测失败 (offering %d): %v", e.OfferingID, e.Err)
}

func (e *ConflictDetectionError) Unwrap() error { return e.Err }

// RankingError 排序输入非法
type RankingError struct {
	OfferingID int64
	Err        error
}

func (e *RankingError) Error() string {
	return fmt.Sprintf("班级排序失败 (offering %d): %v", e.OfferingID, e.Err)
}

func (e *RankingError) Unwrap() error { return e.Err }

// Operation 外部协作方调用类型
type Operation string

const (
	OpFetchSections Operation = "fetch_sections"
	OpSaveSelection Operation = "save_selection"
)

// CollaboratorError 外部协作方（班级拉取 / 选课保存）失败
type CollaboratorError struct {
	Op         Operation
	CourseCode string
	Err        error
}

func (e *CollaboratorError) Error() string {
	return fmt.Sprintf("%s failed for %s: %v", e.Op, e.CourseCode, e.Err)
}

func (e *CollaboratorError) Unwrap() error { return e.Err }
