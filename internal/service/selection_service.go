package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"course-scheduler/internal/dto"
	"course-scheduler/internal/model"
	"course-scheduler/internal/planner"
	"course-scheduler/internal/repository"
	pkgerrors "course-scheduler/pkg/errors"
)

// ── 选课记录模块业务错误 ──

var (
	ErrSelectionNotFound = errors.New("选课记录不存在")
	ErrInvalidSelection  = errors.New("选课记录不合法：学生、课表、课程与主选班级不能为空")
	ErrOfferingNotFound  = errors.New("所选班级不存在")
)

// SelectionService 选课记录业务接口，同时作为 Orchestrator 的持久化端
type SelectionService interface {
	planner.SelectionPersister
	ListBySchedule(ctx context.Context, studentID int64, scheduleID string) ([]dto.SelectionResponse, error)
	Delete(ctx context.Context, studentID int64, scheduleID, courseCode string) error
}

type selectionService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewSelectionService 创建 SelectionService 实例
func NewSelectionService(repo *repository.Repository, logger *zap.Logger) SelectionService {
	return &selectionService{repo: repo, logger: logger}
}

// ────────────────────── SaveSelection ──────────────────────

// SaveSelection 写入一门课程的主选 + 备选
// 同一课表同一课程已有记录时以乐观锁覆盖（会话重置后重新选择）。
// 失败时 SelectionResult.Error 携带可展示的原因，同时返回 error。
func (s *selectionService) SaveSelection(ctx context.Context, in planner.SelectionInput) (planner.SelectionResult, error) {
	if in.StudentID <= 0 || strings.TrimSpace(in.ScheduleID) == "" || strings.TrimSpace(in.CourseCode) == "" || in.PrimaryOfferingID <= 0 {
		return failedResult(ErrInvalidSelection), ErrInvalidSelection
	}
	if err := s.checkOfferings(ctx, in); err != nil {
		return failedResult(err), err
	}

	existing, err := s.repo.CourseSelection.GetByScheduleAndCourse(ctx, in.StudentID, in.ScheduleID, in.CourseCode)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		sel := &model.CourseSelection{
			StudentID:         in.StudentID,
			ScheduleID:        in.ScheduleID,
			CourseCode:        in.CourseCode,
			PrimaryOfferingID: in.PrimaryOfferingID,
			Backup1OfferingID: in.Backup1OfferingID,
			Backup2OfferingID: in.Backup2OfferingID,
			Status:            string(in.Status()),
		}
		if err := s.repo.CourseSelection.Create(ctx, sel); err != nil {
			s.logSaveError("创建选课记录失败", in, err)
			return failedResult(err), err
		}
		return planner.SelectionResult{Success: true, SelectionID: sel.SelectionID}, nil

	case err != nil:
		s.logSaveError("查询选课记录失败", in, err)
		return failedResult(err), err
	}

	existing.PrimaryOfferingID = in.PrimaryOfferingID
	existing.Backup1OfferingID = in.Backup1OfferingID
	existing.Backup2OfferingID = in.Backup2OfferingID
	existing.Status = string(in.Status())
	if err := s.repo.CourseSelection.Update(ctx, existing); err != nil {
		s.logSaveError("更新选课记录失败", in, err)
		return failedResult(err), err
	}
	return planner.SelectionResult{Success: true, SelectionID: existing.SelectionID}, nil
}

// checkOfferings 确认主选与备选班级都存在
func (s *selectionService) checkOfferings(ctx context.Context, in planner.SelectionInput) error {
	ids := []int64{in.PrimaryOfferingID}
	if in.Backup1OfferingID != nil {
		ids = append(ids, *in.Backup1OfferingID)
	}
	if in.Backup2OfferingID != nil {
		ids = append(ids, *in.Backup2OfferingID)
	}
	found, err := s.repo.CourseOffering.ListByIDs(ctx, ids)
	if err != nil {
		s.logSaveError("查询班级失败", in, err)
		return err
	}
	exists := make(map[int64]bool, len(found))
	for _, o := range found {
		exists[o.OfferingID] = true
	}
	for _, id := range ids {
		if !exists[id] {
			return ErrOfferingNotFound
		}
	}
	return nil
}

func (s *selectionService) logSaveError(msg string, in planner.SelectionInput, err error) {
	level := s.logger.Error
	if errors.Is(err, pkgerrors.ErrOptimisticLock) {
		level = s.logger.Warn
	}
	level(msg,
		zap.Int64("student_id", in.StudentID),
		zap.String("schedule_id", in.ScheduleID),
		zap.String("course_code", in.CourseCode),
		zap.Int64("primary_offering_id", in.PrimaryOfferingID),
		zap.Error(err),
	)
}

func failedResult(err error) planner.SelectionResult {
	return planner.SelectionResult{Success: false, Error: err.Error()}
}

// ────────────────────── ListBySchedule ──────────────────────

// ListBySchedule 只返回当前学生名下的记录；他人的课表表现为空列表
func (s *selectionService) ListBySchedule(ctx context.Context, studentID int64, scheduleID string) ([]dto.SelectionResponse, error) {
	sels, err := s.repo.CourseSelection.ListBySchedule(ctx, studentID, scheduleID)
	if err != nil {
		s.logger.Error("列出选课记录失败",
			zap.Int64("student_id", studentID),
			zap.String("schedule_id", scheduleID),
			zap.Error(err),
		)
		return nil, err
	}

	result := make([]dto.SelectionResponse, 0, len(sels))
	for i := range sels {
		result = append(result, toSelectionResponse(&sels[i]))
	}
	return result, nil
}

// ────────────────────── Delete ──────────────────────

// Delete 他人的记录与不存在的记录一样返回 ErrSelectionNotFound
func (s *selectionService) Delete(ctx context.Context, studentID int64, scheduleID, courseCode string) error {
	if err := s.repo.CourseSelection.Delete(ctx, studentID, scheduleID, courseCode); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSelectionNotFound
		}
		s.logger.Error("删除选课记录失败",
			zap.Int64("student_id", studentID),
			zap.String("schedule_id", scheduleID),
			zap.String("course_code", courseCode),
			zap.Error(err),
		)
		return err
	}
	return nil
}

// ── 转换 ──

func toSelectionResponse(sel *model.CourseSelection) dto.SelectionResponse {
	return dto.SelectionResponse{
		SelectionID: sel.SelectionID,
		ScheduleID:  sel.ScheduleID,
		CourseCode:  sel.CourseCode,
		Status:      sel.Status,
		Primary:     toOfferingBrief(sel.Primary),
		Backup1:     toOfferingBrief(sel.Backup1),
		Backup2:     toOfferingBrief(sel.Backup2),
		Notes:       deref(sel.Notes),
		Version:     sel.Version,
		CreatedAt:   sel.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   sel.UpdatedAt.Format(time.RFC3339),
	}
}

func toOfferingBrief(o *model.CourseOffering) *dto.OfferingBrief {
	if o == nil {
		return nil
	}
	return &dto.OfferingBrief{
		OfferingID:   o.OfferingID,
		SectionLabel: o.SectionLabel,
		Title:        o.Title,
		Instructor:   deref(o.Instructor),
	}
}
