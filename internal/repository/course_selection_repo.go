package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"course-scheduler/internal/model"
	pkgerrors "course-scheduler/pkg/errors"
)

// CourseSelectionRepository 选课记录数据访问接口
type CourseSelectionRepository interface {
	Create(ctx context.Context, sel *model.CourseSelection) error
	GetByScheduleAndCourse(ctx context.Context, studentID int64, scheduleID, courseCode string) (*model.CourseSelection, error)
	ListBySchedule(ctx context.Context, studentID int64, scheduleID string) ([]model.CourseSelection, error)
	Update(ctx context.Context, sel *model.CourseSelection) error
	Delete(ctx context.Context, studentID int64, scheduleID, courseCode string) error
}

type courseSelectionRepo struct {
	db *gorm.DB
}

func NewCourseSelectionRepo(db *gorm.DB) CourseSelectionRepository {
	return &courseSelectionRepo{db: db}
}

// Create 写入选课记录
// 同一学生同一课表同一课程已存在未删除记录时（另一会话抢先写入），返回 ErrOptimisticLock
func (r *courseSelectionRepo) Create(ctx context.Context, sel *model.CourseSelection) error {
	err := r.db.WithContext(ctx).Create(sel).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return pkgerrors.ErrOptimisticLock
	}
	return err
}

// 以下查询都带 student_id：schedule_id 由客户端提供，只在学生内部唯一

func (r *courseSelectionRepo) GetByScheduleAndCourse(ctx context.Context, studentID int64, scheduleID, courseCode string) (*model.CourseSelection, error) {
	var sel model.CourseSelection
	err := r.db.WithContext(ctx).
		Where("student_id = ? AND schedule_id = ? AND course_code = ?", studentID, scheduleID, courseCode).
		First(&sel).Error
	if err != nil {
		return nil, err
	}
	return &sel, nil
}

func (r *courseSelectionRepo) ListBySchedule(ctx context.Context, studentID int64, scheduleID string) ([]model.CourseSelection, error) {
	var sels []model.CourseSelection
	err := r.db.WithContext(ctx).
		Preload("Primary").
		Preload("Backup1").
		Preload("Backup2").
		Where("student_id = ? AND schedule_id = ?", studentID, scheduleID).
		Order("created_at ASC").
		Find(&sels).Error
	return sels, err
}

// Update 乐观锁更新：version 不匹配时返回 ErrOptimisticLock
func (r *courseSelectionRepo) Update(ctx context.Context, sel *model.CourseSelection) error {
	oldVersion := sel.Version
	result := r.db.WithContext(ctx).
		Model(sel).
		Where("selection_id = ? AND version = ?", sel.SelectionID, oldVersion).
		Updates(map[string]interface{}{
			"primary_offering_id":  sel.PrimaryOfferingID,
			"backup_1_offering_id": sel.Backup1OfferingID,
			"backup_2_offering_id": sel.Backup2OfferingID,
			"status":               sel.Status,
			"notes":                sel.Notes,
			"version":              oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	sel.Version = oldVersion + 1
	return nil
}

func (r *courseSelectionRepo) Delete(ctx context.Context, studentID int64, scheduleID, courseCode string) error {
	result := r.db.WithContext(ctx).
		Where("student_id = ? AND schedule_id = ? AND course_code = ?", studentID, scheduleID, courseCode).
		Delete(&model.CourseSelection{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
