package repository

import (
	"context"

	"gorm.io/gorm"

	"course-scheduler/internal/model"
)

// CourseOfferingRepository 开课目录数据访问接口
type CourseOfferingRepository interface {
	Create(ctx context.Context, offering *model.CourseOffering) error
	BatchCreate(ctx context.Context, offerings []model.CourseOffering) error
	GetByID(ctx context.Context, id int64) (*model.CourseOffering, error)
	ListByIDs(ctx context.Context, ids []int64) ([]model.CourseOffering, error)
	ListByCourses(ctx context.Context, universityID int, termName string, courseCodes []string) ([]model.CourseOffering, error)
}

type courseOfferingRepo struct {
	db *gorm.DB
}

func NewCourseOfferingRepo(db *gorm.DB) CourseOfferingRepository {
	return &courseOfferingRepo{db: db}
}

func (r *courseOfferingRepo) Create(ctx context.Context, offering *model.CourseOffering) error {
	return r.db.WithContext(ctx).Create(offering).Error
}

func (r *courseOfferingRepo) BatchCreate(ctx context.Context, offerings []model.CourseOffering) error {
	if len(offerings) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(offerings, 100).Error
}

func (r *courseOfferingRepo) GetByID(ctx context.Context, id int64) (*model.CourseOffering, error) {
	var offering model.CourseOffering
	err := r.db.WithContext(ctx).Where("offering_id = ?", id).First(&offering).Error
	if err != nil {
		return nil, err
	}
	return &offering, nil
}

func (r *courseOfferingRepo) ListByIDs(ctx context.Context, ids []int64) ([]model.CourseOffering, error) {
	var offerings []model.CourseOffering
	if len(ids) == 0 {
		return offerings, nil
	}
	err := r.db.WithContext(ctx).
		Where("offering_id IN ?", ids).
		Order("offering_id ASC").
		Find(&offerings).Error
	return offerings, err
}

// ListByCourses 按学校 + 学期 + 课程代码查询班级，结果按课程代码与班级号排序
func (r *courseOfferingRepo) ListByCourses(ctx context.Context, universityID int, termName string, courseCodes []string) ([]model.CourseOffering, error) {
	var offerings []model.CourseOffering
	if len(courseCodes) == 0 {
		return offerings, nil
	}
	err := r.db.WithContext(ctx).
		Where("university_id = ? AND term_name = ? AND course_code IN ?", universityID, termName, courseCodes).
		Order("course_code ASC, section_label ASC, offering_id ASC").
		Find(&offerings).Error
	return offerings, err
}
