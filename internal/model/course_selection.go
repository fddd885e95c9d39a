package model

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CourseSelection 课表中一门课程的选课结果，对应 schedule_course_selections
type CourseSelection struct {
	SelectionID       string  `gorm:"type:uuid;primaryKey"                              json:"selection_id"`
	StudentID         int64   `gorm:"not null;index"                                    json:"student_id"`
	ScheduleID        string  `gorm:"type:varchar(64);not null"                         json:"schedule_id"`
	CourseCode        string  `gorm:"type:varchar(50);not null"                         json:"course_code"`
	RequirementType   *string `gorm:"type:varchar(50)"                                  json:"requirement_type,omitempty"`
	PrimaryOfferingID int64   `gorm:"not null"                                          json:"primary_offering_id"`
	Backup1OfferingID *int64  `gorm:"column:backup_1_offering_id"                       json:"backup_1_offering_id,omitempty"`
	Backup2OfferingID *int64  `gorm:"column:backup_2_offering_id"                       json:"backup_2_offering_id,omitempty"`
	Status            string  `gorm:"type:varchar(20);not null;default:'planned'"       json:"status"` // planned | waitlisted | skipped
	Notes             *string `gorm:"type:text"                                         json:"notes,omitempty"`
	VersionedModel

	// 关联
	Primary *CourseOffering `gorm:"foreignKey:PrimaryOfferingID;references:OfferingID" json:"primary,omitempty"`
	Backup1 *CourseOffering `gorm:"foreignKey:Backup1OfferingID;references:OfferingID" json:"backup_1,omitempty"`
	Backup2 *CourseOffering `gorm:"foreignKey:Backup2OfferingID;references:OfferingID" json:"backup_2,omitempty"`
}

func (CourseSelection) TableName() string { return "schedule_course_selections" }

// BeforeCreate 未指定主键时生成 UUID
func (s *CourseSelection) BeforeCreate(*gorm.DB) error {
	if s.SelectionID == "" {
		s.SelectionID = uuid.New().String()
	}
	return nil
}
