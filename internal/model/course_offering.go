package model

import "gorm.io/datatypes"

// CourseOffering 开课班级，对应 course_offerings
//
// meetings_json 为导入时保留的原始上课时间，结构为
// {"days":"MWF","start":"9:00 AM","end":"9:50 AM","location":"..."} 或其数组。
type CourseOffering struct {
	OfferingID     int64          `gorm:"primaryKey;autoIncrement"                  json:"offering_id"`
	UniversityID   int            `gorm:"not null"                                  json:"university_id"`
	TermName       string         `gorm:"type:varchar(100);not null"                json:"term_name"`
	CourseCode     string         `gorm:"type:varchar(50);not null"                 json:"course_code"`
	SectionLabel   string         `gorm:"type:varchar(100);not null;default:''"     json:"section_label"`
	Title          string         `gorm:"type:varchar(500);not null;default:''"     json:"title"`
	DepartmentCode *string        `gorm:"type:varchar(50)"                          json:"department_code,omitempty"`
	Mode           *string        `gorm:"type:varchar(100)"                         json:"mode,omitempty"`
	Instructor     *string        `gorm:"type:varchar(200)"                         json:"instructor,omitempty"`
	CreditsDecimal *float64       `gorm:"type:numeric(4,1)"                         json:"credits_decimal,omitempty"`
	MeetingsJSON   datatypes.JSON `gorm:"column:meetings_json;type:jsonb"           json:"meetings_json,omitempty"`
	DaysRaw        *string        `gorm:"type:varchar(100)"                         json:"days_raw,omitempty"`
	StartTimeRaw   *string        `gorm:"type:varchar(50)"                          json:"start_time_raw,omitempty"`
	EndTimeRaw     *string        `gorm:"type:varchar(50)"                          json:"end_time_raw,omitempty"`
	LocationRaw    *string        `gorm:"type:varchar(200)"                         json:"location_raw,omitempty"`
	SeatsAvailable int            `gorm:"not null;default:0"                        json:"seats_available"`
	SeatsCapacity  int            `gorm:"not null;default:0"                        json:"seats_capacity"`
	WaitlistCount  int            `gorm:"not null;default:0"                        json:"waitlist_count"`
	BaseModel
}

func (CourseOffering) TableName() string { return "course_offerings" }
