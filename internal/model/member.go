package model

import (
	"time"

	"gorm.io/gorm"
)

// Member is a student registered with the academy.  A member owns any
// number of courses.  Rows are never removed; DeletedAt marks a member as
// gone and GORM hides such rows from ordinary queries.
//
// Fields:
//
//	ID              – primary key identifier.
//	Name            – student name (required).
//	Phone           – student phone, optional.
//	ParentPhone     – guardian phone (required).
//	InstitutionName – school or academy the student attends.
//	BirthDay        – date of birth (required).
//	CreatedAt       – registration timestamp (UTC).
//	DeletedAt       – soft-delete marker.
type Member struct {
	ID              uint64         `gorm:"primaryKey"`                 // members.id
	Name            string         `gorm:"size:50;not null;index"`     // members.name
	Phone           *string        `gorm:"size:20"`                    // members.phone (nullable)
	ParentPhone     string         `gorm:"size:20;not null"`           // members.parent_phone
	InstitutionName *string        `gorm:"size:100"`                   // members.institution_name (nullable)
	BirthDay        time.Time      `gorm:"type:date;not null"`         // members.birth_day
	CreatedAt       time.Time      `gorm:"index"`                      // members.created_at
	DeletedAt       gorm.DeletedAt `gorm:"index"`                      // members.deleted_at
	Courses         []Course       `gorm:"foreignKey:MembersID"`       // has many
}
