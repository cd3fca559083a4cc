package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Major represents a program of study offered by a university (e.g.
// "Computer Science / Bachelor / English").
//
// Identity: (university_id, name_key, degree_level, teaching_language).
// All four must match for an incoming major to be considered the same row;
// a change in any one of them is a distinct major. Identity columns are
// written on insert and never updated afterwards.
type Major struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	UniversityID     uint    `gorm:"not null;index;uniqueIndex:idx_majors_identity" json:"university_id"`
	Name             string  `gorm:"not null" json:"name"`
	NameKey          string  `gorm:"not null;uniqueIndex:idx_majors_identity" json:"-"`
	NameCN           *string `gorm:"type:varchar(255)" json:"name_cn,omitempty"`
	DegreeLevel      string  `gorm:"type:varchar(50);not null;uniqueIndex:idx_majors_identity" json:"degree_level"`
	TeachingLanguage string  `gorm:"type:varchar(50);not null;uniqueIndex:idx_majors_identity" json:"teaching_language"`

	DurationYears *float64       `json:"duration_years,omitempty"`
	Description   *string        `gorm:"type:text" json:"description,omitempty"`
	Discipline    *string        `gorm:"type:varchar(120)" json:"discipline,omitempty"` // Engineering, Business, Medicine, etc.
	Category      *string        `gorm:"type:varchar(120)" json:"category,omitempty"`   // "Degree Program" vs "Non-degree/Language Program"
	Keywords      datatypes.JSON `json:"keywords,omitempty"`
	IsFeatured    bool           `json:"is_featured"`
	IsActive      bool           `json:"is_active"`

	// Relationships
	University     University      `gorm:"foreignKey:UniversityID;constraint:OnDelete:CASCADE" json:"university,omitempty"`
	ProgramIntakes []ProgramIntake `gorm:"foreignKey:MajorID;constraint:OnDelete:CASCADE" json:"program_intakes,omitempty"`
}

func (m *Major) BeforeSave(tx *gorm.DB) error {
	m.Name = NormalizeName(m.Name)
	m.NameKey = NameKey(m.Name)
	return nil
}
