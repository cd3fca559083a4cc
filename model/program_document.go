package model

import (
	"time"

	"gorm.io/gorm"
)

// ProgramDocument represents one document an applicant must submit for a
// specific intake (Passport, Transcript, Police Clearance, ...).
//
// Identity: (program_intake_id, name_key).
type ProgramDocument struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	ProgramIntakeID uint   `gorm:"not null;index;uniqueIndex:idx_program_documents_identity" json:"program_intake_id"`
	Name            string `gorm:"not null" json:"name"`
	NameKey         string `gorm:"not null;uniqueIndex:idx_program_documents_identity" json:"-"`

	IsRequired bool    `json:"is_required"`
	Rules      *string `gorm:"type:text" json:"rules,omitempty"`          // e.g. "Study plan 800+ words"
	AppliesTo  *string `gorm:"type:varchar(120)" json:"applies_to,omitempty"` // e.g. "inside_china_only"

	// Relationships
	ProgramIntake ProgramIntake `gorm:"foreignKey:ProgramIntakeID;constraint:OnDelete:CASCADE" json:"program_intake,omitempty"`
}

func (d *ProgramDocument) BeforeSave(tx *gorm.DB) error {
	d.Name = NormalizeName(d.Name)
	d.NameKey = NameKey(d.Name)
	return nil
}
