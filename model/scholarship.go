package model

import (
	"time"

	"gorm.io/gorm"
)

// Scholarship represents a named scholarship (CSC, HuaShan, Freshman, ...).
//
// Identity: case-insensitive name, global across all universities — the same
// name always resolves to one row system-wide. Per-intake terms live on the
// ProgramIntakeScholarship link, not here.
type Scholarship struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Name    string `gorm:"not null" json:"name"`
	NameKey string `gorm:"not null;uniqueIndex" json:"-"`

	Provider *string `gorm:"type:varchar(255)" json:"provider,omitempty"` // University/CSC/etc
	Notes    *string `gorm:"type:text" json:"notes,omitempty"`

	// Relationships
	IntakeLinks []ProgramIntakeScholarship `gorm:"foreignKey:ScholarshipID;constraint:OnDelete:CASCADE" json:"intake_links,omitempty"`
}

func (s *Scholarship) BeforeSave(tx *gorm.DB) error {
	s.Name = NormalizeName(s.Name)
	s.NameKey = NameKey(s.Name)
	return nil
}

// ProgramIntakeScholarship links a scholarship to a program intake and holds
// the coverage terms that apply for that intake.
//
// Identity: (program_intake_id, scholarship_id).
type ProgramIntakeScholarship struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	ProgramIntakeID uint `gorm:"not null;index;uniqueIndex:idx_intake_scholarships_identity" json:"program_intake_id"`
	ScholarshipID   uint `gorm:"not null;index;uniqueIndex:idx_intake_scholarships_identity" json:"scholarship_id"`

	CoversTuition          *bool      `json:"covers_tuition,omitempty"`
	CoversAccommodation    *bool      `json:"covers_accommodation,omitempty"`
	CoversInsurance        *bool      `json:"covers_insurance,omitempty"`
	TuitionWaiverPercent   *int       `json:"tuition_waiver_percent,omitempty"` // e.g. 50% waived
	LivingAllowanceMonthly *float64   `json:"living_allowance_monthly,omitempty"`
	LivingAllowanceYearly  *float64   `json:"living_allowance_yearly,omitempty"`
	FirstYearOnly          *bool      `json:"first_year_only,omitempty"`
	RenewalRequired        *bool      `json:"renewal_required,omitempty"`
	Deadline               *time.Time `gorm:"type:date" json:"deadline,omitempty"` // can differ from the program deadline
	EligibilityNote        *string    `gorm:"type:text" json:"eligibility_note,omitempty"`

	// Relationships
	ProgramIntake ProgramIntake `gorm:"foreignKey:ProgramIntakeID;constraint:OnDelete:CASCADE" json:"program_intake,omitempty"`
	Scholarship   Scholarship   `gorm:"foreignKey:ScholarshipID;constraint:OnDelete:CASCADE" json:"scholarship,omitempty"`
}
