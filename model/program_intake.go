package model

import "time"

// ProgramIntake represents one admission cycle of a major (e.g. September
// 2026), carrying the fees, dates and eligibility rules extracted for it.
//
// Identity: (major_id, intake_term, intake_year). Everything else is a
// mergeable attribute. Optional attributes are pointers so that "not stated
// in the document" stays distinguishable from zero values.
type ProgramIntake struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	UniversityID uint   `gorm:"not null;index" json:"university_id"`
	MajorID      uint   `gorm:"not null;index;uniqueIndex:idx_program_intakes_identity" json:"major_id"`
	IntakeTerm   string `gorm:"type:varchar(20);not null;uniqueIndex:idx_program_intakes_identity" json:"intake_term"`
	IntakeYear   int    `gorm:"not null;uniqueIndex:idx_program_intakes_identity" json:"intake_year"`

	// Dates
	ApplicationDeadline *time.Time `json:"application_deadline,omitempty"`
	DeadlineType        *string    `gorm:"type:varchar(50)" json:"deadline_type,omitempty"` // "University", "CSC", ...
	ProgramStartDate    *time.Time `gorm:"type:date" json:"program_start_date,omitempty"`

	// Fees
	TuitionPerSemester             *float64 `json:"tuition_per_semester,omitempty"`
	TuitionPerYear                 *float64 `json:"tuition_per_year,omitempty"`
	ApplicationFee                 *float64 `json:"application_fee,omitempty"`
	AccommodationFee               *float64 `json:"accommodation_fee,omitempty"`
	AccommodationFeePeriod         *string  `gorm:"type:varchar(20)" json:"accommodation_fee_period,omitempty"` // month/year/semester; documents vary
	AccommodationNote              *string  `gorm:"type:text" json:"accommodation_note,omitempty"`
	ServiceFee                     *float64 `json:"service_fee,omitempty"`
	MedicalInsuranceFee            *float64 `json:"medical_insurance_fee,omitempty"`
	MedicalInsuranceFeePeriod      *string  `gorm:"type:varchar(20)" json:"medical_insurance_fee_period,omitempty"`
	ArrivalMedicalCheckupFee       *float64 `json:"arrival_medical_checkup_fee,omitempty"`
	ArrivalMedicalCheckupIsOneTime *bool    `json:"arrival_medical_checkup_is_one_time,omitempty"`
	VisaExtensionFee               *float64 `json:"visa_extension_fee,omitempty"`
	Currency                       string   `gorm:"type:varchar(8);default:CNY" json:"currency"`
	Notes                          *string  `gorm:"type:text" json:"notes,omitempty"`

	// Scholarship summary
	ScholarshipAvailable *bool   `json:"scholarship_available,omitempty"` // nil = unknown
	ScholarshipInfo      *string `gorm:"type:text" json:"scholarship_info,omitempty"`

	// Eligibility
	AgeMin                       *int     `json:"age_min,omitempty"`
	AgeMax                       *int     `json:"age_max,omitempty"`
	MinAverageScore              *float64 `json:"min_average_score,omitempty"`
	InterviewRequired            *bool    `json:"interview_required,omitempty"`
	WrittenTestRequired          *bool    `json:"written_test_required,omitempty"`
	AcceptanceLetterRequired     *bool    `json:"acceptance_letter_required,omitempty"`
	InsideChinaApplicantsAllowed *bool    `json:"inside_china_applicants_allowed,omitempty"`
	InsideChinaExtraRequirements *string  `gorm:"type:text" json:"inside_china_extra_requirements,omitempty"`
	BankStatementRequired        *bool    `json:"bank_statement_required,omitempty"`
	BankStatementAmount          *float64 `json:"bank_statement_amount,omitempty"`
	BankStatementCurrency        *string  `gorm:"type:varchar(8)" json:"bank_statement_currency,omitempty"`
	BankStatementNote            *string  `gorm:"type:text" json:"bank_statement_note,omitempty"`
	HSKRequired                  *bool    `json:"hsk_required,omitempty"`
	HSKLevel                     *int     `json:"hsk_level,omitempty"`
	HSKMinScore                  *int     `json:"hsk_min_score,omitempty"`
	EnglishTestRequired          *bool    `json:"english_test_required,omitempty"`
	EnglishTestNote              *string  `gorm:"type:text" json:"english_test_note,omitempty"`

	// Overrides inherited from the major when the document is silent
	TeachingLanguage *string  `gorm:"type:varchar(50)" json:"teaching_language,omitempty"`
	DurationYears    *float64 `json:"duration_years,omitempty"`
	DegreeType       *string  `gorm:"type:varchar(50)" json:"degree_type,omitempty"`

	// Relationships
	University       University                 `gorm:"foreignKey:UniversityID;constraint:OnDelete:CASCADE" json:"university,omitempty"`
	Major            Major                      `gorm:"foreignKey:MajorID;constraint:OnDelete:CASCADE" json:"major,omitempty"`
	Documents        []ProgramDocument          `gorm:"foreignKey:ProgramIntakeID;constraint:OnDelete:CASCADE" json:"documents,omitempty"`
	ScholarshipLinks []ProgramIntakeScholarship `gorm:"foreignKey:ProgramIntakeID;constraint:OnDelete:CASCADE" json:"scholarship_links,omitempty"`
}
