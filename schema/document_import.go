// Package schema defines the structured payload produced by the external
// document reader and consumed by the ingestion engine. The shapes are strict
// on structure but loose on content: only fields that would leave the engine
// with nothing to anchor on are required, everything else is optional so a
// partially extracted document can still be ingested subtree by subtree.
package schema

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// FeeInfo holds the fee fields extracted for one intake.
type FeeInfo struct {
	TuitionPerSemester             *float64 `json:"tuition_per_semester,omitempty"`
	TuitionPerYear                 *float64 `json:"tuition_per_year,omitempty"`
	ApplicationFee                 *float64 `json:"application_fee,omitempty"`
	AccommodationFee               *float64 `json:"accommodation_fee,omitempty"` // lower bound if the document gives a range
	AccommodationFeePeriod         *string  `json:"accommodation_fee_period,omitempty"`
	AccommodationNote              *string  `json:"accommodation_note,omitempty"`
	ServiceFee                     *float64 `json:"service_fee,omitempty"`
	MedicalInsuranceFee            *float64 `json:"medical_insurance_fee,omitempty"`
	MedicalInsuranceFeePeriod      *string  `json:"medical_insurance_fee_period,omitempty"`
	ArrivalMedicalCheckupFee       *float64 `json:"arrival_medical_checkup_fee,omitempty"`
	ArrivalMedicalCheckupIsOneTime *bool    `json:"arrival_medical_checkup_is_one_time,omitempty"`
	VisaExtensionFee               *float64 `json:"visa_extension_fee,omitempty"`
	Currency                       string   `json:"currency,omitempty"`
	Notes                          *string  `json:"notes,omitempty"`
}

// RequirementsInfo holds the eligibility fields extracted for one intake.
type RequirementsInfo struct {
	AgeMin                       *int     `json:"age_min,omitempty"`
	AgeMax                       *int     `json:"age_max,omitempty"`
	MinAverageScore              *float64 `json:"min_average_score,omitempty"`
	InterviewRequired            *bool    `json:"interview_required,omitempty"`
	WrittenTestRequired          *bool    `json:"written_test_required,omitempty"`
	AcceptanceLetterRequired     *bool    `json:"acceptance_letter_required,omitempty"`
	InsideChinaApplicantsAllowed *bool    `json:"inside_china_applicants_allowed,omitempty"`
	InsideChinaExtraRequirements *string  `json:"inside_china_extra_requirements,omitempty"`
	BankStatementRequired        *bool    `json:"bank_statement_required,omitempty"`
	BankStatementAmount          *float64 `json:"bank_statement_amount,omitempty"`
	BankStatementCurrency        *string  `json:"bank_statement_currency,omitempty"`
	BankStatementNote            *string  `json:"bank_statement_note,omitempty"` // e.g. "≥ $5000"
	HSKRequired                  *bool    `json:"hsk_required,omitempty"`
	HSKLevel                     *int     `json:"hsk_level,omitempty"`
	HSKMinScore                  *int     `json:"hsk_min_score,omitempty"`
	EnglishTestRequired          *bool    `json:"english_test_required,omitempty"`
	EnglishTestNote              *string  `json:"english_test_note,omitempty"` // IELTS/TOEFL/PTE etc
}

// DocumentInfo is one required document for an intake.
type DocumentInfo struct {
	Name       string  `json:"name"`
	IsRequired *bool   `json:"is_required,omitempty"` // defaults to true when absent
	Rules      *string `json:"rules,omitempty"`
	AppliesTo  *string `json:"applies_to,omitempty"`
}

// ScholarshipInfo is one scholarship offer attached to an intake.
type ScholarshipInfo struct {
	Name                   string   `json:"name"`
	Provider               *string  `json:"provider,omitempty"`
	Notes                  *string  `json:"notes,omitempty"`
	CoversTuition          *bool    `json:"covers_tuition,omitempty"`
	CoversAccommodation    *bool    `json:"covers_accommodation,omitempty"`
	CoversInsurance        *bool    `json:"covers_insurance,omitempty"`
	TuitionWaiverPercent   *int     `json:"tuition_waiver_percent,omitempty" validate:"omitempty,gte=0,lte=100"`
	LivingAllowanceMonthly *float64 `json:"living_allowance_monthly,omitempty"`
	LivingAllowanceYearly  *float64 `json:"living_allowance_yearly,omitempty"`
	FirstYearOnly          *bool    `json:"first_year_only,omitempty"`
	RenewalRequired        *bool    `json:"renewal_required,omitempty"`
	Deadline               *string  `json:"deadline,omitempty"` // YYYY-MM-DD
	EligibilityNote        *string  `json:"eligibility_note,omitempty"`
}

// ProgramIntakeInfo is one admission cycle of a major.
type ProgramIntakeInfo struct {
	IntakeTerm          string            `json:"intake_term"`
	IntakeYear          int               `json:"intake_year" validate:"omitempty,gte=2000,lte=2100"`
	ApplicationDeadline *string           `json:"application_deadline,omitempty"` // YYYY-MM-DD or full ISO timestamp
	DeadlineType        *string           `json:"deadline_type,omitempty"`
	ProgramStartDate    *string           `json:"program_start_date,omitempty"` // YYYY-MM-DD
	Fees                FeeInfo           `json:"fees"`
	Requirements        RequirementsInfo  `json:"requirements"`
	Documents           []DocumentInfo    `json:"documents,omitempty" validate:"dive"`
	Scholarships        []ScholarshipInfo `json:"scholarships,omitempty" validate:"dive"`

	ScholarshipAvailable *bool   `json:"scholarship_available,omitempty"`
	ScholarshipInfoText  *string `json:"scholarship_info,omitempty"`

	// Per-intake overrides; the major's values apply when absent.
	TeachingLanguage *string  `json:"teaching_language,omitempty"`
	DurationYears    *float64 `json:"duration_years,omitempty"`
	DegreeType       *string  `json:"degree_type,omitempty"`
}

// MajorInfo is one extracted major with its intakes.
//
// degree_level and teaching_language are structurally optional: when either
// is missing the engine skips the major's subtree with a warning instead of
// rejecting the whole payload, so one bad extraction does not sink its
// siblings.
type MajorInfo struct {
	Name             string              `json:"name"`
	DegreeLevel      string              `json:"degree_level,omitempty"`
	TeachingLanguage string              `json:"teaching_language,omitempty"`
	NameCN           *string             `json:"name_cn,omitempty"`
	DurationYears    *float64            `json:"duration_years,omitempty"`
	Description      *string             `json:"description,omitempty"`
	Discipline       *string             `json:"discipline,omitempty"`
	Category         *string             `json:"category,omitempty"`
	Keywords         []string            `json:"keywords,omitempty"`
	IsFeatured       bool                `json:"is_featured,omitempty"`
	IsActive         *bool               `json:"is_active,omitempty"` // defaults to true when absent
	Intakes          []ProgramIntakeInfo `json:"intakes,omitempty" validate:"dive"`
}

// MajorGroupInfo is a compact encoding for many majors that share the same
// properties and intakes (common for language programs listing dozens of
// majors with identical fees). Groups are flattened by ExpandMajors before
// processing.
type MajorGroupInfo struct {
	MajorNames       []string            `json:"major_names" validate:"required,min=1"`
	DegreeLevel      string              `json:"degree_level,omitempty"`
	TeachingLanguage string              `json:"teaching_language,omitempty"`
	DurationYears    *float64            `json:"duration_years,omitempty"`
	Discipline       *string             `json:"discipline,omitempty"`
	Category         *string             `json:"category,omitempty"`
	Keywords         []string            `json:"keywords,omitempty"`
	IsFeatured       bool                `json:"is_featured,omitempty"`
	IsActive         *bool               `json:"is_active,omitempty"`
	Intakes          []ProgramIntakeInfo `json:"intakes,omitempty" validate:"dive"`
}

// ExtractedData is the complete payload for one source document.
type ExtractedData struct {
	UniversityName string           `json:"university_name" validate:"required"`
	Majors         []MajorInfo      `json:"majors,omitempty" validate:"dive"`
	MajorGroups    []MajorGroupInfo `json:"major_groups,omitempty" validate:"dive"`

	// Extraction-time warnings reported by the document reader; merged into
	// the ingestion result as-is, never re-validated.
	Errors []string `json:"errors,omitempty"`
}

// Validate checks the payload structure once at the boundary.
func (d *ExtractedData) Validate() error {
	if err := validate.Struct(d); err != nil {
		return err
	}
	if len(d.Majors) == 0 && len(d.MajorGroups) == 0 {
		return fmt.Errorf("at least one major (in majors or major_groups) must be provided")
	}
	return nil
}

// ExpandMajors flattens major_groups into individual majors and appends them
// after the explicitly listed ones, preserving payload order so ingestion
// counts stay deterministic for identical input.
func (d *ExtractedData) ExpandMajors() []MajorInfo {
	majors := make([]MajorInfo, 0, len(d.Majors))
	majors = append(majors, d.Majors...)

	for _, group := range d.MajorGroups {
		for _, name := range group.MajorNames {
			majors = append(majors, MajorInfo{
				Name:             name,
				DegreeLevel:      group.DegreeLevel,
				TeachingLanguage: group.TeachingLanguage,
				DurationYears:    group.DurationYears,
				Discipline:       group.Discipline,
				Category:         group.Category,
				Keywords:         group.Keywords,
				IsFeatured:       group.IsFeatured,
				IsActive:         group.IsActive,
				Intakes:          group.Intakes,
			})
		}
	}

	return majors
}
