package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"reflect"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/malishaedu/admissions-api/model"
	"github.com/malishaedu/admissions-api/schema"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// DataIngestionService turns an extraction payload into idempotent database
// writes. All SQL is generated here, deterministically; nothing coming from
// the document reader is ever executed. The service keeps no state between
// runs, so one instance can serve concurrent ingestions.
type DataIngestionService struct {
	db *gorm.DB
}

// NewDataIngestionService creates a new data ingestion service
func NewDataIngestionService(db *gorm.DB) *DataIngestionService {
	return &DataIngestionService{db: db}
}

// fatalError aborts the whole run; the wrapped issue ends up in the result's
// error list after rollback.
type fatalError struct {
	issue Issue
}

func (e *fatalError) Error() string {
	return fmt.Sprintf("%s: %s", e.issue.Kind, e.issue.Message)
}

// ingestRun carries the per-run accumulators through the dependency walk.
type ingestRun struct {
	id       string
	state    ingestState
	counts   IngestCounts
	errors   []Issue
	warnings []Issue
}

func (r *ingestRun) transition(next ingestState) {
	log.Printf("[ingest %s] %s -> %s", r.id, r.state, next)
	r.state = next
}

func (r *ingestRun) warn(kind, entityType, key, message string) {
	r.warnings = append(r.warnings, Issue{Kind: kind, EntityType: entityType, Key: key, Message: message})
	log.Printf("[ingest %s] warning %s %s(%s): %s", r.id, kind, entityType, key, message)
}

// normalizeEnumValue runs one enum normalization, keeping the raw value and
// recording an UnmappedEnum warning when no canonical mapping exists.
func (r *ingestRun) normalizeEnumValue(entityType, key, field, raw string, fn func(string) (string, bool)) string {
	value, ok := fn(raw)
	if !ok {
		value = strings.TrimSpace(raw)
		r.warn(KindUnmappedEnum, entityType, key,
			fmt.Sprintf("%s value %q has no canonical mapping; stored as extracted", field, value))
	}
	return value
}

func (r *ingestRun) normalizeOptionalEnum(entityType, key, field string, raw *string, fn func(string) (string, bool)) *string {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil
	}
	value := r.normalizeEnumValue(entityType, key, field, *raw, fn)
	return &value
}

// IngestExtractedData ingests one extraction payload inside a single
// transaction and reports what happened.
//
// The university must already exist; it anchors the whole dependency chain
// and its absence aborts the run before any write. Majors, intakes,
// documents, scholarships and scholarship links are then processed in
// payload order, each one resolved by its identity key and inserted, updated
// or left untouched. Subtrees whose key fields are too incomplete to resolve
// are skipped with a warning while their siblings continue. Any unexpected
// constraint failure rolls the whole run back: either everything fatal-free
// commits together, or nothing does.
func (s *DataIngestionService) IngestExtractedData(ctx context.Context, data *schema.ExtractedData) *IngestResult {
	run := &ingestRun{id: uuid.NewString(), state: stateStarted}
	log.Printf("[ingest %s] run started: university=%q majors=%d major_groups=%d",
		run.id, data.UniversityName, len(data.Majors), len(data.MajorGroups))

	// Extraction-time warnings ride along untouched.
	for _, msg := range data.Errors {
		run.warnings = append(run.warnings, Issue{Kind: KindExtractionWarning, Message: msg})
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		run.transition(stateValidating)

		universityName := model.NormalizeName(data.UniversityName)
		if universityName == "" {
			return &fatalError{Issue{
				Kind:       KindFatalEntityMissing,
				EntityType: EntityUniversity,
				Message:    "university name is required",
			}}
		}
		university, found, err := findUniversity(tx, universityName)
		if err != nil {
			return fmt.Errorf("resolve university %q: %w", universityName, err)
		}
		if !found {
			return &fatalError{Issue{
				Kind:       KindFatalEntityMissing,
				EntityType: EntityUniversity,
				Key:        model.NameKey(universityName),
				Message:    fmt.Sprintf("university not found: %s; it must exist before ingestion", universityName),
			}}
		}

		majors := data.ExpandMajors()
		if len(majors) == 0 {
			return &fatalError{Issue{
				Kind:       KindFatalEntityMissing,
				EntityType: EntityMajor,
				Message:    "no majors found in extracted data (neither majors nor major_groups provided)",
			}}
		}

		run.transition(stateWriting)
		for i := range majors {
			if err := s.processMajor(tx, run, university, &majors[i]); err != nil {
				return err
			}
		}

		if run.counts.ProgramIntakesInserted == 0 && run.counts.ProgramIntakesUpdated == 0 {
			run.warn(KindNoProgramIntakes, EntityProgramIntake, "",
				"no program intakes were inserted or updated; verify the extracted data")
		}

		run.transition(stateCommitting)
		return nil
	})

	if err != nil {
		run.transition(stateRollingBack)
		run.counts = IngestCounts{}
		var fatal *fatalError
		if errors.As(err, &fatal) {
			run.errors = append(run.errors, fatal.issue)
		} else {
			run.errors = append(run.errors, Issue{Kind: KindFatalIntegrityViolation, Message: err.Error()})
		}
		log.Printf("[ingest %s] rolled back: %v", run.id, err)
	}
	run.transition(stateClosed)

	return &IngestResult{
		Success:  err == nil,
		Counts:   run.counts,
		Errors:   run.errors,
		Warnings: run.warnings,
	}
}

// processMajor upserts one major and walks its intakes.
func (s *DataIngestionService) processMajor(tx *gorm.DB, run *ingestRun, university *model.University, info *schema.MajorInfo) error {
	name := model.NormalizeName(info.Name)
	if name == "" || strings.TrimSpace(info.DegreeLevel) == "" || strings.TrimSpace(info.TeachingLanguage) == "" {
		run.warn(KindSkippedSubtree, EntityMajor,
			fmt.Sprintf("%s|%s|%s", model.NameKey(name), strings.TrimSpace(info.DegreeLevel), strings.TrimSpace(info.TeachingLanguage)),
			"major is missing name, degree_level or teaching_language; skipping it and its intakes")
		return nil
	}

	key := model.NameKey(name)
	degreeLevel := run.normalizeEnumValue(EntityMajor, key, "degree_level", info.DegreeLevel, NormalizeDegreeLevel)
	teachingLanguage := run.normalizeEnumValue(EntityMajor, key, "teaching_language", info.TeachingLanguage, NormalizeTeachingLanguage)

	incoming := &model.Major{
		UniversityID:     university.ID,
		Name:             name,
		NameKey:          key,
		DegreeLevel:      degreeLevel,
		TeachingLanguage: teachingLanguage,
	}
	copyMajorAttributes(incoming, &model.Major{
		Name:          name,
		NameCN:        info.NameCN,
		DurationYears: info.DurationYears,
		Description:   info.Description,
		Discipline:    info.Discipline,
		Category:      info.Category,
		Keywords:      keywordsJSON(info.Keywords),
		IsFeatured:    info.IsFeatured,
		IsActive:      info.IsActive == nil || *info.IsActive,
	})

	major, action, err := s.upsertMajor(tx, run, incoming)
	if err != nil {
		return err
	}
	switch action {
	case actionInserted:
		run.counts.MajorsInserted++
	case actionUpdated:
		run.counts.MajorsUpdated++
	}

	for i := range info.Intakes {
		if err := s.processProgramIntake(tx, run, university.ID, major, &info.Intakes[i]); err != nil {
			return err
		}
	}
	return nil
}

// processProgramIntake upserts one intake and walks its documents and
// scholarships.
func (s *DataIngestionService) processProgramIntake(tx *gorm.DB, run *ingestRun, universityID uint, major *model.Major, info *schema.ProgramIntakeInfo) error {
	if strings.TrimSpace(info.IntakeTerm) == "" || info.IntakeYear == 0 {
		run.warn(KindSkippedSubtree, EntityProgramIntake,
			fmt.Sprintf("%s|%s|%d", major.NameKey, strings.TrimSpace(info.IntakeTerm), info.IntakeYear),
			"intake is missing term or year; skipping it and its documents and scholarships")
		return nil
	}

	key := fmt.Sprintf("%s|%s|%d", major.NameKey, strings.TrimSpace(info.IntakeTerm), info.IntakeYear)
	term := run.normalizeEnumValue(EntityProgramIntake, key, "intake_term", info.IntakeTerm, NormalizeIntakeTerm)

	currency := "CNY"
	if strings.TrimSpace(info.Fees.Currency) != "" {
		currency = run.normalizeEnumValue(EntityProgramIntake, key, "currency", info.Fees.Currency, NormalizeCurrency)
	}

	// Per-intake overrides fall back to the major's values, so a document
	// that states them once at the program level still fills every intake.
	teachingLanguage := major.TeachingLanguage
	if info.TeachingLanguage != nil && strings.TrimSpace(*info.TeachingLanguage) != "" {
		teachingLanguage = run.normalizeEnumValue(EntityProgramIntake, key, "teaching_language", *info.TeachingLanguage, NormalizeTeachingLanguage)
	}
	degreeType := major.DegreeLevel
	if info.DegreeType != nil && strings.TrimSpace(*info.DegreeType) != "" {
		degreeType = run.normalizeEnumValue(EntityProgramIntake, key, "degree_type", *info.DegreeType, NormalizeDegreeLevel)
	}
	durationYears := info.DurationYears
	if durationYears == nil {
		durationYears = major.DurationYears
	}

	incoming := &model.ProgramIntake{
		UniversityID: universityID,
		MajorID:      major.ID,
		IntakeTerm:   term,
		IntakeYear:   info.IntakeYear,

		ApplicationDeadline: parseDateTime(info.ApplicationDeadline),
		DeadlineType:        info.DeadlineType,
		ProgramStartDate:    parseDate(info.ProgramStartDate),

		TuitionPerSemester:             info.Fees.TuitionPerSemester,
		TuitionPerYear:                 info.Fees.TuitionPerYear,
		ApplicationFee:                 info.Fees.ApplicationFee,
		AccommodationFee:               info.Fees.AccommodationFee,
		AccommodationFeePeriod:         run.normalizeOptionalEnum(EntityProgramIntake, key, "accommodation_fee_period", info.Fees.AccommodationFeePeriod, NormalizeFeePeriod),
		AccommodationNote:              info.Fees.AccommodationNote,
		ServiceFee:                     info.Fees.ServiceFee,
		MedicalInsuranceFee:            info.Fees.MedicalInsuranceFee,
		MedicalInsuranceFeePeriod:      run.normalizeOptionalEnum(EntityProgramIntake, key, "medical_insurance_fee_period", info.Fees.MedicalInsuranceFeePeriod, NormalizeFeePeriod),
		ArrivalMedicalCheckupFee:       info.Fees.ArrivalMedicalCheckupFee,
		ArrivalMedicalCheckupIsOneTime: info.Fees.ArrivalMedicalCheckupIsOneTime,
		VisaExtensionFee:               info.Fees.VisaExtensionFee,
		Currency:                       currency,
		Notes:                          info.Fees.Notes,

		ScholarshipAvailable: info.ScholarshipAvailable,
		ScholarshipInfo:      info.ScholarshipInfoText,

		AgeMin:                       info.Requirements.AgeMin,
		AgeMax:                       info.Requirements.AgeMax,
		MinAverageScore:              info.Requirements.MinAverageScore,
		InterviewRequired:            info.Requirements.InterviewRequired,
		WrittenTestRequired:          info.Requirements.WrittenTestRequired,
		AcceptanceLetterRequired:     info.Requirements.AcceptanceLetterRequired,
		InsideChinaApplicantsAllowed: info.Requirements.InsideChinaApplicantsAllowed,
		InsideChinaExtraRequirements: info.Requirements.InsideChinaExtraRequirements,
		BankStatementRequired:        info.Requirements.BankStatementRequired,
		BankStatementAmount:          info.Requirements.BankStatementAmount,
		BankStatementCurrency:        run.normalizeOptionalEnum(EntityProgramIntake, key, "bank_statement_currency", info.Requirements.BankStatementCurrency, NormalizeCurrency),
		BankStatementNote:            info.Requirements.BankStatementNote,
		HSKRequired:                  info.Requirements.HSKRequired,
		HSKLevel:                     info.Requirements.HSKLevel,
		HSKMinScore:                  info.Requirements.HSKMinScore,
		EnglishTestRequired:          info.Requirements.EnglishTestRequired,
		EnglishTestNote:              info.Requirements.EnglishTestNote,

		TeachingLanguage: &teachingLanguage,
		DurationYears:    durationYears,
		DegreeType:       &degreeType,
	}

	intake, action, err := s.upsertProgramIntake(tx, run, incoming)
	if err != nil {
		return err
	}
	switch action {
	case actionInserted:
		run.counts.ProgramIntakesInserted++
	case actionUpdated:
		run.counts.ProgramIntakesUpdated++
	}

	for i := range info.Documents {
		if err := s.processProgramDocument(tx, run, intake.ID, &info.Documents[i]); err != nil {
			return err
		}
	}
	for i := range info.Scholarships {
		if err := s.processScholarship(tx, run, intake.ID, &info.Scholarships[i]); err != nil {
			return err
		}
	}
	return nil
}

// processProgramDocument upserts one required document for an intake.
func (s *DataIngestionService) processProgramDocument(tx *gorm.DB, run *ingestRun, intakeID uint, info *schema.DocumentInfo) error {
	name := model.NormalizeName(info.Name)
	if name == "" {
		run.warn(KindSkippedSubtree, EntityProgramDocument, fmt.Sprintf("intake=%d", intakeID),
			"document has no name; skipped")
		return nil
	}

	incoming := &model.ProgramDocument{
		ProgramIntakeID: intakeID,
		Name:            name,
		NameKey:         model.NameKey(name),
		IsRequired:      info.IsRequired == nil || *info.IsRequired,
		Rules:           info.Rules,
		AppliesTo:       info.AppliesTo,
	}

	_, action, err := s.upsertProgramDocument(tx, run, incoming)
	if err != nil {
		return err
	}
	switch action {
	case actionInserted:
		run.counts.DocumentsInserted++
	case actionUpdated:
		run.counts.DocumentsUpdated++
	}
	return nil
}

// processScholarship upserts the global scholarship row, then the per-intake
// link. The scholarship must exist first because the link's foreign key needs
// its id.
func (s *DataIngestionService) processScholarship(tx *gorm.DB, run *ingestRun, intakeID uint, info *schema.ScholarshipInfo) error {
	name := model.NormalizeName(info.Name)
	if name == "" {
		run.warn(KindSkippedSubtree, EntityScholarship, fmt.Sprintf("intake=%d", intakeID),
			"scholarship has no name; skipped")
		return nil
	}

	incoming := &model.Scholarship{
		Name:     name,
		NameKey:  model.NameKey(name),
		Provider: info.Provider,
		Notes:    info.Notes,
	}
	scholarship, action, err := s.upsertScholarship(tx, run, incoming)
	if err != nil {
		return err
	}
	switch action {
	case actionInserted:
		run.counts.ScholarshipsInserted++
	case actionUpdated:
		run.counts.ScholarshipsUpdated++
	}

	link := &model.ProgramIntakeScholarship{
		ProgramIntakeID:        intakeID,
		ScholarshipID:          scholarship.ID,
		CoversTuition:          info.CoversTuition,
		CoversAccommodation:    info.CoversAccommodation,
		CoversInsurance:        info.CoversInsurance,
		TuitionWaiverPercent:   info.TuitionWaiverPercent,
		LivingAllowanceMonthly: info.LivingAllowanceMonthly,
		LivingAllowanceYearly:  info.LivingAllowanceYearly,
		FirstYearOnly:          info.FirstYearOnly,
		RenewalRequired:        info.RenewalRequired,
		Deadline:               parseDate(info.Deadline),
		EligibilityNote:        info.EligibilityNote,
	}
	_, linkAction, err := s.upsertIntakeScholarshipLink(tx, run, link)
	if err != nil {
		return err
	}
	// Link updates are applied but not counted; the result contract only
	// reports inserts for links.
	if linkAction == actionInserted {
		run.counts.LinksInserted++
	}
	return nil
}

// ---------------------------------------------------------------------------
// Per-entity upserts
//
// All of them follow the same shape: resolve by identity key, insert on a
// miss, otherwise apply the non-identity attributes and save only when
// something actually changed. Inserts run inside a savepoint so that a
// unique violation from a concurrent ingestion aborts only the insert; the
// engine then re-resolves once and converts the insert into an update. That
// is the only retry performed anywhere.
// ---------------------------------------------------------------------------

// createRow inserts inside a savepoint so a duplicate-key failure does not
// poison the surrounding transaction before the retry.
func createRow(tx *gorm.DB, row interface{}) error {
	return tx.Transaction(func(inner *gorm.DB) error {
		return inner.Create(row).Error
	})
}

func (s *DataIngestionService) upsertMajor(tx *gorm.DB, run *ingestRun, incoming *model.Major) (*model.Major, upsertAction, error) {
	existing, found, err := findMajor(tx, incoming.UniversityID, incoming.NameKey, incoming.DegreeLevel, incoming.TeachingLanguage)
	if err != nil {
		return nil, actionUnchanged, fmt.Errorf("resolve major %q: %w", incoming.NameKey, err)
	}
	if !found {
		return s.insertMajor(tx, run, incoming)
	}
	return updateMajor(tx, existing, incoming)
}

func (s *DataIngestionService) insertMajor(tx *gorm.DB, run *ingestRun, incoming *model.Major) (*model.Major, upsertAction, error) {
	err := createRow(tx, incoming)
	if err == nil {
		return incoming, actionInserted, nil
	}
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, actionUnchanged, fmt.Errorf("insert major %q: %w", incoming.NameKey, err)
	}
	log.Printf("[ingest %s] %s: major %q already exists, converting insert to update", run.id, KindRaceRetried, incoming.NameKey)
	existing, found, err := findMajor(tx, incoming.UniversityID, incoming.NameKey, incoming.DegreeLevel, incoming.TeachingLanguage)
	if err != nil {
		return nil, actionUnchanged, fmt.Errorf("re-resolve major %q after duplicate key: %w", incoming.NameKey, err)
	}
	if !found {
		return nil, actionUnchanged, fmt.Errorf("major %q missing after duplicate-key insert", incoming.NameKey)
	}
	return updateMajor(tx, existing, incoming)
}

func updateMajor(tx *gorm.DB, existing, incoming *model.Major) (*model.Major, upsertAction, error) {
	candidate := *existing
	copyMajorAttributes(&candidate, incoming)
	alignJSON(&candidate.Keywords, existing.Keywords)
	if reflect.DeepEqual(candidate, *existing) {
		return existing, actionUnchanged, nil
	}
	if err := tx.Save(&candidate).Error; err != nil {
		return nil, actionUnchanged, fmt.Errorf("update major %q: %w", existing.NameKey, err)
	}
	return &candidate, actionUpdated, nil
}

// copyMajorAttributes copies the non-identity attributes of src onto dst.
// Identity columns (university, name key, degree level, teaching language)
// are deliberately left alone: they are immutable once the row exists.
func copyMajorAttributes(dst, src *model.Major) {
	dst.Name = src.Name
	dst.NameCN = src.NameCN
	dst.DurationYears = src.DurationYears
	dst.Description = src.Description
	dst.Discipline = src.Discipline
	dst.Category = src.Category
	dst.Keywords = src.Keywords
	dst.IsFeatured = src.IsFeatured
	dst.IsActive = src.IsActive
}

func (s *DataIngestionService) upsertProgramIntake(tx *gorm.DB, run *ingestRun, incoming *model.ProgramIntake) (*model.ProgramIntake, upsertAction, error) {
	key := fmt.Sprintf("%d|%s|%d", incoming.MajorID, incoming.IntakeTerm, incoming.IntakeYear)
	existing, found, err := findProgramIntake(tx, incoming.MajorID, incoming.IntakeTerm, incoming.IntakeYear)
	if err != nil {
		return nil, actionUnchanged, fmt.Errorf("resolve intake %s: %w", key, err)
	}
	if !found {
		cerr := createRow(tx, incoming)
		if cerr == nil {
			return incoming, actionInserted, nil
		}
		if !errors.Is(cerr, gorm.ErrDuplicatedKey) {
			return nil, actionUnchanged, fmt.Errorf("insert intake %s: %w", key, cerr)
		}
		log.Printf("[ingest %s] %s: intake %s already exists, converting insert to update", run.id, KindRaceRetried, key)
		existing, found, err = findProgramIntake(tx, incoming.MajorID, incoming.IntakeTerm, incoming.IntakeYear)
		if err != nil {
			return nil, actionUnchanged, fmt.Errorf("re-resolve intake %s after duplicate key: %w", key, err)
		}
		if !found {
			return nil, actionUnchanged, fmt.Errorf("intake %s missing after duplicate-key insert", key)
		}
	}
	return updateProgramIntake(tx, existing, incoming)
}

func updateProgramIntake(tx *gorm.DB, existing, incoming *model.ProgramIntake) (*model.ProgramIntake, upsertAction, error) {
	candidate := *existing
	copyProgramIntakeAttributes(&candidate, incoming)
	alignTime(&candidate.ApplicationDeadline, existing.ApplicationDeadline)
	alignTime(&candidate.ProgramStartDate, existing.ProgramStartDate)
	if reflect.DeepEqual(candidate, *existing) {
		return existing, actionUnchanged, nil
	}
	if err := tx.Save(&candidate).Error; err != nil {
		return nil, actionUnchanged, fmt.Errorf("update intake %d|%s|%d: %w", existing.MajorID, existing.IntakeTerm, existing.IntakeYear, err)
	}
	return &candidate, actionUpdated, nil
}

func copyProgramIntakeAttributes(dst, src *model.ProgramIntake) {
	dst.ApplicationDeadline = src.ApplicationDeadline
	dst.DeadlineType = src.DeadlineType
	dst.ProgramStartDate = src.ProgramStartDate
	dst.TuitionPerSemester = src.TuitionPerSemester
	dst.TuitionPerYear = src.TuitionPerYear
	dst.ApplicationFee = src.ApplicationFee
	dst.AccommodationFee = src.AccommodationFee
	dst.AccommodationFeePeriod = src.AccommodationFeePeriod
	dst.AccommodationNote = src.AccommodationNote
	dst.ServiceFee = src.ServiceFee
	dst.MedicalInsuranceFee = src.MedicalInsuranceFee
	dst.MedicalInsuranceFeePeriod = src.MedicalInsuranceFeePeriod
	dst.ArrivalMedicalCheckupFee = src.ArrivalMedicalCheckupFee
	dst.ArrivalMedicalCheckupIsOneTime = src.ArrivalMedicalCheckupIsOneTime
	dst.VisaExtensionFee = src.VisaExtensionFee
	dst.Currency = src.Currency
	dst.Notes = src.Notes
	dst.ScholarshipAvailable = src.ScholarshipAvailable
	dst.ScholarshipInfo = src.ScholarshipInfo
	dst.AgeMin = src.AgeMin
	dst.AgeMax = src.AgeMax
	dst.MinAverageScore = src.MinAverageScore
	dst.InterviewRequired = src.InterviewRequired
	dst.WrittenTestRequired = src.WrittenTestRequired
	dst.AcceptanceLetterRequired = src.AcceptanceLetterRequired
	dst.InsideChinaApplicantsAllowed = src.InsideChinaApplicantsAllowed
	dst.InsideChinaExtraRequirements = src.InsideChinaExtraRequirements
	dst.BankStatementRequired = src.BankStatementRequired
	dst.BankStatementAmount = src.BankStatementAmount
	dst.BankStatementCurrency = src.BankStatementCurrency
	dst.BankStatementNote = src.BankStatementNote
	dst.HSKRequired = src.HSKRequired
	dst.HSKLevel = src.HSKLevel
	dst.HSKMinScore = src.HSKMinScore
	dst.EnglishTestRequired = src.EnglishTestRequired
	dst.EnglishTestNote = src.EnglishTestNote
	dst.TeachingLanguage = src.TeachingLanguage
	dst.DurationYears = src.DurationYears
	dst.DegreeType = src.DegreeType
}

func (s *DataIngestionService) upsertProgramDocument(tx *gorm.DB, run *ingestRun, incoming *model.ProgramDocument) (*model.ProgramDocument, upsertAction, error) {
	key := fmt.Sprintf("%d|%s", incoming.ProgramIntakeID, incoming.NameKey)
	existing, found, err := findProgramDocument(tx, incoming.ProgramIntakeID, incoming.NameKey)
	if err != nil {
		return nil, actionUnchanged, fmt.Errorf("resolve document %s: %w", key, err)
	}
	if !found {
		cerr := createRow(tx, incoming)
		if cerr == nil {
			return incoming, actionInserted, nil
		}
		if !errors.Is(cerr, gorm.ErrDuplicatedKey) {
			return nil, actionUnchanged, fmt.Errorf("insert document %s: %w", key, cerr)
		}
		log.Printf("[ingest %s] %s: document %s already exists, converting insert to update", run.id, KindRaceRetried, key)
		existing, found, err = findProgramDocument(tx, incoming.ProgramIntakeID, incoming.NameKey)
		if err != nil {
			return nil, actionUnchanged, fmt.Errorf("re-resolve document %s after duplicate key: %w", key, err)
		}
		if !found {
			return nil, actionUnchanged, fmt.Errorf("document %s missing after duplicate-key insert", key)
		}
	}
	return updateProgramDocument(tx, existing, incoming)
}

func updateProgramDocument(tx *gorm.DB, existing, incoming *model.ProgramDocument) (*model.ProgramDocument, upsertAction, error) {
	candidate := *existing
	candidate.Name = incoming.Name
	candidate.IsRequired = incoming.IsRequired
	candidate.Rules = incoming.Rules
	candidate.AppliesTo = incoming.AppliesTo
	if reflect.DeepEqual(candidate, *existing) {
		return existing, actionUnchanged, nil
	}
	if err := tx.Save(&candidate).Error; err != nil {
		return nil, actionUnchanged, fmt.Errorf("update document %d|%s: %w", existing.ProgramIntakeID, existing.NameKey, err)
	}
	return &candidate, actionUpdated, nil
}

func (s *DataIngestionService) upsertScholarship(tx *gorm.DB, run *ingestRun, incoming *model.Scholarship) (*model.Scholarship, upsertAction, error) {
	existing, found, err := findScholarship(tx, incoming.NameKey)
	if err != nil {
		return nil, actionUnchanged, fmt.Errorf("resolve scholarship %q: %w", incoming.NameKey, err)
	}
	if !found {
		return s.insertScholarship(tx, run, incoming)
	}
	return updateScholarship(tx, existing, incoming)
}

func (s *DataIngestionService) insertScholarship(tx *gorm.DB, run *ingestRun, incoming *model.Scholarship) (*model.Scholarship, upsertAction, error) {
	err := createRow(tx, incoming)
	if err == nil {
		return incoming, actionInserted, nil
	}
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, actionUnchanged, fmt.Errorf("insert scholarship %q: %w", incoming.NameKey, err)
	}
	log.Printf("[ingest %s] %s: scholarship %q already exists, converting insert to update", run.id, KindRaceRetried, incoming.NameKey)
	existing, found, err := findScholarship(tx, incoming.NameKey)
	if err != nil {
		return nil, actionUnchanged, fmt.Errorf("re-resolve scholarship %q after duplicate key: %w", incoming.NameKey, err)
	}
	if !found {
		return nil, actionUnchanged, fmt.Errorf("scholarship %q missing after duplicate-key insert", incoming.NameKey)
	}
	return updateScholarship(tx, existing, incoming)
}

func updateScholarship(tx *gorm.DB, existing, incoming *model.Scholarship) (*model.Scholarship, upsertAction, error) {
	candidate := *existing
	candidate.Name = incoming.Name
	candidate.Provider = incoming.Provider
	candidate.Notes = incoming.Notes
	if reflect.DeepEqual(candidate, *existing) {
		return existing, actionUnchanged, nil
	}
	if err := tx.Save(&candidate).Error; err != nil {
		return nil, actionUnchanged, fmt.Errorf("update scholarship %q: %w", existing.NameKey, err)
	}
	return &candidate, actionUpdated, nil
}

func (s *DataIngestionService) upsertIntakeScholarshipLink(tx *gorm.DB, run *ingestRun, incoming *model.ProgramIntakeScholarship) (*model.ProgramIntakeScholarship, upsertAction, error) {
	key := fmt.Sprintf("%d|%d", incoming.ProgramIntakeID, incoming.ScholarshipID)
	existing, found, err := findIntakeScholarshipLink(tx, incoming.ProgramIntakeID, incoming.ScholarshipID)
	if err != nil {
		return nil, actionUnchanged, fmt.Errorf("resolve scholarship link %s: %w", key, err)
	}
	if !found {
		cerr := createRow(tx, incoming)
		if cerr == nil {
			return incoming, actionInserted, nil
		}
		if !errors.Is(cerr, gorm.ErrDuplicatedKey) {
			return nil, actionUnchanged, fmt.Errorf("insert scholarship link %s: %w", key, cerr)
		}
		log.Printf("[ingest %s] %s: scholarship link %s already exists, converting insert to update", run.id, KindRaceRetried, key)
		existing, found, err = findIntakeScholarshipLink(tx, incoming.ProgramIntakeID, incoming.ScholarshipID)
		if err != nil {
			return nil, actionUnchanged, fmt.Errorf("re-resolve scholarship link %s after duplicate key: %w", key, err)
		}
		if !found {
			return nil, actionUnchanged, fmt.Errorf("scholarship link %s missing after duplicate-key insert", key)
		}
	}
	return updateIntakeScholarshipLink(tx, existing, incoming)
}

func updateIntakeScholarshipLink(tx *gorm.DB, existing, incoming *model.ProgramIntakeScholarship) (*model.ProgramIntakeScholarship, upsertAction, error) {
	candidate := *existing
	candidate.CoversTuition = incoming.CoversTuition
	candidate.CoversAccommodation = incoming.CoversAccommodation
	candidate.CoversInsurance = incoming.CoversInsurance
	candidate.TuitionWaiverPercent = incoming.TuitionWaiverPercent
	candidate.LivingAllowanceMonthly = incoming.LivingAllowanceMonthly
	candidate.LivingAllowanceYearly = incoming.LivingAllowanceYearly
	candidate.FirstYearOnly = incoming.FirstYearOnly
	candidate.RenewalRequired = incoming.RenewalRequired
	candidate.Deadline = incoming.Deadline
	candidate.EligibilityNote = incoming.EligibilityNote
	alignTime(&candidate.Deadline, existing.Deadline)
	if reflect.DeepEqual(candidate, *existing) {
		return existing, actionUnchanged, nil
	}
	if err := tx.Save(&candidate).Error; err != nil {
		return nil, actionUnchanged, fmt.Errorf("update scholarship link %d|%d: %w", existing.ProgramIntakeID, existing.ScholarshipID, err)
	}
	return &candidate, actionUpdated, nil
}

// ---------------------------------------------------------------------------
// Field helpers
// ---------------------------------------------------------------------------

var deadlineLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parseDateTime parses a deadline that may come as a plain date or a full
// timestamp. Unparseable values are dropped rather than failing the row; the
// document reader already reported anything it could not read itself.
func parseDateTime(raw *string) *time.Time {
	if raw == nil {
		return nil
	}
	s := strings.TrimSpace(*raw)
	if s == "" {
		return nil
	}
	for _, layout := range deadlineLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

// parseDate parses a YYYY-MM-DD date.
func parseDate(raw *string) *time.Time {
	if raw == nil {
		return nil
	}
	s := strings.TrimSpace(*raw)
	if s == "" {
		return nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return &t
	}
	return nil
}

// alignTime replaces the incoming time with the stored one when both denote
// the same instant, so driver round-trip differences in location or
// precision do not register as field changes.
func alignTime(incoming **time.Time, stored *time.Time) {
	if *incoming != nil && stored != nil && (*incoming).Equal(*stored) {
		*incoming = stored
	}
}

// alignJSON does the same for JSON columns, which some backends re-format on
// storage.
func alignJSON(incoming *datatypes.JSON, stored datatypes.JSON) {
	if len(*incoming) == 0 || len(stored) == 0 {
		return
	}
	var a, b interface{}
	if json.Unmarshal(*incoming, &a) != nil || json.Unmarshal(stored, &b) != nil {
		return
	}
	if reflect.DeepEqual(a, b) {
		*incoming = stored
	}
}

func keywordsJSON(keywords []string) datatypes.JSON {
	if len(keywords) == 0 {
		return nil
	}
	b, err := json.Marshal(keywords)
	if err != nil {
		return nil
	}
	return datatypes.JSON(b)
}
