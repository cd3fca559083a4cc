package services

import (
	"context"
	"testing"

	"github.com/malishaedu/admissions-api/model"
	"github.com/malishaedu/admissions-api/schema"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens an in-memory SQLite database with the same error
// translation the production store uses. MaxOpenConns(1) keeps every query on
// the one connection that owns the in-memory database.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&model.University{},
		&model.Major{},
		&model.ProgramIntake{},
		&model.ProgramDocument{},
		&model.Scholarship{},
		&model.ProgramIntakeScholarship{},
	))
	return db
}

func createUniversity(t *testing.T, db *gorm.DB, name string) *model.University {
	t.Helper()
	u := &model.University{Name: name}
	require.NoError(t, db.Create(u).Error)
	return u
}

func strPtr(s string) *string   { return &s }
func intPtr(i int) *int         { return &i }
func f64Ptr(f float64) *float64 { return &f }
func boolPtr(b bool) *bool      { return &b }

func hasIssue(issues []Issue, kind string) bool {
	for _, issue := range issues {
		if issue.Kind == kind {
			return true
		}
	}
	return false
}

// samplePayload is one fully populated document: one major, one intake, two
// documents, one scholarship.
func samplePayload() *schema.ExtractedData {
	return &schema.ExtractedData{
		UniversityName: "Harbin Institute of Technology",
		Majors: []schema.MajorInfo{{
			Name:             "Computer Science and Technology",
			DegreeLevel:      "Bachelor",
			TeachingLanguage: "English",
			DurationYears:    f64Ptr(4),
			Keywords:         []string{"ai", "software"},
			Intakes: []schema.ProgramIntakeInfo{{
				IntakeTerm:          "September",
				IntakeYear:          2026,
				ApplicationDeadline: strPtr("2026-06-30"),
				Fees: schema.FeeInfo{
					TuitionPerYear: f64Ptr(24000),
					ApplicationFee: f64Ptr(400),
					Currency:       "RMB", // alias, normalized to CNY
				},
				Requirements: schema.RequirementsInfo{
					AgeMin:            intPtr(18),
					InterviewRequired: boolPtr(true),
				},
				Documents: []schema.DocumentInfo{
					{Name: "Passport", Rules: strPtr("valid for at least 6 months")},
					{Name: "Academic Transcript"},
				},
				Scholarships: []schema.ScholarshipInfo{{
					Name:                 "Freshman Scholarship",
					CoversTuition:        boolPtr(true),
					TuitionWaiverPercent: intPtr(100),
				}},
			}},
		}},
	}
}

func TestIngestFullTree(t *testing.T) {
	db := newTestDB(t)
	createUniversity(t, db, "Harbin Institute of Technology")
	svc := NewDataIngestionService(db)

	res := svc.IngestExtractedData(context.Background(), samplePayload())
	require.True(t, res.Success, "errors: %v", res.Errors)
	require.Equal(t, IngestCounts{
		MajorsInserted:         1,
		ProgramIntakesInserted: 1,
		DocumentsInserted:      2,
		ScholarshipsInserted:   1,
		LinksInserted:          1,
	}, res.Counts)
	require.Empty(t, res.Errors)

	var major model.Major
	require.NoError(t, db.First(&major).Error)
	require.Equal(t, "Computer Science and Technology", major.Name)
	require.Equal(t, "Bachelor", major.DegreeLevel)
	require.True(t, major.IsActive)

	var intake model.ProgramIntake
	require.NoError(t, db.First(&intake).Error)
	require.Equal(t, major.ID, intake.MajorID)
	require.Equal(t, "CNY", intake.Currency)
	require.NotNil(t, intake.ApplicationDeadline)
	// Inherited from the major because the intake did not state them.
	require.Equal(t, "English", *intake.TeachingLanguage)
	require.Equal(t, "Bachelor", *intake.DegreeType)
	require.Equal(t, 4.0, *intake.DurationYears)

	var docs []model.ProgramDocument
	require.NoError(t, db.Where("program_intake_id = ?", intake.ID).Find(&docs).Error)
	require.Len(t, docs, 2)
	for _, doc := range docs {
		require.True(t, doc.IsRequired) // defaults to true when the payload is silent
	}

	var links []model.ProgramIntakeScholarship
	require.NoError(t, db.Where("program_intake_id = ?", intake.ID).Find(&links).Error)
	require.Len(t, links, 1)
}

func TestIngestIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	createUniversity(t, db, "Harbin Institute of Technology")
	svc := NewDataIngestionService(db)

	first := svc.IngestExtractedData(context.Background(), samplePayload())
	require.True(t, first.Success, "errors: %v", first.Errors)

	second := svc.IngestExtractedData(context.Background(), samplePayload())
	require.True(t, second.Success, "errors: %v", second.Errors)
	require.Equal(t, IngestCounts{}, second.Counts, "identical payload must not insert or update anything")

	var majors, intakes, docs, scholarships, links int64
	require.NoError(t, db.Model(&model.Major{}).Count(&majors).Error)
	require.NoError(t, db.Model(&model.ProgramIntake{}).Count(&intakes).Error)
	require.NoError(t, db.Model(&model.ProgramDocument{}).Count(&docs).Error)
	require.NoError(t, db.Model(&model.Scholarship{}).Count(&scholarships).Error)
	require.NoError(t, db.Model(&model.ProgramIntakeScholarship{}).Count(&links).Error)
	require.EqualValues(t, 1, majors)
	require.EqualValues(t, 1, intakes)
	require.EqualValues(t, 2, docs)
	require.EqualValues(t, 1, scholarships)
	require.EqualValues(t, 1, links)
}

func TestIngestUnknownUniversityRollsBack(t *testing.T) {
	db := newTestDB(t)
	svc := NewDataIngestionService(db)

	res := svc.IngestExtractedData(context.Background(), samplePayload())
	require.False(t, res.Success)
	require.Equal(t, IngestCounts{}, res.Counts)
	require.Len(t, res.Errors, 1)
	require.Equal(t, KindFatalEntityMissing, res.Errors[0].Kind)
	require.Equal(t, EntityUniversity, res.Errors[0].EntityType)

	var majors int64
	require.NoError(t, db.Model(&model.Major{}).Count(&majors).Error)
	require.Zero(t, majors, "nothing may be written when the university is unknown")
}

func TestIngestSkipsMajorWithMissingKeyFields(t *testing.T) {
	db := newTestDB(t)
	createUniversity(t, db, "Harbin Institute of Technology")
	svc := NewDataIngestionService(db)

	payload := samplePayload()
	payload.Majors = append(payload.Majors, schema.MajorInfo{
		Name:             "Mystery Program",
		TeachingLanguage: "English", // degree_level missing
	})

	res := svc.IngestExtractedData(context.Background(), payload)
	require.True(t, res.Success, "errors: %v", res.Errors)
	require.Equal(t, 1, res.Counts.MajorsInserted, "the valid sibling must still be ingested")
	require.True(t, hasIssue(res.Warnings, KindSkippedSubtree))

	var majors int64
	require.NoError(t, db.Model(&model.Major{}).Count(&majors).Error)
	require.EqualValues(t, 1, majors)
}

func TestScholarshipIdentityIsGlobal(t *testing.T) {
	db := newTestDB(t)
	createUniversity(t, db, "Harbin Institute of Technology")
	createUniversity(t, db, "Beihang University")
	svc := NewDataIngestionService(db)

	first := samplePayload()
	first.Majors[0].Intakes[0].Scholarships[0].Name = "CSC Scholarship"
	res := svc.IngestExtractedData(context.Background(), first)
	require.True(t, res.Success, "errors: %v", res.Errors)
	require.Equal(t, 1, res.Counts.ScholarshipsInserted)

	// Different university, same scholarship with different casing and
	// spacing: must resolve to the existing row and only add a new link.
	second := samplePayload()
	second.UniversityName = "Beihang University"
	second.Majors[0].Intakes[0].Scholarships[0].Name = "csc   scholarship"
	res = svc.IngestExtractedData(context.Background(), second)
	require.True(t, res.Success, "errors: %v", res.Errors)
	require.Equal(t, 0, res.Counts.ScholarshipsInserted)
	require.Equal(t, 1, res.Counts.LinksInserted)

	var scholarships, links int64
	require.NoError(t, db.Model(&model.Scholarship{}).Count(&scholarships).Error)
	require.NoError(t, db.Model(&model.ProgramIntakeScholarship{}).Count(&links).Error)
	require.EqualValues(t, 1, scholarships)
	require.EqualValues(t, 2, links)
}

func TestIdentityIgnoresCaseAndWhitespace(t *testing.T) {
	db := newTestDB(t)
	createUniversity(t, db, "Harbin Institute of Technology")
	svc := NewDataIngestionService(db)

	res := svc.IngestExtractedData(context.Background(), samplePayload())
	require.True(t, res.Success, "errors: %v", res.Errors)

	payload := samplePayload()
	payload.Majors[0].Name = "  Computer   Science and  Technology "
	res = svc.IngestExtractedData(context.Background(), payload)
	require.True(t, res.Success, "errors: %v", res.Errors)
	require.Equal(t, 0, res.Counts.MajorsInserted)
	require.Equal(t, 0, res.Counts.MajorsUpdated)

	var majors int64
	require.NoError(t, db.Model(&model.Major{}).Count(&majors).Error)
	require.EqualValues(t, 1, majors)
}

func TestKeyFieldChangeCreatesDistinctMajor(t *testing.T) {
	db := newTestDB(t)
	createUniversity(t, db, "Harbin Institute of Technology")
	svc := NewDataIngestionService(db)

	res := svc.IngestExtractedData(context.Background(), samplePayload())
	require.True(t, res.Success, "errors: %v", res.Errors)

	payload := samplePayload()
	payload.Majors[0].TeachingLanguage = "Chinese"
	res = svc.IngestExtractedData(context.Background(), payload)
	require.True(t, res.Success, "errors: %v", res.Errors)
	require.Equal(t, 1, res.Counts.MajorsInserted, "a different teaching language is a different major")

	var majors int64
	require.NoError(t, db.Model(&model.Major{}).Count(&majors).Error)
	require.EqualValues(t, 2, majors)
}

func TestNonKeyChangeUpdatesInPlace(t *testing.T) {
	db := newTestDB(t)
	createUniversity(t, db, "Harbin Institute of Technology")
	svc := NewDataIngestionService(db)

	res := svc.IngestExtractedData(context.Background(), samplePayload())
	require.True(t, res.Success, "errors: %v", res.Errors)

	payload := samplePayload()
	payload.Majors[0].Intakes[0].Fees.TuitionPerYear = f64Ptr(26000)
	res = svc.IngestExtractedData(context.Background(), payload)
	require.True(t, res.Success, "errors: %v", res.Errors)
	require.Equal(t, 0, res.Counts.ProgramIntakesInserted)
	require.Equal(t, 1, res.Counts.ProgramIntakesUpdated)
	require.Equal(t, 0, res.Counts.MajorsUpdated, "the untouched parent must not be counted")

	var intake model.ProgramIntake
	require.NoError(t, db.First(&intake).Error)
	require.Equal(t, 26000.0, *intake.TuitionPerYear)
}

func TestUnmappedEnumKeptWithWarning(t *testing.T) {
	db := newTestDB(t)
	createUniversity(t, db, "Harbin Institute of Technology")
	svc := NewDataIngestionService(db)

	payload := samplePayload()
	payload.Majors[0].DegreeLevel = "Diploma Mill"
	res := svc.IngestExtractedData(context.Background(), payload)
	require.True(t, res.Success, "errors: %v", res.Errors)
	require.True(t, hasIssue(res.Warnings, KindUnmappedEnum))

	var major model.Major
	require.NoError(t, db.First(&major).Error)
	require.Equal(t, "Diploma Mill", major.DegreeLevel, "unmapped values are stored as extracted")
}

func TestInsertRaceConvertsToUpdate(t *testing.T) {
	db := newTestDB(t)
	svc := NewDataIngestionService(db)

	// The row our "concurrent" run would have created.
	require.NoError(t, db.Create(&model.Scholarship{Name: "CSC Scholarship"}).Error)

	run := &ingestRun{id: "test", state: stateWriting}
	err := db.Transaction(func(tx *gorm.DB) error {
		incoming := &model.Scholarship{
			Name:    "CSC Scholarship",
			NameKey: model.NameKey("CSC Scholarship"),
			Notes:   strPtr("covers tuition and dormitory"),
		}
		row, action, err := svc.insertScholarship(tx, run, incoming)
		require.NoError(t, err, "the duplicate key must be absorbed, not surfaced")
		require.Equal(t, actionUpdated, action)
		require.Equal(t, "covers tuition and dormitory", *row.Notes)
		return nil
	})
	require.NoError(t, err)

	var scholarships int64
	require.NoError(t, db.Model(&model.Scholarship{}).Count(&scholarships).Error)
	require.EqualValues(t, 1, scholarships)
}

func TestMidWriteFailureRollsBackEverything(t *testing.T) {
	db := newTestDB(t)
	createUniversity(t, db, "Harbin Institute of Technology")
	svc := NewDataIngestionService(db)

	// Sabotage the document table so the run fails after the major and the
	// intake have already been written.
	require.NoError(t, db.Migrator().DropTable(&model.ProgramDocument{}))

	res := svc.IngestExtractedData(context.Background(), samplePayload())
	require.False(t, res.Success)
	require.Equal(t, IngestCounts{}, res.Counts)
	require.True(t, hasIssue(res.Errors, KindFatalIntegrityViolation))

	var majors, intakes int64
	require.NoError(t, db.Model(&model.Major{}).Count(&majors).Error)
	require.NoError(t, db.Model(&model.ProgramIntake{}).Count(&intakes).Error)
	require.Zero(t, majors)
	require.Zero(t, intakes)
}

func TestNoProgramIntakesWarning(t *testing.T) {
	db := newTestDB(t)
	createUniversity(t, db, "Harbin Institute of Technology")
	svc := NewDataIngestionService(db)

	payload := &schema.ExtractedData{
		UniversityName: "Harbin Institute of Technology",
		Majors: []schema.MajorInfo{{
			Name:             "International Trade",
			DegreeLevel:      "Master",
			TeachingLanguage: "English",
		}},
	}
	res := svc.IngestExtractedData(context.Background(), payload)
	require.True(t, res.Success, "errors: %v", res.Errors)
	require.Equal(t, 1, res.Counts.MajorsInserted)
	require.True(t, hasIssue(res.Warnings, KindNoProgramIntakes))
}

func TestExtractionWarningsPassThrough(t *testing.T) {
	db := newTestDB(t)
	createUniversity(t, db, "Harbin Institute of Technology")
	svc := NewDataIngestionService(db)

	payload := samplePayload()
	payload.Errors = []string{"page 3 could not be read"}
	res := svc.IngestExtractedData(context.Background(), payload)
	require.True(t, res.Success, "errors: %v", res.Errors)
	require.True(t, hasIssue(res.Warnings, KindExtractionWarning))
}

func TestMajorGroupsExpandIntoIndividualMajors(t *testing.T) {
	db := newTestDB(t)
	createUniversity(t, db, "Harbin Institute of Technology")
	svc := NewDataIngestionService(db)

	payload := &schema.ExtractedData{
		UniversityName: "Harbin Institute of Technology",
		MajorGroups: []schema.MajorGroupInfo{{
			MajorNames:       []string{"Civil Engineering", "Mechanical Engineering", "Materials Science"},
			DegreeLevel:      "Bachelor",
			TeachingLanguage: "Chinese",
			DurationYears:    f64Ptr(4),
			Intakes: []schema.ProgramIntakeInfo{{
				IntakeTerm: "September",
				IntakeYear: 2026,
			}},
		}},
	}
	res := svc.IngestExtractedData(context.Background(), payload)
	require.True(t, res.Success, "errors: %v", res.Errors)
	require.Equal(t, 3, res.Counts.MajorsInserted)
	require.Equal(t, 3, res.Counts.ProgramIntakesInserted)
}
