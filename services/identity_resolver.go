package services

import (
	"errors"

	"github.com/malishaedu/admissions-api/model"
	"gorm.io/gorm"
)

// The resolver performs the single-row identity lookups defined by the data
// model: one canonical key tuple per entity type, pure reads, no side
// effects. Name-like key components are matched on their stored name_key
// column, so lookups are case- and whitespace-insensitive without needing
// LOWER() in SQL and stay consistent with the unique indexes that back them.
//
// Every function returns (row, found, err); gorm.ErrRecordNotFound is mapped
// to found=false so callers never have to inspect the error for the normal
// miss case.

func findUniversity(tx *gorm.DB, name string) (*model.University, bool, error) {
	var university model.University
	err := tx.Where("name_key = ?", model.NameKey(name)).First(&university).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return &university, true, nil
}

func findMajor(tx *gorm.DB, universityID uint, nameKey, degreeLevel, teachingLanguage string) (*model.Major, bool, error) {
	var major model.Major
	err := tx.Where(
		"university_id = ? AND name_key = ? AND degree_level = ? AND teaching_language = ?",
		universityID, nameKey, degreeLevel, teachingLanguage,
	).First(&major).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return &major, true, nil
}

func findProgramIntake(tx *gorm.DB, majorID uint, intakeTerm string, intakeYear int) (*model.ProgramIntake, bool, error) {
	var intake model.ProgramIntake
	err := tx.Where(
		"major_id = ? AND intake_term = ? AND intake_year = ?",
		majorID, intakeTerm, intakeYear,
	).First(&intake).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return &intake, true, nil
}

func findProgramDocument(tx *gorm.DB, programIntakeID uint, nameKey string) (*model.ProgramDocument, bool, error) {
	var document model.ProgramDocument
	err := tx.Where(
		"program_intake_id = ? AND name_key = ?",
		programIntakeID, nameKey,
	).First(&document).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return &document, true, nil
}

// findScholarship resolves by name alone: scholarship identity is global, not
// scoped to a university.
func findScholarship(tx *gorm.DB, nameKey string) (*model.Scholarship, bool, error) {
	var scholarship model.Scholarship
	err := tx.Where("name_key = ?", nameKey).First(&scholarship).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return &scholarship, true, nil
}

func findIntakeScholarshipLink(tx *gorm.DB, programIntakeID, scholarshipID uint) (*model.ProgramIntakeScholarship, bool, error) {
	var link model.ProgramIntakeScholarship
	err := tx.Where(
		"program_intake_id = ? AND scholarship_id = ?",
		programIntakeID, scholarshipID,
	).First(&link).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return &link, true, nil
}
