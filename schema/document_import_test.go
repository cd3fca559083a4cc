package schema

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateRequiresUniversityName(t *testing.T) {
	data := &ExtractedData{
		Majors: []MajorInfo{{Name: "Computer Science"}},
	}
	require.Error(t, data.Validate())
}

func TestValidateRequiresAtLeastOneMajor(t *testing.T) {
	data := &ExtractedData{UniversityName: "Beihang University"}
	require.Error(t, data.Validate())

	data.MajorGroups = []MajorGroupInfo{{MajorNames: []string{"Physics"}}}
	require.NoError(t, data.Validate())
}

func TestValidateRejectsWaiverOutOfRange(t *testing.T) {
	waiver := 150
	data := &ExtractedData{
		UniversityName: "Beihang University",
		Majors: []MajorInfo{{
			Name: "Computer Science",
			Intakes: []ProgramIntakeInfo{{
				IntakeTerm: "September",
				IntakeYear: 2026,
				Scholarships: []ScholarshipInfo{{
					Name:                 "CSC Scholarship",
					TuitionWaiverPercent: &waiver,
				}},
			}},
		}},
	}
	require.Error(t, data.Validate())
}

func TestValidateAllowsMissingMajorKeyFields(t *testing.T) {
	// Majors with missing degree_level or teaching_language pass structural
	// validation; the ingestion engine skips them individually instead.
	data := &ExtractedData{
		UniversityName: "Beihang University",
		Majors:         []MajorInfo{{Name: "Mystery Program"}},
	}
	require.NoError(t, data.Validate())
}

func TestExpandMajorsFlattensGroups(t *testing.T) {
	duration := 4.0
	data := &ExtractedData{
		UniversityName: "Beihang University",
		Majors: []MajorInfo{{
			Name:             "Software Engineering",
			DegreeLevel:      "Bachelor",
			TeachingLanguage: "English",
		}},
		MajorGroups: []MajorGroupInfo{{
			MajorNames:       []string{"Civil Engineering", "Mechanical Engineering"},
			DegreeLevel:      "Bachelor",
			TeachingLanguage: "Chinese",
			DurationYears:    &duration,
			Intakes: []ProgramIntakeInfo{{
				IntakeTerm: "September",
				IntakeYear: 2026,
			}},
		}},
	}

	majors := data.ExpandMajors()
	require.Len(t, majors, 3)

	// Explicit majors first, then groups in listed order.
	require.Equal(t, "Software Engineering", majors[0].Name)
	require.Equal(t, "Civil Engineering", majors[1].Name)
	require.Equal(t, "Mechanical Engineering", majors[2].Name)

	// Group members inherit the shared properties and intakes.
	require.Equal(t, "Chinese", majors[2].TeachingLanguage)
	require.Equal(t, duration, *majors[2].DurationYears)
	require.Len(t, majors[2].Intakes, 1)
}
