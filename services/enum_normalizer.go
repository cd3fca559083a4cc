package services

import "strings"

// Canonical vocabularies for extracted enum-like fields. These match the
// values the database and downstream query layers expect; free-text values
// from the document reader are mapped onto them before identity resolution.
var (
	DegreeLevels = []string{
		"Bachelor", "Master", "Phd", "Language Program", "Associate",
		"Vocational College", "Non Degree", "Junior high", "Senior high",
	}
	TeachingLanguages = []string{"Chinese", "English", "Bilingual"}
	IntakeTerms       = []string{"March", "September", "Other"}
	Currencies        = []string{"CNY", "USD"}
	FeePeriods        = []string{"month", "year", "semester"}
)

var degreeLevelAliases = map[string]string{
	"bsc":                "Bachelor",
	"b.sc":               "Bachelor",
	"undergraduate":      "Bachelor",
	"undergrad":          "Bachelor",
	"masters":            "Master",
	"msc":                "Master",
	"m.sc":               "Master",
	"postgraduate":       "Master",
	"post-graduate":      "Master",
	"graduate":           "Master",
	"ph.d":               "Phd",
	"ph.d.":              "Phd",
	"doctorate":          "Phd",
	"doctoral":           "Phd",
	"dphil":              "Phd",
	"language":           "Language Program",
	"foundation":         "Language Program",
	"foundation program": "Language Program",
	"non-degree":         "Non Degree",
	"diploma":            "Associate",
	"assoc":              "Associate",
	"vocational":         "Vocational College",
}

var teachingLanguageAliases = map[string]string{
	"en":             "English",
	"english medium": "English",
	"cn":             "Chinese",
	"zh":             "Chinese",
	"mandarin":       "Chinese",
	"chinese medium": "Chinese",
	"dual language":  "Bilingual",
}

var intakeTermAliases = map[string]string{
	"fall":   "September",
	"autumn": "September",
	"sep":    "September",
	"sept":   "September",
	"spring": "March",
	"mar":    "March",
	"summer": "Other",
	"winter": "Other",
}

var currencyAliases = map[string]string{
	"rmb":       "CNY",
	"yuan":      "CNY",
	"renminbi":  "CNY",
	"¥":         "CNY",
	"$":         "USD",
	"us dollar": "USD",
	"dollar":    "USD",
}

var feePeriodAliases = map[string]string{
	"monthly":      "month",
	"per month":    "month",
	"yearly":       "year",
	"annual":       "year",
	"per year":     "year",
	"per semester": "semester",
	"term":         "semester",
}

// normalizeEnum maps a raw extracted value onto one of the canonical values:
// case-insensitive exact match first, then the alias table, then substring
// containment as a last resort. When nothing matches the trimmed raw value
// comes back with ok=false so the caller can keep it and report it; this
// never fails an ingestion.
func normalizeEnum(raw string, canonical []string, aliases map[string]string) (string, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", false
	}
	lower := strings.ToLower(trimmed)

	for _, c := range canonical {
		if strings.ToLower(c) == lower {
			return c, true
		}
	}
	if mapped, ok := aliases[lower]; ok {
		return mapped, true
	}
	for _, c := range canonical {
		cl := strings.ToLower(c)
		if strings.Contains(lower, cl) || strings.Contains(cl, lower) {
			return c, true
		}
	}

	return trimmed, false
}

// NormalizeDegreeLevel maps a raw degree level onto the canonical vocabulary.
func NormalizeDegreeLevel(raw string) (string, bool) {
	return normalizeEnum(raw, DegreeLevels, degreeLevelAliases)
}

// NormalizeTeachingLanguage maps a raw teaching language onto the canonical vocabulary.
func NormalizeTeachingLanguage(raw string) (string, bool) {
	return normalizeEnum(raw, TeachingLanguages, teachingLanguageAliases)
}

// NormalizeIntakeTerm maps a raw intake term onto the canonical vocabulary.
func NormalizeIntakeTerm(raw string) (string, bool) {
	return normalizeEnum(raw, IntakeTerms, intakeTermAliases)
}

// NormalizeCurrency maps a raw currency onto the canonical vocabulary.
func NormalizeCurrency(raw string) (string, bool) {
	return normalizeEnum(raw, Currencies, currencyAliases)
}

// NormalizeFeePeriod maps a raw fee period (month/year/semester) onto the
// canonical vocabulary.
func NormalizeFeePeriod(raw string) (string, bool) {
	return normalizeEnum(raw, FeePeriods, feePeriodAliases)
}
