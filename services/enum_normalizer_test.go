package services

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeDegreeLevel(t *testing.T) {
	cases := []struct {
		raw    string
		want   string
		mapped bool
	}{
		{"Bachelor", "Bachelor", true},
		{"bachelor", "Bachelor", true},
		{"  Master  ", "Master", true},
		{"Undergraduate", "Bachelor", true},
		{"Masters", "Master", true},
		{"PhD", "Phd", true},
		{"Doctorate", "Phd", true},
		{"Master's Degree Program", "Master", true}, // containment
		{"Diploma", "Associate", true},
		{"Diploma Mill", "Diploma Mill", false},
		{"", "", false},
	}
	for _, c := range cases {
		got, ok := NormalizeDegreeLevel(c.raw)
		require.Equal(t, c.want, got, "raw=%q", c.raw)
		require.Equal(t, c.mapped, ok, "raw=%q", c.raw)
	}
}

func TestNormalizeTeachingLanguage(t *testing.T) {
	cases := []struct {
		raw    string
		want   string
		mapped bool
	}{
		{"English", "English", true},
		{"EN", "English", true},
		{"Mandarin", "Chinese", true},
		{"Taught in English", "English", true}, // containment
		{"Esperanto", "Esperanto", false},
	}
	for _, c := range cases {
		got, ok := NormalizeTeachingLanguage(c.raw)
		require.Equal(t, c.want, got, "raw=%q", c.raw)
		require.Equal(t, c.mapped, ok, "raw=%q", c.raw)
	}
}

func TestNormalizeIntakeTerm(t *testing.T) {
	cases := []struct {
		raw    string
		want   string
		mapped bool
	}{
		{"September", "September", true},
		{"Fall", "September", true},
		{"Autumn", "September", true},
		{"Spring", "March", true},
		{"Summer", "Other", true},
		{"Rolling", "Rolling", false},
	}
	for _, c := range cases {
		got, ok := NormalizeIntakeTerm(c.raw)
		require.Equal(t, c.want, got, "raw=%q", c.raw)
		require.Equal(t, c.mapped, ok, "raw=%q", c.raw)
	}
}

func TestNormalizeCurrency(t *testing.T) {
	cases := []struct {
		raw    string
		want   string
		mapped bool
	}{
		{"CNY", "CNY", true},
		{"RMB", "CNY", true},
		{"Yuan", "CNY", true},
		{"usd", "USD", true},
		{"EUR", "EUR", false},
	}
	for _, c := range cases {
		got, ok := NormalizeCurrency(c.raw)
		require.Equal(t, c.want, got, "raw=%q", c.raw)
		require.Equal(t, c.mapped, ok, "raw=%q", c.raw)
	}
}

func TestNormalizeFeePeriod(t *testing.T) {
	cases := []struct {
		raw    string
		want   string
		mapped bool
	}{
		{"month", "month", true},
		{"Monthly", "month", true},
		{"per year", "year", true},
		{"Annual", "year", true},
		{"per semester", "semester", true},
		{"fortnight", "fortnight", false},
	}
	for _, c := range cases {
		got, ok := NormalizeFeePeriod(c.raw)
		require.Equal(t, c.want, got, "raw=%q", c.raw)
		require.Equal(t, c.mapped, ok, "raw=%q", c.raw)
	}
}
