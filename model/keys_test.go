package model

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeName(t *testing.T) {
	require.Equal(t, "Harbin Institute of Technology", NormalizeName("  Harbin   Institute of\tTechnology "))
	require.Equal(t, "", NormalizeName("   "))
}

func TestNameKey(t *testing.T) {
	require.Equal(t, "harbin institute of technology", NameKey("  HARBIN   Institute of Technology"))
	require.Equal(t, NameKey("CSC Scholarship"), NameKey("csc   scholarship"))
}
