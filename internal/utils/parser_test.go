package utils

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSplitTitleYear(t *testing.T) {
	tests := []struct {
		name  string
		title string
		year  string
	}{
		{"Arrival (2016)", "Arrival", "2016"},
		{"Her", "Her", ""},
		{"1917 (2019)", "1917", "2019"},
		{"  Spaced Out  (2001) ", "Spaced Out", "2001"},
	}
	for _, tt := range tests {
		title, year := SplitTitleYear(tt.name)
		require.Equal(t, tt.title, title, tt.name)
		require.Equal(t, tt.year, year, tt.name)
	}
}

func TestNormalizeTitle(t *testing.T) {
	require.Equal(t, "The Big Sleep", NormalizeTitle("  The   Big  Sleep "))
	require.Equal(t, "", NormalizeTitle("   "))
}

func TestParseStarRating(t *testing.T) {
	require.Equal(t, 3.5, *ParseStarRating("★★★½"))
	require.Equal(t, 5.0, *ParseStarRating("★★★★★"))
	require.Equal(t, 0.5, *ParseStarRating("½"))
	require.Nil(t, ParseStarRating(""))
	require.Nil(t, ParseStarRating("not rated"))
}

func TestSlugify(t *testing.T) {
	require.Equal(t, "ellen-burstyn", Slugify("Ellen Burstyn"))
	require.Equal(t, "sam-ol-jackson", Slugify("Sam O'L. Jackson"))
}

func TestDedupe(t *testing.T) {
	require.Equal(t, []string{"a", "b"}, Dedupe([]string{"a", "", "b", "a"}))
	require.Nil(t, Dedupe(nil))
}
