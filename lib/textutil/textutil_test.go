package textutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	require.Equal(t, "pl200", Normalize("PL-200"))
	require.Equal(t, "pl200", Normalize("pl200"))
	require.Equal(t, "az400workgit", Normalize("AZ-400: Work Git!"))
	require.Equal(t, "", Normalize("---"))
}

func TestContainsNormalized(t *testing.T) {
	require.True(t, ContainsNormalized("Microsoft PL-200 Exam Prep", "PL200"))
	require.True(t, ContainsNormalized("learn.pl-200-intro", "pl200"))
	require.False(t, ContainsNormalized("AZ-104", "PL200"))
	// an all-punctuation query normalizes to nothing and must not match everything
	require.False(t, ContainsNormalized("anything", "--"))
}

func TestSlugify(t *testing.T) {
	require.Equal(t, "introducing-power-automate", Slugify("Introducing Power Automate"))
	require.Equal(t, "what-s-new", Slugify("  What's new?  "))
	require.Equal(t, "3-use-dataverse", Slugify("3. Use Dataverse"))
	require.Equal(t, "", Slugify("!!!"))
}
