package slug

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMake(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "simple", input: "Hello World", expected: "hello-world"},
		{name: "accents stripped", input: "Crème Brûlée", expected: "creme-brulee"},
		{name: "punctuation collapsed", input: "Go, Go... Go!", expected: "go-go-go"},
		{name: "leading and trailing junk", input: "  --Hello--  ", expected: "hello"},
		{name: "digits kept", input: "Top 10 Posts", expected: "top-10-posts"},
		{name: "mixed case", input: "CamelCaseName", expected: "camelcasename"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, Make(tc.input))
		})
	}
}

func TestMakeEmptyFallsBackToRandom(t *testing.T) {
	s := Make("!!!")

	assert.Len(t, s, randomLen)

	for _, r := range s {
		assert.Contains(t, string(randomChars), string(r))
	}

	// two calls must not collide
	assert.NotEqual(t, s, Make("!!!"))
}

func TestMakeLongNameTruncated(t *testing.T) {
	s := Make(strings.Repeat("a", 2*MaxLen))

	assert.Len(t, s, MaxLen)
}

func TestMakeUnique(t *testing.T) {
	takenSlugs := map[string]bool{
		"hello-world":   true,
		"hello-world-2": true,
	}
	taken := func(candidate string) (bool, error) {
		return takenSlugs[candidate], nil
	}

	s, err := MakeUnique("Hello World", taken)
	require.NoError(t, err)
	assert.Equal(t, "hello-world-3", s)

	s, err = MakeUnique("Fresh Name", taken)
	require.NoError(t, err)
	assert.Equal(t, "fresh-name", s)
}

func TestMakeUniqueSuffixRespectsMaxLen(t *testing.T) {
	base := Make(strings.Repeat("b", 2*MaxLen))

	taken := func(candidate string) (bool, error) {
		return candidate == base, nil
	}

	s, err := MakeUnique(strings.Repeat("b", 2*MaxLen), taken)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(s), MaxLen)
	assert.True(t, strings.HasSuffix(s, "-2"))
}
