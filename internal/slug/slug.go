// Package slug derives unique lowercase URL slugs from display names.
package slug

import (
	"crypto/rand"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/rs/zerolog/log"
)

// MaxLen is the maximum slug length, matching the slug columns' size.
const MaxLen = 100

// randomLen is the length of the fallback slug for names that fold down
// to nothing.
const randomLen = 12

// randomChars is the character set for fallback slugs.
var randomChars = []byte("abcdefghijklmnopqrstuvwxyz0123456789")

// deaccent strips combining marks after NFD decomposition, so "Crème
// Brûlée" folds to "Creme Brulee".
var deaccent = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Make folds a display name into a lowercase slug: accents stripped,
// non-alphanumeric runs collapsed into single dashes. Names that fold to
// nothing get a random slug.
func Make(name string) string {
	folded, _, err := transform.String(deaccent, name)
	if err != nil {
		folded = name
	}

	folded = strings.ToLower(folded)

	var (
		b    strings.Builder
		dash bool
	)

	for _, r := range folded {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}

			dash = false

			b.WriteRune(r)
		default:
			dash = true
		}
	}

	s := b.String()
	if len(s) > MaxLen {
		s = strings.Trim(s[:MaxLen], "-")
	}

	if s == "" {
		return random()
	}

	return s
}

// MakeUnique derives a slug from name and disambiguates collisions with a
// numeric suffix (base, base-2, base-3, ...). The taken predicate reports
// whether a candidate is already in use; the current row's own slug should
// not count as taken.
func MakeUnique(name string, taken func(candidate string) (bool, error)) (string, error) {
	base := Make(name)

	candidate := base
	for n := 2; ; n++ {
		inUse, err := taken(candidate)
		if err != nil {
			return "", err
		}
		if !inUse {
			return candidate, nil
		}

		suffix := fmt.Sprintf("-%d", n)
		if len(base)+len(suffix) > MaxLen {
			candidate = base[:MaxLen-len(suffix)] + suffix
		} else {
			candidate = base + suffix
		}
	}
}

// random returns a random lowercase slug. Rejection sampling keeps the
// character distribution uniform.
func random() string {
	clen := len(randomChars)
	maxRb := 255 - (256 % clen)

	out := make([]byte, 0, randomLen)
	buf := make([]byte, randomLen*2)

	for len(out) < randomLen {
		if _, err := rand.Read(buf); err != nil {
			log.Fatal().Msgf("failed to read random bytes: %v", err)
		}

		for _, c := range buf {
			if int(c) > maxRb {
				continue
			}

			out = append(out, randomChars[int(c)%clen])
			if len(out) == randomLen {
				break
			}
		}
	}

	return string(out)
}
