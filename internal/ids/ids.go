// Package ids derives stable entity id slugs and deterministic diffusion
// seeds. Both functions are pure and must produce identical output across
// platforms and runtimes: downstream image generation keys on the seed.
package ids

import (
	"strings"

	"github.com/even/showrunner/pkg/models"
)

// seedSeparator joins hash parts; it never appears in valid slugs.
const seedSeparator = "::"

// Slugify lowers name, collapses runs of non-alphanumerics into single
// hyphens, and truncates to models.MaxIDLength. When a disambiguator is
// given it is appended as "-<disambiguator>" with the base truncated to
// make room, and the combined slug truncated again so even an over-long
// suffix stays within the bound.
func Slugify(name string, disambiguator ...string) string {
	base := slug(name)

	suffix := ""
	if len(disambiguator) > 0 && disambiguator[0] != "" {
		suffix = "-" + slug(disambiguator[0])
	}

	limit := models.MaxIDLength - len(suffix)
	if limit < 1 {
		limit = 1
	}
	if len(base) > limit {
		base = strings.Trim(base[:limit], "-")
	}

	out := base + suffix
	if len(out) > models.MaxIDLength {
		out = strings.Trim(out[:models.MaxIDLength], "-")
	}
	if out == "" {
		out = "x"
	}
	return out
}

// slug lower-cases s and maps every run of non-alphanumerics to one hyphen.
func slug(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	pendingHyphen := false
	for _, r := range strings.ToLower(s) {
		alnum := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
		if !alnum {
			if b.Len() > 0 {
				pendingHyphen = true
			}
			continue
		}
		if pendingHyphen {
			b.WriteByte('-')
			pendingHyphen = false
		}
		b.WriteRune(r)
	}
	return b.String()
}

// HashSeed joins parts with a fixed separator and runs a 31x rolling
// multiply-and-wrap hash over the bytes, ending in an absolute-value step
// so the result is always non-negative. The scheme is the portable string
// hash used by the original prompt tooling; changing it silently changes
// every character's render.
func HashSeed(parts ...string) int32 {
	joined := strings.Join(parts, seedSeparator)

	var h int32
	for i := 0; i < len(joined); i++ {
		h = h*31 + int32(joined[i])
	}
	if h == -1<<31 {
		// -h would overflow; the hash still must be non-negative.
		return 0
	}
	if h < 0 {
		return -h
	}
	return h
}
