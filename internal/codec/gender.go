package codec

import (
	"strings"

	"github.com/xavierca1/lead-inbox/internal/entity"
)

// ParityRule maps the first RRN back digit to a gender. It is a locale
// convention, so the codec takes it as a dependency.
type ParityRule func(digit string) entity.Gender

// KoreanRRNParity: 1,3,5,7 male; 2,4,6,8 female; anything else unknown.
func KoreanRRNParity(digit string) entity.Gender {
	switch digit {
	case "1", "3", "5", "7":
		return entity.GenderMale
	case "2", "4", "6", "8":
		return entity.GenderFemale
	}
	return entity.GenderUnknown
}

// ParseGender reads an explicit textual value only. Female patterns are
// checked first since "female" contains "male" and "woman" contains "man".
func ParseGender(explicit string) entity.Gender {
	g := strings.ToLower(strings.TrimSpace(explicit))
	if g == "" {
		return entity.GenderUnknown
	}
	switch {
	case strings.Contains(g, "여"), strings.Contains(g, "female"), strings.Contains(g, "woman"), g == "f", g == "w":
		return entity.GenderFemale
	case strings.Contains(g, "남"), strings.Contains(g, "male"), strings.Contains(g, "man"), g == "m":
		return entity.GenderMale
	}
	return entity.GenderUnknown
}

// InferGender prefers the explicit value and falls back to the parity rule.
func InferGender(explicit, parity string, rule ParityRule) entity.Gender {
	if g := ParseGender(explicit); g != entity.GenderUnknown {
		return g
	}
	if rule == nil || parity == "" {
		return entity.GenderUnknown
	}
	return rule(parity)
}
