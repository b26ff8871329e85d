package codec

import (
	"regexp"
	"strings"

	"golang.org/x/text/width"
)

const (
	mobilePrefix   = "010"
	countryCode    = "82"
	subscriberLen  = 8
	maxPhoneDigits = 11
	birthLen       = 6
	rrnBackLen     = 7
	backMask       = "******"
)

var nonDigit = regexp.MustCompile(`\D`)

// DigitsOnly removes every non-digit. Full-width digits (０-９) are folded to
// ASCII first so pasted values from Korean IMEs survive.
func DigitsOnly(s string) string {
	if s == "" {
		return ""
	}
	return nonDigit.ReplaceAllString(width.Narrow.String(s), "")
}

// NormalizePhone returns the national mobile number as digits. An 8-digit
// subscriber suffix gets the "010" prefix and a +82 country code becomes the
// trunk "0". Longer inputs are truncated.
func NormalizePhone(raw string) string {
	d := DigitsOnly(raw)
	if strings.HasPrefix(d, countryCode) && len(d) > subscriberLen+2 {
		d = "0" + strings.TrimPrefix(d[len(countryCode):], "0")
	}
	switch {
	case d == "" || d == mobilePrefix:
		return ""
	case strings.HasPrefix(d, mobilePrefix):
		return truncate(d, maxPhoneDigits)
	case len(d) == subscriberLen:
		return mobilePrefix + d
	case len(d) == subscriberLen+2 && strings.HasPrefix(d, "10"):
		// leading zero eaten by a spreadsheet
		return "0" + d
	}
	return truncate(d, maxPhoneDigits)
}

// CanonicalBirth reduces a birth value to YYMMDD. YYYYMMDD (19xx/20xx) is
// shortened; anything longer is truncated.
func CanonicalBirth(raw string) string {
	d := DigitsOnly(raw)
	if len(d) == 8 && (strings.HasPrefix(d, "19") || strings.HasPrefix(d, "20")) {
		return d[2:]
	}
	return truncate(d, birthLen)
}

// RRNParts is the only shape of a resident-registration number allowed to
// leave this package: the front six digits plus the first back digit.
type RRNParts struct {
	Front6     string
	BackMasked string
	Parity     string
}

// Display renders FFFFFF-X******. Empty when nothing was captured.
func (p RRNParts) Display() string {
	if p.Front6 == "" && p.Parity == "" {
		return ""
	}
	return p.Front6 + "-" + p.BackMasked
}

// SplitRRN keeps the first six front digits and only the first back digit.
func SplitRRN(front, back string) RRNParts {
	f := truncate(DigitsOnly(front), birthLen)
	b := truncate(DigitsOnly(back), rrnBackLen)

	p := RRNParts{Front6: f, BackMasked: "*" + backMask}
	if b != "" {
		p.Parity = b[:1]
		p.BackMasked = p.Parity + backMask
	}
	return p
}

// ParseIdentity splits a single free-form identity value. Accepted shapes:
// "900101", "900101-1******", "900101-1234567", "9001011234567".
func ParseIdentity(raw string) RRNParts {
	s := width.Narrow.String(strings.TrimSpace(raw))
	if i := strings.Index(s, "-"); i >= 0 {
		if len(DigitsOnly(s[:i])) < birthLen {
			// 1990-01-01 style date, no back segment
			return SplitRRN(CanonicalBirth(s), "")
		}
		return SplitRRN(s[:i], s[i+1:])
	}
	d := DigitsOnly(s)
	if len(d) > birthLen {
		return SplitRRN(d[:birthLen], d[birthLen:])
	}
	return SplitRRN(d, "")
}

var rrnRun = regexp.MustCompile(`(\d{6})\s*-?\s*(\d)\d{6}`)

// scrubRRN masks anything that looks like a full RRN inside free text.
func scrubRRN(s string) string {
	return rrnRun.ReplaceAllString(s, "$1-$2"+backMask)
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}

func truncateRunes(s string, n int) string {
	if n <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) > n {
		return string(r[:n])
	}
	return s
}
