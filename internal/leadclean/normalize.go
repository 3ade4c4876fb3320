package leadclean

import (
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/markusmobius/go-dateparser"
	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const dateLayout = "2006-01-02"

var (
	reNonDigit     = regexp.MustCompile(`\D`)
	reEmail        = regexp.MustCompile(`^[^\s@]+@[^\s@]*\.[^\s@]*$`)
	reAmountKeep   = regexp.MustCompile(`[^0-9.,]`)
	reCanonicalDay = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	reDigitsOnly   = regexp.MustCompile(`^\d+$`)

	// currencyTokens are removed from amounts before the letter check.
	currencyTokens = []string{"uah", "грн"}

	dateParserConfig = &dateparser.Configuration{
		Languages: []string{"en", "ru", "uk"},
	}
)

// NormalizeName collapses whitespace runs into single spaces and trims.
func NormalizeName(raw string) string {
	return strings.Join(strings.Fields(raw), " ")
}

// NormalizePhone returns a Ukrainian number as +380XXXXXXXXX, or "" when the
// digits match neither the national (0XXXXXXXXX) nor the international
// (380XXXXXXXXX) form.
func NormalizePhone(raw string) string {
	digits := reNonDigit.ReplaceAllString(raw, "")
	switch {
	case len(digits) == 10 && digits[0] == '0':
		return "+38" + digits
	case len(digits) == 12 && strings.HasPrefix(digits, "380"):
		return "+" + digits
	default:
		return ""
	}
}

// NormalizeEmail lowercases and trims an address and keeps it only when it is
// syntactically local@domain with a dot in the domain. Deliverability is not
// checked.
func NormalizeEmail(raw string) string {
	email := lower(strings.TrimSpace(raw))
	if !reEmail.MatchString(email) {
		return ""
	}
	return email
}

// NormalizeDate returns the date as YYYY-MM-DD. Values already in that layout
// are parsed strictly; anything else goes through the natural-language parser
// configured for English, Russian and Ukrainian.
//
// A YYYY-MM-DD value naming no real day ("2024-02-30") and a bare number
// ("12345") are invalid; the parser would otherwise coerce them to some date.
func NormalizeDate(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" || reDigitsOnly.MatchString(s) {
		return ""
	}
	if reCanonicalDay.MatchString(s) {
		if _, err := time.Parse(dateLayout, s); err != nil {
			return ""
		}
		return s
	}
	dt, err := dateparser.Parse(dateParserConfig, s)
	if err != nil || dt.Time.IsZero() {
		return ""
	}
	return dt.Time.Format(dateLayout)
}

// NormalizeAmount returns a fixed-point amount with two fraction digits.
//
// A single separator followed by exactly three digits, with one to three
// digits before it, is read as a thousands separator: "1,234" is 1234, not
// 1.234. With several separators the last one is the decimal point.
func NormalizeAmount(raw string) string {
	s := lower(raw)
	for _, token := range currencyTokens {
		s = strings.ReplaceAll(s, token, "")
	}
	if strings.IndexFunc(s, unicode.IsLetter) >= 0 {
		return ""
	}
	s = reAmountKeep.ReplaceAllString(s, "")
	if strings.Trim(s, ".,") == "" {
		return ""
	}

	segments := strings.Split(strings.ReplaceAll(s, ",", "."), ".")
	var number string
	switch {
	case len(segments) == 2 && len(segments[0]) >= 1 && len(segments[0]) <= 3 && len(segments[1]) == 3:
		number = segments[0] + segments[1]
	case len(segments) > 2:
		last := len(segments) - 1
		number = strings.Join(segments[:last], "") + "." + segments[last]
	default:
		number = strings.Join(segments, ".")
	}

	d, err := decimal.NewFromString(number)
	if err != nil {
		return ""
	}
	return d.StringFixedBank(2)
}

// lower folds case with Unicode rules so Cyrillic currency names match too.
// A Caser keeps state, so each call gets its own.
func lower(s string) string {
	return cases.Lower(language.Und).String(s)
}

// isCanonicalDate reports whether s is a normalized YYYY-MM-DD value.
func isCanonicalDate(s string) bool {
	if !reCanonicalDay.MatchString(s) {
		return false
	}
	_, err := time.Parse(dateLayout, s)
	return err == nil
}

// normalizeRow applies every field normalizer to r.
func normalizeRow(r RawRow) NormalizedRow {
	return NormalizedRow{
		LeadID:    r.LeadID,
		Name:      NormalizeName(r.Name),
		Phone:     NormalizePhone(r.Phone),
		Email:     NormalizeEmail(r.Email),
		CreatedAt: NormalizeDate(r.CreatedAt),
		Amount:    NormalizeAmount(r.Amount),
	}
}
