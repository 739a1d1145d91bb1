package receipt

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// DateLayout is the ISO layout every transaction date is normalized to.
const DateLayout = "2006-01-02"

// supplierHeadLines bounds how far down the corporate-suffix rule looks.
const supplierHeadLines = 5

// minTINLength guards against short stray tokens mis-recognized near a label.
const minTINLength = 5

var (
	corporateSuffix = regexp.MustCompile(`(?i)\b(?:CORP(?:ORATION)?|INC|INCORPORATED|ENTERPRISES?|COMPANY|CO|HOLDINGS|LTD|LLC|TRADING)\b`)
	soldToLabel     = regexp.MustCompile(`(?i)^(?:sold\s+)?to\s*:\s*(.+)$`)

	datePattern = regexp.MustCompile(`(?i)\b(?:transaction\s+)?date(?:[ \t]*/[ \t]*time)?\b\s*[:\-]?\s*(?:` +
		`(?P<iy>\d{4})[/\-.](?P<im>\d{1,2})[/\-.](?P<id>\d{1,2})` +
		`|(?P<a>\d{1,2})[/\-.](?P<b>\d{1,2})[/\-.](?P<c>\d{4}|\d{2})\b` +
		`|(?P<mon>[A-Za-z]{3,9})\.?\s+(?P<mday>\d{1,2})(?:st|nd|rd|th)?,?\s+(?P<myear>\d{4})` +
		`|(?P<dday>\d{1,2})(?:st|nd|rd|th)?\s+(?:of\s+)?(?P<dmon>[A-Za-z]{3,9})\.?,?\s+(?P<dyear>\d{4}))`)

	tinPattern = regexp.MustCompile(`(?i)\b(?:` +
		`VAT\s*Reg(?:istration)?\b\.?(?:\s*(?:TIN|No)\b\.?)?` +
		`|TIN\s*/\s*SC-TIN\b` +
		`|TIN\b` +
		`|Tax\s*ID\b` +
		`|TRN\b` +
		`|VAT\b)` +
		`\s*(?:No\b\.?|Number\b|#)?\s*[:#]?\s*([A-Za-z0-9][A-Za-z0-9-]*)`)

	// The singular "term" only counts as a label when a colon follows it.
	termsPattern = regexp.MustCompile(`(?im)\b(?:terms\b(?:\s+of\s+payment)?[ \t]*[:\-]?|term[ \t]*:)[ \t]*([^\n]+)$`)
)

var months = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March,
	"apr": time.April, "may": time.May, "jun": time.June,
	"jul": time.July, "aug": time.August, "sep": time.September,
	"oct": time.October, "nov": time.November, "dec": time.December,
}

// canonicalTerms maps compacted synonyms to the known terms set, checked in order.
var canonicalTerms = []struct {
	needle string
	terms  string
}{
	{"net90", "net-90"},
	{"net60", "net-60"},
	{"net30", "net-30"},
	{"net15", "net-15"},
	{"cash", "cash"},
}

var (
	vatAmountRules = []Rule{
		amountRule("vat-amount", 1, `\bVAT\s*Amount\b`),
		amountRule("vat", 2, `\bVAT\b(?:[ \t]*\(\s*\d+(?:\.\d+)?\s*%\s*\)|[ \t]*\d+(?:\.\d+)?[ \t]*%)?`),
	}

	totalAmountRules = []Rule{
		amountRule("vatable-sales", 1, `\bVATable\s+Sales\b`),
		amountRule("net-of-vat", 2, `\bAmount\s*:?\s*Net\s+of\s+VAT\b`),
		amountRule("total-sales-vat-inclusive", 3, `\bTotal\s+Sales\s*\(\s*VAT\s+Inclusive\s*\)`),
		amountRule("subtotal", 4, `\bSub\s*-?\s*Total\b`),
		amountRule("total", 5, `\bTotal\b`),
	}

	totalAmountDueRules = []Rule{
		amountRule("total-amount-due", 1, `\bTOTAL\s+AMOUNT\s+DUE\b`),
		amountRule("amount-due", 2, `\bAmount\s+Due\b`),
		amountRule("balance-due", 3, `\bBalance\s+Due\b`),
	}
)

// supplierRule is one link in the supplier chain. Supplier heuristics work on
// lines rather than a single regex, so each rule carries its own finder.
type supplierRule struct {
	name string
	rank int
	find func(lines []string) (string, bool)
}

var supplierRules = []supplierRule{
	{"corporate-suffix", 1, func(lines []string) (string, bool) {
		for i, line := range lines {
			if i >= supplierHeadLines {
				break
			}
			if corporateSuffix.MatchString(line) {
				return line, true
			}
		}
		return "", false
	}},
	{"sold-to", 2, func(lines []string) (string, bool) {
		for _, line := range lines {
			if m := soldToLabel.FindStringSubmatch(line); m != nil {
				if name := strings.TrimSpace(m[1]); name != "" {
					return name, true
				}
			}
		}
		return "", false
	}},
	{"first-line", 3, func(lines []string) (string, bool) {
		if len(lines) == 0 {
			return "", false
		}
		return lines[0], true
	}},
}

func matchSupplier(lines []string) (Match, bool) {
	for _, rule := range supplierRules {
		if v, ok := rule.find(lines); ok {
			return Match{Value: v, Rank: rule.rank, Rule: rule.name}, true
		}
	}
	return Match{}, false
}

// ExtractSupplier returns the best-guess issuer name from normalized lines,
// or "" when there are none.
func ExtractSupplier(lines []string) string {
	m, _ := matchSupplier(lines)
	return m.Value
}

// ExtractTransactionDate finds a labelled date and returns it as yyyy-mm-dd.
// Numeric dates are read month-first and retried day-first when that is not
// a real calendar date. When nothing usable is found, now's date is returned.
func ExtractTransactionDate(text string, now time.Time) string {
	if d, ok := parseLabelledDate(text); ok {
		return d.Format(DateLayout)
	}
	return now.Format(DateLayout)
}

func parseLabelledDate(text string) (time.Time, bool) {
	names := datePattern.SubexpNames()
	for _, m := range datePattern.FindAllStringSubmatch(text, -1) {
		g := make(map[string]string, len(names))
		for i, name := range names {
			if name != "" {
				g[name] = m[i]
			}
		}

		switch {
		case g["iy"] != "":
			if d, ok := calendarDate(atoi(g["iy"]), atoi(g["im"]), atoi(g["id"])); ok {
				return d, true
			}
		case g["a"] != "":
			year := expandYear(atoi(g["c"]))
			first, second := atoi(g["a"]), atoi(g["b"])
			if d, ok := calendarDate(year, first, second); ok {
				return d, true
			}
			if d, ok := calendarDate(year, second, first); ok {
				return d, true
			}
		case g["mon"] != "":
			if month, ok := monthByName(g["mon"]); ok {
				if d, ok := calendarDate(atoi(g["myear"]), int(month), atoi(g["mday"])); ok {
					return d, true
				}
			}
		case g["dmon"] != "":
			if month, ok := monthByName(g["dmon"]); ok {
				if d, ok := calendarDate(atoi(g["dyear"]), int(month), atoi(g["dday"])); ok {
					return d, true
				}
			}
		}
	}
	return time.Time{}, false
}

// calendarDate rejects dates time.Date would silently normalize, e.g. 02/30.
func calendarDate(year, month, day int) (time.Time, bool) {
	if month < 1 || month > 12 || day < 1 || year < 1 {
		return time.Time{}, false
	}
	d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if d.Month() != time.Month(month) || d.Day() != day {
		return time.Time{}, false
	}
	return d, true
}

func expandYear(y int) int {
	if y < 100 {
		return 2000 + y
	}
	return y
}

func monthByName(name string) (time.Month, bool) {
	if len(name) < 3 {
		return 0, false
	}
	m, ok := months[strings.ToLower(name[:3])]
	return m, ok
}

func atoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

// ExtractVATRegTIN returns the supplier's tax identifier, or nil.
func ExtractVATRegTIN(text string) *string {
	for _, m := range tinPattern.FindAllStringSubmatch(text, -1) {
		token := strings.TrimRight(m[1], "-")
		if len(token) < minTINLength || !strings.ContainsFunc(token, unicode.IsDigit) {
			continue
		}
		return &token
	}
	return nil
}

// ExtractTerms returns the payment terms, canonicalized when recognizable
// and verbatim otherwise. Returns nil when no terms label is present.
func ExtractTerms(text string) *string {
	m := termsPattern.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	// A bare "Terms:" leaves the separator in the capture.
	raw := strings.TrimSpace(strings.TrimLeft(m[1], ":- \t"))
	if raw == "" {
		return nil
	}
	terms := CanonicalTerms(raw)
	return &terms
}

// CanonicalTerms maps common synonyms ("Net 30", "NET-30", "Cash") onto the
// known terms set. Unrecognized text is returned unchanged.
func CanonicalTerms(raw string) string {
	compact := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || r == '-' || r == '.' {
			return -1
		}
		return unicode.ToLower(r)
	}, raw)

	for _, c := range canonicalTerms {
		if strings.Contains(compact, c.needle) {
			return c.terms
		}
	}
	return raw
}

// ExtractVATAmount returns the VAT amount, or 0.
func ExtractVATAmount(text string) float64 {
	v, _, _ := matchAmount(vatAmountRules, text)
	return v
}

// ExtractTotalAmount returns the pre-tax total, or 0.
func ExtractTotalAmount(text string) float64 {
	v, _, _ := matchAmount(totalAmountRules, text)
	return v
}

// ExtractTotalAmountDue returns an explicitly labelled amount due. The bool
// reports whether a label matched; callers apply the computed fallback.
func ExtractTotalAmountDue(text string) (float64, bool) {
	v, _, ok := matchAmount(totalAmountDueRules, text)
	return v, ok
}

// ResolveTotalAmountDue prefers an explicit amount due, then the computed
// total plus VAT.
func ResolveTotalAmountDue(explicit float64, found bool, total, vat float64) float64 {
	if found {
		return explicit
	}
	if total != 0 || vat != 0 {
		return total + vat
	}
	return 0
}
