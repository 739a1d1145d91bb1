package receipt

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Rule is a single entry in a field's priority chain. Lower Rank wins.
type Rule struct {
	Name    string
	Rank    int
	Pattern *regexp.Regexp
}

// Match is the value a Rule recovered along with where it came from.
type Match struct {
	Value string
	Rank  int
	Rule  string
}

// accepter decides whether a raw capture may stand as the field's value.
// The capture's end offset in text is passed so callers can inspect
// what follows it.
type accepter func(text, value string, end int) bool

func acceptAll(string, string, int) bool { return true }

// firstMatch walks rules in order and returns the first capture accepted by ok.
// Rules are tried in slice order; ranks only label the result.
func firstMatch(rules []Rule, text string, ok accepter) (Match, bool) {
	for _, rule := range rules {
		for _, loc := range rule.Pattern.FindAllStringSubmatchIndex(text, -1) {
			if len(loc) < 4 || loc[2] < 0 {
				continue
			}
			value := strings.TrimSpace(text[loc[2]:loc[3]])
			if value == "" || !ok(text, value, loc[3]) {
				continue
			}
			return Match{Value: value, Rank: rule.Rank, Rule: rule.Name}, true
		}
	}
	return Match{}, false
}

// currencyPrefix tolerates an optional currency marker between a label and its
// number. It stays on the label's line so a bare label never takes the next
// line's first number.
const currencyPrefix = `[ \t]*[:\-]?[ \t]*(?:PHP|₱|P|\$)?[ \t]*`

// amountPattern captures a number with optional thousands separators and decimals.
const amountPattern = `(\d[\d,]*(?:\.\d+)?)`

// amountRule builds a case-insensitive rule for "<label> [:] [currency] <amount>".
func amountRule(name string, rank int, label string) Rule {
	return Rule{
		Name:    name,
		Rank:    rank,
		Pattern: regexp.MustCompile(`(?i)` + label + currencyPrefix + amountPattern),
	}
}

// parseAmount strips thousands separators and parses a non-negative finite float.
func parseAmount(s string) (float64, bool) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if cleaned == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0, false
	}
	return v, true
}

// acceptAmount rejects captures that do not parse, percentages such as
// "VAT 12%" and the head of hyphenated identifiers such as "VAT: 123-456-789".
func acceptAmount(text, value string, end int) bool {
	if _, ok := parseAmount(value); !ok {
		return false
	}
	rest := text[end:]
	switch {
	case strings.HasPrefix(rest, "%"):
		return false
	case len(rest) >= 2 && rest[0] == '-' && rest[1] >= '0' && rest[1] <= '9':
		return false
	}
	return true
}

// matchAmount returns the first accepted amount in the chain, or 0.
func matchAmount(rules []Rule, text string) (float64, Match, bool) {
	m, ok := firstMatch(rules, text, acceptAmount)
	if !ok {
		return 0, Match{}, false
	}
	v, _ := parseAmount(m.Value)
	return v, m, true
}
