package receipt

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"receiptscan/pkg/models"
)

// FallbackUnit is assigned to items recovered without a structured table.
const FallbackUnit = "piece(s)"

// itemHeaderTokens must all appear on the line that opens the items table.
var itemHeaderTokens = []string{"QTY", "UNIT", "ARTICLES", "AMOUNT"}

// unitTokens is the uppercase unit vocabulary accepted between quantity and
// name. Longer spellings come first so alternation prefers them.
const unitTokens = `UNITS|UNIT|PCS|PC|EACH|EA|BOXES|BOX|REAMS|REAM|SETS|SET|PACKS|PACK|PKGS|PKG|PK|` +
	`BTLS|BTL|CANS|CAN|KGS|KG|GAL|ML|LTR|L|G|M|FT|ROLLS|ROLL|DOZ|LOTS|LOT|PAIRS|PAIR|PR|` +
	`CTNS|CTN|BAGS|BAG|PADS|PAD|BKS|BK|SHTS|SHT|TUBES|TUBE|HRS|HR`

const priceToken = `(?:PHP|₱|P)?\s*(\d[\d,]*(?:\.\d+)?)`

var (
	// itemRow reads "<qty> [UNIT] <name> [unit price] <total price>".
	itemRow = regexp.MustCompile(`^(\d+(?:\.\d+)?)\s+` +
		`(?:(` + unitTokens + `)\.?\s+)?` +
		`([A-Za-z0-9][A-Za-z0-9 .,'&/()#%+"\-]*?)\s+` +
		`(?:` + priceToken + `\s+)?` +
		priceToken + `$`)

	// Lazy name so a currency marker before the price is not kept in it.
	fallbackRow = regexp.MustCompile(`^(.*?[A-Za-z].*?)\s+` + priceToken + `$`)

	summaryLine = regexp.MustCompile(`(?i)\b(?:sub\s*-?\s*total|total|vat)`)

	// labelledLine marks payment and header lines that carry numbers but are not purchases.
	labelledLine = regexp.MustCompile(`(?i)\b(?:amount\s+due|balance|change|cash|tendered|date|tin|terms|tel|phone)\b`)
)

// FindItemHeader returns the index of the items table header, or -1.
func FindItemHeader(lines []string) int {
	for i, line := range lines {
		upper := strings.ToUpper(line)
		found := true
		for _, token := range itemHeaderTokens {
			if !strings.Contains(upper, token) {
				found = false
				break
			}
		}
		if found {
			return i
		}
	}
	return -1
}

// ParseItemRows reads item rows following the header line until a summary
// line (total, subtotal, VAT) is reached. Lines that do not look like a row
// are skipped.
func ParseItemRows(lines []string, header int) []models.LineItem {
	items := []models.LineItem{}
	if header < 0 {
		return items
	}
	for _, line := range lines[header+1:] {
		if summaryLine.MatchString(line) {
			break
		}
		if item, ok := parseItemRow(line); ok {
			items = append(items, item)
		}
	}
	return items
}

func parseItemRow(line string) (models.LineItem, bool) {
	m := itemRow.FindStringSubmatch(line)
	if m == nil {
		return models.LineItem{}, false
	}
	quantity, ok := parseAmount(m[1])
	if !ok {
		return models.LineItem{}, false
	}
	total, ok := parseAmount(m[5])
	if !ok {
		return models.LineItem{}, false
	}

	unitPrice, ok := parseAmount(m[4])
	if !ok {
		// No unit price column: derive it.
		unitPrice = total
		if quantity > 0 {
			unitPrice = total / quantity
		}
	}

	return models.LineItem{
		ItemName:   strings.TrimSpace(m[3]),
		Unit:       m[2],
		Quantity:   quantity,
		UnitPrice:  unitPrice,
		TotalPrice: total,
	}, true
}

// ExtractFallbackItems recovers approximate items from any line that mixes
// letters and digits and ends in a price. Each is assumed to be one piece.
func ExtractFallbackItems(lines []string) []models.LineItem {
	items := []models.LineItem{}
	for _, line := range lines {
		if utf8.RuneCountInString(line) <= 5 || !hasLettersAndDigits(line) {
			continue
		}
		if summaryLine.MatchString(line) || labelledLine.MatchString(line) {
			continue
		}
		m := fallbackRow.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		price, ok := parseAmount(m[2])
		if !ok {
			continue
		}
		name := strings.TrimRight(strings.TrimSpace(m[1]), ":-# ")
		if name == "" {
			continue
		}
		items = append(items, models.LineItem{
			ItemName:   name,
			Unit:       FallbackUnit,
			Quantity:   1,
			UnitPrice:  price,
			TotalPrice: price,
		})
	}
	return items
}

// ExtractItems runs the structured table path and falls back to generic
// lines only when it yields nothing.
func ExtractItems(lines []string) []models.LineItem {
	if items := ParseItemRows(lines, FindItemHeader(lines)); len(items) > 0 {
		return items
	}
	return ExtractFallbackItems(lines)
}

func hasLettersAndDigits(s string) bool {
	var letter, digit bool
	for _, r := range s {
		switch {
		case unicode.IsLetter(r):
			letter = true
		case unicode.IsDigit(r):
			digit = true
		}
		if letter && digit {
			return true
		}
	}
	return false
}
