package receipt

import (
	"time"

	"github.com/rs/zerolog"
	"receiptscan/internal/logger"
	"receiptscan/pkg/models"
)

// Extractor turns recognized receipt text into a ReceiptCandidate. It holds
// no per-call state, so one Extractor may be shared across goroutines.
type Extractor struct {
	now func() time.Time
	log zerolog.Logger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithClock sets the clock used for the transaction date fallback.
func WithClock(now func() time.Time) Option {
	return func(e *Extractor) {
		if now != nil {
			e.now = now
		}
	}
}

// WithLogger replaces the component logger.
func WithLogger(log zerolog.Logger) Option {
	return func(e *Extractor) {
		e.log = log
	}
}

// NewExtractor creates an Extractor using the wall clock unless overridden.
func NewExtractor(opts ...Option) *Extractor {
	e := &Extractor{
		now: time.Now,
		log: logger.WithComponent("receipt-extractor"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract never fails: every field falls back to a documented default.
func (e *Extractor) Extract(text string) models.ReceiptCandidate {
	lines := SplitLines(text)

	supplier, supplierOK := matchSupplier(lines)
	vat, vatMatch, _ := matchAmount(vatAmountRules, text)
	total, totalMatch, _ := matchAmount(totalAmountRules, text)
	due, dueMatch, dueFound := matchAmount(totalAmountDueRules, text)
	items := ExtractItems(lines)

	candidate := models.ReceiptCandidate{
		Supplier:        supplier.Value,
		TransactionDate: ExtractTransactionDate(text, e.now()),
		VATRegTIN:       ExtractVATRegTIN(text),
		Terms:           ExtractTerms(text),
		VATAmount:       vat,
		TotalAmount:     total,
		TotalAmountDue:  ResolveTotalAmountDue(due, dueFound, total, vat),
		Items:           items,
	}

	e.log.Debug().
		Int("line_count", len(lines)).
		Str("supplier_rule", ruleName(supplier, supplierOK)).
		Str("vat_rule", vatMatch.Rule).
		Str("total_rule", totalMatch.Rule).
		Str("total_due_rule", dueMatch.Rule).
		Bool("total_due_computed", !dueFound).
		Int("item_count", len(items)).
		Msg("Receipt extraction completed")

	return candidate
}

// Extract runs a default Extractor over text.
func Extract(text string) models.ReceiptCandidate {
	return NewExtractor().Extract(text)
}

func ruleName(m Match, ok bool) string {
	if !ok {
		return "none"
	}
	return m.Rule
}
