// Package receipt recovers a structured record from noisy receipt OCR text.
//
// The engine is a set of independent, pure field extractors plus an items
// table reader, combined by Extractor.Extract into a models.ReceiptCandidate.
// It never fails: unrecognized fields fall back to documented defaults
// (empty string, zero, today's date, no items) because the result only
// pre-fills a form a person reviews before saving.
//
// Field priority chains:
//   - supplier: corporate suffix in the first 5 lines, then "Sold to:"/"To:", then the first line
//   - transaction date: labelled ISO, numeric (month/day/year, retried as day/month/year) or month-name date
//   - VAT amount: "VAT Amount", then "VAT"
//   - total amount: "VATable Sales", "Amount: Net of VAT", "Total Sales (VAT Inclusive)", "Subtotal", then "Total"
//   - total amount due: "TOTAL AMOUNT DUE", "Amount Due", "Balance Due", then total amount + VAT
//
// Known limitations: labels are English, script is Latin, currency markers
// are ₱, P, PHP and $.
//
// Scanner connects a text recognizer (see package ocr) to the engine for the
// image capture flow.
package receipt

import (
	"context"
	"io"
	"time"

	"github.com/rs/zerolog"
	"receiptscan/internal/logger"
	"receiptscan/internal/ocr"
	"receiptscan/pkg/models"
)

// ReceiptScanner defines the interface for turning receipts into candidates.
type ReceiptScanner interface {
	// ScanImage recognizes text in an image and extracts a candidate from it.
	ScanImage(ctx context.Context, image io.Reader) (*ScanResult, error)

	// ScanText extracts a candidate from already recognized text.
	ScanText(text string) *ScanResult
}

// CompletionFunc receives each candidate produced by a successful scan.
type CompletionFunc func(models.ReceiptCandidate)

// ScanResult contains a candidate and the text it was read from.
type ScanResult struct {
	Candidate models.ReceiptCandidate `json:"candidate"`

	// RawText is the recognized text the candidate was extracted from.
	RawText string `json:"raw_text,omitempty"`

	// OCR holds recognition metadata. Nil when scanning text directly.
	OCR *ocr.OCRResult `json:"ocr,omitempty"`

	// Warnings lists amounts that disagree with each other, for the reviewer.
	Warnings []string `json:"warnings,omitempty"`

	// ExtractionDuration is how long field extraction took.
	ExtractionDuration time.Duration `json:"extraction_duration"`
}

// Scanner implements ReceiptScanner.
type Scanner struct {
	recognizer ocr.TextRecognizer
	extractor  *Extractor
	onComplete CompletionFunc
	log        zerolog.Logger
}

// ScannerOption configures a Scanner.
type ScannerOption func(*Scanner)

// WithCompletion registers a callback invoked once per successful scan.
func WithCompletion(fn CompletionFunc) ScannerOption {
	return func(s *Scanner) {
		s.onComplete = fn
	}
}

// WithExtractor replaces the default Extractor.
func WithExtractor(e *Extractor) ScannerOption {
	return func(s *Scanner) {
		if e != nil {
			s.extractor = e
		}
	}
}

// NewScanner creates a Scanner. recognizer may be nil when only ScanText is used.
func NewScanner(recognizer ocr.TextRecognizer, opts ...ScannerOption) *Scanner {
	s := &Scanner{
		recognizer: recognizer,
		extractor:  NewExtractor(),
		log:        logger.WithComponent("receipt-scanner"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ScanImage runs OCR on image and extracts a candidate from the result.
// Only OCR can fail; extraction always produces a candidate.
func (s *Scanner) ScanImage(ctx context.Context, image io.Reader) (*ScanResult, error) {
	const op = "ScanImage"

	if s.recognizer == nil {
		return nil, &ScanError{Op: op, Err: ErrNoRecognizer}
	}

	ocrResult, err := s.recognizer.RecognizeTextWithMetadata(ctx, image)
	if err != nil {
		s.log.Error().Err(err).Msg("Text recognition failed")
		return nil, &ScanError{Op: op, Err: err}
	}

	s.log.Debug().
		Int("text_length", len(ocrResult.Text)).
		Float32("confidence", ocrResult.Confidence).
		Dur("ocr_duration", ocrResult.ProcessingDuration).
		Msg("Text recognized")

	result := s.scan(ocrResult.Text)
	result.OCR = ocrResult
	s.complete(result)
	return result, nil
}

// ScanText extracts a candidate from recognized text.
func (s *Scanner) ScanText(text string) *ScanResult {
	result := s.scan(text)
	s.complete(result)
	return result
}

func (s *Scanner) scan(text string) *ScanResult {
	start := time.Now()
	candidate := s.extractor.Extract(text)
	return &ScanResult{
		Candidate:          candidate,
		RawText:            text,
		Warnings:           CheckConsistency(candidate),
		ExtractionDuration: time.Since(start),
	}
}

func (s *Scanner) complete(result *ScanResult) {
	s.log.Info().
		Str("supplier", result.Candidate.Supplier).
		Str("transaction_date", result.Candidate.TransactionDate).
		Float64("total_amount_due", result.Candidate.TotalAmountDue).
		Int("item_count", len(result.Candidate.Items)).
		Strs("warnings", result.Warnings).
		Msg("Receipt candidate ready")

	if s.onComplete != nil {
		s.onComplete(result.Candidate)
	}
}
