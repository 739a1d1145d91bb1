// Package ocr turns receipt images into plain recognized text.
//
// The receipt extraction engine only needs "image in, text out", so every
// backend here hides behind TextRecognizer. Two Google Cloud backends are
// provided:
//   - vision: Cloud Vision document text detection on a single image
//   - documentai: a Document AI OCR processor fed the raw image
//
// Credentials are read from the environment:
//   - GOOGLE_APPLICATION_CREDENTIALS: Path to service account JSON file, OR
//   - GOOGLE_CREDENTIALS: Inline JSON credentials string
//   - otherwise Application Default Credentials are tried
//
// Images are checked and normalized before upload (see PrepareImage). HEIC
// photos from phone cameras are converted to PNG since neither API accepts them.
package ocr

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"
)

// Provider names accepted by NewRecognizer.
const (
	ProviderVision     = "vision"
	ProviderDocumentAI = "documentai"
)

// TextRecognizer defines the interface for OCR text extraction services.
type TextRecognizer interface {
	// RecognizeText returns the text recognized in an image.
	RecognizeText(ctx context.Context, image io.Reader) (string, error)

	// RecognizeTextWithMetadata returns recognized text with confidence and timing information.
	RecognizeTextWithMetadata(ctx context.Context, image io.Reader) (*OCRResult, error)

	// Close releases the underlying API client.
	Close() error
}

var (
	_ TextRecognizer = (*GoogleVisionOCRService)(nil)
	_ TextRecognizer = (*DocumentAIOCRService)(nil)
)

// OCRResult contains the results of OCR processing with metadata.
type OCRResult struct {
	// Text is the recognized text in reading order.
	Text string `json:"text"`

	// MimeType is the format that was sent to the backend after normalization.
	MimeType string `json:"mime_type"`

	// Converted reports whether the image was re-encoded before upload.
	Converted bool `json:"converted"`

	// Confidence is the average page confidence (0.0 to 1.0), 0 when the backend gives none.
	Confidence float32 `json:"confidence"`

	// LanguageCodes contains the detected languages in the image.
	LanguageCodes []string `json:"language_codes,omitempty"`

	// ProcessedAt is the timestamp when the OCR processing completed.
	ProcessedAt time.Time `json:"processed_at"`

	// ProcessingDuration is how long the OCR processing took.
	ProcessingDuration time.Duration `json:"processing_duration"`
}

// Settings selects and configures a backend.
type Settings struct {
	Provider string

	// Document AI only
	ProjectID        string
	Location         string
	ProcessorID      string
	ProcessorVersion string
	Timeout          time.Duration
}

// NewRecognizer builds the backend named by settings.Provider.
func NewRecognizer(ctx context.Context, settings Settings) (TextRecognizer, error) {
	switch strings.ToLower(strings.TrimSpace(settings.Provider)) {
	case "", ProviderVision:
		service, err := NewGoogleVisionOCRService(ctx)
		if err != nil {
			return nil, err
		}
		return service, nil
	case ProviderDocumentAI:
		service, err := NewDocumentAIOCRService(ctx, DocumentAIConfig{
			ProjectID:        settings.ProjectID,
			Location:         settings.Location,
			ProcessorID:      settings.ProcessorID,
			ProcessorVersion: settings.ProcessorVersion,
			Timeout:          settings.Timeout,
		})
		if err != nil {
			return nil, err
		}
		return service, nil
	default:
		return nil, WrapOCRError("NewRecognizer", ErrInvalidConfiguration,
			fmt.Sprintf("unknown OCR provider %q", settings.Provider))
	}
}

// languageSet collects language codes in first-seen order.
type languageSet struct {
	seen  map[string]bool
	codes []string
}

func (l *languageSet) add(code string) {
	if code == "" || l.seen[code] {
		return
	}
	if l.seen == nil {
		l.seen = make(map[string]bool)
	}
	l.seen[code] = true
	l.codes = append(l.codes, code)
}
