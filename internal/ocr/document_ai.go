package ocr

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	documentai "cloud.google.com/go/documentai/apiv1"
	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"github.com/googleapis/gax-go/v2"
	"google.golang.org/api/option"
)

// DocumentProcessor is the subset of the Document AI client the service uses.
type DocumentProcessor interface {
	ProcessDocument(ctx context.Context, req *documentaipb.ProcessRequest, opts ...gax.CallOption) (*documentaipb.ProcessResponse, error)
	Close() error
}

// DocumentAIConfig holds configuration for a Document AI OCR processor.
type DocumentAIConfig struct {
	// ProjectID is the Google Cloud project ID where Document AI is enabled.
	ProjectID string

	// Location is the processing location (e.g., "us", "eu").
	Location string

	// ProcessorID is the ID of an OCR (Document OCR) processor.
	ProcessorID string

	// ProcessorVersion pins a processor version. Empty uses the default.
	ProcessorVersion string

	// Timeout bounds a single ProcessDocument call. Default: 60 seconds.
	Timeout time.Duration
}

func (c DocumentAIConfig) validate() error {
	if c.ProjectID == "" {
		return fmt.Errorf("GOOGLE_CLOUD_PROJECT is required for Document AI")
	}
	if c.ProcessorID == "" {
		return fmt.Errorf("DOCUMENT_AI_PROCESSOR_ID is required for Document AI")
	}
	return nil
}

// processorName builds the full resource name for the configured processor.
func (c DocumentAIConfig) processorName() string {
	name := fmt.Sprintf("projects/%s/locations/%s/processors/%s", c.ProjectID, c.Location, c.ProcessorID)
	if c.ProcessorVersion != "" {
		name += "/processorVersions/" + c.ProcessorVersion
	}
	return name
}

// DocumentAIOCRService implements TextRecognizer using a Document AI OCR processor.
type DocumentAIOCRService struct {
	client DocumentProcessor
	config DocumentAIConfig
}

// NewDocumentAIOCRService creates a service with credentials from environment.
func NewDocumentAIOCRService(ctx context.Context, config DocumentAIConfig) (*DocumentAIOCRService, error) {
	const op = "NewDocumentAIOCRService"

	config = withDocumentAIDefaults(config)
	if err := config.validate(); err != nil {
		return nil, WrapOCRError(op, ErrInvalidConfiguration, err.Error())
	}

	var clientOptions []option.ClientOption

	// Non-US processors are served from a regional endpoint
	if config.Location != "us" {
		endpoint := fmt.Sprintf("%s-documentai.googleapis.com:443", config.Location)
		clientOptions = append(clientOptions, option.WithEndpoint(endpoint))
	}

	if credJSON := os.Getenv("GOOGLE_CREDENTIALS"); credJSON != "" {
		clientOptions = append(clientOptions, option.WithCredentialsJSON([]byte(credJSON)))
	} else if credFile := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); credFile != "" {
		clientOptions = append(clientOptions, option.WithCredentialsFile(credFile))
	}

	client, err := documentai.NewDocumentProcessorClient(ctx, clientOptions...)
	if err != nil {
		if os.Getenv("GOOGLE_CREDENTIALS") == "" && os.Getenv("GOOGLE_APPLICATION_CREDENTIALS") == "" {
			return nil, WrapOCRError(op, ErrMissingCredentials, "no credentials found in environment")
		}
		return nil, WrapOCRError(op, err, fmt.Sprintf("failed to create Document AI client for location: %s", config.Location))
	}

	return &DocumentAIOCRService{client: client, config: config}, nil
}

// NewDocumentAIOCRServiceWithClient creates a service with an explicit client (for testing).
func NewDocumentAIOCRServiceWithClient(config DocumentAIConfig, client DocumentProcessor) *DocumentAIOCRService {
	return &DocumentAIOCRService{client: client, config: withDocumentAIDefaults(config)}
}

func withDocumentAIDefaults(config DocumentAIConfig) DocumentAIConfig {
	if config.Location == "" {
		config.Location = "us"
	}
	if config.Timeout <= 0 {
		config.Timeout = 60 * time.Second
	}
	return config
}

// RecognizeText extracts text from a receipt image.
func (d *DocumentAIOCRService) RecognizeText(ctx context.Context, image io.Reader) (string, error) {
	result, err := d.RecognizeTextWithMetadata(ctx, image)
	if err != nil {
		return "", err
	}
	return result.Text, nil
}

// RecognizeTextWithMetadata extracts text from a receipt image with page confidence and languages.
func (d *DocumentAIOCRService) RecognizeTextWithMetadata(ctx context.Context, image io.Reader) (*OCRResult, error) {
	const op = "RecognizeTextWithMetadata"
	startTime := time.Now()

	img, err := ReadImage(image)
	if err != nil {
		return nil, err
	}

	processCtx, cancel := context.WithTimeout(ctx, d.config.Timeout)
	defer cancel()

	req := &documentaipb.ProcessRequest{
		Name: d.config.processorName(),
		Source: &documentaipb.ProcessRequest_RawDocument{
			RawDocument: &documentaipb.RawDocument{
				Content:  img.Data,
				MimeType: img.MimeType,
			},
		},
	}

	resp, err := d.client.ProcessDocument(processCtx, req)
	if err != nil {
		return nil, d.handleProcessingError(processCtx, op, err)
	}

	doc := resp.GetDocument()
	if doc == nil {
		return nil, WrapOCRError(op, ErrOCRFailed, "no document in response")
	}
	if strings.TrimSpace(doc.GetText()) == "" {
		return nil, WrapOCRError(op, ErrEmptyDocument, "")
	}

	var confidenceSum float32
	var confidenceCount int
	var languages languageSet
	for _, page := range doc.GetPages() {
		if c := page.GetLayout().GetConfidence(); c > 0 {
			confidenceSum += c
			confidenceCount++
		}
		for _, lang := range page.GetDetectedLanguages() {
			languages.add(lang.GetLanguageCode())
		}
	}

	result := &OCRResult{
		Text:          doc.GetText(),
		MimeType:      img.MimeType,
		Converted:     img.Converted,
		LanguageCodes: languages.codes,
		ProcessedAt:   time.Now(),
	}
	if confidenceCount > 0 {
		result.Confidence = confidenceSum / float32(confidenceCount)
	}
	result.ProcessingDuration = result.ProcessedAt.Sub(startTime)

	return result, nil
}

// handleProcessingError converts Document AI errors into OCR errors.
func (d *DocumentAIOCRService) handleProcessingError(ctx context.Context, op string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return WrapOCRError(op, ctxErr, "Document AI call interrupted")
	}

	errStr := err.Error()
	switch {
	case strings.Contains(errStr, "NOT_FOUND"):
		return WrapOCRError(op, ErrInvalidConfiguration, fmt.Sprintf("processor not found: %s", d.config.ProcessorID))
	case strings.Contains(errStr, "INVALID_ARGUMENT"):
		return WrapOCRError(op, ErrUnsupportedFormat, "image format not supported or corrupted")
	default:
		return WrapOCRError(op, ErrOCRFailed, fmt.Sprintf("Document AI error: %v", err))
	}
}

// Close closes the underlying Document AI client.
func (d *DocumentAIOCRService) Close() error {
	if d.client != nil {
		return d.client.Close()
	}
	return nil
}
