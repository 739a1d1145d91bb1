package ocr

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"github.com/googleapis/gax-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProcessor struct {
	resp   *documentaipb.ProcessResponse
	err    error
	req    *documentaipb.ProcessRequest
	closed bool
}

func (f *fakeProcessor) ProcessDocument(_ context.Context, req *documentaipb.ProcessRequest, _ ...gax.CallOption) (*documentaipb.ProcessResponse, error) {
	f.req = req
	return f.resp, f.err
}

func (f *fakeProcessor) Close() error {
	f.closed = true
	return nil
}

var testDocumentAIConfig = DocumentAIConfig{ProjectID: "receipts-prod", ProcessorID: "abc123"}

func TestDocumentAIConfigProcessorName(t *testing.T) {
	cfg := withDocumentAIDefaults(testDocumentAIConfig)
	assert.Equal(t, "projects/receipts-prod/locations/us/processors/abc123", cfg.processorName())

	cfg.Location = "eu"
	cfg.ProcessorVersion = "pretrained-ocr-v2.0-2023-06-02"
	assert.Equal(t, "projects/receipts-prod/locations/eu/processors/abc123/processorVersions/pretrained-ocr-v2.0-2023-06-02", cfg.processorName())
}

func TestWithDocumentAIDefaults(t *testing.T) {
	cfg := withDocumentAIDefaults(DocumentAIConfig{})
	assert.Equal(t, "us", cfg.Location)
	assert.Equal(t, 60*time.Second, cfg.Timeout)

	cfg = withDocumentAIDefaults(DocumentAIConfig{Location: "eu", Timeout: time.Second})
	assert.Equal(t, "eu", cfg.Location)
	assert.Equal(t, time.Second, cfg.Timeout)
}

func TestNewDocumentAIOCRServiceValidates(t *testing.T) {
	_, err := NewDocumentAIOCRService(context.Background(), DocumentAIConfig{ProcessorID: "abc123"})
	assert.True(t, errors.Is(err, ErrInvalidConfiguration))

	_, err = NewDocumentAIOCRService(context.Background(), DocumentAIConfig{ProjectID: "receipts-prod"})
	assert.True(t, errors.Is(err, ErrInvalidConfiguration))
}

func TestDocumentAIRecognizeTextWithMetadata(t *testing.T) {
	client := &fakeProcessor{resp: &documentaipb.ProcessResponse{Document: &documentaipb.Document{
		Text: "ACME CORP\nTOTAL 100.00\n",
		Pages: []*documentaipb.Document_Page{
			{
				Layout:            &documentaipb.Document_Page_Layout{Confidence: 0.95},
				DetectedLanguages: []*documentaipb.Document_Page_DetectedLanguage{{LanguageCode: "en"}, {LanguageCode: "en"}},
			},
			{
				Layout: &documentaipb.Document_Page_Layout{Confidence: 0.85},
			},
		},
	}}}
	service := NewDocumentAIOCRServiceWithClient(testDocumentAIConfig, client)
	data := jpegBytes(t)

	result, err := service.RecognizeTextWithMetadata(context.Background(), bytes.NewReader(data))
	require.NoError(t, err)

	assert.Equal(t, "ACME CORP\nTOTAL 100.00\n", result.Text)
	assert.Equal(t, "image/jpeg", result.MimeType)
	assert.InDelta(t, 0.9, result.Confidence, 1e-6)
	assert.Equal(t, []string{"en"}, result.LanguageCodes)

	assert.Equal(t, "projects/receipts-prod/locations/us/processors/abc123", client.req.GetName())
	raw := client.req.GetRawDocument()
	require.NotNil(t, raw)
	assert.Equal(t, data, raw.GetContent())
	assert.Equal(t, "image/jpeg", raw.GetMimeType())
}

func TestDocumentAIRecognizeTextErrors(t *testing.T) {
	tests := []struct {
		name    string
		client  *fakeProcessor
		wantErr error
	}{
		{
			name:    "processor not found",
			client:  &fakeProcessor{err: errors.New("rpc error: code = NotFound desc = NOT_FOUND: processor")},
			wantErr: ErrInvalidConfiguration,
		},
		{
			name:    "invalid argument",
			client:  &fakeProcessor{err: errors.New("rpc error: code = InvalidArgument desc = INVALID_ARGUMENT")},
			wantErr: ErrUnsupportedFormat,
		},
		{
			name:    "other failure",
			client:  &fakeProcessor{err: errors.New("rpc error: code = Internal")},
			wantErr: ErrOCRFailed,
		},
		{
			name:    "no document",
			client:  &fakeProcessor{resp: &documentaipb.ProcessResponse{}},
			wantErr: ErrOCRFailed,
		},
		{
			name:    "no text",
			client:  &fakeProcessor{resp: &documentaipb.ProcessResponse{Document: &documentaipb.Document{Text: " "}}},
			wantErr: ErrEmptyDocument,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := NewDocumentAIOCRServiceWithClient(testDocumentAIConfig, tt.client)
			_, err := service.RecognizeText(context.Background(), bytes.NewReader(pngBytes(t)))
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
}

func TestDocumentAIRecognizeTextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := &fakeProcessor{err: errors.New("NOT_FOUND")}
	_, err := NewDocumentAIOCRServiceWithClient(testDocumentAIConfig, client).RecognizeText(ctx, bytes.NewReader(pngBytes(t)))
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestDocumentAIClose(t *testing.T) {
	client := &fakeProcessor{}
	require.NoError(t, NewDocumentAIOCRServiceWithClient(testDocumentAIConfig, client).Close())
	assert.True(t, client.closed)
}
