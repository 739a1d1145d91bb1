package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"receiptscan/internal/ocr"
)

func TestValidateImageFile(t *testing.T) {
	dir := t.TempDir()
	log := zerolog.Nop()

	valid := filepath.Join(dir, "receipt.jpg")
	require.NoError(t, os.WriteFile(valid, []byte("data"), 0644))
	info, err := validateImageFile(valid, log)
	require.NoError(t, err)
	assert.Equal(t, int64(4), info.Size())

	empty := filepath.Join(dir, "empty.jpg")
	require.NoError(t, os.WriteFile(empty, nil, 0644))
	_, err = validateImageFile(empty, log)
	assert.ErrorContains(t, err, "empty")

	_, err = validateImageFile(filepath.Join(dir, "missing.jpg"), log)
	assert.ErrorContains(t, err, "not found")

	_, err = validateImageFile(dir, log)
	assert.ErrorContains(t, err, "not a regular file")
}

func TestHandleOCRError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"deadline", ocr.WrapOCRError("op", context.DeadlineExceeded, ""), "timed out"},
		{"canceled", context.Canceled, "canceled"},
		{"too large", ocr.WrapOCRError("op", ocr.ErrImageTooLarge, ""), "too large"},
		{"unsupported", ocr.WrapOCRError("op", ocr.ErrUnsupportedFormat, ""), "unsupported image format"},
		{"no text", ocr.WrapOCRError("op", ocr.ErrEmptyDocument, ""), "no readable text"},
		{"permission", fmt.Errorf("rpc: PERMISSION_DENIED"), "permission denied"},
		{"quota", fmt.Errorf("rpc: RESOURCE_EXHAUSTED"), "quota exceeded"},
		{"backend", ocr.WrapOCRError("op", ocr.ErrOCRFailed, "down"), "network issues"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorContains(t, handleOCRError(tt.err, zerolog.Nop()), tt.want)
		})
	}
}

func TestFormatOCRResult(t *testing.T) {
	path := filepath.Join(t.TempDir(), "receipt.png")
	require.NoError(t, os.WriteFile(path, []byte("png"), 0644))
	info, err := os.Stat(path)
	require.NoError(t, err)

	result := &ocr.OCRResult{
		Text:               "ACME CORP\nTOTAL 100.00",
		MimeType:           "image/png",
		Confidence:         0.9,
		LanguageCodes:      []string{"en"},
		ProcessedAt:        time.Date(2025, time.April, 5, 8, 0, 0, 0, time.UTC),
		ProcessingDuration: 1500 * time.Millisecond,
	}

	plain, err := formatOCRResult(result, info, false, false)
	require.NoError(t, err)
	assert.Equal(t, result.Text, string(plain))

	withMeta, err := formatOCRResult(result, info, false, true)
	require.NoError(t, err)
	assert.Contains(t, string(withMeta), "=== OCR Results for receipt.png ===")
	assert.Contains(t, string(withMeta), "Confidence: 90.0%")
	assert.Contains(t, string(withMeta), "Languages: en")

	asJSON, err := formatOCRResult(result, info, true, false)
	require.NoError(t, err)
	assert.Contains(t, string(asJSON), `"text": "ACME CORP\nTOTAL 100.00"`)
	assert.Contains(t, string(asJSON), `"processing_duration": "1.5s"`)
	assert.Contains(t, string(asJSON), `"file_name": "receipt.png"`)
}

func TestWriteOutputFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	require.NoError(t, writeOutput([]byte(`{"ok":true}`), path, zerolog.Nop()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, string(data))
}
