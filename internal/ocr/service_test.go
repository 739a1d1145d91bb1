package ocr

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewRecognizerUnknownProvider(t *testing.T) {
	recognizer, err := NewRecognizer(context.Background(), Settings{Provider: "tesseract"})
	assert.Nil(t, recognizer)
	assert.True(t, errors.Is(err, ErrInvalidConfiguration))
	assert.Contains(t, err.Error(), `"tesseract"`)
}

func TestNewRecognizerDocumentAIRequiresProcessor(t *testing.T) {
	recognizer, err := NewRecognizer(context.Background(), Settings{Provider: "DocumentAI", ProjectID: "receipts-prod"})
	assert.Nil(t, recognizer)
	assert.True(t, errors.Is(err, ErrInvalidConfiguration))
}

func TestLanguageSet(t *testing.T) {
	var l languageSet
	for _, code := range []string{"en", "", "fil", "en", "es"} {
		l.add(code)
	}
	assert.Equal(t, []string{"en", "fil", "es"}, l.codes)
}
