package ocr

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.White)
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func jpegBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}

func TestPrepareImage(t *testing.T) {
	t.Run("png passes through", func(t *testing.T) {
		data := pngBytes(t)
		img, err := PrepareImage(data)
		require.NoError(t, err)
		assert.Equal(t, "image/png", img.MimeType)
		assert.False(t, img.Converted)
		assert.Equal(t, data, img.Data)
	})

	t.Run("jpeg passes through", func(t *testing.T) {
		img, err := PrepareImage(jpegBytes(t))
		require.NoError(t, err)
		assert.Equal(t, "image/jpeg", img.MimeType)
	})

	t.Run("empty", func(t *testing.T) {
		_, err := PrepareImage(nil)
		assert.True(t, errors.Is(err, ErrEmptyImage))
	})

	t.Run("too large", func(t *testing.T) {
		_, err := PrepareImage(make([]byte, MaxFileSizeBytes+1))
		assert.True(t, errors.Is(err, ErrImageTooLarge))
	})

	t.Run("not an image", func(t *testing.T) {
		_, err := PrepareImage([]byte("TOTAL AMOUNT DUE: 100.00"))
		assert.True(t, errors.Is(err, ErrUnsupportedFormat))

		var ocrErr *OCRError
		require.True(t, errors.As(err, &ocrErr))
		assert.Equal(t, "PrepareImage", ocrErr.Op)
	})

	t.Run("corrupt heic", func(t *testing.T) {
		// A bare ftyp box with a HEIC brand and no image data
		data := append([]byte{0x00, 0x00, 0x00, 0x18}, []byte("ftypheic\x00\x00\x00\x00mif1heic")...)
		_, err := PrepareImage(data)
		assert.True(t, errors.Is(err, ErrUnsupportedFormat))
	})
}

func TestReadImage(t *testing.T) {
	img, err := ReadImage(bytes.NewReader(pngBytes(t)))
	require.NoError(t, err)
	assert.Equal(t, "image/png", img.MimeType)

	_, err = ReadImage(bytes.NewReader(make([]byte, MaxFileSizeBytes+10)))
	assert.True(t, errors.Is(err, ErrImageTooLarge))
}
