package ocr

import (
	"bytes"
	"fmt"
	"image/png"
	"io"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gen2brain/heic"
)

// MaxFileSizeBytes is the maximum inline image size accepted by the backends (20MB)
const MaxFileSizeBytes = 20 * 1024 * 1024

// supportedMimeTypes are sent to the backends unchanged.
var supportedMimeTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/bmp":  true,
	"image/webp": true,
	"image/tiff": true,
}

// Image is an upload-ready image.
type Image struct {
	Data      []byte
	MimeType  string
	Converted bool // true when re-encoded from the original format
}

// ReadImage reads r fully and prepares it for upload.
func ReadImage(r io.Reader) (*Image, error) {
	const op = "ReadImage"

	// One extra byte tells an oversized image apart from one at the limit
	data, err := io.ReadAll(io.LimitReader(r, MaxFileSizeBytes+1))
	if err != nil {
		return nil, WrapOCRError(op, err, "failed to read image data")
	}
	return PrepareImage(data)
}

// PrepareImage validates image bytes and converts HEIC/HEIF to PNG.
func PrepareImage(data []byte) (*Image, error) {
	const op = "PrepareImage"

	if len(data) == 0 {
		return nil, WrapOCRError(op, ErrEmptyImage, "")
	}
	if len(data) > MaxFileSizeBytes {
		return nil, WrapOCRError(op, ErrImageTooLarge, fmt.Sprintf("file size: %d bytes", len(data)))
	}

	mtype := mimetype.Detect(data)
	switch {
	case mtype.Is("image/heic") || mtype.Is("image/heif") || mtype.Is("image/heic-sequence") || mtype.Is("image/heif-sequence"):
		converted, err := heicToPNG(data)
		if err != nil {
			return nil, WrapOCRError(op, ErrUnsupportedFormat, err.Error())
		}
		return &Image{Data: converted, MimeType: "image/png", Converted: true}, nil
	case supportedMimeTypes[mtype.String()]:
		return &Image{Data: data, MimeType: mtype.String()}, nil
	default:
		return nil, WrapOCRError(op, ErrUnsupportedFormat, fmt.Sprintf("detected %s", mtype.String()))
	}
}

func heicToPNG(data []byte) ([]byte, error) {
	img, err := heic.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding HEIC/HEIF image: %w", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encoding PNG: %w", err)
	}
	return buf.Bytes(), nil
}
