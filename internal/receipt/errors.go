package receipt

import (
	"errors"
	"fmt"
)

// ErrNoRecognizer is returned when an image scan is requested from a Scanner
// built without a text recognizer.
var ErrNoRecognizer = errors.New("no text recognizer configured")

// ScanError wraps failures of the capture flow around the extraction engine.
type ScanError struct {
	// Op is the operation that failed (e.g., "ScanImage").
	Op string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *ScanError) Error() string {
	return fmt.Sprintf("receipt: %s failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *ScanError) Unwrap() error {
	return e.Err
}
