package models

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyPrompt         = errors.New("prompt is empty")
	ErrUnknownMode         = errors.New("unknown mode")
	ErrUnsupportedProvider = errors.New("unsupported provider")
	ErrUnsupportedFormat   = errors.New("unsupported format")
)

// TransportError is a failed completion request. Its message is the
// user-facing "Error: <cause>" form.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	if e == nil || e.Err == nil {
		return "Error: unknown transport failure"
	}
	return "Error: " + e.Err.Error()
}

func (e *TransportError) Unwrap() error { return e.Err }

// ExtractionError is a document whose bytes could not be read as its declared type.
type ExtractionError struct {
	Document string
	MimeType MimeType
	Err      error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %q (%s): %v", e.Document, e.MimeType, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// PassError is a failed analysis pass, scoped to one document.
type PassError struct {
	Document string
	Pass     string
	Err      error
}

func (e *PassError) Error() string {
	return fmt.Sprintf("pass %q on %q: %v", e.Pass, e.Document, e.Err)
}

func (e *PassError) Unwrap() error { return e.Err }
