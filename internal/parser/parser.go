package parser

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"document-analyzer/internal/models"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Extract returns the plain text of doc, extracting on first use and caching
// the result on the document. Failures are *models.ExtractionError.
func Extract(doc *models.Document) (string, error) {
	if text, ok := doc.Text(); ok {
		return text, nil
	}

	text, err := ExtractBytes(doc.Raw, doc.MimeType)
	if err != nil {
		return "", &models.ExtractionError{Document: doc.Name, MimeType: doc.MimeType, Err: err}
	}

	log.Debug().
		Str("document", doc.Name).
		Str("mime", string(doc.MimeType)).
		Int("bytes", len(doc.Raw)).
		Int("chars", utf8.RuneCountInString(text)).
		Msg("Extracted document")

	doc.SetText(text)
	return text, nil
}

// ExtractBytes converts raw content of the given type to plain text.
func ExtractBytes(data []byte, mimeType models.MimeType) (string, error) {
	switch mimeType {
	case models.MimePDF:
		pages, err := ExtractPDFPages(data)
		if err != nil {
			return "", err
		}
		return joinPages(pages), nil
	case models.MimeDOCX:
		return parseDOCX(data)
	case models.MimeXLSX:
		return parseXLSX(data)
	case models.MimeXLSM:
		return parseXLSM(data)
	case models.MimePPTX:
		return parsePPTX(data)
	default:
		return parseText(data)
	}
}

func parseText(data []byte) (string, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if !utf8.Valid(data) {
		return "", fmt.Errorf("content is not valid UTF-8")
	}
	return string(data), nil
}

// LoadFile reads a document from disk. The type comes from the extension,
// then from content sniffing.
func LoadFile(filePath string) (*models.Document, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	name := filepath.Base(filePath)
	return models.NewDocument(name, detectMimeType("", name, data), data), nil
}

// FromReader reads an upload once into a document.
func FromReader(name, contentType string, r io.Reader) (*models.Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return models.NewDocument(name, detectMimeType(contentType, name, data), data), nil
}

func detectMimeType(contentType, name string, data []byte) models.MimeType {
	mt := models.ParseMimeType(contentType, name)
	if mt != models.MimeOther {
		return mt
	}
	return models.ParseMimeType(http.DetectContentType(data), name)
}
