package models

import (
	"mime"
	"path/filepath"
	"strings"
)

// MimeType is the declared content type of an uploaded document.
type MimeType string

const (
	MimePDF       MimeType = "application/pdf"
	MimePlainText MimeType = "text/plain"
	MimeMarkdown  MimeType = "text/markdown"
	MimeDOCX      MimeType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MimeXLSX      MimeType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	MimeXLSM      MimeType = "application/vnd.ms-excel.sheet.macroEnabled.12"
	MimePPTX      MimeType = "application/vnd.openxmlformats-officedocument.presentationml.presentation"
	MimeOther     MimeType = "application/octet-stream"
)

var extensionMimes = map[string]MimeType{
	".pdf":  MimePDF,
	".txt":  MimePlainText,
	".text": MimePlainText,
	".md":   MimeMarkdown,
	".docx": MimeDOCX,
	".xlsx": MimeXLSX,
	".xlsm": MimeXLSM,
	".pptx": MimePPTX,
}

// ParseMimeType normalises a declared content type. Generic or missing types
// fall back to the file extension; anything unrecognised is MimeOther.
func ParseMimeType(contentType, fileName string) MimeType {
	clean := strings.ToLower(strings.TrimSpace(contentType))
	if parsed, _, err := mime.ParseMediaType(clean); err == nil {
		clean = parsed
	}

	switch MimeType(clean) {
	case MimePDF, MimePlainText, MimeMarkdown, MimeDOCX, MimeXLSX, MimeXLSM, MimePPTX:
		return MimeType(clean)
	}
	if clean == "text/x-markdown" {
		return MimeMarkdown
	}

	if m, ok := extensionMimes[strings.ToLower(filepath.Ext(fileName))]; ok {
		return m
	}
	if strings.HasPrefix(clean, "text/") {
		return MimePlainText
	}
	return MimeOther
}

// Document is a single upload. Its extracted text is cached so that every
// analysis pass reuses one extraction.
type Document struct {
	Name     string
	MimeType MimeType
	Raw      []byte

	text      string
	extracted bool
}

func NewDocument(name string, mimeType MimeType, raw []byte) *Document {
	return &Document{Name: name, MimeType: mimeType, Raw: raw}
}

// Text returns the cached extraction output, and whether extraction has run.
func (d *Document) Text() (string, bool) {
	return d.text, d.extracted
}

// SetText caches the extraction output.
func (d *Document) SetText(text string) {
	d.text = text
	d.extracted = true
}
