package parser

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/rs/zerolog/log"
)

type pageSource interface {
	NumPage() int
	PageText(num int) (string, error)
}

type pdfPages struct {
	reader *pdf.Reader
}

func (p pdfPages) NumPage() int {
	return p.reader.NumPage()
}

func (p pdfPages) PageText(num int) (string, error) {
	page := p.reader.Page(num)
	if page.V.IsNull() {
		return "", nil
	}
	return page.GetPlainText(nil)
}

// ExtractPDFPages returns one text segment per page, in page order.
func ExtractPDFPages(data []byte) (pages []string, err error) {
	// ledongthuc/pdf panics on some malformed object trees
	defer func() {
		if r := recover(); r != nil {
			pages, err = nil, fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}
	return collectPages(pdfPages{reader: reader}), nil
}

// collectPages never skips a page: a page without extractable text keeps
// an empty segment.
func collectPages(src pageSource) []string {
	numPages := src.NumPage()
	pages := make([]string, numPages)
	for i := 1; i <= numPages; i++ {
		text, err := src.PageText(i)
		if err != nil {
			log.Warn().Err(err).Int("page", i).Msg("No extractable text on page")
			continue
		}
		pages[i-1] = text
	}
	return pages
}

func joinPages(pages []string) string {
	return strings.Join(pages, "")
}
