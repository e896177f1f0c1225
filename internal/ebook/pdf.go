package ebook

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// extractPDF reads page text and Info-dict metadata. The pdf library panics
// rather than returning errors on many malformed objects, so the whole
// extraction is recover-guarded; a corrupt file surfaces as a per-document
// error, never as a fault.
func extractPDF(filePath string) (doc *Document, err error) {
	defer func() {
		if r := recover(); r != nil {
			doc, err = nil, fmt.Errorf("malformed pdf %s: %v", filePath, r)
		}
	}()

	f, r, err := pdf.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var pages []string
	total := r.NumPage()
	for i := 1; i <= total; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		if trimmed := strings.TrimSpace(text); trimmed != "" {
			pages = append(pages, trimmed)
		}
	}
	if len(pages) == 0 {
		return nil, errors.New("no extractable text in pdf")
	}

	title, author := "Unknown", "Unknown"
	if t := pdfInfoString(r, "Title"); t != "" {
		title = t
	}
	if a := pdfInfoString(r, "Author"); a != "" {
		author = a
	}

	return &Document{
		Path:     filePath,
		Title:    title,
		Author:   author,
		Content:  strings.Join(pages, "\n\n"),
		FileType: "pdf",
	}, nil
}

// pdfInfoString reads a key from the document info dictionary. Malformed
// dictionaries are common; an empty string means "not present".
func pdfInfoString(r *pdf.Reader, key string) string {
	defer func() { _ = recover() }()
	info := r.Trailer().Key("Info")
	if info.IsNull() {
		return ""
	}
	v := info.Key(key)
	if v.Kind() != pdf.String {
		return ""
	}
	return strings.TrimSpace(v.RawString())
}
