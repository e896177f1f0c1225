package ebook

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
)

// Extractor turns an ebook file on disk into a Document. Unsupported or
// corrupt files come back as an error, never as a panic; the pipeline
// treats every extraction error as a per-document failure.
type Extractor struct{}

func NewExtractor() *Extractor {
	return &Extractor{}
}

func (e *Extractor) Extract(path string) (*Document, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".epub":
		doc, err := extractEPUB(path)
		if err != nil {
			slog.Error("epub extraction failed", "path", path, "error", err)
			return nil, fmt.Errorf("extract epub %s: %w", path, err)
		}
		return doc, nil
	case ".pdf":
		doc, err := extractPDF(path)
		if err != nil {
			slog.Error("pdf extraction failed", "path", path, "error", err)
			return nil, fmt.Errorf("extract pdf %s: %w", path, err)
		}
		return doc, nil
	default:
		return nil, fmt.Errorf("unsupported file format: %s", filepath.Ext(path))
	}
}
