package ledger

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// Entry records one successfully indexed book, keyed in the ledger by the
// book's absolute source path. A path being present at all means "indexed
// by some provider"; the provider fields are informational metadata, not
// part of the skip decision.
type Entry struct {
	EmbeddingModel string    `json:"embedding_model"`
	ModelName      string    `json:"model_name"`
	Dimensions     int       `json:"dimensions"`
	Timestamp      time.Time `json:"timestamp"`
	Chunks         int       `json:"chunks"`
	Title          string    `json:"title"`
	Author         string    `json:"author"`
}

// Ledger is the single durable record of what has been indexed. It is read
// once at pipeline start and written once at pipeline end; losing it only
// costs redundant reprocessing, so every I/O failure is recovered locally.
type Ledger struct {
	path string
}

func New(path string) *Ledger {
	return &Ledger{path: path}
}

func (l *Ledger) Path() string {
	return l.path
}

// Load reads the ledger file. A missing file yields an empty mapping. A
// malformed file is logged and also yields an empty mapping; it never
// fails. The legacy schema (a bare JSON list of paths) is accepted and
// surfaces as entries with unknown provider metadata.
func (l *Ledger) Load() map[string]Entry {
	entries := make(map[string]Entry)

	data, err := os.ReadFile(l.path)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("failed to read ledger, starting empty", "path", l.path, "error", err)
		}
		return entries
	}

	if err := json.Unmarshal(data, &entries); err == nil {
		return entries
	}

	var legacy []string
	if err := json.Unmarshal(data, &legacy); err == nil {
		for _, path := range legacy {
			entries[path] = Entry{}
		}
		slog.Info("migrated legacy ledger format", "path", l.path, "entries", len(legacy))
		return entries
	}

	slog.Warn("ledger file malformed, starting empty", "path", l.path)
	return make(map[string]Entry)
}

// Save rewrites the ledger as a whole: marshal, write to a temp file next
// to the target, then rename into place so readers never observe a partial
// file. Already-stored embeddings are not rolled back on failure, so the
// caller treats an error as log-and-continue.
func (l *Ledger) Save(entries map[string]Entry) error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o750); err != nil {
		return fmt.Errorf("create ledger directory: %w", err)
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal ledger: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(l.path), ".ledger-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp ledger: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp ledger: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp ledger: %w", err)
	}
	if err := os.Rename(tmpName, l.path); err != nil {
		return fmt.Errorf("replace ledger: %w", err)
	}
	return nil
}
