package ebook

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeEPUB(t *testing.T, files map[string]string) string {
	t.Helper()

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range files {
		f, err := w.Create(name)
		require.NoError(t, err)
		_, err = f.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	path := filepath.Join(t.TempDir(), "book.epub")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))
	return path
}

const testContainerXML = `<?xml version="1.0"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles>
    <rootfile full-path="OEBPS/content.opf" media-type="application/oebps-package+xml"/>
  </rootfiles>
</container>`

const testOPF = `<?xml version="1.0"?>
<package xmlns="http://www.idpf.org/2007/opf" xmlns:dc="http://purl.org/dc/elements/1.1/" version="2.0">
  <metadata>
    <dc:title>The Test Book</dc:title>
    <dc:creator>Jane Writer</dc:creator>
  </metadata>
</package>`

func TestExtract_EPUB(t *testing.T) {
	path := writeEPUB(t, map[string]string{
		"META-INF/container.xml": testContainerXML,
		"OEBPS/content.opf":      testOPF,
		"OEBPS/ch01.xhtml": `<html><head><style>p { color: red }</style></head>
<body><p>First paragraph of chapter one.</p><p>Second paragraph.</p></body></html>`,
		"OEBPS/ch02.xhtml": `<html><body><p>Chapter two begins here.</p></body></html>`,
	})

	doc, err := NewExtractor().Extract(path)
	require.NoError(t, err)

	assert.Equal(t, "The Test Book", doc.Title)
	assert.Equal(t, "Jane Writer", doc.Author)
	assert.Equal(t, "epub", doc.FileType)
	assert.Equal(t, path, doc.Path)
	assert.Contains(t, doc.Content, "First paragraph of chapter one.")
	assert.Contains(t, doc.Content, "Chapter two begins here.")
	assert.NotContains(t, doc.Content, "color: red", "style content must be stripped")
}

func TestExtract_EPUBWithoutMetadata(t *testing.T) {
	path := writeEPUB(t, map[string]string{
		"OEBPS/ch01.xhtml": `<html><body><p>Anonymous text.</p></body></html>`,
	})

	doc, err := NewExtractor().Extract(path)
	require.NoError(t, err)

	assert.Equal(t, "Unknown", doc.Title)
	assert.Equal(t, "Unknown", doc.Author)
	assert.Contains(t, doc.Content, "Anonymous text.")
}

func TestExtract_EPUBWithoutReadableItems(t *testing.T) {
	path := writeEPUB(t, map[string]string{
		"META-INF/container.xml": testContainerXML,
		"OEBPS/content.opf":      testOPF,
	})

	_, err := NewExtractor().Extract(path)
	assert.Error(t, err)
}

func TestExtract_UnsupportedFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("plain text"), 0o600))

	_, err := NewExtractor().Extract(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported file format")
}

func TestExtract_CorruptPDFIsAnErrorNotAFault(t *testing.T) {
	// Truncated xref and garbage object bodies take different failure paths
	// inside the pdf library; all of them must come back as an error.
	bodies := map[string][]byte{
		"garbage.pdf":   []byte("not a pdf at all"),
		"truncated.pdf": []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog"),
	}
	for name, body := range bodies {
		path := filepath.Join(t.TempDir(), name)
		require.NoError(t, os.WriteFile(path, body, 0o600))

		assert.NotPanics(t, func() {
			_, err := NewExtractor().Extract(path)
			assert.Error(t, err, name)
		}, name)
	}
}

func TestExtract_MissingFile(t *testing.T) {
	_, err := NewExtractor().Extract(filepath.Join(t.TempDir(), "ghost.epub"))
	assert.Error(t, err)
}
