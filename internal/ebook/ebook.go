package ebook

// Document is the extracted form of one source file. It only lives long
// enough to be chunked; nothing persists it.
type Document struct {
	Path     string
	Title    string
	Author   string
	Content  string
	FileType string
}

// Chunk is a contiguous slice of a document's text together with the
// metadata every stored record inherits from its parent document.
type Chunk struct {
	Content     string
	Index       int
	TotalChunks int
	Title       string
	Author      string
	FilePath    string
	FileType    string
}
