package ebook

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"

	"golang.org/x/net/html"
)

// containerXML locates the OPF package document inside the EPUB container.
type containerXML struct {
	Rootfiles []struct {
		FullPath string `xml:"full-path,attr"`
	} `xml:"rootfiles>rootfile"`
}

// packageOPF carries the Dublin Core metadata we care about.
type packageOPF struct {
	Metadata struct {
		Title   string `xml:"title"`
		Creator string `xml:"creator"`
	} `xml:"metadata"`
}

func extractEPUB(filePath string) (*Document, error) {
	r, err := zip.OpenReader(filePath)
	if err != nil {
		return nil, fmt.Errorf("open container: %w", err)
	}
	defer r.Close()

	title, author := epubMetadata(&r.Reader)

	var sections []string
	names := make([]string, 0, len(r.File))
	byName := make(map[string]*zip.File, len(r.File))
	for _, f := range r.File {
		byName[f.Name] = f
		names = append(names, f.Name)
	}
	// Reading order inside an EPUB is defined by the spine, but archives in
	// the wild frequently have broken spines. Sorted name order is a stable
	// linear approximation, which is all chunking needs.
	sort.Strings(names)

	for _, name := range names {
		switch strings.ToLower(path.Ext(name)) {
		case ".xhtml", ".html", ".htm":
		default:
			continue
		}
		rc, err := byName[name].Open()
		if err != nil {
			continue
		}
		text, err := htmlToText(rc)
		rc.Close()
		if err != nil {
			continue
		}
		if trimmed := strings.TrimSpace(text); trimmed != "" {
			sections = append(sections, trimmed)
		}
	}

	if len(sections) == 0 {
		return nil, errors.New("no readable document items in epub")
	}

	return &Document{
		Path:     filePath,
		Title:    title,
		Author:   author,
		Content:  strings.Join(sections, "\n\n"),
		FileType: "epub",
	}, nil
}

// epubMetadata resolves title and author via META-INF/container.xml and the
// OPF package document. Any failure degrades to "Unknown" rather than
// failing the whole extraction.
func epubMetadata(r *zip.Reader) (title, author string) {
	title, author = "Unknown", "Unknown"

	container, err := readZipFile(r, "META-INF/container.xml")
	if err != nil {
		return title, author
	}
	var c containerXML
	if err := xml.Unmarshal(container, &c); err != nil || len(c.Rootfiles) == 0 {
		return title, author
	}

	opfData, err := readZipFile(r, c.Rootfiles[0].FullPath)
	if err != nil {
		return title, author
	}
	var pkg packageOPF
	if err := xml.Unmarshal(opfData, &pkg); err != nil {
		return title, author
	}

	if t := strings.TrimSpace(pkg.Metadata.Title); t != "" {
		title = t
	}
	if a := strings.TrimSpace(pkg.Metadata.Creator); a != "" {
		author = a
	}
	return title, author
}

func readZipFile(r *zip.Reader, name string) ([]byte, error) {
	for _, f := range r.File {
		if f.Name == name {
			rc, err := f.Open()
			if err != nil {
				return nil, err
			}
			defer rc.Close()
			return io.ReadAll(rc)
		}
	}
	return nil, fmt.Errorf("file %s not found in archive", name)
}

// htmlToText strips markup from an XHTML document item, keeping text nodes
// only. Script and style subtrees are dropped.
func htmlToText(r io.Reader) (string, error) {
	root, err := html.Parse(r)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return
		}
		if n.Type == html.TextNode {
			if text := strings.TrimSpace(n.Data); text != "" {
				if b.Len() > 0 {
					b.WriteByte(' ')
				}
				b.WriteString(text)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return b.String(), nil
}
