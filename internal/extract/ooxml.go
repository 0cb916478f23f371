package extract

import (
	"archive/zip"
	"bytes"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Office Open XML packages are zips. Word keeps body text in <w:t>
// runs, PowerPoint keeps slide text in <a:t> runs.
const (
	wordDocumentPath    = "word/document.xml"
	slidePathPrefix     = "ppt/slides/slide"
	contentTypesPath    = "[Content_Types].xml"
	wordMainContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"
)

var (
	wordTextRun  = regexp.MustCompile(`<w:t[^>]*>([^<]*)</w:t>`)
	slideTextRun = regexp.MustCompile(`<a:t[^>]*>([^<]*)</a:t>`)
	// The main part override can carry its attributes in either order.
	wordPartName    = regexp.MustCompile(`<Override[^>]+PartName="([^"]+)"[^>]+ContentType="` + regexp.QuoteMeta(wordMainContentType) + `"`)
	wordPartNameAlt = regexp.MustCompile(`<Override[^>]+ContentType="` + regexp.QuoteMeta(wordMainContentType) + `"[^>]+PartName="([^"]+)"`)
)

// readArchiveFile returns the named file's bytes from a zip, or nil
// when the archive holds no such file.
func readArchiveFile(zr *zip.Reader, name string) ([]byte, error) {
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", name, err)
		}
		defer rc.Close()
		var buf bytes.Buffer
		if _, err := buf.ReadFrom(rc); err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		return buf.Bytes(), nil
	}
	return nil, nil
}

// joinRuns appends trimmed regexp submatches to b, space-separated.
func joinRuns(b *strings.Builder, matches [][]string) {
	for _, m := range matches {
		text := strings.TrimSpace(m[1])
		if text == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(text)
	}
}

// mainDocumentPath resolves the Word body part from [Content_Types].xml,
// falling back to the conventional path.
func mainDocumentPath(zr *zip.Reader) string {
	data, err := readArchiveFile(zr, contentTypesPath)
	if err != nil || data == nil {
		return wordDocumentPath
	}
	if m := wordPartName.FindSubmatch(data); len(m) > 1 {
		return strings.TrimPrefix(string(m[1]), "/")
	}
	if m := wordPartNameAlt.FindSubmatch(data); len(m) > 1 {
		return strings.TrimPrefix(string(m[1]), "/")
	}
	return wordDocumentPath
}

// extractWordXML extracts the text runs of a .docx body. Matching every
// <w:t> node keeps content searchable regardless of paragraph or run
// attributes.
func extractWordXML(content []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("extract docx: not a zip: %w", err)
	}
	path := mainDocumentPath(zr)
	body, err := readArchiveFile(zr, path)
	if err != nil {
		return "", fmt.Errorf("extract docx: %w", err)
	}
	if body == nil {
		return "", fmt.Errorf("extract docx: %s not found", path)
	}
	var b strings.Builder
	joinRuns(&b, wordTextRun.FindAllStringSubmatch(string(body), -1))
	return b.String(), nil
}

// extractSlideXML extracts the text runs of every slide in a .pptx,
// slides in name order.
func extractSlideXML(content []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("extract pptx: not a zip: %w", err)
	}
	var names []string
	for _, f := range zr.File {
		if strings.HasPrefix(f.Name, slidePathPrefix) && strings.HasSuffix(f.Name, ".xml") {
			names = append(names, f.Name)
		}
	}
	sort.Strings(names)
	var b strings.Builder
	for _, name := range names {
		data, err := readArchiveFile(zr, name)
		if err != nil {
			return "", fmt.Errorf("extract pptx: %w", err)
		}
		joinRuns(&b, slideTextRun.FindAllStringSubmatch(string(data), -1))
	}
	return b.String(), nil
}
