package extract

import (
	"archive/zip"
	"bytes"
	"fmt"
	"regexp"
	"strings"
)

// OpenDocument files (.odt, .odp, .ods) are zips with the body in
// content.xml; visible text sits in text:h, text:p, and text:span
// elements. One extractor covers all three formats.
const openDocContentPath = "content.xml"

var openDocTextTags = []*regexp.Regexp{
	regexp.MustCompile(`<text:h[^>]*>([^<]*)</text:h>`),
	regexp.MustCompile(`<text:p[^>]*>([^<]*)</text:p>`),
	regexp.MustCompile(`<text:span[^>]*>([^<]*)</text:span>`),
}

func extractOpenDocument(content []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("extract opendocument: not a zip: %w", err)
	}
	body, err := readArchiveFile(zr, openDocContentPath)
	if err != nil {
		return "", fmt.Errorf("extract opendocument: %w", err)
	}
	if body == nil {
		return "", fmt.Errorf("extract opendocument: %s not found", openDocContentPath)
	}
	s := string(body)
	var b strings.Builder
	for _, re := range openDocTextTags {
		joinRuns(&b, re.FindAllStringSubmatch(s, -1))
	}
	return b.String(), nil
}
