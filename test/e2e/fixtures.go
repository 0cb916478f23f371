// Package e2e provides end-to-end tests; this file fabricates minimal
// files of each supported format for the file-ingestion tests.
package e2e

import (
	"archive/zip"
	"bytes"

	"github.com/xuri/excelize/v2"
)

// FixtureExtensions lists the formats the file-based e2e tests write.
// Plain text covers .md, .txt, and .rst; the zip-packaged formats each
// exercise one extractor path (.odt and .ods share the OpenDocument
// parser, .odp would too). PDF is left to the extractor's own tests
// because a minimal PDF with extractable text is not worth fabricating.
var FixtureExtensions = []string{
	".md", ".txt", ".rst",
	".docx", ".pptx", ".odt", ".ods", ".xlsx",
}

// FixtureBytes renders text as a minimal file of the given format. Text
// must not contain XML markup characters; the corpus never does.
// Unknown extensions fall back to plain text, matching the extractor.
func FixtureBytes(ext, text string) ([]byte, error) {
	switch ext {
	case ".docx":
		return zipFixture("word/document.xml",
			`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body><w:p><w:r><w:t>`+text+`</w:t></w:r></w:p></w:body></w:document>`), nil
	case ".pptx":
		return zipFixture("ppt/slides/slide1.xml",
			`<p:sld xmlns:p="p" xmlns:a="a"><p:cSld><p:spTree><p:sp><p:txBody><a:p><a:r><a:t>`+text+`</a:t></a:r></a:p></p:txBody></p:sp></p:spTree></p:cSld></p:sld>`), nil
	case ".odt", ".odp", ".ods":
		return zipFixture("content.xml",
			`<office:document><office:body><office:text><text:p>`+text+`</text:p></office:text></office:body></office:document>`), nil
	case ".xlsx":
		return workbookFixture(text)
	default:
		return []byte(text), nil
	}
}

// zipFixture builds a one-entry zip archive, which is all the OOXML and
// OpenDocument extractors need.
func zipFixture(name, body string) []byte {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	fw, _ := zw.Create(name)
	_, _ = fw.Write([]byte(body))
	_ = zw.Close()
	return buf.Bytes()
}

func workbookFixture(text string) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetCellValue("Sheet1", "A1", text); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
