package extract

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"
)

// zipWith builds an in-memory zip from name → content pairs.
func zipWith(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range files {
		fw, err := w.Create(name)
		if err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
		if _, err := fw.Write([]byte(content)); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestExtractBytes_plain(t *testing.T) {
	e := NewExtractor()
	got, err := e.ExtractBytes([]byte("Hello world\nLine 2"), ".txt")
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	if got != "Hello world\nLine 2" {
		t.Errorf("got %q", got)
	}
}

func TestExtractBytes_plainInvalidUTF8(t *testing.T) {
	e := NewExtractor()
	got, err := e.ExtractBytes([]byte("hello\x80world"), ".rst")
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	if got != "hello�world" {
		t.Errorf("got %q", got)
	}
}

func TestExtractBytes_unknownExtensionFallsBackToPlain(t *testing.T) {
	e := NewExtractor()
	got, err := e.ExtractBytes([]byte("raw content"), ".xyz")
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	if got != "raw content" {
		t.Errorf("got %q", got)
	}
}

func TestExtractBytes_docx(t *testing.T) {
	content := zipWith(t, map[string]string{
		"word/document.xml": `<w:document><w:body><w:p w:rsidR="0"><w:r><w:t>First run</w:t></w:r><w:r><w:t xml:space="preserve">second run</w:t></w:r></w:p></w:body></w:document>`,
	})
	e := NewExtractor()
	got, err := e.ExtractBytes(content, ".docx")
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	if got != "First run second run" {
		t.Errorf("got %q", got)
	}
}

func TestExtractBytes_docxContentTypesOverride(t *testing.T) {
	contentTypes := `<?xml version="1.0"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Override PartName="/word/document2.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
</Types>`
	content := zipWith(t, map[string]string{
		"[Content_Types].xml": contentTypes,
		"word/document2.xml":  `<w:document><w:body><w:p><w:r><w:t>Renamed body</w:t></w:r></w:p></w:body></w:document>`,
	})
	e := NewExtractor()
	got, err := e.ExtractBytes(content, ".docx")
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	if got != "Renamed body" {
		t.Errorf("got %q", got)
	}
}

func TestExtractBytes_docxContentTypesReversedAttributes(t *testing.T) {
	contentTypes := `<Types><Override ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml" PartName="/word/body.xml"/></Types>`
	content := zipWith(t, map[string]string{
		"[Content_Types].xml": contentTypes,
		"word/body.xml":       `<w:document><w:body><w:p><w:r><w:t>Reversed</w:t></w:r></w:p></w:body></w:document>`,
	})
	e := NewExtractor()
	got, err := e.ExtractBytes(content, ".docx")
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	if got != "Reversed" {
		t.Errorf("got %q", got)
	}
}

func TestExtractBytes_docxMissingBody(t *testing.T) {
	content := zipWith(t, map[string]string{"other.xml": "<x/>"})
	e := NewExtractor()
	if _, err := e.ExtractBytes(content, ".docx"); err == nil {
		t.Error("expected error for docx without a body part")
	}
}

func TestExtractBytes_docxNotZip(t *testing.T) {
	e := NewExtractor()
	if _, err := e.ExtractBytes([]byte("plain bytes"), ".docx"); err == nil {
		t.Error("expected error for non-zip docx")
	}
}

func TestExtractBytes_pptx(t *testing.T) {
	content := zipWith(t, map[string]string{
		"ppt/slides/slide1.xml": `<p:sld><a:t>Slide one</a:t></p:sld>`,
		"ppt/slides/slide2.xml": `<p:sld><a:t xml:space="preserve">Slide two</a:t></p:sld>`,
	})
	e := NewExtractor()
	got, err := e.ExtractBytes(content, ".pptx")
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	if got != "Slide one Slide two" {
		t.Errorf("got %q", got)
	}
}

func TestExtractBytes_odt(t *testing.T) {
	content := zipWith(t, map[string]string{
		"content.xml": `<office:document-content><text:h text:outline-level="1">Heading</text:h><text:p>Paragraph text</text:p></office:document-content>`,
	})
	e := NewExtractor()
	got, err := e.ExtractBytes(content, ".odt")
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	if got != "Heading Paragraph text" {
		t.Errorf("got %q", got)
	}
}

func TestExtractBytes_odsCells(t *testing.T) {
	content := zipWith(t, map[string]string{
		"content.xml": `<table:table-cell><text:p>Cell A</text:p></table:table-cell><table:table-cell><text:p>Cell B</text:p></table:table-cell>`,
	})
	e := NewExtractor()
	got, err := e.ExtractBytes(content, ".ods")
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	if got != "Cell A Cell B" {
		t.Errorf("got %q", got)
	}
}

func TestExtractBytes_openDocumentMissingContent(t *testing.T) {
	content := zipWith(t, map[string]string{"meta.xml": "<x/>"})
	e := NewExtractor()
	if _, err := e.ExtractBytes(content, ".odp"); err == nil {
		t.Error("expected error for opendocument without content.xml")
	}
}

func TestExtractBytes_xlsx(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	f.SetCellValue("Sheet1", "A1", "Title")
	f.SetCellValue("Sheet1", "A2", "Value 1")
	f.SetCellValue("Sheet1", "B2", "Value 2")
	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}

	e := NewExtractor()
	got, err := e.ExtractBytes(buf.Bytes(), ".xlsx")
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	if got != "Title\nValue 1\tValue 2" {
		t.Errorf("got %q", got)
	}
}

func TestExtractBytes_pdfInvalid(t *testing.T) {
	e := NewExtractor()
	if _, err := e.ExtractBytes([]byte("not a pdf"), ".pdf"); err == nil {
		t.Error("expected error for invalid pdf bytes")
	}
}

func TestExtract_plainFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.txt")
	if err := os.WriteFile(path, []byte("File content"), 0o600); err != nil {
		t.Fatal(err)
	}
	e := NewExtractor()
	got, err := e.Extract(path)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if got != "File content" {
		t.Errorf("got %q", got)
	}
}

func TestExtract_xlsxFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.xlsx")
	f := excelize.NewFile()
	f.SetCellValue("Sheet1", "A1", "Searchable text")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("SaveAs: %v", err)
	}
	f.Close()

	e := NewExtractor()
	got, err := e.Extract(path)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if got != "Searchable text" {
		t.Errorf("got %q", got)
	}
}

func TestExtract_nonexistent(t *testing.T) {
	e := NewExtractor()
	if _, err := e.Extract("/nonexistent/path/file.txt"); err == nil {
		t.Error("expected error for nonexistent file")
	}
}
