package extract

import (
	"fmt"
	"os"
	"strings"

	docx "github.com/fumiama/go-docx"
)

// DOCX returns the text of the document's body paragraphs, one per line.
// Tables and section properties are skipped.
func DOCX(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open docx %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("stat docx %s: %w", path, err)
	}

	doc, err := docx.Parse(f, info.Size())
	if err != nil {
		return "", fmt.Errorf("parse docx %s: %w", path, err)
	}

	var lines []string
	for _, item := range doc.Document.Body.Items {
		if p, ok := item.(*docx.Paragraph); ok {
			lines = append(lines, p.String())
		}
	}
	return strings.TrimSpace(strings.Join(lines, "\n")), nil
}
