// Package extract turns uploaded study documents into plain text.
package extract

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrUnsupportedFormat is returned for files whose extension is not one of
// .pdf, .docx or .txt.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// File extracts the text of the document at path, dispatching on its
// lower-cased extension. The result is whitespace-trimmed.
func File(path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))

	var (
		text string
		err  error
	)
	switch ext {
	case ".pdf":
		text, err = PDF(path)
	case ".docx":
		text, err = DOCX(path)
	case ".txt":
		text, err = TXT(path)
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

// TXT reads a UTF-8 text file.
func TXT(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return strings.TrimSpace(string(data)), nil
}
