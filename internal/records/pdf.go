package records

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
)

// maxNotesChars bounds extracted document text so prompts stay small.
const maxNotesChars = 4000

// ExtractPDFText pulls the plain text out of an uploaded PDF, truncated to a
// prompt-sized excerpt.
func ExtractPDFText(r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("reading upload: %w", err)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("uploaded file is empty")
	}

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("opening PDF: %w", err)
	}

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extracting PDF text: %w", err)
	}

	var sb strings.Builder
	if _, err := io.Copy(&sb, plain); err != nil {
		return "", fmt.Errorf("reading PDF text: %w", err)
	}

	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", fmt.Errorf("PDF contains no extractable text")
	}
	return truncate(text, maxNotesChars), nil
}

// truncate cuts s to at most n bytes without splitting a UTF-8 rune,
// preferring a word boundary.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	end := n
	for end > 0 && !utf8.RuneStart(s[end]) {
		end--
	}
	if idx := strings.LastIndex(s[:end], " "); idx > 0 {
		return s[:idx]
	}
	return s[:end]
}
