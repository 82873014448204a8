// Package pdftext pulls plain text out of research-paper PDFs and prepares it
// for the two pipelines: section isolation for the graphical abstract and a
// references cut for the podcast.
package pdftext

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

const (
	BackendPlain = "ledongthuc"
	BackendFitz  = "fitz"

	DefaultPrefixChars = 15000
)

var ErrNoText = errors.New("no extractable text")

// Reader returns the text of each page in document order.
type Reader interface {
	Pages(ctx context.Context, data []byte) ([]string, error)
}

type ExtractedText struct {
	Text        string
	Abstract    string
	Methodology string
	Fallback    bool
}

func (e ExtractedText) IsEmpty() bool {
	return strings.TrimSpace(e.Text) == ""
}

func NewReader(backend string) (Reader, error) {
	switch backend {
	case BackendPlain, "":
		return PlainReader{}, nil
	case BackendFitz:
		return FitzReader{}, nil
	default:
		return nil, fmt.Errorf("unknown pdf backend: %s", backend)
	}
}

var (
	whitespacePattern = regexp.MustCompile(`\s+`)
	abstractPattern   = regexp.MustCompile(`(?is)\babstract[:\s]+(.*?)\s+(?:introduction|methods|methodology)\b`)
	methodsPattern    = regexp.MustCompile(`(?is)\b(?:methods|methodology)[:\s]+(.*?)\s+(?:results|discussion)\b`)
	referencesPattern = regexp.MustCompile(`(?i)references`)
)

// ExtractSections reads the document and isolates its abstract and methodology.
func ExtractSections(ctx context.Context, r Reader, data []byte, prefixChars int) (ExtractedText, error) {
	pages, err := r.Pages(ctx, data)
	if err != nil {
		return ExtractedText{}, err
	}
	text := Sections(pages, prefixChars)
	if text.IsEmpty() {
		return ExtractedText{}, ErrNoText
	}
	return text, nil
}

// ExtractBody reads the document and cuts it at the reference list.
func ExtractBody(ctx context.Context, r Reader, data []byte) (ExtractedText, error) {
	pages, err := r.Pages(ctx, data)
	if err != nil {
		return ExtractedText{}, err
	}
	text := TrimReferences(pages)
	if text.IsEmpty() {
		return ExtractedText{}, ErrNoText
	}
	return text, nil
}

// Sections normalizes each page and isolates the abstract and methodology.
// When neither section is found the first prefixChars characters are used.
func Sections(pages []string, prefixChars int) ExtractedText {
	if prefixChars <= 0 {
		prefixChars = DefaultPrefixChars
	}

	var sb strings.Builder
	for _, page := range pages {
		normalized := strings.TrimSpace(whitespacePattern.ReplaceAllString(page, " "))
		if normalized == "" {
			continue
		}
		sb.WriteString(normalized)
		sb.WriteString("\n")
	}
	text := sb.String()

	var result ExtractedText
	if m := abstractPattern.FindStringSubmatch(text); m != nil {
		result.Abstract = strings.TrimSpace(m[1])
	}
	if m := methodsPattern.FindStringSubmatch(text); m != nil {
		result.Methodology = strings.TrimSpace(m[1])
	}

	var out strings.Builder
	if result.Abstract != "" {
		out.WriteString("ABSTRACT:\n")
		out.WriteString(result.Abstract)
		out.WriteString("\n\n")
	}
	if result.Methodology != "" {
		out.WriteString("METHODOLOGY:\n")
		out.WriteString(result.Methodology)
	}

	if out.Len() == 0 {
		result.Text = truncateRunes(text, prefixChars)
		result.Fallback = true
		return result
	}

	result.Text = out.String()
	return result
}

// TrimReferences joins the pages and drops everything from the first
// case-insensitive "REFERENCES" onward.
func TrimReferences(pages []string) ExtractedText {
	text := strings.Join(pages, "\n")
	if loc := referencesPattern.FindStringIndex(text); loc != nil {
		text = text[:loc[0]]
	}
	return ExtractedText{Text: text}
}

func truncateRunes(s string, n int) string {
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
