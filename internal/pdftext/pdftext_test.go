package pdftext

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSections(t *testing.T) {
	tests := []struct {
		name            string
		pages           []string
		wantAbstract    string
		wantMethodology string
		wantFallback    bool
		wantText        string
	}{
		{
			name: "bothSections",
			pages: []string{
				"Title\n\nAbstract:  We study   things.\nIntroduction  Some intro.",
				"Methodology We   measured X.\n Results were good.",
			},
			wantAbstract:    "We study things.",
			wantMethodology: "We measured X.",
			wantText:        "ABSTRACT:\nWe study things.\n\nMETHODOLOGY:\nWe measured X.",
		},
		{
			name:         "abstractOnly",
			pages:        []string{"ABSTRACT This paper shows Y. INTRODUCTION text"},
			wantAbstract: "This paper shows Y.",
			wantText:     "ABSTRACT:\nThis paper shows Y.\n\n",
		},
		{
			name:            "methodsOnly",
			pages:           []string{"Methods: Surveys of 40 people. Discussion follows."},
			wantMethodology: "Surveys of 40 people.",
			wantText:        "METHODOLOGY:\nSurveys of 40 people.",
		},
		{
			name:         "noSectionsFallsBack",
			pages:        []string{"Just   some\ttext", "on two pages"},
			wantFallback: true,
			wantText:     "Just some text\non two pages\n",
		},
		{
			name:         "emptyPagesSkipped",
			pages:        []string{"   ", "", "content"},
			wantFallback: true,
			wantText:     "content\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Sections(tt.pages, 0)

			if got.Abstract != tt.wantAbstract {
				t.Errorf("Abstract = %q, want %q", got.Abstract, tt.wantAbstract)
			}
			if got.Methodology != tt.wantMethodology {
				t.Errorf("Methodology = %q, want %q", got.Methodology, tt.wantMethodology)
			}
			if got.Fallback != tt.wantFallback {
				t.Errorf("Fallback = %v, want %v", got.Fallback, tt.wantFallback)
			}
			if got.Text != tt.wantText {
				t.Errorf("Text = %q, want %q", got.Text, tt.wantText)
			}
		})
	}
}

func TestSectionsPreservesCase(t *testing.T) {
	got := Sections([]string{"Abstract: Graph Neural Networks (GNN) help. Introduction"}, 0)
	if got.Abstract != "Graph Neural Networks (GNN) help." {
		t.Errorf("Abstract = %q, want original casing", got.Abstract)
	}
}

func TestSectionsFallbackTruncatesRunes(t *testing.T) {
	page := strings.Repeat("é", 50)
	got := Sections([]string{page}, 10)

	if !got.Fallback {
		t.Fatal("expected fallback")
	}
	if n := utf8.RuneCountInString(got.Text); n != 10 {
		t.Errorf("fallback length = %d runes, want 10", n)
	}
	if !utf8.ValidString(got.Text) {
		t.Error("fallback text must remain valid UTF-8")
	}
}

func TestTrimReferences(t *testing.T) {
	tests := []struct {
		name  string
		pages []string
		want  string
	}{
		{
			name:  "upperCase",
			pages: []string{"Body text.", "More body.\nREFERENCES\n[1] Someone"},
			want:  "Body text.\nMore body.\n",
		},
		{
			name:  "mixedCase",
			pages: []string{"Intro  and   spacing kept References: [1]"},
			want:  "Intro  and   spacing kept ",
		},
		{
			name:  "noReferences",
			pages: []string{"Line one", "Line two"},
			want:  "Line one\nLine two",
		},
		{
			name:  "firstOccurrenceWins",
			pages: []string{"See references below. Body. REFERENCES [1]"},
			want:  "See ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TrimReferences(tt.pages)
			if got.Text != tt.want {
				t.Errorf("TrimReferences() = %q, want %q", got.Text, tt.want)
			}
		})
	}
}

type fakeReader struct {
	pages []string
	err   error
}

func (f fakeReader) Pages(context.Context, []byte) ([]string, error) {
	return f.pages, f.err
}

func TestExtractSections(t *testing.T) {
	ctx := context.Background()

	got, err := ExtractSections(ctx, fakeReader{pages: []string{"plain text"}}, nil, 100)
	if err != nil {
		t.Fatalf("ExtractSections() error = %v", err)
	}
	if got.Text != "plain text\n" {
		t.Errorf("Text = %q", got.Text)
	}

	if _, err := ExtractSections(ctx, fakeReader{pages: []string{"  "}}, nil, 100); !errors.Is(err, ErrNoText) {
		t.Errorf("empty document error = %v, want ErrNoText", err)
	}

	readErr := errors.New("broken")
	if _, err := ExtractSections(ctx, fakeReader{err: readErr}, nil, 100); !errors.Is(err, readErr) {
		t.Errorf("reader error = %v, want %v", err, readErr)
	}
}

func TestExtractBody(t *testing.T) {
	ctx := context.Background()

	got, err := ExtractBody(ctx, fakeReader{pages: []string{"Body", "References"}}, nil)
	if err != nil {
		t.Fatalf("ExtractBody() error = %v", err)
	}
	if got.Text != "Body\n" {
		t.Errorf("Text = %q, want %q", got.Text, "Body\n")
	}

	if _, err := ExtractBody(ctx, fakeReader{pages: []string{"REFERENCES only"}}, nil); !errors.Is(err, ErrNoText) {
		t.Errorf("error = %v, want ErrNoText", err)
	}
}

func TestNewReader(t *testing.T) {
	tests := []struct {
		backend string
		wantErr bool
	}{
		{backend: BackendPlain},
		{backend: BackendFitz},
		{backend: ""},
		{backend: "pypdf", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.backend, func(t *testing.T) {
			r, err := NewReader(tt.backend)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewReader(%q) error = %v, wantErr %v", tt.backend, err, tt.wantErr)
			}
			if !tt.wantErr && r == nil {
				t.Error("NewReader() returned nil reader")
			}
		})
	}
}

func TestPlainReaderRejectsGarbage(t *testing.T) {
	_, err := PlainReader{}.Pages(context.Background(), []byte("this is not a pdf"))
	if err == nil {
		t.Error("expected error for non-PDF input")
	}
}
