package cmd

import (
	"os"
	"path/filepath"
	"testing"
)

func TestRenderEnv(t *testing.T) {
	env := map[string]string{
		"GCS_BUCKET":         "papers",
		"GROQ_API_KEY":       "gsk",
		"GEMINI_API_KEY":     "gem",
		"MURF_API_KEY":       "",
		"FISH_AUDIO_API_KEY": "fish",
		"UNRELATED":          "x",
	}

	want := "GROQ_API_KEY=gsk\nGEMINI_API_KEY=gem\nFISH_AUDIO_API_KEY=fish\nGCS_BUCKET=papers\n"
	if got := renderEnv(env); got != want {
		t.Errorf("renderEnv() = %q, want %q", got, want)
	}
}

func TestRequired(t *testing.T) {
	validate := required("Groq API Key")
	if err := validate("  "); err == nil {
		t.Error("expected error for blank value")
	}
	if err := validate("key"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestReadPDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "paper.pdf")
	if err := os.WriteFile(path, []byte("%PDF-1.4"), 0644); err != nil {
		t.Fatal(err)
	}

	data, err := readPDF(path)
	if err != nil || string(data) != "%PDF-1.4" {
		t.Errorf("readPDF() = %q, %v", data, err)
	}
	if _, err := readPDF(filepath.Join(t.TempDir(), "missing.pdf")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestCommandsRegistered(t *testing.T) {
	for _, name := range []string{"abstract", "podcast", "serve", "setup"} {
		found := false
		for _, c := range rootCmd.Commands() {
			if c.Name() == name {
				found = true
			}
		}
		if !found {
			t.Errorf("command %q not registered", name)
		}
	}
}
