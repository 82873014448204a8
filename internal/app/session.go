package app

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

const maxNameLength = 50

// Artifact file names inside a run directory.
const (
	ArtifactWorkflow   = "workflow.txt"
	ArtifactDiagram    = "workflow_diagram.mmd"
	ArtifactComponents = "components.json"
	ArtifactSVG        = "graphical_abstract.svg"
	ArtifactScript     = "script.txt"
	ArtifactPodcast    = "final_podcast.mp3"
)

// KnownArtifact reports whether name is one of the files a run can produce.
func KnownArtifact(name string) bool {
	switch name {
	case ArtifactWorkflow, ArtifactDiagram, ArtifactComponents, ArtifactSVG, ArtifactScript, ArtifactPodcast:
		return true
	}
	return false
}

type session struct {
	id  string
	dir string
}

var sanitizeRegex = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// newSession creates a run directory unique to this run under baseDir.
func newSession(baseDir, name string) (*session, error) {
	sanitized := sanitizeForPath(strings.TrimSuffix(name, filepath.Ext(name)))
	if sanitized == "" {
		sanitized = "paper"
	}
	if len(sanitized) > maxNameLength {
		sanitized = strings.TrimRight(sanitized[:maxNameLength], "_")
	}

	id := fmt.Sprintf("%s_%s_%s",
		time.Now().Format("20060102_150405"),
		uuid.NewString()[:8],
		sanitized,
	)

	s := &session{id: id, dir: filepath.Join(baseDir, id)}
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return nil, fmt.Errorf("create run directory: %w", err)
	}
	return s, nil
}

func (s *session) path(name string) string { return filepath.Join(s.dir, name) }

func (s *session) write(name string, data []byte) (string, error) {
	p := s.path(name)
	if err := os.WriteFile(p, data, 0644); err != nil {
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	return p, nil
}

func sanitizeForPath(s string) string {
	s = strings.ToLower(s)
	s = sanitizeRegex.ReplaceAllString(s, "_")
	return strings.Trim(s, "_")
}
