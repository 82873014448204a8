package dialogue

import (
	"regexp"
	"strings"
)

type Role string

const (
	RoleHost  Role = "Host"
	RoleGuest Role = "Guest"
)

type Line struct {
	Role    Role
	Speaker string
	Text    string
}

type Script struct {
	Lines   []Line
	Ignored int

	roles map[string]Role
	order []string
}

var linePattern = regexp.MustCompile(`^([\p{L}\p{N}_]+):\s*(.+)$`)

// Parse reads "Label: text" lines in transcript order. The first distinct
// label is the Host and every other label is the Guest. Lines that do not
// match are counted in Ignored.
func Parse(text string) *Script {
	script := &Script{
		Lines: make([]Line, 0),
		roles: make(map[string]Role),
	}

	for _, raw := range strings.Split(text, "\n") {
		raw = strings.TrimRight(raw, "\r")

		matches := linePattern.FindStringSubmatch(raw)
		if len(matches) != 3 {
			script.Ignored++
			continue
		}

		utterance := strings.TrimSpace(matches[2])
		if utterance == "" {
			script.Ignored++
			continue
		}

		speaker := matches[1]
		script.Lines = append(script.Lines, Line{
			Role:    script.assign(speaker),
			Speaker: speaker,
			Text:    utterance,
		})
	}

	return script
}

func (s *Script) assign(speaker string) Role {
	if role, ok := s.roles[speaker]; ok {
		return role
	}
	role := RoleGuest
	if len(s.order) == 0 {
		role = RoleHost
	}
	s.roles[speaker] = role
	s.order = append(s.order, speaker)
	return role
}

// Roles returns the label to role mapping built while parsing.
func (s *Script) Roles() map[string]Role {
	out := make(map[string]Role, len(s.roles))
	for k, v := range s.roles {
		out[k] = v
	}
	return out
}

func (s *Script) Speakers() []string {
	return append([]string(nil), s.order...)
}

func (s *Script) IsEmpty() bool {
	return len(s.Lines) == 0
}

func (s *Script) FullText() string {
	var sb strings.Builder
	for i, line := range s.Lines {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(string(line.Role))
		sb.WriteString(": ")
		sb.WriteString(line.Text)
	}
	return sb.String()
}
