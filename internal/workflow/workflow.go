// Package workflow parses the "stepN[Label] --> stepM[Label]" mini-language
// returned by the workflow prompt and renders it as a Mermaid flowchart.
package workflow

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

const arrow = "-->"

const mermaidHeader = `graph TD
    classDef default fill:#f9f9f9,stroke:#333,stroke-width:2px;
    classDef highlight fill:#e1f5fe,stroke:#01579b,stroke-width:2px;
    classDef important fill:#fff3e0,stroke:#e65100,stroke-width:2px;`

var (
	stepSpelling = regexp.MustCompile(`(?i)Step\s*`)
	stepPattern  = regexp.MustCompile(`(?i)step(\d+)\[(.*?)\]`)
)

type Outcome int

const (
	Ignored Outcome = iota
	Accepted
)

func (o Outcome) String() string {
	if o == Accepted {
		return "accepted"
	}
	return "ignored"
}

type Step struct {
	Index int
	Label string
}

type Edge struct {
	From int
	To   int
}

type Workflow struct {
	Steps    []Step
	Edges    []Edge
	Accepted int
	Ignored  int

	labels map[int]string
}

// Normalize rewrites "Step 1" and "step  2" spellings to "step1".
func Normalize(text string) string {
	return stepSpelling.ReplaceAllString(text, "step")
}

// Parse reads the text line by line. Lines that are not a single
// well-formed edge are counted as ignored; Parse never fails.
func Parse(text string) *Workflow {
	w := &Workflow{labels: make(map[int]string)}

	for _, line := range strings.Split(text, "\n") {
		from, to, outcome := parseLine(line)
		if outcome == Ignored {
			w.Ignored++
			continue
		}
		w.Accepted++
		w.addStep(from)
		w.addStep(to)
		w.Edges = append(w.Edges, Edge{From: from.Index, To: to.Index})
	}

	return w
}

// ParseLine reports how a single line would be handled.
func ParseLine(line string) Outcome {
	_, _, outcome := parseLine(line)
	return outcome
}

func parseLine(line string) (Step, Step, Outcome) {
	if !strings.Contains(line, arrow) {
		return Step{}, Step{}, Ignored
	}
	parts := strings.Split(line, arrow)
	if len(parts) != 2 {
		return Step{}, Step{}, Ignored
	}

	from, ok := matchStep(parts[0])
	if !ok {
		return Step{}, Step{}, Ignored
	}
	to, ok := matchStep(parts[1])
	if !ok {
		return Step{}, Step{}, Ignored
	}
	return from, to, Accepted
}

func matchStep(half string) (Step, bool) {
	m := stepPattern.FindStringSubmatch(strings.TrimSpace(half))
	if m == nil {
		return Step{}, false
	}
	index, err := strconv.Atoi(m[1])
	if err != nil {
		return Step{}, false
	}
	return Step{Index: index, Label: m[2]}, true
}

func (w *Workflow) addStep(s Step) {
	if _, ok := w.labels[s.Index]; ok {
		return
	}
	w.labels[s.Index] = s.Label
	w.Steps = append(w.Steps, s)
}

func (w *Workflow) IsEmpty() bool {
	return len(w.Edges) == 0
}

// Mermaid renders the flowchart. Each step is declared once, just before
// the first edge that uses it.
func (w *Workflow) Mermaid() string {
	var sb strings.Builder
	sb.WriteString(mermaidHeader)

	declared := make(map[int]bool, len(w.Steps))
	declare := func(index int) {
		if declared[index] {
			return
		}
		declared[index] = true
		fmt.Fprintf(&sb, "\n    step%d[\"%s\"]:::highlight", index, escapeLabel(w.labels[index]))
	}

	for _, e := range w.Edges {
		declare(e.From)
		declare(e.To)
		fmt.Fprintf(&sb, "\n    step%d --> step%d", e.From, e.To)
	}

	return sb.String()
}

func escapeLabel(label string) string {
	return strings.ReplaceAll(label, `"`, "#quot;")
}
