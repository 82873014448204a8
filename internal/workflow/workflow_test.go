package workflow

import (
	"reflect"
	"strings"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "capitalWithSpace", input: "Step 1[Collect] --> Step 2[Clean]", want: "step1[Collect] --> step2[Clean]"},
		{name: "multipleSpaces", input: "STEP   3[Train]", want: "step3[Train]"},
		{name: "alreadyNormal", input: "step4[Eval]", want: "step4[Eval]"},
		{name: "noSteps", input: "Collect data", want: "Collect data"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.input); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name         string
		input        string
		wantSteps    []Step
		wantEdges    []Edge
		wantAccepted int
		wantIgnored  int
	}{
		{
			name:  "simpleChain",
			input: "step1[Data Collection] --> step2[Preprocessing]\nstep2[Preprocessing] --> step3[Model Training]",
			wantSteps: []Step{
				{Index: 1, Label: "Data Collection"},
				{Index: 2, Label: "Preprocessing"},
				{Index: 3, Label: "Model Training"},
			},
			wantEdges:    []Edge{{From: 1, To: 2}, {From: 2, To: 3}},
			wantAccepted: 2,
		},
		{
			name:  "proseIgnored",
			input: "Here is the workflow:\n\nstep1[A] --> step2[B]\nThat's all.",
			wantSteps: []Step{
				{Index: 1, Label: "A"},
				{Index: 2, Label: "B"},
			},
			wantEdges:    []Edge{{From: 1, To: 2}},
			wantAccepted: 1,
			wantIgnored:  3,
		},
		{
			name:        "missingBrackets",
			input:       "step1 Collect --> step2[Clean]",
			wantIgnored: 1,
		},
		{
			name:        "nonNumericIndex",
			input:       "stepA[Collect] --> stepB[Clean]",
			wantIgnored: 1,
		},
		{
			name:        "noArrow",
			input:       "step1[Collect] -> step2[Clean]",
			wantIgnored: 1,
		},
		{
			name:        "chainedArrowsOnOneLine",
			input:       "step1[A] --> step2[B] --> step3[C]",
			wantIgnored: 1,
		},
		{
			name:  "firstLabelWins",
			input: "step1[Collect] --> step2[Clean]\nstep2[Cleaning Data] --> step3[Train]",
			wantSteps: []Step{
				{Index: 1, Label: "Collect"},
				{Index: 2, Label: "Clean"},
				{Index: 3, Label: "Train"},
			},
			wantEdges:    []Edge{{From: 1, To: 2}, {From: 2, To: 3}},
			wantAccepted: 2,
		},
		{
			name:  "caseInsensitive",
			input: "STEP1[Up] --> Step2[Down]",
			wantSteps: []Step{
				{Index: 1, Label: "Up"},
				{Index: 2, Label: "Down"},
			},
			wantEdges:    []Edge{{From: 1, To: 2}},
			wantAccepted: 1,
		},
		{
			name:        "emptyInput",
			input:       "",
			wantIgnored: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.input)

			if !reflect.DeepEqual(got.Steps, tt.wantSteps) {
				t.Errorf("Steps = %+v, want %+v", got.Steps, tt.wantSteps)
			}
			if !reflect.DeepEqual(got.Edges, tt.wantEdges) {
				t.Errorf("Edges = %+v, want %+v", got.Edges, tt.wantEdges)
			}
			if got.Accepted != tt.wantAccepted {
				t.Errorf("Accepted = %d, want %d", got.Accepted, tt.wantAccepted)
			}
			if got.Ignored != tt.wantIgnored {
				t.Errorf("Ignored = %d, want %d", got.Ignored, tt.wantIgnored)
			}
		})
	}
}

func TestParseLine(t *testing.T) {
	if got := ParseLine("step1[A] --> step2[B]"); got != Accepted {
		t.Errorf("ParseLine(well-formed) = %v, want accepted", got)
	}
	if got := ParseLine("just prose"); got != Ignored {
		t.Errorf("ParseLine(prose) = %v, want ignored", got)
	}
}

func TestMermaid(t *testing.T) {
	w := Parse(Normalize("Step 1[Collect] --> Step 2[Clean]\nStep 2[Clean] --> Step 3[Train]"))

	want := mermaidHeader + `
    step1["Collect"]:::highlight
    step2["Clean"]:::highlight
    step1 --> step2
    step3["Train"]:::highlight
    step2 --> step3`

	if got := w.Mermaid(); got != want {
		t.Errorf("Mermaid() =\n%s\nwant\n%s", got, want)
	}
}

func TestMermaidOneEdgePerAcceptedLineNoDuplicateNodes(t *testing.T) {
	input := strings.Join([]string{
		"step1[A] --> step2[B]",
		"step2[B] --> step3[C]",
		"step3[C] --> step1[A]",
		"step1[A] --> step3[C]",
	}, "\n")

	w := Parse(input)
	out := w.Mermaid()

	if got := strings.Count(out, " --> "); got != w.Accepted {
		t.Errorf("edge declarations = %d, want %d", got, w.Accepted)
	}
	for _, id := range []string{"step1[", "step2[", "step3["} {
		if got := strings.Count(out, id); got != 1 {
			t.Errorf("node %s declared %d times, want 1", id, got)
		}
	}
}

func TestMermaidEscapesQuotes(t *testing.T) {
	w := Parse(`step1[Say "hi"] --> step2[Done]`)
	if !strings.Contains(w.Mermaid(), `step1["Say #quot;hi#quot;"]:::highlight`) {
		t.Errorf("Mermaid() did not escape quotes:\n%s", w.Mermaid())
	}
}

func TestMermaidEmptyWorkflow(t *testing.T) {
	w := Parse("no steps here")
	if !w.IsEmpty() {
		t.Error("IsEmpty() = false, want true")
	}
	if got := w.Mermaid(); got != mermaidHeader {
		t.Errorf("Mermaid() = %q, want header only", got)
	}
}
