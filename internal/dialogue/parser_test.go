package dialogue

import (
	"reflect"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		wantLines   []Line
		wantIgnored int
	}{
		{
			name:  "roleMappingIsStable",
			input: "Host: Hi\nIshaan: Hello\nHost: Bye",
			wantLines: []Line{
				{Role: RoleHost, Speaker: "Host", Text: "Hi"},
				{Role: RoleGuest, Speaker: "Ishaan", Text: "Hello"},
				{Role: RoleHost, Speaker: "Host", Text: "Bye"},
			},
		},
		{
			name:  "blankAndNarrativeLinesDropped",
			input: "Priya: Welcome\n\n(music plays)\nThe two laugh.\nAarav: Thanks\nPriya: Let's start",
			wantLines: []Line{
				{Role: RoleHost, Speaker: "Priya", Text: "Welcome"},
				{Role: RoleGuest, Speaker: "Aarav", Text: "Thanks"},
				{Role: RoleHost, Speaker: "Priya", Text: "Let's start"},
			},
			wantIgnored: 3,
		},
		{
			name:  "firstLabelIsHostRegardlessOfName",
			input: "Guest: I speak first\nHost: I speak second",
			wantLines: []Line{
				{Role: RoleHost, Speaker: "Guest", Text: "I speak first"},
				{Role: RoleGuest, Speaker: "Host", Text: "I speak second"},
			},
		},
		{
			name:  "thirdSpeakerBecomesGuest",
			input: "A: one\nB: two\nC: three",
			wantLines: []Line{
				{Role: RoleHost, Speaker: "A", Text: "one"},
				{Role: RoleGuest, Speaker: "B", Text: "two"},
				{Role: RoleGuest, Speaker: "C", Text: "three"},
			},
		},
		{
			name:  "unicodeLabel",
			input: "Zoë: Bonjour\nRenée: Salut",
			wantLines: []Line{
				{Role: RoleHost, Speaker: "Zoë", Text: "Bonjour"},
				{Role: RoleGuest, Speaker: "Renée", Text: "Salut"},
			},
		},
		{
			name:  "windowsLineEndings",
			input: "Host: Hi\r\nGuest: Hello\r\n",
			wantLines: []Line{
				{Role: RoleHost, Speaker: "Host", Text: "Hi"},
				{Role: RoleGuest, Speaker: "Guest", Text: "Hello"},
			},
			wantIgnored: 1,
		},
		{
			name:        "labelWithSpaceIgnored",
			input:       "Dr Smith: hello\n  Host: indented",
			wantLines:   []Line{},
			wantIgnored: 2,
		},
		{
			name:        "emptyUtteranceIgnored",
			input:       "Host:    ",
			wantLines:   []Line{},
			wantIgnored: 1,
		},
		{
			name:        "emptyInput",
			input:       "",
			wantLines:   []Line{},
			wantIgnored: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.input)

			if !reflect.DeepEqual(got.Lines, tt.wantLines) {
				t.Errorf("Parse() lines = %+v, want %+v", got.Lines, tt.wantLines)
			}
			if got.Ignored != tt.wantIgnored {
				t.Errorf("Parse() ignored = %d, want %d", got.Ignored, tt.wantIgnored)
			}
		})
	}
}

func TestScriptRoles(t *testing.T) {
	script := Parse("Host: Hi\nIshaan: Hello\nHost: Bye\nMeera: Hey")

	want := map[string]Role{"Host": RoleHost, "Ishaan": RoleGuest, "Meera": RoleGuest}
	if got := script.Roles(); !reflect.DeepEqual(got, want) {
		t.Errorf("Roles() = %v, want %v", got, want)
	}

	wantSpeakers := []string{"Host", "Ishaan", "Meera"}
	if got := script.Speakers(); !reflect.DeepEqual(got, wantSpeakers) {
		t.Errorf("Speakers() = %v, want %v", got, wantSpeakers)
	}
}

func TestScriptIsEmpty(t *testing.T) {
	if !Parse("no dialogue here").IsEmpty() {
		t.Error("IsEmpty() = false for narrative-only text")
	}
	if Parse("Host: hi").IsEmpty() {
		t.Error("IsEmpty() = true for a dialogue line")
	}
}

func TestScriptFullText(t *testing.T) {
	got := Parse("Ana: Hi\nBo: Hello").FullText()
	want := "Host: Hi\nGuest: Hello"
	if got != want {
		t.Errorf("FullText() = %q, want %q", got, want)
	}
}
