package prompts

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"text/template"

	"gopkg.in/yaml.v3"
)

const defaultPromptsPath = "prompts.yaml"

//go:embed defaults.yaml
var defaultPrompts []byte

type Prompts struct {
	System     SystemPrompts `yaml:"system"`
	Workflow   string        `yaml:"workflow"`
	Components string        `yaml:"components"`
	Podcast    string        `yaml:"podcast"`
}

type SystemPrompts struct {
	Workflow   string `yaml:"workflow"`
	Components string `yaml:"components"`
	Podcast    string `yaml:"podcast"`
}

type PaperParams struct {
	Text string
}

type PodcastParams struct {
	Text   string
	Remark string
}

// Load returns the built-in prompts, overlaid with prompts.yaml from the
// working directory when one exists.
func Load() (*Prompts, error) {
	p, err := Default()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(defaultPromptsPath)
	if os.IsNotExist(err) {
		return p, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read prompts file: %w", err)
	}
	if err := yaml.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("failed to parse prompts file: %w", err)
	}
	return p, nil
}

func Default() (*Prompts, error) {
	var p Prompts
	if err := yaml.Unmarshal(defaultPrompts, &p); err != nil {
		return nil, fmt.Errorf("failed to parse default prompts: %w", err)
	}
	return &p, nil
}

func LoadFrom(path string) (*Prompts, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompts file: %w", err)
	}

	var p Prompts
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse prompts file: %w", err)
	}

	return &p, nil
}

func (p *Prompts) RenderWorkflow(params PaperParams) (string, error) {
	return render(p.Workflow, params)
}

func (p *Prompts) RenderComponents(params PaperParams) (string, error) {
	return render(p.Components, params)
}

func (p *Prompts) RenderPodcast(params PodcastParams) (string, error) {
	return render(p.Podcast, params)
}

func render(tmpl string, data any) (string, error) {
	t, err := template.New("prompt").Parse(tmpl)
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}

	return buf.String(), nil
}
