// Package components turns the component-extraction completion into a
// fully populated Paper record, repairing or replacing what the model got
// wrong.
package components

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

type Source string

const (
	SourceModel   Source = "model"
	SourceDefault Source = "default"
)

const (
	FieldTitle        = "title"
	FieldMethods      = "methods"
	FieldFindings     = "findings"
	FieldApplications = "applications"
	FieldKeywords     = "keywords"
)

var listFields = []string{FieldMethods, FieldFindings, FieldApplications, FieldKeywords}

var ErrNotJSONObject = errors.New("response is not a JSON object")

type Paper struct {
	Title        string   `json:"title"`
	Methods      []string `json:"methods"`
	Findings     []string `json:"findings"`
	Applications []string `json:"applications"`
	Keywords     []string `json:"keywords"`
}

func Default() Paper {
	return Paper{
		Title:        "Research Paper Analysis",
		Methods:      []string{"Method 1", "Method 2"},
		Findings:     []string{"Finding 1", "Finding 2"},
		Applications: []string{"Application 1"},
		Keywords:     []string{"Keyword 1", "Keyword 2", "Keyword 3"},
	}
}

type Result struct {
	Paper    Paper
	Source   Source
	Repaired []string
	// Err is the reason the whole record fell back to Default.
	Err error
}

func (r Result) IsDefault() bool {
	return r.Source == SourceDefault
}

var (
	fencePattern = regexp.MustCompile("```json\\s*|\\s*```")
	paperSchema  = mustSchema()
)

func mustSchema() *gojsonschema.Schema {
	list := map[string]interface{}{
		"type":     "array",
		"minItems": 1,
	}
	schemaMap := map[string]interface{}{
		"type":     "object",
		"required": []interface{}{FieldTitle, FieldMethods, FieldFindings, FieldApplications, FieldKeywords},
		"properties": map[string]interface{}{
			FieldTitle: map[string]interface{}{
				"type":    "string",
				"pattern": `\S`,
			},
			FieldMethods:      list,
			FieldFindings:     list,
			FieldApplications: list,
			FieldKeywords:     list,
		},
	}

	schema, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(schemaMap))
	if err != nil {
		panic(fmt.Sprintf("compile paper schema: %v", err))
	}
	return schema
}

// Parse never returns a partially populated Paper: either every field comes
// from the model (some possibly repaired) or the whole record is Default.
func Parse(raw string) Result {
	body, err := isolateObject(raw)
	if err != nil {
		return fallback(err)
	}

	doc, err := decodeObject(body)
	if err != nil {
		return fallback(err)
	}

	invalid, err := invalidFields(body)
	if err != nil {
		return fallback(err)
	}

	defaults := Default()
	paper := Paper{}
	var repaired []string

	if !invalid[FieldTitle] {
		title, _ := doc[FieldTitle].(string)
		paper.Title = strings.TrimSpace(title)
	}
	// The schema pattern only rejects ASCII whitespace.
	if paper.Title == "" {
		paper.Title = defaults.Title
		repaired = append(repaired, FieldTitle)
	}

	for _, field := range listFields {
		var items []string
		if !invalid[field] {
			items = cleanItems(doc[field])
		}
		if len(items) == 0 {
			items = defaults.list(field)
			repaired = append(repaired, field)
		}
		paper.setList(field, items)
	}

	return Result{
		Paper:    paper,
		Source:   SourceModel,
		Repaired: repaired,
	}
}

func fallback(err error) Result {
	return Result{
		Paper:  Default(),
		Source: SourceDefault,
		Err:    err,
	}
}

func isolateObject(raw string) (string, error) {
	text := fencePattern.ReplaceAllString(strings.TrimSpace(raw), "")

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return "", ErrNotJSONObject
	}
	return text[start : end+1], nil
}

func decodeObject(body string) (map[string]interface{}, error) {
	dec := json.NewDecoder(strings.NewReader(body))
	dec.UseNumber()

	var doc map[string]interface{}
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode components: %w", err)
	}
	if dec.More() {
		return nil, fmt.Errorf("decode components: trailing data after object")
	}
	if doc == nil {
		return nil, ErrNotJSONObject
	}
	return doc, nil
}

// invalidFields reports the top-level fields that fail the schema.
func invalidFields(body string) (map[string]bool, error) {
	result, err := paperSchema.Validate(gojsonschema.NewStringLoader(body))
	if err != nil {
		return nil, fmt.Errorf("validate components: %w", err)
	}

	invalid := make(map[string]bool)
	for _, desc := range result.Errors() {
		field := desc.Field()
		if desc.Type() == "required" {
			if property, ok := desc.Details()["property"].(string); ok {
				field = property
			}
		}
		if field == gojsonschema.STRING_ROOT_SCHEMA_PROPERTY {
			return nil, ErrNotJSONObject
		}
		if i := strings.Index(field, "."); i >= 0 {
			field = field[:i]
		}
		invalid[field] = true
	}
	return invalid, nil
}

func cleanItems(v interface{}) []string {
	raw, ok := v.([]interface{})
	if !ok {
		return nil
	}

	items := make([]string, 0, len(raw))
	for _, item := range raw {
		s := strings.TrimSpace(stringify(item))
		if s != "" {
			items = append(items, s)
		}
	}
	return items
}

func stringify(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		if t {
			return "true"
		}
		return "false"
	default:
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		if err := enc.Encode(t); err != nil {
			return fmt.Sprint(t)
		}
		return buf.String()
	}
}

func (p Paper) list(field string) []string {
	switch field {
	case FieldMethods:
		return p.Methods
	case FieldFindings:
		return p.Findings
	case FieldApplications:
		return p.Applications
	case FieldKeywords:
		return p.Keywords
	}
	return nil
}

func (p *Paper) setList(field string, items []string) {
	switch field {
	case FieldMethods:
		p.Methods = items
	case FieldFindings:
		p.Findings = items
	case FieldApplications:
		p.Applications = items
	case FieldKeywords:
		p.Keywords = items
	}
}

// JSON returns the indented record as shown to users and stored as an artifact.
func (p Paper) JSON() ([]byte, error) {
	return json.MarshalIndent(p, "", "  ")
}
