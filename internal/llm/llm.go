package llm

import (
	"context"
	"errors"

	"papercast/pkg/config"
)

var (
	ErrNoResponse    = errors.New("no response")
	ErrEmptyResponse = errors.New("empty response")
)

// Client covers the three completions the pipelines need.
type Client interface {
	ExtractWorkflow(ctx context.Context, text string) (string, error)
	ExtractComponents(ctx context.Context, text string) (string, error)
	WriteScript(ctx context.Context, text, remark string) (string, error)
}

// Completer is a single-turn completion backend.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

type Request struct {
	System string
	Prompt string
	Params Params
}

type Params struct {
	MaxTokens   int
	Temperature float32
	TopP        float32
	TopK        int
	JSON        bool
}

type Tasks struct {
	Workflow   Params
	Components Params
	Script     Params
}

func TasksFromConfig(cfg *config.Config) Tasks {
	components := paramsFrom(cfg.Abstract.Components)
	components.JSON = true
	return Tasks{
		Workflow:   paramsFrom(cfg.Abstract.Workflow),
		Components: components,
		Script:     paramsFrom(cfg.Podcast.Script),
	}
}

func paramsFrom(g config.Generation) Params {
	return Params{
		MaxTokens:   g.MaxTokens,
		Temperature: g.Temperature,
		TopP:        g.TopP,
		TopK:        g.TopK,
	}
}
