package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"papercast/pkg/prompts"
)

var _ Client = (*PromptClient)(nil)

// PromptClient renders the paper prompts and sends them to a Completer.
type PromptClient struct {
	completer Completer
	prompts   *prompts.Prompts
	tasks     Tasks
}

func NewPromptClient(completer Completer, p *prompts.Prompts, tasks Tasks) *PromptClient {
	return &PromptClient{
		completer: completer,
		prompts:   p,
		tasks:     tasks,
	}
}

func (c *PromptClient) ExtractWorkflow(ctx context.Context, text string) (string, error) {
	prompt, err := c.prompts.RenderWorkflow(prompts.PaperParams{Text: text})
	if err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}
	return c.complete(ctx, "workflow", c.prompts.System.Workflow, prompt, c.tasks.Workflow)
}

func (c *PromptClient) ExtractComponents(ctx context.Context, text string) (string, error) {
	prompt, err := c.prompts.RenderComponents(prompts.PaperParams{Text: text})
	if err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}
	return c.complete(ctx, "components", c.prompts.System.Components, prompt, c.tasks.Components)
}

func (c *PromptClient) WriteScript(ctx context.Context, text, remark string) (string, error) {
	prompt, err := c.prompts.RenderPodcast(prompts.PodcastParams{
		Text:   text,
		Remark: strings.TrimSpace(remark),
	})
	if err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}
	return c.complete(ctx, "script", c.prompts.System.Podcast, prompt, c.tasks.Script)
}

func (c *PromptClient) complete(ctx context.Context, task, system, prompt string, params Params) (string, error) {
	slog.Debug("LLM request", "task", task, "prompt_chars", len(prompt), "max_tokens", params.MaxTokens)

	content, err := c.completer.Complete(ctx, Request{
		System: system,
		Prompt: prompt,
		Params: params,
	})
	if err != nil {
		return "", err
	}

	content = strings.TrimSpace(content)
	if content == "" {
		return "", ErrEmptyResponse
	}
	return content, nil
}
