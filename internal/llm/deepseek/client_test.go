package deepseek

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"papercast/internal/llm"
)

func TestComplete(t *testing.T) {
	tests := []struct {
		name           string
		serverResponse response
		serverStatus   int
		wantErr        error
		wantAnyErr     bool
		wantContent    string
	}{
		{
			name: "successfulCompletion",
			serverResponse: response{
				Choices: []choice{{Message: message{Role: "assistant", Content: "step1[Collect] --> step2[Train]"}}},
			},
			serverStatus: http.StatusOK,
			wantContent:  "step1[Collect] --> step2[Train]",
		},
		{
			name:           "emptyChoices",
			serverResponse: response{Choices: []choice{}},
			serverStatus:   http.StatusOK,
			wantErr:        llm.ErrNoResponse,
		},
		{
			name: "emptyContent",
			serverResponse: response{
				Choices: []choice{{Message: message{Role: "assistant"}}},
			},
			serverStatus: http.StatusOK,
			wantErr:      llm.ErrEmptyResponse,
		},
		{
			name: "apiError",
			serverResponse: response{
				Error: &apiError{Message: "rate limit exceeded", Type: "rate_limit"},
			},
			serverStatus: http.StatusOK,
			wantAnyErr:   true,
		},
		{
			name:         "serverError",
			serverStatus: http.StatusInternalServerError,
			wantAnyErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					t.Errorf("expected POST, got %s", r.Method)
				}
				if r.Header.Get("Authorization") != "Bearer test-key" {
					t.Errorf("expected Authorization header with Bearer token")
				}
				w.WriteHeader(tt.serverStatus)
				_ = json.NewEncoder(w).Encode(tt.serverResponse)
			}))
			defer server.Close()

			client := NewClient(Config{APIKey: "test-key", URL: server.URL}, server.Client())
			got, err := client.Complete(context.Background(), llm.Request{Prompt: "paper"})

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Complete() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if tt.wantAnyErr {
				if err == nil {
					t.Error("Complete() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Complete() unexpected error: %v", err)
			}
			if got != tt.wantContent {
				t.Errorf("Complete() = %q, want %q", got, tt.wantContent)
			}
		})
	}
}

func TestCompleteRequestBody(t *testing.T) {
	tests := []struct {
		name       string
		req        llm.Request
		wantRoles  []string
		wantFormat bool
	}{
		{
			name: "componentsJSON",
			req: llm.Request{
				System: "You are a precise research paper analyzer.",
				Prompt: "Text: ...",
				Params: llm.Params{MaxTokens: 1000, Temperature: 0.2, JSON: true},
			},
			wantRoles:  []string{roleSystem, roleUser},
			wantFormat: true,
		},
		{
			name: "scriptWithoutSystem",
			req: llm.Request{
				Prompt: "Convert this into a podcast",
				Params: llm.Params{MaxTokens: 8192, Temperature: 1, TopP: 0.95, TopK: 40},
			},
			wantRoles: []string{roleUser},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got map[string]any
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
					t.Errorf("decode request: %v", err)
				}
				_ = json.NewEncoder(w).Encode(response{
					Choices: []choice{{Message: message{Role: "assistant", Content: "ok"}}},
				})
			}))
			defer server.Close()

			client := NewClient(Config{APIKey: "test-key", URL: server.URL}, server.Client())
			if _, err := client.Complete(context.Background(), tt.req); err != nil {
				t.Fatalf("Complete() unexpected error: %v", err)
			}

			if got["model"] != defaultModel {
				t.Errorf("model = %v, want %s", got["model"], defaultModel)
			}
			if got["max_tokens"] != float64(tt.req.Params.MaxTokens) {
				t.Errorf("max_tokens = %v, want %d", got["max_tokens"], tt.req.Params.MaxTokens)
			}
			if _, ok := got["top_k"]; ok {
				t.Error("top_k should not be sent")
			}

			messages, _ := got["messages"].([]any)
			if len(messages) != len(tt.wantRoles) {
				t.Fatalf("messages = %d, want %d", len(messages), len(tt.wantRoles))
			}
			for i, role := range tt.wantRoles {
				if m, _ := messages[i].(map[string]any); m["role"] != role {
					t.Errorf("message %d role = %v, want %s", i, m["role"], role)
				}
			}

			format, hasFormat := got["response_format"].(map[string]any)
			if hasFormat != tt.wantFormat {
				t.Fatalf("response_format present = %v, want %v", hasFormat, tt.wantFormat)
			}
			if hasFormat && format["type"] != "json_object" {
				t.Errorf("response_format.type = %v, want json_object", format["type"])
			}
		})
	}
}

func TestNewClientDefaults(t *testing.T) {
	client := NewClient(Config{APIKey: "k"}, nil)

	if client.Model() != defaultModel {
		t.Errorf("Model() = %s, want %s", client.Model(), defaultModel)
	}
	if client.url != defaultURL {
		t.Errorf("url = %s, want %s", client.url, defaultURL)
	}
	if client.httpClient == nil {
		t.Error("expected a default http client")
	}
}
