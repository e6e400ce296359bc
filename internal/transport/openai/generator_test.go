package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/gobahrain/gobahrain/internal/domain"
)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float32       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

func chatServer(t *testing.T, content string, got *chatRequest) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got != nil {
			if err := json.NewDecoder(r.Body).Decode(got); err != nil {
				t.Errorf("decode request: %v", err)
			}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":     "chatcmpl-1",
			"object": "chat.completion",
			"model":  "gpt-4o-mini",
			"choices": []map[string]any{{
				"index":         0,
				"message":       map[string]any{"role": "assistant", "content": content},
				"finish_reason": "stop",
			}},
			"usage": map[string]any{"prompt_tokens": 120, "completion_tokens": 30, "total_tokens": 150},
		})
	}))
}

func newTestGenerator(url string) *Generator {
	return NewGenerator(&Config{
		APIKey:   "test-key",
		BaseURL:  url,
		Model:    "gpt-4o-mini",
		Provider: "test",
		Logger:   zap.NewNop(),
	})
}

func TestGenerator_Complete(t *testing.T) {
	var got chatRequest
	server := chatServer(t, `  [{"spot":"Bahrain Fort"}]  `, &got)
	defer server.Close()

	gen := newTestGenerator(server.URL)
	ctx, usage := domain.NewContextWithUsage(context.Background())

	result, err := gen.Complete(ctx, domain.GenerationRequest{
		System: "only use listed places",
		Messages: []domain.ChatTurn{
			{Role: domain.RoleUser, Text: "hi"},
			{Role: domain.RoleAssistant, Text: "hello"},
			{Role: domain.RoleUser, Text: "plan my day"},
		},
		Temperature: 0.4,
		MaxTokens:   1800,
	})
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	if result.Text != `[{"spot":"Bahrain Fort"}]` {
		t.Errorf("Text = %q", result.Text)
	}
	if result.PromptTokens != 120 || result.CompletionTokens != 30 || result.TotalTokens != 150 {
		t.Errorf("usage = %+v", result)
	}
	if _, genTokens := usage.Totals(); genTokens != 150 {
		t.Errorf("context generation tokens = %d", genTokens)
	}

	if got.Model != "gpt-4o-mini" || got.MaxTokens != 1800 || got.Temperature != 0.4 {
		t.Errorf("request params = %+v", got)
	}
	roles := make([]string, len(got.Messages))
	for i, m := range got.Messages {
		roles[i] = m.Role
	}
	if strings.Join(roles, ",") != "system,user,assistant,user" {
		t.Errorf("roles = %v", roles)
	}
	if got.Messages[0].Content != "only use listed places" {
		t.Errorf("system content = %q", got.Messages[0].Content)
	}
}

func TestGenerator_BlankContentFails(t *testing.T) {
	server := chatServer(t, "   ", nil)
	defer server.Close()

	_, err := newTestGenerator(server.URL).Complete(context.Background(), domain.GenerationRequest{
		Messages: []domain.ChatTurn{{Role: domain.RoleUser, Text: "hi"}},
	})
	if !errors.Is(err, domain.ErrGenerationFailed) {
		t.Fatalf("expected ErrGenerationFailed, got %v", err)
	}
}

func TestGenerator_NoChoicesFails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"x","object":"chat.completion","choices":[]}`))
	}))
	defer server.Close()

	_, err := newTestGenerator(server.URL).Complete(context.Background(), domain.GenerationRequest{
		Messages: []domain.ChatTurn{{Role: domain.RoleUser, Text: "hi"}},
	})
	if !errors.Is(err, domain.ErrGenerationFailed) {
		t.Fatalf("expected ErrGenerationFailed, got %v", err)
	}
}

func TestGenerator_APIErrorKeepsMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"Incorrect API key provided","type":"invalid_request_error"}}`))
	}))
	defer server.Close()

	_, err := newTestGenerator(server.URL).Complete(context.Background(), domain.GenerationRequest{
		System: "sys",
	})
	if !errors.Is(err, domain.ErrGenerationFailed) {
		t.Fatalf("expected ErrGenerationFailed, got %v", err)
	}
	if !strings.Contains(err.Error(), "Incorrect API key provided") {
		t.Errorf("provider message not preserved: %q", err.Error())
	}
}

func TestGenerator_NoMessages(t *testing.T) {
	_, err := newTestGenerator("http://unused").Complete(context.Background(), domain.GenerationRequest{})
	if !errors.Is(err, domain.ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
}
