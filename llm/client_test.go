package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestClient(url string) *ChatClient {
	return &ChatClient{
		httpClient: &http.Client{Timeout: 5 * time.Second},
		baseURL:    url,
		apiKey:     "test-key",
		modelID:    "gpt-4o",
	}
}

func TestChatSendsOptionsAndParsesReply(t *testing.T) {
	var captured chatCompletionRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("unexpected auth header %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": "  hello there  "}},
			},
			"usage": map[string]any{"prompt_tokens": 12, "completion_tokens": 7, "total_tokens": 19},
		})
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	result, err := client.Chat(context.Background(), []ChatMessage{
		{Role: "system", Content: "be kind"},
		{Role: "user", Content: "hi"},
	}, ChatOptions{MaxTokens: 200, Temperature: 0.7, JSONObject: true})
	if err != nil {
		t.Fatalf("chat failed: %v", err)
	}

	if result.Content != "hello there" {
		t.Errorf("content = %q, want trimmed reply", result.Content)
	}
	if result.Usage == nil || result.Usage.TotalTokens != 19 {
		t.Errorf("usage not parsed: %+v", result.Usage)
	}
	if captured.Model != "gpt-4o" {
		t.Errorf("model = %q", captured.Model)
	}
	if captured.MaxTokens != 200 {
		t.Errorf("max_tokens = %d", captured.MaxTokens)
	}
	if captured.Temperature != 0.7 {
		t.Errorf("temperature = %v", captured.Temperature)
	}
	if captured.ResponseFormat == nil || captured.ResponseFormat.Type != "json_object" {
		t.Errorf("response_format not requested: %+v", captured.ResponseFormat)
	}
	if len(captured.Messages) != 2 || captured.Messages[0].Role != "system" {
		t.Errorf("messages not forwarded: %+v", captured.Messages)
	}
}

func TestChatOmitsUnsetOptions(t *testing.T) {
	var raw map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&raw)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{"message": map[string]any{"content": "ok"}}},
		})
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	if _, err := client.Chat(context.Background(), []ChatMessage{{Role: "user", Content: "hi"}}, ChatOptions{}); err != nil {
		t.Fatalf("chat failed: %v", err)
	}
	for _, key := range []string{"max_tokens", "temperature", "response_format"} {
		if _, ok := raw[key]; ok {
			t.Errorf("%s should be omitted when unset", key)
		}
	}
}

func TestChatErrorOnBadStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	if _, err := client.Chat(context.Background(), []ChatMessage{{Role: "user", Content: "hi"}}, ChatOptions{}); err == nil {
		t.Fatal("expected error on non-200 status")
	}
}

func TestChatSkipsBlankMessages(t *testing.T) {
	var captured chatCompletionRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&captured)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{"message": map[string]any{"content": "ok"}}},
		})
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.Chat(context.Background(), []ChatMessage{
		{Role: "user", Content: "   "},
		{Role: "user", Content: "real"},
	}, ChatOptions{})
	if err != nil {
		t.Fatalf("chat failed: %v", err)
	}
	if len(captured.Messages) != 1 || captured.Messages[0].Content != "real" {
		t.Errorf("blank messages should be dropped: %+v", captured.Messages)
	}
}
