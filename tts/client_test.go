package tts

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestSpeechClient(url string) *SpeechClient {
	return &SpeechClient{
		httpClient: &http.Client{Timeout: 5 * time.Second},
		baseURL:    url,
		apiKey:     "test-key",
		model:      defaultModelID,
		format:     defaultFormat,
	}
}

func TestSynthesizeSendsResolvedParameters(t *testing.T) {
	var captured speechPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization header = %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode payload: %v", err)
		}
		w.Write([]byte("mp3-bytes"))
	}))
	defer server.Close()

	client := newTestSpeechClient(server.URL)
	audio, err := client.Synthesize(context.Background(), SpeechRequest{Text: "  hello  ", Voice: "nova", Rate: 1.2})
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}

	if string(audio) != "mp3-bytes" {
		t.Fatalf("audio = %q", audio)
	}
	if captured.Input != "hello" {
		t.Errorf("input = %q, want trimmed text", captured.Input)
	}
	if captured.Voice != "nova" || captured.Speed != 1.2 {
		t.Errorf("voice/speed = %q/%v", captured.Voice, captured.Speed)
	}
	if captured.Model != defaultModelID || captured.ResponseFormat != defaultFormat {
		t.Errorf("model/format = %q/%q", captured.Model, captured.ResponseFormat)
	}
}

func TestSynthesizeMapsRateLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := newTestSpeechClient(server.URL)
	if _, err := client.Synthesize(context.Background(), SpeechRequest{Text: "hello", Voice: "alloy", Rate: 1.0}); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("error = %v, want ErrRateLimited", err)
	}
}

func TestSynthesizeWrapsRemoteFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model overloaded", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := newTestSpeechClient(server.URL)
	if _, err := client.Synthesize(context.Background(), SpeechRequest{Text: "hello", Voice: "alloy", Rate: 1.0}); !errors.Is(err, ErrSynthesisFailed) {
		t.Fatalf("error = %v, want ErrSynthesisFailed", err)
	}
}

func TestSynthesizeDisabledWithoutKey(t *testing.T) {
	client := &SpeechClient{httpClient: http.DefaultClient, baseURL: "https://example.invalid"}
	if _, err := client.Synthesize(context.Background(), SpeechRequest{Text: "hello"}); !errors.Is(err, ErrDisabled) {
		t.Fatalf("error = %v, want ErrDisabled", err)
	}
}
