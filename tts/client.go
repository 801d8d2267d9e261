package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"
)

const (
	defaultBaseURL = "https://api.openai.com/v1"
	defaultModelID = "tts-1"
	defaultFormat  = "mp3"
)

// SpeechClient calls an OpenAI compatible /audio/speech endpoint.
type SpeechClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
	format     string
}

// NewSpeechClientFromEnv constructs a SpeechClient from environment
// variables. TTS_API_KEY falls back to LLM_API_KEY since both services
// commonly share one provider account. A missing key leaves the client
// disabled rather than failing startup.
func NewSpeechClientFromEnv() (*SpeechClient, error) {
	apiKey := strings.TrimSpace(os.Getenv("TTS_API_KEY"))
	if apiKey == "" {
		apiKey = strings.TrimSpace(os.Getenv("LLM_API_KEY"))
	}

	baseURL := strings.TrimSpace(os.Getenv("TTS_BASE_URL"))
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		return nil, fmt.Errorf("tts: invalid base URL %q", baseURL)
	}

	model := strings.TrimSpace(os.Getenv("TTS_MODEL_ID"))
	if model == "" {
		model = defaultModelID
	}

	format := strings.TrimSpace(os.Getenv("TTS_RESPONSE_FORMAT"))
	if format == "" {
		format = defaultFormat
	}

	return &SpeechClient{
		httpClient: &http.Client{Timeout: 45 * time.Second},
		baseURL:    baseURL,
		apiKey:     apiKey,
		model:      model,
		format:     format,
	}, nil
}

// Enabled reports whether an API key was configured.
func (c *SpeechClient) Enabled() bool {
	return c != nil && c.apiKey != ""
}

type speechPayload struct {
	Model          string  `json:"model"`
	Input          string  `json:"input"`
	Voice          string  `json:"voice"`
	Speed          float64 `json:"speed,omitempty"`
	ResponseFormat string  `json:"response_format,omitempty"`
}

// Synthesize converts text to encoded audio bytes. A 429 from the
// provider surfaces as ErrRateLimited; every other failure wraps
// ErrSynthesisFailed.
func (c *SpeechClient) Synthesize(ctx context.Context, req SpeechRequest) ([]byte, error) {
	if !c.Enabled() {
		return nil, ErrDisabled
	}

	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil, ErrEmptyText
	}

	payload := speechPayload{
		Model:          c.model,
		Input:          text,
		Voice:          req.Voice,
		Speed:          req.Rate,
		ResponseFormat: c.format,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: encode request: %v", ErrSynthesisFailed, err)
	}

	endpoint := c.baseURL + "/audio/speech"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrSynthesisFailed, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSynthesisFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		log.Printf("tts: provider rate limit reached for voice %s", req.Voice)
		return nil, ErrRateLimited
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("%w: remote error %s: %s", ErrSynthesisFailed, resp.Status, strings.TrimSpace(string(snippet)))
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrSynthesisFailed, err)
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("%w: provider returned empty audio", ErrSynthesisFailed)
	}

	return audio, nil
}
