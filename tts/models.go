package tts

import (
	"context"
	"errors"
	"strings"
)

var (
	// ErrDisabled is returned when no synthesis provider is configured.
	ErrDisabled = errors.New("tts: service disabled")
	// ErrEmptyText is a caller error: synthesis needs non-empty input.
	ErrEmptyText = errors.New("tts: text is required")
	// ErrRateLimited marks a transient provider rejection the caller may retry.
	ErrRateLimited = errors.New("tts: service temporarily unavailable")
	// ErrSynthesisFailed covers every other provider failure.
	ErrSynthesisFailed = errors.New("tts: failed to generate speech")
)

// SpeechRequest carries a fully-resolved synthesis request: Voice is a
// concrete provider voice identifier, not a user-facing selector.
type SpeechRequest struct {
	Text  string
	Voice string
	Rate  float64
}

// Synthesizer produces encoded audio for the given request.
type Synthesizer interface {
	Synthesize(ctx context.Context, req SpeechRequest) ([]byte, error)
}

// VoiceOption maps a user-facing selector onto a provider voice.
type VoiceOption struct {
	Selector    string `json:"selector"`
	Voice       string `json:"voice"`
	Description string `json:"description"`
}

const defaultSelector = "neutral"

// voiceTable maps the small enumerated selector set to provider voices.
var voiceTable = []VoiceOption{
	{Selector: "female", Voice: "nova", Description: "Clear female voice"},
	{Selector: "male", Voice: "onyx", Description: "Deep male voice"},
	{Selector: "neutral", Voice: "alloy", Description: "Neutral voice"},
}

// ResolveVoice maps a selector to its provider voice. Unrecognized
// selectors resolve to the default voice rather than failing.
func ResolveVoice(selector string) string {
	trimmed := strings.ToLower(strings.TrimSpace(selector))
	for _, option := range voiceTable {
		if option.Selector == trimmed {
			return option.Voice
		}
	}
	for _, option := range voiceTable {
		if option.Selector == defaultSelector {
			return option.Voice
		}
	}
	return "alloy"
}

// Voices returns the selector catalog.
func Voices() []VoiceOption {
	out := make([]VoiceOption, len(voiceTable))
	copy(out, voiceTable)
	return out
}
