package tts

import (
	"bytes"
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type fakeSynthesizer struct {
	calls atomic.Int64
	err   error
}

func (f *fakeSynthesizer) Synthesize(_ context.Context, req SpeechRequest) ([]byte, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return []byte("audio:" + req.Voice + ":" + req.Text), nil
}

func newTestCache(backend Synthesizer, start time.Time) (*SpeechCache, *time.Time) {
	clock := start
	cache := NewSpeechCache(backend)
	cache.lastClear = start
	cache.now = func() time.Time { return clock }
	return cache, &clock
}

func TestSpeakCachesIdenticalRequests(t *testing.T) {
	backend := &fakeSynthesizer{}
	cache, _ := newTestCache(backend, time.Now())

	first, err := cache.Speak(context.Background(), "Take a slow breath.", "female", 1.0)
	if err != nil {
		t.Fatalf("first Speak returned error: %v", err)
	}
	second, err := cache.Speak(context.Background(), "Take a slow breath.", "female", 1.0)
	if err != nil {
		t.Fatalf("second Speak returned error: %v", err)
	}

	if got := backend.calls.Load(); got != 1 {
		t.Fatalf("backend called %d times, want 1", got)
	}
	if !bytes.Equal(first, second) {
		t.Fatalf("cached audio differs from original")
	}
}

func TestSpeakKeyIncludesRateAndVoice(t *testing.T) {
	backend := &fakeSynthesizer{}
	cache, _ := newTestCache(backend, time.Now())

	ctx := context.Background()
	if _, err := cache.Speak(ctx, "hello", "female", 1.0); err != nil {
		t.Fatalf("Speak: %v", err)
	}
	if _, err := cache.Speak(ctx, "hello", "female", 1.5); err != nil {
		t.Fatalf("Speak with faster rate: %v", err)
	}
	if _, err := cache.Speak(ctx, "hello", "male", 1.0); err != nil {
		t.Fatalf("Speak with other voice: %v", err)
	}

	if got := backend.calls.Load(); got != 3 {
		t.Fatalf("backend called %d times, want 3 distinct syntheses", got)
	}
	if got := cache.Size(); got != 3 {
		t.Fatalf("cache holds %d entries, want 3", got)
	}
}

func TestSpeakClearsCacheAfterInterval(t *testing.T) {
	backend := &fakeSynthesizer{}
	start := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	cache, clock := newTestCache(backend, start)

	ctx := context.Background()
	if _, err := cache.Speak(ctx, "hello", "neutral", 1.0); err != nil {
		t.Fatalf("Speak: %v", err)
	}

	*clock = start.Add(30 * time.Minute)
	if _, err := cache.Speak(ctx, "hello", "neutral", 1.0); err != nil {
		t.Fatalf("Speak within interval: %v", err)
	}
	if got := backend.calls.Load(); got != 1 {
		t.Fatalf("backend called %d times before clear, want 1", got)
	}

	*clock = start.Add(cacheClearInterval)
	if _, err := cache.Speak(ctx, "hello", "neutral", 1.0); err != nil {
		t.Fatalf("Speak after interval: %v", err)
	}
	if got := backend.calls.Load(); got != 2 {
		t.Fatalf("backend called %d times after clear, want 2", got)
	}
	if got := cache.Size(); got != 1 {
		t.Fatalf("cache holds %d entries after clear, want 1", got)
	}
}

func TestSpeakRejectsEmptyText(t *testing.T) {
	backend := &fakeSynthesizer{}
	cache, _ := newTestCache(backend, time.Now())

	for _, text := range []string{"", "   ", "\n\t"} {
		if _, err := cache.Speak(context.Background(), text, "female", 1.0); !errors.Is(err, ErrEmptyText) {
			t.Fatalf("Speak(%q) error = %v, want ErrEmptyText", text, err)
		}
	}
	if got := backend.calls.Load(); got != 0 {
		t.Fatalf("backend called %d times for empty text, want 0", got)
	}
}

func TestSpeakDoesNotCacheFailures(t *testing.T) {
	backend := &fakeSynthesizer{err: ErrRateLimited}
	cache, _ := newTestCache(backend, time.Now())

	if _, err := cache.Speak(context.Background(), "hello", "female", 1.0); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("Speak error = %v, want ErrRateLimited", err)
	}
	if got := cache.Size(); got != 0 {
		t.Fatalf("failed synthesis was cached, size = %d", got)
	}

	backend.err = nil
	if _, err := cache.Speak(context.Background(), "hello", "female", 1.0); err != nil {
		t.Fatalf("Speak after recovery: %v", err)
	}
	if got := backend.calls.Load(); got != 2 {
		t.Fatalf("backend called %d times, want retry after failure", got)
	}
}

func TestSpeakDefaultsNonPositiveRate(t *testing.T) {
	backend := &fakeSynthesizer{}
	cache, _ := newTestCache(backend, time.Now())

	ctx := context.Background()
	if _, err := cache.Speak(ctx, "hello", "female", 0); err != nil {
		t.Fatalf("Speak with zero rate: %v", err)
	}
	if _, err := cache.Speak(ctx, "hello", "female", 1.0); err != nil {
		t.Fatalf("Speak with explicit rate: %v", err)
	}
	if got := backend.calls.Load(); got != 1 {
		t.Fatalf("backend called %d times, zero rate should share the normal-speed entry", got)
	}
}

func TestResolveVoice(t *testing.T) {
	cases := map[string]string{
		"female":  "nova",
		"male":    "onyx",
		"neutral": "alloy",
		"":        "alloy",
		"robot":   "alloy",
	}
	for selector, want := range cases {
		if got := ResolveVoice(selector); got != want {
			t.Errorf("ResolveVoice(%q) = %q, want %q", selector, got, want)
		}
	}
}
