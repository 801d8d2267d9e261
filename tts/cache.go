package tts

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"
)

const cacheClearInterval = time.Hour

// SpeechCache fronts a Synthesizer with an in-memory, content-addressed
// audio cache. Entries are keyed by the hash of the resolved synthesis
// parameters, so identical requests are served without touching the
// backend. The whole cache is cleared once the interval elapses.
type SpeechCache struct {
	backend Synthesizer

	mu        sync.Mutex
	entries   map[string][]byte
	lastClear time.Time

	now func() time.Time
}

// NewSpeechCache wraps backend with an empty cache.
func NewSpeechCache(backend Synthesizer) *SpeechCache {
	return &SpeechCache{
		backend:   backend,
		entries:   make(map[string][]byte),
		lastClear: time.Now(),
		now:       time.Now,
	}
}

func cacheKey(text, voice string, rate float64) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%s|%.3f", text, voice, rate)))
	return hex.EncodeToString(sum[:])
}

// Speak synthesizes text using the voice selected by voiceSelector at
// the given speaking rate, consulting the cache first. A non-positive
// rate falls back to normal speed. Failed synthesis is never cached.
func (s *SpeechCache) Speak(ctx context.Context, text, voiceSelector string, rate float64) ([]byte, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyText
	}
	if rate <= 0 {
		rate = 1.0
	}

	voice := ResolveVoice(voiceSelector)
	key := cacheKey(text, voice, rate)

	s.mu.Lock()
	s.maybeClearLocked()
	if audio, ok := s.entries[key]; ok {
		s.mu.Unlock()
		return audio, nil
	}
	s.mu.Unlock()

	audio, err := s.backend.Synthesize(ctx, SpeechRequest{Text: text, Voice: voice, Rate: rate})
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.entries[key] = audio
	s.mu.Unlock()

	return audio, nil
}

// Size reports the number of cached clips.
func (s *SpeechCache) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *SpeechCache) maybeClearLocked() {
	now := s.now()
	if now.Sub(s.lastClear) < cacheClearInterval {
		return
	}
	if len(s.entries) > 0 {
		log.Printf("tts: clearing %d cached clips", len(s.entries))
	}
	s.entries = make(map[string][]byte)
	s.lastClear = now
}
