package llm

import (
	"context"
	"encoding/json"
	"log"
	"math/rand/v2"
	"strings"
)

const (
	supportiveMaxTokens = 300
	chatMaxTokens       = 200
	replyTemperature    = 0.7
)

// Completer is the language-completion backend the responder depends on.
// *ChatClient satisfies it; tests substitute a fake.
type Completer interface {
	Chat(ctx context.Context, messages []ChatMessage, opts ChatOptions) (ChatResult, error)
}

// Responder generates supportive replies, chat responses, and wellbeing
// reports. It never returns an error: every backend failure is absorbed
// into a neutral analysis or a canned fallback message.
type Responder struct {
	backend Completer

	// pick selects a fallback index in [0,n); injectable for tests.
	pick func(n int) int
}

// NewResponder wires a responder to the given completion backend.
func NewResponder(backend Completer) *Responder {
	return &Responder{
		backend: backend,
		pick:    rand.IntN,
	}
}

// NewResponderFromEnv builds a responder backed by a ChatClient configured
// from environment variables.
func NewResponderFromEnv() (*Responder, error) {
	client, err := NewChatClientFromEnv()
	if err != nil {
		return nil, err
	}
	return NewResponder(client), nil
}

// neutralAnalysis is the advisory default used whenever analysis fails.
// Callers cannot distinguish a failed analysis from a genuinely neutral one.
func neutralAnalysis() EmotionAnalysis {
	return EmotionAnalysis{Emotion: "unknown", Intensity: 5, Sentiment: SentimentNeutral}
}

// AnalyzeEmotion derives an emotion label, intensity, and sentiment from
// free text using a single JSON-mode backend call. Any transport, parse,
// or shape failure yields the neutral default; no retries.
func (r *Responder) AnalyzeEmotion(ctx context.Context, text string) EmotionAnalysis {
	if r == nil || r.backend == nil || strings.TrimSpace(text) == "" {
		return neutralAnalysis()
	}

	result, err := r.backend.Chat(ctx, []ChatMessage{
		{Role: "system", Content: emotionAnalysisInstruction},
		{Role: "user", Content: text},
	}, ChatOptions{JSONObject: true})
	if err != nil {
		log.Printf("llm: emotion analysis failed: %v", err)
		return neutralAnalysis()
	}

	var analysis EmotionAnalysis
	if err := json.Unmarshal([]byte(result.Content), &analysis); err != nil {
		log.Printf("llm: emotion analysis payload unparsable: %v", err)
		return neutralAnalysis()
	}
	if !validAnalysis(analysis) {
		log.Printf("llm: emotion analysis payload rejected: %+v", analysis)
		return neutralAnalysis()
	}

	analysis.Emotion = strings.TrimSpace(analysis.Emotion)
	analysis.Sentiment = strings.ToLower(strings.TrimSpace(analysis.Sentiment))
	return analysis
}

// validAnalysis treats the backend payload as untrusted input. A shape
// violation fails the whole analysis, same as a transport error.
func validAnalysis(a EmotionAnalysis) bool {
	if strings.TrimSpace(a.Emotion) == "" {
		return false
	}
	if a.Intensity < 1 || a.Intensity > 10 {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(a.Sentiment)) {
	case SentimentPositive, SentimentNegative, SentimentNeutral:
		return true
	default:
		return false
	}
}

// SupportiveResponse produces a supportive reply to a community post.
// content may be blank; mood, when present, is the user's self-selected
// label. The call always returns usable text.
func (r *Responder) SupportiveResponse(ctx context.Context, content, mood string) string {
	var analysis *EmotionAnalysis
	if strings.TrimSpace(content) != "" {
		a := r.AnalyzeEmotion(ctx, content)
		analysis = &a
	}

	messages := []ChatMessage{
		{Role: "system", Content: buildSupportivePrompt(analysis, mood)},
		{Role: "user", Content: content},
	}

	result, err := r.backend.Chat(ctx, messages, ChatOptions{
		MaxTokens:   supportiveMaxTokens,
		Temperature: replyTemperature,
	})
	if err != nil {
		log.Printf("llm: supportive response failed, using fallback: %v", err)
		return r.pickFrom(supportiveFallbacks)
	}
	if strings.TrimSpace(result.Content) == "" {
		return genericSupportiveReply
	}
	return result.Content
}

// ChatbotResponse produces the companion's next reply for a conversation.
// turns are ordered oldest first; the latest user-authored turn is analyzed
// when one exists, otherwise analysis is skipped entirely.
func (r *Responder) ChatbotResponse(ctx context.Context, turns []ConversationTurn, displayName string) string {
	var analysis *EmotionAnalysis
	if latest := latestUserTurn(turns); strings.TrimSpace(latest) != "" {
		a := r.AnalyzeEmotion(ctx, latest)
		analysis = &a
	}

	messages := make([]ChatMessage, 0, len(turns)+1)
	messages = append(messages, ChatMessage{Role: "system", Content: buildChatPrompt(analysis, displayName)})
	for _, turn := range turns {
		role := "assistant"
		if turn.IsFromUser {
			role = "user"
		}
		messages = append(messages, ChatMessage{Role: role, Content: turn.Content})
	}

	result, err := r.backend.Chat(ctx, messages, ChatOptions{
		MaxTokens:   chatMaxTokens,
		Temperature: replyTemperature,
	})
	if err != nil {
		log.Printf("llm: chatbot response failed, using fallback: %v", err)
		return r.pickFrom(chatFallbacks)
	}
	if strings.TrimSpace(result.Content) == "" {
		return genericSupportiveReply
	}
	return result.Content
}

// WellbeingTips turns a mood history into 2-3 insights and exactly 3
// categorized tips. The result is all-or-nothing: a failed or malformed
// backend reply yields the complete fallback bundle.
func (r *Responder) WellbeingTips(ctx context.Context, history []MoodSample) WellbeingReport {
	if history == nil {
		history = []MoodSample{}
	}
	payload, err := json.Marshal(history)
	if err != nil {
		log.Printf("llm: encode mood history: %v", err)
		return fallbackWellbeingReport()
	}

	result, err := r.backend.Chat(ctx, []ChatMessage{
		{Role: "system", Content: wellbeingInstruction},
		{Role: "user", Content: string(payload)},
	}, ChatOptions{JSONObject: true})
	if err != nil {
		log.Printf("llm: wellbeing tips failed, using fallback: %v", err)
		return fallbackWellbeingReport()
	}

	var report WellbeingReport
	if err := json.Unmarshal([]byte(result.Content), &report); err != nil {
		log.Printf("llm: wellbeing payload unparsable: %v", err)
		return fallbackWellbeingReport()
	}
	if !validReport(report) {
		log.Printf("llm: wellbeing payload rejected")
		return fallbackWellbeingReport()
	}

	for i := range report.Tips {
		if strings.TrimSpace(report.Tips[i].Icon) == "" {
			report.Tips[i].Icon = "fas fa-heart"
		}
	}
	return report
}

func validReport(report WellbeingReport) bool {
	if len(report.Insights) == 0 || len(report.Tips) == 0 {
		return false
	}
	for _, insight := range report.Insights {
		if strings.TrimSpace(insight) == "" {
			return false
		}
	}
	for _, tip := range report.Tips {
		if strings.TrimSpace(tip.Category) == "" ||
			strings.TrimSpace(tip.Title) == "" ||
			strings.TrimSpace(tip.Content) == "" {
			return false
		}
	}
	return true
}

// latestUserTurn scans from the end for the most recent user-authored turn.
func latestUserTurn(turns []ConversationTurn) string {
	for i := len(turns) - 1; i >= 0; i-- {
		if turns[i].IsFromUser {
			return turns[i].Content
		}
	}
	return ""
}

func (r *Responder) pickFrom(pool []string) string {
	if len(pool) == 0 {
		return genericSupportiveReply
	}
	return pool[r.pick(len(pool))]
}
