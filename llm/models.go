package llm

import "time"

// Sentiment labels produced by emotion analysis.
const (
	SentimentPositive = "positive"
	SentimentNegative = "negative"
	SentimentNeutral  = "neutral"
)

// EmotionAnalysis is the advisory triple derived from free text.
type EmotionAnalysis struct {
	Emotion   string `json:"emotion"`
	Intensity int    `json:"intensity"`
	Sentiment string `json:"sentiment"`
}

// ConversationTurn is a single chat exchange entry, oldest first when listed.
type ConversationTurn struct {
	Content    string
	IsFromUser bool
}

// MoodSample is one mood-history data point fed into wellbeing analysis.
type MoodSample struct {
	Mood      string    `json:"mood"`
	CreatedAt time.Time `json:"timestamp"`
}

// WellbeingTip is a single categorized, actionable suggestion.
type WellbeingTip struct {
	Category string `json:"category"`
	Title    string `json:"title"`
	Content  string `json:"content"`
	Icon     string `json:"icon"`
}

// WellbeingReport bundles pattern insights with actionable tips.
type WellbeingReport struct {
	Insights []string       `json:"insights"`
	Tips     []WellbeingTip `json:"tips"`
}
