package moods

import "time"

// Mood is a single mood check-in recorded by a user.
type Mood struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index;not null" json:"user_id"`
	MoodType  string    `gorm:"size:32;not null" json:"mood_type"`
	Emoji     string    `gorm:"size:16;not null" json:"emoji"`
	Note      *string   `gorm:"type:text" json:"note,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// MoodType describes one selectable mood in the check-in UI.
type MoodType struct {
	Emoji string `json:"emoji"`
	Label string `json:"label"`
}

// moodCatalog is the fixed set of moods users can pick from.
var moodCatalog = []MoodType{
	{Emoji: "😊", Label: "Happy"},
	{Emoji: "😢", Label: "Sad"},
	{Emoji: "😠", Label: "Angry"},
	{Emoji: "😞", Label: "Irritated"},
	{Emoji: "😩", Label: "Exhausted"},
}

// Catalog returns the selectable mood types.
func Catalog() []MoodType {
	out := make([]MoodType, len(moodCatalog))
	copy(out, moodCatalog)
	return out
}

// IsValidMood reports whether label names a mood from the catalog.
func IsValidMood(label string) bool {
	for _, m := range moodCatalog {
		if m.Label == label {
			return true
		}
	}
	return false
}

// EmojiFor returns the emoji associated with the given mood label.
func EmojiFor(label string) string {
	for _, m := range moodCatalog {
		if m.Label == label {
			return m.Emoji
		}
	}
	return ""
}
