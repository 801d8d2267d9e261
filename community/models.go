package community

import "time"

// Post is a shared experience on the community feed.
type Post struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index;not null" json:"user_id"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	Mood      *string   `gorm:"size:32" json:"mood,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Reaction records one user's reaction to a post.
type Reaction struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PostID    uint      `gorm:"index;not null" json:"post_id"`
	UserID    uint      `gorm:"not null" json:"user_id"`
	Type      string    `gorm:"size:32;not null" json:"type"`
	CreatedAt time.Time `json:"created_at"`
}

// Comment is a reply left under a post.
type Comment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PostID    uint      `gorm:"index;not null" json:"post_id"`
	UserID    uint      `gorm:"not null" json:"user_id"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// AIResponse stores the generated supportive reply attached to a post.
type AIResponse struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PostID    uint      `gorm:"uniqueIndex;not null" json:"post_id"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// userRecord reads the display fields owned by the authorization
// module without importing its full model.
type userRecord struct {
	ID       uint
	Username string
}

func (userRecord) TableName() string { return "users" }

// reactionTypes is the fixed set of reactions a post can receive.
var reactionTypes = []string{"support", "relatable", "hugs"}

// IsValidReaction reports whether kind names a known reaction type.
func IsValidReaction(kind string) bool {
	for _, t := range reactionTypes {
		if t == kind {
			return true
		}
	}
	return false
}

// countReactions tallies reactions per type, always emitting every
// known type so clients render stable counters.
func countReactions(reactions []Reaction) map[string]int {
	counts := make(map[string]int, len(reactionTypes))
	for _, t := range reactionTypes {
		counts[t] = 0
	}
	for _, r := range reactions {
		if _, ok := counts[r.Type]; ok {
			counts[r.Type]++
		}
	}
	return counts
}
