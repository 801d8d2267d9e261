package chat

import "time"

// Message is one entry of the companion chat history.
type Message struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	UserID        uint      `gorm:"index;not null" json:"user_id"`
	Content       string    `gorm:"type:text;not null" json:"content"`
	IsUserMessage bool      `gorm:"not null" json:"is_user_message"`
	CreatedAt     time.Time `json:"created_at"`
}

func (Message) TableName() string { return "chat_messages" }
