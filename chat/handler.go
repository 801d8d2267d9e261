package chat

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"endxiety_back/authorization"
	"endxiety_back/cache"
	"endxiety_back/llm"
)

const historyLimit = 50

// Module serves the AI companion chat endpoints.
type Module struct {
	db        *gorm.DB
	responder *llm.Responder
	history   *historyCache
}

// userRecord reads the username column owned by the authorization module.
type userRecord struct {
	ID       uint
	Username string
}

func (userRecord) TableName() string { return "users" }

// RegisterRoutes sets up the chat endpoints under /api/chat.
func RegisterRoutes(router *gin.Engine, guard *authorization.Guard, responder *llm.Responder) (*Module, error) {
	db, err := openDatabaseFromEnv()
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(&Message{}); err != nil {
		return nil, err
	}

	redisClient, err := cache.GetRedisClient()
	if err != nil {
		log.Printf("chat: redis unavailable, history cache disabled: %v", err)
	}

	module := &Module{
		db:        db,
		responder: responder,
		history:   newHistoryCache(redisClient),
	}

	group := router.Group("/api/chat")
	if guard != nil {
		group.Use(guard.RequireAuthenticated())
	} else {
		group.Use(func(c *gin.Context) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization middleware missing"})
		})
	}
	group.POST("", module.handleSendMessage)
	group.GET("", module.handleHistory)

	return module, nil
}

type sendMessageRequest struct {
	Message string `json:"message" binding:"required"`
}

func (m *Module) handleSendMessage(c *gin.Context) {
	userID := authorization.CurrentUserID(c)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message is required"})
		return
	}

	content := strings.TrimSpace(req.Message)
	if content == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message is required"})
		return
	}

	ctx := c.Request.Context()

	userMessage := Message{UserID: userID, Content: content, IsUserMessage: true}
	if err := m.db.WithContext(ctx).Create(&userMessage).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save message"})
		return
	}
	m.history.invalidate(ctx, userID)

	messages, err := m.loadHistory(ctx, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load chat history"})
		return
	}

	turns := make([]llm.ConversationTurn, 0, len(messages))
	for _, msg := range messages {
		turns = append(turns, llm.ConversationTurn{Content: msg.Content, IsFromUser: msg.IsUserMessage})
	}

	reply := m.responder.ChatbotResponse(ctx, turns, m.displayName(ctx, userID))

	aiMessage := Message{UserID: userID, Content: reply, IsUserMessage: false}
	if err := m.db.WithContext(ctx).Create(&aiMessage).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save response"})
		return
	}
	m.history.invalidate(ctx, userID)

	c.JSON(http.StatusOK, gin.H{
		"user_message": userMessage,
		"ai_message":   aiMessage,
	})
}

func (m *Module) handleHistory(c *gin.Context) {
	userID := authorization.CurrentUserID(c)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	ctx := c.Request.Context()

	if cached, err := m.history.get(ctx, userID); err == nil {
		c.JSON(http.StatusOK, gin.H{"messages": cached})
		return
	} else if !errors.Is(err, redis.Nil) {
		log.Printf("chat: read history cache failed: %v", err)
	}

	messages, err := m.loadHistory(ctx, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load chat history"})
		return
	}

	m.history.store(ctx, userID, messages)

	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

// loadHistory returns the most recent messages in chronological order.
func (m *Module) loadHistory(ctx context.Context, userID uint) ([]Message, error) {
	var messages []Message
	err := m.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(historyLimit).
		Find(&messages).Error
	if err != nil {
		return nil, err
	}

	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

func (m *Module) displayName(ctx context.Context, userID uint) string {
	var user userRecord
	if err := m.db.WithContext(ctx).Where("id = ?", userID).First(&user).Error; err != nil {
		return ""
	}
	return user.Username
}
