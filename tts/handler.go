package tts

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"endxiety_back/authorization"
)

type Module struct {
	client *SpeechClient
	cache  *SpeechCache
}

func RegisterRoutes(router *gin.Engine, guard *authorization.Guard) (*Module, error) {
	client, err := NewSpeechClientFromEnv()
	if err != nil {
		return nil, err
	}

	module := &Module{
		client: client,
		cache:  NewSpeechCache(client),
	}

	group := router.Group("/api/tts")
	group.GET("/voices", module.handleVoices)
	group.POST("", guard.RequireAuthenticated(), module.handleSpeak)

	return module, nil
}

func (m *Module) Enabled() bool {
	return m != nil && m.client != nil && m.client.Enabled()
}

func (m *Module) handleVoices(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"enabled": m.Enabled(),
		"voices":  Voices(),
	})
}

type speakRequest struct {
	Text      string   `json:"text" binding:"required"`
	VoiceType string   `json:"voice_type"`
	Rate      *float64 `json:"speaking_rate"`
}

func (m *Module) handleSpeak(c *gin.Context) {
	var req speakRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "text is required"})
		return
	}

	rate := 1.0
	if req.Rate != nil && *req.Rate > 0 {
		rate = clampFloat(*req.Rate, 0.25, 4.0)
	}

	audio, err := m.cache.Speak(c.Request.Context(), req.Text, strings.TrimSpace(req.VoiceType), rate)
	if err != nil {
		status := http.StatusBadGateway
		switch {
		case errors.Is(err, ErrEmptyText):
			status = http.StatusBadRequest
		case errors.Is(err, ErrRateLimited):
			status = http.StatusTooManyRequests
		case errors.Is(err, ErrDisabled):
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.Header("Cache-Control", "public, max-age=3600")
	c.Data(http.StatusOK, "audio/mpeg", audio)
}

func clampFloat(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
