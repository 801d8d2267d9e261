package moods

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"endxiety_back/authorization"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// Module serves mood check-in endpoints.
type Module struct {
	db *gorm.DB
}

// RegisterRoutes sets up the mood endpoints under /api/moods.
func RegisterRoutes(router *gin.Engine, guard *authorization.Guard) (*Module, error) {
	db, err := openDatabaseFromEnv()
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(&Mood{}); err != nil {
		return nil, err
	}

	module := &Module{db: db}

	group := router.Group("/api/moods")
	group.GET("/types", module.handleListTypes)

	authGroup := group.Group("")
	if guard != nil {
		authGroup.Use(guard.RequireAuthenticated())
	} else {
		authGroup.Use(func(c *gin.Context) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization middleware missing"})
		})
	}
	authGroup.POST("", module.handleCreateMood)
	authGroup.GET("", module.handleListMoods)

	return module, nil
}

func (m *Module) handleListTypes(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"mood_types": Catalog()})
}

type createMoodRequest struct {
	MoodType string  `json:"mood_type" binding:"required"`
	Note     *string `json:"note"`
}

func (m *Module) handleCreateMood(c *gin.Context) {
	userID := authorization.CurrentUserID(c)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	var req createMoodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "mood_type is required"})
		return
	}

	label := strings.TrimSpace(req.MoodType)
	if !IsValidMood(label) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown mood type"})
		return
	}

	var note *string
	if req.Note != nil {
		if trimmed := strings.TrimSpace(*req.Note); trimmed != "" {
			note = &trimmed
		}
	}

	mood := Mood{
		UserID:   userID,
		MoodType: label,
		Emoji:    EmojiFor(label),
		Note:     note,
	}
	if err := m.db.WithContext(c.Request.Context()).Create(&mood).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record mood"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"mood": mood})
}

func (m *Module) handleListMoods(c *gin.Context) {
	userID := authorization.CurrentUserID(c)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	limit := defaultListLimit
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
			if limit > maxListLimit {
				limit = maxListLimit
			}
		}
	}

	var moods []Mood
	err := m.db.WithContext(c.Request.Context()).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&moods).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load moods"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"moods": moods})
}
