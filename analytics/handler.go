package analytics

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"endxiety_back/authorization"
	"endxiety_back/llm"
)

// Module serves aggregated wellbeing analytics.
type Module struct {
	db        *gorm.DB
	responder *llm.Responder
}

// moodRecord reads the columns owned by the moods module.
type moodRecord struct {
	MoodType  string
	CreatedAt time.Time
}

func (moodRecord) TableName() string { return "moods" }

type postRecord struct {
	ID uint
}

func (postRecord) TableName() string { return "posts" }

// WellbeingSnapshot keeps the generated report so mood trends can be
// reviewed later without regenerating tips.
type WellbeingSnapshot struct {
	ID        uint           `gorm:"primaryKey"`
	UserID    uint           `gorm:"index;not null"`
	Report    datatypes.JSON `gorm:"not null"`
	CreatedAt time.Time
}

// RegisterRoutes sets up GET /api/analytics.
func RegisterRoutes(router *gin.Engine, guard *authorization.Guard, responder *llm.Responder) (*Module, error) {
	db, err := openDatabaseFromEnv()
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(&WellbeingSnapshot{}); err != nil {
		return nil, err
	}

	module := &Module{db: db, responder: responder}

	group := router.Group("/api/analytics")
	if guard != nil {
		group.Use(guard.RequireAuthenticated())
	} else {
		group.Use(func(c *gin.Context) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization middleware missing"})
		})
	}
	group.GET("", module.handleAnalytics)

	return module, nil
}

func (m *Module) handleAnalytics(c *gin.Context) {
	userID := authorization.CurrentUserID(c)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	ctx := c.Request.Context()

	var records []moodRecord
	err := m.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&records).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load moods"})
		return
	}

	var totalPosts int64
	if err := m.db.WithContext(ctx).Model(&postRecord{}).Where("user_id = ?", userID).Count(&totalPosts).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load posts"})
		return
	}

	labels := make([]string, 0, len(records))
	entries := make([]moodEntry, 0, len(records))
	samples := make([]llm.MoodSample, 0, len(records))
	for _, record := range records {
		labels = append(labels, record.MoodType)
		entries = append(entries, moodEntry{Label: record.MoodType, CreatedAt: record.CreatedAt})
		samples = append(samples, llm.MoodSample{Mood: record.MoodType, CreatedAt: record.CreatedAt})
	}

	wellbeing := m.responder.WellbeingTips(ctx, samples)
	m.saveSnapshot(c, userID, wellbeing)

	c.JSON(http.StatusOK, gin.H{
		"mood_distribution":  distribution(labels),
		"overall_score":      overallScore(labels),
		"moods_by_day":       moodsByDay(entries, time.Now()),
		"insights":           wellbeing.Insights,
		"wellbeing_tips":     wellbeing.Tips,
		"total_posts":        totalPosts,
		"total_mood_entries": len(records),
	})
}

// saveSnapshot persists the report best effort; a failure never blocks
// the analytics response.
func (m *Module) saveSnapshot(c *gin.Context, userID uint, report llm.WellbeingReport) {
	payload, err := json.Marshal(report)
	if err != nil {
		log.Printf("analytics: marshal wellbeing report failed: %v", err)
		return
	}

	snapshot := WellbeingSnapshot{UserID: userID, Report: datatypes.JSON(payload)}
	if err := m.db.WithContext(c.Request.Context()).Create(&snapshot).Error; err != nil {
		log.Printf("analytics: save wellbeing snapshot failed: %v", err)
	}
}
