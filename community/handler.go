package community

import (
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"endxiety_back/authorization"
	"endxiety_back/llm"
	"endxiety_back/moods"
)

const maxFeedPosts = 100

// Module serves the community feed endpoints.
type Module struct {
	db        *gorm.DB
	responder *llm.Responder
}

// RegisterRoutes sets up the community endpoints under /api/posts.
func RegisterRoutes(router *gin.Engine, guard *authorization.Guard, responder *llm.Responder) (*Module, error) {
	db, err := openDatabaseFromEnv()
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(&Post{}, &Reaction{}, &Comment{}, &AIResponse{}); err != nil {
		return nil, err
	}

	module := &Module{db: db, responder: responder}

	group := router.Group("/api/posts")
	if guard != nil {
		group.Use(guard.RequireAuthenticated())
	} else {
		group.Use(func(c *gin.Context) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization middleware missing"})
		})
	}
	group.POST("", module.handleCreatePost)
	group.GET("", module.handleListPosts)
	group.POST("/:postID/reactions", module.handleCreateReaction)
	group.POST("/:postID/comments", module.handleCreateComment)
	group.GET("/:postID/comments", module.handleListComments)

	return module, nil
}

type createPostRequest struct {
	Content string  `json:"content" binding:"required"`
	Mood    *string `json:"mood"`
}

func (m *Module) handleCreatePost(c *gin.Context) {
	userID := authorization.CurrentUserID(c)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	var req createPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "content is required"})
		return
	}

	content := strings.TrimSpace(req.Content)
	if content == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "content is required"})
		return
	}

	var mood *string
	if req.Mood != nil {
		trimmed := strings.TrimSpace(*req.Mood)
		if trimmed != "" {
			if !moods.IsValidMood(trimmed) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "unknown mood type"})
				return
			}
			mood = &trimmed
		}
	}

	post := Post{UserID: userID, Content: content, Mood: mood}
	if err := m.db.WithContext(c.Request.Context()).Create(&post).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create post"})
		return
	}

	moodLabel := ""
	if mood != nil {
		moodLabel = *mood
	}
	reply := m.responder.SupportiveResponse(c.Request.Context(), content, moodLabel)

	response := AIResponse{PostID: post.ID, Content: reply}
	if err := m.db.WithContext(c.Request.Context()).Create(&response).Error; err != nil {
		log.Printf("community: persist ai response for post %d failed: %v", post.ID, err)
	}

	c.JSON(http.StatusCreated, gin.H{"post": post, "ai_response": reply})
}

type feedPost struct {
	Post
	Username     string         `json:"username"`
	AIResponse   *string        `json:"ai_response"`
	Reactions    map[string]int `json:"reactions"`
	CommentCount int            `json:"comment_count"`
}

func (m *Module) handleListPosts(c *gin.Context) {
	ctx := c.Request.Context()

	var posts []Post
	err := m.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(maxFeedPosts).
		Find(&posts).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load posts"})
		return
	}

	if len(posts) == 0 {
		c.JSON(http.StatusOK, gin.H{"posts": []feedPost{}})
		return
	}

	postIDs := make([]uint, 0, len(posts))
	userIDs := make([]uint, 0, len(posts))
	for _, p := range posts {
		postIDs = append(postIDs, p.ID)
		userIDs = append(userIDs, p.UserID)
	}

	var reactions []Reaction
	if err := m.db.WithContext(ctx).Where("post_id IN ?", postIDs).Find(&reactions).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load reactions"})
		return
	}
	reactionsByPost := make(map[uint][]Reaction)
	for _, r := range reactions {
		reactionsByPost[r.PostID] = append(reactionsByPost[r.PostID], r)
	}

	var responses []AIResponse
	if err := m.db.WithContext(ctx).Where("post_id IN ?", postIDs).Find(&responses).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load responses"})
		return
	}
	responseByPost := make(map[uint]string, len(responses))
	for _, r := range responses {
		responseByPost[r.PostID] = r.Content
	}

	type commentCount struct {
		PostID uint
		Total  int
	}
	var commentCounts []commentCount
	err = m.db.WithContext(ctx).
		Model(&Comment{}).
		Select("post_id, COUNT(*) AS total").
		Where("post_id IN ?", postIDs).
		Group("post_id").
		Scan(&commentCounts).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load comments"})
		return
	}
	commentsByPost := make(map[uint]int, len(commentCounts))
	for _, cc := range commentCounts {
		commentsByPost[cc.PostID] = cc.Total
	}

	usernames := m.loadUsernames(c, userIDs)

	feed := make([]feedPost, 0, len(posts))
	for _, p := range posts {
		entry := feedPost{
			Post:         p,
			Username:     usernames[p.UserID],
			Reactions:    countReactions(reactionsByPost[p.ID]),
			CommentCount: commentsByPost[p.ID],
		}
		if entry.Username == "" {
			entry.Username = "Anonymous"
		}
		if reply, ok := responseByPost[p.ID]; ok {
			entry.AIResponse = &reply
		}
		feed = append(feed, entry)
	}

	c.JSON(http.StatusOK, gin.H{"posts": feed})
}

type createReactionRequest struct {
	Type string `json:"type" binding:"required"`
}

func (m *Module) handleCreateReaction(c *gin.Context) {
	userID := authorization.CurrentUserID(c)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	postID, ok := parsePostID(c)
	if !ok {
		return
	}

	var req createReactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "reaction type is required"})
		return
	}

	kind := strings.TrimSpace(req.Type)
	if !IsValidReaction(kind) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown reaction type"})
		return
	}

	if !m.postExists(c, postID) {
		return
	}

	reaction := Reaction{PostID: postID, UserID: userID, Type: kind}
	if err := m.db.WithContext(c.Request.Context()).Create(&reaction).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create reaction"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"reaction": reaction})
}

type createCommentRequest struct {
	Content string `json:"content" binding:"required"`
}

func (m *Module) handleCreateComment(c *gin.Context) {
	userID := authorization.CurrentUserID(c)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	postID, ok := parsePostID(c)
	if !ok {
		return
	}

	var req createCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "content is required"})
		return
	}

	content := strings.TrimSpace(req.Content)
	if content == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "content is required"})
		return
	}

	if !m.postExists(c, postID) {
		return
	}

	comment := Comment{PostID: postID, UserID: userID, Content: content}
	if err := m.db.WithContext(c.Request.Context()).Create(&comment).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create comment"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"comment": comment})
}

type commentView struct {
	Comment
	Username string `json:"username"`
}

func (m *Module) handleListComments(c *gin.Context) {
	postID, ok := parsePostID(c)
	if !ok {
		return
	}

	var comments []Comment
	err := m.db.WithContext(c.Request.Context()).
		Where("post_id = ?", postID).
		Order("created_at ASC").
		Find(&comments).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load comments"})
		return
	}

	userIDs := make([]uint, 0, len(comments))
	for _, comment := range comments {
		userIDs = append(userIDs, comment.UserID)
	}
	usernames := m.loadUsernames(c, userIDs)

	views := make([]commentView, 0, len(comments))
	for _, comment := range comments {
		name := usernames[comment.UserID]
		if name == "" {
			name = "Anonymous"
		}
		views = append(views, commentView{Comment: comment, Username: name})
	}

	c.JSON(http.StatusOK, gin.H{"comments": views})
}

func (m *Module) loadUsernames(c *gin.Context, userIDs []uint) map[uint]string {
	names := make(map[uint]string)
	if len(userIDs) == 0 {
		return names
	}

	var users []userRecord
	if err := m.db.WithContext(c.Request.Context()).Where("id IN ?", userIDs).Find(&users).Error; err != nil {
		log.Printf("community: load usernames failed: %v", err)
		return names
	}
	for _, u := range users {
		names[u.ID] = u.Username
	}
	return names
}

func (m *Module) postExists(c *gin.Context, postID uint) bool {
	var count int64
	if err := m.db.WithContext(c.Request.Context()).Model(&Post{}).Where("id = ?", postID).Count(&count).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load post"})
		return false
	}
	if count == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "post not found"})
		return false
	}
	return true
}

func parsePostID(c *gin.Context) (uint, bool) {
	raw := strings.TrimSpace(c.Param("postID"))
	parsed, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || parsed == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid post id"})
		return 0, false
	}
	return uint(parsed), true
}
