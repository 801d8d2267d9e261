package authorization

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	jwt "github.com/appleboy/gin-jwt/v2"
	"github.com/gin-gonic/gin"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	filestore "endxiety_back/storage"
)

const userAvatarURLExpiry = 15 * time.Minute

// Module wires together the JWT middleware and backing services.
type Module struct {
	db            *gorm.DB
	userStore     *UserStore
	jwtMiddleware *jwt.GinJWTMiddleware
	captcha       *CaptchaStore
	avatarStorage *filestore.AvatarStorage
}

// RegisterRoutes bootstraps the authentication endpoints under /api/auth.
func RegisterRoutes(router *gin.Engine) (*Module, error) {
	dsn := strings.TrimSpace(os.Getenv("DATABASE_DSN"))
	if dsn == "" {
		return nil, errors.New("authorization: DATABASE_DSN environment variable is required")
	}

	driver := strings.TrimSpace(os.Getenv("DATABASE_DRIVER"))
	if driver == "" {
		driver = inferDriverFromDSN(dsn)
		if driver == "" {
			return nil, errors.New("authorization: DATABASE_DRIVER environment variable is required when DSN does not contain a scheme")
		}
	}

	db, err := openDatabase(driver, dsn)
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(&User{}, &Role{}, &UserRole{}); err != nil {
		return nil, fmt.Errorf("authorization: migrate models: %w", err)
	}

	userStore := &UserStore{db: db}
	captchaStore := NewCaptchaStore(3 * time.Minute)
	avatarStore, err := filestore.NewAvatarStorageFromEnv()
	if err != nil {
		return nil, err
	}
	authService := &AuthService{users: userStore}

	middleware, err := buildJWTMiddleware(authService, avatarStore)
	if err != nil {
		return nil, err
	}

	module := &Module{
		db:            db,
		userStore:     userStore,
		jwtMiddleware: middleware,
		captcha:       captchaStore,
		avatarStorage: avatarStore,
	}

	authGroup := router.Group("/api/auth")
	authGroup.GET("/captcha", module.handleCaptcha)
	authGroup.POST("/register", func(c *gin.Context) {
		module.handleRegister(c, authService)
	})
	authGroup.POST("/login", module.handleLogin)
	authGroup.POST("/refresh", middleware.RefreshHandler)

	secured := authGroup.Group("")
	secured.Use(middleware.MiddlewareFunc())
	secured.GET("/profile", module.handleProfile)
	secured.PUT("/profile", module.handleUpdateProfile)
	secured.POST("/profile/avatar", module.handleUploadAvatar)

	return module, nil
}

func (m *Module) Middleware() gin.HandlerFunc {
	if m == nil || m.jwtMiddleware == nil {
		return nil
	}
	return m.jwtMiddleware.MiddlewareFunc()
}

// LoginRequest represents the expected payload for the login endpoint.
type LoginRequest struct {
	Username      string `json:"username" binding:"required"`
	Password      string `json:"password" binding:"required"`
	CaptchaID     string `json:"captcha_id" binding:"required"`
	CaptchaAnswer string `json:"captcha_answer" binding:"required"`
}

// RegisterRequest captures the payload for user registration.
type RegisterRequest struct {
	Username      string  `json:"username" binding:"required"`
	Password      string  `json:"password" binding:"required,min=6"`
	DisplayName   string  `json:"display_name"`
	CaptchaID     string  `json:"captcha_id" binding:"required"`
	CaptchaAnswer string  `json:"captcha_answer" binding:"required"`
	AvatarURL     *string `json:"avatar_url"`
	Bio           *string `json:"bio"`
}

// UpdateProfileRequest captures profile update fields.
type UpdateProfileRequest struct {
	DisplayName *string `json:"display_name"`
	AvatarURL   *string `json:"avatar_url"`
	Bio         *string `json:"bio"`
}

func (m *Module) handleCaptcha(c *gin.Context) {
	challenge := m.captcha.Issue()
	expiresIn := int(challenge.TTL.Seconds())
	if expiresIn < 1 {
		expiresIn = 1
	}
	c.JSON(http.StatusOK, gin.H{
		"captcha_id": challenge.ID,
		"image":      challenge.ImageBase64,
		"expires_in": expiresIn,
		"expires_at": challenge.ExpiresAt.UTC(),
	})
}

func (m *Module) handleRegister(c *gin.Context, service *AuthService) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request payload"})
		return
	}

	if m.captcha != nil && !m.captcha.Verify(req.CaptchaID, req.CaptchaAnswer) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid captcha"})
		return
	}

	displayName := strings.TrimSpace(req.DisplayName)
	if displayName == "" {
		displayName = req.Username
	}

	ctx := c.Request.Context()
	user, err := service.Register(ctx, req.Username, req.Password, displayName, req.AvatarURL, req.Bio)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrMissingLoginValues):
			c.JSON(http.StatusBadRequest, gin.H{"error": "username and password are required"})
		case errors.Is(err, ErrWeakPassword):
			c.JSON(http.StatusBadRequest, gin.H{"error": ErrWeakPassword.Error()})
		case errors.Is(err, ErrUsernameTaken):
			c.JSON(http.StatusConflict, gin.H{"error": "username already exists"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to register"})
		}
		return
	}

	roles, err := m.userStore.FindRoleNames(ctx, user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load user roles"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"user": buildUserPayload(ctx, m.avatarStorage, user, roles)})
}

// handleLogin verifies the captcha before handing the original body to
// the JWT login handler, which binds it a second time.
func (m *Module) handleLogin(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil || len(body) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request payload"})
		return
	}

	var req LoginRequest
	if err := json.Unmarshal(body, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request payload"})
		return
	}

	if m.captcha != nil && !m.captcha.Verify(req.CaptchaID, req.CaptchaAnswer) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid captcha"})
		return
	}

	c.Request.Body = io.NopCloser(bytes.NewReader(body))
	m.jwtMiddleware.LoginHandler(c)
}

func (m *Module) handleProfile(c *gin.Context) {
	userID := CurrentUserID(c)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	ctx := c.Request.Context()
	user, err := m.userStore.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load user"})
		return
	}

	roles, err := m.userStore.FindRoleNames(ctx, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load roles"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": buildUserPayload(ctx, m.avatarStorage, user, roles)})
}

func (m *Module) handleUpdateProfile(c *gin.Context) {
	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request payload"})
		return
	}
	if req.DisplayName == nil && req.AvatarURL == nil && req.Bio == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no fields to update"})
		return
	}

	userID := CurrentUserID(c)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	ctx := c.Request.Context()
	updated, err := m.userStore.UpdateProfile(ctx, userID, UpdateProfileParams{
		DisplayName: req.DisplayName,
		AvatarURL:   req.AvatarURL,
		Bio:         req.Bio,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidDisplayName):
			c.JSON(http.StatusBadRequest, gin.H{"error": ErrInvalidDisplayName.Error()})
		case errors.Is(err, gorm.ErrRecordNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update profile"})
		}
		return
	}

	roles, err := m.userStore.FindRoleNames(ctx, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load roles"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": buildUserPayload(ctx, m.avatarStorage, updated, roles)})
}

func (m *Module) handleUploadAvatar(c *gin.Context) {
	if m.avatarStorage == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "avatar upload not configured"})
		return
	}

	userID := CurrentUserID(c)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	file, err := c.FormFile("avatar")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "avatar file is required"})
		return
	}

	ctx := c.Request.Context()
	existing, err := m.userStore.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load user"})
		}
		return
	}

	var oldAvatar string
	if existing.AvatarURL != nil {
		oldAvatar = strings.TrimSpace(*existing.AvatarURL)
	}

	uploaded, err := m.avatarStorage.Upload(ctx, file, "users", fmt.Sprintf("%d", userID))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to upload avatar", "details": err.Error()})
		return
	}

	updated, err := m.userStore.UpdateProfile(ctx, userID, UpdateProfileParams{AvatarURL: &uploaded})
	if err != nil {
		_ = m.avatarStorage.Remove(ctx, uploaded)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update profile"})
		}
		return
	}

	if oldAvatar != "" && oldAvatar != uploaded {
		_ = m.avatarStorage.Remove(ctx, oldAvatar)
	}

	roles, err := m.userStore.FindRoleNames(ctx, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load roles"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": buildUserPayload(ctx, m.avatarStorage, updated, roles)})
}

func buildUserPayload(ctx context.Context, store *filestore.AvatarStorage, user *User, roles []string) gin.H {
	if user == nil {
		return gin.H{}
	}

	avatarURL := ""
	if user.AvatarURL != nil {
		avatarURL = strings.TrimSpace(*user.AvatarURL)
		if store != nil {
			if signed, err := store.PresignedURL(ctx, avatarURL, userAvatarURLExpiry); err == nil && signed != "" {
				avatarURL = signed
			}
		}
	}

	var avatarField interface{}
	if avatarURL != "" {
		avatarField = avatarURL
	}

	var bioField interface{}
	if user.Bio != nil && *user.Bio != "" {
		bioField = *user.Bio
	}

	return gin.H{
		"id":            user.ID,
		"username":      user.Username,
		"display_name":  user.DisplayName,
		"avatar_url":    avatarField,
		"bio":           bioField,
		"status":        user.Status,
		"last_login_at": user.LastLoginAt,
		"created_at":    user.CreatedAt,
		"updated_at":    user.UpdatedAt,
		"roles":         roles,
	}
}

func openDatabase(driver, dsn string) (*gorm.DB, error) {
	switch strings.ToLower(driver) {
	case "postgres", "postgresql", "pg":
		return gorm.Open(postgres.Open(dsn), &gorm.Config{NowFunc: func() time.Time { return time.Now().UTC() }})
	case "mysql":
		return gorm.Open(mysql.Open(dsn), &gorm.Config{NowFunc: func() time.Time { return time.Now().UTC() }})
	case "sqlite", "sqlite3":
		return gorm.Open(sqlite.Open(dsn), &gorm.Config{NowFunc: func() time.Time { return time.Now().UTC() }})
	default:
		return nil, fmt.Errorf("authorization: unsupported database driver %q", driver)
	}
}

func inferDriverFromDSN(dsn string) string {
	lower := strings.ToLower(dsn)
	switch {
	case strings.HasPrefix(lower, "postgres://"), strings.HasPrefix(lower, "postgresql://"):
		return "postgres"
	case strings.HasPrefix(lower, "mysql://"):
		return "mysql"
	case strings.HasPrefix(lower, "sqlite://"), strings.HasSuffix(lower, ".db"), strings.HasSuffix(lower, ".sqlite"):
		return "sqlite"
	default:
		return ""
	}
}
