package authorization

import (
	"encoding/json"
	"errors"
	"os"
	"strings"
	"time"

	jwt "github.com/appleboy/gin-jwt/v2"
	"github.com/gin-gonic/gin"

	filestore "endxiety_back/storage"
)

const (
	identityKey    = "user_id"
	defaultTimeout = time.Hour
)

func buildJWTMiddleware(service *AuthService, store *filestore.AvatarStorage) (*jwt.GinJWTMiddleware, error) {
	secret := strings.TrimSpace(os.Getenv("JWT_SECRET"))
	if secret == "" {
		return nil, errors.New("authorization: JWT_SECRET environment variable is required")
	}

	return jwt.New(&jwt.GinJWTMiddleware{
		Realm:       "endxiety",
		Key:         []byte(secret),
		Timeout:     defaultTimeout,
		MaxRefresh:  24 * time.Hour,
		IdentityKey: identityKey,
		PayloadFunc: func(data interface{}) jwt.MapClaims {
			if user, ok := data.(*AuthenticatedUser); ok {
				return jwt.MapClaims{
					identityKey: user.ID,
					"username":  user.Username,
					"roles":     user.Roles,
				}
			}
			return jwt.MapClaims{}
		},
		IdentityHandler: func(c *gin.Context) interface{} {
			claims := jwt.ExtractClaims(c)
			username, _ := claims["username"].(string)
			return &AuthenticatedUser{
				ID:       extractUserID(claims),
				Username: username,
				Roles:    extractRoles(claims),
			}
		},
		Authenticator: func(c *gin.Context) (interface{}, error) {
			var req LoginRequest
			if err := c.ShouldBindJSON(&req); err != nil {
				return nil, jwt.ErrMissingLoginValues
			}

			user, err := service.Authenticate(c.Request.Context(), req.Username, req.Password)
			if err != nil {
				return nil, err
			}

			c.Set("authenticated_user", user)

			return user, nil
		},
		Authorizator: func(data interface{}, c *gin.Context) bool {
			_, ok := data.(*AuthenticatedUser)
			return ok
		},
		Unauthorized: func(c *gin.Context, code int, message string) {
			c.JSON(code, gin.H{"error": message})
		},
		LoginResponse: func(c *gin.Context, code int, token string, expire time.Time) {
			response := gin.H{
				"token":  token,
				"expire": expire,
			}

			if value, ok := c.Get("authenticated_user"); ok {
				if authUser, ok := value.(*AuthenticatedUser); ok && authUser != nil {
					if user, err := service.users.FindByID(c.Request.Context(), authUser.ID); err == nil {
						roles := authUser.Roles
						if roles == nil {
							roles = []string{}
						}
						response["user"] = buildUserPayload(c.Request.Context(), store, user, roles)
					}
				}
			}

			c.JSON(code, response)
		},
		RefreshResponse: func(c *gin.Context, code int, token string, expire time.Time) {
			response := gin.H{
				"token":  token,
				"expire": expire,
			}

			claims := jwt.ExtractClaims(c)
			if userID := extractUserID(claims); userID != 0 {
				if user, err := service.users.FindByID(c.Request.Context(), userID); err == nil {
					response["user"] = buildUserPayload(c.Request.Context(), store, user, extractRoles(claims))
				}
			}

			c.JSON(code, response)
		},
		TokenLookup:   "header: Authorization, cookie: jwt, cookie: token",
		TokenHeadName: "Bearer",
		TimeFunc:      time.Now,
	})
}

// CurrentUserID returns the authenticated user's id from the request
// claims, or 0 when the request carries no valid identity.
func CurrentUserID(c *gin.Context) uint {
	return extractUserID(jwt.ExtractClaims(c))
}

func extractUserID(claims jwt.MapClaims) uint {
	if claims == nil {
		return 0
	}
	idValue, ok := claims[identityKey]
	if !ok {
		return 0
	}

	switch v := idValue.(type) {
	case float64:
		return uint(v)
	case int64:
		return uint(v)
	case uint64:
		return uint(v)
	case int:
		return uint(v)
	case uint:
		return v
	case json.Number:
		if parsed, err := v.Int64(); err == nil {
			return uint(parsed)
		}
	}
	return 0
}

func extractRoles(claims jwt.MapClaims) []string {
	if claims == nil {
		return []string{}
	}

	switch raw := claims["roles"].(type) {
	case []string:
		return append([]string{}, raw...)
	case []interface{}:
		roles := make([]string, 0, len(raw))
		for _, role := range raw {
			if name, ok := role.(string); ok {
				roles = append(roles, name)
			}
		}
		return roles
	default:
		return []string{}
	}
}
