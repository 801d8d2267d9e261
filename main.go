package main

import (
	"log"
	"os"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"endxiety_back/analytics"
	"endxiety_back/authorization"
	"endxiety_back/chat"
	"endxiety_back/community"
	"endxiety_back/llm"
	"endxiety_back/moods"
	"endxiety_back/tts"
)

func mustLoadEnv() {
	_ = godotenv.Load()
}

func corsMiddleware() gin.HandlerFunc {
	config := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}

	origins := strings.TrimSpace(os.Getenv("CORS_ALLOW_ORIGINS"))
	if origins == "" {
		config.AllowAllOrigins = true
		config.AllowCredentials = false
	} else {
		config.AllowOrigins = strings.Split(origins, ",")
	}

	return cors.New(config)
}

func main() {
	mustLoadEnv()

	r := gin.Default()
	r.Use(corsMiddleware())

	authModule, err := authorization.RegisterRoutes(r)
	if err != nil {
		log.Fatalf("register auth routes: %v", err)
	}
	guard := authModule.Guard()

	responder, err := llm.NewResponderFromEnv()
	if err != nil {
		log.Fatalf("init responder: %v", err)
	}

	if _, err := moods.RegisterRoutes(r, guard); err != nil {
		log.Fatalf("register mood routes: %v", err)
	}

	if _, err := community.RegisterRoutes(r, guard, responder); err != nil {
		log.Fatalf("register community routes: %v", err)
	}

	if _, err := chat.RegisterRoutes(r, guard, responder); err != nil {
		log.Fatalf("register chat routes: %v", err)
	}

	if _, err := analytics.RegisterRoutes(r, guard, responder); err != nil {
		log.Fatalf("register analytics routes: %v", err)
	}

	if _, err := tts.RegisterRoutes(r, guard); err != nil {
		log.Fatalf("register tts routes: %v", err)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	if err := r.Run(":" + port); err != nil {
		log.Fatalf("start server: %v", err)
	}
}
