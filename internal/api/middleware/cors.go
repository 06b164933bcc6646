package middleware

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// CORS creates a permissive CORS middleware for the local UI
// collaborators. The daemon listens on localhost in normal deployments.
func CORS() gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Accept", "Origin"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	})
}
