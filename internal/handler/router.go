package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vcrag/copilot/internal/middleware"
)

type RouterDeps struct {
	Auth          *AuthHandler
	Projects      *ProjectHandler
	Documents     *DocumentHandler
	Chats         *ChatHandler
	Health        *HealthHandler
	JWTSecret     []byte
	AuthRateLimit time.Duration
	ChatRateLimit time.Duration
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	api.GET("/health", deps.Health.Health)

	authLimit := middleware.RateLimit(deps.AuthRateLimit)
	api.POST("/auth/register", authLimit, deps.Auth.Register)
	api.POST("/auth/login", authLimit, deps.Auth.Login)

	authGroup := api.Group("")
	authGroup.Use(middleware.JWTAuth(deps.JWTSecret))
	authGroup.GET("/auth/me", deps.Auth.Me)

	authGroup.GET("/projects", deps.Projects.List)
	authGroup.POST("/projects", deps.Projects.Create)
	authGroup.GET("/projects/:id", deps.Projects.Get)
	authGroup.DELETE("/projects/:id", deps.Projects.Delete)
	authGroup.GET("/projects/:id/intelligence", deps.Projects.Intelligence)
	authGroup.GET("/projects/:id/search", deps.Projects.Search)
	authGroup.GET("/projects/:id/files", deps.Documents.List)
	authGroup.POST("/projects/:id/files", deps.Documents.Upload)

	authGroup.GET("/documents/:id/file", deps.Documents.Download)
	authGroup.DELETE("/documents/:id", deps.Documents.Delete)

	chatLimit := middleware.RateLimit(deps.ChatRateLimit)
	authGroup.POST("/chat/new", deps.Chats.New)
	authGroup.POST("/chat/message", chatLimit, deps.Chats.Message)
	authGroup.POST("/chat/upload", deps.Documents.ChatUpload)
	authGroup.DELETE("/chat/clear", deps.Documents.ClearUploads)
	authGroup.GET("/chat/history/:id", deps.Chats.History)
	authGroup.GET("/chat/search", deps.Chats.Search)
	authGroup.DELETE("/chat/:id", deps.Chats.Delete)
	authGroup.GET("/chats", deps.Chats.List)
}
