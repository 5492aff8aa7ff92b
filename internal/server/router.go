package server

import (
	"time"

	"github.com/gin-gonic/gin"
	"wabridge/internal/auth"
	"wabridge/internal/handler"
	"wabridge/internal/hub"
	"wabridge/internal/middleware"
	"wabridge/internal/session"
	"wabridge/internal/store"
)

type Deps struct {
	Users       *store.Users
	Registry    *session.Registry
	Hub         *hub.Hub
	TokenConfig auth.TokenConfig
}

func NewRouter(deps Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"ok": true})
	})

	loginLimiter := middleware.NewRateLimiter(10, time.Minute)
	authHandler := &handler.AuthHandler{
		Users:        deps.Users,
		Registry:     deps.Registry,
		TokenConfig:  deps.TokenConfig,
		LoginLimiter: loginLimiter,
	}

	r.POST("/v1/auth/register", authHandler.Register)
	r.POST("/v1/auth/login", authHandler.Login)

	protected := r.Group("/v1")
	protected.Use(middleware.RequireAuth(deps.TokenConfig))
	protected.POST("/auth/logout", authHandler.Logout)

	sessionHandler := &handler.SessionHandler{Registry: deps.Registry}
	protected.GET("/session/status", sessionHandler.Status)
	protected.GET("/session/qr", sessionHandler.QR)
	protected.GET("/session/number", sessionHandler.Number)

	messageHandler := &handler.MessageHandler{Registry: deps.Registry}
	protected.POST("/messages/send", messageHandler.Send)
	protected.GET("/contacts", messageHandler.Contacts)
	protected.GET("/messages/:contact", messageHandler.Messages)

	if deps.Hub != nil {
		wsHandler := &handler.WebSocketHandler{Hub: deps.Hub, TokenConfig: deps.TokenConfig}
		r.GET("/ws", wsHandler.Serve)
	}

	return r
}
