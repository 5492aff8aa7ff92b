package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"wabridge/internal/auth"
	"wabridge/internal/middleware"
	"wabridge/internal/session"
	"wabridge/internal/store"
)

type AuthHandler struct {
	Users        *store.Users
	Registry     *session.Registry
	TokenConfig  auth.TokenConfig
	LoginLimiter *middleware.RateLimiter
}

type credentialsBody struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *AuthHandler) Register(c *gin.Context) {
	var body credentialsBody
	if err := c.ShouldBindJSON(&body); err != nil || body.Username == "" || body.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if h.LoginLimiter != nil && !h.LoginLimiter.Allow(c.ClientIP()) {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded"})
		return
	}

	hash, err := auth.HashPassword(body.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Registration failed"})
		return
	}

	if _, err := h.Users.Create(body.Username, hash, time.Now().UnixMilli()); err != nil {
		if errors.Is(err, store.ErrUserExists) {
			c.JSON(http.StatusConflict, gin.H{"error": "User already exists"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// Login verifies credentials, mints a token, and lazily brings up the
// user's messaging session so pairing can begin before the first poll.
func (h *AuthHandler) Login(c *gin.Context) {
	var body credentialsBody
	if err := c.ShouldBindJSON(&body); err != nil || body.Username == "" || body.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if h.LoginLimiter != nil && !h.LoginLimiter.Allow(c.ClientIP()) {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded"})
		return
	}

	user, err := h.Users.Get(body.Username)
	if err != nil || !auth.CheckPassword(user.PasswordHash, body.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	// Tokens carry the username: it is the stable owner key sessions and
	// message logs are scoped by.
	token, err := auth.CreateToken(user.Username, h.TokenConfig)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Token creation failed"})
		return
	}

	if _, err := h.Registry.GetOrCreate(user.Username); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Session initialization failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}

// Logout tears down the caller's session. Logging out without one is
// still a success.
func (h *AuthHandler) Logout(c *gin.Context) {
	owner, ok := middleware.UserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authentication token"})
		return
	}

	h.Registry.Remove(owner)
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
