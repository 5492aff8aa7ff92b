package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/skip2/go-qrcode"
	"wabridge/internal/middleware"
	"wabridge/internal/session"
)

type SessionHandler struct {
	Registry *session.Registry
}

func (h *SessionHandler) Status(c *gin.Context) {
	owner, ok := middleware.UserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authentication token"})
		return
	}

	sess, err := h.Registry.Get(owner)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No active session"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": sess.Status()})
}

// QR serves the current pairing challenge as a scannable PNG, or the raw
// payload with ?raw=1. Gone once the session connects.
func (h *SessionHandler) QR(c *gin.Context) {
	owner, ok := middleware.UserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authentication token"})
		return
	}

	sess, err := h.Registry.Get(owner)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No active session"})
		return
	}

	payload, err := sess.Challenge()
	if errors.Is(err, session.ErrNoChallenge) {
		c.JSON(http.StatusNotFound, gin.H{"error": "QR code not available"})
		return
	}

	if c.Query("raw") == "1" {
		c.String(http.StatusOK, payload)
		return
	}

	png, err := qrcode.Encode(payload, qrcode.Medium, 256)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "QR render failed"})
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

// Number reports the platform account number the session is connected as.
func (h *SessionHandler) Number(c *gin.Context) {
	owner, ok := middleware.UserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authentication token"})
		return
	}

	sess, err := h.Registry.Get(owner)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No active session"})
		return
	}

	info, err := sess.Info()
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Session not connected"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"number": info.Number})
}
