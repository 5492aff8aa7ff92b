package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"wabridge/internal/middleware"
	"wabridge/internal/model"
	"wabridge/internal/session"
)

type MessageHandler struct {
	Registry *session.Registry
}

type sendBody struct {
	To      string `json:"to"`
	Message string `json:"message"`
}

func (h *MessageHandler) Send(c *gin.Context) {
	owner, ok := middleware.UserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authentication token"})
		return
	}

	var body sendBody
	if err := c.ShouldBindJSON(&body); err != nil || body.To == "" || body.Message == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	sess, err := h.Registry.Get(owner)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No active session"})
		return
	}

	msg, err := sess.Send(c.Request.Context(), body.To, body.Message)
	if err != nil {
		switch {
		case errors.Is(err, session.ErrNotReady):
			c.JSON(http.StatusConflict, gin.H{"error": "Session not connected"})
		case errors.Is(err, session.ErrDeliveryFailed):
			c.JSON(http.StatusBadGateway, gin.H{"error": "Message delivery failed"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Send failed"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "message": messageJSON(msg)})
}

func (h *MessageHandler) Contacts(c *gin.Context) {
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

	c.JSON(http.StatusOK, gin.H{"contacts": sess.Contacts()})
}

func (h *MessageHandler) Messages(c *gin.Context) {
	owner, ok := middleware.UserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authentication token"})
		return
	}

	contact := c.Param("contact")
	if contact == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid contact"})
		return
	}

	sess, err := h.Registry.Get(owner)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No active session"})
		return
	}

	msgs := sess.Messages(contact)
	resp := make([]gin.H, 0, len(msgs))
	for _, m := range msgs {
		resp = append(resp, messageJSON(m))
	}
	c.JSON(http.StatusOK, gin.H{"messages": resp})
}

func messageJSON(m model.Message) gin.H {
	return gin.H{
		"id":        m.ID,
		"from":      m.Sender,
		"contact":   m.Contact,
		"body":      m.Body,
		"createdAt": m.CreatedAt,
	}
}
