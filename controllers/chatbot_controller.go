package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"vikas-assistant-backend/apperrors"
	"vikas-assistant-backend/logger"
	"vikas-assistant-backend/models"
	"vikas-assistant-backend/services"
	"vikas-assistant-backend/utils"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
)

type ChatbotController struct {
	chatbotService *services.ChatbotService
	logger         logger.Logger
}

func NewChatbotController(chatbotService *services.ChatbotService, log logger.Logger) *ChatbotController {
	return &ChatbotController{
		chatbotService: chatbotService,
		logger:         log,
	}
}

// respondError renders err as {error, code, details} with the status its code maps to.
func respondError(c *gin.Context, log logger.Logger, err error) {
	se := apperrors.FromError(err)
	status := se.HTTPStatus()
	if status >= http.StatusInternalServerError {
		log.WithError(err).Error("request failed", map[string]interface{}{
			"path": c.FullPath(),
			"code": se.Code,
		})
	}
	c.JSON(status, se.ResponseBody())
}

// HandleChat processes chat messages
func (cc *ChatbotController) HandleChat(c *gin.Context) {
	var req models.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, cc.logger, apperrors.NewInvalidRequestError(err.Error()))
		return
	}
	req.Channel = models.ChannelWeb

	response, err := cc.chatbotService.ProcessMessage(c.Request.Context(), req)
	if err != nil {
		respondError(c, cc.logger, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// Welcome returns the opening assistant message with a fresh session id.
func (cc *ChatbotController) Welcome(c *gin.Context) {
	c.JSON(http.StatusOK, cc.chatbotService.Welcome())
}

func (cc *ChatbotController) GetServices(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"services": cc.chatbotService.Highlights(),
	})
}

// GetSupportedIntents lists the intents in the order they are matched.
func (cc *ChatbotController) GetSupportedIntents(c *gin.Context) {
	table := cc.chatbotService.SupportedIntents()

	intents := make([]gin.H, 0, len(table)+1)
	for i, entry := range table {
		intents = append(intents, gin.H{
			"intent":   entry.Intent,
			"priority": i + 1,
			"keywords": entry.Keywords,
		})
	}
	intents = append(intents, gin.H{
		"intent":   models.IntentGeneric,
		"priority": len(table) + 1,
		"keywords": []string{},
	})

	c.JSON(http.StatusOK, gin.H{
		"intents": intents,
	})
}

// ExtractName runs the name extractor on arbitrary text.
func (cc *ChatbotController) ExtractName(c *gin.Context) {
	var req models.ExtractNameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, cc.logger, apperrors.NewInvalidRequestError(err.Error()))
		return
	}

	name := utils.ExtractName(req.Text)
	c.JSON(http.StatusOK, models.ExtractNameResponse{
		Name:  name,
		Found: name != "",
	})
}

// GetHistory returns the latest messages of a session, oldest first.
func (cc *ChatbotController) GetHistory(c *gin.Context) {
	sessionID := strings.TrimSpace(c.Param("session_id"))
	if services.IsWhatsAppSession(sessionID) {
		respondError(c, cc.logger, apperrors.NewSessionForbiddenError(sessionID))
		return
	}
	limit := defaultHistoryLimit

	if limitStr := c.Query("limit"); limitStr != "" {
		l, err := strconv.Atoi(limitStr)
		if err != nil || l < 1 {
			respondError(c, cc.logger, apperrors.NewInvalidRequestError("limit must be a positive integer"))
			return
		}
		limit = min(l, maxHistoryLimit)
	}

	history, err := cc.chatbotService.History(c.Request.Context(), sessionID, limit)
	if err != nil {
		respondError(c, cc.logger, err)
		return
	}

	knownName, err := cc.chatbotService.KnownName(c.Request.Context(), sessionID)
	if err != nil {
		respondError(c, cc.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"session_id": sessionID,
		"known_name": knownName,
		"history":    history,
		"count":      len(history),
	})
}

// ClearHistory clears a session's history and its known name.
func (cc *ChatbotController) ClearHistory(c *gin.Context) {
	sessionID := strings.TrimSpace(c.Param("session_id"))
	if services.IsWhatsAppSession(sessionID) {
		respondError(c, cc.logger, apperrors.NewSessionForbiddenError(sessionID))
		return
	}

	deleted, err := cc.chatbotService.ClearHistory(c.Request.Context(), sessionID)
	if err != nil {
		respondError(c, cc.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Chat history cleared successfully",
		"deleted": deleted,
	})
}
