package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"vikas-assistant-backend/apperrors"
	"vikas-assistant-backend/logger"
	"vikas-assistant-backend/models"
	"vikas-assistant-backend/services"
)

// webhookTimeout bounds the background handling of one webhook delivery.
const webhookTimeout = 30 * time.Second

type WhatsAppController struct {
	whatsappService *services.WhatsAppService
	chatbotService  *services.ChatbotService
	logger          logger.Logger
}

func NewWhatsAppController(whatsappService *services.WhatsAppService, chatbotService *services.ChatbotService, log logger.Logger) *WhatsAppController {
	return &WhatsAppController{
		whatsappService: whatsappService,
		chatbotService:  chatbotService,
		logger:          log.With(map[string]interface{}{"component": "whatsapp-webhook"}),
	}
}

// VerifyWebhook handles the webhook verification request from WhatsApp
func (wc *WhatsAppController) VerifyWebhook(c *gin.Context) {
	mode := c.Query("hub.mode")
	token := c.Query("hub.verify_token")
	challenge := c.Query("hub.challenge")

	verifyToken := wc.whatsappService.VerifyToken()
	if mode == "subscribe" && verifyToken != "" && token == verifyToken {
		wc.logger.Info("webhook verified", nil)
		c.String(http.StatusOK, challenge)
		return
	}

	wc.logger.Warn("webhook verification rejected", map[string]interface{}{"mode": mode})
	respondError(c, wc.logger, apperrors.NewWebhookVerificationError())
}

// HandleWebhook acknowledges the delivery at once and answers it in the background.
func (wc *WhatsAppController) HandleWebhook(c *gin.Context) {
	var webhookData models.WhatsAppWebhookData
	if err := c.ShouldBindJSON(&webhookData); err != nil {
		respondError(c, wc.logger, apperrors.NewInvalidRequestError(err.Error()))
		return
	}

	// The request context is cancelled once we respond.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request.Context()), webhookTimeout)
	go func() {
		defer cancel()
		wc.processWebhookData(ctx, webhookData)
	}()

	c.JSON(http.StatusOK, gin.H{"status": "received"})
}

func (wc *WhatsAppController) processWebhookData(ctx context.Context, webhookData models.WhatsAppWebhookData) {
	for _, entry := range webhookData.Entry {
		for _, change := range entry.Changes {
			if change.Field == "messages" {
				wc.processMessages(ctx, change.Value)
			}
		}
	}
}

func (wc *WhatsAppController) processMessages(ctx context.Context, value models.WhatsAppValue) {
	for _, message := range value.Messages {
		wc.handleIncomingMessage(ctx, message, value)
	}

	for _, status := range value.Statuses {
		wc.handleStatusUpdate(status)
	}
}

func (wc *WhatsAppController) handleIncomingMessage(ctx context.Context, message models.WhatsAppMessage, value models.WhatsAppValue) {
	fields := map[string]interface{}{
		"from":      message.From,
		"messageId": message.ID,
		"type":      message.Type,
	}

	if message.Type != "text" || message.Text == nil {
		wc.logger.Debug("ignoring non-text message", fields)
		return
	}

	if err := wc.whatsappService.MarkMessageAsRead(ctx, message.ID); err != nil {
		wc.logger.Warn("mark as read failed", map[string]interface{}{"messageId": message.ID, "error": err.Error()})
	}

	sessionID := services.WhatsAppSessionID(message.From)

	// The contact's profile name is only a fallback for sessions with no name on file.
	knownName, err := wc.chatbotService.KnownName(ctx, sessionID)
	if err != nil {
		wc.logger.WithError(err).Error("lookup known name failed", fields)
		return
	}
	var profileName string
	if knownName == "" {
		profileName = value.ContactName(message.From)
	}

	response, err := wc.chatbotService.ProcessMessage(ctx, models.ChatRequest{
		Message:   message.Text.Body,
		SessionID: sessionID,
		Name:      profileName,
		Channel:   models.ChannelWhatsApp,
	})
	if err != nil {
		wc.logger.WithError(err).Error("process whatsapp message failed", fields)
		return
	}

	if err := wc.whatsappService.SendTextMessage(ctx, message.From, response.Response); err != nil {
		wc.logger.WithError(err).Error("send whatsapp reply failed", fields)
	}
}

func (wc *WhatsAppController) handleStatusUpdate(status models.WhatsAppStatus) {
	fields := map[string]interface{}{
		"messageId": status.ID,
		"recipient": status.RecipientID,
		"status":    status.Status,
	}
	if len(status.Errors) == 0 {
		wc.logger.Debug("message status update", fields)
		return
	}

	for _, e := range status.Errors {
		wc.logger.Warn("message delivery error", map[string]interface{}{
			"messageId": status.ID,
			"errorCode": e.Code,
			"title":     e.Title,
			"error":     e.Message,
		})
	}
}

// SendMessage sends a message to a specific WhatsApp number (for notifications)
func (wc *WhatsAppController) SendMessage(c *gin.Context) {
	var req struct {
		To      string `json:"to" binding:"required"`
		Message string `json:"message" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, wc.logger, apperrors.NewInvalidRequestError(err.Error()))
		return
	}

	if !wc.whatsappService.Enabled() {
		respondError(c, wc.logger, apperrors.NewWhatsAppNotConfiguredError())
		return
	}

	to := wc.whatsappService.CleanPhoneNumber(req.To)
	if err := wc.whatsappService.SendTextMessage(c.Request.Context(), to, req.Message); err != nil {
		respondError(c, wc.logger, apperrors.NewWhatsAppSendError(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "sent",
		"to":     to,
	})
}

// GetStatus returns WhatsApp service status
func (wc *WhatsAppController) GetStatus(c *gin.Context) {
	c.JSON(http.StatusOK, wc.whatsappService.GetStatus())
}
