package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"vikas-assistant-backend/config"
	"vikas-assistant-backend/logger"
	"vikas-assistant-backend/metrics"
	"vikas-assistant-backend/models"
)

// indiaCountryCode is prefixed to bare 10-digit mobile numbers.
const indiaCountryCode = "91"

type WhatsAppService struct {
	apiURL        string
	apiVersion    string
	accessToken   string
	phoneNumberID string
	verifyToken   string
	httpClient    *http.Client
	logger        logger.Logger

	// Status tracking
	statusMu        sync.RWMutex
	lastMessageTime time.Time
	messageCount    int64
	countDay        string
	countToday      int
	now             func() time.Time
}

func NewWhatsAppService(cfg config.WhatsAppConfig, log logger.Logger) *WhatsAppService {
	return &WhatsAppService{
		apiURL:        strings.TrimRight(cfg.APIURL, "/"),
		apiVersion:    cfg.APIVersion,
		accessToken:   cfg.AccessToken,
		phoneNumberID: cfg.PhoneNumberID,
		verifyToken:   cfg.VerifyToken,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger:     log.With(map[string]interface{}{"component": "whatsapp"}),
		now:        time.Now,
	}
}

// VerifyToken returns the webhook verification token.
func (ws *WhatsAppService) VerifyToken() string {
	return ws.verifyToken
}

func (ws *WhatsAppService) Enabled() bool {
	return ws.accessToken != "" && ws.phoneNumberID != ""
}

// SendTextMessage sends a plain text message to the given number.
func (ws *WhatsAppService) SendTextMessage(ctx context.Context, to, body string) error {
	payload := models.WhatsAppSendMessage{
		MessagingProduct: "whatsapp",
		RecipientType:    "individual",
		To:               ws.CleanPhoneNumber(to),
		Type:             "text",
		Text: &models.WhatsAppText{
			Body: body,
		},
	}

	if err := ws.sendRequest(ctx, payload); err != nil {
		metrics.WhatsAppMessagesSent.WithLabelValues("failed").Inc()
		return err
	}
	metrics.WhatsAppMessagesSent.WithLabelValues("sent").Inc()
	ws.updateMessageStatus()
	return nil
}

// MarkMessageAsRead marks an incoming message as read.
func (ws *WhatsAppService) MarkMessageAsRead(ctx context.Context, messageID string) error {
	payload := map[string]interface{}{
		"messaging_product": "whatsapp",
		"status":            "read",
		"message_id":        messageID,
	}
	return ws.sendRequest(ctx, payload)
}

func (ws *WhatsAppService) sendRequest(ctx context.Context, payload interface{}) error {
	if !ws.Enabled() {
		return fmt.Errorf("whatsapp access token or phone number id not configured")
	}

	url := fmt.Sprintf("%s/%s/%s/messages", ws.apiURL, ws.apiVersion, ws.phoneNumberID)

	jsonPayload, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonPayload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+ws.accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := ws.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		var errorResp struct {
			Error struct {
				Code    int    `json:"code"`
				Message string `json:"message"`
			} `json:"error"`
		}
		if err := json.Unmarshal(body, &errorResp); err == nil && errorResp.Error.Message != "" {
			ws.logger.Warn("graph api rejected request", map[string]interface{}{
				"status":    resp.StatusCode,
				"errorCode": errorResp.Error.Code,
				"error":     errorResp.Error.Message,
			})
			return fmt.Errorf("whatsapp api error %d: %s", errorResp.Error.Code, errorResp.Error.Message)
		}
		return fmt.Errorf("whatsapp api error: status %d: %s", resp.StatusCode, string(body))
	}

	return nil
}

// CleanPhoneNumber keeps only digits and adds the country code to bare
// 10-digit numbers.
func (ws *WhatsAppService) CleanPhoneNumber(phone string) string {
	cleaned := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, phone)

	if len(cleaned) == 10 {
		cleaned = indiaCountryCode + cleaned
	}
	return cleaned
}

func (ws *WhatsAppService) updateMessageStatus() {
	ws.statusMu.Lock()
	defer ws.statusMu.Unlock()

	now := ws.now()
	ws.lastMessageTime = now
	ws.messageCount++
	if day := now.Format(time.DateOnly); day != ws.countDay {
		ws.countDay = day
		ws.countToday = 0
	}
	ws.countToday++
}

// GetStatus returns the service status
func (ws *WhatsAppService) GetStatus() models.WhatsAppServiceStatus {
	ws.statusMu.RLock()
	defer ws.statusMu.RUnlock()

	countToday := 0
	if ws.countDay == ws.now().Format(time.DateOnly) {
		countToday = ws.countToday
	}

	return models.WhatsAppServiceStatus{
		Enabled:           ws.Enabled(),
		LastMessageSent:   ws.lastMessageTime,
		MessageCountToday: countToday,
		MessageCountTotal: ws.messageCount,
	}
}
