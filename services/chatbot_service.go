package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"vikas-assistant-backend/apperrors"
	"vikas-assistant-backend/database"
	"vikas-assistant-backend/logger"
	"vikas-assistant-backend/metrics"
	"vikas-assistant-backend/models"
	"vikas-assistant-backend/utils"
)

const welcomeText = "Namaste, main VIKAS AI Assistant bol raha hoon. Kripya apna naam aur sawaal batayein, main turant madad karunga.\n" +
	"Aap pension, Samman Card, banking, Aadhaar, PAN, passport, PM yojana, bill payment ya recharge jaise kisi bhi seva ke baare mein pooch sakte hain.\n" +
	ClosingLine

var serviceHighlights = []models.ServiceHighlight{
	{
		Title:       "Pension / Life Certificate",
		Description: "DLC, Jeevan Pramaan, Sparsh submission aur doorstep seva.",
	},
	{
		Title:       "Samman / Sambhal Card",
		Description: "Veterans, senior citizens aur patients ke liye sahayata.",
	},
	{
		Title:       "Banking & Government Services",
		Description: "Aadhaar, PAN, Passport, PM Yojana, bill payment, recharge sab ek jagah.",
	},
}

const whatsAppSessionPrefix = "whatsapp_"

// WhatsAppSessionID is the chat session used for messages from a WhatsApp number.
func WhatsAppSessionID(from string) string {
	return whatsAppSessionPrefix + from
}

// IsWhatsAppSession reports whether sessionID belongs to the WhatsApp channel.
func IsWhatsAppSession(sessionID string) bool {
	return strings.HasPrefix(sessionID, whatsAppSessionPrefix)
}

// checkChannelSession keeps each channel inside its own session namespace.
func checkChannelSession(channel models.MessageChannel, sessionID string) error {
	switch channel {
	case models.ChannelWeb:
		if IsWhatsAppSession(sessionID) {
			return apperrors.NewSessionForbiddenError(sessionID)
		}
	case models.ChannelWhatsApp:
		if !IsWhatsAppSession(sessionID) {
			return apperrors.NewSessionForbiddenError(sessionID)
		}
	default:
		return apperrors.NewInvalidRequestError("unsupported channel: " + string(channel))
	}
	return nil
}

// displayZone is used for the hour:minute label shown next to each message.
var displayZone = loadDisplayZone()

func loadDisplayZone() *time.Location {
	loc, err := time.LoadLocation("Asia/Kolkata")
	if err != nil {
		return time.FixedZone("IST", 5*60*60+30*60)
	}
	return loc
}

// ChatbotService is the stateful shell around ReplyEngine: it resolves the
// session's known name, records history and metrics.
type ChatbotService struct {
	engine   *ReplyEngine
	sessions SessionStore
	history  database.MessageRepository
	logger   logger.Logger
	now      func() time.Time
}

func NewChatbotService(engine *ReplyEngine, sessions SessionStore, history database.MessageRepository, log logger.Logger) *ChatbotService {
	return &ChatbotService{
		engine:   engine,
		sessions: sessions,
		history:  history,
		logger:   log.With(map[string]interface{}{"component": "chatbot"}),
		now:      time.Now,
	}
}

func (s *ChatbotService) ProcessMessage(ctx context.Context, req models.ChatRequest) (*models.ChatResponse, error) {
	start := s.now()
	channel := req.Channel
	if channel == "" {
		channel = models.ChannelWeb
	}
	sessionID := strings.TrimSpace(req.SessionID)
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	if err := checkChannelSession(channel, sessionID); err != nil {
		return nil, err
	}
	message := strings.TrimSpace(req.Message)

	knownName, err := s.resolveKnownName(ctx, sessionID, req.Name)
	if err != nil {
		return nil, err
	}

	extracted := utils.ExtractName(message)
	if extracted != "" {
		metrics.NamesExtracted.Inc()
		if knownName == "" {
			if err := s.sessions.SetName(ctx, sessionID, extracted); err != nil {
				return nil, apperrors.NewSessionStoreError("adopt extracted name", err)
			}
			knownName = extracted
		}
	}

	replyName := extracted
	if replyName == "" {
		replyName = knownName
	}

	reply := s.engine.Analyze(message, replyName)
	now := s.now().UTC()

	if message != "" {
		if err := s.history.Save(ctx, &models.Message{
			SessionID:   sessionID,
			Author:      models.AuthorUser,
			Content:     message,
			Channel:     channel,
			Timestamp:   now,
			DisplayTime: DisplayTime(now),
		}); err != nil {
			return nil, apperrors.NewHistoryStoreError("save user message", err)
		}
	}

	if err := s.history.Save(ctx, &models.Message{
		SessionID:    sessionID,
		Author:       models.AuthorAssistant,
		Content:      reply.Text,
		Intent:       reply.Intent,
		ResolvedName: strings.TrimSpace(replyName),
		Channel:      channel,
		Timestamp:    now,
		DisplayTime:  DisplayTime(now),
	}); err != nil {
		return nil, apperrors.NewHistoryStoreError("save assistant reply", err)
	}

	metrics.RepliesTotal.WithLabelValues(metrics.IntentLabel(string(reply.Intent)), string(channel)).Inc()
	metrics.ReplyDuration.WithLabelValues(string(channel)).Observe(s.now().Sub(start).Seconds())

	s.logger.Info("reply generated", map[string]interface{}{
		"sessionId":     sessionID,
		"channel":       channel,
		"intent":        metrics.IntentLabel(string(reply.Intent)),
		"nameExtracted": extracted != "",
		"hasKnownName":  knownName != "",
	})

	return &models.ChatResponse{
		SessionID:   sessionID,
		Response:    reply.Text,
		Lines:       strings.Split(reply.Text, "\n"),
		Intent:      reply.Intent,
		Name:        strings.TrimSpace(replyName),
		KnownName:   knownName,
		Timestamp:   now,
		DisplayTime: DisplayTime(now),
	}, nil
}

// resolveKnownName returns the name on file for the session. A name typed by
// the user replaces whatever was stored.
func (s *ChatbotService) resolveKnownName(ctx context.Context, sessionID, typed string) (string, error) {
	if typed = strings.TrimSpace(typed); typed != "" {
		if err := s.sessions.SetName(ctx, sessionID, typed); err != nil {
			return "", apperrors.NewSessionStoreError("set name", err)
		}
		return typed, nil
	}

	stored, err := s.sessions.GetName(ctx, sessionID)
	if err != nil {
		return "", apperrors.NewSessionStoreError("get name", err)
	}
	return stored, nil
}

// KnownName returns the stored name for a session, "" if none.
func (s *ChatbotService) KnownName(ctx context.Context, sessionID string) (string, error) {
	name, err := s.sessions.GetName(ctx, sessionID)
	if err != nil {
		return "", apperrors.NewSessionStoreError("get name", err)
	}
	return name, nil
}

// Welcome returns the assistant's opening message for a new session.
func (s *ChatbotService) Welcome() *models.ChatResponse {
	now := s.now().UTC()
	return &models.ChatResponse{
		SessionID:   uuid.NewString(),
		Response:    welcomeText,
		Lines:       strings.Split(welcomeText, "\n"),
		Timestamp:   now,
		DisplayTime: DisplayTime(now),
	}
}

func (s *ChatbotService) Highlights() []models.ServiceHighlight {
	out := make([]models.ServiceHighlight, len(serviceHighlights))
	copy(out, serviceHighlights)
	return out
}

func (s *ChatbotService) SupportedIntents() []utils.IntentKeywords {
	return s.engine.Classifier().Keywords()
}

func (s *ChatbotService) History(ctx context.Context, sessionID string, limit int) ([]models.Message, error) {
	messages, err := s.history.ListBySession(ctx, sessionID, limit)
	if err != nil {
		return nil, apperrors.NewHistoryStoreError("list messages", err)
	}
	return messages, nil
}

// ClearHistory removes a session's messages and forgets its known name.
func (s *ChatbotService) ClearHistory(ctx context.Context, sessionID string) (int64, error) {
	deleted, err := s.history.DeleteBySession(ctx, sessionID)
	if err != nil {
		return 0, apperrors.NewHistoryStoreError("delete messages", err)
	}
	if err := s.sessions.Clear(ctx, sessionID); err != nil {
		return deleted, apperrors.NewSessionStoreError("clear name", err)
	}

	s.logger.Info("session cleared", map[string]interface{}{
		"sessionId": sessionID,
		"deleted":   deleted,
	})
	return deleted, nil
}

// DisplayTime formats t as the hour:minute label shown in the chat.
func DisplayTime(t time.Time) string {
	return t.In(displayZone).Format("03:04 pm")
}
