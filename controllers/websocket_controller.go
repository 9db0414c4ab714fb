package controllers

import (
	"encoding/json"
	"net/http"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"vikas-assistant-backend/apperrors"
	"vikas-assistant-backend/logger"
	"vikas-assistant-backend/models"
	"vikas-assistant-backend/services"
)

// maxFrameBytes caps one incoming frame; larger frames close the connection.
const maxFrameBytes = 4 << 10

// wsFrame is what the page sends for each message.
type wsFrame struct {
	Message string `json:"message"`
	Name    string `json:"name"`
}

type WebSocketController struct {
	chatbotService *services.ChatbotService
	upgrader       websocket.Upgrader
	logger         logger.Logger
}

func NewWebSocketController(chatbotService *services.ChatbotService, allowedOrigins []string, log logger.Logger) *WebSocketController {
	return &WebSocketController{
		chatbotService: chatbotService,
		upgrader: websocket.Upgrader{
			CheckOrigin: originChecker(allowedOrigins),
		},
		logger: log.With(map[string]interface{}{"component": "websocket"}),
	}
}

// originChecker accepts requests without an Origin header, any origin when
// "*" is configured, or one of the listed origins.
func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || slices.Contains(allowed, "*") {
			return true
		}
		return slices.Contains(allowed, origin)
	}
}

func (wc *WebSocketController) HandleWebSocket(c *gin.Context) {
	sessionID := strings.TrimSpace(c.Query("session_id"))
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	if services.IsWhatsAppSession(sessionID) {
		respondError(c, wc.logger, apperrors.NewSessionForbiddenError(sessionID))
		return
	}

	conn, err := wc.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		wc.logger.Warn("websocket upgrade failed", map[string]interface{}{"error": err.Error()})
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxFrameBytes)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wc.logger.Warn("websocket read failed", map[string]interface{}{
					"sessionId": sessionID,
					"error":     err.Error(),
				})
			}
			return
		}

		var frame wsFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			if werr := conn.WriteJSON(apperrors.NewInvalidRequestError(err.Error()).ResponseBody()); werr != nil {
				return
			}
			continue
		}

		response, err := wc.chatbotService.ProcessMessage(c.Request.Context(), models.ChatRequest{
			Message:   frame.Message,
			Name:      frame.Name,
			SessionID: sessionID,
			Channel:   models.ChannelWeb,
		})
		if err != nil {
			se := apperrors.FromError(err)
			wc.logger.WithError(err).Error("websocket message failed", map[string]interface{}{
				"sessionId": sessionID,
				"code":      se.Code,
			})
			if werr := conn.WriteJSON(se.ResponseBody()); werr != nil {
				return
			}
			continue
		}

		if err := conn.WriteJSON(response); err != nil {
			return
		}
	}
}
