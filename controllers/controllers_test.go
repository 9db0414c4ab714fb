package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vikas-assistant-backend/config"
	"vikas-assistant-backend/database"
	"vikas-assistant-backend/logger"
	"vikas-assistant-backend/models"
	"vikas-assistant-backend/services"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// graphAPI records what the WhatsApp service posts to the Graph API.
type graphAPI struct {
	mu       sync.Mutex
	texts    []models.WhatsAppSendMessage
	readIDs  []string
	failSend bool
}

func (g *graphAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var raw map[string]interface{}
	body := new(bytes.Buffer)
	_, _ = body.ReadFrom(r.Body)
	_ = json.Unmarshal(body.Bytes(), &raw)

	g.mu.Lock()
	defer g.mu.Unlock()

	if raw["status"] == "read" {
		g.readIDs = append(g.readIDs, raw["message_id"].(string))
		w.WriteHeader(http.StatusOK)
		return
	}
	if g.failSend {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"code":190,"message":"Invalid OAuth access token"}}`))
		return
	}
	var msg models.WhatsAppSendMessage
	_ = json.Unmarshal(body.Bytes(), &msg)
	g.texts = append(g.texts, msg)
	w.WriteHeader(http.StatusOK)
}

func (g *graphAPI) sent() []models.WhatsAppSendMessage {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]models.WhatsAppSendMessage(nil), g.texts...)
}

type testEnv struct {
	router   *gin.Engine
	chatbot  *services.ChatbotService
	whatsapp *WhatsAppController
	graph    *graphAPI
}

func newTestEnv(t *testing.T, whatsappCfg config.WhatsAppConfig) *testEnv {
	t.Helper()
	log := logger.NewNoOpLogger()

	graph := &graphAPI{}
	srv := httptest.NewServer(graph)
	t.Cleanup(srv.Close)
	whatsappCfg.APIURL = srv.URL
	whatsappCfg.APIVersion = "v18.0"

	chatbot := services.NewChatbotService(
		services.NewReplyEngine(),
		services.NewMemorySessionStore(time.Hour),
		database.NewMemoryMessageRepository(),
		log,
	)
	wa := services.NewWhatsAppService(whatsappCfg, log)

	cc := NewChatbotController(chatbot, log)
	ws := NewWebSocketController(chatbot, []string{"http://localhost:3000"}, log)
	wc := NewWhatsAppController(wa, chatbot, log)

	r := gin.New()
	api := r.Group("/api/v1")
	api.GET("/welcome", cc.Welcome)
	api.GET("/services", cc.GetServices)
	api.GET("/intents", cc.GetSupportedIntents)
	api.POST("/chat", cc.HandleChat)
	api.POST("/extract-name", cc.ExtractName)
	api.GET("/history/:session_id", cc.GetHistory)
	api.DELETE("/history/:session_id", cc.ClearHistory)
	api.GET("/ws", ws.HandleWebSocket)
	r.GET("/webhook", wc.VerifyWebhook)
	r.POST("/webhook", wc.HandleWebhook)
	r.POST("/admin/send", wc.SendMessage)
	r.GET("/admin/status", wc.GetStatus)

	return &testEnv{router: r, chatbot: chatbot, whatsapp: wc, graph: graph}
}

func configuredWhatsApp() config.WhatsAppConfig {
	return config.WhatsAppConfig{AccessToken: "token", PhoneNumberID: "555", VerifyToken: "verify-me"}
}

func (e *testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	return v
}

func TestHandleChat(t *testing.T) {
	env := newTestEnv(t, config.WhatsAppConfig{})

	w := env.do(t, http.MethodPost, "/api/v1/chat", `{"message":"Mera naam Ravi hai, pension ke baare me batao","session_id":"s1"}`)
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode[models.ChatResponse](t, w)
	assert.Equal(t, "s1", resp.SessionID)
	assert.Equal(t, models.IntentPension, resp.Intent)
	assert.Equal(t, "Namaste Ravi hai ji,", resp.Lines[0])
	assert.Equal(t, services.ClosingLine, resp.Lines[len(resp.Lines)-1])
}

func TestHandleChat_InvalidBody(t *testing.T) {
	env := newTestEnv(t, config.WhatsAppConfig{})

	w := env.do(t, http.MethodPost, "/api/v1/chat", `{"message":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	body := decode[map[string]interface{}](t, w)
	assert.Equal(t, "INVALID_REQUEST", body["code"])
	assert.Equal(t, "Invalid request format", body["error"])
}

func TestLandingEndpoints(t *testing.T) {
	env := newTestEnv(t, config.WhatsAppConfig{})

	welcome := decode[models.ChatResponse](t, env.do(t, http.MethodGet, "/api/v1/welcome", ""))
	assert.NotEmpty(t, welcome.SessionID)
	assert.Len(t, welcome.Lines, 3)

	svc := decode[struct {
		Services []models.ServiceHighlight `json:"services"`
	}](t, env.do(t, http.MethodGet, "/api/v1/services", ""))
	assert.Len(t, svc.Services, 3)

	intents := decode[struct {
		Intents []struct {
			Intent   string   `json:"intent"`
			Priority int      `json:"priority"`
			Keywords []string `json:"keywords"`
		} `json:"intents"`
	}](t, env.do(t, http.MethodGet, "/api/v1/intents", ""))
	require.Len(t, intents.Intents, 9)
	assert.Equal(t, "pension", intents.Intents[0].Intent)
	assert.Equal(t, 1, intents.Intents[0].Priority)
	assert.Contains(t, intents.Intents[0].Keywords, "jeevan pramaan")
	assert.Equal(t, "generic", intents.Intents[8].Intent)
	assert.Empty(t, intents.Intents[8].Keywords)
}

func TestExtractName(t *testing.T) {
	env := newTestEnv(t, config.WhatsAppConfig{})

	got := decode[models.ExtractNameResponse](t, env.do(t, http.MethodPost, "/api/v1/extract-name", `{"text":"Hello, my name is   Anil   Kumar"}`))
	assert.Equal(t, models.ExtractNameResponse{Name: "Anil Kumar", Found: true}, got)

	got = decode[models.ExtractNameResponse](t, env.do(t, http.MethodPost, "/api/v1/extract-name", `{"text":"bijli bill"}`))
	assert.False(t, got.Found)
}

func TestHistoryEndpoints(t *testing.T) {
	env := newTestEnv(t, config.WhatsAppConfig{})

	env.do(t, http.MethodPost, "/api/v1/chat", `{"message":"aadhaar update","session_id":"h1","name":"Meena"}`)
	env.do(t, http.MethodPost, "/api/v1/chat", `{"message":"bijli bill","session_id":"h1"}`)

	w := env.do(t, http.MethodGet, "/api/v1/history/h1?limit=3", "")
	require.Equal(t, http.StatusOK, w.Code)
	history := decode[struct {
		KnownName string           `json:"known_name"`
		History   []models.Message `json:"history"`
		Count     int              `json:"count"`
	}](t, w)
	assert.Equal(t, "Meena", history.KnownName)
	assert.Equal(t, 3, history.Count)
	assert.Equal(t, models.IntentAadhaar, history.History[0].Intent)
	assert.Equal(t, "bijli bill", history.History[1].Content)

	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, "/api/v1/history/h1?limit=abc", "").Code)

	w = env.do(t, http.MethodDelete, "/api/v1/history/h1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 4, decode[map[string]interface{}](t, w)["deleted"])

	w = env.do(t, http.MethodGet, "/api/v1/history/h1", "")
	assert.EqualValues(t, 0, decode[map[string]interface{}](t, w)["count"])
}

func TestWebSocketChat(t *testing.T) {
	env := newTestEnv(t, config.WhatsAppConfig{})
	srv := httptest.NewServer(env.router)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/ws?session_id=ws1"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(map[string]string{"message": "pan card correction", "name": "Ravi"}))
	var resp models.ChatResponse
	require.NoError(t, conn.ReadJSON(&resp))
	assert.Equal(t, "ws1", resp.SessionID)
	assert.Equal(t, models.IntentPAN, resp.Intent)
	assert.Equal(t, "Namaste Ravi ji,", resp.Lines[0])

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	var errBody map[string]interface{}
	require.NoError(t, conn.ReadJSON(&errBody))
	assert.Equal(t, "INVALID_REQUEST", errBody["code"])

	// The connection keeps its session, so the name is remembered.
	require.NoError(t, conn.WriteJSON(map[string]string{"message": "passport"}))
	require.NoError(t, conn.ReadJSON(&resp))
	assert.Equal(t, "Namaste Ravi ji,", resp.Lines[0])
}

func TestWebSocket_RejectsForeignOrigin(t *testing.T) {
	env := newTestEnv(t, config.WhatsAppConfig{})
	srv := httptest.NewServer(env.router)
	defer srv.Close()

	header := http.Header{"Origin": []string{"http://evil.example"}}
	_, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/api/v1/ws", header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestVerifyWebhook(t *testing.T) {
	env := newTestEnv(t, configuredWhatsApp())

	w := env.do(t, http.MethodGet, "/webhook?hub.mode=subscribe&hub.verify_token=verify-me&hub.challenge=1158201444", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "1158201444", w.Body.String())

	w = env.do(t, http.MethodGet, "/webhook?hub.mode=subscribe&hub.verify_token=wrong&hub.challenge=1", "")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "WEBHOOK_VERIFICATION_FAILED")
}

func textWebhook(from, contactName, body string) models.WhatsAppWebhookData {
	return models.WhatsAppWebhookData{
		Object: "whatsapp_business_account",
		Entry: []models.WhatsAppEntry{{
			ID: "entry",
			Changes: []models.WhatsAppChange{{
				Field: "messages",
				Value: models.WhatsAppValue{
					MessagingProduct: "whatsapp",
					Contacts:         []models.WhatsAppContact{{WaID: from, Profile: models.WhatsAppProfile{Name: contactName}}},
					Messages: []models.WhatsAppMessage{{
						From: from,
						ID:   "wamid." + body,
						Type: "text",
						Text: &models.WhatsAppText{Body: body},
					}},
					Statuses: []models.WhatsAppStatus{{
						ID:     "wamid.old",
						Status: "failed",
						Errors: []models.WhatsAppError{{Code: 131047, Title: "Re-engagement message"}},
					}},
				},
			}},
		}},
	}
}

func TestProcessWebhookData(t *testing.T) {
	env := newTestEnv(t, configuredWhatsApp())
	ctx := context.Background()
	const from = "919876543210"

	env.whatsapp.processWebhookData(ctx, textWebhook(from, "Asha Devi", "pension kaise hogi"))

	sent := env.graph.sent()
	require.Len(t, sent, 1)
	assert.Equal(t, from, sent[0].To)
	assert.True(t, strings.HasPrefix(sent[0].Text.Body, "Namaste Asha Devi ji,\n"))
	assert.Contains(t, env.graph.readIDs, "wamid.pension kaise hogi")

	name, err := env.chatbot.KnownName(ctx, services.WhatsAppSessionID(from))
	require.NoError(t, err)
	assert.Equal(t, "Asha Devi", name)

	// Neither a later self-introduction nor a new profile name replaces the name on file.
	env.whatsapp.processWebhookData(ctx, textWebhook(from, "Asha Devi", "my name is Asha"))
	env.whatsapp.processWebhookData(ctx, textWebhook(from, "Someone Else", "bank"))

	sent = env.graph.sent()
	require.Len(t, sent, 3)
	assert.True(t, strings.HasPrefix(sent[1].Text.Body, "Namaste Asha ji,\n"))
	assert.True(t, strings.HasPrefix(sent[2].Text.Body, "Namaste Asha Devi ji,\n"))

	history, err := env.chatbot.History(ctx, services.WhatsAppSessionID(from), 0)
	require.NoError(t, err)
	assert.Len(t, history, 6)
	assert.Equal(t, models.ChannelWhatsApp, history[0].Channel)
}

func TestProcessWebhookData_IgnoresNonText(t *testing.T) {
	env := newTestEnv(t, configuredWhatsApp())

	data := textWebhook("919876543210", "Asha", "x")
	data.Entry[0].Changes[0].Value.Messages[0].Type = "image"
	data.Entry[0].Changes[0].Value.Messages[0].Text = nil
	env.whatsapp.processWebhookData(context.Background(), data)

	assert.Empty(t, env.graph.sent())
}

func TestHandleWebhook(t *testing.T) {
	env := newTestEnv(t, configuredWhatsApp())

	payload, err := json.Marshal(textWebhook("919812345678", "Gopal", "recharge karna hai"))
	require.NoError(t, err)

	w := env.do(t, http.MethodPost, "/webhook", string(payload))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"received"}`, w.Body.String())

	require.Eventually(t, func() bool { return len(env.graph.sent()) == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Contains(t, env.graph.sent()[0].Text.Body, "Namaste Gopal ji,")

	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodPost, "/webhook", `{`).Code)
}

func TestAdminSend(t *testing.T) {
	t.Run("not configured", func(t *testing.T) {
		env := newTestEnv(t, config.WhatsAppConfig{})
		w := env.do(t, http.MethodPost, "/admin/send", `{"to":"9876543210","message":"hi"}`)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Contains(t, w.Body.String(), "WHATSAPP_NOT_CONFIGURED")
	})

	t.Run("sent", func(t *testing.T) {
		env := newTestEnv(t, configuredWhatsApp())
		w := env.do(t, http.MethodPost, "/admin/send", `{"to":"98765 43210","message":"Aapka card ready hai"}`)
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"status":"sent","to":"919876543210"}`, w.Body.String())

		status := decode[models.WhatsAppServiceStatus](t, env.do(t, http.MethodGet, "/admin/status", ""))
		assert.True(t, status.Enabled)
		assert.Equal(t, int64(1), status.MessageCountTotal)
	})

	t.Run("graph api failure", func(t *testing.T) {
		env := newTestEnv(t, configuredWhatsApp())
		env.graph.failSend = true
		w := env.do(t, http.MethodPost, "/admin/send", `{"to":"9876543210","message":"hi"}`)
		assert.Equal(t, http.StatusBadGateway, w.Code)
		assert.Contains(t, w.Body.String(), "WHATSAPP_SEND_FAILED")
	})

	t.Run("missing fields", func(t *testing.T) {
		env := newTestEnv(t, configuredWhatsApp())
		assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodPost, "/admin/send", `{"to":"9876543210"}`).Code)
	})
}

func TestHandleChat_ClientCannotPickChannel(t *testing.T) {
	env := newTestEnv(t, config.WhatsAppConfig{})

	w := env.do(t, http.MethodPost, "/api/v1/chat", `{"message":"bijli bill","session_id":"c1","channel":"anything-goes-123"}`)
	require.Equal(t, http.StatusOK, w.Code)

	history, err := env.chatbot.History(context.Background(), "c1", 0)
	require.NoError(t, err)
	require.Len(t, history, 2)
	for _, msg := range history {
		assert.Equal(t, models.ChannelWeb, msg.Channel)
	}
}

func TestWebRoutesCannotReachWhatsAppSessions(t *testing.T) {
	env := newTestEnv(t, configuredWhatsApp())
	ctx := context.Background()
	const from = "919876543210"
	sessionID := services.WhatsAppSessionID(from)

	env.whatsapp.processWebhookData(ctx, textWebhook(from, "Asha", "pension chahiye, mera PPO 12345"))

	w := env.do(t, http.MethodGet, "/api/v1/history/"+sessionID, "")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "SESSION_FORBIDDEN")
	assert.NotContains(t, w.Body.String(), "PPO")

	assert.Equal(t, http.StatusForbidden, env.do(t, http.MethodDelete, "/api/v1/history/"+sessionID, "").Code)

	w = env.do(t, http.MethodPost, "/api/v1/chat", `{"message":"hi","session_id":"`+sessionID+`","name":"Mallory"}`)
	assert.Equal(t, http.StatusForbidden, w.Code)

	name, err := env.chatbot.KnownName(ctx, sessionID)
	require.NoError(t, err)
	assert.Equal(t, "Asha", name)

	history, err := env.chatbot.History(ctx, sessionID, 0)
	require.NoError(t, err)
	assert.Len(t, history, 2)

	srv := httptest.NewServer(env.router)
	defer srv.Close()
	_, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/api/v1/ws?session_id="+sessionID, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestWebSocket_OversizedFrameClosesConnection(t *testing.T) {
	env := newTestEnv(t, config.WhatsAppConfig{})
	srv := httptest.NewServer(env.router)
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/api/v1/ws", nil)
	require.NoError(t, err)
	defer conn.Close()

	big := map[string]string{"message": strings.Repeat("a", maxFrameBytes+1)}
	require.NoError(t, conn.WriteJSON(big))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err = conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseMessageTooBig), "got %v", err)
}
