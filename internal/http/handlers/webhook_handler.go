// README: Twilio webhook handlers for SMS, WhatsApp and voice.
package handlers

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"ridesafe/internal/channel"
	"ridesafe/internal/modules/conversation"
)

const handleTimeout = 15 * time.Second

// ConversationEngine runs one conversational step.
type ConversationEngine interface {
	Handle(ctx context.Context, ev conversation.Event) (conversation.Reply, error)
}

type WebhookHandler struct {
	engine      ConversationEngine
	voiceAction string
	logger      *slog.Logger
}

// NewWebhookHandler builds the handler. voiceAction is the URL gathers post
// back to.
func NewWebhookHandler(engine ConversationEngine, voiceAction string, logger *slog.Logger) *WebhookHandler {
	if voiceAction == "" {
		voiceAction = "/voice"
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &WebhookHandler{engine: engine, voiceAction: voiceAction, logger: logger}
}

// SMS handles /sms.
func (h *WebhookHandler) SMS(c *gin.Context) {
	h.message(c, conversation.ChannelSMS)
}

// WhatsApp handles /whatsapp.
func (h *WebhookHandler) WhatsApp(c *gin.Context) {
	h.message(c, conversation.ChannelWhatsApp)
}

func (h *WebhookHandler) message(c *gin.Context, ch conversation.Channel) {
	ev, ok := h.event(c, ch)
	if !ok {
		return
	}
	ev.Text = c.Request.FormValue("Body")

	reply, ok := h.handle(c, ev)
	if !ok {
		return
	}
	out, err := channel.RenderMessage(reply)
	if err != nil {
		h.logger.Error("render message", "phone", ev.Phone, "error", err)
		writeError(c, http.StatusInternalServerError, "internal error")
		return
	}
	writeTwiML(c, out)
}

// Voice handles /voice, both the initial call and every gather callback.
func (h *WebhookHandler) Voice(c *gin.Context) {
	ev, ok := h.event(c, conversation.ChannelVoice)
	if !ok {
		return
	}
	ev.Digits = c.Request.FormValue("Digits")
	ev.Speech = c.Request.FormValue("SpeechResult")

	reply, ok := h.handle(c, ev)
	if !ok {
		return
	}
	out, err := channel.RenderVoice(reply, h.voiceAction)
	if err != nil {
		h.logger.Error("render voice", "phone", ev.Phone, "error", err)
		writeError(c, http.StatusInternalServerError, "internal error")
		return
	}
	writeTwiML(c, out)
}

func (h *WebhookHandler) event(c *gin.Context, ch conversation.Channel) (conversation.Event, bool) {
	phone := channel.NormalizePhone(c.Request.FormValue("From"))
	if phone == "" {
		writeError(c, http.StatusBadRequest, "missing From")
		return conversation.Event{}, false
	}
	return conversation.Event{Phone: phone, Channel: ch}, true
}

func (h *WebhookHandler) handle(c *gin.Context, ev conversation.Event) (conversation.Reply, bool) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), handleTimeout)
	defer cancel()

	reply, err := h.engine.Handle(ctx, ev)
	if err != nil {
		h.logger.Error("conversation step failed", "phone", ev.Phone, "channel", ev.Channel, "error", err)
		writeEngineError(c, err)
		return conversation.Reply{}, false
	}
	return reply, true
}

// Health handles GET /health.
func Health(c *gin.Context) {
	c.String(http.StatusOK, "OK")
}
