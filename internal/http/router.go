// README: HTTP router registration.
package http

import (
	"io"
	"log/slog"

	"github.com/gin-gonic/gin"

	"ridesafe/internal/http/handlers"
	"ridesafe/internal/http/middleware"
)

func NewRouter(deps ServerDeps) *gin.Engine {
	if deps.Logger == nil {
		deps.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	r := gin.New()
	r.Use(middleware.Recovery(deps.Logger), middleware.Logging(deps.Logger))

	r.GET("/health", handlers.Health)

	hooks := r.Group("/")
	if deps.Validator != nil {
		hooks.Use(middleware.TwilioSignature(deps.Validator, deps.PublicURL))
	}
	webhook := handlers.NewWebhookHandler(deps.Engine, deps.VoiceAction, deps.Logger)
	for path, h := range map[string]gin.HandlerFunc{
		"/sms":      webhook.SMS,
		"/whatsapp": webhook.WhatsApp,
		"/voice":    webhook.Voice,
	} {
		hooks.POST(path, h)
		hooks.GET(path, h)
	}
	return r
}
