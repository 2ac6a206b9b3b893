// README: Entry point; loads config, wires the conversation engine and serves the Twilio webhooks.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/twilio/twilio-go/client"

	"ridesafe/internal/ai"
	"ridesafe/internal/config"
	httptransport "ridesafe/internal/http"
	"ridesafe/internal/infra"
	"ridesafe/internal/logging"
	"ridesafe/internal/maps"
	"ridesafe/internal/modules/address"
	"ridesafe/internal/modules/conversation"
	"ridesafe/internal/modules/notify"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.Logging)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("ridesafe-api stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	store, closeStore, err := newStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		rdb, err = infra.NewRedis(ctx, cfg.Redis.Addr)
		if err != nil {
			return err
		}
		defer rdb.Close()
	}

	var locker conversation.Locker = conversation.NewLocalLocker()
	if rdb != nil {
		locker = conversation.NewRedisLocker(rdb, cfg.Conversation.LockTTL, logger)
	}

	geocodeSvc, err := maps.NewGeocodeService(cfg.Maps.APIKey)
	if err != nil {
		return err
	}
	var geocoder address.Geocoder = geocodeSvc
	if rdb != nil {
		geocoder = maps.NewCachedGeocoder(geocodeSvc, rdb, cfg.Maps.CacheTTL, logger)
	}
	distanceSvc, err := maps.NewDistanceService(cfg.Maps.APIKey)
	if err != nil {
		return err
	}

	var sender notify.Sender = notify.LogSender{Logger: logger}
	if cfg.Twilio.AccountSID != "" {
		tw, err := notify.NewTwilioSender(cfg.Twilio.AccountSID, cfg.Twilio.AuthToken, cfg.Twilio.FromNumber)
		if err != nil {
			return err
		}
		sender = tw
	} else {
		logger.Warn("twilio credentials not set; notifications are only logged")
	}
	dispatcher := notify.NewDispatcher(sender, notify.DefaultSendTimeout, logger)

	opts := conversation.Options{MaxRetries: cfg.Conversation.MaxRetries, Logger: logger}
	if cfg.AI.GeminiKey != "" {
		gemini, err := ai.NewGeminiProvider(ctx, cfg.AI.GeminiKey)
		if err != nil {
			return err
		}
		defer gemini.Close()
		opts.Extractor = gemini
	}

	engine := conversation.NewEngine(
		store,
		locker,
		address.NewResolver(geocoder, cfg.Conversation.TooFarKm, logger),
		address.NewTravelTimer(distanceSvc),
		dispatcher,
		opts,
	)

	deps := httptransport.ServerDeps{
		Engine:      engine,
		PublicURL:   cfg.Twilio.PublicURL,
		VoiceAction: cfg.Twilio.VoiceAction,
		Logger:      logger,
	}
	if cfg.Twilio.ValidateSignature {
		v := client.NewRequestValidator(cfg.Twilio.AuthToken)
		deps.Validator = &v
	}

	serveErr := httptransport.NewServer(cfg.HTTP.Addr, deps).Run(ctx)

	drainCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := dispatcher.Wait(drainCtx); err != nil {
		logger.Warn("notifications still pending at shutdown", "error", err)
	}
	return serveErr
}

// newStore uses Postgres when a DSN is configured and keeps state in memory otherwise.
// newStore returns the conversation store and a func that releases it.
func newStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (conversation.Store, func(), error) {
	if cfg.DB.DSN == "" {
		logger.Warn("RIDESAFE_DB_DSN not set; using in-memory store")
		return conversation.NewMemoryStore(), func() {}, nil
	}
	pool, err := infra.NewDB(ctx, cfg.DB.DSN)
	if err != nil {
		return nil, nil, err
	}
	if err := infra.Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, err
	}
	return conversation.NewPostgresStore(pool), pool.Close, nil
}
