package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/quantarb/arbot/internal/cache/redis"
	"github.com/quantarb/arbot/internal/config"
	"github.com/quantarb/arbot/internal/detector"
	"github.com/quantarb/arbot/internal/domain"
	"github.com/quantarb/arbot/internal/events"
	"github.com/quantarb/arbot/internal/executor"
	"github.com/quantarb/arbot/internal/fetcher"
	"github.com/quantarb/arbot/internal/gateway"
	"github.com/quantarb/arbot/internal/indicator"
	"github.com/quantarb/arbot/internal/notify"
)

// Dependencies bundles everything the scan loop needs. It is constructed by
// Wire and torn down by the returned cleanup function.
type Dependencies struct {
	Registry  *gateway.Registry
	Fetcher   *fetcher.Fetcher
	Engine    *indicator.Engine
	Detectors []detector.Detector
	Executor  *executor.Executor
	Recorder  *events.Recorder
	Notifier  *notify.Notifier
}

// Wire constructs all concrete dependencies from the configuration and
// returns them with a cleanup function to release resources on shutdown.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	// Gateway registry: the closed exchange set, validated here once. Both
	// supported modes run against paper gateways; a live deployment swaps in
	// real clients at this point.
	clients := make([]gateway.Gateway, 0, len(cfg.Exchanges))
	for _, ex := range cfg.Exchanges {
		clients = append(clients, gateway.NewPaper(ex.ID, ex.TakerFee))
	}
	registry, err := gateway.NewRegistry(clients...)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	// Optional Redis event bus.
	var bus domain.EventBus
	if cfg.Redis.Enabled {
		client, err := redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = client.Close() })
		bus = redis.NewEventBus(client)
	}
	recorder := events.NewRecorder(bus, cfg.Redis.Channel, logger)

	// Notifications.
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(cfg.Notify.TelegramToken, cfg.Notify.TelegramChatID))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	notifier := notify.NewNotifier(senders, cfg.Notify.Events, logger)

	retryCfg := gateway.RetryConfig{
		MaxAttempts: cfg.Retry.MaxAttempts,
		BaseDelay:   cfg.Retry.BaseDelay.Duration,
	}

	engine := indicator.NewEngine(logger)

	exchangeIDs := make([]string, 0, len(cfg.Exchanges))
	for _, ex := range cfg.Exchanges {
		exchangeIDs = append(exchangeIDs, ex.ID)
	}

	triangles := make([]detector.Triangle, 0, len(cfg.Triangles))
	for _, t := range cfg.Triangles {
		triangles = append(triangles, detector.Triangle{
			Legs:      [3]string{t.Legs[0], t.Legs[1], t.Legs[2]},
			Exchanges: [3]string{t.Exchanges[0], t.Exchanges[1], t.Exchanges[2]},
		})
	}

	statExchange := cfg.Statistical.Exchange
	if statExchange == "" && len(exchangeIDs) > 0 {
		statExchange = exchangeIDs[0]
	}

	detectors := []detector.Detector{
		detector.NewCrossExchange(cfg.Engine.Pairs, exchangeIDs, registry, cfg.Engine.MinProfitPct, logger),
		detector.NewTriangular(triangles, cfg.Engine.TriangularThreshold, logger),
		detector.NewStatistical(engine, cfg.Statistical.Pair, statExchange, logger),
	}

	exec := executor.New(registry, retryCfg, nil, recorder, notifier, executor.Config{
		MinProfitPct:      cfg.Engine.MinProfitPct,
		TradeAmount:       cfg.Engine.TradeAmount,
		MaxTradeAmount:    cfg.Engine.MaxTradeAmount,
		Cooldown:          cfg.Engine.Cooldown.Duration,
		SlippageTolerance: cfg.Engine.SlippageTolerance,
		DryRun:            strings.EqualFold(cfg.Mode, "monitor"),
	}, logger)

	return &Dependencies{
		Registry:  registry,
		Fetcher:   fetcher.New(registry, retryCfg, nil, cfg.Engine.CandleTimeframe, logger),
		Engine:    engine,
		Detectors: detectors,
		Executor:  exec,
		Recorder:  recorder,
		Notifier:  notifier,
	}, cleanup, nil
}
