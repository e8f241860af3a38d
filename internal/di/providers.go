package di

import (
	"context"
	"fmt"
	"time"

	"MarketMood/internal/domain/models"
	domrepo "MarketMood/internal/domain/repository"
	"MarketMood/internal/handler/api"
	"MarketMood/internal/handler/ws"
	internalrepo "MarketMood/internal/repository"
	"MarketMood/internal/scheduler"
	"MarketMood/internal/service/outbound"
	"MarketMood/internal/service/provider"
	"MarketMood/internal/service/ratelimit"
	"MarketMood/internal/usecase"
	"MarketMood/pkg/cache"
	pkgch "MarketMood/pkg/clickhouse"
	"MarketMood/pkg/config"
	xhttp "MarketMood/pkg/http"
	pkgkafka "MarketMood/pkg/kafka"
	applogger "MarketMood/pkg/logger"
	"MarketMood/pkg/metrics"
	"MarketMood/pkg/postgres"
	"MarketMood/pkg/server"
)

// Closers collects infrastructure teardown functions as providers run; the
// App closes them in reverse order on shutdown.
type Closers struct {
	fns []server.Closer
}

func (c *Closers) Add(fn server.Closer) { c.fns = append(c.fns, fn) }

// ProvideClosers creates the shared closer collector.
func ProvideClosers() *Closers { return &Closers{} }

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	return applogger.New(&applogger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() domrepo.Metrics {
	return metrics.New()
}

// ProvideHotCache creates the hot latest-reading cache. The redis backend is
// layered: an in-process L1 in front of Redis, so repeated reads inside one
// freshness window never leave the process.
func ProvideHotCache(cfg *config.Config, cl *Closers) (cache.Service, error) {
	switch cfg.Cache.Backend {
	case "redis":
		rc, err := cache.NewRedisCache(
			cache.WithRedisHost(cfg.Cache.Redis.Host),
			cache.WithRedisPort(cfg.Cache.Redis.Port),
			cache.WithRedisPassword(cfg.Cache.Redis.Password),
			cache.WithRedisDB(cfg.Cache.Redis.DB),
			cache.WithRedisPrefix("marketmood"),
		)
		if err != nil {
			return nil, fmt.Errorf("redis cache: %w", err)
		}
		// One L1 slot per indicator is enough; 64 leaves headroom.
		lc := cache.NewLayeredCache(rc, cache.WithLayeredMemorySize(64))
		cl.Add(lc.Close)
		return lc, nil
	default:
		mc := cache.NewMemoryCache()
		cl.Add(mc.Close)
		return mc, nil
	}
}

// ProvideReadingRepository creates the readings store.
func ProvideReadingRepository(cfg *config.Config, lgr *applogger.Logger, cl *Closers) (domrepo.ReadingRepository, error) {
	if cfg.Storage.Backend == "memory" {
		return internalrepo.NewMemoryReadingStore(), nil
	}

	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.Storage.ClickHouse.Host),
		pkgch.WithPort(cfg.Storage.ClickHouse.Port),
		pkgch.WithDatabase(cfg.Storage.ClickHouse.Database),
		pkgch.WithCredentials(cfg.Storage.ClickHouse.User, cfg.Storage.ClickHouse.Password),
		pkgch.WithTimeouts(cfg.Storage.ClickHouse.DialTimeout, cfg.Storage.ClickHouse.ReadTimeout, cfg.Storage.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.Storage.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.InitSchema(ctx, internalrepo.Schema()); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	cl.Add(client.Close)
	store := internalrepo.NewCHReadingStore(client)
	store.SetLogger(lgr)
	return store, nil
}

// ProvideSubscriptionStore creates the subscriptions store.
func ProvideSubscriptionStore(cfg *config.Config, cl *Closers) (domrepo.SubscriptionStore, error) {
	if cfg.Subscriptions.Backend == "memory" {
		return internalrepo.NewMemorySubscriptionStore(), nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	pool, err := postgres.NewPool(ctx, postgres.Config{
		DSN:      cfg.Subscriptions.Postgres.DSN,
		MaxConns: int32(cfg.Subscriptions.Postgres.MaxConns),
	})
	if err != nil {
		return nil, err
	}
	cl.Add(func() error { pool.Close(); return nil })

	store := internalrepo.NewPGSubscriptionStore(pool)
	if err := store.InitSchema(ctx); err != nil {
		return nil, err
	}
	return store, nil
}

// ProvideProviders assembles the adapter ladder, primary first.
func ProvideProviders(cfg *config.Config) []domrepo.Provider {
	if cfg.Providers.UseMock {
		return []domrepo.Provider{provider.NewMock()}
	}
	client := xhttp.NewClient(xhttp.WithTimeout(cfg.Providers.RequestTimeout))
	return []domrepo.Provider{
		provider.NewCNN(client, cfg.Providers.CNN.BaseURL),
		provider.NewAlternative(client, cfg.Providers.Alternative.BaseURL),
		provider.NewYahoo(client, cfg.Providers.Yahoo.BaseURL),
	}
}

// ProvideOrchestrator creates the cache-aware fetch engine.
func ProvideOrchestrator(
	cfg *config.Config,
	repo domrepo.ReadingRepository,
	providers []domrepo.Provider,
	hot cache.Service,
	m domrepo.Metrics,
	lgr *applogger.Logger,
) *usecase.Orchestrator {
	bounds := models.DefaultBounds()
	for name, b := range cfg.Bounds {
		ind := models.Indicator(name)
		if ind.Valid() {
			bounds[ind] = models.ValueBounds{Min: b.Min, Max: b.Max}
		}
	}
	return usecase.NewOrchestrator(repo, providers, hot, m, lgr, usecase.OrchestratorConfig{
		FreshnessWindow: func(ind models.Indicator) time.Duration { return cfg.FreshnessFor(string(ind)) },
		FallbackWindow:  cfg.Cache.FallbackWindow,
		RequestTimeout:  cfg.Providers.RequestTimeout,
		MaxRetries:      cfg.Providers.MaxRetries,
		BackoffMin:      cfg.Providers.BackoffMin,
		BackoffMax:      cfg.Providers.BackoffMax,
		Bounds:          bounds,
	})
}

// ProvideOutbound creates the notification delivery channel.
func ProvideOutbound(cfg *config.Config, lgr *applogger.Logger, cl *Closers) (domrepo.Outbound, error) {
	if cfg.Outbound.Type == "kafka" {
		producer, err := pkgkafka.NewProducer(
			pkgkafka.WithBrokers(cfg.Outbound.Kafka.Brokers),
			pkgkafka.WithCompression(cfg.Outbound.Kafka.Compression),
			pkgkafka.WithRequiredAcks(cfg.Outbound.Kafka.RequiredAcks),
			pkgkafka.WithMaxAttempts(cfg.Outbound.Kafka.MaxAttempts),
			pkgkafka.WithTimeouts(cfg.Outbound.Kafka.WriteTimeout, cfg.Outbound.Kafka.WriteTimeout),
			pkgkafka.WithHashByKey(true),
		)
		if err != nil {
			return nil, fmt.Errorf("kafka producer: %w", err)
		}
		cl.Add(producer.Close)
		return outbound.NewKafka(producer, cfg.Outbound.Kafka.Topic), nil
	}
	return outbound.NewTelegram(outbound.TelegramConfig{
		APIBase:  cfg.Outbound.Telegram.APIBase,
		BotToken: cfg.Outbound.Telegram.BotToken,
		Timeout:  cfg.Outbound.Telegram.Timeout,
	}, lgr)
}

// ProvidePacer creates the global send pacer.
func ProvidePacer(cfg *config.Config) *ratelimit.Pacer {
	return ratelimit.NewPacer(cfg.Scheduler.MaxSendsPerSecond)
}

// ProvideNotifier creates the notification dispatcher.
func ProvideNotifier(
	cfg *config.Config,
	store domrepo.SubscriptionStore,
	orch *usecase.Orchestrator,
	out domrepo.Outbound,
	pacer *ratelimit.Pacer,
	m domrepo.Metrics,
	lgr *applogger.Logger,
) *scheduler.Notifier {
	return scheduler.NewNotifier(store, orch, out, usecase.NewRenderer(), pacer, m, lgr, scheduler.NotifierConfig{
		GraceWindow:     cfg.Scheduler.GraceWindow,
		QuietHoursStart: cfg.Scheduler.QuietHours.Start,
		QuietHoursEnd:   cfg.Scheduler.QuietHours.End,
		Indicators:      models.Indicators(),
	})
}

// ProvideHub creates the websocket streaming hub.
func ProvideHub(lgr *applogger.Logger, cl *Closers) *ws.Hub {
	hub := ws.NewHub(lgr)
	cl.Add(func() error { hub.Close(); return nil })
	return hub
}

// ProvideRefresher creates the forced-refresh and retention job.
func ProvideRefresher(
	cfg *config.Config,
	orch *usecase.Orchestrator,
	repo domrepo.ReadingRepository,
	hub *ws.Hub,
	lgr *applogger.Logger,
) *scheduler.Refresher {
	retention := time.Duration(cfg.Scheduler.RetentionDays) * 24 * time.Hour
	return scheduler.NewRefresher(orch, repo, hub, lgr, retention)
}

// ProvideHandlers assembles the HTTP route groups.
func ProvideHandlers(
	cfg *config.Config,
	lgr *applogger.Logger,
	orch *usecase.Orchestrator,
	store domrepo.SubscriptionStore,
	repo domrepo.ReadingRepository,
	notifier *scheduler.Notifier,
	hub *ws.Hub,
) []xhttp.Handler {
	return []xhttp.Handler{
		api.NewSentimentEchoHandler(lgr, orch, store, repo, notifier, cfg.AdminToken),
		hub,
	}
}

// ProvideApp creates the application server with registered closers.
func ProvideApp(
	cfg *config.Config,
	lgr *applogger.Logger,
	notifier *scheduler.Notifier,
	refresher *scheduler.Refresher,
	handlers []xhttp.Handler,
	cl *Closers,
) *server.App {
	app := server.New(cfg, lgr, notifier, refresher, handlers)
	for _, fn := range cl.fns {
		app.AddCloser(fn)
	}
	return app
}
