package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/predictvip/migrations"
	"github.com/dmitrymomot/predictvip/modules/subscriptions"
	"github.com/dmitrymomot/predictvip/pkg/clientip"
	"github.com/dmitrymomot/predictvip/pkg/config"
	"github.com/dmitrymomot/predictvip/pkg/email"
	"github.com/dmitrymomot/predictvip/pkg/httpserver"
	"github.com/dmitrymomot/predictvip/pkg/jwt"
	"github.com/dmitrymomot/predictvip/pkg/logger"
	"github.com/dmitrymomot/predictvip/pkg/notifications"
	"github.com/dmitrymomot/predictvip/pkg/pg"
	"github.com/dmitrymomot/predictvip/pkg/ratelimiter"
	"github.com/dmitrymomot/predictvip/pkg/redis"
	"github.com/dmitrymomot/predictvip/pkg/scheduler"
	"github.com/dmitrymomot/predictvip/pkg/subscription"
	"github.com/dmitrymomot/predictvip/pkg/webhook"
	"github.com/dmitrymomot/predictvip/svc/metrics"
	"github.com/dmitrymomot/predictvip/svc/notify"
	"github.com/dmitrymomot/predictvip/svc/storage"
)

type appConfig struct {
	Env         string   `env:"APP_ENV" envDefault:"development"`
	ServiceName string   `env:"SERVICE_NAME" envDefault:"predictvip"`
	AppURL      string   `env:"APP_URL" envDefault:"http://localhost:3000"`
	PaystackKey string   `env:"PAYSTACK_SECRET_KEY,required"`
	JWTSecret   string   `env:"JWT_SECRET,required"`
	SuperAdmins []string `env:"SUPER_ADMIN_EMAILS" envSeparator:","`
	PlansFile   string   `env:"PLANS_FILE"`

	SweepToken  string `env:"SWEEP_TOKEN"`
	SweepHour   int    `env:"SWEEP_AT_HOUR" envDefault:"2"`
	SweepMinute int    `env:"SWEEP_AT_MINUTE" envDefault:"0"`
	WarningDays int    `env:"EXPIRY_WARNING_DAYS" envDefault:"3"`

	RedisEnabled  bool          `env:"REDIS_ENABLED" envDefault:"false"`
	ReferenceTTL  time.Duration `env:"PAYMENT_REFERENCE_TTL" envDefault:"720h"`
	RelayURL      string        `env:"RELAY_WEBHOOK_URL"`
	RelaySecret   string        `env:"RELAY_WEBHOOK_SECRET"`
	ReadyzTimeout time.Duration `env:"READYZ_TIMEOUT" envDefault:"2s"`
	SweepTimeout  time.Duration `env:"SWEEP_TIMEOUT" envDefault:"10m"`

	RateLimitBurst  int           `env:"RATE_LIMIT_BURST" envDefault:"60"`
	RateLimitRefill time.Duration `env:"RATE_LIMIT_REFILL" envDefault:"1s"`
}

func (c *appConfig) Validate() error {
	if c.SweepHour < 0 || c.SweepHour > 23 {
		return fmt.Errorf("SWEEP_AT_HOUR must be within 0..23, got %d", c.SweepHour)
	}
	if c.SweepMinute < 0 || c.SweepMinute > 59 {
		return fmt.Errorf("SWEEP_AT_MINUTE must be within 0..59, got %d", c.SweepMinute)
	}
	if c.RateLimitBurst < 1 || c.RateLimitRefill <= 0 {
		return errors.New("RATE_LIMIT_BURST and RATE_LIMIT_REFILL must be positive")
	}
	if c.WarningDays < 1 {
		return fmt.Errorf("EXPIRY_WARNING_DAYS must be positive, got %d", c.WarningDays)
	}
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		slog.Error("server stopped", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	var (
		cfg      appConfig
		pgCfg    pg.Config
		redisCfg redis.Config
		httpCfg  httpserver.Config
		emailCfg email.Config
	)
	for _, load := range []func() error{
		func() error { return config.Load(&cfg) },
		func() error { return config.Load(&pgCfg) },
		func() error { return config.Load(&redisCfg) },
		func() error { return config.Load(&httpCfg) },
		func() error { return config.Load(&emailCfg) },
	} {
		if err := load(); err != nil {
			return err
		}
	}

	log := logger.New(
		logger.WithEnvironment(cfg.Env, cfg.ServiceName),
		logger.WithContextValueFunc("request_id", middleware.GetReqID),
		logger.WithContextValueFunc("client_ip", clientip.FromContext),
	)
	logger.SetAsDefault(log)

	pool, err := pg.Connect(ctx, pgCfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := pg.Migrate(ctx, pool, pgCfg, migrations.FS, log); err != nil {
		return err
	}

	checks := map[string]httpserver.Check{"postgres": pg.Healthcheck(pool)}

	limiterCfg := ratelimiter.Config{
		Capacity:       cfg.RateLimitBurst,
		RefillRate:     1,
		RefillInterval: cfg.RateLimitRefill,
	}
	var limitStore ratelimiter.Store
	var ledger subscription.EventLedger = storage.NewPaymentLedger(pool)
	if cfg.RedisEnabled {
		client, err := redis.Connect(ctx, redisCfg)
		if err != nil {
			return err
		}
		defer client.Close()

		checks["redis"] = redis.Healthcheck(client)
		keys := redis.NewKeySet(client, redisCfg.KeyPrefix+"payment_ref:", cfg.ReferenceTTL)
		ledger = storage.NewCachedLedger(ledger, keys, log)
		limitStore = ratelimiter.NewRedisStore(client, redisCfg.KeyPrefix+"ratelimit:")
	} else {
		mem := ratelimiter.NewMemoryStore()
		defer mem.Close()
		limitStore = mem
	}
	limiter, err := ratelimiter.NewBucket(limitStore, limiterCfg)
	if err != nil {
		return err
	}

	catalog, err := subscription.LoadCatalog(cfg.PlansFile)
	if err != nil {
		return err
	}

	sender, err := email.New(emailCfg)
	if err != nil {
		return err
	}

	profiles := storage.NewProfileStore(pool)
	feed := notifications.NewManager(storage.NewNotificationStore(pool), notifications.WithManagerLogger(log))

	notifier := notify.Multi{
		notify.NewEmailNotifier(sender, catalog, notify.WithAppURL(cfg.AppURL), notify.WithEmailLogger(log)),
		notify.NewInAppNotifier(feed, catalog),
	}
	if cfg.RelayURL != "" {
		relay := webhook.NewSender(&http.Client{Timeout: 30 * time.Second})
		notifier = append(notifier, notify.NewWebhookRelay(relay, cfg.RelayURL, cfg.RelaySecret))
	}

	registry := metrics.NewRegistry()

	lc := subscription.NewLifecycle(
		storage.NewSubscriptionStore(pool),
		catalog,
		subscription.NewIdentityResolver(profiles),
		subscription.WithLogger(log),
		subscription.WithNotifier(notifier),
		subscription.WithObserver(metrics.NewObserver(registry)),
	)
	svc := subscriptions.Service{
		Lifecycle: lc,
		Ingestor:  subscription.NewIngestor(lc, cfg.PaystackKey, subscription.WithEventLedger(ledger)),
		Admin:     subscription.NewAdminService(lc),
		Sweeper:   subscription.NewSweeper(lc, subscription.WithWarningDays(cfg.WarningDays)),
	}

	tokens, err := jwt.New(cfg.JWTSecret)
	if err != nil {
		return err
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, clientip.Middleware, middleware.Recoverer)
	r.Get("/healthz", httpserver.Liveness())
	r.Get("/readyz", httpserver.Readiness(log, cfg.ReadyzTimeout, checks))
	r.Handle("/metrics", metrics.Handler(registry))
	r.Mount("/", subscriptions.Router(subscriptions.RouterOptions{
		Service:    svc,
		Auth:       subscriptions.NewAuthenticator(tokens, profiles, cfg.SuperAdmins, nil, log),
		SweepToken: cfg.SweepToken,
		Limiter:    limiter,
		Logger:     log,
	}))

	sched := scheduler.New(scheduler.WithLogger(log))
	err = sched.Register("expiry_sweep", scheduler.DailyAt(cfg.SweepHour, cfg.SweepMinute),
		func(ctx context.Context) error {
			_, err := svc.Sweeper.Run(ctx)
			return err
		},
		scheduler.WithTimeout(cfg.SweepTimeout),
	)
	if err != nil {
		return err
	}

	log.InfoContext(ctx, "starting server",
		slog.String("addr", httpCfg.Addr),
		slog.Int("plans", len(catalog.IDs())),
		slog.Bool("redis", cfg.RedisEnabled),
		slog.Bool("relay", cfg.RelayURL != ""),
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return httpserver.New(httpCfg, log).Run(ctx, r)
	})
	g.Go(func() error {
		return sched.Run(ctx)
	})
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
