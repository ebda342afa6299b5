// Package bootstrap wires all dependencies and starts the application.
package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/Heht571/LLMRouter/adapters/auth"
	"github.com/Heht571/LLMRouter/adapters/clock"
	"github.com/Heht571/LLMRouter/adapters/hasher"
	apihttp "github.com/Heht571/LLMRouter/adapters/http"
	"github.com/Heht571/LLMRouter/adapters/http/api"
	"github.com/Heht571/LLMRouter/adapters/idgen"
	"github.com/Heht571/LLMRouter/adapters/memory"
	"github.com/Heht571/LLMRouter/adapters/metrics"
	"github.com/Heht571/LLMRouter/adapters/random"
	"github.com/Heht571/LLMRouter/adapters/secrets"
	"github.com/Heht571/LLMRouter/adapters/sqlite"
	"github.com/Heht571/LLMRouter/app"
	"github.com/Heht571/LLMRouter/config"
	"github.com/Heht571/LLMRouter/domain/ratelimit"
	"github.com/Heht571/LLMRouter/ports"
)

// App represents the running application.
type App struct {
	Logger     zerolog.Logger
	Config     *config.Holder
	DB         *sqlite.DB
	HTTPServer *http.Server
	Metrics    *metrics.Collector

	usageRecorder ports.UsageRecorder
	upstream      *apihttp.UpstreamClient
}

// New creates and initializes the application from a loaded config.
func New(cfg *config.Config) (*App, error) {
	logger := SetupLogger(cfg.Logging)

	logger.Info().Msg("initializing llmrouter")

	a := &App{
		Logger: logger,
	}

	db, err := sqlite.Open(cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	a.DB = db
	logger.Info().Str("dsn", cfg.Database.DSN).Msg("database initialized")

	if cfg.Metrics.Enabled {
		a.Metrics = metrics.New()
		logger.Info().Msg("prometheus metrics enabled")
	}

	if err := a.initHTTPServer(cfg); err != nil {
		db.Close()
		return nil, fmt.Errorf("init http server: %w", err)
	}

	return a, nil
}

// NewWithHotReload creates the application from a config file and watches
// it for changes. Log level changes apply live; structural changes such as
// server address or database DSN require a restart.
func NewWithHotReload(path string) (*App, error) {
	bootLogger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	holder, err := config.NewHolder(path, bootLogger)
	if err != nil {
		return nil, err
	}

	a, err := New(holder.Get())
	if err != nil {
		holder.Stop()
		return nil, err
	}
	a.Config = holder

	holder.OnChange(func(next *config.Config) {
		if level, perr := zerolog.ParseLevel(next.Logging.Level); perr == nil {
			zerolog.SetGlobalLevel(level)
		}
	})

	if a.Metrics != nil {
		holder.OnReload(func(ok bool) {
			if ok {
				a.Metrics.ConfigReloads.Inc()
			} else {
				a.Metrics.ConfigReloadErrors.Inc()
			}
		})
	}

	if err := holder.WatchFile(); err != nil {
		a.Logger.Warn().Err(err).Msg("config file watch unavailable")
	}
	holder.WatchSignals()

	return a, nil
}

func (a *App) initHTTPServer(cfg *config.Config) error {
	// Shared infrastructure adapters
	clk := clock.Real{}
	ids := idgen.UUID{}
	rnd := random.Real{}
	bcryptHasher := hasher.NewBcrypt(cfg.Auth.BcryptCost)
	cipher, err := secrets.NewAESGCM(cfg.Secrets.MasterKey)
	if err != nil {
		return fmt.Errorf("init cipher: %w", err)
	}
	tokens := auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.TokenExpiry)

	// Stores
	accountStore := sqlite.NewAccountStore(a.DB)
	serviceStore := sqlite.NewServiceStore(a.DB)
	subStore := sqlite.NewSubscriptionStore(a.DB)
	docStore := sqlite.NewDocumentationStore(a.DB)
	usageStore := sqlite.NewUsageStore(a.DB)

	// Usage recorder (batched writes off the proxy hot path)
	recorder := NewBatchingUsageRecorder(usageStore, cfg.Usage.BatchSize, cfg.Usage.FlushInterval)
	a.usageRecorder = recorder

	// Upstream client
	upstream := apihttp.NewUpstreamClient(apihttp.UpstreamConfig{
		Timeout:         cfg.Gateway.Timeout,
		MaxIdleConns:    cfg.Gateway.MaxIdleConns,
		IdleConnTimeout: cfg.Gateway.IdleConnTimeout,
	})
	a.upstream = upstream

	// Application services
	accounts := app.NewAccountService(app.AccountDeps{
		Accounts: accountStore,
		Hasher:   bcryptHasher,
		IDGen:    ids,
		Clock:    clk,
	})
	registry := app.NewRegistryService(app.RegistryDeps{
		Services: serviceStore,
		Subs:     subStore,
		Docs:     docStore,
		Cipher:   cipher,
		IDGen:    ids,
		Random:   rnd,
		Clock:    clk,
	})
	subscriptions := app.NewSubscriptionService(app.SubscriptionDeps{
		Subs:     subStore,
		Services: serviceStore,
		IDGen:    ids,
		Clock:    clk,
	})
	usageSvc := app.NewUsageService(usageStore, clk)
	gateway := app.NewGatewayService(app.GatewayDeps{
		Subs:      subStore,
		Services:  serviceStore,
		Cipher:    cipher,
		Usage:     recorder,
		Upstream:  upstream,
		RateLimit: memory.NewRateLimitStore(),
		RateLimitConfig: ratelimit.Config{
			Limit:  cfg.Gateway.RateLimit,
			Window: cfg.Gateway.RateWindow,
			Burst:  cfg.Gateway.RateBurst,
		},
		Clock: clk,
		IDGen: ids,
	})

	// HTTP handlers
	apiHandler := api.NewHandler(api.Deps{
		Accounts: accounts,
		Registry: registry,
		Subs:     subscriptions,
		Usage:    usageSvc,
		Tokens:   tokens,
		Logger:   a.Logger,
	})
	gatewayHandler := apihttp.NewGatewayHandler(gateway, a.Logger, a.Metrics)

	router := apihttp.NewRouter(gatewayHandler, a.Logger, apihttp.RouterConfig{
		Metrics:    a.Metrics,
		APIHandler: apiHandler.Router(),
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	a.HTTPServer = &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	a.Logger.Info().Str("addr", addr).Msg("http server configured")
	return nil
}

// Run starts the HTTP server and blocks until shutdown.
func (a *App) Run() error {
	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info().
			Str("addr", a.HTTPServer.Addr).
			Msg("starting http server")
		if err := a.HTTPServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		a.Logger.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	return a.Shutdown()
}

// Shutdown gracefully stops the application.
func (a *App) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if a.HTTPServer != nil {
		if err := a.HTTPServer.Shutdown(ctx); err != nil {
			a.Logger.Error().Err(err).Msg("http server shutdown error")
		}
	}

	if a.usageRecorder != nil {
		if err := a.usageRecorder.Close(); err != nil {
			a.Logger.Error().Err(err).Msg("usage recorder close error")
		}
	}

	if a.upstream != nil {
		a.upstream.Close()
	}

	if a.Config != nil {
		a.Config.Stop()
	}

	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			a.Logger.Error().Err(err).Msg("database close error")
		}
	}

	a.Logger.Info().Msg("shutdown complete")
	return nil
}

// SetupLogger builds the process logger from logging config.
func SetupLogger(cfg config.LoggingConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Format == "console" {
		output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
		return zerolog.New(output).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}
