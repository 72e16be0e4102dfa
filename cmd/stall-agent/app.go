package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"stall/internal/config"
	"stall/internal/constants"
	"stall/internal/dispatch"
	"stall/internal/intake"
	"stall/internal/keys"
	"stall/internal/listing"
	"stall/internal/logger"
	"stall/internal/relay"
	"stall/pkg/health"
	"stall/pkg/metrics"
	"stall/pkg/retry"
)

type App struct {
	Config *config.Config
	Logger logger.Logger

	profile     *keys.Profile
	pool        *relay.Pool
	redisClient *redis.Client
	loop        *intake.Loop
	server      *http.Server
}

func NewApp(cfg *config.Config, log logger.Logger) *App {
	if sugaredLogger, ok := log.(*logger.SugaredLogger); ok {
		sugaredLogger.SetServiceName("stall-agent")
	}
	return &App{
		Config: cfg,
		Logger: log,
	}
}

func (a *App) Initialize(ctx context.Context) error {
	profile, err := keys.LoadOrGenerate(a.Config.Keys.File, a.Config.Keys.Generate, a.Config.Keys.Identifier)
	if err != nil {
		return fmt.Errorf("failed to load key profile: %w", err)
	}
	a.profile = profile
	a.Logger.InfowCtx(ctx, "Signing identity loaded",
		"public_key", profile.PublicKey,
	)

	metrics.Register()

	a.pool = relay.NewPool(a.Config.Relays, a.resubscribePolicy(), a.Logger)
	if err := a.pool.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect relay pool: %w", err)
	}

	cache := a.initCache(ctx)

	dispatcher := dispatch.NewDispatcher(
		a.profile,
		a.pool,
		a.pool,
		cache,
		a.Config.Publish.FeedbackRPS,
		a.Config.Publish.FeedbackBurst,
		a.Logger,
	)
	a.loop = intake.NewLoop(a.pool, dispatcher, int64(a.Config.Intake.MaxConcurrent), a.Logger)

	if err := a.announce(ctx); err != nil {
		a.Logger.WarnwCtx(ctx, "Startup announcement failed, continuing",
			"error", err,
		)
	}

	if a.Config.Server.Port > 0 {
		a.initHTTPServer()
	}

	return nil
}

// resubscribePolicy is the supervise shape with config overrides applied.
func (a *App) resubscribePolicy() retry.Policy {
	policy := retry.SupervisePolicy()
	if v := a.Config.Intake.Resubscribe.InitialInterval; v > 0 {
		policy.InitialInterval = v
	}
	if v := a.Config.Intake.Resubscribe.MaxInterval; v > 0 {
		policy.MaxInterval = v
	}
	if v := a.Config.Intake.Resubscribe.Multiplier; v > 1 {
		policy.Multiplier = v
	}
	return policy
}

func (a *App) initCache(ctx context.Context) listing.Cache {
	if !a.Config.Cache.Enabled {
		return listing.NopCache{}
	}

	a.redisClient = redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", a.Config.Cache.Redis.Host, a.Config.Cache.Redis.Port),
		Password: a.Config.Cache.Redis.Password,
		DB:       a.Config.Cache.Redis.DB,
	})

	if err := a.redisClient.Ping(ctx).Err(); err != nil {
		a.Logger.WarnwCtx(ctx, "Redis unreachable, running without listing cache",
			"error", err,
		)
		a.redisClient.Close()
		a.redisClient = nil
		return listing.NopCache{}
	}

	ttl := time.Duration(a.Config.Cache.TTLSeconds) * time.Second
	return listing.NewRedisCache(a.redisClient, ttl, a.Logger)
}

// announce publishes the agent's profile metadata and, when an identifier is
// configured, the handler announcement declaring which job kind it serves.
func (a *App) announce(ctx context.Context) error {
	meta := keys.Metadata{
		Name:  a.Config.Metadata.Name,
		About: a.Config.Metadata.About,
		NIP05: a.Config.Metadata.NIP05Domain,
	}

	metadataEvent, err := a.profile.MetadataEvent(meta)
	if err != nil {
		return err
	}
	if err := a.pool.Publish(ctx, metadataEvent); err != nil {
		return err
	}

	handlerEvent, ok, err := a.profile.HandlerEvent()
	if err != nil {
		return err
	}
	if ok {
		if err := a.pool.Publish(ctx, handlerEvent); err != nil {
			return err
		}
	}

	a.Logger.InfowCtx(ctx, "Startup announcements published",
		"handler", ok,
	)
	return nil
}

func (a *App) initHTTPServer() {
	mux := http.NewServeMux()

	healthRegistry := health.NewCheckerRegistry()
	healthRegistry.Register(health.NewRelayChecker(a.pool))
	if a.redisClient != nil {
		healthRegistry.Register(health.NewRedisChecker(a.redisClient))
	}

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		h := healthRegistry.Check(r.Context())
		statusCode := http.StatusOK
		if h.Status == health.StatusUnhealthy {
			statusCode = http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)
		fmt.Fprintf(w, `{"status":"%s","timestamp":"%s"}`, h.Status, h.Timestamp.Format(time.RFC3339))
	})

	mux.Handle("/metrics", promhttp.Handler())

	a.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler: mux,
	}
}

func (a *App) Run(ctx context.Context) error {
	g, gCtx := errgroup.WithContext(ctx)

	if a.server != nil {
		g.Go(func() error {
			a.Logger.InfowCtx(ctx, "HTTP server starting", "port", a.Config.Server.Port)
			if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return fmt.Errorf("HTTP server error: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gCtx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
			defer cancel()
			return a.server.Shutdown(shutdownCtx)
		})
	}

	g.Go(func() error {
		return a.loop.Run(gCtx)
	})

	return g.Wait()
}

func (a *App) Shutdown(ctx context.Context) error {
	a.Logger.InfowCtx(ctx, "Shutting down stall agent")

	var errs []error
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("redis close error: %w", err))
		}
	}
	if a.pool != nil {
		a.pool.Close()
	}

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %v", errs)
	}
	return nil
}
