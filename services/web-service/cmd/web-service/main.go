package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"time"
	_ "time/tzdata"

	ghandlers "github.com/gorilla/handlers"
	"github.com/md-rashed-zaman/groombook/libs/config"
	"github.com/md-rashed-zaman/groombook/libs/httpx"
	"github.com/md-rashed-zaman/groombook/libs/kafkax"
	otelx "github.com/md-rashed-zaman/groombook/libs/otel"
	"github.com/md-rashed-zaman/groombook/libs/runtime"
	"github.com/md-rashed-zaman/groombook/services/web-service/internal/activity"
	"github.com/md-rashed-zaman/groombook/services/web-service/internal/apiclient"
	"github.com/md-rashed-zaman/groombook/services/web-service/internal/booking"
	"github.com/md-rashed-zaman/groombook/services/web-service/internal/handlers"
	"github.com/md-rashed-zaman/groombook/services/web-service/internal/session"
	"github.com/md-rashed-zaman/groombook/services/web-service/internal/table"
	"github.com/md-rashed-zaman/groombook/services/web-service/internal/upkeep"
	"github.com/md-rashed-zaman/groombook/services/web-service/internal/views"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/errgroup"
)

const contentSecurityPolicy = "default-src 'self'; img-src 'self' data:; frame-ancestors 'none'; form-action 'self'"

func main() {
	if err := config.LoadDotenv(); err != nil {
		panic(err)
	}
	s, err := loadSettings()
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(s.service)

	ctx, stop := runtime.SignalContext(context.Background())
	defer stop()

	if err := run(ctx, s, logger); err != nil {
		logger.Error("web service stopped with error", "err", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, s settings, logger *slog.Logger) error {
	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(s.service))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	var ready []runtime.ReadyCheck

	var rdb *redis.Client
	if s.redisAddr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     s.redisAddr,
			Password: s.redisPassword,
			DB:       s.redisDB,
		})
		defer func() { _ = rdb.Close() }()
		ready = append(ready, runtime.ReadyCheck{Name: "redis", Check: func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}})
	}

	codec, err := session.NewCodec(s.sessionSecret)
	if err != nil {
		return err
	}
	var store session.Store = session.CookieStore{}
	if s.sessionStore == "redis" {
		store = session.NewRedisStore(rdb)
	}

	api, err := apiclient.New(apiclient.Options{
		BaseURL: apiclient.BaseURL(s.apiURL),
		Timeout: s.apiTimeout,
		Tokens:  session.Token,
	})
	if err != nil {
		return err
	}
	sessions := session.NewManager(session.Options{
		Codec:      codec,
		Store:      store,
		API:        api,
		MaxAge:     s.sessionMaxAge,
		Secure:     s.cookieSecure,
		ProfileTTL: s.profileTTL,
		Logger:     logger,
	})

	renderer, err := views.New(s.location, logger)
	if err != nil {
		return err
	}

	var (
		limiter httpx.Limiter
		pruner  upkeep.Pruner
	)
	if rdb != nil {
		limiter = httpx.NewRedisLimiter(rdb, s.loginPerMinute, time.Minute, "rl:auth")
		logger.Info("login rate limiting enabled (redis)", "per_minute", s.loginPerMinute, "redis_addr", s.redisAddr)
	} else {
		mem := httpx.NewMemoryLimiter(s.loginPerMinute, time.Minute)
		limiter, pruner = mem, mem
		logger.Info("login rate limiting enabled (in-memory)", "per_minute", s.loginPerMinute)
	}

	var (
		events    activity.Publisher = activity.Noop{}
		publisher *activity.KafkaPublisher
	)
	if len(s.kafkaBrokers) > 0 {
		publisher = activity.NewKafkaPublisher(s.kafkaBrokers, logger, 256)
		events = publisher
		ready = append(ready, runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(s.kafkaBrokers)})
	}

	prober := upkeep.NewProber(s.apiURL, nil)
	ready = append(ready, runtime.ReadyCheck{Name: "api", Check: prober.Check})
	scheduler, err := upkeep.Start(logger, upkeep.Jobs{Prober: prober, Pruner: pruner})
	if err != nil {
		return err
	}
	defer scheduler.Stop()

	router := handlers.NewRouter(handlers.Deps{
		API:           api,
		Sessions:      sessions,
		Views:         renderer,
		Location:      s.location,
		Lists:         table.NewCache(s.listTTL),
		Tracker:       booking.NewTracker(15 * time.Minute),
		Guard:         booking.NewSubmitGuard(30 * time.Second),
		Events:        events,
		AuthLimiter:   limiter,
		LimitFailOpen: s.limitFailOpen,
		Ready:         ready,
		Logger:        logger,
		Now:           time.Now,
	})

	srv := &http.Server{
		Addr:              ":" + s.port,
		Handler:           newHandler(router, s, logger),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("http server starting", "addr", srv.Addr, "api_url", s.apiURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("http server shutdown error", "err", err)
		}
		logger.Info("http server stopped")
		return nil
	})
	if publisher != nil {
		g.Go(func() error { return publisher.Run(gctx) })
	}
	return g.Wait()
}

// newHandler wraps the router in the server-wide middleware, outermost first.
func newHandler(router http.Handler, s settings, logger *slog.Logger) http.Handler {
	h := httpx.Chain(router,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithSecurityHeaders(httpx.SecurityPolicy{
			ContentSecurityPolicy: contentSecurityPolicy,
			HSTS:                  s.cookieSecure,
		}),
		httpx.WithBodyLimit(s.bodyLimit),
		httpx.WithTimeout(s.requestTimeout),
	)
	h = ghandlers.CompressHandler(h)
	h = ghandlers.RecoveryHandler(
		ghandlers.RecoveryLogger(slog.NewLogLogger(logger.Handler(), slog.LevelError)),
		ghandlers.PrintRecoveryStack(true),
	)(h)
	return otelhttp.NewHandler(h, s.service)
}
