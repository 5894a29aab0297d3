// Command api-stub serves an in-memory grooming API so the web client can run
// without the real backend.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"time"
	_ "time/tzdata"

	ghandlers "github.com/gorilla/handlers"
	"github.com/md-rashed-zaman/groombook/libs/config"
	"github.com/md-rashed-zaman/groombook/libs/grooming"
	"github.com/md-rashed-zaman/groombook/libs/httpx"
	otelx "github.com/md-rashed-zaman/groombook/libs/otel"
	"github.com/md-rashed-zaman/groombook/libs/runtime"
	"github.com/md-rashed-zaman/groombook/tools/api-stub/internal/stub"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/errgroup"
)

const service = "api-stub"

func main() {
	if err := config.LoadDotenv(); err != nil {
		panic(err)
	}
	seed := flag.Bool("seed", config.Bool("STUB_SEED", false), "register a demo customer (demo / demo1234)")
	flag.Parse()
	logger := runtime.NewLogger(service)

	port, err := config.Port("PORT", "8080")
	if err != nil {
		panic(err)
	}
	secret, err := config.RequiredString("JWT_SECRET")
	if err != nil {
		panic(err)
	}
	loc, err := time.LoadLocation(config.String("STUB_TIMEZONE", "Asia/Jerusalem"))
	if err != nil {
		panic(err)
	}
	ttl := time.Duration(config.Int("TOKEN_TTL_MINUTES", 60)) * time.Minute

	ctx, stop := runtime.SignalContext(context.Background())
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(service))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	store := stub.NewStore(loc)
	if *seed {
		u, err := store.Register(grooming.Registration{Username: "demo", Password: "demo1234", FullName: "Demo Customer"})
		if err != nil {
			panic(err)
		}
		logger.Info("seeded demo customer", "customer_id", u.ID, "username", u.Username)
	}

	var h http.Handler = stub.NewServer(store, []byte(secret), ttl, logger).Routes()
	h = httpx.Chain(h, httpx.WithRequestID, httpx.WithAccessLog(logger), httpx.WithBodyLimit(1<<20))
	h = ghandlers.RecoveryHandler(ghandlers.RecoveryLogger(slog.NewLogLogger(logger.Handler(), slog.LevelError)))(h)

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           otelhttp.NewHandler(h, service),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("http server starting", "addr", srv.Addr, "timezone", loc.String())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if err := g.Wait(); err != nil {
		logger.Error("api stub stopped with error", "err", err)
		stop()
		os.Exit(1)
	}
}
