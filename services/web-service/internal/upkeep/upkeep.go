// Package upkeep runs the web service's periodic background jobs.
package upkeep

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

const (
	ProbeSpec = "@every 30s"
	PruneSpec = "@every 1m"
)

var errNotProbed = errors.New("api not probed yet")

// Prober records whether the grooming API answers at all. Any HTTP response,
// whatever its status, counts as reachable.
type Prober struct {
	url    string
	client *http.Client

	mu      sync.RWMutex
	lastErr error
	at      time.Time
}

func NewProber(url string, client *http.Client) *Prober {
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	return &Prober{url: url, client: client, lastErr: errNotProbed}
}

func (p *Prober) Probe(ctx context.Context) error {
	err := p.probe(ctx)
	p.mu.Lock()
	p.lastErr = err
	p.at = time.Now()
	p.mu.Unlock()
	return err
}

func (p *Prober) probe(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("api unreachable: %w", err)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.Body.Close()
}

// Check reports the last probe result, probing first if none ran yet.
func (p *Prober) Check(ctx context.Context) error {
	p.mu.RLock()
	err := p.lastErr
	p.mu.RUnlock()
	if errors.Is(err, errNotProbed) {
		return p.Probe(ctx)
	}
	return err
}

type Pruner interface {
	Prune() int
}

type Jobs struct {
	Prober *Prober
	// Pruner is nil when rate limiting does not keep local state.
	Pruner Pruner
}

// Start schedules the jobs and returns the running scheduler. Stop it on shutdown.
func Start(logger *slog.Logger, jobs Jobs) (*cron.Cron, error) {
	cronLog := cron.PrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelWarn))
	c := cron.New(cron.WithLogger(cronLog), cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)))

	if jobs.Prober != nil {
		if _, err := c.AddFunc(ProbeSpec, func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := jobs.Prober.Probe(ctx); err != nil {
				logger.Warn("api probe failed", "err", err)
			}
		}); err != nil {
			return nil, fmt.Errorf("schedule api probe: %w", err)
		}
	}
	if jobs.Pruner != nil {
		if _, err := c.AddFunc(PruneSpec, func() {
			if n := jobs.Pruner.Prune(); n > 0 {
				logger.Debug("pruned rate limit windows", "count", n)
			}
		}); err != nil {
			return nil, fmt.Errorf("schedule limiter prune: %w", err)
		}
	}
	c.Start()
	return c, nil
}
