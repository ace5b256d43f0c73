package kroki

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/facebookgo/clock"

	"github.com/yungbote/breakdown-backend/internal/config"
	"github.com/yungbote/breakdown-backend/internal/platform/logger"
)

// Library renders Mermaid sources to SVG through a Kroki server. It reports
// ready once the server's /health endpoint has answered 200; Start keeps
// probing in the background.
type Library struct {
	baseURL    string
	interval   time.Duration
	httpClient *http.Client
	clock      clock.Clock
	log        *logger.Logger

	ready atomic.Bool
}

func New(cfg config.KrokiConfig, log *logger.Logger) *Library {
	if log == nil {
		log = logger.Nop()
	}
	interval := cfg.HealthInterval.Duration
	if interval <= 0 {
		interval = 2 * time.Second
	}
	timeout := cfg.Timeout.Duration
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Library{
		baseURL:    strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		interval:   interval,
		httpClient: &http.Client{Timeout: timeout},
		clock:      clock.New(),
		log:        log.With("service", "KrokiRenderer"),
	}
}

func (l *Library) Ready() bool { return l.ready.Load() }

// Probe runs one health check and updates readiness.
func (l *Library) Probe(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.baseURL+"/health", nil)
	if err != nil {
		l.ready.Store(false)
		return false
	}
	resp, err := l.httpClient.Do(req)
	ok := err == nil && resp.StatusCode == http.StatusOK
	if resp != nil {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))
		resp.Body.Close()
	}
	if prev := l.ready.Swap(ok); prev != ok {
		l.log.Info("kroki readiness changed", "ready", ok)
	}
	return ok
}

// Start probes immediately and then every health interval until ctx ends.
func (l *Library) Start(ctx context.Context) error {
	l.Probe(ctx)
	t := l.clock.Ticker(l.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			l.Probe(ctx)
		}
	}
}

// Run posts source to /mermaid/svg and returns the SVG document.
func (l *Library) Run(ctx context.Context, source string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.baseURL+"/mermaid/svg", strings.NewReader(source))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "text/plain")
	req.Header.Set("Accept", "image/svg+xml")

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		msg := strings.TrimSpace(string(body))
		if len(msg) > 300 {
			msg = msg[:300]
		}
		return "", fmt.Errorf("kroki status %d: %s", resp.StatusCode, msg)
	}
	return string(body), nil
}
