package script

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	domainErrors "github.com/polkiloo/coursepay/internal/domain/errors"
)

const maxScriptSize = 4 << 20

// Script is the fetched gateway checkout script.
type Script struct {
	Source      string
	ContentType string
	Body        []byte
	FetchedAt   time.Time
}

// Loader fetches the gateway checkout script at most once per process.
// Failed fetches are not remembered, so the next caller retries.
type Loader struct {
	source     string
	httpClient *http.Client
	logger     *slog.Logger

	group singleflight.Group

	mu     sync.RWMutex
	loaded *Script
}

// NewLoader validates source URL and builds Loader.
func NewLoader(source string, logger *slog.Logger) (*Loader, error) {
	parsed, err := url.Parse(source)
	if err != nil {
		return nil, fmt.Errorf("parse checkout script url: %w", err)
	}
	if !parsed.IsAbs() {
		return nil, fmt.Errorf("checkout script url must be absolute")
	}
	return &Loader{
		source:     parsed.String(),
		logger:     logger,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}, nil
}

// Load returns cached script or fetches it. Concurrent callers share one fetch.
func (l *Loader) Load(ctx context.Context) (*Script, error) {
	if s := l.Cached(); s != nil {
		return s, nil
	}

	ch := l.group.DoChan("script", func() (any, error) {
		if s := l.Cached(); s != nil {
			return s, nil
		}
		// detached so one caller giving up does not fail the others
		s, err := l.fetch(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		l.mu.Lock()
		l.loaded = s
		l.mu.Unlock()
		return s, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Script), nil
	}
}

// Cached returns the loaded script or nil.
func (l *Loader) Cached() *Script {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.loaded
}

func (l *Loader) fetch(ctx context.Context) (*Script, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.source, nil)
	if err != nil {
		return nil, err
	}
	resp, err := l.httpClient.Do(req)
	if err != nil {
		l.logger.Warn("checkout script fetch failed", slog.String("source", l.source), slog.String("error", err.Error()))
		return nil, fmt.Errorf("%w: %v", domainErrors.ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		l.logger.Warn("checkout script fetch rejected", slog.String("source", l.source), slog.Int("status", resp.StatusCode))
		return nil, fmt.Errorf("%w: script status %s", domainErrors.ErrGatewayUnavailable, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxScriptSize))
	if err != nil {
		return nil, fmt.Errorf("%w: read script: %v", domainErrors.ErrGatewayUnavailable, err)
	}
	if len(body) == 0 {
		return nil, fmt.Errorf("%w: empty script", domainErrors.ErrGatewayUnavailable)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/javascript"
	}
	l.logger.Info("checkout script loaded", slog.String("source", l.source), slog.Int("bytes", len(body)))
	return &Script{Source: l.source, ContentType: contentType, Body: body, FetchedAt: time.Now()}, nil
}
