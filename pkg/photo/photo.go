// Package photo resolves a representative aircraft photo.
//
// The hexdb thumbnail index is tried first. It is sparse, so on a miss the
// community photo site is scraped by registration (or callsign).
package photo

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/unklstewy/spotty/pkg/hexdb"
	"github.com/unklstewy/spotty/pkg/retry"
)

// ThumbnailSource is the primary photo provider.
type ThumbnailSource interface {
	Thumbnail(ctx context.Context, hex string) (string, error)
}

// Finder is the fallback photo provider.
type Finder interface {
	Find(ctx context.Context, key string) (string, error)
}

// Resolver runs the thumbnail-then-scrape chain.
type Resolver struct {
	primary  ThumbnailSource
	fallback Finder
	retry    retry.Config
	logger   *slog.Logger
}

// NewResolver builds a resolver. fallback may be nil to disable scraping.
// The primary call is retried once, after retryDelay, only on HTTP 500.
func NewResolver(primary ThumbnailSource, fallback Finder, retryDelay time.Duration, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	cfg := retry.Once(retryDelay, func(err error) bool {
		return errors.Is(err, hexdb.ErrServerError)
	})
	cfg.Logger = logger
	return &Resolver{
		primary:  primary,
		fallback: fallback,
		retry:    cfg,
		logger:   logger,
	}
}

// ResolvePhoto returns a photo URL for identifier, or "" when neither source has one.
func (r *Resolver) ResolvePhoto(ctx context.Context, identifier, fallbackKey string) string {
	if r.primary != nil && identifier != "" {
		thumb, err := retry.WithBackoffResult(ctx, r.retry, func() (string, error) {
			return r.primary.Thumbnail(ctx, identifier)
		})
		if err == nil {
			return NormalizeURL(thumb)
		}
		r.logger.Debug("thumbnail miss", "hex", identifier, "error", err)
	}

	if r.fallback == nil || fallbackKey == "" {
		return ""
	}

	src, err := r.fallback.Find(ctx, fallbackKey)
	if err != nil {
		r.logger.Debug("photo scrape miss", "key", fallbackKey, "error", err)
		return ""
	}
	return src
}
