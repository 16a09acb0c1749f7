package guides

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Fetcher retrieves a guide from a remote source.
type Fetcher interface {
	Fetch(ctx context.Context, guideID int) (*Guide, error)
}

// Downloader fetches guides into the registry. Concurrent requests for the
// same guide share one download.
type Downloader struct {
	fetcher  Fetcher
	registry *Registry
	log      *zap.Logger
	group    singleflight.Group
}

// NewDownloader creates a Downloader storing into registry.
func NewDownloader(fetcher Fetcher, registry *Registry, log *zap.Logger) *Downloader {
	if log == nil {
		log = zap.NewNop()
	}
	return &Downloader{fetcher: fetcher, registry: registry, log: log}
}

// Download fetches a guide and stores it, replacing any local copy.
func (d *Downloader) Download(ctx context.Context, guideID int) (*Guide, error) {
	v, err, shared := d.group.Do(strconv.Itoa(guideID), func() (any, error) {
		g, err := d.fetcher.Fetch(ctx, guideID)
		if err != nil {
			return nil, err
		}
		if err := d.registry.Add(g); err != nil {
			return nil, fmt.Errorf("store guide %d: %w", guideID, err)
		}
		return g, nil
	})
	if err != nil {
		d.log.Warn("Guide download failed", zap.Int("guide", guideID), zap.Error(err))
		return nil, err
	}
	d.log.Info("Guide downloaded", zap.Int("guide", guideID), zap.Bool("shared", shared))
	return v.(*Guide), nil
}

// Ensure makes a guide available locally, downloading it only when missing.
func (d *Downloader) Ensure(ctx context.Context, guideID int) (*Guide, error) {
	if g, ok := d.registry.Guide(guideID); ok {
		return g, nil
	}
	return d.Download(ctx, guideID)
}
