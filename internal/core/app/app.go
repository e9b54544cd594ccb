// Package app wires the configuration, the resolution engine, the
// optional history store, and the file watcher into one unit shared by
// the CLI and the HTTP daemon.
package app

import (
	"context"
	"log/slog"

	"phpnav/internal/core/config"
	"phpnav/internal/core/errors"
	"phpnav/internal/data/history"
	"phpnav/internal/engine/pathres"
	"phpnav/internal/engine/proxy"
	"phpnav/internal/engine/resolver"
	"phpnav/internal/watcher"
)

type App struct {
	Config   *config.Config
	Resolver *resolver.Resolver
	History  *history.Store

	watch *watcher.Watcher
}

func New(cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, errors.New(errors.CodeValidationError, "config is required")
	}

	res := resolver.New(resolver.Options{
		Paths: pathres.Options{
			Roots:     cfg.Workspace.Roots,
			Prefixes:  cfg.Workspace.Prefixes,
			MaxDepth:  cfg.Search.WalkMaxDepth,
			MaxFiles:  cfg.Search.WalkMaxFiles,
			WalkRate:  float64(cfg.Search.WalkRate),
			WalkBurst: cfg.Search.WalkBurst,
		},
		Markers: proxy.Markers{
			Prefix:     cfg.Proxy.Prefix,
			Suffix:     cfg.Proxy.Suffix,
			SidecarDir: cfg.Proxy.SidecarDir,
		},
		AnnotationWindow:    cfg.Search.AnnotationWindow,
		MaxParentDepth:      cfg.Search.MaxParentDepth,
		ResolutionCacheSize: cfg.Cache.ResolutionSize,
		ClassFileCacheSize:  cfg.Cache.ClassFileSize,
	})

	a := &App{Config: cfg, Resolver: res}

	if cfg.DB.Enabled {
		store, err := history.Open(cfg.DB.Path, cfg.DB.MaxRecords)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeIO, "open history store")
		}
		a.History = store
	}

	return a, nil
}

func (a *App) Close(ctx context.Context) error {
	if a == nil {
		return nil
	}
	if a.watch != nil {
		if err := a.watch.Close(); err != nil {
			slog.Warn("close watcher", "error", err)
		}
		a.watch = nil
	}
	if a.History != nil {
		if err := a.History.Close(); err != nil {
			return errors.Wrap(err, errors.CodeIO, "close history store")
		}
		a.History = nil
	}
	return nil
}
