// Copyright 2026 The Meridian Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/meridian-index/meridian/lib/config"
	"github.com/meridian-index/meridian/lib/objects"
	"github.com/meridian-index/meridian/lib/packages"
	"github.com/meridian-index/meridian/lib/typelayout"
)

// resolverApp bundles the configured store, cache, and layout
// resolver behind one handle shared by all subcommands.
type resolverApp struct {
	logger   *slog.Logger
	cache    *packages.Cache
	resolver typelayout.Resolver
	closer   io.Closer
}

// openApp loads configuration and constructs the resolver stack. An
// empty configPath falls back to the MERIDIAN_CONFIG environment
// variable.
func openApp(configPath string) (*resolverApp, error) {
	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	level, err := cfg.LogLevel()
	if err != nil {
		return nil, err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	options := packages.MaterializeOptions{StrictRuntimeID: cfg.Store.StrictRuntimeID}

	var store packages.Store
	var closer io.Closer
	switch cfg.Store.Mode {
	case config.StoreDB:
		db, err := packages.OpenDBStore(packages.DBStoreConfig{
			Path:        cfg.Store.DB.Path,
			PoolSize:    cfg.Store.DB.PoolSize,
			Logger:      logger,
			Materialize: options,
		})
		if err != nil {
			return nil, err
		}
		store, closer = db, db

	case config.StoreLocal:
		fetcher, err := objects.NewClient(objects.ClientConfig{
			BaseURL: cfg.Store.Local.FallbackURL,
			Logger:  logger,
		})
		if err != nil {
			return nil, err
		}
		compression, err := cfg.CompressionTag()
		if err != nil {
			return nil, err
		}
		local, err := packages.OpenLocalStore(packages.LocalStoreConfig{
			Path:        cfg.Store.Local.Path,
			PoolSize:    cfg.Store.Local.PoolSize,
			Fetcher:     fetcher,
			Compression: compression,
			Logger:      logger,
			Materialize: options,
		})
		if err != nil {
			return nil, err
		}
		store, closer = local, local

	default:
		return nil, fmt.Errorf("unsupported store mode %q", cfg.Store.Mode)
	}

	cache := packages.NewCache(packages.CacheConfig{
		Store:  store,
		Size:   cfg.Cache.Size,
		Logger: logger,
	})

	return &resolverApp{
		logger:   logger,
		cache:    cache,
		resolver: typelayout.Resolver{Source: cache},
		closer:   closer,
	}, nil
}

// Close releases the store's connections.
func (a *resolverApp) Close() error {
	return a.closer.Close()
}
