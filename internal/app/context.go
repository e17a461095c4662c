// Package app wires the engine from a loaded configuration.
package app

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"zebracli/internal/config"
	"zebracli/internal/db"
	"zebracli/internal/engine"
	"zebracli/internal/migrate"
	"zebracli/internal/store"
	"zebracli/internal/zebra"
)

// Context is an engine bound to the configured storage. Close releases it.
type Context struct {
	engine.Engine
	Config *config.Config
	Client *zebra.Client

	closers []func() error
}

// Open builds the storage backend, the Zebra client and the engine described
// by cfg. A nil logger discards output.
func Open(ctx context.Context, cfg *config.Config, logger *log.Logger) (*Context, error) {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	c := &Context{Config: cfg}
	backend, err := c.openBackend(ctx, cfg)
	if err != nil {
		return nil, err
	}
	c.Client = zebra.New(cfg.Zebra.URL, cfg.Zebra.Token)
	c.Engine = engine.New(engine.Options{
		Backend:  backend,
		API:      c.Client,
		UserID:   cfg.Zebra.UserID,
		Aliases:  cfg.Aliases,
		Location: cfg.Location(),
		Logger:   logger,
		Now:      time.Now,
	})
	return c, nil
}

func (c *Context) openBackend(ctx context.Context, cfg *config.Config) (store.Backend, error) {
	dir, err := db.EnsureDir(cfg.DataDir())
	if err != nil {
		return nil, fmt.Errorf("data dir: %w", err)
	}
	switch cfg.Storage.Driver {
	case config.DriverSQLite:
		conn, err := db.Open(db.Config{Dir: dir})
		if err != nil {
			return nil, err
		}
		if err := migrate.Migrate(ctx, conn); err != nil {
			conn.Close()
			return nil, err
		}
		c.closers = append(c.closers, conn.Close)
		return store.NewSQLBackend(conn), nil
	case config.DriverFile, "":
		return store.NewFileBackend(dir), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

func (c *Context) Close() error {
	var first error
	for _, fn := range c.closers {
		if err := fn(); err != nil && first == nil {
			first = err
		}
	}
	c.closers = nil
	return first
}
