package db

import (
	"context"
	"sync"
)

// Opener creates a Store. It is called lazily by a Connector.
type Opener func(ctx context.Context) (Store, error)

// URLOpener returns an Opener for the given connection string.
func URLOpener(url string) Opener {
	return func(ctx context.Context) (Store, error) {
		return Open(ctx, url)
	}
}

// Connector owns a lazily opened Store. The first successful Acquire caches
// the handle; a failed open is not cached, so the next Acquire tries again.
type Connector struct {
	mu    sync.Mutex
	open  Opener
	store Store
}

// NewConnector creates a Connector that opens its Store on first use.
func NewConnector(open Opener) *Connector {
	return &Connector{open: open}
}

// StaticConnector wraps an already opened Store.
func StaticConnector(s Store) *Connector {
	return &Connector{store: s}
}

// Acquire returns the shared Store, opening it if needed.
func (c *Connector) Acquire(ctx context.Context) (Store, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.store != nil {
		return c.store, nil
	}

	s, err := c.open(ctx)
	if err != nil {
		return nil, err
	}
	c.store = s
	return s, nil
}

// Close closes the Store if it was ever opened.
func (c *Connector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.store == nil {
		return nil
	}
	err := c.store.Close()
	c.store = nil
	return err
}
