// Package localcache keeps the operator's last known site document on disk
// so an editing session can start before the server answers.
package localcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/curelo/landingcms/internal/cms/contentstore"
	"github.com/curelo/landingcms/internal/domain/models"
	"github.com/dgraph-io/badger/v4"
)

// ErrCacheMiss is returned when the cache holds no document.
var ErrCacheMiss = contentstore.ErrCacheMiss

const documentKey = "site-document"

// Options configures a BadgerCache.
type Options struct {
	Directory string // defaults to ~/.landingcms/cache
	InMemory  bool
}

// BadgerCache is a contentstore.Cache backed by BadgerDB.
type BadgerCache struct {
	db   *badger.DB
	stop chan struct{}
}

var _ contentstore.Cache = (*BadgerCache)(nil)

// Open opens or creates the cache.
func Open(opts Options) (*BadgerCache, error) {
	var bo badger.Options
	if opts.InMemory {
		bo = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if opts.Directory == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return nil, err
			}
			opts.Directory = filepath.Join(home, ".landingcms", "cache")
		}
		if err := os.MkdirAll(opts.Directory, 0o755); err != nil {
			return nil, err
		}
		bo = badger.DefaultOptions(opts.Directory)
	}
	bo = bo.WithLogger(nil)

	db, err := badger.Open(bo)
	if err != nil {
		return nil, fmt.Errorf("open local cache: %w", err)
	}

	c := &BadgerCache{db: db, stop: make(chan struct{})}
	if !opts.InMemory {
		go c.gcLoop()
	}
	return c, nil
}

func (c *BadgerCache) gcLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			_ = c.db.RunValueLogGC(0.5)
		}
	}
}

// Load returns the cached document.
func (c *BadgerCache) Load(ctx context.Context) (*models.SiteDocument, error) {
	var raw []byte
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(documentKey))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrCacheMiss
			}
			return err
		}
		raw, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, err
	}

	var doc models.SiteDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode cached document: %w", err)
	}
	return &doc, nil
}

// Save replaces the cached document.
func (c *BadgerCache) Save(ctx context.Context, doc *models.SiteDocument) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	return c.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(documentKey), raw)
	})
}

// Clear removes the cached document.
func (c *BadgerCache) Clear() error {
	return c.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(documentKey))
	})
}

// Close releases the cache.
func (c *BadgerCache) Close() error {
	close(c.stop)
	return c.db.Close()
}
