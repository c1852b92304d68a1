package offline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"sync"

	nerrors "github.com/abdul-hamid-achik/ntricacid/internal/errors"
	"github.com/abdul-hamid-achik/ntricacid/internal/storage"
)

const (
	namesKey    = "offline_caches"
	cacheKeyPre = "offline_cache_"
)

// Entry is one cached response.
type Entry struct {
	Status int         `json:"status"`
	Header http.Header `json:"header"`
	Body   []byte      `json:"body"`
}

// Caches is a set of named response caches kept in a storage.Store.
// Each cache is one stored JSON object keyed by request URI.
type Caches struct {
	mu    sync.Mutex
	store storage.Store
}

// NewCaches creates a Caches over store.
func NewCaches(store storage.Store) *Caches {
	return &Caches{store: store}
}

// Names lists the caches in creation order.
func (c *Caches) Names(ctx context.Context) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.names(ctx)
}

func (c *Caches) names(ctx context.Context) ([]string, error) {
	var names []string
	if err := c.read(ctx, namesKey, &names); err != nil {
		return nil, err
	}
	return names, nil
}

// Put stores e under uri in cache name, creating the cache if needed.
func (c *Caches) Put(ctx context.Context, name, uri string, e Entry) error {
	return c.PutAll(ctx, name, map[string]Entry{uri: e})
}

// PutAll stores every entry in one write.
func (c *Caches) PutAll(ctx context.Context, name string, entries map[string]Entry) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	names, err := c.names(ctx)
	if err != nil {
		return err
	}
	if !slices.Contains(names, name) {
		if err := c.write(ctx, namesKey, append(names, name)); err != nil {
			return err
		}
	}

	cache := map[string]Entry{}
	if err := c.read(ctx, cacheKeyPre+name, &cache); err != nil {
		return err
	}
	for uri, e := range entries {
		cache[uri] = e
	}
	return c.write(ctx, cacheKeyPre+name, cache)
}

// Match returns the first entry for uri across all caches.
func (c *Caches) Match(ctx context.Context, uri string) (Entry, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	names, err := c.names(ctx)
	if err != nil {
		return Entry{}, false, err
	}
	for _, name := range names {
		cache := map[string]Entry{}
		if err := c.read(ctx, cacheKeyPre+name, &cache); err != nil {
			return Entry{}, false, err
		}
		if e, ok := cache[uri]; ok {
			return e, true, nil
		}
	}
	return Entry{}, false, nil
}

// Delete drops cache name. Deleting an unknown cache is not an error.
func (c *Caches) Delete(ctx context.Context, name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	names, err := c.names(ctx)
	if err != nil {
		return err
	}
	if err := c.store.Delete(ctx, cacheKeyPre+name); err != nil {
		return nerrors.StorageFailed("delete", cacheKeyPre+name, err)
	}
	kept := slices.DeleteFunc(names, func(n string) bool { return n == name })
	return c.write(ctx, namesKey, kept)
}

func (c *Caches) read(ctx context.Context, key string, v any) error {
	data, err := c.store.Get(ctx, key)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return nerrors.StorageFailed("read", key, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return nerrors.CorruptState(key, err)
	}
	return nil
}

func (c *Caches) write(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := c.store.Set(ctx, key, data); err != nil {
		return nerrors.StorageFailed("write", key, err)
	}
	return nil
}
