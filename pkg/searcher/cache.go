package searcher

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	ragerrors "github.com/Aman-CERP/ragcore/internal/errors"
	"github.com/Aman-CERP/ragcore/pkg/indexer"
)

// DefaultCacheSize is the number of engines a Cache keeps.
const DefaultCacheSize = 8

// Cache shares loaded engines between callers, keyed by index location.
//
// An entry is reused while the artifact file keeps the modification time
// and size it had when loaded; a rebuilt index is loaded again on the next
// Get. Concurrent Gets of the same location load it once. The shared load
// ignores cancellation of the caller that started it; a cancelled caller
// stops waiting and gets its context error while the others still receive
// the engine.
type Cache struct {
	entries *lru.Cache[string, *cacheEntry]
	group   singleflight.Group
	opts    []Option
}

type cacheEntry struct {
	engine  *Engine
	modTime time.Time
	size    int64
}

// NewCache creates a cache of up to size engines. opts are passed to every
// Load.
func NewCache(size int, opts ...Option) (*Cache, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	entries, err := lru.New[string, *cacheEntry](size)
	if err != nil {
		return nil, err
	}
	return &Cache{entries: entries, opts: opts}, nil
}

// Get returns the engine for location, loading it if it is not cached or
// its artifact changed.
func (c *Cache) Get(ctx context.Context, location string) (*Engine, error) {
	key := filepath.Clean(location)

	fi, err := os.Stat(indexer.ArtifactPath(key))
	if err != nil {
		c.entries.Remove(key)
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ragerrors.IndexNotFoundError(location, err)
		}
		return nil, ragerrors.CorruptArtifactError("failed to stat artifact", err)
	}
	if entry, ok := c.entries.Get(key); ok && entry.matches(fi) {
		return entry.engine, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	loadCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (any, error) {
		// Stat before reading so a concurrent rebuild leaves a stale stamp,
		// which only causes another reload.
		fi, err := os.Stat(indexer.ArtifactPath(key))
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, ragerrors.IndexNotFoundError(location, err)
			}
			return nil, ragerrors.CorruptArtifactError("failed to stat artifact", err)
		}
		eng, err := Load(loadCtx, key, c.opts...)
		if err != nil {
			return nil, err
		}
		c.entries.Add(key, &cacheEntry{engine: eng, modTime: fi.ModTime(), size: fi.Size()})
		return eng, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			slog.Debug("engine_load_shared", slog.String("location", key))
		}
		return res.Val.(*Engine), nil
	}
}

// Invalidate drops the cached engine for location.
func (c *Cache) Invalidate(location string) {
	c.entries.Remove(filepath.Clean(location))
}

// Len returns the number of cached engines.
func (c *Cache) Len() int {
	return c.entries.Len()
}

// Purge drops every cached engine.
func (c *Cache) Purge() {
	c.entries.Purge()
}

func (e *cacheEntry) matches(fi os.FileInfo) bool {
	return e.modTime.Equal(fi.ModTime()) && e.size == fi.Size()
}
