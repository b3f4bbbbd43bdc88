package objectmap

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/GM-Alex/user-access-manager-sub006/internal/domain"
)

// Fixed cache-store keys for the four maps.
const (
	postTreeMapCacheKey = "uamPostTreeMap"
	termTreeMapCacheKey = "uamTermTreeMap"
	termPostMapCacheKey = "uamTermPostMap"
	postTermMapCacheKey = "uamPostTermMap"
)

// EdgeSource provides the raw rows the builder consumes. Satisfied by
// domain.ContentRepository.
type EdgeSource interface {
	PostEdges(ctx context.Context) ([]domain.Edge, error)
	TermEdges(ctx context.Context) ([]domain.Edge, error)
	TermPostRelations(ctx context.Context) ([]domain.Relation, error)
}

// Builder lazily computes and memoizes the tree and cross maps. Results are
// cached in-process for the builder's lifetime and mirrored to the external
// cache store under fixed keys; concurrent cache misses are collapsed to a
// single rebuild per key via singleflight.
type Builder struct {
	source EdgeSource
	store  domain.CacheStore
	logger *slog.Logger

	sf singleflight.Group

	mu       sync.RWMutex
	postTree *TreeMap
	termTree *TreeMap
	termPost CrossMap
	postTerm CrossMap
}

// NewBuilder creates a Builder over the given edge source and cache store.
func NewBuilder(source EdgeSource, store domain.CacheStore, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{source: source, store: store, logger: logger}
}

// PostTreeMap returns the transitively-closed post hierarchy.
func (b *Builder) PostTreeMap(ctx context.Context) (*TreeMap, error) {
	b.mu.RLock()
	memo := b.postTree
	b.mu.RUnlock()
	if memo != nil {
		return memo, nil
	}

	v, err, _ := b.sf.Do(postTreeMapCacheKey, func() (interface{}, error) {
		return b.loadTreeMap(ctx, postTreeMapCacheKey, domain.GeneralPost, b.source.PostEdges, &b.postTree)
	})
	if err != nil {
		return nil, err
	}
	return v.(*TreeMap), nil
}

// TermTreeMap returns the transitively-closed term hierarchy.
func (b *Builder) TermTreeMap(ctx context.Context) (*TreeMap, error) {
	b.mu.RLock()
	memo := b.termTree
	b.mu.RUnlock()
	if memo != nil {
		return memo, nil
	}

	v, err, _ := b.sf.Do(termTreeMapCacheKey, func() (interface{}, error) {
		return b.loadTreeMap(ctx, termTreeMapCacheKey, domain.GeneralTerm, b.source.TermEdges, &b.termTree)
	})
	if err != nil {
		return nil, err
	}
	return v.(*TreeMap), nil
}

// TermPostMap returns the termID -> posts cross map.
func (b *Builder) TermPostMap(ctx context.Context) (CrossMap, error) {
	termPost, _, err := b.crossMaps(ctx)
	return termPost, err
}

// PostTermMap returns the postID -> terms cross map.
func (b *Builder) PostTermMap(ctx context.Context) (CrossMap, error) {
	_, postTerm, err := b.crossMaps(ctx)
	return postTerm, err
}

// Invalidate drops the in-process memos and the external cache entries. The
// collaborator mutating posts or terms must call this.
func (b *Builder) Invalidate(ctx context.Context) {
	b.mu.Lock()
	b.postTree = nil
	b.termTree = nil
	b.termPost = nil
	b.postTerm = nil
	b.mu.Unlock()

	for _, key := range []string{postTreeMapCacheKey, termTreeMapCacheKey, termPostMapCacheKey, postTermMapCacheKey} {
		if err := b.store.Invalidate(ctx, key); err != nil {
			b.logger.Warn("invalidate map cache entry", "key", key, "error", err)
		}
	}
}

func (b *Builder) loadTreeMap(
	ctx context.Context,
	cacheKey, generalType string,
	edges func(context.Context) ([]domain.Edge, error),
	memo **TreeMap,
) (*TreeMap, error) {
	if cached, ok := b.fromStore(ctx, cacheKey); ok {
		var m TreeMap
		if err := json.Unmarshal(cached, &m); err == nil {
			b.mu.Lock()
			*memo = &m
			b.mu.Unlock()
			return &m, nil
		}
		// A corrupt entry is treated as a miss and rebuilt.
		_ = b.store.Invalidate(ctx, cacheKey)
	}

	rows, err := edges(ctx)
	if err != nil {
		return nil, fmt.Errorf("load %s edges: %w", generalType, err)
	}

	m, err := BuildTreeMap(generalType, rows)
	if err != nil {
		return nil, err
	}

	b.toStore(ctx, cacheKey, m)
	b.mu.Lock()
	*memo = m
	b.mu.Unlock()
	return m, nil
}

func (b *Builder) crossMaps(ctx context.Context) (CrossMap, CrossMap, error) {
	b.mu.RLock()
	termPost, postTerm := b.termPost, b.postTerm
	b.mu.RUnlock()
	if termPost != nil && postTerm != nil {
		return termPost, postTerm, nil
	}

	type pair struct{ termPost, postTerm CrossMap }
	v, err, _ := b.sf.Do(termPostMapCacheKey, func() (interface{}, error) {
		tp, ok1 := b.fromStore(ctx, termPostMapCacheKey)
		pt, ok2 := b.fromStore(ctx, postTermMapCacheKey)
		if ok1 && ok2 {
			var cachedTP, cachedPT CrossMap
			if json.Unmarshal(tp, &cachedTP) == nil && json.Unmarshal(pt, &cachedPT) == nil {
				b.mu.Lock()
				b.termPost, b.postTerm = cachedTP, cachedPT
				b.mu.Unlock()
				return pair{cachedTP, cachedPT}, nil
			}
		}

		relations, err := b.source.TermPostRelations(ctx)
		if err != nil {
			return pair{}, fmt.Errorf("load term/post relations: %w", err)
		}
		builtTP, builtPT := BuildCrossMaps(relations)

		b.toStore(ctx, termPostMapCacheKey, builtTP)
		b.toStore(ctx, postTermMapCacheKey, builtPT)
		b.mu.Lock()
		b.termPost, b.postTerm = builtTP, builtPT
		b.mu.Unlock()
		return pair{builtTP, builtPT}, nil
	})
	if err != nil {
		return nil, nil, err
	}
	p := v.(pair)
	return p.termPost, p.postTerm, nil
}

func (b *Builder) fromStore(ctx context.Context, key string) ([]byte, bool) {
	value, found, err := b.store.Get(ctx, key)
	if err != nil {
		b.logger.Warn("read map cache entry", "key", key, "error", err)
		return nil, false
	}
	return value, found
}

func (b *Builder) toStore(ctx context.Context, key string, v interface{}) {
	payload, err := json.Marshal(v)
	if err != nil {
		b.logger.Warn("encode map cache entry", "key", key, "error", err)
		return
	}
	if err := b.store.Add(ctx, key, payload); err != nil {
		b.logger.Warn("write map cache entry", "key", key, "error", err)
	}
}
