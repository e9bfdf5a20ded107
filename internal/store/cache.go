package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dgallion1/docmock/internal/endpoint"
	lru "github.com/hashicorp/golang-lru/v2"
)

// GetCachedResponse returns the cache row for (mockID, signature).
func (s *SQLiteStore) GetCachedResponse(ctx context.Context, mockID, signature string) (*CacheEntry, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id,mock_id,request_signature,request_body,response_body,created_at
		FROM response_cache WHERE mock_id=? AND request_signature=?`, mockID, signature)
	var (
		e       CacheEntry
		created int64
	)
	err := row.Scan(&e.ID, &e.MockID, &e.Signature, &e.RequestBody, &e.ResponseBody, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get cached response: %w", err)
	}
	e.CreatedAt = fromMillis(created)
	return &e, nil
}

// PutCachedResponse upserts on (mockID, signature); the last write wins.
func (s *SQLiteStore) PutCachedResponse(ctx context.Context, e *CacheEntry) error {
	if e.ID == "" {
		e.ID = endpoint.NewID()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO response_cache(id,mock_id,request_signature,request_body,response_body,created_at)
		VALUES(?,?,?,?,?,?)
		ON CONFLICT(mock_id, request_signature) DO UPDATE SET
			request_body=excluded.request_body,
			response_body=excluded.response_body,
			created_at=excluded.created_at`,
		e.ID, e.MockID, e.Signature, e.RequestBody, e.ResponseBody, millis(e.CreatedAt))
	if err != nil {
		return fmt.Errorf("put cached response: %w", err)
	}
	return nil
}

// CachedStore keeps recently served cache rows in memory in front of the
// sqlite table. Every path that deletes cache rows purges the front too, and
// a read that raced a purge does not refill the front.
type CachedStore struct {
	*SQLiteStore
	front *lru.Cache[string, CacheEntry]

	mu       sync.Mutex
	epoch    uint64
	versions map[string]uint64
}

func NewCachedStore(s *SQLiteStore, size int) (*CachedStore, error) {
	if size <= 0 {
		size = 1024
	}
	front, err := lru.New[string, CacheEntry](size)
	if err != nil {
		return nil, fmt.Errorf("create response cache: %w", err)
	}
	return &CachedStore{SQLiteStore: s, front: front, versions: make(map[string]uint64)}, nil
}

func cacheKey(mockID, signature string) string {
	return mockID + "\x00" + signature
}

// generation identifies the purge state of one definition's rows.
type generation struct {
	epoch, version uint64
}

func (c *CachedStore) generation(mockID string) generation {
	c.mu.Lock()
	defer c.mu.Unlock()
	return generation{c.epoch, c.versions[mockID]}
}

func (c *CachedStore) GetCachedResponse(ctx context.Context, mockID, signature string) (*CacheEntry, error) {
	if e, ok := c.front.Get(cacheKey(mockID, signature)); ok {
		return &e, nil
	}
	gen := c.generation(mockID)
	e, err := c.SQLiteStore.GetCachedResponse(ctx, mockID, signature)
	if err != nil {
		return nil, err
	}
	c.fill(gen, *e)
	return e, nil
}

func (c *CachedStore) PutCachedResponse(ctx context.Context, e *CacheEntry) error {
	gen := c.generation(e.MockID)
	if err := c.SQLiteStore.PutCachedResponse(ctx, e); err != nil {
		return err
	}
	c.fill(gen, *e)
	return nil
}

// fill adds e unless its definition was purged since gen was taken.
func (c *CachedStore) fill(gen generation, e CacheEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != (generation{c.epoch, c.versions[e.MockID]}) {
		return
	}
	c.front.Add(cacheKey(e.MockID, e.Signature), e)
}

func (c *CachedStore) UpdateDefinition(ctx context.Context, d *endpoint.Definition) error {
	err := c.SQLiteStore.UpdateDefinition(ctx, d)
	c.purge(d.ID)
	return err
}

func (c *CachedStore) DeleteDefinition(ctx context.Context, id string) error {
	err := c.SQLiteStore.DeleteDefinition(ctx, id)
	c.purge(id)
	return err
}

func (c *CachedStore) DeleteBySourceFile(ctx context.Context, fileID string) (int, error) {
	n, err := c.SQLiteStore.DeleteBySourceFile(ctx, fileID)
	if n > 0 {
		c.purgeAll()
	}
	return n, err
}

func (c *CachedStore) DeleteBySourceFileName(ctx context.Context, fileName string) (int, error) {
	n, err := c.SQLiteStore.DeleteBySourceFileName(ctx, fileName)
	if n > 0 {
		c.purgeAll()
	}
	return n, err
}

func (c *CachedStore) ReplaceSourceFile(ctx context.Context, fileName string, defs []*endpoint.Definition) (int, error) {
	n, err := c.SQLiteStore.ReplaceSourceFile(ctx, fileName, defs)
	if n > 0 {
		c.purgeAll()
	}
	return n, err
}

func (c *CachedStore) purge(mockID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.versions[mockID]++
	prefix := mockID + "\x00"
	for _, k := range c.front.Keys() {
		if strings.HasPrefix(k, prefix) {
			c.front.Remove(k)
		}
	}
}

func (c *CachedStore) purgeAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.epoch++
	c.front.Purge()
}

var _ Store = (*CachedStore)(nil)
var _ Store = (*SQLiteStore)(nil)

func (s *SQLiteStore) setClock(now func() time.Time) { s.now = now }
