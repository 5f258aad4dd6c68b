package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const DefaultTTL = 24 * time.Hour

var ErrCacheUnavailable = errors.New("cart store unavailable")

type Entry struct {
	ID       uint   `json:"id"`
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	Quantity int    `json:"quantity"`
	Notes    string `json:"notes,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
}

// RedisStore keeps one JSON cart per (session, table) with a sliding TTL.
type RedisStore struct {
	url string
	ttl time.Duration

	mu     sync.RWMutex
	client *redis.Client
}

func NewRedisStore(url string, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{url: url, ttl: ttl}
}

func Key(sessionID string, tableID uint) string {
	return fmt.Sprintf("cart:%s:%d", sessionID, tableID)
}

func (s *RedisStore) Init(ctx context.Context) error {
	if s.url == "" {
		return fmt.Errorf("%w: REDIS_URL is empty", ErrCacheUnavailable)
	}
	opts, err := redis.ParseURL(s.url)
	if err != nil {
		return fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return fmt.Errorf("%w: ping: %v", ErrCacheUnavailable, err)
	}

	s.mu.Lock()
	old := s.client
	s.client = client
	s.mu.Unlock()
	if old != nil {
		_ = old.Close()
	}
	return nil
}

func (s *RedisStore) conn() (*redis.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.client == nil {
		return nil, ErrCacheUnavailable
	}
	return s.client, nil
}

// Get returns an empty cart for a missing, expired or unreadable value.
func (s *RedisStore) Get(ctx context.Context, sessionID string, tableID uint) ([]Entry, error) {
	c, err := s.conn()
	if err != nil {
		return nil, err
	}

	raw, err := c.Get(ctx, Key(sessionID, tableID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return []Entry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get: %v", ErrCacheUnavailable, err)
	}

	var entries []Entry
	if err := json.Unmarshal(raw, &entries); err != nil || entries == nil {
		return []Entry{}, nil
	}
	return entries, nil
}

func (s *RedisStore) Set(ctx context.Context, sessionID string, tableID uint, entries []Entry) error {
	c, err := s.conn()
	if err != nil {
		return err
	}
	if entries == nil {
		entries = []Entry{}
	}

	raw, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	if err := c.Set(ctx, Key(sessionID, tableID), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("%w: set: %v", ErrCacheUnavailable, err)
	}
	return nil
}

func (s *RedisStore) Clear(ctx context.Context, sessionID string, tableID uint) error {
	c, err := s.conn()
	if err != nil {
		return err
	}
	if err := c.Del(ctx, Key(sessionID, tableID)).Err(); err != nil {
		return fmt.Errorf("%w: del: %v", ErrCacheUnavailable, err)
	}
	return nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	c, err := s.conn()
	if err != nil {
		return err
	}
	return c.Ping(ctx).Err()
}

func (s *RedisStore) Close() error {
	s.mu.Lock()
	c := s.client
	s.client = nil
	s.mu.Unlock()
	if c == nil {
		return nil
	}
	return c.Close()
}
