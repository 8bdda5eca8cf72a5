package session

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// Session is the identity bound to a browser after login or signup.
type Session struct {
	User  string `json:"user"`
	Email string `json:"email"`
}

// Store keeps sessions server-side, keyed by the opaque cookie value.
// A missing or expired session comes back as (nil, nil).
type Store interface {
	Save(ctx context.Context, sid string, s Session) error
	Load(ctx context.Context, sid string) (*Session, error)
}

func NewID() string { return uuid.NewString() }

type RedisStore struct {
	c   *redis.Client
	ttl time.Duration
}

func NewRedis(addr string, ttl time.Duration) *RedisStore {
	return &RedisStore{c: redis.NewClient(&redis.Options{Addr: addr}), ttl: ttl}
}

func (r *RedisStore) Ping(ctx context.Context) error { return r.c.Ping(ctx).Err() }
func (r *RedisStore) Close() error                   { return r.c.Close() }

func (r *RedisStore) Save(ctx context.Context, sid string, s Session) error {
	body, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return r.c.Set(ctx, "sess:"+sid, body, r.ttl).Err()
}

func (r *RedisStore) Load(ctx context.Context, sid string) (*Session, error) {
	body, err := r.c.Get(ctx, "sess:"+sid).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var s Session
	if err := json.Unmarshal(body, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

type memEntry struct {
	s       Session
	expires time.Time
}

// MemoryStore backs sessions with a process-local map. Used when no
// redis address is configured; sessions then die with the process.
type MemoryStore struct {
	mu  sync.Mutex
	m   map[string]memEntry
	ttl time.Duration
}

func NewMemory(ttl time.Duration) *MemoryStore {
	return &MemoryStore{m: make(map[string]memEntry), ttl: ttl}
}

func (ms *MemoryStore) Save(ctx context.Context, sid string, s Session) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.m[sid] = memEntry{s: s, expires: time.Now().Add(ms.ttl)}
	return nil
}

func (ms *MemoryStore) Load(ctx context.Context, sid string) (*Session, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	e, ok := ms.m[sid]
	if !ok {
		return nil, nil
	}
	if time.Now().After(e.expires) {
		delete(ms.m, sid)
		return nil, nil
	}
	s := e.s
	return &s, nil
}
