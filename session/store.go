package session

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// Store keeps the last-activity timestamp of each tracked user
type Store interface {
	Touch(ctx context.Context, uid string, at time.Time) error
	LastActivity(ctx context.Context, uid string) (time.Time, bool, error)
	Delete(ctx context.Context, uid string) error
	Users(ctx context.Context) ([]string, error)
}

// MemoryStore is a process-local Store for development and tests
type MemoryStore struct {
	mu       sync.RWMutex
	activity map[string]time.Time
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{activity: make(map[string]time.Time)}
}

func (s *MemoryStore) Touch(_ context.Context, uid string, at time.Time) error {
	s.mu.Lock()
	s.activity[uid] = at
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) LastActivity(_ context.Context, uid string) (time.Time, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	at, ok := s.activity[uid]
	return at, ok, nil
}

func (s *MemoryStore) Delete(_ context.Context, uid string) error {
	s.mu.Lock()
	delete(s.activity, uid)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Users(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	users := make([]string, 0, len(s.activity))
	for uid := range s.activity {
		users = append(users, uid)
	}
	return users, nil
}

const redisKeyPrefix = "session:activity:"

// RedisStore keeps activity timestamps in Redis so every API instance sees
// the same idle clock. Keys expire on their own shortly after the idle timeout.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisStore connects to redisURL; ttl should exceed the idle timeout
func NewRedisStore(redisURL string, ttl time.Duration) (*RedisStore, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	rdb := redis.NewClient(opt)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisStore{rdb: rdb, ttl: ttl}, nil
}

func (s *RedisStore) Touch(ctx context.Context, uid string, at time.Time) error {
	return s.rdb.Set(ctx, redisKeyPrefix+uid, at.UnixMilli(), s.ttl).Err()
}

func (s *RedisStore) LastActivity(ctx context.Context, uid string) (time.Time, bool, error) {
	val, err := s.rdb.Get(ctx, redisKeyPrefix+uid).Result()
	if err == redis.Nil {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("failed to get last activity: %w", err)
	}

	ms, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("corrupt activity timestamp for %s: %w", uid, err)
	}
	return time.UnixMilli(ms).UTC(), true, nil
}

func (s *RedisStore) Delete(ctx context.Context, uid string) error {
	return s.rdb.Del(ctx, redisKeyPrefix+uid).Err()
}

func (s *RedisStore) Users(ctx context.Context) ([]string, error) {
	var users []string
	iter := s.rdb.Scan(ctx, 0, redisKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		users = append(users, strings.TrimPrefix(iter.Val(), redisKeyPrefix))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan sessions: %w", err)
	}
	return users, nil
}

// Close releases the Redis connection pool
func (s *RedisStore) Close() error {
	return s.rdb.Close()
}
