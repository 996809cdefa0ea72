package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"

	"github.com/khairulanwar/clinic-api/internal/model"
)

// Store persistence TTL. Generous on purpose: the manager's
// inactivity check is authoritative, the TTL only garbage-collects
// abandoned records.
const storeTTL = 2 * model.SessionTimeout

// Store holds server-side session state keyed by session id.
type Store interface {
	Get(ctx context.Context, id string) (*model.Session, error)
	Save(ctx context.Context, session *model.Session) error
	Delete(ctx context.Context, id string) error
}

type redisStore struct {
	client *redis.Client
}

// NewRedisStore connects to Redis and returns a session store backed
// by it.
func NewRedisStore(url string) (Store, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &redisStore{client: client}, nil
}

func (s *redisStore) key(id string) string {
	return "session:" + id
}

func (s *redisStore) Get(ctx context.Context, id string) (*model.Session, error) {
	data, err := s.client.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	var session model.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	return &session, nil
}

func (s *redisStore) Save(ctx context.Context, session *model.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err := s.client.Set(ctx, s.key(session.ID), data, storeTTL).Err(); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (s *redisStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, s.key(id)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

type memoryStore struct {
	cache *cache.Cache
}

// NewMemoryStore is the in-process fallback used when Redis is not
// configured. Suitable for a single instance only.
func NewMemoryStore() Store {
	return &memoryStore{
		cache: cache.New(storeTTL, 10*time.Minute),
	}
}

func (s *memoryStore) Get(ctx context.Context, id string) (*model.Session, error) {
	v, ok := s.cache.Get(id)
	if !ok {
		return nil, nil
	}
	session := v.(model.Session)
	return &session, nil
}

func (s *memoryStore) Save(ctx context.Context, session *model.Session) error {
	s.cache.Set(session.ID, *session, storeTTL)
	return nil
}

func (s *memoryStore) Delete(ctx context.Context, id string) error {
	s.cache.Delete(id)
	return nil
}
