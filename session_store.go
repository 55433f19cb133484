package accounts

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const sessionKeyPrefix = "accounts:session:"

// RedisSessionStore keeps session records in Redis with a native TTL so
// expiry needs no sweeper.
type RedisSessionStore struct {
	client *redis.Client
	logger Logger
}

var _ SessionStore = (*RedisSessionStore)(nil)

// NewRedisSessionStore creates a session store backed by the given client.
func NewRedisSessionStore(client *redis.Client, logger Logger) *RedisSessionStore {
	if logger == nil {
		logger = defLogger{}
	}
	return &RedisSessionStore{client: client, logger: logger}
}

func (s *RedisSessionStore) Create(ctx context.Context, session *SessionObject, ttl time.Duration) (string, error) {
	if session == nil {
		return "", errors.New("session must not be nil", errors.CategoryInternal)
	}

	token := newSessionToken()
	session.Token = token
	expiresAt := time.Now().Add(ttl)
	session.ExpiresAt = &expiresAt

	payload, err := json.Marshal(session)
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to encode session")
	}

	if err := s.client.Set(ctx, sessionKeyPrefix+token, payload, ttl).Err(); err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to store session")
	}

	return token, nil
}

func (s *RedisSessionStore) Lookup(ctx context.Context, token string) (*SessionObject, error) {
	payload, err := s.client.Get(ctx, sessionKeyPrefix+token).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrUnableToFindSession
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to read session")
	}

	session := &SessionObject{}
	if err := json.Unmarshal(payload, session); err != nil {
		s.logger.Error("session store lookup decode error", "error", err)
		return nil, ErrUnableToDecodeSession
	}

	return session, nil
}

func (s *RedisSessionStore) Destroy(ctx context.Context, token string) error {
	// DEL on a missing key is a no-op, which is exactly the contract.
	if err := s.client.Del(ctx, sessionKeyPrefix+token).Err(); err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to destroy session")
	}
	return nil
}

// MemorySessionStore is an in process SessionStore used by tests and as a
// development fallback when Redis is not configured.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*SessionObject
}

var _ SessionStore = (*MemorySessionStore)(nil)

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{
		sessions: map[string]*SessionObject{},
	}
}

func (s *MemorySessionStore) Create(_ context.Context, session *SessionObject, ttl time.Duration) (string, error) {
	if session == nil {
		return "", errors.New("session must not be nil", errors.CategoryInternal)
	}

	token := newSessionToken()
	session.Token = token
	expiresAt := time.Now().Add(ttl)
	session.ExpiresAt = &expiresAt

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[token] = session

	return token, nil
}

func (s *MemorySessionStore) Lookup(_ context.Context, token string) (*SessionObject, error) {
	s.mu.RLock()
	session, ok := s.sessions[token]
	s.mu.RUnlock()

	if !ok {
		return nil, ErrUnableToFindSession
	}

	if session.Expired(time.Now()) {
		s.mu.Lock()
		delete(s.sessions, token)
		s.mu.Unlock()
		return nil, ErrUnableToFindSession
	}

	return session, nil
}

func (s *MemorySessionStore) Destroy(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
	return nil
}

func newSessionToken() string {
	// Two UUIDs back to back; opaque and wide enough that guessing is not
	// a practical concern for a session identifier.
	return uuid.NewString() + uuid.NewString()
}
