package stores

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/liut/showsmart/pkg/models/aigc"
)

const (
	dftSessionTTL = time.Hour * 24

	sessionKeyPrefix = "showsmart-sess-"
)

var (
	ErrNotFound = errors.New("session not found")
	ErrEmptyKey = errors.New("empty session id")
)

// SessionStore keeps sessions for their lifetime only.
type SessionStore interface {
	Get(ctx context.Context, id string) (*aigc.Session, error)
	Save(ctx context.Context, sess *aigc.Session) error
	Delete(ctx context.Context, id string) error
}

// LoadSession returns the stored session or a fresh one greeted by welcome.
// The bool is true when the session was created.
func LoadSession(ctx context.Context, sto SessionStore, id, welcome string) (*aigc.Session, bool, error) {
	if len(id) > 0 {
		sess, err := sto.Get(ctx, id)
		if err == nil {
			return sess, false, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, false, err
		}
		logger().Debugw("session gone, start new", "id", id)
	}
	return aigc.NewSession(welcome), true, nil
}

// NewSessionStore returns a redis store when rc is non-nil, a memory store otherwise.
func NewSessionStore(rc RedisClient, ttl time.Duration) SessionStore {
	if ttl <= 0 {
		ttl = dftSessionTTL
	}
	if rc != nil {
		return &redisStore{rc: rc, ttl: ttl}
	}
	return NewMemoryStore(ttl)
}

type redisStore struct {
	rc  RedisClient
	ttl time.Duration
}

func (s *redisStore) Get(ctx context.Context, id string) (*aigc.Session, error) {
	if len(id) == 0 {
		return nil, ErrEmptyKey
	}
	sess := new(aigc.Session)
	err := s.rc.Get(ctx, sessionKeyPrefix+id).Scan(sess)
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		logger().Infow("get session fail", "id", id, "err", err)
		return nil, err
	}
	return sess, nil
}

func (s *redisStore) Save(ctx context.Context, sess *aigc.Session) error {
	if len(sess.ID) == 0 {
		return ErrEmptyKey
	}
	err := s.rc.Set(ctx, sessionKeyPrefix+sess.ID, sess, s.ttl).Err()
	if err != nil {
		logger().Infow("save session fail", "id", sess.ID, "err", err)
	}
	return err
}

func (s *redisStore) Delete(ctx context.Context, id string) error {
	return s.rc.Del(ctx, sessionKeyPrefix+id).Err()
}

type memoryEntry struct {
	sess    *aigc.Session
	expires time.Time
}

// MemoryStore keeps sessions in process memory, expired ones are dropped on access.
type MemoryStore struct {
	mu  sync.Mutex
	ttl time.Duration
	m   map[string]memoryEntry
	now func() time.Time
}

// NewMemoryStore ...
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{ttl: ttl, m: make(map[string]memoryEntry), now: time.Now}
}

func (s *MemoryStore) Get(_ context.Context, id string) (*aigc.Session, error) {
	if len(id) == 0 {
		return nil, ErrEmptyKey
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.m[id]
	if !ok {
		return nil, ErrNotFound
	}
	if s.now().After(e.expires) {
		delete(s.m, id)
		return nil, ErrNotFound
	}
	return e.sess.Clone(), nil
}

func (s *MemoryStore) Save(_ context.Context, sess *aigc.Session) error {
	if len(sess.ID) == 0 {
		return ErrEmptyKey
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[sess.ID] = memoryEntry{sess: sess.Clone(), expires: s.now().Add(s.ttl)}
	s.sweep()
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, id)
	return nil
}

// Len returns the number of live sessions.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweep()
	return len(s.m)
}

func (s *MemoryStore) sweep() {
	now := s.now()
	for k, e := range s.m {
		if now.After(e.expires) {
			delete(s.m, k)
		}
	}
}
