package notify

import (
	"context"

	"vehicle-accounting/gps/internal/cache"
)

// Session is one chat subscriber's authenticated state against the fleet
// API. It exists between a successful login and an explicit logout or an
// irrecoverable refresh failure.
type Session struct {
	SubscriberID int64
	AccessToken  string
	RefreshToken string
}

// SessionStore holds subscriber sessions. The backing store is swappable:
// in-memory for single-process runs, Redis when sessions must survive a
// notifier restart. Get returns (nil, nil) for an unknown subscriber.
type SessionStore interface {
	Get(ctx context.Context, subscriberID int64) (*Session, error)
	Put(ctx context.Context, s *Session) error
	Delete(ctx context.Context, subscriberID int64) error
	All(ctx context.Context) ([]*Session, error)
}

// MemorySessionStore keeps sessions in a sharded in-process map with the
// same per-key locking discipline as the position cache.
type MemorySessionStore struct {
	m *cache.Map[Session]
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{m: cache.NewMap[Session]()}
}

func (s *MemorySessionStore) Get(ctx context.Context, subscriberID int64) (*Session, error) {
	sess, ok := s.m.Get(subscriberID)
	if !ok {
		return nil, nil
	}
	return &sess, nil
}

func (s *MemorySessionStore) Put(ctx context.Context, sess *Session) error {
	s.m.Set(sess.SubscriberID, *sess)
	return nil
}

func (s *MemorySessionStore) Delete(ctx context.Context, subscriberID int64) error {
	s.m.Delete(subscriberID)
	return nil
}

func (s *MemorySessionStore) All(ctx context.Context) ([]*Session, error) {
	values := s.m.Values()
	out := make([]*Session, 0, len(values))
	for i := range values {
		out = append(out, &values[i])
	}
	return out, nil
}
