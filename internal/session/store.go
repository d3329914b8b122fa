package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrNoSession is returned when a session id has no server-side state,
// either because it never existed or because it expired or was deleted.
var ErrNoSession = errors.New("no session")

// Manager keeps session state server side in Redis. The client only
// ever holds the opaque session id (signed, see CookieCodec).
//
// Two kinds of keys exist: authenticated sessions binding a session id
// to an account id, and pending markers correlating a client to an
// email challenge that has not been consumed yet. A pending marker
// grants nothing; it only personalizes the verification-pending page.
type Manager struct {
	client     *redis.Client
	sessionTTL time.Duration
	pendingTTL time.Duration
}

func NewManager(client *redis.Client, sessionTTL, pendingTTL time.Duration) *Manager {
	return &Manager{client: client, sessionTTL: sessionTTL, pendingTTL: pendingTTL}
}

// NewID returns a fresh opaque session identifier.
func NewID() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// Create issues a new session bound to the account and returns its id.
// A fresh id is always generated; verification never reuses the id the
// pending marker was stored under.
func (m *Manager) Create(ctx context.Context, accountID string) (string, error) {
	sid, err := NewID()
	if err != nil {
		return "", err
	}
	if err := m.client.Set(ctx, sessionKey(sid), accountID, m.sessionTTL).Err(); err != nil {
		return "", err
	}
	return sid, nil
}

// Get returns the account id bound to the session.
func (m *Manager) Get(ctx context.Context, sid string) (string, error) {
	accountID, err := m.client.Get(ctx, sessionKey(sid)).Result()
	if err == redis.Nil {
		return "", ErrNoSession
	}
	if err != nil {
		return "", err
	}
	return accountID, nil
}

func (m *Manager) Delete(ctx context.Context, sid string) error {
	return m.client.Del(ctx, sessionKey(sid)).Err()
}

// MarkPending records that the client behind sid has an outstanding
// email challenge for the given address.
func (m *Manager) MarkPending(ctx context.Context, sid, email string) error {
	return m.client.Set(ctx, pendingKey(sid), email, m.pendingTTL).Err()
}

// Pending returns the email of the client's outstanding challenge.
func (m *Manager) Pending(ctx context.Context, sid string) (string, error) {
	email, err := m.client.Get(ctx, pendingKey(sid)).Result()
	if err == redis.Nil {
		return "", ErrNoSession
	}
	if err != nil {
		return "", err
	}
	return email, nil
}

func (m *Manager) ClearPending(ctx context.Context, sid string) error {
	return m.client.Del(ctx, pendingKey(sid)).Err()
}

func sessionKey(sid string) string { return "session:" + sid }
func pendingKey(sid string) string { return "pending:" + sid }
