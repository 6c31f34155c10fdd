package session

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"sync/atomic"
	"time"

	"bankgate/internal/auth"
	"bankgate/internal/observability/logging"
	"bankgate/internal/observability/metrics"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	// DefaultTTL is the session lifetime when none is configured
	DefaultTTL = 30 * time.Minute

	// TokenLength is the number of random bytes in a session token
	TokenLength = 32
)

// Session is the server-side half of a session token
type Session struct {
	// ID identifies the session in logs; it is not the token
	ID string

	// Identity is the caller bound to this session
	Identity *auth.Identity

	CreatedAt time.Time
	ExpiresAt time.Time

	destroyed atomic.Bool
}

// Config holds in-memory session settings
type Config struct {
	// TTL is the absolute lifetime of a session
	TTL time.Duration

	// MaxEntries bounds the number of live sessions; the least recently used
	// session is dropped when a new one would exceed it. Zero means unbounded.
	MaxEntries int
}

// Memory keeps sessions in process memory. Sessions do not survive a restart.
//
// Sessions are keyed by the SHA-256 of their token so the raw token is only
// ever held by the client. A Session is fully built before it is added and is
// never changed afterwards, so Resolve cannot observe a partial session.
type Memory struct {
	sessions *expirable.LRU[string, *Session]
	ttl      time.Duration
	logger   *logging.Logger
	metrics  *metrics.Collector
}

var _ auth.SessionCarrier = (*Memory)(nil)

// NewMemory creates an in-memory session carrier
func NewMemory(config Config, logger *logging.Logger, metricsCollector *metrics.Collector) *Memory {
	if config.TTL <= 0 {
		config.TTL = DefaultTTL
	}
	if config.MaxEntries < 0 {
		config.MaxEntries = 0
	}

	m := &Memory{
		ttl:     config.TTL,
		logger:  logger.WithModule("auth.session"),
		metrics: metricsCollector,
	}
	m.sessions = expirable.NewLRU[string, *Session](config.MaxEntries, m.onEvict, config.TTL)
	return m
}

// onEvict runs under the LRU lock for every removal: destroy, expiry or capacity.
func (m *Memory) onEvict(_ string, s *Session) {
	if s.destroyed.Load() {
		m.metrics.RecordSession(metrics.SessionDestroyed)
		return
	}
	m.metrics.RecordSession(metrics.SessionEvicted)
	m.logger.Debug("Session dropped", "session_id", s.ID, "username", s.Identity.Username)
}

// Create starts a new session for identity and returns its token.
// Every call yields a fresh token; existing sessions are never rebound.
func (m *Memory) Create(ctx context.Context, identity *auth.Identity) (string, error) {
	if identity == nil {
		return "", fmt.Errorf("create session: nil identity")
	}

	token, err := generateToken()
	if err != nil {
		return "", err
	}

	now := time.Now()
	s := &Session{
		ID:        uuid.NewString(),
		Identity:  identity,
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
	}

	m.sessions.Add(hashToken(token), s)
	m.metrics.RecordSession(metrics.SessionCreated)

	logging.FromContext(ctx, m.logger).Debug("Session created",
		"session_id", s.ID,
		"username", identity.Username,
		"expires_at", s.ExpiresAt,
	)

	return token, nil
}

// Resolve returns the identity bound to token, or nil
func (m *Memory) Resolve(ctx context.Context, token string) *auth.Identity {
	if s := m.lookup(token); s != nil {
		return s.Identity
	}
	return nil
}

func (m *Memory) lookup(token string) *Session {
	if token == "" {
		return nil
	}
	s, ok := m.sessions.Get(hashToken(token))
	if !ok || s.destroyed.Load() {
		return nil
	}
	return s
}

// Destroy ends the session for token and reports whether it was live
func (m *Memory) Destroy(ctx context.Context, token string) bool {
	key := hashToken(token)
	s, ok := m.sessions.Peek(key)
	if !ok || token == "" {
		return false
	}

	// Marked first so a concurrent Resolve sees it as gone before removal.
	if s.destroyed.Swap(true) {
		return false
	}
	m.sessions.Remove(key)

	logging.FromContext(ctx, m.logger).Debug("Session destroyed",
		"session_id", s.ID,
		"username", s.Identity.Username,
	)
	return true
}

// Len returns the number of sessions held, including expired ones not yet purged
func (m *Memory) Len() int {
	return m.sessions.Len()
}

// generateToken returns a random URL-safe token
func generateToken() (string, error) {
	b := make([]byte, TokenLength)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate session token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// hashToken is the map key for token
func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
