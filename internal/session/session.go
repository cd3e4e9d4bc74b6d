// Package session holds the per-process session configuration handed to the
// authentication, settings and skill components.
package session

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"aishell/internal/logger"
	"aishell/pkg/shelltypes"
)

// Session is the session configuration object owned by the caller.
// It is safe for concurrent use.
type Session struct {
	id         string
	httpClient *http.Client
	reauth     shelltypes.Reauthenticator

	mu           sync.RWMutex
	authType     shelltypes.AuthType
	activeSkills map[string]struct{}
}

// Option configures a Session.
type Option func(*Session)

// WithReauthenticator sets the provider used by RefreshAuth.
func WithReauthenticator(r shelltypes.Reauthenticator) Option {
	return func(s *Session) { s.reauth = r }
}

// WithHTTPClient sets the base HTTP client used for outbound requests.
func WithHTTPClient(c *http.Client) Option {
	return func(s *Session) { s.httpClient = c }
}

// WithID overrides the generated session id.
func WithID(id string) Option {
	return func(s *Session) { s.id = id }
}

// New creates a session with a fresh id and a 30 second HTTP client.
func New(opts ...Option) *Session {
	s := &Session{
		id:           uuid.New().String(),
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		activeSkills: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// HTTPClient returns the base HTTP client for outbound requests.
func (s *Session) HTTPClient() *http.Client {
	return s.httpClient
}

// AuthType returns the strategy of the last successful RefreshAuth, or "".
func (s *Session) AuthType() shelltypes.AuthType {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.authType
}

// RefreshAuth runs one authentication attempt through the configured provider
// and records the strategy on success.
func (s *Session) RefreshAuth(ctx context.Context, authType shelltypes.AuthType, opts shelltypes.RefreshOptions) error {
	if s.reauth == nil {
		return fmt.Errorf("no authentication provider configured")
	}

	logger.Debug("Refreshing auth", "session", s.id, "auth_type", authType, "silent", opts.SilentOnly)
	if err := s.reauth.RefreshAuth(ctx, authType, opts); err != nil {
		return err
	}

	s.mu.Lock()
	s.authType = authType
	s.mu.Unlock()
	return nil
}

// ActivateSkill marks a skill active for the remainder of the session.
func (s *Session) ActivateSkill(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activeSkills[name] = struct{}{}
	logger.Debug("Skill activated", "session", s.id, "skill", name)
}

// IsSkillActive reports whether name has been activated.
func (s *Session) IsSkillActive(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.activeSkills[name]
	return ok
}

// ActiveSkills returns the names of active skills in sorted order.
func (s *Session) ActiveSkills() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.activeSkills))
	for name := range s.activeSkills {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
