// Package chat manages conversation sessions and serialises the turns of each
// one through the resolver of its profile.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/menuka400/chatbot-spera/internal/model/chat"
	"github.com/menuka400/chatbot-spera/internal/model/profile"
)

var (
	ErrProfileRequired = errors.New("profile id is required")
	ErrProfileNotFound = errors.New("profile not found")
	ErrSessionNotFound = errors.New("session not found")
	ErrProfileMismatch = errors.New("session is bound to another profile")
	ErrEmptyMessage    = errors.New("message is empty")
)

// Resolver answers one utterance inside a session.
type Resolver interface {
	Resolve(ctx context.Context, sess *chat.Session, utterance string) chat.Outcome
}

// Summary is a read-only view of a session.
type Summary struct {
	ID          string    `json:"id"`
	ProfileID   string    `json:"profileId"`
	CreatedAt   time.Time `json:"createdAt"`
	DisplayName string    `json:"displayName,omitempty"`
	Turns       int       `json:"turns"`
}

// Options tunes the service.
type Options struct {
	DefaultProfile string
	MaxExchanges   int
	Logger         *slog.Logger
}

type entry struct {
	mu      sync.Mutex // held for a whole resolution
	session *chat.Session
}

// Service keeps sessions in memory. Turns for one session run one at a time;
// different sessions run in parallel.
type Service struct {
	mu       sync.RWMutex
	sessions map[string]*entry

	profiles  profile.Store
	resolvers map[string]Resolver
	opts      Options
}

// NewService wires one resolver per profile ID.
func NewService(profiles profile.Store, resolvers map[string]Resolver, opts Options) *Service {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.MaxExchanges <= 0 {
		opts.MaxExchanges = chat.DefaultMaxExchanges
	}
	copied := make(map[string]Resolver, len(resolvers))
	for id, r := range resolvers {
		copied[id] = r
	}
	return &Service{
		sessions:  make(map[string]*entry),
		profiles:  profiles,
		resolvers: copied,
		opts:      opts,
	}
}

// DefaultProfile is the profile used when a caller does not pick one.
func (s *Service) DefaultProfile() string {
	return s.opts.DefaultProfile
}

// Profiles lists the profiles that have a resolver.
func (s *Service) Profiles() []profile.Profile {
	var out []profile.Profile
	for _, p := range s.profiles.List() {
		if _, ok := s.resolvers[p.ID]; ok {
			out = append(out, p)
		}
	}
	return out
}

// Profile looks up a served profile.
func (s *Service) Profile(id string) (profile.Profile, error) {
	if _, ok := s.resolvers[id]; !ok {
		return profile.Profile{}, fmt.Errorf("%w: %s", ErrProfileNotFound, id)
	}
	p, ok := s.profiles.FindByID(id)
	if !ok {
		return profile.Profile{}, fmt.Errorf("%w: %s", ErrProfileNotFound, id)
	}
	return p, nil
}

// CreateSession provisions a session bound to profileID.
func (s *Service) CreateSession(ctx context.Context, profileID string) (Summary, error) {
	return s.Open(ctx, "", profileID)
}

// Open returns the session with id, creating it for profileID when it does not
// exist. An empty id always creates a session with a fresh identifier. A
// session keeps the profile it was created with; opening it under another
// profile fails with ErrProfileMismatch.
func (s *Service) Open(_ context.Context, id, profileID string) (Summary, error) {
	if profileID == "" {
		return Summary{}, ErrProfileRequired
	}
	if _, ok := s.resolvers[profileID]; !ok {
		return Summary{}, fmt.Errorf("%w: %s", ErrProfileNotFound, profileID)
	}

	s.mu.Lock()
	e, ok := s.sessions[id]
	if !ok || id == "" {
		if id == "" {
			id = uuid.NewString()
		}
		e = &entry{session: chat.NewSession(id, profileID, s.opts.MaxExchanges)}
		s.sessions[id] = e
	}
	s.mu.Unlock()

	if ok && e.session.ProfileID != profileID {
		return Summary{}, fmt.Errorf("%w: %s is bound to %s", ErrProfileMismatch, id, e.session.ProfileID)
	}
	if !ok {
		s.opts.Logger.Info("session created", "session", id, "profile", profileID)
	}
	// summarize may wait for a resolution in flight, so s.mu is released first.
	return summarize(e), nil
}

// GetSession retrieves a session by identifier.
func (s *Service) GetSession(_ context.Context, sessionID string) (Summary, error) {
	e, err := s.lookup(sessionID)
	if err != nil {
		return Summary{}, err
	}
	return summarize(e), nil
}

// Converse resolves utterance in the session. Resolution failures are already
// folded into the outcome; the error only reports bad input.
func (s *Service) Converse(ctx context.Context, sessionID, utterance string) (chat.Outcome, error) {
	if strings.TrimSpace(utterance) == "" {
		return chat.Outcome{}, ErrEmptyMessage
	}
	e, err := s.lookup(sessionID)
	if err != nil {
		return chat.Outcome{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	resolver := s.resolvers[e.session.ProfileID]
	return resolver.Resolve(ctx, e.session, strings.TrimSpace(utterance)), nil
}

// LoadTranscript returns the turns currently kept for the session.
func (s *Service) LoadTranscript(_ context.Context, sessionID string) ([]chat.Turn, error) {
	e, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session.Turns(), nil
}

// ClearHistory drops the turns of a session but keeps the session itself.
func (s *Service) ClearHistory(_ context.Context, sessionID string) error {
	e, err := s.lookup(sessionID)
	if err != nil {
		return err
	}
	e.mu.Lock()
	e.session.Clear()
	e.mu.Unlock()
	return nil
}

// DeleteSession forgets a session.
func (s *Service) DeleteSession(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sessionID]; !ok {
		return ErrSessionNotFound
	}
	delete(s.sessions, sessionID)
	return nil
}

func (s *Service) lookup(sessionID string) (*entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return e, nil
}

// summarize reads mutable session state, so it takes the entry lock.
func summarize(e *entry) Summary {
	e.mu.Lock()
	defer e.mu.Unlock()
	name, _ := e.session.DisplayName()
	return Summary{
		ID:          e.session.ID,
		ProfileID:   e.session.ProfileID,
		CreatedAt:   e.session.CreatedAt,
		DisplayName: name,
		Turns:       e.session.Len(),
	}
}
