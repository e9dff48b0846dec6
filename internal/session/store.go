package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"

	"bendadvisor/internal/model"
)

// State is the client session lifecycle. Transitions happen only in the named
// methods below: Init, Login, CheckAuth, Logout.
type State int

const (
	// StateAnonymous holds no token.
	StateAnonymous State = iota
	// StatePending holds a token whose identity has not been confirmed yet.
	StatePending
	// StateAuthenticated holds a token and a server-confirmed user.
	StateAuthenticated
	// StateInvalid is reached when the server rejected the token; all
	// credentials are already cleared. Login or Logout leads back out.
	StateInvalid
)

func (s State) String() string {
	switch s {
	case StateAnonymous:
		return "anonymous"
	case StatePending:
		return "pending"
	case StateAuthenticated:
		return "authenticated"
	case StateInvalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// ErrLoginSuperseded is returned when a logout lands while a login is in
// flight; the logout wins and the login result is discarded.
var ErrLoginSuperseded = errors.New("login superseded by logout")

const identityCheckKey = "me"

// Store mirrors the browser session holder: at most one token and one user
// snapshot, kept consistent with Storage by explicit synchronization.
type Store struct {
	client  *APIClient
	storage *Storage

	mu        sync.Mutex
	state     State
	token     string
	user      *model.PublicUser
	confirmed bool
	// checks counts CheckAuth calls between their start and their state
	// write-back, including callers waiting on a coalesced request.
	checks int
	// generation is bumped whenever the session is replaced or cleared
	// (Login completion, Logout); in-flight logins and checks from an older
	// generation must not write their results back.
	generation uint64

	sf singleflight.Group
}

func NewStore(client *APIClient, storage *Storage) *Store {
	return &Store{client: client, storage: storage, state: StateAnonymous}
}

// Init loads persisted credentials into memory. With a token present the
// store starts Pending until CheckAuth confirms the identity.
func (s *Store) Init() error {
	token, user, err := s.storage.Load()
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if token == "" {
		s.state = StateAnonymous
		return nil
	}

	s.token = token
	s.user = user
	s.confirmed = false
	s.state = StatePending
	return nil
}

// Login sends credentials to the server. Success stores token and user in
// memory and persistent storage; any failure, including a response missing
// either field, clears all session state before the error is raised.
func (s *Store) Login(ctx context.Context, username string, password string) error {
	s.mu.Lock()
	gen := s.generation
	s.mu.Unlock()

	token, user, err := s.client.Login(ctx, username, password)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.generation != gen {
		// Logout won; do not resurrect anything.
		return ErrLoginSuperseded
	}

	// Either way the session is being replaced: identity checks still in
	// flight for the previous token must not touch the new state.
	s.generation++
	s.sf.Forget(identityCheckKey)

	if err != nil {
		s.clearLocked()
		s.state = StateAnonymous
		return err
	}

	if err := s.storage.Save(token, user); err != nil {
		s.clearLocked()
		s.state = StateAnonymous
		return err
	}

	s.token = token
	s.user = &user
	s.confirmed = true
	s.state = StateAuthenticated
	return nil
}

// CheckAuth re-issues the identity check using the stored token. Overlapping
// calls coalesce into one request. A 401/403 clears everything (logout side
// effect) and lands in Invalid; transport errors leave credentials in place
// and only report the failure.
func (s *Store) CheckAuth(ctx context.Context) error {
	s.mu.Lock()
	token := s.token
	gen := s.generation
	if token == "" {
		s.mu.Unlock()
		return nil
	}
	s.checks++
	s.mu.Unlock()

	result, err, _ := s.sf.Do(identityCheckKey, func() (any, error) {
		return s.client.FetchMe(ctx, token)
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	s.checks--

	if s.generation != gen {
		return nil
	}

	if err != nil {
		if errors.Is(err, ErrSessionRejected) {
			s.clearLocked()
			s.state = StateInvalid
		}
		return err
	}

	user := result.(model.PublicUser)
	if err := s.storage.SaveUser(user); err != nil {
		slog.Warn("failed to persist user snapshot", "error", err)
	}
	s.user = &user
	s.confirmed = true
	s.state = StateAuthenticated
	return nil
}

// Logout unconditionally clears token, user, and persistent storage, and
// forgets any coalesced identity-check result. Callable from any state; it
// wins over an in-flight login.
func (s *Store) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.generation++
	s.sf.Forget(identityCheckKey)
	s.clearLocked()
	s.state = StateAnonymous
}

// clearLocked wipes memory and persistent storage. Caller holds s.mu.
func (s *Store) clearLocked() {
	s.token = ""
	s.user = nil
	s.confirmed = false
	if err := s.storage.Clear(); err != nil {
		slog.Warn("failed to clear session storage", "error", err)
	}
}

func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// IsAuthenticated reports whether a user snapshot is held.
func (s *Store) IsAuthenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user != nil
}

// IsLoading reports whether an identity check is in flight, or a token is
// held whose identity has not been confirmed yet.
func (s *Store) IsLoading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.checks > 0 || (s.token != "" && !s.confirmed)
}

func (s *Store) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

func (s *Store) User() *model.PublicUser {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}
