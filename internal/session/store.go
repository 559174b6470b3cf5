// Package session holds the decoded identity derived from the persisted
// credential and drives the login/logout lifecycle.
package session

import (
	"context"
	"sync"

	"noodlemap/internal/client/api"
	"noodlemap/pkg/logger"
	"noodlemap/pkg/models"
)

// State is the session lifecycle state.
type State int

const (
	// StateUnknown holds while the persisted credential (if any) is decoded.
	StateUnknown State = iota
	StateAuthenticating
	StateAuthenticated
	StateAnonymous
)

func (s State) String() string {
	switch s {
	case StateUnknown:
		return "unknown"
	case StateAuthenticating:
		return "authenticating"
	case StateAuthenticated:
		return "authenticated"
	case StateAnonymous:
		return "anonymous"
	default:
		return "invalid"
	}
}

// LoginClient is the slice of the API client the store needs.
type LoginClient interface {
	Login(ctx context.Context, username, password string) (*models.LoginResponse, error)
}

// LoginResult is returned from Login. Failures come back as a result with a
// message, never as a fault thrown past the caller.
type LoginResult struct {
	Success  bool
	Message  string
	Identity *models.Identity
}

// Store is the single injectable session holder. Controllers receive it by
// reference; tests substitute fake credential stores and login clients. Only
// the store's login/logout/401 paths may mutate the credential.
type Store struct {
	mu       sync.Mutex
	state    State
	token    string
	identity *models.Identity

	creds       CredentialStore
	client      LoginClient
	subscribers []func(State)
}

// NewStore creates a session store in StateUnknown. Call Restore to replay
// the persisted credential.
func NewStore(creds CredentialStore, client LoginClient) *Store {
	return &Store{
		state: StateUnknown,
		creds: creds,
		client: client,
	}
}

// BindClient sets the login client after construction. The store implements
// api.TokenSource, so the client and the store reference each other; the
// store is built first, the client second, then bound here.
func (s *Store) BindClient(client LoginClient) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.client = client
}

// Restore replays the persisted credential: Unknown -> Authenticated when it
// decodes, Unknown -> Anonymous when absent or malformed. A malformed
// credential is also removed from storage.
func (s *Store) Restore() {
	s.mu.Lock()

	token, err := s.creds.Load()
	if err != nil || token == "" {
		s.setLocked(StateAnonymous, "", nil)
		s.mu.Unlock()
		s.notify(StateAnonymous)
		return
	}

	identity, err := DecodeToken(token)
	if err != nil {
		logger.Warnf("session: discarding stored credential: %v", err)
		_ = s.creds.Clear()
		s.setLocked(StateAnonymous, "", nil)
		s.mu.Unlock()
		s.notify(StateAnonymous)
		return
	}

	s.setLocked(StateAuthenticated, token, identity)
	s.mu.Unlock()
	s.notify(StateAuthenticated)
}

// Login authenticates against the backend. On success the credential is
// persisted and the store transitions to Authenticated; on failure it lands
// in Anonymous and the reason is returned in the result.
func (s *Store) Login(ctx context.Context, username, password string) LoginResult {
	s.mu.Lock()
	s.state = StateAuthenticating
	s.mu.Unlock()
	s.notify(StateAuthenticating)

	resp, err := s.client.Login(ctx, username, password)
	if err != nil {
		s.mu.Lock()
		s.setLocked(StateAnonymous, "", nil)
		s.mu.Unlock()
		s.notify(StateAnonymous)
		return LoginResult{Success: false, Message: api.MessageOf(err)}
	}

	result := s.AdoptToken(resp.Token)
	if !result.Success {
		return result
	}

	logger.WithFields(map[string]interface{}{"username": username}).Info("session: login successful")
	return result
}

// AdoptToken installs a freshly issued token (login or register response).
// A token that fails to decode leaves the store Anonymous.
func (s *Store) AdoptToken(token string) LoginResult {
	identity, err := DecodeToken(token)
	if err != nil {
		s.mu.Lock()
		s.setLocked(StateAnonymous, "", nil)
		s.mu.Unlock()
		s.notify(StateAnonymous)
		return LoginResult{Success: false, Message: "login succeeded but the credential could not be decoded"}
	}

	if err := s.creds.Save(token); err != nil {
		logger.Warnf("session: failed to persist credential: %v", err)
	}

	s.mu.Lock()
	s.setLocked(StateAuthenticated, token, identity)
	s.mu.Unlock()
	s.notify(StateAuthenticated)
	return LoginResult{Success: true, Identity: identity}
}

// Logout clears the credential and transitions to Anonymous.
func (s *Store) Logout() {
	s.mu.Lock()
	s.setLocked(StateAnonymous, "", nil)
	s.mu.Unlock()
	_ = s.creds.Clear()
	s.notify(StateAnonymous)
	logger.Info("session: logged out")
}

// HandleUnauthorized is the 401 signal path from the API client: the stored
// credential is cleared and the session transitions to logged-out. A 403
// never comes through here; permission-denied leaves the session alone.
func (s *Store) HandleUnauthorized() {
	s.mu.Lock()
	wasAuthenticated := s.state == StateAuthenticated
	s.setLocked(StateAnonymous, "", nil)
	s.mu.Unlock()
	_ = s.creds.Clear()
	if wasAuthenticated {
		logger.Warn("session: credential rejected by server, logged out")
		s.notify(StateAnonymous)
	}
}

// State returns the current lifecycle state.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Token returns the current bearer credential; empty when logged out.
// Implements api.TokenSource.
func (s *Store) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// Identity returns the decoded identity, or nil when not authenticated.
func (s *Store) Identity() *models.Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.identity
}

// IsAuthenticated reports whether a decoded identity is present.
func (s *Store) IsAuthenticated() bool {
	return s.State() == StateAuthenticated
}

// Subscribe registers a state-change listener. Listeners run outside the
// store lock.
func (s *Store) Subscribe(fn func(State)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

func (s *Store) setLocked(state State, token string, identity *models.Identity) {
	s.state = state
	s.token = token
	s.identity = identity
}

func (s *Store) notify(state State) {
	s.mu.Lock()
	subs := make([]func(State), len(s.subscribers))
	copy(subs, s.subscribers)
	s.mu.Unlock()
	for _, fn := range subs {
		fn(state)
	}
}
