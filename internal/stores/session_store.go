package stores

import (
	"context"
	"errors"
	"sync"

	"github.com/sirupsen/logrus"

	"banas-client/internal/apiclient"
	"banas-client/internal/logging"
	"banas-client/internal/models"
	"banas-client/internal/services"
)

const (
	loginFallback      = "Invalid username or password."
	sessionNotSavedMsg = "Signed in, but the session could not be saved on this device."
)

type SessionState struct {
	User            *models.UserProfile
	IsAuthenticated bool
	// IsInitialising is true from construction until Initialise first returns
	IsInitialising bool
	Loading        bool
	Error          string
}

// SessionStore owns authentication state for the whole process
type SessionStore struct {
	notifier
	mu    sync.RWMutex
	state SessionState
	auth  AuthAPI
	log   *logrus.Entry
}

func NewSessionStore(auth AuthAPI, log *logrus.Entry) *SessionStore {
	return &SessionStore{
		state: SessionState{IsInitialising: true},
		auth:  auth,
		log:   logging.Or(log, "session"),
	}
}

func (s *SessionStore) Snapshot() SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := s.state
	if st.User != nil {
		u := *st.User
		st.User = &u
	}
	return st
}

func (s *SessionStore) update(fn func(*SessionState)) {
	s.mu.Lock()
	fn(&s.state)
	s.mu.Unlock()
	s.notify()
}

// Initialise restores the session from secure storage. A stored access token
// means authenticated; the token is not checked with the server. Storage
// errors resolve to signed out.
func (s *SessionStore) Initialise(ctx context.Context) {
	token, err := s.auth.StoredAccessToken(ctx)
	var user *models.UserProfile
	if err == nil {
		user, err = s.auth.StoredUser(ctx)
	}
	if err != nil {
		s.log.WithError(err).Warn("session restore failed")
		s.update(func(st *SessionState) {
			st.IsAuthenticated = false
			st.User = nil
			st.IsInitialising = false
		})
		record("session", "initialise", outcomeError)
		return
	}

	s.update(func(st *SessionState) {
		st.IsAuthenticated = token != ""
		st.User = user
		st.IsInitialising = false
	})
	s.log.WithField("authenticated", token != "").Info("session restored")
	record("session", "initialise", outcomeOK)
}

// Login reports whether the credentials were accepted. On failure the
// authentication state is left as it was.
func (s *SessionStore) Login(ctx context.Context, req models.LoginRequest) bool {
	s.update(func(st *SessionState) {
		st.Loading = true
		st.Error = ""
	})

	res, err := s.auth.Login(ctx, req)
	if err != nil {
		msg, ok := apiclient.ServerMessage(err, "detail", "non_field_errors.0")
		switch {
		case errors.Is(err, services.ErrSessionNotSaved):
			msg = sessionNotSavedMsg
		case !ok:
			msg = loginFallback
		}
		s.log.WithError(err).Warn("login failed")
		s.update(func(st *SessionState) {
			st.Loading = false
			st.Error = msg
		})
		record("session", "login", outcomeError)
		return false
	}

	s.update(func(st *SessionState) {
		st.User = res.User
		st.IsAuthenticated = true
		st.Loading = false
	})
	s.log.WithField("user", res.User.Username).Info("signed in")
	record("session", "login", outcomeOK)
	return true
}

// Logout clears persisted secrets and then the in-memory session. Storage
// errors are logged and do not keep the session alive.
func (s *SessionStore) Logout(ctx context.Context) {
	s.update(func(st *SessionState) { st.Loading = true })

	if err := s.auth.Logout(ctx); err != nil {
		s.log.WithError(err).Warn("clearing stored secrets failed")
	}

	s.update(func(st *SessionState) {
		st.User = nil
		st.IsAuthenticated = false
		st.Loading = false
		st.Error = ""
	})
	s.log.Info("signed out")
	record("session", "logout", outcomeOK)
}

func (s *SessionStore) ClearError() {
	s.update(func(st *SessionState) { st.Error = "" })
}
