package stores

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"banas-client/internal/models"
	"banas-client/internal/services"
)

func TestSessionStore_StartsInitialising(t *testing.T) {
	s := NewSessionStore(&fakeAuth{}, nil)
	st := s.Snapshot()
	assert.True(t, st.IsInitialising)
	assert.False(t, st.IsAuthenticated)
}

func TestSessionStore_Initialise(t *testing.T) {
	ctx := context.Background()
	user := &models.UserProfile{ID: 3, Username: "ravi"}

	tests := []struct {
		name     string
		auth     *fakeAuth
		authed   bool
		wantUser bool
	}{
		{name: "stored token", auth: &fakeAuth{token: "abc", user: user}, authed: true, wantUser: true},
		{name: "token without user", auth: &fakeAuth{token: "abc"}, authed: true},
		{name: "nothing stored", auth: &fakeAuth{}},
		{name: "storage failure", auth: &fakeAuth{tokenErr: errors.New("keychain locked")}},
		{name: "user read failure", auth: &fakeAuth{token: "abc", userErr: errors.New("io")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSessionStore(tt.auth, nil)
			s.Initialise(ctx)

			st := s.Snapshot()
			assert.False(t, st.IsInitialising)
			assert.Equal(t, tt.authed, st.IsAuthenticated)
			assert.Equal(t, tt.wantUser, st.User != nil)
		})
	}
}

func TestSessionStore_Login(t *testing.T) {
	ctx := context.Background()
	creds := models.LoginRequest{Username: "ravi", Password: "secret"}

	t.Run("success", func(t *testing.T) {
		auth := &fakeAuth{loginResult: &models.LoginResult{
			Access: "a", Refresh: "r",
			User: &models.UserProfile{ID: 1, Username: "ravi"},
		}}
		s := NewSessionStore(auth, nil)

		ok := s.Login(ctx, creds)

		require.True(t, ok)
		st := s.Snapshot()
		assert.True(t, st.IsAuthenticated)
		assert.Equal(t, "ravi", st.User.Username)
		assert.False(t, st.Loading)
		assert.Empty(t, st.Error)
	})

	t.Run("server detail is shown verbatim", func(t *testing.T) {
		auth := &fakeAuth{loginErr: serverError(401, `{"detail":"Invalid credentials"}`)}
		s := NewSessionStore(auth, nil)

		ok := s.Login(ctx, creds)

		assert.False(t, ok)
		st := s.Snapshot()
		assert.False(t, st.IsAuthenticated)
		assert.Equal(t, "Invalid credentials", st.Error)
		assert.False(t, st.Loading)
	})

	t.Run("non field errors", func(t *testing.T) {
		auth := &fakeAuth{loginErr: serverError(400, `{"non_field_errors":["Account disabled"]}`)}
		s := NewSessionStore(auth, nil)

		s.Login(ctx, creds)
		assert.Equal(t, "Account disabled", s.Snapshot().Error)
	})

	t.Run("transport failure falls back", func(t *testing.T) {
		s := NewSessionStore(&fakeAuth{loginErr: errDown}, nil)

		s.Login(ctx, creds)
		assert.Equal(t, "Invalid username or password.", s.Snapshot().Error)
	})

	t.Run("local storage failure is not reported as bad credentials", func(t *testing.T) {
		err := fmt.Errorf("%w: access token: %w", services.ErrSessionNotSaved, errors.New("disk full"))
		s := NewSessionStore(&fakeAuth{loginErr: err}, nil)

		assert.False(t, s.Login(ctx, creds))
		assert.Equal(t, "Signed in, but the session could not be saved on this device.", s.Snapshot().Error)
	})

	t.Run("failed login keeps existing session", func(t *testing.T) {
		auth := &fakeAuth{token: "abc", user: &models.UserProfile{Username: "ravi"}, loginErr: errDown}
		s := NewSessionStore(auth, nil)
		s.Initialise(ctx)

		s.Login(ctx, creds)
		assert.True(t, s.Snapshot().IsAuthenticated)

		s.ClearError()
		assert.Empty(t, s.Snapshot().Error)
	})
}

func TestSessionStore_Logout(t *testing.T) {
	ctx := context.Background()
	auth := &fakeAuth{
		token:     "abc",
		user:      &models.UserProfile{Username: "ravi"},
		logoutErr: errors.New("delete failed"),
	}
	s := NewSessionStore(auth, nil)
	s.Initialise(ctx)
	require.True(t, s.Snapshot().IsAuthenticated)

	s.Logout(ctx)

	st := s.Snapshot()
	assert.True(t, auth.loggedOut)
	assert.False(t, st.IsAuthenticated)
	assert.Nil(t, st.User)
	assert.False(t, st.Loading)
}
