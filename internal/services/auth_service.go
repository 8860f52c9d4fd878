package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"banas-client/internal/apiclient"
	"banas-client/internal/models"
	"banas-client/internal/securestore"
)

// UserKey is the secure storage key of the serialized signed-in user
const UserKey = "banas_auth_user"

// ErrSessionNotSaved wraps local storage failures after the server accepted
// the credentials
var ErrSessionNotSaved = errors.New("session not saved")

type AuthService struct {
	API    API
	Tokens securestore.Store
}

func NewAuthService(api API, tokens securestore.Store) *AuthService {
	return &AuthService{API: api, Tokens: tokens}
}

// Login posts the credentials and on success persists the access token,
// refresh token and user
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResult, error) {
	body, err := s.API.Post(ctx, "/login/", req)
	if err != nil {
		return nil, err
	}
	data, err := parse(body, "login")
	if err != nil {
		return nil, err
	}

	user := &models.UserProfile{
		ID:          int(data.Get("id").Int()),
		Username:    data.Get("user").String(),
		FirstName:   data.Get("first_name").String(),
		LastName:    data.Get("last_name").String(),
		FullName:    data.Get("full_name").String(),
		Email:       data.Get("email").String(),
		IsSuperuser: data.Get("is_superuser").Bool(),
	}
	result := &models.LoginResult{
		Access:  data.Get("access").String(),
		Refresh: data.Get("refresh").String(),
		User:    user,
	}

	userJSON, err := json.Marshal(user)
	if err != nil {
		return nil, err
	}
	if err := s.Tokens.Set(ctx, apiclient.AccessTokenKey, result.Access); err != nil {
		return nil, fmt.Errorf("%w: access token: %w", ErrSessionNotSaved, err)
	}
	if err := s.Tokens.Set(ctx, apiclient.RefreshTokenKey, result.Refresh); err != nil {
		return nil, fmt.Errorf("%w: refresh token: %w", ErrSessionNotSaved, err)
	}
	if err := s.Tokens.Set(ctx, UserKey, string(userJSON)); err != nil {
		return nil, fmt.Errorf("%w: user: %w", ErrSessionNotSaved, err)
	}
	return result, nil
}

// Logout removes all three persisted secrets. Every key is attempted even
// when an earlier delete fails.
func (s *AuthService) Logout(ctx context.Context) error {
	return errors.Join(
		s.Tokens.Delete(ctx, apiclient.AccessTokenKey),
		s.Tokens.Delete(ctx, apiclient.RefreshTokenKey),
		s.Tokens.Delete(ctx, UserKey),
	)
}

// StoredAccessToken returns "" when no token is stored
func (s *AuthService) StoredAccessToken(ctx context.Context) (string, error) {
	token, err := s.Tokens.Get(ctx, apiclient.AccessTokenKey)
	if errors.Is(err, securestore.ErrNotFound) {
		return "", nil
	}
	return token, err
}

// StoredUser returns nil without error when no user is stored or the stored
// JSON is unreadable
func (s *AuthService) StoredUser(ctx context.Context) (*models.UserProfile, error) {
	raw, err := s.Tokens.Get(ctx, UserKey)
	if errors.Is(err, securestore.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if raw == "" {
		return nil, nil
	}
	var user models.UserProfile
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return nil, nil
	}
	return &user, nil
}
