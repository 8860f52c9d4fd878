package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/golang-jwt/jwt/v5"
	"github.com/tidwall/gjson"

	"banas-client/internal/metrics"
	"banas-client/internal/securestore"
)

// expired reports whether token is a JWT whose exp claim has passed. Tokens
// that cannot be parsed are left for the server to judge.
func (c *Client) expired(token string) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return !c.now().Before(exp.Time)
}

// refresh trades the stored refresh token for a new access token and persists
// it. stale is the access token that was rejected; if another goroutine has
// already replaced it, the newer token is returned without a second call.
func (c *Client) refresh(ctx context.Context, stale string) (string, error) {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	if current := c.accessToken(ctx); current != "" && current != stale {
		return current, nil
	}

	refreshToken, err := c.tokens.Get(ctx, RefreshTokenKey)
	if errors.Is(err, securestore.ErrNotFound) || (err == nil && refreshToken == "") {
		metrics.TokenRefreshTotal.WithLabelValues("no_token").Inc()
		return "", ErrNoToken
	}
	if err != nil {
		return "", fmt.Errorf("read refresh token: %w", err)
	}

	payload, _ := json.Marshal(map[string]string{"refresh": refreshToken})
	status, body, err := c.send(ctx, http.MethodPost, refreshPath, payload, "")
	if err != nil {
		metrics.TokenRefreshTotal.WithLabelValues("error").Inc()
		return "", err
	}
	if status < 200 || status >= 300 {
		metrics.TokenRefreshTotal.WithLabelValues("rejected").Inc()
		return "", newAPIError(http.MethodPost, refreshPath, status, body)
	}

	access := gjson.GetBytes(body, "access").String()
	if access == "" {
		metrics.TokenRefreshTotal.WithLabelValues("error").Inc()
		return "", errors.New("refresh response carried no access token")
	}
	if err := c.tokens.Set(ctx, AccessTokenKey, access); err != nil {
		return "", fmt.Errorf("store access token: %w", err)
	}
	// Rotation is optional on the backend
	if rotated := gjson.GetBytes(body, "refresh").String(); rotated != "" {
		if err := c.tokens.Set(ctx, RefreshTokenKey, rotated); err != nil {
			return "", fmt.Errorf("store refresh token: %w", err)
		}
	}

	metrics.TokenRefreshTotal.WithLabelValues("ok").Inc()
	c.log.Info("access token refreshed")
	return access, nil
}
