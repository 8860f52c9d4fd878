package auth

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"banas-client/internal/config"
	"banas-client/internal/timeutil"
)

// Token kinds carried in the "token_type" claim
const (
	KindAccess  = "access"
	KindRefresh = "refresh"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrWrongKind    = errors.New("wrong token type")
)

type Claims struct {
	UserID    int    `json:"user_id"`
	Username  string `json:"username"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

type JWTManager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewJWTManager(cfg *config.Config) *JWTManager {
	return &JWTManager{
		secret:     []byte(cfg.DevServer.JWTSecret),
		accessTTL:  time.Duration(cfg.DevServer.AccessMinutes) * time.Minute,
		refreshTTL: time.Duration(cfg.DevServer.RefreshHours) * time.Hour,
		now:        timeutil.Now,
	}
}

// GenerateAccessToken signs a short-lived token for API calls
func (j *JWTManager) GenerateAccessToken(userID int, username string) (string, error) {
	return j.generate(userID, username, KindAccess, j.accessTTL)
}

// GenerateRefreshToken signs a long-lived token accepted only by the refresh endpoint
func (j *JWTManager) GenerateRefreshToken(userID int, username string) (string, error) {
	return j.generate(userID, username, KindRefresh, j.refreshTTL)
}

func (j *JWTManager) generate(userID int, username, kind string, ttl time.Duration) (string, error) {
	now := j.now()
	claims := &Claims{
		UserID:    userID,
		Username:  username,
		TokenType: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.Itoa(userID),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "banas-devserver",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(j.secret)
}

// ValidateToken verifies signature, expiry and kind and returns the claims
func (j *JWTManager) ValidateToken(tokenString, kind string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		// Verify signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return j.secret, nil
	}, jwt.WithTimeFunc(j.now))
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.TokenType != kind {
		return nil, ErrWrongKind
	}
	return claims, nil
}
