package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"clip-share/config"
	clip_errors "clip-share/pkg/errors"

	"github.com/golang-jwt/jwt/v5"
)

// AuthService verifies bearer tokens issued by the identity provider.
type AuthService struct {
	jwtSecret []byte
	accessTTL time.Duration
}

func NewAuthService(cfg *config.Config) *AuthService {
	ttl := time.Duration(cfg.JWTExpiryHours) * time.Hour
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &AuthService{
		jwtSecret: []byte(cfg.JWTSecret),
		accessTTL: ttl,
	}
}

// Identity is the signed-in user. A nil *Identity means nobody is signed in.
type Identity struct {
	UID         string `json:"uid"`
	DisplayName string `json:"displayName"`
}

type AccessClaims struct {
	UserID      string `json:"sub"`
	DisplayName string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

func (s *AuthService) ParseAccessToken(tokenString string) (AccessClaims, error) {
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return AccessClaims{}, clip_errors.ErrUnauthorized
	}

	claims := AccessClaims{}
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, clip_errors.ErrUnauthorized
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return AccessClaims{}, clip_errors.ErrUnauthorized
	}
	if claims.UserID == "" {
		return AccessClaims{}, clip_errors.ErrUnauthorized
	}
	return claims, nil
}

// Authenticate turns a bearer token into an Identity.
func (s *AuthService) Authenticate(tokenString string) (*Identity, error) {
	claims, err := s.ParseAccessToken(tokenString)
	if err != nil {
		return nil, err
	}
	return &Identity{UID: claims.UserID, DisplayName: claims.DisplayName}, nil
}

// IssueAccessToken signs a token for uid. Used by local tooling and tests.
func (s *AuthService) IssueAccessToken(uid, displayName string) (string, int64, error) {
	if strings.TrimSpace(uid) == "" {
		return "", 0, clip_errors.ErrInvalidInput
	}
	now := time.Now()
	claims := AccessClaims{
		UserID:      uid,
		DisplayName: displayName,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", 0, err
	}
	return signed, int64(s.accessTTL.Seconds()), nil
}

func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, clip_errors.ErrInvalidInput), errors.Is(err, clip_errors.ErrNotUploaded):
		return 400
	case errors.Is(err, clip_errors.ErrUnauthorized):
		return 401
	case errors.Is(err, clip_errors.ErrForbidden):
		return 403
	case errors.Is(err, clip_errors.ErrNotFound):
		return 404
	case errors.Is(err, clip_errors.ErrAlreadyExists),
		errors.Is(err, clip_errors.ErrInvalidTransition),
		errors.Is(err, clip_errors.ErrCancelled):
		return 409
	case errors.Is(err, clip_errors.ErrTooLarge):
		return 413
	case errors.Is(err, clip_errors.ErrRateLimited):
		return 429
	case errors.Is(err, clip_errors.ErrUploadFailed):
		return 502
	case errors.Is(err, clip_errors.ErrServiceUnavailable):
		return 503
	default:
		return 500
	}
}

type contextKey string

const identityKey contextKey = "identity"

func WithIdentity(ctx context.Context, identity *Identity) context.Context {
	if identity == nil {
		return ctx
	}
	return context.WithValue(ctx, identityKey, identity)
}

func IdentityFromContext(ctx context.Context) *Identity {
	if ctx == nil {
		return nil
	}
	identity, _ := ctx.Value(identityKey).(*Identity)
	return identity
}

func UserIDFromContext(ctx context.Context) (string, bool) {
	identity := IdentityFromContext(ctx)
	if identity == nil || identity.UID == "" {
		return "", false
	}
	return identity.UID, true
}
