package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// EnvAccessToken overrides the keychain token, for CI pipelines that mint
// their own bearer credential.
const EnvAccessToken = "EVENTS_ACCESS_TOKEN"

var (
	ErrTokenExpired = errors.New("access token is expired")
	ErrOpaqueToken  = errors.New("access token is not a JWT")
)

// TokenInfo is what can be read from an access token without verifying it.
type TokenInfo struct {
	ClientID  string    `json:"client_id,omitempty"`
	UserID    string    `json:"user_id,omitempty"`
	Type      string    `json:"type,omitempty"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

// InspectToken decodes the claims of a JWT access token. The signature is not
// checked; the service does that on every call.
func InspectToken(token string) (TokenInfo, error) {
	token = strings.TrimSpace(token)
	if strings.Count(token, ".") != 2 {
		return TokenInfo{}, ErrOpaqueToken
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return TokenInfo{}, fmt.Errorf("%w: %v", ErrOpaqueToken, err)
	}

	info := TokenInfo{
		ClientID: claimString(claims, "client_id"),
		UserID:   claimString(claims, "user_id"),
		Type:     claimString(claims, "type"),
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		info.ExpiresAt = exp.Time.UTC()
		return info, nil
	}

	// IMS tokens carry created_at and expires_in in milliseconds instead of exp.
	createdAt, createdOK := claimMillis(claims, "created_at")
	expiresIn, expiresOK := claimMillis(claims, "expires_in")
	if createdOK && expiresOK {
		info.ExpiresAt = time.UnixMilli(createdAt + expiresIn).UTC()
	}
	return info, nil
}

// CheckTokenExpiry fails when a JWT token expires within minTTL of now.
// Tokens that cannot be inspected pass.
func CheckTokenExpiry(token string, now time.Time, minTTL time.Duration) error {
	info, err := InspectToken(token)
	if err != nil {
		if errors.Is(err, ErrOpaqueToken) {
			return nil
		}
		return err
	}
	if info.ExpiresAt.IsZero() {
		return nil
	}
	if !info.ExpiresAt.After(now.Add(minTTL)) {
		return fmt.Errorf("%w (expires_at=%s)", ErrTokenExpired, info.ExpiresAt.Format(time.RFC3339))
	}
	return nil
}

// KeychainTokenSource reads the bearer token stored for a profile.
type KeychainTokenSource struct {
	Store  SecretStore
	Ref    string
	Getenv func(string) string
	Now    func() time.Time
	MinTTL time.Duration
}

func (s *KeychainTokenSource) AccessToken(_ context.Context) (string, error) {
	if s.Getenv != nil {
		if token := strings.TrimSpace(s.Getenv(EnvAccessToken)); token != "" {
			return token, s.check(token)
		}
	}
	if s.Store == nil {
		return "", errors.New("secret store is required")
	}
	if strings.TrimSpace(s.Ref) == "" {
		return "", errors.New("no access token stored for profile; run `events auth login`")
	}
	token, err := s.Store.Get(s.Ref)
	if err != nil {
		return "", err
	}
	return token, s.check(token)
}

func (s *KeychainTokenSource) check(token string) error {
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	return CheckTokenExpiry(token, now().UTC(), s.MinTTL)
}

func claimString(claims jwt.MapClaims, key string) string {
	value, _ := claims[key].(string)
	return value
}

func claimMillis(claims jwt.MapClaims, key string) (int64, bool) {
	switch typed := claims[key].(type) {
	case string:
		parsed, err := strconv.ParseInt(strings.TrimSpace(typed), 10, 64)
		return parsed, err == nil
	case float64:
		return int64(typed), true
	default:
		return 0, false
	}
}
