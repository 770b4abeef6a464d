// Package auth issues and verifies the forum's JWTs and resolves them to
// authorization principals.
package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"campusforum/internal/config"
	"campusforum/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenType distinguishes access tokens from refresh tokens.
type TokenType string

const (
	TokenAccess  TokenType = "access"
	TokenRefresh TokenType = "refresh"
)

// Claims is the JWT payload. Registered claims carry sub, jti, iss, aud and
// the validity window.
type Claims struct {
	Email    string      `json:"email,omitempty"`
	Role     models.Role `json:"role,omitempty"`
	FullName string      `json:"full_name,omitempty"`
	Type     TokenType   `json:"typ"`
	jwt.RegisteredClaims
}

// UserID parses the subject claim.
func (c *Claims) UserID() (uint, error) {
	id, err := strconv.ParseUint(c.Subject, 10, 32)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid subject %q", c.Subject)
	}
	return uint(id), nil
}

// TokenPair is returned by login and registration.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// Settings configures token issuance.
type Settings struct {
	Secret     string
	Issuer     string
	Audience   string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// SettingsFromConfig extracts the JWT settings from cfg.
func SettingsFromConfig(cfg *config.Config) Settings {
	return Settings{
		Secret:     cfg.JWTSecret,
		Issuer:     cfg.JWTIssuer,
		Audience:   cfg.JWTAudience,
		AccessTTL:  time.Duration(cfg.JWTAccessTTLMinutes) * time.Minute,
		RefreshTTL: time.Duration(cfg.JWTRefreshTTLHours) * time.Hour,
	}
}

// Issuer signs and verifies HS256 tokens.
type Issuer struct {
	settings Settings
	now      func() time.Time
}

// NewIssuer creates an issuer for settings.
func NewIssuer(settings Settings) *Issuer {
	return &Issuer{settings: settings, now: time.Now}
}

// Issue creates a fresh access/refresh pair for user.
func (i *Issuer) Issue(user *models.User) (TokenPair, error) {
	access, err := i.sign(user, TokenAccess, i.settings.AccessTTL)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := i.sign(user, TokenRefresh, i.settings.RefreshTTL)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{Access: access, Refresh: refresh}, nil
}

// IssueAccess creates an access token only.
func (i *Issuer) IssueAccess(user *models.User) (string, error) {
	return i.sign(user, TokenAccess, i.settings.AccessTTL)
}

func (i *Issuer) sign(user *models.User, typ TokenType, ttl time.Duration) (string, error) {
	if i.settings.Secret == "" {
		return "", errors.New("JWT secret not configured")
	}

	now := i.now()
	claims := Claims{
		Type: typ,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(user.ID), 10),
			Issuer:    i.settings.Issuer,
			Audience:  jwt.ClaimStrings{i.settings.Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	}
	if typ == TokenAccess {
		claims.Email = user.Email
		claims.Role = user.Role
		claims.FullName = user.FullName()
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(i.settings.Secret))
}

// Parse verifies signature, issuer, audience, expiry and token type. Every
// failure is reported as AUTHENTICATION_REQUIRED.
func (i *Issuer) Parse(token string, want TokenType) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (interface{}, error) { return []byte(i.settings.Secret), nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(i.settings.Issuer),
		jwt.WithAudience(i.settings.Audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil || !parsed.Valid {
		return nil, invalidToken()
	}
	if claims.Type != want {
		return nil, invalidToken()
	}
	if _, err := claims.UserID(); err != nil {
		return nil, invalidToken()
	}
	return claims, nil
}

// remaining is how long claims stay valid from now.
func (i *Issuer) remaining(claims *Claims) time.Duration {
	if claims.ExpiresAt == nil {
		return 0
	}
	return claims.ExpiresAt.Sub(i.now())
}

func invalidToken() error {
	return models.NewAuthenticationRequiredError("Given token not valid for any token type")
}
