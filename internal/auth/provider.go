package auth

import (
	"context"
	"log/slog"
	"time"

	"campusforum/internal/authz"
	"campusforum/internal/models"
	"campusforum/internal/repository"
)

// Revoker persists revoked refresh token ids.
type Revoker interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// Session is the login response.
type Session struct {
	TokenPair
	User *models.User `json:"user"`
}

// Provider is the identity provider: it logs users in and turns tokens back
// into principals.
type Provider struct {
	issuer      *Issuer
	users       repository.UserRepository
	revocations Revoker
}

// NewProvider wires a provider. revocations may be nil.
func NewProvider(issuer *Issuer, users repository.UserRepository, revocations Revoker) *Provider {
	return &Provider{issuer: issuer, users: users, revocations: revocations}
}

// Issuer exposes the token issuer for registration flows.
func (p *Provider) Issuer() *Issuer {
	return p.issuer
}

// Authenticate resolves an access token to the caller. The role comes from
// the stored user, so role changes apply to tokens already issued.
func (p *Provider) Authenticate(ctx context.Context, token string) (*authz.Principal, error) {
	claims, err := p.issuer.Parse(token, TokenAccess)
	if err != nil {
		return nil, err
	}
	user, err := p.activeUser(ctx, claims)
	if err != nil {
		return nil, err
	}
	return &authz.Principal{UserID: user.ID, Role: user.Role}, nil
}

// Login checks credentials and issues a token pair.
func (p *Provider) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := p.users.GetByEmail(ctx, email)
	if err != nil && !repository.IsNotFound(err) {
		return nil, err
	}
	if user == nil || !user.IsActive || !CheckPassword(user.Password, password) {
		return nil, models.NewAuthenticationRequiredError("No active account found with the given credentials")
	}

	pair, err := p.issuer.Issue(user)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	slog.InfoContext(ctx, "user logged in", slog.Uint64("user_id", uint64(user.ID)))
	return &Session{TokenPair: pair, User: user}, nil
}

// Refresh exchanges a valid, unrevoked refresh token for a new access token.
func (p *Provider) Refresh(ctx context.Context, refresh string) (string, error) {
	claims, err := p.issuer.Parse(refresh, TokenRefresh)
	if err != nil {
		return "", err
	}
	if err := p.checkRevoked(ctx, claims); err != nil {
		return "", err
	}
	user, err := p.activeUser(ctx, claims)
	if err != nil {
		return "", err
	}

	access, err := p.issuer.IssueAccess(user)
	if err != nil {
		return "", models.NewInternalError(err)
	}
	return access, nil
}

// Logout revokes a refresh token for the rest of its lifetime. The token
// must belong to userID.
func (p *Provider) Logout(ctx context.Context, userID uint, refresh string) error {
	if refresh == "" {
		return models.NewFieldValidationError("refresh", "This field is required.")
	}
	claims, err := p.issuer.Parse(refresh, TokenRefresh)
	if err != nil {
		return models.NewFieldValidationError("refresh", "Token is invalid or expired")
	}
	if owner, _ := claims.UserID(); owner != userID {
		return models.NewFieldValidationError("refresh", "Token does not belong to the current user")
	}
	if p.revocations == nil {
		return nil
	}
	if err := p.revocations.Revoke(ctx, claims.ID, p.issuer.remaining(claims)); err != nil {
		return models.NewStoreUnavailableError(err)
	}
	slog.InfoContext(ctx, "refresh token revoked", slog.Uint64("user_id", uint64(userID)))
	return nil
}

func (p *Provider) checkRevoked(ctx context.Context, claims *Claims) error {
	if p.revocations == nil {
		return nil
	}
	revoked, err := p.revocations.IsRevoked(ctx, claims.ID)
	if err != nil {
		return models.NewStoreUnavailableError(err)
	}
	if revoked {
		return models.NewAuthenticationRequiredError("Token is blacklisted")
	}
	return nil
}

func (p *Provider) activeUser(ctx context.Context, claims *Claims) (*models.User, error) {
	id, err := claims.UserID()
	if err != nil {
		return nil, invalidToken()
	}
	user, err := p.users.GetByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, models.NewAuthenticationRequiredError("User not found")
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, models.NewAuthenticationRequiredError("User is inactive")
	}
	return user, nil
}
