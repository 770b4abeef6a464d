package service

import (
	"context"
	"log/slog"
	"strings"

	"campusforum/internal/auth"
	"campusforum/internal/authz"
	"campusforum/internal/models"
	"campusforum/internal/repository"
	"campusforum/internal/validation"
)

// UserService handles registration, the caller's own profile and the
// operator commands of cmd/admin.
type UserService struct {
	store  *repository.Store
	issuer *auth.Issuer
}

func NewUserService(store *repository.Store, issuer *auth.Issuer) *UserService {
	return &UserService{store: store, issuer: issuer}
}

type RegisterInput struct {
	Email     string      `json:"email" validate:"required,email,runemax=254"`
	Password  string      `json:"password" validate:"required"`
	Password2 string      `json:"password2" validate:"required,eqfield=Password"`
	FirstName string      `json:"first_name" validate:"notblank,runemax=150"`
	LastName  string      `json:"last_name" validate:"notblank,runemax=150"`
	Role      models.Role `json:"role" validate:"omitempty,oneof=PROFESSOR STUDENT"`
}

// Register creates an active account and logs it in. ADMIN is never
// self-assignable.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*auth.Session, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	err := validation.Struct(in)
	if in.Password != "" {
		if perr := validation.ValidatePassword(in.Password, in.Email); perr != nil {
			err = validation.Merge(err, map[string]string{"password": perr.Error()})
		}
	}
	if err != nil {
		return nil, err
	}
	if in.Role == "" {
		in.Role = models.RoleStudent
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	user := &models.User{
		Email:     in.Email,
		Password:  hash,
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
		Role:      in.Role,
		IsActive:  true,
	}
	if err := s.store.Users.Create(ctx, user); err != nil {
		return nil, err
	}

	pair, err := s.issuer.Issue(user)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	slog.InfoContext(ctx, "user registered", slog.Uint64("user_id", uint64(user.ID)), slog.String("role", string(user.Role)))
	return &auth.Session{TokenPair: pair, User: user}, nil
}

// Me returns the caller's account.
func (s *UserService) Me(ctx context.Context, p *authz.Principal) (*models.User, error) {
	if p == nil {
		return nil, models.NewAuthenticationRequiredError("")
	}
	if err := authorize(ctx, p, authz.ActionRetrieve, authz.Resource{Kind: authz.KindProfile, OwnerID: p.UserID}); err != nil {
		return nil, err
	}
	user, err := s.store.Users.GetByID(ctx, p.UserID)
	if err != nil {
		return nil, notFound(err, "user", p.UserID)
	}
	return user, nil
}

// UpdateProfileInput carries the self-editable fields. Partial leaves
// absent fields untouched; otherwise both names are required.
type UpdateProfileInput struct {
	FirstName      *string `json:"first_name" validate:"omitempty,notblank,runemax=150"`
	LastName       *string `json:"last_name" validate:"omitempty,notblank,runemax=150"`
	ProfilePicture *string `json:"profile_picture" validate:"omitempty,runemax=500"`
	Partial        bool    `json:"-"`
}

// UpdateMe edits the caller's profile. Role and email are not reachable
// through this path.
func (s *UserService) UpdateMe(ctx context.Context, p *authz.Principal, in UpdateProfileInput) (*models.User, error) {
	user, err := s.Me(ctx, p)
	if err != nil {
		return nil, err
	}
	if err := authorize(ctx, p, authz.ActionUpdate, authz.Resource{Kind: authz.KindProfile, OwnerID: user.ID}); err != nil {
		return nil, err
	}

	err = validation.Struct(in)
	if !in.Partial {
		missing := map[string]string{}
		if in.FirstName == nil {
			missing["first_name"] = "This field is required."
		}
		if in.LastName == nil {
			missing["last_name"] = "This field is required."
		}
		err = validation.Merge(err, missing)
	}
	if err != nil {
		return nil, err
	}

	if in.FirstName != nil {
		user.FirstName = strings.TrimSpace(*in.FirstName)
	}
	if in.LastName != nil {
		user.LastName = strings.TrimSpace(*in.LastName)
	}
	if in.ProfilePicture != nil {
		user.ProfilePicture = strings.TrimSpace(*in.ProfilePicture)
	}
	if err := s.store.Users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// SetRole changes the role of the account with email.
func (s *UserService) SetRole(ctx context.Context, email string, role models.Role) (*models.User, error) {
	if !role.Valid() {
		return nil, models.NewFieldValidationError("role", "\""+string(role)+"\" is not a valid choice.")
	}
	user, err := s.byEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if err := s.store.Users.SetRole(ctx, user.ID, role); err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "user role changed",
		slog.Uint64("user_id", uint64(user.ID)),
		slog.String("from", string(user.Role)),
		slog.String("to", string(role)),
	)
	user.Role = role
	return user, nil
}

// Deactivate disables the account with email. Issued tokens stop
// authenticating immediately.
func (s *UserService) Deactivate(ctx context.Context, email string) (*models.User, error) {
	user, err := s.byEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if err := s.store.Users.SetActive(ctx, user.ID, false); err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "user deactivated", slog.Uint64("user_id", uint64(user.ID)))
	user.IsActive = false
	return user, nil
}

// ListModerators returns every ADMIN and PROFESSOR account.
func (s *UserService) ListModerators(ctx context.Context) ([]models.User, error) {
	return s.store.Users.ListByRoles(ctx, []models.Role{models.RoleAdmin, models.RoleProfessor})
}

func (s *UserService) byEmail(ctx context.Context, email string) (*models.User, error) {
	user, err := s.store.Users.GetByEmail(ctx, email)
	if repository.IsNotFound(err) {
		return nil, models.NewNotFoundError("user", email)
	}
	return user, err
}
