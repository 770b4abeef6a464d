package repository

import (
	"context"
	"strings"

	"campusforum/internal/models"

	"gorm.io/gorm"
)

// UserRepository defines the interface for user data operations
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	SetRole(ctx context.Context, id uint, role models.Role) error
	SetActive(ctx context.Context, id uint, active bool) error
	Delete(ctx context.Context, id uint) error
	ListByRoles(ctx context.Context, roles []models.Role) ([]models.User, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if IsUniqueViolation(err) {
			return models.NewFieldValidationError("email", "A user with this email already exists")
		}
		return Classify(err)
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, Classify(err)
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&user).Error
	if err != nil {
		return nil, Classify(err)
	}
	return &user, nil
}

// Update persists the self-editable profile fields.
func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	err := r.db.WithContext(ctx).
		Model(user).
		Select("first_name", "last_name", "profile_picture", "updated_at").
		Updates(user).Error
	return Classify(err)
}

func (r *userRepository) SetRole(ctx context.Context, id uint, role models.Role) error {
	return r.updateColumn(ctx, id, "role", role)
}

func (r *userRepository) SetActive(ctx context.Context, id uint, active bool) error {
	return r.updateColumn(ctx, id, "is_active", active)
}

func (r *userRepository) updateColumn(ctx context.Context, id uint, column string, value any) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update(column, value)
	if res.Error != nil {
		return Classify(res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *userRepository) Delete(ctx context.Context, id uint) error {
	return Classify(r.db.WithContext(ctx).Delete(&models.User{}, id).Error)
}

func (r *userRepository) ListByRoles(ctx context.Context, roles []models.Role) ([]models.User, error) {
	var users []models.User
	err := readDB(r.db).WithContext(ctx).
		Where("role IN ?", roles).
		Order("id ASC").
		Find(&users).Error
	return users, Classify(err)
}
