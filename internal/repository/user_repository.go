package repository

import (
	"github.com/user/track-daily/internal/model"
	"gorm.io/gorm"
)

// UserRepositoryInterface defines the account persistence operations.
type UserRepositoryInterface interface {
	Create(user *model.User) error
	FindByEmail(email string) (*model.User, error)
	FindByUID(uid string) (*model.User, error)
	EmailExists(email string) (bool, error)
	UpdateProfile(uid string, updates map[string]interface{}) error
}

// UserRepository implements UserRepositoryInterface.
type UserRepository struct {
	DB *gorm.DB
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db *gorm.DB) UserRepositoryInterface {
	return &UserRepository{DB: db}
}

// Create inserts a new account record.
func (r *UserRepository) Create(user *model.User) error {
	return r.DB.Create(user).Error
}

// FindByEmail looks an account up by email.
func (r *UserRepository) FindByEmail(email string) (*model.User, error) {
	var user model.User
	result := r.DB.Where("email = ?", email).First(&user)
	if result.Error != nil {
		return nil, result.Error
	}
	return &user, nil
}

// FindByUID looks an account up by its uid.
func (r *UserRepository) FindByUID(uid string) (*model.User, error) {
	var user model.User
	result := r.DB.Where("uid = ?", uid).First(&user)
	if result.Error != nil {
		return nil, result.Error
	}
	return &user, nil
}

// EmailExists checks whether the email is already registered.
func (r *UserRepository) EmailExists(email string) (bool, error) {
	var count int64
	result := r.DB.Model(&model.User{}).Where("email = ?", email).Count(&count)
	return count > 0, result.Error
}

// UpdateProfile writes only the given columns, the partial-update
// semantics of the profile document.
func (r *UserRepository) UpdateProfile(uid string, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}
	result := r.DB.Model(&model.User{}).Where("uid = ?", uid).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
