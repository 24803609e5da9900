package service

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/user/track-daily/internal/apperr"
	"github.com/user/track-daily/internal/model"
	"github.com/user/track-daily/internal/repository"
)

// AuthService owns accounts, sign-in tokens and the profile document.
type AuthService struct {
	Users     repository.UserRepositoryInterface
	JWTSecret []byte
	TokenTTL  time.Duration
}

// NewAuthService creates a new AuthService.
func NewAuthService(users repository.UserRepositoryInterface, jwtSecret string, tokenTTL time.Duration) *AuthService {
	return &AuthService{
		Users:     users,
		JWTSecret: []byte(jwtSecret),
		TokenTTL:  tokenTTL,
	}
}

// Register creates an account and its profile document.
func (s *AuthService) Register(email, password, displayName string) (*model.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return nil, apperr.New(apperr.KindValidation, "Email is required")
	}
	if password == "" {
		return nil, apperr.New(apperr.KindValidation, "Password is required")
	}

	exists, err := s.Users.EmailExists(email)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "Failed to create account", err)
	}
	if exists {
		return nil, apperr.New(apperr.KindDuplicate, "An account with this email already exists")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "Failed to create account", err)
	}

	user := &model.User{
		UID:         uuid.New().String(),
		Email:       email,
		Password:    string(hash),
		DisplayName: displayName,
	}
	if err := s.Users.Create(user); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "Failed to create account", err)
	}
	return user, nil
}

// Login verifies the credentials and issues a signed token.
func (s *AuthService) Login(email, password string) (string, *model.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))

	user, err := s.Users.FindByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, apperr.New(apperr.KindAuthRequired, "Invalid email or password")
		}
		return "", nil, apperr.Wrap(apperr.KindInternal, "Failed to sign in", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return "", nil, apperr.New(apperr.KindAuthRequired, "Invalid email or password")
	}

	token, err := s.GenerateToken(user)
	if err != nil {
		return "", nil, apperr.Wrap(apperr.KindInternal, "Failed to sign in", err)
	}
	return token, user, nil
}

// GenerateToken signs an HS256 token for the user.
func (s *AuthService) GenerateToken(user *model.User) (string, error) {
	claims := jwt.MapClaims{
		"sub":   user.UID,
		"email": user.Email,
		"exp":   time.Now().Add(s.TokenTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.JWTSecret)
}

// Profile fetches the user's profile document.
func (s *AuthService) Profile(uid string) (*model.User, error) {
	user, err := s.Users.FindByUID(uid)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.KindNotFound, "User not found")
		}
		return nil, apperr.Wrap(apperr.KindInternal, "Failed to load profile", err)
	}
	return user, nil
}

// UpdateProfile applies a partial update: only the fields present in the
// request are written.
func (s *AuthService) UpdateProfile(uid string, update model.ProfileUpdate) (*model.User, error) {
	updates := map[string]interface{}{}
	if update.DisplayName != nil {
		updates["display_name"] = *update.DisplayName
	}
	if update.PhotoURL != nil {
		updates["photo_url"] = *update.PhotoURL
	}
	if update.Phone != nil {
		updates["phone"] = *update.Phone
	}
	if update.EmailReminders != nil {
		updates["email_reminders"] = *update.EmailReminders
	}

	if err := s.Users.UpdateProfile(uid, updates); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.KindNotFound, "User not found")
		}
		return nil, apperr.Wrap(apperr.KindInternal, "Failed to update profile", err)
	}
	return s.Profile(uid)
}
