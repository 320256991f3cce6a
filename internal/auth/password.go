package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/AlynxNeko/sangu/internal/core"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
	ErrEmailExists        = errors.New("email already registered")
	ErrInvalidEmail       = errors.New("invalid email address")
)

// UserStorage is the subset of the storage layer the authenticator needs.
type UserStorage interface {
	CreateUser(ctx context.Context, user *core.UserProfile) error
	GetUserByEmail(ctx context.Context, email string) (*core.UserProfile, error)
	GetUserByID(ctx context.Context, id string) (*core.UserProfile, error)
	UpdateUserPassword(ctx context.Context, userID, passwordHash string) error
}

// PasswordAuthenticator handles user registration and credential checks.
type PasswordAuthenticator struct {
	storage UserStorage
}

func NewPasswordAuthenticator(storage UserStorage) *PasswordAuthenticator {
	return &PasswordAuthenticator{storage: storage}
}

// ValidateCredential checks that an email and password meet minimum requirements.
func (a *PasswordAuthenticator) ValidateCredential(email, password string) error {
	email = strings.TrimSpace(email)
	if email == "" || !strings.Contains(email, "@") {
		return ErrInvalidEmail
	}
	if len(password) < 8 {
		return ErrWeakPassword
	}
	return nil
}

// Register creates a new user with a bcrypt-hashed password.
func (a *PasswordAuthenticator) Register(ctx context.Context, user *core.UserProfile, password string) error {
	if err := a.ValidateCredential(user.Email, password); err != nil {
		return err
	}

	switch _, err := a.storage.GetUserByEmail(ctx, user.Email); {
	case err == nil:
		return ErrEmailExists
	case !errors.Is(err, core.ErrNotFound):
		return fmt.Errorf("failed to check existing email: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	user.PasswordHash = string(hash)

	if err := a.storage.CreateUser(ctx, user); err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// ChangePassword verifies the current password before storing a new hash.
func (a *PasswordAuthenticator) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	user, err := a.storage.GetUserByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(currentPassword)); err != nil {
		return ErrInvalidCredentials
	}
	if len(newPassword) < 8 {
		return ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := a.storage.UpdateUserPassword(ctx, userID, string(hash)); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}

// Authenticate verifies a user's credentials and returns the user on success.
func (a *PasswordAuthenticator) Authenticate(ctx context.Context, email, password string) (*core.UserProfile, error) {
	user, err := a.storage.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}
