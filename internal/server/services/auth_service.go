package services

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/unilocator/server/internal/server/storage"
	"github.com/unilocator/server/pkg/models"
	"github.com/unilocator/server/pkg/utils"
)

type AuthService struct {
	userRepo *storage.UserRepository
}

func NewAuthService(userRepo *storage.UserRepository) *AuthService {
	return &AuthService{userRepo: userRepo}
}

// Register creates a local account. Duplicate emails are rejected; the
// password is stored as a bcrypt hash.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (*models.User, error) {
	if name == "" {
		return nil, fmt.Errorf("name is required")
	}
	if !utils.IsValidEmail(email) {
		return nil, fmt.Errorf("invalid email format")
	}
	if len(password) < 8 {
		return nil, fmt.Errorf("password must be at least 8 characters")
	}

	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("email already registered")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Active:       true,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// Login verifies the password and issues a session JWT.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, time.Time, error) {
	if !utils.IsValidEmail(email) {
		return "", time.Time{}, fmt.Errorf("invalid email format")
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return "", time.Time{}, fmt.Errorf("invalid email or password")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", time.Time{}, fmt.Errorf("invalid email or password")
	}

	return s.GenerateToken(user.ID, user.Email)
}

// GenerateToken generates a session JWT for a user
func (s *AuthService) GenerateToken(userID uuid.UUID, email string) (string, time.Time, error) {
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return "", time.Time{}, fmt.Errorf("JWT_SECRET not configured")
	}

	expirationStr := os.Getenv("JWT_EXPIRATION")
	if expirationStr == "" {
		expirationStr = "168h" // 7 days default
	}

	expiration, err := time.ParseDuration(expirationStr)
	if err != nil {
		expiration = 168 * time.Hour
	}

	token, err := utils.GenerateJWT(userID, email, jwtSecret, expiration)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to generate JWT: %w", err)
	}

	expiresAt := time.Now().UTC().Add(expiration)
	return token, expiresAt, nil
}

// GetUserByID retrieves a user by their ID
func (s *AuthService) GetUserByID(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("user not found")
	}
	return user, nil
}
