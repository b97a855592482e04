package services

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/unilocator/server/internal/server/storage"
	"github.com/unilocator/server/pkg/models"
	"github.com/unilocator/server/pkg/utils"
)

// Identity is the resolved caller of a request.
type Identity struct {
	UserID uuid.UUID
	Email  string
}

// IdentityService resolves an inbound credential to a stable user id.
// Session JWTs are checked first; if Firebase is configured, a Firebase ID
// token is accepted as well, creating the local user row on first sight.
// The rest of the system only ever sees the resolved user id.
type IdentityService struct {
	userRepo *storage.UserRepository
	firebase *FirebaseService
}

func NewIdentityService(userRepo *storage.UserRepository, firebase *FirebaseService) *IdentityService {
	return &IdentityService{
		userRepo: userRepo,
		firebase: firebase,
	}
}

// Resolve maps a bearer credential to an identity, or ErrUnauthorized.
func (s *IdentityService) Resolve(ctx context.Context, credential string) (*Identity, error) {
	if credential == "" {
		return nil, models.ErrUnauthorized
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret != "" {
		if claims, err := utils.ValidateJWT(credential, jwtSecret); err == nil {
			return &Identity{UserID: claims.UserID, Email: claims.Email}, nil
		}
	}

	if s.firebase != nil {
		return s.resolveFirebase(ctx, credential)
	}
	return nil, models.ErrUnauthorized
}

func (s *IdentityService) resolveFirebase(ctx context.Context, idToken string) (*Identity, error) {
	token, err := s.firebase.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, models.ErrUnauthorized
	}

	email, _ := token.Claims["email"].(string)
	name, _ := token.Claims["name"].(string)

	user, err := s.getOrCreateFirebaseUser(ctx, token.UID, name, email)
	if err != nil {
		return nil, err
	}
	return &Identity{UserID: user.ID, Email: user.Email}, nil
}

// getOrCreateFirebaseUser looks up by email (primary identifier) and
// creates the local row on first sight. The Firebase UID is stored but not
// used for lookup, so account switching on one device keeps working.
func (s *IdentityService) getOrCreateFirebaseUser(ctx context.Context, firebaseUID, name, email string) (*models.User, error) {
	if email == "" {
		return nil, models.ErrUnauthorized
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	if user != nil {
		return user, nil
	}

	if name == "" {
		name = email
	}
	user = &models.User{
		Name:   name,
		Email:  email,
		Active: true,
	}
	if err := s.userRepo.CreateWithFirebaseUID(ctx, user, firebaseUID); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}
