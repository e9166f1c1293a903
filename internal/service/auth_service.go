package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"freshbasket/internal/auth"
	apperrors "freshbasket/internal/errors"
	"freshbasket/internal/logger"
	"freshbasket/internal/model"
	"freshbasket/internal/repository"
	"freshbasket/internal/session"
)

const bcryptCost = 10

// AuthService handles registration, login and logout.
type AuthService interface {
	Register(ctx context.Context, firstName, email, password string) (*model.User, error)
	// Authenticate verifies credentials and issues a signed identity token.
	Authenticate(ctx context.Context, email, password string) (token string, identity *session.Identity, err error)
	// ResolveToken turns a presented token back into an identity. Revoked and
	// invalid tokens fail.
	ResolveToken(ctx context.Context, token string) (*session.Identity, error)
	// Logout revokes the session's token and drops the session state.
	Logout(ctx context.Context, sess *session.Session) error
	// EnsureAdmin creates an admin account unless the email is already taken.
	EnsureAdmin(ctx context.Context, firstName, email, password string) (bool, error)
}

type authService struct {
	userRepo   repository.UserRepository
	jwtService *auth.JWTService
	tokenStore auth.TokenStoreInterface
	log        *logger.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(userRepo repository.UserRepository, jwtService *auth.JWTService, tokenStore auth.TokenStoreInterface, log *logger.Logger) AuthService {
	return &authService{
		userRepo:   userRepo,
		jwtService: jwtService,
		tokenStore: tokenStore,
		log:        log,
	}
}

// Register creates a user with a hashed password.
func (s *authService) Register(ctx context.Context, firstName, email, password string) (*model.User, error) {
	return s.create(ctx, firstName, email, password, model.RoleUser)
}

func (s *authService) create(ctx context.Context, firstName, email, password, role string) (*model.User, error) {
	firstName = strings.TrimSpace(firstName)
	switch {
	case firstName == "":
		return nil, apperrors.NewValidationError("fname", "is required")
	case email == "":
		return nil, apperrors.NewValidationError("email", "is required")
	case password == "":
		return nil, apperrors.NewValidationError("password", "is required")
	}

	// Check if user already exists
	existing, err := s.userRepo.FindByEmail(ctx, email)
	if err == nil && existing != nil {
		return nil, apperrors.ErrDuplicateEmail
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("check user existence: %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		FirstName:    firstName,
		Email:        email,
		PasswordHash: string(hashedPassword),
		Role:         role,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		// A concurrent registration won the unique index.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.log.Zerolog(ctx).Info().Uint("user_id", user.ID).Str("role", role).Msg("user registered")
	return user, nil
}

func (s *authService) Authenticate(ctx context.Context, email, password string) (string, *session.Identity, error) {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil, apperrors.ErrInvalidCredentials
	}
	if err != nil {
		return "", nil, fmt.Errorf("find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, apperrors.ErrInvalidCredentials
	}

	token, claims, err := s.jwtService.GenerateToken(user.ID, user.FirstName, user.Role)
	if err != nil {
		return "", nil, fmt.Errorf("generate token: %w", err)
	}

	return token, identityFromClaims(claims), nil
}

func (s *authService) ResolveToken(ctx context.Context, token string) (*session.Identity, error) {
	claims, err := s.jwtService.ValidateToken(token)
	if err != nil {
		return nil, err
	}
	revoked, err := s.tokenStore.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, auth.ErrRevokedToken
	}
	return identityFromClaims(claims), nil
}

func (s *authService) Logout(ctx context.Context, sess *session.Session) error {
	identity, ok := sess.Identity()
	sess.Invalidate()
	if !ok || identity.TokenID == "" {
		return nil
	}
	ttl := s.jwtService.TTL()
	if !identity.ExpiresAt.IsZero() {
		ttl = auth.RemainingTTL(identity.ExpiresAt)
		if ttl == 0 {
			// Already expired; nothing left to revoke.
			return nil
		}
	}
	if err := s.tokenStore.Revoke(ctx, identity.TokenID, ttl); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	s.log.Zerolog(ctx).Info().Uint("user_id", identity.UserID).Msg("user logged out")
	return nil
}

func (s *authService) EnsureAdmin(ctx context.Context, firstName, email, password string) (bool, error) {
	_, err := s.create(ctx, firstName, email, password, model.RoleAdmin)
	if errors.Is(err, apperrors.ErrDuplicateEmail) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func identityFromClaims(claims *auth.Claims) *session.Identity {
	identity := &session.Identity{
		UserID:  claims.UserID,
		Name:    claims.Name,
		Role:    claims.Role,
		TokenID: claims.ID,
	}
	if claims.ExpiresAt != nil {
		identity.ExpiresAt = claims.ExpiresAt.Time.UTC()
	}
	return identity
}
