package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"storefront-service/internal/apperr"
	"storefront-service/internal/auth"
	"storefront-service/internal/checkout"
	"storefront-service/internal/entity"
	"storefront-service/internal/repository"
)

const minPasswordLength = 6

type UserRepository interface {
	GetUserByID(ctx context.Context, id string) (*entity.User, error)
	GetUserByEmail(ctx context.Context, email string) (*entity.User, error)
	CreateUser(ctx context.Context, user *entity.User) (*entity.User, error)
	UpdateShippingAddresses(ctx context.Context, id string, addresses []entity.ShippingAddress) error
}

type TokenRevoker interface {
	Revoke(ctx context.Context, tokenID string, until time.Time) error
}

// AuthSession is the result of signing up or in.
type AuthSession struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *entity.User `json:"user"`
}

type UserService struct {
	repo        UserRepository
	hasher      *auth.PasswordHasher
	tokens      *auth.TokenManager
	revocations TokenRevoker
	adminEmails map[string]struct{}
	newID       func() string
	now         func() time.Time
}

// NewUserService creates a new instance of UserService.
func NewUserService(repo UserRepository, hasher *auth.PasswordHasher, tokens *auth.TokenManager, revocations TokenRevoker, adminEmails []string) *UserService {
	admins := make(map[string]struct{}, len(adminEmails))
	for _, email := range adminEmails {
		admins[strings.ToLower(email)] = struct{}{}
	}
	return &UserService{
		repo:        repo,
		hasher:      hasher,
		tokens:      tokens,
		revocations: revocations,
		adminEmails: admins,
		newID:       uuid.NewString,
		now:         time.Now,
	}
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(email); err != nil {
		return "", apperr.Validation("email", "please enter a valid email")
	}
	return email, nil
}

func (s *UserService) SignUp(ctx context.Context, email, password, displayName string) (*AuthSession, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if len(password) < minPasswordLength {
		return nil, apperr.Validation("password", "password must be at least 6 characters")
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		logger.Error().Err(err).Msg("Error hashing password")
		return nil, apperr.External("something went wrong, please try again", err)
	}

	role := entity.RoleCustomer
	if _, ok := s.adminEmails[email]; ok {
		role = entity.RoleAdmin
	}

	user := &entity.User{
		ID:                s.newID(),
		Email:             email,
		DisplayName:       strings.TrimSpace(displayName),
		Role:              role,
		ShippingAddresses: []entity.ShippingAddress{},
		PasswordHash:      hash,
		CreatedAt:         s.now().UTC(),
	}

	createdUser, err := s.repo.CreateUser(ctx, user)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperr.Conflict("email already registered")
		}
		logger.Error().Err(err).Msg("Error creating user")
		return nil, storeError(err, "user")
	}

	return s.issue(createdUser)
}

func (s *UserService) SignIn(ctx context.Context, email, password string) (*AuthSession, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.Unauthorized("invalid email or password")
		}
		logger.Error().Err(err).Msg("Error getting user by email")
		return nil, storeError(err, "user")
	}
	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, apperr.Unauthorized("invalid email or password")
	}

	return s.issue(user)
}

func (s *UserService) issue(user *entity.User) (*AuthSession, error) {
	token, expiresAt, err := s.tokens.Issue(user)
	if err != nil {
		logger.Error().Err(err).Msgf("Error issuing token for user %s", user.ID)
		return nil, apperr.External("something went wrong, please try again", err)
	}
	return &AuthSession{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

// SignOut revokes the token until it would have expired anyway.
func (s *UserService) SignOut(ctx context.Context, claims *auth.Claims) error {
	until := s.now()
	if claims.ExpiresAt != nil {
		until = claims.ExpiresAt.Time
	}
	if err := s.revocations.Revoke(ctx, claims.ID, until); err != nil {
		logger.Error().Err(err).Msgf("Error revoking token for user %s", claims.UserID)
		return apperr.External("something went wrong, please try again", err)
	}
	return nil
}

// Profile returns the caller's profile, creating it from the token claims
// the first time it is asked for.
func (s *UserService) Profile(ctx context.Context, claims *auth.Claims) (*entity.User, error) {
	user, err := s.repo.GetUserByID(ctx, claims.UserID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		logger.Error().Err(err).Msgf("Error getting user by ID %s", claims.UserID)
		return nil, storeError(err, "user")
	}

	user = &entity.User{
		ID:                claims.UserID,
		Email:             claims.Email,
		DisplayName:       claims.Name,
		Role:              entity.RoleCustomer,
		ShippingAddresses: []entity.ShippingAddress{},
		CreatedAt:         s.now().UTC(),
	}
	createdUser, err := s.repo.CreateUser(ctx, user)
	if err != nil {
		logger.Error().Err(err).Msgf("Error creating profile for user %s", claims.UserID)
		return nil, storeError(err, "user")
	}
	return createdUser, nil
}

func (s *UserService) SaveShippingAddresses(ctx context.Context, userID string, addresses []entity.ShippingAddress) ([]entity.ShippingAddress, error) {
	if addresses == nil {
		addresses = []entity.ShippingAddress{}
	}
	for _, address := range addresses {
		if err := checkout.ValidateAddress(address); err != nil {
			return nil, err
		}
	}

	if err := s.repo.UpdateShippingAddresses(ctx, userID, addresses); err != nil {
		logger.Error().Err(err).Msgf("Error saving addresses for user %s", userID)
		return nil, storeError(err, "user")
	}
	return addresses, nil
}
