// Package auth registers users, checks their passwords and issues the signed
// tokens that gate recipe creation.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	apperrors "recipes_backend/errors"
	"recipes_backend/models"
	"recipes_backend/store"
)

const tokenTTL = 24 * time.Hour

// Service handles user registration, login and token validation.
type Service struct {
	users      store.UserStore
	secret     []byte
	bcryptCost int
	now        func() time.Time
}

// NewService creates a new Service.
func NewService(users store.UserStore, secret string, bcryptCost int) *Service {
	return &Service{
		users:      users,
		secret:     []byte(secret),
		bcryptCost: bcryptCost,
		now:        time.Now,
	}
}

// Register creates a user with a hashed password and an empty saved list.
func (s *Service) Register(ctx context.Context, username, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, apperrors.New(apperrors.ErrCodeInvalidRequest, "Username and password are required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, apperrors.New(apperrors.ErrCodeInvalidRequest, "Password must be at most 72 bytes")
		}
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, "hash password", err)
	}

	user := &models.User{
		ID:           uuid.New().String(),
		Username:     username,
		PasswordHash: string(hash),
		SavedRecipes: []string{},
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicateUsername) {
			return nil, apperrors.New(apperrors.ErrCodeInvalidRequest, "User already exists")
		}
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, "create user", err)
	}
	return user, nil
}

// Login verifies credentials and returns a signed token and the user id.
func (s *Service) Login(ctx context.Context, username, password string) (string, string, error) {
	user, err := s.users.FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", "", apperrors.New(apperrors.ErrCodeUnauthorized, "Username or password is incorrect")
		}
		return "", "", apperrors.Wrap(apperrors.ErrCodeInternal, "find user", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", "", apperrors.New(apperrors.ErrCodeUnauthorized, "Username or password is incorrect")
	}

	token, err := s.issue(user.ID)
	if err != nil {
		return "", "", apperrors.Wrap(apperrors.ErrCodeInternal, "sign token", err)
	}
	return token, user.ID, nil
}

// ValidateToken parses a token and returns the user id in its subject.
func (s *Service) ValidateToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil || !token.Valid {
		return "", apperrors.Wrap(apperrors.ErrCodeUnauthorized, "invalid token", err)
	}

	sub, err := token.Claims.GetSubject()
	if err != nil || sub == "" {
		return "", apperrors.New(apperrors.ErrCodeUnauthorized, "invalid token subject")
	}
	return sub, nil
}

func (s *Service) issue(userID string) (string, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}
