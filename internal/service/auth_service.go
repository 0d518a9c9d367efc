package service

import (
	"context"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/skraps68/planner-sub000/internal/apperr"
	"github.com/skraps68/planner-sub000/internal/model"
	"github.com/skraps68/planner-sub000/internal/util"
)

// AuthService handles registration and login. Thin by design; every domain
// route sits behind its tokens.
type AuthService struct {
	users     UserRepo
	jwtSecret string
}

func NewAuthService(users UserRepo, jwtSecret string) *AuthService {
	return &AuthService{users: users, jwtSecret: jwtSecret}
}

func (s *AuthService) Register(ctx context.Context, email, password string) (*model.User, error) {
	if email == "" || password == "" {
		return nil, apperr.NewValidation("email", "email and password are required")
	}

	existing, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperr.NewValidation("email", "email is already registered")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	u := &model.User{Email: email, PasswordHash: string(hash)}
	if err := s.users.Insert(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Login verifies credentials and returns a signed token.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if u == nil {
		return "", apperr.NewValidation("email", "invalid email or password")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return "", apperr.NewValidation("email", "invalid email or password")
	}
	return util.GenerateJWT(u.ID, s.jwtSecret)
}
