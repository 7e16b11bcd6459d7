package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/vcrag/copilot/internal/model"
	appErr "github.com/vcrag/copilot/internal/pkg/errors"
	"github.com/vcrag/copilot/internal/pkg/jwt"
	"github.com/vcrag/copilot/internal/pkg/password"
	"github.com/vcrag/copilot/internal/pkg/timeutil"
	"github.com/vcrag/copilot/internal/repo"
)

type AuthService struct {
	users     *repo.UserRepo
	jwtSecret []byte
	jwtTTL    time.Duration
}

type RegisterInput struct {
	Email        string
	Password     string
	FullName     string
	Organization string
}

func NewAuthService(users *repo.UserRepo, secret []byte, ttl time.Duration) *AuthService {
	return &AuthService{users: users, jwtSecret: secret, jwtTTL: ttl}
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", fmt.Errorf("%w: invalid email", appErr.ErrInvalid)
	}
	return email, nil
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*model.User, string, error) {
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return nil, "", err
	}
	hash, err := password.Hash(in.Password)
	if err != nil {
		if errors.Is(err, password.ErrTooShort) {
			return nil, "", fmt.Errorf("%w: password must be at least %d characters", appErr.ErrInvalid, password.MinLength)
		}
		return nil, "", err
	}
	now := timeutil.NowUnix()
	user := &model.User{
		ID:           newID(),
		Email:        email,
		PasswordHash: hash,
		FullName:     strings.TrimSpace(in.FullName),
		Organization: strings.TrimSpace(in.Organization),
		Ctime:        now,
		Mtime:        now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, "", err
	}
	logutil.GetLogger(ctx).Info("user registered", zap.String("user_id", user.ID))
	token, err := jwt.GenerateToken(user.ID, user.Email, s.jwtSecret, s.jwtTTL)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

func (s *AuthService) Login(ctx context.Context, email, plainPassword string) (*model.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if appErr.IsNotFound(err) {
			return nil, "", appErr.ErrUnauthorized
		}
		return nil, "", err
	}
	if err := password.Compare(user.PasswordHash, plainPassword); err != nil {
		return nil, "", appErr.ErrUnauthorized
	}
	token, err := jwt.GenerateToken(user.ID, user.Email, s.jwtSecret, s.jwtTTL)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

func (s *AuthService) Me(ctx context.Context, userID string) (*model.User, error) {
	return s.users.GetByID(ctx, userID)
}
