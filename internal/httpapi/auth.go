package httpapi

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"tokokita/backend/internal/domain"
	"tokokita/backend/internal/store"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

// UserStore is the slice of the repository the auth manager needs.
type UserStore interface {
	ListUsers(ctx context.Context) ([]domain.UserAccount, error)
	CreateUser(ctx context.Context, user domain.UserAccount) error
}

type authClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

type AuthManager struct {
	secret   []byte
	tokenTTL time.Duration
	users    UserStore
}

func NewAuthManager(secret string, tokenTTL time.Duration, users UserStore) *AuthManager {
	if tokenTTL <= 0 {
		tokenTTL = time.Hour
	}
	return &AuthManager{
		secret:   []byte(secret),
		tokenTTL: tokenTTL,
		users:    users,
	}
}

func (a *AuthManager) Login(ctx context.Context, req domain.LoginRequest) (domain.LoginResponse, error) {
	username := strings.ToLower(strings.TrimSpace(req.Username))
	if username == "" || req.Password == "" {
		return domain.LoginResponse{}, ErrInvalidCredentials
	}

	account, err := a.findUser(ctx, username)
	if err != nil {
		return domain.LoginResponse{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.Password), []byte(req.Password)); err != nil {
		return domain.LoginResponse{}, ErrInvalidCredentials
	}

	expiresAt := time.Now().Add(a.tokenTTL)
	claims := authClaims{
		Role: account.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   account.Username,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return domain.LoginResponse{}, fmt.Errorf("sign token: %w", err)
	}

	return domain.LoginResponse{
		AccessToken: token,
		Role:        account.Role,
		ExpiresAt:   expiresAt.UTC().Format(time.RFC3339),
	}, nil
}

func (a *AuthManager) ParseToken(raw string) (domain.Actor, error) {
	claims := &authClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil || !token.Valid {
		return domain.Actor{}, ErrInvalidCredentials
	}

	return domain.Actor{
		Username: claims.Subject,
		Role:     claims.Role,
	}, nil
}

func (a *AuthManager) CreateUser(ctx context.Context, req domain.UserCreateRequest) error {
	username := strings.ToLower(strings.TrimSpace(req.Username))
	if username == "" {
		return fmt.Errorf("%w: username required", store.ErrInvalidInput)
	}
	if len(req.Password) < 8 {
		return fmt.Errorf("%w: password must be at least 8 characters", store.ErrInvalidInput)
	}

	role := req.Role
	if role == "" {
		role = "employee"
	}
	if role != "admin" && role != "employee" {
		return fmt.Errorf("%w: unknown role %q", store.ErrInvalidInput, role)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	return a.users.CreateUser(ctx, domain.UserAccount{
		Username:  username,
		Password:  string(hash),
		Role:      role,
		Active:    true,
		CreatedAt: time.Now().UTC(),
	})
}

func (a *AuthManager) findUser(ctx context.Context, username string) (domain.UserAccount, error) {
	users, err := a.users.ListUsers(ctx)
	if err != nil {
		return domain.UserAccount{}, err
	}
	for _, u := range users {
		if strings.ToLower(u.Username) == username && u.Active {
			return u, nil
		}
	}
	return domain.UserAccount{}, ErrInvalidCredentials
}
