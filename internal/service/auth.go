package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Skotchmaster/orbitdine/internal/models"
	"github.com/Skotchmaster/orbitdine/internal/repo"
	"github.com/Skotchmaster/orbitdine/pkg/hash"
	"github.com/Skotchmaster/orbitdine/pkg/logging"
	"github.com/Skotchmaster/orbitdine/pkg/tokens"
)

type UserStore interface {
	UserByUsername(ctx context.Context, username string) (*models.User, error)
	CreateUser(ctx context.Context, u *models.User) error
}

type AuthService struct {
	Users  UserStore
	Tokens *tokens.Codec
}

type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      models.User
}

func (h *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login")

	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, fmt.Errorf("%w: username and password required", ErrValidation)
	}

	user, err := h.Users.UserByUsername(ctx, username)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, fmt.Errorf("%w: invalid username or password", ErrUnauthenticated)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: load user: %v", ErrPersistence, err)
	}

	stored, err := hash.Parse(user.PasswordHash)
	if err != nil {
		l.Error("login_error", "reason", "unreadable password hash", "user_id", user.ID, "error", err)
		return nil, fmt.Errorf("%w: invalid username or password", ErrUnauthenticated)
	}
	if !stored.Verify(password) {
		return nil, fmt.Errorf("%w: invalid username or password", ErrUnauthenticated)
	}
	if stored.Scheme == hash.SchemeLegacy {
		l.Info("legacy_password_hash", "user_id", user.ID)
	}
	if !user.Role.Valid() {
		return nil, fmt.Errorf("%w: role %q cannot sign in", ErrForbidden, user.Role)
	}

	token, claims, err := h.Tokens.IssueDefault(tokens.Subject{
		ID:       strconv.FormatUint(uint64(user.ID), 10),
		Role:     string(user.Role),
		Username: user.Username,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: issue token: %v", ErrPersistence, err)
	}

	return &LoginResult{Token: token, ExpiresAt: claims.ExpiresAt.Time, User: *user}, nil
}

// Bootstrap creates the first staff account; an existing username is left alone.
func (h *AuthService) Bootstrap(ctx context.Context, username, password string, role models.Role) (bool, error) {
	if strings.TrimSpace(username) == "" || password == "" {
		return false, nil
	}
	if !role.Valid() {
		return false, fmt.Errorf("%w: role %q", ErrValidation, role)
	}

	if _, err := h.Users.UserByUsername(ctx, username); err == nil {
		return false, nil
	} else if !errors.Is(err, repo.ErrNotFound) {
		return false, fmt.Errorf("%w: load user: %v", ErrPersistence, err)
	}

	pw, err := hash.HashPassword(password)
	if err != nil {
		return false, fmt.Errorf("hash password: %w", err)
	}
	u := &models.User{Username: username, PasswordHash: pw, Role: role}
	if err := h.Users.CreateUser(ctx, u); err != nil {
		if errors.Is(err, repo.ErrUserAlreadyExist) {
			return false, nil
		}
		return false, fmt.Errorf("%w: create user: %v", ErrPersistence, err)
	}
	return true, nil
}
