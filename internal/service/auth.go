// Package service implements the business logic between the HTTP handlers
// and the stores: registration, login, token refresh, payment simulation and
// user administration.
package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/google/uuid"

	"github.com/paysim/gateway/internal/events"
	"github.com/paysim/gateway/internal/hash"
	"github.com/paysim/gateway/internal/logging"
	"github.com/paysim/gateway/internal/models"
	"github.com/paysim/gateway/internal/repo"
	"github.com/paysim/gateway/internal/tokens"
)

var (
	ErrValidation = errors.New("validation failed")
	ErrConflict   = errors.New("email already registered")
	// ErrInvalidCredentials is shared by unknown-email and wrong-password so
	// responses cannot be used to enumerate accounts.
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountDisabled    = errors.New("account is deactivated")
	ErrInvalidRefresh     = errors.New("invalid refresh token")
)

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

type AuthService struct {
	Store      *repo.Repo
	Tokens     *tokens.Service
	Events     *events.Producer
	BcryptCost int
}

// AuthResult is what a successful register or login yields. RefreshToken is
// for the transport layer to place into the HTTP-only cookie; it is never
// part of a JSON body.
type AuthResult struct {
	User         models.PublicUser
	AccessToken  string
	RefreshToken string
}

func (s *AuthService) Register(ctx context.Context, username, email, password, role string) (*AuthResult, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))

	if n := len(username); n < 3 || n > 30 {
		return nil, fmt.Errorf("%w: username must be 3-30 characters", ErrValidation)
	}
	if !emailRe.MatchString(email) {
		return nil, fmt.Errorf("%w: invalid email address", ErrValidation)
	}
	if err := checkPassword(password); err != nil {
		return nil, err
	}
	if role == "" {
		role = models.RoleUser
	}
	role = strings.ToUpper(role)
	if !models.ValidRole(role) {
		return nil, fmt.Errorf("%w: unknown role %q", ErrValidation, role)
	}

	cost := s.BcryptCost
	if cost <= 0 {
		cost = hash.DefaultCost
	}
	u, err := s.Store.CreateUser(ctx, username, email, password, role, cost)
	if err != nil {
		if errors.Is(err, repo.ErrEmailExists) {
			return nil, ErrConflict
		}
		return nil, err
	}

	res, err := s.issuePair(u)
	if err != nil {
		return nil, err
	}
	s.Events.Publish(ctx, events.TypeUserRegistered, u.ID.String(), u.Public())
	logging.FromContext(ctx).Info("user registered", "user_id", u.ID, "role", u.Role)
	return res, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password are required", ErrValidation)
	}

	u, err := s.Store.FindByEmail(ctx, email, true)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	// Identities from an external provider have no local password and can
	// never log in with one.
	if u.PasswordHash == "" || !hash.Check(u.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	if !u.IsActive {
		return nil, ErrAccountDisabled
	}

	res, err := s.issuePair(u)
	if err != nil {
		return nil, err
	}
	logging.FromContext(ctx).Info("user logged in", "user_id", u.ID)
	return res, nil
}

// Refresh exchanges a valid refresh token for a new access token. This is
// the one authenticated path that re-reads the identity: a deleted or
// deactivated account must not be able to mint fresh access tokens. The
// refresh token itself is not rotated.
func (s *AuthService) Refresh(ctx context.Context, rawRefresh string) (string, error) {
	claims, err := s.Tokens.VerifyRefresh(rawRefresh)
	if err != nil {
		logging.FromContext(ctx).Warn("refresh token rejected", "reason", err)
		return "", ErrInvalidRefresh
	}
	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return "", ErrInvalidRefresh
	}

	u, err := s.Store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return "", ErrInvalidRefresh
		}
		return "", err
	}
	if !u.IsActive {
		return "", ErrAccountDisabled
	}

	return s.Tokens.IssueAccess(u.ID, u.Email, u.Role)
}

// Me returns the caller's current record, refetched rather than echoed from
// token claims so active-status and timestamps are live.
func (s *AuthService) Me(ctx context.Context, id uuid.UUID) (*models.PublicUser, error) {
	u, err := s.Store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	pub := u.Public()
	return &pub, nil
}

func (s *AuthService) issuePair(u *models.User) (*AuthResult, error) {
	access, err := s.Tokens.IssueAccess(u.ID, u.Email, u.Role)
	if err != nil {
		return nil, err
	}
	refresh, err := s.Tokens.IssueRefresh(u.ID)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: u.Public(), AccessToken: access, RefreshToken: refresh}, nil
}

func checkPassword(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("%w: password must be at least 8 characters", ErrValidation)
	}
	var hasLetter, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasLetter || !hasDigit {
		return fmt.Errorf("%w: password must contain a letter and a digit", ErrValidation)
	}
	return nil
}
