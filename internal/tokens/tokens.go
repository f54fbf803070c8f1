// Package tokens issues and verifies the two JWT kinds used by the gateway.
// Access and refresh tokens are signed with distinct secrets, so a leak of
// one signing key never compromises the other token kind.
package tokens

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	// ErrTokenExpired marks a structurally valid token past its expiry.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenNotYetValid marks a token presented before its nbf claim.
	ErrTokenNotYetValid = errors.New("token not yet valid")
	// ErrTokenInvalid covers every other failure: bad signature, wrong
	// signing method, malformed payload, issuer or audience mismatch.
	ErrTokenInvalid = errors.New("token invalid")
)

const (
	DefaultAccessTTL  = 15 * time.Minute
	DefaultRefreshTTL = 7 * 24 * time.Hour
	defaultIssuer     = "paysim-gateway"
	defaultAudience   = "paysim-clients"
)

// AccessClaims travel in the short-lived bearer token. Subject is the user
// id; email and role ride along so protected routes never hit the database.
type AccessClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// RefreshClaims carry the subject only. Keeping the claim set minimal limits
// what a stolen refresh token reveals.
type RefreshClaims struct {
	jwt.RegisteredClaims
}

type Config struct {
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Issuer        string
	Audience      string
}

type Service struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	issuer        string
	audience      string

	now func() time.Time
}

func New(cfg Config) (*Service, error) {
	if len(cfg.AccessSecret) == 0 || len(cfg.RefreshSecret) == 0 {
		return nil, errors.New("tokens: both secrets are required")
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = DefaultAccessTTL
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = DefaultRefreshTTL
	}
	if cfg.Issuer == "" {
		cfg.Issuer = defaultIssuer
	}
	if cfg.Audience == "" {
		cfg.Audience = defaultAudience
	}
	return &Service{
		accessSecret:  cfg.AccessSecret,
		refreshSecret: cfg.RefreshSecret,
		accessTTL:     cfg.AccessTTL,
		refreshTTL:    cfg.RefreshTTL,
		issuer:        cfg.Issuer,
		audience:      cfg.Audience,
		now:           time.Now,
	}, nil
}

func (s *Service) AccessTTL() time.Duration  { return s.accessTTL }
func (s *Service) RefreshTTL() time.Duration { return s.refreshTTL }

// IssueAccess signs a short-lived access token for the given identity.
func (s *Service) IssueAccess(userID uuid.UUID, email, role string) (string, error) {
	now := s.now().UTC()
	claims := AccessClaims{
		Email: email,
		Role:  role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			Issuer:    s.issuer,
			Audience:  jwt.ClaimStrings{s.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(s.accessSecret)
}

// IssueRefresh signs a long-lived refresh token carrying the subject only.
func (s *Service) IssueRefresh(userID uuid.UUID) (string, error) {
	now := s.now().UTC()
	claims := RefreshClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			Issuer:    s.issuer,
			Audience:  jwt.ClaimStrings{s.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.refreshTTL)),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(s.refreshSecret)
}

// VerifyAccess validates signature, method, issuer, audience and the time
// claims of an access token. It is pure CPU work and safe to call from any
// number of handlers concurrently.
func (s *Service) VerifyAccess(raw string) (*AccessClaims, error) {
	var claims AccessClaims
	if err := s.verify(raw, &claims, s.accessSecret); err != nil {
		return nil, err
	}
	return &claims, nil
}

// VerifyRefresh is VerifyAccess for the refresh kind.
func (s *Service) VerifyRefresh(raw string) (*RefreshClaims, error) {
	var claims RefreshClaims
	if err := s.verify(raw, &claims, s.refreshSecret); err != nil {
		return nil, err
	}
	return &claims, nil
}

func (s *Service) verify(raw string, claims jwt.Claims, secret []byte) error {
	t, err := jwt.ParseWithClaims(raw, claims,
		func(t *jwt.Token) (any, error) { return secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(s.audience),
		jwt.WithTimeFunc(func() time.Time { return s.now() }),
	)
	if err != nil {
		return classify(err)
	}
	if !t.Valid {
		return ErrTokenInvalid
	}
	return nil
}

// classify folds the jwt library's error set into the three sentinels the
// rest of the system distinguishes. Callers treat all three as a 401; the
// split exists for logging.
func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %v", ErrTokenExpired, err)
	case errors.Is(err, jwt.ErrTokenNotValidYet), errors.Is(err, jwt.ErrTokenUsedBeforeIssued):
		return fmt.Errorf("%w: %v", ErrTokenNotYetValid, err)
	default:
		return fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
}
