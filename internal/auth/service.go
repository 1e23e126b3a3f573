// Package auth implements password authentication and bearer-token
// resolution over the user store.
package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eternals-studio/portal/internal/jwt"
	"github.com/eternals-studio/portal/internal/observability/logger"
	"github.com/eternals-studio/portal/internal/security/password"
	"github.com/eternals-studio/portal/internal/store/core"
)

var (
	ErrDuplicateIdentity  = errors.New("duplicate_identity")
	ErrInvalidCredentials = errors.New("invalid_credentials")
	// ErrUnauthenticated covers malformed, forged and expired tokens alike,
	// and tokens whose subject no longer resolves to a stored user.
	ErrUnauthenticated = errors.New("unauthenticated")
)

type Service struct {
	store  core.Repository
	issuer *jwt.Issuer
	log    *zap.Logger
}

func NewService(store core.Repository, issuer *jwt.Issuer) *Service {
	return &Service{store: store, issuer: issuer, log: logger.Named("auth")}
}

// Register is the public self-service path: the account always gets the
// lowest-privilege role. Elevated accounts go through CreateUser (admin
// invite) instead.
func (s *Service) Register(ctx context.Context, email, plain, fullName, company string) (*core.User, error) {
	return s.CreateUser(ctx, email, plain, fullName, core.RoleClient, company)
}

// CreateUser is the privileged path behind the admin-invite endpoint and the
// seed CLI. The caller is responsible for authorizing the role.
func (s *Service) CreateUser(ctx context.Context, email, plain, fullName string, role core.Role, company string) (*core.User, error) {
	if !role.Valid() {
		role = core.RoleClient
	}
	hash, err := password.Hash(password.Default, plain)
	if err != nil {
		return nil, err
	}
	u := &core.User{
		ID:           uuid.NewString(),
		Email:        email,
		FullName:     fullName,
		Role:         role,
		IsActive:     true,
		Company:      company,
		PasswordHash: &hash,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.store.CreateUser(ctx, u); err != nil {
		if errors.Is(err, core.ErrDuplicate) {
			return nil, ErrDuplicateIdentity
		}
		return nil, err
	}
	s.log.Info("user registered", zap.String("user_id", u.ID), zap.String("role", string(u.Role)))
	return u, nil
}

// Login verifies the password and mints a session token. Unknown email and
// hash mismatch are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, plain string) (string, *core.User, error) {
	u, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}
	if u.PasswordHash == nil || !password.Verify(plain, *u.PasswordHash) {
		return "", nil, ErrInvalidCredentials
	}

	tok, _, err := s.issuer.Issue(u.Email, string(u.Role))
	if err != nil {
		return "", nil, err
	}
	now := time.Now().UTC()
	if err := s.store.RecordLogin(ctx, u.ID, "password", now); err != nil {
		s.log.Warn("record login failed", zap.String("user_id", u.ID), zap.Error(err))
	}
	u.LastLogin = &now
	u.LoginMethod = "password"
	return tok, u, nil
}

// Resolve maps a bearer token to its user. Called on every protected
// request: one signature check plus one store lookup, nothing else.
func (s *Service) Resolve(ctx context.Context, token string) (*core.User, error) {
	claims, err := s.issuer.Parse(token)
	if err != nil {
		return nil, ErrUnauthenticated
	}
	u, err := s.store.GetUserByEmail(ctx, claims.Subject)
	if err != nil {
		return nil, ErrUnauthenticated
	}
	return u, nil
}

// IssueToken mints a session token for an already-resolved user (used by the
// OAuth callback once reconciliation picked the account).
func (s *Service) IssueToken(u *core.User) (string, error) {
	tok, _, err := s.issuer.Issue(u.Email, string(u.Role))
	return tok, err
}
