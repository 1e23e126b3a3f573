package oauth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eternals-studio/portal/internal/observability/logger"
	"github.com/eternals-studio/portal/internal/store/core"
)

// Reconciler maps a verified provider identity to exactly one local account.
// Precedence: an existing provider link wins, then an email match (the link
// is attached to that account), and only then is a new client account
// created. Two providers sharing an email therefore converge on one user.
type Reconciler struct {
	store core.Repository
	log   *zap.Logger
}

func NewReconciler(store core.Repository) *Reconciler {
	return &Reconciler{store: store, log: logger.Named("oauth")}
}

// Reconcile resolves or creates the account for identity and records the
// login. The returned user carries the refreshed link.
func (r *Reconciler) Reconcile(ctx context.Context, provider string, id *Identity) (*core.User, error) {
	// Providers report email casing as the user typed it; accounts key on
	// the lowercased form, same as password registration.
	id.Email = strings.ToLower(strings.TrimSpace(id.Email))

	now := time.Now().UTC()
	link := core.OAuthLink{
		ProviderID: id.ProviderID,
		Email:      id.Email,
		LinkedAt:   now,
		LastLogin:  now,
	}

	u, err := r.store.GetUserByOAuthLink(ctx, provider, id.ProviderID)
	switch {
	case err == nil:
		// Known link: refresh its last-login stamp.
	case errors.Is(err, core.ErrNotFound):
		u, err = r.store.GetUserByEmail(ctx, id.Email)
		if errors.Is(err, core.ErrNotFound) {
			u, err = r.createUser(ctx, id)
			if err != nil {
				return nil, err
			}
			r.log.Info("oauth user created",
				zap.String("provider", provider), zap.String("user_id", u.ID))
		} else if err != nil {
			return nil, err
		}
		if prev, ok := u.OAuthProviders[provider]; ok {
			link.LinkedAt = prev.LinkedAt
		}
	default:
		return nil, err
	}

	if prev, ok := u.OAuthProviders[provider]; ok && prev.ProviderID == id.ProviderID {
		link.LinkedAt = prev.LinkedAt
	}
	if err := r.store.UpsertOAuthLink(ctx, u.ID, provider, link); err != nil {
		return nil, err
	}
	if u.OAuthProviders == nil {
		u.OAuthProviders = map[string]core.OAuthLink{}
	}
	u.OAuthProviders[provider] = link

	if err := r.store.RecordLogin(ctx, u.ID, provider, now); err != nil {
		r.log.Warn("record login failed", zap.String("user_id", u.ID), zap.Error(err))
	}
	u.LastLogin = &now
	u.LoginMethod = provider
	return u, nil
}

// createUser provisions a password-less client account from the provider
// identity. Social sign-in never grants an elevated role.
func (r *Reconciler) createUser(ctx context.Context, id *Identity) (*core.User, error) {
	u := &core.User{
		ID:        uuid.NewString(),
		Email:     id.Email,
		FullName:  id.DisplayName,
		Role:      core.RoleClient,
		IsActive:  true,
		AvatarURL: id.AvatarURL,
		CreatedAt: time.Now().UTC(),
	}
	if u.FullName == "" {
		u.FullName = id.Email
	}
	if err := r.store.CreateUser(ctx, u); err != nil {
		// Lost a race against a concurrent signup for the same email: the
		// other account wins.
		if errors.Is(err, core.ErrDuplicate) {
			return r.store.GetUserByEmail(ctx, id.Email)
		}
		return nil, err
	}
	return u, nil
}
