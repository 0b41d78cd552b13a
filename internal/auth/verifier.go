// Package auth implements credential verification against the SUAP
// identity provider (with a cached-credential fallback) and session token
// issuance.
package auth

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/portafacil/access-control/internal/model"
	"github.com/portafacil/access-control/internal/observability"
	"github.com/portafacil/access-control/internal/suap"
)

// ProviderClient is the slice of the SUAP client the verifier needs.
type ProviderClient interface {
	Login(ctx context.Context, username, password string) (suap.TokenPair, error)
	GetUserInfo(ctx context.Context, accessToken string) (suap.UserInfo, error)
}

// UserStore persists local user rows.
type UserStore interface {
	UpsertExternal(ctx context.Context, username, firstName, role string) (model.User, error)
	GetByUsername(ctx context.Context, username string) (model.User, error)
}

// BackupStore persists credential backups.
type BackupStore interface {
	Upsert(ctx context.Context, userID uint64, suapToken, passwordHash string, expiresAt time.Time) error
	GetByUserID(ctx context.Context, userID uint64) (model.SUAPTokenBackup, error)
}

// Verifier validates username/password against the external provider, with
// a fallback to the credential backup when the provider is operationally
// unreachable.  The fallback is a cache of a previous successful primary
// verification: it never runs when the provider semantically rejected the
// credentials.
type Verifier struct {
	Provider   ProviderClient
	Users      UserStore
	Backups    BackupStore
	BackupTTL  time.Duration
	BcryptCost int
	Logger     *zap.Logger
}

// Verify authenticates the credentials and returns the resulting identity.
// On success the local user row and the credential backup are refreshed so
// subsequent provider outages have a recent fallback.
func (v *Verifier) Verify(ctx context.Context, username, password string) (model.Identity, error) {
	pair, err := v.Provider.Login(ctx, username, password)
	if err != nil {
		if suap.IsTransient(err) {
			return v.fallback(ctx, username, password, err)
		}
		observability.AuthAttempts.WithLabelValues("invalid").Inc()
		return model.Identity{}, err
	}

	info, err := v.Provider.GetUserInfo(ctx, pair.Access)
	if err != nil {
		if suap.IsTransient(err) {
			return v.fallback(ctx, username, password, err)
		}
		observability.AuthAttempts.WithLabelValues("error").Inc()
		return model.Identity{}, err
	}

	role := model.RoleFromAffiliation(info.TipoVinculo)
	u, err := v.Users.UpsertExternal(ctx, username, info.NomeUsual, role)
	if err != nil {
		observability.AuthAttempts.WithLabelValues("error").Inc()
		return model.Identity{}, err
	}

	v.refreshBackup(ctx, u.ID, pair.Access, password)

	observability.AuthAttempts.WithLabelValues("success").Inc()
	return model.Identity{
		UserID:    u.ID,
		Username:  u.Username,
		Email:     u.Email,
		FirstName: info.NomeUsual,
		Role:      role,
	}, nil
}

// fallback consults the credential backup after an operational provider
// failure.  Any gap in the backup (missing, expired, hash mismatch)
// surfaces the original transient error: the fallback must never convert
// an outage into "invalid credentials", nor let an attacker use a guessed
// password to learn whether a backup exists.
func (v *Verifier) fallback(ctx context.Context, username, password string, cause error) (model.Identity, error) {
	u, err := v.Users.GetByUsername(ctx, username)
	if err != nil {
		observability.AuthAttempts.WithLabelValues("transient").Inc()
		return model.Identity{}, cause
	}
	b, err := v.Backups.GetByUserID(ctx, u.ID)
	if err != nil {
		observability.AuthAttempts.WithLabelValues("transient").Inc()
		return model.Identity{}, cause
	}
	if !b.Valid(time.Now().UTC()) || !VerifyPassword(b.PasswordHash, password) {
		observability.AuthAttempts.WithLabelValues("transient").Inc()
		return model.Identity{}, cause
	}

	v.Logger.Info("provider unreachable, authenticated from credential backup",
		zap.String("username", u.Username),
		zap.Uint64("user_id", u.ID))
	observability.AuthAttempts.WithLabelValues("fallback").Inc()
	return model.Identity{
		UserID:    u.ID,
		Username:  u.Username,
		Email:     u.Email,
		FirstName: u.FirstName,
		Role:      u.Role, // last role granted by a primary verification
	}, nil
}

// refreshBackup stores the artifacts of a successful primary verification.
// A failure here degrades future outages but must not fail this login.
func (v *Verifier) refreshBackup(ctx context.Context, userID uint64, suapToken, password string) {
	hash, err := HashPassword(password, v.BcryptCost)
	if err != nil {
		v.Logger.Warn("backup refresh skipped: hash failed", zap.Error(err))
		return
	}
	expires := time.Now().UTC().Add(v.BackupTTL)
	if err := v.Backups.Upsert(ctx, userID, suapToken, hash, expires); err != nil {
		v.Logger.Warn("backup refresh failed", zap.Uint64("user_id", userID), zap.Error(err))
	}
}
