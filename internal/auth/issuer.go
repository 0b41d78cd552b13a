package auth

import (
	"time"

	"github.com/portafacil/access-control/internal/model"
	"github.com/portafacil/access-control/internal/token"
)

// TokenPair bundles a freshly minted access/refresh pair.
type TokenPair struct {
	Access        string
	AccessExpiry  time.Time
	Refresh       string
	RefreshExpiry time.Time
}

// Issuer mints access and refresh tokens for verified identities.  Role
// and issuer are embedded at mint time and never re-derived: a role change
// takes effect only on the next issuance.
type Issuer struct {
	Secret     string
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// Issue mints a token pair for the identity.  Both tokens carry the full
// claim set; they differ only in token_type and expiry.
func (i *Issuer) Issue(id model.Identity) (TokenPair, error) {
	now := time.Now().UTC()
	base := token.Claims{
		UserID:    id.UserID,
		Username:  id.Username,
		Email:     id.Email,
		FirstName: id.FirstName,
		Role:      id.Role,
		Issuer:    i.Issuer,
	}

	access := base
	access.TokenType = token.TypeAccess
	access.ExpiresAt = now.Add(i.AccessTTL)
	accessRaw, err := token.Sign(access, i.Secret)
	if err != nil {
		return TokenPair{}, err
	}

	refresh := base
	refresh.TokenType = token.TypeRefresh
	refresh.ExpiresAt = now.Add(i.RefreshTTL)
	refreshRaw, err := token.Sign(refresh, i.Secret)
	if err != nil {
		return TokenPair{}, err
	}

	return TokenPair{
		Access:        accessRaw,
		AccessExpiry:  access.ExpiresAt,
		Refresh:       refreshRaw,
		RefreshExpiry: refresh.ExpiresAt,
	}, nil
}

// Refresh validates a refresh token and mints a new access token carrying
// the identical identity, role and issuer claims the refresh token holds.
// Credentials are not re-verified and the role is not re-derived.
func (i *Issuer) Refresh(refreshRaw string) (string, token.Claims, error) {
	claims, err := token.Verify(refreshRaw, i.Secret, i.Issuer, token.TypeRefresh)
	if err != nil {
		return "", token.Claims{}, err
	}
	access := claims
	access.TokenType = token.TypeAccess
	access.ExpiresAt = time.Now().UTC().Add(i.AccessTTL)
	raw, err := token.Sign(access, i.Secret)
	if err != nil {
		return "", token.Claims{}, err
	}
	return raw, access, nil
}
