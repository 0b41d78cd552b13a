// Package token implements the signed claims codec shared by every service
// that verifies access or refresh tokens.  All tokens are HS256 JWTs signed
// with a single symmetric secret; that secret is the trust boundary of the
// whole system and must be identical in every verifying process.  Key
// distribution happens through the JWT_SECRET environment variable only.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token type values carried in the token_type claim.
const (
	TypeAccess  = "access"
	TypeRefresh = "refresh"
)

// Verification failures.  Expiry and signature errors are distinct so the
// caller can tell a stale-but-genuine token apart from a forged one.
var (
	ErrSignature = errors.New("token: invalid signature")
	ErrExpired   = errors.New("token: expired")
	ErrIssuer    = errors.New("token: issuer mismatch")
	ErrTokenType = errors.New("token: wrong token type")
	ErrMalformed = errors.New("token: malformed")
)

// Claims is the payload embedded in every signed token.  Role and issuer
// are fixed at mint time; a role change only takes effect on the next
// issuance.
type Claims struct {
	UserID    uint64 // sub
	Username  string
	Email     string
	FirstName string
	Role      string
	Issuer    string // iss
	TokenType string // access | refresh
	ExpiresAt time.Time
}

// Sign serializes and signs the claims with HS256.
func Sign(c Claims, secret string) (string, error) {
	mc := jwt.MapClaims{
		"sub":        c.UserID,
		"username":   c.Username,
		"email":      c.Email,
		"first_name": c.FirstName,
		"role":       c.Role,
		"iss":        c.Issuer,
		"token_type": c.TokenType,
		"exp":        c.ExpiresAt.Unix(),
		"iat":        time.Now().UTC().Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, mc)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("token: sign: %w", err)
	}
	return signed, nil
}

// Verify parses raw, checks the signature and the standard exp claim, and
// enforces the expected issuer and token type.  wantIssuer may be empty to
// skip the issuer check (tokens minted before the issuer claim was added
// omit it); wantType must be TypeAccess or TypeRefresh.
func Verify(raw, secret, wantIssuer, wantType string) (Claims, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrSignature
		}
		return []byte(secret), nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return Claims{}, ErrExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return Claims{}, ErrSignature
		default:
			return Claims{}, ErrMalformed
		}
	}
	if !tok.Valid {
		return Claims{}, ErrSignature
	}
	mc, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}, ErrMalformed
	}

	c := claimsFromMap(mc)
	if wantIssuer != "" && c.Issuer != "" && c.Issuer != wantIssuer {
		return Claims{}, ErrIssuer
	}
	if wantType != "" && c.TokenType != wantType {
		return Claims{}, ErrTokenType
	}
	return c, nil
}

// claimsFromMap converts jwt.MapClaims into a typed Claims value.  Numeric
// JSON values arrive as float64.
func claimsFromMap(mc jwt.MapClaims) Claims {
	var c Claims
	if v, ok := mc["sub"].(float64); ok {
		c.UserID = uint64(v)
	}
	c.Username, _ = mc["username"].(string)
	c.Email, _ = mc["email"].(string)
	c.FirstName, _ = mc["first_name"].(string)
	c.Role, _ = mc["role"].(string)
	c.Issuer, _ = mc["iss"].(string)
	c.TokenType, _ = mc["token_type"].(string)
	if v, ok := mc["exp"].(float64); ok {
		c.ExpiresAt = time.Unix(int64(v), 0).UTC()
	}
	return c
}
