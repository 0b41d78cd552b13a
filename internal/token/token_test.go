package token

import (
	"errors"
	"testing"
	"time"
)

const testSecret = "test-secret"

func testClaims() Claims {
	return Claims{
		UserID:    42,
		Username:  "ada",
		Email:     "ada@example.com",
		FirstName: "Ada",
		Role:      "coordenador",
		Issuer:    "porta-facil-api",
		TokenType: TypeAccess,
		ExpiresAt: time.Now().UTC().Add(15 * time.Minute),
	}
}

func TestSignVerifyRoundTrip(t *testing.T) {
	in := testClaims()
	raw, err := Sign(in, testSecret)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	out, err := Verify(raw, testSecret, "porta-facil-api", TypeAccess)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if out.UserID != in.UserID {
		t.Fatalf("user id: got %d want %d", out.UserID, in.UserID)
	}
	if out.Username != in.Username || out.Email != in.Email || out.FirstName != in.FirstName {
		t.Fatalf("identity fields changed: %+v", out)
	}
	if out.Role != in.Role {
		t.Fatalf("role: got %q want %q", out.Role, in.Role)
	}
	if out.TokenType != TypeAccess {
		t.Fatalf("token type: got %q", out.TokenType)
	}
}

func TestVerifyWrongSecret(t *testing.T) {
	raw, err := Sign(testClaims(), testSecret)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if _, err := Verify(raw, "another-secret", "", TypeAccess); !errors.Is(err, ErrSignature) {
		t.Fatalf("got %v, want ErrSignature", err)
	}
}

func TestVerifyTampered(t *testing.T) {
	raw, err := Sign(testClaims(), testSecret)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	tampered := raw[:len(raw)-4] + "AAAA"
	if _, err := Verify(tampered, testSecret, "", TypeAccess); err == nil {
		t.Fatal("tampered token verified")
	}
}

func TestVerifyExpiredIsNotSignatureError(t *testing.T) {
	c := testClaims()
	c.ExpiresAt = time.Now().UTC().Add(-time.Minute)
	raw, err := Sign(c, testSecret)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	_, err = Verify(raw, testSecret, "", TypeAccess)
	if !errors.Is(err, ErrExpired) {
		t.Fatalf("got %v, want ErrExpired", err)
	}
	if errors.Is(err, ErrSignature) {
		t.Fatal("expiry must not be reported as a signature failure")
	}
}

func TestVerifyIssuerMismatch(t *testing.T) {
	raw, err := Sign(testClaims(), testSecret)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if _, err := Verify(raw, testSecret, "someone-else", TypeAccess); !errors.Is(err, ErrIssuer) {
		t.Fatalf("got %v, want ErrIssuer", err)
	}
}

func TestVerifyTokenTypeMismatch(t *testing.T) {
	c := testClaims()
	c.TokenType = TypeRefresh
	raw, err := Sign(c, testSecret)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if _, err := Verify(raw, testSecret, "", TypeAccess); !errors.Is(err, ErrTokenType) {
		t.Fatalf("got %v, want ErrTokenType", err)
	}
}

func TestVerifyGarbage(t *testing.T) {
	if _, err := Verify("not-a-jwt", testSecret, "", TypeAccess); !errors.Is(err, ErrMalformed) {
		t.Fatalf("got %v, want ErrMalformed", err)
	}
}
