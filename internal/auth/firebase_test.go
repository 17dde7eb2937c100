package auth

import (
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"testing"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/golang-jwt/jwt/v5"
)

const testProjectID = "taskboard-test"

func newTestSigningKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("failed to generate rsa key: %v", err)
	}
	return key
}

func signIDToken(t *testing.T, key *rsa.PrivateKey, claims jwt.MapClaims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
	if err != nil {
		t.Fatalf("failed to sign id token: %v", err)
	}
	return signed
}

func validClaims(now time.Time) jwt.MapClaims {
	return jwt.MapClaims{
		"iss":   firebaseIssuerPrefix + testProjectID,
		"aud":   testProjectID,
		"sub":   "firebase-uid-1",
		"email": "Alice@Example.com",
		"name":  "  Alice  ",
		"iat":   now.Add(-time.Minute).Unix(),
		"exp":   now.Add(time.Hour).Unix(),
	}
}

func TestNewFirebaseVerifier_RequiresProjectID(t *testing.T) {
	if _, err := NewFirebaseVerifier(context.Background(), ""); err == nil {
		t.Error("expected error for empty project ID")
	}
}

func TestFirebaseVerifier_VerifyIDToken(t *testing.T) {
	key := newTestSigningKey(t)
	otherKey := newTestSigningKey(t)
	now := time.Now()
	keySet := &oidc.StaticKeySet{PublicKeys: []crypto.PublicKey{key.Public()}}
	verifier := newFirebaseVerifier(testProjectID, keySet, func() time.Time { return now })

	t.Run("有効なトークン", func(t *testing.T) {
		claims, err := verifier.VerifyIDToken(context.Background(), signIDToken(t, key, validClaims(now)))
		if err != nil {
			t.Fatalf("VerifyIDToken() error = %v", err)
		}
		if claims.Subject != "firebase-uid-1" {
			t.Errorf("subject = %q", claims.Subject)
		}
		if claims.Email != "alice@example.com" {
			t.Errorf("email = %q, want lower-cased", claims.Email)
		}
		if claims.Name != "Alice" {
			t.Errorf("name = %q, want trimmed", claims.Name)
		}
	})

	rejects := map[string]func() string{
		"別の鍵で署名": func() string { return signIDToken(t, otherKey, validClaims(now)) },
		"audienceが異なる": func() string {
			c := validClaims(now)
			c["aud"] = "another-project"
			return signIDToken(t, key, c)
		},
		"issuerが異なる": func() string {
			c := validClaims(now)
			c["iss"] = "https://accounts.google.com"
			return signIDToken(t, key, c)
		},
		"期限切れ": func() string {
			c := validClaims(now)
			c["exp"] = now.Add(-time.Minute).Unix()
			return signIDToken(t, key, c)
		},
		"emailがない": func() string {
			c := validClaims(now)
			delete(c, "email")
			return signIDToken(t, key, c)
		},
	}
	for name, build := range rejects {
		t.Run(name, func(t *testing.T) {
			if _, err := verifier.VerifyIDToken(context.Background(), build()); err == nil {
				t.Error("expected verification error")
			}
		})
	}
}

func TestUnavailableVerifier_AlwaysFails(t *testing.T) {
	_, err := UnavailableVerifier{}.VerifyIDToken(context.Background(), "anything")
	if !errors.Is(err, ErrVerifierUnavailable) {
		t.Errorf("error = %v, want ErrVerifierUnavailable", err)
	}
}
