package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
)

const (
	firebaseIssuerPrefix = "https://securetoken.google.com/"
	firebaseJWKSURL      = "https://www.googleapis.com/service_accounts/v1/jwk/securetoken@system.gserviceaccount.com"
)

// ErrVerifierUnavailable はIdPのプロジェクトが未設定でトークン検証ができないことを表す。
var ErrVerifierUnavailable = errors.New("identity verifier is not configured")

// IdentityClaims は検証済みIDトークンから取り出したユーザー情報。
type IdentityClaims struct {
	Subject string
	Email   string
	Name    string
}

// IdentityVerifier はクライアントから受け取ったIDトークンを検証する。
type IdentityVerifier interface {
	VerifyIDToken(ctx context.Context, rawToken string) (*IdentityClaims, error)
}

// FirebaseVerifier はFirebase AuthenticationのIDトークンを検証する。
// 署名はGoogleが公開する securetoken の JWKS で確認する。
type FirebaseVerifier struct {
	verifier *oidc.IDTokenVerifier
}

// NewFirebaseVerifier はプロジェクトIDに対応するFirebaseVerifierを生成する。
// 公開鍵は初回検証時に取得され、以後キャッシュされる。
func NewFirebaseVerifier(ctx context.Context, projectID string) (*FirebaseVerifier, error) {
	if projectID == "" {
		return nil, fmt.Errorf("firebase project ID is required")
	}
	keySet := oidc.NewRemoteKeySet(ctx, firebaseJWKSURL)
	return newFirebaseVerifier(projectID, keySet, nil), nil
}

// newFirebaseVerifier は任意のKeySetでFirebaseVerifierを生成する。nowがnilの場合は現在時刻を使う。
func newFirebaseVerifier(projectID string, keySet oidc.KeySet, now func() time.Time) *FirebaseVerifier {
	return &FirebaseVerifier{
		verifier: oidc.NewVerifier(firebaseIssuerPrefix+projectID, keySet, &oidc.Config{
			ClientID:             projectID,
			SupportedSigningAlgs: []string{oidc.RS256},
			Now:                  now,
		}),
	}
}

// VerifyIDToken は署名・発行者・audience・有効期限を検証し、クレームを返す。
func (v *FirebaseVerifier) VerifyIDToken(ctx context.Context, rawToken string) (*IdentityClaims, error) {
	idToken, err := v.verifier.Verify(ctx, rawToken)
	if err != nil {
		return nil, fmt.Errorf("failed to verify firebase id token: %w", err)
	}

	var claims struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("failed to parse firebase id token claims: %w", err)
	}
	if idToken.Subject == "" || claims.Email == "" {
		return nil, errors.New("firebase id token missing required claims")
	}

	return &IdentityClaims{
		Subject: idToken.Subject,
		Email:   strings.ToLower(strings.TrimSpace(claims.Email)),
		Name:    strings.TrimSpace(claims.Name),
	}, nil
}

// UnavailableVerifier はIdPが未設定の環境で使う検証器。常にErrVerifierUnavailableを返す。
type UnavailableVerifier struct{}

// VerifyIDToken は常に失敗する。
func (UnavailableVerifier) VerifyIDToken(context.Context, string) (*IdentityClaims, error) {
	return nil, ErrVerifierUnavailable
}

var (
	_ IdentityVerifier = (*FirebaseVerifier)(nil)
	_ IdentityVerifier = UnavailableVerifier{}
)
