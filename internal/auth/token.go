package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultSessionTTL はセッショントークンの既定の有効期間。
const DefaultSessionTTL = 7 * 24 * time.Hour

// SessionClaims はセッショントークンのクレーム。
type SessionClaims struct {
	jwt.RegisteredClaims
	UserID string `json:"userId"`
}

// TokenIssuer はHMAC署名のセッショントークンを発行・検証する。
// サーバー側に状態は持たないため、失効はトークンの期限切れのみで行われる。
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenIssuer はTokenIssuerを生成する。ttlが0以下の場合は既定値を使う。
func NewTokenIssuer(secret string, ttl time.Duration) (*TokenIssuer, error) {
	if secret == "" {
		return nil, errors.New("token secret is required")
	}
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &TokenIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// TTL はトークンの有効期間を返す。Cookieの Max-Age に使用する。
func (t *TokenIssuer) TTL() time.Duration {
	return t.ttl
}

// Issue はユーザーIDを埋め込んだトークンと有効期限を返す。
func (t *TokenIssuer) Issue(userID string) (string, time.Time, error) {
	now := t.now()
	expiresAt := now.Add(t.ttl)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		UserID: userID,
	})

	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, expiresAt, nil
}

// Parse は署名と有効期限を検証し、ユーザーIDを返す。
func (t *TokenIssuer) Parse(tokenString string) (string, error) {
	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(tok *jwt.Token) (interface{}, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", tok.Header["alg"])
		}
		return t.secret, nil
	},
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return "", fmt.Errorf("failed to parse session token: %w", err)
	}
	if !token.Valid {
		return "", errors.New("session token is invalid")
	}
	if claims.UserID == "" {
		return "", errors.New("session token has no user ID")
	}
	return claims.UserID, nil
}
