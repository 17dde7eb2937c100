package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// パスワード長の制約。bcryptは72バイトを超える入力を扱えない。
const (
	MinPasswordLength   = 6
	MaxPasswordBytes    = 72
	passwordHashingCost = 10
)

// パスワード長の検証エラー。
var (
	ErrPasswordTooShort = errors.New("password too short")
	ErrPasswordTooLong  = errors.New("password too long")
)

// クライアントに返すパスワード検証メッセージ。
const (
	PasswordTooShortMessage = "Password must be at least 6 characters long"
	PasswordTooLongMessage  = "Password must be at most 72 bytes long"
)

// PasswordErrorMessage は検証エラーに対応するクライアント向けメッセージを返す。
// 長さ検証以外のエラーの場合は空文字を返す。
func PasswordErrorMessage(err error) string {
	switch {
	case errors.Is(err, ErrPasswordTooShort):
		return PasswordTooShortMessage
	case errors.Is(err, ErrPasswordTooLong):
		return PasswordTooLongMessage
	}
	return ""
}

// ValidatePassword はパスワード長を検証する。文字数はルーン単位で数える。
func ValidatePassword(password string) error {
	if len([]rune(password)) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	if len(password) > MaxPasswordBytes {
		return ErrPasswordTooLong
	}
	return nil
}

// HashPassword はパスワードを検証したうえでbcryptハッシュを返す。ソルトは毎回ランダムに生成される。
func HashPassword(password string) (string, error) {
	if err := ValidatePassword(password); err != nil {
		return "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), passwordHashingCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// ComparePassword は平文パスワードが保存済みハッシュと一致するかを返す。
func ComparePassword(hash, password string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to compare password: %w", err)
	}
	return true, nil
}
