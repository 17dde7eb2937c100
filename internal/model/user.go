// Package model はドメインモデルを定義する。
package model

import "time"

// User はサービス利用ユーザーを表す。
// PasswordHash と GoogleID はどちらか一方が必ず設定される。
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash *string
	GoogleID     *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasPassword はパスワードが設定済みかを返す。保存はせず常に算出する。
func (u *User) HasPassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}

// HasGoogleID はGoogleアカウントが紐付いているかを返す。
func (u *User) HasGoogleID() bool {
	return u.GoogleID != nil && *u.GoogleID != ""
}
