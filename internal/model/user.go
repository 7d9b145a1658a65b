// Package model はドメインモデルを定義する。
package model

import "time"

// User はサービス利用ユーザーを表す。user_tbの1行に対応する。
type User struct {
	ID           string
	Fullname     string
	Email        string
	PasswordHash string // bcryptハッシュ。平文は保持しない
	Gender       string
	ImageURL     *string // プロフィール画像の公開URL。未設定の場合はnil
	CreatedAt    time.Time
}

// Session はユーザーのログインセッションを表す。
type Session struct {
	ID        string
	UserID    string
	Data      SessionUser
	ExpiresAt time.Time
	CreatedAt time.Time
}

// SessionUser はセッションに保存する表示用のユーザー情報。
// ログイン時とプロフィール更新時に書き込まれ、保護された全ハンドラーから参照される。
type SessionUser struct {
	ID       string `json:"id"`
	Fullname string `json:"fullname"`
	Email    string `json:"email"`
	ImageURL string `json:"user_image_url"`
}

// NewSessionUser はユーザーレコードからセッション用のスナップショットを生成する。
func NewSessionUser(u *User) SessionUser {
	if u == nil {
		return SessionUser{}
	}
	s := SessionUser{
		ID:       u.ID,
		Fullname: u.Fullname,
		Email:    u.Email,
	}
	if u.ImageURL != nil {
		s.ImageURL = *u.ImageURL
	}
	return s
}

// AvatarURL はプロフィール画像URLを返す。未設定の場合はplaceholderを返す。
func (s SessionUser) AvatarURL(placeholder string) string {
	if s.ImageURL == "" {
		return placeholder
	}
	return s.ImageURL
}
