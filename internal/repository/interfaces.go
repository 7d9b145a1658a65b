// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"errors"

	"github.com/hitoshi/foodtracker/internal/model"
)

// 更新系操作で返される定義済みエラー。
var (
	// ErrNotFound は更新・削除対象の行が存在しない（または所有者が異なる）場合に返される。
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateEmail はemailのユニーク制約に違反した場合に返される。
	ErrDuplicateEmail = errors.New("email already exists")
)

// UserRepository はユーザーデータ（user_tb）の永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail はメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// Create はユーザーを作成する。emailが重複する場合はErrDuplicateEmailを返す。
	Create(ctx context.Context, user *model.User) error

	// UpdateProfile は氏名・メールアドレス・性別・画像URLを更新する。
	// PasswordHashが空でない場合のみパスワードも更新する。
	UpdateProfile(ctx context.Context, user *model.User) error
}

// FoodRepository は食事記録（food_tb）の永続化インターフェース。
type FoodRepository interface {
	// FindByID は指定IDの食事記録を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.FoodEntry, error)

	// ListByUserID はユーザーの全食事記録をcreate_at降順で返す。
	ListByUserID(ctx context.Context, userID string) ([]*model.FoodEntry, error)

	// Create は食事記録を作成する。
	Create(ctx context.Context, entry *model.FoodEntry) error

	// Update は食事記録の全フィールドを置き換える。
	// 対象が存在しないか所有者が異なる場合はErrNotFoundを返す。
	Update(ctx context.Context, entry *model.FoodEntry) error

	// Delete は指定ユーザーの食事記録を削除する。
	// 対象が存在しないか所有者が異なる場合はErrNotFoundを返す。
	Delete(ctx context.Context, id, userID string) error
}

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error
	// FindByID は指定IDのセッションを取得する。期限切れの場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)
	// UpdateData はユーザーの全セッションの表示用スナップショットを書き換える。
	UpdateData(ctx context.Context, userID string, data model.SessionUser) error
	// DeleteByID は指定IDのセッションを削除する。
	DeleteByID(ctx context.Context, id string) error
	// DeleteExpired は期限切れセッションを削除し、削除件数を返す。
	DeleteExpired(ctx context.Context) (int64, error)
}
