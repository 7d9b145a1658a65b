package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/foodtracker/internal/model"
)

// PostgresUserRepo はPostgreSQLを使用したユーザーリポジトリ。
type PostgresUserRepo struct {
	db *sql.DB
}

// NewPostgresUserRepo はPostgresUserRepoを生成する。
func NewPostgresUserRepo(db *sql.DB) *PostgresUserRepo {
	return &PostgresUserRepo{db: db}
}

const selectUserColumns = `SELECT id, fullname, email, password, gender, user_image_url, create_at FROM user_tb`

func scanUser(row *sql.Row) (*model.User, error) {
	user := &model.User{}
	var imageURL sql.NullString
	err := row.Scan(&user.ID, &user.Fullname, &user.Email, &user.PasswordHash,
		&user.Gender, &imageURL, &user.CreatedAt)
	if err != nil {
		return nil, err
	}
	user.ImageURL = nullStringPtr(imageURL)
	return user, nil
}

// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx, selectUserColumns+` WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user by ID: %w", err)
	}
	return user, nil
}

// FindByEmail はメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx, selectUserColumns+` WHERE email = $1`, email))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}
	return user, nil
}

// Create はユーザーを作成する。
func (r *PostgresUserRepo) Create(ctx context.Context, user *model.User) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO user_tb (id, fullname, email, password, gender, user_image_url, create_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		user.ID, user.Fullname, user.Email, user.PasswordHash, user.Gender,
		toNullString(user.ImageURL), user.CreatedAt,
	)
	if isUniqueViolation(err) {
		return ErrDuplicateEmail
	}
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

// UpdateProfile はプロフィール項目を更新する。
// パスワードはPasswordHashが空文字列の場合は既存の値を維持する。
func (r *PostgresUserRepo) UpdateProfile(ctx context.Context, user *model.User) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE user_tb
		 SET fullname = $2,
		     email = $3,
		     gender = $4,
		     user_image_url = $5,
		     password = COALESCE(NULLIF($6, ''), password)
		 WHERE id = $1`,
		user.ID, user.Fullname, user.Email, user.Gender,
		toNullString(user.ImageURL), user.PasswordHash,
	)
	if isUniqueViolation(err) {
		return ErrDuplicateEmail
	}
	if err != nil {
		return fmt.Errorf("failed to update user profile: %w", err)
	}
	if err := affectedOrNotFound(result); err != nil {
		return fmt.Errorf("failed to update user profile: %w", err)
	}
	return nil
}

// compile-time interface check
var _ UserRepository = (*PostgresUserRepo)(nil)
