package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/foodtracker/internal/model"
)

// PostgresFoodRepo はPostgreSQLを使用した食事記録リポジトリ。
type PostgresFoodRepo struct {
	db *sql.DB
}

// NewPostgresFoodRepo はPostgresFoodRepoを生成する。
func NewPostgresFoodRepo(db *sql.DB) *PostgresFoodRepo {
	return &PostgresFoodRepo{db: db}
}

const selectFoodColumns = `SELECT id, user_id, foodname, meal, fooddate_at, food_image_url, create_at FROM food_tb`

// rowScanner は*sql.Rowと*sql.Rowsの共通インターフェース。
type rowScanner interface {
	Scan(dest ...any) error
}

func scanFoodEntry(s rowScanner) (*model.FoodEntry, error) {
	entry := &model.FoodEntry{}
	var meal string
	var imageURL sql.NullString
	err := s.Scan(&entry.ID, &entry.UserID, &entry.Foodname, &meal,
		&entry.FoodDate, &imageURL, &entry.CreatedAt)
	if err != nil {
		return nil, err
	}
	entry.Meal = model.Meal(meal)
	entry.FoodDate = entry.FoodDate.UTC()
	entry.ImageURL = nullStringPtr(imageURL)
	return entry, nil
}

// FindByID は指定IDの食事記録を取得する。見つからない場合はnilを返す。
func (r *PostgresFoodRepo) FindByID(ctx context.Context, id string) (*model.FoodEntry, error) {
	entry, err := scanFoodEntry(r.db.QueryRowContext(ctx, selectFoodColumns+` WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("食事記録の取得に失敗しました: %w", err)
	}
	return entry, nil
}

// ListByUserID はユーザーの全食事記録をcreate_at降順で返す。
func (r *PostgresFoodRepo) ListByUserID(ctx context.Context, userID string) ([]*model.FoodEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		selectFoodColumns+` WHERE user_id = $1 ORDER BY create_at DESC, id DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("食事記録一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var entries []*model.FoodEntry
	for rows.Next() {
		entry, err := scanFoodEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("食事記録のスキャンに失敗しました: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("食事記録一覧の走査に失敗しました: %w", err)
	}
	return entries, nil
}

// Create は食事記録を作成する。
func (r *PostgresFoodRepo) Create(ctx context.Context, entry *model.FoodEntry) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO food_tb (id, user_id, foodname, meal, fooddate_at, food_image_url, create_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		entry.ID, entry.UserID, entry.Foodname, string(entry.Meal),
		entry.FoodDate.Format(model.DateLayout), toNullString(entry.ImageURL), entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("食事記録の作成に失敗しました: %w", err)
	}
	return nil
}

// Update は食事記録の全フィールドを置き換える。create_atは変更しない。
func (r *PostgresFoodRepo) Update(ctx context.Context, entry *model.FoodEntry) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE food_tb
		 SET foodname = $3, meal = $4, fooddate_at = $5, food_image_url = $6
		 WHERE id = $1 AND user_id = $2`,
		entry.ID, entry.UserID, entry.Foodname, string(entry.Meal),
		entry.FoodDate.Format(model.DateLayout), toNullString(entry.ImageURL),
	)
	if err != nil {
		return fmt.Errorf("食事記録の更新に失敗しました: %w", err)
	}
	if err := affectedOrNotFound(result); err != nil {
		return fmt.Errorf("食事記録の更新に失敗しました: %w", err)
	}
	return nil
}

// Delete は指定ユーザーの食事記録を削除する。
func (r *PostgresFoodRepo) Delete(ctx context.Context, id, userID string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM food_tb WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	if err != nil {
		return fmt.Errorf("食事記録の削除に失敗しました: %w", err)
	}
	if err := affectedOrNotFound(result); err != nil {
		return fmt.Errorf("食事記録の削除に失敗しました: %w", err)
	}
	return nil
}

// compile-time interface check
var _ FoodRepository = (*PostgresFoodRepo)(nil)
