// Package food は食事記録の登録・参照・更新・削除のドメインロジックを提供する。
package food

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/foodtracker/internal/metrics"
	"github.com/hitoshi/foodtracker/internal/model"
	"github.com/hitoshi/foodtracker/internal/repository"
	"github.com/hitoshi/foodtracker/internal/security"
	"github.com/hitoshi/foodtracker/internal/storage"
)

// Input は追加・編集フォームの入力値。
type Input struct {
	Foodname    string
	Meal        string
	FoodDate    string         // YYYY-MM-DD。追加時に空の場合は今日の日付
	Image       *storage.Image // 新しく選択された画像。未選択の場合はnil
	RemoveImage bool           // 編集時に既存画像の削除が要求された場合にtrue
}

// Service は食事記録のサービス層。
type Service struct {
	repo      repository.FoodRepository
	images    *storage.ImageManager
	sanitizer security.TextSanitizer
	metrics   metrics.MetricsCollector
	now       func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	repo repository.FoodRepository,
	images *storage.ImageManager,
	sanitizer security.TextSanitizer,
	mc metrics.MetricsCollector,
) *Service {
	return &Service{
		repo:      repo,
		images:    images,
		sanitizer: sanitizer,
		metrics:   metrics.OrNop(mc),
		now:       time.Now,
	}
}

// validated は検証済みの入力値。
type validated struct {
	foodname string
	meal     model.Meal
	date     time.Time
	hasDate  bool
}

func (s *Service) validate(in Input) (*validated, error) {
	v := &validated{
		foodname: s.sanitizer.Sanitize(in.Foodname),
		meal:     model.Meal(strings.TrimSpace(in.Meal)),
	}
	if v.foodname == "" {
		return nil, model.NewValidationError("foodname", "食事名を入力してください")
	}
	if !v.meal.Valid() {
		return nil, model.NewInvalidMealError(in.Meal)
	}
	if raw := strings.TrimSpace(in.FoodDate); raw != "" {
		d, err := time.Parse(model.DateLayout, raw)
		if err != nil {
			return nil, model.NewInvalidDateError(in.FoodDate)
		}
		v.date = d
		v.hasDate = true
	}
	return v, nil
}

// today は現在時刻の日付部分をUTCの0時として返す。
func (s *Service) today() time.Time {
	y, m, d := s.now().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Create は食事記録を登録する。画像は任意。
// 画像を選択した場合はアップロード後に行を挿入し、挿入に失敗した場合は画像を削除する。
func (s *Service) Create(ctx context.Context, userID string, in Input) (*model.FoodEntry, error) {
	if userID == "" {
		return nil, model.NewUnauthorizedError()
	}
	v, err := s.validate(in)
	if err != nil {
		return nil, err
	}
	if !v.hasDate {
		v.date = s.today()
	}

	var uploaded *storage.UploadedImage
	if in.Image != nil {
		uploaded, err = s.images.Upload(ctx, in.Image)
		if err != nil {
			return nil, err
		}
	}

	entry := &model.FoodEntry{
		ID:        uuid.New().String(),
		UserID:    userID,
		Foodname:  v.foodname,
		Meal:      v.meal,
		FoodDate:  v.date,
		CreatedAt: s.now(),
	}
	if uploaded != nil {
		entry.ImageURL = &uploaded.URL
	}

	if err := s.repo.Create(ctx, entry); err != nil {
		s.images.Discard(ctx, uploaded)
		return nil, fmt.Errorf("食事記録の登録に失敗しました: %w", err)
	}

	s.metrics.RecordFoodEntry(metrics.OpCreate)
	slog.Info("食事記録を登録しました",
		slog.String("user_id", userID),
		slog.String("food_id", entry.ID),
		slog.Bool("has_image", entry.HasImage()),
	)
	return entry, nil
}

// Get はユーザーが所有する食事記録を取得する。
// 存在しない場合と他ユーザーの記録の場合はどちらも見つからないエラーを返す。
// UUID形式でないIDはDBに問い合わせずに見つからないものとして扱う。
func (s *Service) Get(ctx context.Context, userID, id string) (*model.FoodEntry, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, model.NewFoodNotFoundError(id)
	}
	entry, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("食事記録の取得に失敗しました: %w", err)
	}
	if entry == nil || entry.UserID != userID {
		return nil, model.NewFoodNotFoundError(id)
	}
	return entry, nil
}

// List はユーザーの全食事記録をcreate_at降順で返す。
// userIDが空の場合は取得を行わない。
func (s *Service) List(ctx context.Context, userID string) ([]*model.FoodEntry, error) {
	if userID == "" {
		return nil, nil
	}
	entries, err := s.repo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("食事記録一覧の取得に失敗しました: %w", err)
	}
	return entries, nil
}

// Update は食事記録の全項目を置き換える。
// 処理順序: 新画像のアップロード → 行の更新 → 旧画像の削除（ベストエフォート）。
// 画像URLは、新画像があればそのURL、削除要求があればnull、それ以外は従来のURLとなる。
func (s *Service) Update(ctx context.Context, userID, id string, in Input) (*model.FoodEntry, error) {
	existing, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	v, err := s.validate(in)
	if err != nil {
		return nil, err
	}
	if !v.hasDate {
		v.date = existing.FoodDate
	}

	var uploaded *storage.UploadedImage
	if in.Image != nil {
		uploaded, err = s.images.Upload(ctx, in.Image)
		if err != nil {
			return nil, err
		}
	}

	updated := &model.FoodEntry{
		ID:        existing.ID,
		UserID:    existing.UserID,
		Foodname:  v.foodname,
		Meal:      v.meal,
		FoodDate:  v.date,
		ImageURL:  existing.ImageURL,
		CreatedAt: existing.CreatedAt,
	}
	switch {
	case uploaded != nil:
		updated.ImageURL = &uploaded.URL
	case in.RemoveImage:
		updated.ImageURL = nil
	}

	if err := s.repo.Update(ctx, updated); err != nil {
		s.images.Discard(ctx, uploaded)
		if errors.Is(err, repository.ErrNotFound) {
			return nil, model.NewFoodNotFoundError(id)
		}
		return nil, fmt.Errorf("食事記録の更新に失敗しました: %w", err)
	}

	if existing.HasImage() && (uploaded != nil || in.RemoveImage) {
		s.images.RemoveByURL(ctx, *existing.ImageURL)
	}

	s.metrics.RecordFoodEntry(metrics.OpUpdate)
	slog.Info("食事記録を更新しました",
		slog.String("user_id", userID),
		slog.String("food_id", id),
	)
	return updated, nil
}

// Delete は食事記録を削除する。
// 画像がある場合は先にストレージから削除し（ベストエフォート）、その後に行を削除する。
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	entry, err := s.Get(ctx, userID, id)
	if err != nil {
		return err
	}

	if entry.HasImage() {
		s.images.RemoveByURL(ctx, *entry.ImageURL)
	}

	if err := s.repo.Delete(ctx, id, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.NewFoodNotFoundError(id)
		}
		return fmt.Errorf("食事記録の削除に失敗しました: %w", err)
	}

	s.metrics.RecordFoodEntry(metrics.OpDelete)
	slog.Info("食事記録を削除しました",
		slog.String("user_id", userID),
		slog.String("food_id", id),
	)
	return nil
}
