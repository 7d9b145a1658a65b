// Package user はプロフィールの参照・更新のドメインロジックを提供する。
package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hitoshi/foodtracker/internal/auth"
	"github.com/hitoshi/foodtracker/internal/model"
	"github.com/hitoshi/foodtracker/internal/repository"
	"github.com/hitoshi/foodtracker/internal/security"
	"github.com/hitoshi/foodtracker/internal/storage"
)

// ProfileInput はプロフィール編集フォームの入力値。
type ProfileInput struct {
	Fullname    string
	Email       string
	Password    string // 空の場合は変更しない
	Gender      string // 空の場合は変更しない
	Image       *storage.Image
	RemoveImage bool
}

// Service はプロフィール管理のサービス層。
type Service struct {
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	images      *storage.ImageManager
	sanitizer   security.TextSanitizer
	bcryptCost  int
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
	images *storage.ImageManager,
	sanitizer security.TextSanitizer,
	bcryptCost int,
) *Service {
	return &Service{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		images:      images,
		sanitizer:   sanitizer,
		bcryptCost:  bcryptCost,
	}
}

// GetProfile はユーザーのレコードを取得する。
func (s *Service) GetProfile(ctx context.Context, userID string) (*model.User, error) {
	if userID == "" {
		return nil, model.NewUnauthorizedError()
	}
	u, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if u == nil {
		return nil, model.NewUserNotFoundError()
	}
	return u, nil
}

// UpdateProfile はプロフィールを更新し、セッションの表示用情報を更新後のレコードで置き換える。
// 処理順序: 新画像のアップロード → 行の更新 → 旧画像の削除（ベストエフォート） → セッション更新（ベストエフォート）。
// 性別が空の場合は既存の値を維持する。
func (s *Service) UpdateProfile(ctx context.Context, userID string, in ProfileInput) (*model.User, error) {
	existing, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	fullname := s.sanitizer.Sanitize(in.Fullname)
	if fullname == "" {
		return nil, model.NewValidationError("fullname", "氏名を入力してください")
	}
	email := auth.NormalizeEmail(in.Email)
	if err := auth.ValidateEmail(email); err != nil {
		return nil, err
	}

	var hash string
	if in.Password != "" {
		hash, err = auth.HashPassword(in.Password, s.bcryptCost)
		if err != nil {
			return nil, err
		}
	}

	var uploaded *storage.UploadedImage
	if in.Image != nil {
		uploaded, err = s.images.Upload(ctx, in.Image)
		if err != nil {
			return nil, err
		}
	}

	// 性別はフォームで省略された場合は既存の値を維持する
	gender := s.sanitizer.Sanitize(in.Gender)
	if gender == "" {
		gender = existing.Gender
	}

	updated := &model.User{
		ID:           existing.ID,
		Fullname:     fullname,
		Email:        email,
		PasswordHash: hash,
		Gender:       gender,
		ImageURL:     existing.ImageURL,
		CreatedAt:    existing.CreatedAt,
	}
	switch {
	case uploaded != nil:
		updated.ImageURL = &uploaded.URL
	case in.RemoveImage:
		updated.ImageURL = nil
	}

	if err := s.userRepo.UpdateProfile(ctx, updated); err != nil {
		s.images.Discard(ctx, uploaded)
		switch {
		case errors.Is(err, repository.ErrDuplicateEmail):
			return nil, model.NewEmailAlreadyExistsError()
		case errors.Is(err, repository.ErrNotFound):
			return nil, model.NewUserNotFoundError()
		}
		return nil, fmt.Errorf("プロフィールの更新に失敗しました: %w", err)
	}

	if existing.ImageURL != nil && *existing.ImageURL != "" && (uploaded != nil || in.RemoveImage) {
		s.images.RemoveByURL(ctx, *existing.ImageURL)
	}

	// 行の更新は確定済みのため、セッションの更新失敗はログに残して成功として返す
	if err := s.sessionRepo.UpdateData(ctx, userID, model.NewSessionUser(updated)); err != nil {
		slog.Warn("セッションの表示用情報の更新に失敗しました",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
	}

	slog.Info("プロフィールを更新しました",
		slog.String("user_id", userID),
		slog.Bool("password_changed", hash != ""),
		slog.Bool("has_image", updated.ImageURL != nil),
	)
	return updated, nil
}
