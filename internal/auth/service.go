// Package auth はメールアドレスとパスワードによる認証、セッション管理を提供する。
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/hitoshi/foodtracker/internal/model"
	"github.com/hitoshi/foodtracker/internal/repository"
	"github.com/hitoshi/foodtracker/internal/security"
	"github.com/hitoshi/foodtracker/internal/storage"
)

// RegisterInput はユーザー登録フォームの入力値。
type RegisterInput struct {
	Fullname        string
	Email           string
	Password        string
	ConfirmPassword string
	Gender          string
	Image           *storage.Image // プロフィール画像。未選択の場合はnil
}

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	SessionMaxAge int // セッション有効期間（秒）
	BcryptCost    int // 0の場合はbcrypt.DefaultCost
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	images      *storage.ImageManager
	sanitizer   security.TextSanitizer
	config      ServiceConfig
	now         func() time.Time
}

// NewService はServiceを生成する。
func NewService(
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
	images *storage.ImageManager,
	sanitizer security.TextSanitizer,
	config ServiceConfig,
) *Service {
	if config.BcryptCost == 0 {
		config.BcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		images:      images,
		sanitizer:   sanitizer,
		config:      config,
		now:         time.Now,
	}
}

// NormalizeEmail は前後の空白を除去して小文字化したメールアドレスを返す。
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail はメールアドレスの形式を検証する。
func ValidateEmail(email string) error {
	if email == "" {
		return model.NewValidationError("email", "メールアドレスを入力してください")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return model.NewValidationError("email", "メールアドレスの形式が正しくありません")
	}
	return nil
}

// HashPassword はパスワードのbcryptハッシュを生成する。
func HashPassword(password string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", model.NewValidationError("password", "パスワードが長すぎます")
	}
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// Register はユーザーを登録する。
// パスワードと確認用パスワードが一致しない場合は何も書き込まずにエラーを返す。
// プロフィール画像はユーザー行の挿入前にアップロードし、挿入に失敗した場合は削除する。
func (s *Service) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	fullname := s.sanitizer.Sanitize(in.Fullname)
	if fullname == "" {
		return nil, model.NewValidationError("fullname", "氏名を入力してください")
	}
	email := NormalizeEmail(in.Email)
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}
	if in.Password == "" {
		return nil, model.NewValidationError("password", "パスワードを入力してください")
	}
	if in.Password != in.ConfirmPassword {
		return nil, model.NewPasswordMismatchError()
	}

	existing, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}
	if existing != nil {
		return nil, model.NewEmailAlreadyExistsError()
	}

	hash, err := HashPassword(in.Password, s.config.BcryptCost)
	if err != nil {
		return nil, err
	}

	var uploaded *storage.UploadedImage
	if in.Image != nil {
		uploaded, err = s.images.Upload(ctx, in.Image)
		if err != nil {
			return nil, err
		}
	}

	user := &model.User{
		ID:           uuid.New().String(),
		Fullname:     fullname,
		Email:        email,
		PasswordHash: hash,
		Gender:       s.sanitizer.Sanitize(in.Gender),
		CreatedAt:    s.now(),
	}
	if uploaded != nil {
		user.ImageURL = &uploaded.URL
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		s.images.Discard(ctx, uploaded)
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, model.NewEmailAlreadyExistsError()
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	slog.Info("new user registered",
		slog.String("user_id", user.ID),
		slog.Bool("has_image", user.ImageURL != nil),
	)
	return user, nil
}

// Login はメールアドレスとパスワードを検証し、セッションを発行する。
// セッションには表示用のユーザー情報を保存する。
func (s *Service) Login(ctx context.Context, email, password string) (*model.Session, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, model.NewInvalidCredentialsError()
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}
	if user == nil {
		return nil, model.NewInvalidCredentialsError()
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		slog.Info("login rejected", slog.String("user_id", user.ID))
		return nil, model.NewInvalidCredentialsError()
	}

	session, err := s.createSession(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	slog.Info("user logged in", slog.String("user_id", user.ID))
	return session, nil
}

// Logout はセッションを破棄する。
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("session ID is required")
	}

	if err := s.sessionRepo.DeleteByID(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	slog.Info("user logged out")
	return nil
}

// GetCurrentUser はセッションに保存された表示用のユーザー情報を返す。
func (s *Service) GetCurrentUser(ctx context.Context, sessionID string) (*model.SessionUser, error) {
	if sessionID == "" {
		return nil, model.NewUnauthorizedError()
	}

	session, err := s.sessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w", err)
	}
	if session == nil {
		return nil, model.NewUnauthorizedError()
	}

	data := session.Data
	return &data, nil
}

// createSession はセッションを作成し永続化する。
func (s *Service) createSession(ctx context.Context, user *model.User) (*model.Session, error) {
	sessionID, err := generateSessionID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session ID: %w", err)
	}

	now := s.now()
	session := &model.Session{
		ID:        sessionID,
		UserID:    user.ID,
		Data:      model.NewSessionUser(user),
		ExpiresAt: now.Add(time.Duration(s.config.SessionMaxAge) * time.Second),
		CreatedAt: now,
	}

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	return session, nil
}

// generateSessionID は暗号的に安全なセッションIDを生成する。
func generateSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
