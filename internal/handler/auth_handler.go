package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/hitoshi/foodtracker/internal/auth"
	"github.com/hitoshi/foodtracker/internal/middleware"
	"github.com/hitoshi/foodtracker/internal/model"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	Register(ctx context.Context, in auth.RegisterInput) (*model.User, error)
	Login(ctx context.Context, email, password string) (*model.Session, error)
	Logout(ctx context.Context, sessionID string) error
	GetCurrentUser(ctx context.Context, sessionID string) (*model.SessionUser, error)
}

// AuthHandlerConfig は認証ハンドラーの設定。
type AuthHandlerConfig struct {
	CookieDomain     string
	CookieSecure     bool
	SessionMaxAge    int // セッションCookieの有効期間（秒）
	DefaultAvatarURL string
	MaxUploadSize    int64
}

// AuthHandler は登録・ログイン・ログアウトのHTTPハンドラー。
type AuthHandler struct {
	service AuthServiceInterface
	config  AuthHandlerConfig
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface, config AuthHandlerConfig) *AuthHandler {
	return &AuthHandler{
		service: service,
		config:  config,
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// userResponse はユーザーレコードのAPIレスポンス。パスワードハッシュは含めない。
type userResponse struct {
	ID           string    `json:"id"`
	Fullname     string    `json:"fullname"`
	Email        string    `json:"email"`
	Gender       string    `json:"gender"`
	UserImageURL *string   `json:"user_image_url"`
	AvatarURL    string    `json:"avatar_url"`
	CreatedAt    time.Time `json:"create_at"`
}

// sessionUserResponse はセッションに保存された表示用ユーザー情報のAPIレスポンス。
type sessionUserResponse struct {
	ID           string `json:"id"`
	Fullname     string `json:"fullname"`
	Email        string `json:"email"`
	UserImageURL string `json:"user_image_url"`
	AvatarURL    string `json:"avatar_url"`
}

func toUserResponse(u *model.User, placeholder string) userResponse {
	return userResponse{
		ID:           u.ID,
		Fullname:     u.Fullname,
		Email:        u.Email,
		Gender:       u.Gender,
		UserImageURL: u.ImageURL,
		AvatarURL:    model.NewSessionUser(u).AvatarURL(placeholder),
		CreatedAt:    u.CreatedAt,
	}
}

func toSessionUserResponse(u model.SessionUser, placeholder string) sessionUserResponse {
	return sessionUserResponse{
		ID:           u.ID,
		Fullname:     u.Fullname,
		Email:        u.Email,
		UserImageURL: u.ImageURL,
		AvatarURL:    u.AvatarURL(placeholder),
	}
}

// Register はユーザーを登録する。
// POST /auth/register (multipart/form-data)
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	if err := parseMultipart(w, r, h.config.MaxUploadSize); err != nil {
		handleServiceError(w, err)
		return
	}
	defer r.MultipartForm.RemoveAll()

	img, err := formImage(r, h.config.MaxUploadSize)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	user, err := h.service.Register(r.Context(), auth.RegisterInput{
		Fullname:        r.FormValue("fullname"),
		Email:           r.FormValue("email"),
		Password:        r.FormValue("password"),
		ConfirmPassword: r.FormValue("confirm_password"),
		Gender:          r.FormValue("gender"),
		Image:           img,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toUserResponse(user, h.config.DefaultAvatarURL))
}

// Login はメールアドレスとパスワードで認証し、セッションCookieを設定する。
// POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	session, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	// セッションCookieを設定（HTTP Only）
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    session.ID,
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   h.config.SessionMaxAge,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	writeJSON(w, http.StatusOK, toSessionUserResponse(session.Data, h.config.DefaultAvatarURL))
}

// Logout はセッションを破棄する。
// POST /auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(middleware.SessionCookieName)
	if err == nil && cookie.Value != "" {
		if logoutErr := h.service.Logout(r.Context(), cookie.Value); logoutErr != nil {
			slog.Error("failed to logout", slog.String("error", logoutErr.Error()))
			// ログアウト失敗してもCookieはクリアする
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	w.WriteHeader(http.StatusNoContent)
}

// Me は現在のログインユーザー情報を返す。
// GET /auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(middleware.SessionCookieName)
	if err != nil || cookie.Value == "" {
		writeUnauthorized(w)
		return
	}

	user, err := h.service.GetCurrentUser(r.Context(), cookie.Value)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toSessionUserResponse(*user, h.config.DefaultAvatarURL))
}
