package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/foodtracker/internal/middleware"
	"github.com/hitoshi/foodtracker/internal/model"
	"github.com/hitoshi/foodtracker/internal/user"
)

// ProfileServiceInterface はプロフィールハンドラーが必要とするサービスインターフェース。
type ProfileServiceInterface interface {
	GetProfile(ctx context.Context, userID string) (*model.User, error)
	// UpdateProfile はプロフィールを更新し、セッションの表示用情報も更新する。
	UpdateProfile(ctx context.Context, userID string, in user.ProfileInput) (*model.User, error)
}

// ProfileHandler はプロフィール参照・更新のHTTPハンドラー。
type ProfileHandler struct {
	service          ProfileServiceInterface
	defaultAvatarURL string
	maxUploadSize    int64
}

// NewProfileHandler はProfileHandlerを生成する。
func NewProfileHandler(service ProfileServiceInterface, defaultAvatarURL string, maxUploadSize int64) *ProfileHandler {
	return &ProfileHandler{
		service:          service,
		defaultAvatarURL: defaultAvatarURL,
		maxUploadSize:    maxUploadSize,
	}
}

// Get はログインユーザーのプロフィールを返す。
// GET /api/profile
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	u, err := h.service.GetProfile(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toUserResponse(u, h.defaultAvatarURL))
}

// Update はプロフィールを更新する。パスワードは入力された場合のみ変更する。
// PUT /api/profile (multipart/form-data)
func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	if err := parseMultipart(w, r, h.maxUploadSize); err != nil {
		handleServiceError(w, err)
		return
	}
	defer r.MultipartForm.RemoveAll()

	img, err := formImage(r, h.maxUploadSize)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	u, err := h.service.UpdateProfile(r.Context(), userID, user.ProfileInput{
		Fullname:    r.FormValue("fullname"),
		Email:       r.FormValue("email"),
		Password:    r.FormValue("password"),
		Gender:      r.FormValue("gender"),
		Image:       img,
		RemoveImage: formBool(r, "remove_image"),
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toUserResponse(u, h.defaultAvatarURL))
}
