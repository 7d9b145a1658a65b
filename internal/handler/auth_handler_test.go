package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hitoshi/foodtracker/internal/auth"
	"github.com/hitoshi/foodtracker/internal/middleware"
	"github.com/hitoshi/foodtracker/internal/model"
)

func newTestAuthHandler(svc AuthServiceInterface) *AuthHandler {
	return NewAuthHandler(svc, AuthHandlerConfig{
		CookieDomain:     "",
		CookieSecure:     true,
		SessionMaxAge:    3600,
		DefaultAvatarURL: testAvatar,
		MaxUploadSize:    testMaxUpload,
	})
}

func findCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// TestAuthHandler_Register はフォーム項目と画像がサービスに渡され、201を返すことを検証する。
func TestAuthHandler_Register(t *testing.T) {
	var got auth.RegisterInput
	svc := &mockAuthService{
		registerFn: func(_ context.Context, in auth.RegisterInput) (*model.User, error) {
			got = in
			return &model.User{
				ID:           "user-1",
				Fullname:     in.Fullname,
				Email:        "taro@example.com",
				PasswordHash: "$2a$10$secret",
				Gender:       in.Gender,
				ImageURL:     strPtr("http://storage.test/user_bk/1700000000000-me.png"),
				CreatedAt:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			}, nil
		},
	}
	h := newTestAuthHandler(svc)

	req := newMultipartRequest(t, http.MethodPost, "/auth/register", map[string]string{
		"fullname":         "Taro",
		"email":            "Taro@Example.com",
		"password":         "pw",
		"confirm_password": "pw",
		"gender":           "male",
	}, "me.png", pngHeader)
	rec := httptest.NewRecorder()

	h.Register(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusCreated, rec.Body.String())
	}
	if got.Fullname != "Taro" || got.Email != "Taro@Example.com" || got.Password != "pw" ||
		got.ConfirmPassword != "pw" || got.Gender != "male" {
		t.Errorf("RegisterInput = %+v", got)
	}
	if got.Image == nil || got.Image.ContentType != "image/png" {
		t.Errorf("Image = %+v, want image/png", got.Image)
	}
	if strings.Contains(rec.Body.String(), "secret") {
		t.Errorf("response leaks password hash: %s", rec.Body.String())
	}

	var body userResponse
	decodeBody(t, rec, &body)
	if body.AvatarURL != "http://storage.test/user_bk/1700000000000-me.png" {
		t.Errorf("avatar_url = %q", body.AvatarURL)
	}
}

func TestAuthHandler_Register_WithoutImage(t *testing.T) {
	svc := &mockAuthService{
		registerFn: func(_ context.Context, in auth.RegisterInput) (*model.User, error) {
			if in.Image != nil {
				t.Errorf("Image = %+v, want nil", in.Image)
			}
			return &model.User{ID: "user-1", Fullname: in.Fullname}, nil
		},
	}
	h := newTestAuthHandler(svc)

	req := newMultipartRequest(t, http.MethodPost, "/auth/register", map[string]string{
		"fullname": "Taro",
	}, "", nil)
	rec := httptest.NewRecorder()

	h.Register(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusCreated)
	}
	var body userResponse
	decodeBody(t, rec, &body)
	if body.UserImageURL != nil {
		t.Errorf("user_image_url = %v, want null", *body.UserImageURL)
	}
	if body.AvatarURL != testAvatar {
		t.Errorf("avatar_url = %q, want placeholder %q", body.AvatarURL, testAvatar)
	}
}

// TestAuthHandler_Register_Errors はサービスエラーのステータス変換を検証する。
func TestAuthHandler_Register_Errors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"password mismatch", model.NewPasswordMismatchError(), http.StatusBadRequest, model.ErrCodePasswordMismatch},
		{"duplicate email", model.NewEmailAlreadyExistsError(), http.StatusConflict, model.ErrCodeEmailAlreadyExists},
		{"storage", model.NewStorageUploadFailedError(), http.StatusBadGateway, model.ErrCodeStorageUploadFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockAuthService{
				registerFn: func(context.Context, auth.RegisterInput) (*model.User, error) {
					return nil, tt.err
				},
			}
			h := newTestAuthHandler(svc)
			req := newMultipartRequest(t, http.MethodPost, "/auth/register", map[string]string{"fullname": "Taro"}, "", nil)
			rec := httptest.NewRecorder()

			h.Register(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if code := errorCode(t, rec); code != tt.wantCode {
				t.Errorf("code = %q, want %q", code, tt.wantCode)
			}
		})
	}
}

// TestAuthHandler_Register_InvalidImage は画像以外のファイルをサービス呼び出し前に拒否することを検証する。
func TestAuthHandler_Register_InvalidImage(t *testing.T) {
	called := false
	svc := &mockAuthService{
		registerFn: func(context.Context, auth.RegisterInput) (*model.User, error) {
			called = true
			return nil, nil
		},
	}
	h := newTestAuthHandler(svc)
	req := newMultipartRequest(t, http.MethodPost, "/auth/register", nil, "me.png", []byte("not an image at all"))
	rec := httptest.NewRecorder()

	h.Register(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	if called {
		t.Error("Register should not be called for a non-image upload")
	}
}

// TestAuthHandler_Login はセッションCookieの属性とスナップショットの返却を検証する。
func TestAuthHandler_Login(t *testing.T) {
	svc := &mockAuthService{
		loginFn: func(_ context.Context, email, password string) (*model.Session, error) {
			if email != "taro@example.com" || password != "pw" {
				t.Errorf("Login(%q, %q)", email, password)
			}
			return &model.Session{
				ID:     "sess-1",
				UserID: "user-1",
				Data:   model.SessionUser{ID: "user-1", Fullname: "Taro", Email: email},
			}, nil
		},
	}
	h := newTestAuthHandler(svc)
	req := httptest.NewRequest(http.MethodPost, "/auth/login",
		strings.NewReader(`{"email":"taro@example.com","password":"pw"}`))
	rec := httptest.NewRecorder()

	h.Login(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	c := findCookie(rec, middleware.SessionCookieName)
	if c == nil {
		t.Fatal("session cookie not set")
	}
	if c.Value != "sess-1" {
		t.Errorf("cookie value = %q, want %q", c.Value, "sess-1")
	}
	if !c.HttpOnly || !c.Secure {
		t.Errorf("cookie HttpOnly=%v Secure=%v, want both true", c.HttpOnly, c.Secure)
	}
	if c.MaxAge != 3600 {
		t.Errorf("cookie MaxAge = %d, want 3600", c.MaxAge)
	}

	var body sessionUserResponse
	decodeBody(t, rec, &body)
	if body.Fullname != "Taro" || body.AvatarURL != testAvatar {
		t.Errorf("body = %+v", body)
	}
}

func TestAuthHandler_Login_InvalidCredentials(t *testing.T) {
	svc := &mockAuthService{
		loginFn: func(context.Context, string, string) (*model.Session, error) {
			return nil, model.NewInvalidCredentialsError()
		},
	}
	h := newTestAuthHandler(svc)
	req := httptest.NewRequest(http.MethodPost, "/auth/login",
		strings.NewReader(`{"email":"taro@example.com","password":"wrong"}`))
	rec := httptest.NewRecorder()

	h.Login(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
	if c := findCookie(rec, middleware.SessionCookieName); c != nil {
		t.Error("session cookie should not be set on failed login")
	}
}

// TestAuthHandler_Logout はサービスのエラー有無にかかわらずCookieを削除することを検証する。
func TestAuthHandler_Logout(t *testing.T) {
	tests := []struct {
		name      string
		logoutErr error
	}{
		{"success", nil},
		{"service error", errors.New("db down")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotID string
			svc := &mockAuthService{
				logoutFn: func(_ context.Context, id string) error {
					gotID = id
					return tt.logoutErr
				},
			}
			h := newTestAuthHandler(svc)
			req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
			req.AddCookie(&http.Cookie{Name: middleware.SessionCookieName, Value: "sess-1"})
			rec := httptest.NewRecorder()

			h.Logout(rec, req)

			if rec.Code != http.StatusNoContent {
				t.Errorf("status = %d, want %d", rec.Code, http.StatusNoContent)
			}
			if gotID != "sess-1" {
				t.Errorf("Logout(%q), want sess-1", gotID)
			}
			c := findCookie(rec, middleware.SessionCookieName)
			if c == nil || c.MaxAge >= 0 {
				t.Errorf("session cookie should be cleared, got %+v", c)
			}
		})
	}
}

func TestAuthHandler_Me(t *testing.T) {
	svc := &mockAuthService{
		getCurrentUserFn: func(_ context.Context, id string) (*model.SessionUser, error) {
			if id != "sess-1" {
				return nil, model.NewUnauthorizedError()
			}
			return &model.SessionUser{ID: "user-1", Fullname: "Taro", ImageURL: "http://img/me.png"}, nil
		},
	}
	h := newTestAuthHandler(svc)

	t.Run("with session", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
		req.AddCookie(&http.Cookie{Name: middleware.SessionCookieName, Value: "sess-1"})
		rec := httptest.NewRecorder()

		h.Me(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
		}
		var body sessionUserResponse
		decodeBody(t, rec, &body)
		if body.AvatarURL != "http://img/me.png" {
			t.Errorf("avatar_url = %q", body.AvatarURL)
		}
	})

	t.Run("no cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
		rec := httptest.NewRecorder()

		h.Me(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
		}
	})

	t.Run("expired session", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
		req.AddCookie(&http.Cookie{Name: middleware.SessionCookieName, Value: "expired"})
		rec := httptest.NewRecorder()

		h.Me(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
		}
	})
}
