package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/foodtracker/internal/auth"
	"github.com/hitoshi/foodtracker/internal/food"
	"github.com/hitoshi/foodtracker/internal/middleware"
	"github.com/hitoshi/foodtracker/internal/model"
	"github.com/hitoshi/foodtracker/internal/user"
)

// --- サービスモック ---

type mockAuthService struct {
	registerFn       func(ctx context.Context, in auth.RegisterInput) (*model.User, error)
	loginFn          func(ctx context.Context, email, password string) (*model.Session, error)
	logoutFn         func(ctx context.Context, sessionID string) error
	getCurrentUserFn func(ctx context.Context, sessionID string) (*model.SessionUser, error)
}

func (m *mockAuthService) Register(ctx context.Context, in auth.RegisterInput) (*model.User, error) {
	if m.registerFn != nil {
		return m.registerFn(ctx, in)
	}
	return nil, nil
}

func (m *mockAuthService) Login(ctx context.Context, email, password string) (*model.Session, error) {
	if m.loginFn != nil {
		return m.loginFn(ctx, email, password)
	}
	return nil, nil
}

func (m *mockAuthService) Logout(ctx context.Context, sessionID string) error {
	if m.logoutFn != nil {
		return m.logoutFn(ctx, sessionID)
	}
	return nil
}

func (m *mockAuthService) GetCurrentUser(ctx context.Context, sessionID string) (*model.SessionUser, error) {
	if m.getCurrentUserFn != nil {
		return m.getCurrentUserFn(ctx, sessionID)
	}
	return nil, nil
}

type mockFoodService struct {
	listFn   func(ctx context.Context, userID string) ([]*model.FoodEntry, error)
	deleteFn func(ctx context.Context, userID, id string) error
	createFn func(ctx context.Context, userID string, in food.Input) (*model.FoodEntry, error)
	getFn    func(ctx context.Context, userID, id string) (*model.FoodEntry, error)
	updateFn func(ctx context.Context, userID, id string, in food.Input) (*model.FoodEntry, error)
}

func (m *mockFoodService) List(ctx context.Context, userID string) ([]*model.FoodEntry, error) {
	if m.listFn != nil {
		return m.listFn(ctx, userID)
	}
	return nil, nil
}

func (m *mockFoodService) Delete(ctx context.Context, userID, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, userID, id)
	}
	return nil
}

func (m *mockFoodService) Create(ctx context.Context, userID string, in food.Input) (*model.FoodEntry, error) {
	if m.createFn != nil {
		return m.createFn(ctx, userID, in)
	}
	return nil, nil
}

func (m *mockFoodService) Get(ctx context.Context, userID, id string) (*model.FoodEntry, error) {
	if m.getFn != nil {
		return m.getFn(ctx, userID, id)
	}
	return nil, nil
}

func (m *mockFoodService) Update(ctx context.Context, userID, id string, in food.Input) (*model.FoodEntry, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, userID, id, in)
	}
	return nil, nil
}

type mockProfileService struct {
	getProfileFn    func(ctx context.Context, userID string) (*model.User, error)
	updateProfileFn func(ctx context.Context, userID string, in user.ProfileInput) (*model.User, error)
}

func (m *mockProfileService) GetProfile(ctx context.Context, userID string) (*model.User, error) {
	if m.getProfileFn != nil {
		return m.getProfileFn(ctx, userID)
	}
	return nil, nil
}

func (m *mockProfileService) UpdateProfile(ctx context.Context, userID string, in user.ProfileInput) (*model.User, error) {
	if m.updateProfileFn != nil {
		return m.updateProfileFn(ctx, userID, in)
	}
	return nil, nil
}

var (
	_ AuthServiceInterface    = (*mockAuthService)(nil)
	_ FoodServiceInterface    = (*mockFoodService)(nil)
	_ ProfileServiceInterface = (*mockProfileService)(nil)
)

// --- テストヘルパー ---

// pngHeader はhttp.DetectContentTypeがimage/pngと判定する最小のバイト列。
var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

const testAvatar = "/static/avatar.png"

// multipartBody はフォーム項目と任意の画像ファイルからマルチパートボディを組み立てる。
func multipartBody(t *testing.T, fields map[string]string, filename string, image []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("failed to write field %s: %v", k, err)
		}
	}
	if filename != "" {
		fw, err := mw.CreateFormFile("image", filename)
		if err != nil {
			t.Fatalf("failed to create form file: %v", err)
		}
		if _, err := fw.Write(image); err != nil {
			t.Fatalf("failed to write image: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("failed to close multipart writer: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

// newMultipartRequest はマルチパートフォームのリクエストを生成する。
func newMultipartRequest(t *testing.T, method, target string, fields map[string]string, filename string, image []byte) *http.Request {
	t.Helper()
	body, contentType := multipartBody(t, fields, filename, image)
	req := httptest.NewRequest(method, target, body)
	req.Header.Set("Content-Type", contentType)
	return req
}

// withSessionUser はセッションミドルウェア通過後と同じコンテキストを持つリクエストを返す。
func withSessionUser(req *http.Request, u model.SessionUser) *http.Request {
	return req.WithContext(middleware.ContextWithSessionUser(req.Context(), u))
}

// decodeBody はレスポンスボディをvにデコードする。
func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("failed to decode response body %q: %v", rec.Body.String(), err)
	}
}

// errorCode はエラーレスポンスのcodeを返す。
func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body middleware.ErrorResponseBody
	decodeBody(t, rec, &body)
	return body.Code
}

func strPtr(s string) *string { return &s }
