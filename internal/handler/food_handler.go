package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/foodtracker/internal/food"
	"github.com/hitoshi/foodtracker/internal/middleware"
	"github.com/hitoshi/foodtracker/internal/model"
)

// FoodServiceInterface は食事記録ハンドラーが必要とするサービスインターフェース。
type FoodServiceInterface interface {
	food.EntryService
	Create(ctx context.Context, userID string, in food.Input) (*model.FoodEntry, error)
	Get(ctx context.Context, userID, id string) (*model.FoodEntry, error)
	Update(ctx context.Context, userID, id string, in food.Input) (*model.FoodEntry, error)
}

// FoodHandlerConfig は食事記録ハンドラーの設定。
type FoodHandlerConfig struct {
	DefaultAvatarURL string
	MaxUploadSize    int64
}

// FoodHandler は食事記録のHTTPハンドラー。
type FoodHandler struct {
	service FoodServiceInterface
	config  FoodHandlerConfig
}

// NewFoodHandler はFoodHandlerを生成する。
func NewFoodHandler(service FoodServiceInterface, config FoodHandlerConfig) *FoodHandler {
	return &FoodHandler{
		service: service,
		config:  config,
	}
}

// foodResponse は食事記録のAPIレスポンス。
type foodResponse struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	Foodname     string    `json:"foodname"`
	Meal         string    `json:"meal"`
	FoodDate     string    `json:"fooddate_at"`
	FoodImageURL *string   `json:"food_image_url"`
	CreatedAt    time.Time `json:"create_at"`
}

type headerResponse struct {
	Fullname  string `json:"fullname"`
	AvatarURL string `json:"avatar_url"`
}

// dashboardResponse はダッシュボード1画面分のAPIレスポンス。
type dashboardResponse struct {
	Header     headerResponse `json:"header"`
	Query      string         `json:"query"`
	Items      []foodResponse `json:"items"`
	Page       int            `json:"page"`
	TotalPages int            `json:"total_pages"`
	TotalCount int            `json:"total_count"`
	HasPrev    bool           `json:"has_prev"`
	HasNext    bool           `json:"has_next"`
	Empty      bool           `json:"empty"`
	Message    string         `json:"message,omitempty"`
}

func toFoodResponse(e *model.FoodEntry) foodResponse {
	return foodResponse{
		ID:           e.ID,
		UserID:       e.UserID,
		Foodname:     e.Foodname,
		Meal:         string(e.Meal),
		FoodDate:     e.FoodDate.Format(model.DateLayout),
		FoodImageURL: e.ImageURL,
		CreatedAt:    e.CreatedAt,
	}
}

func toDashboardResponse(p food.Page) dashboardResponse {
	items := make([]foodResponse, len(p.Items))
	for i, e := range p.Items {
		items[i] = toFoodResponse(e)
	}
	return dashboardResponse{
		Header:     headerResponse{Fullname: p.Header.Fullname, AvatarURL: p.Header.AvatarURL},
		Query:      p.Query,
		Items:      items,
		Page:       p.Page,
		TotalPages: p.TotalPages,
		TotalCount: p.TotalCount,
		HasPrev:    p.HasPrev,
		HasNext:    p.HasNext,
		Empty:      p.Empty,
		Message:    p.Message,
	}
}

// loadDashboard はクエリパラメータ q と page を反映したダッシュボードを読み込む。
func (h *FoodHandler) loadDashboard(r *http.Request) (*food.Dashboard, error) {
	user := middleware.SessionUserFromContext(r.Context())
	d := food.NewDashboard(h.service, user, h.config.DefaultAvatarURL)
	if err := d.Load(r.Context()); err != nil {
		return nil, err
	}
	d.SetQuery(r.URL.Query().Get("q"))
	if page, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil {
		d.GoTo(page)
	}
	return d, nil
}

// Dashboard は食事記録一覧（検索・ページング済み）を返す。
// GET /api/foods?q=&page=
func (h *FoodHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	d, err := h.loadDashboard(r)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toDashboardResponse(d.View()))
}

// Create は食事記録を登録する。
// POST /api/foods (multipart/form-data)
func (h *FoodHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	in, err := h.parseInput(w, r)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	defer r.MultipartForm.RemoveAll()

	entry, err := h.service.Create(r.Context(), userID, *in)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toFoodResponse(entry))
}

// Get は食事記録を1件返す（編集フォームの初期値）。
// GET /api/foods/{id}
func (h *FoodHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	entry, err := h.service.Get(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toFoodResponse(entry))
}

// Update は食事記録の全項目を置き換える。
// PUT /api/foods/{id} (multipart/form-data)
func (h *FoodHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	in, err := h.parseInput(w, r)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	defer r.MultipartForm.RemoveAll()

	entry, err := h.service.Update(r.Context(), userID, chi.URLParam(r, "id"), *in)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toFoodResponse(entry))
}

// Delete は食事記録を削除し、削除後のダッシュボードを返す。
// 一覧は再取得せず、読み込んだ一覧から削除した記録を取り除いて表示する。
// DELETE /api/foods/{id}?q=&page=
func (h *FoodHandler) Delete(w http.ResponseWriter, r *http.Request) {
	d, err := h.loadDashboard(r)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	// 確認はクライアント側で済んでいる
	if _, err := d.Delete(r.Context(), chi.URLParam(r, "id"), nil); err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toDashboardResponse(d.View()))
}

// Meals は選択可能な食事区分を返す。
// GET /api/meals
func (h *FoodHandler) Meals(w http.ResponseWriter, r *http.Request) {
	meals := model.Meals()
	names := make([]string, len(meals))
	for i, m := range meals {
		names[i] = string(m)
	}
	writeJSON(w, http.StatusOK, map[string][]string{"meals": names})
}

// parseInput は追加・編集フォームを解析する。
func (h *FoodHandler) parseInput(w http.ResponseWriter, r *http.Request) (*food.Input, error) {
	if err := parseMultipart(w, r, h.config.MaxUploadSize); err != nil {
		return nil, err
	}
	img, err := formImage(r, h.config.MaxUploadSize)
	if err != nil {
		r.MultipartForm.RemoveAll()
		return nil, err
	}
	return &food.Input{
		Foodname:    r.FormValue("foodname"),
		Meal:        r.FormValue("meal"),
		FoodDate:    r.FormValue("fooddate_at"),
		Image:       img,
		RemoveImage: formBool(r, "remove_image"),
	}, nil
}
