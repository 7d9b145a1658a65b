package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/foodtracker/internal/metrics"
	"github.com/hitoshi/foodtracker/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger            *slog.Logger
	Metrics           metrics.MetricsCollector
	SessionFinder     middleware.SessionFinder
	CORSAllowedOrigin string
	CSRFConfig        middleware.CSRFConfig
	RateLimiter       *middleware.RateLimiter

	// 運用
	HealthChecker  HealthChecker
	MetricsHandler http.Handler

	// 認証
	AuthService AuthServiceInterface
	AuthConfig  AuthHandlerConfig

	// 食事記録・プロフィール
	FoodService    FoodServiceInterface
	ProfileService ProfileServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → Logging → SecurityHeaders → CORS
//	  /auth/*: CSRF → RateLimit(General, IP単位)
//	  /api/*:  Session → CSRF → RateLimit(General, ユーザー単位)
//
// 画像を受け付けるPOST/PUTにはアップロード用のレート制限を追加する。
func NewRouter(deps *RouterDeps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewLoggingMiddleware(logger, deps.Metrics))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	authHandler := NewAuthHandler(deps.AuthService, deps.AuthConfig)
	foodHandler := NewFoodHandler(deps.FoodService, FoodHandlerConfig{
		DefaultAvatarURL: deps.AuthConfig.DefaultAvatarURL,
		MaxUploadSize:    deps.AuthConfig.MaxUploadSize,
	})
	profileHandler := NewProfileHandler(deps.ProfileService, deps.AuthConfig.DefaultAvatarURL, deps.AuthConfig.MaxUploadSize)
	upload := deps.RateLimiter.UploadMiddleware()

	// --- 認証不要のルート ---
	r.Get("/health", NewHealthHandler(deps.HealthChecker).ServeHTTP)
	if deps.MetricsHandler != nil {
		r.Handle("/metrics", deps.MetricsHandler)
	}
	r.Get("/api/csrf-token", middleware.NewCSRFTokenHandler(deps.CSRFConfig).ServeHTTP)

	r.Route("/auth", func(r chi.Router) {
		r.Use(middleware.NewCSRFMiddleware(deps.CSRFConfig))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		r.With(upload).Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
		r.Post("/logout", authHandler.Logout)
		r.Get("/me", authHandler.Me)
	})

	// --- 認証が必要なルート ---
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewSessionMiddleware(deps.SessionFinder))
		r.Use(middleware.NewCSRFMiddleware(deps.CSRFConfig))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		r.Get("/api/meals", foodHandler.Meals)

		r.Route("/api/foods", func(r chi.Router) {
			r.Get("/", foodHandler.Dashboard)
			r.With(upload).Post("/", foodHandler.Create)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", foodHandler.Get)
				r.With(upload).Put("/", foodHandler.Update)
				r.Delete("/", foodHandler.Delete)
			})
		})

		r.Route("/api/profile", func(r chi.Router) {
			r.Get("/", profileHandler.Get)
			r.With(upload).Put("/", profileHandler.Update)
		})
	})

	return r
}
