// Package handler はHTTPハンドラーとルーティングを提供する。
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/VexedElm035/tienda-keys/internal/guard"
	"github.com/VexedElm035/tienda-keys/internal/metrics"
	"github.com/VexedElm035/tienda-keys/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ストア
	Sessions SessionServiceInterface
	Cart     CartServiceInterface

	// ミドルウェア依存
	CORSAllowedOrigin string
	CSRFConfig        middleware.CSRFConfig
	RateLimiter       *middleware.RateLimiter

	// 観測
	Collector *metrics.Collector
	Gatherer  prometheus.Gatherer
	Logger    *slog.Logger
}

// NewRouter は全ルートとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	CORS → SecurityHeaders → RequestID → Logging → Recovery
//
// APIルートにはさらにCSRF検証とレート制限が適用される。
// ページルートには登録ルートごとのナビゲーションガードが適用される。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewRequestIDMiddleware())
	r.Use(middleware.NewLoggingMiddleware(deps.Logger, deps.Collector))
	r.Use(middleware.NewRecoveryMiddleware())

	sessionHandler := NewSessionHandler(deps.Sessions, deps.Collector)
	cartHandler := NewCartHandler(deps.Cart)

	// --- 運用エンドポイント ---

	r.Get("/health", handleHealthcheck)
	r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.Gatherer))
	r.Method(http.MethodGet, "/api/csrf-token", middleware.NewCSRFTokenHandler(deps.CSRFConfig))

	// --- APIルート ---
	// ミドルウェアスタック: CSRF → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewCSRFMiddleware(deps.CSRFConfig))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		r.Route("/api/session", func(r chi.Router) {
			r.Post("/login", sessionHandler.Login)
			r.Post("/logout", sessionHandler.Logout)
			r.Patch("/role", sessionHandler.SetRole)
			r.Get("/me", sessionHandler.Me)
		})

		// カート操作はマーケットAPIへの同期を伴うため専用レート制限を重ねる
		r.Route("/api/cart", func(r chi.Router) {
			r.Use(deps.RateLimiter.CartMiddleware())

			r.Get("/", cartHandler.GetCart)
			r.Post("/", cartHandler.AddToCart)
			r.Delete("/", cartHandler.ClearCart)
			r.Delete("/{id}", cartHandler.RemoveFromCart)
		})
	})

	// --- ページルート ---
	// 登録ルートごとにナビゲーションガードを適用する
	for _, route := range guard.AllRoutes() {
		guardMw := middleware.NewGuardMiddleware(deps.Sessions, route, deps.Collector, deps.Logger)
		r.With(guardMw).Get(route.Pattern, NewPageHandler(route))
	}

	return r
}

// handleHealthcheck は死活監視エンドポイントを処理する。
// GET /health
func handleHealthcheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
