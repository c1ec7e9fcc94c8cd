package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/VexedElm035/tienda-keys/internal/metrics"
	"github.com/VexedElm035/tienda-keys/internal/middleware"
	"github.com/VexedElm035/tienda-keys/internal/model"
	"github.com/VexedElm035/tienda-keys/internal/repository"
	"github.com/VexedElm035/tienda-keys/internal/security"
	"github.com/VexedElm035/tienda-keys/internal/session"
)

// noopNotifier はテスト用のLogoutNotifier
type noopNotifier struct{}

func (noopNotifier) NotifyLogout(ctx context.Context) error { return nil }

// newTestRouter は実ストアと実ガードを組み合わせたルーターを構築する。
func newTestRouter(t *testing.T) (http.Handler, *session.Store) {
	t.Helper()

	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	repo := repository.NewFileStateRepo(filepath.Join(t.TempDir(), "session.json"))

	sessions, err := session.NewStore(context.Background(), repo, noopNotifier{}, security.NewProfileSanitizer(), security.NewSSRFGuard(), logger)
	if err != nil {
		t.Fatalf("failed to build session store: %v", err)
	}

	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector(reg)

	rl := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		GeneralRate:     rate.Limit(1000),
		GeneralBurst:    1000,
		CartRate:        rate.Limit(1000),
		CartBurst:       1000,
		CleanupInterval: time.Hour,
	})
	t.Cleanup(rl.Stop)

	router := NewRouter(&RouterDeps{
		Sessions:          sessions,
		Cart:              &mockCartService{},
		CORSAllowedOrigin: "http://localhost:5173",
		CSRFConfig:        middleware.CSRFConfig{},
		RateLimiter:       rl,
		Collector:         collector,
		Gatherer:          reg,
		Logger:            logger,
	})

	return router, sessions
}

// postWithCSRF はXSRFトークンを付けた状態変更リクエストを送る。
func postWithCSRF(router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.AddCookie(&http.Cookie{Name: "XSRF-TOKEN", Value: "test-token"})
	req.Header.Set("X-XSRF-TOKEN", "test-token")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRouter_Healthcheck(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusOK)
	}
}

func TestRouter_MetricsEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusOK)
	}
}

func TestRouter_AnonymousProtectedPage_RedirectsToLogin(t *testing.T) {
	router, _ := newTestRouter(t)

	for _, path := range []string{"/cart", "/orders", "/dashboard", "/admin"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		resp := w.Result()
		if resp.StatusCode != http.StatusFound {
			t.Errorf("%s: status = %d, want %d", path, resp.StatusCode, http.StatusFound)
		}
		if got := resp.Header.Get("Location"); got != "/login" {
			t.Errorf("%s: Location = %q, want /login", path, got)
		}
	}
}

func TestRouter_AnonymousPublicPage_Returns200(t *testing.T) {
	router, _ := newTestRouter(t)

	for _, path := range []string{"/", "/catalog", "/login", "/game/5"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Result().StatusCode != http.StatusOK {
			t.Errorf("%s: status = %d, want %d", path, w.Result().StatusCode, http.StatusOK)
		}
	}
}

func TestRouter_LoginFlow_ThenProtectedPageAllowed(t *testing.T) {
	router, _ := newTestRouter(t)

	body := `{"userName":"buyer","userId":"7","userRole":"user","token":"tok"}`
	w := postWithCSRF(router, http.MethodPost, "/api/session/login", body)
	if w.Result().StatusCode != http.StatusOK {
		t.Fatalf("login status = %d, want %d", w.Result().StatusCode, http.StatusOK)
	}

	// GET /api/session/me でログイン状態を確認
	req := httptest.NewRequest(http.MethodGet, "/api/session/me", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var sess model.Session
	if err := json.NewDecoder(rec.Result().Body).Decode(&sess); err != nil {
		t.Fatalf("failed to decode session: %v", err)
	}
	if !sess.IsLoggedIn || sess.UserRole != model.RoleUser {
		t.Fatalf("unexpected session: %+v", sess)
	}

	// ログイン後は保護されたページに到達できる
	req = httptest.NewRequest(http.MethodGet, "/cart", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Result().StatusCode != http.StatusOK {
		t.Errorf("/cart status = %d, want %d", rec.Result().StatusCode, http.StatusOK)
	}

	// ログイン済みでのログインページはホームへ戻される
	req = httptest.NewRequest(http.MethodGet, "/login", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if got := rec.Result().Header.Get("Location"); got != "/" {
		t.Errorf("/login Location = %q, want /", got)
	}
}

func TestRouter_AdminConfinement(t *testing.T) {
	router, _ := newTestRouter(t)

	body := `{"userName":"admin","userId":"1","userRole":"admin","token":"tok"}`
	if w := postWithCSRF(router, http.MethodPost, "/api/session/login", body); w.Result().StatusCode != http.StatusOK {
		t.Fatalf("login status = %d", w.Result().StatusCode)
	}

	// 管理画面配下は許可される
	for _, path := range []string{"/admin", "/admin/games", "/admin/users"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		if w.Result().StatusCode != http.StatusOK {
			t.Errorf("%s: status = %d, want %d", path, w.Result().StatusCode, http.StatusOK)
		}
	}

	// 管理画面の外は/adminへ戻される
	for _, path := range []string{"/", "/catalog", "/cart"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		if got := w.Result().Header.Get("Location"); got != "/admin" {
			t.Errorf("%s: Location = %q, want /admin", path, got)
		}
	}
}

func TestRouter_StateChangingRequest_WithoutCSRF_Returns403(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/session/login", strings.NewReader(`{}`))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusForbidden {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusForbidden)
	}
}

func TestRouter_CSRFTokenEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/csrf-token", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var body map[string]string
	if err := json.NewDecoder(w.Result().Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body["token"] == "" {
		t.Error("token should not be empty")
	}
}

func TestRouter_Logout_ClearsSessionState(t *testing.T) {
	router, sessions := newTestRouter(t)

	body := `{"userName":"buyer","userId":"7","userRole":"user","token":"tok"}`
	postWithCSRF(router, http.MethodPost, "/api/session/login", body)

	w := postWithCSRF(router, http.MethodPost, "/api/session/logout", "")
	if w.Result().StatusCode != http.StatusNoContent {
		t.Fatalf("logout status = %d, want %d", w.Result().StatusCode, http.StatusNoContent)
	}
	if sessions.Current().IsLoggedIn {
		t.Error("session should have been cleared")
	}
}
