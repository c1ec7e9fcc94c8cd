// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"log/slog"
	"net/http"

	"github.com/VexedElm035/tienda-keys/internal/guard"
	"github.com/VexedElm035/tienda-keys/internal/model"
)

// SessionReader はガード判定に必要なセッションの読み取りインターフェース。
// session.Storeの部分集合として定義する。
type SessionReader interface {
	Current() model.Session
}

// GuardRecorder はガード判定の計測インターフェース。
type GuardRecorder interface {
	RecordGuardDecision(route string, outcome string)
	RecordGuardRedirect(target string)
}

// ガード判定の結果ラベル。metricsパッケージの定義と一致させる。
const (
	guardOutcomeAllowed    = "allowed"
	guardOutcomeRedirected = "redirected"
)

// NewGuardMiddleware は指定ルートへのナビゲーションガードを適用するミドルウェアを返す。
// 現在のセッション状態に基づいて判定し、拒否された場合は302リダイレクトを返す。
// recorderはnil可（計測を行わない）。
func NewGuardMiddleware(sessions SessionReader, route guard.Route, recorder GuardRecorder, logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := sessions.Current()
			decision := guard.Decide(&sess, route, r.URL.Path)

			if decision.Allowed {
				if recorder != nil {
					recorder.RecordGuardDecision(string(route.Name), guardOutcomeAllowed)
				}
				next.ServeHTTP(w, r)
				return
			}

			target := guard.RedirectPath(decision.RedirectTo)
			if recorder != nil {
				recorder.RecordGuardDecision(string(route.Name), guardOutcomeRedirected)
				recorder.RecordGuardRedirect(target)
			}
			logger.Info("ナビゲーションガードがリダイレクトを発行",
				slog.String("route", string(route.Name)),
				slog.String("path", r.URL.Path),
				slog.String("redirect_to", target),
				slog.Bool("logged_in", sess.IsLoggedIn),
				slog.String("role", string(sess.UserRole)),
			)
			http.Redirect(w, r, target, http.StatusFound)
		})
	}
}
