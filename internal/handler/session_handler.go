package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/VexedElm035/tienda-keys/internal/middleware"
	"github.com/VexedElm035/tienda-keys/internal/model"
)

// SessionServiceInterface はセッションハンドラーが必要とするストアインターフェース。
type SessionServiceInterface interface {
	Current() model.Session
	Login(ctx context.Context, userName, userID string, role model.Role, token, avatar string)
	SetRole(ctx context.Context, role model.Role)
	Logout(ctx context.Context)
}

// SessionOperationRecorder はセッション操作の計測インターフェース。
type SessionOperationRecorder interface {
	RecordSessionOperation(operation string, success bool)
}

// SessionHandler はセッション管理のHTTPハンドラー。
type SessionHandler struct {
	service  SessionServiceInterface
	recorder SessionOperationRecorder
}

// NewSessionHandler はSessionHandlerを生成する。recorderはnil可。
func NewSessionHandler(service SessionServiceInterface, recorder SessionOperationRecorder) *SessionHandler {
	return &SessionHandler{
		service:  service,
		recorder: recorder,
	}
}

// loginRequest はログインリクエストのボディ。
// フィールド名はセッションの永続化フォーマットと揃える。
type loginRequest struct {
	UserName string `json:"userName"`
	UserID   string `json:"userId"`
	UserRole string `json:"userRole"`
	Token    string `json:"token"`
	Avatar   string `json:"avatar"`
}

// roleRequest は役割更新リクエストのボディ。
type roleRequest struct {
	UserRole string `json:"userRole"`
}

// Login はログイン成功後のセッション確立を処理する。
// POST /api/session/login
func (h *SessionHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.record("login", false)
		middleware.WriteErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "リクエストボディの解析に失敗しました。",
			Category: "validation",
			Action:   "リクエスト形式を確認してください。",
		})
		return
	}

	role := model.ParseRole(req.UserRole)
	if role == model.RoleNone {
		h.record("login", false)
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidRoleError(req.UserRole))
		return
	}

	h.service.Login(r.Context(), req.UserName, req.UserID, role, req.Token, req.Avatar)
	h.record("login", true)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(h.service.Current())
}

// Logout はセッションの破棄を処理する。
// ログアウトは常に成功する（リモートへの通知は非同期で行われる）。
// POST /api/session/logout
func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.service.Logout(r.Context())
	h.record("logout", true)
	w.WriteHeader(http.StatusNoContent)
}

// SetRole は現在のセッションの役割を更新する。
// PATCH /api/session/role
func (h *SessionHandler) SetRole(w http.ResponseWriter, r *http.Request) {
	if !h.service.Current().IsLoggedIn {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewNotLoggedInError())
		return
	}

	var req roleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "リクエストボディの解析に失敗しました。",
			Category: "validation",
			Action:   "リクエスト形式を確認してください。",
		})
		return
	}

	role := model.ParseRole(req.UserRole)
	if role == model.RoleNone {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidRoleError(req.UserRole))
		return
	}

	h.service.SetRole(r.Context(), role)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(h.service.Current())
}

// Me は現在のセッション状態を返す。
// GET /api/session/me
func (h *SessionHandler) Me(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(h.service.Current())
}

func (h *SessionHandler) record(operation string, success bool) {
	if h.recorder != nil {
		h.recorder.RecordSessionOperation(operation, success)
	}
}
