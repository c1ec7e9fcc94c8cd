package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/VexedElm035/tienda-keys/internal/model"
)

// mockSessionService はSessionServiceInterfaceのモック実装
type mockSessionService struct {
	mu   sync.Mutex
	sess model.Session
}

func (m *mockSessionService) Current() model.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sess
}

func (m *mockSessionService) Login(ctx context.Context, userName, userID string, role model.Role, token, avatar string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sess = model.Session{
		IsLoggedIn: true,
		UserID:     userID,
		UserName:   userName,
		UserRole:   role,
		Token:      token,
		Avatar:     avatar,
	}
}

func (m *mockSessionService) SetRole(ctx context.Context, role model.Role) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sess.UserRole = role
}

func (m *mockSessionService) Logout(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sess.Clear()
}

func TestSessionHandler_Login_EstablishesSession(t *testing.T) {
	service := &mockSessionService{}
	h := NewSessionHandler(service, nil)

	body := `{"userName":"buyer","userId":"7","userRole":"user","token":"tok","avatar":""}`
	req := httptest.NewRequest(http.MethodPost, "/api/session/login", strings.NewReader(body))
	w := httptest.NewRecorder()

	h.Login(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var sess model.Session
	if err := json.NewDecoder(resp.Body).Decode(&sess); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !sess.IsLoggedIn || sess.UserName != "buyer" || sess.UserRole != model.RoleUser {
		t.Errorf("unexpected session: %+v", sess)
	}
}

func TestSessionHandler_Login_InvalidRole_Returns400(t *testing.T) {
	service := &mockSessionService{}
	h := NewSessionHandler(service, nil)

	body := `{"userName":"x","userId":"1","userRole":"superuser","token":"t"}`
	req := httptest.NewRequest(http.MethodPost, "/api/session/login", strings.NewReader(body))
	w := httptest.NewRecorder()

	h.Login(w, req)

	if w.Result().StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusBadRequest)
	}
	if service.Current().IsLoggedIn {
		t.Error("session should not be established with an invalid role")
	}
}

func TestSessionHandler_Login_MalformedBody_Returns400(t *testing.T) {
	service := &mockSessionService{}
	h := NewSessionHandler(service, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/session/login", strings.NewReader("{not json"))
	w := httptest.NewRecorder()

	h.Login(w, req)

	if w.Result().StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusBadRequest)
	}
}

func TestSessionHandler_Logout_ClearsSession(t *testing.T) {
	service := &mockSessionService{sess: model.Session{
		IsLoggedIn: true,
		UserID:     "7",
		UserName:   "buyer",
		UserRole:   model.RoleUser,
	}}
	h := NewSessionHandler(service, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/session/logout", nil)
	w := httptest.NewRecorder()

	h.Logout(w, req)

	if w.Result().StatusCode != http.StatusNoContent {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusNoContent)
	}
	if service.Current().IsLoggedIn {
		t.Error("session should have been cleared")
	}
}

func TestSessionHandler_SetRole_UpdatesRole(t *testing.T) {
	service := &mockSessionService{sess: model.Session{
		IsLoggedIn: true,
		UserID:     "7",
		UserName:   "buyer",
		UserRole:   model.RoleUser,
	}}
	h := NewSessionHandler(service, nil)

	req := httptest.NewRequest(http.MethodPatch, "/api/session/role", strings.NewReader(`{"userRole":"seller"}`))
	w := httptest.NewRecorder()

	h.SetRole(w, req)

	if w.Result().StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Result().StatusCode, http.StatusOK)
	}
	if got := service.Current().UserRole; got != model.RoleSeller {
		t.Errorf("role = %q, want seller", got)
	}
}

func TestSessionHandler_SetRole_NotLoggedIn_Returns401(t *testing.T) {
	service := &mockSessionService{}
	h := NewSessionHandler(service, nil)

	req := httptest.NewRequest(http.MethodPatch, "/api/session/role", strings.NewReader(`{"userRole":"user"}`))
	w := httptest.NewRecorder()

	h.SetRole(w, req)

	if w.Result().StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusUnauthorized)
	}
}

func TestSessionHandler_SetRole_InvalidRole_Returns400(t *testing.T) {
	service := &mockSessionService{sess: model.Session{
		IsLoggedIn: true,
		UserID:     "7",
		UserName:   "buyer",
		UserRole:   model.RoleUser,
	}}
	h := NewSessionHandler(service, nil)

	req := httptest.NewRequest(http.MethodPatch, "/api/session/role", strings.NewReader(`{"userRole":"root"}`))
	w := httptest.NewRecorder()

	h.SetRole(w, req)

	if w.Result().StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusBadRequest)
	}
	if got := service.Current().UserRole; got != model.RoleUser {
		t.Errorf("role should be unchanged: %q", got)
	}
}

func TestSessionHandler_Me_ReturnsCurrentSession(t *testing.T) {
	service := &mockSessionService{sess: model.Session{
		IsLoggedIn: true,
		UserID:     "3",
		UserName:   "vendor",
		UserRole:   model.RoleSeller,
	}}
	h := NewSessionHandler(service, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/session/me", nil)
	w := httptest.NewRecorder()

	h.Me(w, req)

	var sess model.Session
	if err := json.NewDecoder(w.Result().Body).Decode(&sess); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if sess.UserName != "vendor" || sess.UserRole != model.RoleSeller {
		t.Errorf("unexpected session: %+v", sess)
	}
}
