package model

import (
	"encoding/json"
	"testing"
)

func TestParseRole(t *testing.T) {
	tests := []struct {
		input string
		want  Role
	}{
		{"admin", RoleAdmin},
		{"seller", RoleSeller},
		{"user", RoleUser},
		{"", RoleNone},
		{"superuser", RoleNone},
		{"Admin", RoleNone},
	}

	for _, tt := range tests {
		if got := ParseRole(tt.input); got != tt.want {
			t.Errorf("ParseRole(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestSession_Clear(t *testing.T) {
	sess := Session{
		IsLoggedIn: true,
		UserID:     "7",
		UserName:   "buyer",
		UserRole:   RoleUser,
		Token:      "tok",
		Avatar:     "http://example.com/a.png",
	}

	sess.Clear()

	if sess.IsLoggedIn || sess.UserID != "" || sess.UserName != "" ||
		sess.UserRole != RoleNone || sess.Token != "" || sess.Avatar != "" {
		t.Errorf("Clear後の状態が不正: %+v", sess)
	}
	if !sess.Valid() {
		t.Error("クリア済みセッションは不変条件を満たすべき")
	}
}

func TestSession_Valid(t *testing.T) {
	// ログアウト状態でフィールドが残っているのは不変条件違反
	invalid := Session{IsLoggedIn: false, UserID: "7"}
	if invalid.Valid() {
		t.Error("ログアウト状態でuserIdが残るセッションは無効であるべき")
	}

	valid := Session{IsLoggedIn: true, UserID: "7", UserName: "buyer", UserRole: RoleUser}
	if !valid.Valid() {
		t.Error("ログイン済みセッションは有効であるべき")
	}
}

func TestCartItem_UnmarshalPreservesRawPayload(t *testing.T) {
	payload := `{"id":1,"key_id":10,"game_title":"Hollow Knight","price":14.99,"platform":"steam"}`

	var item CartItem
	if err := json.Unmarshal([]byte(payload), &item); err != nil {
		t.Fatalf("予期しないエラー: %v", err)
	}

	if item.ID != 1 || item.KeyID != 10 || item.GameTitle != "Hollow Knight" {
		t.Errorf("既知フィールドのデコード結果が不正: %+v", item)
	}

	// 未知フィールド(platform)もRaw経由でそのまま出力される
	out, err := json.Marshal(item)
	if err != nil {
		t.Fatalf("予期しないエラー: %v", err)
	}
	var roundtrip map[string]any
	if err := json.Unmarshal(out, &roundtrip); err != nil {
		t.Fatalf("予期しないエラー: %v", err)
	}
	if roundtrip["platform"] != "steam" {
		t.Errorf("サーバー由来の追加フィールドが保持されるべき: %v", roundtrip)
	}
}
