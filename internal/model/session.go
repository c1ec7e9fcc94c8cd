// Package model はドメインモデルを定義する。
package model

// Role はログインユーザーの役割を表す。
type Role string

const (
	// RoleAdmin は管理者。管理画面以外への遷移は許可されない。
	RoleAdmin Role = "admin"
	// RoleSeller は出品者。ダッシュボードと出品ルートを専有する。
	RoleSeller Role = "seller"
	// RoleUser は一般ユーザー。
	RoleUser Role = "user"
	// RoleNone は未ログイン状態を表す空の役割。
	RoleNone Role = ""
)

// ParseRole は文字列をRoleに変換する。
// 列挙値に一致しない文字列はRoleNoneとして扱う。
func ParseRole(s string) Role {
	switch Role(s) {
	case RoleAdmin, RoleSeller, RoleUser:
		return Role(s)
	default:
		return RoleNone
	}
}

// Session は現在のアクターの認証状態を表す。
// プロセス全体でシングルトンとして保持され、永続化ストレージに書き戻される。
// 不変条件: IsLoggedIn == false のとき、他のすべてのフィールドは空文字列。
type Session struct {
	IsLoggedIn bool   `json:"isLoggedIn"`
	UserID     string `json:"userId"`
	UserName   string `json:"userName"`
	UserRole   Role   `json:"userRole"`
	Token      string `json:"token"`
	Avatar     string `json:"avatar"`
}

// Clear はすべてのフィールドを初期値に戻す。
func (s *Session) Clear() {
	*s = Session{}
}

// Valid は不変条件を満たしているかを検証する。
// ログアウト状態でいずれかの識別フィールドが残っている場合はfalseを返す。
func (s *Session) Valid() bool {
	if s.IsLoggedIn {
		return true
	}
	return s.UserID == "" && s.UserName == "" && s.UserRole == RoleNone &&
		s.Token == "" && s.Avatar == ""
}
