// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, cart, validation, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeCartFetchFailed  = "CART_FETCH_FAILED"
	ErrCodeCartAddFailed    = "CART_ADD_FAILED"
	ErrCodeCartRemoveFailed = "CART_REMOVE_FAILED"
	ErrCodeCartClearFailed  = "CART_CLEAR_FAILED"
	ErrCodeInvalidRole      = "INVALID_ROLE"
	ErrCodeInvalidAvatar    = "INVALID_AVATAR"
	ErrCodeNotLoggedIn      = "NOT_LOGGED_IN"
)

// NewCartFetchFailedError はカート取得失敗エラーを生成する。
func NewCartFetchFailedError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeCartFetchFailed,
		Message:  fmt.Sprintf("カートの取得に失敗しました: %s", reason),
		Category: "cart",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewCartAddFailedError はカート追加失敗エラーを生成する。
func NewCartAddFailedError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeCartAddFailed,
		Message:  fmt.Sprintf("カートへの追加に失敗しました: %s", reason),
		Category: "cart",
		Action:   "商品キーがまだ購入可能か確認してください。",
	}
}

// NewCartRemoveFailedError はカート削除失敗エラーを生成する。
func NewCartRemoveFailedError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeCartRemoveFailed,
		Message:  fmt.Sprintf("カートからの削除に失敗しました: %s", reason),
		Category: "cart",
		Action:   "カートを再読み込みしてから再度お試しください。",
	}
}

// NewCartClearFailedError はカート一括削除失敗エラーを生成する。
// 一部の削除だけが成功した可能性があるため、再取得を促す。
func NewCartClearFailedError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeCartClearFailed,
		Message:  fmt.Sprintf("カートを空にできませんでした: %s", reason),
		Category: "cart",
		Action:   "カートを再読み込みして残っている商品を確認してください。",
	}
}

// NewInvalidRoleError は無効な役割エラーを生成する。
func NewInvalidRoleError(role string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRole,
		Message:  fmt.Sprintf("無効な役割です: %s", role),
		Category: "validation",
		Action:   "役割には admin、seller、user のいずれかを指定してください。",
	}
}

// NewNotLoggedInError は未ログインエラーを生成する。
func NewNotLoggedInError() *APIError {
	return &APIError{
		Code:     ErrCodeNotLoggedIn,
		Message:  "ログインしていません。",
		Category: "auth",
		Action:   "ログインし直してください。",
	}
}
