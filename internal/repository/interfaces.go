// Package repository はセッション状態の永続化インターフェースを定義する。
//
// セッションストアは変更のたびに全状態を書き戻し、プロセス起動時に読み戻す。
// バックエンド（ファイル / PostgreSQL / Redis）は設定で差し替え可能であり、
// いずれも固定キー配下にフラットなJSONレコードを保存する。
package repository

import (
	"context"

	"github.com/VexedElm035/tienda-keys/internal/model"
)

// StorageKey はセッション状態を保存する固定キー。
// バージョニングやマイグレーションは定義されない（レコードはそのまま読み戻される）。
const StorageKey = "tienda-keys/session"

// SessionStateRepository はセッション状態の永続化インターフェース。
type SessionStateRepository interface {
	// Save はセッション状態全体を書き込む。既存のレコードは上書きされる。
	Save(ctx context.Context, sess *model.Session) error

	// Load は保存済みのセッション状態を読み戻す。
	// レコードが存在しない場合は (nil, nil) を返す。
	Load(ctx context.Context) (*model.Session, error)

	// Clear は保存済みレコードを削除する。レコードが存在しなくてもエラーにしない。
	Clear(ctx context.Context) error
}
