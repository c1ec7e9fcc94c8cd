package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/VexedElm035/tienda-keys/internal/model"
)

// PostgresStateRepo はPostgreSQLを使用したセッション状態リポジトリ。
// session_stateテーブルの固定キー1行に全状態をJSONBで保存する。
type PostgresStateRepo struct {
	db *sql.DB
}

// NewPostgresStateRepo はPostgresStateRepoを生成する。
func NewPostgresStateRepo(db *sql.DB) *PostgresStateRepo {
	return &PostgresStateRepo{db: db}
}

// Save はセッション状態全体を書き込む。既存行はUPSERTで上書きされる。
func (r *PostgresStateRepo) Save(ctx context.Context, sess *model.Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to encode session state: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO session_state (storage_key, data, updated_at)
		 VALUES ($1, $2, now())
		 ON CONFLICT (storage_key)
		 DO UPDATE SET data = EXCLUDED.data, updated_at = now()`,
		StorageKey, data,
	)
	if err != nil {
		return fmt.Errorf("failed to save session state: %w", err)
	}
	return nil
}

// Load は保存済みのセッション状態を読み戻す。行が存在しない場合は(nil, nil)を返す。
func (r *PostgresStateRepo) Load(ctx context.Context) (*model.Session, error) {
	var data []byte
	err := r.db.QueryRowContext(ctx,
		`SELECT data FROM session_state WHERE storage_key = $1`,
		StorageKey,
	).Scan(&data)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session state: %w", err)
	}

	sess := &model.Session{}
	if err := json.Unmarshal(data, sess); err != nil {
		return nil, fmt.Errorf("failed to decode session state: %w", err)
	}
	return sess, nil
}

// Clear は保存済みレコードを削除する。行が存在しなくてもエラーにしない。
func (r *PostgresStateRepo) Clear(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM session_state WHERE storage_key = $1`,
		StorageKey,
	)
	if err != nil {
		return fmt.Errorf("failed to clear session state: %w", err)
	}
	return nil
}

// compile-time interface check
var _ SessionStateRepository = (*PostgresStateRepo)(nil)
