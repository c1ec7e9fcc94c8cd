package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/VexedElm035/tienda-keys/internal/model"
)

// FileStateRepo はJSONファイルを使用したセッション状態リポジトリ。
// デフォルトのバックエンドで、元のlocalStorage相当の契約を満たす。
type FileStateRepo struct {
	path string
}

// NewFileStateRepo はFileStateRepoを生成する。
func NewFileStateRepo(path string) *FileStateRepo {
	return &FileStateRepo{path: path}
}

// fileRecord はファイルに書き込まれるレコード。
// 固定キーを併記することでバックエンド間のレコード形式を揃える。
type fileRecord struct {
	Key     string        `json:"key"`
	Session model.Session `json:"session"`
}

// Save はセッション状態全体を書き込む。
// 一時ファイルへの書き込みとリネームにより、中断されても壊れたレコードを残さない。
func (r *FileStateRepo) Save(ctx context.Context, sess *model.Session) error {
	data, err := json.Marshal(fileRecord{Key: StorageKey, Session: *sess})
	if err != nil {
		return fmt.Errorf("failed to encode session state: %w", err)
	}

	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".session-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write session state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpName, r.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace session state file: %w", err)
	}
	return nil
}

// Load は保存済みのセッション状態を読み戻す。
// ファイルが存在しない場合は(nil, nil)を返す。
// キーが一致しないレコードは別アプリケーションのものとして無視する。
func (r *FileStateRepo) Load(ctx context.Context) (*model.Session, error) {
	data, err := os.ReadFile(r.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session state file: %w", err)
	}

	var rec fileRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to decode session state: %w", err)
	}
	if rec.Key != StorageKey {
		return nil, nil
	}

	sess := rec.Session
	return &sess, nil
}

// Clear は保存済みレコードを削除する。ファイルが存在しなくてもエラーにしない。
func (r *FileStateRepo) Clear(ctx context.Context) error {
	if err := os.Remove(r.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove session state file: %w", err)
	}
	return nil
}

// compile-time interface check
var _ SessionStateRepository = (*FileStateRepo)(nil)
