// Package session はプロセス全体のシングルトン認証状態を管理する。
//
// ストアは「現在のアクターは誰で何ができるか」の唯一の真実の源であり、
// すべての変更操作で全状態を永続化バックエンドへ書き戻し、
// プロセス起動時に読み戻す。ガードとハンドラーはCurrentのスナップショットを読む。
package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/VexedElm035/tienda-keys/internal/model"
	"github.com/VexedElm035/tienda-keys/internal/repository"
)

// logoutNotifyTimeout はログアウト通知のベストエフォート送信に許す時間。
const logoutNotifyTimeout = 5 * time.Second

// LogoutNotifier はリモートのセッションエンドポイントへのログアウト通知を抽象化する。
// 通知は投げっぱなしであり、結果は呼び出し元に返らない。
type LogoutNotifier interface {
	NotifyLogout(ctx context.Context) error
}

// NameSanitizer は表示名のサニタイズを抽象化する。
type NameSanitizer interface {
	SanitizeName(name string) string
}

// URLValidator はアバターURLの検証を抽象化する。
type URLValidator interface {
	ValidateURL(rawURL string) error
}

// Store はセッション状態のシングルトンコンテナ。
// 外部からのフィールド直接書き込みは許さず、すべての変更は定義された操作を経由する。
type Store struct {
	mu   sync.RWMutex
	sess model.Session

	repo      repository.SessionStateRepository
	notifier  LogoutNotifier
	sanitizer NameSanitizer
	validator URLValidator
	logger    *slog.Logger
}

// NewStore はStoreを生成し、永続化バックエンドから状態を復元する。
// 復元されたレコードが不変条件を満たさない場合、またはトークンが
// 有効期限切れのJWTである場合は破棄してログアウト状態で開始する。
// バックエンドの読み出し失敗は致命的エラーとして返す。
func NewStore(
	ctx context.Context,
	repo repository.SessionStateRepository,
	notifier LogoutNotifier,
	sanitizer NameSanitizer,
	validator URLValidator,
	logger *slog.Logger,
) (*Store, error) {
	s := &Store{
		repo:      repo,
		notifier:  notifier,
		sanitizer: sanitizer,
		validator: validator,
		logger:    logger,
	}

	restored, err := repo.Load(ctx)
	if err != nil {
		return nil, err
	}

	switch {
	case restored == nil:
		// 保存済み状態なし: ログアウト状態で開始
	case !restored.Valid():
		s.logger.Warn("discarding persisted session: invariant violation",
			slog.Bool("is_logged_in", restored.IsLoggedIn),
		)
	case restored.IsLoggedIn && TokenExpired(restored.Token, time.Now()):
		s.logger.Info("discarding persisted session: token expired",
			slog.String("user_id", restored.UserID),
		)
	default:
		s.sess = *restored
		if s.sess.IsLoggedIn {
			s.logger.Info("session restored",
				slog.String("user_id", s.sess.UserID),
				slog.String("role", string(s.sess.UserRole)),
			)
		}
	}

	return s, nil
}

// Current は現在のセッションのスナップショットを返す。
func (s *Store) Current() model.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sess
}

// Login は識別フィールドを無条件に上書きし、ログイン状態にする。
// 役割の値は検証しない（ログインAPIレスポンスのハンドラーを信頼する）。
// 表示名はサニタイズされ、検証を通らないアバターURLは破棄される。
// エラー条件はなく、純粋な状態代入として扱う。永続化の失敗はログにのみ記録する。
func (s *Store) Login(ctx context.Context, userName, userID string, role model.Role, token, avatar string) {
	name := s.sanitizer.SanitizeName(userName)

	if avatar != "" {
		if err := s.validator.ValidateURL(avatar); err != nil {
			s.logger.Warn("dropping avatar URL from login payload",
				slog.String("error", err.Error()),
			)
			avatar = ""
		}
	}

	s.mu.Lock()
	s.sess = model.Session{
		IsLoggedIn: true,
		UserID:     userID,
		UserName:   name,
		UserRole:   role,
		Token:      token,
		Avatar:     avatar,
	}
	snapshot := s.sess
	s.mu.Unlock()

	s.logger.Info("user logged in",
		slog.String("user_id", userID),
		slog.String("role", string(role)),
	)

	s.persist(ctx, &snapshot)
}

// SetRole は役割フィールドのみを上書きする。
// 昇格など、再ログインを伴わない役割変更に使用する。
func (s *Store) SetRole(ctx context.Context, role model.Role) {
	s.mu.Lock()
	s.sess.UserRole = role
	snapshot := s.sess
	s.mu.Unlock()

	s.logger.Info("role updated", slog.String("role", string(role)))

	s.persist(ctx, &snapshot)
}

// Logout はすべての識別フィールドを同期的にクリアし、永続化レコードを削除した後、
// リモートのセッションエンドポイントへの通知を切り離されたタスクとして発行する。
// 通知の結果は破棄される（ネットワークの成否に関わらずログアウトはローカルで確定する）。
func (s *Store) Logout(ctx context.Context) {
	s.mu.Lock()
	userID := s.sess.UserID
	s.sess.Clear()
	s.mu.Unlock()

	s.logger.Info("user logged out", slog.String("user_id", userID))

	// クリア済み状態はレコード削除として書き戻す（次回起動はログアウト状態から始まる）
	if err := s.repo.Clear(ctx); err != nil {
		s.logger.Error("failed to clear persisted session state",
			slog.String("error", err.Error()),
		)
	}

	// fire-and-forget: リクエストのコンテキストに縛らない
	go func() {
		nctx, cancel := context.WithTimeout(context.Background(), logoutNotifyTimeout)
		defer cancel()
		if err := s.notifier.NotifyLogout(nctx); err != nil {
			s.logger.Warn("logout notification failed",
				slog.String("error", err.Error()),
			)
		}
	}()
}

// persist は全状態をバックエンドへ書き戻す。
// 書き戻し失敗は操作自体を失敗させず、ログにのみ記録する。
func (s *Store) persist(ctx context.Context, sess *model.Session) {
	if err := s.repo.Save(ctx, sess); err != nil {
		s.logger.Error("failed to persist session state",
			slog.String("error", err.Error()),
		)
	}
}
