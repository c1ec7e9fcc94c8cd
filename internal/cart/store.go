// Package cart はマーケットAPI上のカートをミラーするクライアント側ストアを提供する。
// 正本は常にリモート側にあり、ここでは最後に観測した状態とフラグだけを保持する。
package cart

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/VexedElm035/tienda-keys/internal/event"
	"github.com/VexedElm035/tienda-keys/internal/market"
	"github.com/VexedElm035/tienda-keys/internal/model"
)

// MarketAPI はストアが依存するマーケットAPI操作の集合。
type MarketAPI interface {
	FetchCart(ctx context.Context) ([]model.CartItem, error)
	AddToCart(ctx context.Context, keyID int64) error
	RemoveFromCart(ctx context.Context, cartItemID int64) error
}

// SyncRecorder はカート同期の結果を計測系へ記録する。
type SyncRecorder interface {
	ObserveCartSync(operation string, success bool, duration time.Duration)
}

// Store はカート状態のクライアント側ミラー。
// IsLoading/ClearingCartは表示向けの補助フラグであり、
// 操作の直列化は行わない（多重実行の調停は呼び出し元の責務）。
type Store struct {
	mu           sync.Mutex
	items        []model.CartItem
	isLoading    bool
	clearingCart bool
	lastErr      *model.APIError

	api      MarketAPI
	events   *event.Bus
	recorder SyncRecorder
	logger   *slog.Logger
}

// NewStore はStoreの新しいインスタンスを生成する。
// recorderはnil可（計測を行わない）。
func NewStore(api MarketAPI, events *event.Bus, recorder SyncRecorder, logger *slog.Logger) *Store {
	return &Store{
		api:      api,
		events:   events,
		recorder: recorder,
		logger:   logger,
	}
}

// Items は現在ミラーしている明細のコピーを返す。
func (s *Store) Items() []model.CartItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := make([]model.CartItem, len(s.items))
	copy(items, s.items)
	return items
}

// Count は明細数を返す。常にlen(Items())と一致する
// （サーバー側の数量フィールドではなく明細数を数える）。
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// IsLoading は取得処理が進行中かどうかを返す。
func (s *Store) IsLoading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isLoading
}

// ClearingCart は全件クリアが進行中かどうかを返す。
func (s *Store) ClearingCart() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clearingCart
}

// Err は直近の操作で記録されたユーザー向けエラーを返す。nilならエラーなし。
func (s *Store) Err() *model.APIError {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// FetchCart はリモートのカート内容でミラーを更新する。
// 取得失敗時は直前の明細を保持したままエラーを記録する（劣化運転）。
// ペイロードが配列でない異常系では空カートへリセットし、エラーは記録しない。
func (s *Store) FetchCart(ctx context.Context) {
	s.mu.Lock()
	s.isLoading = true
	s.lastErr = nil
	s.mu.Unlock()

	start := time.Now()
	items, err := s.api.FetchCart(ctx)
	s.observe("fetch", err == nil, start)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.isLoading = false

	if err != nil {
		if errors.Is(err, market.ErrUnexpectedPayload) {
			// セッション切れ等で配列以外が返った場合は古い明細を信用しない
			s.logger.Warn("カートのペイロードが予期しない形のため空カートへリセットする",
				slog.String("error", err.Error()),
			)
			s.items = nil
			return
		}
		s.logger.Error("カートの取得に失敗", slog.String("error", err.Error()))
		s.lastErr = model.NewCartFetchFailedError(err.Error())
		return
	}

	s.items = items
}

// AddToCart は商品キーのカート追加を要求し、成功したかどうかを返す。
// 失敗してもエラーは返さず、ミラーも変更しない（呼び出し元はboolで分岐する）。
// 失敗はErrに記録され、次の操作まで残る。
func (s *Store) AddToCart(ctx context.Context, keyID int64) bool {
	s.mu.Lock()
	s.isLoading = true
	s.lastErr = nil
	s.mu.Unlock()

	start := time.Now()
	err := s.api.AddToCart(ctx, keyID)
	s.observe("add", err == nil, start)

	if err != nil {
		s.logger.Error("カートへの追加に失敗",
			slog.Int64("key_id", keyID),
			slog.String("error", err.Error()),
		)
		s.mu.Lock()
		s.isLoading = false
		s.lastErr = model.NewCartAddFailedError(err.Error())
		s.mu.Unlock()
		return false
	}

	// 追加後はリモートを正としてミラーを同期する
	s.FetchCart(ctx)
	s.events.Notify(event.CartChanged)
	return true
}

// RemoveFromCart は指定明細の削除を要求する。
// 成功時はリモートから取り直してミラーを同期し、変更通知を発行する。
// 失敗時はミラーを変更せずエラーを記録して返す。
func (s *Store) RemoveFromCart(ctx context.Context, cartItemID int64) error {
	start := time.Now()
	err := s.api.RemoveFromCart(ctx, cartItemID)
	s.observe("remove", err == nil, start)

	if err != nil {
		s.logger.Error("カートからの削除に失敗",
			slog.Int64("cart_item_id", cartItemID),
			slog.String("error", err.Error()),
		)
		s.mu.Lock()
		s.lastErr = model.NewCartRemoveFailedError(err.Error())
		s.mu.Unlock()
		return err
	}

	// 削除後はリモートを正としてミラーを同期する
	s.FetchCart(ctx)
	s.events.Notify(event.CartChanged)
	return nil
}

// ClearCart は全明細の削除を要求する。
// まずリモートから正本の明細を取り直し、それぞれの削除を並行実行する。
// 1件でも失敗した場合はミラーを取得済みの明細のまま残しエラーを返す
// （部分的に消えた見かけを作らないため、楽観的な空更新は全件成功時のみ）。
func (s *Store) ClearCart(ctx context.Context) error {
	s.mu.Lock()
	s.clearingCart = true
	s.lastErr = nil
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.clearingCart = false
		s.mu.Unlock()
	}()

	start := time.Now()
	items, err := s.api.FetchCart(ctx)
	if err != nil {
		s.observe("clear", false, start)
		s.logger.Error("クリア前のカート取得に失敗", slog.String("error", err.Error()))
		s.mu.Lock()
		s.lastErr = model.NewCartClearFailedError(err.Error())
		s.mu.Unlock()
		return err
	}

	s.mu.Lock()
	s.items = items
	s.mu.Unlock()

	if len(items) == 0 {
		s.observe("clear", true, start)
		return nil
	}

	// 発行済みの削除は最初の失敗で打ち切らず、全件完了まで待つ
	var g errgroup.Group
	for _, item := range items {
		item := item
		g.Go(func() error {
			return s.api.RemoveFromCart(ctx, item.ID)
		})
	}

	if err := g.Wait(); err != nil {
		s.observe("clear", false, start)
		s.logger.Error("カートのクリアに失敗", slog.String("error", err.Error()))
		s.mu.Lock()
		s.lastErr = model.NewCartClearFailedError(err.Error())
		s.mu.Unlock()
		return err
	}
	s.observe("clear", true, start)

	s.mu.Lock()
	s.items = nil
	s.mu.Unlock()

	s.events.Notify(event.CartChanged)
	return nil
}

func (s *Store) observe(operation string, success bool, start time.Time) {
	if s.recorder == nil {
		return
	}
	s.recorder.ObserveCartSync(operation, success, time.Since(start))
}
