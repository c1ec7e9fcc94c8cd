// Package event はプロセス内のペイロードなし変更通知を提供する。
// カート変更の通知に使用され、購読者はチャネル経由で受信する。
package event

import (
	"sync"

	"github.com/google/uuid"
)

// CartChanged はカート内容が変化したことを示すイベント名。
const CartChanged = "cart-changed"

// Bus はイベント名ごとの購読者へ通知をファンアウトする。
// 通知はペイロードを持たない。配信は非ブロッキングで、
// 受信が追いついていない購読者への通知は破棄される（最新の1件で十分なため）。
type Bus struct {
	mu   sync.RWMutex
	subs map[string]map[string]chan struct{}
}

// NewBus は新しいBusを生成する。
func NewBus() *Bus {
	return &Bus{
		subs: make(map[string]map[string]chan struct{}),
	}
}

// Subscribe は指定イベントの購読を開始する。
// 返されたチャネルで通知を受信し、不要になったらcancelを呼ぶ。
func (b *Bus) Subscribe(name string) (<-chan struct{}, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.subs[name] == nil {
		b.subs[name] = make(map[string]chan struct{})
	}

	id := uuid.New().String()
	ch := make(chan struct{}, 1)
	b.subs[name][id] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if sub, ok := b.subs[name][id]; ok {
			delete(b.subs[name], id)
			close(sub)
		}
	}

	return ch, cancel
}

// Notify は指定イベントの全購読者へ通知する。
// 購読者のバッファが埋まっている場合はスキップする。
func (b *Bus) Notify(name string) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subs[name] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
