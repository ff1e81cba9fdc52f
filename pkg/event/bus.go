package event

import (
	"context"
	"log"
	"sync"

	"github.com/google/uuid"
)

// Handler はイベントを受け取る関数。Publishを呼んだゴルーチンで同期的に実行される。
type Handler func(ctx context.Context, e *Event)

// subscription は購読者1件分の登録情報。
type subscription struct {
	id      string
	handler Handler
}

// Bus はプロセス内のイベント配信を行う。
// 購読者は登録順に呼び出される。
type Bus struct {
	mu   sync.RWMutex
	subs []subscription
}

// NewBus は新しいイベントバスを生成する。
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe はハンドラを登録し、登録解除用の関数を返す。
func (b *Bus) Subscribe(h Handler) (unsubscribe func()) {
	id := uuid.New().String()

	b.mu.Lock()
	b.subs = append(b.subs, subscription{id: id, handler: h})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			for i, s := range b.subs {
				if s.id == id {
					b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
					return
				}
			}
		})
	}
}

// SubscribeType は指定した種類のイベントだけを受け取るハンドラを登録する。
func (b *Bus) SubscribeType(t Type, h Handler) (unsubscribe func()) {
	return b.Subscribe(func(ctx context.Context, e *Event) {
		if e.Type == t {
			h(ctx, e)
		}
	})
}

// Publish はイベントを全購読者に配信する。
func (b *Bus) Publish(ctx context.Context, e *Event) {
	b.mu.RLock()
	subs := make([]subscription, len(b.subs))
	copy(subs, b.subs)
	b.mu.RUnlock()

	for _, s := range subs {
		s.handler(ctx, e)
	}
}

// NotifySessionEnded はトークンのリフレッシュ失敗によるSessionEndedイベントを配信する。
func (b *Bus) NotifySessionEnded(ctx context.Context) {
	b.PublishSessionEnded(ctx, EndReasonRefreshFailed)
}

// PublishSessionEnded は指定した理由でSessionEndedイベントを配信する。
func (b *Bus) PublishSessionEnded(ctx context.Context, reason EndReason) {
	e, err := New(SessionEndedData{Reason: reason})
	if err != nil {
		log.Printf("[event] SessionEndedイベントの生成に失敗: %v", err)
		return
	}
	b.Publish(ctx, e)
}
