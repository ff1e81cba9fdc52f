// Package querycache はAPIクエリ結果をキー階層で保持するTTLキャッシュを提供する。
//
// キーは "members/detail/42" のようにスラッシュ区切りの階層を持ち、
// InvalidatePrefixで階層単位の無効化ができる。
package querycache

import (
	"context"
	"strings"
	"sync"
	"time"
)

// DefaultTTL はエントリのデフォルト有効期間。
const DefaultTTL = 5 * time.Minute

// entry はキャッシュされた値と有効期限。
type entry struct {
	value     any
	expiresAt time.Time
}

// Cache はスレッドセーフなTTLキャッシュ。
type Cache struct {
	mu    sync.RWMutex
	items map[string]entry
	ttl   time.Duration
	now   func() time.Time
	// gen は無効化のたびに進む世代番号。
	gen uint64
}

// Option はCacheの設定を変更する関数。
type Option func(*Cache)

// WithTTL はエントリの有効期間を設定する。0以下の場合はキャッシュしない。
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		c.ttl = ttl
	}
}

// WithClock は現在時刻の取得関数を差し替える。
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}

// New は新しいCacheを生成する。
func New(opts ...Option) *Cache {
	c := &Cache{
		items: make(map[string]entry),
		ttl:   DefaultTTL,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Key はパーツをスラッシュで連結したキャッシュキーを返す。
func Key(parts ...string) string {
	return strings.Join(parts, "/")
}

// Get は有効期限内の値を返す。
func (c *Cache) Get(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.items[key]
	if !ok || !c.now().Before(e.expiresAt) {
		return nil, false
	}
	return e.value, true
}

// Set は値を保存する。既存の値は上書きされる。
func (c *Cache) Set(key string, value any) {
	if c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store(key, value)
}

// store は値を保存する。ロックを保持した状態で呼ぶこと。
func (c *Cache) store(key string, value any) {
	c.items[key] = entry{value: value, expiresAt: c.now().Add(c.ttl)}
	c.evictExpired()
}

// generation は現在の世代番号を返す。
func (c *Cache) generation() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.gen
}

// setIfGeneration は世代がgenのままであれば値を保存する。
// 取得中に無効化が挟まった結果は保存しない。
func (c *Cache) setIfGeneration(key string, value any, gen uint64) bool {
	if c.ttl <= 0 {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.gen != gen {
		return false
	}
	c.store(key, value)
	return true
}

// InvalidatePrefix はprefix自身とその配下のキーを全て削除する。
// "members" は "members/list" を削除するが "membership" は削除しない。
func (c *Cache) InvalidatePrefix(prefix string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.gen++
	prefix = strings.TrimSuffix(prefix, "/")
	for key := range c.items {
		if key == prefix || strings.HasPrefix(key, prefix+"/") {
			delete(c.items, key)
		}
	}
}

// Clear は全てのエントリを削除する。
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	clear(c.items)
}

// Len は保持しているエントリ数を返す。期限切れで未削除のものも含む。
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// evictExpired は期限切れのエントリを削除する。ロックを保持した状態で呼ぶこと。
func (c *Cache) evictExpired() {
	now := c.now()
	for key, e := range c.items {
		if !now.Before(e.expiresAt) {
			delete(c.items, key)
		}
	}
}

// Fetch はkeyのキャッシュが有効であればそれを返し、なければfnを呼んで結果を保存する。
// fnがエラーを返した場合と、fnの実行中に無効化があった場合は保存しない。
func Fetch[T any](ctx context.Context, c *Cache, key string, fn func(context.Context) (T, error)) (T, error) {
	if c != nil {
		if v, ok := c.Get(key); ok {
			if typed, ok := v.(T); ok {
				return typed, nil
			}
		}
	}

	var gen uint64
	if c != nil {
		gen = c.generation()
	}
	v, err := fn(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	if c != nil {
		c.setIfGeneration(key, v, gen)
	}
	return v, nil
}
