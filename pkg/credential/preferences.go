package credential

import (
	"context"
	"sync"
)

// Preferences は文字列のキーバリューを保存する設定値ストア。
type Preferences interface {
	// Get はキーに対応する値を返す。存在しない場合はokがfalseになる。
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	// Set はキーに値を保存する。
	Set(ctx context.Context, key, value string) error
	// Remove はキーを削除する。存在しないキーの削除はエラーにならない。
	Remove(ctx context.Context, key string) error
	// Clear は全てのキーを削除する。
	Clear(ctx context.Context) error
}

// MemoryPreferences はプロセス内のメモリに値を保持するPreferences。
type MemoryPreferences struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryPreferences は空のMemoryPreferencesを生成する。
func NewMemoryPreferences() *MemoryPreferences {
	return &MemoryPreferences{values: make(map[string]string)}
}

// Get はキーに対応する値を返す。
func (p *MemoryPreferences) Get(_ context.Context, key string) (string, bool, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	v, ok := p.values[key]
	return v, ok, nil
}

// Set はキーに値を保存する。
func (p *MemoryPreferences) Set(_ context.Context, key, value string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.values[key] = value
	return nil
}

// Remove はキーを削除する。
func (p *MemoryPreferences) Remove(_ context.Context, key string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.values, key)
	return nil
}

// Clear は全てのキーを削除する。
func (p *MemoryPreferences) Clear(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	clear(p.values)
	return nil
}
