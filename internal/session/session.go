// Package session はアプリケーション側の認証状態を管理する。
//
// Managerはログイン・登録・ログアウトの結果を資格情報ストアに反映し、
// 認証付きHTTPクライアントが配信するSessionEndedイベントを購読して
// 未認証状態へ戻す。
package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/nao1215/guardian/internal/guardian"
	"github.com/nao1215/guardian/pkg/event"
)

// API はManagerが使用するガーディアンAPIの操作。
type API interface {
	Login(ctx context.Context, req guardian.LoginRequest) (*guardian.LoginResponse, error)
	Register(ctx context.Context, req guardian.RegisterRequest) (*guardian.LoginResponse, error)
	Me(ctx context.Context) (*guardian.MeResponse, error)
	Logout(ctx context.Context) error
	InvalidateAll()
}

// Store はトークンとユーザー情報の保存先。
type Store interface {
	Token(ctx context.Context) (string, error)
	SetToken(ctx context.Context, token string) error
	RemoveToken(ctx context.Context) error
	User(ctx context.Context, v any) (bool, error)
	SetUser(ctx context.Context, user any) error
	RemoveUser(ctx context.Context) error
}

// State は認証状態のスナップショット。
type State struct {
	// Authenticated はログイン済みかどうか。
	Authenticated bool
	// User はログインユーザー。未認証の場合はnil。
	User *guardian.User
	// Guardian は保護者プロフィール。取得できなかった場合はnil。
	Guardian *guardian.Guardian
}

// Manager は認証状態を保持し、ログイン・ログアウトを仲介する。
type Manager struct {
	api   API
	store Store
	bus   *event.Bus

	mu    sync.RWMutex
	state State

	unsubscribe func()
}

// NewManager は新しいManagerを生成し、SessionEndedイベントの購読を開始する。
func NewManager(api API, store Store, bus *event.Bus) *Manager {
	m := &Manager{
		api:   api,
		store: store,
		bus:   bus,
	}
	m.unsubscribe = bus.SubscribeType(event.TypeSessionEnded, m.handleSessionEnded)
	return m
}

// Close はイベントの購読を解除する。
func (m *Manager) Close() {
	m.unsubscribe()
}

// State は現在の認証状態を返す。
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Init は保存済みのトークンから認証状態を復元する。
// トークンが無効な場合はトークンとユーザー情報を削除し、未認証状態で原因のエラーを返す。
func (m *Manager) Init(ctx context.Context) error {
	token, err := m.store.Token(ctx)
	if err != nil {
		return fmt.Errorf("トークンの読み込みに失敗: %w", err)
	}
	if token == "" {
		m.reset()
		return nil
	}

	me, err := m.api.Me(ctx)
	if err != nil {
		log.Printf("[Session] 認証状態の復元に失敗: %v", err)
		clearErr := m.clearLocal(ctx)
		m.reset()
		return errors.Join(err, clearErr)
	}

	user := me.User()
	if err := m.store.SetUser(ctx, user); err != nil {
		log.Printf("[Session] ユーザー情報の保存に失敗: %v", err)
	}
	m.set(State{Authenticated: true, User: &user, Guardian: me.Guardian})
	return nil
}

// Login はログインし、トークンとユーザー情報を保存する。
func (m *Manager) Login(ctx context.Context, req guardian.LoginRequest) error {
	resp, err := m.api.Login(ctx, req)
	if err != nil {
		return err
	}
	return m.start(ctx, resp)
}

// Register は保護者アカウントを登録し、そのままログイン状態にする。
func (m *Manager) Register(ctx context.Context, req guardian.RegisterRequest) error {
	resp, err := m.api.Register(ctx, req)
	if err != nil {
		return err
	}
	return m.start(ctx, resp)
}

// Logout はサーバー側のトークンを失効させ、ローカルの認証状態を破棄する。
// APIの失敗は無視し、ローカルの状態は必ず破棄する。
func (m *Manager) Logout(ctx context.Context) error {
	if err := m.api.Logout(ctx); err != nil {
		log.Printf("[Session] ログアウトAPIの呼び出しに失敗: %v", err)
	}
	err := m.clearLocal(ctx)
	m.reset()
	m.api.InvalidateAll()
	m.bus.PublishSessionEnded(ctx, event.EndReasonLogout)
	return err
}

// RefreshUser はユーザー情報を再取得する。失敗した場合は状態を変更せずにエラーを返す。
func (m *Manager) RefreshUser(ctx context.Context) error {
	me, err := m.api.Me(ctx)
	if err != nil {
		return err
	}
	user := me.User()

	m.mu.Lock()
	// 取得中にセッションが終了していた場合は復活させない
	authenticated := m.state.Authenticated
	if authenticated {
		m.state.User = &user
		m.state.Guardian = me.Guardian
	}
	m.mu.Unlock()

	if authenticated {
		if err := m.store.SetUser(ctx, user); err != nil {
			log.Printf("[Session] ユーザー情報の保存に失敗: %v", err)
		}
	}
	return nil
}

// start はログイン結果を保存し、SessionStartedイベントを配信する。
func (m *Manager) start(ctx context.Context, resp *guardian.LoginResponse) error {
	if err := m.store.SetToken(ctx, resp.Token); err != nil {
		return fmt.Errorf("トークンの保存に失敗: %w", err)
	}
	if err := m.store.SetUser(ctx, resp.User); err != nil {
		return fmt.Errorf("ユーザー情報の保存に失敗: %w", err)
	}

	user := resp.User
	g := resp.Guardian
	m.set(State{Authenticated: true, User: &user, Guardian: &g})
	log.Printf("[Session] ログインしました: user_id=%s", user.ID)

	e, err := event.New(event.SessionStartedData{UserID: user.ID, Email: user.Email})
	if err != nil {
		return err
	}
	m.bus.Publish(ctx, e)
	return nil
}

// handleSessionEnded はセッション終了時に状態とキャッシュを破棄する。
// トークンはHTTPクライアント側で削除済み。
func (m *Manager) handleSessionEnded(ctx context.Context, e *event.Event) {
	data, err := event.Decode[event.SessionEndedData](e)
	if err == nil && data.Reason == event.EndReasonLogout {
		return
	}
	log.Printf("[Session] セッションが終了しました")
	if err := m.store.RemoveUser(ctx); err != nil {
		log.Printf("[Session] ユーザー情報の削除に失敗: %v", err)
	}
	m.reset()
	m.api.InvalidateAll()
}

// clearLocal はトークンとユーザー情報を削除する。
func (m *Manager) clearLocal(ctx context.Context) error {
	return errors.Join(m.store.RemoveToken(ctx), m.store.RemoveUser(ctx))
}

func (m *Manager) set(s State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = s
}

func (m *Manager) reset() {
	m.set(State{})
}
