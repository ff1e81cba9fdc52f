package event

import (
	"encoding/json"
	"time"
)

// Type はイベントの種類を表す。
type Type string

const (
	// TypeSessionStarted はログインまたは登録によりセッションが開始されたことを表す。
	TypeSessionStarted Type = "SessionStarted"
	// TypeSessionEnded は保存されたトークンが無効になり、再認証が必要になったことを表す。
	TypeSessionEnded Type = "SessionEnded"
)

// EndReason はセッションが終了した理由を表す。
type EndReason string

const (
	// EndReasonRefreshFailed はトークンのリフレッシュに失敗したことを表す。
	EndReasonRefreshFailed EndReason = "refresh_failed"
	// EndReasonLogout はユーザーがログアウトしたことを表す。
	EndReasonLogout EndReason = "logout"
)

// Event はアプリケーション内で配信されるイベントを表す。
type Event struct {
	// ID はイベントの一意識別子（UUID）。
	ID string `json:"id"`
	// Type はイベントの種類。
	Type Type `json:"type"`
	// Data はイベント固有のデータ（JSON形式）。
	Data json.RawMessage `json:"data,omitempty"`
	// CreatedAt はイベントが作成された日時。
	CreatedAt time.Time `json:"created_at"`
}

// SessionStartedData はSessionStartedイベントのデータ。
type SessionStartedData struct {
	// UserID はログインしたユーザーのID。
	UserID string `json:"user_id"`
	// Email はログインしたユーザーのメールアドレス。
	Email string `json:"email"`
}

// SessionEndedData はSessionEndedイベントのデータ。
type SessionEndedData struct {
	// Reason はセッションが終了した理由。
	Reason EndReason `json:"reason"`
}
