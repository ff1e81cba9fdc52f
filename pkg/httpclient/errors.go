package httpclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind はクライアントが返すエラーの分類。
type ErrorKind string

const (
	// KindNetwork はレスポンスを受け取れなかった通信エラーを表す。
	KindNetwork ErrorKind = "network"
	// KindAuth はバックエンドが認証失敗（401）を返したことを表す。
	KindAuth ErrorKind = "auth"
	// KindValidation はフィールド単位のエラーを伴うクライアントエラーを表す。
	KindValidation ErrorKind = "validation"
	// KindServer はその他の2xx以外のステータスを表す。
	KindServer ErrorKind = "server"
)

// 分類判定用のセンチネル。errors.Is(err, ErrAuth) のように使う。
var (
	ErrNetwork    = &Error{Kind: KindNetwork}
	ErrAuth       = &Error{Kind: KindAuth}
	ErrValidation = &Error{Kind: KindValidation}
	ErrServer     = &Error{Kind: KindServer}
)

// ErrNilRequest はSendにnilのリクエストが渡されたことを表す。どの分類にも属さない。
var ErrNilRequest = errors.New("リクエストがnilです")

var (
	// errNoCredential はリフレッシュ時に資格情報が存在しなかったことを表す。
	errNoCredential = errors.New("リフレッシュに使用するトークンがありません")
	// errCredentialCleared は送信後に資格情報が削除されていたことを表す。
	errCredentialCleared = errors.New("資格情報は既に削除されています")
)

// Error はバックエンド通信の失敗を表す。
type Error struct {
	// Kind はエラーの分類。
	Kind ErrorKind
	// StatusCode はHTTPステータスコード。通信エラーの場合は0。
	StatusCode int
	// Message はバックエンドが返したメッセージ。
	Message string
	// Fields はバリデーションエラーのフィールド別メッセージ。
	Fields map[string][]string
	// Err は原因となったエラー。
	Err error
}

// Error はエラーメッセージを返す。
func (e *Error) Error() string {
	switch {
	case e.StatusCode != 0 && e.Message != "":
		return fmt.Sprintf("%sエラー: status=%d, message=%s", e.Kind, e.StatusCode, e.Message)
	case e.StatusCode != 0:
		return fmt.Sprintf("%sエラー: status=%d", e.Kind, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("%sエラー: %v", e.Kind, e.Err)
	default:
		return fmt.Sprintf("%sエラー", e.Kind)
	}
}

// Unwrap は原因となったエラーを返す。
func (e *Error) Unwrap() error {
	return e.Err
}

// Is は分類が一致する場合にtrueを返す。
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// IsAuth はerrが認証エラーかどうかを返す。
func IsAuth(err error) bool {
	return errors.Is(err, ErrAuth)
}

// errorBody はエラーレスポンスのJSON構造。
type errorBody struct {
	Success bool                `json:"success"`
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors,omitempty"`
}

// newStatusError はステータスコードとレスポンスボディから分類済みのエラーを生成する。
// 422、またはフィールドエラーを伴う4xxはバリデーションエラーとして扱う。
func newStatusError(status int, body []byte) *Error {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil {
		eb.Message = http.StatusText(status)
	}

	e := &Error{
		StatusCode: status,
		Message:    eb.Message,
		Fields:     eb.Errors,
	}
	switch {
	case status == http.StatusUnauthorized:
		e.Kind = KindAuth
	case status == http.StatusUnprocessableEntity,
		status >= 400 && status < 500 && len(eb.Errors) > 0:
		e.Kind = KindValidation
	default:
		e.Kind = KindServer
	}
	return e
}

// newNetworkError は通信エラーを生成する。
func newNetworkError(err error) *Error {
	return &Error{Kind: KindNetwork, Err: err}
}

// newAuthError はリフレッシュ失敗などによる認証エラーを生成する。
func newAuthError(err error) *Error {
	return &Error{Kind: KindAuth, StatusCode: http.StatusUnauthorized, Message: "セッションの有効期限が切れました", Err: err}
}

// NewValidationError は送信前の検証で見つかったフィールド別エラーを生成する。
func NewValidationError(message string, fields map[string][]string) *Error {
	return &Error{Kind: KindValidation, Message: message, Fields: fields}
}
