package httpclient

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// Response はバックエンドから受け取った2xxレスポンス。
type Response struct {
	// StatusCode はHTTPステータスコード。
	StatusCode int
	// Header はレスポンスヘッダー。
	Header http.Header
	// Body はレスポンスボディ。
	Body []byte
}

// Envelope はバックエンドのすべてのレスポンスを包む共通構造。
type Envelope[T any] struct {
	// Success は処理が成功したかどうか。
	Success bool `json:"success"`
	// Message はバックエンドからのメッセージ。
	Message string `json:"message"`
	// Data はレスポンス本体。
	Data T `json:"data"`
}

// Decode はレスポンスボディをEnvelopeとしてデシリアライズする。
// ボディが空の場合はゼロ値のEnvelopeを返す。
func Decode[T any](resp *Response) (*Envelope[T], error) {
	var env Envelope[T]
	if resp == nil || len(resp.Body) == 0 {
		return &env, nil
	}
	if err := json.Unmarshal(resp.Body, &env); err != nil {
		return nil, fmt.Errorf("レスポンスボディのデシリアライズに失敗: %w", err)
	}
	return &env, nil
}
