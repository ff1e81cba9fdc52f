package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
)

// refreshState はリフレッシュの実行状態。
// inFlightがtrueの間に401を受けたリクエストはwaitersに積まれ、
// 実行中のリフレッシュの結果を登録順に受け取る。
type refreshState struct {
	mu       sync.Mutex
	inFlight bool
	waiters  []chan refreshResult
}

// refreshResult はリフレッシュの結果。
type refreshResult struct {
	token string
	err   error
}

// refreshPayload はリフレッシュエンドポイントのレスポンス。
// トークンはdata配下またはトップレベルのどちらかに入っている。
type refreshPayload struct {
	Data *struct {
		Token     string `json:"token"`
		TokenType string `json:"token_type"`
	} `json:"data"`
	Token string `json:"token"`
}

// freshToken は再送に使用するトークンを返す。
// staleはリクエスト送信時に付与したトークン。ストアのトークンが既に別のものに
// 置き換わっていればリフレッシュせずにそれを使い、既に削除されていれば
// 再度のリフレッシュやセッション終了通知を行わずに認証エラーを返す。
func (c *Client) freshToken(ctx context.Context, stale string) (string, error) {
	c.refresh.mu.Lock()
	if c.refresh.inFlight {
		ch := make(chan refreshResult, 1)
		c.refresh.waiters = append(c.refresh.waiters, ch)
		c.refresh.mu.Unlock()

		select {
		case res := <-ch:
			return res.token, res.err
		case <-ctx.Done():
			return "", newNetworkError(ctx.Err())
		}
	}

	// リフレッシュ完了時はフラグを下ろす前にストアを更新しているため、
	// ロック内で読めば完了済みのリフレッシュの結果を必ず観測できる。
	current, err := c.credentials.Token(ctx)
	if err != nil {
		c.refresh.mu.Unlock()
		return "", fmt.Errorf("資格情報の読み込みに失敗: %w", err)
	}
	switch {
	case current != "" && current != stale:
		c.refresh.mu.Unlock()
		return current, nil
	case current == "" && stale != "":
		c.refresh.mu.Unlock()
		return "", newAuthError(errCredentialCleared)
	}
	c.refresh.inFlight = true
	c.refresh.mu.Unlock()

	// 呼び出し元のキャンセルで待機中の全リクエストが巻き込まれないようにする。
	token, err := c.refreshCredential(context.WithoutCancel(ctx))
	if err != nil {
		log.Printf("[httpclient] トークンのリフレッシュに失敗: %v", err)
		c.endSession(context.WithoutCancel(ctx))
		err = newAuthError(err)
	}

	c.refresh.mu.Lock()
	waiters := c.refresh.waiters
	c.refresh.waiters = nil
	c.refresh.inFlight = false
	c.refresh.mu.Unlock()

	for _, w := range waiters {
		w <- refreshResult{token: token, err: err}
	}
	return token, err
}

// refreshCredential はストアのトークンを新しいトークンと交換し、ストアに保存する。
// 自身のSendを経由せずに直接送信する。
func (c *Client) refreshCredential(ctx context.Context) (string, error) {
	current, err := c.credentials.Token(ctx)
	if err != nil {
		return "", fmt.Errorf("資格情報の読み込みに失敗: %w", err)
	}
	if current == "" {
		return "", errNoCredential
	}

	log.Printf("[httpclient] トークンをリフレッシュします")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+c.refreshPath, bytes.NewReader([]byte("{}")))
	if err != nil {
		return "", fmt.Errorf("リフレッシュリクエストの作成に失敗: %w", err)
	}
	c.applyHeaders(ctx, req, current)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", newNetworkError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", newNetworkError(fmt.Errorf("レスポンスの読み取りに失敗: %w", err))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", newStatusError(resp.StatusCode, body)
	}

	var payload refreshPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", fmt.Errorf("リフレッシュレスポンスのデシリアライズに失敗: %w", err)
	}
	token := payload.Token
	if payload.Data != nil && payload.Data.Token != "" {
		token = payload.Data.Token
	}
	if token == "" {
		return "", errors.New("リフレッシュレスポンスにトークンが含まれていません")
	}

	if err := c.credentials.SetToken(ctx, token); err != nil {
		return "", fmt.Errorf("新しいトークンの保存に失敗: %w", err)
	}
	return token, nil
}

// endSession は資格情報を削除し、セッション終了を通知する。
func (c *Client) endSession(ctx context.Context) {
	if err := c.credentials.RemoveToken(ctx); err != nil {
		log.Printf("[httpclient] トークンの削除に失敗: %v", err)
	}
	log.Printf("[httpclient] セッションを終了します")
	c.notifier.NotifySessionEnded(ctx)
}
