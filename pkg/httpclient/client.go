package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultTimeout はHTTPリクエスト全体のデフォルトタイムアウト。
const DefaultTimeout = 30 * time.Second

// DefaultRefreshPath はトークンリフレッシュエンドポイントのパス。
const DefaultRefreshPath = "/auth/refresh"

// CredentialStore はBearerトークンを保持する外部ストア。
// トークンが存在しない場合、Tokenは空文字列を返す。
type CredentialStore interface {
	Token(ctx context.Context) (string, error)
	SetToken(ctx context.Context, token string) error
	RemoveToken(ctx context.Context) error
}

// SessionNotifier はセッション終了を購読者に通知する。
type SessionNotifier interface {
	NotifySessionEnded(ctx context.Context)
}

// Client はガーディアンAPI用の認証付きHTTPクライアント。
type Client struct {
	// httpClient は内部で使用するHTTPクライアント。
	httpClient *http.Client
	// baseURL は接続先APIのベースURL（例: "http://localhost:8001/api/v1"）。
	baseURL string
	// headers は全リクエストに付与する共通ヘッダー。
	headers http.Header
	// credentials はBearerトークンの読み書き先。
	credentials CredentialStore
	// notifier はリフレッシュ失敗時の通知先。
	notifier SessionNotifier
	// refreshPath はトークンリフレッシュエンドポイントのパス。
	refreshPath string
	// exempt は401を受けてもリフレッシュしないパスかどうかを判定する。
	exempt func(path string) bool
	// refresh はリフレッシュの実行状態と待機キュー。
	refresh refreshState
}

// Option はClientの設定を変更する関数。
type Option func(*Client)

// WithHTTPClient は内部で使用するHTTPクライアントを差し替える。
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout はHTTPリクエストのタイムアウトを設定する。
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithHeader は全リクエストに付与するヘッダーを追加する。
func WithHeader(key, value string) Option {
	return func(c *Client) {
		c.headers.Set(key, value)
	}
}

// WithCredentialStore はBearerトークンのストアを設定する。
func WithCredentialStore(s CredentialStore) Option {
	return func(c *Client) {
		if s != nil {
			c.credentials = s
		}
	}
}

// WithSessionNotifier はセッション終了の通知先を設定する。
func WithSessionNotifier(n SessionNotifier) Option {
	return func(c *Client) {
		if n != nil {
			c.notifier = n
		}
	}
}

// WithRefreshPath はトークンリフレッシュエンドポイントのパスを変更する。
func WithRefreshPath(path string) Option {
	return func(c *Client) {
		c.refreshPath = path
	}
}

// WithExemptFunc は401でリフレッシュを行わないパスの判定関数を差し替える。
func WithExemptFunc(f func(path string) bool) Option {
	return func(c *Client) {
		if f != nil {
			c.exempt = f
		}
	}
}

// New は新しい認証付きHTTPクライアントを生成する。
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		baseURL:     strings.TrimSuffix(baseURL, "/"),
		headers:     make(http.Header),
		credentials: nopStore{},
		notifier:    nopNotifier{},
		refreshPath: DefaultRefreshPath,
		exempt:      IsAuthEndpoint,
	}
	c.headers.Set("Content-Type", "application/json")
	c.headers.Set("Accept", "application/json")

	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL は接続先APIのベースURLを返す。
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Request は送信するAPIリクエストの記述子。
type Request struct {
	// Method はHTTPメソッド。空の場合はGET。
	Method string
	// Path はベースURLからの相対パス。
	Path string
	// Query はクエリパラメータ。
	Query url.Values
	// Body はJSONにシリアライズされるリクエストボディ。
	Body any
	// Header はこのリクエストだけに付与するヘッダー。
	Header http.Header
}

// Send はリクエストを送信し、2xxレスポンスを返す。
// 認証エラーを受けた場合はトークンをリフレッシュして1回だけ再送する。
// reqがnilの場合はErrNilRequestを返す。
func (c *Client) Send(ctx context.Context, req *Request) (*Response, error) {
	if req == nil {
		return nil, fmt.Errorf("リクエストを送信できません: %w", ErrNilRequest)
	}
	body, err := encodeBody(req.Body)
	if err != nil {
		return nil, err
	}

	token, err := c.credentials.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("資格情報の読み込みに失敗: %w", err)
	}

	resp, err := c.dispatch(ctx, req, body, token)
	if err == nil {
		return resp, nil
	}
	if !IsAuth(err) || c.exempt(req.Path) {
		return nil, err
	}

	fresh, err := c.freshToken(ctx, token)
	if err != nil {
		return nil, err
	}
	// 再送は1回のみ。再送でも401なら認証エラーで終了する。
	return c.dispatch(ctx, req, body, fresh)
}

// PostJSON は指定パスにJSONボディでPOSTリクエストを送信する。
// レスポンスボディをresultにデシリアライズする。
func (c *Client) PostJSON(ctx context.Context, path string, body any, result any) error {
	return c.doJSON(ctx, http.MethodPost, path, body, result)
}

// PutJSON は指定パスにJSONボディでPUTリクエストを送信する。
func (c *Client) PutJSON(ctx context.Context, path string, body any, result any) error {
	return c.doJSON(ctx, http.MethodPut, path, body, result)
}

// GetJSON は指定パスにGETリクエストを送信する。
// レスポンスボディをresultにデシリアライズする。
func (c *Client) GetJSON(ctx context.Context, path string, result any) error {
	return c.doJSON(ctx, http.MethodGet, path, nil, result)
}

// DeleteJSON は指定パスにDELETEリクエストを送信する。
func (c *Client) DeleteJSON(ctx context.Context, path string, result any) error {
	return c.doJSON(ctx, http.MethodDelete, path, nil, result)
}

// doJSON はJSON形式のHTTPリクエストを実行する共通処理。
func (c *Client) doJSON(ctx context.Context, method, path string, body any, result any) error {
	resp, err := c.Send(ctx, &Request{Method: method, Path: path, Body: body})
	if err != nil {
		return err
	}
	if result != nil && len(resp.Body) > 0 {
		if err := json.Unmarshal(resp.Body, result); err != nil {
			return fmt.Errorf("レスポンスボディのデシリアライズに失敗: %w", err)
		}
	}
	return nil
}

// dispatch はリクエストを1回だけ送信する。tokenが空の場合はAuthorizationヘッダーを付けない。
func (c *Client) dispatch(ctx context.Context, req *Request, body []byte, token string) (*Response, error) {
	target := c.baseURL + req.Path
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}

	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, target, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("HTTPリクエストの作成に失敗: %w", err)
	}
	c.applyHeaders(ctx, httpReq, token)
	for key, values := range req.Header {
		httpReq.Header.Del(key)
		for _, v := range values {
			httpReq.Header.Add(key, v)
		}
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, newNetworkError(err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, newNetworkError(fmt.Errorf("レスポンスの読み取りに失敗: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, newStatusError(resp.StatusCode, respBody)
	}
	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       respBody,
	}, nil
}

// applyHeaders は共通ヘッダー、リクエストID、Bearerトークンを設定する。
func (c *Client) applyHeaders(ctx context.Context, req *http.Request, token string) {
	for key, values := range c.headers {
		req.Header[key] = append([]string(nil), values...)
	}
	if requestID, ok := ctx.Value(contextKeyRequestID).(string); ok {
		req.Header.Set("X-Request-ID", requestID)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

// encodeBody はリクエストボディをJSONにシリアライズする。nilの場合はnilを返す。
func encodeBody(body any) ([]byte, error) {
	if body == nil {
		return nil, nil
	}
	b, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("リクエストボディのシリアライズに失敗: %w", err)
	}
	return b, nil
}

// IsAuthEndpoint はpathがログイン、登録、リフレッシュのいずれかのエンドポイントかを返す。
// これらのエンドポイントが返す401はリフレッシュせずにそのまま呼び出し元へ返す。
func IsAuthEndpoint(path string) bool {
	path, _, _ = strings.Cut(path, "?")
	path = "/" + strings.Trim(path, "/")
	if !strings.Contains(path, "/auth/") {
		return false
	}
	for _, suffix := range []string{"/login", "/register", "/refresh"} {
		if strings.HasSuffix(path, suffix) {
			return true
		}
	}
	return false
}

// contextKey はコンテキストキーの型。
type contextKey string

// contextKeyRequestID はコンテキストにリクエストIDを格納するためのキー。
const contextKeyRequestID contextKey = "request_id"

// WithRequestID はコンテキストにリクエストIDを設定する。
// 設定されている場合、X-Request-IDヘッダーとして送信される。
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, contextKeyRequestID, requestID)
}

type nopStore struct{}

func (nopStore) Token(context.Context) (string, error) { return "", nil }

func (nopStore) SetToken(context.Context, string) error { return nil }

func (nopStore) RemoveToken(context.Context) error { return nil }

type nopNotifier struct{}

func (nopNotifier) NotifySessionEnded(context.Context) {}
