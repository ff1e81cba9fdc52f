package guardian

import (
	"context"
	"net/http"

	"github.com/nao1215/guardian/pkg/httpclient"
)

// Login はメールアドレスとパスワードでログインする。
// 返されたトークンの保存は呼び出し元の責務。
func (c *Client) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	if err := c.check(req); err != nil {
		return nil, err
	}
	return call[*LoginResponse](ctx, c, &httpclient.Request{
		Method: http.MethodPost,
		Path:   "/auth/guardian/login",
		Body:   req,
	})
}

// Register は保護者アカウントを登録する。
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*LoginResponse, error) {
	if err := c.check(req); err != nil {
		return nil, err
	}
	return call[*LoginResponse](ctx, c, &httpclient.Request{
		Method: http.MethodPost,
		Path:   "/auth/guardian/register",
		Body:   req,
	})
}

// Me は現在のユーザー情報を取得する。
func (c *Client) Me(ctx context.Context) (*MeResponse, error) {
	return call[*MeResponse](ctx, c, &httpclient.Request{Path: "/auth/me"})
}

// Profile は保護者プロフィールを取得する。
func (c *Client) Profile(ctx context.Context) (*ProfileResponse, error) {
	return call[*ProfileResponse](ctx, c, &httpclient.Request{Path: "/guardian/profile"})
}

// Logout はサーバー側のトークンを失効させる。
func (c *Client) Logout(ctx context.Context) error {
	_, err := c.http.Send(ctx, &httpclient.Request{
		Method: http.MethodPost,
		Path:   "/auth/logout",
	})
	return err
}

// Refresh は現在のトークンを新しいトークンと交換する。
// 401でも自動リフレッシュは行われない。
func (c *Client) Refresh(ctx context.Context) (*RefreshResponse, error) {
	return call[*RefreshResponse](ctx, c, &httpclient.Request{
		Method: http.MethodPost,
		Path:   httpclient.DefaultRefreshPath,
	})
}
