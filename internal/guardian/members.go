package guardian

import (
	"context"
	"net/http"
	"net/url"

	"github.com/nao1215/guardian/pkg/httpclient"
	"github.com/nao1215/guardian/pkg/querycache"
)

const membersKey = "members"

// Members は紐付け済みのメンバー一覧を取得する。
func (c *Client) Members(ctx context.Context) (*MembersResponse, error) {
	return querycache.Fetch(ctx, c.cache, querycache.Key(membersKey, "list"), func(ctx context.Context) (*MembersResponse, error) {
		return call[*MembersResponse](ctx, c, &httpclient.Request{Path: "/guardian/members"})
	})
}

// Member はメンバーの詳細を取得する。
func (c *Client) Member(ctx context.Context, memberID string) (*Member, error) {
	return querycache.Fetch(ctx, c.cache, querycache.Key(membersKey, "detail", memberID), func(ctx context.Context) (*Member, error) {
		return call[*Member](ctx, c, &httpclient.Request{Path: "/guardian/members/" + url.PathEscape(memberID)})
	})
}

// ClaimMember はメンバーとの紐付けを申請する。成功時はメンバーのキャッシュを破棄する。
func (c *Client) ClaimMember(ctx context.Context, req ClaimMemberRequest) (*ClaimMemberResponse, error) {
	if err := c.check(req); err != nil {
		return nil, err
	}
	resp, err := call[*ClaimMemberResponse](ctx, c, &httpclient.Request{
		Method: http.MethodPost,
		Path:   "/guardian/claim",
		Body:   req,
	})
	if err != nil {
		return nil, err
	}
	c.invalidate(membersKey)
	return resp, nil
}
