package guardian

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/nao1215/guardian/pkg/httpclient"
	"github.com/nao1215/guardian/pkg/querycache"
)

// DefaultPerPage は履歴系APIの1ページあたりのデフォルト件数。
const DefaultPerPage = 15

const walletsKey = "wallets"

// memberWalletsKey はメンバーのウォレット一覧のキャッシュキー。
func memberWalletsKey(memberID string) string {
	return querycache.Key(walletsKey, "member", memberID)
}

// depositsKey は入金履歴のキャッシュキー。
func depositsKey() string {
	return querycache.Key(walletsKey, "deposits")
}

// spendingLimitsKey は利用限度額のキャッシュキー。
func spendingLimitsKey(memberID string) string {
	return querycache.Key(walletsKey, "spending-limits", memberID)
}

// PageQuery は履歴系APIのページ指定。ゼロ値のフィールドは送信しない。
type PageQuery struct {
	// Page は1始まりのページ番号。
	Page int
	// PerPage は1ページあたりの件数。
	PerPage int
	// WalletID は取引履歴を絞り込むウォレットID。入金履歴では無視される。
	WalletID string
}

// values はクエリパラメータに変換する。
func (q PageQuery) values() url.Values {
	v := url.Values{}
	if q.PerPage > 0 {
		v.Set("per_page", strconv.Itoa(q.PerPage))
	}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.WalletID != "" {
		v.Set("wallet_id", q.WalletID)
	}
	return v
}

// Wallets はメンバーのウォレット一覧を取得する。
func (c *Client) Wallets(ctx context.Context, memberID string) (*WalletsResponse, error) {
	return querycache.Fetch(ctx, c.cache, memberWalletsKey(memberID), func(ctx context.Context) (*WalletsResponse, error) {
		return call[*WalletsResponse](ctx, c, &httpclient.Request{
			Path: "/guardian/members/" + url.PathEscape(memberID) + "/wallets",
		})
	})
}

// Topup はウォレットに入金する。
// 成功時はメンバーのウォレット一覧と入金履歴のキャッシュを破棄する。
func (c *Client) Topup(ctx context.Context, memberID, walletID string, req TopupRequest) (*TopupResponse, error) {
	if err := c.check(req); err != nil {
		return nil, err
	}
	resp, err := call[*TopupResponse](ctx, c, &httpclient.Request{
		Method: http.MethodPost,
		Path:   "/guardian/members/" + url.PathEscape(memberID) + "/wallets/" + url.PathEscape(walletID) + "/topup",
		Body:   req,
	})
	if err != nil {
		return nil, err
	}
	c.invalidate(memberWalletsKey(memberID), depositsKey())
	return resp, nil
}

// Transactions はメンバーの取引履歴を1ページ取得する。
func (c *Client) Transactions(ctx context.Context, memberID string, q PageQuery) (*TransactionsResponse, error) {
	query := q.values()
	key := querycache.Key(walletsKey, "transactions", memberID, query.Encode())
	return querycache.Fetch(ctx, c.cache, key, func(ctx context.Context) (*TransactionsResponse, error) {
		return call[*TransactionsResponse](ctx, c, &httpclient.Request{
			Path:  "/guardian/members/" + url.PathEscape(memberID) + "/transactions",
			Query: query,
		})
	})
}

// AllTransactions は最終ページまで取引履歴を取得する。q.Pageは無視される。
func (c *Client) AllTransactions(ctx context.Context, memberID string, q PageQuery) ([]Transaction, error) {
	if q.PerPage <= 0 {
		q.PerPage = DefaultPerPage
	}
	var all []Transaction
	for q.Page = 1; ; q.Page++ {
		resp, err := c.Transactions(ctx, memberID, q)
		if err != nil {
			return nil, err
		}
		all = append(all, resp.Transactions...)
		if !resp.Pagination.HasNext() {
			return all, nil
		}
	}
}

// Deposits は全メンバーの入金履歴を1ページ取得する。
func (c *Client) Deposits(ctx context.Context, q PageQuery) (*DepositsResponse, error) {
	q.WalletID = ""
	query := q.values()
	key := querycache.Key(depositsKey(), query.Encode())
	return querycache.Fetch(ctx, c.cache, key, func(ctx context.Context) (*DepositsResponse, error) {
		return call[*DepositsResponse](ctx, c, &httpclient.Request{
			Path:  "/guardian/deposits",
			Query: query,
		})
	})
}

// AllDeposits は最終ページまで入金履歴を取得する。
func (c *Client) AllDeposits(ctx context.Context, perPage int) ([]Deposit, error) {
	q := PageQuery{PerPage: perPage}
	if q.PerPage <= 0 {
		q.PerPage = DefaultPerPage
	}
	var all []Deposit
	for q.Page = 1; ; q.Page++ {
		resp, err := c.Deposits(ctx, q)
		if err != nil {
			return nil, err
		}
		all = append(all, resp.Deposits...)
		if !resp.Pagination.HasNext() {
			return all, nil
		}
	}
}

// SpendingLimits はメンバーの利用限度額一覧を取得する。
func (c *Client) SpendingLimits(ctx context.Context, memberID string) ([]SpendingLimit, error) {
	return querycache.Fetch(ctx, c.cache, spendingLimitsKey(memberID), func(ctx context.Context) ([]SpendingLimit, error) {
		return call[[]SpendingLimit](ctx, c, &httpclient.Request{
			Path: "/guardian/members/" + url.PathEscape(memberID) + "/spending-limits",
		})
	})
}

// CreateSpendingLimit は利用限度額を作成する。
func (c *Client) CreateSpendingLimit(ctx context.Context, memberID string, req CreateSpendingLimitRequest) (*SpendingLimit, error) {
	if err := c.check(req); err != nil {
		return nil, err
	}
	resp, err := call[*SpendingLimit](ctx, c, &httpclient.Request{
		Method: http.MethodPost,
		Path:   "/guardian/members/" + url.PathEscape(memberID) + "/spending-limits",
		Body:   req,
	})
	if err != nil {
		return nil, err
	}
	c.invalidate(spendingLimitsKey(memberID))
	return resp, nil
}

// UpdateSpendingLimit は利用限度額を更新する。
func (c *Client) UpdateSpendingLimit(ctx context.Context, memberID, limitID string, req UpdateSpendingLimitRequest) (*SpendingLimit, error) {
	if err := c.check(req); err != nil {
		return nil, err
	}
	resp, err := call[*SpendingLimit](ctx, c, &httpclient.Request{
		Method: http.MethodPut,
		Path:   "/guardian/members/" + url.PathEscape(memberID) + "/spending-limits/" + url.PathEscape(limitID),
		Body:   req,
	})
	if err != nil {
		return nil, err
	}
	c.invalidate(spendingLimitsKey(memberID))
	return resp, nil
}

// DeleteSpendingLimit は利用限度額を削除する。
func (c *Client) DeleteSpendingLimit(ctx context.Context, memberID, limitID string) error {
	_, err := c.http.Send(ctx, &httpclient.Request{
		Method: http.MethodDelete,
		Path:   "/guardian/members/" + url.PathEscape(memberID) + "/spending-limits/" + url.PathEscape(limitID),
	})
	if err != nil {
		return err
	}
	c.invalidate(spendingLimitsKey(memberID))
	return nil
}
