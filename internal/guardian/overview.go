package guardian

import (
	"context"
	"fmt"
	"log"
	"math/big"

	"golang.org/x/sync/errgroup"
)

// overviewConcurrency はウォレット一覧を並行取得する最大数。
const overviewConcurrency = 4

// MemberOverview はメンバーとそのウォレットの要約。
type MemberOverview struct {
	Member       Member
	Wallets      []Wallet
	TotalBalance string
}

// Overview はダッシュボード表示用の全メンバーの残高要約。
// 合計残高は表示用であり、残高の計算はバックエンドが行う。
type Overview struct {
	Members      []MemberOverview
	TotalBalance string
	// Unparsed は残高を数値として読めず合計から除外したメンバーのID。
	Unparsed []string
}

// Overview は全メンバーのウォレット一覧を並行に取得して要約する。
// いずれかの取得が失敗した場合は最初のエラーを返す。
func (c *Client) Overview(ctx context.Context) (*Overview, error) {
	members, err := c.Members(ctx)
	if err != nil {
		return nil, err
	}

	out := &Overview{Members: make([]MemberOverview, len(members.Members))}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(overviewConcurrency)
	for i, m := range members.Members {
		out.Members[i].Member = m
		g.Go(func() error {
			w, err := c.Wallets(gctx, m.ID)
			if err != nil {
				return fmt.Errorf("ウォレットの取得に失敗: member=%s: %w", m.ID, err)
			}
			out.Members[i].Wallets = w.Wallets
			out.Members[i].TotalBalance = w.TotalBalance
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	total := new(big.Rat)
	for _, m := range out.Members {
		amount, ok := new(big.Rat).SetString(m.TotalBalance)
		if !ok {
			log.Printf("[guardian] 残高を解釈できないため合計から除外します: member=%s balance=%q", m.Member.ID, m.TotalBalance)
			out.Unparsed = append(out.Unparsed, m.Member.ID)
			continue
		}
		total.Add(total, amount)
	}
	out.TotalBalance = total.FloatString(2)
	return out, nil
}
