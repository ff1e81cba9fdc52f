package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nao1215/guardian/internal/guardian"
)

func newWalletsCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "wallets <member-id>",
		Short: "メンバーのウォレット一覧を表示する",
		Args:  cobra.ExactArgs(1),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			if _, err := a.requireSession(cmd.Context()); err != nil {
				return err
			}
			resp, err := a.api.Wallets(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "%s (%s)\n\n", resp.Member.Name, resp.Member.MemberNumber)
			a.renderWallets(resp.Wallets)
			fmt.Fprintf(a.out, "\n合計残高: %s\n", a.format.Currency(resp.TotalBalance))
			return nil
		}),
	}
}

func newTopupCommand(a *app) *cobra.Command {
	var req guardian.TopupRequest

	cmd := &cobra.Command{
		Use:   "topup <member-id> <wallet-id>",
		Short: "ウォレットに入金する",
		Args:  cobra.ExactArgs(2),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			if _, err := a.requireSession(cmd.Context()); err != nil {
				return err
			}
			req.Password = passwordOrEnv(req.Password)
			resp, err := a.api.Topup(cmd.Context(), args[0], args[1], req)
			if err != nil {
				return err
			}
			a.success("%s に %s を入金しました", resp.Member.Name, a.format.Currency(resp.Wallet.AmountAdded))
			fmt.Fprintf(a.out, "残高: %s → %s\n",
				a.format.Currency(resp.Wallet.BalanceBefore), a.format.Currency(resp.Wallet.BalanceAfter))
			return nil
		}),
	}
	cmd.Flags().Int64Var(&req.Amount, "amount", 0, "入金額（ルピア）")
	cmd.Flags().StringVar(&req.Password, "password", "", "確認用パスワード（省略時は"+passwordEnv+"）")
	cmd.Flags().StringVar(&req.Notes, "notes", "", "メモ")
	return cmd
}

func newTransactionsCommand(a *app) *cobra.Command {
	var (
		q   guardian.PageQuery
		all bool
	)

	cmd := &cobra.Command{
		Use:   "transactions <member-id>",
		Short: "メンバーの取引履歴を表示する",
		Args:  cobra.ExactArgs(1),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			if _, err := a.requireSession(cmd.Context()); err != nil {
				return err
			}

			var (
				txs        []guardian.Transaction
				pagination *guardian.PaginationMeta
			)
			if all {
				list, err := a.api.AllTransactions(cmd.Context(), args[0], q)
				if err != nil {
					return err
				}
				txs = list
			} else {
				resp, err := a.api.Transactions(cmd.Context(), args[0], q)
				if err != nil {
					return err
				}
				txs, pagination = resp.Transactions, &resp.Pagination
			}

			t := newTable(a.out, "日時", "コード", "種類", "店舗", "金額", "状態")
			for _, tx := range txs {
				tenant := "-"
				if tx.Tenant != nil {
					tenant = tx.Tenant.Name
				}
				t.Append([]string{
					a.format.DateTime(tx.CreatedAt),
					tx.TransactionCode,
					tx.TransactionType,
					tenant,
					a.format.Currency(tx.Amount),
					tx.Status,
				})
			}
			t.Render()
			printPagination(a, pagination, len(txs))
			return nil
		}),
	}
	cmd.Flags().IntVar(&q.Page, "page", 1, "ページ番号")
	cmd.Flags().IntVar(&q.PerPage, "per-page", guardian.DefaultPerPage, "1ページあたりの件数")
	cmd.Flags().StringVar(&q.WalletID, "wallet", "", "ウォレットIDで絞り込む")
	cmd.Flags().BoolVar(&all, "all", false, "全ページを取得する")
	return cmd
}

func newDepositsCommand(a *app) *cobra.Command {
	var (
		q   guardian.PageQuery
		all bool
	)

	cmd := &cobra.Command{
		Use:   "deposits",
		Short: "入金履歴を表示する",
		Args:  cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, _ []string) error {
			if _, err := a.requireSession(cmd.Context()); err != nil {
				return err
			}

			var (
				deposits   []guardian.Deposit
				pagination *guardian.PaginationMeta
			)
			if all {
				list, err := a.api.AllDeposits(cmd.Context(), q.PerPage)
				if err != nil {
					return err
				}
				deposits = list
			} else {
				resp, err := a.api.Deposits(cmd.Context(), q)
				if err != nil {
					return err
				}
				deposits, pagination = resp.Deposits, &resp.Pagination
			}

			t := newTable(a.out, "日時", "コード", "メンバー", "ウォレット", "方法", "金額", "状態")
			for _, d := range deposits {
				t.Append([]string{
					a.format.DateTime(d.CreatedAt),
					d.DepositCode,
					d.Member.Name,
					d.Wallet.WalletTypeLabel,
					d.PaymentMethodLabel,
					a.format.Currency(d.Amount),
					d.StatusLabel,
				})
			}
			t.Render()
			printPagination(a, pagination, len(deposits))
			return nil
		}),
	}
	cmd.Flags().IntVar(&q.Page, "page", 1, "ページ番号")
	cmd.Flags().IntVar(&q.PerPage, "per-page", guardian.DefaultPerPage, "1ページあたりの件数")
	cmd.Flags().BoolVar(&all, "all", false, "全ページを取得する")
	return cmd
}

// printPagination はページ情報を出力する。pがnilの場合は件数のみを出力する。
func printPagination(a *app, p *guardian.PaginationMeta, n int) {
	if p == nil {
		fmt.Fprintf(a.out, "%d件\n", n)
		return
	}
	fmt.Fprintf(a.out, "%d / %d ページ（全%d件）\n", p.CurrentPage, p.LastPage, p.Total)
}
