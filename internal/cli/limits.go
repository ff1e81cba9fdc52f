package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nao1215/guardian/internal/guardian"
)

func newLimitsCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "limits",
		Short: "ウォレットの利用限度額を管理する",
	}
	cmd.AddCommand(
		newLimitsListCommand(a),
		newLimitsCreateCommand(a),
		newLimitsUpdateCommand(a),
		newLimitsDeleteCommand(a),
	)
	return cmd
}

func newLimitsListCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list <member-id>",
		Short: "利用限度額の一覧を表示する",
		Args:  cobra.ExactArgs(1),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			if _, err := a.requireSession(cmd.Context()); err != nil {
				return err
			}
			limits, err := a.api.SpendingLimits(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			t := newTable(a.out, "ID", "期間", "金額", "有効")
			for _, l := range limits {
				t.Append([]string{l.ID, string(l.LimitType), a.format.Currency(l.Amount), fmt.Sprint(l.IsActive)})
			}
			t.Render()
			return nil
		}),
	}
}

func newLimitsCreateCommand(a *app) *cobra.Command {
	var (
		req       guardian.CreateSpendingLimitRequest
		limitType string
	)

	cmd := &cobra.Command{
		Use:   "create <member-id>",
		Short: "利用限度額を作成する",
		Args:  cobra.ExactArgs(1),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			if _, err := a.requireSession(cmd.Context()); err != nil {
				return err
			}
			req.LimitType = guardian.LimitType(limitType)
			l, err := a.api.CreateSpendingLimit(cmd.Context(), args[0], req)
			if err != nil {
				return err
			}
			a.success("利用限度額を作成しました: %s %s", l.LimitType, a.format.Currency(l.Amount))
			return nil
		}),
	}
	cmd.Flags().StringVar(&req.WalletID, "wallet", "", "ウォレットID")
	cmd.Flags().StringVar(&limitType, "type", string(guardian.LimitDaily), "期間（daily, weekly, monthly, per_transaction）")
	cmd.Flags().Int64Var(&req.Amount, "amount", 0, "限度額（ルピア）")
	cmd.Flags().BoolVar(&req.IsActive, "active", true, "有効にする")
	return cmd
}

func newLimitsUpdateCommand(a *app) *cobra.Command {
	var (
		amount int64
		active bool
	)

	cmd := &cobra.Command{
		Use:   "update <member-id> <limit-id>",
		Short: "利用限度額を更新する",
		Args:  cobra.ExactArgs(2),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			if _, err := a.requireSession(cmd.Context()); err != nil {
				return err
			}
			// 指定されたフラグだけを送信する
			var req guardian.UpdateSpendingLimitRequest
			if cmd.Flags().Changed("amount") {
				req.Amount = &amount
			}
			if cmd.Flags().Changed("active") {
				req.IsActive = &active
			}
			l, err := a.api.UpdateSpendingLimit(cmd.Context(), args[0], args[1], req)
			if err != nil {
				return err
			}
			a.success("利用限度額を更新しました: %s %s（有効: %t）", l.LimitType, a.format.Currency(l.Amount), l.IsActive)
			return nil
		}),
	}
	cmd.Flags().Int64Var(&amount, "amount", 0, "限度額（ルピア）")
	cmd.Flags().BoolVar(&active, "active", true, "有効にする")
	return cmd
}

func newLimitsDeleteCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <member-id> <limit-id>",
		Short: "利用限度額を削除する",
		Args:  cobra.ExactArgs(2),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			if _, err := a.requireSession(cmd.Context()); err != nil {
				return err
			}
			if err := a.api.DeleteSpendingLimit(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			a.success("利用限度額を削除しました")
			return nil
		}),
	}
}
