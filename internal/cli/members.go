package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nao1215/guardian/internal/guardian"
)

func newMembersCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "members",
		Short: "紐付け済みのメンバー一覧を表示する",
		Args:  cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, _ []string) error {
			if _, err := a.requireSession(cmd.Context()); err != nil {
				return err
			}
			resp, err := a.api.Members(cmd.Context())
			if err != nil {
				return err
			}

			t := newTable(a.out, "ID", "名前", "番号", "所属", "クラス", "続柄")
			for _, m := range resp.Members {
				t.Append([]string{m.ID, m.Name, m.MemberNumber, m.Organization.Name, m.ClassName, string(m.Relationship)})
			}
			t.Render()
			fmt.Fprintf(a.out, "%d件\n", resp.Count)
			return nil
		}),
	}
}

func newMemberCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "member <member-id>",
		Short: "メンバーの詳細を表示する",
		Args:  cobra.ExactArgs(1),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			if _, err := a.requireSession(cmd.Context()); err != nil {
				return err
			}
			m, err := a.api.Member(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			fmt.Fprintf(a.out, "名前:   %s\n", m.Name)
			fmt.Fprintf(a.out, "番号:   %s\n", m.MemberNumber)
			fmt.Fprintf(a.out, "所属:   %s\n", m.Organization.Name)
			fmt.Fprintf(a.out, "クラス: %s\n", m.ClassName)
			fmt.Fprintf(a.out, "誕生日: %s\n", a.format.Date(m.BirthDate))
			fmt.Fprintf(a.out, "権限:   主保護者=%t 入金=%t 取引閲覧=%t 限度額設定=%t\n",
				m.Permissions.IsPrimary, m.Permissions.CanTopup, m.Permissions.CanViewTransactions, m.Permissions.CanSetLimits)
			if len(m.Wallets) > 0 {
				fmt.Fprintln(a.out)
				a.renderWallets(m.Wallets)
			}
			return nil
		}),
	}
}

func newClaimCommand(a *app) *cobra.Command {
	var req guardian.ClaimMemberRequest
	var relationship string

	cmd := &cobra.Command{
		Use:   "claim",
		Short: "NISNと氏名でメンバーの紐付けを申請する",
		Args:  cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, _ []string) error {
			if _, err := a.requireSession(cmd.Context()); err != nil {
				return err
			}
			req.Relationship = guardian.Relationship(relationship)
			resp, err := a.api.ClaimMember(cmd.Context(), req)
			if err != nil {
				return err
			}
			a.success("%s の紐付けを申請しました（%s）", resp.Member.Name, resp.ClaimStatus)
			return nil
		}),
	}
	cmd.Flags().StringVar(&req.NISN, "nisn", "", "生徒番号（NISN）")
	cmd.Flags().StringVar(&req.Name, "name", "", "メンバーの氏名")
	cmd.Flags().StringVar(&relationship, "relationship", string(guardian.RelationshipParent), "続柄（parent, guardian, other）")
	return cmd
}
