package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/nao1215/guardian/pkg/credential"
)

func newOverviewCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "overview",
		Short: "全メンバーの残高を要約して表示する",
		Args:  cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, _ []string) error {
			st, err := a.requireSession(cmd.Context())
			if err != nil {
				return err
			}
			ov, err := a.api.Overview(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Fprintf(a.out, "%s さんのメンバー\n\n", st.User.Name)
			t := newTable(a.out, "名前", "所属", "ウォレット数", "合計残高")
			for _, m := range ov.Members {
				t.Append([]string{
					m.Member.Name,
					m.Member.Organization.Name,
					fmt.Sprint(len(m.Wallets)),
					a.format.Currency(m.TotalBalance),
				})
			}
			t.Render()
			fmt.Fprintf(a.out, "\n総残高: %s\n", a.format.Currency(ov.TotalBalance))
			if len(ov.Unparsed) > 0 {
				color.New(color.FgYellow).Fprintf(a.errOut, "残高を読み取れなかった %d 人のメンバーは総残高に含まれていません\n", len(ov.Unparsed))
			}
			return nil
		}),
	}
}

func newThemeCommand(a *app) *cobra.Command {
	var colorTheme string

	cmd := &cobra.Command{
		Use:   "theme [light|dark]",
		Short: "表示テーマを表示・変更する",
		Args:  cobra.MaximumNArgs(1),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if len(args) == 1 {
				if err := a.store.SetTheme(ctx, credential.Theme(args[0])); err != nil {
					return err
				}
			}
			if colorTheme != "" {
				if err := a.store.SetColorTheme(ctx, credential.ColorTheme(colorTheme)); err != nil {
					return err
				}
			}

			theme, err := a.store.Theme(ctx)
			if err != nil {
				return err
			}
			accent, err := a.store.ColorTheme(ctx)
			if err != nil {
				return err
			}
			if theme == "" {
				theme = credential.ThemeLight
			}
			if accent == "" {
				accent = credential.ColorEmerald
			}
			fmt.Fprintf(a.out, "テーマ: %s\nアクセント: %s\n", theme, accent)
			return nil
		}),
	}
	cmd.Flags().StringVar(&colorTheme, "color", "", "アクセントカラー（emerald, blue, purple, orange）")
	return cmd
}
