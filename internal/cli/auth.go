package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nao1215/guardian/internal/guardian"
)

// passwordEnv はパスワードをフラグの代わりに渡す環境変数。
const passwordEnv = "GUARDIAN_PASSWORD"

// passwordOrEnv はフラグが空の場合に環境変数のパスワードを返す。
func passwordOrEnv(flag string) string {
	if flag != "" {
		return flag
	}
	return os.Getenv(passwordEnv)
}

func newLoginCommand(a *app) *cobra.Command {
	var req guardian.LoginRequest

	cmd := &cobra.Command{
		Use:   "login",
		Short: "メールアドレスとパスワードでログインする",
		Args:  cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, _ []string) error {
			req.Password = passwordOrEnv(req.Password)
			if err := a.session.Login(cmd.Context(), req); err != nil {
				return err
			}
			st := a.session.State()
			a.success("ログインしました: %s <%s>", st.User.Name, st.User.Email)
			return nil
		}),
	}
	cmd.Flags().StringVar(&req.Email, "email", "", "メールアドレス")
	cmd.Flags().StringVar(&req.Password, "password", "", "パスワード（省略時は"+passwordEnv+"）")
	cmd.Flags().StringVar(&req.DeviceName, "device", "guardian-cli", "端末名")
	return cmd
}

func newRegisterCommand(a *app) *cobra.Command {
	var req guardian.RegisterRequest

	cmd := &cobra.Command{
		Use:   "register",
		Short: "保護者アカウントを登録する",
		Args:  cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, _ []string) error {
			req.Password = passwordOrEnv(req.Password)
			if req.PasswordConfirmation == "" {
				req.PasswordConfirmation = req.Password
			}
			if err := a.session.Register(cmd.Context(), req); err != nil {
				return err
			}
			st := a.session.State()
			a.success("登録しました: %s <%s>", st.User.Name, st.User.Email)
			return nil
		}),
	}
	cmd.Flags().StringVar(&req.Name, "name", "", "氏名")
	cmd.Flags().StringVar(&req.Email, "email", "", "メールアドレス")
	cmd.Flags().StringVar(&req.Password, "password", "", "パスワード（省略時は"+passwordEnv+"）")
	cmd.Flags().StringVar(&req.PasswordConfirmation, "password-confirmation", "", "確認用パスワード（省略時はパスワードと同じ）")
	cmd.Flags().StringVar(&req.Phone, "phone", "", "電話番号")
	cmd.Flags().StringVar(&req.NIK, "nik", "", "住民番号（16桁）")
	return cmd
}

func newLogoutCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "ログアウトする",
		Args:  cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, _ []string) error {
			if err := a.session.Logout(cmd.Context()); err != nil {
				return err
			}
			a.success("ログアウトしました")
			return nil
		}),
	}
}

func newMeCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "me",
		Short: "ログイン中のユーザー情報を表示する",
		Args:  cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, _ []string) error {
			st, err := a.requireSession(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "名前:     %s\n", st.User.Name)
			fmt.Fprintf(a.out, "メール:   %s\n", st.User.Email)
			if g := st.Guardian; g != nil {
				fmt.Fprintf(a.out, "電話番号: %s\n", deref(g.Phone))
				fmt.Fprintf(a.out, "認証済み: %t\n", g.IsVerified)
				fmt.Fprintf(a.out, "登録日:   %s\n", a.format.Date(g.CreatedAt))
			}
			return nil
		}),
	}
}

// deref は文字列ポインタの値を返す。nilの場合は "-" を返す。
func deref(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}
