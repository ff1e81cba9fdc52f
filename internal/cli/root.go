// Package cli はガーディアンウォレットのコマンドラインインターフェースを提供する。
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"maps"
	"os"
	"path/filepath"
	"slices"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/nao1215/guardian/internal/config"
	"github.com/nao1215/guardian/internal/format"
	"github.com/nao1215/guardian/internal/guardian"
	"github.com/nao1215/guardian/internal/session"
	"github.com/nao1215/guardian/pkg/credential"
	"github.com/nao1215/guardian/pkg/event"
	"github.com/nao1215/guardian/pkg/httpclient"
	"github.com/nao1215/guardian/pkg/querycache"
)

// errNotLoggedIn はログインが必要なコマンドを未認証で実行したことを表す。
var errNotLoggedIn = errors.New("ログインしていません。`guardian login` を実行してください")

// app はコマンド実行中に共有する依存関係。
type app struct {
	cfg     *config.Config
	prefs   *credential.SQLitePreferences
	store   *credential.Store
	bus     *event.Bus
	api     *guardian.Client
	session *session.Manager
	format  *format.Formatter
	out     io.Writer
	errOut  io.Writer
}

// newApp は設定から依存関係を組み立てる。
func newApp(ctx context.Context, cfg *config.Config, out, errOut io.Writer) (*app, error) {
	if cfg.Storage.Path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.Storage.Path), 0o700); err != nil {
			return nil, fmt.Errorf("保存先ディレクトリの作成に失敗: %w", err)
		}
	}
	prefs, err := credential.OpenSQLite(ctx, cfg.Storage.Path)
	if err != nil {
		return nil, err
	}
	store := credential.NewStore(prefs)
	bus := event.NewBus()

	opts := []httpclient.Option{
		httpclient.WithCredentialStore(store),
		httpclient.WithSessionNotifier(bus),
		httpclient.WithTimeout(cfg.API.Timeout),
	}
	if cfg.API.SkipBrowserWarning {
		opts = append(opts, httpclient.WithHeader("ngrok-skip-browser-warning", "true"))
	}
	api := guardian.New(
		httpclient.New(cfg.API.BaseURL, opts...),
		querycache.New(querycache.WithTTL(cfg.Cache.TTL)),
	)

	a := &app{
		cfg:    cfg,
		prefs:  prefs,
		store:  store,
		bus:    bus,
		api:    api,
		format: format.New(),
		out:    out,
		errOut: errOut,
	}
	a.session = session.NewManager(api, store, bus)
	bus.SubscribeType(event.TypeSessionEnded, a.onSessionEnded)
	return a, nil
}

// close は購読とデータベース接続を解放する。
func (a *app) close() error {
	a.session.Close()
	return a.prefs.Close()
}

// run はコマンド本体を実行し、終了時に依存関係を解放するRunEを返す。
func (a *app) run(fn func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		defer func() {
			if err := a.close(); err != nil {
				log.Printf("[CLI] 終了処理に失敗: %v", err)
			}
		}()
		return fn(cmd, args)
	}
}

// onSessionEnded はリフレッシュ失敗によるセッション終了時に再ログインを促す。
func (a *app) onSessionEnded(_ context.Context, e *event.Event) {
	data, err := event.Decode[event.SessionEndedData](e)
	if err != nil || data.Reason != event.EndReasonRefreshFailed {
		return
	}
	color.New(color.FgYellow).Fprintln(a.errOut, "セッションの有効期限が切れました。`guardian login` で再度ログインしてください")
}

// requireSession は保存済みのトークンから認証状態を復元し、未認証ならエラーを返す。
func (a *app) requireSession(ctx context.Context) (session.State, error) {
	if err := a.session.Init(ctx); err != nil {
		if httpclient.IsAuth(err) {
			return session.State{}, errNotLoggedIn
		}
		return session.State{}, err
	}
	st := a.session.State()
	if !st.Authenticated {
		return session.State{}, errNotLoggedIn
	}
	return st, nil
}

// success は成功メッセージを出力する。
func (a *app) success(msg string, args ...any) {
	color.New(color.FgGreen).Fprintf(a.out, msg+"\n", args...)
}

// NewRootCommand はguardianコマンドのルートを生成する。
func NewRootCommand() *cobra.Command {
	var (
		configPath string
		verbose    bool
		a          = new(app)
	)

	cmd := &cobra.Command{
		Use:           "guardian",
		Short:         "ガーディアンウォレットのクライアント",
		Long:          "guardian は保護者が子どものウォレット残高や取引履歴を確認し、入金や利用限度額を管理するためのクライアントです。",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if !verbose {
				log.SetOutput(io.Discard)
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			built, err := newApp(cmd.Context(), cfg, cmd.OutOrStdout(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			*a = *built
			cmd.SetContext(httpclient.WithRequestID(cmd.Context(), uuid.New().String()))
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", "", "設定ファイルのパス")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "通信ログを表示する")

	cmd.AddCommand(
		newLoginCommand(a),
		newRegisterCommand(a),
		newLogoutCommand(a),
		newMeCommand(a),
		newMembersCommand(a),
		newMemberCommand(a),
		newClaimCommand(a),
		newWalletsCommand(a),
		newTopupCommand(a),
		newTransactionsCommand(a),
		newDepositsCommand(a),
		newLimitsCommand(a),
		newOverviewCommand(a),
		newThemeCommand(a),
	)
	return cmd
}

// Execute はルートコマンドを実行し、エラーを分類して表示する。
func Execute(ctx context.Context) int {
	cmd := NewRootCommand()
	if err := cmd.ExecuteContext(ctx); err != nil {
		printError(cmd.ErrOrStderr(), err)
		return 1
	}
	return 0
}

// printError はエラーを分類に応じた形式で出力する。
func printError(w io.Writer, err error) {
	red := color.New(color.FgRed)

	var apiErr *httpclient.Error
	if !errors.As(err, &apiErr) {
		red.Fprintf(w, "エラー: %v\n", err)
		return
	}

	switch apiErr.Kind {
	case httpclient.KindNetwork:
		red.Fprintf(w, "サーバーに接続できません: %v\n", apiErr.Err)
	case httpclient.KindAuth:
		red.Fprintf(w, "認証エラー: %s\n", apiErr.Message)
	case httpclient.KindValidation:
		red.Fprintf(w, "入力エラー: %s\n", apiErr.Message)
		for _, field := range slices.Sorted(maps.Keys(apiErr.Fields)) {
			for _, m := range apiErr.Fields[field] {
				fmt.Fprintf(w, "  %s: %s\n", field, m)
			}
		}
	default:
		red.Fprintf(w, "サーバーエラー (%d): %s\n", apiErr.StatusCode, apiErr.Message)
	}
}
