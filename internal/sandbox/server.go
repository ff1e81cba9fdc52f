package sandbox

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"

	"github.com/nao1215/guardian/internal/guardian"
	"github.com/nao1215/guardian/pkg/middleware"
)

// purgeInterval は失効記録を掃除する間隔。
const purgeInterval = time.Hour

// shutdownTimeout はグレースフルシャットダウンの待機上限。
const shutdownTimeout = 10 * time.Second

// Config はサンドボックスサーバーの設定。
type Config struct {
	// Port はリッスンポート。
	Port int
	// DBPath はSQLiteファイルのパス。":memory:" も指定できる。
	DBPath string
	// JWTSecret はJWT署名用の秘密鍵。
	JWTSecret string
	// TokenTTL は発行するトークンの有効期間。
	TokenTTL time.Duration
	// RefreshWindow は期限切れのトークンをリフレッシュできる期間。
	RefreshWindow time.Duration
	// AllowedOrigins はCORSで許可するオリジン。
	AllowedOrigins []string
	// Demo は起動時に作成するデモ用アカウント。nilの場合は作成しない。
	Demo *DemoAccount
}

// DemoAccount はデモ用の保護者アカウント。
// 作成時にフィクスチャのメンバーが紐付けられる。
type DemoAccount struct {
	Name     string
	Email    string
	Password string
}

// Server はサンドボックスのHTTPサーバー。
type Server struct {
	// router はGinのHTTPルーター。
	router *gin.Engine
	// store はデータアクセス層。
	store *store
	// cfg はサーバー設定。
	cfg Config
}

// NewServer は新しいサンドボックスサーバーを生成する。
// データベースの初期化とデモアカウントの作成を行う。
func NewServer(ctx context.Context, cfg Config) (*Server, error) {
	st, err := openStore(ctx, cfg.DBPath)
	if err != nil {
		return nil, err
	}

	useJSONFieldNames()

	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.Recovery())
	router.Use(gin.Logger())
	router.Use(middleware.CORS(cfg.AllowedOrigins))

	s := &Server{
		router: router,
		store:  st,
		cfg:    cfg,
	}
	s.setupRoutes()

	if cfg.Demo != nil {
		if err := s.seedDemo(ctx, *cfg.Demo); err != nil {
			st.close()
			return nil, fmt.Errorf("デモアカウントの作成に失敗: %w", err)
		}
	}
	return s, nil
}

// Handler はHTTPハンドラーを返す。
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close はデータベース接続を閉じる。
func (s *Server) Close() error {
	return s.store.close()
}

// Run はHTTPサーバーを起動し、ctxがキャンセルされるまでリクエストを処理する。
// 期限切れの失効記録は定期的に削除する。
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTPサーバーの起動に失敗: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		ticker := time.NewTicker(purgeInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				n, err := s.store.purgeRevoked(gctx, time.Now())
				if err != nil {
					log.Printf("[Sandbox] 失効記録の削除に失敗: %v", err)
					continue
				}
				if n > 0 {
					log.Printf("[Sandbox] 失効記録を%d件削除しました", n)
				}
			}
		}
	})
	return g.Wait()
}

// setupRoutes はAPIルーティングを設定する。
func (s *Server) setupRoutes() {
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "sandbox"})
	})

	api := s.router.Group("/api/v1")

	// 認証不要のエンドポイント
	auth := api.Group("/auth")
	{
		auth.POST("/guardian/login", s.handleLogin())
		auth.POST("/guardian/register", s.handleRegister())
		// 期限切れのトークンを受け付けるため、JWTAuthは適用しない
		auth.POST("/refresh", s.handleRefresh())
	}

	authed := api.Group("")
	authed.Use(middleware.JWTAuth(s.cfg.JWTSecret, s.store.isRevoked))
	{
		authed.GET("/auth/me", s.handleMe())
		authed.POST("/auth/logout", s.handleLogout())

		authed.GET("/guardian/profile", s.handleProfile())
		authed.GET("/guardian/members", s.handleListMembers())
		authed.GET("/guardian/members/:id", s.handleGetMember())
		authed.GET("/guardian/members/:id/wallets", s.handleListWallets())
		authed.POST("/guardian/claim", s.handleClaimMember())
	}

	s.router.NoRoute(func(c *gin.Context) {
		fail(c, http.StatusNotFound, "エンドポイントが見つかりません")
	})
}

// seedDemo はデモアカウントを作成し、フィクスチャのメンバーを紐付ける。
// 既に存在する場合は何もしない。
func (s *Server) seedDemo(ctx context.Context, demo DemoAccount) error {
	if _, err := s.store.userByEmail(ctx, demo.Email); err == nil {
		return nil
	} else if !errors.Is(err, errNotFound) {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(demo.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("パスワードのハッシュ化に失敗: %w", err)
	}
	user, err := s.store.newUser(ctx, demo.Name, demo.Email, string(hash), "081234567890", "")
	if err != nil {
		return err
	}
	g, err := s.store.guardianByUserID(ctx, user.ID)
	if err != nil {
		return err
	}

	for _, fixture := range demoMembers {
		memberID, err := s.store.findMemberForClaim(ctx, fixture.nisn, fixture.name)
		if err != nil {
			return fmt.Errorf("フィクスチャのメンバーが見つかりません: nisn=%s: %w", fixture.nisn, err)
		}
		if _, err := s.store.linkMember(ctx, g.ID, memberID, guardian.RelationshipParent); err != nil {
			return err
		}
	}
	log.Printf("[Sandbox] デモアカウントを作成しました: %s", demo.Email)
	return nil
}

// demoMembers はデモアカウントに紐付けるフィクスチャのメンバー。
var demoMembers = []struct {
	nisn string
	name string
}{
	{nisn: "0051234567", name: "Andi Pratama"},
	{nisn: "0059876543", name: "Sari Lestari"},
}
