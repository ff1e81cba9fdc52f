// 開発用サンドボックスサーバーのエントリポイント。
// ガーディアンAPIの認証系と参照系エンドポイントをローカルで提供する。
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/nao1215/guardian/internal/config"
	"github.com/nao1215/guardian/internal/sandbox"
)

func main() {
	configPath := flag.String("config", "", "設定ファイルのパス")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("設定の読み込みに失敗: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sc := sandbox.Config{
		Port:           cfg.Sandbox.Port,
		DBPath:         cfg.Sandbox.DBPath,
		JWTSecret:      cfg.Sandbox.JWTSecret,
		TokenTTL:       cfg.Sandbox.TokenTTL,
		RefreshWindow:  cfg.Sandbox.RefreshWindow,
		AllowedOrigins: cfg.Sandbox.AllowedOrigins,
	}
	if cfg.Sandbox.Demo.Enabled {
		sc.Demo = &sandbox.DemoAccount{
			Name:     cfg.Sandbox.Demo.Name,
			Email:    cfg.Sandbox.Demo.Email,
			Password: cfg.Sandbox.Demo.Password,
		}
	}

	server, err := sandbox.NewServer(ctx, sc)
	if err != nil {
		log.Fatalf("サンドボックスサーバーの初期化に失敗: %v", err)
	}
	defer server.Close()

	log.Printf("サンドボックスサーバーを起動します: :%d", cfg.Sandbox.Port)
	if err := server.Run(ctx); err != nil {
		log.Fatalf("サンドボックスサーバーの起動に失敗: %v", err)
	}
	log.Printf("サンドボックスサーバーを停止しました")
}
