// Package app はアプリケーションの起動と依存関係のワイヤリングを担う。
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/VexedElm035/tienda-keys/internal/cart"
	"github.com/VexedElm035/tienda-keys/internal/config"
	"github.com/VexedElm035/tienda-keys/internal/database"
	"github.com/VexedElm035/tienda-keys/internal/event"
	"github.com/VexedElm035/tienda-keys/internal/handler"
	"github.com/VexedElm035/tienda-keys/internal/logger"
	"github.com/VexedElm035/tienda-keys/internal/market"
	"github.com/VexedElm035/tienda-keys/internal/metrics"
	"github.com/VexedElm035/tienda-keys/internal/middleware"
	"github.com/VexedElm035/tienda-keys/internal/repository"
	"github.com/VexedElm035/tienda-keys/internal/security"
	"github.com/VexedElm035/tienda-keys/internal/session"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
		slog.String("base_url", cfg.BaseURL),
		slog.String("session_store", string(cfg.SessionStore)),
	)

	switch cmd {
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(cfg)
	}
}

// runServe はゲートウェイサーバーモードで起動する。
// セッション永続化バックエンドとマーケットAPIクライアントをワイヤリングし、
// HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	ctx := context.Background()

	// 1. セッション永続化バックエンドの選択
	stateRepo, cleanup, err := buildStateRepo(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to build session state backend: %w", err)
	}
	defer cleanup()

	// 2. マーケットAPIクライアントの構築
	ssrfGuard := security.NewSSRFGuard()

	var httpClient *http.Client
	if cfg.MarketAllowPrivate {
		// プライベートネットワーク上のマーケットAPI向けデプロイ
		httpClient = &http.Client{Timeout: cfg.MarketTimeout}
	} else {
		httpClient = ssrfGuard.NewSafeClient(cfg.MarketTimeout)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return fmt.Errorf("failed to create cookie jar: %w", err)
	}
	httpClient.Jar = jar

	// トークンソースはセッションストア構築後に解決される
	var sessions *session.Store
	tokenSource := func() string {
		if sessions == nil {
			return ""
		}
		return sessions.Current().Token
	}

	marketClient, err := market.NewClient(cfg.MarketAPIBaseURL, httpClient, slog.Default(), tokenSource)
	if err != nil {
		return fmt.Errorf("failed to build market client: %w", err)
	}

	// 3. セッションストアの構築（永続化状態の復元を含む）
	sessions, err = session.NewStore(ctx, stateRepo, marketClient, security.NewProfileSanitizer(), ssrfGuard, slog.Default())
	if err != nil {
		return fmt.Errorf("failed to restore session state: %w", err)
	}

	// 4. メトリクスとイベントバス
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	bus := event.NewBus()
	cartEvents, cancelCartEvents := bus.Subscribe(event.CartChanged)
	defer cancelCartEvents()
	go func() {
		for range cartEvents {
			slog.Debug("カート変更イベントを受信")
		}
	}()

	// 5. カートストア
	cartStore := cart.NewStore(marketClient, bus, collector, slog.Default())

	// 6. レート制限（req/min設定をreq/secへ変換）
	rlConfig := middleware.DefaultRateLimiterConfig()
	rlConfig.GeneralRate = rate.Limit(float64(cfg.RateLimitGeneral) / 60.0)
	rlConfig.GeneralBurst = cfg.RateLimitGeneral
	rlConfig.CartRate = rate.Limit(float64(cfg.RateLimitCart) / 60.0)
	rlConfig.CartBurst = cfg.RateLimitCart

	rateLimiter := middleware.NewRateLimiter(rlConfig)
	defer rateLimiter.Stop()

	// 7. ルーターの構築
	router := handler.NewRouter(&handler.RouterDeps{
		Sessions:          sessions,
		Cart:              cartStore,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		CSRFConfig: middleware.CSRFConfig{
			CookieSecure: cfg.CookieSecure,
			CookieDomain: cfg.CookieDomain,
		},
		RateLimiter: rateLimiter,
		Collector:   collector,
		Gatherer:    registry,
		Logger:      slog.Default(),
	})

	// 8. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("gateway server starting",
			slog.String("addr", server.Addr),
			slog.String("market_api", cfg.MarketAPIBaseURL),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("shutting down gateway server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("gateway server stopped gracefully")
	return nil
}

// buildStateRepo は設定に応じたセッション永続化バックエンドを構築する。
// 返されるcleanup関数はバックエンドの接続を閉じる（ファイルの場合は何もしない）。
func buildStateRepo(ctx context.Context, cfg *config.Config) (repository.SessionStateRepository, func(), error) {
	switch cfg.SessionStore {
	case config.SessionStorePostgres:
		db, err := database.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open database: %w", err)
		}
		if err := db.Ping(); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		slog.Info("database connection established")
		return repository.NewPostgresStateRepo(db), func() { db.Close() }, nil

	case config.SessionStoreRedis:
		client, err := repository.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, 5*time.Second)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		slog.Info("redis connection established", slog.String("addr", cfg.RedisAddr))
		return repository.NewRedisStateRepo(client), func() { client.Close() }, nil

	default:
		return repository.NewFileStateRepo(cfg.SessionFilePath), func() {}, nil
	}
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
// SESSION_STORE=postgres のデプロイでのみ意味を持つ。
func runMigrate(cfg *config.Config) error {
	if cfg.SessionStore != config.SessionStorePostgres {
		return fmt.Errorf("migrate command requires SESSION_STORE=postgres (current: %s)", cfg.SessionStore)
	}

	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
