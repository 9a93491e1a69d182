// cmd/web/main.go
//
// Cadastro – HTTP entry point.
//
// Boot sequence
// -------------
//
//  1. Bootstrap console logger so config errors are visible.
//
//  2. Optional Vault client (when VAULT_ADDR is set) for `vault:` values.
//
//  3. Load config (conf/global.yaml + CADASTRO_ env), then start the
//     daily rotating file logger (tees to console in a TTY).
//
//  4. Option catalog, optional DB pool, message queue, GeoIP resolver,
//     CSRF guard, and the form Submitter that ties them together.
//
//  5. Init every registered component, apply its migrations when a DB is
//     configured, and mount its routes.
//
//  6. Serve with /metrics and /healthz until SIGINT/SIGTERM, then drain.
//
// Large comment blocks are framed by blank “//” lines; inline comments use
// a single “//”.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/yanizio/cadastro/internal/component"
	"github.com/yanizio/cadastro/internal/config"
	"github.com/yanizio/cadastro/internal/database"
	"github.com/yanizio/cadastro/internal/form"
	"github.com/yanizio/cadastro/internal/logger"
	"github.com/yanizio/cadastro/internal/message"
	"github.com/yanizio/cadastro/internal/middleware"
	"github.com/yanizio/cadastro/internal/options"
	"github.com/yanizio/cadastro/internal/requestinfo"
	"github.com/yanizio/cadastro/internal/server"
	"github.com/yanizio/cadastro/internal/vault"

	_ "github.com/yanizio/cadastro/components/registration"
)

func main() {
	zap.ReplaceGlobals(logger.Console("info").Desugar())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		zap.S().Errorw("cadastro exited", "err", err)
		_ = zap.S().Sync()
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	//
	// ── 1.  Secrets and config ─────────────────────────────────────────
	//
	var secrets config.SecretResolver
	if os.Getenv("VAULT_ADDR") != "" {
		vc, err := vault.New(ctx, zap.S())
		if err != nil {
			return fmt.Errorf("vault: %w", err)
		}
		secrets = vc
	}

	cfg, err := config.Load(ctx, secrets)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	log, err := logger.New(cfg.Abs(cfg.Log.Dir), cfg.Log.Level, logger.IsTTY(os.Stdout))
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	//
	// ── 2.  Shared resources ───────────────────────────────────────────
	//
	cat, err := loadCatalog(cfg)
	if err != nil {
		return err
	}

	env := component.Env{
		Log:      log,
		Catalog:  cat,
		FormDirs: []string{cfg.Abs(cfg.Forms.Dir)},
	}

	if cfg.Database.Enabled() {
		db, err := database.Open(ctx, cfg.DSN())
		if err != nil {
			return fmt.Errorf("database: %w", err)
		}
		defer db.Close()
		env.DB = db
		log.Infow("database online")
	}

	var queue message.Queue = message.NewLogQueue(log)
	if cfg.NATS.URL != "" {
		nq, err := message.DialNATS(cfg.NATS.URL, cfg.NATS.Name)
		if err != nil {
			return fmt.Errorf("nats: %w", err)
		}
		defer nq.Close()
		queue = nq
		log.Infow("nats connected", "url", cfg.NATS.URL)
	}

	resolver, err := requestinfo.NewResolver(cfg.Abs(cfg.GeoIP.DB))
	if err != nil {
		return err
	}
	defer resolver.Close()

	if len(cfg.CSRF.Key) < 32 {
		log.Warnw("csrf.key shorter than 32 bytes; using a per-process key")
	}
	env.Submitter = &form.Submitter{
		Guard: form.NewGuard([]byte(cfg.CSRF.Key), cfg.CSRF.MinAge, cfg.CSRF.MaxAge),
		Runner: &form.Runner{
			DB:     env.DB,
			Queue:  queue,
			Client: &http.Client{Timeout: 10 * time.Second},
			Log:    log,
		},
		Meta: resolver.Meta,
	}

	//
	// ── 3.  Router ─────────────────────────────────────────────────────
	//
	r := chi.NewRouter()
	r.Use(chimw.RequestID, chimw.RealIP, chimw.Recoverer)
	r.Use(middleware.AccessLog(log), middleware.Security, resolver.Middleware)

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if env.DB != nil {
			if err := env.DB.PingContext(r.Context()); err != nil {
				http.Error(w, "database unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		_, _ = w.Write([]byte("ok"))
	})

	for _, c := range component.All() {
		if err := c.Init(env); err != nil {
			return fmt.Errorf("component %s init: %w", c.Name(), err)
		}
		if env.DB != nil {
			if _, err := database.Migrate(ctx, env.DB, c.Name(), c.Migrations()); err != nil {
				return err
			}
		}
		r.Mount("/", c.Routes())
		log.Infow("component mounted", "component", c.Name())
	}

	//
	// ── 4.  Serve ──────────────────────────────────────────────────────
	//
	handler := middleware.ForceHTTPS(cfg.HTTP.ForceHTTPS, r)
	return server.Run(ctx, server.New(cfg.HTTP.ListenAddr, handler), log)
}

func loadCatalog(cfg *config.Config) (*options.Catalog, error) {
	if cfg.Options.File != "" {
		return options.LoadFile(cfg.Abs(cfg.Options.File))
	}
	return options.Default()
}
