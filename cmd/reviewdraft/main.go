package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	githubadapter "github.com/ericfisherdev/reviewdraft/internal/adapter/driven/github"
	"github.com/ericfisherdev/reviewdraft/internal/adapter/driven/logfile"
	sqliteadapter "github.com/ericfisherdev/reviewdraft/internal/adapter/driven/sqlite"
	"github.com/ericfisherdev/reviewdraft/internal/application"
	"github.com/ericfisherdev/reviewdraft/internal/cli"
	"github.com/ericfisherdev/reviewdraft/internal/config"
	"github.com/ericfisherdev/reviewdraft/internal/domain/port/driven"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load configuration (data dir defaults to ~/.reviewdraft).
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// 2. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Open database (dual reader/writer with WAL mode).
	db, err := sqliteadapter.NewDB(cfg.DBPath())
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()

	// 4. Run migrations on writer connection.
	if err := sqliteadapter.RunMigrations(db.Writer); err != nil {
		return err
	}

	// 5. Wire adapters.
	store := sqliteadapter.NewDraftRepo(db)
	mirror, err := logfile.NewMirror(cfg.LogDir())
	if err != nil {
		return err
	}

	// 6. Create GitHub client (nil without a token; drafting still works,
	// submission and remote titles do not).
	var github driven.GitHubClient
	if cfg.HasGitHubToken() {
		github = githubadapter.NewClient(cfg.GitHubToken)
	} else {
		slog.Info("no GitHub token configured, running in local-only mode")
	}

	// 7. Wire services and dispatch.
	drafts := application.NewDraftService(store, mirror, github)
	app := &cli.App{Drafts: drafts}
	if github != nil {
		app.Submit = application.NewSubmitService(drafts, github, cfg.SubmitDelay)
	}

	return cli.NewRootCmd(app).ExecuteContext(ctx)
}
