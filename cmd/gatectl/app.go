package main

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"strings"
	"time"

	"visitor-gate/internal/adapters/authority"
	mem "visitor-gate/internal/adapters/storage/memory"
	pg "visitor-gate/internal/adapters/storage/postgres"
	"visitor-gate/internal/config"
	"visitor-gate/internal/domain/approvals"
	"visitor-gate/internal/domain/guardrequests"
	"visitor-gate/internal/platform/logger"

	"github.com/spf13/cobra"
)

// app junta lo que comparten los subcomandos. Se arma en PersistentPreRunE.
type app struct {
	cfg config.Config

	backendURL string
	token      string
	timeout    time.Duration
	verbose    bool

	log    logger.Logger
	client *authority.Client

	db          *sql.DB
	submissions guardrequests.SubmissionRepository
	decisions   approvals.DecisionRepository
}

func (a *app) bindFlags(cmd *cobra.Command) {
	a.cfg = config.FromEnv()

	token := os.Getenv("GATE_TOKEN")
	if token == "" {
		token = a.cfg.BackendToken
	}

	cmd.PersistentFlags().StringVar(&a.backendURL, "backend", a.cfg.BackendURL, "Visitor backend base URL (including /api)")
	cmd.PersistentFlags().StringVar(&a.token, "token", token, "Bearer token forwarded to the backend (env GATE_TOKEN)")
	cmd.PersistentFlags().DurationVar(&a.timeout, "timeout", a.cfg.BackendTimeout, "Backend request timeout")
	cmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Log to stderr at debug level")
}

func (a *app) init() error {
	level := logger.Warn
	if a.verbose {
		level = logger.Debug
	}
	a.log = logger.New(logger.Options{
		Level:  level,
		Format: logger.ParseFormat(os.Getenv("LOG_FORMAT")),
		App:    "gatectl",
		Out:    os.Stderr,
	})

	client, err := authority.NewClient(authority.Config{
		BaseURL: strings.TrimSpace(a.backendURL),
		Timeout: a.timeout,
		Token:   a.token,
	})
	if err != nil {
		return err
	}
	a.client = client

	a.submissions = mem.NewSubmissionRepo()
	a.decisions = mem.NewDecisionRepo()
	return nil
}

// openJournal cambia el journal a Postgres si hay DB_DSN.
func (a *app) openJournal(required bool) error {
	if a.cfg.DBDSN == "" {
		if required {
			return errors.New("DB_DSN is not set")
		}
		return nil
	}
	db, err := pg.Open(a.cfg.DBDSN)
	if err != nil {
		if required {
			return err
		}
		a.log.Warn("journal db unavailable, using memory", map[string]any{"err": err})
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pg.EnsureSchema(ctx, db); err != nil {
		_ = db.Close()
		return err
	}

	a.db = db
	a.submissions = pg.NewSubmissionsRepo(db)
	a.decisions = pg.NewDecisionsRepo(db)
	return nil
}

func (a *app) close() {
	if a.db != nil {
		_ = a.db.Close()
	}
}
