package router

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"visitor-gate/internal/adapters/authority"
	mem "visitor-gate/internal/adapters/storage/memory"
	pg "visitor-gate/internal/adapters/storage/postgres"
	"visitor-gate/internal/config"
	_ "visitor-gate/internal/docs"
	"visitor-gate/internal/domain/approvals"
	"visitor-gate/internal/domain/guardrequests"
	"visitor-gate/internal/domain/recurring"
	"visitor-gate/internal/domain/statuscheck"
	"visitor-gate/internal/middleware"
	"visitor-gate/internal/platform/logger"
	"visitor-gate/internal/platform/metrics"
	"visitor-gate/internal/ports/auth"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"
)

type Options struct {
	AuthVerifier auth.AuthVerifier // puede ser nil (modo dev)

	Config config.Config
	Logger logger.Logger

	// Opcional: si no viene, se arma con Config.BackendURL.
	Authority *authority.Client

	// Opcional: si viene, el journal va a Postgres. Si no, in-memory.
	DB *sql.DB
}

// Gateway es el handler HTTP más lo que hay que cerrar en el shutdown.
type Gateway struct {
	http.Handler

	sessions *approvals.Sessions
	ownedDB  *sql.DB
}

// Close detiene los pollers de los residents y cierra la DB si la abrió el router.
func (g *Gateway) Close() {
	g.sessions.Close()
	if g.ownedDB != nil {
		_ = g.ownedDB.Close()
	}
}

func NewRouter(opts Options) (*Gateway, error) {
	log := opts.Logger
	if log == nil {
		log = logger.NewFromEnv()
	}
	cfg := opts.Config

	metrics.Init()

	client := opts.Authority
	if client == nil {
		c, err := authority.NewClient(authority.Config{
			BaseURL: cfg.BackendURL,
			Timeout: cfg.BackendTimeout,
			Token:   cfg.BackendToken,
			Observe: metrics.ObserveAuthority,
		})
		if err != nil {
			return nil, err
		}
		client = c
	}

	var (
		submissions guardrequests.SubmissionRepository
		decisions   approvals.DecisionRepository
	)

	// Si no te pasan DB explícita, intenta con DB_DSN
	db := opts.DB
	var owned *sql.DB
	if db == nil && cfg.DBDSN != "" {
		opened, err := pg.Open(cfg.DBDSN)
		if err != nil {
			log.Warn("journal db unavailable, using memory", map[string]any{"err": err})
		} else {
			db = opened
			owned = opened
		}
	}
	if db != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := pg.EnsureSchema(ctx, db)
		cancel()
		if err != nil {
			log.Warn("journal schema failed, using memory", map[string]any{"err": err})
			db = nil
			if owned != nil {
				_ = owned.Close()
				owned = nil
			}
		}
	}

	if db != nil {
		submissions = pg.NewSubmissionsRepo(db)
		decisions = pg.NewDecisionsRepo(db)
	} else {
		submissions = mem.NewSubmissionRepo()
		decisions = mem.NewDecisionRepo()
	}

	// Services por módulo
	sessions := approvals.NewSessions(client, decisions, log.With(map[string]any{"module": "approvals"}))
	orchestrator := guardrequests.NewOrchestrator(client, submissions, log.With(map[string]any{"module": "guardrequests"}), guardrequests.Options{
		DetectTimeout: cfg.DetectTimeout,
	})
	statusSvc := statuscheck.NewService(client)
	recurringSvc := recurring.NewService(client, cfg.Location, log.With(map[string]any{"module": "recurring"}))

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(metrics.Instrument)

	r.Use(middleware.AuthContext(opts.AuthVerifier))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", metrics.Handler())
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	// Rutas por módulo
	r.Group(func(gr chi.Router) {
		gr.Use(middleware.RequireRole(auth.RoleGuard))

		guardrequests.RegisterRoutes(gr, orchestrator, client)

		gr.Group(func(sr chi.Router) {
			sr.Use(middleware.RateLimit(cfg.SearchRatePerSec, cfg.SearchBurst))
			statuscheck.RegisterRoutes(sr, statusSvc)
		})
	})

	r.Group(func(rr chi.Router) {
		rr.Use(middleware.RequireRole(auth.RoleResident))

		approvals.RegisterRoutes(rr, sessions, approvals.HandlerOptions{
			DefaultWindow: cfg.DefaultApprovalWindow,
		})
		recurring.RegisterRoutes(rr, recurringSvc)
		guardrequests.RegisterResidentRoutes(rr, orchestrator)
	})

	return &Gateway{Handler: r, sessions: sessions, ownedDB: owned}, nil
}
