package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"visitor-gate/internal/adapters/auth/jwtsession"
	"visitor-gate/internal/adapters/auth/remote"
	"visitor-gate/internal/adapters/authority"
	"visitor-gate/internal/config"
	"visitor-gate/internal/platform/logger"
	"visitor-gate/internal/platform/metrics"
	"visitor-gate/internal/ports/auth"
	"visitor-gate/internal/router"
)

func main() {
	log := logger.NewFromEnv()

	cfg := config.FromEnv()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid config", map[string]any{"err": err})
		os.Exit(1)
	}

	metrics.Init()

	client, err := authority.NewClient(authority.Config{
		BaseURL: cfg.BackendURL,
		Timeout: cfg.BackendTimeout,
		Token:   cfg.BackendToken,
		Observe: metrics.ObserveAuthority,
	})
	if err != nil {
		log.Error("authority client", map[string]any{"err": err})
		os.Exit(1)
	}

	verifier, err := newVerifier(cfg, client)
	if err != nil {
		log.Error("auth verifier", map[string]any{"err": err})
		os.Exit(1)
	}

	gw, err := router.NewRouter(router.Options{
		AuthVerifier: verifier,
		Config:       cfg,
		Logger:       log,
		Authority:    client,
	})
	if err != nil {
		log.Error("router", map[string]any{"err": err})
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           gw,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		// approve/deny + detect pueden sumar dos llamadas a la autoridad
		WriteTimeout: 2*cfg.BackendTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("starting server", map[string]any{
			"addr":      cfg.HTTPAddr,
			"backend":   cfg.BackendURL,
			"auth_mode": string(cfg.AuthMode),
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", map[string]any{"err": err})
			os.Exit(1)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	log.Info("shutting down", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(shutdownCtx)
	gw.Close()

	log.Info("stopped", nil)
}

// newVerifier devuelve nil en modo dev (headers X-Debug-*).
func newVerifier(cfg config.Config, client *authority.Client) (auth.AuthVerifier, error) {
	switch cfg.AuthMode {
	case config.AuthJWT:
		v, err := jwtsession.NewVerifier(cfg.SessionSecret)
		if err != nil {
			return nil, err
		}
		return v, nil
	case config.AuthRemote:
		return remote.NewVerifier(client), nil
	default:
		return nil, nil
	}
}
