package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"shelfkeeper/m/internal/api"
	"shelfkeeper/m/internal/jobs"
	"shelfkeeper/m/internal/seed"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()
			return serve(cmd.Context(), a)
		},
	}
}

func serve(ctx context.Context, a *app) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if a.cfg.JWTSigningKey == "dev_secret" {
		a.log.Warn("JWT_SIGNING_KEY not set, using development key")
	}

	if a.cfg.SeedFile != "" {
		if _, err := seed.LoadBooksFile(ctx, a.catalog, a.cfg.SeedFile, a.log); err != nil {
			a.log.WithError(err).Warn("Catalog seeding failed")
		}
	}

	scheduler, err := jobs.NewScheduler(a.cfg.TokenFlushSchedule, jobs.NewFlushJob(a.identity, a.log), a.log)
	if err != nil {
		return err
	}
	scheduler.Start()
	defer func() { <-scheduler.Stop().Done() }()

	handler := api.New(a.identity, a.catalog, a.circulation, a.log, api.CORSOptions{
		AllowedOrigins:   a.cfg.CORSAllowedOrigins,
		AllowedMethods:   a.cfg.CORSAllowMethods,
		AllowedHeaders:   a.cfg.CORSAllowHeaders,
		AllowCredentials: a.cfg.CORSAllowCredentials,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", a.cfg.HTTPPort),
		Handler:      handler.Router(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Infof("Library server starting on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.log.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
