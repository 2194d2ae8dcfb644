package main

import (
	"fmt"
	"os"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"shelfkeeper/m/internal/auth"
	"shelfkeeper/m/internal/config"
	"shelfkeeper/m/internal/database"
	"shelfkeeper/m/internal/logging"
	"shelfkeeper/m/internal/migrations"
	"shelfkeeper/m/internal/service"
	"shelfkeeper/m/internal/store"
)

// app holds the wired components shared by the subcommands.
type app struct {
	cfg         config.Config
	log         *logrus.Logger
	db          *sqlx.DB
	identity    *service.IdentityService
	catalog     *service.CatalogService
	circulation *service.CirculationService
}

func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	log := logging.New(cfg.LogLevel, os.Stderr)

	db, err := database.Connect(cfg.DBDriver, cfg.DatabaseDSN)
	if err != nil {
		return nil, err
	}
	if err := migrations.Run(db); err != nil {
		db.Close()
		return nil, err
	}

	st := store.New(db)
	issuer := auth.NewIssuer(cfg.JWTSigningKey, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)

	return &app{
		cfg:         cfg,
		log:         log,
		db:          db,
		identity:    service.NewIdentityService(st, issuer, log, cfg.RotateRefreshTokens),
		catalog:     service.NewCatalogService(st, log),
		circulation: service.NewCirculationService(st, log),
	}, nil
}

func (a *app) Close() error {
	return a.db.Close()
}
