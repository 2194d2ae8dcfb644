package service

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"shelfkeeper/m/domain"
	"shelfkeeper/m/internal/auth"
	"shelfkeeper/m/internal/config"
	"shelfkeeper/m/internal/database"
	"shelfkeeper/m/internal/migrations"
	"shelfkeeper/m/internal/store"
)

type fixture struct {
	store       *store.Store
	issuer      *auth.Issuer
	identity    *IdentityService
	catalog     *CatalogService
	circulation *CirculationService
}

func newFixture(t *testing.T, rotate bool) *fixture {
	t.Helper()
	db, err := database.Connect(config.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, migrations.Run(db))

	log := logrus.New()
	log.SetOutput(io.Discard)

	st := store.New(db)
	issuer := auth.NewIssuer("test-key", time.Hour, 24*time.Hour)
	return &fixture{
		store:       st,
		issuer:      issuer,
		identity:    NewIdentityService(st, issuer, log, rotate),
		catalog:     NewCatalogService(st, log),
		circulation: NewCirculationService(st, log),
	}
}

func (f *fixture) register(t *testing.T, username, role string) domain.Profile {
	t.Helper()
	p, err := f.identity.Register(context.Background(), RegisterInput{
		Username: username,
		Email:    username + "@example.com",
		Password: "secret123",
		Role:     role,
	})
	require.NoError(t, err)
	return p
}

func (f *fixture) book(t *testing.T, title string) domain.Book {
	t.Helper()
	books, err := f.catalog.CreateBooks(context.Background(), []domain.NewBook{{Title: title, Author: "Author"}})
	require.NoError(t, err)
	require.Len(t, books, 1)
	return books[0]
}
