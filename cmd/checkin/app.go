package main

import (
	"context"
	"fmt"
	"os"

	"github.com/labstack/gommon/log"
	"gorm.io/gorm"

	"checador/internal/client/api"
	"checador/internal/client/authenticator"
	"checador/internal/client/localstore"
	"checador/internal/client/session"
	"checador/internal/config"
)

// app holds the client collaborators for one command run.
type app struct {
	cfg    *config.ClientConfig
	db     *gorm.DB
	api    *api.Client
	local  *localstore.Store
	auth   *authenticator.Authenticator
	logger *log.Logger
}

func newApp(ctx context.Context, verbose bool) (*app, error) {
	cfg := config.LoadClient()

	logger := log.New("checkin")
	logger.SetOutput(os.Stderr)
	logger.SetLevel(log.WARN)
	if verbose {
		logger.SetLevel(log.DEBUG)
	}

	db, err := localstore.OpenDB(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	local, err := localstore.New(ctx, db)
	if err != nil {
		closeDB(db)
		return nil, err
	}
	sessions, err := session.New(db, logger)
	if err != nil {
		closeDB(db)
		return nil, err
	}

	client := api.NewClient(cfg.APIURL, cfg.HTTPTimeout)
	a := authenticator.New(client, local, sessions, logger)
	a.RestoreSession(ctx)

	return &app{
		cfg:    cfg,
		db:     db,
		api:    client,
		local:  local,
		auth:   a,
		logger: logger,
	}, nil
}

func (a *app) Close() {
	closeDB(a.db)
}

func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// requireIdentity returns the signed-in identity or an error for the user.
func (a *app) requireIdentity(ctx context.Context) (*localstore.Identity, error) {
	identity := a.auth.CurrentIdentity(ctx)
	if identity == nil {
		return nil, fmt.Errorf("not signed in, run: checkin login <username>")
	}
	return identity, nil
}

// requireToken returns the bearer token of a remote session.
func (a *app) requireToken() (string, error) {
	if a.auth.Mode() != authenticator.AuthenticatedRemote {
		return "", fmt.Errorf("signed in offline; log in again while the server is reachable")
	}
	return a.auth.Token(), nil
}
