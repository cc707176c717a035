// Package services contains application services for the accounts CLI.
// This file defines the authentication service: register, login, logout,
// liveness probe and the locally stored session (username + token).
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/accounts/internal/client/client"
	"github.com/dmitrijs2005/accounts/internal/client/models"
	"github.com/dmitrijs2005/accounts/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/accounts/internal/common"
	"github.com/dmitrijs2005/accounts/internal/dbx"
)

const (
	keyUsername = "username"
	keyToken    = "token"
)

// AuthService defines authentication operations for the CLI.
//
// Contract:
//   - Register: create a new account on the server.
//   - Login: authenticate and persist the session locally.
//   - Logout: forget the local session.
//   - CurrentUser: username of the stored session, or client.ErrNotLoggedIn.
//   - Ping: check server liveness.
//   - Close: release underlying client resources.
type AuthService interface {
	Register(ctx context.Context, username, email string, password []byte) (*models.Profile, error)
	Login(ctx context.Context, identifier string, password []byte) (*models.Profile, error)
	Logout(ctx context.Context) error
	CurrentUser(ctx context.Context) (string, error)
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// authService is the concrete AuthService backed by a remote Client
// and a local SQL database for the session.
type authService struct {
	client client.Client
	db     *sql.DB
}

// NewAuthService constructs an AuthService bound to the given API client and DB.
func NewAuthService(client client.Client, db *sql.DB) AuthService {
	return &authService{client: client, db: db}
}

func (a *authService) Register(ctx context.Context, username, email string, password []byte) (*models.Profile, error) {
	return a.client.Register(ctx, username, email, password)
}

// Login authenticates by username or email and stores the returned token
// with the canonical username.
func (a *authService) Login(ctx context.Context, identifier string, password []byte) (*models.Profile, error) {
	s, err := a.client.Login(ctx, identifier, password)
	if err != nil {
		return nil, fmt.Errorf("login error: %w", err)
	}

	if err := saveSession(ctx, a.db, s.User.Username, s.Token); err != nil {
		return nil, fmt.Errorf("session saving error: %w", err)
	}

	return &s.User, nil
}

func (a *authService) Logout(ctx context.Context) error {
	return clearSession(ctx, a.db)
}

func (a *authService) CurrentUser(ctx context.Context) (string, error) {
	username, _, err := loadSession(ctx, a.db)
	return username, err
}

// Ping proxies a liveness check to the underlying client.
func (a *authService) Ping(ctx context.Context) error {
	return a.client.Ping(ctx)
}

// Close releases resources held by the underlying client.
func (a *authService) Close(ctx context.Context) error {
	return a.client.Close()
}

// saveSession writes username and token in one transaction.
func saveSession(ctx context.Context, db *sql.DB, username, token string) error {
	return dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := metadata.NewSQLiteRepository(tx)
		if err := repo.Set(ctx, keyUsername, username); err != nil {
			return err
		}
		return repo.Set(ctx, keyToken, token)
	})
}

// loadSession returns client.ErrNotLoggedIn when either value is missing.
func loadSession(ctx context.Context, db *sql.DB) (username, token string, err error) {
	repo := metadata.NewSQLiteRepository(db)

	if username, err = repo.Get(ctx, keyUsername); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", "", client.ErrNotLoggedIn
		}
		return "", "", err
	}
	if token, err = repo.Get(ctx, keyToken); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", "", client.ErrNotLoggedIn
		}
		return "", "", err
	}
	return username, token, nil
}

func clearSession(ctx context.Context, db *sql.DB) error {
	return metadata.NewSQLiteRepository(db).Clear(ctx)
}
