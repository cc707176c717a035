package client

import (
	"context"

	"github.com/dmitrijs2005/accounts/internal/client/models"
)

type Client interface {
	Close() error
	Register(ctx context.Context, username, email string, password []byte) (*models.Profile, error)
	Login(ctx context.Context, identifier string, password []byte) (*models.Session, error)
	GetUser(ctx context.Context, username string) (*models.Profile, error)
	UpdateUser(ctx context.Context, token, username string, upd models.ProfileUpdate) (*models.Profile, error)
	DeleteUser(ctx context.Context, token, username string) (*models.Profile, error)
	RequestImageUpload(ctx context.Context, token, username string) (*models.ImageUpload, error)
	Ping(ctx context.Context) error
}
