// Package users implements the identity store.
package users

import (
	"context"
	"time"

	"github.com/dmitrijs2005/accounts/internal/server/models"
)

// Field names a lookup key of the users table.
type Field string

const (
	FieldID       Field = "id"
	FieldUsername Field = "username"
	FieldEmail    Field = "email"
)

// column maps a Field to its column. Only listed fields are accepted.
func (f Field) column() (string, bool) {
	switch f {
	case FieldID, FieldUsername, FieldEmail:
		return string(f), true
	default:
		return "", false
	}
}

// Repository is the identity store contract. Lookups that find nothing
// return common.ErrorNotFound; unique violations come back as *ConflictError.
// TouchLogin moves only last_login_at, never backwards, and returns the
// stored value.
type Repository interface {
	FindBy(ctx context.Context, field Field, value any) (*models.User, error)
	Exists(ctx context.Context, field Field, value string) (bool, error)
	Insert(ctx context.Context, user *models.User) (*models.User, error)
	Persist(ctx context.Context, user *models.User) error
	TouchLogin(ctx context.Context, id int64, at time.Time) (time.Time, error)
	Remove(ctx context.Context, user *models.User) error
}
