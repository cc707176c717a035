package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/accounts/internal/common"
	"github.com/dmitrijs2005/accounts/internal/dbx"
	"github.com/dmitrijs2005/accounts/internal/server/models"
)

const userColumns = `id, username, email, bio, image, hashed_password, password_salt, created_at, last_login_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) FindBy(ctx context.Context, field Field, value any) (*models.User, error) {
	col, ok := field.column()
	if !ok {
		return nil, fmt.Errorf("unsupported lookup field %q", field)
	}

	query := `SELECT ` + userColumns + ` FROM users
		 WHERE ` + col + ` = $1
		 `

	user := &models.User{}
	err := r.db.QueryRowContext(ctx, query, value).Scan(
		&user.ID, &user.Username, &user.Email, &user.Bio, &user.Image,
		&user.HashedPassword, &user.PasswordSalt, &user.CreatedAt, &user.LastLoginAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) Exists(ctx context.Context, field Field, value string) (bool, error) {
	col, ok := field.column()
	if !ok || field == FieldID {
		return false, fmt.Errorf("unsupported lookup field %q", field)
	}

	query := `SELECT EXISTS (SELECT 1 FROM users WHERE ` + col + ` = $1)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, value).Scan(&exists); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}

	return exists, nil
}

// Insert stores a new user; the database assigns id, created_at and
// last_login_at, which are written back into user.
func (r *PostgresRepository) Insert(ctx context.Context, user *models.User) (*models.User, error) {
	query :=
		`INSERT INTO users (username, email, bio, image, hashed_password, password_salt)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at, last_login_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		user.Username, user.Email, user.Bio, user.Image, user.HashedPassword, user.PasswordSalt,
	).Scan(&user.ID, &user.CreatedAt, &user.LastLoginAt)

	if err != nil {
		return nil, wrapWriteErr("insert user", err)
	}

	return user, nil
}

// Persist writes the mutable columns of user. last_login_at never moves
// backwards; the stored value is written back into user.
func (r *PostgresRepository) Persist(ctx context.Context, user *models.User) error {
	query :=
		`UPDATE users
		 SET email = $2, bio = $3, image = $4, hashed_password = $5, password_salt = $6,
		     last_login_at = GREATEST(last_login_at, $7)
		 WHERE id = $1
		 RETURNING last_login_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		user.ID, user.Email, user.Bio, user.Image, user.HashedPassword, user.PasswordSalt, user.LastLoginAt,
	).Scan(&user.LastLoginAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return common.ErrorNotFound
		}
		return wrapWriteErr("update user", err)
	}

	return nil
}

func (r *PostgresRepository) TouchLogin(ctx context.Context, id int64, at time.Time) (time.Time, error) {
	query :=
		`UPDATE users
		 SET last_login_at = GREATEST(last_login_at, $2)
		 WHERE id = $1
		 RETURNING last_login_at
		 `

	var stored time.Time
	if err := r.db.QueryRowContext(ctx, query, id, at).Scan(&stored); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return time.Time{}, common.ErrorNotFound
		}
		return time.Time{}, fmt.Errorf("db error: %w", err)
	}

	return stored, nil
}

func (r *PostgresRepository) Remove(ctx context.Context, user *models.User) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, user.ID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}

	return nil
}
