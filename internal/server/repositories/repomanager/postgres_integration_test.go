package repomanager

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/dmitrijs2005/accounts/internal/server/config"
	"github.com/dmitrijs2005/accounts/internal/server/models"
	"github.com/dmitrijs2005/accounts/internal/server/repositories/users"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Runs against the SQL_TEST_DB database of the configured server when
// ACCOUNTS_PG_INTEGRATION=1.
func TestPostgres_Integration(t *testing.T) {
	if os.Getenv("ACCOUNTS_PG_INTEGRATION") != "1" {
		t.Skip("set ACCOUNTS_PG_INTEGRATION=1 to run against PostgreSQL")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg := config.LoadConfig()
	db, err := OpenPostgres(ctx, cfg.TestDatabaseDSN())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	m, err := NewPostgresRepositoryManager(db)
	require.NoError(t, err)
	require.NoError(t, m.RunMigrations(ctx, db))

	repo := m.Users(db)
	name := "it-" + time.Now().Format("150405.000000")
	u, err := repo.Insert(ctx, &models.User{Username: name, Email: name + "@example.com", HashedPassword: "h", PasswordSalt: "s"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Remove(context.Background(), u) })

	later := u.LastLoginAt.Add(time.Hour)
	at, err := repo.TouchLogin(ctx, u.ID, later)
	require.NoError(t, err)
	assert.True(t, at.Equal(later))

	got, err := repo.FindBy(ctx, users.FieldUsername, name)
	require.NoError(t, err)
	assert.Equal(t, "h", got.HashedPassword)
	assert.True(t, got.LastLoginAt.Equal(later))
}
