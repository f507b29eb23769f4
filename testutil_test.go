package visitor_test

import (
	"context"
	"database/sql"
	"testing"

	visitor "github.com/goliatone/go-visitor"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func setupTestDB(t *testing.T) *bun.DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, "file::memory:?cache=shared")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())

	ctx := context.Background()
	_, err = db.NewCreateTable().Model((*visitor.User)(nil)).IfNotExists().Exec(ctx)
	require.NoError(t, err)
	_, err = db.NewCreateTable().Model((*visitor.Invitation)(nil)).IfNotExists().Exec(ctx)
	require.NoError(t, err)

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

func testConfig() visitor.SimpleConfig {
	return visitor.SimpleConfig{
		TokenSecret:   "test-secret",
		FromAddress:   "noreply@example.com",
		InvitationURL: "https://example.com/invitation",
	}
}

func seedUser(t *testing.T, repo visitor.RepositoryManager, email, password string, active bool) *visitor.User {
	t.Helper()

	hash, err := visitor.HashPassword(password)
	require.NoError(t, err)

	user, err := repo.Users().Register(context.Background(), &visitor.User{
		Email:        email,
		PasswordHash: hash,
		IsActive:     active,
	})
	require.NoError(t, err)

	return user
}
