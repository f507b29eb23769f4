package visitor_test

import (
	"context"
	"testing"

	visitor "github.com/goliatone/go-visitor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUsersCreateUsernames(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	repo := visitor.NewRepositoryManager(db)

	t.Run("derived usernames are de-duplicated", func(t *testing.T) {
		first, err := repo.Users().Create(ctx, &visitor.User{
			Email:        "pepe@a.com",
			PasswordHash: "x",
		})
		require.NoError(t, err)
		assert.Equal(t, "pepe", first.Username)

		second, err := repo.Users().Create(ctx, &visitor.User{
			Email:        "pepe@b.com",
			PasswordHash: "x",
		})
		require.NoError(t, err)
		assert.NotEqual(t, first.Username, second.Username)
		assert.Contains(t, second.Username, "pepe")
	})

	t.Run("explicit duplicate username is rejected", func(t *testing.T) {
		_, err := repo.Users().Create(ctx, &visitor.User{
			Username:     "taken.name",
			Email:        "one@example.com",
			PasswordHash: "x",
		})
		require.NoError(t, err)

		_, err = repo.Users().Create(ctx, &visitor.User{
			Username:     "taken.name",
			Email:        "two@example.com",
			PasswordHash: "x",
		})
		require.Error(t, err)
		assert.True(t, visitor.IsDuplicateUsername(err))
	})
}
