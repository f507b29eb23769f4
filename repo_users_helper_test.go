package visitor

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestResolveUserIdentifier(t *testing.T) {
	t.Parallel()

	t.Run("email tries email then username", func(t *testing.T) {
		opts := resolveUserIdentifier(" pepe.rone@example.com ")
		assert.Equal(t, []identifierOption{
			{column: "email", value: "pepe.rone@example.com"},
			{column: "username", value: "pepe.rone@example.com"},
		}, opts)
	})

	t.Run("uuid maps to the primary key", func(t *testing.T) {
		id := uuid.New().String()
		opts := resolveUserIdentifier(id)
		assert.Equal(t, []identifierOption{
			{column: "id", value: id},
		}, opts)
	})

	t.Run("anything else tries username then email", func(t *testing.T) {
		opts := resolveUserIdentifier("peperone")
		assert.Equal(t, []identifierOption{
			{column: "username", value: "peperone"},
			{column: "email", value: "peperone"},
		}, opts)
	})
}

func TestUsernameFromEmail(t *testing.T) {
	assert.Equal(t, "pepe.rone", usernameFromEmail("pepe.rone@example.com"))
	assert.Equal(t, "peperone", usernameFromEmail("peperone"))
}
