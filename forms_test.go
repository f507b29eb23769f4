package visitor_test

import (
	"context"
	"testing"

	visitor "github.com/goliatone/go-visitor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateRegistration(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	repo := visitor.NewRepositoryManager(db)

	t.Run("password mismatch", func(t *testing.T) {
		err := visitor.ValidateRegistration(ctx, repo.Users(), visitor.RegistrationPayload{
			Email:           "new@example.com",
			Password:        "a",
			ConfirmPassword: "b",
		})
		require.Error(t, err)
		assert.True(t, visitor.IsPasswordMismatch(err))
	})

	t.Run("matching passwords and unique email succeed", func(t *testing.T) {
		err := visitor.ValidateRegistration(ctx, repo.Users(), visitor.RegistrationPayload{
			Email:           "new@example.com",
			Password:        "a",
			ConfirmPassword: "a",
		})
		assert.NoError(t, err)
	})

	t.Run("duplicate email", func(t *testing.T) {
		seedUser(t, repo, "taken@example.com", "password123", true)

		err := visitor.ValidateRegistration(ctx, repo.Users(), visitor.RegistrationPayload{
			Email:           "taken@example.com",
			Password:        "password123",
			ConfirmPassword: "password123",
		})
		require.Error(t, err)
		assert.True(t, visitor.IsDuplicateEmail(err))
	})

	t.Run("duplicate email is case-insensitive", func(t *testing.T) {
		err := visitor.ValidateRegistration(ctx, repo.Users(), visitor.RegistrationPayload{
			Email:           "TAKEN@example.com",
			Password:        "password123",
			ConfirmPassword: "password123",
		})
		require.Error(t, err)
		assert.True(t, visitor.IsDuplicateEmail(err))
	})

	t.Run("editing excludes the current record", func(t *testing.T) {
		user := seedUser(t, repo, "edit.me@example.com", "password123", true)

		err := visitor.ValidateRegistration(ctx, repo.Users(), visitor.RegistrationPayload{
			Email:           "edit.me@example.com",
			Password:        "password123",
			ConfirmPassword: "password123",
		}, user.ID)
		assert.NoError(t, err)
	})

	t.Run("malformed email", func(t *testing.T) {
		err := visitor.ValidateRegistration(ctx, repo.Users(), visitor.RegistrationPayload{
			Email:           "not-an-email",
			Password:        "password123",
			ConfirmPassword: "password123",
		})
		assert.Error(t, err)
	})
}

func TestValidatePasswordChange(t *testing.T) {
	hash, err := visitor.HashPassword("old-password")
	require.NoError(t, err)
	user := &visitor.User{PasswordHash: hash}

	t.Run("success", func(t *testing.T) {
		err := visitor.ValidatePasswordChange(user, visitor.PasswordChangePayload{
			OldPassword:     "old-password",
			NewPassword:     "new-password",
			ConfirmPassword: "new-password",
		})
		assert.NoError(t, err)
	})

	t.Run("wrong old password", func(t *testing.T) {
		err := visitor.ValidatePasswordChange(user, visitor.PasswordChangePayload{
			OldPassword:     "nope",
			NewPassword:     "new-password",
			ConfirmPassword: "new-password",
		})
		assert.ErrorIs(t, err, visitor.ErrIncorrectOldPassword)
	})

	t.Run("confirmation mismatch", func(t *testing.T) {
		err := visitor.ValidatePasswordChange(user, visitor.PasswordChangePayload{
			OldPassword:     "old-password",
			NewPassword:     "new-password",
			ConfirmPassword: "other",
		})
		assert.True(t, visitor.IsPasswordMismatch(err))
	})
}

func TestFormatValidationErrorToMap(t *testing.T) {
	payload := visitor.RegistrationPayload{
		Email: "not-an-email",
	}

	err := payload.Validate()
	require.Error(t, err)

	fields := visitor.FormatValidationErrorToMap(err)
	assert.NotEmpty(t, fields["email"])
	assert.NotEmpty(t, fields["password"])
}
