package visitor

import (
	"context"
	"errors"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// Form payloads replace the original mixin-based form classes with plain
// structs and an explicit validation pipeline: structural rules first
// (ozzo), then the stateful checks (email uniqueness, password
// verification) applied in sequence.

// LoginPayload carries login credentials. Identifier is a username or an
// email address, both are accepted.
type LoginPayload struct {
	Identifier string `form:"identifier" json:"identifier"`
	Password   string `form:"password" json:"password"`
}

// Validate will run validation rules
func (r LoginPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Identifier,
			validation.Required,
			validation.Length(1, 254),
		),
		validation.Field(
			&r.Password,
			validation.Required,
		),
	)
}

// RegistrationPayload is the form payload completing an invitation or a
// direct registration
type RegistrationPayload struct {
	FirstName       string `form:"first_name" json:"first_name"`
	LastName        string `form:"last_name" json:"last_name"`
	Username        string `form:"username" json:"username"`
	Email           string `form:"email" json:"email"`
	Password        string `form:"password" json:"password"`
	ConfirmPassword string `form:"confirm_password" json:"confirm_password"`
}

// Validate will validate the payload
func (r RegistrationPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.FirstName, validation.Length(0, 200)),
		validation.Field(&r.LastName, validation.Length(0, 200)),
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
		validation.Field(
			&r.ConfirmPassword,
			validation.Required,
			validation.By(ValidateStringEquals(r.Password)),
		),
	)
}

// PasswordChangePayload lets an account change its password by entering the
// old one
type PasswordChangePayload struct {
	OldPassword     string `form:"old_password" json:"old_password"`
	NewPassword     string `form:"new_password" json:"new_password"`
	ConfirmPassword string `form:"confirm_password" json:"confirm_password"`
}

// Validate will validate the payload
func (r PasswordChangePayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.OldPassword, validation.Required),
		validation.Field(&r.NewPassword, validation.Required),
		validation.Field(
			&r.ConfirmPassword,
			validation.Required,
			validation.By(ValidateStringEquals(r.NewPassword)),
		),
	)
}

// ValidateRegistration runs the registration pipeline: confirmation match,
// structural rules, then the email uniqueness pre-check against the
// directory. The pre-check produces a friendly error before the unique
// index would reject the write. Pass the current record's id in exclude
// when editing an existing account.
func ValidateRegistration(ctx context.Context, users Users, payload RegistrationPayload, exclude ...uuid.UUID) error {
	if payload.Password != payload.ConfirmPassword {
		return ErrPasswordMismatch
	}

	if err := payload.Validate(); err != nil {
		return wrapFieldErrors(err)
	}

	inUse, err := users.EmailInUse(ctx, payload.Email, exclude...)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check email uniqueness")
	}

	if inUse {
		return ErrDuplicateEmail
	}

	return nil
}

// ValidatePasswordChange verifies the old password against the account's
// stored hash and checks the confirmation for the new one.
func ValidatePasswordChange(user *User, payload PasswordChangePayload) error {
	if payload.NewPassword != payload.ConfirmPassword {
		return ErrPasswordMismatch
	}

	if err := payload.Validate(); err != nil {
		return wrapFieldErrors(err)
	}

	if err := ComparePasswordAndHash(payload.OldPassword, user.PasswordHash); err != nil {
		return ErrIncorrectOldPassword
	}

	return nil
}

// ValidateStringEquals will check that both values match
func ValidateStringEquals(str string) validation.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		if s != str {
			return errors.New("values must match")
		}
		return nil
	}
}

// FormatValidationErrorToMap flattens an ozzo validation error into a field
// name to messages mapping suitable for per-field display.
func FormatValidationErrorToMap(err error) map[string][]string {
	out := map[string][]string{}
	var fields validation.Errors
	if !errors.As(err, &fields) {
		if err != nil {
			out["form"] = []string{err.Error()}
		}
		return out
	}

	for name, ferr := range fields {
		if ferr != nil {
			out[name] = append(out[name], ferr.Error())
		}
	}

	return out
}

func wrapFieldErrors(err error) error {
	return goerrors.Wrap(err, goerrors.CategoryValidation, "payload validation failed").
		WithMetadata(map[string]any{
			"fields": FormatValidationErrorToMap(err),
		})
}
