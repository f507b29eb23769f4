package visitor

import (
	goerrors "github.com/goliatone/go-errors"
)

const (
	textCodeDuplicateEmail       = "DUPLICATE_EMAIL"
	textCodeDuplicateUsername    = "DUPLICATE_USERNAME"
	textCodeAlreadyFulfilled     = "INVITATION_ALREADY_FULFILLED"
	textCodePasswordMismatch     = "PASSWORD_MISMATCH"
	textCodeIncorrectOldPassword = "INCORRECT_OLD_PASSWORD"
	textCodeInvalidCredentials   = "INVALID_CREDENTIALS"
	textCodeTokenDecoding        = "TOKEN_DECODING"
	textCodeTokenPayload         = "TOKEN_PAYLOAD"
	textCodeTokenExpired         = "TOKEN_EXPIRED"
)

// ErrDuplicateEmail is returned when an active account already owns an email address.
var ErrDuplicateEmail = goerrors.New("email address is already in use", goerrors.CategoryValidation).
	WithTextCode(textCodeDuplicateEmail).
	WithCode(goerrors.CodeConflict)

// ErrDuplicateUsername is returned when an account already owns a username.
var ErrDuplicateUsername = goerrors.New("username is already in use", goerrors.CategoryValidation).
	WithTextCode(textCodeDuplicateUsername).
	WithCode(goerrors.CodeConflict)

// ErrAlreadyFulfilled is returned on a second completion attempt for an invitation.
var ErrAlreadyFulfilled = goerrors.New("invitation was already fulfilled", goerrors.CategoryConflict).
	WithTextCode(textCodeAlreadyFulfilled).
	WithCode(goerrors.CodeConflict)

// ErrPasswordMismatch is returned when the two password fields differ.
var ErrPasswordMismatch = goerrors.New("the two password fields did not match", goerrors.CategoryValidation).
	WithTextCode(textCodePasswordMismatch).
	WithCode(goerrors.CodeBadRequest)

// ErrIncorrectOldPassword is returned when the current password does not verify.
var ErrIncorrectOldPassword = goerrors.New("your old password was entered incorrectly", goerrors.CategoryValidation).
	WithTextCode(textCodeIncorrectOldPassword).
	WithCode(goerrors.CodeBadRequest)

// ErrInvalidCredentials is the generic login failure. Inactive accounts and
// wrong passwords surface the same value so callers cannot probe for
// account existence.
var ErrInvalidCredentials = goerrors.New("unable to authenticate with the provided credentials", goerrors.CategoryAuth).
	WithTextCode(textCodeInvalidCredentials).
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenDecoding is returned for tokens that are not valid hex or are truncated.
var ErrTokenDecoding = goerrors.New("token could not be decoded", goerrors.CategoryBadInput).
	WithTextCode(textCodeTokenDecoding).
	WithCode(goerrors.CodeBadRequest)

// ErrTokenPayload is returned when a decoded token does not open or deserialize.
var ErrTokenPayload = goerrors.New("token payload is invalid", goerrors.CategoryBadInput).
	WithTextCode(textCodeTokenPayload).
	WithCode(goerrors.CodeBadRequest)

// ErrTokenExpired is returned when the token's expiry timestamp has passed.
var ErrTokenExpired = goerrors.New("token is expired", goerrors.CategoryBadInput).
	WithTextCode(textCodeTokenExpired).
	WithCode(goerrors.CodeBadRequest)

func hasTextCode(err error, code string) bool {
	if err == nil {
		return false
	}
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return richErr.TextCode == code
	}
	return false
}

// IsDuplicateEmail will check for duplicate email validation failures
func IsDuplicateEmail(err error) bool {
	return hasTextCode(err, textCodeDuplicateEmail)
}

// IsDuplicateUsername will check for duplicate username validation failures
func IsDuplicateUsername(err error) bool {
	return hasTextCode(err, textCodeDuplicateUsername)
}

// IsAlreadyFulfilled will check for double-submission completion failures
func IsAlreadyFulfilled(err error) bool {
	return hasTextCode(err, textCodeAlreadyFulfilled)
}

// IsPasswordMismatch will check for confirmation mismatch failures
func IsPasswordMismatch(err error) bool {
	return hasTextCode(err, textCodePasswordMismatch)
}

// IsInvalidCredentials will check for generic authentication failures
func IsInvalidCredentials(err error) bool {
	return hasTextCode(err, textCodeInvalidCredentials)
}

// IsTokenExpired will check for expired tokens
func IsTokenExpired(err error) bool {
	return hasTextCode(err, textCodeTokenExpired)
}
