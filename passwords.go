package visitor

import (
	"crypto/rand"
	"errors"
	"math/big"

	"golang.org/x/crypto/bcrypt"
)

// ErrNoEmptyString is returned when hashing an empty password
var ErrNoEmptyString = errors.New("password can't be an empty string")

// ErrMismatchedHashAndPassword is returned when a password does not verify
var ErrMismatchedHashAndPassword = errors.New("password does not match hash")

// PasswordAlphabet is the default character set for generated passwords
const PasswordAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// HashPassword will generate a password hash
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", ErrNoEmptyString
	}

	h, err := bcrypt.GenerateFromPassword([]byte(password), 14)
	return string(h), err
}

// ComparePasswordAndHash will validate the given cleartext
// password matches the hashed password
func ComparePasswordAndHash(password, hash string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrMismatchedHashAndPassword
		}
		return err
	}
	return nil
}

// MakeRandomPassword returns a random password of the given length drawn
// from chars, defaulting to PasswordAlphabet. Used for invited accounts
// that have not picked a password yet.
func MakeRandomPassword(length int, chars ...string) (string, error) {
	alphabet := PasswordAlphabet
	if len(chars) > 0 && chars[0] != "" {
		alphabet = chars[0]
	}

	if length <= 0 {
		length = 8
	}

	max := big.NewInt(int64(len(alphabet)))
	out := make([]byte, length)
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		out[i] = alphabet[n.Int64()]
	}

	return string(out), nil
}

type bcryptAuthenticator struct{}

// NewPasswordAuthenticator returns the default bcrypt backed authenticator
func NewPasswordAuthenticator() PasswordAuthenticator {
	return bcryptAuthenticator{}
}

func (bcryptAuthenticator) HashPassword(password string) (string, error) {
	return HashPassword(password)
}

func (bcryptAuthenticator) ComparePasswordAndHash(password, hash string) error {
	return ComparePasswordAndHash(password, hash)
}
