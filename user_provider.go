package visitor

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
)

// UserTracker is the slice of the directory the provider needs
type UserTracker interface {
	GetByIdentifier(ctx context.Context, identifier string) (*User, error)
}

// UserProvider verifies credentials against the user directory. It is the
// delegation point the login form hands credentials to.
type UserProvider struct {
	store  UserTracker
	logger Logger
}

// NewUserProvider will create a new UserProvider
func NewUserProvider(store UserTracker) *UserProvider {
	return &UserProvider{
		store:  store,
		logger: defLogger{},
	}
}

func (u *UserProvider) WithLogger(l Logger) *UserProvider {
	u.logger = l
	return u
}

// VerifyIdentity will find the user, compare the password, and return the
// identity. Account lookup failures, wrong passwords, and inactive accounts
// all surface ErrInvalidCredentials so the caller cannot tell them apart.
// The active check runs only after credentials verify.
func (u UserProvider) VerifyIdentity(ctx context.Context, identifier, password string) (Identity, error) {
	user, err := u.store.GetByIdentifier(ctx, identifier)
	if err != nil {
		if goerrors.IsNotFound(err) || repository.IsRecordNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user during verification")
	}

	if user == nil {
		return nil, ErrInvalidCredentials
	}

	if err := ComparePasswordAndHash(password, user.PasswordHash); err != nil {
		return nil, ErrInvalidCredentials
	}

	if !user.IsActive {
		u.logger.Debug("login rejected for inactive account %s", user.ID)
		return nil, ErrInvalidCredentials
	}

	aid := authIdentity{
		id:       user.ID.String(),
		email:    user.Email,
		username: user.Username,
	}

	return aid, nil
}

// FindIdentityByIdentifier resolves an identity without verifying credentials
func (u UserProvider) FindIdentityByIdentifier(ctx context.Context, identifier string) (Identity, error) {
	user, err := u.store.GetByIdentifier(ctx, identifier)
	if err != nil {
		return nil, err
	}

	aid := authIdentity{
		id:       user.ID.String(),
		email:    user.Email,
		username: user.Username,
	}

	return aid, nil
}

// ValidateLogin runs the login pipeline: structural checks on the payload,
// then credential verification through the provider.
func (u UserProvider) ValidateLogin(ctx context.Context, payload LoginPayload) (Identity, error) {
	if err := payload.Validate(); err != nil {
		return nil, wrapFieldErrors(err)
	}
	return u.VerifyIdentity(ctx, payload.Identifier, payload.Password)
}

type authIdentity struct {
	id       string
	username string
	email    string
}

func (a authIdentity) ID() string {
	return a.id
}

func (a authIdentity) Username() string {
	return a.username
}

func (a authIdentity) Email() string {
	return a.email
}

var _ Identity = authIdentity{}
var _ IdentityProvider = UserProvider{}
