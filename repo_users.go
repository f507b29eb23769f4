package visitor

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Users is the account directory repository
type Users interface {
	repository.Repository[*User]

	Register(ctx context.Context, user *User) (*User, error)
	RegisterTx(ctx context.Context, tx bun.IDB, user *User) (*User, error)
	Create(ctx context.Context, record *User, criteria ...repository.InsertCriteria) (*User, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *User, criteria ...repository.InsertCriteria) (*User, error)

	// EmailInUse reports whether an account other than exclude currently
	// holds the address. Matching is case-insensitive.
	EmailInUse(ctx context.Context, email string, exclude ...uuid.UUID) (bool, error)
	EmailInUseTx(ctx context.Context, tx bun.IDB, email string, exclude ...uuid.UUID) (bool, error)
}

type users struct {
	repository.Repository[*User]
	db *bun.DB
}

var (
	_ Users                        = (*users)(nil)
	_ repository.Repository[*User] = (*users)(nil)
)

func NewUsersRepository(db *bun.DB) Users {
	repo := repository.NewRepository[*User](db, repository.ModelHandlers[*User]{
		NewRecord: func() *User { return &User{} },
		GetID: func(u *User) uuid.UUID {
			if u == nil {
				return uuid.Nil
			}
			return u.ID
		},
		SetID: func(u *User, id uuid.UUID) {
			if u != nil {
				u.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
		GetIdentifierValue: func(u *User) string {
			if u == nil {
				return ""
			}
			return u.Email
		},
	})

	return &users{
		Repository: repo,
		db:         db,
	}
}

func (a *users) Register(ctx context.Context, user *User) (*User, error) {
	return a.RegisterTx(ctx, a.db, user)
}

func (a *users) RegisterTx(ctx context.Context, tx bun.IDB, user *User) (*User, error) {
	return a.CreateTx(ctx, tx, user)
}

func (a *users) GetByIdentifier(ctx context.Context, identifier string, criteria ...repository.SelectCriteria) (*User, error) {
	return a.GetByIdentifierTx(ctx, a.db, identifier, criteria...)
}

func (a *users) GetByIdentifierTx(ctx context.Context, tx bun.IDB, identifier string, criteria ...repository.SelectCriteria) (*User, error) {
	options := resolveUserIdentifier(identifier)

	for _, opt := range options {
		record := &User{}
		q := tx.NewSelect().Model(record)

		for _, c := range criteria {
			q.Apply(c)
		}

		err := q.
			Where(fmt.Sprintf("?TableAlias.%s = ?", opt.column), opt.value).
			Limit(1).
			Scan(ctx)

		if err != nil {
			if repository.IsRecordNotFound(err) {
				continue
			}
			return nil, err
		}

		return record, nil
	}

	return nil, repository.NewRecordNotFound().
		WithMetadata(map[string]any{
			"identifier": identifier,
		})
}

func (a *users) Create(ctx context.Context, record *User, criteria ...repository.InsertCriteria) (*User, error) {
	return a.CreateTx(ctx, a.db, record, criteria...)
}

func (a *users) CreateTx(ctx context.Context, tx bun.IDB, record *User, criteria ...repository.InsertCriteria) (*User, error) {
	derived := record != nil && strings.TrimSpace(record.Username) == ""
	prepareUserDefaults(record)

	if record != nil {
		if derived {
			username, err := a.dedupeUsername(ctx, tx, record.Username)
			if err != nil {
				return nil, err
			}
			record.Username = username
		} else if taken, err := a.usernameTaken(ctx, tx, record.Username, record.ID); err != nil {
			return nil, err
		} else if taken {
			return nil, ErrDuplicateUsername
		}
	}

	return a.Repository.CreateTx(ctx, tx, record, criteria...)
}

func (a *users) usernameTaken(ctx context.Context, tx bun.IDB, username string, exclude uuid.UUID) (bool, error) {
	q := tx.NewSelect().
		Model((*User)(nil)).
		Where("?TableAlias.username = ?", username)

	if exclude != uuid.Nil {
		q.Where("?TableAlias.id != ?", exclude)
	}

	return q.Exists(ctx)
}

// dedupeUsername suffixes a derived username until it clears the unique
// index. Derived names come from email local parts, which collide across
// domains.
func (a *users) dedupeUsername(ctx context.Context, tx bun.IDB, base string) (string, error) {
	username := base
	for i := 0; i < 5; i++ {
		taken, err := a.usernameTaken(ctx, tx, username, uuid.Nil)
		if err != nil {
			return "", err
		}
		if !taken {
			return username, nil
		}
		username = fmt.Sprintf("%s.%s", base, uuid.New().String()[:8])
	}
	return "", ErrDuplicateUsername
}

func (a *users) EmailInUse(ctx context.Context, email string, exclude ...uuid.UUID) (bool, error) {
	return a.EmailInUseTx(ctx, a.db, email, exclude...)
}

func (a *users) EmailInUseTx(ctx context.Context, tx bun.IDB, email string, exclude ...uuid.UUID) (bool, error) {
	q := tx.NewSelect().
		Model((*User)(nil)).
		Where("lower(?TableAlias.email) = lower(?)", strings.TrimSpace(email))

	for _, id := range exclude {
		if id != uuid.Nil {
			q.Where("?TableAlias.id != ?", id)
		}
	}

	return q.Exists(ctx)
}

func prepareUserDefaults(record *User) {
	if record == nil {
		return
	}
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	record.Email = strings.TrimSpace(record.Email)
	if record.Username == "" {
		record.Username = usernameFromEmail(record.Email)
	}
}

func usernameFromEmail(email string) string {
	if strings.Contains(email, "@") {
		return strings.Split(email, "@")[0]
	}
	return email
}

type identifierOption struct {
	column string
	value  string
}

// resolveUserIdentifier maps an opaque identifier to lookup columns. Email
// shaped identifiers try email first then username, UUIDs try the primary
// key, everything else is treated as a username.
func resolveUserIdentifier(identifier string) []identifierOption {
	identifier = strings.TrimSpace(identifier)

	if _, err := mail.ParseAddress(identifier); err == nil {
		return []identifierOption{
			{column: "email", value: identifier},
			{column: "username", value: identifier},
		}
	}

	if _, err := uuid.Parse(identifier); err == nil {
		return []identifierOption{
			{column: "id", value: identifier},
		}
	}

	return []identifierOption{
		{column: "username", value: identifier},
		{column: "email", value: identifier},
	}
}
