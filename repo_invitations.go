package visitor

import (
	"context"
	"strings"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// FulfillInvitationSQL links an invitation to its account. The guard on
// fulfilled_user_id makes fulfillment a conditional update: once set the row
// never matches again, which is what keeps double submissions from creating
// a second account even across concurrent processes.
var FulfillInvitationSQL = `UPDATE "invitations" AS "inv"
SET
	"status" = ?,
	"fulfilled_user_id" = ?,
	"fulfilled_at" = ?,
	"updated_at" = ?
WHERE
	"inv"."id" = ?
AND "inv"."fulfilled_user_id" IS NULL
RETURNING *;`

// Invitations is the pending invitation repository
type Invitations interface {
	repository.Repository[*Invitation]

	Create(ctx context.Context, record *Invitation, criteria ...repository.InsertCriteria) (*Invitation, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *Invitation, criteria ...repository.InsertCriteria) (*Invitation, error)

	// PendingByEmail returns the unfulfilled invitation for an address,
	// matching case-insensitively.
	PendingByEmail(ctx context.Context, email string) (*Invitation, error)
	PendingByEmailTx(ctx context.Context, tx bun.IDB, email string) (*Invitation, error)

	// Fulfill links the invitation to the created account. Returns
	// ErrAlreadyFulfilled if the invitation was completed before.
	Fulfill(ctx context.Context, id, userID uuid.UUID) (*Invitation, error)
	FulfillTx(ctx context.Context, tx bun.IDB, id, userID uuid.UUID) (*Invitation, error)
}

type invitations struct {
	repository.Repository[*Invitation]
	db *bun.DB
}

var (
	_ Invitations                        = (*invitations)(nil)
	_ repository.Repository[*Invitation] = (*invitations)(nil)
)

func NewInvitationsRepository(db *bun.DB) Invitations {
	repo := repository.NewRepository[*Invitation](db, repository.ModelHandlers[*Invitation]{
		NewRecord: func() *Invitation { return &Invitation{} },
		GetID: func(record *Invitation) uuid.UUID {
			if record == nil {
				return uuid.Nil
			}
			return record.ID
		},
		SetID: func(record *Invitation, id uuid.UUID) {
			if record != nil {
				record.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
		GetIdentifierValue: func(record *Invitation) string {
			if record == nil {
				return ""
			}
			return record.Email
		},
	})

	return &invitations{
		Repository: repo,
		db:         db,
	}
}

func (r *invitations) Create(ctx context.Context, record *Invitation, criteria ...repository.InsertCriteria) (*Invitation, error) {
	return r.CreateTx(ctx, r.db, record, criteria...)
}

func (r *invitations) CreateTx(ctx context.Context, tx bun.IDB, record *Invitation, criteria ...repository.InsertCriteria) (*Invitation, error) {
	if record != nil {
		if record.ID == uuid.Nil {
			record.ID = uuid.New()
		}
		record.Email = strings.TrimSpace(record.Email)
		if record.Status == "" {
			record.Status = InvitationPending
		}
	}
	return r.Repository.CreateTx(ctx, tx, record, criteria...)
}

func (r *invitations) PendingByEmail(ctx context.Context, email string) (*Invitation, error) {
	return r.PendingByEmailTx(ctx, r.db, email)
}

func (r *invitations) PendingByEmailTx(ctx context.Context, tx bun.IDB, email string) (*Invitation, error) {
	record := &Invitation{}
	err := tx.NewSelect().
		Model(record).
		Where("lower(?TableAlias.email) = lower(?)", strings.TrimSpace(email)).
		Where("?TableAlias.fulfilled_user_id IS NULL").
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{"email": email})
		}
		return nil, err
	}

	return record, nil
}

func (r *invitations) Fulfill(ctx context.Context, id, userID uuid.UUID) (*Invitation, error) {
	return r.FulfillTx(ctx, r.db, id, userID)
}

func (r *invitations) FulfillTx(ctx context.Context, tx bun.IDB, id, userID uuid.UUID) (*Invitation, error) {
	now := time.Now()
	res, err := r.Repository.RawTx(ctx, tx, FulfillInvitationSQL,
		InvitationFulfilled,
		userID.String(),
		now,
		now,
		id.String(),
	)
	if err != nil {
		return nil, err
	}

	if len(res) == 0 {
		return nil, ErrAlreadyFulfilled
	}

	return res[0], nil
}
