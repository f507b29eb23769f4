package visitor

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// InvitationStatus tracks the lifecycle of an invitation
type InvitationStatus = string

const (
	// InvitationPending is the initial status, waiting on the invitee
	InvitationPending InvitationStatus = "pending"
	// InvitationFulfilled is the terminal status, registration completed
	InvitationFulfilled InvitationStatus = "fulfilled"
)

// User is the account model owned by the user directory
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`
	ID            uuid.UUID      `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	FirstName     string         `bun:"first_name" json:"first_name,omitempty"`
	LastName      string         `bun:"last_name" json:"last_name,omitempty"`
	Username      string         `bun:"username,notnull,unique" json:"username,omitempty"`
	Email         string         `bun:"email,notnull,unique" json:"email,omitempty"`
	PasswordHash  string         `bun:"password_hash" json:"password_hash,omitempty"`
	IsActive      bool           `bun:"is_active" json:"is_active,omitempty"`
	Metadata      map[string]any `bun:"metadata" json:"metadata,omitempty"`
	CreatedAt     *time.Time     `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time     `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt     *time.Time     `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// AddMetadata will append information to a metadata attribute
func (u *User) AddMetadata(key string, val any) *User {
	if u.Metadata == nil {
		u.Metadata = make(map[string]any)
	}
	u.Metadata[key] = val
	return u
}

// Invitation is a pending record for an email address invited to create an
// account. The record mutates exactly once, when registration completes and
// FulfilledUserID is set. Fulfilled invitations are retained as an audit
// trail, there is no delete path.
type Invitation struct {
	bun.BaseModel   `bun:"table:invitations,alias:inv"`
	ID              uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Email           string     `bun:"email,notnull" json:"email,omitempty"`
	Name            string     `bun:"name" json:"name,omitempty"`
	Status          string     `bun:"status,notnull" json:"status,omitempty"`
	FulfilledUserID *uuid.UUID `bun:"fulfilled_user_id,nullzero" json:"fulfilled_user_id,omitempty"`
	FulfilledUser   *User      `bun:"rel:has-one,join:fulfilled_user_id=id" json:"fulfilled_user,omitempty"`
	FulfilledAt     *time.Time `bun:"fulfilled_at,nullzero" json:"fulfilled_at,omitempty"`
	CreatedAt       *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt       *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// IsFulfilled reports whether the invitation already produced an account
func (i *Invitation) IsFulfilled() bool {
	return i.FulfilledUserID != nil || i.Status == InvitationFulfilled
}
