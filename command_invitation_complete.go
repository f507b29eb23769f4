package visitor

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type CompleteInvitationMessage struct {
	// InvitationID identifies the invitation being fulfilled. Callers
	// holding an emailed token can set Token instead and let the handler
	// resolve the pending record.
	InvitationID uuid.UUID `json:"invitation_id"`
	Token        string    `json:"token"`
	Registration RegistrationPayload
	UseHashid    bool
	OnResponse   func(resp *CompleteInvitationResponse)
}

func (e CompleteInvitationMessage) Type() string { return "invitation.complete" }

type CompleteInvitationResponse struct {
	User       *User
	Invitation *Invitation
	Success    bool
}

// CompleteInvitationHandler validates registration data, creates the
// account, and links the invitation to it. The fulfillment update is
// conditional, so a double submission fails with ErrAlreadyFulfilled and
// never produces a second account.
type CompleteInvitationHandler struct {
	repo   RepositoryManager
	codec  *TokenCodec
	logger Logger
}

func NewCompleteInvitationHandler(repo RepositoryManager) *CompleteInvitationHandler {
	return &CompleteInvitationHandler{
		repo:   repo,
		logger: defLogger{},
	}
}

func (h *CompleteInvitationHandler) WithLogger(l Logger) *CompleteInvitationHandler {
	h.logger = l
	return h
}

// WithTokenCodec enables token based invitation lookup
func (h *CompleteInvitationHandler) WithTokenCodec(codec *TokenCodec) *CompleteInvitationHandler {
	h.codec = codec
	return h
}

func (h *CompleteInvitationHandler) Execute(ctx context.Context, event CompleteInvitationMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during invitation completion",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *CompleteInvitationHandler) execute(ctx context.Context, event CompleteInvitationMessage) error {
	resp := &CompleteInvitationResponse{}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	invitation, err := h.resolveInvitation(ctx, event)
	if err != nil {
		return err
	}

	if invitation.IsFulfilled() {
		return ErrAlreadyFulfilled
	}

	registration := event.Registration
	if registration.Email == "" {
		registration.Email = invitation.Email
	}

	if err := ValidateRegistration(ctx, h.repo.Users(), registration); err != nil {
		return err
	}

	err = h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		hash, err := HashPassword(registration.Password)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
		}

		user := &User{
			FirstName:    registration.FirstName,
			LastName:     registration.LastName,
			Username:     registration.Username,
			Email:        registration.Email,
			PasswordHash: hash,
			IsActive:     true,
		}

		if event.UseHashid {
			if id, err := hashid.NewUUID(registration.Email); err == nil {
				user.ID = id
			}
		}

		if user, err = h.repo.Users().CreateTx(ctx, tx, user); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryConflict, "could not create user")
		}

		fulfilled, err := h.repo.Invitations().FulfillTx(ctx, tx, invitation.ID, user.ID)
		if err != nil {
			return err
		}

		resp.User = user
		resp.Invitation = fulfilled
		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "invitation completion transaction failed")
	}

	resp.Success = true
	if event.OnResponse != nil {
		event.OnResponse(resp)
	}

	return nil
}

func (h *CompleteInvitationHandler) resolveInvitation(ctx context.Context, event CompleteInvitationMessage) (*Invitation, error) {
	if event.Token != "" {
		if h.codec == nil {
			return nil, goerrors.New("handler has no token codec configured", goerrors.CategoryOperation)
		}

		payload, err := h.codec.Decrypt(event.Token)
		if err != nil {
			return nil, err
		}

		pending, err := h.repo.Invitations().PendingByEmail(ctx, payload.Email)
		if err == nil {
			return pending, nil
		}

		// a fulfilled invitation for the address means this is a replay
		if record, lookupErr := h.repo.Invitations().GetByIdentifier(ctx, payload.Email); lookupErr == nil && record.IsFulfilled() {
			return nil, ErrAlreadyFulfilled
		}

		return nil, err
	}

	if event.InvitationID == uuid.Nil {
		return nil, goerrors.New("message carries neither invitation id nor token", goerrors.CategoryBadInput)
	}

	return h.repo.Invitations().GetByID(ctx, event.InvitationID.String())
}
