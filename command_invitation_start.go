package visitor

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

type StartInvitationMessage struct {
	Email      string `json:"email" example:"pepe.rone@example.com" doc:"Invitee email address."`
	Name       string `json:"name" example:"Pepe Rone" doc:"Invitee display name."`
	OnResponse func(resp *StartInvitationResponse)
}

func (e StartInvitationMessage) Type() string { return "invitation.start" }

type StartInvitationResponse struct {
	Invitation *Invitation
	// Created is false when an unfulfilled invitation for the address
	// already existed and was returned instead
	Created bool
	Success bool
}

// StartInvitationHandler persists a pending invitation for an email address.
// It does not send the notification email: dispatch is an explicit follow-up
// step through InvitationNotifier, so a mail failure cannot corrupt
// invitation state.
type StartInvitationHandler struct {
	repo   RepositoryManager
	logger Logger
}

func NewStartInvitationHandler(repo RepositoryManager) *StartInvitationHandler {
	return &StartInvitationHandler{
		repo:   repo,
		logger: defLogger{},
	}
}

func (h *StartInvitationHandler) WithLogger(l Logger) *StartInvitationHandler {
	h.logger = l
	return h
}

func (h *StartInvitationHandler) Execute(ctx context.Context, event StartInvitationMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during invitation start",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *StartInvitationHandler) execute(ctx context.Context, event StartInvitationMessage) error {
	resp := &StartInvitationResponse{}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	if err := validation.Validate(event.Email, validation.Required, is.Email); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid invitation email").
			WithMetadata(map[string]any{"email": event.Email})
	}

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		inUse, err := h.repo.Users().EmailInUseTx(ctx, tx, event.Email)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check directory for invitee email")
		}

		if inUse {
			return ErrDuplicateEmail
		}

		// an unfulfilled invitation already covers this address, hand it
		// back instead of violating the one-pending-per-email invariant
		if pending, err := h.repo.Invitations().PendingByEmailTx(ctx, tx, event.Email); err == nil {
			resp.Invitation = pending
			return nil
		} else if !repository.IsRecordNotFound(err) {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to look up pending invitation")
		}

		record := &Invitation{
			Email:  event.Email,
			Name:   event.Name,
			Status: InvitationPending,
		}

		if record, err = h.repo.Invitations().CreateTx(ctx, tx, record); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryConflict, "could not create invitation")
		}

		resp.Invitation = record
		resp.Created = true
		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "invitation start transaction failed")
	}

	resp.Success = true
	if event.OnResponse != nil {
		event.OnResponse(resp)
	}

	return nil
}

// CreateInvitation is a convenience wrapper over the start handler for
// callers that only need the record back.
func CreateInvitation(ctx context.Context, repo RepositoryManager, email, name string) (*Invitation, error) {
	var out *Invitation

	handler := NewStartInvitationHandler(repo)
	err := handler.Execute(ctx, StartInvitationMessage{
		Email: email,
		Name:  name,
		OnResponse: func(resp *StartInvitationResponse) {
			out = resp.Invitation
		},
	})

	if err != nil {
		return nil, err
	}

	return out, nil
}
