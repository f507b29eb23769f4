// Package visitor provides pluggable registration and invitation primitives
// for user-facing applications: an invitation workflow backed by Bun
// repositories, credential and registration form validation, sealed tokens
// for email links, and a templated mail dispatcher.
//
// Invitation lifecycle:
//   - StartInvitationHandler persists a pending Invitation after checking the
//     user directory for the address. Notification is a separate step through
//     InvitationNotifier so mail transport failures never touch invitation
//     state.
//   - CompleteInvitationHandler validates the registration payload, creates
//     the account, and fulfills the invitation with a conditional update.
//     Fulfillment is terminal and idempotent-guarded: a second submission
//     fails with ErrAlreadyFulfilled and no second account is created.
//
// Tokens:
//   - TokenCodec seals {email, expiry} payloads with AES-GCM under a key
//     derived from the configured secret and hex encodes the result for use
//     in links. Tampered or expired tokens fail to decrypt.
//
// Forms:
//   - Login, registration, and password-change payloads validate with ozzo
//     rules plus an explicit pipeline for the stateful checks (email
//     uniqueness, old-password verification). Failures map onto the
//     package's error taxonomy and can be flattened to per-field messages
//     with FormatValidationErrorToMap.
package visitor
