package persistence

import (
	"context"
	"errors"
)

// Common errors returned by Store implementations.
var (
	ErrAccountNotFound      = errors.New("persistence: account not found")
	ErrAccountExists        = errors.New("persistence: account already exists with a different tuple")
	ErrRecipientKeyExists   = errors.New("persistence: recipient key already bound to an account")
	ErrRecipientKeyNotFound = errors.New("persistence: recipient key not bound to this account")
	ErrUnknownRecipientKey  = errors.New("persistence: recipient key has no owning account")
)

// Store is the persistence port (C1): a durable mapping from account
// (auth key) to its DID document, signing key, set of recipient keys, and
// FIFO queue of opaque pending messages. Every operation is individually
// atomic; handlers hold no other mutable state.
type Store interface {
	// AccountExists reports whether authPubkey has a registered account.
	// The dispatcher uses this to enforce that only MediateRequest may
	// arrive for an unregistered sender.
	AccountExists(ctx context.Context, authPubkey string) (bool, error)

	// CreateAccount registers a new account. Idempotent only when the
	// stored tuple matches exactly; otherwise returns ErrAccountExists.
	CreateAccount(ctx context.Context, authPubkey, signingKey, didDoc string) error

	// AddRecipient binds recipientKey to authPubkey. Fails with
	// ErrAccountNotFound if the account is unknown, or
	// ErrRecipientKeyExists if the key is already bound to any account
	// (including this one).
	AddRecipient(ctx context.Context, authPubkey, recipientKey string) error

	// RemoveRecipient unbinds recipientKey from authPubkey. Fails with
	// ErrRecipientKeyNotFound if the pair is absent.
	RemoveRecipient(ctx context.Context, authPubkey, recipientKey string) error

	// ListRecipientKeys returns every recipient key bound to authPubkey.
	// Ordering is not guaranteed; the result never contains duplicates.
	ListRecipientKeys(ctx context.Context, authPubkey string) ([]string, error)

	// PendingMessageCount counts pending messages for authPubkey,
	// optionally restricted to one recipient key.
	PendingMessageCount(ctx context.Context, authPubkey string, recipientKey *string) (uint64, error)

	// PendingMessages returns up to limit pending messages for
	// authPubkey in FIFO order, optionally restricted to one recipient
	// key. It does not remove anything; removal is explicit via
	// RemoveMessages.
	PendingMessages(ctx context.Context, authPubkey string, limit *int, recipientKey *string) ([]PendingMessage, error)

	// RemoveMessages deletes the named messages from authPubkey's queue.
	// Unknown message IDs are ignored.
	RemoveMessages(ctx context.Context, authPubkey string, messageIDs []string) error

	// EnqueueMessage resolves the account owning recipientKey and
	// appends body to its queue, returning the assigned message ID.
	// Fails with ErrUnknownRecipientKey if no account owns the key.
	EnqueueMessage(ctx context.Context, recipientKey string, body []byte) (messageID string, err error)

	// Close releases any resources held by the store.
	Close() error

	// Ping checks that the store is reachable.
	Ping(ctx context.Context) error
}
