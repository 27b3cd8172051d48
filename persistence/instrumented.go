package persistence

import (
	"context"
	"time"

	"github.com/sage-x-project/didcomm-mediator/internal/metrics"
)

// Instrumented wraps a Store, recording a Prometheus counter and latency
// histogram for every call. The dispatcher and protocol handlers never see
// the wrapper directly; cmd/mediator decides whether to wire it in front of
// the chosen backend.
type Instrumented struct {
	Store
}

var _ Store = (*Instrumented)(nil)

// NewInstrumented wraps store so every operation reports to
// internal/metrics.PersistenceOperations/PersistenceOperationDuration.
func NewInstrumented(store Store) *Instrumented {
	return &Instrumented{Store: store}
}

func observe(operation string, start time.Time, err error) {
	duration := time.Since(start)
	metrics.PersistenceOperationDuration.WithLabelValues(operation).Observe(duration.Seconds())
	result := "success"
	if err != nil {
		result = "failure"
	}
	metrics.PersistenceOperations.WithLabelValues(operation, result).Inc()
	metrics.GetGlobalCollector().RecordPersistence(err == nil, duration)
}

func (s *Instrumented) AccountExists(ctx context.Context, authPubkey string) (bool, error) {
	start := time.Now()
	ok, err := s.Store.AccountExists(ctx, authPubkey)
	observe("account_exists", start, err)
	return ok, err
}

func (s *Instrumented) CreateAccount(ctx context.Context, authPubkey, signingKey, didDoc string) error {
	start := time.Now()
	err := s.Store.CreateAccount(ctx, authPubkey, signingKey, didDoc)
	observe("create_account", start, err)
	return err
}

func (s *Instrumented) AddRecipient(ctx context.Context, authPubkey, recipientKey string) error {
	start := time.Now()
	err := s.Store.AddRecipient(ctx, authPubkey, recipientKey)
	observe("add_recipient", start, err)
	return err
}

func (s *Instrumented) RemoveRecipient(ctx context.Context, authPubkey, recipientKey string) error {
	start := time.Now()
	err := s.Store.RemoveRecipient(ctx, authPubkey, recipientKey)
	observe("remove_recipient", start, err)
	return err
}

func (s *Instrumented) ListRecipientKeys(ctx context.Context, authPubkey string) ([]string, error) {
	start := time.Now()
	keys, err := s.Store.ListRecipientKeys(ctx, authPubkey)
	observe("list_recipient_keys", start, err)
	return keys, err
}

func (s *Instrumented) PendingMessageCount(ctx context.Context, authPubkey string, recipientKey *string) (uint64, error) {
	start := time.Now()
	count, err := s.Store.PendingMessageCount(ctx, authPubkey, recipientKey)
	observe("pending_message_count", start, err)
	return count, err
}

func (s *Instrumented) PendingMessages(ctx context.Context, authPubkey string, limit *int, recipientKey *string) ([]PendingMessage, error) {
	start := time.Now()
	messages, err := s.Store.PendingMessages(ctx, authPubkey, limit, recipientKey)
	observe("pending_messages", start, err)
	return messages, err
}

func (s *Instrumented) RemoveMessages(ctx context.Context, authPubkey string, messageIDs []string) error {
	start := time.Now()
	err := s.Store.RemoveMessages(ctx, authPubkey, messageIDs)
	observe("remove_messages", start, err)
	return err
}

func (s *Instrumented) EnqueueMessage(ctx context.Context, recipientKey string, body []byte) (string, error) {
	start := time.Now()
	id, err := s.Store.EnqueueMessage(ctx, recipientKey, body)
	observe("enqueue_message", start, err)
	return id, err
}
