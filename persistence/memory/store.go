// SAGE - Secure Agent Guarantee Engine
// Copyright (C) 2025 SAGE-X-project
//
// This file is part of SAGE.
//
// SAGE is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// SAGE is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with SAGE. If not, see <https://www.gnu.org/licenses/>.

package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sage-x-project/didcomm-mediator/persistence"
)

// Store implements persistence.Store with in-memory maps. Intended for
// tests and local runs; all operations are guarded by a single mutex since
// the mediator has no throughput requirement that would justify finer
// locking here.
type Store struct {
	mu sync.RWMutex

	accounts  map[string]*persistence.Account
	recipient map[string]string // recipient_key -> auth_pubkey
	queue     map[string][]*persistence.PendingMessage
}

var _ persistence.Store = (*Store)(nil)

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		accounts:  make(map[string]*persistence.Account),
		recipient: make(map[string]string),
		queue:     make(map[string][]*persistence.PendingMessage),
	}
}

// Close is a no-op for the in-memory store.
func (s *Store) Close() error { return nil }

// Ping always succeeds for the in-memory store.
func (s *Store) Ping(ctx context.Context) error { return nil }

// Clear removes all data. Useful between test cases.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.accounts = make(map[string]*persistence.Account)
	s.recipient = make(map[string]string)
	s.queue = make(map[string][]*persistence.PendingMessage)
}

func (s *Store) AccountExists(ctx context.Context, authPubkey string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.accounts[authPubkey]
	return ok, nil
}

func (s *Store) CreateAccount(ctx context.Context, authPubkey, signingKey, didDoc string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.accounts[authPubkey]; ok {
		if existing.SigningKey == signingKey && existing.DIDDoc == didDoc {
			return nil
		}
		return persistence.ErrAccountExists
	}

	s.accounts[authPubkey] = &persistence.Account{
		AuthPubkey: authPubkey,
		SigningKey: signingKey,
		DIDDoc:     didDoc,
		CreatedAt:  time.Now(),
	}
	return nil
}

func (s *Store) AddRecipient(ctx context.Context, authPubkey, recipientKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[authPubkey]; !ok {
		return persistence.ErrAccountNotFound
	}
	if _, bound := s.recipient[recipientKey]; bound {
		return persistence.ErrRecipientKeyExists
	}

	s.recipient[recipientKey] = authPubkey
	return nil
}

func (s *Store) RemoveRecipient(ctx context.Context, authPubkey, recipientKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	owner, bound := s.recipient[recipientKey]
	if !bound || owner != authPubkey {
		return persistence.ErrRecipientKeyNotFound
	}

	delete(s.recipient, recipientKey)
	return nil
}

func (s *Store) ListRecipientKeys(ctx context.Context, authPubkey string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var keys []string
	for key, owner := range s.recipient {
		if owner == authPubkey {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

func (s *Store) PendingMessageCount(ctx context.Context, authPubkey string, recipientKey *string) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count uint64
	for _, msg := range s.queue[authPubkey] {
		if recipientKey != nil && msg.RecipientKey != *recipientKey {
			continue
		}
		count++
	}
	return count, nil
}

func (s *Store) PendingMessages(ctx context.Context, authPubkey string, limit *int, recipientKey *string) ([]persistence.PendingMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []persistence.PendingMessage
	for _, msg := range s.queue[authPubkey] {
		if recipientKey != nil && msg.RecipientKey != *recipientKey {
			continue
		}
		out = append(out, *msg)
		if limit != nil && len(out) >= *limit {
			break
		}
	}
	return out, nil
}

func (s *Store) RemoveMessages(ctx context.Context, authPubkey string, messageIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	remove := make(map[string]struct{}, len(messageIDs))
	for _, id := range messageIDs {
		remove[id] = struct{}{}
	}

	existing := s.queue[authPubkey]
	kept := existing[:0:0]
	for _, msg := range existing {
		if _, drop := remove[msg.MessageID]; drop {
			continue
		}
		kept = append(kept, msg)
	}
	s.queue[authPubkey] = kept
	return nil
}

func (s *Store) EnqueueMessage(ctx context.Context, recipientKey string, body []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	owner, bound := s.recipient[recipientKey]
	if !bound {
		return "", persistence.ErrUnknownRecipientKey
	}

	bodyCopy := make([]byte, len(body))
	copy(bodyCopy, body)

	msg := &persistence.PendingMessage{
		MessageID:    uuid.NewString(),
		RecipientKey: recipientKey,
		Body:         bodyCopy,
		EnqueuedAt:   time.Now(),
	}
	s.queue[owner] = append(s.queue[owner], msg)
	return msg.MessageID, nil
}
