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

package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/sage-x-project/didcomm-mediator/persistence"
)

// PendingMessageCount counts pending messages for authPubkey, optionally
// restricted to one recipient key.
func (s *Store) PendingMessageCount(ctx context.Context, authPubkey string, recipientKey *string) (uint64, error) {
	var count uint64
	var err error
	if recipientKey != nil {
		err = s.pool.QueryRow(ctx,
			`SELECT COUNT(*) FROM pending_messages WHERE auth_pubkey = $1 AND recipient_key = $2`,
			authPubkey, *recipientKey,
		).Scan(&count)
	} else {
		err = s.pool.QueryRow(ctx,
			`SELECT COUNT(*) FROM pending_messages WHERE auth_pubkey = $1`,
			authPubkey,
		).Scan(&count)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to count pending messages: %w", err)
	}
	return count, nil
}

// PendingMessages returns up to limit pending messages for authPubkey in
// FIFO order (by insertion sequence), optionally restricted to one
// recipient key.
func (s *Store) PendingMessages(ctx context.Context, authPubkey string, limit *int, recipientKey *string) ([]persistence.PendingMessage, error) {
	query := `
		SELECT message_id, recipient_key, body, enqueued_at
		FROM pending_messages
		WHERE auth_pubkey = $1
	`
	args := []any{authPubkey}

	if recipientKey != nil {
		query += fmt.Sprintf(" AND recipient_key = $%d", len(args)+1)
		args = append(args, *recipientKey)
	}
	query += " ORDER BY seq ASC"
	if limit != nil {
		query += fmt.Sprintf(" LIMIT $%d", len(args)+1)
		args = append(args, *limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch pending messages: %w", err)
	}
	defer rows.Close()

	var out []persistence.PendingMessage
	for rows.Next() {
		var msg persistence.PendingMessage
		if err := rows.Scan(&msg.MessageID, &msg.RecipientKey, &msg.Body, &msg.EnqueuedAt); err != nil {
			return nil, fmt.Errorf("failed to scan pending message: %w", err)
		}
		out = append(out, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating pending messages: %w", err)
	}
	return out, nil
}

// RemoveMessages deletes the named messages from authPubkey's queue.
// Unknown message IDs are ignored.
func (s *Store) RemoveMessages(ctx context.Context, authPubkey string, messageIDs []string) error {
	if len(messageIDs) == 0 {
		return nil
	}
	_, err := s.pool.Exec(ctx,
		`DELETE FROM pending_messages WHERE auth_pubkey = $1 AND message_id = ANY($2)`,
		authPubkey, messageIDs,
	)
	if err != nil {
		return fmt.Errorf("failed to remove messages: %w", err)
	}
	return nil
}

// EnqueueMessage resolves the account owning recipientKey and appends
// body to its queue, returning the assigned message ID.
func (s *Store) EnqueueMessage(ctx context.Context, recipientKey string, body []byte) (string, error) {
	var authPubkey string
	err := s.pool.QueryRow(ctx,
		`SELECT auth_pubkey FROM recipient_keys WHERE recipient_key = $1`,
		recipientKey,
	).Scan(&authPubkey)
	if err == pgx.ErrNoRows {
		return "", persistence.ErrUnknownRecipientKey
	}
	if err != nil {
		return "", fmt.Errorf("failed to resolve recipient key owner: %w", err)
	}

	messageID := uuid.NewString()
	_, err = s.pool.Exec(ctx,
		`INSERT INTO pending_messages (message_id, auth_pubkey, recipient_key, body, enqueued_at)
		 VALUES ($1, $2, $3, $4, NOW())`,
		messageID, authPubkey, recipientKey, body,
	)
	if err != nil {
		return "", fmt.Errorf("failed to enqueue message: %w", err)
	}
	return messageID, nil
}
