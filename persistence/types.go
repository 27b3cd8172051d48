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

package persistence

import "time"

// Account is a registered mediation client, identified by the base58
// verkey it authenticated with on its first MediateRequest.
type Account struct {
	AuthPubkey string    `json:"auth_pubkey"`
	SigningKey string    `json:"signing_key"`
	DIDDoc     string    `json:"did_doc"`
	CreatedAt  time.Time `json:"created_at"`
}

// RecipientKey binds a base58 verkey to the account allowed to receive
// messages forwarded to it. (account, recipient_key) is unique; a key
// belongs to at most one account at a time.
type RecipientKey struct {
	RecipientKey string    `json:"recipient_key"`
	AuthPubkey   string    `json:"auth_pubkey"`
	CreatedAt    time.Time `json:"created_at"`
}

// PendingMessage is an opaque forwarded payload queued for an account,
// addressed to one of its recipient keys.
type PendingMessage struct {
	MessageID    string    `json:"message_id"`
	RecipientKey string    `json:"recipient_key"`
	Body         []byte    `json:"body"`
	EnqueuedAt   time.Time `json:"enqueued_at"`
}
