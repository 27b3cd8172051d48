// Copyright (C) 2025 sage-x-project
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

// SPDX-License-Identifier: LGPL-3.0-or-later

package main

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/sage-x-project/didcomm-mediator/internal/logger"
	"github.com/sage-x-project/didcomm-mediator/protocol"
)

// maxDIDCommBodyBytes bounds the request body the dispatcher will read,
// per spec.md §5's "Request-body size is bounded at the boundary (default
// 30 MiB) to cap per-task memory."
const maxDIDCommBodyBytes = 30 * 1024 * 1024

// mediatorHTTPHandler wires the three HTTP routes spec.md §6 names:
// the DIDComm envelope endpoint and the two out-of-band invitation
// variants.
type mediatorHTTPHandler struct {
	dispatcher *protocol.Dispatcher
	invitation outOfBandInvitation
	endpoint   string
	log        logger.Logger
}

func newRouter(h *mediatorHTTPHandler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/didcomm", h.handleDIDComm)
	mux.HandleFunc("/register.json", h.handleRegisterJSON)
	mux.HandleFunc("/invite", h.handleInvite)
	return mux
}

// handleDIDComm is the inbound pipeline's HTTP boundary: it reads the
// packed wire bytes, hands them to the dispatcher, and relays whatever
// comes back untouched. An envelope-level error (unpack/auth failure)
// becomes HTTP 400 with no DIDComm reply, matching spec.md §7's error
// taxonomy: the core never gets a chance to produce a problem-report for
// a message it couldn't even authenticate.
func (h *mediatorHTTPHandler) handleDIDComm(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxDIDCommBodyBytes)
	wireBytes, err := io.ReadAll(r.Body)
	if err != nil {
		h.log.Warn("didcomm: request body read failed", logger.Error(err))
		http.Error(w, "request body too large or unreadable", http.StatusBadRequest)
		return
	}

	response, err := h.dispatcher.HandleWire(r.Context(), wireBytes)
	if err != nil {
		h.log.Warn("didcomm: envelope rejected", logger.Error(err))
		http.Error(w, "envelope rejected", http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	if len(response) == 0 {
		w.WriteHeader(http.StatusOK)
		return
	}
	_, _ = w.Write(response)
}

// handleRegisterJSON serves the mediator's out-of-band invitation as a
// plain JSON document, for clients that fetch it directly rather than
// scanning a QR code.
func (h *mediatorHTTPHandler) handleRegisterJSON(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(h.invitation); err != nil {
		h.log.Error("register.json: encode failed", logger.Error(err))
	}
}

// handleInvite serves the invitation wrapped in a clickable URL, per
// spec.md §6's `{"invitationUrl": "<endpoint>?oob=<base64url(oob_msg)>"}`.
func (h *mediatorHTTPHandler) handleInvite(w http.ResponseWriter, r *http.Request) {
	url, err := invitationURL(h.invitation, h.endpoint)
	if err != nil {
		h.log.Error("invite: build url failed", logger.Error(err))
		http.Error(w, "failed to build invitation", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"invitationUrl": url})
}

func newHTTPServer(addr string, mux *http.ServeMux) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
