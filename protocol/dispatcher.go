package protocol

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sage-x-project/didcomm-mediator/didkey"
	"github.com/sage-x-project/didcomm-mediator/internal/logger"
	"github.com/sage-x-project/didcomm-mediator/internal/metrics"
	"github.com/sage-x-project/didcomm-mediator/persistence"
	"github.com/sage-x-project/didcomm-mediator/wallet"
)

// Forward is a DIDComm message whose payload is another opaque envelope to
// be delivered to a named recipient key.
type Forward struct {
	Header
	To  string `json:"to"`
	Msg string `json:"msg"` // base64url, no padding
}

// Dispatcher is the inbound pipeline (C4): unpack, decode, route to the
// correct protocol handler, pack the response for the original sender.
type Dispatcher struct {
	Wallet      wallet.Wallet
	Store       persistence.Store
	Endpoint    string
	RoutingKeys []string
}

// NewDispatcher builds a Dispatcher around a wallet and persistence
// handle. endpoint and routingKeys are advertised in MediateGrant
// responses.
func NewDispatcher(w wallet.Wallet, store persistence.Store, endpoint string, routingKeys []string) *Dispatcher {
	return &Dispatcher{Wallet: w, Store: store, Endpoint: endpoint, RoutingKeys: routingKeys}
}

// HandleWire processes one inbound wire message end to end. A nil,nil
// result means the caller should return an empty body (e.g. a bare
// Forward ack). An error means the envelope itself was malformed or
// unauthenticated — the boundary should respond HTTP 400, not a DIDComm
// reply.
func (d *Dispatcher) HandleWire(ctx context.Context, wireBytes []byte) ([]byte, error) {
	senderVerkey, plaintext, err := d.Wallet.Unpack(ctx, wireBytes)
	if err != nil {
		logInternalError("unpack", logger.ErrCodeCryptoError, err)
		return nil, fmt.Errorf("dispatcher: unpack: %w", err)
	}

	var header Header
	if err := json.Unmarshal(plaintext, &header); err != nil {
		return nil, fmt.Errorf("dispatcher: decode: %w", err)
	}

	response, err := d.route(ctx, senderVerkey, header, plaintext)
	if err != nil {
		return nil, err
	}
	if response == nil {
		return nil, nil
	}

	responseJSON, err := json.Marshal(response)
	if err != nil {
		return nil, fmt.Errorf("dispatcher: encode response: %w", err)
	}

	mediatorVerkey := d.Wallet.Verkey()
	wireResponse, err := d.Wallet.Pack(ctx, responseJSON, senderVerkey, &mediatorVerkey)
	if err != nil {
		logInternalError("pack", logger.ErrCodeCryptoError, err)
		return nil, err
	}
	return wireResponse, nil
}

func (d *Dispatcher) route(ctx context.Context, senderVerkey string, header Header, plaintext []byte) (any, error) {
	switch {
	case header.Type == TypeForward:
		return d.handleForward(ctx, plaintext)

	case header.Type == TypeMediateRequest:
		// The only variant legal for an unregistered sender.
		var req MediateRequest
		if err := json.Unmarshal(plaintext, &req); err != nil {
			return newProblemReport("malformed-mediate-request", err.Error()), nil
		}
		return HandleMediateRequest(ctx, d.Store, senderVerkey, d.Wallet.Verkey(), req.DIDDoc, d.Endpoint, d.RoutingKeys)

	case strings.HasPrefix(header.Type, coordinateMediationFamily):
		if ok, err := d.requireAccount(ctx, senderVerkey); !ok {
			return newProblemReport("unknown-account", err.Error()), nil
		}
		return HandleCoordinateAuthenticated(ctx, d.Store, senderVerkey, header, plaintext)

	case strings.HasPrefix(header.Type, pickupFamily):
		if ok, err := d.requireAccount(ctx, senderVerkey); !ok {
			return newProblemReport("unknown-account", err.Error()), nil
		}
		return HandlePickupAuthenticated(ctx, d.Store, senderVerkey, header, plaintext)

	default:
		return newProblemReport("unknown-message-type", fmt.Sprintf("unrecognized @type %q", header.Type)), nil
	}
}

// requireAccount enforces spec.md §3's invariant that only MediateRequest
// may arrive for a sender with no existing account. ok is false both when
// the account genuinely doesn't exist and when the existence check itself
// failed; err explains which.
func (d *Dispatcher) requireAccount(ctx context.Context, authPubkey string) (ok bool, err error) {
	exists, err := d.Store.AccountExists(ctx, authPubkey)
	if err != nil {
		logInternalError("account-lookup", logger.ErrCodeInternal, err)
		return false, fmt.Errorf("account lookup failed: %w", err)
	}
	if !exists {
		return false, fmt.Errorf("sender has no mediated account")
	}
	return true, nil
}

func (d *Dispatcher) handleForward(ctx context.Context, plaintext []byte) (any, error) {
	var fwd Forward
	if err := json.Unmarshal(plaintext, &fwd); err != nil {
		return newProblemReport("malformed-forward", err.Error()), nil
	}

	body, err := base64.URLEncoding.WithPadding(base64.NoPadding).DecodeString(fwd.Msg)
	if err != nil {
		return newProblemReport("malformed-forward", "msg is not valid base64url"), nil
	}

	recipientKey := didkey.Normalize(fwd.To)
	if _, err := d.Store.EnqueueMessage(ctx, recipientKey, body); err != nil {
		logInternalError("forward", logger.ErrCodeInternal, err)
		return newProblemReport("forward-failed", err.Error()), nil
	}
	metrics.MessagesEnqueued.Inc()
	metrics.GetGlobalCollector().RecordMessageEnqueued()

	// Empty 200 body: the spec permits either a protocol-appropriate ack
	// or no reply at all; Forward has no natural response message.
	return nil, nil
}
