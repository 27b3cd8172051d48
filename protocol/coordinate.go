package protocol

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sage-x-project/didcomm-mediator/didkey"
	"github.com/sage-x-project/didcomm-mediator/internal/logger"
	"github.com/sage-x-project/didcomm-mediator/internal/metrics"
	"github.com/sage-x-project/didcomm-mediator/persistence"
)

// Keylist update actions.
const (
	ActionAdd    = "add"
	ActionRemove = "remove"
)

// Keylist update per-item results. The protocol also defines ClientError
// and NoChange (see spec §9); this implementation only ever produces
// Success/ServerError, matching the original source's behavior.
const (
	ResultSuccess     = "success"
	ResultServerError = "server_error"
)

// MediateRequest is sent by an unregistered client asking to be mediated.
// DIDDoc is an opaque string blob the client supplies at registration
// (spec.md §3's Account.did_doc); the core never interprets it.
type MediateRequest struct {
	Header
	DIDDoc string `json:"did_doc,omitempty"`
}

// MediateGrant is the successful response to MediateRequest.
type MediateGrant struct {
	Header
	Endpoint    string   `json:"endpoint"`
	RoutingKeys []string `json:"routing_keys"`
}

// MediateDeny is the failure response to MediateRequest.
type MediateDeny struct {
	Header
}

// KeylistUpdateItem is one requested change to the account's recipient-key
// set.
type KeylistUpdateItem struct {
	RecipientKey string `json:"recipient_key"`
	Action       string `json:"action"`
}

// KeylistUpdate carries a batch of recipient-key changes.
type KeylistUpdate struct {
	Header
	Updates []KeylistUpdateItem `json:"updates"`
}

// KeylistUpdateResponseItem echoes one requested change with its outcome.
type KeylistUpdateResponseItem struct {
	RecipientKey string `json:"recipient_key"`
	Action       string `json:"action"`
	Result       string `json:"result"`
}

// KeylistUpdateResponse reports per-item results for a KeylistUpdate,
// threaded to the request.
type KeylistUpdateResponse struct {
	Header
	Thread  Thread                      `json:"~thread"`
	Updated []KeylistUpdateResponseItem `json:"updated"`
}

// KeylistQuery asks for the account's full recipient-key set. Pagination
// fields are accepted but ignored.
type KeylistQuery struct {
	Header
	Paginate json.RawMessage `json:"paginate,omitempty"`
}

// KeylistItem is one entry in a Keylist response.
type KeylistItem struct {
	RecipientKey string `json:"recipient_key"`
}

// Keylist enumerates every recipient key bound to the account. Its
// pagination field is always absent/null, and its @id is fresh rather
// than threaded to the query — a deliberate asymmetry, see DESIGN.md.
type Keylist struct {
	Header
	Keys       []KeylistItem `json:"keys"`
	Pagination *struct{}     `json:"pagination"`
}

// HandleMediateRequest processes an unregistered client's MediateRequest.
// It is the only Coordinate Mediation variant that may run without a
// pre-existing account.
func HandleMediateRequest(ctx context.Context, store persistence.Store, authPubkey, signingKey, didDoc, endpoint string, routingKeys []string) (any, error) {
	err := store.CreateAccount(ctx, authPubkey, signingKey, didDoc)
	if err != nil {
		code := logger.ErrCodeInternal
		if errors.Is(err, persistence.ErrAccountExists) {
			code = logger.ErrCodeConflict
		}
		logInternalError("create-account", code, err)
		metrics.MediationRequests.WithLabelValues("denied").Inc()
		return &MediateDeny{Header: Header{ID: newID(), Type: TypeMediateDeny}}, nil
	}
	metrics.MediationRequests.WithLabelValues("granted").Inc()
	metrics.AccountsCreated.Inc()
	return &MediateGrant{
		Header:      Header{ID: newID(), Type: TypeMediateGrant},
		Endpoint:    endpoint,
		RoutingKeys: routingKeys,
	}, nil
}

// HandleCoordinateAuthenticated dispatches every Coordinate Mediation
// variant other than MediateRequest, for a sender already known to have
// an account.
func HandleCoordinateAuthenticated(ctx context.Context, store persistence.Store, authPubkey string, header Header, body []byte) (any, error) {
	switch header.Type {
	case TypeMediateRequest:
		// A pre-registered client re-sending MediateRequest through the
		// authenticated path is a protocol error, not a crash: the
		// source panics here, this implementation reports it instead.
		return newProblemReport("mediate-request-already-registered", "account already mediated"), nil

	case TypeKeylistUpdate:
		var msg KeylistUpdate
		if err := json.Unmarshal(body, &msg); err != nil {
			return newProblemReport("malformed-keylist-update", err.Error()), nil
		}
		return handleKeylistUpdate(ctx, store, authPubkey, msg)

	case TypeKeylistQuery:
		var msg KeylistQuery
		if err := json.Unmarshal(body, &msg); err != nil {
			return newProblemReport("malformed-keylist-query", err.Error()), nil
		}
		return handleKeylistQuery(ctx, store, authPubkey)

	default:
		return newProblemReport("unimplemented-coordinate-mediation-variant", fmt.Sprintf("unsupported @type %q", header.Type)), nil
	}
}

func handleKeylistUpdate(ctx context.Context, store persistence.Store, authPubkey string, msg KeylistUpdate) (any, error) {
	updated := make([]KeylistUpdateResponseItem, 0, len(msg.Updates))
	for _, item := range msg.Updates {
		key := didkey.Normalize(item.RecipientKey)

		var err error
		switch item.Action {
		case ActionAdd:
			err = store.AddRecipient(ctx, authPubkey, key)
		case ActionRemove:
			err = store.RemoveRecipient(ctx, authPubkey, key)
		default:
			err = fmt.Errorf("unknown keylist update action %q", item.Action)
		}

		result := ResultSuccess
		if err != nil {
			result = ResultServerError
			logInternalError("keylist-update:"+item.Action, logger.ErrCodeInternal, err)
		}
		metrics.KeylistUpdates.WithLabelValues(item.Action, result).Inc()
		metrics.GetGlobalCollector().RecordKeylistUpdate()
		updated = append(updated, KeylistUpdateResponseItem{
			RecipientKey: item.RecipientKey,
			Action:       item.Action,
			Result:       result,
		})
	}

	return &KeylistUpdateResponse{
		Header:  Header{ID: newID(), Type: TypeKeylistUpdateResponse},
		Thread:  Thread{ThreadID: msg.ID},
		Updated: updated,
	}, nil
}

func handleKeylistQuery(ctx context.Context, store persistence.Store, authPubkey string) (any, error) {
	metrics.KeylistQueries.Inc()
	recipientKeys, err := store.ListRecipientKeys(ctx, authPubkey)
	if err != nil {
		logInternalError("keylist-query", logger.ErrCodeInternal, err)
		return newProblemReport("keylist-query-failed", err.Error()), nil
	}

	items := make([]KeylistItem, 0, len(recipientKeys))
	for _, key := range recipientKeys {
		items = append(items, KeylistItem{RecipientKey: key})
	}

	return &Keylist{
		Header: Header{ID: newID(), Type: TypeKeylist},
		Keys:   items,
	}, nil
}
