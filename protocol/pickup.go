package protocol

import (
	"context"
	"encoding/base64"
	"encoding/json"

	"github.com/sage-x-project/didcomm-mediator/internal/logger"
	"github.com/sage-x-project/didcomm-mediator/internal/metrics"
	"github.com/sage-x-project/didcomm-mediator/persistence"
)

// StatusRequest asks for the account's pending-message count, optionally
// restricted to one recipient key.
type StatusRequest struct {
	Header
	RecipientKey *string `json:"recipient_key,omitempty"`
}

// Status reports a pending-message count.
type Status struct {
	Header
	Thread       Thread  `json:"~thread"`
	Transport    Transport `json:"~transport"`
	MessageCount uint64  `json:"message_count"`
	RecipientKey *string `json:"recipient_key,omitempty"`
}

// DeliveryRequest asks for up to Limit pending messages, optionally
// restricted to one recipient key.
type DeliveryRequest struct {
	Header
	Limit        int     `json:"limit"`
	RecipientKey *string `json:"recipient_key,omitempty"`
}

// Attachment carries one delivered message, base64url-encoded.
type Attachment struct {
	ID   string             `json:"id"`
	Data AttachmentData `json:"data"`
}

// AttachmentData wraps the base64url payload of an Attachment.
type AttachmentData struct {
	Base64 string `json:"base64"`
}

// Delivery carries a batch of pending messages in FIFO order.
type Delivery struct {
	Header
	Thread       Thread       `json:"~thread"`
	Transport    Transport    `json:"~transport"`
	RecipientKey *string      `json:"recipient_key,omitempty"`
	Attach       []Attachment `json:"attach"`
}

// MessagesReceived acknowledges delivery, asking the mediator to remove
// the named messages from the queue.
type MessagesReceived struct {
	Header
	MessageIDs []string `json:"message_ids"`
}

// HandlePickupAuthenticated dispatches every Pickup variant for a sender
// already known to have an account.
func HandlePickupAuthenticated(ctx context.Context, store persistence.Store, authPubkey string, header Header, body []byte) (any, error) {
	switch header.Type {
	case TypeStatusRequest:
		var msg StatusRequest
		if err := json.Unmarshal(body, &msg); err != nil {
			return newProblemReport("malformed-status-request", err.Error()), nil
		}
		return handleStatusRequest(ctx, store, authPubkey, msg.ID, msg.RecipientKey)

	case TypeStatus:
		// A client sending Status to a server is a protocol error; the
		// core responds with the default status behavior to preserve
		// liveness rather than erroring.
		return handleDefaultStatus(ctx, store, authPubkey)

	case TypeDeliveryRequest:
		var msg DeliveryRequest
		if err := json.Unmarshal(body, &msg); err != nil {
			return newProblemReport("malformed-delivery-request", err.Error()), nil
		}
		return handleDeliveryRequest(ctx, store, authPubkey, msg)

	case TypeMessagesReceived:
		var msg MessagesReceived
		if err := json.Unmarshal(body, &msg); err != nil {
			return newProblemReport("malformed-messages-received", err.Error()), nil
		}
		if err := store.RemoveMessages(ctx, authPubkey, msg.MessageIDs); err != nil {
			logInternalError("remove-messages", logger.ErrCodeInternal, err)
			return newProblemReport("remove-messages-failed", err.Error()), nil
		}
		metrics.MessagesAcked.Add(float64(len(msg.MessageIDs)))
		metrics.GetGlobalCollector().RecordMessagesAcked(len(msg.MessageIDs))
		return handleDefaultStatus(ctx, store, authPubkey)

	default:
		return handleDefaultStatus(ctx, store, authPubkey)
	}
}

func handleStatusRequest(ctx context.Context, store persistence.Store, authPubkey, requestID string, recipientKey *string) (any, error) {
	metrics.StatusRequests.Inc()
	count, err := store.PendingMessageCount(ctx, authPubkey, recipientKey)
	if err != nil {
		logInternalError("status-request", logger.ErrCodeInternal, err)
		return newProblemReport("status-request-failed", err.Error()), nil
	}
	metrics.QueueDepth.Set(float64(count))
	return &Status{
		Header:       Header{ID: newID(), Type: TypeStatus},
		Thread:       Thread{ThreadID: requestID},
		Transport:    Transport{ReturnRoute: "all"},
		MessageCount: count,
		RecipientKey: recipientKey,
	}, nil
}

// handleDefaultStatus synthesizes a fresh StatusRequest and answers it,
// matching the source's behavior when asked for a status-shaped response
// that isn't threaded to any real inbound request (the Status-sent-to-server
// case, the MessagesReceived ack, and any other unimplemented Pickup
// variant).
func handleDefaultStatus(ctx context.Context, store persistence.Store, authPubkey string) (any, error) {
	return handleStatusRequest(ctx, store, authPubkey, newID(), nil)
}

func handleDeliveryRequest(ctx context.Context, store persistence.Store, authPubkey string, req DeliveryRequest) (any, error) {
	limit := req.Limit
	messages, err := store.PendingMessages(ctx, authPubkey, &limit, req.RecipientKey)
	if err != nil {
		logInternalError("delivery-request", logger.ErrCodeInternal, err)
		return newProblemReport("delivery-request-failed", err.Error()), nil
	}

	if len(messages) == 0 {
		// Empty delivery falls back to status, per scenario 4. The
		// fallback synthesizes a fresh, unfiltered StatusRequest rather
		// than threading to the DeliveryRequest, matching the source.
		metrics.MessagesDelivered.WithLabelValues("status_fallback").Inc()
		return handleDefaultStatus(ctx, store, authPubkey)
	}

	metrics.MessagesDelivered.WithLabelValues("delivery").Add(float64(len(messages)))
	metrics.DeliveryBatchSize.Observe(float64(len(messages)))
	metrics.GetGlobalCollector().RecordMessagesDelivered(len(messages))

	attach := make([]Attachment, 0, len(messages))
	for _, msg := range messages {
		attach = append(attach, Attachment{
			ID: msg.MessageID,
			Data: AttachmentData{
				Base64: base64.URLEncoding.WithPadding(base64.NoPadding).EncodeToString(msg.Body),
			},
		})
	}

	return &Delivery{
		Header:       Header{ID: newID(), Type: TypeDelivery},
		Thread:       Thread{ThreadID: req.ID},
		Transport:    Transport{ReturnRoute: "all"},
		RecipientKey: req.RecipientKey,
		Attach:       attach,
	}, nil
}
