// Package protocol implements the mediator's two peer protocols
// (Coordinate Mediation and Message Pickup) and the dispatcher that routes
// decoded DIDComm plaintext to them.
package protocol

import "github.com/google/uuid"

// Message family/type strings. DIDComm messages are identified by @type, a
// fully-qualified URI of protocol-family/version/message-name.
const (
	TypeForward = "https://didcomm.org/routing/2.0/forward"

	coordinateMediationFamily = "https://didcomm.org/coordinate-mediation/1.0/"
	TypeMediateRequest        = coordinateMediationFamily + "mediate-request"
	TypeMediateGrant          = coordinateMediationFamily + "mediate-grant"
	TypeMediateDeny           = coordinateMediationFamily + "mediate-deny"
	TypeKeylistUpdate         = coordinateMediationFamily + "keylist-update"
	TypeKeylistUpdateResponse = coordinateMediationFamily + "keylist-update-response"
	TypeKeylistQuery          = coordinateMediationFamily + "keylist-query"
	TypeKeylist               = coordinateMediationFamily + "keylist"

	pickupFamily             = "https://didcomm.org/messagepickup/2.0/"
	TypeStatusRequest        = pickupFamily + "status-request"
	TypeStatus               = pickupFamily + "status"
	TypeDeliveryRequest      = pickupFamily + "delivery-request"
	TypeDelivery             = pickupFamily + "delivery"
	TypeMessagesReceived     = pickupFamily + "messages-received"

	TypeProblemReport = "https://didcomm.org/report-problem/1.0/problem-report"
)

// Header is the pair of fields every DIDComm plaintext message carries,
// used to sniff @type before decoding the rest of the body.
type Header struct {
	ID   string `json:"@id"`
	Type string `json:"@type"`
}

// Thread correlates a response to the request that triggered it.
type Thread struct {
	ThreadID string `json:"thid"`
}

// Transport carries the return-route decorator; "all" means the response
// may be piggybacked on the same transport exchange that delivered the
// request.
type Transport struct {
	ReturnRoute string `json:"return_route"`
}

func newID() string { return uuid.NewString() }
