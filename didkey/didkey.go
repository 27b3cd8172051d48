// Package didkey normalizes did:key: fingerprints to raw base58 verkeys at
// the protocol boundary, per the mediator's recipient-key representation.
package didkey

import (
	"crypto/ed25519"
	"strings"

	"github.com/mr-tron/base58"
)

const prefix = "did:key:"

// ed25519Multicodec is the multicodec varint prefix (0xed01) for an
// Ed25519 public key, per the did:key method spec.
var ed25519Multicodec = []byte{0xed, 0x01}

// Normalize converts a did:key:<fingerprint> recipient key to its raw
// base58 verkey. Values without the did:key: prefix, and did:key: values
// that fail to decode, are returned unchanged — this is the sole place in
// the mediator where invalid input is tolerated silently, matching the
// best-effort compatibility the protocol requires at this boundary.
func Normalize(recipientKey string) string {
	fingerprint, ok := strings.CutPrefix(recipientKey, prefix)
	if !ok {
		return recipientKey
	}
	verkey, err := decodeFingerprint(fingerprint)
	if err != nil {
		return recipientKey
	}
	return verkey
}

// decodeFingerprint decodes a base58btc multibase fingerprint ("z...")
// carrying an Ed25519 public key and returns its raw base58 encoding.
func decodeFingerprint(fingerprint string) (string, error) {
	body, ok := strings.CutPrefix(fingerprint, "z")
	if !ok {
		return "", errNotBase58btc
	}

	raw, err := base58.Decode(body)
	if err != nil {
		return "", err
	}
	if len(raw) < len(ed25519Multicodec) ||
		raw[0] != ed25519Multicodec[0] || raw[1] != ed25519Multicodec[1] {
		return "", errNotEd25519
	}

	pub := raw[len(ed25519Multicodec):]
	if len(pub) != ed25519.PublicKeySize {
		return "", errBadKeyLength
	}
	return base58.Encode(pub), nil
}
