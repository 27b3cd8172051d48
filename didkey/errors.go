package didkey

import "errors"

var (
	errNotBase58btc = errors.New("didkey: fingerprint is not base58btc-multibase")
	errNotEd25519   = errors.New("didkey: fingerprint is not an Ed25519 public key")
	errBadKeyLength = errors.New("didkey: decoded key has the wrong length")
)
