// Package wallet implements the mediator's envelope capability: packing
// and unpacking DIDComm wire messages against the mediator's own Ed25519
// signing identity, without ever exposing the underlying private keys to
// callers.
package wallet

import (
	"context"
	"crypto/ed25519"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mr-tron/base58"
	mediatorcrypto "github.com/sage-x-project/didcomm-mediator/crypto"
	"github.com/sage-x-project/didcomm-mediator/crypto/keys"
	"github.com/sage-x-project/didcomm-mediator/internal/metrics"
)

// ErrEnvelope covers every way an inbound wire message can fail to unpack:
// malformed JSON, an unknown recipient, or a MAC/signature failure.
var ErrEnvelope = errors.New("wallet: invalid envelope")

// Wallet is the capability the dispatcher uses to authenticate and decrypt
// inbound messages and to encrypt outbound ones, without ever seeing key
// material directly. Concrete implementations own a keystore; tests
// substitute TestWallet.
type Wallet interface {
	// Unpack authenticates and decrypts wire bytes addressed to this
	// wallet's own key, returning the sender's base58 verkey and the
	// decrypted plaintext.
	Unpack(ctx context.Context, wireBytes []byte) (senderVerkey string, plaintext []byte, err error)

	// Pack encrypts plaintext for recipientVerkey. When senderVerkey is
	// non-nil, the envelope is authenticated (authcrypt): the wallet signs
	// the ciphertext with its own signing key and embeds *senderVerkey as
	// the claimed sender identity. A nil senderVerkey produces an
	// anonymous (anoncrypt) envelope with no sender claim.
	Pack(ctx context.Context, plaintext []byte, recipientVerkey string, senderVerkey *string) ([]byte, error)

	// Verkey returns the mediator's own base58 signing verkey, advertised
	// to clients as a routing key.
	Verkey() string
}

const (
	algAnoncrypt = "Anoncrypt"
	algAuthcrypt = "Authcrypt"
)

// envelope is the on-the-wire JSON shape. It is intentionally JWE-adjacent
// (protected header + ciphertext) rather than a literal JWE, since the
// underlying crypto (Ed25519-peer ECDH + HKDF + AES-256-GCM, see
// crypto/keys.EncryptWithEd25519Peer) isn't JOSE-registered.
type envelope struct {
	Alg          string `json:"alg"`
	Ciphertext   string `json:"ciphertext"`            // base58: ephPub||nonce||ct
	SenderVerkey string `json:"sender_verkey,omitempty"`
	SenderSig    string `json:"sender_sig,omitempty"` // ed25519 sig over Ciphertext's decoded bytes
}

// keyWallet is the production Wallet, backed by an Ed25519/X25519 key pair
// held in a mediatorcrypto.KeyStorage.
type keyWallet struct {
	signing mediatorcrypto.KeyPair // Ed25519: identity + authcrypt signatures
	verkey  string                 // base58(signing.PublicKey())
}

// NewKeyWallet builds a Wallet around an existing Ed25519 signing key pair.
// The same key pair doubles as the X25519 agreement key via the
// birational map in crypto/keys (EncryptWithEd25519Peer/DecryptWithEd25519Peer).
func NewKeyWallet(signing mediatorcrypto.KeyPair) (Wallet, error) {
	if signing.Type() != mediatorcrypto.KeyTypeEd25519 {
		return nil, fmt.Errorf("wallet: signing key must be Ed25519, got %s", signing.Type())
	}
	pub, ok := signing.PublicKey().(ed25519.PublicKey)
	if !ok {
		return nil, fmt.Errorf("wallet: signing key public key is not ed25519.PublicKey")
	}
	return &keyWallet{
		signing: signing,
		verkey:  base58.Encode(pub),
	}, nil
}

func (w *keyWallet) Verkey() string { return w.verkey }

func (w *keyWallet) Pack(ctx context.Context, plaintext []byte, recipientVerkey string, senderVerkey *string) (wireBytes []byte, err error) {
	start := time.Now()
	defer func() { observeEnvelopeOp("pack", start, err) }()

	recipientPub, err := decodeVerkey(recipientVerkey)
	if err != nil {
		err = fmt.Errorf("wallet: pack: %w", err)
		metrics.EnvelopeErrors.WithLabelValues("pack", "bad_recipient").Inc()
		return nil, err
	}

	ct, encErr := keys.EncryptWithEd25519Peer(recipientPub, plaintext)
	if encErr != nil {
		err = fmt.Errorf("wallet: pack: %w", encErr)
		metrics.EnvelopeErrors.WithLabelValues("pack", "encrypt_failed").Inc()
		return nil, err
	}

	env := envelope{
		Alg:        algAnoncrypt,
		Ciphertext: base58.Encode(ct),
	}
	if senderVerkey != nil {
		priv, ok := w.signing.PrivateKey().(ed25519.PrivateKey)
		if !ok {
			err = fmt.Errorf("wallet: pack: signing key has no private half")
			metrics.EnvelopeErrors.WithLabelValues("pack", "no_private_key").Inc()
			return nil, err
		}
		env.Alg = algAuthcrypt
		env.SenderVerkey = *senderVerkey
		env.SenderSig = base58.Encode(ed25519.Sign(priv, ct))
	}

	wireBytes, err = json.Marshal(env)
	return wireBytes, err
}

func (w *keyWallet) Unpack(ctx context.Context, wireBytes []byte) (senderVerkey string, plaintext []byte, err error) {
	start := time.Now()
	defer func() { observeEnvelopeOp("unpack", start, err) }()

	var env envelope
	if jsonErr := json.Unmarshal(wireBytes, &env); jsonErr != nil {
		err = fmt.Errorf("%w: %v", ErrEnvelope, jsonErr)
		metrics.EnvelopeErrors.WithLabelValues("unpack", "malformed_json").Inc()
		return "", nil, err
	}
	if env.Alg != algAuthcrypt {
		err = fmt.Errorf("%w: inbound messages must be authenticated", ErrEnvelope)
		metrics.EnvelopeErrors.WithLabelValues("unpack", "not_authenticated").Inc()
		return "", nil, err
	}
	if env.SenderVerkey == "" || env.SenderSig == "" {
		err = fmt.Errorf("%w: missing sender identity", ErrEnvelope)
		metrics.EnvelopeErrors.WithLabelValues("unpack", "missing_sender").Inc()
		return "", nil, err
	}

	ct, decErr := base58.Decode(env.Ciphertext)
	if decErr != nil {
		err = fmt.Errorf("%w: %v", ErrEnvelope, decErr)
		metrics.EnvelopeErrors.WithLabelValues("unpack", "bad_ciphertext").Inc()
		return "", nil, err
	}
	sig, decErr := base58.Decode(env.SenderSig)
	if decErr != nil {
		err = fmt.Errorf("%w: %v", ErrEnvelope, decErr)
		metrics.EnvelopeErrors.WithLabelValues("unpack", "bad_signature").Inc()
		return "", nil, err
	}
	senderPub, decErr := decodeVerkey(env.SenderVerkey)
	if decErr != nil {
		err = fmt.Errorf("%w: %v", ErrEnvelope, decErr)
		metrics.EnvelopeErrors.WithLabelValues("unpack", "bad_sender_verkey").Inc()
		return "", nil, err
	}
	// The sender is known only by its public verkey; wrap it as a
	// verification-only KeyPair rather than calling ed25519.Verify directly,
	// so signature checking goes through the same KeyPair.Verify contract
	// the rest of crypto/keys uses.
	senderKey := keys.NewPublicKeyOnlyEd25519(senderPub, "")
	if verifyErr := senderKey.Verify(ct, sig); verifyErr != nil {
		err = fmt.Errorf("%w: sender signature mismatch", ErrEnvelope)
		metrics.EnvelopeErrors.WithLabelValues("unpack", "sig_mismatch").Inc()
		return "", nil, err
	}

	priv, ok := w.signing.PrivateKey().(ed25519.PrivateKey)
	if !ok {
		err = fmt.Errorf("wallet: unpack: signing key has no private half")
		metrics.EnvelopeErrors.WithLabelValues("unpack", "no_private_key").Inc()
		return "", nil, err
	}
	plaintext, decErr = keys.DecryptWithEd25519Peer(priv, ct)
	if decErr != nil {
		err = fmt.Errorf("%w: %v", ErrEnvelope, decErr)
		metrics.EnvelopeErrors.WithLabelValues("unpack", "decrypt_failed").Inc()
		return "", nil, err
	}

	return env.SenderVerkey, plaintext, nil
}

// observeEnvelopeOp records the pack/unpack duration and success/failure
// counter for one Wallet operation, both as Prometheus vectors and on the
// lightweight in-process collector the health server's /metrics.json
// snapshot reads.
func observeEnvelopeOp(operation string, start time.Time, err error) {
	duration := time.Since(start)
	metrics.EnvelopeOperationDuration.WithLabelValues(operation).Observe(duration.Seconds())
	result := "success"
	if err != nil {
		result = "failure"
	}
	metrics.EnvelopeOperations.WithLabelValues(operation, result).Inc()
	metrics.GetGlobalCollector().RecordEnvelope(operation == "unpack", err == nil, duration)
}

func decodeVerkey(verkey string) (ed25519.PublicKey, error) {
	raw, err := base58.Decode(verkey)
	if err != nil {
		return nil, fmt.Errorf("invalid verkey: %w", err)
	}
	if len(raw) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("invalid verkey length: %d", len(raw))
	}
	return ed25519.PublicKey(raw), nil
}
