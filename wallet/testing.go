package wallet

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/mr-tron/base58"
)

// PackCall and UnpackCall record one invocation against a TestWallet, for
// assertions in handler unit tests that don't want real crypto.
type PackCall struct {
	Plaintext       []byte
	RecipientVerkey string
	SenderVerkey    *string
}

type UnpackCall struct {
	WireBytes []byte
}

// TestWallet is an in-memory Wallet that trades real encryption for a
// fixed, reversible wire encoding (plaintext JSON, no confidentiality) and
// records every Pack/Unpack call it receives. It exists so handler tests
// can assert on envelope boundaries without generating real key material.
type TestWallet struct {
	mu sync.Mutex

	verkey      string
	PackCalls   []PackCall
	UnpackCalls []UnpackCall
}

// NewTestWallet creates a TestWallet identified by verkey (any string
// works; tests typically pass a recognizable fixture like "mediator-verkey").
func NewTestWallet(verkey string) *TestWallet {
	return &TestWallet{verkey: verkey}
}

type testEnvelope struct {
	SenderVerkey string `json:"sender_verkey,omitempty"`
	Plaintext    string `json:"plaintext"` // base58, to keep the shape byte-oriented like the real envelope
}

func (w *TestWallet) Verkey() string { return w.verkey }

func (w *TestWallet) Pack(ctx context.Context, plaintext []byte, recipientVerkey string, senderVerkey *string) ([]byte, error) {
	w.mu.Lock()
	w.PackCalls = append(w.PackCalls, PackCall{Plaintext: plaintext, RecipientVerkey: recipientVerkey, SenderVerkey: senderVerkey})
	w.mu.Unlock()

	env := testEnvelope{Plaintext: base58.Encode(plaintext)}
	if senderVerkey != nil {
		env.SenderVerkey = *senderVerkey
	}
	return json.Marshal(env)
}

func (w *TestWallet) Unpack(ctx context.Context, wireBytes []byte) (string, []byte, error) {
	w.mu.Lock()
	w.UnpackCalls = append(w.UnpackCalls, UnpackCall{WireBytes: wireBytes})
	w.mu.Unlock()

	var env testEnvelope
	if err := json.Unmarshal(wireBytes, &env); err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrEnvelope, err)
	}
	if env.SenderVerkey == "" {
		return "", nil, fmt.Errorf("%w: missing sender identity", ErrEnvelope)
	}
	plaintext, err := base58.Decode(env.Plaintext)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrEnvelope, err)
	}
	return env.SenderVerkey, plaintext, nil
}

var _ Wallet = (*TestWallet)(nil)
