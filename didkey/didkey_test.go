package didkey

import (
	"crypto/ed25519"
	"testing"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fingerprint(t *testing.T, pub ed25519.PublicKey) string {
	t.Helper()
	body := append(append([]byte{}, ed25519Multicodec...), pub...)
	return "z" + base58.Encode(body)
}

func TestNormalize(t *testing.T) {
	pub, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	wantVerkey := base58.Encode(pub)

	t.Run("DecodesValidFingerprint", func(t *testing.T) {
		didKey := "did:key:" + fingerprint(t, pub)
		assert.Equal(t, wantVerkey, Normalize(didKey))
	})

	t.Run("PassesThroughPlainVerkey", func(t *testing.T) {
		assert.Equal(t, wantVerkey, Normalize(wantVerkey))
	})

	t.Run("PassesThroughUnparseableFingerprint", func(t *testing.T) {
		bad := "did:key:znotbase58!!!"
		assert.Equal(t, bad, Normalize(bad))
	})

	t.Run("PassesThroughWrongMulticodec", func(t *testing.T) {
		body := append([]byte{0x00, 0x00}, pub...)
		bad := "did:key:z" + base58.Encode(body)
		assert.Equal(t, bad, Normalize(bad))
	})

	t.Run("PassesThroughNonZMultibase", func(t *testing.T) {
		bad := "did:key:mabcdef"
		assert.Equal(t, bad, Normalize(bad))
	})
}
