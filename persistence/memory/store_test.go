package memory

import (
	"context"
	"testing"

	"github.com/sage-x-project/didcomm-mediator/persistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_AccountExists(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	exists, err := s.AccountExists(ctx, "Ck...A1")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, s.CreateAccount(ctx, "Ck...A1", "mediator-sign-key", "{}"))

	exists, err = s.AccountExists(ctx, "Ck...A1")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestStore_CreateAccount(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	require.NoError(t, s.CreateAccount(ctx, "Ck...A1", "mediator-sign-key", "{}"))

	// Idempotent when the tuple matches.
	require.NoError(t, s.CreateAccount(ctx, "Ck...A1", "mediator-sign-key", "{}"))

	// Conflicts when it doesn't.
	err := s.CreateAccount(ctx, "Ck...A1", "different-key", "{}")
	assert.ErrorIs(t, err, persistence.ErrAccountExists)
}

func TestStore_AddRemoveRecipient(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	require.NoError(t, s.CreateAccount(ctx, "acct1", "sk", "{}"))

	require.NoError(t, s.AddRecipient(ctx, "acct1", "z6Mk...X"))

	keys, err := s.ListRecipientKeys(ctx, "acct1")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"z6Mk...X"}, keys)

	// Double-add is rejected per scenario 5.
	err = s.AddRecipient(ctx, "acct1", "z6Mk...X")
	assert.ErrorIs(t, err, persistence.ErrRecipientKeyExists)

	require.NoError(t, s.RemoveRecipient(ctx, "acct1", "z6Mk...X"))
	keys, err = s.ListRecipientKeys(ctx, "acct1")
	require.NoError(t, err)
	assert.Empty(t, keys)

	err = s.RemoveRecipient(ctx, "acct1", "z6Mk...X")
	assert.ErrorIs(t, err, persistence.ErrRecipientKeyNotFound)
}

func TestStore_AddRecipientUnknownAccount(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	err := s.AddRecipient(ctx, "ghost", "key1")
	assert.ErrorIs(t, err, persistence.ErrAccountNotFound)
}

func TestStore_EnqueueAndDeliverFIFO(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	require.NoError(t, s.CreateAccount(ctx, "acct1", "sk", "{}"))
	require.NoError(t, s.AddRecipient(ctx, "acct1", "keyA"))

	id1, err := s.EnqueueMessage(ctx, "keyA", []byte("first"))
	require.NoError(t, err)
	id2, err := s.EnqueueMessage(ctx, "keyA", []byte("second"))
	require.NoError(t, err)

	count, err := s.PendingMessageCount(ctx, "acct1", nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), count)

	msgs, err := s.PendingMessages(ctx, "acct1", nil, nil)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, id1, msgs[0].MessageID)
	assert.Equal(t, id2, msgs[1].MessageID)
	assert.Equal(t, []byte("first"), msgs[0].Body)

	// Pending messages are not removed by reading them.
	count, err = s.PendingMessageCount(ctx, "acct1", nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), count)

	require.NoError(t, s.RemoveMessages(ctx, "acct1", []string{id1}))
	msgs, err = s.PendingMessages(ctx, "acct1", nil, nil)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, id2, msgs[0].MessageID)
}

func TestStore_EnqueueUnknownRecipient(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	_, err := s.EnqueueMessage(ctx, "nobody", []byte("x"))
	assert.ErrorIs(t, err, persistence.ErrUnknownRecipientKey)
}

func TestStore_FilteredStatus(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	require.NoError(t, s.CreateAccount(ctx, "acct1", "sk", "{}"))
	require.NoError(t, s.AddRecipient(ctx, "acct1", "K1"))
	require.NoError(t, s.AddRecipient(ctx, "acct1", "K2"))

	for i := 0; i < 3; i++ {
		_, err := s.EnqueueMessage(ctx, "K1", []byte("k1-msg"))
		require.NoError(t, err)
	}
	for i := 0; i < 2; i++ {
		_, err := s.EnqueueMessage(ctx, "K2", []byte("k2-msg"))
		require.NoError(t, err)
	}

	k2 := "K2"
	count, err := s.PendingMessageCount(ctx, "acct1", &k2)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), count)
}

func TestStore_RemoveMessagesIgnoresUnknownIDs(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	require.NoError(t, s.CreateAccount(ctx, "acct1", "sk", "{}"))
	require.NoError(t, s.AddRecipient(ctx, "acct1", "K1"))

	id, err := s.EnqueueMessage(ctx, "K1", []byte("hi"))
	require.NoError(t, err)

	require.NoError(t, s.RemoveMessages(ctx, "acct1", []string{"does-not-exist", id}))

	msgs, err := s.PendingMessages(ctx, "acct1", nil, nil)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestStore_Limit(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	require.NoError(t, s.CreateAccount(ctx, "acct1", "sk", "{}"))
	require.NoError(t, s.AddRecipient(ctx, "acct1", "K1"))

	for i := 0; i < 5; i++ {
		_, err := s.EnqueueMessage(ctx, "K1", []byte("m"))
		require.NoError(t, err)
	}

	limit := 2
	msgs, err := s.PendingMessages(ctx, "acct1", &limit, nil)
	require.NoError(t, err)
	assert.Len(t, msgs, 2)
}
