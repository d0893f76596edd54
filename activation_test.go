package account_test

import (
	"context"
	"testing"
	"time"

	account "github.com/appquarium/go-account"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pendingUser(store *memoryStore, username string) *account.User {
	u := account.NewUser(username, username+"@example.com", testNow)
	u.PasswordHash = "hashed:secret"
	return store.add(u)
}

func TestAccountActivationFlow_SingleUse(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore()
	user := pendingUser(store, "alice")
	flow := account.NewAccountActivationFlow(newCodecAt(testNow), store, 72*time.Hour).WithLogger(nopLogger{})

	token, expiresAt, err := flow.IssueActivationToken(user)
	require.NoError(t, err)
	assert.Equal(t, testNow.Add(72*time.Hour), expiresAt)

	activated, err := flow.Consume(ctx, token)
	require.NoError(t, err)
	assert.True(t, activated.Active)
	assert.True(t, store.stored(user.ID).Active)

	_, err = flow.Consume(ctx, token)
	require.Error(t, err)
	assert.Equal(t, account.KindNotFound, account.KindOf(err))
	assert.Equal(t, account.ReasonUserAlreadyActive, account.ReasonOf(err))
	assert.Equal(t, 1, store.updateCount())
}

func TestAccountActivationFlow_TokenFailures(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore()
	user := pendingUser(store, "alice")
	codec := newCodecAt(testNow)
	flow := account.NewAccountActivationFlow(codec, store, time.Hour).WithLogger(nopLogger{})

	authToken, _, err := codec.Issue(user.ResourcePath(), account.TokenKindUserAuth, time.Hour, account.ExtraClaims{})
	require.NoError(t, err)

	token, _, err := flow.IssueActivationToken(user)
	require.NoError(t, err)
	expiredFlow := account.NewAccountActivationFlow(newCodecAt(testNow.Add(2*time.Hour)), store, time.Hour).WithLogger(nopLogger{})

	t.Run("session token", func(t *testing.T) {
		_, err := flow.Consume(ctx, authToken)
		assert.Equal(t, account.KindInvalidToken, account.KindOf(err))
		assert.Equal(t, account.ReasonTokenKindMismatch, account.ReasonOf(err))
	})

	t.Run("expired", func(t *testing.T) {
		_, err := expiredFlow.Consume(ctx, token)
		assert.Equal(t, account.KindInvalidToken, account.KindOf(err))
		assert.Equal(t, account.ReasonTokenExpired, account.ReasonOf(err))
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := flow.Consume(ctx, "garbage")
		assert.Equal(t, account.KindInvalidToken, account.KindOf(err))
	})

	assert.False(t, store.stored(user.ID).Active)
	assert.Equal(t, 0, store.updateCount())
}

func TestAccountActivationFlow_UnknownUser(t *testing.T) {
	store := newMemoryStore()
	flow := account.NewAccountActivationFlow(newCodecAt(testNow), store, time.Hour).WithLogger(nopLogger{})

	ghost := &account.User{ID: 404}
	token, _, err := flow.IssueActivationToken(ghost)
	require.NoError(t, err)

	_, err = flow.Consume(context.Background(), token)
	assert.Equal(t, account.KindNotFound, account.KindOf(err))
	assert.Equal(t, account.ReasonUserNotFound, account.ReasonOf(err))
}
