package account_test

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	account "github.com/appquarium/go-account"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"golang.org/x/crypto/bcrypt"
)

func setupUserStore(t *testing.T) *account.BunUserStore {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := sql.Open(sqliteshim.ShimName, dsn)
	require.NoError(t, err)
	db.SetMaxOpenConns(1)

	bunDB := bun.NewDB(db, sqlitedialect.New())
	t.Cleanup(func() {
		_ = bunDB.Close()
	})

	store := account.NewUserStore(bunDB)
	require.NoError(t, store.CreateSchema(context.Background()))

	return store
}

func TestBunUserStore_CreateAndLookup(t *testing.T) {
	ctx := context.Background()
	store := setupUserStore(t)

	registered := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	user := account.NewUser("alice", "alice@example.com", registered)
	user.PasswordHash = "hash"
	require.NoError(t, store.Create(ctx, user))
	require.NotZero(t, user.ID)

	byID, err := store.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", byID.Username)
	assert.Equal(t, "alice@example.com", byID.Email)
	assert.Equal(t, "hash", byID.PasswordHash)
	assert.False(t, byID.Active)
	assert.Equal(t, []account.Role{account.RoleUser}, byID.Roles)
	assert.True(t, registered.Equal(byID.RegisterDate))
	assert.Nil(t, byID.LastLogin)
	assert.Nil(t, byID.LastFailedLogin)

	for _, login := range []string{"alice", "alice@example.com"} {
		found, err := store.GetByLogin(ctx, login)
		require.NoError(t, err, login)
		assert.Equal(t, user.ID, found.ID)
	}

	found, err := store.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)

	found, err = store.GetByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)
}

func TestBunUserStore_GetByLoginMatchesExactly(t *testing.T) {
	ctx := context.Background()
	store := setupUserStore(t)
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	alice := account.NewUser("alice", "alice@example.com", now)
	alice.PasswordHash = "hash-alice"
	require.NoError(t, store.Create(ctx, alice))

	padded := account.NewUser(" alice", "padded@example.com", now)
	padded.PasswordHash = "hash-padded"
	require.NoError(t, store.Create(ctx, padded))

	found, err := store.GetByLogin(ctx, " alice")
	require.NoError(t, err)
	assert.Equal(t, padded.ID, found.ID)

	_, err = store.GetByLogin(ctx, "  alice  ")
	assert.ErrorIs(t, err, account.ErrUserNotFound)

	_, err = store.GetByLogin(ctx, " alice@example.com")
	assert.ErrorIs(t, err, account.ErrUserNotFound)

	_, err = store.GetByLogin(ctx, "")
	assert.ErrorIs(t, err, account.ErrUserNotFound)
}

func TestBunUserStore_NotFound(t *testing.T) {
	ctx := context.Background()
	store := setupUserStore(t)

	_, err := store.GetByID(ctx, 42)
	assert.ErrorIs(t, err, account.ErrUserNotFound)

	_, err = store.GetByLogin(ctx, "nobody")
	assert.ErrorIs(t, err, account.ErrUserNotFound)

	_, err = store.GetByLogin(ctx, "")
	assert.ErrorIs(t, err, account.ErrUserNotFound)

	_, err = store.GetByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, account.ErrUserNotFound)

	err = store.Update(ctx, &account.User{ID: 42}, "active")
	assert.ErrorIs(t, err, account.ErrUserNotFound)
}

func TestBunUserStore_UpdateColumns(t *testing.T) {
	ctx := context.Background()
	store := setupUserStore(t)

	user := account.NewUser("alice", "alice@example.com", time.Now())
	user.PasswordHash = "hash"
	require.NoError(t, store.Create(ctx, user))

	failedAt := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
	user.LastFailedLogin = &failedAt
	user.Username = "not-persisted"
	require.NoError(t, store.Update(ctx, user, "last_failed_login"))

	stored, err := store.GetByID(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.LastFailedLogin)
	assert.True(t, failedAt.Equal(*stored.LastFailedLogin))
	assert.Equal(t, "alice", stored.Username, "only the named columns are written")

	stored.Active = true
	stored.Roles = append(stored.Roles, account.RoleAdmin, account.RoleAdmin)
	require.NoError(t, store.Update(ctx, stored, "active", "roles"))

	stored, err = store.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, stored.Active)
	assert.Equal(t, []account.Role{account.RoleUser, account.RoleAdmin, account.RoleAdmin}, stored.Roles)
}

func TestBunUserStore_WithAccounts(t *testing.T) {
	ctx := context.Background()
	store := setupUserStore(t)
	accounts := account.NewAccounts(store, account.NewBcryptHasher(bcrypt.MinCost), defaultTestConfig()).WithLogger(nopLogger{})

	spy := &notifierSpy{}
	accounts.WithNotifier(spy)

	_, err := accounts.Register(ctx, account.RegistrationRequest{
		Username: "alice", Email: "alice@example.com", Password: "secret", RepeatPassword: "secret",
	})
	require.NoError(t, err)
	require.Len(t, spy.notices, 1)

	_, err = accounts.Login(ctx, "alice", "secret", false)
	assert.Equal(t, account.KindInvalidCredentials, account.KindOf(err), "pending users can not log in")

	require.NoError(t, accounts.Activate(ctx, spy.notices[0].ActivationToken))

	token, err := accounts.Login(ctx, "alice@example.com", "secret", false)
	require.NoError(t, err)

	user, err := accounts.Authenticate(ctx, "Bearer "+token)
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	assert.NotNil(t, user.LastLogin)
}
