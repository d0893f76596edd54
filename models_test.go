package account_test

import (
	"encoding/json"
	"testing"

	account "github.com/appquarium/go-account"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUserDefaults(t *testing.T) {
	u := account.NewUser("alice", "alice@example.com", testNow)

	assert.False(t, u.Active)
	assert.Equal(t, []account.Role{account.RoleUser}, u.Roles)
	assert.True(t, u.HasRole(account.RoleUser))
	assert.False(t, u.HasRole(account.RoleAdmin))
	assert.Equal(t, testNow, u.RegisterDate)
	assert.Nil(t, u.LastLogin)
	assert.Nil(t, u.LastFailedLogin)
}

func TestUserResourcePath(t *testing.T) {
	u := &account.User{ID: 12, Username: "alice"}
	assert.Equal(t, "/api/users/12", u.ResourcePath())
	assert.Equal(t, "User<12 alice>", u.String())
}

func TestUserJSONHidesPasswordHash(t *testing.T) {
	u := activeUser("alice", "secret")

	raw, err := json.Marshal(u)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "hashed:secret")
}
