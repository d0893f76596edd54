package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	account "github.com/appquarium/go-account"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestConfig(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "account.yaml")
	content := fmt.Sprintf(`auth:
  signing_key: test-secret
database:
  driver: sqlite
  dsn: "file:%s"
http:
  metrics: false
`, filepath.Join(dir, "account.db"))

	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func run(t *testing.T, configPath string, args ...string) (string, error) {
	t.Helper()

	out := new(bytes.Buffer)
	cmd := rootCmd()
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs(append([]string{"--config", configPath}, args...))

	err := cmd.Execute()
	return out.String(), err
}

func TestUserCommands(t *testing.T) {
	configPath := writeTestConfig(t)

	out, err := run(t, configPath, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "schema up to date")

	out, err = run(t, configPath, "user", "create", "alice", "alice@example.com", "secret")
	require.NoError(t, err)
	assert.Contains(t, out, "created user alice (/api/users/1)")
	assert.NotContains(t, out, "password:")

	out, err = run(t, configPath, "user", "create", "bob", "bob@example.com")
	require.NoError(t, err)
	assert.Contains(t, out, "password: ")

	for i := 0; i < 2; i++ {
		out, err = run(t, configPath, "user", "activate", "alice")
		require.NoError(t, err)
		assert.Contains(t, out, "activated user alice")
	}

	out, err = run(t, configPath, "user", "role", "add", "alice", "ROLE_ADMIN")
	require.NoError(t, err)
	assert.Contains(t, out, "alice roles: [ROLE_USER ROLE_ADMIN]")

	out, err = run(t, configPath, "user", "role", "remove", "alice", "ROLE_ADMIN")
	require.NoError(t, err)
	assert.Contains(t, out, "alice roles: [ROLE_USER]")
}

func TestUserCommandErrors(t *testing.T) {
	configPath := writeTestConfig(t)

	_, err := run(t, configPath, "migrate")
	require.NoError(t, err)
	_, err = run(t, configPath, "user", "create", "alice", "alice@example.com", "secret")
	require.NoError(t, err)

	_, err = run(t, configPath, "user", "role", "add", "alice", "ROLE_BOGUS")
	require.EqualError(t, err, "Tried to add an invalid role.")

	_, err = run(t, configPath, "user", "role", "remove", "alice", "ROLE_USER")
	require.EqualError(t, err, "This role can not be removed from a user.")

	_, err = run(t, configPath, "user", "activate", "nobody")
	require.EqualError(t, err, "Not Found")

	_, err = run(t, configPath, "user", "create", "alice", "other@example.com")
	require.EqualError(t, err, "username: This value is already used.")
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		expect string
	}{
		{"validation", account.NewValidationError(account.FieldEmail, "This value is not a valid email address."), "email: This value is not a valid email address."},
		{"kind", account.NewError(account.KindNotFound), "Not Found"},
		{"plain", errors.New("disk full"), "disk full"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.EqualError(t, describe(tc.err), tc.expect)
		})
	}
}
