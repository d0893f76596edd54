package account_test

import (
	"testing"

	account "github.com/appquarium/go-account"
	"github.com/stretchr/testify/assert"
)

func TestRequests_EmailValidation(t *testing.T) {
	cases := map[string]struct {
		validate func(email string) error
	}{
		"registration": {func(email string) error {
			return account.RegistrationRequest{Username: "x", Email: email, Password: "p", RepeatPassword: "p"}.Validate()
		}},
		"create user": {func(email string) error {
			return account.CreateUserRequest{Username: "x", Email: email}.Validate()
		}},
		"profile change": {func(email string) error {
			return account.ProfileChangeRequest{Email: email}.Validate()
		}},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			assert.NoError(t, tc.validate("alice@example.com"))

			err := tc.validate("not-an-email")
			assert.Equal(t, account.KindValidationFailed, account.KindOf(err))
			assert.Equal(t, account.FieldEmail, account.FieldOf(err))
			assert.Equal(t, "This value is not a valid email address.", account.PublicError(err).Message)
		})
	}
}

func TestProfileChangeRequest_EmptyEmailIsAllowed(t *testing.T) {
	assert.NoError(t, account.ProfileChangeRequest{Username: "alicia"}.Validate())
}
