package account

import (
	"context"
	"errors"
	"time"
)

// CredentialVerifier checks a login identifier and plaintext password
// against the stored user, recording login bookkeeping on the way.
type CredentialVerifier struct {
	store  UserStore
	hasher PasswordHasher
	logger Logger
	now    func() time.Time
}

// NewCredentialVerifier returns a verifier backed by store and hasher
func NewCredentialVerifier(store UserStore, hasher PasswordHasher) *CredentialVerifier {
	return &CredentialVerifier{
		store:  store,
		hasher: hasher,
		logger: defLogger{},
		now:    time.Now,
	}
}

// WithLogger overrides the logger
func (v *CredentialVerifier) WithLogger(logger Logger) *CredentialVerifier {
	v.logger = normalizeLogger(logger)
	return v
}

// WithClock injects a custom clock (useful for tests).
func (v *CredentialVerifier) WithClock(clock func() time.Time) *CredentialVerifier {
	if clock != nil {
		v.now = clock
	}
	return v
}

// Verify resolves identifier (username or email) and checks password.
// Unknown user, inactive user and wrong password all fail with
// InvalidCredentials. A wrong password still records lastFailedLogin
// before the error is returned.
func (v *CredentialVerifier) Verify(ctx context.Context, identifier, password string) (*User, error) {
	user, err := v.store.GetByLogin(ctx, identifier)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, newReasonError(KindInvalidCredentials, ReasonUserNotFound, nil)
		}
		v.logger.Error("credential lookup failed", "error", err)
		return nil, internalError(err, "failed to load user")
	}

	if !user.Active {
		return nil, newReasonError(KindInvalidCredentials, ReasonUserInactive, map[string]any{
			metaUserID: user.ID,
		})
	}

	if err := v.hasher.ComparePasswordAndHash(password, user.PasswordHash); err != nil {
		if !errors.Is(err, ErrMismatchedHashAndPassword) {
			v.logger.Warn("password compare failed", "user_id", user.ID, "error", err)
		}

		failedAt := v.now()
		user.LastFailedLogin = &failedAt
		if uerr := v.store.Update(ctx, user, "last_failed_login"); uerr != nil {
			v.logger.Error("failed to record failed login", "user_id", user.ID, "error", uerr)
			return nil, internalError(uerr, "failed to record failed login")
		}

		return nil, newReasonError(KindInvalidCredentials, ReasonPasswordMismatch, map[string]any{
			metaUserID: user.ID,
		})
	}

	loggedAt := v.now()
	user.LastLogin = &loggedAt
	if err := v.store.Update(ctx, user, "last_login"); err != nil {
		v.logger.Error("failed to record login", "user_id", user.ID, "error", err)
	}

	return user, nil
}
