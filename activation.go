package account

import (
	"context"
	"errors"
	"time"
)

// AccountActivationFlow moves users from pending (active=false) to active
// by way of a one shot USER_ACTIVATION token. There is no way back.
type AccountActivationFlow struct {
	codec  *TokenCodec
	store  UserStore
	ttl    time.Duration
	logger Logger
}

// NewAccountActivationFlow returns a flow issuing tokens valid for ttl
func NewAccountActivationFlow(codec *TokenCodec, store UserStore, ttl time.Duration) *AccountActivationFlow {
	return &AccountActivationFlow{
		codec:  codec,
		store:  store,
		ttl:    ttl,
		logger: defLogger{},
	}
}

// WithLogger overrides the logger
func (f *AccountActivationFlow) WithLogger(logger Logger) *AccountActivationFlow {
	f.logger = normalizeLogger(logger)
	return f
}

// IssueActivationToken signs an activation token for user
func (f *AccountActivationFlow) IssueActivationToken(user *User) (string, time.Time, error) {
	return f.codec.Issue(user.ResourcePath(), TokenKindUserActivation, f.ttl, ExtraClaims{})
}

// Consume activates the user named by token. Codec failures are
// InvalidToken; a missing or already active user is NotFound, so a
// token only works once.
func (f *AccountActivationFlow) Consume(ctx context.Context, token string) (*User, error) {
	claims, err := f.codec.Verify(token, TokenKindUserActivation)
	if err != nil {
		return nil, err
	}

	id, err := claims.UserID()
	if err != nil {
		return nil, err
	}

	user, err := f.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, newReasonError(KindNotFound, ReasonUserNotFound, map[string]any{"user_id": id})
		}
		f.logger.Error("activation user lookup failed", "user_id", id, "error", err)
		return nil, internalError(err, "failed to load user")
	}

	if err := f.activate(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

func (f *AccountActivationFlow) activate(ctx context.Context, user *User) error {
	if user.Active {
		return newReasonError(KindNotFound, ReasonUserAlreadyActive, map[string]any{"user_id": user.ID})
	}

	user.Active = true
	if err := f.store.Update(ctx, user, "active"); err != nil {
		user.Active = false
		f.logger.Error("activation persist failed", "user_id", user.ID, "error", err)
		return internalError(err, "failed to activate user")
	}

	return nil
}
