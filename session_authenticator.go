package account

import (
	"context"
	"errors"
	"strings"
)

// BearerPrefix is the exact, case sensitive scheme prefix of the
// Authorization header
const BearerPrefix = "Bearer "

// SessionAuthenticator resolves an Authorization header value into an
// active user. It is the single identity gate of the HTTP layer.
type SessionAuthenticator struct {
	codec  *TokenCodec
	store  UserStore
	logger Logger
}

// NewSessionAuthenticator returns an authenticator for USER_AUTH tokens
func NewSessionAuthenticator(codec *TokenCodec, store UserStore) *SessionAuthenticator {
	return &SessionAuthenticator{
		codec:  codec,
		store:  store,
		logger: defLogger{},
	}
}

// WithLogger overrides the logger
func (a *SessionAuthenticator) WithLogger(logger Logger) *SessionAuthenticator {
	a.logger = normalizeLogger(logger)
	return a
}

// Authenticate validates the bearer header value and loads its user
func (a *SessionAuthenticator) Authenticate(ctx context.Context, header string) (*User, error) {
	if header == "" {
		return nil, NewError(KindMissingCredential)
	}

	raw, ok := strings.CutPrefix(header, BearerPrefix)
	if !ok {
		return nil, NewError(KindMalformedCredential)
	}

	claims, err := a.codec.Verify(raw, TokenKindUserAuth)
	if err != nil {
		a.logger.Debug("session token rejected", "reason", ReasonOf(err))
		return nil, err
	}

	id, err := claims.UserID()
	if err != nil {
		return nil, err
	}

	user, err := a.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, newReasonError(KindInvalidToken, ReasonUserNotFound, map[string]any{
				"user_id": id,
			})
		}
		a.logger.Error("session user lookup failed", "user_id", id, "error", err)
		return nil, internalError(err, "failed to load user")
	}

	if !user.Active {
		return nil, newReasonError(KindAccountInactive, ReasonUserInactive, map[string]any{
			"user_id": id,
		})
	}

	return user, nil
}
