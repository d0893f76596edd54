package account

import (
	"context"
	"errors"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

// RegisterUserMessage is the self service registration command
type RegisterUserMessage struct {
	RegistrationRequest
}

func (e RegisterUserMessage) Type() string { return "user.register" }

// RegisterUserHandler creates a pending user and hands its activation
// token to the Notifier.
type RegisterUserHandler struct {
	registry   UserRegistry
	hasher     PasswordHasher
	activation *AccountActivationFlow
	notifier   Notifier
	logger     Logger
	now        func() time.Time
}

func (h *RegisterUserHandler) Execute(ctx context.Context, msg RegisterUserMessage) (*User, error) {
	select {
	case <-ctx.Done():
		return nil, goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during user registration",
		)
	default:
		return h.execute(ctx, msg)
	}
}

func (h *RegisterUserHandler) execute(ctx context.Context, msg RegisterUserMessage) (*User, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	req := msg.RegistrationRequest
	defer req.Erase()

	if err := req.Validate(); err != nil {
		return nil, err
	}

	if err := ensureUniqueIdentity(ctx, h.registry, req.Username, req.Email); err != nil {
		return nil, err
	}

	hash, err := h.hasher.HashPassword(req.Password)
	if err != nil {
		return nil, internalError(err, "failed to hash password")
	}

	user := NewUser(req.Username, req.Email, h.now())
	user.PasswordHash = hash

	if err := h.registry.Create(ctx, user); err != nil {
		return nil, internalError(err, "could not create user")
	}

	token, expiresAt, err := h.activation.IssueActivationToken(user)
	if err != nil {
		h.logger.Error("activation token issue failed", "user_id", user.ID, "error", err)
		return user, nil
	}

	notice := RegistrationNotice{
		UserID:          user.ID,
		Username:        user.Username,
		Email:           user.Email,
		ActivationToken: token,
		ExpiresAt:       expiresAt,
	}

	if err := h.notifier.NotifyRegistration(ctx, notice); err != nil {
		h.logger.Error("registration notice failed", "user_id", user.ID, "error", err)
	}

	return user, nil
}

// ensureUniqueIdentity fails with a field scoped ValidationFailed error
// when username or email already belong to a user
func ensureUniqueIdentity(ctx context.Context, registry UserRegistry, username, email string) error {
	if _, err := registry.GetByUsername(ctx, username); err == nil {
		return NewValidationError(FieldUsername, msgAlreadyUsed)
	} else if !errors.Is(err, ErrUserNotFound) {
		return internalError(err, "failed to check username")
	}

	if _, err := registry.GetByEmail(ctx, email); err == nil {
		return NewValidationError(FieldEmail, msgAlreadyUsed)
	} else if !errors.Is(err, ErrUserNotFound) {
		return internalError(err, "failed to check email")
	}

	return nil
}
