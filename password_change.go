package account

import (
	"context"
	"errors"
)

// PasswordChangeWorkflow applies profile and password changes for an
// already authenticated user. Every change requires proof of the current
// password.
type PasswordChangeWorkflow struct {
	registry UserRegistry
	hasher   PasswordHasher
	logger   Logger
}

// NewPasswordChangeWorkflow returns a workflow persisting through registry
func NewPasswordChangeWorkflow(registry UserRegistry, hasher PasswordHasher) *PasswordChangeWorkflow {
	return &PasswordChangeWorkflow{
		registry: registry,
		hasher:   hasher,
		logger:   defLogger{},
	}
}

// WithLogger overrides the logger
func (w *PasswordChangeWorkflow) WithLogger(logger Logger) *PasswordChangeWorkflow {
	w.logger = normalizeLogger(logger)
	return w
}

// ChangeProfile updates username and email once the plainPassword proof
// verifies. The request plaintext is erased before returning.
func (w *PasswordChangeWorkflow) ChangeProfile(ctx context.Context, user *User, req *ProfileChangeRequest) (*User, error) {
	defer req.Erase()

	if err := req.Validate(); err != nil {
		return nil, err
	}

	if err := w.proveCurrentPassword(user, req.PlainPassword, FieldPlainPassword); err != nil {
		return nil, err
	}

	columns := make([]string, 0, 2)

	if req.Username != "" && req.Username != user.Username {
		if err := w.ensureUnused(ctx, user, FieldUsername, req.Username); err != nil {
			return nil, err
		}
		columns = append(columns, "username")
	}

	if req.Email != "" && req.Email != user.Email {
		if err := w.ensureUnused(ctx, user, FieldEmail, req.Email); err != nil {
			return nil, err
		}
		columns = append(columns, "email")
	}

	if len(columns) == 0 {
		return user, nil
	}

	previous := *user
	if req.Username != "" {
		user.Username = req.Username
	}
	if req.Email != "" {
		user.Email = req.Email
	}

	if err := w.registry.Update(ctx, user, columns...); err != nil {
		*user = previous
		w.logger.Error("profile persist failed", "user_id", user.ID, "error", err)
		return nil, internalError(err, "failed to update profile")
	}

	return user, nil
}

// ChangePassword replaces the password hash. The repeat field is checked
// before the current password is verified.
func (w *PasswordChangeWorkflow) ChangePassword(ctx context.Context, user *User, req *PasswordChangeRequest) (*User, error) {
	defer req.Erase()

	if err := req.Validate(); err != nil {
		return nil, err
	}

	if err := w.proveCurrentPassword(user, req.PlainPassword, FieldPassword); err != nil {
		return nil, err
	}

	hash, err := w.hasher.HashPassword(req.NewPassword)
	if err != nil {
		if errors.Is(err, ErrNoEmptyString) {
			return nil, NewValidationError(FieldNewPassword, msgNotBlank)
		}
		return nil, internalError(err, "failed to hash password")
	}

	previous := user.PasswordHash
	user.PasswordHash = hash

	if err := w.registry.Update(ctx, user, "password_hash"); err != nil {
		user.PasswordHash = previous
		w.logger.Error("password persist failed", "user_id", user.ID, "error", err)
		return nil, internalError(err, "failed to update password")
	}

	return user, nil
}

func (w *PasswordChangeWorkflow) proveCurrentPassword(user *User, plain, field string) error {
	if plain == "" {
		return NewValidationError(field, msgNotBlank)
	}

	if err := w.hasher.ComparePasswordAndHash(plain, user.PasswordHash); err != nil {
		if !errors.Is(err, ErrMismatchedHashAndPassword) {
			w.logger.Warn("password compare failed", "user_id", user.ID, "error", err)
		}
		verr := NewValidationError(field, msgBadPassword)
		verr.Metadata[metaReason] = string(ReasonPasswordMismatch)
		return verr
	}

	return nil
}

func (w *PasswordChangeWorkflow) ensureUnused(ctx context.Context, user *User, field, value string) error {
	var (
		other *User
		err   error
	)

	switch field {
	case FieldUsername:
		other, err = w.registry.GetByUsername(ctx, value)
	default:
		other, err = w.registry.GetByEmail(ctx, value)
	}

	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil
		}
		return internalError(err, "failed to check "+field)
	}

	if other.ID != user.ID {
		return NewValidationError(field, msgAlreadyUsed)
	}

	return nil
}
