package account

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

// CreateUserMessage is the operator side user creation command
type CreateUserMessage struct {
	CreateUserRequest
}

func (e CreateUserMessage) Type() string { return "user.create" }

// CreateUserResult carries the new user and the plaintext password, which
// is only ever shown to the operator.
type CreateUserResult struct {
	User     *User
	Password string
}

// CreateUserHandler creates users that are active straight away
type CreateUserHandler struct {
	registry UserRegistry
	hasher   PasswordHasher
	now      func() time.Time
}

func (h *CreateUserHandler) Execute(ctx context.Context, msg CreateUserMessage) (*CreateUserResult, error) {
	select {
	case <-ctx.Done():
		return nil, goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during user creation",
		)
	default:
		return h.execute(ctx, msg)
	}
}

func (h *CreateUserHandler) execute(ctx context.Context, msg CreateUserMessage) (*CreateUserResult, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	req := msg.CreateUserRequest
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if err := ensureUniqueIdentity(ctx, h.registry, req.Username, req.Email); err != nil {
		return nil, err
	}

	password := req.Password
	if password == "" {
		password = RandomPassword()
	}

	hash, err := h.hasher.HashPassword(password)
	if err != nil {
		return nil, internalError(err, "failed to hash password")
	}

	user := NewUser(req.Username, req.Email, h.now())
	user.PasswordHash = hash
	user.Active = true

	if err := h.registry.Create(ctx, user); err != nil {
		return nil, internalError(err, "could not create user")
	}

	return &CreateUserResult{User: user, Password: password}, nil
}
