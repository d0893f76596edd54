package account

import (
	"context"
	"fmt"
	"time"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Config holds account options
type Config interface {
	GetSigningKey() string
	// GetTokenExpiration is the session token lifetime in hours
	GetTokenExpiration() int
	// GetExtendedTokenDuration is the "remember me" session token lifetime in hours
	GetExtendedTokenDuration() int
	// GetActivationTokenDuration is the activation token lifetime in hours
	GetActivationTokenDuration() int
}

// UserStore is the persistence collaborator used by the authentication core.
// Implementations return ErrUserNotFound when no record matches.
type UserStore interface {
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByLogin(ctx context.Context, login string) (*User, error)
	// Update flushes the given columns, or every column when none are given.
	Update(ctx context.Context, user *User, columns ...string) error
}

// UserRegistry extends UserStore with the operations needed to create accounts
type UserRegistry interface {
	UserStore
	GetByUsername(ctx context.Context, username string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	Create(ctx context.Context, user *User) error
}

// PasswordHasher hashes and verifies passwords
type PasswordHasher interface {
	HashPassword(password string) (string, error)
	ComparePasswordAndHash(password, hash string) error
}

// Notifier delivers the registration notice (activation link) to a new user
type Notifier interface {
	NotifyRegistration(ctx context.Context, notice RegistrationNotice) error
}

// RegistrationNotice is handed to the Notifier once a user has been registered
type RegistrationNotice struct {
	UserID          int64     `json:"user_id"`
	Username        string    `json:"username"`
	Email           string    `json:"email"`
	ActivationToken string    `json:"activation_token"`
	ExpiresAt       time.Time `json:"expires_at"`
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(ctx context.Context, notice RegistrationNotice) error

// NotifyRegistration implements Notifier.
func (f NotifierFunc) NotifyRegistration(ctx context.Context, notice RegistrationNotice) error {
	if f == nil {
		return nil
	}
	return f(ctx, notice)
}

type logNotifier struct {
	logger Logger
}

func (n logNotifier) NotifyRegistration(_ context.Context, notice RegistrationNotice) error {
	n.logger.Info("registration notice",
		"user_id", notice.UserID,
		"email", notice.Email,
		"link", fmt.Sprintf("/api/users/activate/%s", notice.ActivationToken),
	)
	return nil
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Println(line("[ERR] ACCOUNT", format, args)...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Println(line("[WRN] ACCOUNT", format, args)...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Println(line("[INF] ACCOUNT", format, args)...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Println(line("[DBG] ACCOUNT", format, args)...)
}

func line(prefix, msg string, args []any) []any {
	out := make([]any, 0, len(args)+2)
	out = append(out, prefix, msg)
	return append(out, args...)
}

func normalizeLogger(l Logger) Logger {
	if l == nil {
		return defLogger{}
	}
	return l
}
