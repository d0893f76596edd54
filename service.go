package account

import (
	"context"
	"errors"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

const (
	defaultTokenHours           = 24
	defaultExtendedTokenHours   = 24 * 30
	defaultActivationTokenHours = 72
)

// Accounts is the boundary consumed by transports and the console. It
// wires the codec, verifier, authenticator, activation flow, password
// workflow and role manager around one user registry.
type Accounts struct {
	registry UserRegistry
	hasher   PasswordHasher
	cfg      Config
	logger   Logger
	sink     ActivitySink
	notifier Notifier
	now      func() time.Time

	codec         *TokenCodec
	verifier      *CredentialVerifier
	authenticator *SessionAuthenticator
	activation    *AccountActivationFlow
	passwords     *PasswordChangeWorkflow
	roles         *RoleManager
}

// NewAccounts returns the account service
func NewAccounts(registry UserRegistry, hasher PasswordHasher, cfg Config) *Accounts {
	s := &Accounts{
		registry: registry,
		hasher:   hasher,
		cfg:      cfg,
		logger:   defLogger{},
		sink:     noopActivitySink{},
		now:      time.Now,
	}
	s.wire()
	return s
}

// WithLogger sets the logger on the service and every component
func (s *Accounts) WithLogger(logger Logger) *Accounts {
	s.logger = normalizeLogger(logger)
	s.wire()
	return s
}

// WithActivitySink configures an ActivitySink for emitting account events.
func (s *Accounts) WithActivitySink(sink ActivitySink) *Accounts {
	s.sink = normalizeActivitySink(sink)
	return s
}

// WithNotifier sets the registration notifier. By default the activation
// link is only logged.
func (s *Accounts) WithNotifier(notifier Notifier) *Accounts {
	s.notifier = notifier
	return s
}

// WithClock injects a custom clock (useful for tests).
func (s *Accounts) WithClock(clock func() time.Time) *Accounts {
	if clock != nil {
		s.now = clock
		s.wire()
	}
	return s
}

func (s *Accounts) wire() {
	s.codec = NewTokenCodec([]byte(s.cfg.GetSigningKey())).WithClock(s.now)
	s.verifier = NewCredentialVerifier(s.registry, s.hasher).WithLogger(s.logger).WithClock(s.now)
	s.authenticator = NewSessionAuthenticator(s.codec, s.registry).WithLogger(s.logger)
	s.activation = NewAccountActivationFlow(s.codec, s.registry, s.ActivationTokenDuration()).WithLogger(s.logger)
	s.passwords = NewPasswordChangeWorkflow(s.registry, s.hasher).WithLogger(s.logger)
	s.roles = NewRoleManager(s.registry).WithLogger(s.logger)
}

// Codec returns the token codec used by the service
func (s *Accounts) Codec() *TokenCodec {
	return s.codec
}

// Activation returns the activation flow used by the service
func (s *Accounts) Activation() *AccountActivationFlow {
	return s.activation
}

// TokenDuration is the session token lifetime
func (s *Accounts) TokenDuration() time.Duration {
	return hours(s.cfg.GetTokenExpiration(), defaultTokenHours)
}

// ExtendedTokenDuration is the "remember me" session token lifetime
func (s *Accounts) ExtendedTokenDuration() time.Duration {
	return hours(s.cfg.GetExtendedTokenDuration(), defaultExtendedTokenHours)
}

// ActivationTokenDuration is the activation token lifetime
func (s *Accounts) ActivationTokenDuration() time.Duration {
	return hours(s.cfg.GetActivationTokenDuration(), defaultActivationTokenHours)
}

// Login verifies the credentials and returns a USER_AUTH token
func (s *Accounts) Login(ctx context.Context, identifier, password string, rememberMe bool) (string, error) {
	user, err := s.verifier.Verify(ctx, identifier, password)
	if err != nil {
		s.logger.Info("login rejected", "reason", ReasonOf(err))
		s.emit(ctx, ActivityEventLoginFailure, userIDOf(err), identifier, map[string]any{
			"reason": string(ReasonOf(err)),
		})
		return "", err
	}

	ttl := s.TokenDuration()
	if rememberMe {
		ttl = s.ExtendedTokenDuration()
	}

	token, _, err := s.codec.Issue(user.ResourcePath(), TokenKindUserAuth, ttl, ExtraClaims{
		Roles: user.rolesSnapshot(),
	})
	if err != nil {
		s.logger.Error("login token issue failed", "user_id", user.ID, "error", err)
		return "", err
	}

	s.emit(ctx, ActivityEventLoginSuccess, user.ID, user.Username, map[string]any{
		"remember_me": rememberMe,
	})

	return token, nil
}

// Authenticate resolves a bearer header value into an active user
func (s *Accounts) Authenticate(ctx context.Context, header string) (*User, error) {
	return s.authenticator.Authenticate(ctx, header)
}

// Activate consumes an activation token. Every token failure is reported
// as NotFound; the reason is kept for diagnostics.
func (s *Accounts) Activate(ctx context.Context, token string) error {
	user, err := s.activation.Consume(ctx, token)
	if err != nil {
		if IsKind(err, KindInvalidToken) {
			err = newReasonError(KindNotFound, ReasonOf(err), nil)
		}
		s.logger.Info("activation rejected", "reason", ReasonOf(err))
		return err
	}

	s.emit(ctx, ActivityEventActivated, user.ID, user.Username, map[string]any{"source": "token"})
	return nil
}

// ActivateUser activates a user by username. Unlike the token path it is
// idempotent: an already active user is returned unchanged.
func (s *Accounts) ActivateUser(ctx context.Context, username string) (*User, error) {
	user, err := s.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	if user.Active {
		return user, nil
	}

	if err := s.activation.activate(ctx, user); err != nil {
		return nil, err
	}

	s.emit(ctx, ActivityEventActivated, user.ID, user.Username, map[string]any{"source": "console"})
	return user, nil
}

// ChangeProfile updates username and email after re-proving the password
func (s *Accounts) ChangeProfile(ctx context.Context, user *User, req *ProfileChangeRequest) (*User, error) {
	updated, err := s.passwords.ChangeProfile(ctx, user, req)
	if err != nil {
		return nil, err
	}

	s.emit(ctx, ActivityEventProfileChanged, user.ID, user.Username, nil)
	return updated, nil
}

// ChangePassword sets a new password after re-proving the current one
func (s *Accounts) ChangePassword(ctx context.Context, user *User, req *PasswordChangeRequest) (*User, error) {
	updated, err := s.passwords.ChangePassword(ctx, user, req)
	if err != nil {
		return nil, err
	}

	s.emit(ctx, ActivityEventPasswordChanged, user.ID, user.Username, nil)
	return updated, nil
}

// AddRole grants role to user
func (s *Accounts) AddRole(ctx context.Context, user *User, role string) error {
	if err := s.roles.AddRole(ctx, user, role); err != nil {
		return err
	}

	s.emit(ctx, ActivityEventRoleAdded, user.ID, user.Username, map[string]any{"role": role})
	return nil
}

// RemoveRole revokes role from user
func (s *Accounts) RemoveRole(ctx context.Context, user *User, role string) error {
	if err := s.roles.RemoveRole(ctx, user, role); err != nil {
		return err
	}

	s.emit(ctx, ActivityEventRoleRemoved, user.ID, user.Username, map[string]any{"role": role})
	return nil
}

// Register creates a pending user and sends the activation notice
func (s *Accounts) Register(ctx context.Context, req RegistrationRequest) (*User, error) {
	handler := &RegisterUserHandler{
		registry:   s.registry,
		hasher:     s.hasher,
		activation: s.activation,
		notifier:   s.registrationNotifier(),
		logger:     s.logger,
		now:        s.now,
	}

	user, err := handler.Execute(ctx, RegisterUserMessage{RegistrationRequest: req})
	if err != nil {
		return nil, err
	}

	s.emit(ctx, ActivityEventRegistered, user.ID, user.Username, map[string]any{"source": "registration"})
	return user, nil
}

// CreateUser creates an active user. The returned password is the one
// given, or a random one when none was.
func (s *Accounts) CreateUser(ctx context.Context, req CreateUserRequest) (*User, string, error) {
	handler := &CreateUserHandler{
		registry: s.registry,
		hasher:   s.hasher,
		now:      s.now,
	}

	res, err := handler.Execute(ctx, CreateUserMessage{CreateUserRequest: req})
	if err != nil {
		return nil, "", err
	}

	s.emit(ctx, ActivityEventRegistered, res.User.ID, res.User.Username, map[string]any{"source": "console"})
	return res.User, res.Password, nil
}

// GetUser returns the user with id
func (s *Accounts) GetUser(ctx context.Context, id int64) (*User, error) {
	user, err := s.registry.GetByID(ctx, id)
	return user, s.lookupError(err, "id", id)
}

// GetUserByUsername returns the user with username
func (s *Accounts) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	user, err := s.registry.GetByUsername(ctx, username)
	return user, s.lookupError(err, "username", username)
}

func (s *Accounts) lookupError(err error, key string, value any) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrUserNotFound) {
		return newReasonError(KindNotFound, ReasonUserNotFound, map[string]any{key: value})
	}
	s.logger.Error("user lookup failed", key, value, "error", err)
	return internalError(err, "failed to load user")
}

func (s *Accounts) registrationNotifier() Notifier {
	if s.notifier == nil {
		return logNotifier{logger: s.logger}
	}
	return s.notifier
}

func (s *Accounts) emit(ctx context.Context, eventType ActivityEventType, userID int64, username string, metadata map[string]any) {
	event := ActivityEvent{
		EventType:  eventType,
		UserID:     userID,
		Username:   username,
		Metadata:   metadata,
		OccurredAt: s.now(),
	}

	if err := s.sink.Record(ctx, event); err != nil {
		s.logger.Warn("activity sink error", "event", eventType, "error", err)
	}
}

// userIDOf returns the id of the known user an error refers to, or 0
func userIDOf(err error) int64 {
	var richErr *goerrors.Error
	if !errors.As(err, &richErr) {
		return 0
	}
	id, _ := richErr.Metadata[metaUserID].(int64)
	return id
}

func hours(value, fallback int) time.Duration {
	if value <= 0 {
		value = fallback
	}
	return time.Duration(value) * time.Hour
}
