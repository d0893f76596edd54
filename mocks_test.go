package account_test

import (
	"context"
	"strings"
	"sync"
	"time"

	account "github.com/appquarium/go-account"
	"github.com/stretchr/testify/mock"
)

// MockUserRegistry implements account.UserRegistry
type MockUserRegistry struct {
	mock.Mock
}

func (m *MockUserRegistry) GetByID(ctx context.Context, id int64) (*account.User, error) {
	args := m.Called(ctx, id)
	user, _ := args.Get(0).(*account.User)
	return user, args.Error(1)
}

func (m *MockUserRegistry) GetByLogin(ctx context.Context, login string) (*account.User, error) {
	args := m.Called(ctx, login)
	user, _ := args.Get(0).(*account.User)
	return user, args.Error(1)
}

func (m *MockUserRegistry) GetByUsername(ctx context.Context, username string) (*account.User, error) {
	args := m.Called(ctx, username)
	user, _ := args.Get(0).(*account.User)
	return user, args.Error(1)
}

func (m *MockUserRegistry) GetByEmail(ctx context.Context, email string) (*account.User, error) {
	args := m.Called(ctx, email)
	user, _ := args.Get(0).(*account.User)
	return user, args.Error(1)
}

func (m *MockUserRegistry) Update(ctx context.Context, user *account.User, columns ...string) error {
	args := m.Called(ctx, user, columns)
	return args.Error(0)
}

func (m *MockUserRegistry) Create(ctx context.Context, user *account.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

// MockHasher implements account.PasswordHasher
type MockHasher struct {
	mock.Mock
}

func (m *MockHasher) HashPassword(password string) (string, error) {
	args := m.Called(password)
	return args.String(0), args.Error(1)
}

func (m *MockHasher) ComparePasswordAndHash(password, hash string) error {
	args := m.Called(password, hash)
	return args.Error(0)
}

// plainHasher is a fast, reversible PasswordHasher for tests
type plainHasher struct{}

func (plainHasher) HashPassword(password string) (string, error) {
	if password == "" {
		return "", account.ErrNoEmptyString
	}
	return "hashed:" + password, nil
}

func (plainHasher) ComparePasswordAndHash(password, hash string) error {
	if "hashed:"+password != hash {
		return account.ErrMismatchedHashAndPassword
	}
	return nil
}

// memoryStore is an in-memory account.UserRegistry
type memoryStore struct {
	mu      sync.Mutex
	nextID  int64
	users   map[int64]*account.User
	updates []string
}

func newMemoryStore() *memoryStore {
	return &memoryStore{users: map[int64]*account.User{}}
}

func (s *memoryStore) add(u *account.User) *account.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	u.ID = s.nextID
	cp := *u
	s.users[u.ID] = &cp
	return u
}

func (s *memoryStore) stored(id int64) *account.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil
	}
	cp := *u
	return &cp
}

func (s *memoryStore) find(match func(*account.User) bool) (*account.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id := int64(1); id <= s.nextID; id++ {
		if u, ok := s.users[id]; ok && match(u) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, account.ErrUserNotFound
}

func (s *memoryStore) GetByID(_ context.Context, id int64) (*account.User, error) {
	return s.find(func(u *account.User) bool { return u.ID == id })
}

func (s *memoryStore) GetByLogin(_ context.Context, login string) (*account.User, error) {
	return s.find(func(u *account.User) bool { return u.Username == login || u.Email == login })
}

func (s *memoryStore) GetByUsername(_ context.Context, username string) (*account.User, error) {
	return s.find(func(u *account.User) bool { return u.Username == username })
}

func (s *memoryStore) GetByEmail(_ context.Context, email string) (*account.User, error) {
	return s.find(func(u *account.User) bool { return u.Email == email })
}

func (s *memoryStore) Update(_ context.Context, user *account.User, columns ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.ID]; !ok {
		return account.ErrUserNotFound
	}
	cp := *user
	cp.Roles = append([]account.Role(nil), user.Roles...)
	s.users[user.ID] = &cp
	s.updates = append(s.updates, strings.Join(columns, ","))
	return nil
}

func (s *memoryStore) Create(_ context.Context, user *account.User) error {
	s.add(user)
	return nil
}

func (s *memoryStore) updateCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.updates)
}

type testConfig struct {
	key        string
	token      int
	extended   int
	activation int
}

func (c testConfig) GetSigningKey() string           { return c.key }
func (c testConfig) GetTokenExpiration() int         { return c.token }
func (c testConfig) GetExtendedTokenDuration() int   { return c.extended }
func (c testConfig) GetActivationTokenDuration() int { return c.activation }

func defaultTestConfig() testConfig {
	return testConfig{key: "test-secret", token: 24, extended: 720, activation: 72}
}

// testNow is second aligned since token expiry has second precision
var testNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

func activeUser(username, password string) *account.User {
	u := account.NewUser(username, username+"@example.com", testNow.Add(-48*time.Hour))
	u.PasswordHash = "hashed:" + password
	u.Active = true
	return u
}
