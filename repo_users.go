package account

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"
)

// BunUserStore is the bun backed UserRegistry
type BunUserStore struct {
	db *bun.DB
}

var _ UserRegistry = (*BunUserStore)(nil)

// NewUserStore returns a store over db
func NewUserStore(db *bun.DB) *BunUserStore {
	return &BunUserStore{db: db}
}

// CreateSchema creates the users table when missing
func (s *BunUserStore) CreateSchema(ctx context.Context) error {
	_, err := s.db.NewCreateTable().
		Model((*User)(nil)).
		IfNotExists().
		Exec(ctx)
	return err
}

func (s *BunUserStore) GetByID(ctx context.Context, id int64) (*User, error) {
	return s.getBy(ctx, "id", id)
}

func (s *BunUserStore) GetByUsername(ctx context.Context, username string) (*User, error) {
	return s.getBy(ctx, "username", username)
}

func (s *BunUserStore) GetByEmail(ctx context.Context, email string) (*User, error) {
	return s.getBy(ctx, "email", email)
}

// GetByLogin matches login exactly against username or email
func (s *BunUserStore) GetByLogin(ctx context.Context, login string) (*User, error) {
	if login == "" {
		return nil, ErrUserNotFound
	}

	record := &User{}
	err := s.db.NewSelect().
		Model(record).
		Where("?TableAlias.username = ?", login).
		WhereOr("?TableAlias.email = ?", login).
		OrderExpr("?TableAlias.id ASC").
		Limit(1).
		Scan(ctx)

	if err != nil {
		return nil, notFound(err)
	}

	return record, nil
}

func (s *BunUserStore) Create(ctx context.Context, user *User) error {
	if len(user.Roles) == 0 {
		user.Roles = []Role{RoleUser}
	}

	_, err := s.db.NewInsert().
		Model(user).
		Returning("id").
		Exec(ctx)
	return err
}

// Update flushes columns, or the whole record when no columns are given
func (s *BunUserStore) Update(ctx context.Context, user *User, columns ...string) error {
	q := s.db.NewUpdate().
		Model(user).
		WherePK()

	if len(columns) > 0 {
		q = q.Column(columns...)
	} else {
		q = q.ExcludeColumn("id")
	}

	res, err := q.Exec(ctx)
	if err != nil {
		return err
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("update user %d: %w", user.ID, ErrUserNotFound)
	}

	return nil
}

func (s *BunUserStore) getBy(ctx context.Context, column string, value any) (*User, error) {
	record := &User{}
	err := s.db.NewSelect().
		Model(record).
		Where(fmt.Sprintf("?TableAlias.%s = ?", column), value).
		Limit(1).
		Scan(ctx)

	if err != nil {
		return nil, notFound(err)
	}

	return record, nil
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrUserNotFound
	}
	return err
}
