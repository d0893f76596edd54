package account

import (
	"fmt"
	"time"

	"github.com/uptrace/bun"
)

// User is the account model. The plaintext password is never stored on it:
// callers pass plaintext values to operations, which only keep the hash.
type User struct {
	bun.BaseModel   `bun:"table:users,alias:usr"`
	ID              int64      `bun:"id,pk,autoincrement" json:"id"`
	Username        string     `bun:"username,notnull,unique" json:"username"`
	Email           string     `bun:"email,notnull,unique" json:"email"`
	PasswordHash    string     `bun:"password_hash,notnull" json:"-"`
	Active          bool       `bun:"active,notnull" json:"active"`
	Roles           []Role     `bun:"roles" json:"roles"`
	LastLogin       *time.Time `bun:"last_login,nullzero" json:"lastLogin,omitempty"`
	LastFailedLogin *time.Time `bun:"last_failed_login,nullzero" json:"lastFailedLogin,omitempty"`
	RegisterDate    time.Time  `bun:"register_date,notnull" json:"registerDate"`
}

// NewUser returns a pending user holding the base role
func NewUser(username, email string, now time.Time) *User {
	return &User{
		Username:     username,
		Email:        email,
		Active:       false,
		Roles:        []Role{RoleUser},
		RegisterDate: now,
	}
}

// ResourcePath is the token subject for this user, e.g. /api/users/12
func (u *User) ResourcePath() string {
	return EncodeSubject(u.ID)
}

// HasRole reports whether the user holds role
func (u *User) HasRole(role Role) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

func (u *User) String() string {
	return fmt.Sprintf("User<%d %s>", u.ID, u.Username)
}

func (u *User) rolesSnapshot() []Role {
	if len(u.Roles) == 0 {
		return nil
	}
	out := make([]Role, len(u.Roles))
	copy(out, u.Roles)
	return out
}
