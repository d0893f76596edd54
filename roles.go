package account

import "context"

// Role is an account role
type Role string

const (
	// RoleUser is the base role, held by every account and never removable
	RoleUser Role = "ROLE_USER"
	// RoleAdmin grants administration rights
	RoleAdmin Role = "ROLE_ADMIN"
	// RoleFishEditor can edit fish records
	RoleFishEditor Role = "ROLE_FISH_EDITOR"
	// RolePlantEditor can edit plant records
	RolePlantEditor Role = "ROLE_PLANT_EDITOR"
	// RoleInvertebrateEditor can edit invertebrate records
	RoleInvertebrateEditor Role = "ROLE_INVERTEBRATE_EDITOR"
)

// AssignableRoles returns the allow-list of roles that may be added to a user
func AssignableRoles() []Role {
	return []Role{
		RoleAdmin,
		RoleFishEditor,
		RolePlantEditor,
		RoleInvertebrateEditor,
	}
}

// IsAssignable checks the role against the allow-list
func (r Role) IsAssignable() bool {
	switch r {
	case RoleAdmin, RoleFishEditor, RolePlantEditor, RoleInvertebrateEditor:
		return true
	default:
		return false
	}
}

// IsBase reports whether r is the protected base role
func (r Role) IsBase() bool {
	return r == RoleUser
}

// ParseRole safely parses a string into an assignable Role
func ParseRole(roleStr string) (Role, bool) {
	role := Role(roleStr)
	return role, role.IsAssignable()
}

// RoleManager adds and removes roles, protecting the base role.
type RoleManager struct {
	store  UserStore
	logger Logger
}

// NewRoleManager returns a RoleManager persisting through store
func NewRoleManager(store UserStore) *RoleManager {
	return &RoleManager{
		store:  store,
		logger: defLogger{},
	}
}

// WithLogger overrides the logger
func (m *RoleManager) WithLogger(logger Logger) *RoleManager {
	m.logger = normalizeLogger(logger)
	return m
}

// AddRole appends role to the user. Roles outside the allow-list fail with
// UnknownRole and leave the user untouched. A role the user already holds is
// appended again; duplicates are kept.
func (m *RoleManager) AddRole(ctx context.Context, user *User, role string) error {
	parsed, ok := ParseRole(role)
	if !ok {
		return NewError(KindUnknownRole).WithMetadata(map[string]any{"role": role})
	}

	roles := append(user.rolesSnapshot(), parsed)
	previous := user.Roles
	user.Roles = roles

	if err := m.store.Update(ctx, user, "roles"); err != nil {
		user.Roles = previous
		m.logger.Error("add role persist failed", "user_id", user.ID, "error", err)
		return internalError(err, "failed to persist user roles")
	}

	return nil
}

// RemoveRole removes the first occurrence of role. The base role can not be
// removed. Removing a role the user does not hold is a no-op.
func (m *RoleManager) RemoveRole(ctx context.Context, user *User, role string) error {
	if Role(role).IsBase() {
		return NewError(KindProtectedRole).WithMetadata(map[string]any{"role": role})
	}

	idx := -1
	for i, r := range user.Roles {
		if r == Role(role) {
			idx = i
			break
		}
	}

	if idx < 0 {
		return nil
	}

	roles := user.rolesSnapshot()
	roles = append(roles[:idx], roles[idx+1:]...)
	previous := user.Roles
	user.Roles = roles

	if err := m.store.Update(ctx, user, "roles"); err != nil {
		user.Roles = previous
		m.logger.Error("remove role persist failed", "user_id", user.ID, "error", err)
		return internalError(err, "failed to persist user roles")
	}

	return nil
}
