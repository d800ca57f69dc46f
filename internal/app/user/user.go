/*
Package user defines the identity of a participant as resolved by the identity provider:
a stable user id, a role classification and a display name.
*/
package user

// Role classifies a participant for authorization and routing decisions.
type Role string

const (
	// RoleAdministrator is a privileged staff role.
	RoleAdministrator Role = "administrator"

	// RoleSupervisor is a privileged staff role.
	RoleSupervisor Role = "supervisor"

	// RoleCandidate is the unprivileged role of people who open tickets.
	RoleCandidate Role = "candidate"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdministrator, RoleSupervisor, RoleCandidate:
		return true
	}
	return false
}

// IsPrivileged reports whether r may see and act on any ticket.
func (r Role) IsPrivileged() bool {
	return r == RoleAdministrator || r == RoleSupervisor
}

// User is the identity bound to a connection.
type User struct {
	ID          string `json:"user_id"`
	Role        Role   `json:"role"`
	DisplayName string `json:"display_name"`
}

// IsPrivileged reports whether the user holds a privileged role.
func (u User) IsPrivileged() bool {
	return u.Role.IsPrivileged()
}
