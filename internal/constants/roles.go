package constants

// OperatorRole is the role carried by operator JWT claims.
type OperatorRole string

const (
	RoleMentor  OperatorRole = "MENTOR"
	RoleStaff   OperatorRole = "STAFF"
	RoleAdmin   OperatorRole = "ADMIN"
	RoleService OperatorRole = "SERVICE"
)

// CanManageRemovals reports whether the role may trigger operator-initiated
// removal actions.
func (r OperatorRole) CanManageRemovals() bool {
	return r == RoleStaff || r == RoleAdmin || r == RoleService
}
