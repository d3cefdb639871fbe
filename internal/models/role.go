// internal/models/role.go
package models

type Role string

const (
	RoleCustomer   Role = "customer"
	RoleAgent      Role = "agent"
	RoleAdmin      Role = "admin"
	RoleChiefAdmin Role = "chief_admin"
)

var roleRanks = map[Role]int{
	RoleCustomer:   0,
	RoleAgent:      1,
	RoleAdmin:      2,
	RoleChiefAdmin: 3,
}

// Rank returns the position of the role in the staff hierarchy.
// Unrecognized roles rank below every valid role so they never pass a check.
func (r Role) Rank() int {
	if rank, ok := roleRanks[r]; ok {
		return rank
	}
	return -1
}

// Meets reports whether the role is at least as privileged as required.
func (r Role) Meets(required Role) bool {
	rank := r.Rank()
	if rank < 0 {
		return false
	}
	return rank >= required.Rank()
}

func (r Role) Valid() bool {
	_, ok := roleRanks[r]
	return ok
}

// IsStaff reports whether the role grants access to the admin area.
func (r Role) IsStaff() bool {
	return r.Meets(RoleAgent)
}
