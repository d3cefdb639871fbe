// internal/models/role_test.go
package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoleRank(t *testing.T) {
	assert.Equal(t, 0, RoleCustomer.Rank())
	assert.Equal(t, 1, RoleAgent.Rank())
	assert.Equal(t, 2, RoleAdmin.Rank())
	assert.Equal(t, 3, RoleChiefAdmin.Rank())

	// Unknown roles rank below everything.
	assert.Equal(t, -1, Role("superuser").Rank())
	assert.Equal(t, -1, Role("").Rank())
}

func TestRoleMeets(t *testing.T) {
	tests := []struct {
		role     Role
		required Role
		want     bool
	}{
		{RoleCustomer, RoleCustomer, true},
		{RoleCustomer, RoleAgent, false},
		{RoleAgent, RoleAgent, true},
		{RoleAgent, RoleAdmin, false},
		{RoleAdmin, RoleAgent, true},
		{RoleAdmin, RoleChiefAdmin, false},
		{RoleChiefAdmin, RoleChiefAdmin, true},
		{RoleChiefAdmin, RoleCustomer, true},
		{Role("superuser"), RoleCustomer, false},
		{Role(""), RoleCustomer, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.role.Meets(tt.required),
			"%s meets %s", tt.role, tt.required)
	}
}

func TestRoleIsStaff(t *testing.T) {
	assert.False(t, RoleCustomer.IsStaff())
	assert.True(t, RoleAgent.IsStaff())
	assert.True(t, RoleAdmin.IsStaff())
	assert.True(t, RoleChiefAdmin.IsStaff())
	assert.False(t, Role("manager").IsStaff())
}

func TestRoleValid(t *testing.T) {
	for _, role := range []Role{RoleCustomer, RoleAgent, RoleAdmin, RoleChiefAdmin} {
		assert.True(t, role.Valid(), string(role))
	}
	assert.False(t, Role("root").Valid())
	assert.False(t, Role("").Valid())
}
