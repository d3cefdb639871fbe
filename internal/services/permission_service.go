// internal/services/permission_service.go
package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jradiance/jradiance-backend/internal/models"
)

// PermissionSet is the capability view derived purely from a principal's role.
// Every privileged mutation resolves one of these before touching state.
type PermissionSet struct {
	Role           models.Role `json:"role"`
	ManageUsers    bool        `json:"manage_users"`
	ManageAgents   bool        `json:"manage_agents"`
	ManageProducts bool        `json:"manage_products"`
	ManageOrders   bool        `json:"manage_orders"`
	ViewAuditLogs  bool        `json:"view_audit_logs"`
	ViewSalesLogs  bool        `json:"view_sales_logs"`
}

// PermissionsForRole derives the capability set from the role alone.
func PermissionsForRole(role models.Role) PermissionSet {
	return PermissionSet{
		Role:           role,
		ManageUsers:    role.Meets(models.RoleChiefAdmin),
		ManageAgents:   role.Meets(models.RoleChiefAdmin),
		ManageProducts: role.Meets(models.RoleAgent),
		ManageOrders:   role.Meets(models.RoleAgent),
		ViewAuditLogs:  role.Meets(models.RoleAgent),
		ViewSalesLogs:  role.Meets(models.RoleAgent),
	}
}

type PermissionService struct {
	db *gorm.DB
}

func NewPermissionService(db *gorm.DB) *PermissionService {
	return &PermissionService{db: db}
}

// Resolve loads the principal's profile and derives its capabilities.
// Read-only; deactivated or missing profiles resolve to nothing.
func (s *PermissionService) Resolve(principalID uuid.UUID) (*PermissionSet, error) {
	if principalID == uuid.Nil {
		return nil, ErrNotAuthenticated
	}

	var user models.User
	if err := s.db.First(&user, "id = ?", principalID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotAuthenticated
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if !user.IsActive {
		return nil, ErrNotAuthenticated
	}

	perms := PermissionsForRole(user.Role)
	return &perms, nil
}
