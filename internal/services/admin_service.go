// internal/services/admin_service.go
package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jradiance/jradiance-backend/internal/models"
	"github.com/jradiance/jradiance-backend/internal/utils"
)

// AdminService covers staff and customer account administration. Role
// changes, activation toggles, and hard deletes are chief-admin territory.
type AdminService struct {
	db          *gorm.DB
	permissions *PermissionService
	audit       *AuditService
}

type AdminUserFilter struct {
	utils.PaginationParams
	Role          *models.Role `json:"role,omitempty"`
	IsActive      *bool        `json:"is_active,omitempty"`
	CreatedAfter  *time.Time   `json:"created_after,omitempty"`
	CreatedBefore *time.Time   `json:"created_before,omitempty"`
}

func NewAdminService(db *gorm.DB, permissions *PermissionService, audit *AuditService) *AdminService {
	return &AdminService{
		db:          db,
		permissions: permissions,
		audit:       audit,
	}
}

// GetUsers lists accounts for the user management screen.
func (s *AdminService) GetUsers(actorID uuid.UUID, filter AdminUserFilter) ([]models.User, int64, error) {
	perms, err := s.permissions.Resolve(actorID)
	if err != nil {
		return nil, 0, err
	}
	if !perms.ManageUsers {
		return nil, 0, ErrPermissionDenied
	}

	query := s.db.Model(&models.User{})

	if filter.Role != nil {
		query = query.Where("role = ?", *filter.Role)
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}
	if filter.Search != "" {
		searchTerm := "%" + filter.Search + "%"
		query = query.Where("email ILIKE ? OR display_name ILIKE ?", searchTerm, searchTerm)
	}
	if filter.CreatedAfter != nil {
		query = query.Where("created_at >= ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		query = query.Where("created_at <= ?", *filter.CreatedBefore)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	allowedSortFields := []string{"created_at", "updated_at", "email", "display_name", "role"}
	query = utils.ApplySort(query, filter.PaginationParams, allowedSortFields)
	query = utils.ApplyPagination(query, filter.PaginationParams)

	var users []models.User
	if err := query.Find(&users).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch users: %w", err)
	}

	return users, total, nil
}

// UpdateUserRole promotes or demotes an account. Chief admins only, and
// never on their own account.
func (s *AdminService) UpdateUserRole(actorID, userID uuid.UUID, newRole models.Role) error {
	perms, err := s.permissions.Resolve(actorID)
	if err != nil {
		return err
	}
	if !perms.ManageUsers {
		return ErrPermissionDenied
	}

	if !newRole.Valid() {
		return invalidf("unknown role %q", newRole)
	}
	if actorID == userID {
		return invalidf("cannot change your own role")
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, "id = ?", userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("database error: %w", err)
		}

		if user.Role == newRole {
			return invalidf("user already has role %q", newRole)
		}

		oldRole := user.Role
		if err := tx.Model(&user).Updates(map[string]interface{}{
			"role":       newRole,
			"updated_at": time.Now(),
		}).Error; err != nil {
			return fmt.Errorf("failed to update role: %w", err)
		}

		return s.audit.Record(tx, &actorID, "user_role_updated", "user", &userID,
			models.JSONB{"old_role": oldRole, "new_role": newRole})
	})
}

// SetUserActive toggles the soft deactivation flag. Deactivated staff lose
// access on their next request because the route guard re-reads the flag.
func (s *AdminService) SetUserActive(actorID, userID uuid.UUID, active bool) error {
	perms, err := s.permissions.Resolve(actorID)
	if err != nil {
		return err
	}
	if !perms.ManageUsers {
		return ErrPermissionDenied
	}

	if actorID == userID && !active {
		return invalidf("cannot deactivate your own account")
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, "id = ?", userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("database error: %w", err)
		}

		if user.IsActive == active {
			return nil
		}

		if err := tx.Model(&user).Updates(map[string]interface{}{
			"is_active":  active,
			"updated_at": time.Now(),
		}).Error; err != nil {
			return fmt.Errorf("failed to update active flag: %w", err)
		}

		return s.audit.Record(tx, &actorID, "user_status_updated", "user", &userID,
			models.JSONB{"old_active": user.IsActive, "new_active": active})
	})
}

// DeleteUser removes an account and its order history permanently. Normal
// operation prefers deactivation; this exists for data removal requests.
func (s *AdminService) DeleteUser(actorID, userID uuid.UUID) error {
	perms, err := s.permissions.Resolve(actorID)
	if err != nil {
		return err
	}
	if !perms.ManageUsers {
		return ErrPermissionDenied
	}

	if actorID == userID {
		return invalidf("cannot delete your own account")
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, "id = ?", userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("database error: %w", err)
		}

		// The order foreign key blocks the user delete, so the dependent
		// rows go first, items before their orders.
		orderIDs := tx.Unscoped().Model(&models.Order{}).
			Select("id").Where("user_id = ?", userID)
		if err := tx.Unscoped().Where("order_id IN (?)", orderIDs).
			Delete(&models.OrderItem{}).Error; err != nil {
			return fmt.Errorf("failed to delete order items: %w", err)
		}
		if err := tx.Unscoped().Where("user_id = ?", userID).
			Delete(&models.Order{}).Error; err != nil {
			return fmt.Errorf("failed to delete orders: %w", err)
		}

		if err := tx.Unscoped().Delete(&user).Error; err != nil {
			return fmt.Errorf("failed to delete user: %w", err)
		}

		return s.audit.Record(tx, &actorID, "user_deleted", "user", &userID,
			models.JSONB{"email": user.Email, "role": user.Role})
	})
}
