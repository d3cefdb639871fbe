// internal/services/audit_service.go
package services

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/jradiance/jradiance-backend/internal/models"
	"github.com/jradiance/jradiance-backend/internal/utils"
)

// AuditService writes the append-only admin activity trail. Business
// mutations call Record inside their own transaction so a mutation and its
// audit row commit or roll back together; page-access entries use
// RecordAccess, which is best-effort and never blocks the request.
type AuditService struct {
	db          *gorm.DB
	permissions *PermissionService
}

type AuditLogFilter struct {
	utils.PaginationParams
	ActorID      *uuid.UUID `json:"actor_id,omitempty"`
	Action       string     `json:"action,omitempty"`
	ResourceType string     `json:"resource_type,omitempty"`
	ResourceID   *uuid.UUID `json:"resource_id,omitempty"`
}

func NewAuditService(db *gorm.DB, permissions *PermissionService) *AuditService {
	return &AuditService{db: db, permissions: permissions}
}

// Record inserts one audit row using the caller's transaction handle. An
// error here fails the enclosing operation: a privileged mutation must not
// commit unaudited.
func (s *AuditService) Record(tx *gorm.DB, actorID *uuid.UUID, action, resourceType string, resourceID *uuid.UUID, changes models.JSONB) error {
	entry := &models.AdminActivityLog{
		ActorID:      actorID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Changes:      changes,
	}

	if err := tx.Create(entry).Error; err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}

// RecordAccess logs an admin-area page access. Best effort: a failed write
// is logged server-side and never surfaces to the request.
func (s *AuditService) RecordAccess(actorID *uuid.UUID, method, path, ip, userAgent string) {
	entry := &models.AdminActivityLog{
		ActorID:      actorID,
		Action:       "page_access",
		ResourceType: "route",
		Changes:      models.JSONB{"method": method, "path": path},
		IPAddress:    ip,
		UserAgent:    userAgent,
	}

	go func() {
		if err := s.db.Create(entry).Error; err != nil {
			logrus.WithError(err).WithField("path", path).Warn("Failed to write page access log")
		}
	}()
}

// GetLogs returns audit entries, newest first. Read-only: the log is
// append-only and no code path updates or deletes rows.
func (s *AuditService) GetLogs(actorID uuid.UUID, filter AuditLogFilter) ([]models.AdminActivityLog, int64, error) {
	perms, err := s.permissions.Resolve(actorID)
	if err != nil {
		return nil, 0, err
	}
	if !perms.ViewAuditLogs {
		return nil, 0, ErrPermissionDenied
	}

	query := s.db.Model(&models.AdminActivityLog{}).Preload("Actor")

	if filter.ActorID != nil {
		query = query.Where("actor_id = ?", *filter.ActorID)
	}
	if filter.Action != "" {
		query = query.Where("action = ?", filter.Action)
	}
	if filter.ResourceType != "" {
		query = query.Where("resource_type = ?", filter.ResourceType)
	}
	if filter.ResourceID != nil {
		query = query.Where("resource_id = ?", *filter.ResourceID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count audit logs: %w", err)
	}

	allowedSortFields := []string{"created_at", "action", "resource_type"}
	query = utils.ApplySort(query, filter.PaginationParams, allowedSortFields)
	query = utils.ApplyPagination(query, filter.PaginationParams)

	var logs []models.AdminActivityLog
	if err := query.Find(&logs).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch audit logs: %w", err)
	}

	return logs, total, nil
}
