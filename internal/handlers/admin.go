// internal/handlers/admin.go
package handlers

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jradiance/jradiance-backend/internal/models"
	"github.com/jradiance/jradiance-backend/internal/services"
	"github.com/jradiance/jradiance-backend/internal/utils"
)

type AdminHandler struct {
	adminService  *services.AdminService
	auditService  *services.AuditService
	reportService *services.ReportService
}

func NewAdminHandler(adminService *services.AdminService, auditService *services.AuditService, reportService *services.ReportService) *AdminHandler {
	return &AdminHandler{
		adminService:  adminService,
		auditService:  auditService,
		reportService: reportService,
	}
}

// GET /admin/users
func (h *AdminHandler) GetUsers(c *gin.Context) {
	actorID, ok := principalID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	params := utils.GetPaginationParams(c)
	filter := services.AdminUserFilter{
		PaginationParams: params,
	}

	if role := c.Query("role"); role != "" {
		r := models.Role(role)
		filter.Role = &r
	}
	if isActive := c.Query("is_active"); isActive != "" {
		active := isActive == "true"
		filter.IsActive = &active
	}
	if createdAfter := c.Query("created_after"); createdAfter != "" {
		if t, err := time.Parse("2006-01-02", createdAfter); err == nil {
			filter.CreatedAfter = &t
		}
	}
	if createdBefore := c.Query("created_before"); createdBefore != "" {
		if t, err := time.Parse("2006-01-02", createdBefore); err == nil {
			filter.CreatedBefore = &t
		}
	}

	users, total, err := h.adminService.GetUsers(actorID, filter)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	result := utils.CreatePaginationResult(users, total, params)
	utils.PaginatedResponse(c, result)
}

// PUT /admin/users/:id/role
func (h *AdminHandler) UpdateUserRole(c *gin.Context) {
	actorID, ok := principalID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid user ID", nil)
		return
	}

	var req struct {
		Role models.Role `json:"role" validate:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	if err := h.adminService.UpdateUserRole(actorID, userID, req.Role); err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"message": "Role updated"})
}

// PUT /admin/users/:id/active
func (h *AdminHandler) SetUserActive(c *gin.Context) {
	actorID, ok := principalID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid user ID", nil)
		return
	}

	var req struct {
		Active *bool `json:"active" validate:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Active == nil {
		utils.BadRequestResponse(c, "Invalid request body", nil)
		return
	}

	if err := h.adminService.SetUserActive(actorID, userID, *req.Active); err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"message": "User updated"})
}

// DELETE /admin/users/:id
func (h *AdminHandler) DeleteUser(c *gin.Context) {
	actorID, ok := principalID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid user ID", nil)
		return
	}

	if err := h.adminService.DeleteUser(actorID, userID); err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"message": "User deleted"})
}

// GET /admin/audit-logs
func (h *AdminHandler) GetAuditLogs(c *gin.Context) {
	actorID, ok := principalID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	params := utils.GetPaginationParams(c)
	filter := services.AuditLogFilter{
		PaginationParams: params,
		Action:           c.Query("action"),
		ResourceType:     c.Query("resource_type"),
	}

	if actorStr := c.Query("actor_id"); actorStr != "" {
		if id, err := uuid.Parse(actorStr); err == nil {
			filter.ActorID = &id
		}
	}
	if resourceStr := c.Query("resource_id"); resourceStr != "" {
		if id, err := uuid.Parse(resourceStr); err == nil {
			filter.ResourceID = &id
		}
	}

	logs, total, err := h.auditService.GetLogs(actorID, filter)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	result := utils.CreatePaginationResult(logs, total, params)
	utils.PaginatedResponse(c, result)
}

// GET /admin/dashboard/stats
func (h *AdminHandler) GetDashboardStats(c *gin.Context) {
	actorID, ok := principalID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	period := c.DefaultQuery("period", "all")
	stats, err := h.reportService.GetOrderStatistics(actorID, period)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"stats": stats})
}

// GET /admin/reports/sales
func (h *AdminHandler) GetSalesReport(c *gin.Context) {
	actorID, ok := principalID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	days, err := strconv.Atoi(c.DefaultQuery("days", "30"))
	if err != nil || days < 1 || days > 365 {
		utils.BadRequestResponse(c, "Invalid days parameter", nil)
		return
	}

	report, err := h.reportService.GetSalesReport(actorID, days)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"report": report})
}
