package handlers

import (
	"shelftrack/internal/core/services"
	"shelftrack/internal/pkg/pagination"
	"shelftrack/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// DashboardHandler handles reporting endpoints
type DashboardHandler struct {
	dashboardService *services.DashboardService
	auditService     *services.AuditService
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(dashboardService *services.DashboardService, auditService *services.AuditService) *DashboardHandler {
	return &DashboardHandler{
		dashboardService: dashboardService,
		auditService:     auditService,
	}
}

// Stats returns library-wide statistics
// @Summary Dashboard statistics
// @Description Library counts by effective status, open and overdue loans, recent activity
// @Tags Dashboard
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /dashboard/stats [get]
func (h *DashboardHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.dashboardService.GetStats(c.Context())
	if err != nil {
		return response.InternalServerError(c, "Failed to build dashboard statistics")
	}

	return response.Success(c, "Dashboard statistics retrieved successfully", stats)
}

// AuditHistory returns the audit trail for one table
// @Summary Audit history
// @Description List audit log entries for a table, newest first
// @Tags Dashboard
// @Produce json
// @Security BearerAuth
// @Param table path string true "Table name (books, patrons, loans)"
// @Param page query int false "Page number"
// @Param limit query int false "Items per page"
// @Success 200 {object} response.Response
// @Router /dashboard/audit/{table} [get]
func (h *DashboardHandler) AuditHistory(c *fiber.Ctx) error {
	table := c.Params("table")
	switch table {
	case "books", "patrons", "loans", "users":
	default:
		return response.BadRequest(c, "Unknown audit table")
	}

	params := pagination.GetParams(c)
	entries, total, err := h.auditService.History(c.Context(), table, params.Offset, params.Limit)
	if err != nil {
		return response.InternalServerError(c, "Failed to load audit history")
	}

	return response.Paginated(c, "Audit history retrieved successfully", entries, pagination.GetMeta(params, total))
}
