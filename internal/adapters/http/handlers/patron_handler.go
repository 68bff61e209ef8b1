package handlers

import (
	"errors"

	"shelftrack/internal/core/domain"
	"shelftrack/internal/core/services"
	"shelftrack/internal/pkg/pagination"
	"shelftrack/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// PatronHandler handles patron registry endpoints
type PatronHandler struct {
	patronService *services.PatronService
	loanService   *services.LoanService
}

// NewPatronHandler creates a new patron handler
func NewPatronHandler(patronService *services.PatronService, loanService *services.LoanService) *PatronHandler {
	return &PatronHandler{
		patronService: patronService,
		loanService:   loanService,
	}
}

// Create handles patron registration
// @Summary Create patron
// @Description Register a new library patron
// @Tags Patrons
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.CreatePatronInput true "Patron data"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /patrons [post]
func (h *PatronHandler) Create(c *fiber.Ctx) error {
	var input services.CreatePatronInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	patron, err := h.patronService.Create(c.Context(), &input, actorID(c))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrDuplicateEmail):
			return response.Conflict(c, "A patron with this email already exists")
		case errors.Is(err, domain.ErrInvalidInput):
			return response.BadRequest(c, err.Error())
		default:
			return response.InternalServerError(c, "Failed to create patron")
		}
	}

	return response.Created(c, "Patron created successfully", patron)
}

// GetByID returns a patron
// @Summary Get patron
// @Description Get a patron by ID
// @Tags Patrons
// @Produce json
// @Security BearerAuth
// @Param id path int true "Patron ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /patrons/{id} [get]
func (h *PatronHandler) GetByID(c *fiber.Ctx) error {
	id, err := parseIDParam(c)
	if err != nil {
		return response.BadRequest(c, "Invalid patron ID")
	}

	patron, err := h.patronService.GetByID(c.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrPatronNotFound) {
			return response.NotFound(c, "Patron not found")
		}
		return response.InternalServerError(c, "Failed to get patron")
	}

	return response.Success(c, "Patron retrieved successfully", patron)
}

// List returns the patron registry
// @Summary List patrons
// @Description List patrons with pagination
// @Tags Patrons
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Param limit query int false "Items per page"
// @Param include_archived query bool false "Include archived patrons"
// @Success 200 {object} response.Response
// @Router /patrons [get]
func (h *PatronHandler) List(c *fiber.Ctx) error {
	params := pagination.GetParams(c)
	includeArchived := c.QueryBool("include_archived", false)

	result, err := h.patronService.List(c.Context(), params.Page, params.Limit, includeArchived)
	if err != nil {
		return response.InternalServerError(c, "Failed to list patrons")
	}

	return response.Success(c, "Patrons retrieved successfully", result)
}

// Update handles patron updates
// @Summary Update patron
// @Description Update a patron's fields
// @Tags Patrons
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Patron ID"
// @Param body body services.UpdatePatronInput true "Fields to update"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /patrons/{id} [put]
func (h *PatronHandler) Update(c *fiber.Ctx) error {
	id, err := parseIDParam(c)
	if err != nil {
		return response.BadRequest(c, "Invalid patron ID")
	}

	var input services.UpdatePatronInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	patron, err := h.patronService.Update(c.Context(), id, &input, actorID(c))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrPatronNotFound):
			return response.NotFound(c, "Patron not found")
		case errors.Is(err, domain.ErrDuplicateEmail):
			return response.Conflict(c, "A patron with this email already exists")
		case errors.Is(err, domain.ErrInvalidInput):
			return response.BadRequest(c, err.Error())
		default:
			return response.InternalServerError(c, "Failed to update patron")
		}
	}

	return response.Success(c, "Patron updated successfully", patron)
}

// Archive retires a patron while keeping their loan history
// @Summary Archive patron
// @Description Archive a patron; blocked while they have open loans
// @Tags Patrons
// @Produce json
// @Security BearerAuth
// @Param id path int true "Patron ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /patrons/{id}/archive [post]
func (h *PatronHandler) Archive(c *fiber.Ctx) error {
	id, err := parseIDParam(c)
	if err != nil {
		return response.BadRequest(c, "Invalid patron ID")
	}

	if err := h.patronService.Archive(c.Context(), id, actorID(c)); err != nil {
		switch {
		case errors.Is(err, domain.ErrPatronNotFound):
			return response.NotFound(c, "Patron not found")
		case errors.Is(err, domain.ErrRecordReferenced):
			return response.Conflict(c, "Patron has open loans and cannot be archived")
		default:
			return response.InternalServerError(c, "Failed to archive patron")
		}
	}

	return response.Success(c, "Patron archived successfully", nil)
}

// Delete removes a patron with no loan history
// @Summary Delete patron
// @Description Delete a patron; blocked while loans reference them
// @Tags Patrons
// @Produce json
// @Security BearerAuth
// @Param id path int true "Patron ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /patrons/{id} [delete]
func (h *PatronHandler) Delete(c *fiber.Ctx) error {
	id, err := parseIDParam(c)
	if err != nil {
		return response.BadRequest(c, "Invalid patron ID")
	}

	if err := h.patronService.Delete(c.Context(), id, actorID(c)); err != nil {
		switch {
		case errors.Is(err, domain.ErrPatronNotFound):
			return response.NotFound(c, "Patron not found")
		case errors.Is(err, domain.ErrRecordReferenced):
			return response.Conflict(c, "Patron is referenced by loans; archive them instead")
		default:
			return response.InternalServerError(c, "Failed to delete patron")
		}
	}

	return response.Success(c, "Patron deleted successfully", nil)
}

// Loans returns a patron's full loan history
// @Summary List patron loans
// @Description List all loans for one patron with overdue classification
// @Tags Patrons
// @Produce json
// @Security BearerAuth
// @Param id path int true "Patron ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /patrons/{id}/loans [get]
func (h *PatronHandler) Loans(c *fiber.Ctx) error {
	id, err := parseIDParam(c)
	if err != nil {
		return response.BadRequest(c, "Invalid patron ID")
	}

	if _, err := h.patronService.GetByID(c.Context(), id); err != nil {
		if errors.Is(err, domain.ErrPatronNotFound) {
			return response.NotFound(c, "Patron not found")
		}
		return response.InternalServerError(c, "Failed to get patron")
	}

	loans, err := h.loanService.ListByPatron(c.Context(), id)
	if err != nil {
		return response.InternalServerError(c, "Failed to list patron loans")
	}

	return response.Success(c, "Patron loans retrieved successfully", loans)
}
