package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/vinotel/cellar-service/internal/api/dto"
	"github.com/vinotel/cellar-service/internal/auth"
	"github.com/vinotel/cellar-service/internal/service"
	apperrors "github.com/vinotel/cellar-service/pkg/util"
)

// CustomerHandler exposes profile endpoints for the authenticated customer.
type CustomerHandler struct {
	customers *service.CustomerService
}

// NewCustomerHandler constructs handler.
func NewCustomerHandler(customerService *service.CustomerService) *CustomerHandler {
	return &CustomerHandler{customers: customerService}
}

// Me handles GET /api/v1/customers/me.
func (h *CustomerHandler) Me(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthenticated("authentication required")
	}

	customer, err := h.customers.Get(c.UserContext(), principal.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewCustomerResponse(customer)})
}

// ChangePassword handles POST /api/v1/customers/me/password.
func (h *CustomerHandler) ChangePassword(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthenticated("authentication required")
	}

	var req dto.ChangePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.CurrentPassword == "" || req.NewPassword == "" {
		return apperrors.NewValidationError("current and new password required", nil)
	}

	if err := h.customers.ChangePassword(c.UserContext(), principal.ID, req.CurrentPassword, req.NewPassword); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// Delete handles DELETE /api/v1/customers/me.
func (h *CustomerHandler) Delete(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthenticated("authentication required")
	}

	if err := h.customers.Delete(c.UserContext(), principal.ID); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}
