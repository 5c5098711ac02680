package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/vinotel/cellar-service/internal/api/dto"
	"github.com/vinotel/cellar-service/internal/domain"
	"github.com/vinotel/cellar-service/internal/service"
	apperrors "github.com/vinotel/cellar-service/pkg/util"
)

// EmployeeHandler exposes admin CRUD over employee accounts.
type EmployeeHandler struct {
	employees *service.EmployeeService
}

// NewEmployeeHandler constructs handler.
func NewEmployeeHandler(employeeService *service.EmployeeService) *EmployeeHandler {
	return &EmployeeHandler{employees: employeeService}
}

// Create handles POST /api/v1/employees.
func (h *EmployeeHandler) Create(c *fiber.Ctx) error {
	var req dto.EmployeeCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Name == "" || req.Email == "" || req.Password == "" || req.Role == "" {
		return apperrors.NewValidationError("name, email, password, role required", nil)
	}

	employee, err := h.employees.Create(c.UserContext(), service.EmployeeInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     domain.EmployeeRole(req.Role),
	})
	if err != nil {
		return err
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewEmployeeResponse(employee)})
}

// List handles GET /api/v1/employees.
func (h *EmployeeHandler) List(c *fiber.Ctx) error {
	employees, err := h.employees.List(c.UserContext())
	if err != nil {
		return err
	}

	responses := make([]dto.EmployeeResponse, 0, len(employees))
	for _, employee := range employees {
		responses = append(responses, dto.NewEmployeeResponse(employee))
	}
	return c.JSON(fiber.Map{"data": responses})
}

// Get handles GET /api/v1/employees/:id.
func (h *EmployeeHandler) Get(c *fiber.Ctx) error {
	employee, err := h.employees.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewEmployeeResponse(employee)})
}

// Update handles PUT /api/v1/employees/:id.
func (h *EmployeeHandler) Update(c *fiber.Ctx) error {
	var req dto.EmployeeUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	employee, err := h.employees.Update(c.UserContext(), c.Params("id"), service.EmployeeInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     domain.EmployeeRole(req.Role),
		Active:   req.Active,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewEmployeeResponse(employee)})
}

// Delete handles DELETE /api/v1/employees/:id.
func (h *EmployeeHandler) Delete(c *fiber.Ctx) error {
	if err := h.employees.Delete(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}
