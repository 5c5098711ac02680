package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/vinotel/cellar-service/internal/api/http/handlers"
	"github.com/vinotel/cellar-service/internal/auth"
	"github.com/vinotel/cellar-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health        *handlers.HealthHandler
	Auth          *handlers.AuthHandler
	Sensors       *handlers.SensorHandler
	Employees     *handlers.EmployeeHandler
	Customers     *handlers.CustomerHandler
	Authenticator *auth.Authenticator
	Rules         []auth.Rule
}

// RegisterRoutes wires HTTP routes. The authenticator populates the request
// context for every route; the gate then enforces the rule table, so routes
// below carry no per-route auth unless they demand more than their path rule.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Use(cfg.Authenticator.Handle)
	app.Use(auth.Gate(cfg.Rules))

	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/refresh", cfg.Auth.Refresh)

	sensors := app.Group("/api/v1/sensors", auth.RequireAuthenticated())
	sensors.Post("", cfg.Sensors.Ingest)
	sensors.Get("/temperature/current", cfg.Sensors.CurrentTemperature)
	sensors.Get("/temperature/average-by-day", cfg.Sensors.AverageTemperatureByDay)
	sensors.Get("/temperature/average-between", cfg.Sensors.AverageTemperatureBetween)
	sensors.Get("/humidity/current", cfg.Sensors.CurrentHumidity)
	sensors.Get("/humidity/average-by-day", cfg.Sensors.AverageHumidityByDay)
	sensors.Get("/humidity/average-between", cfg.Sensors.AverageHumidityBetween)
	sensors.Get("/readings", cfg.Sensors.ReadingsBetween)

	employees := app.Group("/api/v1/employees", auth.RequireRole(domain.RoleAdmin))
	employees.Post("", cfg.Employees.Create)
	employees.Get("", cfg.Employees.List)
	employees.Get("/:id", cfg.Employees.Get)
	employees.Put("/:id", cfg.Employees.Update)
	employees.Delete("/:id", cfg.Employees.Delete)

	customers := app.Group("/api/v1/customers", auth.RequireRole(domain.RoleCustomer))
	customers.Get("/me", cfg.Customers.Me)
	customers.Post("/me/password", cfg.Customers.ChangePassword)
	customers.Delete("/me", cfg.Customers.Delete)
}
