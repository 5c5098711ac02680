package handlers

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/vinotel/cellar-service/internal/api/dto"
	"github.com/vinotel/cellar-service/internal/domain"
	"github.com/vinotel/cellar-service/internal/service"
	apperrors "github.com/vinotel/cellar-service/pkg/util"
)

// SensorHandler exposes telemetry ingestion and query endpoints.
type SensorHandler struct {
	sensors *service.SensorService
}

// NewSensorHandler constructs handler.
func NewSensorHandler(sensorService *service.SensorService) *SensorHandler {
	return &SensorHandler{sensors: sensorService}
}

// Ingest handles POST /api/v1/sensors.
func (h *SensorHandler) Ingest(c *fiber.Ctx) error {
	var req dto.SensorReadingRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.SensorID == "" || req.Timestamp.IsZero() {
		return apperrors.NewValidationError("sensorId and timestamp required", nil)
	}

	reading := &domain.SensorReading{
		SensorID:    req.SensorID,
		Temperature: req.Temperature,
		Humidity:    req.Humidity,
		RecordedAt:  req.Timestamp,
	}
	if err := h.sensors.Ingest(c.UserContext(), reading); err != nil {
		return err
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"data": dto.NewSensorReadingResponse(reading),
	})
}

// CurrentTemperature handles GET /api/v1/sensors/temperature/current.
func (h *SensorHandler) CurrentTemperature(c *fiber.Ctx) error {
	value, err := h.sensors.CurrentTemperature(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": value})
}

// CurrentHumidity handles GET /api/v1/sensors/humidity/current.
func (h *SensorHandler) CurrentHumidity(c *fiber.Ctx) error {
	value, err := h.sensors.CurrentHumidity(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": value})
}

// AverageTemperatureByDay handles GET /api/v1/sensors/temperature/average-by-day?date=.
func (h *SensorHandler) AverageTemperatureByDay(c *fiber.Ctx) error {
	date, err := parseDate(c.Query("date"))
	if err != nil {
		return err
	}
	value, err := h.sensors.AverageTemperatureByDate(c.UserContext(), date)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": value})
}

// AverageHumidityByDay handles GET /api/v1/sensors/humidity/average-by-day?date=.
func (h *SensorHandler) AverageHumidityByDay(c *fiber.Ctx) error {
	date, err := parseDate(c.Query("date"))
	if err != nil {
		return err
	}
	value, err := h.sensors.AverageHumidityByDate(c.UserContext(), date)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": value})
}

// AverageTemperatureBetween handles GET /api/v1/sensors/temperature/average-between?start=&end=.
func (h *SensorHandler) AverageTemperatureBetween(c *fiber.Ctx) error {
	start, end, err := parseDateRange(c.Query("start"), c.Query("end"))
	if err != nil {
		return err
	}
	value, err := h.sensors.AverageTemperatureBetween(c.UserContext(), start, end)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": value})
}

// AverageHumidityBetween handles GET /api/v1/sensors/humidity/average-between?start=&end=.
func (h *SensorHandler) AverageHumidityBetween(c *fiber.Ctx) error {
	start, end, err := parseDateRange(c.Query("start"), c.Query("end"))
	if err != nil {
		return err
	}
	value, err := h.sensors.AverageHumidityBetween(c.UserContext(), start, end)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": value})
}

// ReadingsBetween handles GET /api/v1/sensors/readings?from=&to= (RFC3339).
func (h *SensorHandler) ReadingsBetween(c *fiber.Ctx) error {
	from, err := time.Parse(time.RFC3339, c.Query("from"))
	if err != nil {
		return apperrors.NewValidationError("from must be RFC3339", nil)
	}
	to, err := time.Parse(time.RFC3339, c.Query("to"))
	if err != nil {
		return apperrors.NewValidationError("to must be RFC3339", nil)
	}

	readings, err := h.sensors.ReadingsBetween(c.UserContext(), from, to)
	if err != nil {
		return err
	}

	responses := make([]dto.SensorReadingResponse, 0, len(readings))
	for _, reading := range readings {
		responses = append(responses, dto.NewSensorReadingResponse(reading))
	}
	return c.JSON(fiber.Map{"data": responses})
}

func parseDate(value string) (time.Time, error) {
	date, err := time.Parse(time.DateOnly, value)
	if err != nil {
		return time.Time{}, apperrors.NewValidationError("date must be YYYY-MM-DD", nil)
	}
	return date, nil
}

func parseDateRange(startValue, endValue string) (time.Time, time.Time, error) {
	start, err := parseDate(startValue)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := parseDate(endValue)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, apperrors.NewValidationError("end before start", nil)
	}
	return start, end, nil
}
