package dto

import (
	"time"

	"github.com/vinotel/cellar-service/internal/domain"
)

// SensorReadingRequest payload for reading ingestion.
type SensorReadingRequest struct {
	SensorID    string    `json:"sensorId"`
	Temperature float64   `json:"temperature"`
	Humidity    float64   `json:"humidity"`
	Timestamp   time.Time `json:"timestamp"`
}

// SensorReadingResponse is the outward shape of one reading.
type SensorReadingResponse struct {
	ID          string    `json:"id"`
	SensorID    string    `json:"sensorId"`
	Temperature float64   `json:"temperature"`
	Humidity    float64   `json:"humidity"`
	Timestamp   time.Time `json:"timestamp"`
}

// NewSensorReadingResponse maps a domain reading.
func NewSensorReadingResponse(reading *domain.SensorReading) SensorReadingResponse {
	return SensorReadingResponse{
		ID:          reading.ID,
		SensorID:    reading.SensorID,
		Temperature: reading.Temperature,
		Humidity:    reading.Humidity,
		Timestamp:   reading.RecordedAt,
	}
}
