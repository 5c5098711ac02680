package domain

import "time"

// SensorReading is one temperature/humidity sample reported by a cellar
// sensor. (SensorID, RecordedAt) is unique; duplicate reports are rejected.
type SensorReading struct {
	ID          string
	SensorID    string
	Temperature float64
	Humidity    float64
	RecordedAt  time.Time
	CreatedAt   time.Time
}
