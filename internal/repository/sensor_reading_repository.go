package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vinotel/cellar-service/internal/domain"
)

// SensorReadingRepository persists and aggregates cellar telemetry.
type SensorReadingRepository interface {
	Create(ctx context.Context, reading *domain.SensorReading) error
	Exists(ctx context.Context, sensorID string, recordedAt time.Time) (bool, error)
	Latest(ctx context.Context) (*domain.SensorReading, error)
	AverageTemperatureBetween(ctx context.Context, from, to time.Time) (*float64, error)
	AverageHumidityBetween(ctx context.Context, from, to time.Time) (*float64, error)
	ListBetween(ctx context.Context, from, to time.Time) ([]*domain.SensorReading, error)
}

type sensorReadingRepository struct {
	pool *pgxpool.Pool
}

// NewSensorReadingRepository returns a Postgres-backed implementation.
func NewSensorReadingRepository(pool *pgxpool.Pool) SensorReadingRepository {
	return &sensorReadingRepository{pool: pool}
}

func (r *sensorReadingRepository) Create(ctx context.Context, reading *domain.SensorReading) error {
	const query = `
        INSERT INTO sensor_readings (sensor_id, temperature, humidity, recorded_at)
        VALUES ($1, $2, $3, $4)
        RETURNING id, created_at`

	return r.pool.QueryRow(ctx, query,
		reading.SensorID,
		reading.Temperature,
		reading.Humidity,
		reading.RecordedAt,
	).Scan(&reading.ID, &reading.CreatedAt)
}

func (r *sensorReadingRepository) Exists(ctx context.Context, sensorID string, recordedAt time.Time) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM sensor_readings WHERE sensor_id=$1 AND recorded_at=$2)`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, sensorID, recordedAt).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *sensorReadingRepository) Latest(ctx context.Context) (*domain.SensorReading, error) {
	const query = `
        SELECT id, sensor_id, temperature, humidity, recorded_at, created_at
        FROM sensor_readings ORDER BY recorded_at DESC LIMIT 1`

	var reading domain.SensorReading
	if err := r.pool.QueryRow(ctx, query).Scan(
		&reading.ID,
		&reading.SensorID,
		&reading.Temperature,
		&reading.Humidity,
		&reading.RecordedAt,
		&reading.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &reading, nil
}

func (r *sensorReadingRepository) AverageTemperatureBetween(ctx context.Context, from, to time.Time) (*float64, error) {
	const query = `
        SELECT AVG(temperature) FROM sensor_readings
        WHERE recorded_at >= $1 AND recorded_at < $2`

	return r.scanAverage(ctx, query, from, to)
}

func (r *sensorReadingRepository) AverageHumidityBetween(ctx context.Context, from, to time.Time) (*float64, error) {
	const query = `
        SELECT AVG(humidity) FROM sensor_readings
        WHERE recorded_at >= $1 AND recorded_at < $2`

	return r.scanAverage(ctx, query, from, to)
}

func (r *sensorReadingRepository) ListBetween(ctx context.Context, from, to time.Time) ([]*domain.SensorReading, error) {
	const query = `
        SELECT id, sensor_id, temperature, humidity, recorded_at, created_at
        FROM sensor_readings
        WHERE recorded_at >= $1 AND recorded_at <= $2
        ORDER BY recorded_at`

	rows, err := r.pool.Query(ctx, query, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var readings []*domain.SensorReading
	for rows.Next() {
		var reading domain.SensorReading
		if err := rows.Scan(
			&reading.ID,
			&reading.SensorID,
			&reading.Temperature,
			&reading.Humidity,
			&reading.RecordedAt,
			&reading.CreatedAt,
		); err != nil {
			return nil, err
		}
		readings = append(readings, &reading)
	}
	return readings, rows.Err()
}

// scanAverage returns nil when the window holds no rows; AVG over an empty
// set is SQL NULL, which callers surface as not-found.
func (r *sensorReadingRepository) scanAverage(ctx context.Context, query string, from, to time.Time) (*float64, error) {
	var avg *float64
	if err := r.pool.QueryRow(ctx, query, from, to).Scan(&avg); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return avg, nil
}
