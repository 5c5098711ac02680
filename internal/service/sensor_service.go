package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/vinotel/cellar-service/internal/domain"
	"github.com/vinotel/cellar-service/internal/events"
	"github.com/vinotel/cellar-service/internal/persistence"
	"github.com/vinotel/cellar-service/internal/repository"
	apperrors "github.com/vinotel/cellar-service/pkg/util"
)

// latestReadingKey caches the most recent reading so current-value queries
// skip the database on the hot path.
const latestReadingKey = "sensor:readings:latest"

// SensorService ingests and aggregates cellar telemetry.
type SensorService struct {
	readings   repository.SensorReadingRepository
	cache      *persistence.Redis
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        func() time.Time
}

// NewSensorService builds the service.
func NewSensorService(readings repository.SensorReadingRepository, cache *persistence.Redis, dispatcher events.Dispatcher, logger *zap.Logger) *SensorService {
	return &SensorService{
		readings:   readings,
		cache:      cache,
		dispatcher: dispatcher,
		logger:     logger,
		now:        time.Now,
	}
}

// Ingest stores a reading, rejecting duplicates of (sensor, recorded-at).
func (s *SensorService) Ingest(ctx context.Context, reading *domain.SensorReading) error {
	exists, err := s.readings.Exists(ctx, reading.SensorID, reading.RecordedAt)
	if err != nil {
		return err
	}
	if exists {
		return apperrors.NewConflict("duplicate reading", map[string]any{
			"sensor_id":   reading.SensorID,
			"recorded_at": reading.RecordedAt,
		})
	}

	if err := s.readings.Create(ctx, reading); err != nil {
		return err
	}

	s.cacheLatest(ctx, reading)

	if s.dispatcher != nil {
		_ = s.dispatcher.Publish(ctx, events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventReadingAccepted,
			Timestamp: s.now(),
			Payload: events.ReadingAcceptedPayload{
				SensorID:    reading.SensorID,
				Temperature: reading.Temperature,
				Humidity:    reading.Humidity,
				RecordedAt:  reading.RecordedAt,
			},
		})
	}
	return nil
}

// Latest returns the most recent reading, served from cache when possible.
func (s *SensorService) Latest(ctx context.Context) (*domain.SensorReading, error) {
	if cached := s.cachedLatest(ctx); cached != nil {
		return cached, nil
	}

	reading, err := s.readings.Latest(ctx)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("sensor reading", nil)
		}
		return nil, err
	}

	s.cacheLatest(ctx, reading)
	return reading, nil
}

// CurrentTemperature returns the latest recorded temperature.
func (s *SensorService) CurrentTemperature(ctx context.Context) (float64, error) {
	reading, err := s.Latest(ctx)
	if err != nil {
		return 0, err
	}
	return reading.Temperature, nil
}

// CurrentHumidity returns the latest recorded humidity.
func (s *SensorService) CurrentHumidity(ctx context.Context) (float64, error) {
	reading, err := s.Latest(ctx)
	if err != nil {
		return 0, err
	}
	return reading.Humidity, nil
}

// AverageTemperatureByDate averages temperature over one calendar day (UTC).
func (s *SensorService) AverageTemperatureByDate(ctx context.Context, date time.Time) (float64, error) {
	from, to := dayBounds(date)
	return s.unwrapAverage(s.readings.AverageTemperatureBetween(ctx, from, to))
}

// AverageHumidityByDate averages humidity over one calendar day (UTC).
func (s *SensorService) AverageHumidityByDate(ctx context.Context, date time.Time) (float64, error) {
	from, to := dayBounds(date)
	return s.unwrapAverage(s.readings.AverageHumidityBetween(ctx, from, to))
}

// AverageTemperatureBetween averages temperature over an inclusive date range.
func (s *SensorService) AverageTemperatureBetween(ctx context.Context, start, end time.Time) (float64, error) {
	from, to := rangeBounds(start, end)
	return s.unwrapAverage(s.readings.AverageTemperatureBetween(ctx, from, to))
}

// AverageHumidityBetween averages humidity over an inclusive date range.
func (s *SensorService) AverageHumidityBetween(ctx context.Context, start, end time.Time) (float64, error) {
	from, to := rangeBounds(start, end)
	return s.unwrapAverage(s.readings.AverageHumidityBetween(ctx, from, to))
}

// ReadingsBetween lists raw readings between two instants.
func (s *SensorService) ReadingsBetween(ctx context.Context, from, to time.Time) ([]*domain.SensorReading, error) {
	return s.readings.ListBetween(ctx, from, to)
}

func (s *SensorService) unwrapAverage(avg *float64, err error) (float64, error) {
	if err != nil {
		return 0, err
	}
	if avg == nil {
		return 0, apperrors.NewNotFound("sensor data", nil)
	}
	return *avg, nil
}

func (s *SensorService) cacheLatest(ctx context.Context, reading *domain.SensorReading) {
	if s.cache == nil || s.cache.Client == nil {
		return
	}
	// Backfilled readings pass the dedupe check but must not displace a newer
	// cached value; the cache mirrors ORDER BY recorded_at DESC, not insertion
	// order.
	if cached := s.cachedLatest(ctx); cached != nil && cached.RecordedAt.After(reading.RecordedAt) {
		return
	}
	payload, err := json.Marshal(reading)
	if err != nil {
		return
	}
	if err := s.cache.Client.Set(ctx, latestReadingKey, payload, 24*time.Hour).Err(); err != nil {
		s.logger.Warn("failed to cache latest reading", zap.Error(err))
	}
}

func (s *SensorService) cachedLatest(ctx context.Context) *domain.SensorReading {
	if s.cache == nil || s.cache.Client == nil {
		return nil
	}
	payload, err := s.cache.Client.Get(ctx, latestReadingKey).Bytes()
	if err != nil {
		return nil
	}
	var reading domain.SensorReading
	if err := json.Unmarshal(payload, &reading); err != nil {
		return nil
	}
	return &reading
}

func dayBounds(date time.Time) (time.Time, time.Time) {
	from := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	return from, from.Add(24 * time.Hour)
}

func rangeBounds(start, end time.Time) (time.Time, time.Time) {
	from := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	to := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC).Add(24 * time.Hour)
	return from, to
}
