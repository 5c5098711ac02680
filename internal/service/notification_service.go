package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/vinotel/cellar-service/internal/config"
	"github.com/vinotel/cellar-service/internal/events"
)

// NotificationService handles emitting notifications for domain events:
// welcome notices on registration and climate alerts when a reading falls
// outside the configured cellar bounds.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
	alerts     config.AlertConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig, alerts config.AlertConfig) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
		alerts:     alerts,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventCustomerRegistered, n.handleCustomerRegistered)
	n.dispatcher.Subscribe(events.EventReadingAccepted, n.handleReadingAccepted)
}

func (n *NotificationService) handleCustomerRegistered(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.CustomerRegisteredPayload)
	if !ok {
		return nil
	}
	n.logger.Info("CustomerRegistered", zap.String("customer_id", payload.CustomerID))
	n.sendEmailNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleReadingAccepted(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.ReadingAcceptedPayload)
	if !ok {
		return nil
	}

	outOfRange := payload.Temperature < n.alerts.TemperatureMin ||
		payload.Temperature > n.alerts.TemperatureMax ||
		payload.Humidity < n.alerts.HumidityMin ||
		payload.Humidity > n.alerts.HumidityMax
	if !outOfRange {
		return nil
	}

	n.logger.Warn("cellar climate out of range",
		zap.String("sensor_id", payload.SensorID),
		zap.Float64("temperature", payload.Temperature),
		zap.Float64("humidity", payload.Humidity),
	)
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) sendEmailNotificationStub(_ context.Context, event events.Event) {
	// Email delivery is not wired yet; log what would be sent.
	n.logger.Info("email notification stub",
		zap.String("from", n.cfg.EmailFrom),
		zap.String("event", string(event.Type)),
	)
}

func (n *NotificationService) sendWebhookNotificationStub(_ context.Context, event events.Event) {
	if n.cfg.WebhookURL == "" {
		return
	}
	n.logger.Info("webhook notification stub",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("event", string(event.Type)),
	)
}
