package fulfillment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	domain "github.com/aismartspeaker9-cloud/zenheart-erp/internal/domain/order"
	"github.com/aismartspeaker9-cloud/zenheart-erp/internal/domain/repository"
	"github.com/aismartspeaker9-cloud/zenheart-erp/pkg/logger"
)

// TrackingEvent is the JSON carrier update consumed from Kafka.
type TrackingEvent struct {
	SubOrderNo     string `json:"sub_order_no"`
	TrackingNumber string `json:"tracking_number"`
	Carrier        string `json:"carrier"`
	Status         string `json:"status"`
	Remark         string `json:"remark"`
}

type Service struct {
	repo   repository.FulfillmentRepository
	orders repository.OrderRepository
	log    logger.Logger
}

func NewService(repo repository.FulfillmentRepository, orders repository.OrderRepository, log logger.Logger) *Service {
	return &Service{repo: repo, orders: orders, log: log}
}

// HandleTrackingEvent upserts the fulfillment row for one carrier update.
// The sub-order reference is weak: events for sub-orders that were replaced
// or never synced are still recorded, just without an order id.
func (s *Service) HandleTrackingEvent(ctx context.Context, ev *TrackingEvent) error {
	if ev == nil {
		return fmt.Errorf("tracking event is nil")
	}
	if strings.TrimSpace(ev.SubOrderNo) == "" || strings.TrimSpace(ev.TrackingNumber) == "" {
		return fmt.Errorf("tracking event missing sub_order_no or tracking_number")
	}

	f := &domain.Fulfillment{
		SubOrderNo:     ev.SubOrderNo,
		TrackingNumber: ev.TrackingNumber,
		Carrier:        ev.Carrier,
		Status:         ev.Status,
		Remark:         ev.Remark,
	}

	if s.orders != nil {
		current, err := s.orders.FindBySubOrderNo(ctx, ev.SubOrderNo)
		switch {
		case err == nil:
			f.OrderID = current.ID
		case errors.Is(err, domain.ErrNotFound):
			s.log.Warn("tracking event references unknown sub-order",
				logger.String("sub_order_no", ev.SubOrderNo),
				logger.String("tracking_number", ev.TrackingNumber))
		default:
			return fmt.Errorf("resolve sub-order %s: %w", ev.SubOrderNo, err)
		}
	}

	if err := s.repo.Save(ctx, f); err != nil {
		return fmt.Errorf("save fulfillment: %w", err)
	}
	return nil
}

func (s *Service) FindByTrackingNumber(ctx context.Context, trackingNumber string) ([]*domain.Fulfillment, error) {
	if strings.TrimSpace(trackingNumber) == "" {
		return nil, fmt.Errorf("tracking number is empty")
	}
	return s.repo.FindByTrackingNumber(ctx, trackingNumber)
}

func (s *Service) ListByStatus(ctx context.Context, status string, limit int) ([]*domain.Fulfillment, error) {
	return s.repo.ListByStatus(ctx, status, limit)
}
