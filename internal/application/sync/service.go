package sync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	domain "github.com/aismartspeaker9-cloud/zenheart-erp/internal/domain/order"
	"github.com/aismartspeaker9-cloud/zenheart-erp/internal/domain/repository"
	"github.com/aismartspeaker9-cloud/zenheart-erp/pkg/logger"
)

// Fetcher pulls raw order payloads from the commerce platform.
type Fetcher interface {
	FetchOrders(ctx context.Context, limit int, status string) ([]json.RawMessage, error)
}

// Publisher emits one event per upserted sub-order. Optional: publishing
// failures are logged and never fail the sync.
type Publisher interface {
	PublishSyncedOrder(ctx context.Context, o *domain.NormalizedOrder) error
}

// Filter narrows one sync run.
type Filter struct {
	Limit  int
	Status string
}

// Failure records one order that could not be processed. SourceOrderID is
// zero when the payload was too broken to identify.
type Failure struct {
	SourceOrderID int64  `json:"source_order_id"`
	Err           string `json:"error"`
}

// SyncReport summarizes one run.
type SyncReport struct {
	Fetched    int       `json:"fetched"`
	NewRaw     int       `json:"new_raw"`
	UpdatedRaw int       `json:"updated_raw"`
	Normalized int       `json:"normalized"`
	Upserted   int       `json:"upserted"`
	Failures   []Failure `json:"failures,omitempty"`
}

type Service struct {
	shopID     string
	fetcher    Fetcher
	rawRepo    repository.RawOrderRepository
	orderRepo  repository.OrderRepository
	normalizer *domain.Normalizer
	publisher  Publisher
	log        logger.Logger
}

func NewService(
	shopID string,
	fetcher Fetcher,
	rawRepo repository.RawOrderRepository,
	orderRepo repository.OrderRepository,
	normalizer *domain.Normalizer,
	publisher Publisher,
	log logger.Logger,
) *Service {
	return &Service{
		shopID:     shopID,
		fetcher:    fetcher,
		rawRepo:    rawRepo,
		orderRepo:  orderRepo,
		normalizer: normalizer,
		publisher:  publisher,
		log:        log,
	}
}

// RunSync fetches orders matching the filter and drives each one through
// record -> normalize -> upsert, in arrival order. One bad order is recorded
// as a failure and does not stop the rest; only a fetch that yields nothing
// fails the run.
func (s *Service) RunSync(ctx context.Context, filter Filter) (*SyncReport, error) {
	payloads, err := s.fetcher.FetchOrders(ctx, filter.Limit, filter.Status)
	if err != nil {
		if len(payloads) == 0 {
			return nil, fmt.Errorf("fetch orders: %w", err)
		}
		// Partial page: keep what arrived, record the cut-off.
		s.log.Warn("fetch returned partial results", logger.Error(err))
	}

	report := &SyncReport{Fetched: len(payloads)}
	if err != nil {
		report.Failures = append(report.Failures, Failure{Err: fmt.Sprintf("fetch: %v", err)})
	}

	for _, raw := range payloads {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if err := s.syncOne(ctx, raw, report); err != nil {
			sourceID := int64(0)
			var nerr *domain.NormalizationError
			if errors.As(err, &nerr) {
				sourceID = nerr.SourceOrderID
			}
			report.Failures = append(report.Failures, Failure{
				SourceOrderID: sourceID,
				Err:           err.Error(),
			})
			s.log.Error("order sync failed",
				logger.Int64("source_order_id", sourceID),
				logger.Error(err))
		}
	}

	s.log.Info("sync run finished",
		logger.Int("fetched", report.Fetched),
		logger.Int("new_raw", report.NewRaw),
		logger.Int("updated_raw", report.UpdatedRaw),
		logger.Int("upserted", report.Upserted),
		logger.Int("failed", len(report.Failures)))

	return report, nil
}

func (s *Service) syncOne(ctx context.Context, raw json.RawMessage, report *SyncReport) error {
	payload, err := domain.DecodeDocument(raw)
	if err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}

	sourceID := domain.SourceOrderIDFromPayload(payload)
	if sourceID <= 0 {
		return &domain.NormalizationError{
			Cause: fmt.Errorf("payload has no usable order id: %w", domain.ErrMissingField),
		}
	}

	createdAt, updatedAt := domain.PlatformTimestamps(payload)
	_, isNew, err := s.rawRepo.RecordRaw(ctx, s.shopID, sourceID, payload, createdAt, updatedAt)
	if err != nil {
		return fmt.Errorf("record raw order %d: %w", sourceID, err)
	}
	if isNew {
		report.NewRaw++
	} else {
		report.UpdatedRaw++
	}

	subOrders, err := s.normalizer.Normalize(&domain.RawOrder{
		ShopID:            s.shopID,
		SourceOrderID:     sourceID,
		Payload:           payload,
		PlatformCreatedAt: createdAt,
		PlatformUpdatedAt: updatedAt,
	})
	if err != nil {
		return err
	}
	report.Normalized++

	if err := s.orderRepo.ReplaceForParent(ctx, s.shopID, sourceID, subOrders); err != nil {
		return fmt.Errorf("upsert sub-orders for %d: %w", sourceID, err)
	}
	report.Upserted += len(subOrders)

	if s.publisher != nil {
		for _, o := range subOrders {
			if err := s.publisher.PublishSyncedOrder(ctx, o); err != nil {
				s.log.Warn("publish synced order failed",
					logger.String("sub_order_no", o.SubOrderNo),
					logger.Error(err))
			}
		}
	}

	return nil
}
