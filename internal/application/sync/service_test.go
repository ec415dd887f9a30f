package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/aismartspeaker9-cloud/zenheart-erp/internal/domain/order"
	"github.com/aismartspeaker9-cloud/zenheart-erp/pkg/logger"
)

const testShopID = "demo.myshopify.com"

// MockFetcher là mock cho Fetcher interface
type MockFetcher struct {
	mock.Mock
}

func (m *MockFetcher) FetchOrders(ctx context.Context, limit int, status string) ([]json.RawMessage, error) {
	args := m.Called(ctx, limit, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]json.RawMessage), args.Error(1)
}

type MockRawOrderRepo struct {
	mock.Mock
}

func (m *MockRawOrderRepo) RecordRaw(ctx context.Context, shopID string, sourceOrderID int64, payload order.Document,
	platformCreatedAt, platformUpdatedAt *time.Time) (order.RawOrderRef, bool, error) {
	args := m.Called(ctx, shopID, sourceOrderID, payload, platformCreatedAt, platformUpdatedAt)
	return args.Get(0).(order.RawOrderRef), args.Bool(1), args.Error(2)
}

func (m *MockRawOrderRepo) GetRaw(ctx context.Context, shopID string, sourceOrderID int64) (*order.RawOrder, error) {
	args := m.Called(ctx, shopID, sourceOrderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.RawOrder), args.Error(1)
}

type MockOrderRepo struct {
	mock.Mock
}

func (m *MockOrderRepo) ReplaceForParent(ctx context.Context, shopID string, sourceOrderID int64, orders []*order.NormalizedOrder) error {
	args := m.Called(ctx, shopID, sourceOrderID, orders)
	return args.Error(0)
}

func (m *MockOrderRepo) FindBySubOrderNo(ctx context.Context, subOrderNo string) (*order.NormalizedOrder, error) {
	args := m.Called(ctx, subOrderNo)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.NormalizedOrder), args.Error(1)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishSyncedOrder(ctx context.Context, o *order.NormalizedOrder) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func orderPayload(id int64, totalItems int, unitPrice string) json.RawMessage {
	edges := make([]map[string]any, 0, totalItems)
	for i := 0; i < totalItems; i++ {
		edges = append(edges, map[string]any{
			"node": map[string]any{
				"name":     fmt.Sprintf("Item %d", i+1),
				"quantity": 1,
				"variant": map[string]any{
					"id":    fmt.Sprintf("gid://shopify/ProductVariant/%d", 100+i),
					"title": "default",
				},
				"originalUnitPriceSet": map[string]any{
					"shopMoney": map[string]any{"amount": unitPrice, "currencyCode": "TWD"},
				},
			},
		})
	}
	doc := map[string]any{
		"id":        fmt.Sprintf("gid://shopify/Order/%d", id),
		"name":      fmt.Sprintf("#%d", id),
		"email":     "buyer@example.com",
		"createdAt": "2025-03-01T10:00:00Z",
		"updatedAt": "2025-03-01T10:00:00Z",
		"lineItems": map[string]any{"edges": edges},
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		panic(err)
	}
	return raw
}

// brokenPayload thiếu customer nên normalize phải fail.
func brokenPayload(id int64) json.RawMessage {
	raw, err := json.Marshal(map[string]any{
		"id": fmt.Sprintf("gid://shopify/Order/%d", id),
	})
	if err != nil {
		panic(err)
	}
	return raw
}

func newTestService(fetcher *MockFetcher, rawRepo *MockRawOrderRepo, orderRepo *MockOrderRepo, pub Publisher) *Service {
	return NewService(
		testShopID,
		fetcher,
		rawRepo,
		orderRepo,
		order.NewNormalizer(nil),
		pub,
		logger.NewNop(),
	)
}

func TestRunSync_Success(t *testing.T) {
	// Arrange
	fetcher := new(MockFetcher)
	rawRepo := new(MockRawOrderRepo)
	orderRepo := new(MockOrderRepo)
	publisher := new(MockPublisher)
	svc := newTestService(fetcher, rawRepo, orderRepo, publisher)

	ctx := context.Background()
	payloads := []json.RawMessage{
		orderPayload(101, 2, "10.00"),
		orderPayload(102, 1, "25.00"),
	}

	fetcher.On("FetchOrders", ctx, 50, "any").Return(payloads, nil)
	rawRepo.On("RecordRaw", ctx, testShopID, int64(101), mock.Anything, mock.Anything, mock.Anything).
		Return(order.RawOrderRef{ShopID: testShopID, SourceOrderID: 101}, true, nil)
	rawRepo.On("RecordRaw", ctx, testShopID, int64(102), mock.Anything, mock.Anything, mock.Anything).
		Return(order.RawOrderRef{ShopID: testShopID, SourceOrderID: 102}, true, nil)
	orderRepo.On("ReplaceForParent", ctx, testShopID, int64(101), mock.Anything).Return(nil)
	orderRepo.On("ReplaceForParent", ctx, testShopID, int64(102), mock.Anything).Return(nil)
	publisher.On("PublishSyncedOrder", ctx, mock.Anything).Return(nil).Twice()

	// Act
	report, err := svc.RunSync(ctx, Filter{Limit: 50, Status: "any"})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 2, report.Fetched)
	assert.Equal(t, 2, report.NewRaw)
	assert.Equal(t, 0, report.UpdatedRaw)
	assert.Equal(t, 2, report.Normalized)
	assert.Equal(t, 2, report.Upserted)
	assert.Empty(t, report.Failures)
	fetcher.AssertExpectations(t)
	rawRepo.AssertExpectations(t)
	orderRepo.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestRunSync_ResyncCountsUpdatedRaw(t *testing.T) {
	fetcher := new(MockFetcher)
	rawRepo := new(MockRawOrderRepo)
	orderRepo := new(MockOrderRepo)
	svc := newTestService(fetcher, rawRepo, orderRepo, nil)

	ctx := context.Background()
	fetcher.On("FetchOrders", ctx, 10, "").Return([]json.RawMessage{orderPayload(101, 1, "10.00")}, nil)
	// Lần sync lại: payload đã tồn tại, isNew=false
	rawRepo.On("RecordRaw", ctx, testShopID, int64(101), mock.Anything, mock.Anything, mock.Anything).
		Return(order.RawOrderRef{ShopID: testShopID, SourceOrderID: 101}, false, nil)
	orderRepo.On("ReplaceForParent", ctx, testShopID, int64(101), mock.Anything).Return(nil)

	report, err := svc.RunSync(ctx, Filter{Limit: 10})

	require.NoError(t, err)
	assert.Equal(t, 0, report.NewRaw)
	assert.Equal(t, 1, report.UpdatedRaw)
	assert.Equal(t, 1, report.Upserted)
	rawRepo.AssertExpectations(t)
}

func TestRunSync_OneBadOrderDoesNotStopTheRest(t *testing.T) {
	fetcher := new(MockFetcher)
	rawRepo := new(MockRawOrderRepo)
	orderRepo := new(MockOrderRepo)
	svc := newTestService(fetcher, rawRepo, orderRepo, nil)

	ctx := context.Background()
	payloads := make([]json.RawMessage, 0, 10)
	for i := int64(1); i <= 10; i++ {
		if i == 4 {
			payloads = append(payloads, brokenPayload(100+i))
			continue
		}
		payloads = append(payloads, orderPayload(100+i, 1, "10.00"))
	}
	fetcher.On("FetchOrders", ctx, 10, "").Return(payloads, nil)

	for i := int64(1); i <= 10; i++ {
		id := 100 + i
		rawRepo.On("RecordRaw", ctx, testShopID, id, mock.Anything, mock.Anything, mock.Anything).
			Return(order.RawOrderRef{ShopID: testShopID, SourceOrderID: id}, true, nil)
		if i != 4 {
			orderRepo.On("ReplaceForParent", ctx, testShopID, id, mock.Anything).Return(nil)
		}
	}

	report, err := svc.RunSync(ctx, Filter{Limit: 10})

	require.NoError(t, err)
	assert.Equal(t, 10, report.Fetched)
	assert.Equal(t, 9, report.Normalized)
	assert.Equal(t, 9, report.Upserted)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, int64(104), report.Failures[0].SourceOrderID)
	// Order hỏng vẫn được lưu raw trước khi normalize fail
	assert.Equal(t, 10, report.NewRaw)
	orderRepo.AssertExpectations(t)
}

func TestRunSync_FetchErrorFailsTheRun(t *testing.T) {
	fetcher := new(MockFetcher)
	rawRepo := new(MockRawOrderRepo)
	orderRepo := new(MockOrderRepo)
	svc := newTestService(fetcher, rawRepo, orderRepo, nil)

	ctx := context.Background()
	fetchErr := &order.FetchError{Cause: assert.AnError}
	fetcher.On("FetchOrders", ctx, 10, "").Return(nil, fetchErr)

	report, err := svc.RunSync(ctx, Filter{Limit: 10})

	require.Error(t, err)
	assert.Nil(t, report)
	var ferr *order.FetchError
	assert.ErrorAs(t, err, &ferr)
	rawRepo.AssertNotCalled(t, "RecordRaw")
}

func TestRunSync_UnidentifiablePayload(t *testing.T) {
	fetcher := new(MockFetcher)
	rawRepo := new(MockRawOrderRepo)
	orderRepo := new(MockOrderRepo)
	svc := newTestService(fetcher, rawRepo, orderRepo, nil)

	ctx := context.Background()
	fetcher.On("FetchOrders", ctx, 10, "").Return([]json.RawMessage{json.RawMessage(`{"name":"#1"}`)}, nil)

	report, err := svc.RunSync(ctx, Filter{Limit: 10})

	require.NoError(t, err)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, int64(0), report.Failures[0].SourceOrderID)
	rawRepo.AssertNotCalled(t, "RecordRaw")
}

func TestRunSync_PublishFailureIsNotFatal(t *testing.T) {
	fetcher := new(MockFetcher)
	rawRepo := new(MockRawOrderRepo)
	orderRepo := new(MockOrderRepo)
	publisher := new(MockPublisher)
	svc := newTestService(fetcher, rawRepo, orderRepo, publisher)

	ctx := context.Background()
	fetcher.On("FetchOrders", ctx, 10, "").Return([]json.RawMessage{orderPayload(101, 1, "10.00")}, nil)
	rawRepo.On("RecordRaw", ctx, testShopID, int64(101), mock.Anything, mock.Anything, mock.Anything).
		Return(order.RawOrderRef{ShopID: testShopID, SourceOrderID: 101}, true, nil)
	orderRepo.On("ReplaceForParent", ctx, testShopID, int64(101), mock.Anything).Return(nil)
	publisher.On("PublishSyncedOrder", ctx, mock.Anything).Return(assert.AnError)

	report, err := svc.RunSync(ctx, Filter{Limit: 10})

	require.NoError(t, err)
	assert.Equal(t, 1, report.Upserted)
	assert.Empty(t, report.Failures)
}

func TestRunSync_StorageConflictRecordedAsFailure(t *testing.T) {
	fetcher := new(MockFetcher)
	rawRepo := new(MockRawOrderRepo)
	orderRepo := new(MockOrderRepo)
	svc := newTestService(fetcher, rawRepo, orderRepo, nil)

	ctx := context.Background()
	fetcher.On("FetchOrders", ctx, 10, "").Return([]json.RawMessage{orderPayload(101, 1, "10.00")}, nil)
	rawRepo.On("RecordRaw", ctx, testShopID, int64(101), mock.Anything, mock.Anything, mock.Anything).
		Return(order.RawOrderRef{}, false, order.ErrStorageConflict)

	report, err := svc.RunSync(ctx, Filter{Limit: 10})

	require.NoError(t, err)
	require.Len(t, report.Failures, 1)
	assert.Contains(t, report.Failures[0].Err, order.ErrStorageConflict.Error())
	orderRepo.AssertNotCalled(t, "ReplaceForParent")
}
