package main

import (
	"context"
	"log"

	"github.com/aismartspeaker9-cloud/zenheart-erp/internal/application/fulfillment"
	"github.com/aismartspeaker9-cloud/zenheart-erp/internal/application/sync"
	"github.com/aismartspeaker9-cloud/zenheart-erp/internal/config"
	domain "github.com/aismartspeaker9-cloud/zenheart-erp/internal/domain/order"
	ginserver "github.com/aismartspeaker9-cloud/zenheart-erp/internal/infrastructure/http/gin"
	"github.com/aismartspeaker9-cloud/zenheart-erp/internal/infrastructure/http/shopify"
	kafkainfra "github.com/aismartspeaker9-cloud/zenheart-erp/internal/infrastructure/messaging/kafka"
	"github.com/aismartspeaker9-cloud/zenheart-erp/internal/infrastructure/persistence/postgres"
	"github.com/aismartspeaker9-cloud/zenheart-erp/internal/interfaces/http/handler"
	"github.com/aismartspeaker9-cloud/zenheart-erp/internal/interfaces/http/router"
	"github.com/aismartspeaker9-cloud/zenheart-erp/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config failed: %v", err)
	}

	zlog, err := logger.NewZapLogger(cfg.App.Env)
	if err != nil {
		log.Fatalf("init logger failed: %v", err)
	}
	defer zlog.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := postgres.NewPool(cfg.DB)
	if err != nil {
		log.Fatalf("postgres connection failed: %v", err)
	}
	defer pool.Close()

	rawRepo := postgres.NewRawOrderRepository(pool, cfg.Sync.LockTimeoutMS)
	orderRepo := postgres.NewOrderRepository(pool, cfg.Sync.LockTimeoutMS)
	fulfillmentRepo := postgres.NewFulfillmentRepository(pool)

	policy, err := sync.SplitPolicyFromConfig(cfg.Sync)
	if err != nil {
		log.Fatalf("split policy config failed: %v", err)
	}

	producer, err := kafkainfra.NewOrderEventProducer(cfg.Kafka)
	if err != nil {
		log.Fatalf("kafka producer failed: %v", err)
	}
	defer producer.Close(ctx)

	fetcher := shopify.NewClient(cfg.Shopify)
	syncService := sync.NewService(
		cfg.Shopify.ShopID(),
		fetcher,
		rawRepo,
		orderRepo,
		domain.NewNormalizer(policy),
		producer,
		zlog,
	)
	fulfillmentService := fulfillment.NewService(fulfillmentRepo, orderRepo, zlog)

	consumer := kafkainfra.NewTrackingConsumer(cfg.Kafka, fulfillmentService)
	go func() {
		if err := consumer.Start(ctx); err != nil {
			log.Printf("kafka consumer stopped: %v", err)
		}
	}()
	defer consumer.Close()

	syncHandler := handler.NewSyncHandler(syncService, sync.Filter{
		Limit:  cfg.Sync.Limit,
		Status: cfg.Sync.Status,
	})
	orderHandler := handler.NewOrderHandler(orderRepo)
	fulfillmentHandler := handler.NewFulfillmentHandler(fulfillmentService)

	engine := ginserver.NewEngine()
	router.RegisterRoutes(engine, syncHandler, orderHandler, fulfillmentHandler)

	server := ginserver.NewServer(cfg.Server, engine)
	if err := server.Run(); err != nil {
		log.Fatalf("server run failed: %v", err)
	}
}
