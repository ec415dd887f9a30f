package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/aismartspeaker9-cloud/zenheart-erp/internal/application/sync"
	"github.com/aismartspeaker9-cloud/zenheart-erp/internal/config"
	domain "github.com/aismartspeaker9-cloud/zenheart-erp/internal/domain/order"
	"github.com/aismartspeaker9-cloud/zenheart-erp/internal/infrastructure/http/shopify"
	"github.com/aismartspeaker9-cloud/zenheart-erp/internal/infrastructure/persistence/postgres"
	"github.com/aismartspeaker9-cloud/zenheart-erp/pkg/logger"
)

// One-shot sync runner for cron jobs and manual backfills. Unlike the API
// process it skips Kafka entirely and prints the report to stdout.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config failed: %v", err)
	}

	limit := flag.Int("limit", cfg.Sync.Limit, "max orders to fetch")
	status := flag.String("status", cfg.Sync.Status, "order status filter (any|open|closed|cancelled)")
	flag.Parse()

	zlog, err := logger.NewZapLogger(cfg.App.Env)
	if err != nil {
		log.Fatalf("init logger failed: %v", err)
	}
	defer zlog.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := postgres.NewPool(cfg.DB)
	if err != nil {
		log.Fatalf("postgres connection failed: %v", err)
	}
	defer pool.Close()

	policy, err := sync.SplitPolicyFromConfig(cfg.Sync)
	if err != nil {
		log.Fatalf("split policy config failed: %v", err)
	}

	svc := sync.NewService(
		cfg.Shopify.ShopID(),
		shopify.NewClient(cfg.Shopify),
		postgres.NewRawOrderRepository(pool, cfg.Sync.LockTimeoutMS),
		postgres.NewOrderRepository(pool, cfg.Sync.LockTimeoutMS),
		domain.NewNormalizer(policy),
		nil,
		zlog,
	)

	report, err := svc.RunSync(ctx, sync.Filter{Limit: *limit, Status: *status})
	if err != nil {
		log.Fatalf("sync failed: %v", err)
	}

	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		log.Fatalf("encode report: %v", err)
	}
	fmt.Println(string(out))

	if len(report.Failures) > 0 {
		os.Exit(1)
	}
}
