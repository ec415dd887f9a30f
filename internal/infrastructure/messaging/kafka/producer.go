package kafka

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/aismartspeaker9-cloud/zenheart-erp/internal/config"
	"github.com/aismartspeaker9-cloud/zenheart-erp/internal/domain/order"
	"github.com/aismartspeaker9-cloud/zenheart-erp/internal/infrastructure/encoding/avro"
)

// OrderEventProducer publishes one Avro SyncedOrder event per sub-order
// after a parent has been upserted. Events are keyed by parent order no so
// all sub-orders of a parent land on the same partition, in order.
type OrderEventProducer struct {
	client  *kgo.Client
	encoder *avro.Encoder
	topic   string
}

func NewOrderEventProducer(cfg config.KafkaConfig) (*OrderEventProducer, error) {
	log.Printf("[Kafka Producer] Connecting to brokers: %v", cfg.Brokers)
	log.Printf("[Kafka Producer] Topic: %s", cfg.OrderEventTopic)

	encoder, err := avro.NewEncoder(avro.SyncedOrderSchema)
	if err != nil {
		return nil, fmt.Errorf("create synced order codec: %w", err)
	}

	opts := []kgo.Opt{
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.DefaultProduceTopic(cfg.OrderEventTopic),
		// Đợi tất cả ISR confirm
		kgo.RequiredAcks(kgo.AllISRAcks()),
	}

	client, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}

	return &OrderEventProducer{
		client:  client,
		encoder: encoder,
		topic:   cfg.OrderEventTopic,
	}, nil
}

func (p *OrderEventProducer) PublishSyncedOrder(ctx context.Context, o *order.NormalizedOrder) error {
	if o == nil {
		return fmt.Errorf("order is nil")
	}

	payload, err := p.encoder.EncodeNative(avro.ToSyncedOrderNative(o))
	if err != nil {
		return fmt.Errorf("encode synced order %s: %w", o.SubOrderNo, err)
	}

	rec := &kgo.Record{
		Topic:     p.topic,
		Key:       []byte(o.ParentOrderNo),
		Value:     payload,
		Timestamp: time.Now().UTC(),
	}

	// ProduceSync trả về slice lỗi, chỉ dùng 1 record nên lấy phần tử đầu
	results := p.client.ProduceSync(ctx, rec)

	if err := results.FirstErr(); err != nil {
		log.Printf("[Kafka Producer] Failed to publish to topic %s: %v", p.topic, err)
		return fmt.Errorf("publish to kafka topic %s: %w", p.topic, err)
	}

	return nil
}

func (p *OrderEventProducer) Close(ctx context.Context) error {
	log.Printf("[Kafka Producer] Closing producer for topic %s", p.topic)
	p.client.Close()
	return nil
}
