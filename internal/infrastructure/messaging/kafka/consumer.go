package kafka

import (
	"context"
	"encoding/json"
	"log"

	kafkago "github.com/segmentio/kafka-go"

	app "github.com/aismartspeaker9-cloud/zenheart-erp/internal/application/fulfillment"
	"github.com/aismartspeaker9-cloud/zenheart-erp/internal/config"
)

// TrackingConsumer reads carrier tracking updates and applies them to the
// fulfillment store. Malformed or rejected events are logged and skipped;
// only read failures stop the loop.
type TrackingConsumer struct {
	reader  *kafkago.Reader
	handler *app.Service
}

func NewTrackingConsumer(cfg config.KafkaConfig, handler *app.Service) *TrackingConsumer {
	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:  cfg.Brokers,
		GroupID:  cfg.ConsumerGroup,
		Topic:    cfg.TrackingTopic,
		MinBytes: 1e3,
		MaxBytes: 1e6,
	})

	return &TrackingConsumer{
		reader:  reader,
		handler: handler,
	}
}

func (c *TrackingConsumer) Start(ctx context.Context) error {
	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			return err
		}

		var ev app.TrackingEvent
		if err := json.Unmarshal(msg.Value, &ev); err != nil {
			log.Printf("[Kafka Consumer] Skipping malformed tracking event at offset %d: %v", msg.Offset, err)
			continue
		}

		if err := c.handler.HandleTrackingEvent(ctx, &ev); err != nil {
			log.Printf("[Kafka Consumer] Failed to handle tracking event %s/%s: %v",
				ev.SubOrderNo, ev.TrackingNumber, err)
		}
	}
}

func (c *TrackingConsumer) Close() {
	_ = c.reader.Close()
}
