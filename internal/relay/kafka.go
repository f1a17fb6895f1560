package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/flobe99/svb-chicken.backend/internal/broadcast"
	"github.com/twmb/franz-go/pkg/kgo"
)

const maxBufferedRecords = 10000

// Kafka produces every event to one topic, keyed by order id so that each
// order's events stay on one partition.
type Kafka struct {
	client *kgo.Client
	topic  string
	logger *slog.Logger
}

func NewKafka(brokers []string, topic string, logger *slog.Logger) (*Kafka, error) {
	if logger == nil {
		logger = slog.Default()
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.AllowAutoTopicCreation(),
		kgo.RequiredAcks(kgo.AllISRAcks()),
		kgo.ProducerLinger(10*time.Millisecond),
		kgo.MaxBufferedRecords(maxBufferedRecords),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return &Kafka{client: client, topic: topic, logger: logger}, nil
}

func orderKey(msg []byte) []byte {
	var head struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(msg, &head); err != nil || head.Data.ID == "" {
		return nil
	}
	return []byte(head.Data.ID)
}

// WriteMessage hands msg to the async producer without blocking. Delivery
// failures, including a full buffer, are logged.
func (k *Kafka) WriteMessage(ctx context.Context, msg []byte) error {
	event := eventName(msg)
	record := &kgo.Record{
		Topic: k.topic,
		Key:   orderKey(msg),
		Value: msg,
		Headers: []kgo.RecordHeader{
			{Key: "event_type", Value: []byte(event)},
		},
		Timestamp: time.Now(),
	}
	// Fails fast with kgo.ErrMaxBuffered when the producer buffer is full.
	k.client.TryProduce(context.WithoutCancel(ctx), record, func(r *kgo.Record, err error) {
		if err != nil {
			k.logger.Error("kafka produce", "event", event, "error", err)
			return
		}
		k.logger.Debug("kafka produced", "event", event, "partition", r.Partition, "offset", r.Offset)
	})
	return nil
}

// Close flushes buffered records before closing the client.
func (k *Kafka) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := k.client.Flush(ctx); err != nil {
		k.logger.Warn("kafka flush", "error", err)
	}
	k.client.Close()
	return nil
}

// Durable keeps the relay registered while the brokers are slow.
func (k *Kafka) Durable() {}

var _ broadcast.Durable = (*Kafka)(nil)
