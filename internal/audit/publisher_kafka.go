package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"
	"go.uber.org/zap"
)

// KafkaPublisher writes audit events to a Kafka topic keyed by user id so a
// user's trail stays ordered within a partition.
type KafkaPublisher struct {
	client *kgo.Client
	topic  string
	log    *zap.Logger
}

// NewKafkaPublisher connects to the brokers and makes sure the audit topic
// exists. Topic creation is best-effort: a topic-already-exists answer from
// the cluster is not an error.
func NewKafkaPublisher(ctx context.Context, brokers []string, topic string, log *zap.Logger) (*KafkaPublisher, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka client: %w", err)
	}

	admin := kadm.NewClient(client)
	resp, err := admin.CreateTopics(ctx, 1, 1, nil, topic)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("ensure audit topic: %w", err)
	}
	for _, res := range resp.Sorted() {
		if res.Err != nil && !errors.Is(res.Err, kerr.TopicAlreadyExists) {
			client.Close()
			return nil, fmt.Errorf("ensure audit topic %s: %w", res.Topic, res.Err)
		}
	}

	return &KafkaPublisher{client: client, topic: topic, log: log}, nil
}

// Emit produces the event asynchronously. Delivery failures are logged, not
// returned: an audit hiccup must never fail a sign-in.
func (p *KafkaPublisher) Emit(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}

	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(event.UserID.String()),
		Value: payload,
	}
	p.client.Produce(ctx, record, func(_ *kgo.Record, err error) {
		if err != nil {
			p.log.Warn("audit event delivery failed",
				zap.String("action", string(event.Action)),
				zap.Error(err))
		}
	})
	return nil
}

// Close flushes pending records and releases the client.
func (p *KafkaPublisher) Close() {
	_ = p.client.Flush(context.Background())
	p.client.Close()
}
