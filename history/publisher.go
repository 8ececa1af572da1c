// Package history publishes score card snapshots for downstream consumers.
package history

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/seo-optimizer/geo/scoring"
)

// Snapshot is the record published for every freshly computed card.
type Snapshot struct {
	Source      string            `json:"source"`
	RunID       string            `json:"runId,omitempty"`
	Card        scoring.ScoreCard `json:"card"`
	PublishedAt time.Time         `json:"publishedAt"`
}

// Publisher records snapshots somewhere durable.
type Publisher interface {
	Publish(ctx context.Context, snaps ...Snapshot) error
	Close() error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Kafka writes snapshots as JSON to a topic, keyed by page URL so every
// snapshot of one page lands on the same partition.
type Kafka struct {
	w   messageWriter
	now func() time.Time
}

// NewKafka builds a synchronous writer for topic on brokers.
func NewKafka(brokers []string, topic string) *Kafka {
	return &Kafka{
		w: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
			Async:        false,
		},
		now: time.Now,
	}
}

func (k *Kafka) Publish(ctx context.Context, snaps ...Snapshot) error {
	if len(snaps) == 0 {
		return nil
	}
	msgs := make([]kafka.Message, 0, len(snaps))
	for _, s := range snaps {
		if s.PublishedAt.IsZero() {
			s.PublishedAt = k.now()
		}
		value, err := json.Marshal(s)
		if err != nil {
			return fmt.Errorf("history: encode %s: %w", s.Card.URL, err)
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(s.Card.URL),
			Value: value,
			Headers: []kafka.Header{
				{Key: "source", Value: []byte(s.Source)},
			},
		})
	}
	if err := k.w.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("history: write %d snapshots: %w", len(msgs), err)
	}
	return nil
}

func (k *Kafka) Close() error {
	return k.w.Close()
}

// Nop discards every snapshot. It is used when no brokers are configured.
type Nop struct{}

func (Nop) Publish(context.Context, ...Snapshot) error { return nil }
func (Nop) Close() error                               { return nil }
