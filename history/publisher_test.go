package history

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seo-optimizer/geo/scoring"
)

type recordingWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

func TestKafkaPublish(t *testing.T) {
	w := &recordingWriter{}
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	k := &Kafka{w: w, now: func() time.Time { return now }}

	err := k.Publish(context.Background(),
		Snapshot{Source: "analyze", Card: scoring.ScoreCard{URL: "https://a.test", OverallGeoScore: 71}},
		Snapshot{Source: "compare", RunID: "r1", Card: scoring.ScoreCard{URL: "https://b.test", IsFallback: true}},
	)
	require.NoError(t, err)
	require.Len(t, w.msgs, 2)

	assert.Equal(t, "https://a.test", string(w.msgs[0].Key))
	assert.Equal(t, "analyze", string(w.msgs[0].Headers[0].Value))

	var got Snapshot
	require.NoError(t, json.Unmarshal(w.msgs[1].Value, &got))
	assert.Equal(t, "r1", got.RunID)
	assert.True(t, got.Card.IsFallback)
	assert.True(t, got.PublishedAt.Equal(now))

	require.NoError(t, k.Close())
	assert.True(t, w.closed)
}

func TestKafkaPublishError(t *testing.T) {
	k := &Kafka{w: &recordingWriter{err: errors.New("broker down")}, now: time.Now}

	err := k.Publish(context.Background(), Snapshot{Card: scoring.ScoreCard{URL: "https://a.test"}})
	assert.ErrorContains(t, err, "broker down")
	assert.NoError(t, k.Publish(context.Background()))
}

func TestNop(t *testing.T) {
	var p Publisher = Nop{}
	assert.NoError(t, p.Publish(context.Background(), Snapshot{}))
	assert.NoError(t, p.Close())
}
