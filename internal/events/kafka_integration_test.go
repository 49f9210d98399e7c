//go:build integration

package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"agri-ledger/internal/models"
	"agri-ledger/internal/testutil/containers"
)

func TestKafkaSinkProducesKeyedEvents(t *testing.T) {
	kc := containers.NewKafkaContainer(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	sink, err := NewKafkaSink(KafkaConfig{Brokers: []string{kc.Broker}, Topic: "ledger-events"}, nil)
	require.NoError(t, err)
	require.NoError(t, sink.EnsureTopic(ctx))
	require.NoError(t, sink.EnsureTopic(ctx))

	m := NewManager(true)
	m.Subscribe(sink.Handle)
	m.PublishMarketSale(ctx, EventMarketSaleRecorded, models.MarketTransaction{ID: "t1", FarmerID: "f1", Quantity: 7}, 7)
	require.NoError(t, m.Shutdown(ctx))
	require.NoError(t, sink.Close(ctx))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(kc.Broker),
		kgo.ConsumeTopics("ledger-events"),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	require.NoError(t, err)
	defer consumer.Close()

	fetches := consumer.PollFetches(ctx)
	require.Empty(t, fetches.Errors())

	records := fetches.Records()
	require.Len(t, records, 1)
	assert.Equal(t, "f1", string(records[0].Key))

	var decoded struct {
		Type EventType `json:"type"`
		Data struct {
			FarmerPoints int `json:"farmer_points"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(records[0].Value, &decoded))
	assert.Equal(t, EventMarketSaleRecorded, decoded.Type)
	assert.Equal(t, 7, decoded.Data.FarmerPoints)
}
