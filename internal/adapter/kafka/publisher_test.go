package kafka

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/bver-dev/bver/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerializeToMessage(t *testing.T) {
	now := time.Date(2025, 6, 1, 15, 10, 0, 0, time.UTC)
	addr := domain.AddressIdentity{Street: "123 Main St", City: "Austin", State: "TX", ZipCode: "78701"}
	res := domain.Resolution{
		Record: domain.PropertyRecord{
			Address:       addr,
			AssessedValue: domain.Float(450000),
			DataSource:    domain.SourceRentCast,
		},
		Attempts:   []domain.Attempt{{Provider: domain.SourceRentCast, Outcome: domain.OutcomeFound}},
		ResolvedAt: now,
	}

	msg, err := serializeToMessage(res)
	require.NoError(t, err)

	assert.Equal(t, []byte("123_main_st_austin_tx_78701"), msg.Key)
	require.Len(t, msg.Headers, 2)
	assert.Equal(t, "data_source", msg.Headers[0].Key)
	assert.Equal(t, []byte("rentcast"), msg.Headers[0].Value)
	assert.Equal(t, "resolved_at", msg.Headers[1].Key)
	assert.Equal(t, []byte(now.Format(time.RFC3339)), msg.Headers[1].Value)

	var decoded domain.Resolution
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, addr, decoded.Record.Address)
	assert.Equal(t, 450000.0, *decoded.Record.AssessedValue)
	assert.Equal(t, domain.OutcomeFound, decoded.Attempts[0].Outcome)
}

func TestNewPublisher(t *testing.T) {
	p := NewPublisher([]string{"localhost:9092"}, "property-resolved", nil)
	assert.Equal(t, "property-resolved", p.writer.Topic)
	assert.Equal(t, 10*time.Millisecond, p.writer.BatchTimeout)
	assert.NoError(t, p.Close())
}
