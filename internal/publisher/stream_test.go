package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/martofrog/tennis-predictions/internal/models"
)

type fakeStreams struct {
	added []*redis.XAddArgs
	err   error
}

func (f *fakeStreams) XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd {
	if f.err != nil {
		return redis.NewStringResult("", f.err)
	}
	f.added = append(f.added, a)
	return redis.NewStringResult("1-0", nil)
}

func TestStreamKey(t *testing.T) {
	p := newStreamPublisher(&fakeStreams{}, "")
	assert.Equal(t, "value_bets.detected", p.StreamKey(""))
	assert.Equal(t, "value_bets.detected.atp", p.StreamKey(models.TourATP))

	custom := newStreamPublisher(&fakeStreams{}, "tennis.bets")
	assert.Equal(t, "tennis.bets.wta", custom.StreamKey(models.TourWTA))
}

func TestPublishWritesTourAndGlobalStreams(t *testing.T) {
	streams := &fakeStreams{}
	p := newStreamPublisher(streams, "")

	bets := []models.ValueBet{
		{MatchRef: "evt-1", Selection: "Alpha One", Tour: models.TourATP, Edge: 0.08},
		{MatchRef: "evt-2", Selection: "Beta Two"},
	}
	arbs := []models.ArbitrageOpportunity{{MatchRef: "evt-3", ImpliedSum: 0.97}}

	require.NoError(t, p.Publish(context.Background(), bets, arbs))
	require.Len(t, streams.added, 4)

	assert.Equal(t, "value_bets.detected.atp", streams.added[0].Stream)
	assert.Equal(t, "value_bets.detected", streams.added[1].Stream)
	assert.Equal(t, "value_bets.detected", streams.added[2].Stream)
	assert.Equal(t, "value_bets.detected", streams.added[3].Stream)

	values := streams.added[0].Values.(map[string]interface{})
	assert.Equal(t, "value_bet", values["type"])
	var decoded models.ValueBet
	require.NoError(t, json.Unmarshal([]byte(values["value_bet"].(string)), &decoded))
	assert.Equal(t, "Alpha One", decoded.Selection)
	assert.InDelta(t, 0.08, decoded.Edge, 1e-12)

	arbValues := streams.added[3].Values.(map[string]interface{})
	assert.Equal(t, "arbitrage", arbValues["type"])
	assert.Equal(t, "evt-3", arbValues["match_ref"])
}

func TestPublishReturnsWriteError(t *testing.T) {
	p := newStreamPublisher(&fakeStreams{err: errors.New("connection reset")}, "")
	err := p.Publish(context.Background(), []models.ValueBet{{MatchRef: "evt-1"}}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "value_bets.detected")
	assert.Equal(t, "redis", p.Name())
}
