// Package publisher writes detected value bets to Redis Streams.
package publisher

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/martofrog/tennis-predictions/internal/config"
	"github.com/martofrog/tennis-predictions/internal/models"
)

// DefaultStreamPrefix names the global stream; tour streams append ".{tour}"
const DefaultStreamPrefix = "value_bets.detected"

// streamClient is the subset of *redis.Client used by the publisher
type streamClient interface {
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
}

// StreamPublisher publishes value bets and arbitrage to Redis Streams
type StreamPublisher struct {
	client streamClient
	prefix string
}

// NewRedisClient connects to redis and pings it
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr, err)
	}
	return client, nil
}

// NewStreamPublisher creates a new stream publisher
func NewStreamPublisher(client *redis.Client, prefix string) *StreamPublisher {
	return newStreamPublisher(client, prefix)
}

func newStreamPublisher(client streamClient, prefix string) *StreamPublisher {
	if prefix == "" {
		prefix = DefaultStreamPrefix
	}
	return &StreamPublisher{client: client, prefix: prefix}
}

// Name implements service.Sink
func (p *StreamPublisher) Name() string {
	return "redis"
}

// StreamKey returns the tour stream for tour, or the global stream when tour is empty
func (p *StreamPublisher) StreamKey(tour models.Tour) string {
	if tour == "" {
		return p.prefix
	}
	return fmt.Sprintf("%s.%s", p.prefix, tour)
}

// PublishValueBet publishes one value bet to its tour stream and the global stream
func (p *StreamPublisher) PublishValueBet(ctx context.Context, bet models.ValueBet) error {
	betJSON, err := json.Marshal(bet)
	if err != nil {
		return fmt.Errorf("failed to marshal value bet: %w", err)
	}
	values := map[string]interface{}{
		"type":      "value_bet",
		"match_ref": bet.MatchRef,
		"value_bet": string(betJSON),
	}

	if bet.Tour != "" {
		if err := p.add(ctx, p.StreamKey(bet.Tour), values); err != nil {
			return err
		}
	}
	return p.add(ctx, p.StreamKey(""), values)
}

// PublishArbitrage publishes one arbitrage opportunity to the global stream
func (p *StreamPublisher) PublishArbitrage(ctx context.Context, arb models.ArbitrageOpportunity) error {
	arbJSON, err := json.Marshal(arb)
	if err != nil {
		return fmt.Errorf("failed to marshal arbitrage: %w", err)
	}
	return p.add(ctx, p.StreamKey(""), map[string]interface{}{
		"type":      "arbitrage",
		"match_ref": arb.MatchRef,
		"arbitrage": string(arbJSON),
	})
}

// Publish implements service.Sink, stopping at the first failed write
func (p *StreamPublisher) Publish(ctx context.Context, bets []models.ValueBet, arbitrage []models.ArbitrageOpportunity) error {
	for _, bet := range bets {
		if err := p.PublishValueBet(ctx, bet); err != nil {
			return err
		}
	}
	for _, arb := range arbitrage {
		if err := p.PublishArbitrage(ctx, arb); err != nil {
			return err
		}
	}
	return nil
}

func (p *StreamPublisher) add(ctx context.Context, stream string, values map[string]interface{}) error {
	_, err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		Values: values,
	}).Result()
	if err != nil {
		return fmt.Errorf("failed to publish to stream %s: %w", stream, err)
	}
	return nil
}
