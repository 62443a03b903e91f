package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bibliolab/internal/core/id"
	"bibliolab/internal/infrastructure/storage/postgres"
)

type fakePub struct {
	channel string
	message []byte
	err     error
}

func (f *fakePub) Publish(_ context.Context, channel string, message any) *redis.IntCmd {
	f.channel = channel
	f.message = message.([]byte)
	return redis.NewIntResult(1, f.err)
}

type countingInvalidator struct {
	calls int
	err   error
}

func (c *countingInvalidator) Invalidate(context.Context) error {
	c.calls++
	return c.err
}

func message(aggregate, event string) *postgres.OutboxMessage {
	return &postgres.OutboxMessage{
		ID:            id.New(),
		AggregateType: aggregate,
		AggregateID:   id.New(),
		EventType:     event,
		Payload:       []byte(`{"entity":"book"}`),
	}
}

func TestRedisPublisher_PublishesEnvelope(t *testing.T) {
	pub := &fakePub{}
	p := &RedisPublisher{rdb: pub, channel: "bibliolab.events"}
	msg := message("book", "book.create")

	require.NoError(t, p.Handle(context.Background(), msg))
	assert.Equal(t, "bibliolab.events", pub.channel)

	var env Envelope
	require.NoError(t, json.Unmarshal(pub.message, &env))
	assert.Equal(t, msg.ID.String(), env.ID)
	assert.Equal(t, "book.create", env.EventType)
	assert.JSONEq(t, `{"entity":"book"}`, string(env.Payload))
}

func TestRedisPublisher_FailureIsReturned(t *testing.T) {
	p := &RedisPublisher{rdb: &fakePub{err: errors.New("down")}, channel: "c"}
	assert.Error(t, p.Handle(context.Background(), message("book", "book.create")))
}

func TestInvalidateOn_OnlyWatchedAggregates(t *testing.T) {
	inv := &countingInvalidator{}
	h := InvalidateOn(inv, "book", "author")
	ctx := context.Background()

	require.NoError(t, h.Handle(ctx, message("person", "person.update")))
	require.NoError(t, h.Handle(ctx, message("Book", "book.soft_delete")))
	require.NoError(t, h.Handle(ctx, message("author", "author.create")))
	assert.Equal(t, 2, inv.calls)

	inv.err = errors.New("redis down")
	assert.NoError(t, h.Handle(ctx, message("book", "book.update")))
}

func TestChain_StopsAtFirstError(t *testing.T) {
	var order []string
	first := postgres.OutboxHandlerFunc(func(context.Context, *postgres.OutboxMessage) error {
		order = append(order, "first")
		return errors.New("boom")
	})
	second := postgres.OutboxHandlerFunc(func(context.Context, *postgres.OutboxMessage) error {
		order = append(order, "second")
		return nil
	})

	err := Chain(first, nil, second).Handle(context.Background(), message("book", "book.create"))
	assert.Error(t, err)
	assert.Equal(t, []string{"first"}, order)
}
