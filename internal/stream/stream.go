// Package stream turns committed wallet mutations into live per-user event
// feeds. The client subscribes to its own balance and transaction channels the
// way the mobile app previously watched store snapshots: a restartable stream
// that stops when the subscriber cancels, with no effect on the data itself.
package stream

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	balanceChannelPrefix = "wallet:balance:"
	entryChannelPrefix   = "wallet:entries:"
)

// BalanceEvent is published after any committed balance mutation.
type BalanceEvent struct {
	UserID    string    `json:"user_id"`
	Balance   int64     `json:"balance"`
	Currency  string    `json:"currency"`
	UpdatedAt time.Time `json:"updated_at"`
}

// EntryEvent is published when a log entry involving the user is appended.
type EntryEvent struct {
	EntryID   string    `json:"entry_id"`
	Kind      string    `json:"kind"`
	Amount    int64     `json:"amount"`
	From      string    `json:"from,omitempty"`
	To        string    `json:"to"`
	CreatedAt time.Time `json:"created_at"`
}

// Broker fans wallet events out over per-user Redis channels. Publishing is
// best-effort: the ledger is the source of truth and a missed event is
// recovered by the next read, so publish failures are logged, not surfaced.
type Broker struct {
	rdb    *redis.Client
	logger *slog.Logger
}

// NewBroker constructs a broker over the shared Redis client.
func NewBroker(rdb *redis.Client, logger *slog.Logger) *Broker {
	return &Broker{rdb: rdb, logger: logger}
}

// PublishBalance announces a new committed balance for the user.
func (b *Broker) PublishBalance(ctx context.Context, ev BalanceEvent) {
	if b == nil || b.rdb == nil {
		return
	}
	b.publish(ctx, balanceChannelPrefix+ev.UserID, ev)
}

// PublishEntry announces an appended log entry to every participant.
func (b *Broker) PublishEntry(ctx context.Context, ev EntryEvent) {
	if b == nil || b.rdb == nil {
		return
	}
	b.publish(ctx, entryChannelPrefix+ev.To, ev)
	if ev.From != "" && ev.From != ev.To {
		b.publish(ctx, entryChannelPrefix+ev.From, ev)
	}
}

func (b *Broker) publish(ctx context.Context, channel string, ev any) {
	payload, err := json.Marshal(ev)
	if err != nil {
		b.logger.Warn("encode stream event", "channel", channel, "error", err)
		return
	}
	if err := b.rdb.Publish(ctx, channel, payload).Err(); err != nil {
		b.logger.Warn("publish stream event", "channel", channel, "error", err)
	}
}

// WatchBalance subscribes to the user's balance feed. The returned channel
// closes when ctx is cancelled; callers may simply subscribe again to restart.
func (b *Broker) WatchBalance(ctx context.Context, userID string) (<-chan BalanceEvent, error) {
	sub := b.rdb.Subscribe(ctx, balanceChannelPrefix+userID)
	if _, err := sub.Receive(ctx); err != nil {
		sub.Close()
		return nil, err
	}

	out := make(chan BalanceEvent)
	go func() {
		defer close(out)
		defer sub.Close()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var ev BalanceEvent
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					b.logger.Warn("decode balance event", "error", err)
					continue
				}
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

// WatchEntries subscribes to log entries where the user participates, in
// publish order (newest events as they happen).
func (b *Broker) WatchEntries(ctx context.Context, userID string) (<-chan EntryEvent, error) {
	sub := b.rdb.Subscribe(ctx, entryChannelPrefix+userID)
	if _, err := sub.Receive(ctx); err != nil {
		sub.Close()
		return nil, err
	}

	out := make(chan EntryEvent)
	go func() {
		defer close(out)
		defer sub.Close()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var ev EntryEvent
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					b.logger.Warn("decode entry event", "error", err)
					continue
				}
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
