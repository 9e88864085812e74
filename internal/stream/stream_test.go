package stream

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/chatter-app/chatter-wallet/internal/logging"
)

func setupBroker(t *testing.T) (*Broker, func()) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	broker := NewBroker(rdb, logging.Discard())
	cleanup := func() {
		rdb.Close()
		mr.Close()
	}
	return broker, cleanup
}

func TestBrokerBalanceRoundTrip(t *testing.T) {
	broker, cleanup := setupBroker(t)
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	events, err := broker.WatchBalance(ctx, "user-1")
	if err != nil {
		t.Fatalf("watch balance: %v", err)
	}

	sent := BalanceEvent{UserID: "user-1", Balance: 4_200, Currency: "NGN", UpdatedAt: time.Now().UTC().Truncate(time.Second)}
	broker.PublishBalance(ctx, sent)

	select {
	case got := <-events:
		if got.UserID != sent.UserID || got.Balance != sent.Balance || got.Currency != sent.Currency {
			t.Fatalf("unexpected event: %+v", got)
		}
	case <-ctx.Done():
		t.Fatal("timed out waiting for balance event")
	}
}

func TestBrokerEntryReachesBothParticipants(t *testing.T) {
	broker, cleanup := setupBroker(t)
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	senderEvents, err := broker.WatchEntries(ctx, "sender")
	if err != nil {
		t.Fatalf("watch sender: %v", err)
	}
	recipientEvents, err := broker.WatchEntries(ctx, "recipient")
	if err != nil {
		t.Fatalf("watch recipient: %v", err)
	}

	broker.PublishEntry(ctx, EntryEvent{EntryID: "e1", Kind: "transfer", Amount: 500, From: "sender", To: "recipient", CreatedAt: time.Now().UTC()})

	for name, ch := range map[string]<-chan EntryEvent{"sender": senderEvents, "recipient": recipientEvents} {
		select {
		case got := <-ch:
			if got.EntryID != "e1" || got.Amount != 500 {
				t.Fatalf("%s got unexpected event: %+v", name, got)
			}
		case <-ctx.Done():
			t.Fatalf("timed out waiting for %s event", name)
		}
	}
}

func TestBrokerWatchStopsOnCancel(t *testing.T) {
	broker, cleanup := setupBroker(t)
	defer cleanup()

	ctx, cancel := context.WithCancel(context.Background())
	events, err := broker.WatchBalance(ctx, "user-2")
	if err != nil {
		t.Fatalf("watch balance: %v", err)
	}

	cancel()

	select {
	case _, open := <-events:
		if open {
			t.Fatal("expected closed channel after cancel")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("channel did not close after cancel")
	}
}
