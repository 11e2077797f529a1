package resultlog

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestPublisher(t *testing.T, cfg Config) (*Publisher, *redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewWithClient(rdb, cfg), rdb, mr
}

func TestPublish_SetsStateWithTTL(t *testing.T) {
	p, _, mr := newTestPublisher(t, Config{Name: "nightly", TTL: 60})

	e := NewEntry("transfer", "orders", time.Now().Add(-time.Second), nil)
	e.Rows = 25
	if err := p.Publish(context.Background(), e); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	raw, err := mr.Get("dmbridge:nightly:transfer:state")
	if err != nil {
		t.Fatalf("state key missing: %v", err)
	}
	var got Entry
	if err := json.Unmarshal([]byte(raw), &got); err != nil {
		t.Fatal(err)
	}
	if got.Name != "nightly" || got.Status != "success" || got.Rows != 25 || got.Subject != "orders" || got.Error != nil {
		t.Errorf("entry = %+v", got)
	}
	if got.DurationMs < 1000 {
		t.Errorf("duration = %d ms", got.DurationMs)
	}
	if ttl := mr.TTL("dmbridge:nightly:transfer:state"); ttl != time.Minute {
		t.Errorf("TTL = %v", ttl)
	}
}

func TestPublish_Event(t *testing.T) {
	p, rdb, _ := newTestPublisher(t, Config{})
	ctx := context.Background()

	sub := rdb.Subscribe(ctx, p.Channel("batch"))
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		t.Fatal(err)
	}

	e := NewEntry("batch", "", time.Now(), errors.New("driver error in execute: [23000] duplicate"))
	e.Operations = 3
	e.SQLState = "23000"
	if err := p.Publish(ctx, e); err != nil {
		t.Fatal(err)
	}

	select {
	case msg := <-sub.Channel():
		var got Entry
		if err := json.Unmarshal([]byte(msg.Payload), &got); err != nil {
			t.Fatal(err)
		}
		if got.Status != "failed" || got.Error == nil || got.SQLState != "23000" || got.Name != "default" {
			t.Errorf("event = %+v", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no event received")
	}
}

func TestPublish_RedisDown(t *testing.T) {
	p, _, mr := newTestPublisher(t, Config{})
	mr.Close()
	if err := p.Publish(context.Background(), NewEntry("batch", "", time.Now(), nil)); err == nil {
		t.Error("expected error with Redis unavailable")
	}
}
