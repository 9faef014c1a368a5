package stream

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bankpulse/bankpulse/internal/compliance"
	"github.com/bankpulse/bankpulse/internal/generator"
	"github.com/bankpulse/bankpulse/internal/randutil"
)

func testConfig() *Config {
	return &Config{
		MinInterval:     time.Millisecond,
		MaxInterval:     2 * time.Millisecond,
		MaxTransactions: 10,
		MaxAlerts:       5,
		PoolSize:        10,
	}
}

func newTestCoordinator(seed int64, sinks ...Sink) *Coordinator {
	rng := randutil.New(seed)
	return NewCoordinator(testConfig(), generator.New(rng), compliance.NewDetector(nil), rng, sinks...)
}

func TestCoordinator_SubscribeStartsAndReceives(t *testing.T) {
	c := newTestCoordinator(1)

	received := make(chan Snapshot, 64)
	unsubscribe := c.Subscribe(func(snap Snapshot) {
		select {
		case received <- snap:
		default:
		}
	})
	defer unsubscribe()

	if !c.Running() {
		t.Fatal("first subscriber should start the loop")
	}

	select {
	case snap := <-received:
		if len(snap.Transactions) == 0 {
			t.Error("published snapshot should contain transactions")
		}
		if snap.Metrics.TransactionCount == 0 {
			t.Error("metrics should track transaction count")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no snapshot published")
	}
}

func TestCoordinator_LastUnsubscribeStops(t *testing.T) {
	c := newTestCoordinator(2)

	u1 := c.Subscribe(func(Snapshot) {})
	u2 := c.Subscribe(func(Snapshot) {})

	u1()
	if !c.Running() {
		t.Fatal("loop should keep running while subscribers remain")
	}
	u2()
	if c.Running() {
		t.Fatal("last unsubscribe should stop the loop")
	}
}

func TestCoordinator_UnsubscribeIdempotent(t *testing.T) {
	c := newTestCoordinator(3)

	u1 := c.Subscribe(func(Snapshot) {})
	c.Subscribe(func(Snapshot) {})

	u1()
	u1()
	if !c.Running() {
		t.Fatal("repeated unsubscribe must not affect other subscribers")
	}
	c.Stop()
}

func TestCoordinator_NoEmissionAfterUnsubscribe(t *testing.T) {
	c := newTestCoordinator(4)

	var mu sync.Mutex
	calls := 0
	unsubscribe := c.Subscribe(func(Snapshot) {
		mu.Lock()
		calls++
		mu.Unlock()
	})

	// Keep the loop alive with a second subscriber
	u2 := c.Subscribe(func(Snapshot) {})
	defer u2()

	unsubscribe()
	// Let any in-flight tick that copied the old subscriber list drain
	time.Sleep(20 * time.Millisecond)
	mu.Lock()
	after := calls
	mu.Unlock()

	time.Sleep(50 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if calls != after {
		t.Errorf("subscriber invoked %d times after unsubscribe", calls-after)
	}
}

func TestCoordinator_HistoryCaps(t *testing.T) {
	c := newTestCoordinator(5)

	c.Start()
	defer c.Stop()

	deadline := time.After(5 * time.Second)
	for {
		snap := c.Snapshot()
		if snap.Metrics.TransactionCount > c.config.MaxTransactions {
			if len(snap.Transactions) > c.config.MaxTransactions {
				t.Fatalf("history holds %d transactions, cap is %d",
					len(snap.Transactions), c.config.MaxTransactions)
			}
			if len(snap.Alerts) > c.config.MaxAlerts {
				t.Fatalf("history holds %d alerts, cap is %d",
					len(snap.Alerts), c.config.MaxAlerts)
			}
			return
		}
		select {
		case <-deadline:
			t.Fatal("stream never exceeded the transaction cap")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestCoordinator_NewestFirst(t *testing.T) {
	c := newTestCoordinator(6)

	received := make(chan Snapshot, 64)
	unsubscribe := c.Subscribe(func(snap Snapshot) {
		select {
		case received <- snap:
		default:
		}
	})
	defer unsubscribe()

	var prevHead string
	for i := 0; i < 3; i++ {
		select {
		case snap := <-received:
			if len(snap.Transactions) == 0 {
				continue
			}
			head := snap.Transactions[0].ID
			if prevHead != "" && head == prevHead && len(snap.Transactions) > 1 {
				// Same head across ticks means the new batch was not prepended
				t.Fatalf("snapshot head %s unchanged across ticks", head)
			}
			prevHead = head
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for snapshots")
		}
	}
}

func TestCoordinator_StopIdempotent(t *testing.T) {
	c := newTestCoordinator(7)

	c.Stop() // idle stop is a no-op
	c.Start()
	c.Stop()
	c.Stop()

	if c.Running() {
		t.Fatal("coordinator should be stopped")
	}
}

func TestCoordinator_RapidStartStop(t *testing.T) {
	c := newTestCoordinator(8)

	for i := 0; i < 20; i++ {
		c.Start()
		c.Stop()
	}
	if c.Running() {
		t.Fatal("coordinator should be idle after final stop")
	}
}

func TestCoordinator_ExplicitStartSurvivesUnsubscribe(t *testing.T) {
	c := newTestCoordinator(9)

	c.Start()
	defer c.Stop()

	unsubscribe := c.Subscribe(func(Snapshot) {})
	unsubscribe()

	if !c.Running() {
		t.Fatal("explicitly started stream should survive last unsubscribe")
	}
}

func TestCoordinator_SnapshotIsCopy(t *testing.T) {
	c := newTestCoordinator(10)

	c.Start()
	defer c.Stop()

	deadline := time.After(2 * time.Second)
	for {
		snap := c.Snapshot()
		if len(snap.Transactions) > 0 {
			snap.Transactions[0].ID = "mutated"
			if c.Snapshot().Transactions[0].ID == "mutated" {
				t.Fatal("snapshot mutation leaked into coordinator state")
			}
			return
		}
		select {
		case <-deadline:
			t.Fatal("no transactions streamed")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

type failingSink struct {
	mu    sync.Mutex
	calls int
}

func (s *failingSink) Publish(_ context.Context, _ Snapshot) error {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	return errors.New("sink unavailable")
}

func (s *failingSink) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func TestCoordinator_SinkFailureNonFatal(t *testing.T) {
	sink := &failingSink{}
	c := newTestCoordinator(11, sink)

	c.Start()
	defer c.Stop()

	deadline := time.After(2 * time.Second)
	for sink.callCount() < 3 {
		select {
		case <-deadline:
			t.Fatal("stream did not keep publishing past sink failures")
		case <-time.After(5 * time.Millisecond):
		}
	}

	if !c.Running() {
		t.Fatal("sink errors must not stop the stream")
	}
}
