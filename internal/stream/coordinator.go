// Package stream drives the live activity feed: a timer loop generates
// small transaction batches against a per-session customer pool, runs
// pattern detection over each batch, and publishes capped rolling
// history to subscribers and optional sinks.
package stream

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/bankpulse/bankpulse/internal/compliance"
	"github.com/bankpulse/bankpulse/internal/generator"
	"github.com/bankpulse/bankpulse/internal/randutil"
	"github.com/bankpulse/bankpulse/pkg/models"
)

const (
	defaultMinInterval     = 3 * time.Second
	defaultMaxInterval     = 8 * time.Second
	defaultMaxTransactions = 100
	defaultMaxAlerts       = 50
	defaultPoolSize        = 50
	batchMin               = 1
	batchMax               = 3
)

// Config holds streaming coordinator configuration
type Config struct {
	MinInterval     time.Duration `yaml:"min_interval"`
	MaxInterval     time.Duration `yaml:"max_interval"`
	MaxTransactions int           `yaml:"max_transactions"`
	MaxAlerts       int           `yaml:"max_alerts"`
	PoolSize        int           `yaml:"pool_size"`
}

func (c *Config) withDefaults() Config {
	out := Config{}
	if c != nil {
		out = *c
	}
	if out.MinInterval <= 0 {
		out.MinInterval = defaultMinInterval
	}
	if out.MaxInterval < out.MinInterval {
		out.MaxInterval = defaultMaxInterval
	}
	if out.MaxInterval < out.MinInterval {
		out.MaxInterval = out.MinInterval
	}
	if out.MaxTransactions <= 0 {
		out.MaxTransactions = defaultMaxTransactions
	}
	if out.MaxAlerts <= 0 {
		out.MaxAlerts = defaultMaxAlerts
	}
	if out.PoolSize <= 0 {
		out.PoolSize = defaultPoolSize
	}
	return out
}

// Snapshot is an immutable view of the feed published on every tick
// and returned by Snapshot(). Slices are copies; holders may retain
// them freely.
type Snapshot struct {
	Transactions []models.Transaction     `json:"transactions"`
	Alerts       []models.ComplianceAlert `json:"alerts"`
	Metrics      models.StreamMetrics     `json:"metrics"`
	Timestamp    time.Time                `json:"timestamp"`
}

// Sink receives every published snapshot. Sinks are best-effort:
// errors are logged and never interrupt the stream.
type Sink interface {
	Publish(ctx context.Context, snap Snapshot) error
}

// Coordinator owns the streaming loop and its rolling state
type Coordinator struct {
	config   Config
	gen      *generator.Generator
	detector *compliance.Detector
	rng      *randutil.Source
	sinks    []Sink

	mu          sync.Mutex
	subscribers map[int]func(Snapshot)
	nextSubID   int
	running     bool
	explicit    bool
	stopCh      chan struct{}
	doneCh      chan struct{}

	transactions []models.Transaction
	alerts       []models.ComplianceAlert
	metrics      models.StreamMetrics
}

// NewCoordinator creates a streaming coordinator. Sinks are optional.
func NewCoordinator(cfg *Config, gen *generator.Generator, detector *compliance.Detector, rng *randutil.Source, sinks ...Sink) *Coordinator {
	return &Coordinator{
		config:      cfg.withDefaults(),
		gen:         gen,
		detector:    detector,
		rng:         rng,
		sinks:       sinks,
		subscribers: make(map[int]func(Snapshot)),
	}
}

// Start begins the streaming loop. Safe to call repeatedly; a running
// coordinator is left alone. A stream started explicitly keeps running
// until Stop, regardless of subscribers.
func (c *Coordinator) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.explicit = true
	c.startLocked()
}

func (c *Coordinator) startLocked() {
	if c.running {
		return
	}
	c.running = true
	c.stopCh = make(chan struct{})
	c.doneCh = make(chan struct{})
	go c.run(c.stopCh, c.doneCh)
}

// Stop halts the streaming loop and waits for the worker to exit.
// Idempotent; stopping an idle coordinator is a no-op.
func (c *Coordinator) Stop() {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	c.running = false
	c.explicit = false
	close(c.stopCh)
	done := c.doneCh
	c.mu.Unlock()

	<-done
}

// Running reports whether the loop is active
func (c *Coordinator) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// Subscribe registers a callback invoked with every published
// snapshot. The first subscriber starts the loop; the returned
// unsubscribe func is idempotent and, when the last subscriber leaves
// a stream that was not started explicitly, stops the loop.
func (c *Coordinator) Subscribe(fn func(Snapshot)) func() {
	c.mu.Lock()
	id := c.nextSubID
	c.nextSubID++
	c.subscribers[id] = fn
	c.startLocked()
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.subscribers, id)
			stop := len(c.subscribers) == 0 && !c.explicit && c.running
			c.mu.Unlock()
			if stop {
				c.Stop()
			}
		})
	}
}

// Snapshot returns a copy of the current rolling state
func (c *Coordinator) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Coordinator) snapshotLocked() Snapshot {
	snap := Snapshot{
		Transactions: make([]models.Transaction, len(c.transactions)),
		Alerts:       make([]models.ComplianceAlert, len(c.alerts)),
		Metrics:      c.metrics,
		Timestamp:    time.Now(),
	}
	copy(snap.Transactions, c.transactions)
	copy(snap.Alerts, c.alerts)
	return snap
}

func (c *Coordinator) run(stopCh, doneCh chan struct{}) {
	defer close(doneCh)

	// Fresh pool per streaming session
	customers := c.gen.GenerateCustomers(c.config.PoolSize)
	accounts := c.gen.GenerateAccounts(customers)

	timer := time.NewTimer(c.interval())
	defer timer.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-timer.C:
			c.tick(customers, accounts)
			timer.Reset(c.interval())
		}
	}
}

func (c *Coordinator) interval() time.Duration {
	return c.rng.DurationBetween(c.config.MinInterval, c.config.MaxInterval)
}

func (c *Coordinator) tick(customers []models.Customer, accounts []models.Account) {
	n := c.rng.IntBetween(batchMin, batchMax)
	batch := c.gen.GenerateTransactions(n, customers, accounts)
	alerts := c.detector.Detect(batch, customers)

	c.mu.Lock()
	c.transactions = prepend(batch, c.transactions, c.config.MaxTransactions)
	c.alerts = prepend(alerts, c.alerts, c.config.MaxAlerts)
	c.updateMetricsLocked(batch, alerts)

	snap := c.snapshotLocked()
	subs := make([]func(Snapshot), 0, len(c.subscribers))
	for _, fn := range c.subscribers {
		subs = append(subs, fn)
	}
	c.mu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
	for _, sink := range c.sinks {
		if err := sink.Publish(context.Background(), snap); err != nil {
			log.Printf("stream: sink publish failed: %v", err)
		}
	}
}

// updateMetricsLocked accumulates volume and counts over the session;
// the average risk score reflects only the latest batch.
func (c *Coordinator) updateMetricsLocked(batch []models.Transaction, alerts []models.ComplianceAlert) {
	for _, txn := range batch {
		c.metrics.TotalVolume = c.metrics.TotalVolume.Add(txn.Amount)
	}
	c.metrics.TransactionCount += len(batch)
	c.metrics.AlertCount += len(alerts)

	if len(batch) > 0 {
		sum := 0
		for _, txn := range batch {
			sum += txn.RiskScore
		}
		c.metrics.AvgRiskScore = float64(sum) / float64(len(batch))
	}
}

// prepend puts the newest items first and trims the history to max
func prepend[T any](newest, history []T, max int) []T {
	out := make([]T, 0, len(newest)+len(history))
	out = append(out, newest...)
	out = append(out, history...)
	if len(out) > max {
		out = out[:max]
	}
	return out
}
