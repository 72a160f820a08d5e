package reconciler

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/expense-ledger/backend/internal/application/adapter"
	"github.com/expense-ledger/backend/internal/domain/valueobject"
)

// WritebackConfig holds configuration for the write-back dispatcher.
type WritebackConfig struct {
	Concurrency int
	Timeout     time.Duration
}

// DefaultWritebackConfig returns the default dispatcher configuration.
func DefaultWritebackConfig() WritebackConfig {
	return WritebackConfig{
		Concurrency: 4,
		Timeout:     10 * time.Second,
	}
}

// WritebackDispatcher persists corrections in the background.
// Dispatch never blocks on the store; a failed write is dispatched again when
// the next reconciliation pass re-derives it. RetryPending tells the snapshot
// source to run that pass even though the store did not change.
type WritebackDispatcher struct {
	writer  adapter.CorrectionWriter
	sem     chan struct{}
	timeout time.Duration

	mu       sync.Mutex
	inflight map[string]struct{}
	attempts map[string]int // failed keys and how often they failed

	applied atomic.Int64
	failed  atomic.Int64
	wg      sync.WaitGroup
}

// NewWritebackDispatcher creates a new dispatcher. Zero fields take their
// default values.
func NewWritebackDispatcher(writer adapter.CorrectionWriter, config WritebackConfig) *WritebackDispatcher {
	defaults := DefaultWritebackConfig()
	if config.Concurrency < 1 {
		config.Concurrency = defaults.Concurrency
	}
	if config.Timeout <= 0 {
		config.Timeout = defaults.Timeout
	}
	return &WritebackDispatcher{
		writer:   writer,
		sem:      make(chan struct{}, config.Concurrency),
		timeout:  config.Timeout,
		inflight: make(map[string]struct{}),
		attempts: make(map[string]int),
	}
}

// Dispatch starts one background write per correction and returns the number
// started. Corrections identical to one still in flight are skipped.
// corrections is the full set derived by a pass: failed writes it no longer
// contains are dropped from the retry set.
func (d *WritebackDispatcher) Dispatch(corrections []valueobject.Correction) int {
	d.forgetStale(corrections)

	started := 0
	for _, c := range corrections {
		key := c.Key()

		d.mu.Lock()
		if _, busy := d.inflight[key]; busy {
			d.mu.Unlock()
			continue
		}
		d.inflight[key] = struct{}{}
		retry := d.attempts[key]
		d.mu.Unlock()

		if retry > 0 {
			slog.Info("Retrying category write-back",
				"expense_id", c.ExpenseID,
				"category", c.To,
				"previous_failures", retry,
			)
		}

		started++
		d.wg.Add(1)
		go d.write(c, key)
	}
	return started
}

func (d *WritebackDispatcher) write(c valueobject.Correction, key string) {
	defer d.wg.Done()

	d.sem <- struct{}{}
	defer func() { <-d.sem }()

	ctx := context.Background()
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	err := d.writer.ApplyCorrection(ctx, c)

	d.mu.Lock()
	delete(d.inflight, key)
	if err != nil {
		d.attempts[key]++
	} else {
		delete(d.attempts, key)
	}
	d.mu.Unlock()

	if err != nil {
		d.failed.Add(1)
		slog.Error("Category write-back failed, will retry on next reconciliation",
			"expense_id", c.ExpenseID,
			"from", c.From,
			"to", c.To,
			"error", err,
		)
		return
	}

	d.applied.Add(1)
	slog.Info("Category correction written back",
		"expense_id", c.ExpenseID,
		"from", c.From,
		"to", c.To,
		"reasons", c.Reasons,
	)
}

func (d *WritebackDispatcher) forgetStale(corrections []valueobject.Correction) {
	wanted := make(map[string]struct{}, len(corrections))
	for _, c := range corrections {
		wanted[c.Key()] = struct{}{}
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	for key := range d.attempts {
		if _, ok := wanted[key]; !ok {
			delete(d.attempts, key)
		}
	}
}

// RetryPending reports whether a failed write is waiting for the next pass.
func (d *WritebackDispatcher) RetryPending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	for key := range d.attempts {
		if _, busy := d.inflight[key]; !busy {
			return true
		}
	}
	return false
}

// Pending returns the number of writes in flight.
func (d *WritebackDispatcher) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.inflight)
}

// Applied returns the number of successful writes so far.
func (d *WritebackDispatcher) Applied() int64 {
	return d.applied.Load()
}

// Failed returns the number of failed writes so far.
func (d *WritebackDispatcher) Failed() int64 {
	return d.failed.Load()
}

// Wait blocks until every dispatched write has finished.
func (d *WritebackDispatcher) Wait() {
	d.wg.Wait()
}
