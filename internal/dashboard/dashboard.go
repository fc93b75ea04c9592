package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"weather-dashboard/internal/station"
)

const (
	// RefreshInterval is the fixed cadence of periodic refreshes.
	RefreshInterval = 30 * time.Second
	// UpdateDelay is the simulated fetch latency between the two refresh phases.
	UpdateDelay = 500 * time.Millisecond

	sinkTimeout = 10 * time.Second
)

var (
	ErrAlreadyStarted = errors.New("dashboard already started")
	ErrStopped        = errors.New("dashboard stopped")
)

// Generator produces snapshots.
type Generator interface {
	Generate() *station.Snapshot
}

// Sink receives every snapshot that becomes current.
type Sink interface {
	Record(ctx context.Context, snap *station.Snapshot) error
}

func sinkName(s Sink) string {
	if n, ok := s.(interface{ Name() string }); ok {
		return n.Name()
	}
	return fmt.Sprintf("%T", s)
}

// State is a consistent read of the orchestrator.
type State struct {
	Snapshot *station.Snapshot `json:"snapshot"`
	Updating bool              `json:"updating"`
}

type Config struct {
	Generator Generator
	Clock     clock.Clock
	Logger    *slog.Logger
	Sinks     []Sink
}

// Dashboard holds the current snapshot and the updating flag, and drives the
// Idle -> Updating -> Idle refresh cycle.
type Dashboard struct {
	generator Generator
	clock     clock.Clock
	logger    *slog.Logger
	sinks     []Sink

	mu       sync.RWMutex
	snapshot *station.Snapshot
	updating bool
	// epoch invalidates delayed callbacks scheduled before teardown.
	epoch   uint64
	pending *clock.Timer
	started bool
	stopped bool
	subs    map[chan State]struct{}

	cancel context.CancelFunc
	done   chan struct{}
}

// New builds a dashboard whose initial snapshot comes from one Generate call.
func New(cfg Config) *Dashboard {
	if cfg.Clock == nil {
		cfg.Clock = clock.New()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Dashboard{
		generator: cfg.Generator,
		clock:     cfg.Clock,
		logger:    cfg.Logger,
		sinks:     cfg.Sinks,
		snapshot:  cfg.Generator.Generate(),
		subs:      make(map[chan State]struct{}),
	}
}

// Start arms the periodic refresh and hands the initial snapshot to the sinks.
// Cancelling ctx has the same effect as Stop.
func (d *Dashboard) Start(ctx context.Context) error {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return ErrStopped
	}
	if d.started {
		d.mu.Unlock()
		return ErrAlreadyStarted
	}
	d.started = true

	ctx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	d.done = make(chan struct{})
	ticker := d.clock.Ticker(RefreshInterval)
	initial := d.snapshot
	d.mu.Unlock()

	d.logger.Info("dashboard started", "interval", RefreshInterval, "snapshot", initial.ID)
	d.record(initial)

	go d.run(ctx, ticker)
	return nil
}

func (d *Dashboard) run(ctx context.Context, ticker *clock.Ticker) {
	defer close(d.done)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			d.teardown()
			d.logger.Info("dashboard stopped")
			return
		case <-ticker.C:
			if !d.beginUpdate("timer") {
				d.logger.Debug("periodic refresh skipped: update in flight")
			}
		}
	}
}

// Stop cancels the periodic refresh and discards any in-flight update.
// It is safe to call more than once.
func (d *Dashboard) Stop() {
	d.mu.Lock()
	cancel, done := d.cancel, d.done
	d.mu.Unlock()

	if cancel == nil {
		d.teardown()
		return
	}
	cancel()
	<-done
}

func (d *Dashboard) teardown() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	d.stopped = true
	d.epoch++
	if d.pending != nil {
		d.pending.Stop()
		d.pending = nil
	}
	d.updating = false
	for ch := range d.subs {
		close(ch)
	}
	d.subs = nil
}

// Refresh starts a manual update. It returns false when an update is already
// in flight or the dashboard has been stopped.
func (d *Dashboard) Refresh() bool {
	return d.beginUpdate("manual")
}

// beginUpdate is the first phase shared by the timer and manual triggers.
func (d *Dashboard) beginUpdate(trigger string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped || d.updating {
		return false
	}

	epoch := d.epoch
	d.pending = d.clock.AfterFunc(UpdateDelay, func() {
		d.finishUpdate(epoch)
	})
	d.updating = true
	d.notifyLocked()

	d.logger.Debug("refresh started", "trigger", trigger, "snapshot", d.snapshot.ID)
	return true
}

// finishUpdate is the second phase: swap in a new snapshot and go idle.
func (d *Dashboard) finishUpdate(epoch uint64) {
	next := d.generator.Generate()

	d.mu.Lock()
	if epoch != d.epoch || !d.updating {
		d.mu.Unlock()
		d.logger.Debug("discarding stale refresh", "snapshot", next.ID)
		return
	}
	d.snapshot = next
	d.updating = false
	d.pending = nil
	d.notifyLocked()
	d.mu.Unlock()

	d.logger.Info("snapshot refreshed",
		"snapshot", next.ID,
		"condition", next.Current.Condition,
		"temp", next.Current.Temp,
	)
	d.record(next)
}

func (d *Dashboard) record(snap *station.Snapshot) {
	if len(d.sinks) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), sinkTimeout)
	defer cancel()

	for _, sink := range d.sinks {
		if err := sink.Record(ctx, snap); err != nil {
			d.logger.Warn("sink failed", "sink", sinkName(sink), "snapshot", snap.ID, "error", err)
		}
	}
}

// State returns the current snapshot and updating flag together.
func (d *Dashboard) State() State {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.stateLocked()
}

// Snapshot returns the current snapshot.
func (d *Dashboard) Snapshot() *station.Snapshot {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.snapshot
}

// IsUpdating reports whether a refresh is in flight.
func (d *Dashboard) IsUpdating() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.updating
}

func (d *Dashboard) stateLocked() State {
	return State{Snapshot: d.snapshot, Updating: d.updating}
}

// Subscribe returns a channel that receives the latest State after every
// transition, and a func that unsubscribes. Slow readers only see the most
// recent state. The channel is closed on Stop.
func (d *Dashboard) Subscribe() (<-chan State, func()) {
	ch := make(chan State, 1)

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		close(ch)
		return ch, func() {}
	}
	d.subs[ch] = struct{}{}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			d.mu.Lock()
			defer d.mu.Unlock()
			if _, ok := d.subs[ch]; ok {
				delete(d.subs, ch)
				close(ch)
			}
		})
	}
}

func (d *Dashboard) notifyLocked() {
	state := d.stateLocked()
	for ch := range d.subs {
		select {
		case <-ch:
		default:
		}
		ch <- state
	}
}
