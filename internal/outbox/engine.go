// Package outbox queues remote-bound sync items durably and drains them to
// the CRM proxy in the background. Delivery is at-least-once with bounded
// retries: an item failing transiently is retried up to five times, then
// dropped silently. Synchronization is invisible best effort by design;
// nothing here surfaces to the caller.
package outbox

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/sirupsen/logrus"

	"github.com/thayduy/lythuyet/internal/dates"
	"github.com/thayduy/lythuyet/internal/store"
)

// SlotKey is the durable key owned by this engine.
const SlotKey = "sync_outbox"

const maxRetries = 5

// Pusher delivers one item to the remote proxy.
type Pusher interface {
	Push(ctx context.Context, item Item) error
}

// Identity supplies the remote student identity. An empty StudentID means
// no CRM session: the engine generates no traffic at all.
type Identity interface {
	StudentID() string
}

// Config tunes engine timing. The zero value selects production defaults.
type Config struct {
	FlushInterval time.Duration // periodic flush tick, default 60s
	InitialDelay  time.Duration // delay before the first flush, default 3s
}

func (c Config) withDefaults() Config {
	if c.FlushInterval == 0 {
		c.FlushInterval = 60 * time.Second
	}
	if c.InitialDelay == 0 {
		c.InitialDelay = 3 * time.Second
	}
	return c
}

// Engine owns the outbox slot and all flush triggers. All state formerly
// module-global in-flight/init flags lives on the instance, so independent
// engines can coexist and be torn down cleanly.
type Engine struct {
	slot     *store.Slot[[]Item]
	pusher   Pusher
	identity Identity
	online   func() bool
	clock    dates.Clock
	log      logrus.FieldLogger
	cfg      Config

	mu        sync.Mutex // serializes slot read-modify-write
	flushMu   sync.Mutex // held for the whole of one flush pass
	startOnce sync.Once
	sched     *gocron.Scheduler
	initTimer *time.Timer
}

// New creates an Engine. online reports current connectivity; nil means
// always online.
func New(s *store.Store, pusher Pusher, identity Identity, clock dates.Clock, log logrus.FieldLogger, cfg Config) *Engine {
	if pusher == nil {
		panic("outbox: nil pusher")
	}
	return &Engine{
		slot:     store.NewSlot[[]Item](s, SlotKey),
		pusher:   pusher,
		identity: identity,
		online:   func() bool { return true },
		clock:    clock,
		log:      log,
		cfg:      cfg.withDefaults(),
	}
}

// SetOnline overrides the connectivity check.
func (e *Engine) SetOnline(online func() bool) {
	if online != nil {
		e.online = online
	}
}

// Push queues a sync item. Without a CRM identity this is a complete
// no-op: unauthenticated local-only use generates no network traffic.
// When currently online an immediate background flush is attempted.
func (e *Engine) Push(typ ItemType, payload map[string]any) {
	studentID := e.identity.StudentID()
	if studentID == "" {
		return
	}

	merged := make(map[string]any, len(payload)+1)
	for k, v := range payload {
		merged[k] = v
	}
	merged["studentId"] = studentID

	item := newItem(typ, merged, e.clock.Now())

	e.mu.Lock()
	items, err := e.slot.Load()
	if err != nil {
		e.log.WithError(err).Warn("outbox: load failed, queueing over empty outbox")
	}
	items = append(items, item)
	if err := e.slot.Save(items); err != nil {
		e.log.WithError(err).Warn("outbox: save failed, item lost")
	}
	e.mu.Unlock()

	if e.online() {
		go e.Flush(context.Background())
	}
}

// Flush drains the outbox once. Mutually exclusive: a call arriving while
// a pass is running is a no-op, not queued. Items are attempted in
// original order; the surviving subset replaces the stored outbox only
// after the full pass, so a crash mid-flush re-sends already-delivered
// items next time (at-least-once).
func (e *Engine) Flush(ctx context.Context) {
	if !e.flushMu.TryLock() {
		return
	}
	defer e.flushMu.Unlock()

	e.mu.Lock()
	items, err := e.slot.Load()
	e.mu.Unlock()
	if err != nil {
		e.log.WithError(err).Warn("outbox: load failed, skipping flush")
		return
	}
	if len(items) == 0 {
		return
	}

	remaining := make([]Item, 0, len(items))
	for _, item := range items {
		err := e.pusher.Push(ctx, item)
		if err == nil {
			continue
		}

		if isPermanent(err) {
			e.log.WithField("id", item.ID).WithField("type", item.Type).
				WithError(err).Warn("outbox: permanent rejection, dropping item")
			continue
		}

		if item.Retries < maxRetries {
			item.Retries++
			remaining = append(remaining, item)
		} else {
			// Retry budget exhausted: accepted data loss.
			e.log.WithField("id", item.ID).WithField("type", item.Type).
				Warn("outbox: retries exhausted, dropping item")
		}
	}

	e.mu.Lock()
	if err := e.slot.Save(remaining); err != nil {
		e.log.WithError(err).Warn("outbox: save after flush failed")
	}
	e.mu.Unlock()
}

// Count returns the number of queued items.
func (e *Engine) Count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	items, _ := e.slot.Load()
	return len(items)
}

// Items returns a snapshot of the queued items in order.
func (e *Engine) Items() []Item {
	e.mu.Lock()
	defer e.mu.Unlock()
	items, _ := e.slot.Load()
	return items
}

// Start installs the flush triggers: a periodic tick and a delayed initial
// flush. Idempotent; only the first call installs anything.
func (e *Engine) Start(ctx context.Context) {
	e.startOnce.Do(func() {
		e.sched = gocron.NewScheduler(time.UTC)
		_, err := e.sched.Every(e.cfg.FlushInterval).Do(func() {
			if e.online() {
				e.Flush(ctx)
			}
		})
		if err != nil {
			e.log.WithError(err).Warn("outbox: schedule periodic flush failed")
		}
		e.sched.StartAsync()

		if e.online() {
			e.initTimer = time.AfterFunc(e.cfg.InitialDelay, func() {
				e.Flush(ctx)
			})
		}
	})
}

// Stop tears down the periodic triggers. In-flight pushes are abandoned,
// not cancelled.
func (e *Engine) Stop() {
	if e.initTimer != nil {
		e.initTimer.Stop()
	}
	if e.sched != nil {
		e.sched.Stop()
	}
}

// Online signals a connectivity transition to online and flushes.
func (e *Engine) Online(ctx context.Context) {
	e.Flush(ctx)
}

// Visible signals the app returning to the foreground; flushes when online.
func (e *Engine) Visible(ctx context.Context) {
	if e.online() {
		e.Flush(ctx)
	}
}

// StatusError is a non-2xx proxy response.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("sync push: status %d", e.Code)
}

// Temporary reports whether the status is worth retrying.
func (e *StatusError) Temporary() bool {
	return e.Code >= 500 || e.Code == 408 || e.Code == 429
}

// isPermanent classifies delivery errors. Client errors other than
// timeout/rate-limit will fail identically on every retry, so the item is
// dropped at once; everything else (5xx, transport errors) is transient.
func isPermanent(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return !se.Temporary()
	}
	return false
}
