package worker

import (
	"context"
	"sync"
	"time"

	"github.com/osse101/invengine/internal/logger"
)

// DroppedLister finds dropped items older than a given age.
type DroppedLister interface {
	Expired(maxAge time.Duration) []uint64
}

// DroppedExpirer removes a dropped item and its container.
type DroppedExpirer interface {
	ExpireDropped(ctx context.Context, entityID uint64) error
}

// DropDecayWorker periodically removes dropped items nobody picked up.
type DropDecayWorker struct {
	lister   DroppedLister
	expirer  DroppedExpirer
	ttl      time.Duration
	interval time.Duration
	timer    *time.Timer
	shutdown chan struct{}
	wg       sync.WaitGroup
	mu       sync.Mutex
}

// NewDropDecayWorker creates a new DropDecayWorker
func NewDropDecayWorker(lister DroppedLister, expirer DroppedExpirer, ttl, interval time.Duration) *DropDecayWorker {
	if ttl <= 0 {
		ttl = DefaultDropTTL
	}
	if interval <= 0 {
		interval = DefaultDropSweepInterval
	}
	return &DropDecayWorker{
		lister:   lister,
		expirer:  expirer,
		ttl:      ttl,
		interval: interval,
		shutdown: make(chan struct{}),
	}
}

// Start schedules the first sweep
func (w *DropDecayWorker) Start() {
	w.scheduleNext()
}

func (w *DropDecayWorker) scheduleNext() {
	w.mu.Lock()
	defer w.mu.Unlock()

	select {
	case <-w.shutdown:
		return
	default:
	}

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.interval, w.tick)
	logger.FromContext(context.Background()).Debug(LogMsgDropDecayScheduled, "interval", w.interval)
}

func (w *DropDecayWorker) tick() {
	w.mu.Lock()
	select {
	case <-w.shutdown:
		w.mu.Unlock()
		return
	default:
	}
	w.wg.Add(1)
	w.mu.Unlock()

	w.Sweep(context.Background())
	w.wg.Done()
	w.scheduleNext()
}

// Sweep expires every dropped item older than the ttl and returns how many went.
func (w *DropDecayWorker) Sweep(ctx context.Context) int {
	log := logger.FromContext(ctx)
	ids := w.lister.Expired(w.ttl)
	if len(ids) == 0 {
		return 0
	}
	log.Info(LogMsgDropDecayStarting, "candidates", len(ids))

	expired := 0
	for _, id := range ids {
		if err := w.expirer.ExpireDropped(ctx, id); err != nil {
			log.Warn(LogMsgDropDecayFailed, "entity_id", id, logger.AttrKeyError, err)
			continue
		}
		expired++
	}
	log.Info(LogMsgDropDecayCompleted, "expired", expired)
	return expired
}

// Shutdown cancels the pending sweep and waits for a running one to finish
func (w *DropDecayWorker) Shutdown(ctx context.Context) error {
	log := logger.FromContext(ctx)
	log.Info("Shutting down drop decay worker")

	w.mu.Lock()
	select {
	case <-w.shutdown:
	default:
		close(w.shutdown)
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Info("Drop decay worker shutdown complete")
		return nil
	case <-ctx.Done():
		log.Warn("Drop decay worker shutdown timeout")
		return ctx.Err()
	}
}
