package moderation

import (
	"errors"
	"log"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"moderation-bot/model"
	moddb "moderation-bot/utils/database/moderation"
)

// Sweep is the durability backstop behind the scheduler: a fixed-interval
// full scan of the active-sanction and tracked-user tables for overdue rows.
// It converges the system to "no overdue sanction remains enforced" even
// after missed timers, restarts or earlier enforcement failures, and it is
// the retry path for rows the scheduler gave up on.
type Sweep struct {
	svc      *Service
	interval time.Duration
	workers  int

	mu        sync.Mutex
	backoffs  map[sanctionKey]*backoff.ExponentialBackOff
	nextRetry map[sanctionKey]time.Time

	done chan struct{}
	wg   sync.WaitGroup
}

// NewSweep creates a sweep running every interval with at most workers
// concurrent gateway calls per pass.
func NewSweep(svc *Service, interval time.Duration, workers int) *Sweep {
	if workers < 1 {
		workers = 1
	}
	return &Sweep{
		svc:       svc,
		interval:  interval,
		workers:   workers,
		backoffs:  make(map[sanctionKey]*backoff.ExponentialBackOff),
		nextRetry: make(map[sanctionKey]time.Time),
		done:      make(chan struct{}),
	}
}

// Start launches the periodic sweep goroutine.
func (w *Sweep) Start() {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				w.RunPass(time.Now())
			case <-w.done:
				return
			}
		}
	}()
}

// Stop terminates the sweep and waits for an in-flight pass to finish.
func (w *Sweep) Stop() {
	close(w.done)
	w.wg.Wait()
}

// RunPass scans all tables once and lifts every overdue row that is not in a
// backoff window. One failing key never blocks the rest of the pass, and
// gateway concurrency is bounded by the worker limit.
func (w *Sweep) RunPass(now time.Time) {
	var overdue []sanctionKey
	for _, kind := range []model.SanctionKind{model.SanctionMute, model.SanctionBan, model.SanctionTracking} {
		rows, err := moddb.GetExpiredSanctions(w.svc.db, kind, now)
		if err != nil {
			log.Printf("Sweep failed to scan expired %s rows: %v", kind, err)
			continue
		}
		for _, row := range rows {
			overdue = append(overdue, sanctionKey{Kind: kind, GuildID: row.GuildID, UserID: row.UserID})
		}
	}
	if len(overdue) == 0 {
		return
	}

	var wg sync.WaitGroup
	guard := make(chan struct{}, w.workers)

	for _, key := range overdue {
		if !w.shouldAttempt(key, now) {
			continue
		}
		wg.Add(1)
		guard <- struct{}{} // Acquire a worker slot

		go func(key sanctionKey) {
			defer func() {
				<-guard // Release the worker slot
				wg.Done()
			}()
			w.liftOne(key, now)
		}(key)
	}

	wg.Wait()
}

func (w *Sweep) liftOne(key sanctionKey, now time.Time) {
	lifted, _, err := w.svc.liftExpired(key, now)
	if err != nil {
		var enfErr *EnforcementError
		if errors.As(err, &enfErr) {
			delay := w.recordFailure(key, now)
			log.Printf("Sweep lift of %s for user %s in guild %s failed, retrying in %s: %v",
				key.Kind, key.UserID, key.GuildID, delay.Round(time.Second), err)
		} else {
			log.Printf("Sweep lift of %s for user %s in guild %s failed: %v",
				key.Kind, key.UserID, key.GuildID, err)
		}
		return
	}
	w.clearFailure(key)
	if lifted {
		log.Printf("Sweep lifted overdue %s for user %s in guild %s", key.Kind, key.UserID, key.GuildID)
	}
}

// shouldAttempt reports whether a key is past its backoff window.
func (w *Sweep) shouldAttempt(key sanctionKey, now time.Time) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	next, ok := w.nextRetry[key]
	return !ok || !now.Before(next)
}

// recordFailure advances the key's exponential backoff and returns the delay
// until the next attempt.
func (w *Sweep) recordFailure(key sanctionKey, now time.Time) time.Duration {
	w.mu.Lock()
	defer w.mu.Unlock()
	bo, ok := w.backoffs[key]
	if !ok {
		bo = backoff.NewExponentialBackOff()
		bo.InitialInterval = w.interval
		bo.MaxInterval = 30 * time.Minute
		bo.MaxElapsedTime = 0 // retry until the row is gone
		bo.Reset()
		w.backoffs[key] = bo
	}
	delay := bo.NextBackOff()
	w.nextRetry[key] = now.Add(delay)
	return delay
}

func (w *Sweep) clearFailure(key sanctionKey) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.backoffs, key)
	delete(w.nextRetry, key)
}
