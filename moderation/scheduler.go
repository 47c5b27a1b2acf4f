package moderation

import (
	"errors"
	"log"
	"sync"
	"time"

	"moderation-bot/model"
	moddb "moderation-bot/utils/database/moderation"
)

// Scheduler fires lift actions when temporary sanctions expire. The timer set
// is process-local and reconstructed from the store at startup; the store
// stays the single source of truth, so every fire re-reads the row before
// acting. At most one timer is armed per key at any instant.
type Scheduler struct {
	svc *Service

	mu     sync.Mutex
	timers map[sanctionKey]*time.Timer
	closed bool
}

func newScheduler(svc *Service) *Scheduler {
	return &Scheduler{
		svc:    svc,
		timers: make(map[sanctionKey]*time.Timer),
	}
}

// Start loads every active row carrying an expiry and arms a timer for it.
// Rows already overdue fire near-immediately.
func (s *Scheduler) Start() error {
	for _, kind := range []model.SanctionKind{model.SanctionMute, model.SanctionBan, model.SanctionTracking} {
		rows, err := moddb.GetScheduledSanctions(s.svc.db, kind)
		if err != nil {
			return err
		}
		for _, row := range rows {
			key := sanctionKey{Kind: kind, GuildID: row.GuildID, UserID: row.UserID}
			s.Arm(key, *row.ExpiresAt)
		}
		if len(rows) > 0 {
			log.Printf("Armed %d %s expiry timer(s) from the store", len(rows), kind)
		}
	}
	return nil
}

// Stop cancels every armed timer. Fires already in flight become no-ops
// through the store re-check.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for key, timer := range s.timers {
		timer.Stop()
		delete(s.timers, key)
	}
}

// Arm schedules a lift for key at the given time, replacing any timer already
// armed for that key.
func (s *Scheduler) Arm(key sanctionKey, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if existing, ok := s.timers[key]; ok {
		existing.Stop()
	}
	delay := time.Until(at)
	if delay < 0 {
		delay = 0
	}
	s.timers[key] = time.AfterFunc(delay, func() { s.fire(key) })
}

// Cancel drops the timer for key, if any. Called on early lifts; a fire that
// already slipped past Stop is absorbed by the store re-check.
func (s *Scheduler) Cancel(key sanctionKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if timer, ok := s.timers[key]; ok {
		timer.Stop()
		delete(s.timers, key)
	}
}

// armed reports whether a timer is currently armed for key.
func (s *Scheduler) armed(key sanctionKey) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.timers[key]
	return ok
}

// fire handles an elapsed timer. The row is re-read under the key lock: a row
// that is gone was lifted manually, a pushed-out expiry means the sanction
// was renewed and the timer re-arms. An enforcement failure is not retried
// here; the row stays in the store and the reconciliation sweep retries it
// with backoff, which keeps a rate-limited gateway from being hammered.
func (s *Scheduler) fire(key sanctionKey) {
	s.Cancel(key)

	lifted, current, err := s.svc.liftExpired(key, time.Now())
	if err != nil {
		var enfErr *EnforcementError
		if errors.As(err, &enfErr) {
			log.Printf("Expiry lift of %s for user %s in guild %s failed, leaving row for sweep: %v",
				key.Kind, key.UserID, key.GuildID, err)
		} else {
			log.Printf("Expiry lift of %s for user %s in guild %s failed: %v",
				key.Kind, key.UserID, key.GuildID, err)
		}
		return
	}
	if current != nil {
		// Renewed while the timer was in flight.
		s.Arm(key, *current)
		return
	}
	if lifted {
		log.Printf("Lifted expired %s for user %s in guild %s", key.Kind, key.UserID, key.GuildID)
	}
}
