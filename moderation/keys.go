package moderation

import (
	"sync"

	"moderation-bot/model"
)

// sanctionKey identifies one sanction of one kind for one user in one guild.
// It keys both the per-key mutex set and the scheduler's timer set.
type sanctionKey struct {
	Kind    model.SanctionKind
	GuildID string
	UserID  string
}

// keyLocks serializes all mutating operations (issue, renew, lift) for a
// given sanction key. A race between a command renewing a temporary mute and
// the scheduler firing expiry for the old one must not lift the renewed mute;
// the re-check at fire time is only sound if reads and writes for a key are
// serialized, which these mutexes guarantee.
type keyLocks struct {
	mu    sync.Mutex
	locks map[sanctionKey]*sync.Mutex
}

func newKeyLocks() *keyLocks {
	return &keyLocks{locks: make(map[sanctionKey]*sync.Mutex)}
}

// lock acquires the mutex for key and returns its unlock function. Mutexes
// are created on demand and kept for the process lifetime; the map is bounded
// by the number of distinct (kind, guild, user) pairs ever sanctioned.
func (k *keyLocks) lock(key sanctionKey) func() {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	k.mu.Unlock()

	m.Lock()
	return m.Unlock
}
