package utils

import (
	"sync"
	"time"
)

var (
	sanctionLocks = make(map[string]time.Time)
	sanctionMutex = &sync.Mutex{}
)

const sanctionLockDuration = 10 * time.Second

// CheckAndSetSanctionLock guards against double-submitted moderation commands
// for the same user. If the user was not sanctioned within the lock window it
// sets a new lock and returns true; otherwise it returns false.
func CheckAndSetSanctionLock(userID string) bool {
	sanctionMutex.Lock()
	defer sanctionMutex.Unlock()

	if lastTime, ok := sanctionLocks[userID]; ok {
		if time.Since(lastTime) < sanctionLockDuration {
			return false // Locked
		}
	}

	sanctionLocks[userID] = time.Now()
	return true // Not locked, new lock set
}
