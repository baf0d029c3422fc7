package redis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"oeecore/pkg/logger"

	"github.com/go-redis/redis/v8"
)

const (
	// lockTTL lock expiry; a crashed holder frees the lock after this
	lockTTL = 30 * time.Second
	// lockExtendInterval how often the holder renews the lock
	lockExtendInterval = 10 * time.Second
	// maxLockHoldDuration renewal stops after this, letting the lock expire
	maxLockHoldDuration = 10 * time.Minute
)

// DistributedLock coordinates aggregation jobs across instances so each
// rollup window is computed by exactly one instance. With a nil client it
// degrades to single-instance mode and always grants the lock.
type DistributedLock struct {
	client    *redis.Client
	key       string
	value     string
	mu        sync.Mutex
	held      bool
	stopRenew chan struct{}
}

// NewDistributedLock creates a lock for one job name.
func NewDistributedLock(client *redis.Client, jobName string) *DistributedLock {
	return &DistributedLock{
		client: client,
		key:    fmt.Sprintf("oee:job:lock:%s", jobName),
		value:  fmt.Sprintf("%d-%d", time.Now().UnixNano(), randomInt()),
	}
}

// TryLock attempts to acquire the lock without blocking. Returns true when
// this instance now holds the lock.
func (l *DistributedLock) TryLock(ctx context.Context) (bool, error) {
	if l.client == nil {
		// single-instance mode
		return true, nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held {
		return true, nil
	}

	ok, err := l.client.SetNX(ctx, l.key, l.value, lockTTL).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire lock %s: %w", l.key, err)
	}
	if !ok {
		return false, nil
	}

	l.held = true
	l.stopRenew = make(chan struct{})
	go l.renewLoop(l.stopRenew)
	return true, nil
}

// Unlock releases the lock if this instance still holds it. Release compares
// the stored value so an expired-and-reacquired lock is never deleted from
// under the new holder.
func (l *DistributedLock) Unlock(ctx context.Context) error {
	if l.client == nil {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.held {
		return nil
	}

	close(l.stopRenew)
	l.held = false

	script := redis.NewScript(`
		if redis.call("get", KEYS[1]) == ARGV[1] then
			return redis.call("del", KEYS[1])
		end
		return 0
	`)
	if err := script.Run(ctx, l.client, []string{l.key}, l.value).Err(); err != nil {
		return fmt.Errorf("failed to release lock %s: %w", l.key, err)
	}
	return nil
}

// renewLoop extends the lock TTL while the job runs. Renewal stops after
// maxLockHoldDuration so a stuck job cannot hold the lock forever.
func (l *DistributedLock) renewLoop(stop chan struct{}) {
	ticker := time.NewTicker(lockExtendInterval)
	defer ticker.Stop()
	deadline := time.Now().Add(maxLockHoldDuration)

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if time.Now().After(deadline) {
				logger.Warnf("lock %s held past %v, stopping renewal", l.key, maxLockHoldDuration)
				return
			}
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			script := redis.NewScript(`
				if redis.call("get", KEYS[1]) == ARGV[1] then
					return redis.call("pexpire", KEYS[1], ARGV[2])
				end
				return 0
			`)
			err := script.Run(ctx, l.client, []string{l.key}, l.value, lockTTL.Milliseconds()).Err()
			cancel()
			if err != nil {
				logger.Warnf("failed to renew lock %s: %v", l.key, err)
			}
		}
	}
}

func randomInt() int64 {
	return time.Now().UnixNano() % 1000000
}
