package streak

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Locker serializes streak evaluations per user. The lock is an
// optimization that keeps concurrent triggers from burning CAS retries;
// correctness does not depend on it, the version check in StateStore.Save
// is the authority. Acquire therefore never fails the evaluation: when the
// lock cannot be taken the caller proceeds and lets the CAS decide.
type Locker interface {
	Acquire(ctx context.Context, userID uint) (release func(), ok bool)
}

const lockTTL = 5 * time.Second

// RedisLocker takes a per-user SETNX lock in Redis so instances of the
// app contend before hitting the database. When Redis is unreachable it
// degrades to an in-process mutex table, which still serializes triggers
// within one instance.
type RedisLocker struct {
	rc       *redis.Client
	fallback MutexLocker
}

func NewRedisLocker(rc *redis.Client) *RedisLocker {
	return &RedisLocker{rc: rc}
}

func (l *RedisLocker) Acquire(ctx context.Context, userID uint) (func(), bool) {
	if l.rc == nil {
		return l.fallback.Acquire(ctx, userID)
	}

	key := fmt.Sprintf("streak:lock:%d", userID)
	token := uuid.NewString()
	ok, err := l.rc.SetNX(ctx, key, token, lockTTL).Result()
	if err != nil {
		return l.fallback.Acquire(ctx, userID)
	}
	if !ok {
		return func() {}, false
	}
	release := func() {
		// Delete only our own token in case the TTL already expired and
		// another holder took the lock.
		script := `if redis.call('GET', KEYS[1]) == ARGV[1] then return redis.call('DEL', KEYS[1]) end return 0`
		rctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = l.rc.Eval(rctx, script, []string{key}, token).Err()
	}
	return release, true
}

// MutexLocker is the in-process lock table used by tests and as the Redis
// fallback. The zero value is ready to use.
type MutexLocker struct {
	mu    sync.Mutex
	users map[uint]*sync.Mutex
}

func (l *MutexLocker) Acquire(_ context.Context, userID uint) (func(), bool) {
	l.mu.Lock()
	if l.users == nil {
		l.users = map[uint]*sync.Mutex{}
	}
	um, exists := l.users[userID]
	if !exists {
		um = &sync.Mutex{}
		l.users[userID] = um
	}
	l.mu.Unlock()

	um.Lock()
	return um.Unlock, true
}
