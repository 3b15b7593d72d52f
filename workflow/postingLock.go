package workflow

import (
	"context"
	"time"

	"bitbucket.org/mmdatafocus/fieldsales_backend/config"
	"github.com/bsm/redislock"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("fieldsales-assignment-ledger")

// AcquirePostingLock serializes allocation posting across instances using a
// redis lock. Redis is optional: without it the lock is a no-op and the
// conditional counter UPDATEs alone guarantee the balance invariants.
func AcquirePostingLock(ctx context.Context) (*redislock.Lock, error) {
	locker := config.GetRedisLock()
	if locker == nil {
		return nil, nil
	}

	ctx, span := tracer.Start(ctx, "allocation-posting-lock")
	defer span.End()

	lock, err := locker.Obtain(ctx, "allocation-posting", 30*time.Second, &redislock.Options{
		RetryStrategy: redislock.LinearBackoff(100 * time.Millisecond),
	})
	if err != nil {
		return nil, err
	}
	return lock, nil
}

func ReleasePostingLock(lock *redislock.Lock) {
	if lock == nil {
		return
	}
	_ = lock.Release(config.GetRedisContext())
}
