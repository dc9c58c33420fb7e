package payments

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/snipmarket/snipmarket/internal/pkg/cache"
)

const (
	sweepLockKey = "payments:pending_sweep_lock"
	// DefaultPendingTTL is how long a deposit may sit pending before the
	// sweeper closes it as failed. PSP QR codes expire well before this.
	DefaultPendingTTL = 24 * time.Hour
	// DefaultSweepInterval is how often the sweeper wakes up.
	DefaultSweepInterval = 15 * time.Minute
)

// StartPendingSweeper launches a background loop that fails deposits stuck
// in pending for longer than maxAge, so no transaction stays pending forever
// without a reconciliation path. A Redis lock keeps multiple instances from
// sweeping concurrently. The returned function stops the loop.
func (s *Service) StartPendingSweeper(interval, maxAge time.Duration) func() {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	if maxAge <= 0 {
		maxAge = DefaultPendingTTL
	}

	stop := make(chan struct{})
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				s.sweepPending(maxAge, interval)
			}
		}
	}()

	return func() { close(stop) }
}

func (s *Service) sweepPending(maxAge, lockTTL time.Duration) {
	ctx := context.Background()
	ok, err := cache.GetClient().SetNX(ctx, sweepLockKey, "1", lockTTL).Result()
	if err != nil {
		log.Warnf("pending sweep: could not acquire lock: %v", err)
		return
	}
	if !ok {
		// Another instance holds the lock.
		return
	}

	cutoff := time.Now().Add(-maxAge)
	swept, err := s.repos.Transaction.FailStalePendingDeposits(cutoff)
	if err != nil {
		log.Errorf("pending sweep failed: %v", err)
		return
	}
	if swept > 0 {
		log.Infof("pending sweep: closed %d stale deposit(s) older than %s", swept, maxAge)
	}
}
