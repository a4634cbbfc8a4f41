package cache

import (
	"context"
	"sync"
	"time"
)

// Janitor periodically purges expired entries from a cache.
type Janitor struct {
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Cleaner is implemented by caches that can drop expired entries.
type Cleaner interface {
	CleanupExpired() int
}

// StartJanitor launches a background cleanup loop. Call Stop to end it.
func StartJanitor(c Cleaner, interval time.Duration) *Janitor {
	if interval <= 0 {
		interval = time.Minute
	}
	ctx, cancel := context.WithCancel(context.Background())
	j := &Janitor{cancel: cancel}

	j.wg.Add(1)
	go func() {
		defer j.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.CleanupExpired()
			}
		}
	}()
	return j
}

// Stop ends the cleanup loop and waits for it to exit.
func (j *Janitor) Stop() {
	j.cancel()
	j.wg.Wait()
}
