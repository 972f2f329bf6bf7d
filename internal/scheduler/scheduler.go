// Package scheduler runs the background promotion of scheduled tasks.
package scheduler

import (
	"context"
	"log"
	"time"
)

// Promotable is implemented by repo.Repository.
type Promotable interface {
	PromoteScheduled(ctx context.Context) (int, error)
}

// Promoter moves scheduled tasks due today into next actions on a fixed
// interval for as long as its context lives.
type Promoter struct {
	target   Promotable
	interval time.Duration
}

func NewPromoter(target Promotable, interval time.Duration) *Promoter {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Promoter{target: target, interval: interval}
}

// Run promotes once immediately, then every interval until ctx is done.
// Failures are logged and retried on the next tick.
func (p *Promoter) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.RunOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.RunOnce(ctx)
		}
	}
}

// RunOnce performs a single promotion pass and returns how many tasks moved.
func (p *Promoter) RunOnce(ctx context.Context) int {
	n, err := p.target.PromoteScheduled(ctx)
	if err != nil {
		if ctx.Err() == nil {
			log.Printf("scheduler: promotion failed: %v", err)
		}
		return 0
	}
	if n > 0 {
		log.Printf("scheduler: promoted %d scheduled task(s) to next", n)
	}
	return n
}
