// Package worker runs the deadline sweeper. The engine itself never acts on
// deadlines; this is the external scheduler that ends bidding once an
// auction's deadline has elapsed.
package worker

import (
	"context"
	"log"
	"time"

	"github.com/starboard-ventures/BDX-auction/internal/services"
)

type Worker struct {
	Auctions *services.AuctionService
	Interval time.Duration
}

func (w *Worker) Run(ctx context.Context) {
	interval := w.Interval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		w.SweepOnce(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (w *Worker) SweepOnce(ctx context.Context) {
	if closed := w.Auctions.CloseExpired(ctx, time.Now().UTC()); closed > 0 {
		log.Printf("deadline sweep closed %d auction(s)", closed)
	}
}
