package service

import (
	"context"
	"log"
	"time"

	"lab-maintenance-backend/internal/repository"
)

// Purger is a revocation store that must be swept for expired entries
type Purger interface {
	Purge() int
}

// WorkerService runs periodic maintenance of session state
type WorkerService struct {
	userRepo *repository.UserRepository
	purger   Purger
	interval time.Duration
	now      func() time.Time
}

// NewWorkerService creates the worker; purger may be nil when revocations
// live in a store that expires them itself
func NewWorkerService(userRepo *repository.UserRepository, purger Purger, interval time.Duration) *WorkerService {
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	return &WorkerService{
		userRepo: userRepo,
		purger:   purger,
		interval: interval,
		now:      time.Now,
	}
}

// Start blocks, sweeping expired sessions every interval until ctx is cancelled
func (w *WorkerService) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	log.Printf("Session maintenance worker started - sweeping every %s", w.interval)

	w.sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			log.Println("Session maintenance worker stopped")
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *WorkerService) sweep(ctx context.Context) {
	removed, err := w.userRepo.DeleteStaleRefreshTokens(ctx, w.now())
	if err != nil {
		if ctx.Err() == nil {
			log.Printf("Error purging refresh tokens: %v", err)
		}
		return
	}
	if removed > 0 {
		log.Printf("Purged %d expired or revoked refresh tokens", removed)
	}

	if w.purger != nil {
		if n := w.purger.Purge(); n > 0 {
			log.Printf("Purged %d lapsed session revocations", n)
		}
	}
}
