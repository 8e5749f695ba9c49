package service

import (
	"context"
	"testing"
	"time"

	"lab-maintenance-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingPurger struct{ calls int }

func (p *countingPurger) Purge() int {
	p.calls++
	return 0
}

func TestWorkerSweepRemovesStaleRefreshTokens(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	now := time.Now()

	for _, tok := range []*models.RefreshToken{
		{UserID: 1, TokenHash: "live", ExpiresAt: now.Add(time.Hour)},
		{UserID: 1, TokenHash: "expired", ExpiresAt: now.Add(-time.Hour)},
		{UserID: 1, TokenHash: "revoked", ExpiresAt: now.Add(time.Hour), Revoked: true},
	} {
		require.NoError(t, f.userRepo.CreateRefreshToken(ctx, tok))
	}

	purger := &countingPurger{}
	w := NewWorkerService(f.userRepo, purger, time.Minute)
	w.now = func() time.Time { return now }
	w.sweep(ctx)

	var left []models.RefreshToken
	require.NoError(t, f.db.Find(&left).Error)
	require.Len(t, left, 1)
	assert.Equal(t, "live", left[0].TokenHash)
	assert.Equal(t, 1, purger.calls)
}

func TestWorkerStopsOnCancel(t *testing.T) {
	f := newFixture(t, false)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		NewWorkerService(f.userRepo, nil, time.Hour).Start(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop after cancel")
	}
}
