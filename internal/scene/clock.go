package scene

import (
	"context"
	"time"
)

// Clock paces the frame loop. Wait is the scene's suspension point: it
// returns early with the context's error when ctx is done.
type Clock interface {
	Wait(ctx context.Context, d time.Duration) error
}

// RealtimeClock waits on a timer, for live targets.
type RealtimeClock struct{}

func (RealtimeClock) Wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// OfflineClock never waits, for file and video targets where frames are
// produced as fast as the renderer accepts them.
type OfflineClock struct{}

func (OfflineClock) Wait(ctx context.Context, _ time.Duration) error {
	return ctx.Err()
}
