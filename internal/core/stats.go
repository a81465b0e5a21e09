package core

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

// Stats tracks process-wide runtime counters. All fields are safe for
// concurrent use; increment them directly.
type Stats struct {
	ConnectionsOpened atomic.Int64
	ConnectionsClosed atomic.Int64
	FramesIn          atomic.Int64
	FramesOut         atomic.Int64
	RoomsCreated      atomic.Int64
	RoomsDeleted      atomic.Int64
	RoundsCompleted   atomic.Int64
}

// NewStats returns zeroed counters.
func NewStats() *Stats {
	return &Stats{}
}

// StatsSnapshot is a point-in-time copy of the counters, shaped for JSON.
type StatsSnapshot struct {
	ConnectionsOpened int64 `json:"connections_opened"`
	ConnectionsClosed int64 `json:"connections_closed"`
	FramesIn          int64 `json:"frames_in"`
	FramesOut         int64 `json:"frames_out"`
	RoomsCreated      int64 `json:"rooms_created"`
	RoomsDeleted      int64 `json:"rooms_deleted"`
	RoundsCompleted   int64 `json:"rounds_completed"`
}

// Snapshot copies the current counter values.
func (s *Stats) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		ConnectionsOpened: s.ConnectionsOpened.Load(),
		ConnectionsClosed: s.ConnectionsClosed.Load(),
		FramesIn:          s.FramesIn.Load(),
		FramesOut:         s.FramesOut.Load(),
		RoomsCreated:      s.RoomsCreated.Load(),
		RoomsDeleted:      s.RoomsDeleted.Load(),
		RoundsCompleted:   s.RoundsCompleted.Load(),
	}
}

// Run logs a counter summary every interval until ctx is canceled. An
// interval of zero or less disables reporting. Quiet processes (no traffic
// yet) are skipped to keep idle logs clean.
func (s *Stats) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			snap := s.Snapshot()
			if snap.ConnectionsOpened == 0 && snap.RoomsCreated == 0 {
				continue
			}
			slog.Info("runtime stats",
				"connections_open", snap.ConnectionsOpened-snap.ConnectionsClosed,
				"frames_in", snap.FramesIn,
				"frames_out", snap.FramesOut,
				"rooms_active", snap.RoomsCreated-snap.RoomsDeleted,
				"rounds_completed", snap.RoundsCompleted)
		}
	}
}
