package core

import (
	"time"

	"github.com/google/uuid"
)

// scheduleRoundDeadline arms a one-shot timer for the round that just got
// its word. The timer carries the drawer and word it was armed for, so a
// round that ends early (everyone guessed, manual end, drawer left) leaves
// a stale timer that endRoundIfCurrent discards on wake.
func (g *Game) scheduleRoundDeadline(code string, drawer uuid.UUID, word string, d time.Duration) {
	go func() {
		time.Sleep(d)
		g.endRoundIfCurrent(code, drawer, word)
	}()
}
