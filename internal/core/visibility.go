package core

import (
	"github.com/google/uuid"

	"github.com/Stunned1/Skribbl-Clone/internal/protocol"
)

// IsWinner reports whether a player may see the round's secrets: the current
// drawer always may, and so may everyone who already guessed the word.
func IsWinner(r *protocol.Room, playerID uuid.UUID) bool {
	if r.CurrentDrawer != nil && *r.CurrentDrawer == playerID {
		return true
	}
	for _, id := range r.Winners {
		if id == playerID {
			return true
		}
	}
	return false
}

// FilterRoomFor returns a detached snapshot shaped for one recipient.
// Winners receive the full state; everyone else gets the word blanked and
// winners-only chat lines removed. Everything else (scores, paths, guesses)
// is visible to all members.
func FilterRoomFor(r *protocol.Room, playerID uuid.UUID) protocol.Room {
	out := CloneRoom(r)
	if IsWinner(r, playerID) {
		return out
	}
	out.Word = nil
	kept := make([]protocol.ChatMessage, 0, len(out.ChatMessages))
	for _, m := range out.ChatMessages {
		if !m.IsWinnersOnly {
			kept = append(kept, m)
		}
	}
	out.ChatMessages = kept
	return out
}
