package core

import (
	"math/rand"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Stunned1/Skribbl-Clone/internal/protocol"
)

// Room and game limits.
const (
	// DefaultMaxPlayers is the room capacity. Joins beyond this are
	// rejected with ErrRoomFull.
	DefaultMaxPlayers = 8

	// DefaultMaxRounds is the number of drawer cycles a fresh room plays
	// before finishing. Hosts can change it with UpdateSettings.
	DefaultMaxRounds = 3

	// DefaultRoundDuration is the per-round drawing time in seconds, used
	// when createRoom does not name one.
	DefaultRoundDuration = 60

	// MinRoundsSetting and MaxRoundsSetting bound UpdateSettings requests;
	// out-of-range values are clamped, not rejected.
	MinRoundsSetting = 1
	MaxRoundsSetting = 5

	// MinPlayersToStart is the minimum room size for StartGame.
	MinPlayersToStart = 2

	// MaxChatMessages is the chat ring size. Older lines are evicted.
	MaxChatMessages = 10

	// RoomCodeLength is the length of generated join codes.
	RoomCodeLength = 6
)

const roomCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// NewPlayer builds a fresh spectator record for a joining username.
func NewPlayer(username string) protocol.Player {
	return protocol.Player{
		ID:          uuid.New(),
		Username:    username,
		State:       protocol.PlayerSpectator,
		IsConnected: true,
		JoinedAt:    time.Now().UTC(),
	}
}

// NormalizeRoomCode trims and upper-cases a client-supplied room code.
func NormalizeRoomCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ValidRoomCode reports whether a normalized code has the generated shape:
// exactly RoomCodeLength upper-case letters or digits.
func ValidRoomCode(code string) bool {
	if len(code) != RoomCodeLength {
		return false
	}
	for i := 0; i < len(code); i++ {
		c := code[i]
		if (c < 'A' || c > 'Z') && (c < '0' || c > '9') {
			return false
		}
	}
	return true
}

func randomRoomCode() string {
	b := make([]byte, RoomCodeLength)
	for i := range b {
		b[i] = roomCodeAlphabet[rand.Intn(len(roomCodeAlphabet))]
	}
	return string(b)
}

// orderedPlayers returns the members sorted by join time. Ties (possible
// only if the clock stalls) fall back to id order so the rotation stays
// deterministic.
func orderedPlayers(r *protocol.Room) []protocol.Player {
	out := make([]protocol.Player, 0, len(r.Players))
	for _, p := range r.Players {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].JoinedAt.Equal(out[j].JoinedAt) {
			return out[i].JoinedAt.Before(out[j].JoinedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out
}

// appendChat pushes one line onto the room's chat ring, evicting the oldest
// lines beyond MaxChatMessages.
func appendChat(r *protocol.Room, msg protocol.ChatMessage) {
	r.ChatMessages = append(r.ChatMessages, msg)
	if len(r.ChatMessages) > MaxChatMessages {
		r.ChatMessages = r.ChatMessages[len(r.ChatMessages)-MaxChatMessages:]
	}
}

// newChatMessage builds a chat line attributed to a player.
func newChatMessage(p protocol.Player, text string, winnersOnly bool) protocol.ChatMessage {
	return protocol.ChatMessage{
		ID:            uuid.New(),
		PlayerID:      p.ID,
		Username:      p.Username,
		Message:       text,
		Timestamp:     time.Now().UTC(),
		IsWinnersOnly: winnersOnly,
	}
}

// CloneRoom returns a detached deep copy. Mutating the copy (or the
// original) never affects the other; snapshots handed to callers and
// serialized onto the wire are always clones.
func CloneRoom(r *protocol.Room) protocol.Room {
	out := *r
	out.Players = make(map[uuid.UUID]protocol.Player, len(r.Players))
	for id, p := range r.Players {
		out.Players[id] = p
	}
	if r.CurrentDrawer != nil {
		id := *r.CurrentDrawer
		out.CurrentDrawer = &id
	}
	if r.Word != nil {
		w := *r.Word
		out.Word = &w
	}
	if r.RoundStartTime != nil {
		t := *r.RoundStartTime
		out.RoundStartTime = &t
	}
	if r.RoundEndTime != nil {
		t := *r.RoundEndTime
		out.RoundEndTime = &t
	}
	out.DrawingPaths = make([]protocol.DrawPath, len(r.DrawingPaths))
	for i, path := range r.DrawingPaths {
		path.Strokes = slices.Clone(path.Strokes)
		out.DrawingPaths[i] = path
	}
	out.ChatMessages = slices.Clone(r.ChatMessages)
	out.CurrentRoundGuesses = slices.Clone(r.CurrentRoundGuesses)
	out.Winners = slices.Clone(r.Winners)
	return out
}
