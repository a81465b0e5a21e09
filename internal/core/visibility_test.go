package core

import (
	"testing"

	"github.com/google/uuid"

	"github.com/Stunned1/Skribbl-Clone/internal/protocol"
)

func roundRoom(drawer, winner, guesser protocol.Player) protocol.Room {
	word := "giraffe"
	id := drawer.ID
	return protocol.Room{
		Code:          "ABC123",
		HostID:        drawer.ID,
		CurrentDrawer: &id,
		Word:          &word,
		GameState:     protocol.GamePlaying,
		Players: map[uuid.UUID]protocol.Player{
			drawer.ID:  drawer,
			winner.ID:  winner,
			guesser.ID: guesser,
		},
		Winners: []uuid.UUID{winner.ID},
		ChatMessages: []protocol.ChatMessage{
			{PlayerID: guesser.ID, Message: "is it a horse", IsWinnersOnly: false},
			{PlayerID: winner.ID, Message: "nice neck", IsWinnersOnly: true},
		},
	}
}

func TestIsWinner(t *testing.T) {
	drawer := memberAt("drawer", 0)
	winner := memberAt("winner", 1)
	guesser := memberAt("guesser", 2)
	room := roundRoom(drawer, winner, guesser)

	if !IsWinner(&room, drawer.ID) {
		t.Error("drawer not a winner")
	}
	if !IsWinner(&room, winner.ID) {
		t.Error("guessed player not a winner")
	}
	if IsWinner(&room, guesser.ID) {
		t.Error("guesser counted as winner")
	}
	if IsWinner(&room, uuid.New()) {
		t.Error("stranger counted as winner")
	}
}

func TestFilterRoomForWinner(t *testing.T) {
	drawer := memberAt("drawer", 0)
	winner := memberAt("winner", 1)
	guesser := memberAt("guesser", 2)
	room := roundRoom(drawer, winner, guesser)

	view := FilterRoomFor(&room, winner.ID)
	if view.Word == nil || *view.Word != "giraffe" {
		t.Error("winner lost the word")
	}
	if len(view.ChatMessages) != 2 {
		t.Errorf("winner chat lines = %d, want 2", len(view.ChatMessages))
	}
}

func TestFilterRoomForGuesser(t *testing.T) {
	drawer := memberAt("drawer", 0)
	winner := memberAt("winner", 1)
	guesser := memberAt("guesser", 2)
	room := roundRoom(drawer, winner, guesser)

	view := FilterRoomFor(&room, guesser.ID)
	if view.Word != nil {
		t.Errorf("guesser view leaked the word %q", *view.Word)
	}
	if len(view.ChatMessages) != 1 || view.ChatMessages[0].IsWinnersOnly {
		t.Errorf("guesser chat = %+v, want only the public line", view.ChatMessages)
	}
	// Scores and membership stay visible.
	if len(view.Players) != 3 {
		t.Errorf("guesser view players = %d, want 3", len(view.Players))
	}
}

func TestFilterRoomForIsDetached(t *testing.T) {
	drawer := memberAt("drawer", 0)
	winner := memberAt("winner", 1)
	guesser := memberAt("guesser", 2)
	room := roundRoom(drawer, winner, guesser)

	view := FilterRoomFor(&room, guesser.ID)
	view.Players[drawer.ID] = protocol.Player{Username: "mangled"}

	if room.Players[drawer.ID].Username != "drawer" {
		t.Error("filtered view shares state with the source room")
	}
	if room.Word == nil {
		t.Error("filtering mutated the source room")
	}
}
