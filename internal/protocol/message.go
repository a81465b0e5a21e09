package protocol

import (
	"encoding/json"
	"fmt"
)

// Frame type discriminators. The wire format is JSON with a "type" tag
// selecting the variant; several drawing frames travel both directions
// under the same name.
const (
	// Client to server.
	TypeJoinRoom       = "JoinRoom"
	TypeLeaveRoom      = "LeaveRoom"
	TypeChat           = "Chat"
	TypeWinnersChat    = "WinnersChat"
	TypeGuess          = "Guess"
	TypeStartGame      = "StartGame"
	TypeEndRound       = "EndRound"
	TypeUpdateSettings = "UpdateSettings"
	TypeKickPlayer     = "KickPlayer"

	// Both directions.
	TypeDrawUpdate   = "DrawUpdate"
	TypeDrawStroke   = "DrawStroke"
	TypeWordSelected = "WordSelected"

	// Server to client.
	TypePlayerJoined    = "PlayerJoined"
	TypePlayerLeft      = "PlayerLeft"
	TypePlayerKicked    = "PlayerKicked"
	TypeChatMessage     = "ChatMessage"
	TypeCorrectGuess    = "CorrectGuess"
	TypeRoundScores     = "RoundScores"
	TypeGameStarted     = "GameStarted"
	TypeRoundStart      = "RoundStart"
	TypeRoundEnd        = "RoundEnd"
	TypeGameEnded       = "GameEnded"
	TypeGameStateUpdate = "GameStateUpdate"
	TypeHostChanged     = "HostChanged"
	TypeError           = "Error"
)

// Inbound is a decoded client frame. The type discriminator selects which
// fields are meaningful; the rest stay at their zero values.
type Inbound struct {
	Type      string              `json:"type"`
	RoomCode  string              `json:"room_code,omitempty"`
	Username  string              `json:"username,omitempty"`
	PlayerID  string              `json:"player_id,omitempty"`
	Message   string              `json:"message,omitempty"`
	Guess     string              `json:"guess,omitempty"`
	Word      string              `json:"word,omitempty"`
	MaxRounds int                 `json:"max_rounds,omitempty"`
	Path      *FrontendDrawPath   `json:"path,omitempty"`
	Stroke    *FrontendDrawStroke `json:"stroke,omitempty"`
}

// DecodeInbound parses a single client frame.
func DecodeInbound(data []byte) (Inbound, error) {
	var in Inbound
	if err := json.Unmarshal(data, &in); err != nil {
		return Inbound{}, err
	}
	if in.Type == "" {
		return Inbound{}, fmt.Errorf("frame missing type")
	}
	return in, nil
}

// Event is a server frame ready to serialize. Outbound variants carry their
// own type tag because payload keys collide across variants ("message" is a
// string in Error but an object in ChatMessage), so a shared envelope cannot
// represent them.
type Event interface {
	EventType() string
}

// PlayerJoined announces a new room member.
type PlayerJoined struct {
	Type     string `json:"type"`
	RoomCode string `json:"room_code"`
	Player   Player `json:"player"`
}

func NewPlayerJoined(code string, p Player) PlayerJoined {
	return PlayerJoined{Type: TypePlayerJoined, RoomCode: code, Player: p}
}

func (PlayerJoined) EventType() string { return TypePlayerJoined }

// PlayerLeft announces a departure. The player record reflects the member's
// last known state.
type PlayerLeft struct {
	Type     string `json:"type"`
	RoomCode string `json:"room_code"`
	Player   Player `json:"player"`
}

func NewPlayerLeft(code string, p Player) PlayerLeft {
	return PlayerLeft{Type: TypePlayerLeft, RoomCode: code, Player: p}
}

func (PlayerLeft) EventType() string { return TypePlayerLeft }

// PlayerKicked announces a host-initiated removal.
type PlayerKicked struct {
	Type     string `json:"type"`
	RoomCode string `json:"room_code"`
	Player   Player `json:"player"`
}

func NewPlayerKicked(code string, p Player) PlayerKicked {
	return PlayerKicked{Type: TypePlayerKicked, RoomCode: code, Player: p}
}

func (PlayerKicked) EventType() string { return TypePlayerKicked }

// DrawUpdateEvent relays a normalized path to the room.
type DrawUpdateEvent struct {
	Type     string   `json:"type"`
	RoomCode string   `json:"room_code"`
	Path     DrawPath `json:"path"`
}

func NewDrawUpdate(code string, path DrawPath) DrawUpdateEvent {
	return DrawUpdateEvent{Type: TypeDrawUpdate, RoomCode: code, Path: path}
}

func (DrawUpdateEvent) EventType() string { return TypeDrawUpdate }

// DrawStrokeEvent relays a single live stroke without storing it.
type DrawStrokeEvent struct {
	Type     string     `json:"type"`
	RoomCode string     `json:"room_code"`
	Stroke   DrawStroke `json:"stroke"`
}

func NewDrawStroke(code string, stroke DrawStroke) DrawStrokeEvent {
	return DrawStrokeEvent{Type: TypeDrawStroke, RoomCode: code, Stroke: stroke}
}

func (DrawStrokeEvent) EventType() string { return TypeDrawStroke }

// ChatMessageEvent delivers one chat line.
type ChatMessageEvent struct {
	Type    string      `json:"type"`
	Message ChatMessage `json:"message"`
}

func NewChatMessage(msg ChatMessage) ChatMessageEvent {
	return ChatMessageEvent{Type: TypeChatMessage, Message: msg}
}

func (ChatMessageEvent) EventType() string { return TypeChatMessage }

// CorrectGuess announces that a player found the word.
type CorrectGuess struct {
	Type   string `json:"type"`
	Player Player `json:"player"`
	Word   string `json:"word"`
}

func NewCorrectGuess(p Player, word string) CorrectGuess {
	return CorrectGuess{Type: TypeCorrectGuess, Player: p, Word: word}
}

func (CorrectGuess) EventType() string { return TypeCorrectGuess }

// RoundScoresEvent carries the full per-round scoring breakdown.
type RoundScoresEvent struct {
	Type   string      `json:"type"`
	Scores RoundScores `json:"scores"`
}

func NewRoundScores(scores RoundScores) RoundScoresEvent {
	return RoundScoresEvent{Type: TypeRoundScores, Scores: scores}
}

func (RoundScoresEvent) EventType() string { return TypeRoundScores }

// GameStarted announces the transition out of the lobby and the first
// drawer.
type GameStarted struct {
	Type     string `json:"type"`
	RoomCode string `json:"room_code"`
	Drawer   Player `json:"drawer"`
}

func NewGameStarted(code string, drawer Player) GameStarted {
	return GameStarted{Type: TypeGameStarted, RoomCode: code, Drawer: drawer}
}

func (GameStarted) EventType() string { return TypeGameStarted }

// RoundStart announces the next drawer.
type RoundStart struct {
	Type     string `json:"type"`
	RoomCode string `json:"room_code"`
	Drawer   Player `json:"drawer"`
}

func NewRoundStart(code string, drawer Player) RoundStart {
	return RoundStart{Type: TypeRoundStart, RoomCode: code, Drawer: drawer}
}

func (RoundStart) EventType() string { return TypeRoundStart }

// RoundEnd summarizes a finished round: the revealed word and the points
// awarded this round, keyed by player id.
type RoundEnd struct {
	Type   string         `json:"type"`
	Word   string         `json:"word"`
	Scores map[string]int `json:"scores"`
}

func NewRoundEnd(word string, scores map[string]int) RoundEnd {
	return RoundEnd{Type: TypeRoundEnd, Word: word, Scores: scores}
}

func (RoundEnd) EventType() string { return TypeRoundEnd }

// GameEnded carries the cumulative final scores, keyed by player id.
type GameEnded struct {
	Type        string         `json:"type"`
	FinalScores map[string]int `json:"final_scores"`
}

func NewGameEnded(finalScores map[string]int) GameEnded {
	return GameEnded{Type: TypeGameEnded, FinalScores: finalScores}
}

func (GameEnded) EventType() string { return TypeGameEnded }

// GameStateUpdate carries a visibility-filtered room snapshot.
type GameStateUpdate struct {
	Type string `json:"type"`
	Room Room   `json:"room"`
}

func NewGameStateUpdate(room Room) GameStateUpdate {
	return GameStateUpdate{Type: TypeGameStateUpdate, Room: room}
}

func (GameStateUpdate) EventType() string { return TypeGameStateUpdate }

// HostChanged announces a host transfer.
type HostChanged struct {
	Type    string `json:"type"`
	NewHost Player `json:"new_host"`
}

func NewHostChanged(newHost Player) HostChanged {
	return HostChanged{Type: TypeHostChanged, NewHost: newHost}
}

func (HostChanged) EventType() string { return TypeHostChanged }

// WordSelectedEvent tells winners the word; non-winners receive an empty
// string.
type WordSelectedEvent struct {
	Type string `json:"type"`
	Word string `json:"word"`
}

func NewWordSelected(word string) WordSelectedEvent {
	return WordSelectedEvent{Type: TypeWordSelected, Word: word}
}

func (WordSelectedEvent) EventType() string { return TypeWordSelected }

// ErrorEvent reports a rejected frame to the offending client.
type ErrorEvent struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func NewError(message string) ErrorEvent {
	return ErrorEvent{Type: TypeError, Message: message}
}

func (ErrorEvent) EventType() string { return TypeError }
