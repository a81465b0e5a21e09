package protocol

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestDecodeInboundJoinRoom(t *testing.T) {
	raw := `{"type":"JoinRoom","room_code":"ABC123","username":"anna"}`

	in, err := DecodeInbound([]byte(raw))
	if err != nil {
		t.Fatalf("DecodeInbound: %v", err)
	}
	if in.Type != TypeJoinRoom {
		t.Fatalf("type = %q, want %q", in.Type, TypeJoinRoom)
	}
	if in.RoomCode != "ABC123" || in.Username != "anna" {
		t.Fatalf("unexpected fields: %+v", in)
	}
}

func TestDecodeInboundDrawUpdate(t *testing.T) {
	raw := `{
		"type": "DrawUpdate",
		"room_code": "ABC123",
		"path": {
			"id": "client-path-1",
			"strokes": [
				{"x": 0.25, "y": 0.5, "color": "#ff0000", "brush_size": 8, "alpha": 0.9, "is_eraser": false, "brush_px": 12}
			]
		}
	}`

	in, err := DecodeInbound([]byte(raw))
	if err != nil {
		t.Fatalf("DecodeInbound: %v", err)
	}
	if in.Path == nil {
		t.Fatal("path not decoded")
	}
	if len(in.Path.Strokes) != 1 {
		t.Fatalf("strokes = %d, want 1", len(in.Path.Strokes))
	}
	s := in.Path.Strokes[0]
	if s.X != 0.25 || s.Color != "#ff0000" || s.BrushPx != 12 {
		t.Fatalf("unexpected stroke: %+v", s)
	}
}

func TestDecodeInboundRejectsGarbage(t *testing.T) {
	for _, raw := range []string{``, `not json`, `{"room_code":"ABC123"}`, `42`} {
		if _, err := DecodeInbound([]byte(raw)); err == nil {
			t.Errorf("DecodeInbound(%q) accepted, want error", raw)
		}
	}
}

// Every outbound constructor must stamp the discriminator its variant is
// dispatched on client-side.
func TestEventTypeTags(t *testing.T) {
	id := uuid.New()
	events := []Event{
		NewPlayerJoined("ABC123", Player{ID: id}),
		NewPlayerLeft("ABC123", Player{ID: id}),
		NewPlayerKicked("ABC123", Player{ID: id}),
		NewDrawUpdate("ABC123", DrawPath{ID: id}),
		NewDrawStroke("ABC123", DrawStroke{X: 0.5}),
		NewChatMessage(ChatMessage{Message: "hi"}),
		NewCorrectGuess(Player{ID: id}, "cat"),
		NewRoundScores(RoundScores{RoundNumber: 1}),
		NewGameStarted("ABC123", Player{ID: id}),
		NewRoundStart("ABC123", Player{ID: id}),
		NewRoundEnd("cat", map[string]int{id.String(): 400}),
		NewGameEnded(map[string]int{id.String(): 400}),
		NewGameStateUpdate(Room{Code: "ABC123"}),
		NewHostChanged(Player{ID: id}),
		NewWordSelected("cat"),
		NewError("nope"),
	}

	for _, ev := range events {
		data, err := json.Marshal(ev)
		if err != nil {
			t.Fatalf("marshal %T: %v", ev, err)
		}
		var tag struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(data, &tag); err != nil {
			t.Fatalf("unmarshal tag from %T: %v", ev, err)
		}
		if tag.Type != ev.EventType() {
			t.Errorf("%T: wire tag %q, EventType %q", ev, tag.Type, ev.EventType())
		}
	}
}

// "message" is a string in Error frames but an object in ChatMessage frames;
// both must survive a round trip without one shape leaking into the other.
func TestMessageKeyCollision(t *testing.T) {
	errData, err := json.Marshal(NewError("Room not found"))
	if err != nil {
		t.Fatalf("marshal error event: %v", err)
	}
	chatData, err := json.Marshal(NewChatMessage(ChatMessage{
		ID:       uuid.New(),
		Username: "anna",
		Message:  "hello",
	}))
	if err != nil {
		t.Fatalf("marshal chat event: %v", err)
	}

	var errFrame map[string]json.RawMessage
	if err := json.Unmarshal(errData, &errFrame); err != nil {
		t.Fatalf("unmarshal error frame: %v", err)
	}
	if !strings.HasPrefix(string(errFrame["message"]), `"`) {
		t.Fatalf("Error message should be a JSON string, got %s", errFrame["message"])
	}

	var chatFrame map[string]json.RawMessage
	if err := json.Unmarshal(chatData, &chatFrame); err != nil {
		t.Fatalf("unmarshal chat frame: %v", err)
	}
	if !strings.HasPrefix(string(chatFrame["message"]), "{") {
		t.Fatalf("ChatMessage message should be a JSON object, got %s", chatFrame["message"])
	}
}

// Unset optionals still appear as explicit nulls so clients can rely on the
// keys existing.
func TestRoomOptionalsMarshalNull(t *testing.T) {
	room := Room{
		ID:        uuid.New(),
		Code:      "ABC123",
		Players:   map[uuid.UUID]Player{},
		GameState: GameWaiting,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}

	data, err := json.Marshal(room)
	if err != nil {
		t.Fatalf("marshal room: %v", err)
	}
	var frame map[string]json.RawMessage
	if err := json.Unmarshal(data, &frame); err != nil {
		t.Fatalf("unmarshal room: %v", err)
	}

	for _, key := range []string{"word", "current_drawer", "round_start_time", "round_end_time"} {
		raw, ok := frame[key]
		if !ok {
			t.Errorf("key %q missing from serialized room", key)
			continue
		}
		if string(raw) != "null" {
			t.Errorf("key %q = %s, want null", key, raw)
		}
	}
	if string(frame["game_state"]) != `"Waiting"` {
		t.Errorf("game_state = %s, want \"Waiting\"", frame["game_state"])
	}
}

// Guesser scores key by player id; uuid map keys must serialize as their
// canonical string form.
func TestRoundScoresMapKeys(t *testing.T) {
	id := uuid.New()
	data, err := json.Marshal(RoundScores{
		RoundNumber:   1,
		Word:          "cat",
		GuesserScores: map[uuid.UUID]int{id: 400},
	})
	if err != nil {
		t.Fatalf("marshal round scores: %v", err)
	}
	if !strings.Contains(string(data), `"`+id.String()+`":400`) {
		t.Fatalf("guesser_scores key mangled: %s", data)
	}
}

func TestDrawStrokeWireNames(t *testing.T) {
	data, err := json.Marshal(DrawStroke{
		X:         0.1,
		Y:         0.2,
		ColorHex:  "#ff0000",
		Alpha:     1,
		BrushPx:   8,
		BrushSize: BrushMedium,
	})
	if err != nil {
		t.Fatalf("marshal stroke: %v", err)
	}
	for _, key := range []string{`"color":"#ff0000"`, `"brushPx":8`, `"brushSize":"Medium"`, `"is_eraser":false`} {
		if !strings.Contains(string(data), key) {
			t.Errorf("stroke missing %s: %s", key, data)
		}
	}
}
