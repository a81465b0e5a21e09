package core

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Stunned1/Skribbl-Clone/internal/protocol"
)

// SendTimeout bounds how long a write to one subscriber may block.
const SendTimeout = 50 * time.Millisecond

// DefaultSendBuffer is the outbound frame buffer per connection.
const DefaultSendBuffer = 64

// session is one registered websocket connection. The send channel is owned
// by the connection handler; the registry only holds a reference and never
// closes it.
type session struct {
	playerID uuid.UUID
	roomCode string
	send     chan protocol.Event
}

// roomEntry pairs a room with the mutex that serializes its mutations.
// Rooms in different entries mutate concurrently.
type roomEntry struct {
	mu      sync.Mutex
	room    protocol.Room
	deleted bool
}

// Registry is the in-memory store of rooms and connections. Snapshots are
// detached deep copies; MutateRoom is the only path that modifies a room.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*roomEntry
	conns map[uuid.UUID]*session
	stats *Stats
}

// NewRegistry returns an empty registry reporting into stats.
func NewRegistry(stats *Stats) *Registry {
	if stats == nil {
		stats = NewStats()
	}
	return &Registry{
		rooms: make(map[string]*roomEntry),
		conns: make(map[uuid.UUID]*session),
		stats: stats,
	}
}

// Stats exposes the runtime counters shared with this registry.
func (r *Registry) Stats() *Stats {
	return r.stats
}

// CreateRoom builds a room with a fresh unique code, the host already a
// member, and lobby defaults: Waiting state, cycle 1, round 0, up to
// DefaultMaxPlayers members and DefaultMaxRounds cycles.
func (r *Registry) CreateRoom(host protocol.Player, roundDuration int) protocol.Room {
	now := time.Now().UTC()
	room := protocol.Room{
		ID:                  uuid.New(),
		HostID:              host.ID,
		Players:             map[uuid.UUID]protocol.Player{host.ID: host},
		RoundNumber:         0,
		MaxRounds:           DefaultMaxRounds,
		CycleNumber:         1,
		RoundDuration:       roundDuration,
		GameState:           protocol.GameWaiting,
		DrawingPaths:        []protocol.DrawPath{},
		ChatMessages:        []protocol.ChatMessage{},
		CurrentRoundGuesses: []protocol.Guess{},
		Winners:             []uuid.UUID{},
		MaxPlayers:          DefaultMaxPlayers,
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	r.mu.Lock()
	for {
		code := randomRoomCode()
		if _, exists := r.rooms[code]; exists {
			continue
		}
		room.Code = code
		r.rooms[code] = &roomEntry{room: room}
		break
	}
	total := len(r.rooms)
	r.mu.Unlock()

	r.stats.RoomsCreated.Add(1)
	slog.Info("room created", "room", room.Code, "host", host.Username, "round_duration", roundDuration, "total_rooms", total)
	return CloneRoom(&room)
}

func (r *Registry) entry(code string) *roomEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.rooms[code]
}

// Room returns a detached snapshot.
func (r *Registry) Room(code string) (protocol.Room, bool) {
	e := r.entry(code)
	if e == nil {
		return protocol.Room{}, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.deleted {
		return protocol.Room{}, false
	}
	return CloneRoom(&e.room), true
}

// Rooms returns detached snapshots of every live room, ordered by code.
func (r *Registry) Rooms() []protocol.Room {
	r.mu.RLock()
	entries := make([]*roomEntry, 0, len(r.rooms))
	for _, e := range r.rooms {
		entries = append(entries, e)
	}
	r.mu.RUnlock()

	out := make([]protocol.Room, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		if !e.deleted {
			out = append(out, CloneRoom(&e.room))
		}
		e.mu.Unlock()
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// RoomCount returns the number of live rooms.
func (r *Registry) RoomCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}

// PlayerCount returns the total membership across all rooms.
func (r *Registry) PlayerCount() int {
	total := 0
	for _, room := range r.Rooms() {
		total += len(room.Players)
	}
	return total
}

// ConnectionCount returns the number of registered websocket sessions.
func (r *Registry) ConnectionCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// MutateRoom runs fn with exclusive access to the room. Mutations on the
// same room serialize; other rooms proceed concurrently. If fn returns nil
// the room's UpdatedAt is refreshed, and a room left with no players is
// deleted with its connections purged.
func (r *Registry) MutateRoom(code string, fn func(*protocol.Room) error) error {
	e := r.entry(code)
	if e == nil {
		return ErrRoomNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.deleted {
		return ErrRoomNotFound
	}
	if err := fn(&e.room); err != nil {
		return err
	}
	e.room.UpdatedAt = time.Now().UTC()
	if len(e.room.Players) == 0 {
		e.deleted = true
		r.dropRoom(code)
	}
	return nil
}

// dropRoom removes the map entry and purges every connection registered to
// the code. Called with the entry lock held; the registry lock is acquired
// inside, which is safe because no other path holds the registry lock while
// waiting on an entry lock.
func (r *Registry) dropRoom(code string) {
	r.mu.Lock()
	delete(r.rooms, code)
	purged := 0
	for id, s := range r.conns {
		if s.roomCode == code {
			delete(r.conns, id)
			purged++
		}
	}
	remaining := len(r.rooms)
	r.mu.Unlock()

	r.stats.RoomsDeleted.Add(1)
	slog.Info("room deleted", "room", code, "connections_purged", purged, "remaining_rooms", remaining)
}

// AddPlayer adds a member to a room and returns the post-join snapshot.
// Capacity and exact-match username collisions are rejected.
func (r *Registry) AddPlayer(code string, p protocol.Player) (protocol.Room, error) {
	var snap protocol.Room
	err := r.MutateRoom(code, func(room *protocol.Room) error {
		if len(room.Players) >= room.MaxPlayers {
			return ErrRoomFull
		}
		for _, existing := range room.Players {
			if existing.Username == p.Username {
				return ErrUsernameTaken
			}
		}
		room.Players[p.ID] = p
		snap = CloneRoom(room)
		return nil
	})
	if err != nil {
		return protocol.Room{}, err
	}
	slog.Info("player joined room", "room", code, "player", p.Username, "player_id", p.ID, "members", len(snap.Players))
	return snap, nil
}

// AddConnection registers a websocket session for a player. A reconnect
// replaces the previous entry; the stale socket's cleanup must then use
// ReleaseConnection so it cannot evict its successor.
func (r *Registry) AddConnection(playerID uuid.UUID, code string, send chan protocol.Event) {
	r.mu.Lock()
	r.conns[playerID] = &session{playerID: playerID, roomCode: code, send: send}
	total := len(r.conns)
	r.mu.Unlock()

	slog.Debug("connection registered", "player_id", playerID, "room", code, "total_connections", total)
}

// RemoveConnection drops a player's session unconditionally.
func (r *Registry) RemoveConnection(playerID uuid.UUID) {
	r.mu.Lock()
	delete(r.conns, playerID)
	r.mu.Unlock()
}

// ReleaseConnection drops the player's session only if it still belongs to
// send, and reports whether this call removed it.
func (r *Registry) ReleaseConnection(playerID uuid.UUID, send chan protocol.Event) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.conns[playerID]
	if !ok || s.send != send {
		return false
	}
	delete(r.conns, playerID)
	return true
}

// SendTo delivers one event to one player's connection.
func (r *Registry) SendTo(playerID uuid.UUID, ev protocol.Event) bool {
	r.mu.RLock()
	s, ok := r.conns[playerID]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	return r.trySend(s.send, ev)
}

// BroadcastToRoom fans one event out to every connection in the room.
func (r *Registry) BroadcastToRoom(code string, ev protocol.Event) {
	r.broadcast(code, ev, nil, uuid.Nil)
}

// BroadcastToRoomExcluding fans out to everyone in the room except one
// player.
func (r *Registry) BroadcastToRoomExcluding(code string, ev protocol.Event, exclude uuid.UUID) {
	r.broadcast(code, ev, nil, exclude)
}

// BroadcastToWinners fans out to the room members allowed to see the word:
// the drawer and everyone who already guessed it. The snapshot decides
// membership so the recipient set matches the state that produced ev.
func (r *Registry) BroadcastToWinners(room *protocol.Room, ev protocol.Event) {
	r.broadcast(room.Code, ev, func(id uuid.UUID) bool { return IsWinner(room, id) }, uuid.Nil)
}

// BroadcastToNonWinners fans out to everyone still guessing.
func (r *Registry) BroadcastToNonWinners(room *protocol.Room, ev protocol.Event) {
	r.broadcast(room.Code, ev, func(id uuid.UUID) bool { return !IsWinner(room, id) }, uuid.Nil)
}

func (r *Registry) broadcast(code string, ev protocol.Event, keep func(uuid.UUID) bool, exclude uuid.UUID) {
	r.mu.RLock()
	targets := make([]chan protocol.Event, 0, len(r.conns))
	for id, s := range r.conns {
		if s.roomCode != code {
			continue
		}
		if exclude != uuid.Nil && id == exclude {
			continue
		}
		if keep != nil && !keep(id) {
			continue
		}
		targets = append(targets, s.send)
	}
	r.mu.RUnlock()

	sent := 0
	for _, ch := range targets {
		if r.trySend(ch, ev) {
			sent++
		}
	}
	slog.Debug("broadcast", "type", ev.EventType(), "room", code, "recipients", sent, "total", len(targets))
}

// BroadcastRoomState sends every connected member their own filtered view of
// the snapshot.
func (r *Registry) BroadcastRoomState(room *protocol.Room) {
	r.mu.RLock()
	type target struct {
		playerID uuid.UUID
		send     chan protocol.Event
	}
	targets := make([]target, 0, len(r.conns))
	for id, s := range r.conns {
		if s.roomCode == room.Code {
			targets = append(targets, target{playerID: id, send: s.send})
		}
	}
	r.mu.RUnlock()

	for _, t := range targets {
		view := FilterRoomFor(room, t.playerID)
		r.trySend(t.send, protocol.NewGameStateUpdate(view))
	}
	slog.Debug("room state broadcast", "room", room.Code, "recipients", len(targets))
}

// trySend attempts a bounded-wait delivery. Frames that cannot be queued
// within SendTimeout are dropped; the recover guards the race where a
// connection closes its channel between target collection and send.
func (r *Registry) trySend(ch chan protocol.Event, ev protocol.Event) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()

	select {
	case ch <- ev:
		return true
	case <-time.After(SendTimeout):
		slog.Warn("send timeout, frame dropped", "type", ev.EventType())
		return false
	}
}
