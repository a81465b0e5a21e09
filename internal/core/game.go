package core

import (
	"errors"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Stunned1/Skribbl-Clone/internal/protocol"
	"github.com/Stunned1/Skribbl-Clone/internal/scoring"
)

// Game executes room operations against the registry and fans the resulting
// events out to connected players. Every operation mutates its room inside a
// single critical section, so concurrent frames on the same room serialize
// and each broadcast reflects the snapshot its mutation produced.
type Game struct {
	reg *Registry
}

// NewGame returns a game engine bound to the registry.
func NewGame(reg *Registry) *Game {
	return &Game{reg: reg}
}

// guessMatches compares a guess against the word, ignoring case and
// surrounding whitespace.
func guessMatches(guess, word string) bool {
	return strings.EqualFold(strings.TrimSpace(guess), strings.TrimSpace(word))
}

// setPlayerRoles marks the drawer and flips everyone else to guessing.
func setPlayerRoles(r *protocol.Room, drawerID uuid.UUID) {
	for id, p := range r.Players {
		if id == drawerID {
			p.State = protocol.PlayerDrawing
			p.IsDrawing = true
		} else {
			p.State = protocol.PlayerGuessing
			p.IsDrawing = false
		}
		r.Players[id] = p
	}
}

func finalScores(r *protocol.Room) map[string]int {
	out := make(map[string]int, len(r.Players))
	for id, p := range r.Players {
		out[id.String()] = p.Score
	}
	return out
}

// BindConnection attaches a websocket to an existing member, found by exact
// username match. The player must have joined over HTTP first. On success
// the joiner gets their own PlayerJoined, the rest of the room is notified,
// and everyone receives a fresh filtered state.
func (g *Game) BindConnection(code, username string, send chan protocol.Event) (protocol.Player, error) {
	code = NormalizeRoomCode(code)
	room, ok := g.reg.Room(code)
	if !ok {
		return protocol.Player{}, ErrRoomNotFound
	}
	var player protocol.Player
	found := false
	for _, p := range room.Players {
		if p.Username == username {
			player = p
			found = true
			break
		}
	}
	if !found {
		return protocol.Player{}, ErrPlayerNotFound
	}

	g.reg.AddConnection(player.ID, code, send)
	g.reg.SendTo(player.ID, protocol.NewPlayerJoined(code, player))
	g.reg.BroadcastToRoomExcluding(code, protocol.NewPlayerJoined(code, player), player.ID)
	g.reg.BroadcastRoomState(&room)

	slog.Info("player connected", "room", code, "player", player.Username, "player_id", player.ID)
	return player, nil
}

// Start transitions a waiting room into play. The earliest-joined member
// draws first and starts as the round's only winner. A room already past the
// lobby ignores the request.
func (g *Game) Start(code string) error {
	code = NormalizeRoomCode(code)
	var (
		snap    protocol.Room
		drawer  protocol.Player
		started bool
	)
	err := g.reg.MutateRoom(code, func(r *protocol.Room) error {
		if r.GameState != protocol.GameWaiting {
			return nil
		}
		if len(r.Players) < MinPlayersToStart {
			return ErrNeedTwoPlayers
		}
		first := orderedPlayers(r)[0]
		r.GameState = protocol.GamePlaying
		r.RoundNumber = 1
		r.CycleNumber = 1
		id := first.ID
		r.CurrentDrawer = &id
		r.Word = nil
		r.RoundStartTime = nil
		r.RoundEndTime = nil
		r.DrawingPaths = []protocol.DrawPath{}
		r.CurrentRoundGuesses = []protocol.Guess{}
		r.Winners = []uuid.UUID{first.ID}
		setPlayerRoles(r, first.ID)
		drawer = r.Players[first.ID]
		snap = CloneRoom(r)
		started = true
		return nil
	})
	if err != nil || !started {
		return err
	}

	g.reg.BroadcastToRoom(code, protocol.NewGameStarted(code, drawer))
	g.reg.BroadcastToRoom(code, protocol.NewRoundStart(code, drawer))
	g.reg.BroadcastRoomState(&snap)

	slog.Info("game started", "room", code, "drawer", drawer.Username, "players", len(snap.Players))
	return nil
}

// SelectWord fixes the round's word and arms the deadline. The request is
// dropped when the room is not playing, no drawer is assigned, or a word is
// already set, so duplicate selections cannot restart the clock. Winners
// receive the word; everyone else gets an empty placeholder.
func (g *Game) SelectWord(code, word string) {
	code = NormalizeRoomCode(code)
	var (
		snap     protocol.Room
		drawerID uuid.UUID
		duration time.Duration
		set      bool
	)
	err := g.reg.MutateRoom(code, func(r *protocol.Room) error {
		if r.GameState != protocol.GamePlaying || r.CurrentDrawer == nil || r.Word != nil {
			return nil
		}
		w := word
		now := time.Now().UTC()
		end := now.Add(time.Duration(r.RoundDuration) * time.Second)
		r.Word = &w
		r.RoundStartTime = &now
		r.RoundEndTime = &end
		drawerID = *r.CurrentDrawer
		duration = time.Duration(r.RoundDuration) * time.Second
		snap = CloneRoom(r)
		set = true
		return nil
	})
	if err != nil || !set {
		slog.Debug("word selection dropped", "room", code, "err", err)
		return
	}

	g.scheduleRoundDeadline(code, drawerID, word, duration)
	g.reg.BroadcastRoomState(&snap)
	g.reg.BroadcastToWinners(&snap, protocol.NewWordSelected(word))
	g.reg.BroadcastToNonWinners(&snap, protocol.NewWordSelected(""))

	slog.Info("word selected", "room", code, "round", snap.RoundNumber, "cycle", snap.CycleNumber, "duration_s", snap.RoundDuration)
}

// Chat classifies one line of input: winners talk among themselves,
// a non-winner matching the word scores a guess, and everything else is
// public chat.
func (g *Game) Chat(code string, playerID uuid.UUID, text string) error {
	code = NormalizeRoomCode(code)
	var (
		chatMsg     protocol.ChatMessage
		winnersOnly bool
		guesser     *protocol.Player
		word        string
		snap        protocol.Room
		outcome     *roundOutcome
	)
	err := g.reg.MutateRoom(code, func(r *protocol.Room) error {
		p, ok := r.Players[playerID]
		if !ok {
			return ErrPlayerNotFound
		}

		if IsWinner(r, playerID) {
			chatMsg = newChatMessage(p, text, true)
			appendChat(r, chatMsg)
			winnersOnly = true
			snap = CloneRoom(r)
			return nil
		}

		if r.Word != nil && guessMatches(text, *r.Word) {
			now := time.Now().UTC()
			remaining := 0
			if r.RoundStartTime != nil {
				elapsed := int(now.Sub(*r.RoundStartTime) / time.Second)
				if elapsed < r.RoundDuration {
					remaining = r.RoundDuration - elapsed
				}
			}
			normalized := 0.0
			if r.RoundDuration > 0 {
				normalized = min(max(float64(remaining)/float64(r.RoundDuration), 0), 1)
			}
			r.CurrentRoundGuesses = append(r.CurrentRoundGuesses, protocol.Guess{
				PlayerID:       p.ID,
				Username:       p.Username,
				Word:           *r.Word,
				Timestamp:      now,
				TimeRemaining:  remaining,
				NormalizedTime: normalized,
			})
			r.Winners = append(r.Winners, p.ID)
			guesser = &p
			word = *r.Word
			snap = CloneRoom(r)
			if len(r.CurrentRoundGuesses) >= len(r.Players)-1 {
				out := g.endRoundLocked(r)
				outcome = &out
			}
			return nil
		}

		chatMsg = newChatMessage(p, text, false)
		appendChat(r, chatMsg)
		snap = CloneRoom(r)
		return nil
	})
	if err != nil {
		return err
	}

	switch {
	case guesser != nil:
		g.reg.BroadcastToRoom(code, protocol.NewCorrectGuess(*guesser, word))
		g.reg.BroadcastRoomState(&snap)
		slog.Info("correct guess", "room", code, "player", guesser.Username)
		if outcome != nil {
			g.emitRoundOutcome(code, *outcome)
		}
	case winnersOnly:
		g.reg.BroadcastRoomState(&snap)
		g.reg.BroadcastToWinners(&snap, protocol.NewChatMessage(chatMsg))
	default:
		g.reg.BroadcastRoomState(&snap)
		g.reg.BroadcastToRoom(code, protocol.NewChatMessage(chatMsg))
	}
	return nil
}

// WinnersChat posts to the winners-only channel. Requests from players
// still guessing are dropped.
func (g *Game) WinnersChat(code string, playerID uuid.UUID, text string) error {
	code = NormalizeRoomCode(code)
	var (
		msg    protocol.ChatMessage
		snap   protocol.Room
		posted bool
	)
	err := g.reg.MutateRoom(code, func(r *protocol.Room) error {
		p, ok := r.Players[playerID]
		if !ok {
			return ErrPlayerNotFound
		}
		if !IsWinner(r, playerID) {
			slog.Debug("winners chat from non-winner dropped", "room", code, "player", p.Username)
			return nil
		}
		msg = newChatMessage(p, text, true)
		appendChat(r, msg)
		snap = CloneRoom(r)
		posted = true
		return nil
	})
	if err != nil || !posted {
		return err
	}

	g.reg.BroadcastRoomState(&snap)
	g.reg.BroadcastToWinners(&snap, protocol.NewChatMessage(msg))
	return nil
}

// EndRound finishes the live round early. Only the host or the current
// drawer may trigger it; rounds also end on their own when the deadline
// fires or every guesser has the word.
func (g *Game) EndRound(code string, actor uuid.UUID) error {
	code = NormalizeRoomCode(code)
	var outcome roundOutcome
	err := g.reg.MutateRoom(code, func(r *protocol.Room) error {
		if r.GameState != protocol.GamePlaying {
			return ErrNoRoundInProgress
		}
		isDrawer := r.CurrentDrawer != nil && *r.CurrentDrawer == actor
		if actor != r.HostID && !isDrawer {
			return ErrEndRoundNotAllowed
		}
		outcome = g.endRoundLocked(r)
		return nil
	})
	if err != nil {
		return err
	}
	g.emitRoundOutcome(code, outcome)
	return nil
}

// errStaleDeadline marks a timer that woke up for a round no longer live.
var errStaleDeadline = errors.New("stale round deadline")

// endRoundIfCurrent is the deadline path: it ends the round only if the
// room is still playing the exact round the timer was armed for, identified
// by drawer and word.
func (g *Game) endRoundIfCurrent(code string, drawer uuid.UUID, word string) {
	var outcome roundOutcome
	err := g.reg.MutateRoom(code, func(r *protocol.Room) error {
		if r.GameState != protocol.GamePlaying {
			return errStaleDeadline
		}
		if r.CurrentDrawer == nil || *r.CurrentDrawer != drawer {
			return errStaleDeadline
		}
		if r.Word == nil || *r.Word != word {
			return errStaleDeadline
		}
		outcome = g.endRoundLocked(r)
		return nil
	})
	if err != nil {
		slog.Debug("round deadline ignored", "room", code, "reason", err)
		return
	}
	slog.Info("round time expired", "room", code)
	g.emitRoundOutcome(code, outcome)
}

// roundOutcome captures everything a finished round needs to broadcast.
type roundOutcome struct {
	scores     protocol.RoundScores
	deltas     map[string]int
	finished   bool
	finals     map[string]int
	nextDrawer protocol.Player
	snapshot   protocol.Room
}

// endRoundLocked scores the round, applies points and the artist streak,
// rotates the drawer by join order, and resets per-round state. A rotation
// that wraps to the first player starts a new cycle; exhausting max_rounds
// cycles finishes the game. Callers hold the room's mutation lock.
func (g *Game) endRoundLocked(r *protocol.Room) roundOutcome {
	var out roundOutcome
	out.scores = scoring.ComputeRound(r)

	out.deltas = make(map[string]int, len(out.scores.GuesserScores)+1)
	for id, pts := range out.scores.GuesserScores {
		if p, ok := r.Players[id]; ok {
			p.Score += pts
			r.Players[id] = p
		}
		out.deltas[id.String()] = pts
	}
	if r.CurrentDrawer != nil {
		if artist, ok := r.Players[*r.CurrentDrawer]; ok {
			artist.Score += out.scores.ArtistScore
			artist.ArtistStreak = scoring.NextStreak(artist.ArtistStreak, r.CurrentRoundGuesses, len(r.Players), r.RoundDuration)
			r.Players[*r.CurrentDrawer] = artist
		}
		out.deltas[r.CurrentDrawer.String()] = out.scores.ArtistScore
	}

	ordered := orderedPlayers(r)
	next := 0
	if r.CurrentDrawer != nil {
		for i, p := range ordered {
			if p.ID == *r.CurrentDrawer {
				next = (i + 1) % len(ordered)
				break
			}
		}
	}
	if next == 0 {
		r.CycleNumber++
		r.RoundNumber = 1
	} else {
		r.RoundNumber++
	}
	// Guard against membership shrinking mid-cycle: a round counter past
	// the player count forces the new cycle the wrap would have produced.
	if r.RoundNumber > len(ordered) {
		r.CycleNumber++
		r.RoundNumber = 1
	}

	nextDrawer := ordered[next]
	id := nextDrawer.ID
	r.CurrentDrawer = &id
	r.Word = nil
	r.RoundStartTime = nil
	r.RoundEndTime = nil
	r.DrawingPaths = []protocol.DrawPath{}
	r.CurrentRoundGuesses = []protocol.Guess{}
	r.Winners = []uuid.UUID{nextDrawer.ID}
	setPlayerRoles(r, nextDrawer.ID)

	if r.CycleNumber > r.MaxRounds {
		r.GameState = protocol.GameFinished
		for pid, p := range r.Players {
			p.State = protocol.PlayerSpectator
			p.IsDrawing = false
			r.Players[pid] = p
		}
		out.finished = true
		out.finals = finalScores(r)
	}
	out.nextDrawer = r.Players[nextDrawer.ID]
	out.snapshot = CloneRoom(r)
	return out
}

// emitRoundOutcome broadcasts the end-of-round sequence: the scoring
// breakdown, the word reveal with per-round points, then either the final
// scores or the next drawer with a fresh state sync.
func (g *Game) emitRoundOutcome(code string, out roundOutcome) {
	g.reg.Stats().RoundsCompleted.Add(1)
	g.reg.BroadcastToRoom(code, protocol.NewRoundScores(out.scores))
	g.reg.BroadcastToRoom(code, protocol.NewRoundEnd(out.scores.Word, out.deltas))
	if out.finished {
		g.reg.BroadcastToRoom(code, protocol.NewGameEnded(out.finals))
		slog.Info("game ended", "room", code)
		return
	}
	g.reg.BroadcastToRoom(code, protocol.NewRoundStart(code, out.nextDrawer))
	g.reg.BroadcastRoomState(&out.snapshot)
	slog.Info("round ended", "room", code, "round", out.snapshot.RoundNumber, "cycle", out.snapshot.CycleNumber, "next_drawer", out.nextDrawer.Username)
}

// UpdateSettings changes the cycle count. Host only; out-of-range values
// are clamped rather than rejected.
func (g *Game) UpdateSettings(code string, actor uuid.UUID, maxRounds int) error {
	code = NormalizeRoomCode(code)
	var snap protocol.Room
	err := g.reg.MutateRoom(code, func(r *protocol.Room) error {
		if actor != r.HostID {
			return ErrSettingsNotAllowed
		}
		r.MaxRounds = max(MinRoundsSetting, min(MaxRoundsSetting, maxRounds))
		snap = CloneRoom(r)
		return nil
	})
	if err != nil {
		return err
	}
	g.reg.BroadcastRoomState(&snap)
	slog.Info("settings updated", "room", code, "max_rounds", snap.MaxRounds)
	return nil
}

// departure describes the consequences of removing one member.
type departure struct {
	player   protocol.Player
	roomGone bool
	newHost  *protocol.Player
	outcome  *roundOutcome
	finished bool
	finals   map[string]int
	snapshot protocol.Room
}

// removeMemberLocked removes a member and repairs the game around the gap:
// the departed player's guess is scrubbed, the host hands off to the
// earliest-joined survivor, a departing drawer ends the round, a departure
// that satisfies everyone-guessed ends it too, and a playing room left with
// fewer than two players finishes. Callers hold the room's mutation lock.
func (g *Game) removeMemberLocked(r *protocol.Room, playerID uuid.UUID) (departure, error) {
	p, ok := r.Players[playerID]
	if !ok {
		return departure{}, ErrPlayerNotFound
	}
	dep := departure{player: p}

	playing := r.GameState == protocol.GamePlaying
	wasDrawer := r.CurrentDrawer != nil && *r.CurrentDrawer == playerID
	wasHost := r.HostID == playerID

	switch {
	case playing && len(r.Players) <= MinPlayersToStart:
		delete(r.Players, playerID)
		finishGameLocked(r)
		dep.finished = true
	case playing && wasDrawer:
		out := g.endRoundLocked(r)
		delete(r.Players, playerID)
		clampRoundNumber(r)
		dep.outcome = &out
	default:
		delete(r.Players, playerID)
		scrubMember(r, playerID)
		if wasDrawer {
			r.CurrentDrawer = nil
		}
		if playing {
			clampRoundNumber(r)
			if r.Word != nil && len(r.Players) >= MinPlayersToStart &&
				len(r.CurrentRoundGuesses) >= len(r.Players)-1 {
				out := g.endRoundLocked(r)
				dep.outcome = &out
			}
		}
	}

	if wasHost && len(r.Players) > 0 {
		newHost := orderedPlayers(r)[0]
		r.HostID = newHost.ID
		dep.newHost = &newHost
	}

	dep.roomGone = len(r.Players) == 0
	if !dep.roomGone {
		dep.snapshot = CloneRoom(r)
		if dep.outcome != nil {
			// Refresh the outcome with the post-removal state.
			dep.outcome.snapshot = dep.snapshot
			if dep.outcome.finished {
				dep.outcome.finals = finalScores(r)
			}
		}
		if dep.finished {
			dep.finals = finalScores(r)
		}
	}
	return dep, nil
}

// scrubMember drops a departed player's traces from the live round.
func scrubMember(r *protocol.Room, playerID uuid.UUID) {
	r.CurrentRoundGuesses = slices.DeleteFunc(r.CurrentRoundGuesses, func(gu protocol.Guess) bool {
		return gu.PlayerID == playerID
	})
	r.Winners = slices.DeleteFunc(r.Winners, func(id uuid.UUID) bool {
		return id == playerID
	})
}

// finishGameLocked settles a playing room that can no longer continue.
func finishGameLocked(r *protocol.Room) {
	r.GameState = protocol.GameFinished
	r.CurrentDrawer = nil
	r.Word = nil
	r.RoundStartTime = nil
	r.RoundEndTime = nil
	r.DrawingPaths = []protocol.DrawPath{}
	r.CurrentRoundGuesses = []protocol.Guess{}
	r.Winners = []uuid.UUID{}
	for id, p := range r.Players {
		p.State = protocol.PlayerSpectator
		p.IsDrawing = false
		r.Players[id] = p
	}
}

// clampRoundNumber repairs the round counter after membership shrinks so it
// never exceeds the player count mid-round.
func clampRoundNumber(r *protocol.Room) {
	if n := len(r.Players); n > 0 && r.RoundNumber > n {
		r.RoundNumber = n
	}
}

// Leave removes a member at their own request and notifies the room.
func (g *Game) Leave(code string, playerID uuid.UUID) (protocol.Player, error) {
	return g.depart(code, playerID, false)
}

// Disconnect removes a member whose socket dropped. The departure record
// goes out flagged disconnected; if the player was already purged (kicked,
// or a raced leave) the room still learns the id went away via a synthetic
// record.
func (g *Game) Disconnect(code string, playerID uuid.UUID) {
	_, err := g.depart(code, playerID, true)
	switch {
	case err == nil:
	case errors.Is(err, ErrPlayerNotFound):
		g.reg.RemoveConnection(playerID)
		code = NormalizeRoomCode(code)
		synthetic := protocol.Player{
			ID:          playerID,
			Username:    "Unknown",
			State:       protocol.PlayerDisconnected,
			IsConnected: false,
		}
		g.reg.BroadcastToRoom(code, protocol.NewPlayerLeft(code, synthetic))
		slog.Info("disconnect for unknown player", "room", code, "player_id", playerID)
	case errors.Is(err, ErrRoomNotFound):
		g.reg.RemoveConnection(playerID)
	}
}

func (g *Game) depart(code string, playerID uuid.UUID, disconnected bool) (protocol.Player, error) {
	code = NormalizeRoomCode(code)
	var dep departure
	err := g.reg.MutateRoom(code, func(r *protocol.Room) error {
		var err error
		dep, err = g.removeMemberLocked(r, playerID)
		return err
	})
	if err != nil {
		return protocol.Player{}, err
	}

	g.reg.RemoveConnection(playerID)

	if dep.roomGone {
		slog.Info("player left, room emptied", "room", code, "player", dep.player.Username)
		return dep.player, nil
	}

	record := dep.player
	if disconnected {
		record.State = protocol.PlayerDisconnected
		record.IsConnected = false
	}
	if dep.newHost != nil {
		g.reg.BroadcastToRoom(code, protocol.NewHostChanged(*dep.newHost))
	}
	g.reg.BroadcastToRoom(code, protocol.NewPlayerLeft(code, record))
	g.emitDepartureTail(code, dep)

	slog.Info("player left room", "room", code, "player", dep.player.Username, "disconnected", disconnected)
	return dep.player, nil
}

// Kick removes a member at the host's request. The target still holds a
// registered connection while PlayerKicked goes out, then it is purged.
func (g *Game) Kick(code string, actor, target uuid.UUID) error {
	code = NormalizeRoomCode(code)
	var dep departure
	err := g.reg.MutateRoom(code, func(r *protocol.Room) error {
		if actor != r.HostID {
			return ErrKickNotAllowed
		}
		if actor == target {
			return ErrKickSelf
		}
		var err error
		dep, err = g.removeMemberLocked(r, target)
		return err
	})
	if err != nil {
		return err
	}

	g.reg.BroadcastToRoom(code, protocol.NewPlayerKicked(code, dep.player))
	g.reg.RemoveConnection(target)
	g.emitDepartureTail(code, dep)

	slog.Info("player kicked", "room", code, "player", dep.player.Username)
	return nil
}

// emitDepartureTail sends whatever the removal triggered beyond the
// departure itself: a round outcome, a forced finish, or a plain state sync.
func (g *Game) emitDepartureTail(code string, dep departure) {
	if dep.outcome != nil {
		g.emitRoundOutcome(code, *dep.outcome)
		return
	}
	if dep.finished {
		g.reg.BroadcastToRoom(code, protocol.NewGameEnded(dep.finals))
		slog.Info("game ended, too few players", "room", code)
		return
	}
	g.reg.BroadcastRoomState(&dep.snapshot)
}

// DrawPath stores one completed path and relays it. Re-sent path ids
// replace the stored copy instead of duplicating it. Paths are attributed
// to the current drawer; without one the update is dropped.
func (g *Game) DrawPath(code string, fp *protocol.FrontendDrawPath) {
	code = NormalizeRoomCode(code)
	var (
		path   protocol.DrawPath
		stored bool
	)
	err := g.reg.MutateRoom(code, func(r *protocol.Room) error {
		if r.CurrentDrawer == nil {
			return nil
		}
		p, ok := normalizePath(fp, *r.CurrentDrawer)
		if !ok {
			return nil
		}
		path = p
		stored = true
		for i := range r.DrawingPaths {
			if r.DrawingPaths[i].ID == path.ID {
				r.DrawingPaths[i] = path
				return nil
			}
		}
		r.DrawingPaths = append(r.DrawingPaths, path)
		return nil
	})
	if err != nil || !stored {
		slog.Debug("draw update dropped", "room", code, "err", err)
		return
	}
	g.reg.BroadcastToRoom(code, protocol.NewDrawUpdate(code, path))
}

// DrawStroke relays one live stroke without storing it.
func (g *Game) DrawStroke(code string, fs *protocol.FrontendDrawStroke) {
	code = NormalizeRoomCode(code)
	if fs == nil {
		return
	}
	room, ok := g.reg.Room(code)
	if !ok || room.CurrentDrawer == nil {
		slog.Debug("draw stroke dropped", "room", code)
		return
	}
	stroke := normalizeStroke(*fs, time.Now().UTC())
	g.reg.BroadcastToRoom(code, protocol.NewDrawStroke(code, stroke))
}
