package ws

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Stunned1/Skribbl-Clone/internal/core"
	"github.com/Stunned1/Skribbl-Clone/internal/protocol"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

const writeTimeout = 5 * time.Second

// Handler owns websocket transport for the game server.
type Handler struct {
	game     *core.Game
	reg      *core.Registry
	upgrader websocket.Upgrader
}

// NewHandler creates a websocket handler dispatching into game.
func NewHandler(game *core.Game, reg *core.Registry) *Handler {
	return &Handler{
		game: game,
		reg:  reg,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(_ *http.Request) bool { return true },
		},
	}
}

// Register binds websocket routes on an Echo router.
func (h *Handler) Register(e *echo.Echo) {
	e.GET("/ws", h.HandleWebSocket)
}

// HandleWebSocket upgrades one request and serves it until disconnect.
func (h *Handler) HandleWebSocket(c echo.Context) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return fmt.Errorf("upgrade websocket: %w", err)
	}
	h.serveConn(conn)
	return nil
}

// session tracks which player a socket speaks for. JoinRoom sets it; chat
// and guess frames take their author identity from here, never from the
// payload.
type session struct {
	playerID uuid.UUID
	roomCode string
	bound    bool
}

func (h *Handler) serveConn(conn *websocket.Conn) {
	defer conn.Close()

	stats := h.reg.Stats()
	stats.ConnectionsOpened.Add(1)
	defer stats.ConnectionsClosed.Add(1)

	_ = conn.SetReadDeadline(time.Time{})
	conn.SetReadLimit(1 << 20)

	// Every outbound frame, whether registry fan-out or a direct reply,
	// goes through this one channel so the socket sees a single writer.
	send := make(chan protocol.Event, core.DefaultSendBuffer)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for ev := range send {
			_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
			stats.FramesOut.Add(1)
		}
	}()

	var sess session
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		stats.FramesIn.Add(1)

		in, err := protocol.DecodeInbound(data)
		if err != nil {
			h.reply(send, protocol.NewError("Invalid message format"))
			continue
		}
		h.handleInbound(&sess, send, in)
	}

	// ReleaseConnection only succeeds when this socket still owns the
	// registry entry; a reconnect that re-bound the player keeps its own.
	if sess.bound && h.reg.ReleaseConnection(sess.playerID, send) {
		h.game.Disconnect(sess.roomCode, sess.playerID)
	}
	close(send)
	<-writerDone
}

func (h *Handler) handleInbound(sess *session, send chan protocol.Event, in protocol.Inbound) {
	switch in.Type {
	case protocol.TypeJoinRoom:
		if sess.bound {
			h.reply(send, protocol.NewError("Already joined a room"))
			return
		}
		player, err := h.game.BindConnection(in.RoomCode, in.Username, send)
		if err != nil {
			h.reply(send, protocol.NewError(err.Error()))
			return
		}
		sess.playerID = player.ID
		sess.roomCode = core.NormalizeRoomCode(in.RoomCode)
		sess.bound = true

	case protocol.TypeLeaveRoom:
		playerID, err := uuid.Parse(in.PlayerID)
		if err != nil {
			h.reply(send, protocol.NewError("Invalid player ID format"))
			return
		}
		left, err := h.game.Leave(in.RoomCode, playerID)
		if err != nil {
			h.reply(send, protocol.NewError(err.Error()))
			return
		}
		// The leaver's registry entry is already gone, so the room
		// broadcast skipped this socket; ack it directly.
		h.reply(send, protocol.NewPlayerLeft(core.NormalizeRoomCode(in.RoomCode), left))
		if sess.bound && sess.playerID == playerID {
			*sess = session{}
		}

	case protocol.TypeChat:
		if !sess.bound {
			slog.Debug("chat from unbound socket dropped", "room", in.RoomCode)
			return
		}
		if err := h.game.Chat(in.RoomCode, sess.playerID, in.Message); err != nil {
			h.reply(send, protocol.NewError(err.Error()))
		}

	case protocol.TypeGuess:
		if !sess.bound {
			slog.Debug("guess from unbound socket dropped", "room", in.RoomCode)
			return
		}
		if err := h.game.Chat(in.RoomCode, sess.playerID, in.Guess); err != nil {
			h.reply(send, protocol.NewError(err.Error()))
		}

	case protocol.TypeWinnersChat:
		if !sess.bound {
			slog.Debug("winners chat from unbound socket dropped", "room", in.RoomCode)
			return
		}
		if err := h.game.WinnersChat(in.RoomCode, sess.playerID, in.Message); err != nil {
			h.reply(send, protocol.NewError(err.Error()))
		}

	case protocol.TypeStartGame:
		if err := h.game.Start(in.RoomCode); err != nil {
			h.reply(send, protocol.NewError(err.Error()))
		}

	case protocol.TypeEndRound:
		// An unbound socket carries the zero id, which is never the host
		// or the drawer, so authorization rejects it.
		if err := h.game.EndRound(in.RoomCode, sess.playerID); err != nil {
			h.reply(send, protocol.NewError(err.Error()))
		}

	case protocol.TypeWordSelected:
		h.game.SelectWord(in.RoomCode, in.Word)

	case protocol.TypeUpdateSettings:
		if err := h.game.UpdateSettings(in.RoomCode, sess.playerID, in.MaxRounds); err != nil {
			h.reply(send, protocol.NewError(err.Error()))
		}

	case protocol.TypeKickPlayer:
		target, err := uuid.Parse(in.PlayerID)
		if err != nil {
			h.reply(send, protocol.NewError("Invalid player ID format"))
			return
		}
		if err := h.game.Kick(in.RoomCode, sess.playerID, target); err != nil {
			h.reply(send, protocol.NewError(err.Error()))
		}

	case protocol.TypeDrawUpdate:
		h.game.DrawPath(in.RoomCode, in.Path)

	case protocol.TypeDrawStroke:
		h.game.DrawStroke(in.RoomCode, in.Stroke)

	default:
		h.reply(send, protocol.NewError("Invalid message format"))
	}
}

// reply queues a frame on the connection's own writer. A full buffer means
// the client stopped draining; the frame is dropped and the socket left to
// the disconnect path.
func (h *Handler) reply(send chan protocol.Event, ev protocol.Event) {
	select {
	case send <- ev:
	default:
		slog.Warn("reply dropped, send buffer full", "type", ev.EventType())
	}
}
