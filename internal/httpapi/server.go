// Package httpapi assembles the HTTP surface: room management endpoints,
// operator endpoints, and the websocket upgrade route.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Stunned1/Skribbl-Clone/internal/core"
	"github.com/Stunned1/Skribbl-Clone/internal/protocol"
	"github.com/Stunned1/Skribbl-Clone/internal/ws"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// Server is the Echo application.
type Server struct {
	echo *echo.Echo
	reg  *core.Registry
	game *core.Game
}

// New constructs an Echo app with the REST and websocket routes.
func New(reg *core.Registry, game *core.Game) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	s := &Server{echo: e, reg: reg, game: game}
	s.registerRoutes()
	return s
}

// Echo exposes the underlying Echo instance for tests.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/api/state", s.handleState)
	s.echo.POST("/createRoom", s.handleCreateRoom)
	s.echo.POST("/joinRoom", s.handleJoinRoom)
	s.echo.POST("/leaveRoom", s.handleLeaveRoom)
	ws.NewHandler(s.game, s.reg).Register(s.echo)
}

// Run starts Echo and blocks until ctx cancellation or startup failure.
func (s *Server) Run(ctx context.Context, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		err := s.echo.Start(addr)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.echo.Shutdown(shutCtx)
		return nil
	}
}

type healthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, healthResponse{
		Status:  "ok",
		Message: "Skribbl Clone Backend is running!",
	})
}

type createRoomRequest struct {
	Username      string `json:"username"`
	RoundDuration int    `json:"round_duration"`
}

type joinRoomRequest struct {
	RoomCode string `json:"room_code"`
	Username string `json:"username"`
}

// roomResponse answers createRoom and joinRoom. Room and Player are null on
// failure.
type roomResponse struct {
	Success bool             `json:"success"`
	Message string           `json:"message"`
	Room    *protocol.Room   `json:"room"`
	Player  *protocol.Player `json:"player"`
}

func (s *Server) handleCreateRoom(c echo.Context) error {
	var req createRoomRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, roomResponse{Message: "Invalid request body"})
	}
	if req.RoundDuration <= 0 {
		req.RoundDuration = core.DefaultRoundDuration
	}

	player := core.NewPlayer(req.Username)
	room := s.reg.CreateRoom(player, req.RoundDuration)

	return c.JSON(http.StatusCreated, roomResponse{
		Success: true,
		Message: "Room created successfully",
		Room:    &room,
		Player:  &player,
	})
}

func (s *Server) handleJoinRoom(c echo.Context) error {
	var req joinRoomRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, roomResponse{Message: "Invalid request body"})
	}
	code := core.NormalizeRoomCode(req.RoomCode)

	player := core.NewPlayer(req.Username)
	room, err := s.reg.AddPlayer(code, player)
	switch {
	case errors.Is(err, core.ErrRoomNotFound):
		return c.JSON(http.StatusNotFound, roomResponse{Message: err.Error()})
	case err != nil:
		return c.JSON(http.StatusBadRequest, roomResponse{Message: err.Error()})
	}

	// Joining mid-round must not reveal the word.
	view := core.FilterRoomFor(&room, player.ID)
	return c.JSON(http.StatusOK, roomResponse{
		Success: true,
		Message: "Joined room successfully",
		Room:    &view,
		Player:  &player,
	})
}

type leaveRoomRequest struct {
	RoomCode string `json:"room_code"`
	PlayerID string `json:"player_id"`
}

type leaveRoomResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func (s *Server) handleLeaveRoom(c echo.Context) error {
	var req leaveRoomRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, leaveRoomResponse{Message: "Invalid request body"})
	}

	code := core.NormalizeRoomCode(req.RoomCode)
	if !core.ValidRoomCode(code) {
		return c.JSON(http.StatusBadRequest, leaveRoomResponse{Message: "Invalid room code format"})
	}
	playerID, err := uuid.Parse(strings.TrimSpace(req.PlayerID))
	if err != nil {
		return c.JSON(http.StatusBadRequest, leaveRoomResponse{Message: "Invalid player ID format"})
	}

	player, err := s.game.Leave(code, playerID)
	switch {
	case errors.Is(err, core.ErrRoomNotFound):
		return c.JSON(http.StatusNotFound, leaveRoomResponse{Message: err.Error()})
	case errors.Is(err, core.ErrPlayerNotFound):
		return c.JSON(http.StatusForbidden, leaveRoomResponse{Message: "Player is not in this room"})
	case err != nil:
		return c.JSON(http.StatusBadRequest, leaveRoomResponse{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, leaveRoomResponse{
		Success: true,
		Message: fmt.Sprintf("Player %s left the room", player.Username),
	})
}

// roomSummary is the operator view of one room. The current word never
// appears here.
type roomSummary struct {
	Code        string             `json:"code"`
	State       protocol.GameState `json:"state"`
	Players     int                `json:"players"`
	RoundNumber int                `json:"round_number"`
	CycleNumber int                `json:"cycle_number"`
	MaxRounds   int                `json:"max_rounds"`
}

type stateResponse struct {
	Rooms       int                `json:"rooms"`
	Players     int                `json:"players"`
	Connections int                `json:"connections"`
	Stats       core.StatsSnapshot `json:"stats"`
	RoomList    []roomSummary      `json:"room_list"`
}

func (s *Server) handleState(c echo.Context) error {
	rooms := s.reg.Rooms()
	players := 0
	list := make([]roomSummary, 0, len(rooms))
	for _, r := range rooms {
		players += len(r.Players)
		list = append(list, roomSummary{
			Code:        r.Code,
			State:       r.GameState,
			Players:     len(r.Players),
			RoundNumber: r.RoundNumber,
			CycleNumber: r.CycleNumber,
			MaxRounds:   r.MaxRounds,
		})
	}

	return c.JSON(http.StatusOK, stateResponse{
		Rooms:       len(rooms),
		Players:     players,
		Connections: s.reg.ConnectionCount(),
		Stats:       s.reg.Stats().Snapshot(),
		RoomList:    list,
	})
}
