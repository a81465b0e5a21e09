package core

import "errors"

// Sentinel errors for room and game operations. The texts double as the
// wire-visible messages carried by Error frames and HTTP failure bodies, so
// they are written in client-facing form.
var (
	ErrRoomNotFound   = errors.New("Room not found")
	ErrRoomFull       = errors.New("Room is full")
	ErrUsernameTaken  = errors.New("Username already taken in this room")
	ErrPlayerNotFound = errors.New("Player not found in room")

	ErrNeedTwoPlayers    = errors.New("Need at least 2 players to start")
	ErrNoRoundInProgress = errors.New("No round in progress")

	ErrEndRoundNotAllowed = errors.New("Only the host or the drawer can end the round")
	ErrSettingsNotAllowed = errors.New("Only the host can change settings")
	ErrKickNotAllowed     = errors.New("Only the host can kick players")
	ErrKickSelf           = errors.New("Host cannot kick themselves")
)
