package protocol

import (
	"time"

	"github.com/google/uuid"
)

// GameState is the lifecycle phase of a room.
type GameState string

const (
	GameWaiting  GameState = "Waiting"
	GamePlaying  GameState = "Playing"
	GameFinished GameState = "Finished"
)

// PlayerState is a player's role within a room.
type PlayerState string

const (
	PlayerSpectator    PlayerState = "Spectator"
	PlayerDrawing      PlayerState = "Drawing"
	PlayerGuessing     PlayerState = "Guessing"
	PlayerDisconnected PlayerState = "Disconnected"
)

// Color is the named palette entry derived from a hex color.
type Color string

const (
	ColorBlack  Color = "Black"
	ColorRed    Color = "Red"
	ColorGreen  Color = "Green"
	ColorBlue   Color = "Blue"
	ColorYellow Color = "Yellow"
	ColorPurple Color = "Purple"
	ColorOrange Color = "Orange"
	ColorBrown  Color = "Brown"
	ColorPink   Color = "Pink"
	ColorGray   Color = "Gray"
)

// BrushSize is the categorical brush width.
type BrushSize string

const (
	BrushSmall  BrushSize = "Small"
	BrushMedium BrushSize = "Medium"
	BrushLarge  BrushSize = "Large"
)

// Player is one room member.
type Player struct {
	ID           uuid.UUID   `json:"id"`
	Username     string      `json:"username"`
	Score        int         `json:"score"`
	State        PlayerState `json:"state"`
	IsConnected  bool        `json:"is_connected"`
	IsDrawing    bool        `json:"is_drawing"`
	JoinedAt     time.Time   `json:"joined_at"`
	ArtistStreak int         `json:"artist_streak"`
}

// DrawStroke is one normalized point of a drawing path.
// The timestamp is stamped server-side in unix seconds.
type DrawStroke struct {
	X         float64   `json:"x"`
	Y         float64   `json:"y"`
	Timestamp int64     `json:"timestamp"`
	ColorHex  string    `json:"color"`
	Alpha     float64   `json:"alpha"`
	IsEraser  bool      `json:"is_eraser"`
	BrushPx   int       `json:"brushPx"`
	BrushSize BrushSize `json:"brushSize"`
}

// DrawPath is an ordered stroke sequence attributed to the drawing player.
// The id is the client-supplied path id, reused so re-sent paths replace
// themselves instead of duplicating.
type DrawPath struct {
	ID        uuid.UUID    `json:"id"`
	PlayerID  uuid.UUID    `json:"playerId"`
	Color     Color        `json:"color"`
	ColorHex  string       `json:"colorHex"`
	BrushSize BrushSize    `json:"brushSize"`
	Strokes   []DrawStroke `json:"strokes"`
	CreatedAt time.Time    `json:"createdAt"`
}

// ChatMessage is one line of room chat.
type ChatMessage struct {
	ID            uuid.UUID `json:"id"`
	PlayerID      uuid.UUID `json:"player_id"`
	Username      string    `json:"username"`
	Message       string    `json:"message"`
	Timestamp     time.Time `json:"timestamp"`
	IsWinnersOnly bool      `json:"is_winners_only"`
}

// Guess records one correct guess with its timing metadata.
type Guess struct {
	PlayerID       uuid.UUID `json:"player_id"`
	Username       string    `json:"username"`
	Word           string    `json:"word"`
	Timestamp      time.Time `json:"timestamp"`
	TimeRemaining  int       `json:"time_remaining"`
	NormalizedTime float64   `json:"normalized_time"`
}

// RoundScores is the detailed scoring result for one round.
// ArtistStreak carries the streak value the round was scored with,
// before the post-round update.
type RoundScores struct {
	RoundNumber     int               `json:"round_number"`
	Word            string            `json:"word"`
	GuesserScores   map[uuid.UUID]int `json:"guesser_scores"`
	ArtistScore     int               `json:"artist_score"`
	ArtistStreak    int               `json:"artist_streak"`
	RoundDuration   int               `json:"round_duration"`
	CorrectGuesses  []Guess           `json:"correct_guesses"`
	MedianGuessTime float64           `json:"median_guess_time"`
	FractionGuessed float64           `json:"fraction_guessed"`
}

// Room is the authoritative state of one game session.
type Room struct {
	ID                  uuid.UUID            `json:"id"`
	Code                string               `json:"code"`
	HostID              uuid.UUID            `json:"host_id"`
	Players             map[uuid.UUID]Player `json:"players"`
	CurrentDrawer       *uuid.UUID           `json:"current_drawer"`
	Word                *string              `json:"word"`
	RoundNumber         int                  `json:"round_number"`
	MaxRounds           int                  `json:"max_rounds"`
	CycleNumber         int                  `json:"cycle_number"`
	RoundDuration       int                  `json:"round_duration"`
	GameState           GameState            `json:"game_state"`
	RoundStartTime      *time.Time           `json:"round_start_time"`
	RoundEndTime        *time.Time           `json:"round_end_time"`
	DrawingPaths        []DrawPath           `json:"drawing_paths"`
	ChatMessages        []ChatMessage        `json:"chat_messages"`
	CurrentRoundGuesses []Guess              `json:"current_round_guesses"`
	Winners             []uuid.UUID          `json:"winners"`
	MaxPlayers          int                  `json:"max_players"`
	CreatedAt           time.Time            `json:"created_at"`
	UpdatedAt           time.Time            `json:"updated_at"`
}

// FrontendDrawStroke is the raw stroke shape sent by the browser client.
type FrontendDrawStroke struct {
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Color     string  `json:"color"`
	BrushSize int     `json:"brush_size"`
	Alpha     float64 `json:"alpha"`
	IsEraser  bool    `json:"is_eraser"`
	BrushPx   int     `json:"brush_px"`
}

// FrontendDrawPath is the raw path shape sent by the browser client.
type FrontendDrawPath struct {
	ID      string               `json:"id"`
	Strokes []FrontendDrawStroke `json:"strokes"`
}
