package core

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Stunned1/Skribbl-Clone/internal/protocol"
)

// ColorFromHex maps a client color string (hex or name, any case) onto the
// named palette. Unknown values fall back to black.
func ColorFromHex(s string) protocol.Color {
	switch strings.ToLower(s) {
	case "#ff0000", "red":
		return protocol.ColorRed
	case "#00ff00", "green":
		return protocol.ColorGreen
	case "#0000ff", "blue":
		return protocol.ColorBlue
	case "#ffff00", "yellow":
		return protocol.ColorYellow
	case "#800080", "purple":
		return protocol.ColorPurple
	case "#ffa500", "orange":
		return protocol.ColorOrange
	case "#a52a2a", "brown":
		return protocol.ColorBrown
	case "#ffc0cb", "pink":
		return protocol.ColorPink
	case "#808080", "gray":
		return protocol.ColorGray
	default:
		return protocol.ColorBlack
	}
}

// BrushSizeFromPx maps the client's numeric brush size onto the categorical
// scale: 2 is small, 8 is large, anything else medium.
func BrushSizeFromPx(px int) protocol.BrushSize {
	switch px {
	case 2:
		return protocol.BrushSmall
	case 8:
		return protocol.BrushLarge
	default:
		return protocol.BrushMedium
	}
}

// normalizeStroke stamps and converts one client stroke. A zero alpha means
// the client omitted it and full opacity is assumed.
func normalizeStroke(s protocol.FrontendDrawStroke, now time.Time) protocol.DrawStroke {
	alpha := s.Alpha
	if alpha == 0 {
		alpha = 1.0
	}
	return protocol.DrawStroke{
		X:         s.X,
		Y:         s.Y,
		Timestamp: now.Unix(),
		ColorHex:  s.Color,
		Alpha:     alpha,
		IsEraser:  s.IsEraser,
		BrushPx:   s.BrushSize,
		BrushSize: BrushSizeFromPx(s.BrushSize),
	}
}

// normalizePath converts a client path into the stored form, attributed to
// the given drawer. The client's path id is kept when parseable so re-sent
// paths replace themselves; paths without strokes are rejected.
func normalizePath(fp *protocol.FrontendDrawPath, drawer uuid.UUID) (protocol.DrawPath, bool) {
	if fp == nil || len(fp.Strokes) == 0 {
		return protocol.DrawPath{}, false
	}
	id, err := uuid.Parse(fp.ID)
	if err != nil {
		id = uuid.New()
	}
	now := time.Now().UTC()
	strokes := make([]protocol.DrawStroke, len(fp.Strokes))
	for i, s := range fp.Strokes {
		strokes[i] = normalizeStroke(s, now)
	}
	return protocol.DrawPath{
		ID:        id,
		PlayerID:  drawer,
		Color:     ColorFromHex(fp.Strokes[0].Color),
		ColorHex:  fp.Strokes[0].Color,
		BrushSize: BrushSizeFromPx(fp.Strokes[0].BrushSize),
		Strokes:   strokes,
		CreatedAt: now,
	}, true
}
