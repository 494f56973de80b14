// Package player provides a secure interface for launching media players.
// All player invocations use exec.CommandContext with explicit argument
// slices, so stream URLs and titles never pass through a shell.
package player

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"unity/internal/media"
)

// Request describes one playback.
type Request struct {
	Stream   media.StreamDescriptor
	Title    string
	Referer  string  // sent as HTTP Referer by players that support it
	StartPos float64 // seconds
}

// Player is the interface for media player implementations.
type Player interface {
	// Play starts playback and blocks until the player exits. Returns the
	// last playback position when the player reports one.
	Play(ctx context.Context, req Request) (float64, error)

	// Name returns the player name.
	Name() string

	// Available checks if the player binary exists in PATH.
	Available() bool
}

// New creates a player by name.
func New(name string) Player {
	switch strings.ToLower(name) {
	case "mpv":
		return &MPV{}
	case "vlc":
		return &VLC{}
	case "iina", "celluloid":
		return &Generic{name: strings.ToLower(name)}
	default:
		return &MPV{} // Default to mpv
	}
}

// FormatDuration formats seconds as H:MM:SS or M:SS.
func FormatDuration(seconds float64) string {
	s := int(seconds)
	h := s / 3600
	m := (s % 3600) / 60
	sec := s % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, sec)
	}
	return fmt.Sprintf("%d:%02d", m, sec)
}

// ParseDuration parses HH:MM:SS, MM:SS or plain seconds.
func ParseDuration(s string) float64 {
	parts := strings.Split(s, ":")
	switch len(parts) {
	case 3:
		h, _ := strconv.ParseFloat(parts[0], 64)
		m, _ := strconv.ParseFloat(parts[1], 64)
		sec, _ := strconv.ParseFloat(parts[2], 64)
		return h*3600 + m*60 + sec
	case 2:
		m, _ := strconv.ParseFloat(parts[0], 64)
		sec, _ := strconv.ParseFloat(parts[1], 64)
		return m*60 + sec
	default:
		v, _ := strconv.ParseFloat(s, 64)
		return v
	}
}
