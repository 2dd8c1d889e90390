package config

import "time"

// Settings is the unified, format-agnostic representation of the settings
// files.
type Settings struct {
	Runner   Runner
	Gates    map[string]int
	HTTP     HTTP
	SocketIO SocketIO
}

// Runner holds execution settings. Zero values mean "not set" and leave the
// CLI defaults in place.
type Runner struct {
	Suite              string
	Workers            int
	UnimplementedFatal bool
	MatchTimeout       time.Duration
}

// HTTP holds defaults for the HTTP step library.
type HTTP struct {
	BaseURL string
	Timeout time.Duration
}

// SocketIO holds defaults for the socket.io step library.
type SocketIO struct {
	URL                string
	Namespace          string
	InsecureSkipVerify bool
	ConnectTimeout     time.Duration
}

// New returns empty settings.
func New() *Settings {
	return &Settings{Gates: make(map[string]int)}
}
