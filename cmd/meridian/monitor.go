package main

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/lox/meridian/internal/monitor"
)

// MonitorCmd attaches a read-only spectator dashboard to a running room
// server: connection/actor counts from /stats, plus a live feed of
// message types observed over the room's WebSocket endpoint.
type MonitorCmd struct {
	Addr string `kong:"default='localhost:8080',help='Room server HTTP address (host:port, no scheme)'"`
}

func (c *MonitorCmd) Run() error {
	p := tea.NewProgram(monitor.NewSpectatorModel(c.Addr), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// AdminCmd attaches an operator REPL to a running room server, for
// checking health and stats without a browser or curl one-liners.
type AdminCmd struct {
	Addr string `kong:"default='localhost:8080',help='Room server HTTP address (host:port, no scheme)'"`
}

func (c *AdminCmd) Run() error {
	a, err := monitor.NewAdmin(c.Addr)
	if err != nil {
		return err
	}
	defer a.Close()
	return a.Run()
}
