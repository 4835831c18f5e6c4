package monitor

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/chzyer/readline"

	"github.com/lox/meridian/internal/room"
)

// adminCommand is one admin REPL verb, keyed by name with optional
// aliases, mirroring the teacher's Command/HumanInterface command table.
type adminCommand struct {
	Name        string
	Aliases     []string
	Description string
	Handler     func(a *Admin, args []string) error
}

// Admin is a readline-driven operator REPL against a running room
// server's HTTP surface (/health, /stats, /admin/kick). It never joins the
// room as a player; apart from kick, which evicts a connection, it only
// observes.
type Admin struct {
	addr     string
	client   *http.Client
	rl       *readline.Instance
	commands map[string]*adminCommand
}

// NewAdmin builds an admin REPL pointed at a room server's HTTP address.
func NewAdmin(addr string) (*Admin, error) {
	a := &Admin{
		addr:   addr,
		client: &http.Client{Timeout: 2 * time.Second},
	}
	a.initCommands()

	completer := readline.NewPrefixCompleter()
	for name := range a.commands {
		completer.Children = append(completer.Children, readline.PcItem(name))
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "meridian> ",
		HistoryFile:     "/tmp/meridian_admin_history",
		AutoComplete:    completer,
		InterruptPrompt: "^C",
		EOFPrompt:       "quit",
	})
	if err != nil {
		return nil, err
	}
	a.rl = rl
	return a, nil
}

// Close releases the readline terminal state.
func (a *Admin) Close() error {
	return a.rl.Close()
}

func (a *Admin) initCommands() {
	a.commands = map[string]*adminCommand{
		"stats": {
			Name:        "stats",
			Aliases:     []string{"s"},
			Description: "Fetch and print the room's /stats snapshot",
			Handler:     (*Admin).handleStats,
		},
		"health": {
			Name:        "health",
			Aliases:     []string{"h"},
			Description: "Check the room's /health endpoint",
			Handler:     (*Admin).handleHealth,
		},
		"players": {
			Name:        "players",
			Description: "List connected player IDs",
			Handler:     (*Admin).handlePlayers,
		},
		"terrain-version": {
			Name:        "terrain-version",
			Aliases:     []string{"tv"},
			Description: "Print the room's current terrain version",
			Handler:     (*Admin).handleTerrainVersion,
		},
		"kick": {
			Name:        "kick",
			Description: "Evict a connection by ID: kick <connection-id>",
			Handler:     (*Admin).handleKick,
		},
		"help": {
			Name:        "help",
			Aliases:     []string{"?"},
			Description: "List available commands",
			Handler:     (*Admin).handleHelp,
		},
		"quit": {
			Name:        "quit",
			Aliases:     []string{"q", "exit"},
			Description: "Leave the admin console",
			Handler:     (*Admin).handleQuit,
		},
	}
	for _, cmd := range a.commands {
		for _, alias := range cmd.Aliases {
			a.commands[alias] = cmd
		}
	}
}

// errQuit signals the REPL loop to exit cleanly.
var errQuit = fmt.Errorf("meridian: admin quit")

// Run drives the REPL until the operator quits or sends EOF.
func (a *Admin) Run() error {
	for {
		line, err := a.rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		parts := strings.Fields(line)
		cmd, ok := a.commands[parts[0]]
		if !ok {
			fmt.Printf("unknown command: %s (try 'help')\n", parts[0])
			continue
		}
		if err := cmd.Handler(a, parts[1:]); err != nil {
			if err == errQuit {
				return nil
			}
			fmt.Printf("error: %v\n", err)
		}
	}
}

func (a *Admin) handleStats(_ []string) error {
	s, err := a.fetchStats()
	if err != nil {
		return err
	}
	fmt.Printf("connections=%d host=%q terrainVersion=%d actors=%d snapshotSeq=%d\n",
		s.ConnectionCount, s.HostID, s.TerrainVersion, s.ActorCount, s.SnapshotSeq)
	return nil
}

func (a *Admin) handleHealth(_ []string) error {
	resp, err := a.client.Get("http://" + a.addr + "/health")
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	fmt.Printf("health: %s\n", resp.Status)
	return nil
}

func (a *Admin) handlePlayers(_ []string) error {
	s, err := a.fetchStats()
	if err != nil {
		return err
	}
	if len(s.PlayerIDs) == 0 {
		fmt.Println("no players connected")
		return nil
	}
	for _, id := range s.PlayerIDs {
		fmt.Println(" ", id)
	}
	return nil
}

func (a *Admin) handleTerrainVersion(_ []string) error {
	s, err := a.fetchStats()
	if err != nil {
		return err
	}
	fmt.Printf("terrainVersion=%d\n", s.TerrainVersion)
	return nil
}

func (a *Admin) handleKick(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: kick <connection-id>")
	}
	body, _ := json.Marshal(map[string]string{"id": args[0]})
	resp, err := a.client.Post("http://"+a.addr+"/admin/kick", "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("kick failed: %s", resp.Status)
	}
	fmt.Printf("kicked %s\n", args[0])
	return nil
}

func (a *Admin) fetchStats() (room.Stats, error) {
	resp, err := a.client.Get("http://" + a.addr + "/stats")
	if err != nil {
		return room.Stats{}, err
	}
	defer resp.Body.Close()
	var s room.Stats
	if err := json.NewDecoder(resp.Body).Decode(&s); err != nil {
		return room.Stats{}, err
	}
	return s, nil
}

func (a *Admin) handleHelp(_ []string) error {
	fmt.Println("Available commands:")
	for _, name := range []string{"stats", "health", "players", "terrain-version", "kick", "help", "quit"} {
		fmt.Printf("  %-16s - %s\n", name, a.commands[name].Description)
	}
	return nil
}

func (a *Admin) handleQuit(_ []string) error {
	return errQuit
}
