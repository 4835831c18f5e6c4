package monitor

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/gorilla/websocket"

	"github.com/lox/meridian/internal/protocol"
	"github.com/lox/meridian/internal/room"
)

const pollInterval = 500 * time.Millisecond

// statsMsg carries a freshly polled /stats snapshot, or the error from
// fetching it, into the bubbletea update loop.
type statsMsg struct {
	stats room.Stats
	err   error
}

// frameMsg carries one spectator-feed websocket frame's message type into
// the update loop.
type frameMsg struct {
	kind string
	err  error
}

// SpectatorModel is a read-only bubbletea dashboard over a running room
// server: it polls /stats for headline numbers and joins the room's
// WebSocket endpoint purely to log traffic, the way the teacher's TUIModel
// drives a log viewport from game events.
type SpectatorModel struct {
	httpAddr string
	wsAddr   string
	client   *http.Client
	conn     *websocket.Conn

	stats    room.Stats
	lastErr  error
	feed     []string
	feedView viewport.Model

	width, height int
	quitting      bool
	plain         bool
}

// NewSpectatorModel builds a spectator model pointed at a room server's
// HTTP address (e.g. "localhost:8080"); the WebSocket feed is derived from
// the same host.
func NewSpectatorModel(httpAddr string) *SpectatorModel {
	vp := viewport.New(10, 5)
	return &SpectatorModel{
		httpAddr: httpAddr,
		wsAddr:   "ws://" + httpAddr + "/ws",
		client:   &http.Client{Timeout: 2 * time.Second},
		feedView: vp,
		plain:    !SupportsColor(),
	}
}

func (m *SpectatorModel) Init() tea.Cmd {
	return tea.Batch(m.pollStats(), m.dialFeed(), tea.EnterAltScreen)
}

func (m *SpectatorModel) pollStats() tea.Cmd {
	return tea.Tick(pollInterval, func(time.Time) tea.Msg {
		resp, err := m.client.Get("http://" + m.httpAddr + "/stats")
		if err != nil {
			return statsMsg{err: err}
		}
		defer resp.Body.Close()
		var s room.Stats
		if err := json.NewDecoder(resp.Body).Decode(&s); err != nil {
			return statsMsg{err: err}
		}
		return statsMsg{stats: s}
	})
}

func (m *SpectatorModel) dialFeed() tea.Cmd {
	return func() tea.Msg {
		conn, _, err := websocket.DefaultDialer.Dial(m.wsAddr, nil)
		if err != nil {
			return frameMsg{err: err}
		}
		m.conn = conn
		return m.readFrame()()
	}
}

func (m *SpectatorModel) readFrame() tea.Cmd {
	return func() tea.Msg {
		if m.conn == nil {
			return frameMsg{err: fmt.Errorf("spectator: no feed connection")}
		}
		_, data, err := m.conn.ReadMessage()
		if err != nil {
			return frameMsg{err: err}
		}
		t, err := protocol.PeekType(data)
		if err != nil {
			return frameMsg{kind: "?"}
		}
		return frameMsg{kind: string(t)}
	}
}

func (m *SpectatorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.feedView.Width = m.width - 2
		m.feedView.Height = m.height - 6

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			m.quitting = true
			if m.conn != nil {
				m.conn.Close()
			}
			return m, tea.Quit
		}

	case statsMsg:
		if msg.err != nil {
			m.lastErr = msg.err
		} else {
			m.lastErr = nil
			m.stats = msg.stats
		}
		return m, m.pollStats()

	case frameMsg:
		if msg.err != nil {
			m.appendFeed(fmt.Sprintf("feed closed: %v", msg.err))
			return m, nil
		}
		m.appendFeed(msg.kind)
		return m, m.readFrame()
	}

	var cmd tea.Cmd
	m.feedView, cmd = m.feedView.Update(msg)
	return m, cmd
}

func (m *SpectatorModel) appendFeed(line string) {
	stamp := time.Now().Format("15:04:05.000")
	m.feed = append(m.feed, fmt.Sprintf("%s  %s", stamp, line))
	if len(m.feed) > 500 {
		m.feed = m.feed[len(m.feed)-500:]
	}
	m.feedView.SetContent(strings.Join(m.feed, "\n"))
	m.feedView.GotoBottom()
}

func (m *SpectatorModel) View() string {
	if m.quitting {
		return ""
	}
	if m.width == 0 {
		return "connecting..."
	}

	header := fmt.Sprintf(" meridian monitor — %s ", m.httpAddr)
	if !m.plain {
		header = HeaderStyle.Render(header)
	}

	statLine := func(label string, value string) string {
		if m.plain {
			return label + ": " + value
		}
		return LabelStyle.Render(label+": ") + ValueStyle.Render(value)
	}

	var errLine string
	switch {
	case m.lastErr != nil && m.plain:
		errLine = "stats unavailable: " + m.lastErr.Error()
	case m.lastErr != nil:
		errLine = ErrStyle.Render("stats unavailable: " + m.lastErr.Error())
	case m.plain:
		errLine = "stats ok"
	default:
		errLine = GoodStyle.Render("stats ok")
	}

	stats := lipgloss.JoinHorizontal(lipgloss.Top,
		statLine("connections", fmt.Sprintf("%d", m.stats.ConnectionCount))+"   ",
		statLine("host", m.stats.HostID)+"   ",
		statLine("terrain v", fmt.Sprintf("%d", m.stats.TerrainVersion))+"   ",
		statLine("actors", fmt.Sprintf("%d", m.stats.ActorCount))+"   ",
		statLine("snapshot seq", fmt.Sprintf("%d", m.stats.SnapshotSeq)),
	)

	feedBox := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#626262")).
		Width(m.width - 2).
		Height(m.height - 6).
		Render(m.feedView.View())

	return lipgloss.JoinVertical(lipgloss.Top,
		header,
		stats,
		errLine,
		feedBox,
		InfoStyle.Render("q / ctrl+c to quit"),
	)
}
