package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"weavectl/internal/app"
	"weavectl/internal/console"
	"weavectl/internal/eventbus"
	"weavectl/internal/model"
)

const (
	rpcTimeout      = 4 * time.Second
	maxConsoleLines = 500
)

// Controller defines the subset of app.App behaviour the TUI needs.
type Controller interface {
	Status() (app.DaemonStatus, error)
	StartDaemon() (*app.DaemonHandle, error)
	WaitReady(context.Context, time.Duration) error
	Scan(context.Context, time.Duration) ([]model.ProcessRecord, error)
	Focus(context.Context, uint32, time.Duration) error
	Kill(context.Context, app.KillParams) (app.KillResult, error)
	Follow(context.Context, time.Duration, func(eventbus.Event) error) error
}

// Model represents the Bubble Tea state.
type Model struct {
	controller Controller

	list    list.Model
	records []model.ProcessRecord
	focused uint32

	console      viewport.Model
	consoleLines []string

	events       chan tea.Msg
	cancelFollow context.CancelFunc
	handle       *app.DaemonHandle

	daemonStatus app.DaemonStatus
	statusMsg    string

	err     error
	loading bool

	width  int
	height int

	lastUpdated time.Time
}

// New constructs a TUI model with default styles.
func New(ctrl Controller) *Model {
	delegate := list.NewDefaultDelegate()
	lst := list.New([]list.Item{}, delegate, 0, 0)
	lst.Title = "Clients"
	lst.SetShowHelp(false)
	lst.SetFilteringEnabled(false)
	lst.DisableQuitKeybindings()

	return &Model{
		controller: ctrl,
		list:       lst,
		console:    viewport.New(0, 0),
		statusMsg:  "Checking daemon status…",
		loading:    true,
	}
}

// Run spins up the Bubble Tea program with sensible defaults.
func Run(ctrl Controller) error {
	m := New(ctrl)
	prog := tea.NewProgram(m, tea.WithAltScreen())
	_, err := prog.Run()
	m.shutdown()
	return err
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(checkDaemonStatusCmd(m.controller), scanCmd(m.controller))
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.height > 8 {
			listHeight := (m.height - 6) / 2
			m.list.SetSize(msg.Width, listHeight)
			m.console.Width = msg.Width - 2
			m.console.Height = m.height - 6 - listHeight
		}

	case daemonStatusMsg:
		m.daemonStatus = msg.status
		if msg.status.Running {
			if msg.status.PID > 0 {
				m.statusMsg = fmt.Sprintf("Daemon running (pid %d).", msg.status.PID)
			} else {
				m.statusMsg = "Daemon running."
			}
			return m, m.startFollow()
		}
		m.statusMsg = "Daemon is not running. Press s to start it."
		m.records = nil
		m.list.SetItems(nil)

	case scannedMsg:
		m.loading = false
		m.err = nil
		m.setRecords(msg.records)
		m.lastUpdated = time.Now()

	case daemonStartedMsg:
		m.handle = msg.handle
		m.statusMsg = "Daemon started."
		return m, tea.Batch(checkDaemonStatusCmd(m.controller), scanCmd(m.controller))

	case focusedMsg:
		m.focused = msg.pid
		m.setRecords(m.records)
		m.statusMsg = fmt.Sprintf("Following console of pid %d.", msg.pid)

	case killedMsg:
		switch ev := msg.result.Events[0]; ev.Kind {
		case "success":
			m.statusMsg = fmt.Sprintf("Killed pid %d.", msg.pid)
		case "not_found":
			m.statusMsg = fmt.Sprintf("pid %d is gone; rescanning.", msg.pid)
		default:
			m.err = ev.Err
		}
		return m, scanCmd(m.controller)

	case eventMsg:
		return m, m.handleEvent(eventbus.Event(msg))

	case followEndedMsg:
		m.events = nil
		m.cancelFollow = nil
		if errors.Is(msg.err, app.ErrEventsLagged) {
			m.appendConsole("-- console fell behind, some lines were dropped")
			return m, m.startFollow()
		}
		if msg.err != nil {
			m.err = msg.err
		}

	case errMsg:
		m.loading = false
		m.err = msg.err

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.shutdown()
			return m, tea.Quit
		case "r":
			m.loading = true
			return m, scanCmd(m.controller)
		case "s":
			if !m.daemonStatus.Running {
				m.statusMsg = "Starting daemon…"
				return m, startDaemonCmd(m.controller)
			}
		case "f":
			if rec := m.currentRecord(); rec != nil {
				return m, focusCmd(m.controller, rec.PID)
			}
		case "x":
			if rec := m.currentRecord(); rec != nil {
				m.statusMsg = fmt.Sprintf("Killing pid %d…", rec.PID)
				return m, killCmd(m.controller, rec.PID)
			}
		case "c":
			m.consoleLines = nil
			m.console.SetContent("")
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m *Model) handleEvent(ev eventbus.Event) tea.Cmd {
	next := waitForMsg(m.events)
	switch ev.Type {
	case eventbus.EventConsoleLine:
		m.appendConsole(console.Sanitize(ev.Line))
	case eventbus.EventInstanceLaunched:
		m.appendConsole(fmt.Sprintf("-- launched %s pid=%d", ev.Client, ev.PID))
		return tea.Batch(next, scanCmd(m.controller))
	case eventbus.EventInstanceExited:
		m.appendConsole(fmt.Sprintf("-- pid=%d exited with code %d", ev.PID, ev.ExitCode))
		return tea.Batch(next, scanCmd(m.controller))
	case eventbus.EventProcessDiscovered:
		if !m.hasRecord(ev.PID) {
			return tea.Batch(next, scanCmd(m.controller))
		}
	}
	return next
}

func (m *Model) appendConsole(line string) {
	m.consoleLines = append(m.consoleLines, line)
	if over := len(m.consoleLines) - maxConsoleLines; over > 0 {
		m.consoleLines = m.consoleLines[over:]
	}
	m.console.SetContent(strings.Join(m.consoleLines, "\n"))
	m.console.GotoBottom()
}

// startFollow subscribes to daemon events once; messages are pumped through
// m.events so Update stays single-threaded.
func (m *Model) startFollow() tea.Cmd {
	if m.events != nil {
		return nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan tea.Msg, 64)
	m.events = ch
	m.cancelFollow = cancel
	ctrl := m.controller
	go func() {
		err := ctrl.Follow(ctx, rpcTimeout, func(ev eventbus.Event) error {
			select {
			case ch <- eventMsg(ev):
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
		if ctx.Err() != nil {
			err = nil
		}
		select {
		case ch <- followEndedMsg{err: err}:
		case <-ctx.Done():
		}
	}()
	return waitForMsg(ch)
}

func (m *Model) shutdown() {
	if m.cancelFollow != nil {
		m.cancelFollow()
		m.cancelFollow = nil
	}
	if m.handle != nil {
		m.handle.Close()
		m.handle = nil
	}
}

// View implements tea.Model.
func (m *Model) View() string {
	var b strings.Builder

	statusStyle := lipgloss.NewStyle().Bold(true)
	if !m.daemonStatus.Running {
		statusStyle = statusStyle.Foreground(lipgloss.Color("203"))
	} else {
		statusStyle = statusStyle.Foreground(lipgloss.Color("42"))
	}
	b.WriteString(statusStyle.Render(m.statusMsg))
	b.WriteByte('\n')

	if m.loading {
		b.WriteString("Scanning…\n")
	} else if m.err != nil {
		errStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
		b.WriteString(errStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		b.WriteByte('\n')
	}

	if len(m.list.Items()) == 0 && !m.loading && m.err == nil && m.daemonStatus.Running {
		b.WriteString("No clients found.\n")
	} else {
		b.WriteString(m.list.View())
		b.WriteByte('\n')
	}

	title := "Console"
	if m.focused != 0 {
		title = fmt.Sprintf("Console (pid %d)", m.focused)
	}
	consoleStyle := lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	b.WriteString(lipgloss.NewStyle().Bold(true).Render(title))
	b.WriteByte('\n')
	b.WriteString(consoleStyle.Render(m.console.View()))
	b.WriteByte('\n')

	help := "Commands: q quit • r rescan • s start daemon • f focus • x kill • c clear console"
	if !m.lastUpdated.IsZero() {
		help += fmt.Sprintf(" • last scan %s", m.lastUpdated.Format(time.Kitchen))
	}
	helpStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	b.WriteString(helpStyle.Render(help))

	return b.String()
}

// recordItem adapts model.ProcessRecord to the bubbles list item interface.
type recordItem struct {
	Record  model.ProcessRecord
	Focused bool
}

func (p recordItem) Title() string {
	mark := " "
	if p.Focused {
		mark = "▶"
	}
	agent := ""
	if p.Record.AgentAttached {
		agent = " +weave"
	}
	return fmt.Sprintf("[%s] pid=%d %s %s%s", mark, p.Record.PID, p.Record.Info.Client, p.Record.Info.Version, agent)
}

func (p recordItem) Description() string {
	return fmt.Sprintf("cwd=%s | cmd=%s", valueOrDash(p.Record.Info.Cwd), strings.Join(p.Record.Info.Cmd, " "))
}

func (p recordItem) FilterValue() string {
	return fmt.Sprintf("%d %s %s", p.Record.PID, p.Record.Info.Client, p.Record.Info.Version)
}

func (m *Model) setRecords(records []model.ProcessRecord) {
	m.records = records
	items := make([]list.Item, 0, len(records))
	for _, rec := range records {
		items = append(items, recordItem{Record: rec, Focused: rec.PID == m.focused})
	}
	m.list.SetItems(items)
}

func (m *Model) hasRecord(pid uint32) bool {
	for _, rec := range m.records {
		if rec.PID == pid {
			return true
		}
	}
	return false
}

func (m *Model) currentRecord() *model.ProcessRecord {
	if len(m.records) == 0 {
		return nil
	}
	idx := m.list.Index()
	if idx < 0 || idx >= len(m.records) {
		return nil
	}
	return &m.records[idx]
}

func valueOrDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

type daemonStatusMsg struct {
	status app.DaemonStatus
}

type scannedMsg struct {
	records []model.ProcessRecord
}

type daemonStartedMsg struct {
	handle *app.DaemonHandle
}

type focusedMsg struct{ pid uint32 }

type killedMsg struct {
	pid    uint32
	result app.KillResult
}

type eventMsg eventbus.Event

type followEndedMsg struct{ err error }

type errMsg struct{ err error }

func (e errMsg) Error() string { return e.err.Error() }

func waitForMsg(ch <-chan tea.Msg) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		return <-ch
	}
}

func checkDaemonStatusCmd(ctrl Controller) tea.Cmd {
	return func() tea.Msg {
		status, err := ctrl.Status()
		if err != nil {
			return errMsg{err}
		}
		return daemonStatusMsg{status: status}
	}
}

func scanCmd(ctrl Controller) tea.Cmd {
	return func() tea.Msg {
		records, err := ctrl.Scan(context.Background(), rpcTimeout)
		if err != nil {
			return errMsg{err}
		}
		return scannedMsg{records: records}
	}
}

func focusCmd(ctrl Controller, pid uint32) tea.Cmd {
	return func() tea.Msg {
		if err := ctrl.Focus(context.Background(), pid, rpcTimeout); err != nil {
			return errMsg{err}
		}
		return focusedMsg{pid: pid}
	}
}

func killCmd(ctrl Controller, pid uint32) tea.Cmd {
	return func() tea.Msg {
		res, err := ctrl.Kill(context.Background(), app.KillParams{PIDs: []uint32{pid}, Timeout: rpcTimeout})
		if err != nil && len(res.Events) == 0 {
			return errMsg{err}
		}
		return killedMsg{pid: pid, result: res}
	}
}

func startDaemonCmd(ctrl Controller) tea.Cmd {
	return func() tea.Msg {
		handle, err := ctrl.StartDaemon()
		if err != nil {
			return errMsg{err}
		}
		if err := ctrl.WaitReady(context.Background(), 3*time.Second); err != nil {
			handle.Close()
			return errMsg{fmt.Errorf("daemon did not become ready: %w", err)}
		}
		return daemonStartedMsg{handle: handle}
	}
}
