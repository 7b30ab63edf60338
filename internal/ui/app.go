package ui

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/ts3view/internal/logtail"
	"github.com/five82/ts3view/internal/prefs"
	"github.com/five82/ts3view/internal/state"
)

// View represents the current active view.
type View int

const (
	ViewTree View = iota
	ViewLogs
)

// Options configures the UI.
type Options struct {
	Store     *state.Store
	Refresh   func() // requests an immediate render; may be nil
	PollTick  time.Duration
	Prefs     prefs.Prefs
	PrefsPath string
	LogPath   string
	Source    string // shown while connecting
}

// Model is the root application state for Bubble Tea.
type Model struct {
	// Configuration
	store     *state.Store
	refresh   func()
	prefsPath string
	pollTick  time.Duration
	logPath   string
	source    string

	// UI state
	theme       Theme
	prefs       prefs.Prefs
	keys        keyMap
	currentView View
	width       int
	height      int
	ready       bool
	showHelp    bool
	statusMsg   string

	// Data state
	snapshot state.Snapshot
	lines    []treeLine

	// Tree state
	treeViewport viewport.Model
	searching    bool
	searchInput  textinput.Model
	searchQuery  string
	matches      []int // indexes into lines
	matchIdx     int

	// Log state
	logViewport   viewport.Model
	logEntries    []logtail.Entry
	logErrorsOnly bool
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	pollTick := opts.PollTick
	if pollTick <= 0 {
		pollTick = DefaultUIInterval
	}

	p := opts.Prefs
	if strings.TrimSpace(p.Theme) == "" {
		p.Theme = prefs.Defaults().Theme
	}

	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}

	ti := textinput.New()
	ti.Placeholder = "nickname or channel"
	ti.Prompt = ""
	ti.CharLimit = 64

	return Model{
		store:       opts.Store,
		refresh:     opts.Refresh,
		prefsPath:   prefsPath,
		pollTick:    pollTick,
		logPath:     opts.LogPath,
		source:      opts.Source,
		theme:       GetTheme(p.Theme),
		prefs:       p,
		keys:        DefaultKeyMap(),
		currentView: ViewTree,
		searchInput: ti,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{tickCmd(m.pollTick)}
	if m.store != nil {
		cmds = append(cmds, fetchSnapshotCmd(m.store))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if !m.ready {
			m.treeViewport = viewport.New(m.width, m.contentHeight())
			m.logViewport = viewport.New(m.width, m.contentHeight())
			m.ready = true
		} else {
			m.treeViewport.Width, m.treeViewport.Height = m.width, m.contentHeight()
			m.logViewport.Width, m.logViewport.Height = m.width, m.contentHeight()
		}
		m.updateTreeViewport()
		m.updateLogViewport()
		return m, nil

	case tickMsg:
		return m.handleTick()

	case snapshotMsg:
		m.snapshot = state.Snapshot(msg)
		m.updateTreeViewport()
		return m, nil

	case logLinesMsg:
		m.logEntries = msg.entries
		if msg.err != nil {
			m.statusMsg = "log: " + msg.err.Error()
		}
		m.updateLogViewport()
		return m, nil
	}

	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderCommandBar())
	b.WriteString("\n")
	switch m.currentView {
	case ViewLogs:
		b.WriteString(m.logViewport.View())
	default:
		b.WriteString(m.treeViewport.View())
	}
	return b.String()
}

// contentHeight is the space left below the header and command bar.
func (m Model) contentHeight() int {
	return maxInt(m.height-2, 1)
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		// Any key closes help
		m.showHelp = false
		return m, nil
	}
	if m.searching {
		return m.handleSearchKey(msg)
	}

	m.statusMsg = ""
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.prefs.Theme = m.theme.Name
		m.savePrefs()
		m.updateTreeViewport()
		m.updateLogViewport()
		return m, nil

	case key.Matches(msg, m.keys.Refresh):
		if m.refresh != nil {
			m.refresh()
			m.statusMsg = "refreshing..."
		}
		if m.currentView == ViewLogs {
			return m, loadLogCmd(m.logPath)
		}
		return m, nil

	case key.Matches(msg, m.keys.ViewTree):
		m.currentView = ViewTree
		return m, nil

	case key.Matches(msg, m.keys.ViewLogs):
		m.currentView = ViewLogs
		return m, loadLogCmd(m.logPath)

	case key.Matches(msg, m.keys.Escape):
		if m.currentView == ViewLogs {
			m.currentView = ViewTree
			return m, nil
		}
		m.clearSearch()
		m.updateTreeViewport()
		return m, nil
	}

	switch m.currentView {
	case ViewLogs:
		return m.handleLogsKey(msg)
	default:
		return m.handleTreeKey(msg)
	}
}

// handleTreeKey processes keys that only apply to the tree view.
func (m Model) handleTreeKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.ToggleIDs):
		m.prefs.ShowIDs = !m.prefs.ShowIDs
		m.savePrefs()
		m.updateTreeViewport()
		return m, nil

	case key.Matches(msg, m.keys.ToggleCompact):
		m.prefs.Compact = !m.prefs.Compact
		m.savePrefs()
		m.updateTreeViewport()
		return m, nil

	case key.Matches(msg, m.keys.Search):
		m.searching = true
		m.searchInput.SetValue(m.searchQuery)
		m.searchInput.CursorEnd()
		return m, m.searchInput.Focus()

	case key.Matches(msg, m.keys.NextMatch):
		m.stepMatch(1)
		return m, nil

	case key.Matches(msg, m.keys.PrevMatch):
		m.stepMatch(-1)
		return m, nil
	}

	m.treeViewport = scroll(m.treeViewport, msg, m.keys)
	return m, nil
}

// handleSearchKey feeds the search input until it is confirmed or dismissed.
func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Confirm):
		m.searching = false
		m.searchInput.Blur()
		m.searchQuery = strings.TrimSpace(m.searchInput.Value())
		m.matchIdx = 0
		m.updateTreeViewport()
		m.jumpToMatch()
		if m.searchQuery != "" && len(m.matches) == 0 {
			m.statusMsg = "no match for " + m.searchQuery
		}
		return m, nil
	case msg.Type == tea.KeyEsc || msg.Type == tea.KeyCtrlC:
		m.searching = false
		m.searchInput.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	return m, cmd
}

func (m *Model) clearSearch() {
	m.searchQuery = ""
	m.matches = nil
	m.matchIdx = 0
}

func (m *Model) stepMatch(delta int) {
	if len(m.matches) == 0 {
		return
	}
	m.matchIdx = (m.matchIdx + delta + len(m.matches)) % len(m.matches)
	m.updateTreeViewport()
	m.jumpToMatch()
}

func (m *Model) jumpToMatch() {
	if len(m.matches) == 0 {
		return
	}
	line := m.matches[m.matchIdx]
	if line < m.treeViewport.YOffset || line >= m.treeViewport.YOffset+m.treeViewport.Height {
		m.treeViewport.SetYOffset(maxInt(line-m.treeViewport.Height/2, 0))
	}
}

func (m Model) savePrefs() {
	if m.prefsPath == "" {
		return
	}
	_ = prefs.Save(m.prefsPath, m.prefs)
}

// handleTick processes the refresh tick.
func (m Model) handleTick() (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	if m.store != nil {
		cmds = append(cmds, fetchSnapshotCmd(m.store))
	}
	cmds = append(cmds, tickCmd(m.pollTick))
	return m, tea.Batch(cmds...)
}

// scroll applies the shared navigation bindings to a viewport.
func scroll(vp viewport.Model, msg tea.KeyMsg, keys keyMap) viewport.Model {
	switch {
	case key.Matches(msg, keys.Up):
		vp.LineUp(1)
	case key.Matches(msg, keys.Down):
		vp.LineDown(1)
	case key.Matches(msg, keys.Top):
		vp.GotoTop()
	case key.Matches(msg, keys.Bottom):
		vp.GotoBottom()
	case key.Matches(msg, keys.HalfPageUp):
		vp.HalfViewUp()
	case key.Matches(msg, keys.HalfPageDown):
		vp.HalfViewDown()
	}
	return vp
}

// Messages

type tickMsg time.Time

type snapshotMsg state.Snapshot

type logLinesMsg struct {
	entries []logtail.Entry
	err     error
}

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func fetchSnapshotCmd(store *state.Store) tea.Cmd {
	return func() tea.Msg {
		return snapshotMsg(store.Snapshot())
	}
}

func loadLogCmd(path string) tea.Cmd {
	return func() tea.Msg {
		if path == "" {
			return logLinesMsg{}
		}
		lines, err := logtail.Read(path, LogTailLines)
		entries := make([]logtail.Entry, 0, len(lines))
		for _, line := range lines {
			entries = append(entries, logtail.ParseLine(line))
		}
		return logLinesMsg{entries: entries, err: err}
	}
}

// Run starts the Bubble Tea program and blocks until the user quits.
func Run(opts Options) error {
	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
