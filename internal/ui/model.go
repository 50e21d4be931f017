// Package ui is the interactive lineage browser. It reads the journal
// once at startup, folds it into a graph, and lets the user walk
// assets, inspect their upstream and downstream edges, and ignore the
// ones reports should skip.
package ui

import (
	"context"
	"time"

	"github.com/DrSkyle/assetline/pkg/asset"
	"github.com/DrSkyle/assetline/pkg/journal"
	"github.com/DrSkyle/assetline/pkg/lineage"
	"github.com/DrSkyle/assetline/pkg/report"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

type ViewState int

const (
	ViewStateList ViewState = iota
	ViewStateDetail
)

type Model struct {
	// core components
	spinner spinner.Model
	journal journal.Journal
	source  string // display label for the journal location

	// state
	state    ViewState
	loading  bool
	quitting bool
	err      error
	width    int
	height   int

	// data
	graph  *lineage.Graph
	items  []*lineage.Node // visible nodes, sorted by key, ignores filtered
	cycle  []asset.Key
	events int

	// ignore persistence
	ignorePath string
	ignored    map[string]bool

	// feedback
	statusMsg  string
	statusTime time.Time

	// navigation
	cursor int
}

type loadedMsg struct {
	events []*lineage.Event
	err    error
}

// NewModel builds the browser over a journal. ignorePath is where the
// 'i' key persists ignored keys.
func NewModel(j journal.Journal, source, ignorePath string) Model {
	s := spinner.New()
	s.Spinner = spinner.Points
	s.Style = special

	return Model{
		spinner:    s,
		journal:    j,
		source:     source,
		loading:    true,
		state:      ViewStateList,
		ignorePath: ignorePath,
		ignored:    map[string]bool{},
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.loadJournal())
}

func (m Model) loadJournal() tea.Cmd {
	return func() tea.Msg {
		events, err := m.journal.ReadAll(context.Background())
		return loadedMsg{events: events, err: err}
	}
}

// refreshData folds events into the graph and rebuilds the visible
// list. The persisted ignore list is re-read so edits made outside the
// browser show up on reload.
func (m *Model) refreshData(events []*lineage.Event) {
	m.graph = lineage.BuildGraph(events)
	m.events = len(events)
	m.cycle = m.graph.FindCycle()

	m.ignored = map[string]bool{}
	if list, err := report.LoadIgnoreList(m.ignorePath); err == nil {
		for _, k := range list.Ignored {
			m.ignored[k] = true
		}
	}

	m.rebuildItems()
}

func (m *Model) rebuildItems() {
	m.items = m.items[:0]
	for _, key := range m.graph.Keys() {
		if m.ignored[key.Redacted()] {
			continue
		}
		m.items = append(m.items, m.graph.Node(key))
	}
	if m.cursor >= len(m.items) {
		m.cursor = len(m.items) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *Model) setStatus(msg string) {
	m.statusMsg = msg
	m.statusTime = time.Now()
}
