// internal/tui/browser.go
// Package tui provides the interactive results browser.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mwiater/edgebench/internal/benchmark"
	"github.com/mwiater/edgebench/internal/logging"
	"github.com/mwiater/edgebench/internal/report"
)

// Options configures the browser.
type Options struct {
	Store  *benchmark.Store
	Runner *benchmark.Runner
	// Spec is the run-set started by the run key.
	Spec benchmark.RunSpec
}

// model is the Bubble Tea model of the results browser.
type model struct {
	ctx       context.Context
	store     *benchmark.Store
	runner    *benchmark.Runner
	spec      benchmark.RunSpec
	keys      keyMap
	help      help.Model
	spinner   spinner.Model
	progress  progress.Model
	viewport  viewport.Model
	cursor    int
	footer    string
	err       error
	cancelRun context.CancelFunc
	width     int
	height    int
}

// runDoneMsg is sent when a run-set started from the browser finishes.
type runDoneMsg struct {
	id  string
	err error
}

// tickMsg drives progress polling while a run-set is active.
type tickMsg time.Time

var (
	headerStyle = lipgloss.NewStyle().Background(lipgloss.Color("62")).Foreground(lipgloss.Color("230")).Padding(0, 1)
	cursorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	footerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

func initialModel(ctx context.Context, opts Options) *model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return &model{
		ctx:      ctx,
		store:    opts.Store,
		runner:   opts.Runner,
		spec:     opts.Spec,
		keys:     defaultKeyMap(),
		help:     help.New(),
		spinner:  s,
		progress: progress.New(progress.WithDefaultGradient()),
		viewport: viewport.New(100, 20),
	}
}

// Run starts the browser and blocks until the user quits.
func Run(ctx context.Context, opts Options) error {
	if opts.Store == nil {
		return errors.New("results browser requires a store")
	}
	m := initialModel(ctx, opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if m.cancelRun != nil {
		m.cancelRun()
	}
	return err
}

func runCmd(ctx context.Context, runner *benchmark.Runner, spec benchmark.RunSpec) tea.Cmd {
	return func() tea.Msg {
		id, err := runner.Run(ctx, spec)
		return runDoneMsg{id: id, err: err}
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Millisecond*100, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Init implements tea.Model.
func (m *model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.viewport.Width = msg.Width
		m.viewport.Height = max(msg.Height-6, 1)
		m.progress.Width = max(msg.Width-30, 10)
		m.help.Width = msg.Width
		return m, nil

	case tickMsg:
		if m.cancelRun != nil {
			return m, tickCmd()
		}
		return m, nil

	case spinner.TickMsg:
		if m.cancelRun == nil {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case runDoneMsg:
		if m.cancelRun != nil {
			m.cancelRun()
			m.cancelRun = nil
		}
		if msg.err != nil {
			m.err = msg.err
			m.footer = ""
			logging.LogError("Benchmark run from browser failed: %v", msg.err)
			return m, nil
		}
		m.err = nil
		m.cursor = 0
		m.footer = fmt.Sprintf("Stored result %s", report.ShortID(msg.id))
		return m, nil

	case tea.KeyMsg:
		if cmd, handled := m.handleKey(msg); handled {
			return m, cmd
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m *model) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		if m.cancelRun != nil {
			m.cancelRun()
		}
		return tea.Quit, true
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return nil, true
	case key.Matches(msg, m.keys.Cancel):
		if m.cancelRun != nil {
			m.cancelRun()
			m.footer = "Cancelling run..."
		}
		return nil, true
	case key.Matches(msg, m.keys.Run):
		return m.startRun(), true
	}

	results := m.store.Results()
	if len(results) == 0 {
		return nil, false
	}
	m.cursor = max(0, min(m.cursor, len(results)-1))
	current := results[m.cursor]

	switch {
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(results)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Toggle):
		m.store.SetExpanded(current.ID, !current.Expanded)
	case key.Matches(msg, m.keys.BasicInfo):
		m.store.SetBasicInfoExpanded(current.ID, !current.BasicInfoExpanded)
	case key.Matches(msg, m.keys.Stats):
		m.store.SetStatsExpanded(current.ID, !current.StatsExpanded)
	case key.Matches(msg, m.keys.ExpandAll):
		m.store.ExpandAll()
	case key.Matches(msg, m.keys.CollapseAll):
		m.store.CollapseAll()
	case key.Matches(msg, m.keys.Baseline):
		m.store.SetBaseline(current.ID)
	case key.Matches(msg, m.keys.Aggregation):
		m.store.SetAggregation(current.ID, current.Aggregation.Next())
	case key.Matches(msg, m.keys.AggAll):
		m.store.SetAggregationAll(current.Aggregation.Next())
	case key.Matches(msg, m.keys.Delete):
		if m.cancelRun != nil {
			m.footer = "Cannot delete while a run is in progress"
			return nil, true
		}
		m.store.DeleteResult(current.ID)
		m.footer = fmt.Sprintf("Deleted %s", report.ShortID(current.ID))
		if m.cursor >= m.store.Len() && m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.CSV):
		out, err := benchmark.CSV(current.Result, current.Aggregation)
		if err != nil {
			m.err = err
			return nil, true
		}
		m.footer = out
	default:
		return nil, false
	}
	return nil, true
}

func (m *model) startRun() tea.Cmd {
	if m.cancelRun != nil {
		m.footer = "A run is already in progress"
		return nil
	}
	if m.runner == nil {
		m.footer = "Running is not available"
		return nil
	}
	if strings.TrimSpace(m.spec.ModelName) == "" {
		m.footer = "No model configured; start the browser with --model"
		return nil
	}
	if err := m.spec.Validate(); err != nil {
		m.err = err
		return nil
	}
	ctx, cancel := context.WithCancel(m.ctx)
	m.cancelRun = cancel
	m.err = nil
	m.footer = fmt.Sprintf("Running %s...", m.spec.ModelName)
	return tea.Batch(m.spinner.Tick, runCmd(ctx, m.runner, m.spec), tickCmd())
}

// View implements tea.Model.
func (m *model) View() string {
	var b strings.Builder
	snap := m.store.Snapshot()

	title := fmt.Sprintf("edgebench results (%d)", len(snap.Results))
	if snap.Baseline != nil {
		title += fmt.Sprintf("  baseline: %s %s", snap.Baseline.Result.BasicInfo.ModelName, report.ShortID(snap.Baseline.ID))
	}
	b.WriteString(headerStyle.Render(title))
	b.WriteString("\n")

	if snap.Running {
		pct := 0.0
		if snap.TotalRunCount > 0 {
			pct = float64(snap.CompletedRunCount) / float64(snap.TotalRunCount)
		}
		fmt.Fprintf(&b, "%s Run %d/%d %s\n", m.spinner.View(), snap.CompletedRunCount, snap.TotalRunCount, m.progress.ViewAs(pct))
	}

	m.viewport.SetContent(m.renderResults(snap))
	b.WriteString(m.viewport.View())
	b.WriteString("\n")

	if m.err != nil {
		b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		b.WriteString("\n")
	}
	if m.footer != "" {
		b.WriteString(footerStyle.Render(m.footer))
		b.WriteString("\n")
	}
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m *model) renderResults(snap benchmark.State) string {
	if len(snap.Results) == 0 {
		return "\n  No benchmark results yet. Press r to run one.\n"
	}
	var b strings.Builder
	for i, ri := range snap.Results {
		marker := "  "
		if i == m.cursor {
			marker = cursorStyle.Render("> ")
		}
		card := report.Detail(ri, snap.Baseline)
		lines := strings.Split(strings.TrimRight(card, "\n"), "\n")
		for j, line := range lines {
			if j == 0 {
				b.WriteString(marker + line + "\n")
				continue
			}
			b.WriteString("  " + line + "\n")
		}
	}
	return b.String()
}
