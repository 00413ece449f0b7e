// internal/tui/keys.go
package tui

import "github.com/charmbracelet/bubbles/key"

// keyMap lists every binding of the results browser.
type keyMap struct {
	Up          key.Binding
	Down        key.Binding
	Toggle      key.Binding
	BasicInfo   key.Binding
	Stats       key.Binding
	ExpandAll   key.Binding
	CollapseAll key.Binding
	Baseline    key.Binding
	Aggregation key.Binding
	AggAll      key.Binding
	Delete      key.Binding
	CSV         key.Binding
	Run         key.Binding
	Cancel      key.Binding
	Help        key.Binding
	Quit        key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up:          key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:        key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Toggle:      key.NewBinding(key.WithKeys("enter", " "), key.WithHelp("enter", "expand")),
		BasicInfo:   key.NewBinding(key.WithKeys("i"), key.WithHelp("i", "basic info")),
		Stats:       key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "stats")),
		ExpandAll:   key.NewBinding(key.WithKeys("E"), key.WithHelp("E", "expand all")),
		CollapseAll: key.NewBinding(key.WithKeys("C"), key.WithHelp("C", "collapse all")),
		Baseline:    key.NewBinding(key.WithKeys("b"), key.WithHelp("b", "baseline")),
		Aggregation: key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "aggregation")),
		AggAll:      key.NewBinding(key.WithKeys("A"), key.WithHelp("A", "aggregation (all)")),
		Delete:      key.NewBinding(key.WithKeys("d", "delete"), key.WithHelp("d", "delete")),
		CSV:         key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "csv")),
		Run:         key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "run")),
		Cancel:      key.NewBinding(key.WithKeys("x", "esc"), key.WithHelp("x", "cancel run")),
		Help:        key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:        key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.Baseline, k.Aggregation, k.Run, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Toggle, k.BasicInfo, k.Stats},
		{k.ExpandAll, k.CollapseAll, k.Baseline, k.Aggregation, k.AggAll},
		{k.Delete, k.CSV, k.Run, k.Cancel, k.Quit},
	}
}
