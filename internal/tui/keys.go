package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Stream    key.Binding
	Clear     key.Binding
	Stress    key.Binding
	Range     key.Binding
	Aggregate key.Binding
	Chart     key.Binding
	ZoomIn    key.Binding
	ZoomOut   key.Binding
	ZoomReset key.Binding
	Theme     key.Binding
	Up        key.Binding
	Down      key.Binding
	PageUp    key.Binding
	PageDown  key.Binding
	Top       key.Binding
	Help      key.Binding
	Quit      key.Binding
}

// stressCounts maps the stress test keys to dataset sizes
var stressCounts = map[string]int{
	"1": 10000,
	"2": 25000,
	"3": 50000,
	"4": 100000,
}

var keys = keyMap{
	Stream: key.NewBinding(
		key.WithKeys("s"),
		key.WithHelp("s", "start/stop"),
	),
	Clear: key.NewBinding(
		key.WithKeys("c"),
		key.WithHelp("c", "clear"),
	),
	Stress: key.NewBinding(
		key.WithKeys("1", "2", "3", "4"),
		key.WithHelp("1-4", "stress 10K/25K/50K/100K"),
	),
	Range: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "range"),
	),
	Aggregate: key.NewBinding(
		key.WithKeys("a"),
		key.WithHelp("a", "aggregate"),
	),
	Chart: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("tab", "chart"),
	),
	ZoomIn: key.NewBinding(
		key.WithKeys("+", "="),
		key.WithHelp("+", "zoom in"),
	),
	ZoomOut: key.NewBinding(
		key.WithKeys("-", "_"),
		key.WithHelp("-", "zoom out"),
	),
	ZoomReset: key.NewBinding(
		key.WithKeys("0"),
		key.WithHelp("0", "reset zoom"),
	),
	Theme: key.NewBinding(
		key.WithKeys("t"),
		key.WithHelp("t", "theme"),
	),
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "scroll up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "scroll down"),
	),
	PageUp: key.NewBinding(
		key.WithKeys("pgup"),
		key.WithHelp("pgup", "page up"),
	),
	PageDown: key.NewBinding(
		key.WithKeys("pgdown"),
		key.WithHelp("pgdn", "page down"),
	),
	Top: key.NewBinding(
		key.WithKeys("home", "g"),
		key.WithHelp("home", "newest"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "help"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q/ctrl+c", "quit"),
	),
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Quit, k.Stream, k.Clear, k.Stress, k.Chart, k.Help}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Quit, k.Stream, k.Clear, k.Stress},
		{k.Chart, k.Range, k.Aggregate, k.Theme},
		{k.ZoomIn, k.ZoomOut, k.ZoomReset},
		{k.Up, k.Down, k.PageUp, k.PageDown, k.Top},
	}
}
