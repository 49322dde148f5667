package grid

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up          key.Binding
	Down        key.Binding
	Left        key.Binding
	Right       key.Binding
	ShiftUp     key.Binding
	ShiftDown   key.Binding
	ShiftLeft   key.Binding
	ShiftRight  key.Binding
	PageUp      key.Binding
	PageDown    key.Binding
	Home        key.Binding
	End         key.Binding
	Expand      key.Binding
	Hide        key.Binding
	Filter      key.Binding
	FilterAlt   key.Binding
	ClearColumn key.Binding
	ClearAll    key.Binding
	Export      key.Binding
	Open        key.Binding
	Deselect    key.Binding
	Quit        key.Binding
	YankCell    key.Binding
	YankRow     key.Binding
	ExportJSON  key.Binding
	ExportRaw   key.Binding
	ExportPlain key.Binding
}

var keys = keyMap{
	Up:          key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:        key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Left:        key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←", "prev column")),
	Right:       key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→", "next column")),
	ShiftUp:     key.NewBinding(key.WithKeys("shift+up"), key.WithHelp("⇧↑", "half page up")),
	ShiftDown:   key.NewBinding(key.WithKeys("shift+down"), key.WithHelp("⇧↓", "half page down")),
	ShiftLeft:   key.NewBinding(key.WithKeys("shift+left"), key.WithHelp("⇧←", "scroll half left")),
	ShiftRight:  key.NewBinding(key.WithKeys("shift+right"), key.WithHelp("⇧→", "scroll half right")),
	PageUp:      key.NewBinding(key.WithKeys("pgup", "ctrl+u"), key.WithHelp("pgup", "page up")),
	PageDown:    key.NewBinding(key.WithKeys("pgdown", "ctrl+d"), key.WithHelp("pgdn", "page down")),
	Home:        key.NewBinding(key.WithKeys("home", "g"), key.WithHelp("g", "first row")),
	End:         key.NewBinding(key.WithKeys("end", "G"), key.WithHelp("G", "last row")),
	Expand:      key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "expand/default")),
	Hide:        key.NewBinding(key.WithKeys("H"), key.WithHelp("H", "hide/default")),
	Filter:      key.NewBinding(key.WithKeys("f", "/"), key.WithHelp("f", "filter column")),
	FilterAlt:   key.NewBinding(key.WithKeys("F"), key.WithHelp("F", "upper bound")),
	ClearColumn: key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "clear column filter")),
	ClearAll:    key.NewBinding(key.WithKeys("X"), key.WithHelp("X", "clear all filters")),
	Export:      key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "export csv")),
	Open:        key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "open file")),
	Deselect:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "deselect")),
	Quit:        key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	YankCell:    key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy cell")),
	YankRow:     key.NewBinding(key.WithKeys("Y"), key.WithHelp("Y", "copy row")),
	ExportJSON:  key.NewBinding(key.WithKeys("J"), key.WithHelp("J", "print as JSON")),
	ExportRaw:   key.NewBinding(key.WithKeys("R"), key.WithHelp("R", "print raw")),
	ExportPlain: key.NewBinding(key.WithKeys("P"), key.WithHelp("P", "print table")),
}
