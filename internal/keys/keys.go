// Package keys contains keybinding definitions.
package keys

import "github.com/charmbracelet/bubbles/key"

// EditorKeyMap is the keymap of the editing screen.
type EditorKeyMap struct {
	// File
	New     key.Binding
	Open    key.Binding
	Save    key.Binding
	Compile key.Binding

	// Editing
	Undo        key.Binding
	Redo        key.Binding
	Copy        key.Binding
	Paste       key.Binding
	FindReplace key.Binding
	ToggleEdit  key.Binding

	// View
	FocusOutput key.Binding
	Changes     key.Binding
	Logs        key.Binding
	Help        key.Binding
	Quit        key.Binding
}

// PromptKeyMap is the keymap of single-line prompts (file name, find/replace).
type PromptKeyMap struct {
	Confirm key.Binding
	Next    key.Binding
	Cancel  key.Binding
}

// Editor holds the editor bindings.
var Editor = EditorKeyMap{
	New: key.NewBinding(
		key.WithKeys("ctrl+n"),
		key.WithHelp("ctrl+n", "new file"),
	),
	Open: key.NewBinding(
		key.WithKeys("ctrl+o"),
		key.WithHelp("ctrl+o", "open file"),
	),
	Save: key.NewBinding(
		key.WithKeys("ctrl+s"),
		key.WithHelp("ctrl+s", "save"),
	),
	Compile: key.NewBinding(
		key.WithKeys("f5", "ctrl+b"),
		key.WithHelp("f5", "compile"),
	),
	Undo: key.NewBinding(
		key.WithKeys("ctrl+z"),
		key.WithHelp("ctrl+z", "undo"),
	),
	Redo: key.NewBinding(
		key.WithKeys("ctrl+y"),
		key.WithHelp("ctrl+y", "redo"),
	),
	Copy: key.NewBinding(
		key.WithKeys("alt+c"),
		key.WithHelp("alt+c", "copy"),
	),
	Paste: key.NewBinding(
		key.WithKeys("alt+v"),
		key.WithHelp("alt+v", "paste"),
	),
	FindReplace: key.NewBinding(
		key.WithKeys("ctrl+r"),
		key.WithHelp("ctrl+r", "find & replace"),
	),
	ToggleEdit: key.NewBinding(
		key.WithKeys("ctrl+e"),
		key.WithHelp("ctrl+e", "lock/unlock editing"),
	),
	FocusOutput: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("tab", "editor/output focus"),
	),
	Changes: key.NewBinding(
		key.WithKeys("ctrl+d"),
		key.WithHelp("ctrl+d", "show unsaved changes"),
	),
	Logs: key.NewBinding(
		key.WithKeys("ctrl+x"),
		key.WithHelp("ctrl+x", "toggle log overlay (debug)"),
	),
	Help: key.NewBinding(
		key.WithKeys("f1"),
		key.WithHelp("f1", "toggle help"),
	),
	Quit: key.NewBinding(
		key.WithKeys("ctrl+q", "ctrl+c"),
		key.WithHelp("ctrl+q", "quit"),
	),
}

// Prompt holds the prompt bindings.
var Prompt = PromptKeyMap{
	Confirm: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "confirm"),
	),
	Next: key.NewBinding(
		key.WithKeys("tab", "shift+tab"),
		key.WithHelp("tab", "next field"),
	),
	Cancel: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "cancel"),
	),
}

// ShortHelp returns the bindings shown in the footer.
func (k EditorKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Save, k.Compile, k.Undo, k.Redo, k.Help, k.Quit}
}

// FullHelp returns keybindings for the full help view.
func (k EditorKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.New, k.Open, k.Save, k.Compile},                             // File
		{k.Undo, k.Redo, k.Copy, k.Paste, k.FindReplace, k.ToggleEdit}, // Editing
		{k.FocusOutput, k.Changes, k.Logs, k.Help, k.Quit},             // View
	}
}

// ShortHelp returns the prompt footer bindings.
func (k PromptKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Confirm, k.Next, k.Cancel}
}

// FullHelp returns the prompt bindings in one group.
func (k PromptKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}
