package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// TextInput is an immutable single-line editor.
type TextInput struct {
	label  string
	value  []rune
	masked bool
}

// NewTextInput creates an empty input. Masked inputs render as asterisks.
func NewTextInput(label string, masked bool) TextInput {
	return TextInput{label: label, masked: masked}
}

// Update applies a key press. Keys that do not edit text are ignored.
func (t TextInput) Update(msg tea.KeyMsg) TextInput {
	switch msg.Type {
	case tea.KeyRunes:
		t.value = append(append([]rune(nil), t.value...), msg.Runes...)
	case tea.KeySpace:
		t.value = append(append([]rune(nil), t.value...), ' ')
	case tea.KeyBackspace:
		if len(t.value) > 0 {
			t.value = append([]rune(nil), t.value[:len(t.value)-1]...)
		}
	case tea.KeyCtrlU:
		t.value = nil
	}
	return t
}

// Value returns the text entered so far.
func (t TextInput) Value() string {
	return string(t.value)
}

// SetValue returns a copy holding s.
func (t TextInput) SetValue(s string) TextInput {
	t.value = []rune(s)
	return t
}

// Reset returns an empty copy.
func (t TextInput) Reset() TextInput {
	t.value = nil
	return t
}

// View renders the label and the value, with a caret when focused.
func (t TextInput) View(focused bool) string {
	v := string(t.value)
	if t.masked {
		v = strings.Repeat("*", len(t.value))
	}
	prefix := "  "
	caret := ""
	if focused {
		prefix = "> "
		caret = "_"
	}
	return prefix + t.label + ": " + v + caret + "\n"
}
