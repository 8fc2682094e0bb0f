package tui

import (
	"strings"
)

// ListModel is an immutable cursor list shared by every list panel.
type ListModel[T any] struct {
	items  []T
	cursor int
}

// NewListModel creates a list model with the cursor on the first item.
func NewListModel[T any](items []T) ListModel[T] {
	return ListModel[T]{items: items}
}

// MoveDown returns a new model with the cursor moved down by one.
func (m ListModel[T]) MoveDown() ListModel[T] {
	if m.cursor < len(m.items)-1 {
		m.cursor++
	}
	return m
}

// MoveUp returns a new model with the cursor moved up by one.
func (m ListModel[T]) MoveUp() ListModel[T] {
	if m.cursor > 0 {
		m.cursor--
	}
	return m
}

// Cursor returns the current cursor position.
func (m ListModel[T]) Cursor() int {
	return m.cursor
}

// Items returns the full item slice.
func (m ListModel[T]) Items() []T {
	return m.items
}

// Selected returns the highlighted item, or false when the list is empty.
func (m ListModel[T]) Selected() (T, bool) {
	if len(m.items) == 0 {
		var zero T
		return zero, false
	}
	return m.items[m.cursor], true
}

// Replace swaps the items and keeps the cursor in range, so a reload does not
// jump back to the top.
func (m ListModel[T]) Replace(items []T) ListModel[T] {
	m.items = items
	if m.cursor >= len(items) {
		m.cursor = len(items) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	return m
}

// View renders one line per item with a cursor marker.
func (m ListModel[T]) View(empty string, render func(T) string) string {
	if len(m.items) == 0 {
		return " " + empty + "\n"
	}
	var sb strings.Builder
	for i, it := range m.items {
		prefix := "  "
		if i == m.cursor {
			prefix = "> "
		}
		sb.WriteString(prefix)
		sb.WriteString(render(it))
		sb.WriteString("\n")
	}
	return sb.String()
}
