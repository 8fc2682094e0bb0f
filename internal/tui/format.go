package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/waabox/constitutiongpt/internal/domain"
)

const separator = "────────────────────────────────────────────────────────────\n"

func statusIcon(s domain.AppointmentStatus) string {
	switch s {
	case domain.AppointmentConfirmed:
		return "✓"
	case domain.AppointmentCompleted:
		return "●"
	case domain.AppointmentPending:
		return "↷"
	case domain.AppointmentCancelled:
		return "○"
	default:
		return "?"
	}
}

func formatAge(t time.Time) string {
	if t.IsZero() {
		return "--"
	}
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds ago", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}

func formatWhen(t time.Time) string {
	if t.IsZero() {
		return "--"
	}
	return t.Local().Format("02 Jan 2006 15:04")
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

// wrap breaks s into lines of at most width runes on word boundaries.
func wrap(s string, width int) string {
	if width <= 0 {
		return s
	}
	var out strings.Builder
	for _, para := range strings.Split(s, "\n") {
		line := 0
		for i, word := range strings.Fields(para) {
			n := len([]rune(word))
			if i > 0 && line+1+n > width {
				out.WriteString("\n")
				line = 0
			} else if i > 0 {
				out.WriteString(" ")
				line++
			}
			out.WriteString(word)
			line += n
		}
		out.WriteString("\n")
	}
	return out.String()
}
