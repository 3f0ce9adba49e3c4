package tui

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

const (
	uiDivider = "──────────────────────────────────────────────────────"
	quitHint  = "q / ctrl+c: выход"
)

var pageBodyStyle = lipgloss.NewStyle().PaddingLeft(2)

// renderPage lays out title, divider, body, divider and key hints. An empty
// body is shown as a dash.
func renderPage(title, data, hotKeys string) string {
	if strings.TrimSpace(data) == "" {
		data = "-"
	}

	hints := []string{}
	if strings.TrimSpace(hotKeys) != "" {
		hints = append(hints, hotKeys)
	}
	hints = append(hints, quitHint)

	return lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render(title),
		pageBodyStyle.Render(uiDivider),
		"",
		pageBodyStyle.Render(strings.TrimRight(data, "\n")),
		"",
		pageBodyStyle.Render(uiDivider),
		pageBodyStyle.Render(helpStyle.Render(strings.Join(hints, "\n"))),
	)
}

func valueOrDash(v string) string {
	if v == "" {
		return "-"
	}
	return v
}

func timeOrDash(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}

// fitText cuts v to max runes, ending with "..." when there is room.
func fitText(v string, max int) string {
	r := []rune(v)
	if max <= 0 || len(r) <= max {
		return v
	}
	if max <= 3 {
		return string(r[:max])
	}
	return string(r[:max-3]) + "..."
}
