package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/couchcryptid/weather-lookup/internal/autocomplete"
	"github.com/couchcryptid/weather-lookup/internal/domain"
)

// Fixed rows of the screen. Mouse hit testing relies on them.
const (
	titleRow       = 0
	subtitleRow    = 1
	controlsRow    = 3
	inputRow       = 5
	suggestionsRow = 6
)

type control int

const (
	controlNone control = iota
	controlMetric
	controlImperial
	controlLocate
)

type hitbox struct {
	from, to int // half-open column range
	control  control
}

type layout struct {
	controlsRow int
	inputRow    int
	controls    []hitbox
	firstItem   int
	items       int
}

// suggestionAt maps a screen row to a dropdown item.
func (l layout) suggestionAt(y int) (int, bool) {
	i := y - l.firstItem
	if i < 0 || i >= l.items {
		return 0, false
	}
	return i, true
}

func (l layout) controlAt(x int) control {
	for _, h := range l.controls {
		if x >= h.from && x < h.to {
			return h.control
		}
	}
	return controlNone
}

func (m *Model) layout() layout {
	_, boxes := m.controlsLine()
	l := layout{
		controlsRow: controlsRow,
		inputRow:    inputRow,
		controls:    boxes,
		firstItem:   suggestionsRow,
	}
	if list := m.input.List(); list.State() == autocomplete.OpenPopulated {
		l.items = len(list.Items())
	}
	return l
}

// controlsLine renders the unit buttons and the location action along with
// their column ranges.
func (m *Model) controlsLine() (string, []hitbox) {
	units := m.ctrl.Units()
	segments := []struct {
		text    string
		active  bool
		control control
	}{
		{"[°C]", units == domain.Metric, controlMetric},
		{"[°F]", units == domain.Imperial, controlImperial},
		{"[Current location]", false, controlLocate},
	}

	var (
		b     strings.Builder
		boxes []hitbox
		x     int
	)
	for i, s := range segments {
		if i > 0 {
			b.WriteString("  ")
			x += 2
		}
		style := buttonStyle
		if s.active {
			style = activeStyle
		}
		w := lipgloss.Width(s.text)
		boxes = append(boxes, hitbox{from: x, to: x + w, control: s.control})
		b.WriteString(style.Render(s.text))
		x += w
	}
	return b.String(), boxes
}

func (m *Model) suggestionLines() []string {
	list := m.input.List()
	switch list.State() {
	case autocomplete.OpenEmpty:
		return []string{mutedStyle.Render("  Searching...")}
	case autocomplete.OpenPopulated:
		lines := make([]string, 0, len(list.Items()))
		for i, s := range list.Items() {
			if i == list.Highlighted() {
				lines = append(lines, highlightStyle.Render("› "+s.DisplayName))
				continue
			}
			lines = append(lines, itemStyle.Render("  "+s.DisplayName))
		}
		return lines
	default:
		return nil
	}
}

func (m *Model) body() string {
	var parts []string
	if m.ctrl.Loading() {
		parts = append(parts, m.spinner.View()+" Loading weather data...")
	}
	if msg := m.ctrl.Error(); msg != "" {
		parts = append(parts, errorStyle.Render("⚠ "+msg))
	}
	if snap, ok := m.ctrl.Snapshot(); ok && !m.ctrl.Loading() {
		parts = append(parts, RenderCard(m.ctrl.LocationLabel(), snap, m.ctrl.Units()))
	}
	return strings.Join(parts, "\n\n")
}

// View implements tea.Model.
func (m *Model) View() string {
	controls, _ := m.controlsLine()

	rows := make([]string, suggestionsRow)
	rows[titleRow] = titleStyle.Render("Weather App")
	rows[subtitleRow] = subtitleStyle.Render("Get current weather conditions for any city")
	rows[controlsRow] = controls
	rows[inputRow] = m.field.View()
	rows = append(rows, m.suggestionLines()...)
	rows = append(rows, "", m.body(), "", m.help.View(m.keys))
	return strings.Join(rows, "\n")
}
