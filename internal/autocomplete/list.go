package autocomplete

import "github.com/couchcryptid/weather-lookup/internal/domain"

// ListState is the visibility state of the suggestion dropdown.
type ListState int

const (
	Closed ListState = iota
	OpenEmpty
	OpenPopulated
)

func (s ListState) String() string {
	switch s {
	case OpenEmpty:
		return "open-empty"
	case OpenPopulated:
		return "open-populated"
	default:
		return "closed"
	}
}

// SuggestionList holds the candidate set, whether the dropdown is open and
// the highlighted index. Highlighted is -1 when nothing is highlighted.
type SuggestionList struct {
	items       []domain.LocationSuggestion
	open        bool
	highlighted int
	searching   bool
}

// NewSuggestionList returns a closed, empty list.
func NewSuggestionList() *SuggestionList {
	return &SuggestionList{highlighted: -1}
}

// State derives the dropdown state.
func (l *SuggestionList) State() ListState {
	switch {
	case !l.open:
		return Closed
	case len(l.items) == 0:
		return OpenEmpty
	default:
		return OpenPopulated
	}
}

// Items returns the current suggestions. Callers must not modify the slice.
func (l *SuggestionList) Items() []domain.LocationSuggestion { return l.items }

// Highlighted returns the highlighted index, or -1.
func (l *SuggestionList) Highlighted() int { return l.highlighted }

// Searching reports whether a suggestion search is outstanding.
func (l *SuggestionList) Searching() bool { return l.searching }

// BeginSearch marks a search as started. Visible suggestions are kept until
// results arrive; a closed list opens empty.
func (l *SuggestionList) BeginSearch() {
	l.searching = true
	if !l.open {
		l.items = nil
		l.highlighted = -1
		l.open = true
	}
}

// SetResults applies a completed search. Only allowed places are kept. No
// results closes the list; otherwise it opens with nothing highlighted.
func (l *SuggestionList) SetResults(items []domain.LocationSuggestion) {
	l.searching = false
	l.highlighted = -1
	l.items = domain.FilterSuggestions(items)
	l.open = len(l.items) > 0
}

// Fail applies a failed search: suggestions are dropped and the list closes.
func (l *SuggestionList) Fail() {
	l.Reset()
}

// MoveDown advances the highlight, wrapping from the last item to the first.
func (l *SuggestionList) MoveDown() {
	if l.State() != OpenPopulated {
		return
	}
	l.highlighted = (l.highlighted + 1) % len(l.items)
}

// MoveUp recedes the highlight, wrapping from the first item to the last.
func (l *SuggestionList) MoveUp() {
	if l.State() != OpenPopulated {
		return
	}
	if l.highlighted <= 0 {
		l.highlighted = len(l.items) - 1
	} else {
		l.highlighted--
	}
}

// Hover highlights item i without changing the open state.
func (l *SuggestionList) Hover(i int) {
	if l.State() != OpenPopulated || i < 0 || i >= len(l.items) {
		return
	}
	l.highlighted = i
}

// Selected returns the highlighted suggestion.
func (l *SuggestionList) Selected() (domain.LocationSuggestion, bool) {
	if l.State() != OpenPopulated || l.highlighted < 0 || l.highlighted >= len(l.items) {
		return domain.LocationSuggestion{}, false
	}
	return l.items[l.highlighted], true
}

// Close hides the dropdown and clears the highlight. Suggestions are kept.
func (l *SuggestionList) Close() {
	l.open = false
	l.highlighted = -1
	l.searching = false
}

// Reset closes the list and drops all suggestions.
func (l *SuggestionList) Reset() {
	l.Close()
	l.items = nil
}
