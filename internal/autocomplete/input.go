// Package autocomplete implements the search input with live place
// suggestions: a debounced geocoder search, the dropdown state machine and
// the rules that turn a commit into a weather query.
//
// Input is not safe for concurrent use. It is driven from a single event
// loop: timer expiries and search completions are delivered back to that
// loop as Events through the Post function, and the loop hands them to
// Input.Handle. Every search carries the sequence number of the text it was
// started for, and results for anything but the latest sequence are dropped.
package autocomplete

import (
	"context"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/weather-lookup/internal/domain"
)

const (
	// DefaultDelay is the quiet interval before a suggestion search starts.
	DefaultDelay = 300 * time.Millisecond

	// MinQueryLength is the shortest input, in characters, that is searched.
	MinQueryLength = 3
)

// Event is a completion delivered back to the event loop.
type Event interface {
	autocompleteEvent()
}

// DebounceElapsed reports that input has been quiet for the delay.
type DebounceElapsed struct {
	Seq uint64
}

// SuggestionsLoaded carries the outcome of a suggestion search.
type SuggestionsLoaded struct {
	Seq   uint64
	Items []domain.LocationSuggestion
	Err   error
}

func (DebounceElapsed) autocompleteEvent()   {}
func (SuggestionsLoaded) autocompleteEvent() {}

// Key is a navigation key understood by the input.
type Key int

const (
	KeyUp Key = iota
	KeyDown
	KeyEnter
	KeyEscape
)

// Config configures an Input.
type Config struct {
	Searcher domain.Searcher
	// Post delivers an event to the loop that owns the Input. It must not
	// block and may be called from any goroutine.
	Post   func(Event)
	Clock  clockwork.Clock
	Delay  time.Duration
	Logger *slog.Logger
}

// Input is the search field with its suggestion dropdown.
type Input struct {
	searcher  domain.Searcher
	post      func(Event)
	debouncer *Debouncer
	logger    *slog.Logger

	text     string
	list     *SuggestionList
	seq      uint64
	cancel   context.CancelFunc // cancels the in-flight search
	disabled bool
	closed   bool
}

// NewInput creates an empty, enabled input.
func NewInput(cfg Config) *Input {
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.Delay <= 0 {
		cfg.Delay = DefaultDelay
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	return &Input{
		searcher:  cfg.Searcher,
		post:      cfg.Post,
		debouncer: NewDebouncer(cfg.Clock, cfg.Delay),
		logger:    cfg.Logger,
		list:      NewSuggestionList(),
	}
}

// Text returns the current input text.
func (in *Input) Text() string { return in.text }

// List exposes the dropdown for rendering.
func (in *Input) List() *SuggestionList { return in.list }

// Disabled reports whether input is currently ignored.
func (in *Input) Disabled() bool { return in.disabled }

// SetDisabled enables or disables the input. The application disables it
// while a primary weather fetch is in flight.
func (in *Input) SetDisabled(disabled bool) {
	in.disabled = disabled
}

// SetText replaces the input text. Input too short to search clears and
// closes the dropdown immediately; anything else schedules a debounced
// search.
func (in *Input) SetText(text string) {
	if in.disabled || in.closed || text == in.text {
		return
	}
	in.text = text
	in.invalidate()

	query := strings.TrimSpace(text)
	if utf8.RuneCountInString(query) < MinQueryLength {
		in.list.Reset()
		return
	}

	seq := in.seq
	in.debouncer.Trigger(func() {
		in.post(DebounceElapsed{Seq: seq})
	})
}

// Handle applies an event posted by a timer or a search. Events that belong
// to superseded input are ignored.
func (in *Input) Handle(ev Event) {
	if in.closed {
		return
	}
	switch ev := ev.(type) {
	case DebounceElapsed:
		if ev.Seq != in.seq {
			return
		}
		in.startSearch(ev.Seq)
	case SuggestionsLoaded:
		if ev.Seq != in.seq {
			in.logger.Debug("discarding stale suggestions", "seq", ev.Seq, "current", in.seq)
			return
		}
		in.cancel = nil
		if ev.Err != nil {
			// Suggestions are best-effort; failures are never surfaced.
			in.logger.Debug("suggestion search failed", "error", ev.Err)
			in.list.Fail()
			return
		}
		in.list.SetResults(ev.Items)
	}
}

// Key applies a navigation key. When it commits, the returned query is the
// search to run and ok is true.
func (in *Input) Key(k Key) (q domain.SearchQuery, ok bool) {
	if in.disabled || in.closed {
		return nil, false
	}
	switch k {
	case KeyDown:
		in.list.MoveDown()
	case KeyUp:
		in.list.MoveUp()
	case KeyEscape:
		in.invalidate()
		in.list.Close()
	case KeyEnter:
		if s, selected := in.list.Selected(); selected {
			return in.commit(s), true
		}
		return in.submit()
	}
	return nil, false
}

// Hover highlights item i.
func (in *Input) Hover(i int) {
	if in.disabled || in.closed {
		return
	}
	in.list.Hover(i)
}

// Click commits item i.
func (in *Input) Click(i int) (domain.SearchQuery, bool) {
	if in.disabled || in.closed {
		return nil, false
	}
	items := in.list.Items()
	if in.list.State() != OpenPopulated || i < 0 || i >= len(items) {
		return nil, false
	}
	return in.commit(items[i]), true
}

// ClickOutside closes the dropdown.
func (in *Input) ClickOutside() {
	if in.disabled || in.closed {
		return
	}
	in.invalidate()
	in.list.Close()
}

// Clear empties the input and the suggestion set.
func (in *Input) Clear() {
	if in.disabled || in.closed {
		return
	}
	in.text = ""
	in.invalidate()
	in.list.Reset()
}

// Close tears the input down: the pending timer is cancelled, the in-flight
// search is cancelled and no later event is applied.
func (in *Input) Close() {
	if in.closed {
		return
	}
	in.closed = true
	in.invalidate()
	in.debouncer.Stop()
}

func (in *Input) commit(s domain.LocationSuggestion) domain.SearchQuery {
	q := domain.QueryFromSuggestion(s)
	in.resetAfterSearch()
	return q
}

// submit sends the raw text as a city search. Blank text only closes the
// dropdown.
func (in *Input) submit() (domain.SearchQuery, bool) {
	q, ok := domain.QueryFromText(in.text)
	if !ok {
		in.invalidate()
		in.list.Close()
		return nil, false
	}
	in.resetAfterSearch()
	return q, true
}

func (in *Input) resetAfterSearch() {
	in.text = ""
	in.invalidate()
	in.list.Reset()
}

// invalidate supersedes everything started for the current text: the
// pending debounce is cancelled and in-flight results become stale.
func (in *Input) invalidate() {
	in.seq++
	in.debouncer.Cancel()
	if in.cancel != nil {
		in.cancel()
		in.cancel = nil
	}
}

func (in *Input) startSearch(seq uint64) {
	if in.cancel != nil {
		in.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	in.cancel = cancel
	in.list.BeginSearch()

	query := strings.TrimSpace(in.text)
	searcher, post := in.searcher, in.post
	go func() {
		items, err := searcher.Search(ctx, query)
		post(SuggestionsLoaded{Seq: seq, Items: items, Err: err})
	}()
}
