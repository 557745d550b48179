// Package tui is the terminal presentation of the weather client: a search
// field with live suggestions, unit and location controls, and the current
// conditions card. All state lives in app.Controller and autocomplete.Input;
// this package renders it and translates terminal events into their calls.
package tui

import (
	"context"
	"log/slog"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/weather-lookup/internal/app"
	"github.com/couchcryptid/weather-lookup/internal/autocomplete"
	"github.com/couchcryptid/weather-lookup/internal/domain"
)

// Options wires a Model.
type Options struct {
	Controller *app.Controller
	Searcher   domain.Searcher
	Clock      clockwork.Clock
	Logger     *slog.Logger
	// Send delivers messages produced off the event loop. Run sets it to
	// the program's Send.
	Send func(tea.Msg)
}

type suggestMsg struct{ ev autocomplete.Event }

type weatherMsg struct{ res app.Result }

// Model is the bubbletea model of the client.
type Model struct {
	ctx    context.Context
	cancel context.CancelFunc
	logger *slog.Logger

	ctrl    *app.Controller
	input   *autocomplete.Input
	field   textinput.Model
	spinner spinner.Model
	help    help.Model
	keys    keyMap
	send    func(tea.Msg)

	width  int
	height int
}

// New builds the model. Fetches run under ctx and stop when it is done or
// the model is closed.
func New(ctx context.Context, opts Options) *Model {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	ctx, cancel := context.WithCancel(ctx)

	field := textinput.New()
	field.Placeholder = "Enter city name..."
	field.Prompt = "› "
	field.CharLimit = 100
	field.Width = 40
	field.Focus()

	m := &Model{
		ctx:     ctx,
		cancel:  cancel,
		logger:  opts.Logger,
		ctrl:    opts.Controller,
		field:   field,
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(activeStyle)),
		help:    help.New(),
		keys:    defaultKeyMap(),
		send:    opts.Send,
	}
	m.input = autocomplete.NewInput(autocomplete.Config{
		Searcher: opts.Searcher,
		Clock:    opts.Clock,
		Logger:   opts.Logger,
		Post:     func(ev autocomplete.Event) { m.post(suggestMsg{ev: ev}) },
	})
	return m
}

// Run starts the interactive program and blocks until the user quits or
// ctx is cancelled.
func Run(ctx context.Context, opts Options) error {
	m := New(ctx, opts)
	defer m.Close()

	p := tea.NewProgram(m,
		tea.WithContext(ctx),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)
	m.send = p.Send
	_, err := p.Run()
	return err
}

// Close cancels the pending suggestion search and in-flight fetches.
func (m *Model) Close() {
	m.input.Close()
	m.cancel()
}

func (m *Model) post(msg tea.Msg) {
	if m.send != nil {
		m.send(msg)
	}
}

// Init fetches the default city.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.fetch(m.ctrl.Start()))
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.field.Width = max(20, min(msg.Width-6, 60))
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m, m.handleKey(msg)

	case tea.MouseMsg:
		return m, m.handleMouse(msg)

	case suggestMsg:
		m.input.Handle(msg.ev)
		return m, nil

	case weatherMsg:
		m.ctrl.Complete(msg.res)
		m.syncDisabled()
		return m, nil

	case spinner.TickMsg:
		if !m.ctrl.Loading() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.field, cmd = m.field.Update(msg)
	return m, cmd
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if key.Matches(msg, m.keys.Quit) {
		m.Close()
		return tea.Quit
	}
	// The whole input is disabled while a primary fetch is in flight.
	if m.ctrl.Loading() {
		return nil
	}

	switch {
	case key.Matches(msg, m.keys.Up):
		m.input.Key(autocomplete.KeyUp)
	case key.Matches(msg, m.keys.Down):
		m.input.Key(autocomplete.KeyDown)
	case key.Matches(msg, m.keys.Close):
		m.input.Key(autocomplete.KeyEscape)
	case key.Matches(msg, m.keys.Submit):
		q, ok := m.input.Key(autocomplete.KeyEnter)
		m.syncField()
		if ok {
			return m.fetch(m.ctrl.Search(q))
		}
	case key.Matches(msg, m.keys.Clear):
		m.input.Clear()
		m.syncField()
	case key.Matches(msg, m.keys.Locate):
		m.input.ClickOutside()
		return m.fetch(m.ctrl.UseCurrentLocation())
	case key.Matches(msg, m.keys.Units):
		return m.fetch(m.ctrl.ToggleUnits())
	default:
		var cmd tea.Cmd
		m.field, cmd = m.field.Update(msg)
		m.input.SetText(m.field.Value())
		return cmd
	}
	return nil
}

func (m *Model) handleMouse(msg tea.MouseMsg) tea.Cmd {
	if m.ctrl.Loading() {
		return nil
	}
	l := m.layout()

	switch msg.Action {
	case tea.MouseActionMotion:
		if i, ok := l.suggestionAt(msg.Y); ok {
			m.input.Hover(i)
		}
		return nil
	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft {
			return nil
		}
	default:
		return nil
	}

	if i, ok := l.suggestionAt(msg.Y); ok {
		q, committed := m.input.Click(i)
		m.syncField()
		if committed {
			return m.fetch(m.ctrl.Search(q))
		}
		return nil
	}
	if msg.Y == l.inputRow {
		return nil
	}

	m.input.ClickOutside()
	if msg.Y != l.controlsRow {
		return nil
	}
	switch l.controlAt(msg.X) {
	case controlMetric:
		return m.fetch(m.ctrl.SetUnits(domain.Metric))
	case controlImperial:
		return m.fetch(m.ctrl.SetUnits(domain.Imperial))
	case controlLocate:
		return m.fetch(m.ctrl.UseCurrentLocation())
	}
	return nil
}

// fetch turns a started request into a command that runs it off the loop.
func (m *Model) fetch(req app.Request, ok bool) tea.Cmd {
	if !ok {
		return nil
	}
	m.syncDisabled()
	ctx, ctrl := m.ctx, m.ctrl
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		return weatherMsg{res: ctrl.Run(ctx, req)}
	})
}

func (m *Model) syncField() {
	if m.field.Value() != m.input.Text() {
		m.field.SetValue(m.input.Text())
	}
}

func (m *Model) syncDisabled() {
	loading := m.ctrl.Loading()
	m.input.SetDisabled(loading)
	if loading {
		m.field.Blur()
		return
	}
	m.field.Focus()
}
