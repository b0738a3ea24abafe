// Package tui is the terminal rendering of one conversation.
package tui

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/PabloGalante/farmdash/internal/app/conversation"
	"github.com/PabloGalante/farmdash/internal/domain"
	"github.com/PabloGalante/farmdash/internal/i18n"
	"github.com/PabloGalante/farmdash/internal/observability"
)

// resultMsg carries a resolved exchange back into the event loop.
type resultMsg struct {
	exchange *conversation.Exchange
	result   conversation.Result
}

// Model is the bubbletea model for the chat screen.
type Model struct {
	ctx     context.Context
	cancel  context.CancelFunc
	session *conversation.Session
	catalog i18n.Catalog
	styles  Styles

	textarea   textarea.Model
	viewport   viewport.Model
	spinner    spinner.Model
	filepicker filepicker.Model
	picking    bool

	width  int
	height int
	notice string
}

// New builds the chat model. Cancelling ctx, or quitting, aborts any
// in-flight exchange.
func New(ctx context.Context, session *conversation.Session) Model {
	ctx, cancel := context.WithCancel(ctx)
	catalog := i18n.For(session.Locale)

	ta := textarea.New()
	ta.Placeholder = catalog.InputPlaceholder
	ta.Focus()
	ta.CharLimit = 4096
	ta.SetWidth(80)
	ta.SetHeight(3)
	ta.ShowLineNumbers = false
	// enter submits
	ta.KeyMap.InsertNewline.SetKeys("alt+enter")

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := Model{
		ctx:        ctx,
		cancel:     cancel,
		session:    session,
		catalog:    catalog,
		styles:     DefaultStyles(),
		textarea:   ta,
		viewport:   viewport.New(80, 20),
		spinner:    sp,
		filepicker: newPicker(),
		width:      80,
		height:     30,
	}
	m.spinner.Style = m.styles.Assistant
	m.refresh()
	return m
}

func newPicker() filepicker.Model {
	fp := filepicker.New()
	fp.AllowedTypes = conversation.AcceptedExtensions
	if wd, err := os.Getwd(); err == nil {
		fp.CurrentDirectory = wd
	}
	return fp
}

// Run starts the program and blocks until the user quits.
func Run(ctx context.Context, session *conversation.Session) error {
	_, err := tea.NewProgram(New(ctx, session), tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

func (m Model) Init() tea.Cmd {
	return textarea.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case resultMsg:
		msg.exchange.Apply(msg.result)
		m.refresh()
		return m, nil

	case spinner.TickMsg:
		if !m.session.Store().State().Pending() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m.quit()
		}
		if m.picking {
			return m.updatePicker(msg)
		}
		return m.handleKey(msg)
	}

	if m.picking {
		return m.updatePicker(msg)
	}
	var cmd tea.Cmd
	m.textarea, cmd = m.textarea.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		return m.quit()

	case tea.KeyEnter:
		return m.submit()

	case tea.KeyCtrlO:
		m.picking = true
		m.filepicker = newPicker()
		m.filepicker.Height = max(m.height-6, 5)
		return m, m.filepicker.Init()

	case tea.KeyCtrlX:
		m.session.Stager().Clear()
		m.notice = ""
		return m, nil

	case tea.KeyPgUp, tea.KeyPgDown:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.textarea, cmd = m.textarea.Update(msg)
	m.session.Composer().SetInput(m.textarea.Value())
	return m, cmd
}

func (m Model) updatePicker(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && key.Type == tea.KeyEsc {
		m.picking = false
		return m, nil
	}

	var cmd tea.Cmd
	m.filepicker, cmd = m.filepicker.Update(msg)

	if didSelect, path := m.filepicker.DidSelectFile(msg); didSelect {
		m.picking = false
		a, err := conversation.DescribeFile(path)
		if err != nil {
			m.notice = err.Error()
			return m, cmd
		}
		m.session.Stager().Stage(a)
		m.notice = ""
		return m, cmd
	}
	if didSelect, path := m.filepicker.DidSelectDisabledFile(msg); didSelect {
		m.notice = fmt.Sprintf("%s cannot be attached", path)
	}
	return m, cmd
}

// submit hands the input to the composer. Refusals leave everything as is.
func (m Model) submit() (tea.Model, tea.Cmd) {
	text := m.textarea.Value()
	ex, err := m.session.Submit(text)
	if err != nil {
		if !errors.Is(err, domain.ErrEmptySubmission) && !errors.Is(err, domain.ErrTurnPending) {
			observability.Logger().Warn("submit failed", zap.Error(err))
		}
		m.session.Composer().SetInput(text)
		return m, nil
	}

	m.textarea.Reset()
	m.notice = ""
	m.refresh()
	return m, tea.Batch(m.spinner.Tick, runExchange(m.ctx, ex))
}

func runExchange(ctx context.Context, ex *conversation.Exchange) tea.Cmd {
	return func() tea.Msg {
		return resultMsg{exchange: ex, result: ex.Run(ctx)}
	}
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	m.cancel()
	m.session.Close()
	return m, tea.Quit
}

func (m *Model) resize(width, height int) {
	m.width, m.height = width, height
	m.textarea.SetWidth(max(width-2, 10))
	m.viewport.Width = width
	m.viewport.Height = max(height-m.textarea.Height()-4, 3)
	m.filepicker.Height = max(height-6, 5)
	m.refresh()
}

// refresh re-renders the transcript from the current store state.
func (m *Model) refresh() {
	m.viewport.SetContent(m.renderHistory(m.session.Store().State()))
	m.viewport.GotoBottom()
}
