package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/lingonote/lingonote/internal/record"
	"github.com/lingonote/lingonote/internal/remote"
)

type view int

const (
	viewMenu view = iota
	viewInput
	viewLoading
	viewList
	viewResults
)

type inputMode int

const (
	inputModeTranslate inputMode = iota
	inputModeFilePath
	inputModeWord
	inputModeMeaning
)

const listLimit = 20

var menuItems = []string{
	"Translate text",
	"Translate document",
	"Translation history",
	"Vocabulary notes",
	"Add vocabulary note",
	"Exit",
}

// translateResultMsg carries the result of an async translation
type translateResultMsg struct {
	result *remote.TranslateResult
	err    error
}

type model struct {
	ctx     context.Context
	nb      *notebook
	view    view
	cursor  int
	lines   []string
	title   string
	result  *remote.TranslateResult
	message string
	err     error
	input   textinput.Model
	mode    inputMode
	word    string
	spinner spinner.Model
}

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")).
			MarginBottom(1)

	menuStyle = lipgloss.NewStyle().
			Padding(1, 2)

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("170")).
			Bold(true)

	normalStyle = lipgloss.NewStyle()

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)
)

func newModel(ctx context.Context, nb *notebook) model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return model{
		ctx:     ctx,
		nb:      nb,
		view:    viewMenu,
		input:   textinput.New(),
		spinner: s,
	}
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case translateResultMsg:
		m.err = msg.err
		m.result = msg.result
		m.message = ""
		m.view = viewResults
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			if msg.String() == "q" && m.view == viewInput {
				break
			}
			if m.view == viewMenu {
				return m, tea.Quit
			}
			// Return to menu from other views
			return m.backToMenu(), nil

		case "up", "k":
			if m.view == viewMenu && m.cursor > 0 {
				m.cursor--
			}

		case "down", "j":
			if m.view == viewMenu && m.cursor < len(menuItems)-1 {
				m.cursor++
			}

		case "enter":
			switch m.view {
			case viewMenu:
				return m.handleMenuSelection()
			case viewInput:
				return m.handleInputSubmission()
			case viewResults, viewList:
				return m.backToMenu(), nil
			}
		}
	}

	// Handle text input when in input view
	if m.view == viewInput {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m model) backToMenu() model {
	m.view = viewMenu
	m.err = nil
	m.result = nil
	m.message = ""
	m.word = ""
	m.input.Reset()
	return m
}

func (m model) prompt(mode inputMode, placeholder string) (tea.Model, tea.Cmd) {
	m.view = viewInput
	m.mode = mode
	m.input.Reset()
	m.input.Placeholder = placeholder
	m.input.Focus()
	return m, textinput.Blink
}

func (m model) handleMenuSelection() (tea.Model, tea.Cmd) {
	switch m.cursor {
	case 0:
		return m.prompt(inputModeTranslate, "Text to translate into English")
	case 1:
		return m.prompt(inputModeFilePath, "Enter file path (PDF, DOCX or TXT)")
	case 2:
		items, err := m.nb.listTranslations(m.ctx)
		m.err = err
		m.title = "Translation History"
		m.lines = nil
		for _, t := range items {
			m.lines = append(m.lines, fmt.Sprintf("[%s] %s → %s", t.DetectedLanguage, t.OriginalText, t.TranslatedText))
		}
		m.view = viewList
	case 3:
		items, err := m.nb.listVocabulary(m.ctx)
		m.err = err
		m.title = "Vocabulary Notes"
		m.lines = nil
		for _, v := range items {
			m.lines = append(m.lines, formatNote(v))
		}
		m.view = viewList
	case 4:
		return m.prompt(inputModeWord, "Word")
	case 5:
		return m, tea.Quit
	}
	return m, nil
}

func (m model) handleInputSubmission() (tea.Model, tea.Cmd) {
	value := strings.TrimSpace(m.input.Value())
	m.input.Reset()

	switch m.mode {
	case inputModeTranslate, inputModeFilePath:
		if value == "" {
			return m.backToMenu(), nil
		}
		m.view = viewLoading
		m.err = nil
		nb, ctx, mode := m.nb, m.ctx, m.mode
		translateCmd := func() tea.Msg {
			var (
				res *remote.TranslateResult
				err error
			)
			if mode == inputModeFilePath {
				res, err = nb.translateFile(ctx, value, "en")
			} else {
				res, err = nb.translate(ctx, value, "en", "")
			}
			return translateResultMsg{result: res, err: err}
		}
		return m, tea.Batch(translateCmd, m.spinner.Tick)

	case inputModeWord:
		if value == "" {
			return m.backToMenu(), nil
		}
		m.word = value
		return m.prompt(inputModeMeaning, "Meaning of "+value)

	case inputModeMeaning:
		v, err := m.nb.saveVocabulary(m.ctx, record.VocabularyInput{Word: m.word, Meaning: value})
		m.err = err
		if err == nil {
			m.message = fmt.Sprintf("Saved %q to your %s notes.", v.Word, m.nb.mode())
		}
		m.view = viewResults
	}

	return m, nil
}

func (m model) View() string {
	switch m.view {
	case viewInput:
		return m.renderInput()
	case viewLoading:
		return m.renderLoading()
	case viewList:
		return m.renderList()
	case viewResults:
		return m.renderResults()
	}
	return m.renderMenu()
}

func (m model) header() string {
	mode := "Guest mode: notes are kept on this machine"
	if m.nb.user != nil {
		mode = "Signed in as " + m.nb.user.Email
	}
	return titleStyle.Render("Lingonote") + "\n" + mutedStyle.Render(mode) + "\n\n"
}

func (m model) renderMenu() string {
	var s strings.Builder
	s.WriteString(m.header())

	for i, item := range menuItems {
		if m.cursor == i {
			s.WriteString(selectedStyle.Render("> " + item))
		} else {
			s.WriteString(normalStyle.Render("  " + item))
		}
		s.WriteString("\n")
	}

	s.WriteString("\n\n")
	s.WriteString("Use ↑/↓ arrows or j/k to navigate, Enter to select, q to quit")

	return menuStyle.Render(s.String())
}

func (m model) renderLoading() string {
	var s strings.Builder
	s.WriteString(m.header())
	s.WriteString(m.spinner.View())
	s.WriteString(" Translating...")
	return menuStyle.Render(s.String())
}

func (m model) renderInput() string {
	var s strings.Builder
	s.WriteString(m.header())
	s.WriteString(m.input.View())
	s.WriteString("\n\n")
	s.WriteString("Press Enter to submit, Esc to cancel")
	return menuStyle.Render(s.String())
}

func (m model) renderList() string {
	var s strings.Builder
	s.WriteString(titleStyle.Render(m.title))
	s.WriteString("\n\n")

	switch {
	case m.err != nil:
		s.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
	case len(m.lines) == 0:
		s.WriteString("Nothing here yet.\n")
	default:
		s.WriteString(fmt.Sprintf("Total items: %d\n\n", len(m.lines)))
		for i, line := range m.lines {
			if i >= listLimit {
				s.WriteString(fmt.Sprintf("\n... and %d more items\n", len(m.lines)-listLimit))
				break
			}
			s.WriteString(fmt.Sprintf("%d. %s\n", i+1, line))
		}
	}

	s.WriteString("\n\nPress Enter to return to menu")
	return menuStyle.Render(s.String())
}

func (m model) renderResults() string {
	var s strings.Builder
	s.WriteString(titleStyle.Render("Results"))
	s.WriteString("\n\n")

	switch {
	case m.err != nil:
		s.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
	case m.result != nil:
		s.WriteString(successStyle.Render(m.result.TranslatedText))
		s.WriteString("\n\n")
		s.WriteString(fmt.Sprintf("Detected language: %s\n", m.result.DetectedLanguage))
	case m.message != "":
		s.WriteString(successStyle.Render(m.message))
	}

	s.WriteString("\n\nPress Enter to return to menu")
	return menuStyle.Render(s.String())
}

func runTUI(ctx context.Context) error {
	p := tea.NewProgram(newModel(ctx, nb), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("failed to run interface: %w", err)
	}
	return nil
}
