package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/promptdex/promptdex/internal/index"
)

// browseModel is the interactive panel: a live filter input over the
// ordered index with a count status line. The filter reads the store on
// every keystroke; the store is the single source of truth.
type browseModel struct {
	store  *index.Store
	title  string
	input  textinput.Model
	styles Styles

	entries []index.Entry
	cursor  int
	width   int
	height  int
}

// NewBrowseModel creates the browse panel model.
func NewBrowseModel(store *index.Store, title string, styles Styles) browseModel {
	input := textinput.New()
	input.Placeholder = "filter prompts"
	input.Prompt = "/ "
	input.Focus()

	return browseModel{
		store:   store,
		title:   title,
		input:   input,
		styles:  styles,
		entries: store.Search(""),
	}
}

// Init implements tea.Model.
func (m browseModel) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (m browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyUp:
			if m.cursor > 0 {
				m.cursor--
			}
			return m, nil
		case tea.KeyDown:
			if m.cursor < len(m.entries)-1 {
				m.cursor++
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.entries = m.store.Search(m.input.Value())
	if m.cursor >= len(m.entries) {
		m.cursor = 0
	}
	return m, cmd
}

// View implements tea.Model.
func (m browseModel) View() string {
	var sb strings.Builder

	title := m.title
	if title == "" {
		title = "promptdex"
	}
	sb.WriteString(m.styles.Header.Render(title))
	sb.WriteByte('\n')
	sb.WriteString(m.input.View())
	sb.WriteString("\n\n")

	for i, e := range m.entries {
		number := m.styles.Number.Render(fmt.Sprintf("%3d.", i+1))
		text := m.styles.Entry.Render(DisplayText(e.Text))
		if i == m.cursor {
			text = m.styles.Header.Render(DisplayText(e.Text))
		}
		fmt.Fprintf(&sb, "%s %s\n", number, text)
	}

	sb.WriteByte('\n')
	sb.WriteString(m.styles.Status.Render(StatusText(len(m.entries))))
	sb.WriteByte('\n')
	return sb.String()
}

// Selected returns the entry under the cursor, if any.
func (m browseModel) Selected() (index.Entry, bool) {
	if m.cursor < 0 || m.cursor >= len(m.entries) {
		return index.Entry{}, false
	}
	return m.entries[m.cursor], true
}

// RunBrowse runs the interactive panel until the user quits.
func RunBrowse(store *index.Store, title string, noColor bool) error {
	model := NewBrowseModel(store, title, GetStyles(noColor))
	_, err := tea.NewProgram(model, tea.WithAltScreen()).Run()
	return err
}
