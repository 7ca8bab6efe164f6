package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/idilsaglam/medimanage/internal/model"
	"github.com/idilsaglam/medimanage/internal/tracker"
)

// listItem adapts a medication to bubbles/list.Item
type listItem struct {
	med model.Medication
}

func (i listItem) Title() string       { return fmt.Sprintf("%s - Dosage: %s", i.med.Name, i.med.Dosage) }
func (i listItem) Description() string { return i.med.TimeLabel() }
func (i listItem) FilterValue() string { return i.med.Name + " " + i.med.Dosage }

// Custom delegate to control how items render (single line)
type itemDelegate struct{}

func (d itemDelegate) Height() int                               { return 1 }
func (d itemDelegate) Spacing() int                              { return 0 }
func (d itemDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }
func (d itemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, _ := item.(listItem)
	sym := mutedStyle.Render(symNoReminder + " --:--")
	if it.med.TimeOfDay != nil {
		sym = pendingStyle.Render(symReminder + " " + it.med.TimeLabel())
	}
	prefix := "  "
	if index == m.Index() {
		prefix = selectedStyle.Render("> ")
	}
	fmt.Fprintln(w, prefix+sym+"  "+it.Title())
}

type mode int

const (
	browsing mode = iota
	adding
	editing
	choosing
)

var sheetOptions = []string{"Edit", "Delete", "Cancel"}

// Model is the interactive medication list. Every change goes through the
// tracker, which persists it before the view refreshes.
type Model struct {
	ctx     context.Context
	tracker *tracker.Tracker

	list   list.Model
	width  int
	height int

	mode   mode
	inputs []textinput.Model
	focus  int
	target string // id of the record being edited or acted on
	sheet  int
	err    string
	status string
}

func newInput(placeholder string) textinput.Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = placeholder
	ti.CharLimit = 200
	return ti
}

func NewModel(ctx context.Context, tr *tracker.Tracker) Model {
	l := list.New(nil, itemDelegate{}, 0, 0)
	l.SetShowHelp(true)
	l.SetShowPagination(true)
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.Styles.Title = titleStyle
	l.Styles.HelpStyle = helpStyle
	l.Styles.PaginationStyle = helpStyle
	l.FilterInput.Prompt = "/ "
	l.SetStatusBarItemName("medication", "medications")

	addBind := key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add"))
	editBind := key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit"))
	delBind := key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete"))
	optBind := key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "options"))
	l.AdditionalShortHelpKeys = func() []key.Binding { return []key.Binding{addBind, editBind, delBind, optBind} }
	l.AdditionalFullHelpKeys = func() []key.Binding { return []key.Binding{addBind, editBind, delBind, optBind} }

	m := Model{ctx: ctx, tracker: tr, list: l}
	m.refresh()
	return m
}

// Run starts the program on the alternate screen and blocks until quit.
func Run(ctx context.Context, tr *tracker.Tracker) error {
	p := tea.NewProgram(NewModel(ctx, tr), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

func (m *Model) refresh() {
	items := m.tracker.Items()
	li := make([]list.Item, 0, len(items))
	timed := 0
	for _, it := range items {
		li = append(li, listItem{med: it})
		if it.TimeOfDay != nil {
			timed++
		}
	}
	m.list.SetItems(li)
	m.list.Title = fmt.Sprintf("%s   %s %d  %s %d",
		titleStyle.Render("Medications"),
		pendingStyle.Render(symReminder), timed,
		accentStyle.Render("Total"), len(items),
	)
}

// indexOf maps a record id to its position in the tracker's list.
func (m Model) indexOf(id string) int {
	for i, it := range m.tracker.Items() {
		if it.ID == id {
			return i
		}
	}
	return -1
}

func (m Model) selected() (model.Medication, bool) {
	it, ok := m.list.SelectedItem().(listItem)
	if !ok {
		return model.Medication{}, false
	}
	return it.med, true
}

func (m *Model) openForm(md mode, med model.Medication) tea.Cmd {
	m.mode, m.err, m.focus = md, "", 0
	if md == adding {
		m.inputs = []textinput.Model{
			newInput("Medication Name"),
			newInput("Dosage"),
			newInput("Time HH:MM (optional)"),
		}
	} else {
		m.target = med.ID
		m.inputs = []textinput.Model{newInput("Medication Name"), newInput("Dosage")}
		m.inputs[0].SetValue(med.Name)
		m.inputs[1].SetValue(med.Dosage)
		m.inputs[0].CursorEnd()
	}
	return m.inputs[0].Focus()
}

func (m *Model) closeForm() {
	m.mode, m.inputs, m.err, m.target = browsing, nil, "", ""
}

func (m *Model) moveFocus(delta int) tea.Cmd {
	m.inputs[m.focus].Blur()
	m.focus = (m.focus + delta + len(m.inputs)) % len(m.inputs)
	return m.inputs[m.focus].Focus()
}

func (m *Model) submit() {
	name, dosage := m.inputs[0].Value(), m.inputs[1].Value()
	switch m.mode {
	case adding:
		at, err := model.ParseClock(m.inputs[2].Value())
		if err != nil {
			m.err = err.Error()
			return
		}
		med, err := m.tracker.Add(m.ctx, name, dosage, at)
		if err != nil {
			m.err = formError(err)
			return
		}
		m.status = "added " + med.Name
	case editing:
		i := m.indexOf(m.target)
		med, err := m.tracker.Edit(m.ctx, i, name, dosage, nil)
		if err != nil {
			m.err = formError(err)
			return
		}
		m.status = "updated " + med.Name
	}
	m.closeForm()
	m.refresh()
}

func formError(err error) string {
	if errors.Is(err, tracker.ErrInvalidInput) {
		return "Please enter medication name and dosage"
	}
	return err.Error()
}

func (m *Model) remove(id string) {
	med, err := m.tracker.Delete(m.ctx, m.indexOf(id))
	if err != nil {
		m.status, m.err = "", err.Error()
		return
	}
	m.status, m.err = "deleted "+med.Name, ""
	m.refresh()
}

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if ws, ok := msg.(tea.WindowSizeMsg); ok {
		m.width, m.height = ws.Width, ws.Height
		m.resize()
		return m, nil
	}

	switch m.mode {
	case adding, editing:
		return m.updateForm(msg)
	case choosing:
		return m.updateSheet(msg)
	}

	if km, ok := msg.(tea.KeyMsg); ok && m.list.FilterState() != list.Filtering {
		m.err = ""
		switch km.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case "a":
			m.status = ""
			return m, m.openForm(adding, model.Medication{})
		case "e":
			if med, ok := m.selected(); ok {
				m.status = ""
				return m, m.openForm(editing, med)
			}
			return m, nil
		case "d":
			if med, ok := m.selected(); ok {
				m.remove(med.ID)
			}
			return m, nil
		case "enter":
			if med, ok := m.selected(); ok {
				m.mode, m.target, m.sheet, m.status = choosing, med.ID, 0, ""
			}
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if km, ok := msg.(tea.KeyMsg); ok {
		switch km.String() {
		case "esc":
			m.closeForm()
			return m, nil
		case "tab", "down":
			return m, m.moveFocus(1)
		case "shift+tab", "up":
			return m, m.moveFocus(-1)
		case "enter":
			if m.focus < len(m.inputs)-1 {
				return m, m.moveFocus(1)
			}
			m.submit()
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m Model) updateSheet(msg tea.Msg) (tea.Model, tea.Cmd) {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch km.String() {
	case "up", "k":
		m.sheet = (m.sheet + len(sheetOptions) - 1) % len(sheetOptions)
	case "down", "j", "tab":
		m.sheet = (m.sheet + 1) % len(sheetOptions)
	case "esc", "q":
		m.mode, m.target = browsing, ""
	case "enter":
		id := m.target
		m.mode, m.target = browsing, ""
		switch sheetOptions[m.sheet] {
		case "Edit":
			for _, it := range m.tracker.Items() {
				if it.ID == id {
					return m, m.openForm(editing, it)
				}
			}
		case "Delete":
			m.remove(id)
		}
	}
	return m, nil
}

func (m *Model) resize() {
	h := m.height - 4
	if m.mode != browsing {
		h = m.height - 10
	}
	if h < 3 {
		h = 3
	}
	w := m.width - 4
	if w < 20 {
		w = 20
	}
	m.list.SetSize(w, h)
}

func (m Model) View() string {
	m.resize()
	content := m.list.View()

	switch m.mode {
	case adding, editing:
		title := "Add Medication"
		if m.mode == editing {
			title = "Edit Medication"
		}
		lines := []string{titleStyle.Render(title)}
		if m.err != "" {
			lines = append(lines, errorStyle.Render(m.err))
		}
		for _, in := range m.inputs {
			lines = append(lines, in.View())
		}
		lines = append(lines, helpStyle.Render("enter next/save • tab move • esc cancel"))
		content += "\n" + frameStyle.Render(strings.Join(lines, "\n"))
	case choosing:
		name := ""
		for _, it := range m.tracker.Items() {
			if it.ID == m.target {
				name = it.Name
			}
		}
		lines := []string{titleStyle.Render("Options for " + name)}
		for i, opt := range sheetOptions {
			if i == m.sheet {
				lines = append(lines, selectedStyle.Render("> "+opt))
			} else {
				lines = append(lines, "  "+opt)
			}
		}
		content += "\n" + frameStyle.Render(strings.Join(lines, "\n"))
	default:
		if m.err != "" {
			content += "\n" + errorStyle.Render("✘ "+m.err)
		} else if m.status != "" {
			content += "\n" + successStyle.Render("✔ "+m.status)
		}
	}
	return frameStyle.Render(content)
}
