package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/valter-silva-au/mytasks/internal/core"
	"github.com/valter-silva-au/mytasks/internal/storage"
	"github.com/valter-silva-au/mytasks/pkg/models"
)

// Form field indices.
const (
	fieldTitle = iota
	fieldSummary
	fieldState
	fieldDeadline
	fieldCount
)

// Sort modes cycled by "s".
var sortCycle = []string{core.SortModeNone, core.SortModeDeadline, core.SortModePriority}

type palette struct {
	title    lipgloss.Style
	header   lipgloss.Style
	card     lipgloss.Style
	selected lipgloss.Style
	taskName lipgloss.Style
	muted    lipgloss.Style
	notDone  lipgloss.Style
	doing    lipgloss.Style
	done     lipgloss.Style
	errText  lipgloss.Style
	help     lipgloss.Style
	focus    lipgloss.Style
}

func newPalette(theme models.Theme) palette {
	fg, bg, accent, dim, border := lipgloss.Color("235"), lipgloss.Color("255"), lipgloss.Color("25"), lipgloss.Color("244"), lipgloss.Color("250")
	if theme == models.ThemeDark {
		fg, bg, accent, dim, border = lipgloss.Color("252"), lipgloss.Color("235"), lipgloss.Color("111"), lipgloss.Color("243"), lipgloss.Color("240")
	}

	card := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Foreground(fg).
		Padding(0, 1)

	return palette{
		title: lipgloss.NewStyle().
			Bold(true).
			Foreground(bg).
			Background(accent).
			Padding(0, 1),
		header:   lipgloss.NewStyle().Bold(true).Foreground(accent),
		card:     card,
		selected: card.BorderForeground(accent),
		taskName: lipgloss.NewStyle().Bold(true).Foreground(fg),
		muted:    lipgloss.NewStyle().Foreground(dim),
		notDone:  lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		doing:    lipgloss.NewStyle().Foreground(lipgloss.Color("172")).Bold(true),
		done:     lipgloss.NewStyle().Foreground(lipgloss.Color("35")),
		errText:  lipgloss.NewStyle().Foreground(lipgloss.Color("160")).Bold(true),
		help:     lipgloss.NewStyle().Foreground(dim),
		focus:    lipgloss.NewStyle().Foreground(accent).Bold(true),
	}
}

func (p palette) forState(state models.TaskState) lipgloss.Style {
	switch state {
	case models.StateDone:
		return p.done
	case models.StateDoing:
		return p.doing
	default:
		return p.notDone
	}
}

// formInputWidth is the text input width before a window size is known.
const formInputWidth = 40

// taskForm holds the creation/edit form. editingID is empty for a new task.
type taskForm struct {
	editingID string
	title     textinput.Model
	summary   textinput.Model
	state     models.TaskState
	deadline  textinput.Model
	focus     int
	err       string
}

func newFormInput(placeholder string, width int) textinput.Model {
	ti := textinput.New()
	ti.Prompt = ""
	ti.Placeholder = placeholder
	ti.CharLimit = 256
	ti.Width = width
	return ti
}

func newTaskForm(width int) *taskForm {
	f := &taskForm{
		title:    newFormInput("Task Title", width),
		summary:  newFormInput("Task Summary", width),
		state:    models.StateNotDone,
		deadline: newFormInput("YYYY-MM-DD", width),
	}
	f.setFocus(fieldTitle)
	return f
}

func editTaskForm(t models.Task, width int) *taskForm {
	f := newTaskForm(width)
	f.editingID = t.ID
	f.title.SetValue(t.Title)
	f.summary.SetValue(t.Summary)
	f.state = t.State
	f.deadline.SetValue(t.Deadline)
	return f
}

// input returns the text input at field, or nil for the state field.
func (f *taskForm) input(field int) *textinput.Model {
	switch field {
	case fieldTitle:
		return &f.title
	case fieldSummary:
		return &f.summary
	case fieldDeadline:
		return &f.deadline
	}
	return nil
}

func (f *taskForm) setFocus(field int) tea.Cmd {
	f.focus = field
	var cmd tea.Cmd
	for i := 0; i < fieldCount; i++ {
		in := f.input(i)
		if in == nil {
			continue
		}
		if i == field {
			cmd = in.Focus()
		} else {
			in.Blur()
		}
	}
	return cmd
}

func (f *taskForm) setWidth(width int) {
	for i := 0; i < fieldCount; i++ {
		if in := f.input(i); in != nil {
			in.Width = width
		}
	}
}

func (f *taskForm) cycleState(step int) {
	idx := 0
	for i, s := range models.AllStates {
		if s == f.state {
			idx = i
		}
	}
	n := len(models.AllStates)
	f.state = models.AllStates[(idx+step+n)%n]
}

type tuiModel struct {
	store  core.TaskStore
	themes storage.ThemeStore
	theme  models.Theme
	styles palette

	// filter is 0 for no filter, otherwise models.AllStates[filter-1].
	filter        int
	sort          int
	priorityState models.TaskState

	cursor int
	width  int
	// inputWidth sizes the form's text inputs.
	inputWidth int

	form      *taskForm
	status    string
	statusErr bool
}

func newTUIModel(store core.TaskStore, themes storage.ThemeStore, defaults core.ViewOptions) tuiModel {
	theme := models.ThemeLight
	if themes != nil {
		theme = themes.Get()
	}
	m := tuiModel{
		store:         store,
		themes:        themes,
		theme:         theme,
		styles:        newPalette(theme),
		priorityState: defaults.PriorityState,
		inputWidth:    formInputWidth,
	}
	for i, s := range sortCycle {
		if s == defaults.Sort {
			m.sort = i
		}
	}
	return m
}

func (m tuiModel) Init() tea.Cmd {
	return nil
}

func (m tuiModel) viewOptions() core.ViewOptions {
	opts := core.ViewOptions{Sort: sortCycle[m.sort], PriorityState: m.priorityState}
	if m.filter > 0 {
		state := models.AllStates[m.filter-1]
		opts.State = &state
	}
	return opts
}

// sectioned reports whether the list is shown as pending and completed
// sections rather than one projected list.
func (m tuiModel) sectioned() bool {
	return m.filter == 0 && sortCycle[m.sort] == core.SortModeNone
}

// rows returns the tasks in the order they are displayed.
func (m tuiModel) rows() []models.Task {
	tasks := m.store.List()
	if m.sectioned() {
		pending, completed := core.PartitionByCompletion(tasks)
		return append(pending, completed...)
	}
	return core.Project(tasks, m.viewOptions())
}

func (m tuiModel) selected() (models.Task, bool) {
	rows := m.rows()
	if m.cursor < 0 || m.cursor >= len(rows) {
		return models.Task{}, false
	}
	return rows[m.cursor], true
}

func (m *tuiModel) clampCursor() {
	n := len(m.rows())
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// moveCursorTo points the cursor at the task with id, if it is visible.
func (m *tuiModel) moveCursorTo(id string) {
	for i, t := range m.rows() {
		if t.ID == id {
			m.cursor = i
			return
		}
	}
	m.clampCursor()
}

func (m *tuiModel) setStatus(msg string, isErr bool) {
	m.status = msg
	m.statusErr = isErr
}

func (m *tuiModel) toggleTheme() {
	next := m.theme.Toggled()
	if m.themes != nil {
		toggled, err := m.themes.Toggle()
		if err != nil {
			m.setStatus(err.Error(), true)
			return
		}
		next = toggled
	}
	m.theme = next
	m.styles = newPalette(next)
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+j" {
			m.toggleTheme()
			return m, nil
		}
		if m.form != nil {
			return m.updateForm(msg)
		}
		return m.updateList(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		if msg.Width > 20 {
			m.inputWidth = msg.Width - 16
		}
		if m.form != nil {
			m.form.setWidth(m.inputWidth)
		}
		return m, nil
	}
	return m, nil
}

func (m tuiModel) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.rows())-1 {
			m.cursor++
		}
	case " ", "x":
		task, ok := m.selected()
		if !ok {
			return m, nil
		}
		toggled, err := m.store.ToggleComplete(task.ID)
		if err != nil {
			m.setStatus(err.Error(), true)
			return m, nil
		}
		m.setStatus(fmt.Sprintf("%s is now %s", toggled.Title, toggled.State), false)
		m.moveCursorTo(toggled.ID)
	case "d":
		task, ok := m.selected()
		if !ok {
			return m, nil
		}
		if err := m.store.Delete(task.ID); err != nil {
			m.setStatus(err.Error(), true)
			return m, nil
		}
		m.setStatus(fmt.Sprintf("Deleted %s", task.Title), false)
		m.clampCursor()
	case "n":
		m.form = newTaskForm(m.inputWidth)
	case "e":
		if task, ok := m.selected(); ok {
			m.form = editTaskForm(task, m.inputWidth)
		}
	case "f":
		m.filter = (m.filter + 1) % (len(models.AllStates) + 1)
		m.clampCursor()
	case "s":
		m.sort = (m.sort + 1) % len(sortCycle)
		m.clampCursor()
	}
	return m, nil
}

func (m tuiModel) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	f := m.form
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.form = nil
		return m, nil
	case "tab", "down":
		return m, f.setFocus((f.focus + 1) % fieldCount)
	case "shift+tab", "up":
		return m, f.setFocus((f.focus - 1 + fieldCount) % fieldCount)
	case "enter":
		return m.submitForm()
	}

	if f.focus == fieldState {
		switch msg.String() {
		case "left", "h":
			f.cycleState(-1)
		case "right", "l", " ":
			f.cycleState(1)
		}
		return m, nil
	}

	in := f.input(f.focus)
	var cmd tea.Cmd
	*in, cmd = in.Update(msg)
	return m, cmd
}

func (m tuiModel) submitForm() (tea.Model, tea.Cmd) {
	f := m.form
	title, summary, deadline := f.title.Value(), f.summary.Value(), f.deadline.Value()
	if strings.TrimSpace(title) == "" {
		f.err = "Title is required"
		return m, f.setFocus(fieldTitle)
	}

	var (
		task models.Task
		err  error
	)
	if f.editingID == "" {
		task, err = m.store.Create(core.TaskInput{
			Title:    title,
			Summary:  summary,
			State:    f.state,
			Deadline: deadline,
		})
	} else {
		task, err = m.store.Update(f.editingID, core.TaskPatch{
			Title:    &title,
			Summary:  &summary,
			State:    &f.state,
			Deadline: &deadline,
		})
	}
	if err != nil {
		f.err = err.Error()
		return m, nil
	}

	if f.editingID == "" {
		m.setStatus(fmt.Sprintf("Added %s", task.Title), false)
	} else {
		m.setStatus(fmt.Sprintf("Saved %s", task.Title), false)
	}
	m.form = nil
	m.moveCursorTo(task.ID)
	return m, nil
}

func (m tuiModel) View() string {
	var b strings.Builder
	b.WriteString(m.styles.title.Render(" My Tasks "))
	b.WriteString(m.styles.muted.Render(fmt.Sprintf("  theme: %s", m.theme)))
	b.WriteString("\n\n")

	if m.form != nil {
		b.WriteString(m.renderForm())
		b.WriteString("\n\n")
		b.WriteString(m.styles.help.Render("tab: next field | ←/→: change state | enter: save | esc: cancel | ctrl+j: theme"))
		return b.String()
	}

	b.WriteString(m.renderList())
	if m.status != "" {
		b.WriteString("\n")
		if m.statusErr {
			b.WriteString(m.styles.errText.Render(m.status))
		} else {
			b.WriteString(m.styles.muted.Render(m.status))
		}
	}
	b.WriteString("\n\n")
	b.WriteString(m.styles.help.Render("↑/↓: move | space: toggle | n: new | e: edit | d: delete | f: filter | s: sort | ctrl+j: theme | q: quit"))
	return b.String()
}

func (m tuiModel) renderList() string {
	var b strings.Builder
	rows := m.rows()

	if m.sectioned() {
		pending, _ := core.PartitionByCompletion(m.store.List())
		b.WriteString(m.renderSection("Pending Tasks", rows[:len(pending)], 0, "No pending tasks"))
		b.WriteString("\n")
		b.WriteString(m.renderSection("Completed Tasks", rows[len(pending):], len(pending), "No completed tasks"))
		return b.String()
	}

	opts := m.viewOptions()
	return m.renderSection(viewHeading(opts), rows, 0, "No matching tasks")
}

// renderSection renders tasks whose first row index in m.rows() is offset.
func (m tuiModel) renderSection(heading string, tasks []models.Task, offset int, empty string) string {
	var b strings.Builder
	b.WriteString(m.styles.header.Render(heading))
	b.WriteString("\n")
	if len(tasks) == 0 {
		b.WriteString(m.styles.muted.Render("  " + empty))
		b.WriteString("\n")
		return b.String()
	}
	for i, t := range tasks {
		b.WriteString(m.renderCard(t, offset+i == m.cursor))
		b.WriteString("\n")
	}
	return b.String()
}

func (m tuiModel) renderCard(t models.Task, selected bool) string {
	style := m.styles.card
	if selected {
		style = m.styles.selected
	}
	if m.width > 8 {
		style = style.Width(m.width - 4)
	}

	body := lipgloss.JoinVertical(lipgloss.Left,
		m.styles.taskName.Render(t.Title)+"  "+m.styles.forState(t.State).Render(string(t.State)),
		m.styles.muted.Render("Deadline: "+t.DisplayDeadline()),
		t.DisplaySummary(),
	)
	return style.Render(body)
}

func (m tuiModel) renderForm() string {
	f := m.form
	heading := "New Task"
	if f.editingID != "" {
		heading = "Edit " + f.editingID
	}

	labels := [fieldCount]string{"Title", "Summary", "State", "Deadline"}
	values := [fieldCount]string{f.title.View(), f.summary.View(), "< " + string(f.state) + " >", f.deadline.View()}

	var b strings.Builder
	b.WriteString(m.styles.header.Render(heading))
	b.WriteString("\n\n")
	for i := 0; i < fieldCount; i++ {
		label := fmt.Sprintf("%-9s", labels[i]+":")
		value := values[i]
		if i == f.focus {
			b.WriteString(m.styles.focus.Render("> "+label) + " " + value)
		} else {
			b.WriteString("  " + label + " " + value)
		}
		b.WriteString("\n")
	}
	if f.err != "" {
		b.WriteString("\n")
		b.WriteString(m.styles.errText.Render(f.err))
	}
	return b.String()
}

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Interactive terminal view of the task list",
	Long: `Launch an interactive terminal view with pending and completed tasks.

Move with ↑/↓ (or k/j), toggle with space, add with n, edit with e, delete
with d. f cycles the state filter, s cycles the sort, ctrl+j switches between
the light and dark theme, q quits.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Store == nil {
			return errStoreNotInitialized
		}
		p := tea.NewProgram(newTUIModel(Store, Themes, ViewDefaults), tea.WithAltScreen())
		_, err := p.Run()
		return err
	},
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}
