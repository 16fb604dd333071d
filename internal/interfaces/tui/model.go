// Package tui is a terminal front end for the booking form.
package tui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/example/table-booking/internal/application/form"
	"github.com/example/table-booking/internal/domain/booking"
)

// Focus positions, in tab order.
const (
	focusName = iota
	focusContact
	focusDate
	focusSlots
	focusGuests
	focusCount
)

var inputFields = map[int]booking.Field{
	focusName:    booking.FieldName,
	focusContact: booking.FieldContact,
	focusDate:    booking.FieldDate,
	focusGuests:  booking.FieldGuests,
}

var labels = map[booking.Field]string{
	booking.FieldName:    "Name",
	booking.FieldContact: "Contact",
	booking.FieldDate:    "Date (YYYY-MM-DD)",
	booking.FieldTime:    "Time",
	booking.FieldGuests:  "Guests",
}

// slotsMsg arrives once the controller has no fetch in flight.
type slotsMsg struct{}

type submittedMsg struct{ out form.Outcome }

type Model struct {
	ctrl    *form.Controller
	timeout time.Duration

	inputs map[booking.Field]*textinput.Model
	focus  int
	cursor int

	state      form.State
	notice     string
	submitting bool
	loading    bool

	styles Styles
}

func New(ctrl *form.Controller, timeout time.Duration) Model {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	m := Model{
		ctrl:    ctrl,
		timeout: timeout,
		inputs:  map[booking.Field]*textinput.Model{},
		state:   ctrl.State(),
		styles:  DefaultStyles(),
	}
	for _, f := range []booking.Field{booking.FieldName, booking.FieldContact, booking.FieldDate, booking.FieldGuests} {
		ti := textinput.New()
		ti.Prompt = "> "
		ti.CharLimit = 64
		ti.Width = 32
		m.inputs[f] = &ti
	}
	m.inputs[booking.FieldContact].CharLimit = 10
	m.inputs[booking.FieldDate].Placeholder = "2025-06-01"
	m.inputs[booking.FieldGuests].CharLimit = 3
	m.inputs[booking.FieldName].Focus()
	return m
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case slotsMsg:
		m.loading = false
		m.state = m.ctrl.State()
		m.cursor = clampCursor(m.cursor, len(m.state.Slots))
		return m, nil

	case submittedMsg:
		m.submitting = false
		m.state = m.ctrl.State()
		m.notice = m.ctrl.TakeNotice()
		if msg.out.Status == form.StatusConfirmed {
			m.syncInputs()
			m.cursor = 0
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key == "ctrl+c" || key == "esc" {
		return m, tea.Quit
	}
	// Any other key dismisses the notice first, like closing a dialog.
	if m.notice != "" {
		m.notice = ""
		return m, nil
	}

	switch key {
	case "tab", "down":
		cmd := m.moveFocus(1)
		return m, cmd
	case "shift+tab", "up":
		cmd := m.moveFocus(-1)
		return m, cmd
	case "ctrl+s":
		if m.submitting {
			return m, nil
		}
		m.submitting = true
		return m, m.submit()
	}

	if m.focus == focusSlots {
		switch key {
		case "left", "h":
			m.cursor = clampCursor(m.cursor-1, len(m.state.Slots))
		case "right", "l":
			m.cursor = clampCursor(m.cursor+1, len(m.state.Slots))
		case "enter", " ":
			if len(m.state.Slots) > 0 {
				_ = m.ctrl.SelectSlot(m.state.Slots[m.cursor])
				m.state = m.ctrl.State()
			}
		}
		return m, nil
	}

	field := inputFields[m.focus]
	in := m.inputs[field]
	before := in.Value()
	updated, cmd := in.Update(msg)
	*in = updated
	if after := in.Value(); after != before {
		_ = m.ctrl.SetField(field, after)
		m.state = m.ctrl.State()
		if field == booking.FieldDate {
			m.loading = after != ""
			return m, tea.Batch(cmd, m.awaitSlots())
		}
	}
	return m, cmd
}

func (m *Model) moveFocus(delta int) tea.Cmd {
	if field, ok := inputFields[m.focus]; ok {
		m.inputs[field].Blur()
	}
	m.focus = (m.focus + delta + focusCount) % focusCount
	if field, ok := inputFields[m.focus]; ok {
		return m.inputs[field].Focus()
	}
	if i := booking.IndexOfSlot(m.state.Slots, m.state.Form.Time); i >= 0 {
		m.cursor = i
	}
	return nil
}

func (m *Model) syncInputs() {
	for field, in := range m.inputs {
		in.SetValue(m.state.Form.Get(field))
	}
}

func (m Model) awaitSlots() tea.Cmd {
	ctrl, timeout := m.ctrl, m.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		_ = ctrl.AwaitSlots(ctx)
		return slotsMsg{}
	}
}

func (m Model) submit() tea.Cmd {
	ctrl, timeout := m.ctrl, m.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return submittedMsg{out: ctrl.Submit(ctx)}
	}
}

func clampCursor(i, n int) int {
	if n == 0 || i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

func (m Model) View() string {
	var b strings.Builder
	s := m.styles

	b.WriteString(s.Title.Render("Book a table"))
	b.WriteString("\n")

	for pos := 0; pos < focusCount; pos++ {
		if pos == focusSlots {
			m.viewSlots(&b)
			continue
		}
		field := inputFields[pos]
		label := s.Label
		if pos == m.focus {
			label = s.Focused
		}
		b.WriteString(label.Render(labels[field]))
		b.WriteString("\n")
		b.WriteString(m.inputs[field].View())
		b.WriteString("\n")
		if msg := m.state.Errors[field]; msg != "" {
			b.WriteString(s.Error.Render(msg))
			b.WriteString("\n")
		}
	}

	if m.submitting {
		b.WriteString("\nBooking...\n")
	}
	if m.notice != "" {
		b.WriteString("\n")
		b.WriteString(s.Notice.Render(m.notice + "\n\npress any key"))
		b.WriteString("\n")
	}
	if sum := m.state.Summary; sum != nil {
		b.WriteString("\n")
		b.WriteString(s.Summary.Render(strings.Join([]string{
			"Booking confirmed",
			"Name: " + sum.Name,
			"Contact: " + sum.Contact,
			"Date: " + sum.Date,
			"Time: " + sum.Time,
			"Guests: " + sum.Guests,
		}, "\n")))
		b.WriteString("\n")
	}

	b.WriteString(s.Help.Render("tab/shift+tab move • ←/→ enter pick time • ctrl+s book • esc quit"))
	b.WriteString("\n")
	return b.String()
}

func (m Model) viewSlots(b *strings.Builder) {
	s := m.styles
	label := s.Label
	if m.focus == focusSlots {
		label = s.Focused
	}
	b.WriteString(label.Render(labels[booking.FieldTime]))
	b.WriteString("\n")

	switch {
	case m.loading:
		b.WriteString("loading times...")
	case m.state.Form.Date == "" && len(m.state.Slots) == 0:
		b.WriteString("pick a date first")
	case len(m.state.Slots) == 0:
		b.WriteString("no time slots for this date")
	default:
		parts := make([]string, 0, len(m.state.Slots))
		for i, slot := range m.state.Slots {
			st := s.Slot
			switch {
			case m.state.SlotSelected(slot):
				st = s.Selected
			case m.focus == focusSlots && i == m.cursor:
				st = s.Cursor
			}
			parts = append(parts, st.Render(slot))
		}
		b.WriteString(strings.Join(parts, " "))
	}
	b.WriteString("\n")
	if m.state.SlotError != "" {
		b.WriteString(s.Error.Render(m.state.SlotError))
		b.WriteString("\n")
	}
	if msg := m.state.Errors[booking.FieldTime]; msg != "" {
		b.WriteString(s.Error.Render(msg))
		b.WriteString("\n")
	}
}

// Run starts the program on the terminal and blocks until the user quits.
func Run(ctx context.Context, ctrl *form.Controller, timeout time.Duration) error {
	_, err := tea.NewProgram(New(ctrl, timeout), tea.WithContext(ctx), tea.WithAltScreen()).Run()
	return err
}
