package tui

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/feedr/feedr/internal/models"
	"github.com/feedr/feedr/internal/navgate"
)

// newScheduleForm builds the add-schedule form.
func newScheduleForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("time").
				Title("Time of day (HH:MM)").
				Validate(models.ValidateTimeOfDay),
			huh.NewInput().
				Key("amount").
				Title("Amount (grams)").
				Validate(func(s string) error {
					n, err := strconv.Atoi(strings.TrimSpace(s))
					if err != nil || n <= 0 {
						return fmt.Errorf("amount must be a positive number")
					}
					return nil
				}),
		).Title("New schedule"),
	)
}

// completedScheduleForm turns the finished form into a create command.
func (m Model) completedScheduleForm() tea.Cmd {
	pet := m.deps.Sync.Selected()
	if pet == nil {
		return nil
	}
	timeOfDay := m.scheduleForm.GetString("time")
	amount, err := strconv.Atoi(strings.TrimSpace(m.scheduleForm.GetString("amount")))
	if err != nil {
		return nil
	}
	return m.createScheduleCmd(pet.ID, timeOfDay, amount)
}

func (m Model) handleScheduleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		return m, m.navigate(navgate.RouteDashboard)
	case "a":
		m.scheduleForm = newScheduleForm()
		return m, m.scheduleForm.Init()
	case "j", "down":
		if m.schedIndex < len(m.schedules)-1 {
			m.schedIndex++
		}
		return m, nil
	case "k", "up":
		if m.schedIndex > 0 {
			m.schedIndex--
		}
		return m, nil
	case " ", "enter":
		if m.schedIndex < len(m.schedules) {
			return m, m.toggleScheduleCmd(m.schedules[m.schedIndex])
		}
		return m, nil
	case "d":
		if m.schedIndex < len(m.schedules) {
			return m, m.deleteScheduleCmd(m.schedules[m.schedIndex].ID)
		}
		return m, nil
	}
	return m, nil
}

func (m Model) viewSchedule() string {
	if m.scheduleForm != nil {
		return titleStyle.Render("New schedule") + "\n\n" + m.scheduleForm.View()
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Schedules"))
	if pet := m.deps.Sync.Selected(); pet != nil {
		b.WriteString("  " + subtleStyle.Render(pet.Name))
	}
	b.WriteString("\n\n")

	if len(m.schedules) == 0 {
		b.WriteString(subtleStyle.Render("No schedules. Press a to add one.") + "\n")
	}
	for i, s := range m.schedules {
		cursor := "  "
		line := fmt.Sprintf("%s  %4dg", s.TimeOfDay, s.AmountG)
		if !s.Active {
			line += subtleStyle.Render("  (paused)")
		}
		if i == m.schedIndex {
			cursor = selectedStyle.Render("> ")
			line = selectedStyle.Render(line)
		}
		b.WriteString(cursor + line + "\n")
	}

	b.WriteString("\n" + helpStyle.Render("a add • space toggle • d delete • j/k move • esc back"))
	return panelStyle.Render(b.String())
}
