package tui

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/feedr/feedr/internal/navgate"
)

func (m Model) handleControlKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		return m, m.navigate(navgate.RouteDashboard)
	case "enter":
		pet := m.deps.Sync.Selected()
		if pet == nil {
			m.setFlash("Select a pet first", true)
			return m, nil
		}
		amount, err := strconv.Atoi(strings.TrimSpace(m.amountInput.Value()))
		if err != nil || amount <= 0 {
			m.setFlash("Amount must be a positive number of grams", true)
			return m, nil
		}
		m.amountInput.SetValue("")
		return m, m.feedNowCmd(pet.ID, amount)
	}

	var cmd tea.Cmd
	m.amountInput, cmd = m.amountInput.Update(msg)
	return m, cmd
}

func (m Model) viewControl() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Feed now") + "\n\n")

	pet := m.deps.Sync.Selected()
	if pet == nil {
		b.WriteString("No pet selected.\n")
	} else {
		b.WriteString(fmt.Sprintf("Feeding %s\n\n", headerStyle.Render(pet.Name)))
		b.WriteString("Amount: " + m.amountInput.View() + "\n")
	}

	b.WriteString("\n" + helpStyle.Render("enter feed • esc back"))
	return panelStyle.Render(b.String())
}
