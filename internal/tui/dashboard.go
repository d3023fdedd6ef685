package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/feedr/feedr/internal/feedsync"
	"github.com/feedr/feedr/internal/navgate"
)

func (m Model) handleDashboardKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "r":
		return m, m.refreshCmd()
	case "f":
		return m, m.navigate(navgate.RouteControl)
	case "s":
		return m, m.navigate(navgate.RouteSchedule)
	case "p":
		return m, m.navigate(navgate.RoutePets)
	case "tab":
		return m.cyclePet(1)
	case "shift+tab":
		return m.cyclePet(-1)
	case "L":
		return m, m.logoutCmd()
	}
	return m, nil
}

// cyclePet switches the sync selection to the next pet in list order.
func (m Model) cyclePet(delta int) (tea.Model, tea.Cmd) {
	if len(m.pets) < 2 {
		return m, nil
	}
	selected := m.deps.Sync.Selected()
	idx := 0
	if selected != nil {
		for i := range m.pets {
			if m.pets[i].ID == selected.ID {
				idx = i
				break
			}
		}
	}
	idx = (idx + delta + len(m.pets)) % len(m.pets)
	return m, m.selectPetCmd(m.pets[idx])
}

func (m Model) viewDashboard() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Dashboard"))
	if m.auth.Identity != nil {
		b.WriteString("  " + subtleStyle.Render(m.auth.Identity.Email))
	}
	b.WriteString("\n\n")

	pet := m.deps.Sync.Selected()
	if pet == nil {
		b.WriteString("No pets yet. Press " + headerStyle.Render("p") + " to add one.\n")
		b.WriteString("\n" + helpStyle.Render("p pets • r refresh • L logout • ? help • q quit"))
		return panelStyle.Render(b.String())
	}

	b.WriteString(headerStyle.Render(pet.Name))
	b.WriteString(subtleStyle.Render(fmt.Sprintf("  (%s, %.1f kg)", pet.Type, pet.WeightKg)))
	b.WriteString("\n\n")

	feeds := m.deps.Sync.Feeds()
	switch m.deps.Sync.State() {
	case feedsync.Loading:
		b.WriteString(subtleStyle.Render("Loading feeds...") + "\n")
	case feedsync.Synced:
		if len(feeds) == 0 {
			b.WriteString(subtleStyle.Render("No feedings recorded yet.") + "\n")
		} else {
			b.WriteString(headerStyle.Render("Recent feedings") + "\n")
			for _, f := range feeds {
				b.WriteString(fmt.Sprintf("  %s  %4dg  %s\n",
					timestampStyle.Render(f.Timestamp.Local().Format("Jan 02 15:04")),
					f.AmountG,
					formatFeedStatus(f.Status)))
			}
		}
		// Queried from local midnight, not derived from the capped list.
		b.WriteString(fmt.Sprintf("\nToday: %s\n", headerStyle.Render(fmt.Sprintf("%dg", m.todayTotal))))
	}

	if m.deps.Refresh.Busy() {
		b.WriteString(subtleStyle.Render("Refreshing...") + "\n")
	}

	b.WriteString("\n" + helpStyle.Render("f feed • s schedule • p pets • tab switch pet • r refresh • L logout • ? help • q quit"))
	return panelStyle.Render(b.String())
}
