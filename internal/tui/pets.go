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

// newPetForm builds the add-pet form.
func newPetForm() *huh.Form {
	typeOptions := make([]huh.Option[string], 0, len(models.AllPetTypes()))
	for _, t := range models.AllPetTypes() {
		typeOptions = append(typeOptions, huh.NewOption(string(t), string(t)))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("name").
				Title("Name").
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("name is required")
					}
					return nil
				}),
			huh.NewSelect[string]().
				Key("type").
				Title("Type").
				Options(typeOptions...),
			huh.NewInput().
				Key("weight").
				Title("Weight (kg)").
				Validate(func(s string) error {
					w, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
					if err != nil || w < 0 {
						return fmt.Errorf("weight must be a non-negative number")
					}
					return nil
				}),
		).Title("New pet"),
	)
}

// completedPetForm turns the finished form into a create command.
func (m Model) completedPetForm() tea.Cmd {
	name := strings.TrimSpace(m.petForm.GetString("name"))
	petType := models.PetType(m.petForm.GetString("type"))
	weight, err := strconv.ParseFloat(strings.TrimSpace(m.petForm.GetString("weight")), 64)
	if err != nil {
		return nil
	}
	return m.createPetCmd(name, petType, weight)
}

func (m Model) handlePetsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		return m, m.navigate(navgate.RouteDashboard)
	case "a":
		m.petForm = newPetForm()
		return m, m.petForm.Init()
	case "j", "down":
		if m.petIndex < len(m.pets)-1 {
			m.petIndex++
		}
		return m, nil
	case "k", "up":
		if m.petIndex > 0 {
			m.petIndex--
		}
		return m, nil
	case "enter":
		if m.petIndex < len(m.pets) {
			pet := m.pets[m.petIndex]
			return m, tea.Batch(m.selectPetCmd(pet), m.navigate(navgate.RouteDashboard))
		}
		return m, nil
	case "d":
		if m.petIndex < len(m.pets) {
			return m, m.deletePetCmd(m.pets[m.petIndex].ID)
		}
		return m, nil
	}
	return m, nil
}

func (m Model) viewPets() string {
	if m.petForm != nil {
		return titleStyle.Render("New pet") + "\n\n" + m.petForm.View()
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Pets") + "\n\n")

	if len(m.pets) == 0 {
		b.WriteString(subtleStyle.Render("No pets. Press a to add one.") + "\n")
	}
	selected := m.deps.Sync.Selected()
	for i, p := range m.pets {
		cursor := "  "
		line := fmt.Sprintf("%s  %s  %.1f kg", p.Name, subtleStyle.Render(string(p.Type)), p.WeightKg)
		if selected != nil && selected.ID == p.ID {
			line += "  " + headerStyle.Render("*")
		}
		if i == m.petIndex {
			cursor = selectedStyle.Render("> ")
		}
		b.WriteString(cursor + line + "\n")
	}

	b.WriteString("\n" + helpStyle.Render("a add • enter select • d delete • j/k move • esc back"))
	return panelStyle.Render(b.String())
}
