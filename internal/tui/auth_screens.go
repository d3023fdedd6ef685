package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/feedr/feedr/internal/navgate"
)

// newCredentialsForm builds the shared email/password form for login and
// signup.
func newCredentialsForm(title string) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("email").
				Title("Email").
				Validate(func(s string) error {
					if !strings.Contains(s, "@") {
						return fmt.Errorf("enter a valid email address")
					}
					return nil
				}),
			huh.NewInput().
				Key("password").
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Validate(func(s string) error {
					if len(s) < 8 {
						return fmt.Errorf("password must be at least 8 characters")
					}
					return nil
				}),
		).Title(title),
	)
}

// updateActiveForm forwards the message to whichever form is active and
// reacts to its completion. The bool reports whether a form consumed the
// message.
func (m Model) updateActiveForm(msg tea.Msg) (tea.Model, tea.Cmd, bool) {
	switch m.route() {
	case navgate.RouteLogin:
		if m.loginForm == nil {
			return m, nil, false
		}
		f, cmd := m.loginForm.Update(msg)
		if form, ok := f.(*huh.Form); ok {
			m.loginForm = form
		}
		switch m.loginForm.State {
		case huh.StateCompleted:
			email := m.loginForm.GetString("email")
			password := m.loginForm.GetString("password")
			m.loginForm = nil
			return m, m.loginCmd(email, password), true
		case huh.StateAborted:
			m.loginForm = nil
			return m, m.navigate(navgate.RouteWelcome), true
		}
		return m, cmd, true

	case navgate.RouteSignup:
		if m.signupForm == nil {
			return m, nil, false
		}
		f, cmd := m.signupForm.Update(msg)
		if form, ok := f.(*huh.Form); ok {
			m.signupForm = form
		}
		switch m.signupForm.State {
		case huh.StateCompleted:
			email := m.signupForm.GetString("email")
			password := m.signupForm.GetString("password")
			m.signupForm = nil
			return m, m.signupCmd(email, password), true
		case huh.StateAborted:
			m.signupForm = nil
			return m, m.navigate(navgate.RouteWelcome), true
		}
		return m, cmd, true

	case navgate.RouteSchedule:
		if m.scheduleForm == nil {
			return m, nil, false
		}
		f, cmd := m.scheduleForm.Update(msg)
		if form, ok := f.(*huh.Form); ok {
			m.scheduleForm = form
		}
		switch m.scheduleForm.State {
		case huh.StateCompleted:
			cmd := m.completedScheduleForm()
			m.scheduleForm = nil
			return m, cmd, true
		case huh.StateAborted:
			m.scheduleForm = nil
			return m, nil, true
		}
		return m, cmd, true

	case navgate.RoutePets:
		if m.petForm == nil {
			return m, nil, false
		}
		f, cmd := m.petForm.Update(msg)
		if form, ok := f.(*huh.Form); ok {
			m.petForm = form
		}
		switch m.petForm.State {
		case huh.StateCompleted:
			cmd := m.completedPetForm()
			m.petForm = nil
			return m, cmd, true
		case huh.StateAborted:
			m.petForm = nil
			return m, nil, true
		}
		return m, cmd, true
	}
	return m, nil, false
}

func (m Model) handleWelcomeKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "l":
		return m, m.navigate(navgate.RouteLogin)
	case "s":
		return m, m.navigate(navgate.RouteSignup)
	}
	return m, nil
}

func (m Model) viewWelcome() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("feedr") + "\n\n")
	b.WriteString("Remote pet feeder control.\n\n")
	b.WriteString(helpStyle.Render("l log in • s sign up • ? help • q quit"))
	return panelStyle.Render(b.String())
}

func (m Model) viewLogin() string {
	if m.loginForm == nil {
		return ""
	}
	return titleStyle.Render("Log in") + "\n\n" + m.loginForm.View()
}

func (m Model) viewSignup() string {
	if m.signupForm == nil {
		return ""
	}
	return titleStyle.Render("Sign up") + "\n\n" + m.signupForm.View()
}
