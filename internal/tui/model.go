package tui

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/feedr/feedr/internal/feedsync"
	"github.com/feedr/feedr/internal/gateway"
	"github.com/feedr/feedr/internal/models"
	"github.com/feedr/feedr/internal/navgate"
	"github.com/feedr/feedr/internal/session"
)

// Deps are the long-lived collaborators the TUI renders and drives.
type Deps struct {
	Session *session.Store
	Gateway *gateway.Client
	Sync    *feedsync.Controller
	Refresh *feedsync.Refresher
}

// Model is the root Bubble Tea model. Screen routing goes through the
// navigation gate: the model reports auth state and location, and the gate
// decides at most one redirect per transition.
type Model struct {
	deps Deps
	gate *navgate.Gate

	width  int
	height int

	auth       session.State
	pets       []models.Pet
	petIndex   int
	schedules  []models.Schedule
	schedIndex int
	todayTotal int

	flash    string
	flashErr bool

	loginForm    *huh.Form
	signupForm   *huh.Form
	scheduleForm *huh.Form
	petForm      *huh.Form
	amountInput  textinput.Model

	showHelp bool
}

// NewModel creates the root model in the loading phase.
func NewModel(deps Deps) Model {
	amount := textinput.New()
	amount.Placeholder = "grams"
	amount.CharLimit = 5
	amount.Width = 10

	return Model{
		deps:        deps,
		gate:        navgate.New(navgate.DefaultUnauthed),
		auth:        session.State{Loading: true},
		amountInput: amount,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	m.gate.SetMounted(true)
	return m.initSessionCmd()
}

// route returns the gate's current location.
func (m Model) route() navgate.Route {
	return m.gate.Location()
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case authStateMsg:
		return m.onAuthState(msg.state)

	case sessionInitDoneMsg:
		if msg.err != nil {
			m.setFlash("Could not resolve session: "+msg.err.Error(), true)
		}
		return m, nil

	case petsLoadedMsg:
		m.pets = msg.pets
		if m.petIndex >= len(m.pets) {
			m.petIndex = 0
		}
		return m, nil

	case syncUpdatedMsg:
		// View state lives in the controller; rendering picks it up. The
		// today total is the one derived figure, reloaded here so realtime
		// inserts keep it current.
		if m.route() == navgate.RouteDashboard {
			if pet := m.deps.Sync.Selected(); pet != nil {
				return m, m.loadTodayTotalCmd(pet.ID)
			}
		}
		return m, nil

	case todayLoadedMsg:
		m.todayTotal = msg.total
		return m, nil

	case schedulesLoadedMsg:
		m.schedules = msg.schedules
		if m.schedIndex >= len(m.schedules) {
			m.schedIndex = 0
		}
		return m, nil

	case flashMsg:
		m.setFlash(msg.text, msg.isErr)
		return m, nil

	case mutationDoneMsg:
		m.setFlash(msg.flash, msg.err != nil)
		if msg.err != nil {
			return m, nil
		}
		return m, m.reloadAfterMutation()

	case loggedOutMsg:
		if msg.err != nil {
			m.setFlash("Logout failed", true)
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	// Forms consume non-key messages too (blink, etc.).
	if form, cmd, handled := m.updateActiveForm(msg); handled {
		return form, cmd
	}
	return m, nil
}

// onAuthState applies a session store snapshot: gate bookkeeping, sync
// teardown on identity loss, initial data load on identity gain.
func (m Model) onAuthState(state session.State) (tea.Model, tea.Cmd) {
	wasAuthed := m.auth.Authenticated()
	m.auth = state
	m.gate.SetAuthState(state.Loading, state.Authenticated())

	var cmds []tea.Cmd
	if wasAuthed && !state.Authenticated() {
		m.deps.Sync.SetOwner("")
		m.pets = nil
		m.schedules = nil
		m.todayTotal = 0
	}
	if !wasAuthed && state.Authenticated() {
		m.deps.Sync.SetOwner(state.Identity.ID)
		cmds = append(cmds, m.loadPetsCmd())
	}

	if cmd := m.evaluateGate(); cmd != nil {
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

// evaluateGate asks the gate for a redirect and performs it.
func (m *Model) evaluateGate() tea.Cmd {
	target, ok := m.gate.Evaluate()
	if !ok {
		return nil
	}
	return m.navigate(target)
}

// navigate moves to a screen and runs its setup.
func (m *Model) navigate(target navgate.Route) tea.Cmd {
	m.gate.SetLocation(target)
	m.flash = ""
	m.showHelp = false

	switch target {
	case navgate.RouteDashboard:
		if pet := m.deps.Sync.Selected(); pet != nil {
			return m.loadTodayTotalCmd(pet.ID)
		}
	case navgate.RouteLogin:
		m.loginForm = newCredentialsForm("Log in")
		return m.loginForm.Init()
	case navgate.RouteSignup:
		m.signupForm = newCredentialsForm("Create account")
		return m.signupForm.Init()
	case navgate.RouteControl:
		m.amountInput.SetValue("")
		m.amountInput.Focus()
		return textinput.Blink
	case navgate.RouteSchedule:
		m.scheduleForm = nil
		if pet := m.deps.Sync.Selected(); pet != nil {
			return m.loadSchedulesCmd(pet.ID)
		}
	case navgate.RoutePets:
		m.petForm = nil
		return m.loadPetsCmd()
	}
	// A user navigation settles the pair it lands on.
	m.gate.Evaluate()
	return nil
}

// reloadAfterMutation refreshes whatever the current screen lists.
func (m Model) reloadAfterMutation() tea.Cmd {
	switch m.route() {
	case navgate.RouteSchedule:
		if pet := m.deps.Sync.Selected(); pet != nil {
			return m.loadSchedulesCmd(pet.ID)
		}
	case navgate.RoutePets:
		return m.loadPetsCmd()
	}
	return nil
}

func (m *Model) setFlash(text string, isErr bool) {
	if text == "" {
		return
	}
	m.flash = text
	m.flashErr = isErr
}

// handleKey routes key input to the active screen.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Forms swallow everything while active, including esc.
	if form, cmd, handled := m.updateActiveForm(msg); handled {
		return form, cmd
	}

	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "?":
		m.showHelp = !m.showHelp
		return m, nil
	}
	if m.showHelp {
		m.showHelp = false
		return m, nil
	}

	if m.gate.Phase() == navgate.Pending {
		return m, nil
	}

	switch m.route() {
	case navgate.RouteWelcome:
		return m.handleWelcomeKey(msg)
	case navgate.RouteDashboard:
		return m.handleDashboardKey(msg)
	case navgate.RouteControl:
		return m.handleControlKey(msg)
	case navgate.RouteSchedule:
		return m.handleScheduleKey(msg)
	case navgate.RoutePets:
		return m.handlePetsKey(msg)
	}
	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if m.gate.Phase() == navgate.Pending {
		return "\n  " + subtleStyle.Render("Resolving session...") + "\n"
	}
	if m.showHelp {
		return m.viewHelp()
	}

	var body string
	switch m.route() {
	case navgate.RouteWelcome:
		body = m.viewWelcome()
	case navgate.RouteLogin:
		body = m.viewLogin()
	case navgate.RouteSignup:
		body = m.viewSignup()
	case navgate.RouteDashboard:
		body = m.viewDashboard()
	case navgate.RouteControl:
		body = m.viewControl()
	case navgate.RouteSchedule:
		body = m.viewSchedule()
	case navgate.RoutePets:
		body = m.viewPets()
	}

	if m.flash != "" {
		style := flashStyle
		if m.flashErr {
			style = flashErrStyle
		}
		body += "\n" + style.Render(m.flash)
	}
	return body + "\n"
}
