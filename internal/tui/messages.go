package tui

import (
	"github.com/feedr/feedr/internal/models"
	"github.com/feedr/feedr/internal/session"
)

// authStateMsg carries a session store snapshot. It arrives both from the
// initial resolution and from every later auth change.
type authStateMsg struct {
	state session.State
}

// syncUpdatedMsg signals that the feed controller mutated its view; the
// model re-reads the controller on render.
type syncUpdatedMsg struct{}

// petsLoadedMsg carries a freshly fetched pet list.
type petsLoadedMsg struct {
	pets []models.Pet
}

// todayLoadedMsg carries the selected pet's total grams since local
// midnight, computed over the full day rather than the capped view.
type todayLoadedMsg struct {
	total int
}

// schedulesLoadedMsg carries schedules for the selected pet.
type schedulesLoadedMsg struct {
	schedules []models.Schedule
}

// flashMsg surfaces a transient status line.
type flashMsg struct {
	text  string
	isErr bool
}

// mutationDoneMsg reports a completed write; reload follows when ok.
type mutationDoneMsg struct {
	flash string
	err   error
}

// sessionInitDoneMsg reports the one-time session resolution.
type sessionInitDoneMsg struct {
	err error
}

// loggedOutMsg reports a logout attempt.
type loggedOutMsg struct {
	err error
}
