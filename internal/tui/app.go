// Package tui is the interactive feedr client: auth screens, the live
// dashboard, feeder control, and schedule and pet management.
package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/feedr/feedr/internal/clientconfig"
	"github.com/feedr/feedr/internal/feedsync"
	"github.com/feedr/feedr/internal/gateway"
	"github.com/feedr/feedr/internal/session"
)

// Run wires the client stack together and blocks until the program exits.
func Run() error {
	gw := gateway.New(clientconfig.GetServerURL(), clientconfig.FileStore{})
	store := session.NewStore(gw)
	defer store.Close()

	// Callbacks below fire only after the program starts processing
	// messages, so p is assigned by the time they run.
	var p *tea.Program

	refresher := feedsync.NewRefresher(func(msg string) {
		if p != nil {
			p.Send(flashMsg{text: msg, isErr: true})
		}
	})

	ctrl := feedsync.NewController(feedsync.NewGatewaySource(gw), "", clientconfig.GetFeedCap(), func() {
		if p != nil {
			p.Send(syncUpdatedMsg{})
		}
	})
	defer ctrl.Close()

	unsubscribe := store.Subscribe(func(state session.State) {
		if p != nil {
			p.Send(authStateMsg{state: state})
		}
	})
	defer unsubscribe()

	m := NewModel(Deps{
		Session: store,
		Gateway: gw,
		Sync:    ctrl,
		Refresh: refresher,
	})

	p = tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
