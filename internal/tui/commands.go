package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/feedr/feedr/internal/models"
)

const requestTimeout = 15 * time.Second

func withTimeout() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), requestTimeout)
}

// initSessionCmd resolves the persisted session exactly once.
func (m Model) initSessionCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := withTimeout()
		defer cancel()
		return sessionInitDoneMsg{err: m.deps.Session.Initialize(ctx)}
	}
}

// loadPetsCmd fetches the pet list and re-resolves the sync selection.
func (m Model) loadPetsCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := withTimeout()
		defer cancel()
		pets, err := m.deps.Gateway.ListPets(ctx)
		if err != nil {
			return flashMsg{text: "Failed to load pets", isErr: true}
		}
		if err := m.deps.Sync.SetPets(ctx, pets); err != nil {
			return flashMsg{text: "Failed to load pets", isErr: true}
		}
		return petsLoadedMsg{pets: pets}
	}
}

// refreshCmd is the pull-to-refresh path: pets plus feed view, behind the
// refresher's busy flag. Re-entrant triggers are dropped silently; failures
// surface through the refresher's own error hook.
func (m Model) refreshCmd() tea.Cmd {
	return func() tea.Msg {
		var pets []models.Pet
		failed := false
		ok := m.deps.Refresh.Trigger(context.Background(), func(ctx context.Context) error {
			ctx, cancel := context.WithTimeout(ctx, requestTimeout)
			defer cancel()
			p, err := m.deps.Gateway.ListPets(ctx)
			if err != nil {
				failed = true
				return err
			}
			pets = p
			if err := m.deps.Sync.SetPets(ctx, p); err != nil {
				failed = true
				return err
			}
			return m.deps.Sync.Refetch(ctx)
		})
		if !ok || failed {
			return nil
		}
		return petsLoadedMsg{pets: pets}
	}
}

// loadTodayTotalCmd sums today's feedings from local midnight. It queries
// by time rather than reading the capped view, so days with more feedings
// than the view holds still total correctly.
func (m Model) loadTodayTotalCmd(petID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := withTimeout()
		defer cancel()
		now := time.Now()
		midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		feeds, err := m.deps.Gateway.FeedsSince(ctx, petID, midnight)
		if err != nil {
			return nil
		}
		total := 0
		for _, f := range feeds {
			total += f.AmountG
		}
		return todayLoadedMsg{total: total}
	}
}

// selectPetCmd switches the sync selection to the given pet.
func (m Model) selectPetCmd(pet models.Pet) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := withTimeout()
		defer cancel()
		if err := m.deps.Sync.SelectPet(ctx, pet); err != nil {
			return flashMsg{text: "Failed to load feeds for " + pet.Name, isErr: true}
		}
		return syncUpdatedMsg{}
	}
}

func (m Model) loginCmd(email, password string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := withTimeout()
		defer cancel()
		if err := m.deps.Session.Login(ctx, email, password); err != nil {
			return flashMsg{text: "Login failed: check your email and password", isErr: true}
		}
		return nil
	}
}

func (m Model) signupCmd(email, password string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := withTimeout()
		defer cancel()
		if err := m.deps.Session.Signup(ctx, email, password); err != nil {
			return flashMsg{text: "Signup failed: " + err.Error(), isErr: true}
		}
		return nil
	}
}

func (m Model) logoutCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := withTimeout()
		defer cancel()
		return loggedOutMsg{err: m.deps.Session.Logout(ctx)}
	}
}

// feedNowCmd triggers a feeding for the selected pet. The resulting record
// reaches the view through the change subscription, not this command.
func (m Model) feedNowCmd(petID string, amountG int) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := withTimeout()
		defer cancel()
		if _, err := m.deps.Gateway.InsertFeed(ctx, petID, amountG); err != nil {
			return mutationDoneMsg{err: err, flash: "Feed failed"}
		}
		return mutationDoneMsg{flash: "Feeding triggered"}
	}
}

func (m Model) loadSchedulesCmd(petID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := withTimeout()
		defer cancel()
		schedules, err := m.deps.Gateway.ListSchedules(ctx, petID)
		if err != nil {
			return flashMsg{text: "Failed to load schedules", isErr: true}
		}
		return schedulesLoadedMsg{schedules: schedules}
	}
}

func (m Model) createScheduleCmd(petID, timeOfDay string, amountG int) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := withTimeout()
		defer cancel()
		if _, err := m.deps.Gateway.CreateSchedule(ctx, petID, timeOfDay, amountG); err != nil {
			return mutationDoneMsg{err: err, flash: "Failed to add schedule"}
		}
		return mutationDoneMsg{flash: "Schedule added"}
	}
}

func (m Model) toggleScheduleCmd(schedule models.Schedule) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := withTimeout()
		defer cancel()
		if err := m.deps.Gateway.SetScheduleActive(ctx, schedule.ID, !schedule.Active); err != nil {
			return mutationDoneMsg{err: err, flash: "Failed to update schedule"}
		}
		return mutationDoneMsg{flash: "Schedule updated"}
	}
}

func (m Model) deleteScheduleCmd(scheduleID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := withTimeout()
		defer cancel()
		if err := m.deps.Gateway.DeleteSchedule(ctx, scheduleID); err != nil {
			return mutationDoneMsg{err: err, flash: "Failed to delete schedule"}
		}
		return mutationDoneMsg{flash: "Schedule deleted"}
	}
}

func (m Model) createPetCmd(name string, petType models.PetType, weightKg float64) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := withTimeout()
		defer cancel()
		if _, err := m.deps.Gateway.CreatePet(ctx, name, petType, weightKg); err != nil {
			return mutationDoneMsg{err: err, flash: "Failed to add pet"}
		}
		return mutationDoneMsg{flash: "Pet added"}
	}
}

func (m Model) deletePetCmd(petID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := withTimeout()
		defer cancel()
		if err := m.deps.Gateway.DeletePet(ctx, petID); err != nil {
			return mutationDoneMsg{err: err, flash: "Failed to delete pet"}
		}
		return mutationDoneMsg{flash: "Pet deleted"}
	}
}
