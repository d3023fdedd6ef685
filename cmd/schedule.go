package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/feedr/feedr/internal/models"
)

var scheduleCmd = &cobra.Command{
	Use:     "schedule",
	Short:   "Manage recurring feeding schedules",
	GroupID: "records",
}

var schedulePet string

var scheduleListCmd = &cobra.Command{
	Use:   "list",
	Short: "List schedules for a pet",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := cliContext()
		defer cancel()

		c := newClient()
		if _, err := requireSession(ctx, c); err != nil {
			return err
		}
		pet, err := resolvePet(ctx, c, schedulePet)
		if err != nil {
			return err
		}
		schedules, err := c.ListSchedules(ctx, pet.ID)
		if err != nil {
			return err
		}
		if len(schedules) == 0 {
			fmt.Printf("No schedules for %s\n", pet.Name)
			return nil
		}
		fmt.Printf("Schedules for %s:\n", pet.Name)
		for _, s := range schedules {
			state := "active"
			if !s.Active {
				state = "paused"
			}
			fmt.Printf("  %s  %4dg  %-6s  %s\n", s.TimeOfDay, s.AmountG, state, s.ID)
		}
		return nil
	},
}

var scheduleAmount int

var scheduleAddCmd = &cobra.Command{
	Use:   "add <HH:MM>",
	Short: "Add a daily feeding schedule",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := models.ValidateTimeOfDay(args[0]); err != nil {
			return err
		}
		if scheduleAmount <= 0 {
			return fmt.Errorf("--amount must be positive")
		}

		ctx, cancel := cliContext()
		defer cancel()

		c := newClient()
		if _, err := requireSession(ctx, c); err != nil {
			return err
		}
		pet, err := resolvePet(ctx, c, schedulePet)
		if err != nil {
			return err
		}
		s, err := c.CreateSchedule(ctx, pet.ID, args[0], scheduleAmount)
		if err != nil {
			return err
		}
		fmt.Printf("Scheduled %dg at %s for %s\n", s.AmountG, s.TimeOfDay, pet.Name)
		return nil
	},
}

func setScheduleActive(active bool) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx, cancel := cliContext()
		defer cancel()

		c := newClient()
		if _, err := requireSession(ctx, c); err != nil {
			return err
		}
		if err := c.SetScheduleActive(ctx, args[0], active); err != nil {
			return err
		}
		if active {
			fmt.Println("Schedule resumed")
		} else {
			fmt.Println("Schedule paused")
		}
		return nil
	}
}

var schedulePauseCmd = &cobra.Command{
	Use:   "pause <id>",
	Short: "Pause a schedule",
	Args:  cobra.ExactArgs(1),
	RunE:  setScheduleActive(false),
}

var scheduleResumeCmd = &cobra.Command{
	Use:   "resume <id>",
	Short: "Resume a paused schedule",
	Args:  cobra.ExactArgs(1),
	RunE:  setScheduleActive(true),
}

var scheduleRemoveCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Remove a schedule",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := cliContext()
		defer cancel()

		c := newClient()
		if _, err := requireSession(ctx, c); err != nil {
			return err
		}
		if err := c.DeleteSchedule(ctx, args[0]); err != nil {
			return err
		}
		fmt.Println("Schedule removed")
		return nil
	},
}

func init() {
	scheduleCmd.PersistentFlags().StringVar(&schedulePet, "pet", "", "pet name or id (default: first pet)")
	scheduleAddCmd.Flags().IntVar(&scheduleAmount, "amount", 0, "amount in grams")
	scheduleAddCmd.MarkFlagRequired("amount")
	scheduleCmd.AddCommand(scheduleListCmd, scheduleAddCmd, schedulePauseCmd, scheduleResumeCmd, scheduleRemoveCmd)
	rootCmd.AddCommand(scheduleCmd)
}
