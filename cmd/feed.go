package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var feedCmd = &cobra.Command{
	Use:     "feed",
	Short:   "Trigger and inspect feedings",
	GroupID: "records",
}

var (
	feedPet    string
	feedAmount int
)

var feedNowCmd = &cobra.Command{
	Use:   "now",
	Short: "Trigger a feeding",
	RunE: func(cmd *cobra.Command, args []string) error {
		if feedAmount <= 0 {
			return fmt.Errorf("--amount must be positive")
		}

		ctx, cancel := cliContext()
		defer cancel()

		c := newClient()
		if _, err := requireSession(ctx, c); err != nil {
			return err
		}
		pet, err := resolvePet(ctx, c, feedPet)
		if err != nil {
			return err
		}
		feed, err := c.InsertFeed(ctx, pet.ID, feedAmount)
		if err != nil {
			return err
		}
		fmt.Printf("Feeding %s: %dg (%s)\n", pet.Name, feed.AmountG, feed.Status)
		return nil
	},
}

var historyLimit int

var feedHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent feedings, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := cliContext()
		defer cancel()

		c := newClient()
		if _, err := requireSession(ctx, c); err != nil {
			return err
		}
		pet, err := resolvePet(ctx, c, feedPet)
		if err != nil {
			return err
		}
		feeds, err := c.RecentFeeds(ctx, pet.ID, historyLimit)
		if err != nil {
			return err
		}
		if len(feeds) == 0 {
			fmt.Printf("No feedings recorded for %s\n", pet.Name)
			return nil
		}

		// Trim the id column on narrow terminals.
		width := 80
		if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
			width = w
		}

		fmt.Printf("Feedings for %s:\n", pet.Name)
		for _, f := range feeds {
			line := fmt.Sprintf("  %s  %4dg  %-9s",
				f.Timestamp.Local().Format("2006-01-02 15:04"), f.AmountG, f.Status)
			if width >= 80 {
				line += "  " + f.ID
			}
			fmt.Println(strings.TrimRight(line, " "))
		}
		return nil
	},
}

func init() {
	feedCmd.PersistentFlags().StringVar(&feedPet, "pet", "", "pet name or id (default: first pet)")
	feedNowCmd.Flags().IntVar(&feedAmount, "amount", 0, "amount in grams")
	feedNowCmd.MarkFlagRequired("amount")
	feedHistoryCmd.Flags().IntVar(&historyLimit, "limit", 10, "number of records")
	feedCmd.AddCommand(feedNowCmd, feedHistoryCmd)
	rootCmd.AddCommand(feedCmd)
}
