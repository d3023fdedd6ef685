package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/feedr/feedr/internal/models"
)

var petsCmd = &cobra.Command{
	Use:     "pets",
	Short:   "Manage pets",
	GroupID: "records",
}

var petsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered pets",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := cliContext()
		defer cancel()

		c := newClient()
		if _, err := requireSession(ctx, c); err != nil {
			return err
		}
		pets, err := c.ListPets(ctx)
		if err != nil {
			return err
		}
		if len(pets) == 0 {
			fmt.Println("No pets registered")
			return nil
		}
		for _, p := range pets {
			fmt.Printf("%-20s %-6s %5.1f kg  %s\n", p.Name, p.Type, p.WeightKg, p.ID)
		}
		return nil
	},
}

var (
	petType   string
	petWeight float64
)

var petsAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Register a pet",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !models.IsValidPetType(petType) {
			return fmt.Errorf("invalid type %q (valid: dog, cat, bird, other)", petType)
		}

		ctx, cancel := cliContext()
		defer cancel()

		c := newClient()
		if _, err := requireSession(ctx, c); err != nil {
			return err
		}
		pet, err := c.CreatePet(ctx, args[0], models.PetType(petType), petWeight)
		if err != nil {
			return err
		}
		fmt.Printf("Added %s (%s)\n", pet.Name, pet.ID)
		return nil
	},
}

var petsRemoveCmd = &cobra.Command{
	Use:   "remove <name-or-id>",
	Short: "Remove a pet and its history",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := cliContext()
		defer cancel()

		c := newClient()
		if _, err := requireSession(ctx, c); err != nil {
			return err
		}
		pet, err := resolvePet(ctx, c, args[0])
		if err != nil {
			return err
		}
		if err := c.DeletePet(ctx, pet.ID); err != nil {
			return err
		}
		fmt.Printf("Removed %s\n", pet.Name)
		return nil
	},
}

func init() {
	petsAddCmd.Flags().StringVar(&petType, "type", "dog", "pet type (dog, cat, bird, other)")
	petsAddCmd.Flags().Float64Var(&petWeight, "weight", 0, "weight in kg")
	petsCmd.AddCommand(petsListCmd, petsAddCmd, petsRemoveCmd)
	rootCmd.AddCommand(petsCmd)
}
