package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var loginCmd = &cobra.Command{
	Use:     "login [email]",
	Short:   "Log in to the feedr server",
	GroupID: "auth",
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		email, password, err := promptCredentials(args)
		if err != nil {
			return err
		}

		ctx, cancel := cliContext()
		defer cancel()

		identity, err := newClient().Login(ctx, email, password)
		if err != nil {
			return err
		}
		fmt.Printf("Logged in as %s\n", identity.Email)
		return nil
	},
}

var signupCmd = &cobra.Command{
	Use:     "signup [email]",
	Short:   "Create an account",
	GroupID: "auth",
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		email, password, err := promptCredentials(args)
		if err != nil {
			return err
		}

		ctx, cancel := cliContext()
		defer cancel()

		c := newClient()
		identity, err := c.Signup(ctx, email, password)
		if err != nil {
			return err
		}
		if err := c.CreateProfile(ctx, *identity); err != nil {
			// The account exists and is signed in; only the profile row
			// is missing.
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
		fmt.Printf("Account created for %s\n", identity.Email)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:     "logout",
	Short:   "Log out and revoke the session",
	GroupID: "auth",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := cliContext()
		defer cancel()

		c := newClient()
		if _, err := requireSession(ctx, c); err != nil {
			return err
		}
		if err := c.Logout(ctx); err != nil {
			return err
		}
		fmt.Println("Logged out")
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:     "status",
	Short:   "Show the logged-in account",
	GroupID: "auth",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := cliContext()
		defer cancel()

		identity, err := requireSession(ctx, newClient())
		if err != nil {
			return err
		}
		fmt.Printf("%s (%s)\n", identity.Email, identity.ID)
		return nil
	},
}

// promptCredentials reads the email from args or stdin and the password
// without echo.
func promptCredentials(args []string) (email, password string, err error) {
	if len(args) > 0 {
		email = args[0]
	} else {
		fmt.Print("Email: ")
		if _, err := fmt.Scanln(&email); err != nil {
			return "", "", fmt.Errorf("read email: %w", err)
		}
	}
	email = strings.TrimSpace(email)

	fmt.Print("Password: ")
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", "", fmt.Errorf("read password: %w", err)
	}
	return email, string(raw), nil
}

func init() {
	rootCmd.AddCommand(loginCmd, signupCmd, logoutCmd, statusCmd)
}
