package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/binfleet/binfleet/internal/auth"
	"github.com/binfleet/binfleet/internal/model"
)

func newJanitorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "janitor",
		Short: "Manage janitor accounts",
	}

	cmd.AddCommand(newJanitorCreateCmd())
	cmd.AddCommand(newJanitorListCmd())

	return cmd
}

// ---------- janitor create ----------

func newJanitorCreateCmd() *cobra.Command {
	var (
		email     string
		password  string
		firstName string
		lastName  string
		phone     string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new janitor account",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runJanitorCreate(email, password, firstName, lastName, phone)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Janitor email address (required)")
	cmd.Flags().StringVar(&password, "password", "", "Janitor password (prompted if omitted)")
	cmd.Flags().StringVar(&firstName, "first-name", "", "First name")
	cmd.Flags().StringVar(&lastName, "last-name", "", "Last name")
	cmd.Flags().StringVar(&phone, "phone", "", "Phone number")
	cmd.MarkFlagRequired("email")

	return cmd
}

func runJanitorCreate(email, password, firstName, lastName, phone string) error {
	if !strings.Contains(email, "@") {
		return fmt.Errorf("invalid email address: %q", email)
	}

	if password == "" {
		var err error
		password, err = promptPassword()
		if err != nil {
			return err
		}
	}
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	hash, err := auth.HashPassword(password, cfg.Auth.BcryptCost)
	if err != nil {
		return err
	}

	j := model.Janitor{
		FirstName:    firstName,
		LastName:     lastName,
		Email:        email,
		PasswordHash: hash,
		Phone:        phone,
		Status:       string(model.StatusActive),
	}
	if err := st.CreateJanitor(context.Background(), &j); err != nil {
		return fmt.Errorf("create janitor: %w", err)
	}

	fmt.Printf("Created janitor account %q (id %d)\n", email, j.ID)
	return nil
}

// ---------- janitor list ----------

func newJanitorListCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List all janitor accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runJanitorList(jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func runJanitorList(jsonOutput bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	janitors, err := st.ListJanitors(context.Background())
	if err != nil {
		return err
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(janitors)
	}

	if len(janitors) == 0 {
		fmt.Println("No janitor accounts.")
		return nil
	}

	fmt.Printf("%-30s %-24s %-14s %-8s\n", "EMAIL", "NAME", "PHONE", "STATUS")
	fmt.Printf("%-30s %-24s %-14s %-8s\n", "-----", "----", "-----", "------")
	for _, j := range janitors {
		fmt.Printf("%-30s %-24s %-14s %-8s\n", j.Email, j.FullName(), j.Phone, j.Status)
	}
	return nil
}
