package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/binfleet/binfleet/internal/model"
)

func newSessionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Manage persistent login sessions",
	}

	cmd.AddCommand(newSessionsCleanupCmd())
	cmd.AddCommand(newSessionsRevokeCmd())

	return cmd
}

// ---------- sessions cleanup ----------

func newSessionsCleanupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Delete expired and stale session rows",
		Long: `Delete session rows that have expired, or that were deactivated and have
seen no activity for the retention window. The serve command runs this
sweep hourly; this command exists for cron-driven deployments.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			st, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			n, err := st.CleanupSessions(context.Background())
			if err != nil {
				return err
			}
			fmt.Printf("Removed %d stale session(s)\n", n)
			return nil
		},
	}
}

// ---------- sessions revoke ----------

func newSessionsRevokeCmd() *cobra.Command {
	var (
		email   string
		janitor bool
	)

	cmd := &cobra.Command{
		Use:   "revoke",
		Short: "Deactivate every session for an account",
		Long:  "Force-logout an account on all devices by deactivating its sessions.",
		Example: `  binfleet sessions revoke --email admin@example.com
  binfleet sessions revoke --email j@example.com --janitor`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSessionsRevoke(email, janitor)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Account email (required)")
	cmd.Flags().BoolVar(&janitor, "janitor", false, "Look up a janitor account instead of an admin")
	cmd.MarkFlagRequired("email")

	return cmd
}

func runSessionsRevoke(email string, janitor bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := context.Background()
	var user model.UserRef
	if janitor {
		j, err := st.GetJanitorByEmail(ctx, email)
		if err != nil {
			return fmt.Errorf("find janitor %q: %w", email, err)
		}
		user = model.UserRef{Type: model.UserTypeJanitor, ID: j.ID}
	} else {
		a, err := st.GetAdminByEmail(ctx, email)
		if err != nil {
			return fmt.Errorf("find admin %q: %w", email, err)
		}
		user = model.UserRef{Type: model.UserTypeAdmin, ID: a.ID}
	}

	if err := st.DeactivateSessionsForUser(ctx, user); err != nil {
		return err
	}
	fmt.Printf("Deactivated all sessions for %s\n", email)
	return nil
}
