package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newDBCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Database utilities",
	}

	cmd.AddCommand(newDBInitCmd())
	cmd.AddCommand(newDBPingCmd())

	return cmd
}

func newDBInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the schema in the configured database",
		Long:  "Open the configured database and run migrations. Safe to re-run.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			// Opening runs migrations.
			st, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer st.Close()
			fmt.Printf("Schema ready (%s)\n", st.Driver())
			return nil
		},
	}
}

func newDBPingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check connectivity to the configured database",
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

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := st.Ping(ctx); err != nil {
				return fmt.Errorf("ping: %w", err)
			}
			fmt.Println("OK")
			return nil
		},
	}
}
