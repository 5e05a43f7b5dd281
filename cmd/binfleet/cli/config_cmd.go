package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and bootstrap configuration",
	}

	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigShowCmd())

	return cmd
}

func newConfigInitCmd() *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter binfleet.yaml",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s already exists", path)
			}
			if err := os.WriteFile(path, []byte(starterConfig), 0644); err != nil {
				return fmt.Errorf("write config: %w", err)
			}
			fmt.Printf("Wrote %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVar(&path, "path", "binfleet.yaml", "Where to write the config file")

	return cmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			out, err := yaml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("encode config: %w", err)
			}
			fmt.Print(string(out))
			return nil
		},
	}
}

const starterConfig = `server:
  host: 0.0.0.0
  port: 8080
  cors_origins: ["*"]
  shutdown_timeout: 30s

database:
  driver: sqlite          # sqlite | mysql | postgres
  dsn: binfleet.db
  pool:
    max_open_conns: 25
    max_idle_conns: 5
    conn_max_lifetime: 5m
    conn_max_idle_time: 1m

auth:
  token_validity_days: 30
  ephemeral_validity: 12h
  persistent_login:
    admin: false
    janitor: true
  bcrypt_cost: 0          # 0 = bcrypt default
  login_rate_limit: 10    # attempts per IP per minute
  insecure_cookies: false

logging:
  level: info             # debug | info | warn | error
  format: text            # text | json
`
