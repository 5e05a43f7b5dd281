package cli

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// Execute creates the root command tree and runs it.
func Execute(version, commit, date string) error {
	rootCmd := newRootCmd(version, commit, date)
	return rootCmd.Execute()
}

func newRootCmd(version, commit, date string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "binfleet",
		Short: "Waste-bin fleet management backend",
		Long: `Binfleet tracks a fleet of waste bins, the janitors who service them,
and the collections they perform. It serves a JSON API with cookie-based
session authentication for admin and janitor roles.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./binfleet.yaml)")

	cobra.OnInitialize(initConfig)

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newVersionCmd(version, commit, date))
	cmd.AddCommand(newAdminCmd())
	cmd.AddCommand(newJanitorCmd())
	cmd.AddCommand(newSessionsCmd())
	cmd.AddCommand(newDBCmd())
	cmd.AddCommand(newConfigCmd())

	return cmd
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("binfleet")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("/etc/binfleet")
	}

	viper.SetEnvPrefix("BINFLEET")
	viper.AutomaticEnv()
	viper.ReadInConfig() // config file is optional
}
