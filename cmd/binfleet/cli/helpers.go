package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/binfleet/binfleet/internal/config"
	"github.com/binfleet/binfleet/internal/store"
)

// loadConfig merges the optional config file over the defaults. Viper has
// already located the file; this reparses it through the typed loader so
// the file and flag paths agree on one struct.
func loadConfig() (*config.Config, error) {
	path := viper.ConfigFileUsed()
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

// openStore opens the configured database, honoring --driver/--dsn flag
// overrides bound through viper.
func openStore(cfg *config.Config) (*store.Store, error) {
	driver := cfg.Database.Driver
	dsn := cfg.Database.DSN
	if v := viper.GetString("database.driver"); v != "" {
		driver = v
	}
	if v := viper.GetString("database.dsn"); v != "" {
		dsn = v
	}
	pool := store.PoolConfig{
		MaxOpenConns:    cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:    cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetime: config.ParseDuration(cfg.Database.Pool.ConnMaxLifetime, 0),
		ConnMaxIdleTime: config.ParseDuration(cfg.Database.Pool.ConnMaxIdleTime, 0),
	}
	return store.New(driver, dsn, pool)
}

// newLogger builds the process logger from config, with --dev forcing
// debug level.
func newLogger(cfg *config.Config, dev bool) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Logging.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if dev {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.Logging.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// promptPassword reads a password twice from the terminal without echo.
func promptPassword() (string, error) {
	fmt.Print("Password: ")
	pwBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	fmt.Println()

	fmt.Print("Confirm password: ")
	confirmBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		return "", fmt.Errorf("read confirmation: %w", err)
	}
	fmt.Println()

	if string(pwBytes) != string(confirmBytes) {
		return "", fmt.Errorf("passwords do not match")
	}
	return string(pwBytes), nil
}
