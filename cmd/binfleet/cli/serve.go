package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/binfleet/binfleet/internal/config"
	"github.com/binfleet/binfleet/internal/handler"
	"github.com/binfleet/binfleet/internal/server"
	"github.com/binfleet/binfleet/internal/session"
)

const cleanupInterval = time.Hour

func newServeCmd() *cobra.Command {
	var (
		host   string
		port   int
		driver string
		dsn    string
		dev    bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the binfleet API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(host, port, dev)
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "HTTP listen host (overrides config)")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "HTTP listen port (overrides config)")
	cmd.Flags().StringVar(&driver, "driver", "", "database driver: sqlite, mysql, postgres")
	cmd.Flags().StringVar(&dsn, "dsn", "", "database DSN")
	cmd.Flags().BoolVar(&dev, "dev", false, "development mode: debug logging, insecure cookies")

	viper.BindPFlag("database.driver", cmd.Flags().Lookup("driver"))
	viper.BindPFlag("database.dsn", cmd.Flags().Lookup("dsn"))

	return cmd
}

func runServe(host string, port int, dev bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if host != "" {
		cfg.Server.Host = host
	}
	if port > 0 {
		cfg.Server.Port = port
	}
	logger := newLogger(cfg, dev)

	st, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()
	logger.Info("store initialized", "driver", st.Driver())

	hasAdmin, err := st.HasAnyAdmin(context.Background())
	if err != nil {
		logger.Warn("check for admin account", "error", err)
	}
	if !hasAdmin {
		logger.Warn("no admin account found - run: binfleet admin create")
	}

	sessions := session.NewManager(st, session.Config{
		Validity:          cfg.Auth.TokenValidity(),
		EphemeralValidity: config.ParseDuration(cfg.Auth.EphemeralValidity, 12*time.Hour),
		SecureCookie:      !cfg.Auth.InsecureCookies && !dev,
	}, logger)

	// Stale-session sweep runs for the lifetime of the server.
	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	go sessions.SweepLoop(sweepCtx, cleanupInterval)

	srvCfg := server.Config{
		Host:            cfg.Server.Host,
		Port:            cfg.Server.Port,
		ShutdownTimeout: config.ParseDuration(cfg.Server.ShutdownTimeout, 30*time.Second),
		CORSOrigins:     cfg.Server.CORSOrigins,
		LoginRateLimit:  cfg.Auth.LoginRateLimit,
		PersistentLogin: handler.PersistentLogin{
			Admin:   cfg.Auth.PersistentLogin.Admin,
			Janitor: cfg.Auth.PersistentLogin.Janitor,
		},
		BcryptCost: cfg.Auth.BcryptCost,
	}

	srv := server.New(srvCfg, st, sessions, logger)

	fmt.Printf("→ binfleet listening on http://%s:%d\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Printf("→ Health: http://%s:%d/healthz\n", cfg.Server.Host, cfg.Server.Port)

	return srv.ListenAndServe()
}
