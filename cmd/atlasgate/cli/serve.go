package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/atlasgate/atlasgate/internal/config"
	"github.com/atlasgate/atlasgate/internal/server"
	"github.com/atlasgate/atlasgate/internal/service"
	"github.com/atlasgate/atlasgate/internal/store"
)

const banner = `
    _  _____ _       _   ___
   / \|_   _| |     / \ / __|
  / _ \ | | | |__  / _ \\__ \
 /_/ \_\|_| |____|/_/ \_\___/  gate
`

func newServeCmd() *cobra.Command {
	var (
		dev  bool
		noUI bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the license gate server",
		Long:  "Start the HTTP server that validates license keys and serves the download page.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(dev, noUI)
		},
	}

	cmd.Flags().IntP("port", "p", 3000, "HTTP listen port")
	cmd.Flags().String("host", "0.0.0.0", "HTTP listen host")
	cmd.Flags().BoolVar(&noUI, "no-ui", false, "Disable the embedded download page")
	cmd.Flags().BoolVar(&dev, "dev", false, "Enable development mode (verbose logging)")

	viper.BindPFlag("server.port", cmd.Flags().Lookup("port"))
	viper.BindPFlag("server.host", cmd.Flags().Lookup("host"))

	return cmd
}

func runServe(dev, noUI bool) error {
	fmt.Print(banner)
	fmt.Println()

	cfg := config.Load(viper.GetViper())

	logLevel := parseLogLevel(cfg.Logging.Level)
	if dev {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

	// Unreachable storage at startup is fatal: the gate either serves real
	// verdicts or it doesn't serve at all.
	st, err := store.Open(cfg.Storage.Driver, cfg.Storage.DSN)
	if err != nil {
		logger.Error("key store unavailable", "driver", cfg.Storage.Driver, "error", err)
		return fmt.Errorf("init key store: %w", err)
	}
	defer st.Close()
	logger.Info("key store initialized", "driver", cfg.Storage.Driver)

	if cfg.Admin.Token == "" {
		logger.Warn("admin token not configured - all admin endpoints will be denied; run: atlasgate admin token")
	}

	licenses := service.NewLicenseService(st)
	authSvc := service.NewAuthService(cfg.Admin.Token, cfg.Admin.JWTSecret)

	srvCfg := server.DefaultConfig()
	srvCfg.Host = cfg.Server.Host
	srvCfg.Port = cfg.Server.Port
	srvCfg.EnableUI = cfg.Server.EnableUI && !noUI

	srv := server.New(srvCfg, st, licenses, authSvc, logger)

	fmt.Printf("→ Listening on http://%s:%d\n", cfg.Server.Host, cfg.Server.Port)
	if srvCfg.EnableUI {
		fmt.Printf("→ Download page: http://%s:%d/\n", cfg.Server.Host, cfg.Server.Port)
	}
	fmt.Printf("→ OpenAPI:       http://%s:%d/openapi.json\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Printf("→ Health:        http://%s:%d/healthz\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Println()

	return srv.ListenAndServe()
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
