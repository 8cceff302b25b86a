package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/john/playauth/internal/api"
	"github.com/john/playauth/internal/app"
	"github.com/john/playauth/internal/mockserver"
	"github.com/john/playauth/internal/storage"
)

var (
	// version is set via -ldflags at build time.
	version = "dev"

	configDir string
	endpoint  string
	theme     string
	logLevel  string
)

var titleStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("#7C3AED"))

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "playauth",
		Short: "playauth - sign in to the API playground with a phone number",
		Long: `playauth exchanges a registered phone number for a playground API key
and keeps the key between sessions.

Running without a subcommand launches the interactive TUI.`,
		Version:      version,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI()
		},
	}

	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "Directory for config, keystore and logs (default ~/.playauth)")
	rootCmd.Flags().StringVar(&endpoint, "endpoint", "", "Identity service base URL")
	rootCmd.Flags().StringVar(&theme, "theme", "", "Theme name: auto, light, dark or a theme file's name")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn or error")

	rootCmd.AddCommand(newMockServerCmd(), newStatusCmd())
	return rootCmd
}

func resolveConfigDir() (string, error) {
	if configDir != "" {
		return configDir, nil
	}
	return storage.GetConfigDir()
}

// runTUI runs the playground with logs written to a file, since the
// alt screen owns the terminal
func runTUI() error {
	dir, err := resolveConfigDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}

	logFile, err := os.OpenFile(filepath.Join(dir, "playauth.log"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer logFile.Close()

	logger := log.NewWithOptions(logFile, log.Options{
		ReportTimestamp: true,
		Prefix:          "playauth",
	})
	logger.SetLevel(log.InfoLevel)

	model := app.New(app.Options{
		ConfigDir: dir,
		Endpoint:  endpoint,
		Theme:     theme,
		LogLevel:  logLevel,
		Logger:    logger,
	})

	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		logger.Error("Error running application", "error", err)
		return err
	}
	return nil
}

func newMockServerCmd() *cobra.Command {
	var (
		addr       string
		tokenPairs []string
		tokenFile  string
	)

	cmd := &cobra.Command{
		Use:   "mock-server",
		Short: "Run a local token endpoint for development",
		Long: `Serve GET /api/AppUser/GetAccessToken/{phone} from a phone number table.
Registered numbers get their token back, anything else gets a 404.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			tokens := make(map[string]string)
			if tokenFile != "" {
				loaded, err := mockserver.LoadTokens(tokenFile)
				if err != nil {
					return err
				}
				for phone, token := range loaded {
					tokens[phone] = token
				}
			}

			flagTokens, err := mockserver.ParseTokenFlags(tokenPairs)
			if err != nil {
				return err
			}
			for phone, token := range flagTokens {
				tokens[phone] = token
			}

			logger := log.NewWithOptions(os.Stderr, log.Options{
				ReportTimestamp: true,
				Prefix:          "mock-server",
			})

			fmt.Println(titleStyle.Render("playauth mock token server"))
			fmt.Printf("%d registered number(s), try http://%s%s<phone>\n", len(tokens), addr, api.TokenPath)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			server := mockserver.New(tokens, logger)
			if tokenFile != "" {
				go reloadOnHangup(ctx, server, tokenFile, logger)
			}
			return server.ListenAndServe(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "localhost:5000", "Address to listen on")
	cmd.Flags().StringArrayVar(&tokenPairs, "token", nil, "Register a number as phone=token (repeatable)")
	cmd.Flags().StringVar(&tokenFile, "tokens", "", "YAML file mapping phone numbers to tokens")
	return cmd
}

// reloadOnHangup re-reads the token file on SIGHUP, adding or replacing
// entries in the running server
func reloadOnHangup(ctx context.Context, server *mockserver.Server, path string, logger *log.Logger) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			tokens, err := mockserver.LoadTokens(path)
			if err != nil {
				logger.Warn("Failed to reload token table", "error", err)
				continue
			}
			for phone, token := range tokens {
				server.SetToken(phone, token)
			}
			logger.Info("Reloaded token table", "entries", len(tokens))
		}
	}
}
