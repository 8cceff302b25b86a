package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/john/playauth/internal/auth"
	"github.com/john/playauth/internal/storage"
)

func newStatusCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the saved API key and recent sign-in attempts",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := log.NewWithOptions(os.Stderr, log.Options{Prefix: "playauth"})
			logger.SetLevel(log.WarnLevel)

			st, err := openStorage(logger)
			if err != nil {
				return err
			}
			defer st.Shutdown()

			return writeStatus(cmd.OutOrStdout(), st, limit, time.Now())
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 5, "Number of recent audit events to show")
	return cmd
}

func openStorage(logger *log.Logger) (*storage.Storage, error) {
	if configDir != "" {
		return storage.NewAt(configDir, logger)
	}
	return storage.New(logger)
}

func writeStatus(w io.Writer, st *storage.Storage, limit int, now time.Time) error {
	fmt.Fprintln(w, titleStyle.Render("playauth status"))
	fmt.Fprintf(w, "Config dir: %s\n", st.ConfigDir())

	has, err := st.KeyStore.HasToken()
	if err != nil {
		return fmt.Errorf("failed to read the saved API key: %w", err)
	}
	if has {
		creds, err := st.KeyStore.Load()
		if err != nil {
			return fmt.Errorf("failed to read the saved API key: %w", err)
		}
		line := "API key:    " + auth.Mask(creds.AccessToken)
		if !creds.SavedAt.IsZero() {
			line += ", obtained " + humanize.RelTime(creds.SavedAt, now, "ago", "from now")
		}
		fmt.Fprintln(w, line)
	} else {
		fmt.Fprintln(w, "API key:    not saved")
	}

	events, err := st.AuditLogger.Events()
	if err != nil {
		return fmt.Errorf("failed to read the audit log: %w", err)
	}
	if len(events) == 0 {
		fmt.Fprintln(w, "No sign-in attempts recorded")
		return nil
	}
	if limit > 0 && len(events) > limit {
		events = events[len(events)-limit:]
	}

	fmt.Fprintf(w, "\nRecent sign-in attempts:\n")
	for i := len(events) - 1; i >= 0; i-- {
		ev := events[i]
		line := fmt.Sprintf("  %-10s %s", ev.Outcome, humanize.RelTime(ev.Timestamp, now, "ago", "from now"))
		if ev.LatencyMs > 0 {
			line += fmt.Sprintf(" (%dms)", ev.LatencyMs)
		}
		if ev.Error != "" {
			line += ": " + ev.Error
		}
		fmt.Fprintln(w, line)
	}
	return nil
}
