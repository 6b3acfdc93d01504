package cli

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"minply.click/internal/config"
	"minply.click/internal/history"
)

// newHistoryCommand creates the minply-history root command
func newHistoryCommand(configManager *config.ConfigManager) *cobra.Command {
	var filter history.QueryFilter
	var configFile string

	cmd := &cobra.Command{
		Use:   "minply-history",
		Short: "Show recent minply plays",
		Long: `Show recent plays recorded by minply when history is enabled.

Examples:
  minply-history                      # Last 20 plays
  minply-history --limit 5            # Last 5 plays
  minply-history --since yesterday    # Since midnight yesterday
  minply-history --since "2 hours ago"
  minply-history --outcome decode     # Files that failed to decode`,
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := configManager.LoadConfig(configFile)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			var databasePath string
			if cfg.History != nil {
				databasePath = cfg.History.DatabasePath
			}
			dbPath, err := configManager.ResolveHistoryPath(databasePath)
			if err != nil {
				return err
			}

			db, err := history.NewDatabase(dbPath)
			if err != nil {
				return fmt.Errorf("opening history: %w", err)
			}
			defer db.Close()

			slog.Debug("listing plays", "path", dbPath, "since", filter.Since, "limit", filter.Limit)

			plays, err := history.NewRecorder(db).Recent(filter)
			if err != nil {
				return err
			}
			return history.WriteTable(cmd.OutOrStdout(), plays, time.Now())
		},
	}

	cmd.Flags().StringVar(&configFile, "config", "", "Path to config file")
	cmd.Flags().IntVar(&filter.Limit, "limit", history.DefaultLimit, "Maximum plays to show")
	cmd.Flags().StringVar(&filter.Since, "since", "", "Only plays since this time (today, yesterday, week, month or a natural date)")
	cmd.Flags().StringVar(&filter.Outcome, "outcome", "", "Only plays with this outcome (played, argument, not_found, decode, device, playback)")
	cmd.Flags().StringVar(&filter.Path, "path", "", "Only plays of this file")

	return cmd
}

// RunHistory executes minply-history and returns the process exit code
func RunHistory(args []string, filesystem afero.Fs, stdout, stderr io.Writer) int {
	cmd := newHistoryCommand(config.NewConfigManagerWithFilesystem(filesystem))
	cmd.SetArgs(args[1:])
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}
