package cli

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"minply.click/internal/audio"
	"minply.click/internal/config"
	"minply.click/internal/history"
	"minply.click/internal/player"
)

const Version = "0.4.0"

// EndpointFunc opens the output endpoint described by cfg
type EndpointFunc func(cfg *config.Config) (audio.Endpoint, error)

// Dependencies are the collaborators a CLI runs against
type Dependencies struct {
	FS               afero.Fs
	NewEndpoint      EndpointFunc
	TerminalDetector TerminalDetector
	Sleep            func(time.Duration) // nil means time.Sleep
}

// CLI represents the command-line interface
type CLI struct {
	rootCmd          *cobra.Command
	fs               afero.Fs
	configManager    *config.ConfigManager
	newEndpoint      EndpointFunc
	terminalDetector TerminalDetector
	sleep            func(time.Duration)
	historyDB        *sql.DB
	logCloser        io.Closer
}

// NewCLI creates a CLI on the OS filesystem and the real audio backends
func NewCLI() *CLI {
	return NewCLIWithDependencies(Dependencies{
		FS:               afero.NewOsFs(),
		NewEndpoint:      defaultEndpoint,
		TerminalDetector: &DefaultTerminalDetector{},
	})
}

// NewCLIWithDependencies creates a CLI with injected collaborators
func NewCLIWithDependencies(deps Dependencies) *CLI {
	c := &CLI{
		fs:               deps.FS,
		configManager:    config.NewConfigManagerWithFilesystem(deps.FS),
		newEndpoint:      deps.NewEndpoint,
		terminalDetector: deps.TerminalDetector,
		sleep:            deps.Sleep,
	}
	if c.newEndpoint == nil {
		c.newEndpoint = defaultEndpoint
	}

	rootCmd := &cobra.Command{
		Use:           "minply [flags] <audio file>",
		Short:         "Play one audio file and exit",
		Long:          "minply plays a single audio file to completion in the output device's native format, preceded by a short silence so wireless receivers can wake up.",
		Args:          exactlyOneFile,
		RunE:          c.runPlayE,
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	rootCmd.Flags().String("config", "", "Path to config file")
	rootCmd.Flags().String("backend", "", "Audio backend (auto, malgo, oto)")
	rootCmd.Flags().Bool("verbose", false, "Echo debug logs to stderr")
	rootCmd.Flags().BoolP("version", "v", false, "Show version information")

	c.rootCmd = rootCmd
	return c
}

// defaultEndpoint opens the configured backend through the platform factory
func defaultEndpoint(cfg *config.Config) (audio.Endpoint, error) {
	return audio.NewEndpointFactory(cfg.EndpointOptions()).CreateEndpoint(cfg.AudioBackend)
}

// exactlyOneFile accepts a single positional argument unless --version is set
func exactlyOneFile(cmd *cobra.Command, args []string) error {
	if version, _ := cmd.Flags().GetBool("version"); version {
		return nil
	}
	if len(args) != 1 {
		return &player.ArgumentError{Count: len(args)}
	}
	return nil
}

// Run executes the CLI with the given arguments and I/O streams and returns
// the process exit code. args[0] is the program name.
func (c *CLI) Run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	defer c.close()

	c.rootCmd.SetArgs(args[1:])
	c.rootCmd.SetIn(stdin)
	c.rootCmd.SetOut(stdout)
	c.rootCmd.SetErr(stderr)

	if err := c.rootCmd.Execute(); err != nil {
		var argErr *player.ArgumentError
		if errors.As(err, &argErr) {
			c.recordArgumentFailure(err)
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		code := player.ExitCode(err)
		slog.Debug("minply failed", "exit_code", code, "error", err)
		return code
	}
	return player.ExitOK
}

// close releases the history database and the log file
func (c *CLI) close() {
	if c.historyDB != nil {
		if err := c.historyDB.Close(); err != nil {
			slog.Warn("error closing history database", "error", err)
		}
		c.historyDB = nil
	}
	if c.logCloser != nil {
		c.logCloser.Close()
		c.logCloser = nil
	}
}

// runPlayE loads configuration, sets up logging and plays the file
func (c *CLI) runPlayE(cmd *cobra.Command, args []string) error {
	if version, _ := cmd.Flags().GetBool("version"); version {
		fmt.Fprintf(cmd.OutOrStdout(), "minply version %s\n", Version)
		return nil
	}

	cfg, err := c.loadAndValidateConfig(cmd)
	if err != nil {
		return err
	}

	verbose, _ := cmd.Flags().GetBool("verbose")
	c.setupLogging(cfg, verbose, cmd.ErrOrStderr())
	c.initializeHistory(cfg)

	return c.play(cfg, args[0])
}

// loadAndValidateConfig loads configuration, applies environment and flag
// overrides, and validates the result
func (c *CLI) loadAndValidateConfig(cmd *cobra.Command) (*config.Config, error) {
	configFile, _ := cmd.Flags().GetString("config")
	backend, _ := cmd.Flags().GetString("backend")

	cfg, err := c.configManager.LoadConfig(configFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	cfg = c.configManager.ApplyEnvironmentOverrides(cfg)

	if backend != "" {
		cfg.AudioBackend = backend
	}

	if err := c.configManager.ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// play checks the path, opens the endpoint and runs the player. The
// outcome is recorded in the history database when one is open.
func (c *CLI) play(cfg *config.Config, path string) (err error) {
	started := time.Now()
	var result *player.Result
	defer func() {
		c.recordPlay(path, started, result, err)
	}()

	if err = player.CheckPath(c.fs, path); err != nil {
		return err
	}

	endpoint, err := c.newEndpoint(cfg)
	if err != nil {
		return &player.DeviceError{Err: err}
	}
	defer func() {
		if closeErr := endpoint.Close(); closeErr != nil {
			slog.Warn("error closing audio endpoint", "endpoint", endpoint.Name(), "error", closeErr)
		}
	}()

	opts := []player.Option{
		player.WithTiming(cfg.RenderTiming()),
		player.WithShaping(cfg.LeadIn(), cfg.Fade()),
	}
	if c.sleep != nil {
		opts = append(opts, player.WithSleep(c.sleep))
	}

	result, err = player.New(c.fs, endpoint, opts...).Play(path)
	return err
}

// initializeHistory opens the history database when enabled. Failures only
// disable history.
func (c *CLI) initializeHistory(cfg *config.Config) {
	if cfg.History == nil || !cfg.History.Enabled || c.historyDB != nil {
		return
	}

	dbPath, err := c.configManager.ResolveHistoryPath(cfg.History.DatabasePath)
	if err != nil {
		slog.Warn("failed to resolve history path, continuing without history", "error", err)
		return
	}

	db, err := history.NewDatabase(dbPath)
	if err != nil {
		slog.Warn("failed to open history database, continuing without history", "path", dbPath, "error", err)
		return
	}
	c.historyDB = db
}

// recordPlay stores the invocation in the history database
func (c *CLI) recordPlay(path string, started time.Time, result *player.Result, playErr error) {
	if c.historyDB == nil {
		return
	}

	play := history.Play{
		StartedAt: started,
		SessionID: uuid.NewString(),
		Path:      path,
		Elapsed:   time.Since(started),
		Outcome:   outcomeFor(playErr),
		ExitCode:  player.ExitCode(playErr),
	}
	if result != nil {
		play.Strategy = result.Strategy
		if result.Format.SampleRate > 0 {
			play.MixFormat = result.Format.String()
			play.Duration = time.Duration(result.ProgramFrames) * time.Second / time.Duration(result.Format.SampleRate)
		}
		if result.Session != nil {
			play.SessionID = result.Session.ID
			play.Frames = int64(result.Session.FramesWritten)
		}
	}

	if _, err := history.NewRecorder(c.historyDB).Record(play); err != nil {
		slog.Warn("failed to record play", "path", path, "error", err)
	}
}

// recordArgumentFailure records a rejected invocation. Arguments are checked
// before configuration loads, so the config is loaded here only to find the
// history database; a config that fails to load means nothing is recorded.
func (c *CLI) recordArgumentFailure(argErr error) {
	cfg, err := c.loadAndValidateConfig(c.rootCmd)
	if err != nil {
		slog.Debug("argument failure not recorded", "error", err)
		return
	}
	c.initializeHistory(cfg)
	c.recordPlay(strings.Join(c.rootCmd.Flags().Args(), " "), time.Now(), nil, argErr)
}

// outcomeFor names the pipeline stage that ended the run
func outcomeFor(err error) string {
	var (
		argErr      *player.ArgumentError
		notFoundErr *player.NotFoundError
		decodeErr   *player.DecodeError
		deviceErr   *player.DeviceError
	)
	switch {
	case err == nil:
		return history.OutcomePlayed
	case errors.As(err, &notFoundErr):
		return history.OutcomeNotFound
	case errors.As(err, &decodeErr):
		return history.OutcomeDecode
	case errors.As(err, &deviceErr):
		return history.OutcomeDevice
	case errors.As(err, &argErr):
		return history.OutcomeArgument
	default:
		return history.OutcomePlayback
	}
}
