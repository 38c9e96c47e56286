package cmd

import (
	"io"
	"os"

	"autoexec/activity"
	"autoexec/config"
	"autoexec/engine"
	"autoexec/monitor"
	"autoexec/scanner"
	"autoexec/storage"

	"github.com/cockroachdb/errors"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Version is set at build time
var Version = "dev"

// Session bundles everything a command needs
type Session struct {
	Config  *config.Config
	Log     *activity.Log
	Store   *storage.Manager
	Engine  *engine.Engine
	Watcher *monitor.Watcher // nil when watching is disabled
}

// GUIFunc runs the desktop interface until the window closes
type GUIFunc func(s *Session) error

// Execute runs the root command
func Execute(gui GUIFunc) {
	if err := NewRootCmd(gui).Execute(); err != nil {
		os.Exit(1)
	}
}

// NewRootCmd builds the command tree. Without a subcommand it launches gui.
func NewRootCmd(gui GUIFunc) *cobra.Command {
	v := viper.New()
	config.SetDefaults(v)

	rootCmd := &cobra.Command{
		Use:     "autoexec",
		Short:   "Manage which scripts run from the Wave autoexec folder",
		Version: Version,
		Long: `autoexec copies scripts from a folder of your choice into the Wave
autoexec folder, and removes them again. Run it without arguments to open the
desktop window, or use the subcommands to manage scripts from a terminal.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if noColor, _ := cmd.Flags().GetBool("no-color"); noColor {
				color.NoColor = true
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if gui == nil {
				return errors.New("desktop interface is not available in this build")
			}
			s, err := newSession(v, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if s.Config.Watch {
				s.Watcher = monitor.NewWatcher(s.Config.Extension, s.Config.Debounce, s.Log)
			}
			return gui(s)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.String(config.KeyDestination, config.DefaultDestination(), "autoexec folder (or set AUTOEXEC_DEST)")
	flags.String(config.KeyExtension, scanner.DefaultExtension, "tracked script extension (or set AUTOEXEC_EXT)")
	flags.String(config.KeyMode, "multi", "selection mode: multi or single (or set AUTOEXEC_MODE)")
	flags.String(config.KeySettings, storage.DefaultSettingsFile, "settings file (or set AUTOEXEC_SETTINGS)")
	flags.String(config.KeyLogLevel, "info", "log level: debug, info, warn, error (or set AUTOEXEC_LOG_LEVEL)")
	flags.Bool(config.KeyNoWatch, false, "do not refresh when the folders change (or set AUTOEXEC_NO_WATCH)")
	flags.Duration(config.KeyDebounce, monitor.DefaultDelay, "delay before refreshing after a folder change")
	flags.Bool("no-color", false, "disable ANSI colors")
	_ = v.BindPFlags(flags)

	rootCmd.AddCommand(
		newListCmd(v),
		newActivateCmd(v),
		newDeactivateCmd(v),
		newSelectCmd(v),
		newClearCmd(v),
		newFolderCmd(v),
	)

	return rootCmd
}

// newSession loads configuration and settings and builds the engine
func newSession(v *viper.Viper, logOutput io.Writer) (*Session, error) {
	cfg, err := config.Load(v)
	if err != nil {
		return nil, err
	}

	logger, err := activity.NewLogger(logOutput, cfg.LogLevel)
	if err != nil {
		return nil, errors.Wrap(err, "invalid log level")
	}
	activityLog := activity.New(logger)

	store := storage.NewManager(cfg.SettingsFile)
	settings, err := store.LoadSettings()
	if err != nil {
		// Fall back to defaults rather than refusing to start
		activityLog.Warn("Could not load settings, using defaults", "path", store.Path(), "error", err)
	}

	eng := engine.New(engine.Options{
		Destination: cfg.Destination,
		Extension:   cfg.Extension,
		Mode:        cfg.Mode,
	}, settings, store, activityLog)

	return &Session{
		Config: cfg,
		Log:    activityLog,
		Store:  store,
		Engine: eng,
	}, nil
}
