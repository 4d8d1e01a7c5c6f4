package cli

import (
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/matzehuels/grid3d/pkg/observability"
)

// Log file rotation limits.
const (
	logFileMaxSizeMB  = 10
	logFileMaxBackups = 3
	logFileMaxAgeDays = 28
)

// globalFlags are the persistent flags shared by every command.
type globalFlags struct {
	verbose bool
	logFile string
}

// AddGlobalFlags registers --verbose and --log-file on root and installs a
// PersistentPreRunE applying them before any command runs. An existing
// PersistentPreRunE is chained after.
func (c *CLI) AddGlobalFlags(root *cobra.Command) {
	var flags globalFlags
	root.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().StringVar(&flags.logFile, "log-file", "", "also write logs to this file (rotated)")

	originalPreRun := root.PersistentPreRunE
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		c.configureLogging(flags)
		cmd.SetContext(withLogger(cmd.Context(), c.Logger))
		if originalPreRun != nil {
			return originalPreRun(cmd, args)
		}
		return nil
	}
}

// configureLogging applies the global flags to the CLI logger. Verbose mode
// lowers the level to debug and reports pipeline and cache events.
func (c *CLI) configureLogging(flags globalFlags) {
	level := LogInfo
	if flags.verbose {
		level = LogDebug
	}
	c.SetLogLevel(level)

	if flags.logFile != "" {
		lj := &lumberjack.Logger{
			Filename:   flags.logFile,
			MaxSize:    logFileMaxSizeMB,
			MaxBackups: logFileMaxBackups,
			MaxAge:     logFileMaxAgeDays,
		}
		c.logFile = lj
		c.Logger.SetOutput(io.MultiWriter(c.out, lj))
	}

	if flags.verbose {
		hooks := &logHooks{logger: c.Logger}
		observability.SetPipelineHooks(hooks)
		observability.SetCacheHooks(hooks)
	}
}
