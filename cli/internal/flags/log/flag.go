// Package log wires the logging flags of blobpull into a slog.Logger.
// It supports different log formats (JSON, text), log levels (debug, info, warn, error),
// and output destinations (stdout, stderr).
package log

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"ocm.software/open-component-model/distribution/cli/internal/flags/enum"
)

const (
	FormatFlagName = "logformat"

	FormatText = "text"
	FormatJSON = "json"
)

const (
	LevelFlagName = "loglevel"

	LevelWarn  = "warn"
	LevelDebug = "debug"
	LevelInfo  = "info"
	LevelError = "error"
)

const (
	OutputFlagName = "logoutput"

	// OutputStderr is the default so that command results on stdout stay machine readable.
	OutputStderr = "stderr"
	OutputStdout = "stdout"
)

// RegisterLoggingFlags registers FormatFlagName, LevelFlagName and OutputFlagName on the flag set.
// Register them as persistent flags to make them available to all subcommands.
//
//	--logformat json --loglevel debug --logoutput stdout
func RegisterLoggingFlags(flagset *pflag.FlagSet) {
	enum.Var(flagset, FormatFlagName, []string{
		FormatText,
		FormatJSON,
	}, `set the log output format that is used to print individual logs
   json: Output logs in JSON format, suitable for machine processing
   text: Output logs in human-readable text format, suitable for console output`)

	enum.Var(flagset, LevelFlagName, []string{
		LevelWarn,
		LevelDebug,
		LevelInfo,
		LevelError,
	}, `sets the logging level
   debug: Show all logs including every registry request
   info:  Show progress of pulls and above
   warn:  Show warnings and errors only (default)
   error: Show errors only`)

	enum.Var(flagset, OutputFlagName, []string{
		OutputStderr,
		OutputStdout,
	}, `set the log output destination
   stderr: Write logs to standard error (default)
   stdout: Write logs to standard output, mixed with command results`)
}

// GetBaseLogger creates a slog.Logger based on the logging flags of the command.
func GetBaseLogger(cmd *cobra.Command) (*slog.Logger, error) {
	level, err := loggerLevelFromCommand(cmd)
	if err != nil {
		return nil, fmt.Errorf("failed to get log level: %w", err)
	}

	format, err := enum.Get(cmd.Flags(), FormatFlagName)
	if err != nil {
		return nil, fmt.Errorf("failed to get the log format from the command flag: %w", err)
	}

	output, err := enum.Get(cmd.Flags(), OutputFlagName)
	if err != nil {
		return nil, fmt.Errorf("failed to get the log output from the command flag: %w", err)
	}

	var w io.Writer
	switch output {
	case OutputStdout:
		w = cmd.OutOrStdout()
	case OutputStderr:
		w = cmd.ErrOrStderr()
	default:
		return nil, fmt.Errorf("invalid log output: %s", output)
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	switch format {
	case FormatJSON:
		handler = slog.NewJSONHandler(w, opts)
	case FormatText:
		handler = slog.NewTextHandler(w, opts)
	default:
		return nil, fmt.Errorf("invalid log format: %s", format)
	}

	return slog.New(handler), nil
}

func loggerLevelFromCommand(cmd *cobra.Command) (slog.Level, error) {
	logLevel, err := enum.Get(cmd.Flags(), LevelFlagName)
	if err != nil {
		return slog.LevelWarn, err
	}
	switch logLevel {
	case LevelDebug:
		return slog.LevelDebug, nil
	case LevelInfo:
		return slog.LevelInfo, nil
	case LevelWarn:
		return slog.LevelWarn, nil
	case LevelError:
		return slog.LevelError, nil
	default:
		return slog.LevelWarn, fmt.Errorf("invalid log level: %s", logLevel)
	}
}
