// Package test provides utilities for testing the blobpull commands.
// It includes helpers for executing commands and parsing JSON log output.
package test

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"testing"

	"github.com/spf13/cobra"
	"oras.land/oras-go/v2/registry/remote"

	"ocm.software/open-component-model/distribution/cli/cmd"
	clictx "ocm.software/open-component-model/distribution/cli/internal/context"
	"ocm.software/open-component-model/distribution/cli/internal/flags/log"
)

// Options holds configuration for executing blobpull commands in tests.
type Options struct {
	args      []string
	out       io.Writer
	logs      io.Writer
	transport remote.Client
}

type Option func(*Options)

// WithArgs sets the command line arguments.
func WithArgs(args ...string) Option {
	return func(o *Options) {
		o.args = args
	}
}

// WithOutput captures the command results.
func WithOutput(out io.Writer) Option {
	return func(o *Options) {
		o.out = out
	}
}

// WithLogs captures the JSON logs of the command, see JSONLogReader.
func WithLogs(logs io.Writer) Option {
	return func(o *Options) {
		o.logs = logs
	}
}

// WithTransport replaces the registry transport used by the commands.
func WithTransport(transport remote.Client) Option {
	return func(o *Options) {
		o.transport = transport
	}
}

// BlobPull executes a blobpull command with the given options and returns the executed command.
// Logs are emitted as JSON so that tests can inspect them with JSONLogReader.
func BlobPull(tb testing.TB, opts ...Option) (*cobra.Command, error) {
	tb.Helper()

	opt := Options{out: io.Discard, logs: io.Discard}
	for _, o := range opts {
		o(&opt)
	}
	if len(opt.args) == 0 {
		opt.args = []string{"help"}
	}

	instance := cmd.New()
	instance.SetOut(opt.out)
	instance.SetErr(opt.logs)

	if err := instance.PersistentFlags().Set(log.FormatFlagName, log.FormatJSON); err != nil {
		return nil, fmt.Errorf("failed to set format: %w", err)
	}
	if err := instance.PersistentFlags().Set(log.LevelFlagName, log.LevelDebug); err != nil {
		return nil, fmt.Errorf("failed to set level: %w", err)
	}

	ctx := tb.Context()
	if opt.transport != nil {
		ctx = clictx.WithTransport(ctx, opt.transport)
	}

	instance.SetArgs(opt.args)
	return instance.ExecuteContextC(ctx)
}

// JSONLogReader reads JSON-formatted log output.
// Lines that are not JSON are kept in Discarded.
type JSONLogReader struct {
	*bytes.Buffer
	Discarded *bytes.Buffer
}

func NewJSONLogReader() *JSONLogReader {
	return &JSONLogReader{
		Buffer:    bytes.NewBuffer(make([]byte, 0, 1024)),
		Discarded: bytes.NewBuffer(make([]byte, 0, 1024)),
	}
}

// JSONLogEntry is a single log line with its well known fields split out.
type JSONLogEntry struct {
	Level  string
	Msg    string
	Extras map[string]any
}

func (l *JSONLogEntry) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	l.Level, _ = raw["level"].(string)
	l.Msg, _ = raw["msg"].(string)
	delete(raw, "time")
	delete(raw, "level")
	delete(raw, "msg")
	l.Extras = raw
	return nil
}

// List parses the log buffer and returns all valid JSON log entries.
func (logs *JSONLogReader) List() ([]*JSONLogEntry, error) {
	scanner := bufio.NewScanner(logs.Buffer)
	var entries []*JSONLogEntry
	for scanner.Scan() {
		data := scanner.Bytes()
		var entry JSONLogEntry
		if err := json.Unmarshal(data, &entry); err == nil {
			entries = append(entries, &entry)
		} else if _, err := logs.Discarded.Write(append(data, '\n')); err != nil {
			return nil, err
		}
	}
	return entries, scanner.Err()
}

// Messages returns the messages of all entries with the given level.
func (logs *JSONLogReader) Messages(level string) ([]string, error) {
	entries, err := logs.List()
	if err != nil {
		return nil, err
	}
	var msgs []string
	for _, e := range entries {
		if e.Level == level {
			msgs = append(msgs, e.Msg)
		}
	}
	return msgs, nil
}
