package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
)

// ExitError is an error that carries the process exit code.
type ExitError struct {
	Code    int
	Message string
}

func (e *ExitError) Error() string {
	return e.Message
}

// Options are the parsed command-line arguments.
type Options struct {
	ConfigPath string
	OutDir     string
	Serve      bool
	LogLevel   string
	Files      []string
}

// parseArgs processes command-line arguments. It returns the options, whether
// the program should exit cleanly right away (help or usage), or an
// *ExitError for invalid input.
func parseArgs(args []string, output io.Writer) (*Options, bool, error) {
	flagSet := flag.NewFlagSet("runesmith", flag.ContinueOnError)
	flagSet.SetOutput(output)
	flagSet.Usage = func() {
		fmt.Fprint(output, `
Runesmith - compiles html files built from namespace, var and import directives.

Usage:
  runesmith [options] FILE...
  runesmith -serve [options]

Arguments:
  FILE
    An html file to compile. Each output is written to the output directory
    under the file's base name.

Options:
`)
		flagSet.PrintDefaults()
	}

	configFlag := flagSet.String("config", "./config.json", "Path to the JSON configuration file. Created with defaults if missing.")
	outFlag := flagSet.String("out", "", "Directory compiled files are written to. Overrides the configured out_dir.")
	serveFlag := flagSet.Bool("serve", false, "Run the preview API instead of compiling files.")
	logLevelFlag := flagSet.String("log-level", "", "Logging level: 'debug', 'info', 'warn' or 'error'. Overrides the configured log_level.")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	opts := &Options{
		ConfigPath: *configFlag,
		OutDir:     *outFlag,
		Serve:      *serveFlag,
		LogLevel:   strings.ToLower(strings.TrimSpace(*logLevelFlag)),
		Files:      flagSet.Args(),
	}

	switch opts.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}

	if opts.Serve && len(opts.Files) > 0 {
		return nil, false, &ExitError{Code: 2, Message: "files cannot be given together with -serve"}
	}
	if !opts.Serve && len(opts.Files) == 0 {
		flagSet.Usage()
		return nil, true, nil
	}
	return opts, false, nil
}
