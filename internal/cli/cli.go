package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/pflag"
)

// Config holds all the command-line flag values.
type Config struct {
	ConfigPath string
	MCP        bool
	// FilePath, Find and Replace describe a single request given on the
	// command line. When FilePath is empty the request is read from stdin
	// or the clipboard.
	FilePath  string
	Find      string
	Replace   string
	MessageID int
	ThreadID  int
	NoTUI     bool
	Nvim      string
	LogFile   string
	Headless  bool
	// Set records which flags were given explicitly.
	Set map[string]bool
}

// ParseFlags parses os.Args.
func ParseFlags() (*Config, error) {
	return Parse(os.Args[1:])
}

// Parse defines and parses command-line flags using pflag.
func Parse(args []string) (*Config, error) {
	cfg := &Config{Set: map[string]bool{}}
	fs := pflag.NewFlagSet("itfcore", pflag.ContinueOnError)

	fs.StringVarP(&cfg.ConfigPath, "config", "c", "", "Path to the YAML config file (default: ./itfcore.yaml).")
	fs.BoolVar(&cfg.MCP, "mcp", false, "Serve the replace tool over MCP on stdio.")
	fs.StringVarP(&cfg.FilePath, "file", "f", "", "File to edit. Without it, requests are read from stdin or the clipboard.")
	fs.StringVar(&cfg.Find, "find", "", "Exact text to replace. Empty replaces the whole file.")
	fs.StringVar(&cfg.Replace, "replace", "", "Replacement text.")
	fs.IntVar(&cfg.MessageID, "message-id", 0, "Message id of the request (default: next free id).")
	fs.IntVar(&cfg.ThreadID, "thread-id", 1, "Thread id of the request.")
	fs.BoolVar(&cfg.NoTUI, "no-tui", false, "Print plain status lines instead of the interactive view.")
	fs.StringVar(&cfg.Nvim, "nvim", "", "Address of a running Neovim (overrides NVIM_LISTEN_ADDRESS).")
	fs.BoolVar(&cfg.Headless, "headless", false, "Start a headless Neovim when none is reachable.")
	fs.StringVar(&cfg.LogFile, "log-file", "", "Write structured logs to this file.")

	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: itfcore [flags]")
		fmt.Fprintln(os.Stderr, "\nApply find/replace edits to files, preferring open Neovim buffers.")
		fmt.Fprintln(os.Stderr, "\nExamples:")
		fmt.Fprintln(os.Stderr, "  itfcore -f main.go --find 'x := 1' --replace 'x := 2'")
		fmt.Fprintln(os.Stderr, "  pbpaste | itfcore --no-tui")
		fmt.Fprintln(os.Stderr, "  itfcore --mcp")
		fmt.Fprintln(os.Stderr, "\nFlags:")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	fs.Visit(func(f *pflag.Flag) { cfg.Set[f.Name] = true })

	if cfg.MCP && cfg.FilePath != "" {
		return nil, errors.New("error: --mcp and --file are mutually exclusive")
	}
	if cfg.FilePath == "" && (cfg.Set["find"] || cfg.Set["replace"]) {
		return nil, errors.New("error: --find and --replace require --file")
	}
	if cfg.MessageID < 0 || cfg.ThreadID < 0 {
		return nil, errors.New("error: ids must not be negative")
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("error: unexpected arguments %v", fs.Args())
	}
	return cfg, nil
}
