package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/sokinpui/itfcore/internal/cli"
	"github.com/sokinpui/itfcore/internal/config"
	"github.com/sokinpui/itfcore/internal/files"
	"github.com/sokinpui/itfcore/internal/logging"
	"github.com/sokinpui/itfcore/internal/mcpserver"
	"github.com/sokinpui/itfcore/internal/source"
	"github.com/sokinpui/itfcore/internal/tools/replace"
	"github.com/sokinpui/itfcore/internal/tui"
	"github.com/sokinpui/itfcore/internal/ui"
	"github.com/sokinpui/itfcore/itf"
	"github.com/sokinpui/itfcore/model"
)

var version = "dev"

func main() {
	_ = godotenv.Load()

	flags, err := cli.ParseFlags()
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	if err := run(flags); err != nil {
		ui.Error("Error: %v", err)
		os.Exit(1)
	}
}

func run(flags *cli.Config) error {
	cfg, err := config.Load(flags.ConfigPath)
	if err != nil {
		return err
	}
	if flags.Nvim != "" {
		cfg.Nvim.Address = flags.Nvim
	}
	if flags.Headless {
		cfg.Nvim.StartHeadless = true
	}
	if flags.LogFile != "" {
		cfg.Log.Path = flags.LogFile
	}

	logger, err := logging.New(cfg.Log.Path, cfg.Log.Development)
	if err != nil {
		return fmt.Errorf("failed to open log: %w", err)
	}
	defer logger.Close()
	log := logger.Zap()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	app, err := itf.Open(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer app.Close()

	if flags.MCP {
		log.Info("serving mcp on stdio", zap.String("version", version))
		return mcpserver.New(app, version, log.Named("mcp")).ServeStdio()
	}

	reqs, err := requests(flags)
	if err != nil {
		return err
	}
	if len(reqs) == 0 {
		ui.Info("Source is empty. Nothing to process.")
		return nil
	}

	var ran []*replace.Tool
	if len(reqs) == 1 && !flags.NoTUI {
		tool, err := runTUI(ctx, app, reqs[0], flags)
		if err != nil {
			return err
		}
		ran = []*replace.Tool{tool}
	} else {
		ran = runPlain(ctx, app, reqs, flags)
	}
	return printResults(ran)
}

// requests builds the work list from flags or, without --file, from stdin
// or the clipboard.
func requests(flags *cli.Config) ([]source.Request, error) {
	if flags.FilePath != "" {
		return []source.Request{{
			ID: model.ToolRequestID(uuid.New().String()),
			Input: replace.Input{
				FilePath: files.UnresolvedFilePath(flags.FilePath),
				Find:     flags.Find,
				Replace:  flags.Replace,
			},
		}}, nil
	}

	content, err := source.New().GetContent()
	if err != nil {
		return nil, err
	}
	if content == "" {
		return nil, nil
	}
	return source.ParseRequests(content)
}

func messageID(app *itf.App, flags *cli.Config) model.MessageID {
	if flags.MessageID > 0 {
		return model.MessageID(flags.MessageID)
	}
	return app.NextMessageID()
}

func runTUI(ctx context.Context, app *itf.App, req source.Request, flags *cli.Config) (*replace.Tool, error) {
	tool := app.NewReplace(req.ID, req.Input, model.ThreadID(flags.ThreadID), messageID(app, flags), nil)
	p := tea.NewProgram(tui.New(ctx, tool), tea.WithOutput(os.Stderr))
	final, err := p.Run()
	if err != nil {
		tool.Abort()
		return nil, fmt.Errorf("error running program: %w", err)
	}
	if m, ok := final.(tui.Model); ok && m.Aborted() {
		ui.Warning("Aborted.")
	}
	return tool, nil
}

func runPlain(ctx context.Context, app *itf.App, reqs []source.Request, flags *cli.Config) []*replace.Tool {
	threadID := model.ThreadID(flags.ThreadID)
	if len(reqs) == 1 {
		tool := app.Run(ctx, reqs[0].ID, reqs[0].Input, threadID, messageID(app, flags))
		ui.PrintEditSummary(tool.Summary())
		return []*replace.Tool{tool}
	}

	bar := ui.NewProgressBar(len(reqs), "Applying")
	bar.Start()
	ran := app.RunAll(ctx, reqs, threadID, func(int, int) { bar.Increment() })
	bar.Finish()

	var succeeded, failed []string
	for _, tool := range ran {
		s := tool.Summary()
		ui.PrintEditSummary(s)
		if s.Failed {
			failed = append(failed, s.Path)
		} else {
			succeeded = append(succeeded, s.Path)
		}
	}
	ui.PrintBatchSummary(succeeded, failed)
	return ran
}

// printResults writes the tool_result payloads to stdout as JSON and fails
// when any request failed.
func printResults(ran []*replace.Tool) error {
	results := make([]model.ToolResult, 0, len(ran))
	failed := 0
	for _, tool := range ran {
		r := tool.GetToolResult()
		if r.Result.IsError() {
			failed++
		}
		results = append(results, r)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(results); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d request(s) failed", failed, len(ran))
	}
	return nil
}
