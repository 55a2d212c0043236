package itf

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/sokinpui/itfcore/internal/buffers"
	"github.com/sokinpui/itfcore/internal/config"
	"github.com/sokinpui/itfcore/internal/edit"
	"github.com/sokinpui/itfcore/internal/files"
	"github.com/sokinpui/itfcore/internal/journal"
	"github.com/sokinpui/itfcore/internal/nvim"
	"github.com/sokinpui/itfcore/internal/tools/replace"
	"github.com/sokinpui/itfcore/model"
)

// App wires the editor, the buffer manager, the journal and the tools.
type App struct {
	cfg     *config.Config
	log     *zap.Logger
	manager *buffers.Manager
	applier *edit.Applier
	journal *journal.Journal
	closer  func() error

	mu            sync.Mutex
	lastMessageID model.MessageID
	running       map[model.ToolRequestID]*replace.Tool
}

// Options configure New.
type Options struct {
	Config *config.Config
	Editor buffers.Editor
	Logger *zap.Logger
	// Journal records applied edits. Nil disables the journal.
	Journal *journal.Journal
}

// New builds an App around an already connected editor.
func New(opts Options) (*App, error) {
	if opts.Editor == nil {
		return nil, fmt.Errorf("itf: no editor")
	}
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	manager := buffers.New(opts.Editor,
		buffers.WithLogger(log.Named("buffers")),
		buffers.WithResolver(files.Resolver{AllowOutside: cfg.Workspace.AllowOutsideCwd}),
	)
	return &App{
		cfg:     cfg,
		log:     log,
		manager: manager,
		applier: edit.NewApplier(manager, cfg.Preview.Options(), log.Named("edit")),
		journal: opts.Journal,
		running: make(map[model.ToolRequestID]*replace.Tool),
	}, nil
}

// Open connects to Neovim as configured and builds an App on it. The
// journal lives under the editor's workspace root when enabled.
func Open(ctx context.Context, cfg *config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		log = zap.NewNop()
	}
	client, err := nvim.Connect(ctx, nvim.Options{
		Address:       cfg.Nvim.Address,
		StartHeadless: cfg.Nvim.StartHeadless,
		Logger:        log.Named("nvim"),
	})
	if err != nil {
		return nil, err
	}

	var j *journal.Journal
	if cfg.Journal.Enabled {
		j, err = openJournal(ctx, cfg, client)
		if err != nil {
			log.Warn("journal disabled", zap.Error(err))
		}
	}

	app, err := New(Options{Config: cfg, Editor: client, Logger: log, Journal: j})
	if err != nil {
		client.Close()
		return nil, err
	}
	app.closer = client.Close
	return app, nil
}

func openJournal(ctx context.Context, cfg *config.Config, editor buffers.Editor) (*journal.Journal, error) {
	if cfg.Journal.Dir != "" {
		return journal.Open(cfg.Journal.Dir)
	}
	cwd, err := editor.Cwd(ctx)
	if err != nil {
		return nil, err
	}
	return journal.OpenAt(cwd)
}

// Close releases the editor connection if the App opened it.
func (a *App) Close() error {
	if a.closer == nil {
		return nil
	}
	return a.closer()
}

// Manager returns the buffer-and-file manager.
func (a *App) Manager() *buffers.Manager {
	return a.manager
}

// Journal returns the edit journal, or nil.
func (a *App) Journal() *journal.Journal {
	return a.journal
}

// NextMessageID returns a message id later than every id handed out or
// observed so far.
func (a *App) NextMessageID() model.MessageID {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.lastMessageID++
	return a.lastMessageID
}

// observe keeps caller-supplied ids from being reused by NextMessageID.
func (a *App) observe(id model.MessageID) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if id > a.lastMessageID {
		a.lastMessageID = id
	}
}

// NewReplace creates a replace tool for the request. onDone, if set, is
// called once with the terminal result after the journal is written. A
// request id already running is taken over by the new tool.
func (a *App) NewReplace(id model.ToolRequestID, input replace.Input, threadID model.ThreadID, messageID model.MessageID, onDone func(model.ToolResult)) *replace.Tool {
	a.observe(messageID)

	var tool *replace.Tool
	tool = replace.New(id, input, threadID, messageID, replace.Deps{
		Applier:        a.applier,
		Logger:         a.log.Named("tools"),
		PreviewOptions: a.cfg.Preview.Options(),
		OnDone: func(r model.ToolResult) {
			a.mu.Lock()
			if a.running[id] == tool {
				delete(a.running, id)
			}
			a.mu.Unlock()

			a.record(tool)
			if onDone != nil {
				onDone(r)
			}
		},
	})

	a.mu.Lock()
	if _, dup := a.running[id]; dup {
		a.log.Warn("duplicate request id; abort reaches the newest tool", zap.String("request_id", string(id)))
	}
	a.running[id] = tool
	a.mu.Unlock()
	return tool
}

// Run starts a replace tool and waits for it to finish or for ctx to end.
// When ctx ends first the tool is aborted.
func (a *App) Run(ctx context.Context, id model.ToolRequestID, input replace.Input, threadID model.ThreadID, messageID model.MessageID) *replace.Tool {
	done := make(chan struct{})
	tool := a.NewReplace(id, input, threadID, messageID, func(model.ToolResult) { close(done) })
	task := tool.Start(ctx)
	select {
	case <-done:
	case <-ctx.Done():
		task.Cancel()
		<-done
	}
	return tool
}

// Abort aborts the running tool with the given request id. It reports
// whether such a tool was running.
func (a *App) Abort(id model.ToolRequestID) bool {
	a.mu.Lock()
	tool, ok := a.running[id]
	a.mu.Unlock()
	if ok {
		tool.Abort()
	}
	return ok
}

// record appends a journal entry for a successful edit. Journal failures
// are logged and never fail the edit.
func (a *App) record(tool *replace.Tool) {
	if a.journal == nil {
		return
	}
	out, ok := tool.Outcome()
	if !ok {
		return
	}
	entry := journal.Entry{
		ThreadID:     int(tool.ThreadID),
		MessageID:    int(tool.MessageID),
		RequestID:    string(tool.ID),
		Tool:         replace.ToolName,
		Path:         string(out.RelPath),
		Source:       out.Source.String(),
		BeforeSHA256: journal.Hash(out.Before),
		AfterSHA256:  journal.Hash(out.After),
		LinesRemoved: edit.CountLines(tool.Input.Find),
		LinesAdded:   edit.CountLines(tool.Input.Replace),
	}
	if err := a.journal.Append(entry); err != nil {
		a.log.Warn("journal append failed", zap.String("path", entry.Path), zap.Error(err))
	}
}
