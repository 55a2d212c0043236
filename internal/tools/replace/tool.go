// Package replace implements the find/replace tool offered to the model.
package replace

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sokinpui/itfcore/internal/edit"
	"github.com/sokinpui/itfcore/internal/tools"
	"github.com/sokinpui/itfcore/model"
)

// ProcessingMessage is the provisional result while the edit runs.
const ProcessingMessage = "This tool use is being processed."

// Status is the state of a Tool.
type Status int

const (
	StatusProcessing Status = iota
	StatusDone
)

func (s Status) String() string {
	switch s {
	case StatusProcessing:
		return "processing"
	case StatusDone:
		return "done"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Msg is a transition delivered to Update.
type Msg interface {
	isMsg()
}

// FinishMsg ends the pipeline with a result. Outcome is set on success.
type FinishMsg struct {
	Result  model.Result
	Outcome *edit.Outcome
}

func (FinishMsg) isMsg() {}

// Applier performs the edit. *edit.Applier implements it.
type Applier interface {
	Apply(ctx context.Context, req edit.Request, messageID model.MessageID) (edit.Outcome, error)
}

// Deps are the collaborators of a Tool.
type Deps struct {
	Applier Applier
	Logger  *zap.Logger
	// OnDone receives the terminal result exactly once.
	OnDone func(model.ToolResult)
	// PreviewOptions bounds the diff shown in View.
	PreviewOptions edit.PreviewOptions
}

// Tool is one replace request and its progress from processing to done.
type Tool struct {
	ID        model.ToolRequestID
	Input     Input
	ThreadID  model.ThreadID
	MessageID model.MessageID

	deps Deps
	log  *zap.Logger

	mu      sync.Mutex
	status  Status
	result  model.Result
	outcome *edit.Outcome
	task    *Task
	started time.Time
	done    chan struct{}
}

// Task is the handle of a started tool.
type Task struct {
	tool   *Tool
	cancel context.CancelFunc
}

// Done is closed once the tool reaches its terminal state, whether the
// pipeline finished or the tool was aborted.
func (t *Task) Done() <-chan struct{} {
	return t.tool.done
}

// Cancel aborts the tool.
func (t *Task) Cancel() {
	t.tool.Abort()
}

// New creates a tool in the processing state. Nothing runs until Start.
func New(id model.ToolRequestID, input Input, threadID model.ThreadID, messageID model.MessageID, deps Deps) *Tool {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if deps.PreviewOptions == (edit.PreviewOptions{}) {
		deps.PreviewOptions = edit.DefaultPreviewOptions()
	}
	return &Tool{
		ID:        id,
		Input:     input,
		ThreadID:  threadID,
		MessageID: messageID,
		deps:      deps,
		log:       log.With(zap.String("tool", ToolName), zap.String("request_id", string(id))),
		status:    StatusProcessing,
		done:      make(chan struct{}),
	}
}

// Start runs the edit in the background. Calling Start again returns the
// same task. Starting a tool that was already aborted runs nothing.
func (t *Tool) Start(ctx context.Context) *Task {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.task != nil {
		return t.task
	}
	if t.status != StatusProcessing {
		// Aborted before it ran: there is nothing left to start.
		t.task = &Task{tool: t, cancel: func() {}}
		return t.task
	}

	ctx, cancel := context.WithCancel(ctx)
	t.task = &Task{tool: t, cancel: cancel}
	t.started = time.Now()

	go func() {
		outcome, err := t.run(ctx)
		if err != nil {
			t.Update(FinishMsg{Result: model.Err(tools.Classify(err).Message)})
			return
		}
		t.Update(FinishMsg{Result: model.OK(successMessage(outcome)), Outcome: &outcome})
	}()
	return t.task
}

func (t *Tool) run(ctx context.Context) (outcome edit.Outcome, err error) {
	defer tools.Recover(&err)
	if t.deps.Applier == nil {
		return edit.Outcome{}, fmt.Errorf("replace tool has no applier")
	}
	return t.deps.Applier.Apply(ctx, edit.Request{
		FilePath: t.Input.FilePath,
		Find:     t.Input.Find,
		Replace:  t.Input.Replace,
	}, t.MessageID)
}

func successMessage(o edit.Outcome) string {
	msg := fmt.Sprintf("Successfully replaced content in %s", o.RelPath)
	if o.Location.Occurrences > 1 {
		msg += fmt.Sprintf(". The text occurred %d times; only the first occurrence was replaced.", o.Location.Occurrences)
	}
	return msg
}

// Abort forces the tool to done with a cancellation error. The running
// pipeline is not waited for, and its completion is ignored. Aborting a
// finished tool does nothing.
func (t *Tool) Abort() {
	t.mu.Lock()
	if t.status != StatusProcessing {
		t.mu.Unlock()
		return
	}
	t.finishLocked(model.Err(tools.AbortMessage), nil)
	t.mu.Unlock()

	t.log.Info("tool aborted")
	t.notify()
}

// Update applies a transition.
func (t *Tool) Update(msg Msg) {
	switch msg := msg.(type) {
	case FinishMsg:
		t.mu.Lock()
		switch t.status {
		case StatusProcessing:
			t.finishLocked(msg.Result, msg.Outcome)
		case StatusDone:
			t.mu.Unlock()
			t.log.Debug("late finish ignored", zap.String("status", msg.Result.Status))
			return
		default:
			t.mu.Unlock()
			panic(fmt.Sprintf("unreachable status %d", int(t.status)))
		}
		t.mu.Unlock()

		t.log.Info("tool finished",
			zap.String("status", msg.Result.Status),
			zap.Duration("duration", time.Since(t.started)),
		)
		t.notify()
	default:
		panic(fmt.Sprintf("unreachable message %T", msg))
	}
}

func (t *Tool) finishLocked(r model.Result, o *edit.Outcome) {
	t.status = StatusDone
	t.result = r
	t.outcome = o
	close(t.done)
	if t.task != nil {
		t.task.cancel()
	}
}

// notify runs after the single transition to done, so OnDone fires once.
func (t *Tool) notify() {
	if t.deps.OnDone != nil {
		t.deps.OnDone(t.GetToolResult())
	}
}

// Status returns the current state.
func (t *Tool) Status() Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

// Outcome returns the applied edit, if the tool succeeded.
func (t *Tool) Outcome() (edit.Outcome, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.outcome == nil {
		return edit.Outcome{}, false
	}
	return *t.outcome, true
}

// GetToolResult returns the payload for the provider. While processing it
// is a placeholder the caller can send right away.
func (t *Tool) GetToolResult() model.ToolResult {
	t.mu.Lock()
	defer t.mu.Unlock()
	switch t.status {
	case StatusProcessing:
		return model.NewToolResult(t.ID, model.OK(ProcessingMessage))
	case StatusDone:
		return model.NewToolResult(t.ID, t.result)
	default:
		panic(fmt.Sprintf("unreachable status %d", int(t.status)))
	}
}

// StatusIcon is the glyph for the current state.
func (t *Tool) StatusIcon() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.iconLocked()
}

func (t *Tool) iconLocked() string {
	switch t.status {
	case StatusProcessing:
		return "⏳"
	case StatusDone:
		if t.result.IsError() {
			return "⚠️"
		}
		return "✏️"
	default:
		panic(fmt.Sprintf("unreachable status %d", int(t.status)))
	}
}

// View renders a one-line summary followed by the status detail.
func (t *Tool) View() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return fmt.Sprintf("%s Replace [[ -%d / +%d ]] in `%s` %s",
		t.iconLocked(),
		edit.CountLines(t.Input.Find),
		edit.CountLines(t.Input.Replace),
		t.Input.FilePath,
		t.statusViewLocked(),
	)
}

func (t *Tool) statusViewLocked() string {
	switch t.status {
	case StatusProcessing:
		return "Processing replace..."
	case StatusDone:
		if t.result.IsError() {
			return "Error: " + t.result.Error
		}
		return "Success!\n```diff\n" + t.previewLocked() + "\n```"
	default:
		panic(fmt.Sprintf("unreachable status %d", int(t.status)))
	}
}

func (t *Tool) previewLocked() string {
	if t.outcome != nil && t.outcome.Preview != "" {
		return t.outcome.Preview
	}
	return edit.Preview(string(t.Input.FilePath), t.Input.Find, t.Input.Replace, t.deps.PreviewOptions)
}

// Summary condenses the tool's state for status printing.
func (t *Tool) Summary() model.Summary {
	t.mu.Lock()
	defer t.mu.Unlock()
	s := model.Summary{
		Path:    string(t.Input.FilePath),
		Removed: edit.CountLines(t.Input.Find),
		Added:   edit.CountLines(t.Input.Replace),
	}
	if t.outcome != nil {
		s.Path = string(t.outcome.RelPath)
	}
	switch t.status {
	case StatusProcessing:
		s.Message = ProcessingMessage
	case StatusDone:
		s.Failed = t.result.IsError()
		if s.Failed {
			s.Message = t.result.Error
		} else {
			s.Message = t.result.Value
			s.Preview = t.previewLocked()
		}
	default:
		panic(fmt.Sprintf("unreachable status %d", int(t.status)))
	}
	return s
}

// DisplayInput renders the request for the conversation transcript.
func (t *Tool) DisplayInput() string {
	var b strings.Builder
	b.WriteString("replace: {\n")
	fmt.Fprintf(&b, "    filePath: %s\n", t.Input.FilePath)
	b.WriteString("    match:\n```\n")
	b.WriteString(t.Input.Find)
	b.WriteString("\n```\n    replace:\n```\n")
	b.WriteString(t.Input.Replace)
	b.WriteString("\n```\n}")
	return b.String()
}
