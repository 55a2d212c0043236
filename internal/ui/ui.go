package ui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"

	"github.com/sokinpui/itfcore/model"
)

var (
	HeaderColor  = color.New(color.FgBlue, color.Bold)
	InfoColor    = color.New(color.FgCyan)
	SuccessColor = color.New(color.FgGreen)
	WarningColor = color.New(color.FgYellow)
	ErrorColor   = color.New(color.FgRed)
	PathColor    = color.New(color.FgYellow)
	AddedColor   = color.New(color.FgGreen)
	RemovedColor = color.New(color.FgRed)
)

// Output is where status lines go.
var Output io.Writer = os.Stderr

func Header(format string, a ...interface{}) {
	HeaderColor.Fprintf(Output, format+"\n", a...)
}

func Info(format string, a ...interface{}) {
	InfoColor.Fprintf(Output, format+"\n", a...)
}

func Success(format string, a ...interface{}) {
	SuccessColor.Fprintf(Output, format+"\n", a...)
}

func Warning(format string, a ...interface{}) {
	WarningColor.Fprintf(Output, format+"\n", a...)
}

func Error(format string, a ...interface{}) {
	ErrorColor.Fprintf(Output, format+"\n", a...)
}

func Path(format string, a ...interface{}) {
	PathColor.Fprintf(Output, "  "+format+"\n", a...)
}

// --- Summaries ---

// PrintEditSummary prints the outcome of one replace request.
func PrintEditSummary(s model.Summary) {
	Header("\n--- Replace Summary ---")
	if s.Failed {
		Error("Failed to edit %s:", s.Path)
		fmt.Fprintf(Output, "  %s\n", s.Message)
		return
	}

	Success("Edited %s [-%d / +%d]", s.Path, s.Removed, s.Added)
	if s.Preview != "" {
		PrintPreview(s.Preview)
	}
}

// PrintPreview prints a diff preview with removed and added lines colored.
func PrintPreview(preview string) {
	for _, line := range strings.Split(preview, "\n") {
		switch {
		case strings.HasPrefix(line, "+"):
			AddedColor.Fprintf(Output, "  %s\n", line)
		case strings.HasPrefix(line, "-"):
			RemovedColor.Fprintf(Output, "  %s\n", line)
		default:
			fmt.Fprintf(Output, "  %s\n", line)
		}
	}
}

// PrintBatchSummary prints the totals of a multi-request run.
func PrintBatchSummary(succeeded, failed []string) {
	Header("\n--- Batch Summary ---")
	if len(succeeded) == 0 && len(failed) == 0 {
		Info("No files were updated.")
		return
	}
	if len(succeeded) > 0 {
		Success("Edited %d file(s):", len(succeeded))
		for _, f := range succeeded {
			Path("- %s", f)
		}
	}
	if len(failed) > 0 {
		Error("Failed to edit %d file(s):", len(failed))
		for _, f := range failed {
			Path("- %s", f)
		}
	}
}

// --- Progress Bar ---

type ProgressBar struct {
	total   int
	prefix  string
	current int
}

func NewProgressBar(total int, prefix string) *ProgressBar {
	return &ProgressBar{total: total, prefix: prefix}
}

func (p *ProgressBar) Start() {
	p.draw()
}

func (p *ProgressBar) Increment() {
	p.current++
	p.draw()
}

func (p *ProgressBar) Finish() {
	fmt.Fprintln(Output)
}

func (p *ProgressBar) draw() {
	if p.total == 0 {
		return
	}
	const barLength = 40
	percent := float64(p.current) / float64(p.total)
	filledLength := int(percent * barLength)
	bar := strings.Repeat("█", filledLength) + strings.Repeat("-", barLength-filledLength)

	percentStr := fmt.Sprintf("%.1f%%", percent*100)
	countStr := fmt.Sprintf("[%d/%d]", p.current, p.total)

	fmt.Fprintf(Output, "\r%s |%s| %s %s", p.prefix, bar, countStr, percentStr)
}
