package source

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/atotto/clipboard"

	"github.com/sokinpui/itfcore/internal/ui"
)

// Provider determines and retrieves the source content.
type Provider struct {
	Stdin io.Reader
	// IsPiped reports whether Stdin carries data rather than a terminal.
	IsPiped   func() bool
	Clipboard func() (string, error)
	// Quiet suppresses the status headers on stderr.
	Quiet bool
}

// New creates a Provider reading os.Stdin or the system clipboard.
func New() *Provider {
	return &Provider{
		Stdin:     os.Stdin,
		IsPiped:   stdinIsPiped,
		Clipboard: clipboard.ReadAll,
	}
}

func stdinIsPiped() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

// GetContent retrieves content from stdin (if piped) or the clipboard. An
// empty clipboard yields "" and no error.
func (p *Provider) GetContent() (string, error) {
	if p.IsPiped != nil && p.IsPiped() {
		p.header("--- Reading from stdin ---")
		content, err := io.ReadAll(p.Stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read from stdin: %w", err)
		}
		return string(content), nil
	}

	p.header("--- Reading from clipboard ---")
	content, err := p.Clipboard()
	if err != nil {
		return "", fmt.Errorf("failed to read from clipboard: %w", err)
	}
	if strings.TrimSpace(content) == "" {
		if !p.Quiet {
			ui.Warning("Clipboard is empty. Nothing to process.")
		}
		return "", nil
	}
	return content, nil
}

func (p *Provider) header(msg string) {
	if !p.Quiet {
		ui.Header(msg)
	}
}
