package itf

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/sokinpui/itfcore/internal/config"
	"github.com/sokinpui/itfcore/internal/source"
	"github.com/sokinpui/itfcore/internal/tools/replace"
	"github.com/sokinpui/itfcore/model"
)

// Apply parses replace requests from content (JSON or markdown with fenced
// json blocks) and runs them one after another against the Neovim instance
// described by cfg. A nil cfg loads the default configuration file.
func Apply(ctx context.Context, content string, cfg *config.Config, log *zap.Logger) ([]*replace.Tool, error) {
	reqs, err := source.ParseRequests(content)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		cfg, err = config.Load("")
		if err != nil {
			return nil, err
		}
	}

	app, err := Open(ctx, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize itf app: %w", err)
	}
	defer app.Close()

	return app.RunAll(ctx, reqs, 0, nil), nil
}

// RunAll runs requests in order, each with a fresh message id. progress, if
// set, is called after every request.
func (a *App) RunAll(ctx context.Context, reqs []source.Request, threadID model.ThreadID, progress func(current, total int)) []*replace.Tool {
	ran := make([]*replace.Tool, 0, len(reqs))
	for i, req := range reqs {
		if ctx.Err() != nil {
			break
		}
		ran = append(ran, a.Run(ctx, req.ID, req.Input, threadID, a.NextMessageID()))
		if progress != nil {
			progress(i+1, len(reqs))
		}
	}
	return ran
}
