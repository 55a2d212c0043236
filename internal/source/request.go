package source

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/sokinpui/itfcore/internal/tools/replace"
	"github.com/sokinpui/itfcore/model"
)

// ErrNoRequest is returned when the content holds no replace request.
var ErrNoRequest = errors.New("no replace request found")

// Request is a replace request read from a one-shot source.
type Request struct {
	ID    model.ToolRequestID
	Input replace.Input
}

// ParseRequests reads requests from content. Content is either JSON (an
// object or an array of objects) or markdown whose fenced `json` blocks hold
// such JSON. Objects may be bare tool input or a tool_use envelope with
// "id", "name" and "input". Requests without an id get a fresh one.
func ParseRequests(content string) ([]Request, error) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return nil, ErrNoRequest
	}
	if trimmed[0] == '{' || trimmed[0] == '[' {
		return decode([]byte(trimmed))
	}

	blocks := extractJSONBlocks([]byte(content))
	if len(blocks) == 0 {
		return nil, ErrNoRequest
	}
	var reqs []Request
	for i, block := range blocks {
		r, err := decode([]byte(block))
		if err != nil {
			return nil, fmt.Errorf("json block %d: %w", i+1, err)
		}
		reqs = append(reqs, r...)
	}
	return reqs, nil
}

func decode(data []byte) ([]Request, error) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}

	var objs []map[string]any
	switch v := raw.(type) {
	case map[string]any:
		objs = append(objs, v)
	case []any:
		for i, item := range v {
			obj, ok := item.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("item %d is not an object", i)
			}
			objs = append(objs, obj)
		}
	default:
		return nil, fmt.Errorf("expected a JSON object or array, got %T", raw)
	}
	if len(objs) == 0 {
		return nil, ErrNoRequest
	}

	reqs := make([]Request, 0, len(objs))
	for _, obj := range objs {
		r, err := fromObject(obj)
		if err != nil {
			return nil, err
		}
		reqs = append(reqs, r)
	}
	return reqs, nil
}

func fromObject(obj map[string]any) (Request, error) {
	input := obj
	if nested, ok := obj["input"].(map[string]any); ok {
		if name, ok := obj["name"].(string); ok && name != replace.ToolName {
			return Request{}, fmt.Errorf("unsupported tool %q", name)
		}
		input = nested
	}

	in, err := replace.ValidateInput(input)
	if err != nil {
		return Request{}, err
	}
	id, _ := obj["id"].(string)
	if id == "" {
		id = uuid.New().String()
	}
	return Request{ID: model.ToolRequestID(id), Input: in}, nil
}

// extractJSONBlocks walks the markdown AST and returns the bodies of fenced
// code blocks tagged json.
func extractJSONBlocks(source []byte) []string {
	var blocks []string
	root := goldmark.DefaultParser().Parse(text.NewReader(source))

	_ = ast.Walk(root, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		fenced, ok := node.(*ast.FencedCodeBlock)
		if !ok {
			return ast.WalkContinue, nil
		}
		if !strings.EqualFold(string(fenced.Language(source)), "json") {
			return ast.WalkSkipChildren, nil
		}

		var content bytes.Buffer
		lines := fenced.Lines()
		for i := 0; i < lines.Len(); i++ {
			line := lines.At(i)
			content.Write(line.Value(source))
		}
		blocks = append(blocks, content.String())
		return ast.WalkSkipChildren, nil
	})
	return blocks
}
