package replace

import (
	"fmt"

	"github.com/sokinpui/itfcore/internal/files"
	"github.com/sokinpui/itfcore/model"
)

// ToolName is the name the model calls the tool by.
const ToolName = "replace"

const (
	description = `This is a tool for replacing text in a file.

Break up replace opertations into multiple, smaller replace calls. Try to make each replace call meaningful and atomic.`

	filePathDescription = "Path of the file to modify."

	findDescription = "The text to replace.\n\n" +
		"`find` MUST uniquely identify the text you want to replace. Provide sufficient context lines above and below the edit to ensure that only one location in the file matches this text.\n\n" +
		"This should be the complete text to replace, exactly as it appears in the file, including indentation. Regular expressions are not supported.\n\n" +
		"If the text appears multiple times, only the first match will be replaced. If you would like to replace multiple instances of the same text, use multiple tool calls.\n\n" +
		"Special case: If `find` is an empty string (\"\"), the entire file content will be replaced with the `replace` text."

	replaceDescription = "The `replace` parameter will replace the `find` text.\n\n" +
		"This MUST be the complete and exact replacement text. Make sure to keep track of braces and indentation."
)

// Input is a validated replace request.
type Input struct {
	FilePath files.UnresolvedFilePath `json:"filePath"`
	Find     string                   `json:"find"`
	Replace  string                   `json:"replace"`
}

// Spec returns the declarative schema of the tool.
func Spec() model.ToolSpec {
	return model.ToolSpec{
		Name:        ToolName,
		Description: description,
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"filePath": map[string]any{"type": "string", "description": filePathDescription},
				"find":     map[string]any{"type": "string", "description": findDescription},
				"replace":  map[string]any{"type": "string", "description": replaceDescription},
			},
			"required":             []string{"filePath", "find", "replace"},
			"additionalProperties": false,
		},
	}
}

// ValidateInput checks the raw arguments sent by the model.
func ValidateInput(input map[string]any) (Input, error) {
	var in Input
	for _, field := range []string{"filePath", "find", "replace"} {
		s, ok := input[field].(string)
		if !ok {
			return Input{}, fmt.Errorf("expected req.input.%s to be a string", field)
		}
		switch field {
		case "filePath":
			in.FilePath = files.UnresolvedFilePath(s)
		case "find":
			in.Find = s
		case "replace":
			in.Replace = s
		}
	}
	return in, nil
}
