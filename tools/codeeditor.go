package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/nexxia-ai/nimbus/graph"
	"github.com/nexxia-ai/nimbus/notebook"
)

const codeEditorSystemPrompt = `You are a programming assistant who helps users write python code.
The code is related to an analysis of geospatial data. If map visualizations are requested, use the cartopy library, adding borders, coastlines, lakes and rivers.
Respond only with python code that can be integrated with the existing code. It must use the appropriate variables already defined in the code.
Do not attach any other text. Do not produce additional code other than what is necessary to satisfy the request.`

// NewCodeEditorTool appends model-drafted code to an existing notebook. The
// draft is generated first and reviewed by the user through a confirm-output
// interrupt; only a confirmed draft is written.
func NewCodeEditorTool(d Deps) *graph.AgentTool {
	return &graph.AgentTool{
		Name: CodeEditorToolName,
		Description: `Edit an existing Jupyter notebook by adding new code.
Use this tool when the user asks for help editing a notebook by adding something new. The notebook must already exist.`,
		Schema: graph.ToolSchema{Fields: []graph.Field{
			{Name: "source", Type: "string", Required: true,
				Description: "The name of the notebook to edit.",
				Examples:    []any{"icisk-ai_spi-calculation_2025-03-01T10-00-00.ipynb"}},
			{Name: "code_request", Type: "string", Required: true,
				Description: "What the requested code should do.",
				Examples:    []any{"Please add a function to plot the data.", "Save the data in csv format."}},
		}},
		Validations: []graph.ValidationRule{
			suffixRule("source", ".ipynb", "source"),
		},
		Inferences: []graph.InferenceRule{
			{Field: "source", AlwaysRun: true,
				Infer: func(ctx context.Context, call *graph.ToolCallRequest, args graph.Args) (any, error) {
					name := args.String("source")
					if name == "" {
						return nil, fmt.Errorf("source notebook name is required")
					}
					userID := graph.UserFrom(ctx)
					if _, err := d.Store.NotebookByName(ctx, userID, name, false); err != nil {
						return nil, fmt.Errorf("notebook %s not found for user %s", name, userID)
					}
					return name, nil
				}},
		},
		ConfirmOutput: true,
		Execute:       codeEditorExecute(d),
		OutputPrompt: func(call *graph.ToolCallRequest) string {
			return "I drafted the following code. Should I add it to the notebook?\n\n```python\n" + call.Draft + "\n```"
		},
	}
}

// codeEditorExecute runs in two passes. The first drafts code against the
// notebook's current content and stashes it on the call; the gate then asks
// the user to review it. The confirmed second pass appends the draft as a
// new cell and persists the notebook.
func codeEditorExecute(d Deps) func(ctx context.Context, call *graph.ToolCallRequest, args graph.Args) (map[string]any, error) {
	return func(ctx context.Context, call *graph.ToolCallRequest, args graph.Args) (map[string]any, error) {
		name := args.String("source")
		record, nb, err := d.loadOrCreate(ctx, name)
		if err != nil {
			return nil, err
		}

		if !call.OutputConfirmed {
			request := strings.Join(args.Strings("code_request"), "\n")
			prompt := fmt.Sprintf("You have been asked to write python code that satisfies the following request:\n\n%s\n\nThe code produced must be added to this existing code:\n\n%s",
				request, codeCells(nb))
			draft, err := d.Model.Complete(ctx, codeEditorSystemPrompt, prompt)
			if err != nil {
				return nil, fmt.Errorf("draft code: %w", err)
			}
			call.Draft = stripCodeFences(draft)
			return map[string]any{"generated_code": call.Draft}, nil
		}

		nb.Append(notebook.NewCodeCell(call.Draft, nil))
		if err := d.save(ctx, record, nb); err != nil {
			return nil, err
		}
		return map[string]any{
			"generated_code": call.Draft,
			"notebook":       name,
		}, nil
	}
}

func codeCells(nb *notebook.Notebook) string {
	var parts []string
	for _, cell := range nb.Cells {
		if cell.Type == notebook.CellTypeCode && strings.TrimSpace(cell.Source) != "" {
			parts = append(parts, cell.Source)
		}
	}
	return strings.Join(parts, "\n")
}

func stripCodeFences(code string) string {
	s := strings.TrimSpace(code)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```python")
		s = strings.TrimPrefix(s, "```")
		if end := strings.LastIndex(s, "```"); end >= 0 {
			s = s[:end]
		}
	}
	return strings.TrimSpace(s)
}
