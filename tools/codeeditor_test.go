package tools

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexxia-ai/nimbus/ai"
	"github.com/nexxia-ai/nimbus/graph"
	"github.com/nexxia-ai/nimbus/notebook"
	"github.com/nexxia-ai/nimbus/store"
)

func seedNotebook(t *testing.T, d Deps, name string) {
	t.Helper()
	nb := notebook.New()
	nb.Append(notebook.NewCodeCell("import xarray as xr\nds = xr.open_zarr('data.zarr')", nil))
	source, err := nb.Encode()
	require.NoError(t, err)
	require.NoError(t, d.Store.SaveNotebook(userCtx(), &store.Notebook{
		Name:    name,
		Authors: []string{"user-1"},
		Source:  source,
	}))
}

func TestCodeEditorTwoPass(t *testing.T) {
	d := testDeps("")
	d.Model = ai.NewDummyModel(func(messages []ai.Message, tools []ai.Tool) ai.AIMessage {
		// The drafting prompt carries the notebook's existing code.
		_, content := messages[len(messages)-1].Value()
		assert.Contains(t, content, "xr.open_zarr")
		assert.Contains(t, content, "plot the data")
		return ai.AIMessage{Role: ai.AssistantRole, Content: "```python\nds['tp'].plot()\n```"}
	})
	seedNotebook(t, d, "analysis.ipynb")

	tool := NewCodeEditorTool(d)
	call := tool.NewCall("c1", graph.Args{
		"source":       "analysis.ipynb",
		"code_request": "Please plot the data.",
	})
	assert.False(t, call.OutputConfirmed)

	outcome, err := tool.Handle(userCtx(), call)
	require.NoError(t, err)
	require.NotNil(t, outcome.Interrupt)
	assert.Equal(t, graph.ConfirmOutput, outcome.Interrupt.Kind)
	assert.Contains(t, outcome.Interrupt.Prompt, "ds['tp'].plot()")
	assert.Equal(t, "ds['tp'].plot()", call.Draft, "code fences are stripped from the draft")

	// The draft is not persisted until confirmed.
	record, err := d.Store.NotebookByName(userCtx(), "user-1", "analysis.ipynb", true)
	require.NoError(t, err)
	nb, err := notebook.Decode(record.Source)
	require.NoError(t, err)
	assert.Len(t, nb.Cells, 1)

	require.NoError(t, tool.Resume(call, outcome.Interrupt, "yes"))
	outcome, err = tool.Handle(userCtx(), call)
	require.NoError(t, err)
	require.Nil(t, outcome.Interrupt)
	assert.Equal(t, "analysis.ipynb", outcome.Result["notebook"])

	record, err = d.Store.NotebookByName(userCtx(), "user-1", "analysis.ipynb", true)
	require.NoError(t, err)
	nb, err = notebook.Decode(record.Source)
	require.NoError(t, err)
	require.Len(t, nb.Cells, 2)
	assert.Equal(t, "ds['tp'].plot()", nb.Cells[1].Source)
}

func TestCodeEditorRejectedDraft(t *testing.T) {
	d := testDeps("")
	d.Model = ai.NewDummyModel(func(messages []ai.Message, tools []ai.Tool) ai.AIMessage {
		return ai.AIMessage{Role: ai.AssistantRole, Content: "print('hello')"}
	})
	seedNotebook(t, d, "analysis.ipynb")

	tool := NewCodeEditorTool(d)
	call := tool.NewCall("c1", graph.Args{
		"source":       "analysis.ipynb",
		"code_request": "Print a greeting.",
	})

	outcome, err := tool.Handle(userCtx(), call)
	require.NoError(t, err)
	require.NotNil(t, outcome.Interrupt)

	err = tool.Resume(call, outcome.Interrupt, "no")
	assert.ErrorIs(t, err, graph.ErrRejected)

	record, err := d.Store.NotebookByName(userCtx(), "user-1", "analysis.ipynb", true)
	require.NoError(t, err)
	nb, err := notebook.Decode(record.Source)
	require.NoError(t, err)
	assert.Len(t, nb.Cells, 1, "a rejected draft is never written")
}

func TestCodeEditorMissingNotebook(t *testing.T) {
	d := testDeps("")
	tool := NewCodeEditorTool(d)

	call := tool.NewCall("c1", graph.Args{
		"source":       "nope.ipynb",
		"code_request": "Anything.",
	})

	outcome, err := tool.Handle(userCtx(), call)
	require.NoError(t, err)
	require.NotNil(t, outcome.Interrupt)
	assert.Equal(t, graph.ValidationError, outcome.Interrupt.Kind)
	assert.Contains(t, outcome.Interrupt.Prompt, "nope.ipynb not found")
}

func TestCodeEditorRequiresNotebookSuffix(t *testing.T) {
	d := testDeps("")
	tool := NewCodeEditorTool(d)

	call := tool.NewCall("c1", graph.Args{
		"source":       "notes.txt",
		"code_request": "Anything.",
	})

	outcome, err := tool.Handle(userCtx(), call)
	require.NoError(t, err)
	require.NotNil(t, outcome.Interrupt)
	assert.Equal(t, graph.ValidationError, outcome.Interrupt.Kind)
	assert.Contains(t, outcome.Interrupt.Prompt, "Invalid source path")
}

func TestStripCodeFences(t *testing.T) {
	assert.Equal(t, "x = 1", stripCodeFences("```python\nx = 1\n```"))
	assert.Equal(t, "x = 1", stripCodeFences("```\nx = 1\n```"))
	assert.Equal(t, "x = 1", stripCodeFences("x = 1"))
	assert.Equal(t, "x = 1", stripCodeFences("  x = 1\n"))
}
