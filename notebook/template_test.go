package notebook

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanLines(t *testing.T) {
	source := `
		area = {area}
		print(area)
	`
	assert.Equal(t, "area = {area}\nprint(area)", CleanLines(source))
}

func TestCleanLinesKeepsRelativeIndent(t *testing.T) {
	source := `
		def f():
		    return 1
	`
	assert.Equal(t, "def f():\n    return 1", CleanLines(source))
}

func TestCleanLinesEmpty(t *testing.T) {
	assert.Equal(t, "", CleanLines("\n\n  \n"))
}

func TestRender(t *testing.T) {
	source := `
		area = {area}
		init_time = '{init_time}'
	`
	got := Render(source, map[string]any{
		"area":      []float64{6.6, 35.4, 18.5, 47.1},
		"init_time": "2025-03-01",
	})
	assert.Equal(t, "area = [6.6, 35.4, 18.5, 47.1]\ninit_time = '2025-03-01'", got)
}

func TestRenderLeavesUnknownBracesAlone(t *testing.T) {
	source := "month = [f'{m:02d}' for m in range(1, 13)]"
	got := Render(source, map[string]any{"area": "x"})
	assert.Equal(t, source, got, "Python f-string braces survive substitution")
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "None", FormatValue(nil))
	assert.Equal(t, "True", FormatValue(true))
	assert.Equal(t, "False", FormatValue(false))
	assert.Equal(t, "plain", FormatValue("plain"))
	assert.Equal(t, "1.5", FormatValue(1.5))
	assert.Equal(t, "42", FormatValue(42))
	assert.Equal(t, "[1981, 2010]", FormatValue([]int{1981, 2010}))
	assert.Equal(t, "['2025-01', '2025-02']", FormatValue([]string{"2025-01", "2025-02"}))
	assert.Equal(t, "['a', 2]", FormatValue([]any{"a", 2}))
}

func TestRenderAll(t *testing.T) {
	nb := New()
	nb.Append(
		NewCodeCell("\n\t\timport xarray as xr\n\t\timport cdsapi\n", map[string]any{MetaCheckImport: true}),
		NewCodeCell("\n\t\tarea = {area}\n", map[string]any{MetaNeedFormat: true}),
		NewCodeCell("\n\t\tprint(area)\n", nil),
	)

	nb.RenderAll(map[string]any{"area": []float64{1, 2, 3, 4}})

	require.Len(t, nb.Cells, 3)
	assert.Equal(t, "import xarray as xr\nimport cdsapi", nb.Cells[0].Source)
	assert.Equal(t, "area = [1, 2, 3, 4]", nb.Cells[1].Source)
	assert.Equal(t, "print(area)", nb.Cells[2].Source)
}

func TestRenderAllDeduplicatesImports(t *testing.T) {
	nb := New()
	nb.Append(
		NewCodeCell("import xarray as xr\nimport cdsapi", map[string]any{MetaCheckImport: true}),
		NewCodeCell("body = 1", nil),
		NewCodeCell("import xarray as xr\nimport numpy as np", map[string]any{MetaCheckImport: true}),
	)

	nb.RenderAll(nil)

	require.Len(t, nb.Cells, 3)
	assert.Equal(t, "import numpy as np", nb.Cells[2].Source, "lines already imported earlier are dropped")
}

func TestRenderAllDropsEmptiedCells(t *testing.T) {
	nb := New()
	nb.Append(
		NewCodeCell("import xarray as xr", map[string]any{MetaCheckImport: true}),
		NewCodeCell("import xarray as xr", map[string]any{MetaCheckImport: true}),
		NewMarkdownCell("", nil),
	)

	nb.RenderAll(nil)

	require.Len(t, nb.Cells, 2, "a fully deduplicated dependency cell disappears")
	assert.Equal(t, CellTypeMarkdown, nb.Cells[1].Type, "empty markdown cells are kept")
}
