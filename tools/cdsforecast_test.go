package tools

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexxia-ai/nimbus/graph"
	"github.com/nexxia-ai/nimbus/notebook"
	"github.com/nexxia-ai/nimbus/store"
)

var testClock = time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC)

func testDeps(geocodeAnswer string) Deps {
	return Deps{
		Store: store.NewInMemoryStore(),
		Model: geocodeModel(geocodeAnswer),
		Now:   func() time.Time { return testClock },
	}
}

func userCtx() context.Context {
	return graph.WithUser(context.Background(), "user-1")
}

// A forecast request naming a region and omitting all dates: the bbox is
// geocoded, the dates default, and the substituted bbox forces a
// confirmation round before anything is written.
func TestForecastGeocodedRequest(t *testing.T) {
	d := testDeps("[6.6, 35.4, 18.5, 47.1]")
	tool := NewCDSForecastTool(d)

	call := tool.NewCall("c1", graph.Args{
		"forecast_variables": []any{"precipitation"},
		"area":               "Italy",
	})

	outcome, err := tool.Handle(userCtx(), call)
	require.NoError(t, err)
	require.NotNil(t, outcome.Interrupt)
	assert.Equal(t, graph.ConfirmExecution, outcome.Interrupt.Kind)

	pending := outcome.Interrupt.Pending
	assert.Equal(t, []float64{6.6, 35.4, 18.5, 47.1}, pending["area"])
	assert.Equal(t, []string{"total_precipitation"}, pending["forecast_variables"])
	assert.Equal(t, "2025-03-01", pending["init_time"])
	assert.Equal(t, "2025-04-01", pending["lead_time"])
	assert.Equal(t, "icisk-ai_cds-forecast_total_precipitation_2025-03-15T10-00-00.zarr", pending["zarr_output"])
	assert.Equal(t, "icisk-ai_cds-forecast_total_precipitation_2025-03-15T10-00-00.ipynb", pending["jupyter_notebook"])

	require.NoError(t, tool.Resume(call, outcome.Interrupt, "yes"))

	outcome, err = tool.Handle(userCtx(), call)
	require.NoError(t, err)
	require.Nil(t, outcome.Interrupt, "an approved bbox does not trigger a second geocode round")
	assert.Equal(t, "icisk-ai_cds-forecast_total_precipitation_2025-03-15T10-00-00.zarr", outcome.Result["data_source"])
	assert.Equal(t, "icisk-ai_cds-forecast_total_precipitation_2025-03-15T10-00-00.ipynb", outcome.Result["notebook"])

	record, err := d.Store.NotebookByName(userCtx(), "user-1", outcome.Result["notebook"].(string), true)
	require.NoError(t, err)
	assert.Contains(t, record.Authors, "user-1")
	assert.Contains(t, record.Authors, store.AdminAuthor)

	nb, err := notebook.Decode(record.Source)
	require.NoError(t, err)
	require.NotEmpty(t, nb.Cells)
	var rendered string
	for _, cell := range nb.Cells {
		rendered += cell.Source + "\n"
	}
	assert.Contains(t, rendered, "area = [6.6, 35.4, 18.5, 47.1]")
	assert.Contains(t, rendered, "init_time = '2025-03-01'")
	assert.NotContains(t, rendered, "{area}", "all placeholders are substituted")
}

func TestForecastExplicitBBoxSkipsConfirmation(t *testing.T) {
	d := testDeps("should not be called")
	tool := NewCDSForecastTool(d)

	call := tool.NewCall("c1", graph.Args{
		"forecast_variables": []any{"temperature"},
		"area":               []any{float64(12), float64(52), float64(14), float64(53)},
		"init_time":          "2025-02-01",
		"lead_time":          "2025-03-01",
	})

	outcome, err := tool.Handle(userCtx(), call)
	require.NoError(t, err)
	require.Nil(t, outcome.Interrupt)
	assert.NotEmpty(t, outcome.Result["data_source"])
}

func TestForecastValidationMessages(t *testing.T) {
	d := testDeps("[1, 2, 3, 4]")
	tool := NewCDSForecastTool(d)

	call := tool.NewCall("c1", graph.Args{
		"forecast_variables": []any{"wind"},
		"area":               []any{float64(1), float64(2)},
		"init_time":          "not-a-date",
		"jupyter_notebook":   "notes.txt",
	})

	outcome, err := tool.Handle(userCtx(), call)
	require.NoError(t, err)
	require.NotNil(t, outcome.Interrupt)
	assert.Equal(t, graph.ValidationError, outcome.Interrupt.Kind)
	assert.Contains(t, outcome.Interrupt.Prompt, "Invalid forecast variables")
	assert.Contains(t, outcome.Interrupt.Prompt, "Invalid area coordinates")
	assert.Contains(t, outcome.Interrupt.Prompt, "Invalid initialization time")
	assert.Contains(t, outcome.Interrupt.Prompt, "Invalid notebook path")
	assert.ElementsMatch(t, []string{"forecast_variables", "area", "init_time", "jupyter_notebook"}, outcome.Interrupt.Fields)
}

func TestForecastRejectsMultipleVariables(t *testing.T) {
	d := testDeps("[1, 2, 3, 4]")
	tool := NewCDSForecastTool(d)

	call := tool.NewCall("c1", graph.Args{
		"forecast_variables": []any{"temperature", "precipitation"},
		"area":               []any{float64(1), float64(2), float64(3), float64(4)},
	})

	outcome, err := tool.Handle(userCtx(), call)
	require.NoError(t, err)
	require.NotNil(t, outcome.Interrupt)
	assert.Contains(t, outcome.Interrupt.Prompt, "only one variable is supported")
}

func TestForecastRejectsFutureInitTime(t *testing.T) {
	d := testDeps("[1, 2, 3, 4]")
	tool := NewCDSForecastTool(d)

	call := tool.NewCall("c1", graph.Args{
		"forecast_variables": []any{"temperature"},
		"area":               []any{float64(1), float64(2), float64(3), float64(4)},
		"init_time":          "2025-06-01",
	})

	outcome, err := tool.Handle(userCtx(), call)
	require.NoError(t, err)
	require.NotNil(t, outcome.Interrupt)
	assert.Contains(t, outcome.Interrupt.Prompt, "Invalid initialization time: 2025-06-01")
}

func TestForecastRejectsLeadBeforeInit(t *testing.T) {
	d := testDeps("[1, 2, 3, 4]")
	tool := NewCDSForecastTool(d)

	call := tool.NewCall("c1", graph.Args{
		"forecast_variables": []any{"temperature"},
		"area":               []any{float64(1), float64(2), float64(3), float64(4)},
		"init_time":          "2025-02-01",
		"lead_time":          "2025-01-01",
	})

	outcome, err := tool.Handle(userCtx(), call)
	require.NoError(t, err)
	require.NotNil(t, outcome.Interrupt)
	assert.Contains(t, outcome.Interrupt.Prompt, "It should be after the init time")
}

func TestGeneratedName(t *testing.T) {
	got := generatedName("cds-forecast", "glofas", testClock, ".zarr")
	assert.Equal(t, "icisk-ai_cds-forecast_glofas_2025-03-15T10-00-00.zarr", got)

	got = generatedName("spi-calculation", "", testClock, ".ipynb")
	assert.Equal(t, "icisk-ai_spi-calculation_2025-03-15T10-00-00.ipynb", got)
}
