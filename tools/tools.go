// Package tools defines the notebook-building agent tools: CDS forecast and
// historic ingestion, SPI calculation over forecast and historic data, and
// the notebook code editor. Each tool is a graph.AgentTool with its
// validation and inference rules; execution assembles a notebook from cell
// templates and persists it through the store.
package tools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/nexxia-ai/nimbus/ai"
	"github.com/nexxia-ai/nimbus/graph"
	"github.com/nexxia-ai/nimbus/notebook"
	"github.com/nexxia-ai/nimbus/store"
)

// Tool names, also the router-visible function names.
const (
	CDSForecastToolName    = "cds_forecast_notebook_tool"
	CDSHistoricToolName    = "cds_historic_notebook_tool"
	SPICalculationToolName = "spi_calculation_notebook_tool"
	SPIHistoricToolName    = "spi_historic_notebook_tool"
	CodeEditorToolName     = "code_editor_tool"
)

// Subgraph family names.
const (
	CDSIngestorFamily    = "cds_ingestor_subgraph"
	SPICalculationFamily = "spi_calculation_subgraph"
	CodeEditorFamily     = "code_editor_subgraph"
)

// Deps carries the collaborators every tool shares. Now is injectable so
// tests can pin the clock that defaults and generated names depend on.
type Deps struct {
	Store store.Store
	Model *ai.Model
	Now   func() time.Time
}

func (d Deps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

// RegisterAll wires every notebook tool into the graph.
func RegisterAll(g *graph.Graph, deps Deps) {
	g.Register(CDSIngestorFamily, NewCDSForecastTool(deps))
	g.Register(CDSIngestorFamily, NewCDSHistoricTool(deps))
	g.Register(SPICalculationFamily, NewSPICalculationTool(deps))
	g.Register(SPICalculationFamily, NewSPIHistoricTool(deps))
	g.Register(CodeEditorFamily, NewCodeEditorTool(deps))
}

const dateLayout = "2006-01-02"
const monthLayout = "2006-01"

func validDate(s string) bool {
	_, err := time.Parse(dateLayout, s)
	return err == nil
}

func validMonth(s string) bool {
	_, err := time.Parse(monthLayout, s)
	return err == nil
}

func firstOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// generatedName builds the auto-assigned output file name:
// icisk-ai_<kind>[_<variable>]_<timestamp><ext>.
func generatedName(kind, variable string, now time.Time, ext string) string {
	stamp := strings.ReplaceAll(now.Format("2006-01-02T15:04:05"), ":", "-")
	if variable != "" {
		return fmt.Sprintf("icisk-ai_%s_%s_%s%s", kind, variable, stamp, ext)
	}
	return fmt.Sprintf("icisk-ai_%s_%s%s", kind, stamp, ext)
}

// loadOrCreate fetches the user's notebook by name, or starts a new record
// when none exists yet.
func (d Deps) loadOrCreate(ctx context.Context, name string) (*store.Notebook, *notebook.Notebook, error) {
	userID := graph.UserFrom(ctx)
	record, err := d.Store.NotebookByName(ctx, userID, name, true)
	if err == store.ErrNotFound {
		return &store.Notebook{Name: name, Authors: []string{userID}}, notebook.New(), nil
	}
	if err != nil {
		return nil, nil, err
	}
	nb, err := notebook.Decode(record.Source)
	if err != nil {
		return nil, nil, fmt.Errorf("notebook %s: %w", name, err)
	}
	return record, nb, nil
}

func (d Deps) save(ctx context.Context, record *store.Notebook, nb *notebook.Notebook) error {
	encoded, err := nb.Encode()
	if err != nil {
		return err
	}
	record.Source = encoded
	return d.Store.SaveNotebook(ctx, record)
}

// Shared validation rule builders. Messages follow the pattern the user sees
// in the consolidated validation interrupt.

func bboxRule(field string) graph.ValidationRule {
	return graph.ValidationRule{Field: field, Check: func(args graph.Args) string {
		list, isList := args[field].([]any)
		if !isList {
			return ""
		}
		if len(list) != 4 || args.Floats(field) == nil {
			return fmt.Sprintf("Invalid area coordinates: %v. It should be a list of 4 float values representing the bounding box [min_x, min_y, max_x, max_y].", args[field])
		}
		return ""
	}}
}

// Rules run only on present fields, so a wrong type is a failure, never a
// silent pass: a numeric date must not reach Execute.

func dateFormatRule(field, label string) graph.ValidationRule {
	return graph.ValidationRule{Field: field, Check: func(args graph.Args) string {
		s, ok := args[field].(string)
		if !ok || !validDate(s) {
			return fmt.Sprintf("Invalid %s: %v. It should be in the format YYYY-MM-DD.", label, args[field])
		}
		return ""
	}}
}

func suffixRule(field, suffix, label string) graph.ValidationRule {
	return graph.ValidationRule{Field: field, Check: func(args graph.Args) string {
		s, ok := args[field].(string)
		if !ok || !strings.HasSuffix(strings.ToLower(s), suffix) {
			return fmt.Sprintf("Invalid %s path: %v. It should be a valid %s file path.", label, args[field], strings.TrimPrefix(suffix, "."))
		}
		return ""
	}}
}

// monthOf truncates a YYYY-MM-DD date to its YYYY-MM month.
func monthOf(date string) string {
	if len(date) < len(monthLayout) {
		return date
	}
	return date[:len(monthLayout)]
}
