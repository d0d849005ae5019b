package tools

import (
	"context"
	"fmt"
	"time"

	"github.com/nexxia-ai/nimbus/graph"
)

// NewCDSHistoricTool builds a notebook that ingests ERA5 hourly reanalysis
// data from the Climate Data Store.
func NewCDSHistoricTool(d Deps) *graph.AgentTool {
	return &graph.AgentTool{
		Name: CDSHistoricToolName,
		Description: `Useful when the user wants historic (reanalysis) climate data from the Climate Data Store (CDS) API.
This tool builds a jupyter notebook that ingests ERA5 hourly data for a specific region and past time period and saves it in zarr format.
It returns the path of the output zarr file and of the editable jupyter notebook that builds the ingest procedure.`,
		Schema: graph.ToolSchema{Fields: []graph.Field{
			{Name: "historic_variables", Type: "array", Required: true,
				Description: "List of historic variables to retrieve from the CDS API.",
				Examples:    []any{[]string{"total_precipitation"}, []string{"temperature"}}},
			{Name: "area", Type: "array", Required: true,
				Description: "The area of interest: a bounding box [min_x, min_y, max_x, max_y] in EPSG:4326, or the name of a country, continent or specific geographic area.",
				Examples:    []any{"Italy", []float64{12, 52, 14, 53}}},
			{Name: "start_time", Type: "string",
				Description: "The start date in UTC-0 YYYY-MM-DD. Defaults to the first day of the month two months ago."},
			{Name: "end_time", Type: "string",
				Description: "The end date in UTC-0 YYYY-MM-DD. Must be after start_time. Defaults to the first day of the previous month."},
			{Name: "zarr_output", Type: "string",
				Description: "The path of the output zarr file with the historic data. Auto-generated if omitted."},
			{Name: "jupyter_notebook", Type: "string",
				Description: "The path of the jupyter notebook that builds the data ingest procedure. Auto-generated if omitted."},
		}},
		Validations: historicValidations(d),
		Inferences:  historicInferences(d),
		Execute:     historicExecute(d),
	}
}

func historicValidations(d Deps) []graph.ValidationRule {
	return []graph.ValidationRule{
		{Field: "historic_variables", Check: func(args graph.Args) string {
			if vars := args.Strings("historic_variables"); len(vars) > 1 {
				return fmt.Sprintf("Invalid historic variables: %v. By now only one variable is supported.", vars)
			}
			return ""
		}},
		{Field: "historic_variables", Check: func(args graph.Args) string {
			var unknown []string
			for _, v := range args.Strings("historic_variables") {
				if _, ok := VariableFromAlias(v, HistoricVariables); !ok {
					unknown = append(unknown, v)
				}
			}
			if len(unknown) > 0 {
				return fmt.Sprintf("Invalid historic variables: %v. It should be a list of valid CDS historic variables: %v.", unknown, variableNames(HistoricVariables))
			}
			return ""
		}},
		bboxRule("area"),
		dateFormatRule("start_time", "start time"),
		pastMonthRule(d, "start_time", "start time"),
		dateFormatRule("end_time", "end time"),
		{Field: "end_time", Check: func(args graph.Args) string {
			start, end := args.String("start_time"), args.String("end_time")
			if start == "" || end == "" || !validDate(start) || !validDate(end) {
				return ""
			}
			startT, _ := time.Parse(dateLayout, start)
			endT, _ := time.Parse(dateLayout, end)
			if endT.Before(startT) {
				return fmt.Sprintf("Invalid end time: %s. It should be after the start time.", end)
			}
			return ""
		}},
		pastMonthRule(d, "end_time", "end time"),
		suffixRule("zarr_output", ".zarr", "output"),
		suffixRule("jupyter_notebook", ".ipynb", "notebook"),
	}
}

// pastMonthRule rejects dates past the first day of the current month; the
// reanalysis datasets lag by about a month.
func pastMonthRule(d Deps, field, label string) graph.ValidationRule {
	return graph.ValidationRule{Field: field, Check: func(args graph.Args) string {
		s := args.String(field)
		if s == "" || !validDate(s) {
			return ""
		}
		if t, _ := time.Parse(dateLayout, s); t.After(firstOfMonth(d.now())) {
			return fmt.Sprintf("Invalid %s: %s. It should be in the past, at least in the previous month.", label, s)
		}
		return ""
	}}
}

func historicInferences(d Deps) []graph.InferenceRule {
	return []graph.InferenceRule{
		{Field: "historic_variables", AlwaysRun: true,
			Infer: func(ctx context.Context, call *graph.ToolCallRequest, args graph.Args) (any, error) {
				return normalizeVariables(args.Strings("historic_variables"), HistoricVariables)
			}},
		areaInference(d),
		{Field: "start_time",
			Infer: func(ctx context.Context, call *graph.ToolCallRequest, args graph.Args) (any, error) {
				return firstOfMonth(d.now()).AddDate(0, -2, 0).Format(dateLayout), nil
			}},
		{Field: "end_time",
			Infer: func(ctx context.Context, call *graph.ToolCallRequest, args graph.Args) (any, error) {
				return firstOfMonth(d.now()).AddDate(0, -1, 0).Format(dateLayout), nil
			}},
		{Field: "zarr_output",
			Infer: func(ctx context.Context, call *graph.ToolCallRequest, args graph.Args) (any, error) {
				return generatedName("cds-historic", args.Strings("historic_variables")[0], d.now(), ".zarr"), nil
			}},
		{Field: "jupyter_notebook",
			Infer: func(ctx context.Context, call *graph.ToolCallRequest, args graph.Args) (any, error) {
				return generatedName("cds-historic", args.Strings("historic_variables")[0], d.now(), ".ipynb"), nil
			}},
	}
}

func historicExecute(d Deps) func(ctx context.Context, call *graph.ToolCallRequest, args graph.Args) (map[string]any, error) {
	return func(ctx context.Context, call *graph.ToolCallRequest, args graph.Args) (map[string]any, error) {
		variable, _ := VariableFromAlias(args.Strings("historic_variables")[0], HistoricVariables)
		notebookName := args.String("jupyter_notebook")

		record, nb, err := d.loadOrCreate(ctx, notebookName)
		if err != nil {
			return nil, err
		}
		nb.Append(cdsHistoricCells()...)
		nb.RenderAll(map[string]any{
			"historic_variables": []string{variable.CDSName()},
			"area":               args.Floats("area"),
			"start_time":         args.String("start_time"),
			"end_time":           args.String("end_time"),
			"zarr_output":        args.String("zarr_output"),
			"cds_varname":        variable.CDSName(),
			"icisk_varname":      variable.ShortName(),
		})
		if err := d.save(ctx, record, nb); err != nil {
			return nil, err
		}

		return map[string]any{
			"data_source": args.String("zarr_output"),
			"notebook":    notebookName,
		}, nil
	}
}
