package tools

import (
	"context"
	"fmt"
	"time"

	"github.com/nexxia-ai/nimbus/graph"
)

// NewCDSForecastTool builds a notebook that ingests seasonal forecast data
// from the Climate Data Store and saves it in zarr format.
func NewCDSForecastTool(d Deps) *graph.AgentTool {
	return &graph.AgentTool{
		Name: CDSForecastToolName,
		Description: `Useful when the user wants to get forecast data from the Climate Data Store (CDS) API.
This tool builds a jupyter notebook that ingests forecast data for a specific region and time period and saves it in zarr format.
It uses the "Seasonal-Original-Single-Levels" dataset for temperature and precipitation forecasts and the "CEMS Early Warning Data Store" for river discharge (GloFAS) data.
It returns the path of the output zarr file and of the editable jupyter notebook that builds the ingest procedure.`,
		Schema: graph.ToolSchema{Fields: []graph.Field{
			{Name: "forecast_variables", Type: "array", Required: true,
				Description: "List of forecast variables to retrieve from the CDS API.",
				Examples:    []any{[]string{"total_precipitation"}, []string{"temperature"}, []string{"glofas"}}},
			{Name: "area", Type: "array", Required: true,
				Description: "The area of interest: a bounding box [min_x, min_y, max_x, max_y] in EPSG:4326, or the name of a country, continent or specific geographic area.",
				Examples:    []any{"Italy", "Continental Spain", []float64{12, 52, 14, 53}}},
			{Name: "init_time", Type: "string",
				Description: "The forecast initialization date in UTC-0 YYYY-MM-DD. Defaults to the first day of the current month."},
			{Name: "lead_time", Type: "string",
				Description: "The end date of the forecast lead time in UTC-0 YYYY-MM-DD. Defaults to the first day of the next month."},
			{Name: "zarr_output", Type: "string",
				Description: "The path of the output zarr file with the forecast data. Auto-generated if omitted."},
			{Name: "jupyter_notebook", Type: "string",
				Description: "The path of the jupyter notebook that builds the data ingest procedure. Auto-generated if omitted."},
		}},
		Validations: forecastValidations(d),
		Inferences:  forecastInferences(d),
		Execute:     forecastExecute(d),
	}
}

func forecastValidations(d Deps) []graph.ValidationRule {
	return []graph.ValidationRule{
		{Field: "forecast_variables", Check: func(args graph.Args) string {
			if vars := args.Strings("forecast_variables"); len(vars) > 1 {
				return fmt.Sprintf("Invalid forecast variables: %v. By now only one variable is supported.", vars)
			}
			return ""
		}},
		{Field: "forecast_variables", Check: func(args graph.Args) string {
			var unknown []string
			for _, v := range args.Strings("forecast_variables") {
				if _, ok := VariableFromAlias(v, ForecastVariables); !ok {
					unknown = append(unknown, v)
				}
			}
			if len(unknown) > 0 {
				return fmt.Sprintf("Invalid forecast variables: %v. It should be a list of valid CDS forecast variables: %v.", unknown, variableNames(ForecastVariables))
			}
			return ""
		}},
		bboxRule("area"),
		dateFormatRule("init_time", "initialization time"),
		{Field: "init_time", Check: func(args graph.Args) string {
			s := args.String("init_time")
			if s == "" || !validDate(s) {
				return ""
			}
			if t, _ := time.Parse(dateLayout, s); t.After(d.now()) {
				return fmt.Sprintf("Invalid initialization time: %s. It should be in the past, at least in the previous month.", s)
			}
			return ""
		}},
		dateFormatRule("lead_time", "lead time"),
		{Field: "lead_time", Check: func(args graph.Args) string {
			lead, init := args.String("lead_time"), args.String("init_time")
			if lead == "" || init == "" || !validDate(lead) || !validDate(init) {
				return ""
			}
			leadT, _ := time.Parse(dateLayout, lead)
			initT, _ := time.Parse(dateLayout, init)
			if leadT.Before(initT) {
				return fmt.Sprintf("Invalid lead time: %s. It should be after the init time.", lead)
			}
			return ""
		}},
		suffixRule("zarr_output", ".zarr", "output"),
		suffixRule("jupyter_notebook", ".ipynb", "notebook"),
	}
}

func forecastInferences(d Deps) []graph.InferenceRule {
	return []graph.InferenceRule{
		{Field: "forecast_variables", AlwaysRun: true,
			Infer: func(ctx context.Context, call *graph.ToolCallRequest, args graph.Args) (any, error) {
				return normalizeVariables(args.Strings("forecast_variables"), ForecastVariables)
			}},
		areaInference(d),
		{Field: "init_time",
			Infer: func(ctx context.Context, call *graph.ToolCallRequest, args graph.Args) (any, error) {
				return firstOfMonth(d.now()).Format(dateLayout), nil
			}},
		{Field: "lead_time",
			Infer: func(ctx context.Context, call *graph.ToolCallRequest, args graph.Args) (any, error) {
				return firstOfMonth(d.now()).AddDate(0, 1, 0).Format(dateLayout), nil
			}},
		{Field: "zarr_output",
			Infer: func(ctx context.Context, call *graph.ToolCallRequest, args graph.Args) (any, error) {
				return generatedName("cds-forecast", args.Strings("forecast_variables")[0], d.now(), ".zarr"), nil
			}},
		{Field: "jupyter_notebook",
			Infer: func(ctx context.Context, call *graph.ToolCallRequest, args graph.Args) (any, error) {
				return generatedName("cds-forecast", args.Strings("forecast_variables")[0], d.now(), ".ipynb"), nil
			}},
	}
}

func forecastExecute(d Deps) func(ctx context.Context, call *graph.ToolCallRequest, args graph.Args) (map[string]any, error) {
	return func(ctx context.Context, call *graph.ToolCallRequest, args graph.Args) (map[string]any, error) {
		variable, _ := VariableFromAlias(args.Strings("forecast_variables")[0], ForecastVariables)
		notebookName := args.String("jupyter_notebook")

		record, nb, err := d.loadOrCreate(ctx, notebookName)
		if err != nil {
			return nil, err
		}
		nb.Append(cdsForecastCells()...)
		nb.RenderAll(map[string]any{
			"forecast_variables": []string{variable.CDSName()},
			"area":               args.Floats("area"),
			"init_time":          args.String("init_time"),
			"lead_time":          args.String("lead_time"),
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

// normalizeVariables maps aliases onto canonical variable names. Validation
// runs first, so an unknown alias here is a schema gap.
func normalizeVariables(aliases []string, allowed []Variable) ([]string, error) {
	if len(aliases) == 0 {
		return nil, fmt.Errorf("at least one variable is required")
	}
	out := make([]string, len(aliases))
	for i, alias := range aliases {
		v, ok := VariableFromAlias(alias, allowed)
		if !ok {
			return nil, fmt.Errorf("%s is not a valid variable", alias)
		}
		out[i] = string(v)
	}
	return out, nil
}
