package tools

import (
	"context"
	"fmt"
	"time"

	"github.com/nexxia-ai/nimbus/graph"
)

// NewSPIHistoricTool builds a notebook that computes SPI over a historic
// time window instead of a month-based period of interest.
func NewSPIHistoricTool(d Deps) *graph.AgentTool {
	return &graph.AgentTool{
		Name: SPIHistoricToolName,
		Description: `Build a new Jupyter notebook for calculating the Standardized Precipitation Index (SPI) over historic data for a given region and past time window.
The tool uses the Climate Data Store (CDS) API to retrieve the necessary precipitation data.
Use this tool when the user asks for SPI over a specific historic date range.`,
		Schema: graph.ToolSchema{Fields: []graph.Field{
			{Name: "area", Type: "array", Required: true,
				Description: "The area of interest: a bounding box [min_x, min_y, max_x, max_y] in EPSG:4326, or the name of a country, continent or specific geographic area.",
				Examples:    []any{"Italy", []float64{12, 52, 14, 53}}},
			{Name: "reference_period", Type: "array",
				Description: "Start and end year of the reference period as two integers. Default is [1981, 2010].",
				Examples:    []any{[]int{1981, 2010}}},
			{Name: "start_time", Type: "string",
				Description: "The start date in UTC-0 YYYY-MM-DD. Defaults to the first day of the month two months ago."},
			{Name: "end_time", Type: "string",
				Description: "The end date in UTC-0 YYYY-MM-DD. Must be after start_time and in the past."},
			{Name: "jupyter_notebook", Type: "string",
				Description: "The path of the jupyter notebook that builds the SPI calculation. Auto-generated if omitted."},
		}},
		Validations: spiHistoricValidations(d),
		Inferences:  spiHistoricInferences(d),
		Execute:     spiHistoricExecute(d),
	}
}

func spiHistoricValidations(d Deps) []graph.ValidationRule {
	rules := []graph.ValidationRule{bboxRule("area")}
	rules = append(rules, referencePeriodRules(d)...)
	rules = append(rules,
		dateFormatRule("start_time", "start time"),
		pastMonthRule(d, "start_time", "start time"),
		dateFormatRule("end_time", "end time"),
		graph.ValidationRule{Field: "end_time", Check: func(args graph.Args) string {
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
		suffixRule("jupyter_notebook", ".ipynb", "notebook"),
	)
	return rules
}

func spiHistoricInferences(d Deps) []graph.InferenceRule {
	return []graph.InferenceRule{
		areaInference(d),
		{Field: "reference_period",
			Infer: func(ctx context.Context, call *graph.ToolCallRequest, args graph.Args) (any, error) {
				return []int{1981, 2010}, nil
			}},
		{Field: "start_time",
			Infer: func(ctx context.Context, call *graph.ToolCallRequest, args graph.Args) (any, error) {
				return firstOfMonth(d.now()).AddDate(0, -2, 0).Format(dateLayout), nil
			}},
		{Field: "end_time",
			Infer: func(ctx context.Context, call *graph.ToolCallRequest, args graph.Args) (any, error) {
				return firstOfMonth(d.now()).AddDate(0, -1, 0).Format(dateLayout), nil
			}},
		{Field: "jupyter_notebook",
			Infer: func(ctx context.Context, call *graph.ToolCallRequest, args graph.Args) (any, error) {
				return generatedName("spi-historic", "", d.now(), ".ipynb"), nil
			}},
	}
}

func spiHistoricExecute(d Deps) func(ctx context.Context, call *graph.ToolCallRequest, args graph.Args) (map[string]any, error) {
	return func(ctx context.Context, call *graph.ToolCallRequest, args graph.Args) (map[string]any, error) {
		notebookName := args.String("jupyter_notebook")

		record, nb, err := d.loadOrCreate(ctx, notebookName)
		if err != nil {
			return nil, err
		}
		nb.Append(spiHistoricCells()...)
		nb.RenderAll(map[string]any{
			"area":             args.Floats("area"),
			"reference_period": args.Ints("reference_period"),
			"period_of_interest": []string{
				monthOf(args.String("start_time")),
				monthOf(args.String("end_time")),
			},
			"start_time": args.String("start_time"),
			"end_time":   args.String("end_time"),
		})
		if err := d.save(ctx, record, nb); err != nil {
			return nil, err
		}

		return map[string]any{"notebook": notebookName}, nil
	}
}
