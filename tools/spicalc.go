package tools

import (
	"context"
	"fmt"
	"time"

	"github.com/nexxia-ai/nimbus/graph"
)

// NewSPICalculationTool builds a notebook that computes the Standardized
// Precipitation Index for a region over a period of interest.
func NewSPICalculationTool(d Deps) *graph.AgentTool {
	return &graph.AgentTool{
		Name: SPICalculationToolName,
		Description: `Build a new Jupyter notebook for calculating the Standardized Precipitation Index (SPI) for a given region and return the path where the notebook is saved.
The tool uses the Climate Data Store (CDS) API to retrieve the necessary data from the "ERA5-Land monthly averaged data from 1950 to present" dataset.
Use this tool when the user asks for help with SPI calculation, even if no region is provided.`,
		Schema: graph.ToolSchema{Fields: []graph.Field{
			{Name: "area", Type: "array", Required: true,
				Description: "The area of interest: a bounding box [min_x, min_y, max_x, max_y] in EPSG:4326, or the name of a country, continent or specific geographic area.",
				Examples:    []any{"Italy", "Alps", []float64{-5.5, 35.2, 5.58, 45.1}}},
			{Name: "reference_period", Type: "array",
				Description: "Start and end year of the reference period as two integers. Default is [1981, 2010].",
				Examples:    []any{[]int{1981, 2010}, []int{1990, 2000}}},
			{Name: "period_of_interest", Type: "array",
				Description: "Start and end month in YYYY-MM format of the period for which SPI is calculated. Defaults to the previous and current month.",
				Examples:    []any{[]string{"2025-01", "2025-02"}}},
			{Name: "jupyter_notebook", Type: "string",
				Description: "The path of the jupyter notebook that builds the SPI calculation. Auto-generated if omitted."},
		}},
		Validations: spiCalcValidations(d),
		Inferences:  spiCalcInferences(d),
		Execute:     spiCalcExecute(d),
	}
}

func spiCalcValidations(d Deps) []graph.ValidationRule {
	rules := []graph.ValidationRule{bboxRule("area")}
	rules = append(rules, referencePeriodRules(d)...)
	rules = append(rules,
		graph.ValidationRule{Field: "period_of_interest", Check: func(args graph.Args) string {
			if _, ok := periodElem(args, 0); !ok {
				return fmt.Sprintf("Invalid period_of_interest: %v. It should be a tuple of two elements representing the start and end month in YYYY-MM format.", args["period_of_interest"])
			}
			return ""
		}},
		graph.ValidationRule{Field: "period_of_interest", Check: func(args graph.Args) string {
			v, ok := periodElem(args, 0)
			if !ok {
				return ""
			}
			if start, isStr := v.(string); !isStr || !validMonth(start) {
				return fmt.Sprintf("Invalid start period_of_interest: %v. It should be in the format YYYY-MM.", v)
			}
			return ""
		}},
		graph.ValidationRule{Field: "period_of_interest", Check: func(args graph.Args) string {
			v, ok := periodElem(args, 1)
			if !ok {
				return ""
			}
			if end, isStr := v.(string); !isStr || !validMonth(end) {
				return fmt.Sprintf("Invalid end period_of_interest: %v. It should be in the format YYYY-MM.", v)
			}
			return ""
		}},
		graph.ValidationRule{Field: "period_of_interest", Check: func(args graph.Args) string {
			start, end, ok := args.Pair("period_of_interest")
			if !ok || !validMonth(start) || !validMonth(end) {
				return ""
			}
			startT, _ := time.Parse(monthLayout, start)
			endT, _ := time.Parse(monthLayout, end)
			if !endT.After(startT) {
				return fmt.Sprintf("Invalid end period_of_interest: %s. It should be greater than the start period_of_interest %s.", end, start)
			}
			return ""
		}},
		graph.ValidationRule{Field: "period_of_interest", Check: func(args graph.Args) string {
			_, end, ok := args.Pair("period_of_interest")
			if !ok || !validMonth(end) {
				return ""
			}
			endT, _ := time.Parse(monthLayout, end)
			if endT.After(d.now().AddDate(0, 6, 0)) {
				return fmt.Sprintf("Invalid period_of_interest: %v. It can't be more than six months in the future.", args["period_of_interest"])
			}
			return ""
		}},
		suffixRule("jupyter_notebook", ".ipynb", "notebook"),
	)
	return rules
}

// periodElem returns one element of the period_of_interest pair without
// coercing its type; ok is false when the value is not a two-element list.
// The month rules fail on non-string elements instead of skipping them.
func periodElem(args graph.Args, idx int) (any, bool) {
	switch v := args["period_of_interest"].(type) {
	case []any:
		if len(v) == 2 {
			return v[idx], true
		}
	case []string:
		if len(v) == 2 {
			return v[idx], true
		}
	}
	return nil, false
}

func referencePeriodRules(d Deps) []graph.ValidationRule {
	return []graph.ValidationRule{
		{Field: "reference_period", Check: func(args graph.Args) string {
			years := args.Ints("reference_period")
			if len(years) != 2 {
				return fmt.Sprintf("Invalid reference_period: %v. It should be a tuple of start and ending year as integers.", args["reference_period"])
			}
			return ""
		}},
		{Field: "reference_period", Check: func(args graph.Args) string {
			years := args.Ints("reference_period")
			if len(years) == 2 && years[1] > d.now().Year() {
				return fmt.Sprintf("Invalid reference_period: %v. It should be in the past, at least in the previous year.", args["reference_period"])
			}
			return ""
		}},
	}
}

func spiCalcInferences(d Deps) []graph.InferenceRule {
	return []graph.InferenceRule{
		areaInference(d),
		{Field: "reference_period",
			Infer: func(ctx context.Context, call *graph.ToolCallRequest, args graph.Args) (any, error) {
				return []int{1981, 2010}, nil
			}},
		{Field: "period_of_interest",
			Infer: func(ctx context.Context, call *graph.ToolCallRequest, args graph.Args) (any, error) {
				now := d.now()
				return []string{now.AddDate(0, -1, 0).Format(monthLayout), now.Format(monthLayout)}, nil
			}},
		{Field: "jupyter_notebook",
			Infer: func(ctx context.Context, call *graph.ToolCallRequest, args graph.Args) (any, error) {
				return generatedName("spi-calculation", "", d.now(), ".ipynb"), nil
			}},
	}
}

func spiCalcExecute(d Deps) func(ctx context.Context, call *graph.ToolCallRequest, args graph.Args) (map[string]any, error) {
	return func(ctx context.Context, call *graph.ToolCallRequest, args graph.Args) (map[string]any, error) {
		notebookName := args.String("jupyter_notebook")

		record, nb, err := d.loadOrCreate(ctx, notebookName)
		if err != nil {
			return nil, err
		}
		nb.Append(spiCells()...)
		start, end, _ := args.Pair("period_of_interest")
		nb.RenderAll(map[string]any{
			"area":               args.Floats("area"),
			"reference_period":   args.Ints("reference_period"),
			"period_of_interest": []string{start, end},
		})
		if err := d.save(ctx, record, nb); err != nil {
			return nil, err
		}

		return map[string]any{"notebook": notebookName}, nil
	}
}
