package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nexxia-ai/nimbus/graph"
)

const geocodeSystemPrompt = `You convert geographic area names into bounding box coordinates in the EPSG:4326 Coordinate Reference System. Respond only with the coordinates list [min_x, min_y, max_x, max_y] without any additional text or explanation.`

// areaInference geocodes a free-text area name into a bounding box through a
// nested model call. The substituted value is a guess, so the rule lowers
// the call's execution confirmation to force a human check before any side
// effect runs. A value that is already a bounding box passes through
// untouched.
func areaInference(d Deps) graph.InferenceRule {
	return graph.InferenceRule{
		Field:     "area",
		AlwaysRun: true,
		Infer: func(ctx context.Context, call *graph.ToolCallRequest, args graph.Args) (any, error) {
			if bbox := args.Floats("area"); bbox != nil {
				return bbox, nil
			}
			name := args.String("area")
			if name == "" {
				return nil, fmt.Errorf("area is required: provide a bounding box or a place name")
			}

			prompt := fmt.Sprintf("Please provide the bounding box coordinates for the area: %s with format [min_x, min_y, max_x, max_y].", name)
			answer, err := d.Model.Complete(ctx, geocodeSystemPrompt, prompt)
			if err != nil {
				return nil, fmt.Errorf("geocode %q: %w", name, err)
			}
			bbox, err := parseBBox(answer)
			if err != nil {
				return nil, fmt.Errorf("geocode %q: %w", name, err)
			}

			call.RequireConfirmation()
			return bbox, nil
		},
	}
}

// parseBBox extracts a four-number list from a model answer, tolerating code
// fences and Python tuple syntax.
func parseBBox(answer string) ([]float64, error) {
	s := strings.TrimSpace(answer)
	if idx := strings.Index(s, "```"); idx >= 0 {
		s = s[idx+3:]
		s = strings.TrimPrefix(s, "python")
		if end := strings.Index(s, "```"); end >= 0 {
			s = s[:end]
		}
	}
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "(", "[")
	s = strings.ReplaceAll(s, ")", "]")

	var bbox []float64
	if err := json.Unmarshal([]byte(s), &bbox); err != nil {
		return nil, fmt.Errorf("expected a coordinate list, got %q", answer)
	}
	if len(bbox) != 4 {
		return nil, fmt.Errorf("expected 4 coordinates, got %d", len(bbox))
	}
	return bbox, nil
}
