package graph

// Field describes one argument of a tool schema. Fields are declared in the
// order validation and inference must visit them, so later inference rules
// can depend on values produced for earlier fields.
type Field struct {
	Name        string
	Type        string // JSON schema type: "string", "array", "number", ...
	Description string
	Required    bool
	Examples    []any
}

// ToolSchema is the static per-tool argument description, defined at startup
// and immutable afterwards.
type ToolSchema struct {
	Fields []Field
}

// JSONSchema renders the schema in the shape providers expect for function
// calling.
func (s ToolSchema) JSONSchema() map[string]interface{} {
	properties := make(map[string]interface{}, len(s.Fields))
	var required []string
	for _, f := range s.Fields {
		prop := map[string]interface{}{
			"type":        f.Type,
			"description": f.Description,
		}
		if len(f.Examples) > 0 {
			prop["examples"] = f.Examples
		}
		properties[f.Name] = prop
		if f.Required {
			required = append(required, f.Name)
		}
	}
	schema := map[string]interface{}{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

func (s ToolSchema) FieldNames() []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}
