package notebook

import (
	"fmt"
	"strconv"
	"strings"
)

// CleanLines trims the leading and trailing blank lines of a cell template
// and removes the common indentation implied by the first line, so templates
// can be written as indented Go string literals.
func CleanLines(code string) string {
	lines := strings.Split(code, "\n")
	for len(lines) > 0 && strings.TrimSpace(lines[0]) == "" {
		lines = lines[1:]
	}
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	if len(lines) == 0 {
		return ""
	}
	indent := len(lines[0]) - len(strings.TrimLeft(lines[0], " \t"))
	for i, line := range lines {
		if len(line) >= indent {
			lines[i] = line[indent:]
		} else {
			lines[i] = strings.TrimLeft(line, " \t")
		}
	}
	return strings.Join(lines, "\n")
}

// Render substitutes {name} placeholders with the formatted parameter
// values and cleans the result. Strings substitute verbatim; slices render
// as Python-style lists so the emitted code stays valid.
func Render(source string, params map[string]any) string {
	for key, value := range params {
		source = strings.ReplaceAll(source, "{"+key+"}", FormatValue(value))
	}
	return CleanLines(source)
}

// FormatValue renders a parameter value as Python source text.
func FormatValue(value any) string {
	switch v := value.(type) {
	case nil:
		return "None"
	case string:
		return v
	case bool:
		if v {
			return "True"
		}
		return "False"
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case int:
		return strconv.Itoa(v)
	case []float64:
		parts := make([]string, len(v))
		for i, f := range v {
			parts[i] = strconv.FormatFloat(f, 'g', -1, 64)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case []int:
		parts := make([]string, len(v))
		for i, n := range v {
			parts[i] = strconv.Itoa(n)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case []string:
		parts := make([]string, len(v))
		for i, s := range v {
			parts[i] = "'" + s + "'"
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case []any:
		parts := make([]string, len(v))
		for i, item := range v {
			if s, ok := item.(string); ok {
				parts[i] = "'" + s + "'"
			} else {
				parts[i] = FormatValue(item)
			}
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return fmt.Sprintf("%v", v)
	}
}

// RenderAll applies Render to every cell flagged as needing format, then
// deduplicates dependency cells and drops code cells left empty.
func (nb *Notebook) RenderAll(params map[string]any) {
	for i, cell := range nb.Cells {
		if cell.Type != CellTypeCode && cell.Type != CellTypeMarkdown {
			continue
		}
		if cell.Meta(MetaNeedFormat) {
			nb.Cells[i].Source = Render(cell.Source, params)
		} else {
			nb.Cells[i].Source = CleanLines(cell.Source)
		}
	}
	nb.dedupImports()
	nb.dropEmptyCode()
}

// dedupImports removes from each dependency cell the lines already present
// in an earlier dependency cell, so re-applying a template to an existing
// notebook does not repeat its import block.
func (nb *Notebook) dedupImports() {
	seen := map[string]bool{}
	for i, cell := range nb.Cells {
		if !cell.Meta(MetaCheckImport) {
			continue
		}
		var kept []string
		for _, line := range strings.Split(cell.Source, "\n") {
			trimmed := strings.TrimSpace(line)
			if trimmed != "" && seen[trimmed] {
				continue
			}
			if trimmed != "" {
				seen[trimmed] = true
			}
			kept = append(kept, line)
		}
		nb.Cells[i].Source = strings.Join(kept, "\n")
	}
}

func (nb *Notebook) dropEmptyCode() {
	kept := nb.Cells[:0]
	for _, cell := range nb.Cells {
		if cell.Type == CellTypeCode && strings.TrimSpace(strings.ReplaceAll(cell.Source, "\n", "")) == "" {
			continue
		}
		kept = append(kept, cell)
	}
	nb.Cells = kept
}
