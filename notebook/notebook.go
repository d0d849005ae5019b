// Package notebook models Jupyter notebooks as an ordered cell list with
// nbformat v4 serialization. The agent tools assemble notebooks from cell
// templates and persist them through the document store.
package notebook

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const (
	CellTypeCode     = "code"
	CellTypeMarkdown = "markdown"

	// MetaNeedFormat marks cells whose source contains {placeholder}
	// parameters to substitute.
	MetaNeedFormat = "need_format"

	// MetaCheckImport marks dependency cells whose import lines are
	// deduplicated against earlier dependency cells.
	MetaCheckImport = "check_import"
)

type Cell struct {
	Type     string
	Source   string
	Metadata map[string]any
}

func NewCodeCell(source string, metadata map[string]any) Cell {
	return Cell{Type: CellTypeCode, Source: source, Metadata: metadata}
}

func NewMarkdownCell(source string, metadata map[string]any) Cell {
	return Cell{Type: CellTypeMarkdown, Source: source, Metadata: metadata}
}

func (c Cell) Meta(key string) bool {
	if c.Metadata == nil {
		return false
	}
	v, ok := c.Metadata[key].(bool)
	return ok && v
}

type Notebook struct {
	Cells []Cell
}

func New() *Notebook {
	return &Notebook{}
}

func (nb *Notebook) Append(cells ...Cell) {
	nb.Cells = append(nb.Cells, cells...)
}

// ipynb wire format

type ipynbCell struct {
	ID       string         `json:"id"`
	CellType string         `json:"cell_type"`
	Metadata map[string]any `json:"metadata"`
	Source   string         `json:"source"`
}

// ipynbCodeCell adds the execution fields nbformat v4 requires on code
// cells and forbids elsewhere: outputs is always a list, execution_count
// is null until the cell has run.
type ipynbCodeCell struct {
	ipynbCell
	ExecutionCount *int  `json:"execution_count"`
	Outputs        []any `json:"outputs"`
}

type ipynbFile struct {
	Cells         []any          `json:"cells"`
	Metadata      map[string]any `json:"metadata"`
	NBFormat      int            `json:"nbformat"`
	NBFormatMinor int            `json:"nbformat_minor"`
}

// Encode serializes the notebook as nbformat v4 JSON.
func (nb *Notebook) Encode() ([]byte, error) {
	file := ipynbFile{
		Cells:         make([]any, 0, len(nb.Cells)),
		Metadata:      map[string]any{},
		NBFormat:      4,
		NBFormatMinor: 5,
	}
	for _, cell := range nb.Cells {
		metadata := cell.Metadata
		if metadata == nil {
			metadata = map[string]any{}
		}
		out := ipynbCell{
			ID:       uuid.NewString()[:8],
			CellType: cell.Type,
			Metadata: metadata,
			Source:   cell.Source,
		}
		if cell.Type == CellTypeCode {
			file.Cells = append(file.Cells, ipynbCodeCell{ipynbCell: out, Outputs: []any{}})
			continue
		}
		file.Cells = append(file.Cells, out)
	}
	return json.MarshalIndent(file, "", " ")
}

// Decode parses nbformat v4 JSON. Cell sources stored as line arrays are
// joined back into a single string.
func Decode(data []byte) (*Notebook, error) {
	var raw struct {
		Cells []struct {
			CellType string          `json:"cell_type"`
			Metadata map[string]any  `json:"metadata"`
			Source   json.RawMessage `json:"source"`
		} `json:"cells"`
		NBFormat int `json:"nbformat"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode notebook: %w", err)
	}
	if raw.NBFormat != 0 && raw.NBFormat != 4 {
		return nil, fmt.Errorf("unsupported nbformat %d", raw.NBFormat)
	}

	nb := New()
	for _, cell := range raw.Cells {
		source, err := decodeSource(cell.Source)
		if err != nil {
			return nil, err
		}
		nb.Append(Cell{Type: cell.CellType, Source: source, Metadata: cell.Metadata})
	}
	return nb, nil
}

func decodeSource(raw json.RawMessage) (string, error) {
	if len(raw) == 0 {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	var lines []string
	if err := json.Unmarshal(raw, &lines); err != nil {
		return "", fmt.Errorf("decode cell source: %w", err)
	}
	return strings.Join(lines, ""), nil
}
