package gasio

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

// compositionDoc is the JSON document wrapper for a composition.
type compositionDoc struct {
	Composition map[string]float64 `json:"composition"`
}

// ReadCompositionJSON decodes a composition document from r.
func ReadCompositionJSON(r io.Reader) (map[string]float64, error) {
	var doc compositionDoc
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("gasio: decode json: %w", err)
	}
	if doc.Composition == nil {
		return nil, fmt.Errorf("gasio: json document missing %q key", "composition")
	}
	return doc.Composition, nil
}

// WriteCompositionJSON encodes comp as a composition document to w.
func WriteCompositionJSON(w io.Writer, comp map[string]float64) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(compositionDoc{Composition: comp}); err != nil {
		return fmt.Errorf("gasio: encode json: %w", err)
	}
	return nil
}

// ReadCompositionCSV decodes a component,mole_fraction table from r. The
// header row is required; column order is fixed.
func ReadCompositionCSV(r io.Reader) (map[string]float64, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("gasio: read csv header: %w", err)
	}
	if len(header) < 2 || strings.TrimSpace(header[0]) != "component" || strings.TrimSpace(header[1]) != "mole_fraction" {
		return nil, fmt.Errorf("gasio: csv header %v, want component,mole_fraction", header)
	}

	comp := make(map[string]float64)
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("gasio: read csv line %d: %w", line, err)
		}
		name := strings.TrimSpace(row[0])
		z, err := strconv.ParseFloat(strings.TrimSpace(row[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("gasio: csv line %d: parse fraction for %q: %w", line, name, err)
		}
		comp[name] = z
	}
	if len(comp) == 0 {
		return nil, fmt.Errorf("gasio: csv contains no composition rows")
	}
	return comp, nil
}

// WriteCompositionCSV encodes comp as a component,mole_fraction table to w.
// Rows are sorted by component name for stable output.
func WriteCompositionCSV(w io.Writer, comp map[string]float64) error {
	names := make([]string, 0, len(comp))
	for name := range comp {
		names = append(names, name)
	}
	sort.Strings(names)

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"component", "mole_fraction"}); err != nil {
		return fmt.Errorf("gasio: write csv header: %w", err)
	}
	for _, name := range names {
		z := strconv.FormatFloat(comp[name], 'g', -1, 64)
		if err := cw.Write([]string{name, z}); err != nil {
			return fmt.Errorf("gasio: write csv row %q: %w", name, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("gasio: flush csv: %w", err)
	}
	return nil
}
