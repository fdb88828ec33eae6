// Package dataset loads the precomputed client feature table and serves
// read-only row lookups plus the population statistics behind the comparison
// view. The table is loaded once per process and never mutated afterward.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"

	"github.com/rs/zerolog/log"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

const (
	// IDColumn keys the table; it is stripped before scoring.
	IDColumn = "SK_ID_CURR"
	// LabelColumn is the training label; it is stripped before scoring.
	LabelColumn = "TARGET"
)

// Row is one client's record: every numeric column parsed (NaN for missing
// or non-numeric values) plus the raw strings for categorical columns.
type Row struct {
	ID     int64
	Values map[string]float64
	Raw    map[string]string
}

// Features returns the row's numeric values with the identifier and label
// columns stripped, ready for the preprocessing transform.
func (r Row) Features() map[string]float64 {
	out := make(map[string]float64, len(r.Values))
	for name, v := range r.Values {
		if name == IDColumn || name == LabelColumn {
			continue
		}
		out[name] = v
	}
	return out
}

// Table is the loaded dataset, keyed by client identifier.
type Table struct {
	columns []string
	rows    map[int64]Row
	order   []int64
}

// Load reads a CSV feature table. The source data is ISO-8859-1 encoded;
// infinities are normalized to NaN so downstream imputation treats them as
// missing.
func Load(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(transform.NewReader(f, charmap.ISO8859_1.NewDecoder()))
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read dataset header: %w", err)
	}

	idIdx := -1
	for i, col := range header {
		if col == IDColumn {
			idIdx = i
			break
		}
	}
	if idIdx < 0 {
		return nil, fmt.Errorf("dataset %s has no %s column", path, IDColumn)
	}

	t := &Table{
		columns: header,
		rows:    make(map[int64]Row),
	}

	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			// A malformed record must not end the load; everything after it
			// would silently vanish.
			log.Warn().Int("line", parseErr.Line).Err(err).Msg("dataset row is malformed, skipping")
			line = parseErr.Line
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read dataset %s: %w", path, err)
		}
		line++

		if idIdx >= len(record) {
			log.Warn().Int("line", line).Msg("dataset row too short, skipping")
			continue
		}
		id, err := strconv.ParseInt(record[idIdx], 10, 64)
		if err != nil {
			log.Warn().Int("line", line).Str("id", record[idIdx]).Msg("dataset row has non-integer client id, skipping")
			continue
		}

		row := Row{
			ID:     id,
			Values: make(map[string]float64, len(header)),
			Raw:    make(map[string]string, len(header)),
		}
		for i, col := range header {
			if i >= len(record) {
				row.Values[col] = math.NaN()
				continue
			}
			row.Raw[col] = record[i]
			row.Values[col] = parseNumeric(record[i])
		}

		if _, dup := t.rows[id]; !dup {
			t.order = append(t.order, id)
		}
		t.rows[id] = row
	}

	log.Info().Str("path", path).Int("clients", len(t.rows)).Int("columns", len(header)).Msg("dataset loaded")
	return t, nil
}

func parseNumeric(s string) float64 {
	if s == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(v, 0) {
		return math.NaN()
	}
	return v
}

// Columns returns the header in file order.
func (t *Table) Columns() []string {
	return t.columns
}

// ClientIDs returns every client identifier in file order.
func (t *Table) ClientIDs() []int64 {
	return t.order
}

// HasColumn reports whether the dataset carries the named column.
func (t *Table) HasColumn(name string) bool {
	for _, col := range t.columns {
		if col == name {
			return true
		}
	}
	return false
}

// Client looks up one row by identifier.
func (t *Table) Client(id int64) (Row, bool) {
	row, ok := t.rows[id]
	return row, ok
}

// Histogram describes the population distribution of one numeric feature as
// equal-width bins over the observed (non-missing) range.
type Histogram struct {
	Feature    string    `json:"feature"`
	LeftEdges  []float64 `json:"edges_left"`
	RightEdges []float64 `json:"edges_right"`
	Counts     []int     `json:"counts"`
}

// FeatureHistogram bins the non-missing population values of a feature.
func (t *Table) FeatureHistogram(feature string, bins int) (Histogram, error) {
	if bins <= 0 {
		return Histogram{}, fmt.Errorf("histogram bins must be positive, got %d", bins)
	}
	if !t.HasColumn(feature) {
		return Histogram{}, fmt.Errorf("unknown feature %s", feature)
	}

	var values []float64
	for _, id := range t.order {
		v := t.rows[id].Values[feature]
		if !math.IsNaN(v) {
			values = append(values, v)
		}
	}
	if len(values) == 0 {
		return Histogram{}, fmt.Errorf("feature %s has no numeric values", feature)
	}

	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if lo == hi {
		hi = lo + 1 // single-valued feature still gets one meaningful bin
	}

	h := Histogram{
		Feature:    feature,
		LeftEdges:  make([]float64, bins),
		RightEdges: make([]float64, bins),
		Counts:     make([]int, bins),
	}
	width := (hi - lo) / float64(bins)
	for i := 0; i < bins; i++ {
		h.LeftEdges[i] = lo + float64(i)*width
		h.RightEdges[i] = lo + float64(i+1)*width
	}
	for _, v := range values {
		idx := int((v - lo) / width)
		if idx >= bins {
			idx = bins - 1
		}
		h.Counts[idx]++
	}
	return h, nil
}
