package series

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"
)

// DefaultLayout matches timestamps such as "25/03/2013 00:00".
const DefaultLayout = "02/01/2006 15:04"

// ReadOption configures the CSV readers.
type ReadOption func(*readConfig)

type readConfig struct {
	layout   string
	location *time.Location
}

// WithLayout sets the time.Parse layout of the timestamp column.
func WithLayout(layout string) ReadOption {
	return func(c *readConfig) {
		if layout != "" {
			c.layout = layout
		}
	}
}

// WithLocation interprets timestamps in loc instead of UTC.
func WithLocation(loc *time.Location) ReadOption {
	return func(c *readConfig) {
		if loc != nil {
			c.location = loc
		}
	}
}

func newReadConfig(opts []ReadOption) readConfig {
	cfg := readConfig{layout: DefaultLayout, location: time.UTC}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// ReadModelOutputs reads a table whose first column is a timestamp and whose
// remaining columns each hold one model's output. The header row names the
// series.
func ReadModelOutputs(r io.Reader, opts ...ReadOption) ([]Series, error) {
	cfg := newReadConfig(opts)
	header, rows, err := readTable(r)
	if err != nil {
		return nil, err
	}
	if len(header) < 2 {
		return nil, fmt.Errorf("%w: expected a timestamp column and at least one model column, got %d columns", ErrParse, len(header))
	}

	out := make([]Series, len(header)-1)
	for i := range out {
		out[i].Name = strings.TrimSpace(header[i+1])
	}
	for line, row := range rows {
		ts, err := cfg.parseTime(row[0])
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: %v", ErrParse, line+2, err)
		}
		for i := range out {
			v, err := parseValue(cell(row, i+1))
			if err != nil {
				return nil, fmt.Errorf("%w: row %d column %q: %v", ErrParse, line+2, out[i].Name, err)
			}
			out[i].Times = append(out[i].Times, ts)
			out[i].Values = append(out[i].Values, v)
		}
	}
	return out, nil
}

// ReadObservations reads a two-column table of timestamp and observed value.
// Empty cells become NaN.
func ReadObservations(r io.Reader, opts ...ReadOption) (Series, error) {
	cfg := newReadConfig(opts)
	header, rows, err := readTable(r)
	if err != nil {
		return Series{}, err
	}
	if len(header) < 2 {
		return Series{}, fmt.Errorf("%w: expected timestamp and value columns, got %d columns", ErrParse, len(header))
	}

	s := Series{Name: strings.TrimSpace(header[1])}
	for line, row := range rows {
		ts, err := cfg.parseTime(row[0])
		if err != nil {
			return Series{}, fmt.Errorf("%w: row %d: %v", ErrParse, line+2, err)
		}
		v, err := parseValue(cell(row, 1))
		if err != nil {
			return Series{}, fmt.Errorf("%w: row %d: %v", ErrParse, line+2, err)
		}
		s.Times = append(s.Times, ts)
		s.Values = append(s.Values, v)
	}
	return s, nil
}

// ReadProfile reads simulated heads along a transect. The value is taken
// from the last column so both "head" and "x,head" layouts are accepted; a
// non-numeric first row is treated as a header.
func ReadProfile(r io.Reader) ([]float64, error) {
	cr := newCSVReader(r)
	var out []float64
	line := 0
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrParse, err)
		}
		line++
		if len(row) == 0 {
			continue
		}
		raw := strings.TrimSpace(row[len(row)-1])
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			if line == 1 {
				continue
			}
			return nil, fmt.Errorf("%w: row %d: %v", ErrParse, line, err)
		}
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: profile has no values", ErrParse)
	}
	return out, nil
}

func (c readConfig) parseTime(raw string) (time.Time, error) {
	return time.ParseInLocation(c.layout, strings.TrimSpace(raw), c.location)
}

func newCSVReader(r io.Reader) *csv.Reader {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	return cr
}

func readTable(r io.Reader) ([]string, [][]string, error) {
	records, err := newCSVReader(r).ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("%w: missing header row", ErrParse)
	}
	rows := records[1:]
	for i, row := range rows {
		if len(row) == 0 || strings.TrimSpace(row[0]) == "" {
			return nil, nil, fmt.Errorf("%w: row %d: missing timestamp", ErrParse, i+2)
		}
	}
	return records[0], rows, nil
}

func cell(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return row[i]
}

func parseValue(raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return math.NaN(), nil
	}
	return strconv.ParseFloat(raw, 64)
}
