// Package report writes aligned series and skill scores in the tutorial's
// CSV layouts (ModelDataDaily.csv, SkillScores.csv) and as a text table.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"text/tabwriter"

	"github.com/okian/hydroskill/internal/domain/model"
	"github.com/okian/hydroskill/internal/domain/series"
	"github.com/okian/hydroskill/internal/domain/skill"
)

// DateLayout is the layout of the Date column, labelled [dd-mm-yyyy].
const DateLayout = "02-01-2006"

// NotAvailable replaces a score that could not be computed.
const NotAvailable = "n/a"

// WriteMergedDaily writes one row per aligned instant: the date, the
// observation and every prediction. The second row carries units, with
// units applied to every value column. Missing samples are left empty.
func WriteMergedDaily(w io.Writer, set series.Set, units string) error {
	cw := newWriter(w)

	header := make([]string, 0, len(set.Names)+2)
	header = append(header, "Date", "Observed")
	header = append(header, set.Names...)

	unitRow := make([]string, len(header))
	unitRow[0] = "[dd-mm-yyyy]"
	for i := 1; i < len(unitRow); i++ {
		unitRow[i] = "[" + units + "]"
	}

	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if err := cw.Write(unitRow); err != nil {
		return fmt.Errorf("write units: %w", err)
	}

	row := make([]string, len(header))
	for k, ts := range set.Times {
		row[0] = ts.Format(DateLayout)
		row[1] = formatValue(set.Observed[k])
		for i := range set.Predicted {
			row[i+2] = formatValue(set.Predicted[i][k])
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row %d: %w", k+1, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteSkillScores writes one row per statistic, in the order
// r, R_squared, NSE, RMSE, PBIAS, with one column per series.
func WriteSkillScores(w io.Writer, results []model.ScoredSeries) error {
	cw := newWriter(w)
	for _, row := range scoreTable(results) {
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write scores: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// FormatText writes the score table aligned in columns, followed by one line
// per failed score.
func FormatText(w io.Writer, results []model.ScoredSeries) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, row := range scoreTable(results) {
		for i, cell := range row {
			if i > 0 {
				if _, err := io.WriteString(tw, "\t"); err != nil {
					return err
				}
			}
			if _, err := io.WriteString(tw, cell); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(tw, "\n"); err != nil {
			return err
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	for _, res := range results {
		if !res.OK() {
			reason := res.Error
			if res.Err != nil {
				reason = res.Err.Error()
			}
			if _, err := fmt.Fprintf(w, "%s: %s\n", res.Name, reason); err != nil {
				return err
			}
			continue
		}
		for _, stat := range []skill.Statistic{skill.PearsonR, skill.PBIAS} {
			if err := res.Result.Err(stat); err != nil {
				if _, werr := fmt.Fprintf(w, "%s: %v\n", res.Name, err); werr != nil {
					return werr
				}
			}
		}
	}
	return nil
}

func scoreTable(results []model.ScoredSeries) [][]string {
	stats := skill.Statistics()
	rows := make([][]string, 0, len(stats)+1)

	header := make([]string, 0, len(results)+1)
	header = append(header, "Skill Score")
	for _, res := range results {
		header = append(header, res.Name)
	}
	rows = append(rows, header)

	for _, stat := range stats {
		row := make([]string, 0, len(results)+1)
		row = append(row, stat.Label())
		for _, res := range results {
			if !res.OK() {
				row = append(row, NotAvailable)
				continue
			}
			v, err := res.Result.Value(stat)
			if err != nil {
				row = append(row, NotAvailable)
				continue
			}
			row = append(row, formatValue(v))
		}
		rows = append(rows, row)
	}
	return rows
}

func newWriter(w io.Writer) *csv.Writer {
	cw := csv.NewWriter(w)
	cw.UseCRLF = false
	return cw
}

func formatValue(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}
