package lowrank

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"gonum.org/v1/gonum/mat"
)

var ErrEmptyMatrix = errors.New("lowrank: matrix has no rows")

// ReadMatrix parses a dense matrix from CSV. Every row must carry the
// same number of fields; the csv reader rejects ragged input.
func ReadMatrix(r io.Reader) (*mat.Dense, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("lowrank: reading matrix csv: %w", err)
	}
	if len(records) == 0 {
		return nil, ErrEmptyMatrix
	}

	rows, cols := len(records), len(records[0])
	data := make([]float64, 0, rows*cols)
	for i, record := range records {
		for j, field := range record {
			v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				return nil, fmt.Errorf("lowrank: row %d col %d: %w", i+1, j+1, err)
			}
			data = append(data, v)
		}
	}
	return mat.NewDense(rows, cols, data), nil
}

// WriteMatrix emits m as CSV, one row per line.
func WriteMatrix(w io.Writer, m mat.Matrix) error {
	rows, cols := m.Dims()
	writer := csv.NewWriter(w)
	record := make([]string, cols)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			record[j] = strconv.FormatFloat(m.At(i, j), 'g', -1, 64)
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("lowrank: writing matrix csv: %w", err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteCurveCSV emits one row per rank with the absolute error, the
// relative error and the singular value tail bound.
func WriteCurveCSV(w io.Writer, points []ErrorPoint) error {
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"k", "abs_error", "rel_error", "bound"}); err != nil {
		return fmt.Errorf("lowrank: writing curve csv: %w", err)
	}
	for _, pt := range points {
		record := []string{
			strconv.Itoa(pt.K),
			strconv.FormatFloat(pt.AbsError, 'e', 6, 64),
			strconv.FormatFloat(pt.RelError, 'e', 6, 64),
			strconv.FormatFloat(pt.Bound, 'e', 6, 64),
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("lowrank: writing curve csv: %w", err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteTable renders the curve as an aligned text table.
func WriteTable(w io.Writer, points []ErrorPoint) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "k\tabs error\trel error\ttail bound\t")
	for _, pt := range points {
		fmt.Fprintf(tw, "%d\t%.6e\t%.6e\t%.6e\t\n", pt.K, pt.AbsError, pt.RelError, pt.Bound)
	}
	return tw.Flush()
}
