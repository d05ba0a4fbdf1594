// Package dataset reads the labelled training CSV.
package dataset

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/okian/heartrisk/internal/domain/classifier"
	"github.com/okian/heartrisk/internal/domain/patient"
)

// Dataset holds feature rows in training order and their binary labels.
type Dataset struct {
	Features [][]float64
	Labels   []int
}

// Len returns the number of rows.
func (d *Dataset) Len() int { return len(d.Labels) }

// Positives returns the number of rows labelled Positive.
func (d *Dataset) Positives() int {
	n := 0
	for _, l := range d.Labels {
		n += l
	}
	return n
}

// ReadFile opens path and parses it with Read.
func ReadFile(ctx context.Context, path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer func() { _ = f.Close() }()
	return Read(ctx, f)
}

// Read parses a CSV whose header names every column in
// patient.TrainingColumns plus patient.LabelColumn, in any order. Extra
// columns are ignored. Header matching is case-insensitive.
func Read(ctx context.Context, r io.Reader) (*Dataset, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrNoRows
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols, labelCol, err := locate(header)
	if err != nil {
		return nil, err
	}

	ds := &Dataset{}
	line := 1
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		row := make([]float64, patient.Dim)
		for i, c := range cols {
			v, err := strconv.ParseFloat(strings.TrimSpace(record[c]), 64)
			if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("%w: line %d column %q: %q", ErrBadValue, line, patient.TrainingColumns[i], record[c])
			}
			row[i] = v
		}
		label, err := ParseLabel(record[labelCol])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		ds.Features = append(ds.Features, row)
		ds.Labels = append(ds.Labels, label)
	}

	if ds.Len() == 0 {
		return nil, ErrNoRows
	}
	return ds, nil
}

func locate(header []string) ([]int, int, error) {
	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	cols := make([]int, patient.Dim)
	for i, name := range patient.TrainingColumns {
		c, ok := index[name]
		if !ok {
			return nil, 0, fmt.Errorf("%w %q", ErrMissingColumn, name)
		}
		cols[i] = c
	}
	labelCol, ok := index[patient.LabelColumn]
	if !ok {
		return nil, 0, fmt.Errorf("%w %q", ErrMissingColumn, patient.LabelColumn)
	}
	return cols, labelCol, nil
}

// ParseLabel maps the class column to 0/1. Accepted spellings:
// 1/0, positive/negative, true/false, yes/no.
func ParseLabel(s string) (int, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "1.0", "positive", "true", "yes":
		return classifier.Positive, nil
	case "0", "0.0", "negative", "false", "no":
		return classifier.Negative, nil
	default:
		return 0, fmt.Errorf("%w: class %q", ErrBadValue, s)
	}
}
