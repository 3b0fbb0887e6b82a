package tables

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// DietBound is one diet table row: a mandatory lower bound and an optional
// upper bound for a diet exchange reaction.
type DietBound struct {
	Lower float64
	Upper *float64
}

// DietTable maps diet exchange reaction ids to flux bounds.
type DietTable map[string]DietBound

// LoadDiet parses a CSV with columns: reaction id, lower bound, optional
// upper bound. An empty upper-bound cell leaves the model's bound untouched.
func LoadDiet(r io.Reader) (DietTable, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read diet header: %w", err)
	}
	if len(header) < 2 {
		return nil, fmt.Errorf("diet table needs at least reaction and lower bound columns")
	}
	table := make(DietTable)
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read diet line %d: %w", line, err)
		}
		rxn := strings.TrimSpace(record[0])
		if rxn == "" {
			return nil, fmt.Errorf("diet line %d: empty reaction id", line)
		}
		if len(record) < 2 {
			return nil, fmt.Errorf("diet line %d: missing lower bound", line)
		}
		lower, err := strconv.ParseFloat(strings.TrimSpace(record[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("diet line %d, lower bound: %w", line, err)
		}
		bound := DietBound{Lower: lower}
		if len(record) > 2 && strings.TrimSpace(record[2]) != "" {
			upper, err := strconv.ParseFloat(strings.TrimSpace(record[2]), 64)
			if err != nil {
				return nil, fmt.Errorf("diet line %d, upper bound: %w", line, err)
			}
			bound.Upper = &upper
		}
		table[rxn] = bound
	}
	return table, nil
}
