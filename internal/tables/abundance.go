// Package tables ingests the tabular pipeline inputs: the organism/sample
// relative-abundance matrix and the diet flux table.
package tables

import (
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"strconv"
)

// PresenceThreshold is the strict lower cutoff on relative abundance. An
// organism is present in a sample iff its abundance exceeds this value.
const PresenceThreshold = 1e-7

// AbundanceTable maps organisms (rows) and samples (columns) to relative
// abundance in [0,1].
type AbundanceTable struct {
	organisms []string
	samples   []string
	values    map[string]map[string]float64 // organism -> sample -> abundance
}

// LoadAbundance parses a CSV whose first column is the organism identifier
// and whose remaining column headers are sample identifiers.
func LoadAbundance(r io.Reader) (*AbundanceTable, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read abundance header: %w", err)
	}
	if len(header) < 2 {
		return nil, fmt.Errorf("abundance table needs at least one sample column, got %d columns", len(header))
	}
	t := &AbundanceTable{
		samples: append([]string(nil), header[1:]...),
		values:  make(map[string]map[string]float64),
	}
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read abundance line %d: %w", line, err)
		}
		organism := record[0]
		if organism == "" {
			return nil, fmt.Errorf("abundance line %d: empty organism id", line)
		}
		if _, dup := t.values[organism]; dup {
			return nil, fmt.Errorf("abundance line %d: duplicate organism %s", line, organism)
		}
		row := make(map[string]float64, len(t.samples))
		for i, sample := range t.samples {
			v, err := strconv.ParseFloat(record[i+1], 64)
			if err != nil {
				return nil, fmt.Errorf("abundance line %d, sample %s: %w", line, sample, err)
			}
			if v < 0 || v > 1 {
				return nil, fmt.Errorf("abundance line %d, sample %s: %g outside [0,1]", line, sample, v)
			}
			row[sample] = v
		}
		t.organisms = append(t.organisms, organism)
		t.values[organism] = row
	}
	if len(t.organisms) == 0 {
		return nil, fmt.Errorf("abundance table has no organism rows")
	}
	return t, nil
}

// Organisms returns organism ids in row order.
func (t *AbundanceTable) Organisms() []string {
	return append([]string(nil), t.organisms...)
}

// Samples returns sample ids in column order.
func (t *AbundanceTable) Samples() []string {
	return append([]string(nil), t.samples...)
}

// HasSample reports whether the sample column exists.
func (t *AbundanceTable) HasSample(sample string) bool {
	for _, s := range t.samples {
		if s == sample {
			return true
		}
	}
	return false
}

// Abundance returns the abundance of organism in sample (0 when unknown).
func (t *AbundanceTable) Abundance(organism, sample string) float64 {
	return t.values[organism][sample]
}

// Present returns the organisms whose abundance in sample strictly exceeds
// PresenceThreshold, in row order.
func (t *AbundanceTable) Present(sample string) []string {
	var out []string
	for _, org := range t.organisms {
		if t.values[org][sample] > PresenceThreshold {
			out = append(out, org)
		}
	}
	return out
}

// Absent returns the organisms at or below PresenceThreshold in sample, in
// row order. These are the prune targets for the sample model.
func (t *AbundanceTable) Absent(sample string) []string {
	var out []string
	for _, org := range t.organisms {
		if t.values[org][sample] <= PresenceThreshold {
			out = append(out, org)
		}
	}
	return out
}

var (
	identifierRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	nonWordRe    = regexp.MustCompile(`\W`)
	leadLetterRe = regexp.MustCompile(`^[A-Za-z]`)
)

// SanitizeSampleName rewrites a sample column header into a bare identifier:
// every non-word character becomes "_", and "sample_" is prefixed when the
// result does not start with a letter. Valid identifiers pass unchanged.
func SanitizeSampleName(name string) string {
	if identifierRe.MatchString(name) {
		return name
	}
	clean := nonWordRe.ReplaceAllString(name, "_")
	if !leadLetterRe.MatchString(clean) {
		clean = "sample_" + clean
	}
	return clean
}
