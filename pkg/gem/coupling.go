package gem

import (
	"errors"
	"fmt"
)

// Sense is the inequality direction of one coupling constraint row, using the
// single-letter encoding carried over from COBRA-style model containers.
type Sense byte

const (
	// SenseLE encodes row ≤ rhs.
	SenseLE Sense = 'L'
	// SenseGE encodes row ≥ rhs.
	SenseGE Sense = 'G'
	// SenseEQ encodes row = rhs.
	SenseEQ Sense = 'E'
)

// ErrMisaligned reports a coupling system referencing reactions that the
// paired model no longer contains. A misaligned system silently corrupts the
// optimization, so callers must treat this as fatal.
var ErrMisaligned = errors.New("gem: coupling system misaligned with model")

// CouplingSystem is a sparse linear inequality system over reaction fluxes.
// Row i states: sum over C[i] of coeff·flux  (DSense[i])  D[i].
// Columns are addressed by reaction id, which keeps row/column bookkeeping
// stable under per-sample pruning as long as every referenced id survives.
type CouplingSystem struct {
	C      []map[string]float64 `json:"c" msgpack:"c"`
	D      []float64            `json:"d" msgpack:"d"`
	DSense []Sense              `json:"dsense" msgpack:"dsense"`
	Ctrs   []string             `json:"ctrs" msgpack:"ctrs"`
}

// NewCouplingSystem returns an empty system.
func NewCouplingSystem() *CouplingSystem {
	return &CouplingSystem{}
}

// AddRow appends one constraint row.
func (s *CouplingSystem) AddRow(coeffs map[string]float64, rhs float64, sense Sense, label string) {
	s.C = append(s.C, cloneStoichiometry(coeffs))
	s.D = append(s.D, rhs)
	s.DSense = append(s.DSense, sense)
	s.Ctrs = append(s.Ctrs, label)
}

// Rows returns the number of constraint rows.
func (s *CouplingSystem) Rows() int { return len(s.C) }

// Validate checks the internal row bookkeeping: all four slices must have
// identical length.
func (s *CouplingSystem) Validate() error {
	n := len(s.C)
	if len(s.D) != n || len(s.DSense) != n || len(s.Ctrs) != n {
		return fmt.Errorf("gem: ragged coupling system (C=%d d=%d dsense=%d ctrs=%d)",
			len(s.C), len(s.D), len(s.DSense), len(s.Ctrs))
	}
	return nil
}

// CheckAlignment verifies that every reaction referenced by any row exists in
// the model. Returns ErrMisaligned (wrapped) on the first violation.
func (s *CouplingSystem) CheckAlignment(m *Model) error {
	if err := s.Validate(); err != nil {
		return err
	}
	for i, row := range s.C {
		for rxnID := range row {
			if !m.HasReaction(rxnID) {
				return fmt.Errorf("row %d (%s) references %s: %w", i, s.Ctrs[i], rxnID, ErrMisaligned)
			}
		}
	}
	return nil
}

// Copy returns a deep copy of the system.
func (s *CouplingSystem) Copy() *CouplingSystem {
	cp := &CouplingSystem{
		C:      make([]map[string]float64, len(s.C)),
		D:      append([]float64(nil), s.D...),
		DSense: append([]Sense(nil), s.DSense...),
		Ctrs:   append([]string(nil), s.Ctrs...),
	}
	for i, row := range s.C {
		cp.C[i] = cloneStoichiometry(row)
	}
	return cp
}
