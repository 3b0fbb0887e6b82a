package coupling

import (
	"fmt"
	"strings"

	"gutcom/pkg/gem"
)

// PruneBySample restricts the global coupling system to the organisms present
// in one sample. Rows referencing any reaction of an absent organism are
// dropped; surviving rows are renumbered contiguously. The pruned system is
// then checked against the pruned sample model: every reaction a surviving
// row references must exist in the model. A mismatch would silently corrupt
// the optimization, so it is returned as a fatal error (gem.ErrMisaligned).
func PruneBySample(global *gem.CouplingSystem, present []string, sample *gem.Model) (*gem.CouplingSystem, error) {
	if err := global.Validate(); err != nil {
		return nil, err
	}
	prefixes := make([]string, 0, len(present))
	for _, org := range present {
		prefixes = append(prefixes, org+"_")
	}

	pruned := gem.NewCouplingSystem()
	for i, row := range global.C {
		if !rowBelongsTo(row, prefixes) {
			continue
		}
		pruned.AddRow(row, global.D[i], global.DSense[i], global.Ctrs[i])
	}

	if err := pruned.CheckAlignment(sample); err != nil {
		return nil, fmt.Errorf("coupling: sample %s: %w", sample.ID(), err)
	}
	return pruned, nil
}

// rowBelongsTo reports whether every reaction in the row is owned by one of
// the present organisms.
func rowBelongsTo(row map[string]float64, prefixes []string) bool {
	for rxnID := range row {
		owned := false
		for _, prefix := range prefixes {
			if strings.HasPrefix(rxnID, prefix) {
				owned = true
				break
			}
		}
		if !owned {
			return false
		}
	}
	return true
}
