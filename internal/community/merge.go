package community

import (
	"fmt"

	"gutcom/pkg/gem"
)

// MergeInto adds a tagged organism model into the growing community model.
// Metabolites already present (the shared general lumen pool) are kept as-is;
// reactions with duplicate ids are skipped.
func MergeInto(global, tagged *gem.Model) error {
	for _, met := range tagged.Metabolites() {
		global.EnsureMetabolite(met)
	}
	for _, rxn := range tagged.Reactions() {
		if global.HasReaction(rxn.ID) {
			continue
		}
		if err := global.AddReaction(rxn); err != nil {
			return fmt.Errorf("merge reaction %s: %w", rxn.ID, err)
		}
	}
	return nil
}

// ExtracellularMetabolites returns the ids of all [e] metabolites of a raw
// (untagged) organism model. The union across organisms defines the global
// exchange universe used during flux aggregation.
func ExtracellularMetabolites(m *gem.Model) []string {
	var out []string
	for _, metID := range m.MetaboliteIDs() {
		if gem.InCompartment(metID, gem.CompartmentExtracellular) {
			out = append(out, metID)
		}
	}
	return out
}
