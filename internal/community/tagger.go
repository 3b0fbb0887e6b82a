// Package community assembles per-organism metabolic networks into a single
// shared-compartment community model: organism tagging, inter-exchange
// coupling to the shared lumen, diet/fecal compartments, abundance pruning
// and the abundance-weighted community biomass reaction.
package community

import (
	"fmt"
	"strings"

	"gutcom/pkg/gem"
)

// Flux bound conventions (mmol/gDW/h) shared by the compartment builders.
var (
	exchangeBounds  = [2]float64{-1000, 10000}
	transportBounds = [2]float64{0, 10000}
	iexBounds       = [2]float64{-1000, 1000}
)

// TagOrganism relocates one organism's network into the community namespace:
// reaction ids gain the organism prefix, intracellular and periplasmic
// metabolites become {organism}_{base}[c|p], and extracellular metabolites
// move into the organism's private lumen pool {organism}_{base}[u]. It then
// creates the IEX reactions that couple the private pool to the shared
// general lumen metabolites. Tagging is idempotent: an already tagged model
// passes through unchanged.
func TagOrganism(m *gem.Model, organism string) error {
	if organism == "" {
		return fmt.Errorf("community: empty organism id")
	}
	prefix := organism + "_"

	// The organism no longer exchanges with an external environment; all
	// exchange happens through the community lumen. Only the biomass
	// exchange survives.
	for _, id := range m.ReactionIDs() {
		if strings.Contains(id, "EX_") && !strings.Contains(id, "IEX_") && !strings.Contains(id, "biomass") {
			m.RemoveReaction(id)
		}
	}

	for _, id := range m.ReactionIDs() {
		rxn, ok := m.Reaction(id)
		if !ok {
			continue
		}
		if !touchesSourceCompartments(rxn) {
			continue
		}
		if !strings.HasPrefix(id, prefix) {
			if err := m.RenameReaction(id, prefix+id); err != nil {
				return fmt.Errorf("tag reaction %s: %w", id, err)
			}
		}
		for metID := range rxn.Stoichiometry {
			if err := tagMetabolite(m, metID, prefix); err != nil {
				return err
			}
		}
	}

	if err := buildInterExchange(m, organism); err != nil {
		return err
	}
	return finalizeTagging(m, prefix)
}

func touchesSourceCompartments(rxn gem.Reaction) bool {
	for metID := range rxn.Stoichiometry {
		if gem.InCompartment(metID, gem.CompartmentCytosol) ||
			gem.InCompartment(metID, gem.CompartmentPeriplasm) ||
			gem.InCompartment(metID, gem.CompartmentExtracellular) {
			return true
		}
	}
	return false
}

func tagMetabolite(m *gem.Model, metID, prefix string) error {
	if strings.HasPrefix(metID, prefix) {
		return nil
	}
	base, comp := gem.SplitID(metID)
	switch comp {
	case gem.CompartmentCytosol, gem.CompartmentPeriplasm:
		return m.RenameMetabolite(metID, prefix+gem.JoinID(base, comp), comp)
	case gem.CompartmentExtracellular:
		// Private lumen pool: the compartment changes to the shared lumen
		// but the id keeps the organism prefix.
		return m.RenameMetabolite(metID, prefix+gem.JoinID(base, gem.CompartmentLumen), gem.CompartmentLumen)
	default:
		return nil
	}
}

// buildInterExchange adds, for every organism-private lumen metabolite, the
// general lumen metabolite (shared across organisms) and a reversible IEX
// reaction general[u] <=> private[u]. The IEX reaction is the sole coupling
// point between an organism and the community pool.
func buildInterExchange(m *gem.Model, organism string) error {
	prefix := organism + "_"
	for _, metID := range m.MetaboliteIDs() {
		if !gem.InCompartment(metID, gem.CompartmentLumen) || !strings.HasPrefix(metID, prefix) {
			continue
		}
		generalID := strings.TrimPrefix(metID, prefix)
		iexID := prefix + "IEX_" + generalID + "tr"
		if m.HasReaction(iexID) {
			continue
		}
		base, _ := gem.SplitID(generalID)
		m.EnsureMetabolite(gem.Metabolite{ID: generalID, Name: base, Compartment: gem.CompartmentLumen})
		err := m.AddReaction(gem.Reaction{
			ID:    iexID,
			Name:  organism + " inter-exchange",
			Lower: iexBounds[0],
			Upper: iexBounds[1],
			Stoichiometry: map[string]float64{
				generalID: -1,
				metID:     1,
			},
		})
		if err != nil {
			return fmt.Errorf("add IEX %s: %w", iexID, err)
		}
	}
	return nil
}

// finalizeTagging guarantees no reaction or intracellular/periplasmic
// metabolite escaped the tagging pass.
func finalizeTagging(m *gem.Model, prefix string) error {
	for _, id := range m.ReactionIDs() {
		if !strings.HasPrefix(id, prefix) {
			if err := m.RenameReaction(id, prefix+id); err != nil {
				return fmt.Errorf("finalize reaction %s: %w", id, err)
			}
		}
	}
	for _, metID := range m.MetaboliteIDs() {
		if strings.HasPrefix(metID, prefix) {
			continue
		}
		base, comp := gem.SplitID(metID)
		if comp != gem.CompartmentCytosol && comp != gem.CompartmentPeriplasm {
			continue
		}
		if err := m.RenameMetabolite(metID, prefix+gem.JoinID(base, comp), comp); err != nil {
			return fmt.Errorf("finalize metabolite %s: %w", metID, err)
		}
	}
	return nil
}
