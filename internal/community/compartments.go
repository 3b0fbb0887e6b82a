package community

import (
	"fmt"
	"sort"
	"strings"

	"gutcom/pkg/gem"
)

// AddDietFecalCompartments runs once after all organisms are merged. For
// every general lumen metabolite fed by an IEX reaction it installs the
// diet→lumen→fecal→exchange chain:
//
//	EX_ac[d]:  ac[d] <=>           (diet exchange)
//	DUt_ac:    ac[d] --> ac[u]     (diet to lumen transport)
//	UFEt_ac:   ac[u] --> ac[fe]    (lumen to fecal transport)
//	EX_ac[fe]: ac[fe] <=>          (fecal exchange)
//
// Leftover exchange artifacts from the source networks (ids containing
// "_EX_" or ending in "(e)") are removed first. Already present reactions
// and metabolites are skipped, so the builder is idempotent.
func AddDietFecalCompartments(m *gem.Model) error {
	for _, id := range m.ReactionIDs() {
		if strings.Contains(id, "_EX_") || strings.HasSuffix(id, "(e)") {
			m.RemoveReaction(id)
		}
	}

	for _, lumenMet := range generalLumenMetabolites(m) {
		base, _ := gem.SplitID(lumenMet)
		dietMet := gem.JoinID(base, gem.CompartmentDiet)
		fecalMet := gem.JoinID(base, gem.CompartmentFecal)

		if err := addExchange(m, dietMet, gem.CompartmentDiet, "diet"); err != nil {
			return err
		}
		if err := addTransport(m, "DUt_"+base, dietMet, lumenMet, "diet to lumen"); err != nil {
			return err
		}
		if err := addExchange(m, fecalMet, gem.CompartmentFecal, "fecal"); err != nil {
			return err
		}
		if err := addTransport(m, "UFEt_"+base, lumenMet, fecalMet, "lumen to fecal"); err != nil {
			return err
		}
	}
	return nil
}

// generalLumenMetabolites returns the shared (unprefixed) lumen metabolites,
// i.e. the reactant side of every IEX reaction, in lexical order.
func generalLumenMetabolites(m *gem.Model) []string {
	seen := make(map[string]struct{})
	for _, id := range m.ReactionIDs() {
		if !strings.Contains(id, "IEX") {
			continue
		}
		rxn, ok := m.Reaction(id)
		if !ok {
			continue
		}
		for metID, coeff := range rxn.Stoichiometry {
			if coeff < 0 && gem.InCompartment(metID, gem.CompartmentLumen) {
				seen[metID] = struct{}{}
			}
		}
	}
	out := make([]string, 0, len(seen))
	for metID := range seen {
		out = append(out, metID)
	}
	sort.Strings(out)
	return out
}

func addExchange(m *gem.Model, metID, compartment, label string) error {
	if m.HasMetabolite(metID) {
		return nil
	}
	base, _ := gem.SplitID(metID)
	m.EnsureMetabolite(gem.Metabolite{ID: metID, Name: base, Compartment: compartment})
	rxnID := "EX_" + metID
	if m.HasReaction(rxnID) {
		return nil
	}
	err := m.AddReaction(gem.Reaction{
		ID:            rxnID,
		Name:          metID + " " + label + " exchange",
		Lower:         exchangeBounds[0],
		Upper:         exchangeBounds[1],
		Stoichiometry: map[string]float64{metID: -1},
	})
	if err != nil {
		return fmt.Errorf("add exchange %s: %w", rxnID, err)
	}
	return nil
}

func addTransport(m *gem.Model, rxnID, fromMet, toMet, label string) error {
	if m.HasReaction(rxnID) {
		return nil
	}
	err := m.AddReaction(gem.Reaction{
		ID:    rxnID,
		Name:  rxnID + " " + label + " transport",
		Lower: transportBounds[0],
		Upper: transportBounds[1],
		Stoichiometry: map[string]float64{
			fromMet: -1,
			toMet:   1,
		},
	})
	if err != nil {
		return fmt.Errorf("add transport %s: %w", rxnID, err)
	}
	return nil
}
