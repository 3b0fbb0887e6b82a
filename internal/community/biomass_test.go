package community

import (
	"reflect"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestComposeBiomassWeightsByAbundance(t *testing.T) {
	m := communityModel(t, "A", "B", "C")

	abundances := []Abundance{
		{Organism: "A", Value: 0.6},
		{Organism: "B", Value: 0.3},
		{Organism: "C", Value: 0}, // below threshold, no term
	}
	if err := ComposeBiomass(m, abundances, zap.NewNop()); err != nil {
		t.Fatalf("ComposeBiomass: %v", err)
	}

	rxn, ok := m.Reaction(CommunityBiomassID)
	if !ok {
		t.Fatalf("communityBiomass missing")
	}
	want := map[string]float64{
		"A_biomass[c]":      -0.6,
		"B_biomass[c]":      -0.3,
		"microbeBiomass[u]": 1,
	}
	if !reflect.DeepEqual(rxn.Stoichiometry, want) {
		t.Fatalf("communityBiomass stoichiometry = %v, want %v", rxn.Stoichiometry, want)
	}
	if rxn.Lower != 0 || rxn.Upper != 10000 {
		t.Fatalf("communityBiomass bounds = [%g,%g]", rxn.Lower, rxn.Upper)
	}
	if m.ObjectiveID() != BiomassObjectiveID {
		t.Fatalf("objective = %s, want %s", m.ObjectiveID(), BiomassObjectiveID)
	}

	ex, _ := m.Reaction(BiomassObjectiveID)
	if ex.Lower != -10000 || ex.Upper != 10000 {
		t.Fatalf("%s bounds = [%g,%g]", BiomassObjectiveID, ex.Lower, ex.Upper)
	}
	ufet, ok := m.Reaction("UFEt_microbeBiomass")
	if !ok || ufet.Stoichiometry["microbeBiomass[u]"] != -1 || ufet.Stoichiometry["microbeBiomass[fe]"] != 1 {
		t.Fatalf("UFEt_microbeBiomass wrong: %v", ufet.Stoichiometry)
	}
}

func TestComposeBiomassOmitsMissingBiomassMetabolite(t *testing.T) {
	m := communityModel(t, "A")
	abundances := []Abundance{
		{Organism: "A", Value: 0.7},
		{Organism: "Ghost", Value: 0.2}, // listed but not in the model
	}
	if err := ComposeBiomass(m, abundances, zap.NewNop()); err != nil {
		t.Fatalf("ComposeBiomass: %v", err)
	}
	rxn, _ := m.Reaction(CommunityBiomassID)
	if _, ok := rxn.Stoichiometry["Ghost_biomass[c]"]; ok {
		t.Fatalf("missing organism must be omitted, got %v", rxn.Stoichiometry)
	}
	if rxn.Stoichiometry["A_biomass[c]"] != -0.7 {
		t.Fatalf("surviving organism term wrong: %v", rxn.Stoichiometry)
	}
}

func TestComposeBiomassReplacesPreviousBiomass(t *testing.T) {
	m := communityModel(t, "A")
	if err := ComposeBiomass(m, []Abundance{{Organism: "A", Value: 0.5}}, zap.NewNop()); err != nil {
		t.Fatalf("first ComposeBiomass: %v", err)
	}
	if err := ComposeBiomass(m, []Abundance{{Organism: "A", Value: 0.9}}, zap.NewNop()); err != nil {
		t.Fatalf("second ComposeBiomass: %v", err)
	}
	count := 0
	for _, id := range m.ReactionIDs() {
		if strings.Contains(id, "Biomass") {
			count++
		}
	}
	// communityBiomass, EX_microbeBiomass[fe], UFEt_microbeBiomass
	if count != 3 {
		t.Fatalf("expected exactly one biomass chain, found %d reactions", count)
	}
	rxn, _ := m.Reaction(CommunityBiomassID)
	if rxn.Stoichiometry["A_biomass[c]"] != -0.9 {
		t.Fatalf("stale biomass coefficient: %v", rxn.Stoichiometry)
	}
}
