package diet

import (
	"testing"

	"go.uber.org/zap"

	"gutcom/internal/community"
	"gutcom/internal/tables"
	"gutcom/pkg/gem"
)

// sampleModel builds a small diet-ready community model: two diet exchanges,
// the fecal side of the chain, a host-derived metabolite, a demand and a
// sink reaction, plus the community biomass reaction.
func sampleModel(t *testing.T) *gem.Model {
	t.Helper()
	m := gem.NewModel("samp")
	mets := []gem.Metabolite{
		{ID: "glc_D[d]", Compartment: gem.CompartmentDiet},
		{ID: "ac[d]", Compartment: gem.CompartmentDiet},
		{ID: "gchola[d]", Compartment: gem.CompartmentDiet},
		{ID: "ac[u]", Compartment: gem.CompartmentLumen},
		{ID: "ac[fe]", Compartment: gem.CompartmentFecal},
		{ID: "x[c]", Compartment: gem.CompartmentCytosol},
	}
	for _, met := range mets {
		if err := m.AddMetabolite(met); err != nil {
			t.Fatalf("AddMetabolite(%s): %v", met.ID, err)
		}
	}
	rxns := []gem.Reaction{
		{ID: "EX_glc_D[d]", Lower: -1000, Upper: 10000, Stoichiometry: map[string]float64{"glc_D[d]": -1}},
		{ID: "EX_ac[d]", Lower: -1000, Upper: 10000, Stoichiometry: map[string]float64{"ac[d]": -1}},
		{ID: "EX_gchola[d]", Lower: -1000, Upper: 10000, Stoichiometry: map[string]float64{"gchola[d]": -1}},
		{ID: "EX_ac[fe]", Lower: -1000, Upper: 10000, Stoichiometry: map[string]float64{"ac[fe]": -1}},
		{ID: "DUt_ac", Lower: 0, Upper: 10000, Stoichiometry: map[string]float64{"ac[d]": -1, "ac[u]": 1}},
		{ID: "UFEt_ac", Lower: 0, Upper: 10000, Stoichiometry: map[string]float64{"ac[u]": -1, "ac[fe]": 1}},
		{ID: "Org_DM_x", Lower: -5, Upper: 1000, Stoichiometry: map[string]float64{"x[c]": -1}},
		{ID: "Org_sink_x", Lower: -50, Upper: 1000, Stoichiometry: map[string]float64{"x[c]": -1}},
		{ID: community.CommunityBiomassID, Lower: 0, Upper: 10000, Stoichiometry: map[string]float64{"x[c]": -1}},
	}
	for _, r := range rxns {
		if err := m.AddReaction(r); err != nil {
			t.Fatalf("AddReaction(%s): %v", r.ID, err)
		}
	}
	return m
}

func TestApplyZeroesThenOverrides(t *testing.T) {
	m := sampleModel(t)
	table := tables.DietTable{"Diet_EX_glc_D[d]": {Lower: -10}}
	if err := Apply(m, table, Options{}, zap.NewNop()); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	glc, ok := m.Reaction("Diet_EX_glc_D[d]")
	if !ok {
		t.Fatalf("diet exchange not renamed: %v", m.ReactionIDs())
	}
	if glc.Lower != -10 {
		t.Fatalf("diet row not applied, lower = %g", glc.Lower)
	}
	// unlisted diet exchange stays closed
	ac, _ := m.Reaction("Diet_EX_ac[d]")
	if ac.Lower != 0 {
		t.Fatalf("unlisted diet exchange must be closed, lower = %g", ac.Lower)
	}
}

func TestApplyUpperBoundOverride(t *testing.T) {
	m := sampleModel(t)
	upper := 5.0
	table := tables.DietTable{"Diet_EX_glc_D[d]": {Lower: -10, Upper: &upper}}
	if err := Apply(m, table, Options{}, zap.NewNop()); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	glc, _ := m.Reaction("Diet_EX_glc_D[d]")
	if glc.Lower != -10 || glc.Upper != 5 {
		t.Fatalf("bounds = [%g,%g], want [-10,5]", glc.Lower, glc.Upper)
	}
}

func TestApplyHostMetaboliteFloor(t *testing.T) {
	m := sampleModel(t)
	if err := Apply(m, tables.DietTable{}, Options{}, zap.NewNop()); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	gchola, _ := m.Reaction("Diet_EX_gchola[d]")
	if gchola.Lower != -10 || gchola.Upper != 10000 {
		t.Fatalf("host metabolite bounds = [%g,%g], want [-10,10000]", gchola.Lower, gchola.Upper)
	}
}

func TestApplyHostFloorSkippedWhenDietListsIt(t *testing.T) {
	m := sampleModel(t)
	table := tables.DietTable{"Diet_EX_gchola[d]": {Lower: -2}}
	if err := Apply(m, table, Options{}, zap.NewNop()); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	gchola, _ := m.Reaction("Diet_EX_gchola[d]")
	if gchola.Lower != -2 {
		t.Fatalf("diet row must win over host floor, lower = %g", gchola.Lower)
	}
}

func TestApplyPhysiologicalBounds(t *testing.T) {
	m := sampleModel(t)
	if err := Apply(m, tables.DietTable{}, Options{}, zap.NewNop()); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	biomass, _ := m.Reaction(community.CommunityBiomassID)
	if biomass.Lower != 0.4 || biomass.Upper != 1.0 {
		t.Fatalf("communityBiomass bounds = [%g,%g], want [0.4,1]", biomass.Lower, biomass.Upper)
	}
	for _, id := range []string{"EX_ac[fe]", "DUt_ac", "UFEt_ac"} {
		rxn, _ := m.Reaction(id)
		if rxn.Upper != 1e6 {
			t.Errorf("%s upper = %g, want 1e6", id, rxn.Upper)
		}
	}
	dm, _ := m.Reaction("Org_DM_x")
	if dm.Lower != 0 {
		t.Errorf("demand reaction lower = %g, want 0", dm.Lower)
	}
	sink, _ := m.Reaction("Org_sink_x")
	if sink.Lower != -1 {
		t.Errorf("sink reaction lower = %g, want -1", sink.Lower)
	}
}
