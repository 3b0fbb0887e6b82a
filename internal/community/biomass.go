package community

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"gutcom/internal/tables"
	"gutcom/pkg/gem"
)

// Abundance pairs an organism with its relative abundance in one sample.
type Abundance struct {
	Organism string
	Value    float64
}

// CommunityBiomassID is the abundance-weighted community growth reaction.
const CommunityBiomassID = "communityBiomass"

// BiomassObjectiveID is the fecal biomass export used as the objective for
// sample model construction and simulation.
const BiomassObjectiveID = "EX_microbeBiomass[fe]"

// ComposeBiomass replaces any pre-existing biomass reaction with the
// community biomass chain for one sample:
//
//	communityBiomass: Σ −abundance_i · {org_i}_biomass[c] → microbeBiomass[u]
//	UFEt_microbeBiomass: microbeBiomass[u] → microbeBiomass[fe]
//	EX_microbeBiomass[fe]: microbeBiomass[fe] <=>
//
// Organisms at or below the presence threshold contribute no term. An
// organism whose biomass metabolite is missing from the model is logged and
// omitted; this is a data-absence condition, not an error. The model
// objective is set to EX_microbeBiomass[fe].
func ComposeBiomass(m *gem.Model, abundances []Abundance, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}

	for _, id := range m.ReactionIDs() {
		if strings.Contains(id, "Biomass") {
			m.RemoveReaction(id)
		}
	}

	stoichiometry := make(map[string]float64)
	for _, a := range abundances {
		if a.Value <= tables.PresenceThreshold {
			continue
		}
		biomassMet := a.Organism + "_biomass[c]"
		if !m.HasMetabolite(biomassMet) {
			logger.Warn("biomass metabolite missing in model, omitting organism",
				zap.String("organism", a.Organism),
				zap.String("metabolite", biomassMet))
			continue
		}
		stoichiometry[biomassMet] = -a.Value
	}

	lumenMet := gem.JoinID("microbeBiomass", gem.CompartmentLumen)
	fecalMet := gem.JoinID("microbeBiomass", gem.CompartmentFecal)
	m.EnsureMetabolite(gem.Metabolite{ID: lumenMet, Name: "product of community biomass", Compartment: gem.CompartmentLumen})
	m.EnsureMetabolite(gem.Metabolite{ID: fecalMet, Name: "product of community biomass", Compartment: gem.CompartmentFecal})
	stoichiometry[lumenMet] = 1

	err := m.AddReaction(gem.Reaction{
		ID:            CommunityBiomassID,
		Name:          CommunityBiomassID,
		Lower:         0,
		Upper:         10000,
		Stoichiometry: stoichiometry,
	})
	if err != nil {
		return fmt.Errorf("add %s: %w", CommunityBiomassID, err)
	}

	err = m.AddReaction(gem.Reaction{
		ID:            BiomassObjectiveID,
		Name:          BiomassObjectiveID,
		Lower:         -10000,
		Upper:         10000,
		Stoichiometry: map[string]float64{fecalMet: -1},
	})
	if err != nil {
		return fmt.Errorf("add %s: %w", BiomassObjectiveID, err)
	}

	err = m.AddReaction(gem.Reaction{
		ID:    "UFEt_microbeBiomass",
		Name:  "UFEt_microbeBiomass",
		Lower: transportBounds[0],
		Upper: transportBounds[1],
		Stoichiometry: map[string]float64{
			lumenMet: -1,
			fecalMet: 1,
		},
	})
	if err != nil {
		return fmt.Errorf("add UFEt_microbeBiomass: %w", err)
	}

	return m.SetObjective(BiomassObjectiveID)
}
