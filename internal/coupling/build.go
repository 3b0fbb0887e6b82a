// Package coupling builds the global linear-inequality system that ties each
// organism's reaction fluxes to that organism's biomass flux, and restricts
// it to the organisms surviving in a given sample. Without these constraints
// an organism could carry flux without growing, which the community biomass
// objective would never penalize.
package coupling

import (
	"sort"
	"strings"

	"go.uber.org/zap"

	"gutcom/pkg/gem"
)

// DefaultFactor is the conventional coupling coefficient linking a reaction
// flux to its organism's biomass flux. It is a modeling convention inherited
// from prior community-modeling tooling, not derived here; override it via
// configuration when the upstream convention changes.
const DefaultFactor = 400.0

// BuildGlobal creates one constraint row per non-biomass reaction of every
// organism: flux_rxn − factor·flux_biomass ≤ 0. Organisms without a biomass
// reaction are logged and skipped (their reactions stay unconstrained).
func BuildGlobal(m *gem.Model, organisms []string, factor float64, logger *zap.Logger) *gem.CouplingSystem {
	if logger == nil {
		logger = zap.NewNop()
	}
	if factor == 0 {
		factor = DefaultFactor
	}
	sys := gem.NewCouplingSystem()
	for _, organism := range organisms {
		prefix := organism + "_"
		rxns := organismReactions(m, prefix)
		biomass := findBiomassReaction(rxns)
		if biomass == "" {
			logger.Warn("organism has no biomass reaction, skipping coupling rows",
				zap.String("organism", organism))
			continue
		}
		for _, rxnID := range rxns {
			if rxnID == biomass {
				continue
			}
			sys.AddRow(map[string]float64{
				rxnID:   1,
				biomass: -factor,
			}, 0, gem.SenseLE, "slack_"+rxnID)
		}
	}
	return sys
}

func organismReactions(m *gem.Model, prefix string) []string {
	var out []string
	for _, id := range m.ReactionIDs() {
		if strings.HasPrefix(id, prefix) {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

// findBiomassReaction picks the organism's growth reaction: the first id
// containing "biomass" that is neither an exchange nor an inter-exchange.
func findBiomassReaction(rxnIDs []string) string {
	for _, id := range rxnIDs {
		if strings.Contains(id, "EX_") {
			continue
		}
		if strings.Contains(strings.ToLower(id), "biomass") {
			return id
		}
	}
	return ""
}
