package community

import (
	"strings"

	"go.uber.org/zap"

	"gutcom/pkg/gem"
)

// PruneZeroAbundance removes every metabolite owned by one of the given
// organisms (prefix match on "{organism}_"), cascading to all reactions that
// reference a removed metabolite. This is destructive and irreversible on the
// working copy; it must never run against the shared global model.
func PruneZeroAbundance(m *gem.Model, organisms []string, logger *zap.Logger) (mets, rxns int) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(organisms) == 0 {
		return 0, 0
	}
	prefixes := make([]string, 0, len(organisms))
	for _, org := range organisms {
		prefixes = append(prefixes, org+"_")
	}
	var doomed []string
	for _, metID := range m.MetaboliteIDs() {
		for _, prefix := range prefixes {
			if strings.HasPrefix(metID, prefix) {
				doomed = append(doomed, metID)
				break
			}
		}
	}
	mets, rxns = m.RemoveMetabolitesDestructive(doomed)
	logger.Debug("pruned zero-abundance organisms",
		zap.Int("organisms", len(organisms)),
		zap.Int("metabolites", mets),
		zap.Int("reactions", rxns))
	return mets, rxns
}
