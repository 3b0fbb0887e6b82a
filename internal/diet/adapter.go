// Package diet maps a diet flux table onto the diet-exchange bounds of a
// sample community model: the diet is closed entirely, then reopened only for
// listed nutrients, while host-derived metabolites keep a minimal supply
// independent of diet.
package diet

import (
	"strings"

	"go.uber.org/zap"

	"gutcom/internal/community"
	"gutcom/internal/tables"
	"gutcom/pkg/gem"
)

// DietPrefix marks a diet exchange after adaptation.
const DietPrefix = "Diet_EX_"

// DefaultBiomassBounds constrains community growth to a physiologically
// plausible window during simulation (1/day scale).
var DefaultBiomassBounds = [2]float64{0.4, 1.0}

// hostMetaboliteFloors enumerates gut metabolites supplied by the host
// independent of diet: primary bile acids, amines, mucins and host glycans,
// with the default uptake floor for each.
var hostMetaboliteFloors = map[string]float64{
	"gchola":      -10,
	"tdchola":     -10,
	"tchola":      -10,
	"dgchol":      -10,
	"34dhphe":     -10,
	"5htrp":       -10,
	"Lkynr":       -10,
	"f1a":         -1,
	"gncore1":     -1,
	"gncore2":     -1,
	"dsT_antigen": -1,
	"sTn_antigen": -1,
	"core8":       -1,
	"core7":       -1,
	"core5":       -1,
	"core4":       -1,
	"ha":          -1,
	"cspg_a":      -1,
	"cspg_b":      -1,
	"cspg_c":      -1,
	"cspg_d":      -1,
	"cspg_e":      -1,
	"hspg":        -1,
}

// Options tunes the physiological bounds applied alongside the diet.
type Options struct {
	// BiomassBounds is applied to communityBiomass when the reaction exists.
	// Zero value means DefaultBiomassBounds.
	BiomassBounds [2]float64
}

// Apply adapts the model to the diet table. Steps, in order:
//
//  1. Rename every EX_…[d] reaction to Diet_EX_…[d].
//  2. Close the diet: every Diet_EX_ lower bound becomes 0.
//  3. Apply each diet row as an override (lower, optional upper).
//  4. Constrain communityBiomass to the physiological window.
//  5. Lift UFEt_/DUt_/EX_ upper bounds to 1e6 against artificial capping.
//  6. Give host-derived metabolites absent from the diet their floor supply.
//  7. Close demand (_DM_, lower 0) and limit sink (_sink_, lower −1) reactions.
func Apply(m *gem.Model, table tables.DietTable, opts Options, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	bounds := opts.BiomassBounds
	if bounds == [2]float64{} {
		bounds = DefaultBiomassBounds
	}

	for _, id := range m.ReactionIDs() {
		if strings.HasPrefix(id, "EX_") && strings.Contains(id, "[d]") {
			newID := "Diet_" + id
			if m.HasReaction(newID) {
				continue
			}
			if err := m.RenameReaction(id, newID); err != nil {
				return err
			}
		}
	}

	for _, id := range m.ReactionIDs() {
		if strings.HasPrefix(id, DietPrefix) {
			if err := m.SetLower(id, 0); err != nil {
				return err
			}
		}
	}

	applied := 0
	for rxnID, bound := range table {
		if !m.HasReaction(rxnID) {
			continue
		}
		if err := m.SetLower(rxnID, bound.Lower); err != nil {
			return err
		}
		if bound.Upper != nil {
			if err := m.SetUpper(rxnID, *bound.Upper); err != nil {
				return err
			}
		}
		applied++
	}
	logger.Debug("diet applied", zap.Int("reactions", applied))

	if m.HasReaction(community.CommunityBiomassID) {
		if err := m.SetBounds(community.CommunityBiomassID, bounds[0], bounds[1]); err != nil {
			return err
		}
	}

	for _, id := range m.ReactionIDs() {
		if strings.HasPrefix(id, "UFEt_") || strings.HasPrefix(id, "DUt_") || strings.HasPrefix(id, "EX_") {
			if err := m.SetUpper(id, 1e6); err != nil {
				return err
			}
		}
	}

	for met, floor := range hostMetaboliteFloors {
		rxnID := DietPrefix + gem.JoinID(met, gem.CompartmentDiet)
		if _, listed := table[rxnID]; listed || !m.HasReaction(rxnID) {
			continue
		}
		if err := m.SetBounds(rxnID, floor, 10000); err != nil {
			return err
		}
	}

	for _, id := range m.ReactionIDs() {
		switch {
		case strings.Contains(id, "_DM_"):
			if err := m.SetLower(id, 0); err != nil {
				return err
			}
		case strings.Contains(id, "_sink_"):
			if err := m.SetLower(id, -1); err != nil {
				return err
			}
		}
	}
	return nil
}
