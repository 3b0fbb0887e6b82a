// Package modelio serializes sample community models for the artifact store.
// An artifact is a versioned msgpack snapshot carrying the network, its
// coupling system and the study-wide fecal exchange universe, so the
// simulation phase can run without re-reading organism inputs.
package modelio

import (
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"

	"gutcom/pkg/gem"
)

// formatVersion guards against reading snapshots written by an incompatible
// release.
const formatVersion = "gutcom-model-v1"

// Snapshot is the serialized form of one sample community model.
type Snapshot struct {
	Version        string              `msgpack:"v"`
	Sample         string              `msgpack:"sample"`
	Objective      string              `msgpack:"objective"`
	Metabolites    []gem.Metabolite    `msgpack:"metabolites"`
	Reactions      []gem.Reaction      `msgpack:"reactions"`
	Coupling       *gem.CouplingSystem `msgpack:"coupling"`
	FecalExchanges []string            `msgpack:"fecal_exchanges"`
}

// Encode writes the model, its coupling system and the fecal exchange
// universe as a versioned msgpack snapshot.
func Encode(w io.Writer, m *gem.Model, coupling *gem.CouplingSystem, fecalExchanges []string) error {
	if coupling == nil {
		coupling = gem.NewCouplingSystem()
	}
	snap := Snapshot{
		Version:        formatVersion,
		Sample:         m.ID(),
		Objective:      m.ObjectiveID(),
		Metabolites:    m.Metabolites(),
		Reactions:      m.Reactions(),
		Coupling:       coupling,
		FecalExchanges: append([]string(nil), fecalExchanges...),
	}
	if err := msgpack.NewEncoder(w).Encode(snap); err != nil {
		return fmt.Errorf("modelio: encode %s: %w", m.ID(), err)
	}
	return nil
}

// Decode reads a snapshot and rebuilds the model. The coupling system is
// checked against the rebuilt model before returning.
func Decode(r io.Reader) (*gem.Model, *gem.CouplingSystem, []string, error) {
	var snap Snapshot
	if err := msgpack.NewDecoder(r).Decode(&snap); err != nil {
		return nil, nil, nil, fmt.Errorf("modelio: decode: %w", err)
	}
	if snap.Version != formatVersion {
		return nil, nil, nil, fmt.Errorf("modelio: unsupported snapshot version %q (want %s)", snap.Version, formatVersion)
	}

	m := gem.NewModel(snap.Sample)
	for _, met := range snap.Metabolites {
		if err := m.AddMetabolite(met); err != nil {
			return nil, nil, nil, fmt.Errorf("modelio: rebuild %s: %w", snap.Sample, err)
		}
	}
	for _, rxn := range snap.Reactions {
		if err := m.AddReaction(rxn); err != nil {
			return nil, nil, nil, fmt.Errorf("modelio: rebuild %s: %w", snap.Sample, err)
		}
	}
	if snap.Objective != "" {
		if err := m.SetObjective(snap.Objective); err != nil {
			return nil, nil, nil, fmt.Errorf("modelio: rebuild %s: %w", snap.Sample, err)
		}
	}
	coupling := snap.Coupling
	if coupling == nil {
		coupling = gem.NewCouplingSystem()
	}
	if err := coupling.CheckAlignment(m); err != nil {
		return nil, nil, nil, fmt.Errorf("modelio: snapshot %s: %w", snap.Sample, err)
	}
	return m, coupling, snap.FecalExchanges, nil
}
