// Package gem defines the in-memory stoichiometric network model shared by
// the community assembly and simulation layers: id-indexed reactions and
// metabolites, flux bounds, a single designated objective reaction, and the
// coupling constraint system persisted alongside each sample model.
package gem

import (
	"errors"
	"fmt"
	"sort"
)

// Metabolite is a chemical species owned by exactly one model. The id encodes
// the compartment as a bracketed suffix, e.g. "glc_D[u]".
type Metabolite struct {
	ID          string `json:"id" msgpack:"id"`
	Name        string `json:"name,omitempty" msgpack:"name,omitempty"`
	Formula     string `json:"formula,omitempty" msgpack:"formula,omitempty"`
	Compartment string `json:"compartment" msgpack:"compartment"`
}

// Reaction is a stoichiometric conversion between metabolites of the owning
// model. Reactants carry negative coefficients, products positive ones.
type Reaction struct {
	ID            string             `json:"id" msgpack:"id"`
	Name          string             `json:"name,omitempty" msgpack:"name,omitempty"`
	Subsystem     string             `json:"subsystem,omitempty" msgpack:"subsystem,omitempty"`
	Lower         float64            `json:"lower" msgpack:"lower"`
	Upper         float64            `json:"upper" msgpack:"upper"`
	Stoichiometry map[string]float64 `json:"stoichiometry" msgpack:"stoichiometry"`
}

// Model owns a set of reactions and metabolites keyed by id.
//
// Removal semantics are asymmetric on purpose: removing a metabolite
// destructively removes every reaction referencing it, while removing a
// reaction leaves now-orphaned metabolites in place.
type Model struct {
	id          string
	reactions   map[string]*Reaction
	metabolites map[string]*Metabolite
	// metToRxns indexes metabolite id -> ids of reactions referencing it.
	metToRxns map[string]map[string]struct{}
	objective string
}

var (
	// ErrNotFound reports a reaction or metabolite id absent from the model.
	ErrNotFound = errors.New("gem: not found")
	// ErrDuplicate reports an id already present in the model.
	ErrDuplicate = errors.New("gem: duplicate id")
)

// NewModel returns an empty model with the given identifier.
func NewModel(id string) *Model {
	return &Model{
		id:          id,
		reactions:   make(map[string]*Reaction),
		metabolites: make(map[string]*Metabolite),
		metToRxns:   make(map[string]map[string]struct{}),
	}
}

// ID returns the model identifier.
func (m *Model) ID() string { return m.id }

// SetID renames the model.
func (m *Model) SetID(id string) { m.id = id }

// NumReactions returns the number of reactions.
func (m *Model) NumReactions() int { return len(m.reactions) }

// NumMetabolites returns the number of metabolites.
func (m *Model) NumMetabolites() int { return len(m.metabolites) }

// HasReaction reports whether the reaction id exists.
func (m *Model) HasReaction(id string) bool {
	_, ok := m.reactions[id]
	return ok
}

// HasMetabolite reports whether the metabolite id exists.
func (m *Model) HasMetabolite(id string) bool {
	_, ok := m.metabolites[id]
	return ok
}

// AddMetabolite registers a metabolite. The id must be new.
func (m *Model) AddMetabolite(met Metabolite) error {
	if met.ID == "" {
		return fmt.Errorf("gem: empty metabolite id")
	}
	if _, ok := m.metabolites[met.ID]; ok {
		return fmt.Errorf("metabolite %s: %w", met.ID, ErrDuplicate)
	}
	cp := met
	m.metabolites[met.ID] = &cp
	return nil
}

// EnsureMetabolite registers a metabolite unless the id already exists.
func (m *Model) EnsureMetabolite(met Metabolite) {
	if _, ok := m.metabolites[met.ID]; ok {
		return
	}
	cp := met
	m.metabolites[met.ID] = &cp
}

// AddReaction registers a reaction. Every stoichiometry key must name a
// metabolite already owned by this model, and Lower must not exceed Upper.
func (m *Model) AddReaction(rxn Reaction) error {
	if rxn.ID == "" {
		return fmt.Errorf("gem: empty reaction id")
	}
	if _, ok := m.reactions[rxn.ID]; ok {
		return fmt.Errorf("reaction %s: %w", rxn.ID, ErrDuplicate)
	}
	if rxn.Lower > rxn.Upper {
		return fmt.Errorf("gem: reaction %s bounds inverted (%g > %g)", rxn.ID, rxn.Lower, rxn.Upper)
	}
	for metID := range rxn.Stoichiometry {
		if _, ok := m.metabolites[metID]; !ok {
			return fmt.Errorf("reaction %s references metabolite %s: %w", rxn.ID, metID, ErrNotFound)
		}
	}
	cp := rxn
	cp.Stoichiometry = cloneStoichiometry(rxn.Stoichiometry)
	m.reactions[rxn.ID] = &cp
	for metID := range cp.Stoichiometry {
		m.indexMet(metID, rxn.ID)
	}
	return nil
}

// Reaction returns a copy of the reaction, or false when absent.
func (m *Model) Reaction(id string) (Reaction, bool) {
	r, ok := m.reactions[id]
	if !ok {
		return Reaction{}, false
	}
	cp := *r
	cp.Stoichiometry = cloneStoichiometry(r.Stoichiometry)
	return cp, true
}

// Metabolite returns a copy of the metabolite, or false when absent.
func (m *Model) Metabolite(id string) (Metabolite, bool) {
	met, ok := m.metabolites[id]
	if !ok {
		return Metabolite{}, false
	}
	return *met, true
}

// ReactionIDs returns all reaction ids in lexical order.
func (m *Model) ReactionIDs() []string {
	ids := make([]string, 0, len(m.reactions))
	for id := range m.reactions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// MetaboliteIDs returns all metabolite ids in lexical order.
func (m *Model) MetaboliteIDs() []string {
	ids := make([]string, 0, len(m.metabolites))
	for id := range m.metabolites {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Reactions returns copies of all reactions in lexical id order.
func (m *Model) Reactions() []Reaction {
	out := make([]Reaction, 0, len(m.reactions))
	for _, id := range m.ReactionIDs() {
		r := m.reactions[id]
		cp := *r
		cp.Stoichiometry = cloneStoichiometry(r.Stoichiometry)
		out = append(out, cp)
	}
	return out
}

// Metabolites returns copies of all metabolites in lexical id order.
func (m *Model) Metabolites() []Metabolite {
	out := make([]Metabolite, 0, len(m.metabolites))
	for _, id := range m.MetaboliteIDs() {
		out = append(out, *m.metabolites[id])
	}
	return out
}

// SetBounds replaces a reaction's flux bounds.
func (m *Model) SetBounds(id string, lower, upper float64) error {
	r, ok := m.reactions[id]
	if !ok {
		return fmt.Errorf("reaction %s: %w", id, ErrNotFound)
	}
	if lower > upper {
		return fmt.Errorf("gem: reaction %s bounds inverted (%g > %g)", id, lower, upper)
	}
	r.Lower, r.Upper = lower, upper
	return nil
}

// SetLower replaces a reaction's lower bound.
func (m *Model) SetLower(id string, lower float64) error {
	r, ok := m.reactions[id]
	if !ok {
		return fmt.Errorf("reaction %s: %w", id, ErrNotFound)
	}
	r.Lower = lower
	return nil
}

// SetUpper replaces a reaction's upper bound.
func (m *Model) SetUpper(id string, upper float64) error {
	r, ok := m.reactions[id]
	if !ok {
		return fmt.Errorf("reaction %s: %w", id, ErrNotFound)
	}
	r.Upper = upper
	return nil
}

// AddToStoichiometry merges coefficients into an existing reaction. Every
// metabolite must already exist in the model.
func (m *Model) AddToStoichiometry(id string, coeffs map[string]float64) error {
	r, ok := m.reactions[id]
	if !ok {
		return fmt.Errorf("reaction %s: %w", id, ErrNotFound)
	}
	for metID := range coeffs {
		if _, ok := m.metabolites[metID]; !ok {
			return fmt.Errorf("reaction %s references metabolite %s: %w", id, metID, ErrNotFound)
		}
	}
	for metID, c := range coeffs {
		r.Stoichiometry[metID] += c
		m.indexMet(metID, id)
	}
	return nil
}

// RenameReaction changes a reaction id in place.
func (m *Model) RenameReaction(oldID, newID string) error {
	if oldID == newID {
		return nil
	}
	r, ok := m.reactions[oldID]
	if !ok {
		return fmt.Errorf("reaction %s: %w", oldID, ErrNotFound)
	}
	if _, ok := m.reactions[newID]; ok {
		return fmt.Errorf("reaction %s: %w", newID, ErrDuplicate)
	}
	delete(m.reactions, oldID)
	r.ID = newID
	m.reactions[newID] = r
	for metID := range r.Stoichiometry {
		delete(m.metToRxns[metID], oldID)
		m.indexMet(metID, newID)
	}
	if m.objective == oldID {
		m.objective = newID
	}
	return nil
}

// RenameMetabolite changes a metabolite id and compartment in place,
// rewriting the stoichiometry of every referencing reaction.
func (m *Model) RenameMetabolite(oldID, newID, compartment string) error {
	if oldID == newID {
		return nil
	}
	met, ok := m.metabolites[oldID]
	if !ok {
		return fmt.Errorf("metabolite %s: %w", oldID, ErrNotFound)
	}
	if _, ok := m.metabolites[newID]; ok {
		return fmt.Errorf("metabolite %s: %w", newID, ErrDuplicate)
	}
	delete(m.metabolites, oldID)
	met.ID = newID
	if compartment != "" {
		met.Compartment = compartment
	}
	m.metabolites[newID] = met
	refs := m.metToRxns[oldID]
	delete(m.metToRxns, oldID)
	for rxnID := range refs {
		r := m.reactions[rxnID]
		c := r.Stoichiometry[oldID]
		delete(r.Stoichiometry, oldID)
		r.Stoichiometry[newID] = c
		m.indexMet(newID, rxnID)
	}
	return nil
}

// RemoveReaction deletes a reaction. Orphaned metabolites remain.
func (m *Model) RemoveReaction(id string) bool {
	r, ok := m.reactions[id]
	if !ok {
		return false
	}
	for metID := range r.Stoichiometry {
		delete(m.metToRxns[metID], id)
	}
	delete(m.reactions, id)
	if m.objective == id {
		m.objective = ""
	}
	return true
}

// RemoveMetabolitesDestructive deletes the given metabolites and cascades to
// every reaction referencing any of them. It returns the number of removed
// metabolites and reactions.
func (m *Model) RemoveMetabolitesDestructive(ids []string) (mets, rxns int) {
	doomed := make(map[string]struct{})
	for _, id := range ids {
		if _, ok := m.metabolites[id]; !ok {
			continue
		}
		for rxnID := range m.metToRxns[id] {
			doomed[rxnID] = struct{}{}
		}
		delete(m.metabolites, id)
		delete(m.metToRxns, id)
		mets++
	}
	for rxnID := range doomed {
		if m.RemoveReaction(rxnID) {
			rxns++
		}
	}
	return mets, rxns
}

// SetObjective designates the single active objective reaction.
func (m *Model) SetObjective(id string) error {
	if _, ok := m.reactions[id]; !ok {
		return fmt.Errorf("objective %s: %w", id, ErrNotFound)
	}
	m.objective = id
	return nil
}

// ObjectiveID returns the designated objective reaction id, or "".
func (m *Model) ObjectiveID() string { return m.objective }

// Exchanges returns ids of boundary reactions, i.e. reactions touching
// exactly one metabolite, in lexical order.
func (m *Model) Exchanges() []string {
	var out []string
	for id, r := range m.reactions {
		if len(r.Stoichiometry) == 1 {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

// Copy returns a deep, independent copy of the model.
func (m *Model) Copy() *Model {
	cp := NewModel(m.id)
	cp.objective = m.objective
	for id, met := range m.metabolites {
		dup := *met
		cp.metabolites[id] = &dup
	}
	for id, r := range m.reactions {
		dup := *r
		dup.Stoichiometry = cloneStoichiometry(r.Stoichiometry)
		cp.reactions[id] = &dup
		for metID := range dup.Stoichiometry {
			cp.indexMet(metID, id)
		}
	}
	return cp
}

func (m *Model) indexMet(metID, rxnID string) {
	set, ok := m.metToRxns[metID]
	if !ok {
		set = make(map[string]struct{})
		m.metToRxns[metID] = set
	}
	set[rxnID] = struct{}{}
}

func cloneStoichiometry(in map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
