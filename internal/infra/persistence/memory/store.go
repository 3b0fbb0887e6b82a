// Package memory implements the in-memory results store. The SQL-backed
// stores embed it and snapshot its state after every successful write.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"gutcom/internal/results/core"
	"gutcom/internal/sim"
)

// Snapshot is the full exported state, used by the SQL-backed stores to
// persist and rehydrate.
type Snapshot struct {
	Profiles map[string]*sim.NetFluxProfile `json:"profiles"`
	Runs     map[string]core.RunManifest    `json:"runs"`
}

// Store implements core.Store backed by process memory.
type Store struct {
	mu       sync.RWMutex
	profiles map[string]*sim.NetFluxProfile
	runs     map[string]core.RunManifest
}

// NewStore returns an empty in-memory results store.
func NewStore() *Store {
	return &Store{
		profiles: make(map[string]*sim.NetFluxProfile),
		runs:     make(map[string]core.RunManifest),
	}
}

func (s *Store) Driver() core.Driver { return core.DriverMemory }

func (s *Store) SaveProfile(_ context.Context, profile *sim.NetFluxProfile) error {
	if profile == nil || profile.Sample == "" {
		return fmt.Errorf("results: profile must carry a sample id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[profile.Sample] = cloneProfile(profile)
	return nil
}

func (s *Store) Profile(_ context.Context, sample string) (*sim.NetFluxProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[sample]
	if !ok {
		return nil, fmt.Errorf("profile %s: %w", sample, core.ErrNotFound)
	}
	return cloneProfile(p), nil
}

func (s *Store) Profiles(_ context.Context) ([]*sim.NetFluxProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*sim.NetFluxProfile, 0, len(s.profiles))
	for _, p := range s.profiles {
		out = append(out, cloneProfile(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Sample < out[j].Sample })
	return out, nil
}

func (s *Store) SaveManifest(_ context.Context, manifest core.RunManifest) error {
	if manifest.ID == "" {
		return fmt.Errorf("results: manifest must carry an id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[manifest.ID] = manifest
	return nil
}

func (s *Store) Manifest(_ context.Context, id string) (core.RunManifest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.runs[id]
	if !ok {
		return core.RunManifest{}, fmt.Errorf("manifest %s: %w", id, core.ErrNotFound)
	}
	return m, nil
}

func (s *Store) Manifests(_ context.Context) ([]core.RunManifest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.RunManifest, 0, len(s.runs))
	for _, m := range s.runs {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.Before(out[j].StartedAt) })
	return out, nil
}

func (s *Store) Close() error { return nil }

// ExportState returns a deep copy of the current state.
func (s *Store) ExportState() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := Snapshot{
		Profiles: make(map[string]*sim.NetFluxProfile, len(s.profiles)),
		Runs:     make(map[string]core.RunManifest, len(s.runs)),
	}
	for k, v := range s.profiles {
		snap.Profiles[k] = cloneProfile(v)
	}
	for k, v := range s.runs {
		snap.Runs[k] = v
	}
	return snap
}

// ImportState replaces the current state with the snapshot.
func (s *Store) ImportState(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles = make(map[string]*sim.NetFluxProfile, len(snap.Profiles))
	for k, v := range snap.Profiles {
		s.profiles[k] = cloneProfile(v)
	}
	s.runs = make(map[string]core.RunManifest, len(snap.Runs))
	for k, v := range snap.Runs {
		s.runs[k] = v
	}
}

func cloneProfile(p *sim.NetFluxProfile) *sim.NetFluxProfile {
	if p == nil {
		return nil
	}
	cp := *p
	cp.Production = cloneFloats(p.Production)
	cp.Uptake = cloneFloats(p.Uptake)
	cp.MinNetFecalExcretion = cloneFloats(p.MinNetFecalExcretion)
	if p.Raw != nil {
		cp.Raw = make(map[string]sim.Exchange, len(p.Raw))
		for k, v := range p.Raw {
			cp.Raw[k] = v
		}
	}
	return &cp
}

func cloneFloats(in map[string]float64) map[string]float64 {
	if in == nil {
		return nil
	}
	out := make(map[string]float64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
