package modelio

import (
	"bytes"
	"context"

	"gutcom/internal/artifact"
	"gutcom/pkg/gem"
)

const contentType = "application/msgpack"

// ModelKey is the artifact key of a sample's community model.
func ModelKey(sample string) string {
	return "models/microbiota_model_samp_" + sample + ".msgpack"
}

// DietModelKey is the artifact key of a sample's diet-adapted model.
func DietModelKey(sample string) string {
	return "diet/microbiota_model_diet_samp_" + sample + ".msgpack"
}

// Store persists model snapshots through an artifact backend.
type Store struct {
	artifacts artifact.Store
}

// NewStore wraps an artifact backend.
func NewStore(artifacts artifact.Store) *Store {
	return &Store{artifacts: artifacts}
}

// Save encodes and writes one snapshot. Create-only unless overwrite is set.
func (s *Store) Save(ctx context.Context, key string, m *gem.Model, coupling *gem.CouplingSystem, fecalExchanges []string, overwrite bool) error {
	var buf bytes.Buffer
	if err := Encode(&buf, m, coupling, fecalExchanges); err != nil {
		return err
	}
	_, err := s.artifacts.Put(ctx, key, &buf, artifact.PutOptions{
		ContentType: contentType,
		Metadata:    map[string]string{"sample": m.ID()},
		Overwrite:   overwrite,
	})
	return err
}

// Load reads and rebuilds one snapshot.
func (s *Store) Load(ctx context.Context, key string) (*gem.Model, *gem.CouplingSystem, []string, error) {
	_, rc, err := s.artifacts.Get(ctx, key)
	if err != nil {
		return nil, nil, nil, err
	}
	defer rc.Close()
	return Decode(rc)
}

// Exists reports whether the key already holds a snapshot.
func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	return s.artifacts.Exists(ctx, key)
}
