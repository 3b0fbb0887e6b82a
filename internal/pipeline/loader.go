package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"gutcom/internal/modelio"
	"gutcom/pkg/gem"
)

// OrganismLoader resolves an organism identifier to its reconstructed
// metabolic network. Conversion from upstream reconstruction formats happens
// outside this pipeline; the loader only reads already-converted networks.
type OrganismLoader interface {
	Load(ctx context.Context, organism string) (*gem.Model, error)
}

// DirLoader reads organism networks from a directory of msgpack snapshots,
// one file per organism named <organism>.msgpack.
type DirLoader struct {
	dir string
}

// NewDirLoader returns a loader rooted at dir.
func NewDirLoader(dir string) *DirLoader {
	return &DirLoader{dir: dir}
}

func (l *DirLoader) Load(ctx context.Context, organism string) (*gem.Model, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := filepath.Join(l.dir, organism+".msgpack")
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("pipeline: organism %s: %w", organism, err)
	}
	defer f.Close()
	m, _, _, err := modelio.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("pipeline: organism %s: %w", organism, err)
	}
	return m, nil
}
