package artifact

import (
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"golang.org/x/tools/go/packages"
)

// TestOnlyArtifactPackageImportsInfra ensures that only the artifact facade
// wraps the infra-backed store implementations. Everything else must depend
// on the artifact.Store interface instead of importing backends directly.
func TestOnlyArtifactPackageImportsInfra(t *testing.T) {
	infraPrefix := "gutcom/internal/infra/blob"
	allowedPrefix := "gutcom/internal/artifact"

	cfg := &packages.Config{Mode: packages.NeedName | packages.NeedImports, Tests: true}
	pkgs, err := packages.Load(cfg, "gutcom/...")
	if err != nil {
		t.Fatalf("load packages: %v", err)
	}

	seen := make(map[string]struct{})
	for _, pkg := range pkgs {
		if strings.HasPrefix(pkg.PkgPath, allowedPrefix) || strings.HasPrefix(pkg.PkgPath, infraPrefix) {
			continue
		}
		for importPath := range pkg.Imports {
			if importPath == infraPrefix || strings.HasPrefix(importPath, infraPrefix+"/") {
				seen[filepath.Join(pkg.PkgPath, "...")+": "+importPath] = struct{}{}
			}
		}
	}

	if len(seen) > 0 {
		violations := make([]string, 0, len(seen))
		for v := range seen {
			violations = append(violations, v)
		}
		sort.Strings(violations)
		for _, v := range violations {
			t.Errorf("forbidden import of artifact backend: %s", v)
		}
		t.Fatalf("found %d forbidden imports of artifact backends", len(violations))
	}
}
