package postgres

import (
	"context"
	"os"
	"testing"

	"gutcom/internal/sim"
)

// The postgres store is exercised against a real database only when a DSN is
// provided, keeping the default test run hermetic.
func TestSnapshotRoundTrip(t *testing.T) {
	dsn := os.Getenv("GUTCOM_RESULTS_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("GUTCOM_RESULTS_POSTGRES_DSN not set")
	}
	ctx := context.Background()
	store, err := NewStore(ctx, dsn)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	defer store.Close()

	if err := store.SaveProfile(ctx, &sim.NetFluxProfile{Sample: "it-s1", Objective: 0.42}); err != nil {
		t.Fatalf("SaveProfile: %v", err)
	}
	reopened, err := NewStore(ctx, dsn)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	got, err := reopened.Profile(ctx, "it-s1")
	if err != nil {
		t.Fatalf("Profile after reopen: %v", err)
	}
	if got.Objective != 0.42 {
		t.Fatalf("profile not persisted: %+v", got)
	}
}
