package gem

import "strings"

// Compartment identifiers used across the community model. Source organism
// models use c/p/e; the merged community model relocates species into the
// shared lumen, diet and fecal namespaces.
const (
	CompartmentCytosol       = "c"
	CompartmentPeriplasm     = "p"
	CompartmentExtracellular = "e"
	CompartmentLumen         = "u"
	CompartmentDiet          = "d"
	CompartmentFecal         = "fe"
)

// SplitID splits a metabolite id of the form "base[comp]" into its base name
// and compartment. Ids without a bracketed suffix return an empty compartment.
func SplitID(id string) (base, compartment string) {
	open := strings.LastIndexByte(id, '[')
	if open < 0 || !strings.HasSuffix(id, "]") {
		return id, ""
	}
	return id[:open], id[open+1 : len(id)-1]
}

// JoinID builds a metabolite id from a base name and compartment.
func JoinID(base, compartment string) string {
	return base + "[" + compartment + "]"
}

// InCompartment reports whether the id carries the bracketed compartment
// suffix, e.g. InCompartment("ac[u]", CompartmentLumen).
func InCompartment(id, compartment string) bool {
	return strings.HasSuffix(id, "["+compartment+"]")
}
