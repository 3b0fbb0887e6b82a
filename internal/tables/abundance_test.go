package tables

import (
	"strings"
	"testing"
)

const abundanceCSV = `microbe,SRS001,2-sick
Bacteroides_sp,0.6,0.0000001
Faecalibacterium_sp,0.3,0.00000011
Roseburia_sp,0,0.9
`

func loadTestAbundance(t *testing.T) *AbundanceTable {
	t.Helper()
	table, err := LoadAbundance(strings.NewReader(abundanceCSV))
	if err != nil {
		t.Fatalf("LoadAbundance: %v", err)
	}
	return table
}

func TestLoadAbundanceShape(t *testing.T) {
	table := loadTestAbundance(t)
	if got := table.Organisms(); len(got) != 3 || got[0] != "Bacteroides_sp" {
		t.Fatalf("unexpected organisms %v", got)
	}
	if got := table.Samples(); len(got) != 2 || got[1] != "2-sick" {
		t.Fatalf("unexpected samples %v", got)
	}
	if v := table.Abundance("Faecalibacterium_sp", "SRS001"); v != 0.3 {
		t.Fatalf("unexpected abundance %g", v)
	}
}

func TestPresenceThresholdIsStrict(t *testing.T) {
	table := loadTestAbundance(t)
	// Bacteroides_sp sits exactly at 1e-7 in sample 2-sick: excluded.
	present := table.Present("2-sick")
	if len(present) != 2 || present[0] != "Faecalibacterium_sp" || present[1] != "Roseburia_sp" {
		t.Fatalf("unexpected present set %v", present)
	}
	absent := table.Absent("2-sick")
	if len(absent) != 1 || absent[0] != "Bacteroides_sp" {
		t.Fatalf("unexpected absent set %v", absent)
	}
}

func TestLoadAbundanceRejectsBadInput(t *testing.T) {
	cases := map[string]string{
		"out of range":      "m,s\na,1.5\n",
		"duplicate row":     "m,s\na,0.1\na,0.2\n",
		"non-numeric":       "m,s\na,xyz\n",
		"no sample columns": "m\na\n",
		"no rows":           "m,s\n",
	}
	for name, csv := range cases {
		if _, err := LoadAbundance(strings.NewReader(csv)); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestSanitizeSampleName(t *testing.T) {
	cases := []struct{ in, want string }{
		{"SRS001", "SRS001"},
		{"sample one", "sample_one"},
		{"2-sick", "sample_2_sick"},
		{"_leading", "_leading"},
		{"a.b-c", "a_b_c"},
	}
	for _, tc := range cases {
		if got := SanitizeSampleName(tc.in); got != tc.want {
			t.Errorf("SanitizeSampleName(%q) = %q want %q", tc.in, got, tc.want)
		}
	}
}
