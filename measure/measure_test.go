package measure

import (
	"errors"
	"math"
	"sort"
	"testing"

	"github.com/mkadlec/binsim/bitvec"
)

func TestLookup_CanonicalNames(t *testing.T) {
	tests := []struct {
		name       string
		wantKind   Kind
		wantFamily Family
	}{
		{"jaccard", KindSimilarity, FamilyPositiveMatch},
		{"smc", KindSimilarity, FamilyFullTable},
		{"yule1", KindSimilarity, FamilyCrossProduct},
		{"hamming", KindDistance, FamilyDifference},
		{"gilbert_wells", KindSimilarity, FamilyFullTable},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			m, ok := Lookup(tc.name)
			if !ok {
				t.Fatalf("Lookup(%q) not found", tc.name)
			}
			if m.Name != tc.name {
				t.Errorf("Name = %q, want %q", m.Name, tc.name)
			}
			if m.Kind != tc.wantKind {
				t.Errorf("Kind = %q, want %q", m.Kind, tc.wantKind)
			}
			if m.Family != tc.wantFamily {
				t.Errorf("Family = %q, want %q", m.Family, tc.wantFamily)
			}
			if m.Eval == nil {
				t.Error("Eval is nil")
			}
		})
	}
}

// TestLookup_Aliases verifies spellings from earlier catalog revisions
// resolve to their canonical entries.
func TestLookup_Aliases(t *testing.T) {
	tests := []struct {
		alias     string
		canonical string
	}{
		{"cosine", "driver_kroeber"},
		{"ochiai1", "driver_kroeber"},
		{"otsuka", "driver_kroeber"},
		{"dice", "gleason"},
		{"czekanowski", "gleason"},
		{"nei_li", "gleason"},
		{"jaccard_3w", "sw_jaccard"},
		{"yuleq", "yule1"},
		{"yulew", "yule2"},
		{"phi", "pearson_heron1"},
		{"sokal_michener", "smc"},
		{"sokal_sneath5", "sokal_sneath4a"},
		{"ochiai2", "sokal_sneath4a"},
		{"goodman_kruskal", "goodman_kruskal1"},
		{"peirce", "peirce3"},
		{"braun_banquet", "braun_blanquet"},
		{"disperson", "dispersion"},
		{"forbesi", "forbes1"},
		{"itersection", "intersection"},
		{"hamann", "hamman"},
		{"innerproduct", "inner_product"},
	}
	for _, tc := range tests {
		t.Run(tc.alias, func(t *testing.T) {
			m, ok := Lookup(tc.alias)
			if !ok {
				t.Fatalf("Lookup(%q) not found", tc.alias)
			}
			if m.Name != tc.canonical {
				t.Errorf("resolved to %q, want %q", m.Name, tc.canonical)
			}
		})
	}
}

func TestLookup_Normalization(t *testing.T) {
	for _, name := range []string{"JACCARD", " jaccard ", "Jaccard"} {
		if _, ok := Lookup(name); !ok {
			t.Errorf("Lookup(%q) not found", name)
		}
	}
	if _, ok := Lookup("no_such_measure"); ok {
		t.Error("Lookup(no_such_measure) unexpectedly found")
	}
}

func TestAll_SortedAndComplete(t *testing.T) {
	all := All()
	if len(all) != 90 {
		t.Fatalf("len(All()) = %d, want 90", len(all))
	}
	names := Names()
	if !sort.StringsAreSorted(names) {
		t.Error("Names() not sorted")
	}
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		if seen[n] {
			t.Errorf("duplicate canonical name %q", n)
		}
		seen[n] = true
	}
	if got := len(ByKind(KindSimilarity)); got != 74 {
		t.Errorf("similarity count = %d, want 74", got)
	}
	if got := len(ByKind(KindDistance)); got != 16 {
		t.Errorf("distance count = %d, want 16", got)
	}
}

func TestByFamily_PartitionsCatalog(t *testing.T) {
	total := 0
	for _, f := range []Family{FamilyPositiveMatch, FamilyFullTable, FamilyCrossProduct, FamilyDifference} {
		ms := ByFamily(f)
		if len(ms) == 0 {
			t.Errorf("family %q is empty", f)
		}
		for _, m := range ms {
			if f == FamilyDifference && m.Kind != KindDistance {
				t.Errorf("%s: difference family holds kind %q", m.Name, m.Kind)
			}
			if f != FamilyDifference && m.Kind != KindSimilarity {
				t.Errorf("%s: family %q holds kind %q", m.Name, f, m.Kind)
			}
		}
		total += len(ms)
	}
	if total != len(All()) {
		t.Errorf("families cover %d measures, want %d", total, len(All()))
	}
}

// TestEvaluate_RepresentationAgreement evaluates every measure on the same
// pair in both vector representations and requires identical results. This
// is the core contract the two representations share.
func TestEvaluate_RepresentationAgreement(t *testing.T) {
	const xs, ys = "1100101101001011", "1001011100110101"
	dx, err := bitvec.ParseBitString(xs)
	if err != nil {
		t.Fatalf("ParseBitString() err = %v", err)
	}
	dy, err := bitvec.ParseBitString(ys)
	if err != nil {
		t.Fatalf("ParseBitString() err = %v", err)
	}
	px, err := bitvec.ParsePacked(xs)
	if err != nil {
		t.Fatalf("ParsePacked() err = %v", err)
	}
	py, err := bitvec.ParsePacked(ys)
	if err != nil {
		t.Fatalf("ParsePacked() err = %v", err)
	}

	for _, m := range All() {
		t.Run(m.Name, func(t *testing.T) {
			dense, err := m.Evaluate(dx, dy, nil)
			if err != nil {
				t.Fatalf("Evaluate(dense) err = %v", err)
			}
			packed, err := m.Evaluate(px, py, nil)
			if err != nil {
				t.Fatalf("Evaluate(packed) err = %v", err)
			}
			if math.IsNaN(dense) && math.IsNaN(packed) {
				return
			}
			if dense != packed {
				t.Errorf("dense = %v, packed = %v", dense, packed)
			}
		})
	}
}

func TestEvaluate_Masked(t *testing.T) {
	x, err := bitvec.ParsePacked("1100")
	if err != nil {
		t.Fatalf("ParsePacked() err = %v", err)
	}
	y, err := bitvec.ParsePacked("1001")
	if err != nil {
		t.Fatalf("ParsePacked() err = %v", err)
	}
	mask, err := bitvec.ParsePacked("1110")
	if err != nil {
		t.Fatalf("ParsePacked() err = %v", err)
	}

	m, ok := Lookup("jaccard")
	if !ok {
		t.Fatal("jaccard not registered")
	}
	// Masked table is a=1, b=1, c=0.
	got, err := m.Evaluate(x, y, mask)
	if err != nil {
		t.Fatalf("Evaluate() err = %v", err)
	}
	if want := 0.5; got != want {
		t.Errorf("value = %v, want %v", got, want)
	}
}

func TestEvaluate_LengthMismatch(t *testing.T) {
	x, err := bitvec.ParsePacked("110")
	if err != nil {
		t.Fatalf("ParsePacked() err = %v", err)
	}
	y, err := bitvec.ParsePacked("1100")
	if err != nil {
		t.Fatalf("ParsePacked() err = %v", err)
	}
	m, ok := Lookup("jaccard")
	if !ok {
		t.Fatal("jaccard not registered")
	}
	_, err = m.Evaluate(x, y, nil)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !errors.Is(err, bitvec.ErrLengthMismatch) {
		t.Errorf("error = %v, want ErrLengthMismatch", err)
	}
}

// TestAliases_NeverCollide walks the registry the way init does and checks
// no alias shadows a canonical name.
func TestAliases_NeverCollide(t *testing.T) {
	canonical := make(map[string]bool)
	for _, m := range All() {
		canonical[m.Name] = true
	}
	for _, m := range All() {
		for _, alias := range m.Aliases {
			if canonical[alias] {
				t.Errorf("alias %q of %q is also a canonical name", alias, m.Name)
			}
			resolved, ok := Lookup(alias)
			if !ok {
				t.Errorf("alias %q of %q does not resolve", alias, m.Name)
				continue
			}
			if resolved.Name != m.Name {
				t.Errorf("alias %q resolves to %q, want %q", alias, resolved.Name, m.Name)
			}
		}
	}
}
