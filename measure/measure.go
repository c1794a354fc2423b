package measure

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mkadlec/binsim/bitvec"
)

// Kind separates similarity coefficients, which grow with agreement, from
// distance measures, which grow with disagreement.
type Kind string

const (
	KindSimilarity Kind = "similarity"
	KindDistance   Kind = "distance"
)

// Family groups measures by the part of the contingency table their
// formula draws on.
type Family string

const (
	// FamilyPositiveMatch covers formulas built from a, b and c only.
	FamilyPositiveMatch Family = "positive_match"
	// FamilyFullTable covers formulas that use d or n without a
	// cross-product core.
	FamilyFullTable Family = "full_table"
	// FamilyCrossProduct covers formulas built around ad-bc.
	FamilyCrossProduct Family = "cross_product"
	// FamilyDifference covers distance measures counting mismatches.
	FamilyDifference Family = "difference"
)

// Measure is one registered coefficient.
type Measure struct {
	Name    string
	Kind    Kind
	Family  Family
	Aliases []string
	Eval    func(bitvec.Counts) float64
}

// Evaluate counts x against y, masked when mask is non-nil, and applies
// the measure to the resulting table.
func (m Measure) Evaluate(x, y, mask bitvec.Vector) (float64, error) {
	counts, err := bitvec.CountMasked(x, y, mask)
	if err != nil {
		return 0, err
	}
	return m.Eval(counts), nil
}

var byName map[string]int

func init() {
	sort.Slice(measures, func(i, j int) bool { return measures[i].Name < measures[j].Name })
	byName = make(map[string]int, 2*len(measures))
	for i, m := range measures {
		registerName(m.Name, i)
		for _, alias := range m.Aliases {
			registerName(alias, i)
		}
	}
}

func registerName(name string, i int) {
	key := normalize(name)
	if prev, ok := byName[key]; ok {
		panic(fmt.Sprintf("measure: name %q registered for both %q and %q", name, measures[prev].Name, measures[i].Name))
	}
	byName[key] = i
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Lookup resolves a canonical name or alias, case-insensitively.
func Lookup(name string) (Measure, bool) {
	i, ok := byName[normalize(name)]
	if !ok {
		return Measure{}, false
	}
	return measures[i], true
}

// All returns every registered measure, sorted by canonical name.
func All() []Measure {
	out := make([]Measure, len(measures))
	copy(out, measures)
	return out
}

// Names returns the sorted canonical names.
func Names() []string {
	names := make([]string, len(measures))
	for i, m := range measures {
		names[i] = m.Name
	}
	return names
}

// ByKind returns the measures of one kind, sorted by canonical name.
func ByKind(k Kind) []Measure {
	var out []Measure
	for _, m := range measures {
		if m.Kind == k {
			out = append(out, m)
		}
	}
	return out
}

// ByFamily returns the measures of one family, sorted by canonical name.
func ByFamily(f Family) []Measure {
	var out []Measure
	for _, m := range measures {
		if m.Family == f {
			out = append(out, m)
		}
	}
	return out
}
