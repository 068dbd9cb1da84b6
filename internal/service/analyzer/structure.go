package analyzer

import (
	"sort"
	"strings"
)

type canonicalSection struct {
	Name    string
	Aliases []string
}

// canonicalSections in their expected textual order. Aliases cover both
// supported languages.
var canonicalSections = []canonicalSection{
	{Name: "introduction", Aliases: []string{"introduction", "вступ"}},
	{Name: "literature review", Aliases: []string{"literature review", "огляд літератури"}},
	{Name: "methodology", Aliases: []string{"methodology", "methods", "методологія", "методи"}},
	{Name: "results", Aliases: []string{"results", "результати"}},
	{Name: "discussion", Aliases: []string{"discussion", "обговорення"}},
	{Name: "conclusion", Aliases: []string{"conclusion", "conclusions", "висновки"}},
}

// Structure predictability scores.
const (
	structureOrderedScore   = 100.0
	structureUnorderedScore = 60.0
	structurePartialScore   = 30.0
	structureMinFullSet     = 4
)

// StructureAnalyzer detects canonical academic section headings and
// scores how predictable the document layout is: a complete, perfectly
// ordered skeleton is the template signature, not a virtue.
type StructureAnalyzer struct{}

func NewStructureAnalyzer() *StructureAnalyzer {
	return &StructureAnalyzer{}
}

// Analyze returns the structure breakdown component and the detected
// section names in order of appearance.
func (a *StructureAnalyzer) Analyze(text string) (float64, []string) {
	lower := strings.ToLower(text)

	type found struct {
		name     string
		position int
	}
	var sections []found

	for _, cs := range canonicalSections {
		pos := -1
		for _, alias := range cs.Aliases {
			if i := indexPhrase(lower, alias); i >= 0 && (pos < 0 || i < pos) {
				pos = i
			}
		}
		if pos >= 0 {
			sections = append(sections, found{name: cs.Name, position: pos})
		}
	}

	if len(sections) == 0 {
		return 0, nil
	}

	// sections is in canonical order here; ordered means positions are
	// non-decreasing in that same order.
	ordered := true
	for i := 1; i < len(sections); i++ {
		if sections[i].position < sections[i-1].position {
			ordered = false
			break
		}
	}

	byAppearance := make([]found, len(sections))
	copy(byAppearance, sections)
	sort.Slice(byAppearance, func(i, j int) bool {
		return byAppearance[i].position < byAppearance[j].position
	})
	names := make([]string, len(byAppearance))
	for i, s := range byAppearance {
		names[i] = s.name
	}

	switch {
	case len(sections) >= structureMinFullSet && ordered:
		return structureOrderedScore, names
	case len(sections) >= structureMinFullSet:
		return structureUnorderedScore, names
	default:
		return structurePartialScore, names
	}
}
