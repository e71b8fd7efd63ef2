// Package quiz scores the personality quiz into one of four archetypes.
package quiz

import (
	"github.com/ak91singh/Rizz-academy/internal/model"
)

type Archetype string

const (
	Analytical Archetype = "analytical"
	Adventurer Archetype = "adventurer"
	Alpha      Archetype = "alpha"
	Empath     Archetype = "empath"
)

// enumeration order decides ties: the first archetype to reach the maximum wins.
var archetypeOrder = [...]Archetype{Analytical, Adventurer, Alpha, Empath}

var optionOrder = [...]string{"A", "B", "C", "D"}

var optionArchetype = map[string]Archetype{
	"A": Analytical,
	"B": Adventurer,
	"C": Alpha,
	"D": Empath,
}

// Archetypes lists every archetype in tie-break order.
func Archetypes() []Archetype {
	return append([]Archetype(nil), archetypeOrder[:]...)
}

// Valid reports whether a is one of the four known archetypes.
func (a Archetype) Valid() bool {
	for _, known := range archetypeOrder {
		if a == known {
			return true
		}
	}
	return false
}

// ArchetypeForOption maps an option label to its archetype. Anything that is
// not exactly A, B, C or D counts toward analytical.
func ArchetypeForOption(option string) Archetype {
	if a, ok := optionArchetype[option]; ok {
		return a
	}
	return Analytical
}

type Classification struct {
	Archetype Archetype
	Counts    map[Archetype]int
}

// Classify tallies answers per archetype and picks the strict maximum, breaking
// ties in favour of the archetype listed first in Archetypes.
func Classify(answers []model.QuizAnswer) Classification {
	counts := make(map[Archetype]int, len(archetypeOrder))
	for _, a := range archetypeOrder {
		counts[a] = 0
	}
	for _, answer := range answers {
		counts[ArchetypeForOption(answer.Answer)]++
	}

	best := archetypeOrder[0]
	for _, a := range archetypeOrder[1:] {
		if counts[a] > counts[best] {
			best = a
		}
	}
	return Classification{Archetype: best, Counts: counts}
}
