package quiz

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ak91singh/Rizz-academy/internal/model"
)

func answersOf(options ...string) []model.QuizAnswer {
	answers := make([]model.QuizAnswer, len(options))
	for i, opt := range options {
		answers[i] = model.QuizAnswer{QuestionID: i + 1, Answer: opt}
	}
	return answers
}

func repeat(option string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = option
	}
	return out
}

func TestClassifyAllAdventurer(t *testing.T) {
	got := Classify(answersOf(repeat("B", 10)...))

	assert.Equal(t, Adventurer, got.Archetype)
	want := map[Archetype]int{Analytical: 0, Adventurer: 10, Alpha: 0, Empath: 0}
	if diff := cmp.Diff(want, got.Counts); diff != "" {
		t.Fatalf("counts mismatch (-want +got):\n%s", diff)
	}
}

func TestClassifyTieGoesToFirstInOrder(t *testing.T) {
	cases := []struct {
		name    string
		options []string
		want    Archetype
	}{
		{"analytical and alpha", append(repeat("C", 5), repeat("A", 5)...), Analytical},
		{"adventurer and empath", append(repeat("D", 5), repeat("B", 5)...), Adventurer},
		{"alpha and empath", append(repeat("D", 5), repeat("C", 5)...), Alpha},
		{"four way", []string{"D", "C", "B", "A"}, Analytical},
		{"no answers", nil, Analytical},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Classify(answersOf(tc.options...)).Archetype)
		})
	}
}

func TestClassifyUnknownOptionCountsAsAnalytical(t *testing.T) {
	got := Classify(answersOf("Z", "", "b", "E", " B", "C ", "B", "B"))

	assert.Equal(t, 6, got.Counts[Analytical])
	assert.Equal(t, 2, got.Counts[Adventurer])
	assert.Equal(t, Analytical, got.Archetype)
}

func TestClassifyEmptyIsAnalytical(t *testing.T) {
	got := Classify(nil)
	assert.Equal(t, Analytical, got.Archetype)
	for _, a := range Archetypes() {
		assert.Zero(t, got.Counts[a], a)
	}
}

func TestClassifyStrictMaximumWins(t *testing.T) {
	got := Classify(answersOf("A", "A", "D", "D", "D", "C", "B", "B", "A", "D"))
	assert.Equal(t, Empath, got.Archetype)
	assert.Equal(t, 4, got.Counts[Empath])
}

func TestEveryArchetypeHasCompleteBundle(t *testing.T) {
	for _, a := range Archetypes() {
		b := BundleFor(a)
		assert.NotEmpty(t, b.Title, a)
		assert.NotEmpty(t, b.Description, a)
		assert.NotEmpty(t, b.Strengths, a)
		assert.NotEmpty(t, b.AreasToImprove, a)
		assert.NotEmpty(t, b.RecommendedModules, a)
	}
}

func TestBundleForReturnsCopies(t *testing.T) {
	b := BundleFor(Alpha)
	b.Strengths[0] = "mutated"
	assert.Equal(t, "Confidence", BundleFor(Alpha).Strengths[0])
}

func TestQuestionsCatalogue(t *testing.T) {
	qs := Questions()
	require.Len(t, qs, 10)
	for i, q := range qs {
		assert.Equal(t, i+1, q.ID)
		require.Len(t, q.Options, 4)
		for j, opt := range q.Options {
			assert.Equal(t, optionOrder[j], opt.Value)
			assert.NotEmpty(t, opt.Text)
		}
	}
}

func TestLoadCatalogRejectsIncompleteData(t *testing.T) {
	_, err := loadCatalog([]byte("questions: []\n"))
	require.Error(t, err)
}

func TestClassifyProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	options := gen.OneConstOf("A", "B", "C", "D", "X", "")

	properties.Property("winner holds the maximum count", prop.ForAll(
		func(opts []string) bool {
			got := Classify(answersOf(opts...))
			for _, a := range Archetypes() {
				if got.Counts[a] > got.Counts[got.Archetype] {
					return false
				}
			}
			return true
		},
		gen.SliceOf(options),
	))

	properties.Property("no earlier archetype ties the winner", prop.ForAll(
		func(opts []string) bool {
			got := Classify(answersOf(opts...))
			for _, a := range Archetypes() {
				if a == got.Archetype {
					return true
				}
				if got.Counts[a] == got.Counts[got.Archetype] {
					return false
				}
			}
			return false
		},
		gen.SliceOf(options),
	))

	properties.Property("counts sum to the number of answers", prop.ForAll(
		func(opts []string) bool {
			got := Classify(answersOf(opts...))
			total := 0
			for _, n := range got.Counts {
				total += n
			}
			return total == len(opts)
		},
		gen.SliceOf(options),
	))

	properties.TestingRun(t)
}
