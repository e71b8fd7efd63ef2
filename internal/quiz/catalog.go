package quiz

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

const questionCount = 10

//go:embed catalog.yaml
var catalogRawYAML []byte

type Option struct {
	Value string `yaml:"value" json:"value"`
	Text  string `yaml:"text" json:"text"`
}

type Question struct {
	ID       int      `yaml:"id" json:"id"`
	Question string   `yaml:"question" json:"question"`
	Options  []Option `yaml:"options" json:"options"`
}

// Bundle is the content shown for an archetype.
type Bundle struct {
	Title              string   `yaml:"title" json:"title"`
	Description        string   `yaml:"description" json:"description"`
	Strengths          []string `yaml:"strengths" json:"strengths"`
	AreasToImprove     []string `yaml:"areas_to_improve" json:"areas_to_improve"`
	RecommendedModules []string `yaml:"recommended_modules" json:"recommended_modules"`
}

type catalog struct {
	Questions  []Question           `yaml:"questions"`
	Archetypes map[Archetype]Bundle `yaml:"archetypes"`
}

var defaultCatalog = mustLoadCatalog(catalogRawYAML)

func mustLoadCatalog(raw []byte) catalog {
	c, err := loadCatalog(raw)
	if err != nil {
		panic(fmt.Sprintf("quiz: invalid embedded catalog: %v", err))
	}
	return c
}

func loadCatalog(raw []byte) (catalog, error) {
	var c catalog
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return catalog{}, err
	}
	if len(c.Questions) != questionCount {
		return catalog{}, fmt.Errorf("expected %d questions, got %d", questionCount, len(c.Questions))
	}
	for _, q := range c.Questions {
		if len(q.Options) != len(optionOrder) {
			return catalog{}, fmt.Errorf("question %d has %d options", q.ID, len(q.Options))
		}
		for i, opt := range q.Options {
			if strings.TrimSpace(opt.Value) != optionOrder[i] {
				return catalog{}, fmt.Errorf("question %d option %d is %q, want %q", q.ID, i, opt.Value, optionOrder[i])
			}
		}
	}
	for _, a := range Archetypes() {
		b, ok := c.Archetypes[a]
		if !ok {
			return catalog{}, fmt.Errorf("missing bundle for archetype %q", a)
		}
		if b.Title == "" || len(b.Strengths) == 0 || len(b.AreasToImprove) == 0 || len(b.RecommendedModules) == 0 {
			return catalog{}, fmt.Errorf("incomplete bundle for archetype %q", a)
		}
	}
	return c, nil
}

// Questions returns a copy of the fixed question catalogue.
func Questions() []Question {
	out := make([]Question, len(defaultCatalog.Questions))
	for i, q := range defaultCatalog.Questions {
		q.Options = append([]Option(nil), q.Options...)
		out[i] = q
	}
	return out
}

// BundleFor returns the content bundle for a. Unknown symbols resolve to the
// analytical bundle so the lookup never fails.
func BundleFor(a Archetype) Bundle {
	b, ok := defaultCatalog.Archetypes[a]
	if !ok {
		b = defaultCatalog.Archetypes[Analytical]
	}
	return Bundle{
		Title:              b.Title,
		Description:        b.Description,
		Strengths:          append([]string(nil), b.Strengths...),
		AreasToImprove:     append([]string(nil), b.AreasToImprove...),
		RecommendedModules: append([]string(nil), b.RecommendedModules...),
	}
}
