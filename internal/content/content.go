package content

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed content.yaml
var contentRawYAML []byte

// Achievement metrics.
const (
	MetricXP             = "xp"
	MetricLevel          = "level"
	MetricStreakDays     = "streak_days"
	MetricJournalEntries = "journal_entries"
	MetricChatMessages   = "chat_messages"
	MetricQuizCompleted  = "quiz_completed"
)

var knownMetrics = map[string]struct{}{
	MetricXP:             {},
	MetricLevel:          {},
	MetricStreakDays:     {},
	MetricJournalEntries: {},
	MetricChatMessages:   {},
	MetricQuizCompleted:  {},
}

// Scenario is a role-play setting for practice chat.
type Scenario struct {
	ID           string `yaml:"id" json:"id"`
	Name         string `yaml:"name" json:"name"`
	Description  string `yaml:"description" json:"description"`
	SystemPrompt string `yaml:"system_prompt" json:"-"`
}

type AchievementRule struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Metric      string `yaml:"metric"`
	Target      int    `yaml:"target"`
}

// Catalog is immutable after load.
type Catalog struct {
	scenarios      []Scenario
	scenarioByID   map[string]int
	journalPrompts map[string][]string
	achievements   []AchievementRule
}

type rawCatalog struct {
	Scenarios      []Scenario          `yaml:"scenarios"`
	JournalPrompts map[string][]string `yaml:"journal_prompts"`
	Achievements   []AchievementRule   `yaml:"achievements"`
}

var defaultCatalog = mustLoad(contentRawYAML)

// Default returns the embedded catalogue.
func Default() *Catalog {
	return defaultCatalog
}

func mustLoad(raw []byte) *Catalog {
	c, err := Load(raw)
	if err != nil {
		panic(fmt.Sprintf("content: invalid embedded catalogue: %v", err))
	}
	return c
}

// Load parses and validates a YAML catalogue.
func Load(raw []byte) (*Catalog, error) {
	var rc rawCatalog
	if err := yaml.Unmarshal(raw, &rc); err != nil {
		return nil, err
	}
	if len(rc.Scenarios) == 0 {
		return nil, fmt.Errorf("no scenarios")
	}
	c := &Catalog{
		scenarios:      make([]Scenario, 0, len(rc.Scenarios)),
		scenarioByID:   make(map[string]int, len(rc.Scenarios)),
		journalPrompts: make(map[string][]string, len(rc.JournalPrompts)),
		achievements:   make([]AchievementRule, 0, len(rc.Achievements)),
	}
	for _, s := range rc.Scenarios {
		s.ID = strings.TrimSpace(s.ID)
		if s.ID == "" || strings.TrimSpace(s.SystemPrompt) == "" {
			return nil, fmt.Errorf("scenario %q is incomplete", s.ID)
		}
		if _, dup := c.scenarioByID[s.ID]; dup {
			return nil, fmt.Errorf("duplicate scenario %q", s.ID)
		}
		c.scenarioByID[s.ID] = len(c.scenarios)
		c.scenarios = append(c.scenarios, s)
	}
	for kind, prompts := range rc.JournalPrompts {
		if len(prompts) == 0 {
			return nil, fmt.Errorf("journal prompt type %q is empty", kind)
		}
		c.journalPrompts[kind] = prompts
	}
	seen := make(map[string]struct{}, len(rc.Achievements))
	for _, a := range rc.Achievements {
		if _, ok := knownMetrics[a.Metric]; !ok {
			return nil, fmt.Errorf("achievement %q has unknown metric %q", a.ID, a.Metric)
		}
		if a.ID == "" || a.Target <= 0 {
			return nil, fmt.Errorf("achievement %q is incomplete", a.ID)
		}
		if _, dup := seen[a.ID]; dup {
			return nil, fmt.Errorf("duplicate achievement %q", a.ID)
		}
		seen[a.ID] = struct{}{}
		c.achievements = append(c.achievements, a)
	}
	return c, nil
}

// WithPromptOverrides returns a copy whose scenario system prompts are replaced
// by the non-empty entries of overrides. Unknown ids are ignored.
func (c *Catalog) WithPromptOverrides(overrides map[string]string) *Catalog {
	out := *c
	out.scenarios = append([]Scenario(nil), c.scenarios...)
	for id, prompt := range overrides {
		idx, ok := out.scenarioByID[id]
		if !ok || strings.TrimSpace(prompt) == "" {
			continue
		}
		out.scenarios[idx].SystemPrompt = prompt
	}
	return &out
}

func (c *Catalog) Scenarios() []Scenario {
	return append([]Scenario(nil), c.scenarios...)
}

func (c *Catalog) Scenario(id string) (Scenario, bool) {
	idx, ok := c.scenarioByID[strings.TrimSpace(id)]
	if !ok {
		return Scenario{}, false
	}
	return c.scenarios[idx], true
}

func (c *Catalog) JournalPrompts() map[string][]string {
	out := make(map[string][]string, len(c.journalPrompts))
	for kind, prompts := range c.journalPrompts {
		out[kind] = append([]string(nil), prompts...)
	}
	return out
}

func (c *Catalog) Achievements() []AchievementRule {
	return append([]AchievementRule(nil), c.achievements...)
}
