package llm

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/ak91singh/Rizz-academy/internal/model"
)

// ContextWindow is how many earlier messages are replayed to the model.
const ContextWindow = 10

// LoadPromptOverrides reads every <scenario_id>.txt in dir. A missing or empty
// dir yields no overrides.
func LoadPromptOverrides(dir string) (map[string]string, error) {
	out := make(map[string]string)
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return out, nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return out, nil
		}
		return nil, err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".txt" {
			continue
		}
		prompt := loadPromptFile(filepath.Join(dir, entry.Name()))
		if prompt == "" {
			continue
		}
		out[strings.TrimSuffix(entry.Name(), ".txt")] = prompt
	}
	return out, nil
}

func loadPromptFile(path string) string {
	raw, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(string(raw), "\uFEFF"))
}

// BuildUserTurn prefixes message with a transcript of the last ContextWindow
// messages of history.
func BuildUserTurn(history []model.ChatMessage, message string) string {
	if len(history) == 0 {
		return message
	}
	if len(history) > ContextWindow {
		history = history[len(history)-ContextWindow:]
	}
	var b strings.Builder
	b.WriteString("Previous conversation:\n")
	for _, msg := range history {
		speaker := "Her"
		if msg.Role == model.RoleUser {
			speaker = "User"
		}
		b.WriteString(speaker)
		b.WriteString(": ")
		b.WriteString(msg.Content)
		b.WriteString("\n")
	}
	b.WriteString("\nContinue the conversation:\n")
	b.WriteString(message)
	return b.String()
}
