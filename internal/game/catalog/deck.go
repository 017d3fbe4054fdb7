package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DeckFile represents the top-level YAML structure.
type DeckFile struct {
	Decks []DeckEntry `yaml:"decks"`
}

// DeckEntry represents a single named deck in the YAML file.
type DeckEntry struct {
	Name  string      `yaml:"name"`
	Cards []CardEntry `yaml:"cards"`
}

// CardEntry represents a template id and its count in a deck.
type CardEntry struct {
	ID    string `yaml:"id"`
	Count int    `yaml:"count"`
}

// ParseDeckFile parses a YAML deck file and returns deck name -> template ids.
func ParseDeckFile(path string) (map[string][]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseDecks(data)
}

// ParseDecks parses YAML deck data. Every id must exist in the catalog.
func ParseDecks(data []byte) (map[string][]string, error) {
	var df DeckFile
	if err := yaml.Unmarshal(data, &df); err != nil {
		return nil, fmt.Errorf("parse deck YAML: %w", err)
	}

	decks := make(map[string][]string, len(df.Decks))
	for _, deck := range df.Decks {
		if deck.Name == "" {
			return nil, fmt.Errorf("deck without a name")
		}
		var ids []string
		for _, entry := range deck.Cards {
			if _, ok := Lookup(entry.ID); !ok {
				return nil, fmt.Errorf("deck %q: unknown card %q", deck.Name, entry.ID)
			}
			if entry.Count < 1 {
				return nil, fmt.Errorf("deck %q: card %q has count %d", deck.Name, entry.ID, entry.Count)
			}
			for i := 0; i < entry.Count; i++ {
				ids = append(ids, entry.ID)
			}
		}
		if len(ids) == 0 {
			return nil, fmt.Errorf("deck %q is empty", deck.Name)
		}
		decks[deck.Name] = ids
	}

	return decks, nil
}
