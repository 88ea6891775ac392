// Package chat implements the text conversation layer: persona-flavored
// replies built from per-channel history and produced by an LLM provider,
// plus per-user message queues for composing multi-part prompts.
package chat

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/antzucaro/matchr"
	"gopkg.in/yaml.v3"
)

// maxSuggestDistance is the largest Levenshtein distance at which a persona
// name is offered as a "did you mean" suggestion.
const maxSuggestDistance = 3

// DefaultPersona is the persona used until a channel picks another one.
const DefaultPersona = "assistant"

// Persona is a named system prompt.
type Persona struct {
	// Name is the unique persona identifier, lowercase.
	Name string `yaml:"name"`

	// Prompt is the system prompt injected ahead of the conversation.
	Prompt string `yaml:"prompt"`

	// Restricted personas can only be selected by server admins.
	Restricted bool `yaml:"restricted"`
}

// Personas is a lookup table of available personas.
type Personas struct {
	byName map[string]Persona
}

// defaultPersonas ship with the bot and can be overridden by a YAML file.
var defaultPersonas = []Persona{
	{
		Name:   "assistant",
		Prompt: "You are a helpful, concise assistant in a Discord server. Keep replies short and conversational.",
	},
	{
		Name:   "pirate",
		Prompt: "You are a boisterous pirate captain. Answer every question in pirate speak, but keep the answers accurate.",
	},
	{
		Name:   "poet",
		Prompt: "You answer everything as a short poem, four lines at most, while staying factually correct.",
	},
	{
		Name:       "roastmaster",
		Prompt:     "You are a sharp-tongued comedy roaster. Tease the people you talk to mercilessly but never cruelly.",
		Restricted: true,
	},
}

// NewPersonas returns the built-in persona set.
func NewPersonas() *Personas {
	p := &Personas{byName: make(map[string]Persona, len(defaultPersonas))}
	for _, persona := range defaultPersonas {
		p.byName[persona.Name] = persona
	}
	return p
}

// LoadPersonas returns the built-in set overlaid with the personas from the
// given YAML file. File entries replace built-ins with the same name.
//
// The file is a list of persona objects:
//
//	- name: librarian
//	  prompt: You are a soft-spoken librarian...
//	  restricted: false
func LoadPersonas(path string) (*Personas, error) {
	p := NewPersonas()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("chat: read persona file: %w", err)
	}

	var overlay []Persona
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return nil, fmt.Errorf("chat: parse persona file %s: %w", path, err)
	}

	for _, persona := range overlay {
		persona.Name = strings.ToLower(strings.TrimSpace(persona.Name))
		if persona.Name == "" {
			return nil, fmt.Errorf("chat: persona file %s: entry with empty name", path)
		}
		if persona.Prompt == "" {
			return nil, fmt.Errorf("chat: persona file %s: persona %q has no prompt", path, persona.Name)
		}
		p.byName[persona.Name] = persona
	}
	return p, nil
}

// Get looks up a persona by name. For unknown names the error suggests the
// closest known persona when one is within edit distance.
func (p *Personas) Get(name string) (Persona, error) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	if persona, ok := p.byName[normalized]; ok {
		return persona, nil
	}

	if suggestion := p.closest(normalized); suggestion != "" {
		return Persona{}, fmt.Errorf("chat: unknown persona %q, did you mean %q?", name, suggestion)
	}
	return Persona{}, fmt.Errorf("chat: unknown persona %q", name)
}

// Names returns all persona names sorted alphabetically. Restricted personas
// are included only when includeRestricted is set.
func (p *Personas) Names(includeRestricted bool) []string {
	names := make([]string, 0, len(p.byName))
	for name, persona := range p.byName {
		if persona.Restricted && !includeRestricted {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// closest returns the known persona name nearest to the given one, or ""
// when nothing is close enough.
func (p *Personas) closest(name string) string {
	best := ""
	bestDist := maxSuggestDistance + 1
	for candidate := range p.byName {
		if d := matchr.Levenshtein(name, candidate); d < bestDist {
			best = candidate
			bestDist = d
		}
	}
	return best
}
