package explain

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"

	"algoscope/internal/patterns"
)

//go:embed prompts.toml
var promptsTOML string

// Prompt is the system prompt and user message template for one pattern.
type Prompt struct {
	System       string `toml:"system"`
	UserTemplate string `toml:"user_template"`
}

// Catalogue holds the per-pattern prompts.
type Catalogue struct {
	Default  Prompt            `toml:"default"`
	Patterns map[string]Prompt `toml:"patterns"`
}

// LoadCatalogue decodes a prompt catalogue. Pattern entries inherit missing
// fields from the default entry.
func LoadCatalogue(data string) (*Catalogue, error) {
	var c Catalogue
	md, err := toml.Decode(data, &c)
	if err != nil {
		return nil, fmt.Errorf("decode prompt catalogue: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown prompt catalogue keys: %v", undecoded)
	}
	if c.Default.System == "" || c.Default.UserTemplate == "" {
		return nil, fmt.Errorf("prompt catalogue needs a default system prompt and user template")
	}
	for name := range c.Patterns {
		if !patterns.Kind(name).Valid() {
			return nil, fmt.Errorf("prompt catalogue names unknown pattern %q", name)
		}
	}
	return &c, nil
}

// DefaultCatalogue returns the embedded catalogue.
func DefaultCatalogue() *Catalogue {
	c, err := LoadCatalogue(promptsTOML)
	if err != nil {
		panic(err)
	}
	return c
}

// For returns the prompt for a pattern, falling back to the default entry.
func (c *Catalogue) For(kind patterns.Kind) Prompt {
	p, ok := c.Patterns[string(kind)]
	if !ok {
		return c.Default
	}
	if p.System == "" {
		p.System = c.Default.System
	}
	if p.UserTemplate == "" {
		p.UserTemplate = c.Default.UserTemplate
	}
	return p
}

// User renders the user message for one step.
func (p Prompt) User(code, changes string) string {
	r := strings.NewReplacer("{code}", code, "{changes}", changes)
	return r.Replace(p.UserTemplate)
}
