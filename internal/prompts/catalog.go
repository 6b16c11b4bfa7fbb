package prompts

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var catalogYAML []byte

type QuickAction struct {
	ID     string `yaml:"id" json:"id"`
	Label  string `yaml:"label" json:"label"`
	Prompt string `yaml:"prompt" json:"prompt"`
}

type Catalog struct {
	WelcomeMessages []string `yaml:"welcome_messages"`
	QuickTips       []string `yaml:"quick_tips"`
	Starters        struct {
		Base      []string `yaml:"base"`
		Adventure string   `yaml:"adventure"`
		Culture   string   `yaml:"culture"`
		Budget    string   `yaml:"budget"`
	} `yaml:"starters"`
	SystemPrompt struct {
		Intro      string `yaml:"intro"`
		Guidelines string `yaml:"guidelines"`
	} `yaml:"system_prompt"`
	QuickActions []QuickAction `yaml:"quick_actions"`
	Checklist    string        `yaml:"checklist"`
}

func parseCatalog(b []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("prompts: parse catalog: %w", err)
	}
	if len(c.WelcomeMessages) == 0 || len(c.QuickTips) == 0 || c.SystemPrompt.Intro == "" {
		return nil, fmt.Errorf("prompts: catalog is incomplete")
	}
	return &c, nil
}

// defaultCatalog is parsed once at init; a broken embedded file is a build defect.
var defaultCatalog = func() *Catalog {
	c, err := parseCatalog(catalogYAML)
	if err != nil {
		panic(err)
	}
	return c
}()
