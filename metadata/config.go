package metadata

import (
	"os"

	"github.com/fwojciec/docsite"
	"gopkg.in/yaml.v3"
)

// Config is the on-disk extractor configuration.
type Config struct {
	Manifest    string                    `yaml:"manifest"`
	BaseURL     string                    `yaml:"base_url"`
	Section     int                       `yaml:"section"`
	Extension   string                    `yaml:"extension"`
	Output      string                    `yaml:"output"`
	ExtraGroups []docsite.NavGroup        `yaml:"extra_groups"`
	Rename      map[string]string         `yaml:"rename"`
	Overrides   map[string]map[string]any `yaml:"overrides"`
}

// DefaultConfig mirrors the documentation site layout.
func DefaultConfig() *Config {
	return &Config{
		Manifest:  "mint.json",
		BaseURL:   "https://axiom.co/docs",
		Section:   1,
		Extension: DefaultExtension,
		Output:    "ingest-options.json",
		ExtraGroups: []docsite.NavGroup{
			{
				Group: "Apps & Integrations",
				Pages: pages("apps/cloudflare-logpush", "apps/netlify", "apps/tailscale", "apps/vercel"),
			},
			{
				Group: "Other",
				Pages: pages("restapi/introduction", "reference/cli"),
			},
		},
		Rename: DefaultRename(),
		Overrides: map[string]map[string]any{
			"restapi/introduction": {"name": "REST API"},
		},
	}
}

// LoadConfig reads a YAML config file on top of DefaultConfig.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, docsite.Errorf(docsite.ENOTFOUND, "config %q: %v", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, docsite.Errorf(docsite.EINVALID, "config %q: %v", path, err)
	}
	return cfg, nil
}

func pages(ids ...string) []docsite.NavEntry {
	entries := make([]docsite.NavEntry, len(ids))
	for i, id := range ids {
		entries[i] = docsite.NavEntry{Page: id}
	}
	return entries
}
