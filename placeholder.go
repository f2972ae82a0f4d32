package docsite

import (
	"encoding/json"
	"strings"
)

// PlaceholderType selects the control rendered for a placeholder.
type PlaceholderType string

// Placeholder control types.
const (
	PlaceholderText   PlaceholderType = "text"
	PlaceholderSelect PlaceholderType = "select"
)

// Placeholder is a marker string in sample code that readers replace with
// their own value.
type Placeholder struct {
	Key     string          `yaml:"key"`
	Label   string          `yaml:"label"`
	Hint    string          `yaml:"hint"`
	Help    string          `yaml:"help"` // trusted HTML
	Type    PlaceholderType `yaml:"type"`
	Options []Option        `yaml:"options"`
}

// Option is one choice of a select placeholder.
type Option struct {
	Value string `yaml:"value"`
	Label string `yaml:"label"`
}

// IsSelect reports whether the placeholder renders as a dropdown.
func (p Placeholder) IsSelect() bool {
	return p.Type == PlaceholderSelect && len(p.Options) > 0
}

// DefaultPlaceholders returns the placeholders used across the documentation.
func DefaultPlaceholders() []Placeholder {
	return []Placeholder{
		{
			Key:   "AXIOM_DOMAIN",
			Label: "Edge domain",
			Hint:  "us-east-1.aws.edge.axiom.co",
			Help:  `The base domain of your edge deployment. For more information, see <a class="link" href="/reference/edge-deployments">Edge deployments</a>.`,
			Type:  PlaceholderSelect,
			Options: []Option{
				{Value: "", Label: "Select edge deployment..."},
				{Value: "us-east-1.aws.edge.axiom.co", Label: "US East 1 (AWS)"},
				{Value: "eu-central-1.aws.edge.axiom.co", Label: "EU Central 1 (AWS)"},
			},
		},
		{
			Key:   "API_TOKEN",
			Label: "API token",
			Hint:  "xaat-api-token",
			Help:  "The Axiom API token you have generated. For added security, store the API token in an environment variable.",
			Type:  PlaceholderText,
		},
		{
			Key:   "DATASET_NAME",
			Label: "Dataset name",
			Hint:  "dataset-name",
			Help:  "The name of the Axiom dataset where you send your data.",
			Type:  PlaceholderText,
		},
		{
			Key:   "ORGANIZATION_ID",
			Label: "Organization ID",
			Hint:  "org-id",
			Help:  `The ID of your Axiom organization. For more information, see <a class="link" href="/reference/tokens#determine-organization-id">Determine organization ID</a>.`,
			Type:  PlaceholderText,
		},
	}
}

// TokensIn returns the keys of placeholders occurring in text, in
// definition order.
func TokensIn(text string, placeholders []Placeholder) []string {
	var keys []string
	for _, p := range placeholders {
		if p.Key != "" && strings.Contains(text, p.Key) {
			keys = append(keys, p.Key)
		}
	}
	return keys
}

// Bindings maps placeholder keys to reader-supplied values.
type Bindings map[string]string

// Substitute replaces every literal occurrence of each key in keys with its
// bound value. Keys without a non-empty value are left in place.
func (b Bindings) Substitute(text string, keys []string) string {
	for _, k := range keys {
		if v := b[k]; v != "" {
			text = strings.ReplaceAll(text, k, v)
		}
	}
	return text
}

// Set binds key to value. A blank value removes the binding.
func (b Bindings) Set(key, value string) {
	if strings.TrimSpace(value) == "" {
		delete(b, key)
		return
	}
	b[key] = value
}

// LoadBindings reads bindings stored under PlaceholderStorageKey. A missing
// or unreadable blob yields empty bindings.
func LoadBindings(s Storage) (Bindings, error) {
	b := Bindings{}
	raw, ok, err := s.Get(PlaceholderStorageKey)
	if err != nil {
		return b, err
	}
	if !ok || raw == "" {
		return b, nil
	}
	if err := json.Unmarshal([]byte(raw), &b); err != nil {
		return Bindings{}, Errorf(EINVALID, "stored placeholder values: %v", err)
	}
	return b, nil
}

// SaveBindings writes b under PlaceholderStorageKey, removing the key when b
// is empty.
func SaveBindings(s Storage, b Bindings) error {
	if len(b) == 0 {
		return s.Remove(PlaceholderStorageKey)
	}
	data, err := json.Marshal(b)
	if err != nil {
		return err
	}
	return s.Set(PlaceholderStorageKey, string(data))
}

// Clone returns a copy of b.
func (b Bindings) Clone() Bindings {
	out := make(Bindings, len(b))
	for k, v := range b {
		out[k] = v
	}
	return out
}
