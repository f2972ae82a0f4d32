package docsite

import (
	"bytes"
	"context"
	"encoding/json"
	"sort"
)

// Manifest is the site navigation manifest.
// Only the navigation tree is used; other manifest settings are ignored.
type Manifest struct {
	Navigation []NavGroup `json:"navigation"`
}

// NavGroup is a named group of navigation entries.
type NavGroup struct {
	Group string     `json:"group" yaml:"group"`
	Pages []NavEntry `json:"pages" yaml:"pages"`
}

// NavEntry is either a page identifier or a nested group.
type NavEntry struct {
	Page  string
	Group *NavGroup
}

// IsGroup reports whether the entry is a nested group.
func (e NavEntry) IsGroup() bool {
	return e.Group != nil
}

// UnmarshalJSON accepts either a JSON string or a group object.
func (e *NavEntry) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &e.Page)
	}
	var g NavGroup
	if err := json.Unmarshal(data, &g); err != nil {
		return err
	}
	e.Group = &g
	return nil
}

// MarshalJSON writes the entry back in its manifest form.
func (e NavEntry) MarshalJSON() ([]byte, error) {
	if e.Group != nil {
		return json.Marshal(e.Group)
	}
	return json.Marshal(e.Page)
}

// UnmarshalYAML accepts either a scalar page identifier or a group mapping.
func (e *NavEntry) UnmarshalYAML(unmarshal func(any) error) error {
	var page string
	if err := unmarshal(&page); err == nil {
		e.Page = page
		return nil
	}
	var g NavGroup
	if err := unmarshal(&g); err != nil {
		return err
	}
	e.Group = &g
	return nil
}

// PageIDs returns the group's page identifiers in order, descending into
// nested groups.
func (g NavGroup) PageIDs() []string {
	var ids []string
	for _, e := range g.Pages {
		if e.IsGroup() {
			ids = append(ids, e.Group.PageIDs()...)
			continue
		}
		if e.Page != "" {
			ids = append(ids, e.Page)
		}
	}
	return ids
}

// PageRecord is one entry of the metadata artifact.
// Group and URL always win over header fields of the same name.
type PageRecord struct {
	Group  string
	URL    string
	Fields map[string]any
}

// Name returns the record's display name.
func (r *PageRecord) Name() string {
	s, _ := r.Fields["name"].(string)
	return s
}

// Popular reports whether the page is flagged as popular.
func (r *PageRecord) Popular() bool {
	b, _ := r.Fields["isPopular"].(bool)
	return b
}

// PopularityOrder returns the page's position among popular pages.
func (r *PageRecord) PopularityOrder() float64 {
	switch v := r.Fields["popularityOrder"].(type) {
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case float64:
		return v
	}
	return 0
}

// MarshalJSON writes the flat form {group, url, ...fields}.
func (r *PageRecord) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	if err := writeMember(&buf, "group", r.Group); err != nil {
		return nil, err
	}
	buf.WriteByte(',')
	if err := writeMember(&buf, "url", r.URL); err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(r.Fields))
	for k := range r.Fields {
		if k == "group" || k == "url" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		buf.WriteByte(',')
		if err := writeMember(&buf, k, r.Fields[k]); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads the flat form back into a record.
func (r *PageRecord) UnmarshalJSON(data []byte) error {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	r.Group, _ = m["group"].(string)
	r.URL, _ = m["url"].(string)
	delete(m, "group")
	delete(m, "url")
	r.Fields = m
	return nil
}

func writeMember(buf *bytes.Buffer, key string, value any) error {
	k, err := json.Marshal(key)
	if err != nil {
		return err
	}
	v, err := json.Marshal(value)
	if err != nil {
		return err
	}
	buf.Write(k)
	buf.WriteByte(':')
	buf.Write(v)
	return nil
}

// MetadataExtractor turns a navigation manifest into page records.
type MetadataExtractor interface {
	// Extract returns one record per referenced page in manifest order.
	// A missing page or malformed header aborts the whole extraction.
	Extract(ctx context.Context, manifest *Manifest) ([]*PageRecord, error)
}

// ArtifactWriter persists the extracted records.
// Save stages the records; Commit makes them visible; Abort discards them.
type ArtifactWriter interface {
	Save(ctx context.Context, records []*PageRecord) error
	Commit() error
	Abort() error
}
