// Package metadata builds the page metadata artifact from the navigation
// manifest and the header block of every referenced page.
package metadata

import (
	"context"
	"encoding/json"
	"io/fs"
	"path"
	"strings"

	"github.com/fwojciec/docsite"
	"github.com/fwojciec/docsite/frontmatter"
	"golang.org/x/sync/errgroup"
)

// DefaultExtension is appended to page identifiers to find page files.
const DefaultExtension = ".mdx"

var _ docsite.MetadataExtractor = (*Extractor)(nil)

// Extractor reads page headers referenced by a manifest section.
type Extractor struct {
	// FS is rooted at the documentation source directory.
	FS fs.FS

	// BaseURL prefixes every page identifier to form the record URL.
	BaseURL string

	// Section selects the navigation entry whose groups are extracted.
	Section int

	// Extension is the page file extension. Defaults to DefaultExtension.
	Extension string

	// Extra groups are appended after the manifest groups.
	Extra []docsite.NavGroup

	// Rename maps header field names to record field names.
	// Nil means DefaultRename.
	Rename map[string]string

	// Overrides sets record fields per page identifier after renaming.
	Overrides map[string]map[string]any

	// Concurrency limits parallel page reads. Defaults to 10.
	Concurrency int
}

// DefaultRename returns the header renames applied when none are configured.
func DefaultRename() map[string]string {
	return map[string]string{"sidebarTitle": "name"}
}

type pageRef struct {
	group string
	id    string
}

// Extract returns one record per page of the selected section's groups
// followed by the extra groups, in manifest order.
func (e *Extractor) Extract(ctx context.Context, manifest *docsite.Manifest) ([]*docsite.PageRecord, error) {
	groups, err := e.groups(manifest)
	if err != nil {
		return nil, err
	}

	var refs []pageRef
	for _, g := range groups {
		for _, id := range g.PageIDs() {
			refs = append(refs, pageRef{group: g.Group, id: id})
		}
	}

	concurrency := e.Concurrency
	if concurrency <= 0 {
		concurrency = 10
	}

	records := make([]*docsite.PageRecord, len(refs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, ref := range refs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rec, err := e.readPage(ref)
			if err != nil {
				return err
			}
			records[i] = rec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return records, nil
}

func (e *Extractor) groups(manifest *docsite.Manifest) ([]docsite.NavGroup, error) {
	if manifest == nil {
		return nil, docsite.Errorf(docsite.EINVALID, "manifest required")
	}
	if e.Section < 0 || e.Section >= len(manifest.Navigation) {
		return nil, docsite.Errorf(docsite.EINVALID, "navigation section %d not found (manifest has %d)", e.Section, len(manifest.Navigation))
	}

	// Only groups of the section are extracted; loose pages at the section
	// level are not ingest options.
	var groups []docsite.NavGroup
	for _, entry := range manifest.Navigation[e.Section].Pages {
		if entry.IsGroup() {
			groups = append(groups, *entry.Group)
		}
	}
	return append(groups, e.Extra...), nil
}

func (e *Extractor) readPage(ref pageRef) (*docsite.PageRecord, error) {
	ext := e.Extension
	if ext == "" {
		ext = DefaultExtension
	}
	name := path.Clean(strings.TrimPrefix(ref.id, "/")) + ext

	content, err := fs.ReadFile(e.FS, name)
	if err != nil {
		return nil, docsite.Errorf(docsite.ENOTFOUND, "page %q: %v", ref.id, err)
	}

	fields, err := frontmatter.Parse(content)
	if err != nil {
		return nil, docsite.Errorf(docsite.EINVALID, "page %q: %s", ref.id, docsite.ErrorMessage(err))
	}

	rename := e.Rename
	if rename == nil {
		rename = DefaultRename()
	}
	for from, to := range rename {
		if v, ok := fields[from]; ok {
			delete(fields, from)
			fields[to] = v
		}
	}
	for k, v := range e.Overrides[ref.id] {
		fields[k] = v
	}

	return &docsite.PageRecord{
		Group:  ref.group,
		URL:    PageURL(e.BaseURL, ref.id),
		Fields: fields,
	}, nil
}

// PageURL joins the base URL and a page identifier.
func PageURL(baseURL, id string) string {
	return strings.TrimSuffix(baseURL, "/") + "/" + strings.TrimPrefix(id, "/")
}

// LoadManifest reads a JSON navigation manifest from fsys.
func LoadManifest(fsys fs.FS, name string) (*docsite.Manifest, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, docsite.Errorf(docsite.ENOTFOUND, "manifest %q: %v", name, err)
	}
	var m docsite.Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, docsite.Errorf(docsite.EINVALID, "manifest %q: %v", name, err)
	}
	return &m, nil
}
