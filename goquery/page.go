package goquery

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/docsite"
	"github.com/fwojciec/docsite/analytics"
)

// Meta tag names read by ReadMeta.
const (
	MetaToken   = "axiom-analytics-token"
	MetaDataset = "axiom-analytics-dataset"
	MetaDebug   = "axiom-analytics-debug"
)

const headingSelector = "h1, h2, h3, h4, h5, h6"

var languageClass = regexp.MustCompile(`language-(\w+)`)

// ReadMeta returns analytics overrides supplied by the page's meta tags.
func ReadMeta(doc *goquery.Document) analytics.MetaOverrides {
	var m analytics.MetaOverrides
	m.Token = strings.TrimSpace(metaContent(doc, MetaToken))
	m.Dataset = strings.TrimSpace(metaContent(doc, MetaDataset))
	if v := metaContent(doc, MetaDebug); v != "" {
		if debug, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			m.Debug = &debug
		}
	}
	return m
}

func metaContent(doc *goquery.Document, name string) string {
	return doc.Find(`meta[name="` + name + `"]`).First().AttrOr("content", "")
}

// DescribeLink returns what is known about a clicked anchor: where on the
// page it sits, the heading above it and its position among anchors with the
// same href.
func DescribeLink(a *goquery.Selection) docsite.Link {
	href := a.AttrOr("href", "")
	return docsite.Link{
		Href:    href,
		Text:    strings.TrimSpace(a.Text()),
		Context: linkContext(a),
		Section: nearestHeading(a),
		Index:   linkIndex(a, href),
	}
}

func linkContext(a *goquery.Selection) string {
	switch {
	case a.Closest(`nav, #navbar, #sidebar, [class*="nav"]`).Length() > 0:
		return "navigation"
	case a.Closest(`footer, [class*="footer"]`).Length() > 0:
		return "footer"
	case a.Closest(`main, article, [class*="content"]`).Length() > 0:
		return "content"
	}
	return "other"
}

// nearestHeading walks back through preceding siblings and then up through
// ancestors until it meets a heading.
func nearestHeading(sel *goquery.Selection) string {
	for current := sel; current.Length() > 0 && !current.Is("body"); current = current.Parent() {
		for sib := current.Prev(); sib.Length() > 0; sib = sib.Prev() {
			if sib.Is(headingSelector) {
				return clip(strings.TrimSpace(sib.Text()), 100)
			}
			if h := sib.Find(headingSelector); h.Length() > 0 {
				return clip(strings.TrimSpace(h.Last().Text()), 100)
			}
		}
	}
	return ""
}

func linkIndex(a *goquery.Selection, href string) int {
	if a.Length() == 0 {
		return 1
	}
	root := a.Parents().Last()
	if root.Length() == 0 {
		return 1
	}
	target := a.Get(0)
	index := 0
	found := 0
	root.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if s.AttrOr("href", "") != href {
			return true
		}
		index++
		if s.Get(0) == target {
			found = index
			return false
		}
		return true
	})
	return max(found, 1)
}

// CopyButton returns the copy control enclosing sel, if any.
func CopyButton(sel *goquery.Selection) (*goquery.Selection, bool) {
	if b := sel.Closest(copyButtonSelector + `, [class*="copy"]`); b.Length() > 0 {
		return b.First(), true
	}
	b := sel.Closest("button")
	if strings.Contains(strings.ToLower(b.AttrOr("aria-label", "")), "copy") {
		return b, true
	}
	return nil, false
}

// CodeLanguage returns the language of the code block a copy button belongs
// to, from a data-language attribute or a language-* class.
func CodeLanguage(button *goquery.Selection) string {
	block := button.Closest(`pre, [class*="code"]`)
	if block.Length() == 0 {
		return "unknown"
	}
	candidates := block.AddSelection(block.Find(`[data-language], [class*="language-"]`))
	lang := "unknown"
	candidates.EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if v := s.AttrOr("data-language", ""); v != "" {
			lang = v
			return false
		}
		if m := languageClass.FindStringSubmatch(s.AttrOr("class", "")); m != nil {
			lang = m[1]
			return false
		}
		return true
	})
	return lang
}

// IsSearchTrigger reports whether sel is, or sits inside, the search entry.
func IsSearchTrigger(sel *goquery.Selection) bool {
	return sel.Closest(`#search-bar-entry, #search-bar-entry-mobile, [class*="search"]`).Length() > 0
}

func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
