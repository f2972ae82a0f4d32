package goquery_test

import (
	"testing"

	"github.com/fwojciec/docsite"
	dsgoquery "github.com/fwojciec/docsite/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadMeta(t *testing.T) {
	t.Parallel()

	t.Run("reads token, dataset and debug", func(t *testing.T) {
		t.Parallel()

		doc := parse(t, `<html><head>
<meta name="axiom-analytics-token" content=" xaat-page ">
<meta name="axiom-analytics-dataset" content="docs-staging">
<meta name="axiom-analytics-debug" content="true">
</head><body></body></html>`)

		m := dsgoquery.ReadMeta(doc)

		assert.Equal(t, "xaat-page", m.Token)
		assert.Equal(t, "docs-staging", m.Dataset)
		require.NotNil(t, m.Debug)
		assert.True(t, *m.Debug)
	})

	t.Run("missing tags yield no overrides", func(t *testing.T) {
		t.Parallel()

		m := dsgoquery.ReadMeta(parse(t, `<html><head></head><body></body></html>`))

		assert.Empty(t, m.Token)
		assert.Empty(t, m.Dataset)
		assert.Nil(t, m.Debug)
	})

	t.Run("unparsable debug is ignored", func(t *testing.T) {
		t.Parallel()

		m := dsgoquery.ReadMeta(parse(t, `<html><head><meta name="axiom-analytics-debug" content="maybe"></head></html>`))

		assert.Nil(t, m.Debug)
	})
}

const linkPage = `<html><body>
<nav class="sidebar"><a href="/docs/intro">Intro</a></nav>
<main>
  <h1>Send data</h1>
  <p>See <a href="/docs/intro">the intro</a>.</p>
  <section>
    <h2>Install the SDK</h2>
    <div><p><a id="gh" href="https://github.com/axiomhq/axiom-go">  axiom-go  </a></p></div>
  </section>
</main>
<footer><a href="mailto:support@axiom.co">Support</a></footer>
<div><a id="lone" href="/docs/lone">Lone</a></div>
</body></html>`

func TestDescribeLink(t *testing.T) {
	t.Parallel()

	doc := parse(t, linkPage)

	tests := []struct {
		name     string
		selector string
		want     docsite.Link
	}{
		{
			name:     "navigation link",
			selector: "nav a",
			want:     docsite.Link{Href: "/docs/intro", Text: "Intro", Context: "navigation", Index: 1},
		},
		{
			name:     "content link shares href with navigation",
			selector: "main p a",
			want:     docsite.Link{Href: "/docs/intro", Text: "the intro", Context: "content", Section: "Send data", Index: 2},
		},
		{
			name:     "nearest heading inside a section",
			selector: "#gh",
			want:     docsite.Link{Href: "https://github.com/axiomhq/axiom-go", Text: "axiom-go", Context: "content", Section: "Install the SDK", Index: 1},
		},
		{
			name:     "footer link",
			selector: "footer a",
			want:     docsite.Link{Href: "mailto:support@axiom.co", Text: "Support", Context: "footer", Section: "Install the SDK", Index: 1},
		},
		{
			name:     "link outside any landmark takes the last heading before it",
			selector: "#lone",
			want:     docsite.Link{Href: "/docs/lone", Text: "Lone", Context: "other", Section: "Install the SDK", Index: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			sel := doc.Find(tt.selector)
			require.Equal(t, 1, sel.Length())

			assert.Equal(t, tt.want, dsgoquery.DescribeLink(sel))
		})
	}
}

func TestCodeLanguage(t *testing.T) {
	t.Parallel()

	doc := parse(t, `<html><body>
<div class="code-block" id="a"><button data-testid="copy-code-button">Copy</button><pre><code class="language-go">package main</code></pre></div>
<div class="code-block" id="b"><pre data-language="python"><button aria-label="Copy code">c</button>print()</pre></div>
<div class="code-block" id="c"><button data-testid="copy-code-button">Copy</button><pre>plain</pre></div>
<div id="d"><button data-testid="copy-code-button">Copy</button></div>
</body></html>`)

	assert.Equal(t, "go", dsgoquery.CodeLanguage(doc.Find("#a button")))
	assert.Equal(t, "python", dsgoquery.CodeLanguage(doc.Find("#b button")))
	assert.Equal(t, "unknown", dsgoquery.CodeLanguage(doc.Find("#c button")))
	assert.Equal(t, "unknown", dsgoquery.CodeLanguage(doc.Find("#d button")))
}

func TestCopyButton(t *testing.T) {
	t.Parallel()

	doc := parse(t, `<html><body>
<button data-testid="copy-code-button"><svg><path id="icon"></path></svg></button>
<button aria-label="Copy to clipboard" id="aria"><span id="inner">c</span></button>
<button id="other">Search</button>
</body></html>`)

	btn, ok := dsgoquery.CopyButton(doc.Find("#icon"))
	require.True(t, ok)
	assert.Equal(t, "copy-code-button", btn.AttrOr("data-testid", ""))

	btn, ok = dsgoquery.CopyButton(doc.Find("#inner"))
	require.True(t, ok)
	assert.Equal(t, "aria", btn.AttrOr("id", ""))

	_, ok = dsgoquery.CopyButton(doc.Find("#other"))
	assert.False(t, ok)
}

func TestIsSearchTrigger(t *testing.T) {
	t.Parallel()

	doc := parse(t, `<html><body>
<button id="search-bar-entry"><span id="label">Search...</span></button>
<div class="DocSearch-search-button"><kbd id="kbd">K</kbd></div>
<a id="plain" href="/docs">Docs</a>
</body></html>`)

	assert.True(t, dsgoquery.IsSearchTrigger(doc.Find("#label")))
	assert.True(t, dsgoquery.IsSearchTrigger(doc.Find("#kbd")))
	assert.False(t, dsgoquery.IsSearchTrigger(doc.Find("#plain")))
}
