package frontmatter_test

import (
	"testing"

	"github.com/fwojciec/docsite"
	"github.com/fwojciec/docsite/frontmatter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		content    string
		wantHeader string
		wantBody   string
		wantErr    bool
	}{
		{
			name:       "LF header",
			content:    "---\ntitle: Vector\n---\n# Body\n",
			wantHeader: "title: Vector\n",
			wantBody:   "# Body\n",
		},
		{
			name:       "CRLF header",
			content:    "---\r\ntitle: Vector\r\n---\r\nBody",
			wantHeader: "title: Vector\r\n",
			wantBody:   "Body",
		},
		{
			name:       "header without body",
			content:    "---\ntitle: Vector\n---",
			wantHeader: "title: Vector\n",
			wantBody:   "",
		},
		{
			name:    "no header",
			content: "# Just markdown\n",
			wantErr: true,
		},
		{
			name:    "unterminated header",
			content: "---\ntitle: Vector\n# Body\n",
			wantErr: true,
		},
		{
			name:    "empty header",
			content: "---\n---\nBody",
			wantErr: true,
		},
		{
			name:       "lines starting with dashes stay in the header",
			content:    "---\ntitle: Vector\n----\n---note: kept\n---\nBody",
			wantHeader: "title: Vector\n----\n---note: kept\n",
			wantBody:   "Body",
		},
		{
			name:    "dashed line is not a closing delimiter",
			content: "---\ntitle: Vector\n---- Body\n",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			header, body, err := frontmatter.Split([]byte(tt.content))

			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, docsite.EINVALID, docsite.ErrorCode(err))
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantHeader, string(header))
			assert.Equal(t, tt.wantBody, string(body))
		})
	}
}

func TestParse(t *testing.T) {
	t.Parallel()

	t.Run("decodes header fields", func(t *testing.T) {
		t.Parallel()

		content := "---\ntitle: Send data from Vector\nsidebarTitle: Vector\nisPopular: true\npopularityOrder: 2\ntags:\n  - logs\n---\n\nBody text\n"

		fields, err := frontmatter.Parse([]byte(content))

		require.NoError(t, err)
		assert.Equal(t, "Send data from Vector", fields["title"])
		assert.Equal(t, "Vector", fields["sidebarTitle"])
		assert.Equal(t, true, fields["isPopular"])
		assert.Equal(t, 2, fields["popularityOrder"])
		assert.Equal(t, []any{"logs"}, fields["tags"])
	})

	t.Run("rejects malformed YAML", func(t *testing.T) {
		t.Parallel()

		_, err := frontmatter.Parse([]byte("---\ntitle: [unclosed\n---\n"))

		require.Error(t, err)
		assert.Equal(t, docsite.EINVALID, docsite.ErrorCode(err))
	})

	t.Run("rejects missing header", func(t *testing.T) {
		t.Parallel()

		_, err := frontmatter.Parse([]byte("no header here"))

		assert.Equal(t, docsite.EINVALID, docsite.ErrorCode(err))
	})
}
