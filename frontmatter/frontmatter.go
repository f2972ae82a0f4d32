// Package frontmatter reads the YAML header block of documentation pages.
package frontmatter

import (
	"bytes"

	"github.com/fwojciec/docsite"
	"gopkg.in/yaml.v3"
)

// Split separates the `---` delimited header from the page body.
// The header must open on the first line. Both LF and CRLF line endings
// are accepted.
func Split(content []byte) (header []byte, body []byte, err error) {
	content = bytes.TrimPrefix(content, []byte("\ufeff"))

	nl := "\n"
	if i := bytes.IndexByte(content, '\n'); i > 0 && content[i-1] == '\r' {
		nl = "\r\n"
	}

	open := []byte("---" + nl)
	if !bytes.HasPrefix(content, open) {
		return nil, nil, docsite.Errorf(docsite.EINVALID, "header block missing")
	}
	rest := content[len(open):]

	// Empty header: closing delimiter immediately follows.
	if isDelimiter(rest, 0, nl) {
		return nil, nil, docsite.Errorf(docsite.EINVALID, "header block empty")
	}

	idx := closingIndex(rest, nl)
	if idx < 0 {
		return nil, nil, docsite.Errorf(docsite.EINVALID, "header block not closed")
	}

	header = rest[:idx+len(nl)]
	body = rest[idx+len(nl)+len("---"):]
	body = bytes.TrimPrefix(body, []byte(nl))
	return header, body, nil
}

// closingIndex returns the offset of the newline preceding the closing
// delimiter line, or -1.
func closingIndex(rest []byte, nl string) int {
	sep := []byte(nl + "---")
	for from := 0; ; {
		i := bytes.Index(rest[from:], sep)
		if i < 0 {
			return -1
		}
		at := from + i
		if isDelimiter(rest, at+len(nl), nl) {
			return at
		}
		from = at + len(nl)
	}
}

// isDelimiter reports whether a whole `---` line starts at off.
func isDelimiter(b []byte, off int, nl string) bool {
	line := b[off:]
	if !bytes.HasPrefix(line, []byte("---")) {
		return false
	}
	tail := line[len("---"):]
	return len(tail) == 0 || bytes.HasPrefix(tail, []byte(nl))
}

// Parse decodes the header block of content into a map.
func Parse(content []byte) (map[string]any, error) {
	header, _, err := Split(content)
	if err != nil {
		return nil, err
	}

	var fields map[string]any
	if err := yaml.Unmarshal(header, &fields); err != nil {
		return nil, docsite.Errorf(docsite.EINVALID, "malformed header: %v", err)
	}
	if len(fields) == 0 {
		return nil, docsite.Errorf(docsite.EINVALID, "header block empty")
	}
	return fields, nil
}
