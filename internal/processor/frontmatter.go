package processor

import (
	"bytes"

	"gopkg.in/yaml.v3"
)

// splitFrontMatter detects and strips YAML front matter delimited by "---"
// lines at the top of the content. It returns the body, the byte offset of
// the body within the original content, and the raw front matter (nil when
// absent).
func splitFrontMatter(content []byte) (body []byte, bodyOffset int, raw []byte) {
	lines := bytes.SplitAfter(content, []byte("\n"))
	if len(lines) < 2 || !bytes.Equal(bytes.TrimSpace(lines[0]), []byte("---")) {
		return content, 0, nil
	}

	offset := len(lines[0])
	for i := 1; i < len(lines); i++ {
		if bytes.Equal(bytes.TrimSpace(lines[i]), []byte("---")) {
			rawStart := len(lines[0])
			rawEnd := offset
			bodyStart := offset + len(lines[i])
			return content[bodyStart:], bodyStart, content[rawStart:rawEnd]
		}
		offset += len(lines[i])
	}

	// No closing delimiter; treat the whole file as body.
	return content, 0, nil
}

// parseFrontMatter unmarshals raw YAML front matter into a generic map.
func parseFrontMatter(raw []byte) (map[string]any, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	out := map[string]any{}
	if err := yaml.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}
