package posts

import (
	"fmt"
	"strings"

	"github.com/adrg/frontmatter"
	"gopkg.in/yaml.v3"
)

// yamlFormat is the only front matter format recognized: a block opened and
// closed by "---" lines, decoded as YAML.
var yamlFormat = frontmatter.NewFormat("---", "---", yaml.Unmarshal)

// Field is a front matter value tagged with whether its key appeared at all.
// A key written with a null value ("title:") is present with an empty Value.
type Field struct {
	Value   string
	Present bool
}

// Or returns the field value, or fallback when the key was absent.
func (f Field) Or(fallback string) string {
	if !f.Present {
		return fallback
	}
	return f.Value
}

// Metadata is the decoded front matter block of a post.
type Metadata struct {
	Title Field
	Date  Field
	Extra map[string]any // keys other than title and date, decoded as-is
}

// UnmarshalYAML decodes a front matter mapping. Title and date keep the
// literal scalar text so that dates are never reformatted.
func (m *Metadata) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("front matter must be a mapping (line %d)", value.Line)
	}
	seen := make(map[string]bool, len(value.Content)/2)
	for i := 0; i+1 < len(value.Content); i += 2 {
		key, val := value.Content[i], value.Content[i+1]
		if seen[key.Value] {
			return fmt.Errorf("mapping key %q already defined (line %d)", key.Value, key.Line)
		}
		seen[key.Value] = true
		switch key.Value {
		case "title":
			f, err := scalarField(key.Value, val)
			if err != nil {
				return err
			}
			m.Title = f
		case "date":
			f, err := scalarField(key.Value, val)
			if err != nil {
				return err
			}
			m.Date = f
		default:
			var v any
			if err := val.Decode(&v); err != nil {
				return fmt.Errorf("%s: %w", key.Value, err)
			}
			if m.Extra == nil {
				m.Extra = make(map[string]any)
			}
			m.Extra[key.Value] = v
		}
	}
	return nil
}

func scalarField(name string, n *yaml.Node) (Field, error) {
	if n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	if n.Kind != yaml.ScalarNode {
		return Field{}, fmt.Errorf("%s: expected a scalar value (line %d)", name, n.Line)
	}
	if n.ShortTag() == "!!null" {
		return Field{Present: true}, nil
	}
	return Field{Value: n.Value, Present: true}, nil
}

// Parsed is a post split into its metadata and raw markdown body.
type Parsed struct {
	Metadata Metadata
	Body     string
}

// ParseFrontMatter splits a leading YAML front matter block from the markdown
// body. The block must open on the first line. Content without a block
// yields empty metadata and the whole input as body.
func ParseFrontMatter(raw string) (Parsed, error) {
	if !strings.HasPrefix(raw, "---") {
		return Parsed{Body: raw}, nil
	}
	var meta Metadata
	body, err := frontmatter.Parse(strings.NewReader(raw), &meta, yamlFormat)
	if err != nil {
		return Parsed{}, &FrontMatterError{Err: err}
	}
	return Parsed{Metadata: meta, Body: string(body)}, nil
}
