// Package ctxparse maps line numbers of structured files to the key path of
// the value on that line, so a match in a JSON or YAML document can say which
// field held the card number.
package ctxparse

import (
	"encoding/json"
	"path/filepath"
	"strconv"
	"strings"

	yaml "gopkg.in/yaml.v3"
)

// Field is a scalar value and the 1-based line it starts on. Key is a dotted
// path with [i] for sequence elements, e.g. "orders[0].card".
type Field struct {
	Key   string
	Value string
	Line  int
}

// Supported reports whether path has an extension Fields understands.
func Supported(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		return true
	}
	return false
}

// Fields parses b according to the extension of path. Documents that do not
// parse yield nil.
func Fields(path string, b []byte) []Field {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return JSONFields(b)
	case ".yaml", ".yml":
		return YAMLFields(b)
	}
	return nil
}

// JSONFields returns the scalar fields of a JSON document. encoding/json
// carries no positions, so a valid document is walked as YAML, which is a
// superset of JSON and keeps line numbers.
func JSONFields(b []byte) []Field {
	if !json.Valid(b) {
		return nil
	}
	return YAMLFields(b)
}

// YAMLFields flattens every scalar of the first document in b.
func YAMLFields(b []byte) []Field {
	var root yaml.Node
	if err := yaml.Unmarshal(b, &root); err != nil {
		return nil
	}
	var out []Field
	var walk func(n *yaml.Node, path string)
	walk = func(n *yaml.Node, path string) {
		switch n.Kind {
		case yaml.DocumentNode:
			for _, c := range n.Content {
				walk(c, path)
			}
		case yaml.MappingNode:
			for i := 0; i+1 < len(n.Content); i += 2 {
				key := n.Content[i].Value
				if path != "" {
					key = path + "." + key
				}
				walk(n.Content[i+1], key)
			}
		case yaml.SequenceNode:
			for i, c := range n.Content {
				walk(c, path+"["+strconv.Itoa(i)+"]")
			}
		case yaml.AliasNode:
			if n.Alias != nil && n.Alias.Kind == yaml.ScalarNode {
				out = append(out, Field{Key: path, Value: n.Alias.Value, Line: n.Line})
			}
		case yaml.ScalarNode:
			if path != "" {
				out = append(out, Field{Key: path, Value: n.Value, Line: n.Line})
			}
		}
	}
	walk(&root, "")
	return out
}

// KeysByLine indexes fields by line. When several scalars share a line, the
// keys are joined with ", " in document order.
func KeysByLine(fields []Field) map[int]string {
	out := make(map[int]string, len(fields))
	for _, f := range fields {
		if prev, ok := out[f.Line]; ok {
			out[f.Line] = prev + ", " + f.Key
			continue
		}
		out[f.Line] = f.Key
	}
	return out
}
