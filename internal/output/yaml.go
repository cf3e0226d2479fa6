package output

import (
	"bytes"
	"encoding/json"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// YAMLFormatter renders results as YAML.
type YAMLFormatter struct{}

// Format renders a result as YAML. Values go through JSON first so that
// big integers keep every digit.
func (f *YAMLFormatter) Format(result *Result) (string, error) {
	if result == nil {
		return "", nil
	}

	raw, err := json.Marshal(result)
	if err != nil {
		return "", err
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var generic any
	if err := dec.Decode(&generic); err != nil {
		return "", err
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(toYAML(generic)); err != nil {
		return "", err
	}
	if err := enc.Close(); err != nil {
		return "", err
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}

// toYAML converts decoded JSON into a yaml.Node tree. Numbers are emitted
// untagged so digits are written verbatim regardless of size.
func toYAML(v any) *yaml.Node {
	switch value := v.(type) {
	case map[string]any:
		node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for _, key := range orderedKeys(value) {
			node.Content = append(node.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
				toYAML(value[key]))
		}
		return node
	case []any:
		node := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq", Style: yaml.FlowStyle}
		for _, item := range value {
			child := toYAML(item)
			if child.Kind != yaml.ScalarNode {
				node.Style = 0
			}
			node.Content = append(node.Content, child)
		}
		return node
	case json.Number:
		return &yaml.Node{Kind: yaml.ScalarNode, Value: string(value)}
	case string:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value}
	case bool:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: strconv.FormatBool(value)}
	default:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
	}
}

// orderedKeys keeps Result's field order first, then the rest sorted.
func orderedKeys(m map[string]any) []string {
	preferred := []string{"operation", "input", "data", "error"}
	keys := make([]string, 0, len(m))
	seen := make(map[string]bool, len(m))
	for _, key := range preferred {
		if _, ok := m[key]; ok {
			keys = append(keys, key)
			seen[key] = true
		}
	}
	rest := make([]string, 0, len(m))
	for key := range m {
		if !seen[key] {
			rest = append(rest, key)
		}
	}
	sort.Strings(rest)
	return append(keys, rest...)
}
