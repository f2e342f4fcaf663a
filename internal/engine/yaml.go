package engine

import (
	"encoding/json"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// DecodeYAMLBytes decodes the first YAML document in data into the generic
// value tree used for JSON. Mapping order is preserved.
func DecodeYAMLBytes(data []byte, opt Options) (any, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, issueErr("parse_error", "/", err.Error())
	}
	if doc.Kind == 0 {
		return nil, issueErr("parse_error", "/", "empty input")
	}
	d := &yamlWalker{opt: opt}
	return d.node(&doc, "")
}

type yamlWalker struct {
	opt   Options
	depth int
}

func (w *yamlWalker) node(n *yaml.Node, path string) (any, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return w.node(n.Content[0], path)
	case yaml.AliasNode:
		return w.node(n.Alias, path)
	case yaml.MappingNode:
		return w.mapping(n, path)
	case yaml.SequenceNode:
		return w.sequence(n, path)
	case yaml.ScalarNode:
		return scalar(n, path)
	default:
		return nil, issueErr("parse_error", path, "unsupported yaml node")
	}
}

func (w *yamlWalker) enter(path string) error {
	w.depth++
	if w.opt.MaxDepth > 0 && w.depth > w.opt.MaxDepth {
		return issueErr("parse_error", path, "max depth exceeded")
	}
	return nil
}

func (w *yamlWalker) mapping(n *yaml.Node, path string) (any, error) {
	if err := w.enter(path); err != nil {
		return nil, err
	}
	defer func() { w.depth-- }()
	obj := NewObject(len(n.Content) / 2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		key := n.Content[i].Value
		child := path + "/" + escapePointer(key)
		if obj.Has(key) && w.opt.OnDuplicate == DupError {
			return nil, issueErr("duplicate_key", child, "key '"+key+"' duplicated")
		}
		v, err := w.node(n.Content[i+1], child)
		if err != nil {
			return nil, err
		}
		obj.Set(key, v)
	}
	return obj, nil
}

func (w *yamlWalker) sequence(n *yaml.Node, path string) (any, error) {
	if err := w.enter(path); err != nil {
		return nil, err
	}
	defer func() { w.depth-- }()
	arr := make([]any, 0, len(n.Content))
	for i, c := range n.Content {
		v, err := w.node(c, path+"/"+strconv.Itoa(i))
		if err != nil {
			return nil, err
		}
		arr = append(arr, v)
	}
	return arr, nil
}

func scalar(n *yaml.Node, path string) (any, error) {
	switch n.ShortTag() {
	case "!!null":
		return nil, nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return nil, issueErr("parse_error", path, err.Error())
		}
		return b, nil
	case "!!int":
		var i int64
		if err := n.Decode(&i); err != nil {
			return nil, issueErr("parse_error", path, err.Error())
		}
		return json.Number(strconv.FormatInt(i, 10)), nil
	case "!!float":
		switch strings.ToLower(n.Value) {
		case ".inf", "+.inf":
			return "inf", nil
		case "-.inf":
			return "-inf", nil
		case ".nan":
			return "nan", nil
		}
		v := strings.ReplaceAll(n.Value, "_", "")
		if _, err := strconv.ParseFloat(v, 64); err != nil {
			return nil, issueErr("parse_error", path, err.Error())
		}
		return json.Number(v), nil
	default:
		return n.Value, nil
	}
}
