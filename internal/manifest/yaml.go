package manifest

import (
	"bytes"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/rohankatakam/semrel/internal/errors"
	"github.com/rohankatakam/semrel/internal/version"
)

// YAML is a manifest such as a Helm Chart.yaml or pubspec.yaml.
type YAML struct {
	path string
	key  []string
}

func (y *YAML) Path() string { return y.path }

func (y *YAML) load() (*yaml.Node, error) {
	data, err := read(y.path)
	if err != nil {
		return nil, err
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.ValidationErrorf("invalid %s: %v", y.path, err)
	}
	return &doc, nil
}

// lookup walks the mapping nodes along the key path.
func (y *YAML) lookup(doc *yaml.Node) (*yaml.Node, error) {
	node := doc
	if node.Kind == yaml.DocumentNode && len(node.Content) > 0 {
		node = node.Content[0]
	}
	for _, k := range y.key {
		if node.Kind != yaml.MappingNode {
			return nil, errors.ValidationErrorf("%s: %s is not a mapping", y.path, k)
		}
		var next *yaml.Node
		for i := 0; i+1 < len(node.Content); i += 2 {
			if node.Content[i].Value == k {
				next = node.Content[i+1]
				break
			}
		}
		if next == nil {
			return nil, errors.ValidationErrorf("%s has no %s", y.path, strings.Join(y.key, "."))
		}
		node = next
	}
	if node.Kind != yaml.ScalarNode {
		return nil, errors.ValidationErrorf("%s: %s is not a scalar", y.path, strings.Join(y.key, "."))
	}
	return node, nil
}

func (y *YAML) Version() (version.Version, error) {
	doc, err := y.load()
	if err != nil {
		return version.Version{}, err
	}
	node, err := y.lookup(doc)
	if err != nil {
		return version.Version{}, err
	}
	return version.Parse(node.Value)
}

func (y *YAML) SetVersion(v version.Version) error {
	doc, err := y.load()
	if err != nil {
		return err
	}
	node, err := y.lookup(doc)
	if err != nil {
		return err
	}
	node.Value = v.String()
	node.Tag = "!!str"

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return errors.InternalErrorf("encode %s: %v", y.path, err)
	}
	if err := enc.Close(); err != nil {
		return errors.InternalErrorf("encode %s: %v", y.path, err)
	}
	return write(y.path, buf.Bytes())
}
