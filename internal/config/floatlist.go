package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// FloatList is a float slice that also accepts a bare YAML scalar, so
// `limit_list: 5` and `limit_list: [5, 5, 3]` both parse.
type FloatList []float64

func (l *FloatList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var v float64
		if err := node.Decode(&v); err != nil {
			return fmt.Errorf("decode scalar: %w", err)
		}
		*l = FloatList{v}
		return nil
	case yaml.SequenceNode:
		var vs []float64
		if err := node.Decode(&vs); err != nil {
			return fmt.Errorf("decode sequence: %w", err)
		}
		*l = FloatList(vs)
		return nil
	default:
		return fmt.Errorf("expected scalar or sequence, got yaml kind %d", node.Kind)
	}
}
