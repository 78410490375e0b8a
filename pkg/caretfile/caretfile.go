// Package caretfile reads and writes the surface, border and attribute files used by
// the flattening and areal estimation tools. Every file is a YAML document.
package caretfile

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// File name suffixes used by Store
const (
	CoordinateExt       = ".coord.yaml"
	TopologyExt         = ".topo.yaml"
	BorderExt           = ".border.yaml"
	BorderProjectionExt = ".borderproj.yaml"
	PaintExt            = ".paint.yaml"
	AreaColorExt        = ".areacolor.yaml"
	ArealEstimationExt  = ".areal.yaml"
)

// save marshals doc to path, creating the parent directory if needed
func save(doc interface{}, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating directory %s: %w", dir, err)
	}

	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("error marshaling %s: %w", path, err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("error writing %s: %w", path, err)
	}
	return nil
}

// load unmarshals the YAML document at path into doc
func load(path string, doc interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("error reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, doc); err != nil {
		return fmt.Errorf("error parsing %s: %w", path, err)
	}
	return nil
}

// flowNode encodes v as a single-line sequence or mapping
func flowNode(v interface{}) (interface{}, error) {
	var n yaml.Node
	if err := n.Encode(v); err != nil {
		return nil, err
	}
	n.Style = yaml.FlowStyle
	return &n, nil
}

type vec3 [3]float64

func (v vec3) MarshalYAML() (interface{}, error) { return flowNode([3]float64(v)) }

type triple [3]int

func (t triple) MarshalYAML() (interface{}, error) { return flowNode([3]int(t)) }

type intRow []int

func (r intRow) MarshalYAML() (interface{}, error) { return flowNode([]int(r)) }

// columnDoc is the header shared by paint and areal estimation columns
type columnDoc struct {
	Name     string `yaml:"name"`
	LongName string `yaml:"longName,omitempty"`
	Comment  string `yaml:"comment,omitempty"`
}

// checkIndex reports a name index that is outside the file's name table
func checkIndex(path string, node, index, numNames int) error {
	if index < 0 || index >= numNames {
		return fmt.Errorf("%s: node %d uses name index %d, file has %d names", path, node, index, numNames)
	}
	return nil
}
