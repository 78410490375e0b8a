package caretfile

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"caretflat/internal/models"
)

type linkDoc struct {
	Pos    vec3    `yaml:"pos"`
	Radius float64 `yaml:"radius,omitempty"`
}

type borderDoc struct {
	Name        string    `yaml:"name"`
	Closed      bool      `yaml:"closed,omitempty"`
	Uncertainty float64   `yaml:"uncertainty,omitempty"`
	Links       []linkDoc `yaml:"links"`
}

type borderFileDoc struct {
	Name    string      `yaml:"name"`
	Borders []borderDoc `yaml:"borders"`
}

type projectionLinkDoc struct {
	Triangle int     `yaml:"triangle"`
	Vertices triple  `yaml:"vertices"`
	Weights  vec3    `yaml:"weights"`
	Radius   float64 `yaml:"radius,omitempty"`
}

type projectionDoc struct {
	Name        string              `yaml:"name"`
	Closed      bool                `yaml:"closed,omitempty"`
	Uncertainty float64             `yaml:"uncertainty,omitempty"`
	Links       []projectionLinkDoc `yaml:"links"`
}

type projectionFileDoc struct {
	Name        string          `yaml:"name"`
	Projections []projectionDoc `yaml:"projections"`
}

// SaveBorders writes a border file
func SaveBorders(f *models.BorderFile, path string) error {
	doc := borderFileDoc{Name: f.Name, Borders: make([]borderDoc, len(f.Borders))}
	for i, b := range f.Borders {
		bd := borderDoc{Name: b.Name, Closed: b.Closed, Uncertainty: b.Uncertainty, Links: make([]linkDoc, len(b.Links))}
		for k, l := range b.Links {
			bd.Links[k] = linkDoc{Pos: vec3{l.Pos.X, l.Pos.Y, l.Pos.Z}, Radius: l.Radius}
		}
		doc.Borders[i] = bd
	}
	return save(doc, path)
}

// LoadBorders reads a border file
func LoadBorders(path string) (*models.BorderFile, error) {
	var doc borderFileDoc
	if err := load(path, &doc); err != nil {
		return nil, err
	}

	f := &models.BorderFile{Name: doc.Name}
	for _, bd := range doc.Borders {
		b := models.Border{Name: bd.Name, Closed: bd.Closed, Uncertainty: bd.Uncertainty}
		for _, l := range bd.Links {
			b.Links = append(b.Links, models.Link{Pos: r3.Vec{X: l.Pos[0], Y: l.Pos[1], Z: l.Pos[2]}, Radius: l.Radius})
		}
		f.Add(b)
	}
	return f, nil
}

// SaveBorderProjections writes a border projection file
func SaveBorderProjections(f *models.BorderProjectionFile, path string) error {
	doc := projectionFileDoc{Name: f.Name, Projections: make([]projectionDoc, len(f.Projections))}
	for i, bp := range f.Projections {
		pd := projectionDoc{Name: bp.Name, Closed: bp.Closed, Uncertainty: bp.Uncertainty, Links: make([]projectionLinkDoc, len(bp.Links))}
		for k, l := range bp.Links {
			pd.Links[k] = projectionLinkDoc{
				Triangle: l.Triangle,
				Vertices: triple(l.Vertices),
				Weights:  vec3(l.Weights),
				Radius:   l.Radius,
			}
		}
		doc.Projections[i] = pd
	}
	return save(doc, path)
}

// LoadBorderProjections reads a border projection file. When topo is not nil every
// projection is validated against it.
func LoadBorderProjections(path string, topo *models.Topology) (*models.BorderProjectionFile, error) {
	var doc projectionFileDoc
	if err := load(path, &doc); err != nil {
		return nil, err
	}

	f := &models.BorderProjectionFile{Name: doc.Name}
	for _, pd := range doc.Projections {
		bp := models.BorderProjection{Name: pd.Name, Closed: pd.Closed, Uncertainty: pd.Uncertainty}
		for _, l := range pd.Links {
			bp.Links = append(bp.Links, models.ProjectionLink{
				Triangle: l.Triangle,
				Vertices: [3]int(l.Vertices),
				Weights:  [3]float64(l.Weights),
				Radius:   l.Radius,
			})
		}
		if topo != nil {
			if err := bp.Validate(topo); err != nil {
				return nil, fmt.Errorf("projection %q in %s: %w", bp.Name, path, err)
			}
		}
		f.Add(bp)
	}
	return f, nil
}
