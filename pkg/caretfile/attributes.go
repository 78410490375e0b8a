package caretfile

import (
	"fmt"

	"caretflat/internal/models"
)

type paintDoc struct {
	Name    string      `yaml:"name"`
	Names   []string    `yaml:"names"`
	Columns []columnDoc `yaml:"columns"`
	// Nodes holds one row of name indices per node, one entry per column
	Nodes []intRow `yaml:"nodes"`
}

type colorDoc struct {
	Name string `yaml:"name"`
	RGB  intRow `yaml:"rgb"`
}

type areaColorDoc struct {
	Name   string     `yaml:"name"`
	Colors []colorDoc `yaml:"colors"`
}

type arealPair struct {
	Name        int     `yaml:"n"`
	Probability float64 `yaml:"p"`
}

type arealCell [models.ArealEntriesPerNode]arealPair

func (c arealCell) MarshalYAML() (interface{}, error) {
	return flowNode([models.ArealEntriesPerNode]arealPair(c))
}

type arealDoc struct {
	Name    string      `yaml:"name"`
	Names   []string    `yaml:"names"`
	Columns []columnDoc `yaml:"columns"`
	// Nodes holds one cell per column for every node
	Nodes [][]arealCell `yaml:"nodes"`
}

func columnDocs(columns []models.ColumnInfo) []columnDoc {
	out := make([]columnDoc, len(columns))
	for i, c := range columns {
		out[i] = columnDoc{Name: c.Name, LongName: c.LongName, Comment: c.Comment}
	}
	return out
}

func columnInfos(columns []columnDoc) []models.ColumnInfo {
	out := make([]models.ColumnInfo, len(columns))
	for i, c := range columns {
		out[i] = models.ColumnInfo{Name: c.Name, LongName: c.LongName, Comment: c.Comment}
	}
	return out
}

// SavePaint writes a paint file
func SavePaint(pf *models.PaintFile, path string) error {
	doc := paintDoc{
		Name:    pf.Name,
		Names:   pf.PaintNames(),
		Columns: columnDocs(pf.Columns),
		Nodes:   make([]intRow, pf.NumNodes()),
	}
	for n := range doc.Nodes {
		row := make(intRow, pf.NumColumns())
		for c := range row {
			row[c] = pf.Paint(n, c)
		}
		doc.Nodes[n] = row
	}
	return save(doc, path)
}

// LoadPaint reads a paint file. The returned file is not marked modified.
func LoadPaint(path string) (*models.PaintFile, error) {
	var doc paintDoc
	if err := load(path, &doc); err != nil {
		return nil, err
	}

	pf := models.NewPaintFile(len(doc.Nodes), len(doc.Columns))
	pf.Name = doc.Name
	pf.Columns = columnInfos(doc.Columns)

	remap := make([]int, len(doc.Names))
	for i, name := range doc.Names {
		remap[i] = pf.AddPaintName(name)
	}
	for n, row := range doc.Nodes {
		if len(row) != len(doc.Columns) {
			return nil, fmt.Errorf("%s: node %d has %d values, file has %d columns", path, n, len(row), len(doc.Columns))
		}
		for c, index := range row {
			if err := checkIndex(path, n, index, len(remap)); err != nil {
				return nil, err
			}
			pf.SetPaint(n, c, remap[index])
		}
	}
	pf.ClearModified()
	return pf, nil
}

// SaveAreaColors writes an area colour file
func SaveAreaColors(cf *models.AreaColorFile, path string) error {
	doc := areaColorDoc{Name: cf.Name, Colors: make([]colorDoc, len(cf.Colors))}
	for i, c := range cf.Colors {
		doc.Colors[i] = colorDoc{Name: c.Name, RGB: intRow{int(c.R), int(c.G), int(c.B)}}
	}
	return save(doc, path)
}

// LoadAreaColors reads an area colour file
func LoadAreaColors(path string) (*models.AreaColorFile, error) {
	var doc areaColorDoc
	if err := load(path, &doc); err != nil {
		return nil, err
	}

	cf := &models.AreaColorFile{Name: doc.Name}
	for _, c := range doc.Colors {
		if len(c.RGB) != 3 {
			return nil, fmt.Errorf("%s: colour %q needs 3 components, has %d", path, c.Name, len(c.RGB))
		}
		var rgb [3]uint8
		for k, v := range c.RGB {
			if v < 0 || v > 255 {
				return nil, fmt.Errorf("%s: colour %q component %d out of range", path, c.Name, v)
			}
			rgb[k] = uint8(v)
		}
		cf.Colors = append(cf.Colors, models.AreaColor{Name: c.Name, R: rgb[0], G: rgb[1], B: rgb[2]})
	}
	return cf, nil
}

// SaveArealEstimation writes an areal estimation file
func SaveArealEstimation(af *models.ArealEstimationFile, path string) error {
	names := af.Names()
	index := make(map[string]int, len(names))
	for i, name := range names {
		index[name] = i
	}

	doc := arealDoc{
		Name:    af.Name,
		Names:   names,
		Columns: columnDocs(af.Columns),
		Nodes:   make([][]arealCell, af.NumNodes()),
	}
	for n := range doc.Nodes {
		row := make([]arealCell, af.NumColumns())
		for c := range row {
			for k, e := range af.Entries(n, c) {
				row[c][k] = arealPair{Name: index[e.Name], Probability: e.Probability}
			}
		}
		doc.Nodes[n] = row
	}
	return save(doc, path)
}

// LoadArealEstimation reads an areal estimation file
func LoadArealEstimation(path string) (*models.ArealEstimationFile, error) {
	var doc arealDoc
	if err := load(path, &doc); err != nil {
		return nil, err
	}

	af := models.NewArealEstimationFile(len(doc.Nodes), len(doc.Columns))
	af.Name = doc.Name
	af.Columns = columnInfos(doc.Columns)
	for n, row := range doc.Nodes {
		if len(row) != len(doc.Columns) {
			return nil, fmt.Errorf("%s: node %d has %d cells, file has %d columns", path, n, len(row), len(doc.Columns))
		}
		for c, cell := range row {
			var entries [models.ArealEntriesPerNode]models.ArealEntry
			for k, pair := range cell {
				if err := checkIndex(path, n, pair.Name, len(doc.Names)); err != nil {
					return nil, err
				}
				entries[k] = models.ArealEntry{Name: doc.Names[pair.Name], Probability: pair.Probability}
			}
			af.SetEntries(n, c, entries)
		}
	}
	return af, nil
}
