package models

// Well-known names shared by the flattener, the converter and the files they write
const (
	MedialWallName             = "MEDIAL.WALL"
	SentinelName               = "???"
	SulcalIdentificationColumn = "Sulcal Identification"
	GeographyColumn            = "Geography"
)

// ColumnInfo is the metadata of one node attribute column
type ColumnInfo struct {
	Name     string
	LongName string
	Comment  string
}

// nameTable maps label names to stable indices
type nameTable struct {
	names []string
}

func (t *nameTable) index(name string) int {
	for i, n := range t.names {
		if n == name {
			return i
		}
	}
	return -1
}

func (t *nameTable) add(name string) int {
	if i := t.index(name); i >= 0 {
		return i
	}
	t.names = append(t.names, name)
	return len(t.names) - 1
}

func (t *nameTable) name(i int) string {
	if i < 0 || i >= len(t.names) {
		return ""
	}
	return t.names[i]
}

func columnWithName(columns []ColumnInfo, name string) int {
	for i, c := range columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// PaintFile holds integer label columns indexing a shared name table
type PaintFile struct {
	Name    string
	Columns []ColumnInfo

	table    nameTable
	values   [][]int // [node][column]
	modified bool
}

// NewPaintFile creates a paint file with numNodes rows and numColumns columns
func NewPaintFile(numNodes, numColumns int) *PaintFile {
	pf := &PaintFile{}
	pf.SetNumberOfNodesAndColumns(numNodes, numColumns)
	return pf
}

// SetNumberOfNodesAndColumns discards all values and resizes the file. Every node
// starts with the sentinel label.
func (pf *PaintFile) SetNumberOfNodesAndColumns(numNodes, numColumns int) {
	sentinel := pf.table.add(SentinelName)
	pf.values = make([][]int, numNodes)
	for i := range pf.values {
		pf.values[i] = make([]int, numColumns)
		for j := range pf.values[i] {
			pf.values[i][j] = sentinel
		}
	}
	pf.Columns = make([]ColumnInfo, numColumns)
	pf.modified = true
}

// NumNodes returns the number of rows
func (pf *PaintFile) NumNodes() int { return len(pf.values) }

// NumColumns returns the number of columns
func (pf *PaintFile) NumColumns() int { return len(pf.Columns) }

// AddColumns appends n columns filled with the label fill
func (pf *PaintFile) AddColumns(n int, fill int) {
	for i := range pf.values {
		for k := 0; k < n; k++ {
			pf.values[i] = append(pf.values[i], fill)
		}
	}
	pf.Columns = append(pf.Columns, make([]ColumnInfo, n)...)
	pf.modified = true
}

// ColumnWithName returns the index of the column named name, or -1
func (pf *PaintFile) ColumnWithName(name string) int {
	return columnWithName(pf.Columns, name)
}

// AddPaintName returns the index of name, adding it to the name table if needed
func (pf *PaintFile) AddPaintName(name string) int {
	before := len(pf.table.names)
	i := pf.table.add(name)
	if len(pf.table.names) != before {
		pf.modified = true
	}
	return i
}

// PaintIndexFromName returns the index of name, or -1
func (pf *PaintFile) PaintIndexFromName(name string) int {
	return pf.table.index(name)
}

// PaintName returns the name at index i
func (pf *PaintFile) PaintName(i int) string {
	return pf.table.name(i)
}

// PaintNames returns the name table
func (pf *PaintFile) PaintNames() []string {
	return append([]string(nil), pf.table.names...)
}

// Paint returns the label index of node in column
func (pf *PaintFile) Paint(node, column int) int {
	return pf.values[node][column]
}

// PaintNameAt returns the label name of node in column
func (pf *PaintFile) PaintNameAt(node, column int) string {
	return pf.table.name(pf.values[node][column])
}

// SetPaint sets the label index of node in column
func (pf *PaintFile) SetPaint(node, column, index int) {
	if pf.values[node][column] != index {
		pf.values[node][column] = index
		pf.modified = true
	}
}

// Modified reports whether the file changed since it was created or last marked clean
func (pf *PaintFile) Modified() bool { return pf.modified }

// ClearModified marks the file clean, typically after writing it
func (pf *PaintFile) ClearModified() { pf.modified = false }

// Clone returns a deep copy of the paint file
func (pf *PaintFile) Clone() *PaintFile {
	c := &PaintFile{
		Name:     pf.Name,
		Columns:  append([]ColumnInfo(nil), pf.Columns...),
		table:    nameTable{names: append([]string(nil), pf.table.names...)},
		values:   make([][]int, len(pf.values)),
		modified: pf.modified,
	}
	for i, row := range pf.values {
		c.values[i] = append([]int(nil), row...)
	}
	return c
}

// AreaColor is a named RGB colour
type AreaColor struct {
	Name    string
	R, G, B uint8
}

// AreaColorFile is an ordered list of named colours
type AreaColorFile struct {
	Name     string
	Colors   []AreaColor
	modified bool
}

// ColorIndexByName returns the index of the colour named name
func (cf *AreaColorFile) ColorIndexByName(name string) (int, bool) {
	for i, c := range cf.Colors {
		if c.Name == name {
			return i, true
		}
	}
	return -1, false
}

// AddColor appends a colour
func (cf *AreaColorFile) AddColor(name string, r, g, b uint8) {
	cf.Colors = append(cf.Colors, AreaColor{Name: name, R: r, G: g, B: b})
	cf.modified = true
}

// Modified reports whether a colour was added
func (cf *AreaColorFile) Modified() bool { return cf.modified }

// ClearModified marks the file clean
func (cf *AreaColorFile) ClearModified() { cf.modified = false }

// ArealEntriesPerNode is the fixed number of (name, probability) pairs per cell
const ArealEntriesPerNode = 4

// ArealEntry is one candidate region for a node
type ArealEntry struct {
	Name        string
	Probability float64
}

// SentinelEntries returns the ("???", 0) cell
func SentinelEntries() [ArealEntriesPerNode]ArealEntry {
	var e [ArealEntriesPerNode]ArealEntry
	for i := range e {
		e[i] = ArealEntry{Name: SentinelName}
	}
	return e
}

type arealCell struct {
	names [ArealEntriesPerNode]int
	probs [ArealEntriesPerNode]float64
}

// ArealEstimationFile holds per-node cells of four (name, probability) pairs per column
type ArealEstimationFile struct {
	Name    string
	Columns []ColumnInfo

	table nameTable
	cells [][]arealCell // [node][column]
}

// NewArealEstimationFile creates a file with numNodes rows and numColumns columns
func NewArealEstimationFile(numNodes, numColumns int) *ArealEstimationFile {
	af := &ArealEstimationFile{}
	af.SetNumberOfNodesAndColumns(numNodes, numColumns)
	return af
}

// SetNumberOfNodesAndColumns discards all values and resizes the file. Every cell
// starts as the sentinel.
func (af *ArealEstimationFile) SetNumberOfNodesAndColumns(numNodes, numColumns int) {
	af.cells = make([][]arealCell, numNodes)
	for i := range af.cells {
		af.cells[i] = make([]arealCell, numColumns)
		for j := range af.cells[i] {
			af.cells[i][j] = af.sentinelCell()
		}
	}
	af.Columns = make([]ColumnInfo, numColumns)
}

func (af *ArealEstimationFile) sentinelCell() arealCell {
	s := af.table.add(SentinelName)
	var c arealCell
	for k := range c.names {
		c.names[k] = s
	}
	return c
}

// NumNodes returns the number of rows
func (af *ArealEstimationFile) NumNodes() int { return len(af.cells) }

// NumColumns returns the number of columns
func (af *ArealEstimationFile) NumColumns() int { return len(af.Columns) }

// AddColumns appends n sentinel columns
func (af *ArealEstimationFile) AddColumns(n int) {
	for i := range af.cells {
		for k := 0; k < n; k++ {
			af.cells[i] = append(af.cells[i], af.sentinelCell())
		}
	}
	af.Columns = append(af.Columns, make([]ColumnInfo, n)...)
}

// ColumnWithName returns the index of the column named name, or -1
func (af *ArealEstimationFile) ColumnWithName(name string) int {
	return columnWithName(af.Columns, name)
}

// Names returns the name table
func (af *ArealEstimationFile) Names() []string {
	return append([]string(nil), af.table.names...)
}

// SetEntries stores the four entries of node in column
func (af *ArealEstimationFile) SetEntries(node, column int, entries [ArealEntriesPerNode]ArealEntry) {
	var c arealCell
	for k, e := range entries {
		c.names[k] = af.table.add(e.Name)
		c.probs[k] = e.Probability
	}
	af.cells[node][column] = c
}

// Entries returns the four entries of node in column
func (af *ArealEstimationFile) Entries(node, column int) [ArealEntriesPerNode]ArealEntry {
	c := af.cells[node][column]
	var out [ArealEntriesPerNode]ArealEntry
	for k := range out {
		out[k] = ArealEntry{Name: af.table.name(c.names[k]), Probability: c.probs[k]}
	}
	return out
}
