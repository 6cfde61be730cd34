package scene

// Document is the on-disk scene description.
type Document struct {
	Name           string                `yaml:"name" json:"name"`
	Frames         int                   `yaml:"frames" json:"frames"`
	CurrentPalette string                `yaml:"current_palette,omitempty" json:"current_palette,omitempty"`
	Nodes          []NodeSpec            `yaml:"nodes" json:"nodes"`
	Columns        map[string]ColumnSpec `yaml:"columns" json:"columns"`
	Palettes       []PaletteEntry        `yaml:"palettes" json:"palettes"`
}

// NodeSpec describes a drawing node and the drawings it can display.
type NodeSpec struct {
	Name          string `yaml:"name" json:"name"`
	Timing        string `yaml:"timing,omitempty" json:"timing,omitempty"` // "element" or "name"
	ElementColumn string `yaml:"element_column,omitempty" json:"element_column,omitempty"`
	TimingColumn  string `yaml:"timing_column,omitempty" json:"timing_column,omitempty"`

	// Drawings maps a content key to the color identifiers painted in it.
	Drawings map[string][]string `yaml:"drawings,omitempty" json:"drawings,omitempty"`
}

// ColumnSpec holds a column's per-frame values. Values[0] is frame 1; frames
// past the end hold an empty cel.
type ColumnSpec struct {
	Values []string `yaml:"values" json:"values"`
}

// PaletteEntry places a palette file in the scene palette list.
type PaletteEntry struct {
	ID   string `yaml:"id,omitempty" json:"id,omitempty"`
	File string `yaml:"file" json:"file"`
}

// PaletteFile is the on-disk palette format.
type PaletteFile struct {
	Name   string   `yaml:"name" json:"name"`
	Locked bool     `yaml:"locked,omitempty" json:"locked,omitempty"`
	Colors []Swatch `yaml:"colors" json:"colors"`
}

// Swatch is a single palette color.
type Swatch struct {
	ID   string `yaml:"id" json:"id"`
	Name string `yaml:"name,omitempty" json:"name,omitempty"`
	RGBA string `yaml:"rgba,omitempty" json:"rgba,omitempty"`
}

func (p PaletteFile) clone() PaletteFile {
	c := p
	c.Colors = append([]Swatch(nil), p.Colors...)
	return c
}
