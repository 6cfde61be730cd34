// Package host provides the public capability API a host animation application
// exposes to palprune.
package host

import "fmt"

// NodeRef identifies a drawing-producing node in the host's content graph.
type NodeRef string

// ColumnRef identifies a timeline column.
type ColumnRef string

// ContentKey is the cel reference a column holds at a given frame.
type ContentKey string

// ColorID identifies a single palette color swatch.
type ColorID string

// PaletteID identifies a palette within the scene palette list.
type PaletteID string

// TimingMode selects which column drives a drawing node's displayed image.
type TimingMode int

const (
	// ByElement uses the node's element column.
	ByElement TimingMode = iota
	// ByName uses the node's named-timing column.
	ByName
)

// String returns the lower-case name of the mode.
func (m TimingMode) String() string {
	switch m {
	case ByElement:
		return "element"
	case ByName:
		return "name"
	default:
		return fmt.Sprintf("TimingMode(%d)", int(m))
	}
}

// ColumnAttr returns the node attribute whose linked column supplies the
// drawing for this mode.
func (m TimingMode) ColumnAttr() string {
	if m == ByElement {
		return "drawing.element"
	}
	return "drawing.customName.timing"
}

// ParseTimingMode parses "element" or "name". An empty string means ByElement.
func ParseTimingMode(s string) (TimingMode, error) {
	switch s {
	case "", "element", "by-element":
		return ByElement, nil
	case "name", "by-name":
		return ByName, nil
	default:
		return ByElement, fmt.Errorf("invalid timing mode: %q (expected element or name)", s)
	}
}

// PaletteRef describes a palette in the scene palette list.
type PaletteRef struct {
	ID   PaletteID `json:"id"`
	Name string    `json:"name"`
	Path string    `json:"path,omitempty"`
}

// String returns the palette name, falling back to its identifier.
func (p PaletteRef) String() string {
	if p.Name != "" {
		return p.Name
	}
	return string(p.ID)
}

// Info describes the host implementation behind a Host.
type Info struct {
	Name            string `json:"name"`
	Version         string `json:"version"`
	ProtocolVersion string `json:"protocol_version"`
	Description     string `json:"description"`
}
