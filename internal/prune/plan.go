package prune

import (
	"github.com/jmylchreest/palprune/pkg/host"
)

// Mode selects which palettes a prune operates on.
type Mode int

const (
	// ModeAll prunes every palette in the scene palette list.
	ModeAll Mode = iota
	// ModeSelected prunes only the targeted palette.
	ModeSelected
)

// String returns the command name of the mode.
func (m Mode) String() string {
	if m == ModeSelected {
		return "selected"
	}
	return "all"
}

// TransactionLabel returns the undo group label used for the mode.
func (m Mode) TransactionLabel() string {
	if m == ModeSelected {
		return "Remove Unused Colors On Selected Palette"
	}
	return "Remove Unused Scene Colors And Palettes"
}

// PalettePlan is the intended change to one palette.
type PalettePlan struct {
	Palette host.PaletteRef
	Index   int

	// Keep lists the palette's used colors in storage order.
	Keep []host.ColorID

	// Remove lists the palette's unused colors in reverse storage order,
	// which is the order removals are issued in.
	Remove []host.ColorID
}

// Empties reports whether the palette is left without colors.
func (p PalettePlan) Empties() bool {
	return len(p.Keep) == 0
}

// Plan is the full set of intended changes, in palette index order.
type Plan struct {
	Mode     Mode
	Palettes []PalettePlan
}

// BuildPlan computes, per palette, the cataloged colors missing from usage.
func BuildPlan(mode Mode, usage *Usage, catalog *Catalog) *Plan {
	plan := &Plan{Mode: mode}

	for _, pc := range catalog.Palettes {
		pp := PalettePlan{Palette: pc.Palette, Index: pc.Index}
		queued := make(map[host.ColorID]struct{})

		for i := len(pc.Colors) - 1; i >= 0; i-- {
			c := pc.Colors[i]
			if usage.Has(c) {
				continue
			}
			if _, dup := queued[c]; dup {
				continue
			}
			queued[c] = struct{}{}
			pp.Remove = append(pp.Remove, c)
		}

		for _, c := range pc.Colors {
			if usage.Has(c) {
				pp.Keep = append(pp.Keep, c)
			}
		}

		plan.Palettes = append(plan.Palettes, pp)
	}

	return plan
}

// Removals returns the number of color removals in the plan.
func (p *Plan) Removals() int {
	n := 0
	for _, pp := range p.Palettes {
		n += len(pp.Remove)
	}
	return n
}

// Deletions returns the palettes expected to be deleted, in index order.
func (p *Plan) Deletions() []host.PaletteRef {
	var refs []host.PaletteRef
	for _, pp := range p.Palettes {
		if pp.Empties() {
			refs = append(refs, pp.Palette)
		}
	}
	return refs
}

// Empty reports whether applying the plan would change nothing.
func (p *Plan) Empty() bool {
	return p.Removals() == 0 && len(p.Deletions()) == 0
}
