package prune

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-hclog"

	"github.com/jmylchreest/palprune/pkg/host"
)

// Scope restricts a prune to the whole palette list or to one palette.
type Scope struct {
	palette  host.PaletteID
	selected bool
}

// AllPalettes scopes a prune to every palette in the scene palette list.
func AllPalettes() Scope {
	return Scope{}
}

// SinglePalette scopes a prune to one palette.
func SinglePalette(id host.PaletteID) Scope {
	return Scope{palette: id, selected: true}
}

// Palette returns the target palette and whether the scope is restricted.
func (s Scope) Palette() (host.PaletteID, bool) {
	return s.palette, s.selected
}

// PaletteColors is one palette's colors in storage order.
type PaletteColors struct {
	Palette host.PaletteRef
	Index   int
	Colors  []host.ColorID
}

// Catalog is every color registered in the scoped palettes.
type Catalog struct {
	Palettes []PaletteColors

	// All is the union of every palette's colors, in first-seen order.
	All []host.ColorID

	// Shared maps identifiers registered in more than one palette to those palettes.
	Shared map[host.ColorID][]host.PaletteID

	// Skipped lists palettes whose colors could not be listed.
	Skipped []Failure
}

// CollectCatalog walks the scene palette list in index order and records each
// palette's colors in storage order. A palette whose colors cannot be listed is
// skipped and recorded, so it is never pruned.
func CollectCatalog(ctx context.Context, h host.Host, scope Scope, logger hclog.Logger) (*Catalog, error) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	palettes, err := h.Palettes(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list palettes: %w", err)
	}

	catalog := &Catalog{Shared: make(map[host.ColorID][]host.PaletteID)}
	owners := make(map[host.ColorID][]host.PaletteID)

	target, restricted := scope.Palette()
	found := false

	for idx, ref := range palettes {
		if restricted && ref.ID != target {
			continue
		}
		found = true

		colors, err := h.PaletteColors(ctx, ref.ID)
		if err != nil {
			catalog.Skipped = append(catalog.Skipped, Failure{Op: OpListColors, Palette: ref, Err: err})
			logger.Warn("skipping palette", "palette", ref.String(), "error", err)
			continue
		}

		catalog.Palettes = append(catalog.Palettes, PaletteColors{Palette: ref, Index: idx, Colors: colors})

		for _, c := range colors {
			list := owners[c]
			if len(list) > 0 && list[len(list)-1] == ref.ID {
				continue
			}
			if len(list) == 0 {
				catalog.All = append(catalog.All, c)
			}
			owners[c] = append(list, ref.ID)
		}
	}

	if restricted && !found {
		return nil, fmt.Errorf("%w: %s", ErrTargetNotFound, target)
	}

	for id, list := range owners {
		if len(list) > 1 {
			catalog.Shared[id] = list
		}
	}

	logger.Debug("catalog collected", "palettes", len(catalog.Palettes), "colors", len(catalog.All),
		"shared", len(catalog.Shared))

	return catalog, nil
}
