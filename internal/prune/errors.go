package prune

import (
	"errors"
	"fmt"

	"github.com/jmylchreest/palprune/pkg/host"
)

var (
	// ErrNoTargetPalette is returned by selected mode when no palette is targeted.
	ErrNoTargetPalette = errors.New("no palette is currently selected")

	// ErrTargetNotFound is returned when an explicitly named palette is not in the scene palette list.
	ErrTargetNotFound = errors.New("palette not found in scene palette list")

	// ErrIncompleteUsage is returned in strict mode when some drawing content could not be read.
	ErrIncompleteUsage = errors.New("color usage scan is incomplete")
)

// Op names the host mutation that failed.
type Op string

const (
	OpRemoveColor   Op = "remove-color"
	OpCountColors   Op = "count-colors"
	OpDeletePalette Op = "delete-palette"
	OpListColors    Op = "list-colors"
)

// Failure records a host refusal for a single item. Failures never abort the
// batch; they are collected on the Result.
type Failure struct {
	Op      Op
	Palette host.PaletteRef
	Color   host.ColorID
	Err     error
}

// Error implements the error interface.
func (f Failure) Error() string {
	if f.Color != "" {
		return fmt.Sprintf("%s %s on palette %s: %v", f.Op, f.Color, f.Palette, f.Err)
	}
	return fmt.Sprintf("%s on palette %s: %v", f.Op, f.Palette, f.Err)
}

// Unwrap returns the underlying host error.
func (f Failure) Unwrap() error {
	return f.Err
}
